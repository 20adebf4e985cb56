// package store provides the persistent store adapter and the key-value substrates it runs on.
//
// A [Substrate] is a raw byte store shared by every context (process or in-process client) that opens it.
// The [Store] adapter layers JSON encoding, corruption recovery and error swallowing on top.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/streamsavvy/internal/shared"
)

const (
	watchBuffer         = 16
	defaultPollInterval = time.Second
)

// Change is delivered to watchers when a key is written or removed by any context sharing the substrate.
// Value is nil when the key was removed.
//
// Notifications coalesce when a watcher falls behind, so receivers should treat a Change as "re-read this key".
type Change struct {
	Key   string
	Value []byte
}

// Removed reports whether the change is a removal.
func (c Change) Removed() bool { return c.Value == nil }

// Substrate is a key-value byte store with change notification.
type Substrate interface {
	// Get returns the raw value and whether the key exists.
	Get(key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error

	// Watch reports changes to key until ctx is cancelled, at which point the channel is closed.
	Watch(ctx context.Context, key string) (<-chan Change, error)

	// Close releases resources held by the substrate.
	Close() error
}

// quotaSubstrate rejects values larger than max bytes, the way a browser rejects writes past its storage quota.
type quotaSubstrate struct {
	Substrate
	max int
}

// WithQuota wraps s so writes above max bytes fail with [shared.ErrQuotaExceeded]. A max of 0 disables the check.
func WithQuota(s Substrate, max int) Substrate {
	if max <= 0 {
		return s
	}
	return &quotaSubstrate{Substrate: s, max: max}
}

func (q *quotaSubstrate) Set(key string, value []byte) error {
	if len(value) > q.max {
		return fmt.Errorf("%w: %s is %d bytes (limit %d)", shared.ErrQuotaExceeded, key, len(value), q.max)
	}
	return q.Substrate.Set(key, value)
}

// notify performs a non-blocking send; a full buffer already holds a pending change for the receiver.
func notify(ch chan Change, c Change) {
	select {
	case ch <- c:
	default:
	}
}
