package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/spf13/afero"
)

// Persisted document keys. These strings are stable across versions.
const (
	KeySession       = "streamsavvy_auth"
	KeyAccount       = "streamsavvy_account"
	KeyIdentities    = "streamsavvy_users"
	KeyWatchlist     = "streamsavvy_watchlist"
	KeyNotifications = "streamsavvy_notifications"
	KeySeenTrending  = "streamsavvy_seen_trending_ids"
)

// Store is the persistent store adapter: JSON documents over a [Substrate].
//
// Read never fails to its caller; corrupt values are logged and treated as absent. Write and Remove log and
// swallow substrate failures, so in-memory state stays authoritative when persistence fails.
type Store struct {
	sub    Substrate
	logger *log.Logger
}

// New creates a Store over sub.
func New(sub Substrate, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{sub: sub, logger: logger}
}

// Open builds the substrate selected by cfg.Storage.Backend and wraps it in a Store.
func Open(cfg *shared.Config, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}

	var sub Substrate
	switch cfg.Storage.Backend {
	case "memory":
		sub = NewMemorySubstrate()
	case "dir":
		dir, err := NewDirSubstrate(afero.NewOsFs(), cfg.Storage.Dir,
			WithPollInterval(cfg.Sync.PollInterval()), WithDirLogger(logger))
		if err != nil {
			return nil, err
		}
		sub = dir
	case "sqlite":
		db, err := shared.NewDatabase(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		if cfg.Database.Path != ":memory:" {
			shared.ConfigureDatabase(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		}
		if err := shared.RunMigrations(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		sub = NewSQLiteSubstrate(db, cfg.Sync.PollInterval(), logger)
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", shared.ErrInvalidConfig, cfg.Storage.Backend)
	}

	return New(WithQuota(sub, cfg.Storage.MaxValueBytes), logger), nil
}

// Read decodes the value under key into dst, which must be a non-nil pointer.
//
// It returns false when the key is absent, holds JSON null, or cannot be decoded. dst is only modified on success.
func (s *Store) Read(key string, dst any) bool {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		s.logger.Error("store read needs a non-nil pointer", "key", key, "type", fmt.Sprintf("%T", dst))
		return false
	}

	data, ok, err := s.sub.Get(key)
	if err != nil {
		s.logger.Warn("failed to read key", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false
	}

	tmp := reflect.New(rv.Elem().Type())
	if err := json.Unmarshal(trimmed, tmp.Interface()); err != nil {
		s.logger.Warn("ignoring stored value", "key", key, "error", fmt.Errorf("%w: %v", shared.ErrStorageCorrupt, err))
		return false
	}

	rv.Elem().Set(tmp.Elem())
	return true
}

// Write encodes v and stores it under key. Failures are logged, not returned.
func (s *Store) Write(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode value", "key", key, "error", err)
		return
	}

	if err := s.sub.Set(key, data); err != nil {
		s.logger.Error("failed to persist value", "key", key, "error", err)
	}
}

// Remove deletes key. It is idempotent and failures are logged, not returned.
func (s *Store) Remove(key string) {
	if err := s.sub.Remove(key); err != nil {
		s.logger.Error("failed to remove value", "key", key, "error", err)
	}
}

// Has reports whether key is present, regardless of whether it decodes.
func (s *Store) Has(key string) bool {
	_, ok, err := s.sub.Get(key)
	if err != nil {
		s.logger.Warn("failed to read key", "key", key, "error", err)
		return false
	}
	return ok
}

// Watch subscribes to changes of key made by any context sharing the substrate.
func (s *Store) Watch(ctx context.Context, key string) (<-chan Change, error) {
	return s.sub.Watch(ctx, key)
}

// Logger returns the logger the store reports to.
func (s *Store) Logger() *log.Logger { return s.logger }

// Close closes the substrate.
func (s *Store) Close() error {
	return s.sub.Close()
}
