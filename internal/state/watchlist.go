package state

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/desertthunder/streamsavvy/internal/store"
)

// Reconciler keeps the watchlist in memory consistent with the persisted collection.
//
// One collection exists per store: every identity signed in against the same store shares it. Mutations re-read
// the persisted collection first, so an add never duplicates an entry another context already saved. When the
// persisted collection cannot be read, the in-memory copy is used instead.
type Reconciler struct {
	store  *store.Store
	logger *log.Logger

	mu        sync.RWMutex
	items     []models.WatchlistEntry
	listeners []func([]models.WatchlistEntry)
}

// NewReconciler creates a Reconciler and loads the persisted collection.
func NewReconciler(s *store.Store) *Reconciler {
	r := &Reconciler{store: s, logger: s.Logger()}
	r.items = r.readStored()
	return r
}

func (r *Reconciler) readStored() []models.WatchlistEntry {
	var items []models.WatchlistEntry
	if !r.store.Read(store.KeyWatchlist, &items) {
		return nil
	}
	return items
}

// base must be called with mu held.
func (r *Reconciler) base() []models.WatchlistEntry {
	var items []models.WatchlistEntry
	if r.store.Read(store.KeyWatchlist, &items) {
		return items
	}
	return slices.Clone(r.items)
}

func (r *Reconciler) persist(items []models.WatchlistEntry) {
	if items == nil {
		items = []models.WatchlistEntry{}
	}
	r.items = items
	r.store.Write(store.KeyWatchlist, items)
}

func indexOf(items []models.WatchlistEntry, key models.MediaKey) int {
	return slices.IndexFunc(items, func(e models.WatchlistEntry) bool { return e.Key() == key })
}

// Add normalizes item and appends it unless an entry with the same media key exists.
// It reports whether the entry was added.
func (r *Reconciler) Add(item models.Watchable) (bool, error) {
	entry := item.WatchlistEntry().Normalize()
	if entry.ID <= 0 {
		return false, fmt.Errorf("%w: watchlist entry needs a positive id", shared.ErrInvalidInput)
	}

	r.mu.Lock()
	items := r.base()
	if indexOf(items, entry.Key()) >= 0 {
		r.items = items
		r.mu.Unlock()
		return false, nil
	}
	r.persist(append(items, entry))
	snapshot := slices.Clone(r.items)
	r.mu.Unlock()

	r.logger.Debug("added to watchlist", "key", entry.Key(), "title", entry.Title)
	r.emit(snapshot)
	return true, nil
}

// Remove drops every entry with the given key and persists the result, even when nothing matched.
// It reports whether an entry was removed.
func (r *Reconciler) Remove(key models.MediaKey) bool {
	r.mu.Lock()
	items := r.base()
	before := len(items)
	kept := slices.DeleteFunc(items, func(e models.WatchlistEntry) bool { return e.Key() == key })
	removed := len(kept) != before
	r.persist(kept)
	snapshot := slices.Clone(r.items)
	r.mu.Unlock()

	if removed {
		r.logger.Debug("removed from watchlist", "key", key)
	}
	r.emit(snapshot)
	return removed
}

// Update replaces the entry that has the same key as entry. It reports whether an entry was replaced.
func (r *Reconciler) Update(entry models.WatchlistEntry) bool {
	entry = entry.Normalize()

	r.mu.Lock()
	items := r.base()
	i := indexOf(items, entry.Key())
	if i < 0 {
		r.items = items
		r.mu.Unlock()
		return false
	}
	items[i] = entry
	r.persist(items)
	snapshot := slices.Clone(r.items)
	r.mu.Unlock()

	r.emit(snapshot)
	return true
}

// Clear empties the watchlist.
func (r *Reconciler) Clear() {
	r.mu.Lock()
	r.persist(nil)
	r.mu.Unlock()
	r.emit(nil)
}

// IsInWatchlist reports whether the in-memory watchlist holds key.
func (r *Reconciler) IsInWatchlist(key models.MediaKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return indexOf(r.items, key) >= 0
}

// Items returns a copy of the in-memory watchlist.
func (r *Reconciler) Items() []models.WatchlistEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.items)
}

// Len returns the number of in-memory entries.
func (r *Reconciler) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Reload replaces the in-memory watchlist with the persisted one. An absent or corrupt collection is empty.
func (r *Reconciler) Reload() []models.WatchlistEntry {
	r.mu.Lock()
	r.items = r.readStored()
	snapshot := slices.Clone(r.items)
	r.mu.Unlock()

	r.emit(snapshot)
	return snapshot
}

// OnChange registers fn to be called with a snapshot after every mutation or resync.
func (r *Reconciler) OnChange(fn func([]models.WatchlistEntry)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *Reconciler) emit(snapshot []models.WatchlistEntry) {
	r.mu.RLock()
	listeners := slices.Clone(r.listeners)
	r.mu.RUnlock()

	for _, fn := range listeners {
		fn(slices.Clone(snapshot))
	}
}

// Watch resynchronizes from the store whenever any context writes the watchlist, until ctx is cancelled.
// The returned channel is closed when watching stops.
func (r *Reconciler) Watch(ctx context.Context) (<-chan struct{}, error) {
	changes, err := r.store.Watch(ctx, store.KeyWatchlist)
	if err != nil {
		return nil, fmt.Errorf("failed to watch watchlist: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range changes {
			items := r.Reload()
			r.logger.Debug("watchlist resynchronized", "items", len(items))
		}
	}()

	return done, nil
}
