package state

import (
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/store"
)

// Notifications is the capped notification feed, newest first.
type Notifications struct {
	store *store.Store
	now   func() time.Time

	mu    sync.Mutex
	items []models.Notification
}

// NewNotifications loads the persisted feed. A missing or malformed feed starts empty.
func NewNotifications(s *store.Store) *Notifications {
	n := &Notifications{store: s, now: time.Now}
	s.Read(store.KeyNotifications, &n.items)
	return n
}

// base must be called with mu held.
func (n *Notifications) base() []models.Notification {
	var items []models.Notification
	if n.store.Read(store.KeyNotifications, &items) {
		return items
	}
	return slices.Clone(n.items)
}

// save must be called with mu held.
func (n *Notifications) save(items []models.Notification) {
	if len(items) > models.MaxNotifications {
		items = items[:models.MaxNotifications]
	}
	if items == nil {
		items = []models.Notification{}
	}
	n.items = items
	n.store.Write(store.KeyNotifications, items)
}

func (n *Notifications) stamp(item models.Notification) models.Notification {
	if item.Timestamp == 0 {
		item.Timestamp = n.now().UnixMilli()
	}
	item.Read = false
	return item
}

// Add merges item into an existing notification with the same id, or prepends it. Either way it becomes unread.
func (n *Notifications) Add(item models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	items := n.base()
	if i := slices.IndexFunc(items, func(x models.Notification) bool { return x.ID == item.ID }); i >= 0 {
		items[i] = merge(items[i], item)
		n.save(items)
		return
	}
	n.save(append([]models.Notification{n.stamp(item)}, items...))
}

// AddMany merges batch by id, marks every added notification unread and keeps the newest by timestamp.
func (n *Notifications) AddMany(batch []models.Notification) {
	if len(batch) == 0 {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	items := n.base()
	for _, item := range batch {
		item = n.stamp(item)
		if i := slices.IndexFunc(items, func(x models.Notification) bool { return x.ID == item.ID }); i >= 0 {
			items[i] = item
			continue
		}
		items = append(items, item)
	}

	slices.SortStableFunc(items, func(a, b models.Notification) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		default:
			return 0
		}
	})
	n.save(items)
}

func merge(old, upd models.Notification) models.Notification {
	if upd.Title == "" {
		upd.Title = old.Title
	}
	if upd.Message == "" {
		upd.Message = old.Message
	}
	if upd.Link == "" {
		upd.Link = old.Link
	}
	if upd.Timestamp == 0 {
		upd.Timestamp = old.Timestamp
	}
	upd.Read = false
	return upd
}

// MarkAllRead marks every notification read.
func (n *Notifications) MarkAllRead() {
	n.mu.Lock()
	defer n.mu.Unlock()

	items := n.base()
	for i := range items {
		items[i].Read = true
	}
	n.save(items)
}

// Clear removes every notification.
func (n *Notifications) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.save(nil)
}

// List returns the feed, newest first.
func (n *Notifications) List() []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = n.base()
	return slices.Clone(n.items)
}

// UnreadCount returns the number of unread notifications.
func (n *Notifications) UnreadCount() int {
	count := 0
	for _, item := range n.List() {
		if !item.Read {
			count++
		}
	}
	return count
}
