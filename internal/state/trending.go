package state

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/store"
)

const (
	maxTrendingNotifications = 5
	maxSeenTrending          = 100
)

// TrendingSource lists currently trending titles.
type TrendingSource interface {
	Trending(ctx context.Context, mediaType models.MediaType) (*models.CatalogPage, error)
}

// TrendingNotifier turns trending titles the user has not seen into notifications.
type TrendingNotifier struct {
	source        TrendingSource
	store         *store.Store
	notifications *Notifications
	now           func() time.Time
}

// NewTrendingNotifier creates a TrendingNotifier.
func NewTrendingNotifier(source TrendingSource, s *store.Store, n *Notifications) *TrendingNotifier {
	return &TrendingNotifier{source: source, store: s, notifications: n, now: time.Now}
}

// Notify fetches trending movies, notifies about at most five unseen ones and marks every unseen title seen.
// It returns the notifications added.
func (t *TrendingNotifier) Notify(ctx context.Context) ([]models.Notification, error) {
	page, err := t.source.Trending(ctx, models.MediaMovie)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trending titles: %w", err)
	}

	var seen []int64
	t.store.Read(store.KeySeenTrending, &seen)

	var fresh []models.CatalogItem
	for _, item := range page.Results {
		if item.ID <= 0 || slices.Contains(seen, item.ID) {
			continue
		}
		fresh = append(fresh, item)
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	ts := t.now().UnixMilli()
	added := make([]models.Notification, 0, maxTrendingNotifications)
	for _, item := range fresh[:min(len(fresh), maxTrendingNotifications)] {
		title := item.DisplayTitle()
		if title == "" {
			title = "New title"
		}
		added = append(added, models.Notification{
			ID:        fmt.Sprintf("trending-%d", item.ID),
			Title:     title,
			Message:   fmt.Sprintf("%s is now trending on StreamSavvy.", title),
			Timestamp: ts,
			Link:      models.CatalogKey(models.MediaMovie, item.ID).String(),
		})
	}
	t.notifications.AddMany(added)

	for _, item := range fresh {
		if !slices.Contains(seen, item.ID) {
			seen = append(seen, item.ID)
		}
	}
	if len(seen) > maxSeenTrending {
		seen = seen[len(seen)-maxSeenTrending:]
	}
	t.store.Write(store.KeySeenTrending, seen)

	return added, nil
}
