package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/streamsavvy/internal/formatter"
	"github.com/desertthunder/streamsavvy/internal/models"
)

var (
	_ list.Item = entryItem{}
	_ list.Item = catalogItem{}
	_ list.Item = notificationItem{}
)

// entryItem wraps [models.WatchlistEntry] to implement [list.Item].
type entryItem struct {
	entry models.WatchlistEntry
}

func (i entryItem) FilterValue() string { return i.entry.Title }
func (i entryItem) Title() string       { return i.entry.Title }
func (i entryItem) Description() string {
	parts := []string{string(i.entry.MediaType)}
	if i.entry.Source == models.SourceCustom {
		parts = []string{"custom"}
	}
	if y := formatter.Year(i.entry.DisplayDate()); y != "" {
		parts = append(parts, y)
	}
	if i.entry.VoteAverage > 0 {
		parts = append(parts, "★ "+formatter.FormatRating(i.entry.VoteAverage))
	}
	return strings.Join(parts, " • ")
}

// catalogItem wraps [models.CatalogItem] to implement [list.Item].
type catalogItem struct {
	item  models.CatalogItem
	saved bool
}

func (i catalogItem) FilterValue() string { return i.item.DisplayTitle() }
func (i catalogItem) Title() string {
	if i.saved {
		return "✓ " + i.item.DisplayTitle()
	}
	return i.item.DisplayTitle()
}
func (i catalogItem) Description() string {
	desc := fmt.Sprintf("★ %s", formatter.FormatRating(i.item.VoteAverage))
	if i.item.Overview != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.item.Overview)
	}
	return desc
}

// notificationItem wraps [models.Notification] to implement [list.Item].
type notificationItem struct {
	n models.Notification
}

func (i notificationItem) FilterValue() string { return i.n.Title }
func (i notificationItem) Title() string {
	if !i.n.Read {
		return "● " + i.n.Title
	}
	return i.n.Title
}
func (i notificationItem) Description() string {
	return fmt.Sprintf("%s • %s", i.n.Time().Format(time.DateTime), i.n.Message)
}

func entryItems(entries []models.WatchlistEntry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = entryItem{entry: e}
	}
	return items
}

func notificationItems(feed []models.Notification) []list.Item {
	items := make([]list.Item, len(feed))
	for i, n := range feed {
		items[i] = notificationItem{n: n}
	}
	return items
}
