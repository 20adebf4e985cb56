// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a watchlist browser with these views:
//  1. [WatchlistView] : Browse saved titles, remove them, or open details
//  2. [DetailView] : Catalog details for the selected title
//  3. [TrendingView] : This week's trending titles, addable to the watchlist
//  4. [NotificationsView] : The notification feed
//  5. [RefreshView] : Progress of a watchlist refresh
//  6. [ResultView] : Refresh summary and failed titles
//
// The (view) [Model] implements the standard Init/Update/View pattern, receiving messages via the Msg union type.
// Watchlist changes made by any other process sharing the store are picked up through the reconciler's change
// listener and re-rendered live; bursts of changes coalesce into a single redraw.
//
// Keyboard navigation uses vim-style bindings with contextual help displayed via charmbracelet/bubbles/help.
package ui
