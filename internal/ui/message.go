package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgWatchlistChanged MsgKind = iota
	MsgDetailsFetched
	MsgTrendingFetched
	MsgProgressUpdate
	MsgRefreshComplete
)

type detailsResult struct {
	details *models.CatalogDetails
	entry   models.WatchlistEntry
	err     error
}

type trendingResult struct {
	page *models.CatalogPage
	err  error
}

type refreshResult struct {
	result *tasks.RefreshResult
	err    error
}

// watchlistChangedMsg is the constructor for [MsgWatchlistChanged]
func watchlistChangedMsg(items []models.WatchlistEntry) Msg {
	return Msg{kind: MsgWatchlistChanged, data: items}
}

// detailsFetchedMsg is the constructor for [MsgDetailsFetched]
func detailsFetchedMsg(entry models.WatchlistEntry, details *models.CatalogDetails, err error) Msg {
	return Msg{kind: MsgDetailsFetched, data: detailsResult{details, entry, err}}
}

// trendingFetchedMsg is the constructor for [MsgTrendingFetched]
func trendingFetchedMsg(page *models.CatalogPage, err error) Msg {
	return Msg{kind: MsgTrendingFetched, data: trendingResult{page, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// refreshCompleteMsg is the constructor for [MsgRefreshComplete]
func refreshCompleteMsg(result *tasks.RefreshResult, err error) Msg {
	return Msg{kind: MsgRefreshComplete, data: refreshResult{result, err}}
}
