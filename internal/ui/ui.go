package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/streamsavvy/internal/formatter"
	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/services"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/desertthunder/streamsavvy/internal/state"
	"github.com/desertthunder/streamsavvy/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	WatchlistView ViewState = iota
	DetailView
	TrendingView
	NotificationsView
	RefreshView
	ResultView
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	castShown     = 5
)

// Deps are the services the TUI drives. Engine and Notifications may be nil.
type Deps struct {
	Catalog       services.CatalogService
	Watchlist     *state.Reconciler
	Notifications *state.Notifications
	Engine        *tasks.RefreshEngine
	Logger        *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	catalog   services.CatalogService
	watchlist *state.Reconciler
	feed      *state.Notifications
	engine    *tasks.RefreshEngine
	logger    *log.Logger

	width         int
	height        int
	entries       list.Model
	trending      list.Model
	notifications list.Model

	detail  *models.CatalogDetails
	entry   models.WatchlistEntry
	changes chan struct{}

	progressChan chan tasks.ProgressUpdate
	finished     chan Msg
	progress     tasks.ProgressUpdate
	result       *tasks.RefreshResult

	status string
	err    error
	help   help.Model
	keys   keyMap
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), defaultWidth-4, defaultHeight-8)
	l.Title = title
	return l
}

// NewModel creates a new TUI model and subscribes it to watchlist changes.
func NewModel(ctx context.Context, deps Deps) *Model {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}

	m := &Model{
		ctx:           ctx,
		view:          WatchlistView,
		catalog:       deps.Catalog,
		watchlist:     deps.Watchlist,
		feed:          deps.Notifications,
		engine:        deps.Engine,
		logger:        deps.Logger,
		width:         defaultWidth,
		height:        defaultHeight,
		entries:       newList("My Watchlist", entryItems(deps.Watchlist.Items())),
		trending:      newList("Trending This Week", nil),
		notifications: newList("Notifications", nil),
		changes:       make(chan struct{}, 1),
		help:          help.New(),
		keys:          newKeyMap(),
	}

	deps.Watchlist.OnChange(func([]models.WatchlistEntry) {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})
	return m
}

// Init starts following watchlist writes from other processes.
func (m *Model) Init() tea.Cmd {
	if _, err := m.watchlist.Watch(m.ctx); err != nil {
		m.logger.Warn("live watchlist sync disabled", "error", err)
	}
	return m.waitForChange()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.entries, &m.trending, &m.notifications} {
			l.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		if l := m.activeList(); l != nil && l.FilterState() == list.Filtering {
			return m.updateLists(msg)
		}

		m.status, m.err = "", nil
		switch m.view {
		case WatchlistView:
			return m.handleWatchlistKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case TrendingView:
			return m.handleTrendingKeys(msg)
		case NotificationsView:
			return m.handleNotificationKeys(msg)
		case RefreshView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgWatchlistChanged:
		m.entries.SetItems(entryItems(msg.data.([]models.WatchlistEntry)))
		m.markSaved()
		return m, m.waitForChange()

	case MsgDetailsFetched:
		res := msg.data.(detailsResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.entry = res.entry
		m.detail = res.details
		m.view = DetailView
		return m, nil

	case MsgTrendingFetched:
		res := msg.data.(trendingResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		items := make([]list.Item, len(res.page.Results))
		for i, item := range res.page.Results {
			if item.MediaType == "" {
				item.MediaType = models.MediaMovie
			}
			items[i] = catalogItem{item: item}
		}
		m.trending.SetItems(items)
		m.markSaved()
		m.view = TrendingView
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgRefreshComplete:
		res := msg.data.(refreshResult)
		m.result = res.result
		m.err = res.err
		m.progressChan = nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case WatchlistView:
		body = m.renderList(m.entries, m.keys.enter, m.keys.remove, m.keys.refresh, m.keys.trending, m.keys.notifications, m.keys.quit)
	case DetailView:
		body = m.renderDetail()
	case TrendingView:
		body = m.renderList(m.trending, m.keys.add, m.keys.back, m.keys.quit)
	case NotificationsView:
		body = m.renderList(m.notifications, m.keys.markRead, m.keys.back, m.keys.quit)
	case RefreshView:
		body = m.renderRefresh()
	case ResultView:
		return m.renderResult()
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n%s", body, styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	if m.status != "" {
		return fmt.Sprintf("%s\n%s", body, styles.ok.Render(m.status))
	}
	return body
}

func (m *Model) activeList() *list.Model {
	switch m.view {
	case WatchlistView:
		return &m.entries
	case TrendingView:
		return &m.trending
	case NotificationsView:
		return &m.notifications
	default:
		return nil
	}
}

func (m *Model) handleWatchlistKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if it, ok := m.entries.SelectedItem().(entryItem); ok {
			return m, m.fetchDetails(it.entry)
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if it, ok := m.entries.SelectedItem().(entryItem); ok {
			m.remove(it.entry)
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.startRefresh()
	case key.Matches(msg, m.keys.trending):
		return m, m.fetchTrending()
	case key.Matches(msg, m.keys.notifications):
		m.showNotifications()
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = WatchlistView
	case key.Matches(msg, m.keys.add):
		m.add(m.entry)
	case key.Matches(msg, m.keys.remove):
		m.remove(m.entry)
	}
	return m, nil
}

func (m *Model) handleTrendingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = WatchlistView
		return m, nil
	case key.Matches(msg, m.keys.add), key.Matches(msg, m.keys.enter):
		if it, ok := m.trending.SelectedItem().(catalogItem); ok {
			m.add(it.item.WatchlistEntry())
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleNotificationKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = WatchlistView
		return m, nil
	case key.Matches(msg, m.keys.markRead):
		if m.feed != nil {
			m.feed.MarkAllRead()
			m.notifications.SetItems(notificationItems(m.feed.List()))
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.enter):
		m.view = WatchlistView
		m.result = nil
		m.err = nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	l := m.activeList()
	if l == nil {
		return m, nil
	}
	var cmd tea.Cmd
	*l, cmd = l.Update(msg)
	return m, cmd
}

func (m *Model) add(entry models.WatchlistEntry) {
	added, err := m.watchlist.Add(entry)
	switch {
	case err != nil:
		m.err = err
	case added:
		m.status = fmt.Sprintf("Added %s to your watchlist", entry.Title)
	default:
		m.status = fmt.Sprintf("%s is already in your watchlist", entry.Title)
	}
	m.entries.SetItems(entryItems(m.watchlist.Items()))
	m.markSaved()
}

func (m *Model) remove(entry models.WatchlistEntry) {
	if m.watchlist.Remove(entry.Key()) {
		m.status = fmt.Sprintf("Removed %s", entry.Title)
	}
	m.entries.SetItems(entryItems(m.watchlist.Items()))
	m.markSaved()
}

// markSaved flags trending titles that are already in the watchlist.
func (m *Model) markSaved() {
	items := m.trending.Items()
	for i, it := range items {
		if c, ok := it.(catalogItem); ok {
			c.saved = m.watchlist.IsInWatchlist(c.item.WatchlistEntry().Key())
			items[i] = c
		}
	}
	m.trending.SetItems(items)
}

func (m *Model) showNotifications() {
	if m.feed == nil {
		m.err = fmt.Errorf("%w: notifications not initialized", shared.ErrServiceUnavailable)
		return
	}
	m.notifications.SetItems(notificationItems(m.feed.List()))
	m.notifications.Title = fmt.Sprintf("Notifications (%d unread)", m.feed.UnreadCount())
	m.view = NotificationsView
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changes:
			return watchlistChangedMsg(m.watchlist.Items())
		case <-m.ctx.Done():
			return nil
		}
	}
}

// fetchDetails loads catalog details. Custom titles have none and open with what the watchlist holds.
func (m *Model) fetchDetails(entry models.WatchlistEntry) tea.Cmd {
	return func() tea.Msg {
		if entry.Source == models.SourceCustom {
			return detailsFetchedMsg(entry, nil, nil)
		}
		if m.catalog == nil {
			return detailsFetchedMsg(entry, nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable))
		}
		details, err := m.catalog.Details(m.ctx, entry.MediaType, entry.ID)
		return detailsFetchedMsg(entry, details, err)
	}
}

func (m *Model) fetchTrending() tea.Cmd {
	return func() tea.Msg {
		if m.catalog == nil {
			return trendingFetchedMsg(nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable))
		}
		page, err := m.catalog.Trending(m.ctx, models.MediaMovie)
		return trendingFetchedMsg(page, err)
	}
}

func (m *Model) startRefresh() tea.Cmd {
	if m.engine == nil {
		m.err = fmt.Errorf("%w: refresh engine not initialized", shared.ErrServiceUnavailable)
		return nil
	}

	m.view = RefreshView
	m.progress = tasks.ProgressUpdate{}
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.finished = make(chan Msg, 1)

	progress, finished := m.progressChan, m.finished
	go func() {
		result, err := m.engine.Refresh(m.ctx, progress)
		finished <- refreshCompleteMsg(result, err)
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, finished := m.progressChan, m.finished
	return func() tea.Msg {
		if progress == nil {
			return refreshCompleteMsg(m.result, m.err)
		}

		update, ok := <-progress
		if !ok {
			return <-finished
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderList(l list.Model, keys ...key.Binding) string {
	return fmt.Sprintf("%s\n\n%s", l.View(), m.help.ShortHelpView(keys))
}

func (m *Model) renderDetail() string {
	var b strings.Builder
	e := m.entry

	b.WriteString(styles.title.Render(e.Title))
	b.WriteString("\n")

	meta := []string{string(e.MediaType)}
	if e.Source == models.SourceCustom {
		meta = []string{"custom"}
	}
	if y := formatter.Year(e.DisplayDate()); y != "" {
		meta = append(meta, y)
	}
	meta = append(meta, styles.rating.Render("★ "+formatter.FormatRating(e.VoteAverage)))
	if m.watchlist.IsInWatchlist(e.Key()) {
		meta = append(meta, styles.ok.Render("in watchlist"))
	}
	b.WriteString(strings.Join(meta, " • "))
	b.WriteString("\n")

	if d := m.detail; d != nil {
		if d.Tagline != "" {
			b.WriteString("\n" + styles.help.Render(d.Tagline) + "\n")
		}
		if len(d.Genres) > 0 {
			names := make([]string, len(d.Genres))
			for i, g := range d.Genres {
				names[i] = g.Name
			}
			fmt.Fprintf(&b, "\nGenres: %s", strings.Join(names, ", "))
		}
		switch {
		case d.Runtime > 0:
			fmt.Fprintf(&b, "\nRuntime: %dh %02dm", d.Runtime/60, d.Runtime%60)
		case d.NumberOfSeasons > 0:
			fmt.Fprintf(&b, "\nSeasons: %d (%d episodes)", d.NumberOfSeasons, d.NumberOfEpisodes)
		}
		if d.Overview != "" {
			fmt.Fprintf(&b, "\n\n%s", d.Overview)
		}
		if cast := d.Credits.Cast; len(cast) > 0 {
			b.WriteString("\n\nCast:")
			for i, c := range cast {
				if i == castShown {
					break
				}
				fmt.Fprintf(&b, "\n  • %s as %s", c.Name, c.Character)
			}
		}
		if v, ok := d.Trailer(); ok {
			fmt.Fprintf(&b, "\n\nTrailer: https://www.youtube.com/watch?v=%s", v.Key)
		}
	} else if e.VideoURL != "" {
		fmt.Fprintf(&b, "\nVideo: %s", e.VideoURL)
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.add, m.keys.remove, m.keys.back, m.keys.quit}))
	return b.String()
}

func (m *Model) renderRefresh() string {
	title := styles.title.Render("Refreshing Watchlist")

	var phase string
	switch m.progress.Phase {
	case tasks.LoadWatchlist:
		phase = "Loading watchlist..."
	case tasks.FetchDetails:
		phase = fmt.Sprintf("Fetching details (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Refresh failed: %v\n\nPress esc to go back, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress esc to go back, q to quit")
	}

	title := styles.ok.Render("✓ Refresh Complete!")
	info := fmt.Sprintf("\nRefreshed: %d/%d\nCustom titles skipped: %d", m.result.Refreshed, m.result.Total, m.result.Skipped)

	var failed string
	if len(m.result.Failed) > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Failed to refresh %d titles:", len(m.result.Failed))))
		for _, f := range m.result.Failed {
			failed += fmt.Sprintf("\n  • %s (%s): %v", f.Title, f.Key, f.Err)
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
