package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/streamsavvy/internal/formatter"
	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/services"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/desertthunder/streamsavvy/internal/state"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"
)

// EntryError records a watchlist entry that could not be refreshed.
type EntryError struct {
	Key   models.MediaKey
	Title string
	Err   error
}

// RefreshResult summarizes a refresh run.
type RefreshResult struct {
	Total     int          // Catalog entries attempted
	Refreshed int          // Entries written back
	Skipped   int          // Custom entries, which the catalog cannot describe
	Failed    []EntryError // Entries whose fetch failed
}

// ExportOpts configures a multi-format export.
type ExportOpts struct {
	Owner     string                 // Shown in Markdown and text headers
	Formats   []formatter.Format     // Defaults to every format
	OutputDir string                 // Defaults to watchlist_export_{epoch}
	ImageURL  formatter.ImageURLFunc // Optional poster resolver for Markdown
}

// ExportResult lists the files an export produced.
type ExportResult struct {
	Manifest     formatter.Manifest
	ManifestPath string
	Failed       int
}

// RefreshEngineOpts configures a [RefreshEngine].
type RefreshEngineOpts struct {
	Catalog    services.CatalogService
	Watchlist  *state.Reconciler
	Notifier   *state.TrendingNotifier // Optional; required by PollTrending
	Fs         afero.Fs                // Defaults to the OS filesystem
	Logger     *log.Logger
	NumWorkers int     // Concurrent fetches (default: 4, max: 10)
	RateLimit  float64 // Requests per second (default: 5)
}

// RefreshEngine runs long-lived watchlist operations.
type RefreshEngine struct {
	catalog   services.CatalogService
	watchlist *state.Reconciler
	notifier  *state.TrendingNotifier
	fs        afero.Fs
	logger    *log.Logger
	workers   int
	limiter   *rate.Limiter
}

// NewRefreshEngine creates an engine from opts, applying defaults.
func NewRefreshEngine(opts RefreshEngineOpts) *RefreshEngine {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &RefreshEngine{
		catalog:   opts.Catalog,
		watchlist: opts.Watchlist,
		notifier:  opts.Notifier,
		fs:        opts.Fs,
		logger:    opts.Logger,
		workers:   opts.NumWorkers,
		limiter:   rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *RefreshEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// refreshed merges fresh catalog details into entry, keeping the fields the catalog does not own.
func refreshed(entry models.WatchlistEntry, details *models.CatalogDetails) models.WatchlistEntry {
	next := details.CatalogItem.WatchlistEntry()
	next.ID = entry.ID
	next.MediaType = entry.MediaType
	next.Source = entry.Source
	next.VideoURL = entry.VideoURL
	if next.PosterPath == "" {
		next.PosterPath = entry.PosterPath
	}
	if next.BackdropPath == "" {
		next.BackdropPath = entry.BackdropPath
	}
	return next.Normalize()
}

// Refresh re-fetches catalog details for every catalog entry and writes changes back through the reconciler.
//
// Entries removed while the refresh runs are not re-added. It returns ctx.Err() when canceled, along with the
// partial result.
func (e *RefreshEngine) Refresh(ctx context.Context, progress chan<- ProgressUpdate) (*RefreshResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	if e.watchlist == nil {
		return nil, fmt.Errorf("%w: watchlist not initialized", shared.ErrServiceUnavailable)
	}

	var targets []models.WatchlistEntry
	result := &RefreshResult{}
	for _, entry := range e.watchlist.Reload() {
		entry = entry.Normalize()
		if entry.Source == models.SourceCustom {
			result.Skipped++
			continue
		}
		targets = append(targets, entry)
	}
	result.Total = len(targets)
	e.sendProgress(progress, loadWatchlistUpdate(len(targets), result.Skipped))

	var (
		mu        sync.Mutex
		completed int
	)
	p := pool.New().WithMaxGoroutines(e.workers)
	for _, entry := range targets {
		p.Go(func() {
			if err := e.limiter.Wait(ctx); err != nil {
				return
			}

			details, err := e.catalog.Details(ctx, entry.MediaType, entry.ID)

			mu.Lock()
			defer mu.Unlock()
			completed++

			if err != nil {
				result.Failed = append(result.Failed, EntryError{Key: entry.Key(), Title: entry.Title, Err: err})
				e.logger.Warn("refresh failed", "key", entry.Key(), "error", err)
				e.sendProgress(progress, refreshFailedUpdate(completed, len(targets), entry, err))
				return
			}

			next := refreshed(entry, details)
			if e.watchlist.Update(next) {
				result.Refreshed++
			}
			e.sendProgress(progress, refreshedUpdate(completed, len(targets), next))
		})
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// Export writes the watchlist in every requested format under opts.OutputDir, then a manifest.
//
// A failing format is recorded in the manifest and does not stop the others.
func (e *RefreshEngine) Export(ctx context.Context, progress chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	if e.watchlist == nil {
		return nil, fmt.Errorf("%w: watchlist not initialized", shared.ErrServiceUnavailable)
	}
	if len(opts.Formats) == 0 {
		opts.Formats = formatter.Formats
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("watchlist_export_%d", time.Now().Unix())
	}

	if err := e.fs.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	export := formatter.NewWatchlistExport(opts.Owner, e.watchlist.Reload())
	result := &ExportResult{Manifest: formatter.Manifest{ExportedAt: export.ExportedAt, Entries: len(export.Entries)}}

	for i, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		e.sendProgress(progress, exportingUpdate(i+1, len(opts.Formats), format))

		file := formatter.ManifestFile{Format: format}
		path := filepath.Join(opts.OutputDir, "watchlist."+format.Ext())
		if written, err := formatter.WriteExport(e.fs, export, format, path, opts.ImageURL); err != nil {
			file.Error = err.Error()
			result.Failed++
		} else {
			file.Path = written
		}

		result.Manifest.Files = append(result.Manifest.Files, file)
		e.sendProgress(progress, exportedUpdate(i+1, len(opts.Formats), file))
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(e.fs, &result.Manifest, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// PollTrending checks trending titles immediately and then every interval until ctx is canceled.
//
// Fetch failures are reported as progress and logged; polling continues.
func (e *RefreshEngine) PollTrending(ctx context.Context, progress chan<- ProgressUpdate, interval time.Duration) error {
	if e.notifier == nil {
		return fmt.Errorf("%w: trending notifier not initialized", shared.ErrServiceUnavailable)
	}
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for round := 1; ; round++ {
		added, err := e.notifier.Notify(ctx)
		if err != nil {
			e.logger.Warn("trending check failed", "error", err)
			e.sendProgress(progress, trendingFailedUpdate(round, err))
		} else {
			e.sendProgress(progress, trendingUpdate(round, added))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
