package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/streamsavvy/internal/formatter"
	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/services"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/desertthunder/streamsavvy/internal/tasks"
	"github.com/urfave/cli/v3"
)

func parseKey(s string) (models.MediaKey, error) {
	if strings.TrimSpace(s) == "" {
		return models.MediaKey{}, fmt.Errorf("%w: a title key such as movie:603 is required", shared.ErrMissingArgument)
	}
	key, err := models.ParseMediaKey(s)
	if err != nil {
		return models.MediaKey{}, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return key, nil
}

// resolve looks up the title behind key on the catalog or the mock API.
func (r *Runner) resolve(ctx context.Context, key models.MediaKey) (models.Watchable, error) {
	if key.Source == models.SourceCustom {
		movie, err := r.custom.Get(ctx, key.ID)
		if err != nil {
			return nil, err
		}
		return *movie, nil
	}

	details, err := r.catalog.Details(ctx, key.MediaType, key.ID)
	if err != nil {
		return nil, err
	}
	item := details.CatalogItem
	item.MediaType = key.MediaType
	return item, nil
}

func (r *Runner) owner() string {
	if user, ok := r.lifecycle.User(); ok && user.FullName != "" {
		return user.FullName
	}
	return "My"
}

func (r *Runner) posterURL(path string) string {
	return r.catalog.ImageURL(path, services.PosterSize)
}

// WatchlistAdd adds the title behind a key to the watchlist.
func (r *Runner) WatchlistAdd(ctx context.Context, cmd *cli.Command) error {
	key, err := parseKey(cmd.StringArg("key"))
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	if r.watchlist.IsInWatchlist(key) {
		return r.writePlain("%s is already in your watchlist\n", key)
	}

	item, err := r.resolve(ctx, key)
	if err != nil {
		return err
	}

	added, err := r.watchlist.Add(item)
	if err != nil {
		return err
	}
	entry := item.WatchlistEntry()
	if !added {
		return r.writePlain("%s is already in your watchlist\n", entry.Title)
	}
	return r.writePlain("✓ Added %s\n", formatter.Line(entry))
}

// WatchlistRemove removes a title by key.
func (r *Runner) WatchlistRemove(ctx context.Context, cmd *cli.Command) error {
	key, err := parseKey(cmd.StringArg("key"))
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	if !r.watchlist.Remove(key) {
		return r.writePlain("%s is not in your watchlist\n", key)
	}
	return r.writePlain("✓ Removed %s\n", key)
}

// WatchlistList prints the watchlist.
func (r *Runner) WatchlistList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	items := r.watchlist.Items()

	if cmd.Bool("json") {
		return r.writeJSON(items, cmd.Bool("pretty"))
	}

	if cmd.IsSet("format") {
		format, err := formatter.ParseFormat(cmd.String("format"))
		if err != nil {
			return err
		}
		data, err := formatter.Render(formatter.NewWatchlistExport(r.owner(), items), format, r.posterURL)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	if len(items) == 0 {
		return r.writePlain("Your watchlist is empty. Try 'savvy catalog trending'.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Watchlist (%d)", len(items)))
	for i, e := range items {
		r.writePlain("%2d. %-14s %s\n", i+1, e.Key(), formatter.Line(e))
	}
	return nil
}

// WatchlistExport writes the watchlist in several formats plus a manifest.
func (r *Runner) WatchlistExport(ctx context.Context, cmd *cli.Command) error {
	var formats []formatter.Format
	for _, s := range cmd.StringSlice("format") {
		for _, part := range strings.Split(s, ",") {
			f, err := formatter.ParseFormat(part)
			if err != nil {
				return err
			}
			formats = append(formats, f)
		}
	}

	if err := r.open(); err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := r.drainProgress(progressCh)

	result, err := r.engine.Export(ctx, progressCh, tasks.ExportOpts{
		Owner:     r.owner(),
		Formats:   formats,
		OutputDir: cmd.String("output"),
		ImageURL:  r.posterURL,
	})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Titles: %d\n", result.Manifest.Entries)
	r.writePlain("Files: %d (%d failed)\n", len(result.Manifest.Files)-result.Failed, result.Failed)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	return nil
}

// WatchlistRefresh re-fetches catalog details for every saved title.
func (r *Runner) WatchlistRefresh(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	engine := tasks.NewRefreshEngine(tasks.RefreshEngineOpts{
		Catalog:    r.catalog,
		Watchlist:  r.watchlist,
		Fs:         r.fs,
		Logger:     r.logger,
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  r.config.Catalog.RateLimit,
	})

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := r.drainProgress(progressCh)
	result, err := engine.Refresh(ctx, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Refresh Complete!")
	r.writePlain("Refreshed: %d/%d\n", result.Refreshed, result.Total)
	r.writePlain("Custom titles skipped: %d\n", result.Skipped)
	if len(result.Failed) > 0 {
		r.writePlain("\nFailed to refresh %d titles:\n", len(result.Failed))
		for _, f := range result.Failed {
			r.writePlain("  - %s (%s): %v\n", f.Title, f.Key, f.Err)
		}
	}
	return nil
}

// WatchlistWatch prints the watchlist every time any process sharing the store changes it.
func (r *Runner) WatchlistWatch(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	r.watchlist.OnChange(func(items []models.WatchlistEntry) {
		r.writePlain("\n%d titles:\n", len(items))
		for _, e := range items {
			r.writePlain("  %s\n", formatter.Line(e))
		}
	})

	done, err := r.watchlist.Watch(ctx)
	if err != nil {
		return err
	}

	r.writePlain("Watching %d titles. Press Ctrl+C to stop.\n", r.watchlist.Len())
	<-done
	return nil
}

// WatchlistClear removes every saved title.
func (r *Runner) WatchlistClear(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: pass --yes to clear the watchlist", shared.ErrMissingArgument)
	}
	if err := r.open(); err != nil {
		return err
	}
	r.watchlist.Clear()
	return r.writePlain("✓ Watchlist cleared\n")
}
