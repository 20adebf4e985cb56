package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/streamsavvy/internal/formatter"
	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/services"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/urfave/cli/v3"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "custom:"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid movie id %q", shared.ErrInvalidArgument, s)
	}
	return id, nil
}

func (r *Runner) writeCustomList(cmd *cli.Command, title string, movies []models.CustomMovie) error {
	if cmd.Bool("json") {
		return r.writeJSON(movies, cmd.Bool("pretty"))
	}
	entries := make([]models.WatchlistEntry, len(movies))
	for i, m := range movies {
		entries[i] = m.WatchlistEntry()
	}
	r.writeEntries(title, entries)
	return nil
}

// CustomList lists custom movies on the mock API.
func (r *Runner) CustomList(ctx context.Context, cmd *cli.Command) error {
	movies, err := r.custom.List(ctx)
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		r.logger.Debug("watchlist unavailable", "error", err)
	}
	return r.writeCustomList(cmd, fmt.Sprintf("Custom Movies (%d)", len(movies)), movies)
}

// CustomAdd registers a movie from a video URL.
func (r *Runner) CustomAdd(ctx context.Context, cmd *cli.Command) error {
	movie := services.NewCustomMovie(cmd.String("title"), cmd.String("url"), services.CustomExtras{
		Overview:     cmd.String("overview"),
		PosterPath:   cmd.String("poster"),
		BackdropPath: cmd.String("backdrop"),
		ReleaseDate:  cmd.String("release-date"),
		VoteAverage:  cmd.Float("rating"),
	})

	created, err := r.custom.Create(ctx, movie)
	if err != nil {
		return err
	}
	r.writePlain("✓ Created %s (custom:%d)\n", created.Title, created.ID)

	if cmd.Bool("watchlist") {
		if err := r.open(); err != nil {
			return err
		}
		if _, err := r.watchlist.Add(*created); err != nil {
			return err
		}
		r.writePlain("✓ Added to your watchlist\n")
	}
	return nil
}

// CustomGet shows one custom movie.
func (r *Runner) CustomGet(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	movie, err := r.custom.Get(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(movie, cmd.Bool("pretty"))
	}
	if err := r.open(); err != nil {
		r.logger.Debug("watchlist unavailable", "error", err)
	}
	return r.writeCustom(*movie)
}

// CustomUpdate changes the flags given on an existing custom movie.
//
// A saved watchlist entry for the movie is updated too.
func (r *Runner) CustomUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	movie, err := r.custom.Get(ctx, id)
	if err != nil {
		return err
	}

	for flag, dst := range map[string]*string{
		"title":        &movie.Title,
		"url":          &movie.VideoURL,
		"overview":     &movie.Overview,
		"poster":       &movie.PosterPath,
		"backdrop":     &movie.BackdropPath,
		"release-date": &movie.ReleaseDate,
	} {
		if cmd.IsSet(flag) {
			*dst = cmd.String(flag)
		}
	}
	if cmd.IsSet("rating") {
		movie.VoteAverage = cmd.Float("rating")
	}

	updated, err := r.custom.Update(ctx, *movie)
	if err != nil {
		return err
	}

	if err := r.open(); err == nil {
		r.watchlist.Update(updated.WatchlistEntry())
	}
	return r.writePlain("✓ Updated %s\n", formatter.Line(updated.WatchlistEntry()))
}

// CustomDelete deletes a custom movie and drops it from the watchlist.
func (r *Runner) CustomDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if err := r.custom.Delete(ctx, id); err != nil {
		return err
	}
	r.writePlain("✓ Deleted custom:%d\n", id)

	if err := r.open(); err == nil && r.watchlist.Remove(models.CustomKey(id)) {
		r.writePlain("✓ Removed from your watchlist\n")
	}
	return nil
}

// CustomSearch matches custom movie titles, ignoring case and accents.
func (r *Runner) CustomSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}
	movies, err := r.custom.SearchCustom(ctx, query)
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		r.logger.Debug("watchlist unavailable", "error", err)
	}
	return r.writeCustomList(cmd, fmt.Sprintf("Custom movies matching %q", query), movies)
}
