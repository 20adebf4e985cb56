package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/streamsavvy/internal/formatter"
	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/services"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/urfave/cli/v3"
)

func parseMediaType(s string) (models.MediaType, error) {
	mt, err := models.ParseMediaType(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return mt, nil
}

// savedMark flags titles already in the watchlist. It never opens the store on its own.
func (r *Runner) savedMark(key models.MediaKey) string {
	if r.watchlist != nil && r.watchlist.IsInWatchlist(key) {
		return " ✓"
	}
	return ""
}

func (r *Runner) writeEntries(title string, entries []models.WatchlistEntry) {
	r.writePlainHeader(title)
	if len(entries) == 0 {
		r.writePlain("No results.\n")
		return
	}
	for i, e := range entries {
		r.writePlain("%2d. %-22s %s%s\n", i+1, e.Key(), formatter.Line(e), r.savedMark(e.Key()))
	}
}

func pageEntries(page *models.CatalogPage) []models.WatchlistEntry {
	entries := make([]models.WatchlistEntry, len(page.Results))
	for i, item := range page.Results {
		entries[i] = item.WatchlistEntry()
	}
	return entries
}

func (r *Runner) writePage(cmd *cli.Command, title string, page *models.CatalogPage) error {
	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}
	r.writeEntries(title, pageEntries(page))
	if page.TotalPages > 1 {
		r.writePlain("\nPage %d of %d (%d results)\n", page.Page, page.TotalPages, page.TotalResults)
	}
	return nil
}

// CatalogSearch searches the catalog. Movie searches also match custom movies on the mock API.
func (r *Runner) CatalogSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}
	mt, err := parseMediaType(cmd.String("type"))
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}
	page := int(cmd.Int("page"))

	if mt == models.MediaTV {
		results, err := r.catalog.Search(ctx, mt, query, page)
		if err != nil {
			return err
		}
		return r.writePage(cmd, fmt.Sprintf("Results for %q", query), results)
	}

	mixed, err := services.SearchWithCustom(ctx, r.catalog, r.custom, query, page, r.logger)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(mixed, cmd.Bool("pretty"))
	}
	r.writeEntries(fmt.Sprintf("Results for %q", query), mixed.Entries())
	return nil
}

// CatalogDetails shows one title from the catalog or the mock API.
func (r *Runner) CatalogDetails(ctx context.Context, cmd *cli.Command) error {
	key, err := parseKey(cmd.StringArg("key"))
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	if key.Source == models.SourceCustom {
		movie, err := r.custom.Get(ctx, key.ID)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(movie, cmd.Bool("pretty"))
		}
		return r.writeCustom(*movie)
	}

	details, err := r.catalog.Details(ctx, key.MediaType, key.ID)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(details, cmd.Bool("pretty"))
	}

	entry := details.CatalogItem.WatchlistEntry()
	entry.MediaType = key.MediaType
	r.writePlainHeader(formatter.Line(entry) + r.savedMark(key))
	if details.Tagline != "" {
		r.writePlain("%s\n", details.Tagline)
	}
	if len(details.Genres) > 0 {
		names := make([]string, len(details.Genres))
		for i, g := range details.Genres {
			names[i] = g.Name
		}
		r.writePlain("Genres: %s\n", strings.Join(names, ", "))
	}
	switch {
	case details.Runtime > 0:
		r.writePlain("Runtime: %dh %02dm\n", details.Runtime/60, details.Runtime%60)
	case details.NumberOfSeasons > 0:
		r.writePlain("Seasons: %d (%d episodes)\n", details.NumberOfSeasons, details.NumberOfEpisodes)
	}
	if details.Overview != "" {
		r.writePlain("\n%s\n", details.Overview)
	}
	if len(details.Credits.Cast) > 0 {
		r.writePlain("\nCast:\n")
		for i, c := range details.Credits.Cast {
			if i == 5 {
				break
			}
			r.writePlain("  - %s as %s\n", c.Name, c.Character)
		}
	}
	if poster := r.posterURL(details.PosterPath); poster != "" {
		r.writePlain("\nPoster: %s\n", poster)
	}

	trailer, ok := details.Trailer()
	if ok {
		url := "https://www.youtube.com/watch?v=" + trailer.Key
		r.writePlain("Trailer: %s\n", url)
		if cmd.Bool("trailer") {
			if err := shared.OpenBrowser(url); err != nil {
				r.logger.Warn("failed to open browser", "error", err)
			}
		}
	} else if cmd.Bool("trailer") {
		r.writePlain("No trailer available.\n")
	}

	if details.Recommendations != nil && len(details.Recommendations.Results) > 0 {
		r.writePlain("\n")
		r.writeEntries("You might also like", pageEntries(details.Recommendations)[:min(5, len(details.Recommendations.Results))])
	}
	return nil
}

func (r *Runner) writeCustom(m models.CustomMovie) error {
	entry := m.WatchlistEntry()
	r.writePlainHeader(formatter.Line(entry) + r.savedMark(entry.Key()))
	if m.Overview != "" {
		r.writePlain("%s\n", m.Overview)
	}
	r.writePlain("Video: %s\n", m.VideoURL)
	if m.PosterPath != "" {
		r.writePlain("Poster: %s\n", m.PosterPath)
	}
	return nil
}

// CatalogTrending lists this week's trending titles.
func (r *Runner) CatalogTrending(ctx context.Context, cmd *cli.Command) error {
	mt, err := parseMediaType(cmd.String("type"))
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}
	page, err := r.catalog.Trending(ctx, mt)
	if err != nil {
		return err
	}
	return r.writePage(cmd, "Trending This Week", page)
}

// CatalogGenres lists genres for a media type.
func (r *Runner) CatalogGenres(ctx context.Context, cmd *cli.Command) error {
	mt, err := parseMediaType(cmd.String("type"))
	if err != nil {
		return err
	}
	genres, err := r.catalog.Genres(ctx, mt)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(genres, cmd.Bool("pretty"))
	}
	r.writePlainHeader(fmt.Sprintf("Genres (%s)", mt))
	for _, g := range genres {
		r.writePlain("%6d  %s\n", g.ID, g.Name)
	}
	return nil
}

// CatalogBrowse shows a curated list, or a genre when --genre is set.
func (r *Runner) CatalogBrowse(ctx context.Context, cmd *cli.Command) error {
	mt, err := parseMediaType(cmd.String("type"))
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}
	page := int(cmd.Int("page"))

	if genre := int(cmd.Int("genre")); genre > 0 {
		results, err := r.catalog.ByGenre(ctx, mt, genre, page)
		if err != nil {
			return err
		}
		return r.writePage(cmd, fmt.Sprintf("Genre %d", genre), results)
	}

	list := cmd.StringArg("list")
	if list == "" {
		list = "popular"
	}
	results, err := r.catalog.Browse(ctx, mt, list, page)
	if err != nil {
		return err
	}
	return r.writePage(cmd, strings.ReplaceAll(list, "_", " "), results)
}
