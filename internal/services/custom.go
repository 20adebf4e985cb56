package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/sourcegraph/conc"
)

// MockAPIClient implements [CustomMovieService] against the mock REST API.
type MockAPIClient struct {
	api    *APIService
	logger *log.Logger
}

// NewMockAPIClient creates a client rooted at baseURL (e.g. http://localhost:3001/api).
func NewMockAPIClient(baseURL string, client *http.Client, logger *log.Logger) *MockAPIClient {
	if logger == nil {
		logger = log.Default()
	}
	return &MockAPIClient{api: NewAPIService(strings.TrimRight(baseURL, "/"), client), logger: logger}
}

// CustomExtras holds the optional fields accepted when registering a movie from a URL.
type CustomExtras struct {
	Overview         string
	PosterPath       string
	BackdropPath     string
	ReleaseDate      string
	VoteAverage      float64
	GenreIDs         []int
	OriginalLanguage string
	OriginalTitle    string
}

// NewCustomMovie builds a movie for title and videoURL, defaulting every field extras leaves empty.
func NewCustomMovie(title, videoURL string, extras CustomExtras) models.CustomMovie {
	m := models.CustomMovie{
		Title:            title,
		VideoURL:         videoURL,
		Overview:         extras.Overview,
		PosterPath:       extras.PosterPath,
		BackdropPath:     extras.BackdropPath,
		ReleaseDate:      extras.ReleaseDate,
		VoteAverage:      extras.VoteAverage,
		GenreIDs:         extras.GenreIDs,
		OriginalLanguage: extras.OriginalLanguage,
		OriginalTitle:    extras.OriginalTitle,
		Video:            true,
	}

	if m.Overview == "" {
		m.Overview = "Custom movie: " + title
	}
	if m.ReleaseDate == "" {
		m.ReleaseDate = time.Now().Format(time.DateOnly)
	}
	if m.GenreIDs == nil {
		m.GenreIDs = []int{}
	}
	if m.OriginalLanguage == "" {
		m.OriginalLanguage = "en"
	}
	if m.OriginalTitle == "" {
		m.OriginalTitle = title
	}
	return m
}

func moviePath(id int64) string { return fmt.Sprintf("/movies/%d", id) }

// List returns every custom movie.
func (c *MockAPIClient) List(ctx context.Context) ([]models.CustomMovie, error) {
	resp, err := c.api.Get(ctx, "/movies")
	if err != nil {
		return nil, err
	}
	if err := resp.Check(); err != nil {
		return nil, fmt.Errorf("failed to list custom movies: %w", err)
	}

	var movies []models.CustomMovie
	if err := resp.Decode(&movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// Get returns the movie with id.
func (c *MockAPIClient) Get(ctx context.Context, id int64) (*models.CustomMovie, error) {
	resp, err := c.api.Get(ctx, moviePath(id))
	if err != nil {
		return nil, err
	}
	if err := resp.Check(); err != nil {
		return nil, fmt.Errorf("custom movie %d: %w", id, err)
	}

	var movie models.CustomMovie
	if err := resp.Decode(&movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// Create validates movie and registers it. The server assigns the id.
func (c *MockAPIClient) Create(ctx context.Context, movie models.CustomMovie) (*models.CustomMovie, error) {
	if err := shared.ValidateStruct(movie); err != nil {
		return nil, err
	}
	movie.ID = 0

	data, err := json.Marshal(movie)
	if err != nil {
		return nil, fmt.Errorf("failed to encode movie: %w", err)
	}

	resp, err := c.api.Post(ctx, "/movies", data)
	if err != nil {
		return nil, err
	}
	if err := resp.Check(); err != nil {
		return nil, fmt.Errorf("failed to create custom movie: %w", err)
	}

	var created models.CustomMovie
	if err := resp.Decode(&created); err != nil {
		return nil, err
	}
	c.logger.Info("registered custom movie", "id", created.ID, "title", created.Title)
	return &created, nil
}

// Update replaces the movie with movie.ID.
func (c *MockAPIClient) Update(ctx context.Context, movie models.CustomMovie) (*models.CustomMovie, error) {
	if movie.ID <= 0 {
		return nil, fmt.Errorf("%w: custom movie id is required", shared.ErrMissingArgument)
	}
	if err := shared.ValidateStruct(movie); err != nil {
		return nil, err
	}

	data, err := json.Marshal(movie)
	if err != nil {
		return nil, fmt.Errorf("failed to encode movie: %w", err)
	}

	resp, err := c.api.Put(ctx, moviePath(movie.ID), data)
	if err != nil {
		return nil, err
	}
	if err := resp.Check(); err != nil {
		return nil, fmt.Errorf("custom movie %d: %w", movie.ID, err)
	}

	var updated models.CustomMovie
	if err := resp.Decode(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the movie with id.
func (c *MockAPIClient) Delete(ctx context.Context, id int64) error {
	resp, err := c.api.Delete(ctx, moviePath(id))
	if err != nil {
		return err
	}
	if err := resp.Check(); err != nil {
		return fmt.Errorf("custom movie %d: %w", id, err)
	}
	return nil
}

// SearchCustom returns movies whose title contains query, ignoring case and accents.
func (c *MockAPIClient) SearchCustom(ctx context.Context, query string) ([]models.CustomMovie, error) {
	movies, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return MatchCustom(movies, query), nil
}

// MatchCustom filters movies to those whose title or original title contains query after folding.
func MatchCustom(movies []models.CustomMovie, query string) []models.CustomMovie {
	needle := shared.FoldTitle(query)
	matches := []models.CustomMovie{}
	for _, m := range movies {
		if strings.Contains(shared.FoldTitle(m.Title), needle) || strings.Contains(shared.FoldTitle(m.OriginalTitle), needle) {
			matches = append(matches, m)
		}
	}
	return matches
}

// RegisterUser records user on the mock API's user collection.
//
// A 400 from the server means the email is taken and is reported as [shared.ErrDuplicateEmail].
func (c *MockAPIClient) RegisterUser(ctx context.Context, user models.UserRef) (*models.UserRef, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}

	resp, err := c.api.Post(ctx, "/users", data)
	if err != nil {
		return nil, err
	}
	if err := resp.Check(); err != nil {
		if errors.Is(err, shared.ErrInvalidInput) {
			return nil, fmt.Errorf("%w: %s", shared.ErrDuplicateEmail, resp.Message())
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	var created struct {
		ID       any    `json:"id"`
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	if err := resp.Decode(&created); err != nil {
		return nil, err
	}
	return &models.UserRef{ID: recordID(created.ID), FullName: created.FullName, Email: created.Email}, nil
}

// recordID renders an id the mock API returned as either a JSON string or a number.
func recordID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// MixedPage is a catalog page with matching custom movies placed ahead of the catalog results.
type MixedPage struct {
	models.CatalogPage
	Custom []models.CustomMovie `json:"custom"`
}

// Entries returns custom matches followed by catalog results as watchlist entries.
func (p *MixedPage) Entries() []models.WatchlistEntry {
	entries := make([]models.WatchlistEntry, 0, len(p.Custom)+len(p.Results))
	for _, m := range p.Custom {
		entries = append(entries, m.WatchlistEntry())
	}
	for _, item := range p.Results {
		entries = append(entries, item.WatchlistEntry())
	}
	return entries
}

// SearchWithCustom runs a catalog movie search and a custom movie search concurrently.
//
// Custom matches count toward TotalResults. A custom API failure is logged and the catalog page is
// returned alone; a catalog failure is returned as the error.
func SearchWithCustom(ctx context.Context, catalog CatalogService, custom CustomMovieService, query string, page int, logger *log.Logger) (*MixedPage, error) {
	if logger == nil {
		logger = log.Default()
	}

	var (
		wg                    conc.WaitGroup
		catalogPage           *models.CatalogPage
		catalogErr, customErr error
		matches               []models.CustomMovie
	)

	wg.Go(func() { catalogPage, catalogErr = catalog.Search(ctx, models.MediaMovie, query, page) })
	if custom != nil {
		wg.Go(func() { matches, customErr = custom.SearchCustom(ctx, query) })
	}
	wg.Wait()

	if catalogErr != nil {
		return nil, catalogErr
	}
	if customErr != nil {
		logger.Warn("custom movie search failed", "error", customErr)
		matches = nil
	}

	result := &MixedPage{CatalogPage: *catalogPage, Custom: matches}
	result.TotalResults += len(matches)
	return result, nil
}
