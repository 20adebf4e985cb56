package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/codeGROOVE-dev/retry"
	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"golang.org/x/time/rate"
)

// PlaceholderAPIKey is the key shipped in the example config. It is treated as missing.
const PlaceholderAPIKey = "your_tmdb_api_key_here"

// Image sizes used by the catalog's image CDN.
const (
	PosterSize   = "w500"
	BackdropSize = "w1280"
)

var catalogLists = map[models.MediaType][]string{
	models.MediaMovie: {"popular", "top_rated", "upcoming", "now_playing"},
	models.MediaTV:    {"popular", "top_rated", "on_the_air"},
}

// CatalogClient implements [CatalogService] for TMDB v3.
type CatalogClient struct {
	api       *APIService
	apiKey    string
	language  string
	imageBase string
	limiter   *rate.Limiter
	attempts  uint
	backoff   time.Duration
	logger    *log.Logger
}

// NewCatalogClient creates a catalog client from cfg.
//
// A nil client gets one with the configured timeout. A non-positive rate limit disables pacing.
func NewCatalogClient(cfg shared.CatalogConfig, client *http.Client, logger *log.Logger) *CatalogClient {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout()}
	}
	if logger == nil {
		logger = log.Default()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.themoviedb.org/3"
	}
	imageBase := strings.TrimRight(cfg.ImageBaseURL, "/")
	if imageBase == "" {
		imageBase = "https://image.tmdb.org/t/p"
	}
	language := cfg.Language
	if language == "" {
		language = "en-US"
	}

	return &CatalogClient{
		api:       NewAPIService(baseURL, client),
		apiKey:    strings.TrimSpace(cfg.APIKey),
		language:  language,
		imageBase: imageBase,
		limiter:   limiter,
		attempts:  uint(max(cfg.Retries, 0)) + 1,
		backoff:   500 * time.Millisecond,
		logger:    logger,
	}
}

// Name returns the name of the service.
func (c *CatalogClient) Name() string { return "TMDB" }

// Configured reports whether a usable API key is set.
func (c *CatalogClient) Configured() bool {
	return c.apiKey != "" && c.apiKey != PlaceholderAPIKey
}

func (c *CatalogClient) get(ctx context.Context, path string, params url.Values, dst any) error {
	if !c.Configured() {
		return fmt.Errorf("%w: catalog api_key is not set", shared.ErrMissingCredentials)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)
	target := "/" + path + "?" + params.Encode()

	err := retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}

			c.logger.Debug("catalog request", "path", path)
			resp, err := c.api.Get(ctx, target)
			if err != nil {
				return err
			}
			if err := resp.Check(); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if err := resp.Decode(dst); err != nil {
				return retry.Unrecoverable(err)
			}
			return nil
		},
		retry.Attempts(c.attempts),
		retry.Delay(c.backoff),
		retry.MaxDelay(10*time.Second),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("catalog request failed, retrying", "path", path, "attempt", n+1, "error", err)
		}),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, shared.ErrNetworkFailure)
		}),
	)
	return err
}

func (c *CatalogClient) page(ctx context.Context, mediaType models.MediaType, path string, params url.Values) (*models.CatalogPage, error) {
	var result models.CatalogPage
	if err := c.get(ctx, path, params, &result); err != nil {
		return nil, err
	}
	tag(&result, mediaType)
	return &result, nil
}

// tag fills media_type on results from endpoints that omit it.
func tag(p *models.CatalogPage, mediaType models.MediaType) {
	if p == nil {
		return
	}
	for i := range p.Results {
		if p.Results[i].MediaType == "" {
			p.Results[i].MediaType = mediaType
		}
	}
}

func mediaPath(mediaType models.MediaType) (string, error) {
	switch mediaType {
	case "", models.MediaMovie:
		return string(models.MediaMovie), nil
	case models.MediaTV:
		return string(models.MediaTV), nil
	default:
		return "", fmt.Errorf("%w: unknown media type %q", shared.ErrInvalidArgument, mediaType)
	}
}

func pageParams(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

// Details returns a title with credits, videos, recommendations and similar titles appended.
func (c *CatalogClient) Details(ctx context.Context, mediaType models.MediaType, id int64) (*models.CatalogDetails, error) {
	mt, err := mediaPath(mediaType)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, fmt.Errorf("%w: catalog id must be positive, got %d", shared.ErrInvalidArgument, id)
	}

	params := url.Values{"append_to_response": {"videos,credits,recommendations,similar"}}

	var details models.CatalogDetails
	if err := c.get(ctx, fmt.Sprintf("%s/%d", mt, id), params, &details); err != nil {
		return nil, err
	}

	details.MediaType = models.MediaType(mt)
	tag(details.Recommendations, details.MediaType)
	tag(details.Similar, details.MediaType)
	return &details, nil
}

// Search returns one page of titles matching query.
func (c *CatalogClient) Search(ctx context.Context, mediaType models.MediaType, query string, page int) (*models.CatalogPage, error) {
	mt, err := mediaPath(mediaType)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is empty", shared.ErrMissingArgument)
	}

	params := pageParams(page)
	params.Set("query", query)
	params.Set("include_adult", "false")
	return c.page(ctx, models.MediaType(mt), "search/"+mt, params)
}

// Trending returns this week's trending titles.
func (c *CatalogClient) Trending(ctx context.Context, mediaType models.MediaType) (*models.CatalogPage, error) {
	mt, err := mediaPath(mediaType)
	if err != nil {
		return nil, err
	}
	return c.page(ctx, models.MediaType(mt), "trending/"+mt+"/week", nil)
}

// Popular returns one page of popular titles.
func (c *CatalogClient) Popular(ctx context.Context, mediaType models.MediaType, page int) (*models.CatalogPage, error) {
	return c.Browse(ctx, mediaType, "popular", page)
}

// Browse returns one page of a named list.
func (c *CatalogClient) Browse(ctx context.Context, mediaType models.MediaType, list string, page int) (*models.CatalogPage, error) {
	mt, err := mediaPath(mediaType)
	if err != nil {
		return nil, err
	}

	lists := catalogLists[models.MediaType(mt)]
	found := false
	for _, l := range lists {
		if l == list {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s list must be one of [%s], got %q", shared.ErrInvalidArgument, mt, strings.Join(lists, " "), list)
	}

	return c.page(ctx, models.MediaType(mt), mt+"/"+list, pageParams(page))
}

// Genres lists the genres defined for mediaType.
func (c *CatalogClient) Genres(ctx context.Context, mediaType models.MediaType) ([]models.Genre, error) {
	mt, err := mediaPath(mediaType)
	if err != nil {
		return nil, err
	}

	var result struct {
		Genres []models.Genre `json:"genres"`
	}
	if err := c.get(ctx, "genre/"+mt+"/list", nil, &result); err != nil {
		return nil, err
	}
	return result.Genres, nil
}

// ByGenre returns one page of titles in genreID ordered by popularity.
func (c *CatalogClient) ByGenre(ctx context.Context, mediaType models.MediaType, genreID int, page int) (*models.CatalogPage, error) {
	mt, err := mediaPath(mediaType)
	if err != nil {
		return nil, err
	}

	params := pageParams(page)
	params.Set("with_genres", strconv.Itoa(genreID))
	params.Set("sort_by", "popularity.desc")
	return c.page(ctx, models.MediaType(mt), "discover/"+mt, params)
}

// ImageURL builds an absolute image URL, or "" when path is empty. size defaults to [PosterSize].
// Absolute URLs, as custom movies carry, are returned unchanged.
func (c *CatalogClient) ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if size == "" {
		size = PosterSize
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.imageBase + "/" + size + path
}
