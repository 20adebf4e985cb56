package services

import (
	"context"

	"github.com/desertthunder/streamsavvy/internal/models"
)

// CatalogService retrieves movie and tv metadata.
type CatalogService interface {
	// Details returns a title with credits, videos, recommendations and similar titles appended.
	Details(ctx context.Context, mediaType models.MediaType, id int64) (*models.CatalogDetails, error)

	// Search returns one page of titles matching query.
	Search(ctx context.Context, mediaType models.MediaType, query string, page int) (*models.CatalogPage, error)

	// Trending returns this week's trending titles.
	Trending(ctx context.Context, mediaType models.MediaType) (*models.CatalogPage, error)

	// Popular returns one page of popular titles.
	Popular(ctx context.Context, mediaType models.MediaType, page int) (*models.CatalogPage, error)

	// Browse returns one page of a named list (popular, top_rated, upcoming, now_playing, on_the_air).
	Browse(ctx context.Context, mediaType models.MediaType, list string, page int) (*models.CatalogPage, error)

	// Genres lists the genres defined for mediaType.
	Genres(ctx context.Context, mediaType models.MediaType) ([]models.Genre, error)

	// ByGenre returns one page of titles in genreID ordered by popularity.
	ByGenre(ctx context.Context, mediaType models.MediaType, genreID int, page int) (*models.CatalogPage, error)

	// ImageURL builds an absolute image URL, or "" when path is empty.
	ImageURL(path, size string) string

	// Name returns the name of the service (e.g., "TMDB")
	Name() string
}

// CustomMovieService manages user-registered movies on the mock REST API.
type CustomMovieService interface {
	List(ctx context.Context) ([]models.CustomMovie, error)
	Get(ctx context.Context, id int64) (*models.CustomMovie, error)
	Create(ctx context.Context, movie models.CustomMovie) (*models.CustomMovie, error)
	Update(ctx context.Context, movie models.CustomMovie) (*models.CustomMovie, error)
	Delete(ctx context.Context, id int64) error

	// SearchCustom returns movies whose title contains query, ignoring case and accents.
	SearchCustom(ctx context.Context, query string) ([]models.CustomMovie, error)
}

var (
	_ CatalogService     = (*CatalogClient)(nil)
	_ CustomMovieService = (*MockAPIClient)(nil)
)
