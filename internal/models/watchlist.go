package models

import (
	"fmt"
	"strconv"
	"strings"
)

// MediaType distinguishes movies from tv shows.
type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

// ParseMediaType accepts "movie", "tv" or an empty string (movie).
func ParseMediaType(s string) (MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(MediaMovie):
		return MediaMovie, nil
	case string(MediaTV):
		return MediaTV, nil
	default:
		return "", fmt.Errorf("unknown media type %q", s)
	}
}

// Source records where a watchlist entry's id was assigned.
type Source string

const (
	SourceCatalog Source = "catalog"
	SourceCustom  Source = "custom"
)

// MediaKey identifies a watchlist entry. Catalog ids are unique per media type; custom ids are assigned by the
// mock REST API and live in their own namespace.
type MediaKey struct {
	Source    Source
	MediaType MediaType
	ID        int64
}

// CatalogKey builds the key of a catalog item.
func CatalogKey(mt MediaType, id int64) MediaKey {
	if mt == "" {
		mt = MediaMovie
	}
	return MediaKey{Source: SourceCatalog, MediaType: mt, ID: id}
}

// CustomKey builds the key of a custom movie.
func CustomKey(id int64) MediaKey {
	return MediaKey{Source: SourceCustom, MediaType: MediaMovie, ID: id}
}

// String renders the key as "movie:42", "tv:42" or "custom:1712345678901".
func (k MediaKey) String() string {
	if k.Source == SourceCustom {
		return fmt.Sprintf("custom:%d", k.ID)
	}
	mt := k.MediaType
	if mt == "" {
		mt = MediaMovie
	}
	return fmt.Sprintf("%s:%d", mt, k.ID)
}

// ParseMediaKey parses the forms produced by [MediaKey.String]. A bare number is a catalog movie.
func ParseMediaKey(s string) (MediaKey, error) {
	s = strings.TrimSpace(s)
	prefix, rest, found := strings.Cut(s, ":")
	if !found {
		rest, prefix = prefix, ""
	}

	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return MediaKey{}, fmt.Errorf("invalid media key %q", s)
	}

	switch strings.ToLower(prefix) {
	case "", string(MediaMovie):
		return CatalogKey(MediaMovie, id), nil
	case string(MediaTV):
		return CatalogKey(MediaTV, id), nil
	case string(SourceCustom):
		return CustomKey(id), nil
	default:
		return MediaKey{}, fmt.Errorf("invalid media key %q", s)
	}
}

// WatchlistEntry is the denormalized copy of a media item saved to the watchlist.
type WatchlistEntry struct {
	ID           int64     `json:"id"`
	Source       Source    `json:"source,omitempty"`
	Title        string    `json:"title"`
	Name         string    `json:"name,omitempty"`
	PosterPath   string    `json:"poster_path,omitempty"`
	BackdropPath string    `json:"backdrop_path,omitempty"`
	VoteAverage  float64   `json:"vote_average"`
	ReleaseDate  string    `json:"release_date,omitempty"`
	FirstAirDate string    `json:"first_air_date,omitempty"`
	MediaType    MediaType `json:"media_type"`
	VideoURL     string    `json:"video_url,omitempty"`
}

// Key returns the entry's media key. Entries persisted without a source are catalog entries.
func (e WatchlistEntry) Key() MediaKey {
	if e.Source == SourceCustom {
		return CustomKey(e.ID)
	}
	return CatalogKey(e.MediaType, e.ID)
}

// Normalize fills defaults: media type movie, source catalog, title from name.
func (e WatchlistEntry) Normalize() WatchlistEntry {
	if e.MediaType == "" {
		e.MediaType = MediaMovie
	}
	if e.Source == "" {
		e.Source = SourceCatalog
	}
	if e.Title == "" {
		e.Title = e.Name
	}
	return e
}

// DisplayDate is the release date for movies and the first air date for tv.
func (e WatchlistEntry) DisplayDate() string {
	if e.MediaType == MediaTV && e.FirstAirDate != "" {
		return e.FirstAirDate
	}
	if e.ReleaseDate != "" {
		return e.ReleaseDate
	}
	return e.FirstAirDate
}

// WatchlistEntry implements [Watchable].
func (e WatchlistEntry) WatchlistEntry() WatchlistEntry { return e.Normalize() }
