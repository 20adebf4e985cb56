package models

// CatalogItem is a movie or tv result from the catalog API.
type CatalogItem struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title,omitempty"`
	Name             string    `json:"name,omitempty"`
	Overview         string    `json:"overview"`
	PosterPath       string    `json:"poster_path"`
	BackdropPath     string    `json:"backdrop_path"`
	VoteAverage      float64   `json:"vote_average"`
	VoteCount        int       `json:"vote_count"`
	Popularity       float64   `json:"popularity"`
	ReleaseDate      string    `json:"release_date,omitempty"`
	FirstAirDate     string    `json:"first_air_date,omitempty"`
	GenreIDs         []int     `json:"genre_ids,omitempty"`
	OriginalLanguage string    `json:"original_language"`
	MediaType        MediaType `json:"media_type,omitempty"`
	Adult            bool      `json:"adult"`
}

// DisplayTitle is the title for movies and the name for tv.
func (c CatalogItem) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Name
}

// WatchlistEntry implements [Watchable].
func (c CatalogItem) WatchlistEntry() WatchlistEntry {
	return WatchlistEntry{
		ID:           c.ID,
		Source:       SourceCatalog,
		Title:        c.Title,
		Name:         c.Name,
		PosterPath:   c.PosterPath,
		BackdropPath: c.BackdropPath,
		VoteAverage:  c.VoteAverage,
		ReleaseDate:  c.ReleaseDate,
		FirstAirDate: c.FirstAirDate,
		MediaType:    c.MediaType,
	}.Normalize()
}

// Genre is a catalog genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CastMember is one credited actor.
type CastMember struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

// Credits holds the cast of a title.
type Credits struct {
	Cast []CastMember `json:"cast"`
}

// Video is a trailer or clip attached to a title.
type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// Videos wraps the catalog's video results.
type Videos struct {
	Results []Video `json:"results"`
}

// CatalogDetails is a title with genres, runtime, cast and videos appended.
type CatalogDetails struct {
	CatalogItem
	Genres           []Genre `json:"genres"`
	Runtime          int     `json:"runtime,omitempty"`
	NumberOfSeasons  int     `json:"number_of_seasons,omitempty"`
	NumberOfEpisodes int     `json:"number_of_episodes,omitempty"`
	Tagline          string  `json:"tagline,omitempty"`
	Status           string  `json:"status,omitempty"`
	Credits          Credits `json:"credits"`
	Videos           Videos  `json:"videos"`

	Recommendations *CatalogPage `json:"recommendations,omitempty"`
	Similar         *CatalogPage `json:"similar,omitempty"`
}

// Trailer returns the first YouTube trailer, if any.
func (d CatalogDetails) Trailer() (Video, bool) {
	for _, v := range d.Videos.Results {
		if v.Site == "YouTube" && v.Type == "Trailer" {
			return v, true
		}
	}
	return Video{}, false
}

// CatalogPage is one page of catalog results.
type CatalogPage struct {
	Page         int           `json:"page"`
	Results      []CatalogItem `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}
