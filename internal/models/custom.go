package models

// CustomMovie is a user-registered movie served by the mock REST API.
type CustomMovie struct {
	ID               int64   `json:"id,omitempty"`
	Title            string  `json:"title" validate:"required,max=200"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path" validate:"omitempty,url"`
	BackdropPath     string  `json:"backdrop_path" validate:"omitempty,url"`
	VideoURL         string  `json:"video_url" validate:"required,http_url"`
	ReleaseDate      string  `json:"release_date"`
	VoteAverage      float64 `json:"vote_average" validate:"gte=0,lte=10"`
	OriginalLanguage string  `json:"original_language"`
	OriginalTitle    string  `json:"original_title"`
	GenreIDs         []int   `json:"genre_ids"`
	Adult            bool    `json:"adult"`
	Video            bool    `json:"video"`
}

// WatchlistEntry implements [Watchable].
func (m CustomMovie) WatchlistEntry() WatchlistEntry {
	return WatchlistEntry{
		ID:           m.ID,
		Source:       SourceCustom,
		Title:        m.Title,
		PosterPath:   m.PosterPath,
		BackdropPath: m.BackdropPath,
		VoteAverage:  m.VoteAverage,
		ReleaseDate:  m.ReleaseDate,
		MediaType:    MediaMovie,
		VideoURL:     m.VideoURL,
	}
}
