package model

// Movie as returned by /api/movies and managed by the admin console.
type Movie struct {
	ID              uint64 `json:"id"`
	Title           string `json:"title" validate:"required"`
	Description     string `json:"description,omitempty"`
	DurationMinutes int    `json:"duration_minutes" validate:"gt=0"`
	Genre           string `json:"genre"`
	Rating          string `json:"rating"`
	ReleaseDate     string `json:"release_date" validate:"omitempty,datetime=2006-01-02"`
	PosterURL       string `json:"poster_url,omitempty"`
	Type            string `json:"type,omitempty"` // 2D, 3D, IMAX
}
