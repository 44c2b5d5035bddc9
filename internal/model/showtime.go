package model

import "github.com/shopspring/decimal"

// Showtime is one screening of a movie in an auditorium. Times are kept as
// the backend sends them; display formatting parses them.
type Showtime struct {
	ID             uint64          `json:"id"`
	MovieID        uint64          `json:"movie_id,omitempty"`
	AuditoriumID   uint64          `json:"auditorium_id,omitempty"`
	StartTime      string          `json:"start_time"`
	EndTime        string          `json:"end_time,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Format         string          `json:"format,omitempty"`
	AvailableSeats int             `json:"available_seats,omitempty"`
	TotalSeats     int             `json:"total_seats,omitempty"`
	Movie          *Movie          `json:"movie,omitempty"`
	Auditorium     *Auditorium     `json:"auditorium,omitempty"`
	Seats          []Seat          `json:"seats,omitempty"`
}

// Summary captures what the checkout page needs to describe the showtime.
func (s *Showtime) Summary() ShowtimeSummary {
	sum := ShowtimeSummary{StartTime: s.StartTime, Format: s.Format}
	if s.Movie != nil {
		sum.MovieTitle = s.Movie.Title
		sum.PosterURL = s.Movie.PosterURL
		sum.Duration = s.Movie.DurationMinutes
		sum.Genre = s.Movie.Genre
		sum.Rating = s.Movie.Rating
		if sum.Format == "" {
			sum.Format = s.Movie.Type
		}
	}
	if s.Auditorium != nil {
		sum.AuditoriumName = s.Auditorium.Name
		sum.CinemaName = s.Auditorium.CinemaName()
	}
	return sum
}
