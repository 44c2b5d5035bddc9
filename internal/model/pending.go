package model

import "github.com/shopspring/decimal"

// PendingBookingKey is the session-scoped storage key of the booking being
// checked out.
const PendingBookingKey = "pendingBooking"

// PendingBooking is written when the customer continues from seat selection
// and consumed once by checkout.
type PendingBooking struct {
	ShowtimeID uint64          `json:"showtimeId"`
	SeatIDs    []uint64        `json:"seatIds"`
	Seats      []string        `json:"seats"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Showtime   ShowtimeSummary `json:"showtime"`
}

// ShowtimeSummary is the denormalized showtime shown on the checkout page.
type ShowtimeSummary struct {
	MovieTitle     string `json:"movieTitle"`
	PosterURL      string `json:"posterUrl,omitempty"`
	CinemaName     string `json:"cinemaName"`
	AuditoriumName string `json:"auditoriumName"`
	StartTime      string `json:"startTime"`
	Format         string `json:"format,omitempty"`
	Duration       int    `json:"duration,omitempty"`
	Genre          string `json:"genre,omitempty"`
	Rating         string `json:"rating,omitempty"`
}
