// Package queue defines the checkout event payload and moves it over RabbitMQ.
package queue

// CheckoutQueue is the durable queue checkout events are published to.
const CheckoutQueue = "checkout.events"

// Outcomes of a checkout.
const (
	OutcomeConfirmed = "confirmed"
	OutcomeExpired   = "expired"
	OutcomeCancelled = "cancelled"
)

// CheckoutEvent is published when a checkout reaches a terminal state. It
// carries enough for downstream consumers to log or notify without calling
// the backend.
type CheckoutEvent struct {
	Outcome       string   `json:"outcome"`
	BookingID     uint64   `json:"booking_id"`
	ShowtimeID    uint64   `json:"showtime_id"`
	Session       string   `json:"session"` // short browser session fingerprint
	PaymentMethod string   `json:"payment_method"`
	MovieTitle    string   `json:"movie_title"`
	CinemaName    string   `json:"cinema_name"`
	StartsAt      string   `json:"starts_at"`
	SeatLabels    []string `json:"seats"`
	Amount        string   `json:"amount"` // "$25.00"
	OccurredAt    string   `json:"occurred_at"`
}
