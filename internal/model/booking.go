package model

import "github.com/shopspring/decimal"

// BookingStatus is owned by the backend. The client never assigns paid.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingPaid      BookingStatus = "paid"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// PaymentMethod selected at checkout.
type PaymentMethod string

const (
	PaymentKHQR PaymentMethod = "khqr"
	PaymentABA  PaymentMethod = "aba"
)

// Valid reports whether m is one of the supported methods.
func (m PaymentMethod) Valid() bool {
	return m == PaymentKHQR || m == PaymentABA
}

// Booking as returned by the customer and admin booking endpoints.
type Booking struct {
	ID            uint64          `json:"id"`
	Status        BookingStatus   `json:"status"`
	PaymentMethod PaymentMethod   `json:"payment_method,omitempty"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	CreatedAt     string          `json:"created_at,omitempty"`
	ShowtimeID    uint64          `json:"showtime_id,omitempty"`
	Showtime      *Showtime       `json:"showtime,omitempty"`
	Seats         []Seat          `json:"seats,omitempty"`
	User          *User           `json:"user,omitempty"`
}

// CreateBookingRequest is the body of POST /api/customer/bookings.
type CreateBookingRequest struct {
	ShowtimeID    uint64          `json:"showtime_id"`
	SeatIDs       []uint64        `json:"seat_ids"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
}

// PaymentSession is the KHQR payload generated for a pending booking.
type PaymentSession struct {
	QRCode          string          `json:"qr_code"`
	ReferenceNumber string          `json:"reference_number"`
	Amount          decimal.Decimal `json:"amount"`
	ExpiresAt       string          `json:"expires_at,omitempty"`
}
