package model

import "github.com/shopspring/decimal"

// BookingSummary accompanies the admin booking list.
type BookingSummary struct {
	TotalBookings   int             `json:"total_bookings"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	PendingBookings int             `json:"pending_bookings"`
	PaymentMethods  map[string]int  `json:"payment_methods"`
}

// DashboardStats backs the admin dashboard.
type DashboardStats struct {
	TotalMovies    int `json:"total_movies"`
	TotalShowtimes int `json:"total_showtimes"`
	TotalCustomers int `json:"total_customers"`
	Bookings       struct {
		Total     int `json:"total"`
		Pending   int `json:"pending"`
		Completed int `json:"completed"`
		Cancelled int `json:"cancelled"`
	} `json:"bookings"`
	Payments struct {
		KHQR int `json:"khqr"`
		ABA  int `json:"aba"`
	} `json:"payments"`
	Revenue struct {
		Today   decimal.Decimal `json:"today"`
		Monthly decimal.Decimal `json:"monthly"`
	} `json:"revenue"`
}

// ShowtimeInput is the body of admin showtime create/update.
type ShowtimeInput struct {
	MovieID      uint64          `json:"movie_id" validate:"required"`
	AuditoriumID uint64          `json:"auditorium_id" validate:"required"`
	StartTime    string          `json:"start_time" validate:"required,timestamp"`
	EndTime      string          `json:"end_time" validate:"omitempty,timestamp"`
	Price        decimal.Decimal `json:"price" validate:"gt=0"`
}
