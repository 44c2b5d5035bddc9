package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/iliyamo/cinema-web/internal/model"
)

// BookingFilter narrows the admin booking list. Empty fields are omitted.
type BookingFilter struct {
	Search        string
	Status        string
	StartDate     string // YYYY-MM-DD
	EndDate       string
	PaymentMethod string
}

func (f BookingFilter) values() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" && v != "all" {
			q.Set(k, v)
		}
	}
	set("search", f.Search)
	set("status", f.Status)
	set("start_date", f.StartDate)
	set("end_date", f.EndDate)
	set("payment_method", f.PaymentMethod)
	return q
}

// BookingPage is the admin booking list with its summary.
type BookingPage struct {
	Summary  model.BookingSummary `json:"summary"`
	Bookings list[model.Booking]  `json:"bookings"`
}

func (c *Client) AdminListMovies(ctx context.Context) ([]model.Movie, error) {
	var out list[model.Movie]
	_, err := c.call(ctx, http.MethodGet, "/api/admin/movies", nil, nil, &out)
	return out, err
}

func (c *Client) AdminCreateMovie(ctx context.Context, m model.Movie) (*model.Movie, error) {
	var out model.Movie
	if _, err := c.call(ctx, http.MethodPost, "/api/admin/movies", nil, m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminUpdateMovie(ctx context.Context, id uint64, m model.Movie) (*model.Movie, error) {
	var out model.Movie
	if _, err := c.call(ctx, http.MethodPut, idPath("/api/admin/movies/%d", id), nil, m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminDeleteMovie(ctx context.Context, id uint64) error {
	_, err := c.call(ctx, http.MethodDelete, idPath("/api/admin/movies/%d", id), nil, nil, nil)
	return err
}

func (c *Client) AdminListShowtimes(ctx context.Context) ([]model.Showtime, error) {
	var out list[model.Showtime]
	_, err := c.call(ctx, http.MethodGet, "/api/admin/showtimes", nil, nil, &out)
	return out, err
}

func (c *Client) AdminCreateShowtime(ctx context.Context, in model.ShowtimeInput) (*model.Showtime, error) {
	var out model.Showtime
	if _, err := c.call(ctx, http.MethodPost, "/api/admin/showtimes", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminUpdateShowtime(ctx context.Context, id uint64, in model.ShowtimeInput) (*model.Showtime, error) {
	var out model.Showtime
	if _, err := c.call(ctx, http.MethodPut, idPath("/api/admin/showtimes/%d", id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminDeleteShowtime(ctx context.Context, id uint64) error {
	_, err := c.call(ctx, http.MethodDelete, idPath("/api/admin/showtimes/%d", id), nil, nil, nil)
	return err
}

func (c *Client) AdminListAuditoriums(ctx context.Context) ([]model.Auditorium, error) {
	var out list[model.Auditorium]
	_, err := c.call(ctx, http.MethodGet, "/api/admin/auditoriums", nil, nil, &out)
	return out, err
}

func (c *Client) AdminListBookings(ctx context.Context, f BookingFilter) (*BookingPage, error) {
	var out BookingPage
	if _, err := c.call(ctx, http.MethodGet, "/api/admin/bookings", f.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminGetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	var out model.Booking
	if _, err := c.call(ctx, http.MethodGet, idPath("/api/admin/bookings/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminSetBookingStatus(ctx context.Context, id uint64, status model.BookingStatus) error {
	body := map[string]model.BookingStatus{"status": status}
	_, err := c.call(ctx, http.MethodPatch, idPath("/api/admin/bookings/%d/status", id), nil, body, nil)
	return err
}

func (c *Client) AdminDashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	var out model.DashboardStats
	if _, err := c.call(ctx, http.MethodGet, "/api/admin/dashboard/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
