package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iliyamo/cinema-web/internal/model"
)

// list accepts a bare JSON array or a paginated {"data": [...]} object.
type list[T any] []T

func (l *list[T]) UnmarshalJSON(b []byte) error {
	var items []T
	if err := decodeEnvelope(b, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

func (c *Client) ListMovies(ctx context.Context) ([]model.Movie, error) {
	var out list[model.Movie]
	_, err := c.call(ctx, http.MethodGet, "/api/movies", nil, nil, &out)
	return out, err
}

func (c *Client) GetMovie(ctx context.Context, id uint64) (*model.Movie, error) {
	var out model.Movie
	if _, err := c.call(ctx, http.MethodGet, idPath("/api/movies/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListShowtimes lists upcoming showtimes, restricted to one movie when
// movieID is non-zero.
func (c *Client) ListShowtimes(ctx context.Context, movieID uint64) ([]model.Showtime, error) {
	var q url.Values
	if movieID != 0 {
		q = url.Values{"movie": {strconv.FormatUint(movieID, 10)}}
	}
	var out list[model.Showtime]
	_, err := c.call(ctx, http.MethodGet, "/api/showtimes", q, nil, &out)
	return out, err
}

// GetShowtime returns the showtime detail including its seat map.
func (c *Client) GetShowtime(ctx context.Context, id uint64) (*model.Showtime, error) {
	var out model.Showtime
	if _, err := c.call(ctx, http.MethodGet, idPath("/api/showtimes/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	var out model.Booking
	if _, err := c.call(ctx, http.MethodPost, "/api/customer/bookings", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePaymentSession generates the KHQR payload for a pending booking.
func (c *Client) CreatePaymentSession(ctx context.Context, bookingID uint64) (*model.PaymentSession, error) {
	var out model.PaymentSession
	if _, err := c.call(ctx, http.MethodPost, idPath("/api/customer/bookings/%d/payment", bookingID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBooking doubles as the payment status check.
func (c *Client) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	var out model.Booking
	if _, err := c.call(ctx, http.MethodGet, idPath("/api/customer/bookings/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListBookings(ctx context.Context) ([]model.Booking, error) {
	var out list[model.Booking]
	_, err := c.call(ctx, http.MethodGet, "/api/customer/bookings", nil, nil, &out)
	return out, err
}

// ExpireBooking cancels a booking whose payment window ran out.
func (c *Client) ExpireBooking(ctx context.Context, id uint64) error {
	_, err := c.call(ctx, http.MethodPost, idPath("/api/customer/bookings/%d/cancel", id), nil, nil, nil)
	return err
}

// CancelBooking is the customer initiated cancellation from the bookings page.
func (c *Client) CancelBooking(ctx context.Context, id uint64) error {
	_, err := c.call(ctx, http.MethodPatch, idPath("/api/customer/bookings/%d/cancel", id), nil, nil, nil)
	return err
}
