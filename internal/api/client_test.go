package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-web/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, nil)
}

func TestGetShowtimeAcceptsEnvelopeAndBare(t *testing.T) {
	bodies := []string{
		`{"data":{"id":7,"price":"10.00","start_time":"2025-03-01T19:30:00Z","seats":[{"id":1,"row":"A","number":1,"type":"vip"}]}}`,
		`{"id":7,"price":10,"start_time":"2025-03-01T19:30:00Z","seats":[{"id":1,"seat_row":"A","seat_number":1,"seat_type":"vip"}]}`,
	}
	for _, body := range bodies {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/showtimes/7", r.URL.Path)
			_, _ = w.Write([]byte(body))
		})
		st, err := c.GetShowtime(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), st.ID)
		assert.True(t, st.Price.Equal(decimal.NewFromInt(10)))
		require.Len(t, st.Seats, 1)
		assert.Equal(t, model.Seat{ID: 1, Row: "A", Number: 1, Type: model.SeatVIP}, st.Seats[0])
	}
}

func TestErrorCarriesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Seat A1 is already booked"}`))
	})
	_, err := c.CreateBooking(context.Background(), model.CreateBookingRequest{ShowtimeID: 1})
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "Seat A1 is already booked", MessageOr(err, "fallback"))
}

func TestNotFoundSentinel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := c.GetMovie(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "fallback", MessageOr(err, "fallback"))
}

func TestCredentialIsAttached(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		ck, err := r.Cookie("laravel_session")
		require.NoError(t, err)
		assert.Equal(t, "abc", ck.Value)
		assert.Equal(t, "x=y", r.Header.Get("X-XSRF-TOKEN"))
		_, _ = w.Write([]byte(`[]`))
	})
	cred := Credential{Token: "tok", Cookies: map[string]string{"laravel_session": "abc", "XSRF-TOKEN": "x%3Dy"}}
	_, err := c.WithCredential(cred).ListBookings(context.Background())
	require.NoError(t, err)
	assert.True(t, c.Credential().Empty())
}

func TestCreateBookingBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 3, body["showtime_id"])
		assert.Equal(t, []any{float64(1), float64(2)}, body["seat_ids"])
		assert.Equal(t, "25", body["total_price"])
		assert.Equal(t, "khqr", body["payment_method"])
		_, _ = w.Write([]byte(`{"message":"created","data":{"id":42,"status":"pending"}}`))
	})
	b, err := c.CreateBooking(context.Background(), model.CreateBookingRequest{
		ShowtimeID:    3,
		SeatIDs:       []uint64{1, 2},
		TotalPrice:    decimal.NewFromInt(25),
		PaymentMethod: model.PaymentKHQR,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), b.ID)
	assert.Equal(t, model.BookingPending, b.Status)
}

func TestLoginCollectsCookiesAndFetchesUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sanctum/csrf-cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "csrf"})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/customer/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "csrf", r.Header.Get("X-XSRF-TOKEN"))
		http.SetCookie(w, &http.Cookie{Name: "laravel_session", Value: "sess"})
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})
	mux.HandleFunc("/api/user", func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("laravel_session")
		if err != nil || ck.Value != "sess" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":5,"name":"Dara","email":"d@example.com","role":"customer"}`))
	})
	c := newTestClient(t, mux.ServeHTTP)

	cred, user, err := c.Login(context.Background(), model.RoleCustomer, model.Credentials{Email: "d@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "sess", cred.Cookies["laravel_session"])
	assert.Empty(t, cred.Token)
	assert.Equal(t, uint64(5), user.ID)
	assert.Equal(t, model.RoleCustomer, user.Role)
}

func TestLoginWithToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/admin/login":
			_, _ = w.Write([]byte(`{"token":"t1","user":{"id":1,"name":"Root","email":"a@example.com","role":"admin"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	cred, user, err := c.Login(context.Background(), model.RoleAdmin, model.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, "t1", cred.Token)
	assert.Nil(t, cred.Cookies)
	assert.Equal(t, model.RoleAdmin, user.Role)
}

func TestAdminListBookingsFilters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "pending", q.Get("status"))
		assert.Equal(t, "dara", q.Get("search"))
		assert.False(t, q.Has("payment_method"))
		_, _ = w.Write([]byte(`{"summary":{"total_bookings":2,"total_revenue":"30.50","pending_bookings":1,"payment_methods":{"khqr":2}},"bookings":{"data":[{"id":1,"status":"pending","total_price":"15.25"},{"id":2,"status":"paid","total_price":"15.25"}],"current_page":1}}`))
	})
	page, err := c.AdminListBookings(context.Background(), BookingFilter{Search: "dara", Status: "pending", PaymentMethod: "all"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Summary.TotalBookings)
	assert.Equal(t, "30.5", page.Summary.TotalRevenue.String())
	assert.Len(t, page.Bookings, 2)
}
