package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-web/internal/api"
	"github.com/iliyamo/cinema-web/internal/checkout"
	"github.com/iliyamo/cinema-web/internal/handler"
	"github.com/iliyamo/cinema-web/internal/middleware"
	"github.com/iliyamo/cinema-web/internal/notify"
	"github.com/iliyamo/cinema-web/internal/router"
	"github.com/iliyamo/cinema-web/internal/seats"
	"github.com/iliyamo/cinema-web/internal/session"
	"github.com/iliyamo/cinema-web/internal/storage"
)

func showtimeJSON() string {
	var seatList []string
	for n := 1; n <= 12; n++ {
		typ, booked := "standard", false
		if n == 2 {
			typ = "vip"
		}
		if n == 12 {
			booked = true
		}
		seatList = append(seatList, fmt.Sprintf(`{"id":%d,"row":"A","number":%d,"type":%q,"is_booked":%t}`, n, n, typ, booked))
	}
	return `{"id":7,"movie_id":1,"price":"10.00","start_time":"2030-03-01T19:30:00Z",` +
		`"movie":{"id":1,"title":"Dune","duration_minutes":155},` +
		`"auditorium":{"id":2,"name":"Hall 2","cinema":{"id":1,"name":"Legend"}},` +
		`"seats":[` + strings.Join(seatList, ",") + `]}`
}

type backend struct {
	created   atomic.Int32
	cancelled atomic.Int32
	deleted   atomic.Int32
}

func (b *backend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
	mux.HandleFunc("GET /sanctum/csrf-cookie", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	mux.HandleFunc("POST /api/customer/login", func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"token":"tok","user":{"id":3,"name":"Dara","email":"dara@example.com","role":"customer"}}`)
	})
	mux.HandleFunc("POST /api/admin/login", func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"token":"adm","user":{"id":1,"name":"Root","email":"root@example.com","role":"admin"}}`)
	})
	mux.HandleFunc("GET /api/movies", func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"data":[{"id":1,"title":"Dune","genre":"Sci-Fi","duration_minutes":155},{"id":2,"title":"Up","genre":"Family","duration_minutes":96}]}`)
	})
	mux.HandleFunc("GET /api/showtimes", func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"data":[`+
			`{"id":8,"price":"10","start_time":"2030-03-02T21:00:00Z","movie":{"id":1,"title":"Dune"}},`+
			`{"id":7,"price":"10","start_time":"2030-03-01T19:30:00Z","movie":{"id":1,"title":"Dune"}},`+
			`{"id":9,"price":"8","start_time":"2030-03-01T12:00:00Z","movie":{"id":2,"title":"Up"}}]}`)
	})
	mux.HandleFunc("GET /api/showtimes/7", func(w http.ResponseWriter, r *http.Request) { write(w, showtimeJSON()) })
	mux.HandleFunc("GET /api/showtimes/404", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		write(w, `{"message":"Showtime not found"}`)
	})
	mux.HandleFunc("POST /api/customer/bookings", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var req struct {
			SeatIDs       []uint64 `json:"seat_ids"`
			PaymentMethod string   `json:"payment_method"`
			TotalPrice    string   `json:"total_price"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []uint64{1, 2}, req.SeatIDs)
		assert.Equal(t, "25", req.TotalPrice)
		b.created.Add(1)
		write(w, `{"data":{"id":55,"status":"pending","total_price":"25.00","payment_method":"`+req.PaymentMethod+`"}}`)
	})
	mux.HandleFunc("GET /api/customer/bookings/55", func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"id":55,"status":"pending","total_price":"25.00"}`)
	})
	mux.HandleFunc("PATCH /api/customer/bookings/55/cancel", func(w http.ResponseWriter, r *http.Request) {
		b.cancelled.Add(1)
		write(w, `{}`)
	})
	mux.HandleFunc("DELETE /api/admin/movies/4", func(w http.ResponseWriter, r *http.Request) {
		b.deleted.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/admin/bookings/55", func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"id":55,"status":"confirmed","total_price":"25.00"}`)
	})
	return mux
}

type harness struct {
	srv      *httptest.Server
	http     *http.Client
	backend  *backend
	registry *checkout.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := &backend{}
	bsrv := httptest.NewServer(b.handler(t))
	t.Cleanup(bsrv.Close)

	log := zap.NewNop()
	scoped := storage.NewMemoryStore(time.Hour)
	persistent := storage.NewMemoryStore(time.Hour)
	client := api.New(bsrv.URL, 5*time.Second, log)
	outbox := notify.NewOutbox(scoped, log)
	pending := storage.PendingBookings{Store: scoped}
	registry := checkout.NewRegistry(checkout.RegistryConfig{
		Settings: checkout.Settings{
			Countdown:     600 * time.Second,
			Tick:          time.Second,
			PollInterval:  10 * time.Second,
			CopyIndicator: 2 * time.Second,
			ABAName:       "Cinema Booking System",
			ABANumber:     "000123456",
		},
		Pending: pending,
		Log:     log,
	})
	t.Cleanup(registry.CloseAll)

	e := echo.New()
	e.Use(middleware.Session(middleware.SessionConfig{Cookie: "cinema_sid"}, session.NewManager(client, persistent, time.Hour, log), log))
	pass := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	router.RegisterRoutes(e, &handler.NoticeHandler{Outbox: outbox, Log: log})
	router.RegisterAuth(e, &handler.AuthHandler{Registry: registry, Outbox: outbox, Log: log}, pass)
	router.RegisterPublic(e, &handler.PublicHandler{Client: client, Loc: time.UTC, Now: func() time.Time {
		return time.Date(2030, 3, 1, 8, 0, 0, 0, time.UTC)
	}, Log: log}, pass)
	router.RegisterCustomer(e,
		&handler.CheckoutHandler{Registry: registry, Picks: seats.Picks{Store: scoped}, Pending: pending, Outbox: outbox, Loc: time.UTC, Log: log},
		&handler.CustomerHandler{Outbox: outbox, Loc: time.UTC, Now: time.Now, Log: log},
		pass)
	router.RegisterAdmin(e, &handler.AdminHandler{Outbox: outbox, Log: log})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &harness{srv: srv, http: &http.Client{Jar: jar}, backend: b, registry: registry}
}

func (h *harness) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.http.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	if resp.StatusCode != http.StatusNoContent {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		if len(raw) > 0 && raw[0] == '{' {
			require.NoError(t, json.Unmarshal(raw, &out))
		}
	}
	return resp.StatusCode, out
}

func (h *harness) loginCustomer(t *testing.T) map[string]any {
	t.Helper()
	status, body := h.do(t, http.MethodPost, "/customer/login", map[string]string{"email": "dara@example.com", "password": "secret"})
	require.Equal(t, http.StatusOK, status)
	return body
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	resp, err := h.http.Get(h.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMoviesFilter(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, http.MethodGet, "/movies?q=du", nil)
	require.Equal(t, http.StatusOK, status)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Dune", items[0].(map[string]any)["title"])
	assert.Equal(t, "2h 35m", items[0].(map[string]any)["duration"])
}

func TestShowtimesGroupedByMovieAndDay(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, http.MethodGet, "/showtimes", nil)
	require.Equal(t, http.StatusOK, status)
	groups := body["items"].([]any)
	require.Len(t, groups, 2)

	dune := groups[0].(map[string]any)
	assert.Equal(t, "Dune", dune["movie"].(map[string]any)["title"])
	days := dune["days"].([]any)
	require.Len(t, days, 2)
	first := days[0].(map[string]any)
	assert.Equal(t, "2030-03-01", first["date"])
	assert.Equal(t, "Today", first["label"])
	assert.Equal(t, "Tomorrow", days[1].(map[string]any)["label"])
	slot := first["showtimes"].([]any)[0].(map[string]any)
	assert.Equal(t, "7:30 PM", slot["time"])
	assert.Equal(t, "$10.00", slot["price"])
}

func TestCustomerPagesRequireLogin(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, http.MethodGet, "/showtimes/7/seats", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "/customer/login?redirect=%2Fshowtimes%2F7%2Fseats", body["redirect"])

	login := h.loginCustomer(t)
	assert.Equal(t, "/showtimes/7/seats", login["redirect"])

	status, body = h.do(t, http.MethodGet, "/admin/dashboard", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "/", body["redirect"])
}

func TestSeatSelectionLimitAndTotal(t *testing.T) {
	h := newHarness(t)
	h.loginCustomer(t)

	for id := 1; id <= 10; id++ {
		status, _ := h.do(t, http.MethodPost, fmt.Sprintf("/showtimes/7/seats/%d", id), nil)
		require.Equal(t, http.StatusOK, status)
	}
	status, body := h.do(t, http.MethodPost, "/showtimes/7/seats/11", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Maximum 10 seats per booking", body["error"])
	assert.Equal(t, float64(10), body["seats"].(map[string]any)["count"])

	_, notices := h.do(t, http.MethodGet, "/notices", nil)
	items := notices["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "warning", items[0].(map[string]any)["level"])

	status, body = h.do(t, http.MethodPost, "/showtimes/7/seats/12", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "This seat is already booked", body["error"])

	// Nine standard at $10 plus one vip at $15.
	_, body = h.do(t, http.MethodGet, "/showtimes/7/seats", nil)
	assert.Equal(t, "$105.00", body["total"])
}

func TestSeatsShowtimeNotFound(t *testing.T) {
	h := newHarness(t)
	h.loginCustomer(t)
	status, body := h.do(t, http.MethodGet, "/showtimes/404/seats", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Showtime not found", body["error"])
}

func TestCheckoutJourney(t *testing.T) {
	h := newHarness(t)
	h.loginCustomer(t)

	status, body := h.do(t, http.MethodPost, "/showtimes/7/checkout", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Please select at least one seat", body["error"])

	h.do(t, http.MethodPost, "/showtimes/7/seats/1", nil)
	_, body = h.do(t, http.MethodPost, "/showtimes/7/seats/2", nil)
	assert.Equal(t, "$25.00", body["total"])

	status, body = h.do(t, http.MethodPost, "/showtimes/7/checkout", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/checkout/7", body["redirect"])

	status, body = h.do(t, http.MethodGet, "/checkout/7", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "select", body["view"])
	assert.Equal(t, "$25.00", body["amount"])
	assert.Equal(t, []any{"A1", "A2"}, body["booking"].(map[string]any)["seats"])

	status, body = h.do(t, http.MethodPost, "/checkout/7/submit", map[string]any{"payment_method": "", "terms_accepted": true})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Please select a payment method", body["error"])
	status, _ = h.do(t, http.MethodPost, "/checkout/7/submit", map[string]any{"payment_method": "aba", "terms_accepted": false})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Zero(t, h.backend.created.Load())

	status, body = h.do(t, http.MethodPost, "/checkout/7/submit", map[string]any{"payment_method": "aba", "terms_accepted": true})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "payment", body["view"])
	assert.Equal(t, "10:00", body["countdown"])
	bank := body["bank"].(map[string]any)
	assert.Equal(t, "55", bank["reference"])
	assert.Equal(t, "000123456", bank["account_number"])

	status, _ = h.do(t, http.MethodPost, "/checkout/7/submit", map[string]any{"payment_method": "aba", "terms_accepted": true})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, int32(1), h.backend.created.Load())

	status, body = h.do(t, http.MethodPost, "/checkout/7/copy", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["copied"])

	// Reload resumes the same flow.
	status, body = h.do(t, http.MethodGet, "/checkout/7", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "payment", body["view"])

	status, _ = h.do(t, http.MethodDelete, "/checkout/7", nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, body = h.do(t, http.MethodGet, "/checkout/7/state", nil)
	assert.Equal(t, http.StatusGone, status)
	assert.Equal(t, "/movies", body["redirect"])
}

func TestCheckoutWithoutPendingBooking(t *testing.T) {
	h := newHarness(t)
	h.loginCustomer(t)
	status, body := h.do(t, http.MethodGet, "/checkout/7", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "/movies", body["redirect"])

	_, notices := h.do(t, http.MethodGet, "/notices", nil)
	items := notices["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, checkout.MsgNoPending, items[0].(map[string]any)["message"])
}

func TestCustomerCancelNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.loginCustomer(t)

	status, body := h.do(t, http.MethodPost, "/customer/bookings/55/cancel", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, notify.CancelBooking.Message, body["prompt"].(map[string]any)["message"])
	assert.Zero(t, h.backend.cancelled.Load())

	_, body = h.do(t, http.MethodPost, "/customer/bookings/55/cancel?confirm=no", nil)
	assert.Equal(t, "/customer/bookings/55", body["redirect"])
	assert.Zero(t, h.backend.cancelled.Load())

	_, body = h.do(t, http.MethodPost, "/customer/bookings/55/cancel?confirm=yes", nil)
	assert.Equal(t, "/customer/bookings", body["redirect"])
	assert.Equal(t, int32(1), h.backend.cancelled.Load())
}

func TestAdminDeleteAndStatus(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, http.MethodPost, "/admin/login", map[string]string{"email": "root@example.com", "password": "x"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/admin/dashboard", body["redirect"])

	status, body = h.do(t, http.MethodDelete, "/admin/movies/4", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, notify.DeleteMovie.Message, body["prompt"].(map[string]any)["message"])
	assert.Zero(t, h.backend.deleted.Load())

	status, _ = h.do(t, http.MethodDelete, "/admin/movies/4?confirm=1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int32(1), h.backend.deleted.Load())

	status, body = h.do(t, http.MethodPatch, "/admin/bookings/55/status", map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Booking is already confirmed", body["error"])
}

func TestLogoutEndsSession(t *testing.T) {
	h := newHarness(t)
	h.loginCustomer(t)
	_, body := h.do(t, http.MethodGet, "/auth/me", nil)
	require.NotNil(t, body["user"])

	status, body := h.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/", body["redirect"])

	_, body = h.do(t, http.MethodGet, "/auth/me", nil)
	assert.Nil(t, body["user"])
}

func TestLogoutEndsCheckout(t *testing.T) {
	h := newHarness(t)
	h.loginCustomer(t)
	h.do(t, http.MethodPost, "/showtimes/7/seats/1", nil)
	h.do(t, http.MethodPost, "/showtimes/7/seats/2", nil)
	status, _ := h.do(t, http.MethodPost, "/showtimes/7/checkout", nil)
	require.Equal(t, http.StatusOK, status)
	status, body := h.do(t, http.MethodPost, "/checkout/7/submit", map[string]any{"payment_method": "aba", "terms_accepted": true})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "payment", body["view"])
	require.Equal(t, 1, h.registry.Len())

	status, _ = h.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Zero(t, h.registry.Len())

	// The next customer on this browser starts from nothing.
	h.loginCustomer(t)
	status, body = h.do(t, http.MethodGet, "/checkout/7", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "/movies", body["redirect"])
	assert.Equal(t, int32(1), h.backend.created.Load())
}

func TestRegisterValidatesFields(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, http.MethodPost, "/customer/register", map[string]string{
		"name":                  " ",
		"email":                 "dara.example.com",
		"password":              "short",
		"password_confirmation": "other",
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	fields := body["fields"].(map[string]any)
	assert.Equal(t, "Name is required", fields["name"])
	assert.Equal(t, "A valid email is required", fields["email"])
	assert.Equal(t, "Password must be at least 8 characters", fields["password"])
	assert.Equal(t, "Passwords do not match", fields["password_confirmation"])
}
