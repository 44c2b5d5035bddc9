package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-web/internal/admin"
	"github.com/iliyamo/cinema-web/internal/api"
	"github.com/iliyamo/cinema-web/internal/display"
	"github.com/iliyamo/cinema-web/internal/middleware"
	"github.com/iliyamo/cinema-web/internal/model"
	"github.com/iliyamo/cinema-web/internal/notify"
)

// AdminHandler serves the admin console. Routes sit behind
// RequireRole(admin).
type AdminHandler struct {
	Outbox *notify.Outbox
	Log    *zap.Logger
}

func (h *AdminHandler) service(c echo.Context) *admin.Service {
	return admin.New(middleware.Provider(c).Client(), h.Log)
}

// adminError maps console errors; backend failures go through backendError.
func (h *AdminHandler) adminError(c echo.Context, err error, notFound, fallback, back string) error {
	var (
		ve *admin.ValidationError
		cr *admin.ConfirmationRequired
	)
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "Please fix the highlighted fields", "fields": ve.Fields})
	case errors.As(err, &cr):
		return c.JSON(http.StatusOK, echo.Map{"prompt": cr.Prompt})
	case errors.Is(err, admin.ErrDeclined):
		return c.JSON(http.StatusOK, echo.Map{"redirect": back})
	}
	return backendError(c, h.Log, err, notFound, fallback)
}

func (h *AdminHandler) notice(c echo.Context, msg string) {
	notifierFor(c, h.Outbox).Notify(notify.Notice{Level: notify.Success, Message: msg})
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	stats, err := h.service(c).Dashboard(c.Request().Context())
	if err != nil {
		return backendError(c, h.Log, err, "Dashboard not found", "Could not load dashboard")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":            middleware.Provider(c).CurrentUser(),
		"stats":           stats,
		"revenue_today":   display.Money(stats.Revenue.Today),
		"revenue_monthly": display.Money(stats.Revenue.Monthly),
	})
}

// ----- movies -----

// Movies handles GET /admin/movies.
func (h *AdminHandler) Movies(c echo.Context) error {
	movies, err := h.service(c).Movies(c.Request().Context())
	if err != nil {
		return backendError(c, h.Log, err, "Movies not found", "Could not load movies")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": movies})
}

// CreateMovie handles POST /admin/movies.
func (h *AdminHandler) CreateMovie(c echo.Context) error {
	var m model.Movie
	if err := c.Bind(&m); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	out, err := h.service(c).CreateMovie(c.Request().Context(), m)
	if err != nil {
		return h.adminError(c, err, "Movie not found", "Could not create movie", "/admin/movies")
	}
	h.notice(c, "Movie created")
	return c.JSON(http.StatusCreated, echo.Map{"movie": out, "redirect": "/admin/movies"})
}

// UpdateMovie handles PUT /admin/movies/:id.
func (h *AdminHandler) UpdateMovie(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "movie")
	}
	var m model.Movie
	if err := c.Bind(&m); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	out, err := h.service(c).UpdateMovie(c.Request().Context(), id, m)
	if err != nil {
		return h.adminError(c, err, "Movie not found", "Could not update movie", "/admin/movies")
	}
	h.notice(c, "Movie updated")
	return c.JSON(http.StatusOK, echo.Map{"movie": out, "redirect": "/admin/movies"})
}

// DeleteMovie handles DELETE /admin/movies/:id?confirm=.
func (h *AdminHandler) DeleteMovie(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "movie")
	}
	err := h.service(c).DeleteMovie(c.Request().Context(), id, notify.ParseDecision(c.QueryParam("confirm")))
	if err != nil {
		return h.adminError(c, err, "Movie not found", "Could not delete movie", "/admin/movies")
	}
	h.notice(c, "Movie deleted")
	return c.JSON(http.StatusOK, echo.Map{"redirect": "/admin/movies"})
}

// ----- showtimes -----

// Showtimes handles GET /admin/showtimes.
func (h *AdminHandler) Showtimes(c echo.Context) error {
	list, err := h.service(c).Showtimes(c.Request().Context())
	if err != nil {
		return backendError(c, h.Log, err, "Showtimes not found", "Could not load showtimes")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// ShowtimeForm handles GET /admin/showtimes/form.
func (h *AdminHandler) ShowtimeForm(c echo.Context) error {
	opts, err := h.service(c).FormOptions(c.Request().Context())
	if err != nil {
		return backendError(c, h.Log, err, "Form options not found", "Could not load form options")
	}
	return c.JSON(http.StatusOK, opts)
}

// CreateShowtime handles POST /admin/showtimes.
func (h *AdminHandler) CreateShowtime(c echo.Context) error {
	var in model.ShowtimeInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	out, err := h.service(c).CreateShowtime(c.Request().Context(), in)
	if err != nil {
		return h.adminError(c, err, "Showtime not found", "Could not create showtime", "/admin/showtimes")
	}
	h.notice(c, "Showtime created")
	return c.JSON(http.StatusCreated, echo.Map{"showtime": out, "redirect": "/admin/showtimes"})
}

// UpdateShowtime handles PUT /admin/showtimes/:id.
func (h *AdminHandler) UpdateShowtime(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "showtime")
	}
	var in model.ShowtimeInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	out, err := h.service(c).UpdateShowtime(c.Request().Context(), id, in)
	if err != nil {
		return h.adminError(c, err, "Showtime not found", "Could not update showtime", "/admin/showtimes")
	}
	h.notice(c, "Showtime updated")
	return c.JSON(http.StatusOK, echo.Map{"showtime": out, "redirect": "/admin/showtimes"})
}

// DeleteShowtime handles DELETE /admin/showtimes/:id?confirm=.
func (h *AdminHandler) DeleteShowtime(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "showtime")
	}
	err := h.service(c).DeleteShowtime(c.Request().Context(), id, notify.ParseDecision(c.QueryParam("confirm")))
	if err != nil {
		return h.adminError(c, err, "Showtime not found", "Could not delete showtime", "/admin/showtimes")
	}
	h.notice(c, "Showtime deleted")
	return c.JSON(http.StatusOK, echo.Map{"redirect": "/admin/showtimes"})
}

// ----- bookings -----

// Bookings handles GET /admin/bookings with the search, status, start_date,
// end_date and payment_method filters.
func (h *AdminHandler) Bookings(c echo.Context) error {
	f := api.BookingFilter{
		Search:        strings.TrimSpace(c.QueryParam("search")),
		Status:        c.QueryParam("status"),
		StartDate:     c.QueryParam("start_date"),
		EndDate:       c.QueryParam("end_date"),
		PaymentMethod: c.QueryParam("payment_method"),
	}
	page, err := h.service(c).Bookings(c.Request().Context(), f)
	if err != nil {
		return backendError(c, h.Log, err, "Bookings not found", "Could not load bookings")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"summary":       page.Summary,
		"total_revenue": display.Money(page.Summary.TotalRevenue),
		"items":         page.Bookings,
	})
}

// Booking handles GET /admin/bookings/:id with the status actions on offer.
func (h *AdminHandler) Booking(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "booking")
	}
	b, err := h.service(c).Booking(c.Request().Context(), id)
	if err != nil {
		return backendError(c, h.Log, err, "Booking not found", "Could not load booking")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking": b,
		"total":   display.Money(b.TotalPrice),
		"actions": admin.AvailableActions(b.Status),
	})
}

type statusReq struct {
	Status model.BookingStatus `json:"status"`
}

// SetBookingStatus handles PATCH /admin/bookings/:id/status.
func (h *AdminHandler) SetBookingStatus(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "booking")
	}
	var req statusReq
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}
	ctx := c.Request().Context()
	svc := h.service(c)
	b, err := svc.Booking(ctx, id)
	if err != nil {
		return backendError(c, h.Log, err, "Booking not found", "Could not load booking")
	}
	if err := svc.SetBookingStatus(ctx, id, b.Status, req.Status); err != nil {
		if errors.Is(err, admin.ErrStatusUnchanged) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "Booking is already " + string(b.Status)})
		}
		return backendError(c, h.Log, err, "Booking not found", "Could not update booking status")
	}
	h.notice(c, "Booking status updated")
	return c.JSON(http.StatusOK, echo.Map{"status": req.Status, "actions": admin.AvailableActions(req.Status)})
}
