package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-web/internal/checkout"
	"github.com/iliyamo/cinema-web/internal/display"
	"github.com/iliyamo/cinema-web/internal/middleware"
	"github.com/iliyamo/cinema-web/internal/model"
	"github.com/iliyamo/cinema-web/internal/notify"
	"github.com/iliyamo/cinema-web/internal/seats"
	"github.com/iliyamo/cinema-web/internal/storage"
)

// CheckoutHandler serves seat selection and the checkout pages. Checkout
// state lives in the registry's flows; the browser polls /state once a
// second to render the countdown.
type CheckoutHandler struct {
	Registry *checkout.Registry
	Picks    seats.Picks
	Pending  storage.PendingBookings
	Outbox   *notify.Outbox
	Loc      *time.Location
	Log      *zap.Logger
}

// checkoutView is a flow snapshot plus display fields.
type checkoutView struct {
	checkout.Snapshot
	StartsAt string `json:"starts_at,omitempty"`
}

func (h *CheckoutHandler) view(snap checkout.Snapshot) checkoutView {
	v := checkoutView{Snapshot: snap}
	if snap.Booking != nil {
		v.StartsAt = display.DateTime(snap.Booking.Showtime.StartTime, h.Loc)
	}
	return v
}

type submitReq struct {
	Method        model.PaymentMethod `json:"payment_method" form:"payment_method"`
	TermsAccepted bool                `json:"terms_accepted" form:"terms_accepted"`
}

// Open handles GET /checkout/:showtime. Reloading the page resumes the live
// flow. Without a matching pending booking the customer is sent back to the
// movies.
func (h *CheckoutHandler) Open(c echo.Context) error {
	id, ok := parseID(c, "showtime")
	if !ok {
		return badID(c, "showtime")
	}
	sid := middleware.SID(c)
	client := middleware.Provider(c).Client()
	f, err := h.Registry.Open(c.Request().Context(), sid, id, owner(c), client, notifierFor(c, h.Outbox))
	switch {
	case errors.Is(err, checkout.ErrNoPendingBooking):
		return c.JSON(http.StatusConflict, echo.Map{"error": checkout.MsgNoPending, "redirect": checkout.LeavePath})
	case errors.Is(err, checkout.ErrBookingMismatch):
		return c.JSON(http.StatusConflict, echo.Map{"error": checkout.MsgMismatch, "redirect": checkout.LeavePath})
	case err != nil:
		h.Log.Error("open checkout", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not open checkout"})
	}
	snap, err := f.Snapshot(c.Request().Context())
	if err != nil {
		return h.flowError(c, err)
	}
	return c.JSON(http.StatusOK, h.view(snap))
}

// owner is the signed-in customer a checkout belongs to.
func owner(c echo.Context) uint64 {
	if u := middleware.Provider(c).CurrentUser(); u != nil {
		return u.ID
	}
	return 0
}

// flow finds the live flow of the request or answers for it.
func (h *CheckoutHandler) flow(c echo.Context) (*checkout.Flow, error) {
	id, ok := parseID(c, "showtime")
	if !ok {
		return nil, badID(c, "showtime")
	}
	f, ok := h.Registry.Get(middleware.SID(c), id, owner(c))
	if !ok {
		return nil, c.JSON(http.StatusGone, echo.Map{"error": "Checkout session ended", "redirect": checkout.LeavePath})
	}
	return f, nil
}

// State handles GET /checkout/:showtime/state.
func (h *CheckoutHandler) State(c echo.Context) error {
	f, resp := h.flow(c)
	if f == nil {
		return resp
	}
	snap, err := f.Snapshot(c.Request().Context())
	if err != nil {
		return h.flowError(c, err)
	}
	return c.JSON(http.StatusOK, h.view(snap))
}

// Submit handles POST /checkout/:showtime/submit.
func (h *CheckoutHandler) Submit(c echo.Context) error {
	f, resp := h.flow(c)
	if f == nil {
		return resp
	}
	var req submitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	snap, err := f.Submit(c.Request().Context(), req.Method, req.TermsAccepted)
	return h.respond(c, snap, err)
}

// Resume handles POST /checkout/:showtime/resume: retries the payment code.
func (h *CheckoutHandler) Resume(c echo.Context) error {
	f, resp := h.flow(c)
	if f == nil {
		return resp
	}
	snap, err := f.ResumePayment(c.Request().Context())
	return h.respond(c, snap, err)
}

// Check handles POST /checkout/:showtime/check ("I've paid, check now").
func (h *CheckoutHandler) Check(c echo.Context) error {
	f, resp := h.flow(c)
	if f == nil {
		return resp
	}
	snap, err := f.CheckNow(c.Request().Context())
	return h.respond(c, snap, err)
}

// Copy handles POST /checkout/:showtime/copy.
func (h *CheckoutHandler) Copy(c echo.Context) error {
	f, resp := h.flow(c)
	if f == nil {
		return resp
	}
	snap, err := f.CopyReference(c.Request().Context())
	return h.respond(c, snap, err)
}

// Abandon handles POST /checkout/:showtime/abandon.
func (h *CheckoutHandler) Abandon(c echo.Context) error {
	f, resp := h.flow(c)
	if f == nil {
		return resp
	}
	snap, err := f.Abandon(c.Request().Context())
	return h.respond(c, snap, err)
}

// Leave handles DELETE /checkout/:showtime: the page was closed. Timers stop;
// the booking, if any, is left to the backend.
func (h *CheckoutHandler) Leave(c echo.Context) error {
	if _, ok := parseID(c, "showtime"); !ok {
		return badID(c, "showtime")
	}
	h.Registry.Close(middleware.SID(c))
	return c.NoContent(http.StatusNoContent)
}

// respond renders the snapshot with a status derived from err.
func (h *CheckoutHandler) respond(c echo.Context, snap checkout.Snapshot, err error) error {
	if err == nil {
		return c.JSON(http.StatusOK, h.view(snap))
	}
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, checkout.ErrNoPaymentMethod), errors.Is(err, checkout.ErrTermsNotAccepted):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, checkout.ErrSubmitInProgress), errors.Is(err, checkout.ErrAlreadySubmitted),
		errors.Is(err, checkout.ErrNothingToResume):
		status = http.StatusConflict
	case errors.Is(err, checkout.ErrNoPendingBooking):
		status = http.StatusConflict
		snap.Redirect = checkout.LeavePath
	case errors.Is(err, checkout.ErrBookingFailed), errors.Is(err, checkout.ErrPaymentSetup):
		status = http.StatusBadGateway
	case errors.Is(err, checkout.ErrClosed):
		return h.flowError(c, err)
	default:
		h.Log.Error("checkout operation", zap.Error(err))
	}
	return c.JSON(status, h.view(snap))
}

func (h *CheckoutHandler) flowError(c echo.Context, err error) error {
	if errors.Is(err, checkout.ErrClosed) {
		return c.JSON(http.StatusGone, echo.Map{"error": "Checkout session ended", "redirect": checkout.LeavePath})
	}
	return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": err.Error()})
}
