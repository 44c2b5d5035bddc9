package handler

import (
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-web/internal/checkout"
	"github.com/iliyamo/cinema-web/internal/display"
	"github.com/iliyamo/cinema-web/internal/middleware"
	"github.com/iliyamo/cinema-web/internal/model"
	"github.com/iliyamo/cinema-web/internal/notify"
)

// CustomerHandler serves the signed-in customer's dashboard and bookings.
type CustomerHandler struct {
	Outbox *notify.Outbox
	Loc    *time.Location
	Now    func() time.Time
	Log    *zap.Logger
}

// BookingItem is a booking as listed to its customer.
type BookingItem struct {
	ID        uint64              `json:"id"`
	Status    model.BookingStatus `json:"status"`
	Movie     string              `json:"movie"`
	Cinema    string              `json:"cinema,omitempty"`
	StartsAt  string              `json:"starts_at"`
	Seats     []string            `json:"seats"`
	Total     string              `json:"total"`
	Method    string              `json:"payment_method,omitempty"`
	Upcoming  bool                `json:"upcoming"`
	CanCancel bool                `json:"can_cancel"`
}

// cancellable statuses from the customer side; paid needs a refund.
func cancellable(s model.BookingStatus) bool {
	return s == model.BookingPending || s == model.BookingConfirmed
}

func (h *CustomerHandler) item(b model.Booking) BookingItem {
	it := BookingItem{
		ID:        b.ID,
		Status:    b.Status,
		Total:     display.Money(b.TotalPrice),
		Method:    string(b.PaymentMethod),
		Seats:     make([]string, 0, len(b.Seats)),
		CanCancel: cancellable(b.Status),
	}
	for _, s := range b.Seats {
		it.Seats = append(it.Seats, display.SeatLabel(s.Row, s.Number))
	}
	if b.Showtime != nil {
		sum := b.Showtime.Summary()
		it.Movie = sum.MovieTitle
		it.Cinema = sum.CinemaName
		it.StartsAt = display.DateTime(b.Showtime.StartTime, h.Loc)
		if t, ok := display.ParseTime(b.Showtime.StartTime); ok {
			it.Upcoming = t.After(h.Now())
		}
	}
	return it
}

// Dashboard handles GET /customer/dashboard.
func (h *CustomerHandler) Dashboard(c echo.Context) error {
	p := middleware.Provider(c)
	list, err := p.Client().ListBookings(c.Request().Context())
	if err != nil {
		return backendError(c, h.Log, err, "Bookings not found", "Could not load your bookings")
	}

	counts := map[model.BookingStatus]int{}
	upcoming := []BookingItem{}
	for _, b := range list {
		counts[b.Status]++
		if it := h.item(b); it.Upcoming && b.Status != model.BookingCancelled {
			upcoming = append(upcoming, it)
		}
	}
	if len(upcoming) > 3 {
		upcoming = upcoming[:3]
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":      p.CurrentUser(),
		"total":     len(list),
		"by_status": counts,
		"upcoming":  upcoming,
	})
}

// Bookings handles GET /customer/bookings, newest first.
func (h *CustomerHandler) Bookings(c echo.Context) error {
	list, err := middleware.Provider(c).Client().ListBookings(c.Request().Context())
	if err != nil {
		return backendError(c, h.Log, err, "Bookings not found", "Could not load your bookings")
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	items := make([]BookingItem, 0, len(list))
	for _, b := range list {
		items = append(items, h.item(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Booking handles GET /customer/bookings/:id, also the payment success page.
func (h *CustomerHandler) Booking(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "booking")
	}
	b, err := middleware.Provider(c).Client().GetBooking(c.Request().Context(), id)
	if err != nil {
		return backendError(c, h.Log, err, "Booking not found", "Could not load booking")
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": h.item(*b), "showtime": b.Showtime})
}

// Cancel handles POST /customer/bookings/:id/cancel. Without ?confirm= it
// answers with the confirmation prompt and calls nothing.
func (h *CustomerHandler) Cancel(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "booking")
	}
	switch notify.ParseDecision(c.QueryParam("confirm")) {
	case notify.Undecided:
		return c.JSON(http.StatusOK, echo.Map{"prompt": notify.CancelBooking})
	case notify.Declined:
		return c.JSON(http.StatusOK, echo.Map{"redirect": checkout.BookingPath(id)})
	}

	if err := middleware.Provider(c).Client().CancelBooking(c.Request().Context(), id); err != nil {
		return backendError(c, h.Log, err, "Booking not found", "Could not cancel booking")
	}
	notifierFor(c, h.Outbox).Notify(notify.Notice{Level: notify.Success, Message: "Booking cancelled"})
	return c.JSON(http.StatusOK, echo.Map{"redirect": "/customer/bookings"})
}
