package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-web/internal/display"
	"github.com/iliyamo/cinema-web/internal/middleware"
	"github.com/iliyamo/cinema-web/internal/model"
	"github.com/iliyamo/cinema-web/internal/notify"
	"github.com/iliyamo/cinema-web/internal/seats"
)

// seatMapView is the seat selection page.
type seatMapView struct {
	Showtime model.ShowtimeSummary `json:"showtime"`
	StartsAt string                `json:"starts_at"`
	Price    string                `json:"base_price"`
	Rows     []seats.Row           `json:"rows"`
	Selected []string              `json:"selected"`
	Count    int                   `json:"count"`
	Max      int                   `json:"max"`
	Total    string                `json:"total"`
}

// loadSelection fetches the showtime and restores the remembered picks.
func (h *CheckoutHandler) loadSelection(c echo.Context, showtimeID uint64) (*seats.Selection, *model.Showtime, error) {
	ctx := c.Request().Context()
	st, err := middleware.Provider(c).Client().GetShowtime(ctx, showtimeID)
	if err != nil {
		return nil, nil, err
	}
	sel := seats.NewSelection(st)
	ids, err := h.Picks.Load(ctx, middleware.SID(c), showtimeID)
	if err != nil {
		h.Log.Warn("load seat picks", zap.Error(err))
	}
	sel.Restore(ids)
	return sel, st, nil
}

func (h *CheckoutHandler) seatMap(sel *seats.Selection, st *model.Showtime) seatMapView {
	picked := sel.Seats()
	labels := make([]string, 0, len(picked))
	for _, s := range picked {
		labels = append(labels, display.SeatLabel(s.Row, s.Number))
	}
	return seatMapView{
		Showtime: st.Summary(),
		StartsAt: display.DateTime(st.StartTime, h.Loc),
		Price:    display.Money(st.Price),
		Rows:     sel.Rows(),
		Selected: labels,
		Count:    len(picked),
		Max:      seats.MaxSeats,
		Total:    display.Money(sel.Total()),
	}
}

// Seats handles GET /showtimes/:id/seats.
func (h *CheckoutHandler) Seats(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "showtime")
	}
	sel, st, err := h.loadSelection(c, id)
	if err != nil {
		return backendError(c, h.Log, err, "Showtime not found", "Could not load seats")
	}
	return c.JSON(http.StatusOK, h.seatMap(sel, st))
}

// ToggleSeat handles POST /showtimes/:id/seats/:seat.
func (h *CheckoutHandler) ToggleSeat(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "showtime")
	}
	seatID, err := strconv.ParseUint(c.Param("seat"), 10, 64)
	if err != nil {
		return badID(c, "seat")
	}
	ctx := c.Request().Context()
	sel, st, err := h.loadSelection(c, id)
	if err != nil {
		return backendError(c, h.Log, err, "Showtime not found", "Could not load seats")
	}

	if _, err := sel.Toggle(seatID); err != nil {
		status := http.StatusUnprocessableEntity
		switch {
		case errors.Is(err, seats.ErrSelectionLimit):
			notifierFor(c, h.Outbox).Notify(notify.Notice{Level: notify.Warning, Message: seats.Message(err)})
		case errors.Is(err, seats.ErrSeatBooked):
			status = http.StatusConflict
		case errors.Is(err, seats.ErrUnknownSeat):
			status = http.StatusNotFound
		}
		view := h.seatMap(sel, st)
		return c.JSON(status, echo.Map{"error": seats.Message(err), "seats": view})
	}
	if err := h.Picks.Save(ctx, middleware.SID(c), id, sel.IDs()); err != nil {
		h.Log.Error("save seat picks", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not save your selection"})
	}
	return c.JSON(http.StatusOK, h.seatMap(sel, st))
}

// Continue handles POST /showtimes/:id/checkout: the selection becomes the
// pending booking and the customer moves to checkout.
func (h *CheckoutHandler) Continue(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "showtime")
	}
	ctx := c.Request().Context()
	sel, _, err := h.loadSelection(c, id)
	if err != nil {
		return backendError(c, h.Log, err, "Showtime not found", "Could not load seats")
	}
	pb, err := sel.Confirm()
	if err != nil {
		notifierFor(c, h.Outbox).Notify(notify.Notice{Level: notify.Warning, Message: seats.Message(err)})
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": seats.Message(err)})
	}

	sid := middleware.SID(c)
	if err := h.Pending.Save(ctx, sid, pb); err != nil {
		h.Log.Error("save pending booking", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not start checkout"})
	}
	// A checkout page left open earlier must not hold on to the old selection.
	h.Registry.Close(sid)
	if err := h.Picks.Forget(ctx, sid, id); err != nil {
		h.Log.Warn("forget seat picks", zap.Error(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"redirect": checkoutPath(id)})
}

func checkoutPath(showtimeID uint64) string {
	return "/checkout/" + strconv.FormatUint(showtimeID, 10)
}
