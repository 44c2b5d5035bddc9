// Package handler renders the view models of the presentation server. Every
// page answers JSON; navigation decided on the server is carried in a
// "redirect" field and notices are fetched from /notices.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-web/internal/api"
	"github.com/iliyamo/cinema-web/internal/middleware"
	"github.com/iliyamo/cinema-web/internal/notify"
)

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func badID(c echo.Context, what string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + what + " id"})
}

// backendError maps a failed backend call to a response. notFound is the
// message for 404s; other failures show the backend message or fallback.
func backendError(c echo.Context, log *zap.Logger, err error, notFound, fallback string) error {
	switch {
	case errors.Is(err, api.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": notFound})
	case errors.Is(err, api.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Your session has expired. Please log in again."})
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Status < 500 {
		body := echo.Map{"error": api.MessageOr(err, fallback)}
		if len(apiErr.Fields) > 0 {
			body["fields"] = apiErr.Fields
		}
		return c.JSON(apiErr.Status, body)
	}
	log.Error("backend call failed", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusBadGateway, echo.Map{"error": fallback})
}

// notifierFor returns the notice sink of the request's browser session.
func notifierFor(c echo.Context, o *notify.Outbox) notify.Notifier {
	return o.For(middleware.SID(c))
}

// NoticeHandler serves the per-session notice outbox.
type NoticeHandler struct {
	Outbox *notify.Outbox
	Log    *zap.Logger
}

// Drain handles GET /notices: returns and forgets the queued notices.
func (h *NoticeHandler) Drain(c echo.Context) error {
	notices, err := h.Outbox.Drain(c.Request().Context(), middleware.SID(c))
	if err != nil {
		h.Log.Warn("drain notices", zap.Error(err))
		return c.JSON(http.StatusOK, echo.Map{"items": []notify.Notice{}})
	}
	if notices == nil {
		notices = []notify.Notice{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": notices})
}
