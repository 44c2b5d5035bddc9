package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-web/internal/handler"
	"github.com/iliyamo/cinema-web/internal/middleware"
	"github.com/iliyamo/cinema-web/internal/model"
)

// RegisterCustomer registers the customer-only pages: seat selection,
// checkout and the customer's bookings. Anonymous visitors are sent to the
// customer login with the page remembered.
func RegisterCustomer(e *echo.Echo, co *handler.CheckoutHandler, cu *handler.CustomerHandler, limiter echo.MiddlewareFunc) {
	auth := middleware.RequireRole(model.RoleCustomer)

	seats := e.Group("/showtimes/:id", auth)
	seats.GET("/seats", co.Seats)
	seats.POST("/seats/:seat", co.ToggleSeat)
	seats.POST("/checkout", co.Continue)

	ck := e.Group("/checkout/:showtime", auth)
	ck.GET("", co.Open)
	ck.GET("/state", co.State)
	ck.POST("/submit", co.Submit, limiter)
	ck.POST("/resume", co.Resume, limiter)
	ck.POST("/check", co.Check)
	ck.POST("/copy", co.Copy)
	ck.POST("/abandon", co.Abandon)
	ck.DELETE("", co.Leave)

	g := e.Group("/customer", auth)
	g.GET("/dashboard", cu.Dashboard)
	g.GET("/bookings", cu.Bookings)
	g.GET("/bookings/:id", cu.Booking)
	g.POST("/bookings/:id/cancel", cu.Cancel)
}
