package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-web/internal/handler"
	"github.com/iliyamo/cinema-web/internal/middleware"
	"github.com/iliyamo/cinema-web/internal/model"
)

// RegisterAdmin registers the admin console under /admin. Login lives in
// RegisterAuth; everything here needs the admin role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler) {
	g := e.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	g.GET("/dashboard", a.Dashboard)

	g.GET("/movies", a.Movies)
	g.POST("/movies", a.CreateMovie)
	g.PUT("/movies/:id", a.UpdateMovie)
	g.DELETE("/movies/:id", a.DeleteMovie)

	g.GET("/showtimes", a.Showtimes)
	g.GET("/showtimes/form", a.ShowtimeForm)
	g.POST("/showtimes", a.CreateShowtime)
	g.PUT("/showtimes/:id", a.UpdateShowtime)
	g.DELETE("/showtimes/:id", a.DeleteShowtime)

	g.GET("/bookings", a.Bookings)
	g.GET("/bookings/:id", a.Booking)
	g.PATCH("/bookings/:id/status", a.SetBookingStatus)
}
