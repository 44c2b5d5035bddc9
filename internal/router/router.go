// Package router registers the routes of the presentation server.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-web/internal/handler"
	"github.com/iliyamo/cinema-web/internal/model"
)

// RegisterRoutes registers the health check and the notice outbox.
func RegisterRoutes(e *echo.Echo, n *handler.NoticeHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/notices", n.Drain)
}

// RegisterAuth registers login, logout, registration and the current user.
// limiter guards the credential-taking endpoints.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	e.GET("/auth/me", a.Me)
	e.POST("/auth/logout", a.Logout)

	e.GET("/customer/login", a.LoginPage(model.RoleCustomer))
	e.POST("/customer/login", a.Login(model.RoleCustomer), limiter)
	e.POST("/customer/register", a.Register, limiter)

	e.GET("/admin/login", a.LoginPage(model.RoleAdmin))
	e.POST("/admin/login", a.Login(model.RoleAdmin), limiter)
}

// RegisterPublic registers the browse pages behind the response cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	e.GET("/movies", p.Movies, cache)
	e.GET("/movies/:id", p.Movie, cache)
	e.GET("/showtimes", p.Showtimes, cache)
}
