package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-web/internal/model"
)

// RequireRole gates a route group on the signed-in user's role. Anonymous
// visitors get a 401 with the login page to go to (the interrupted path is
// remembered for after login); users of another role get a 403 pointing
// home.
func RequireRole(role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := Provider(c)
			if p == nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
			}
			redirect, ok := p.Authorize(c.Request().Context(), role, c.Request().URL.RequestURI())
			if ok {
				return next(c)
			}
			status := http.StatusForbidden
			if p.CurrentUser() == nil {
				status = http.StatusUnauthorized
			}
			return c.JSON(status, echo.Map{"error": http.StatusText(status), "redirect": redirect})
		}
	}
}
