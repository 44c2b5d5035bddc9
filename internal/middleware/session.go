package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-web/internal/session"
)

// SessionConfig names the browser session cookie.
type SessionConfig struct {
	Skipper echomw.Skipper
	Cookie  string
	Secure  bool
}

// Session assigns every browser a sid cookie and bootstraps its auth provider
// for the duration of the request. The cookie has no Max-Age, so it ends with
// the browser session.
func Session(cfg SessionConfig, mgr *session.Manager, log *zap.Logger) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = echomw.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}
			sid := ""
			if ck, err := c.Cookie(cfg.Cookie); err == nil {
				if _, perr := uuid.Parse(ck.Value); perr == nil {
					sid = ck.Value
				}
			}
			if sid == "" {
				sid = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     cfg.Cookie,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			p := mgr.For(sid)
			if err := p.Init(c.Request().Context()); err != nil {
				log.Warn("session bootstrap", zap.Error(err))
			}
			defer p.Teardown()

			c.Set(ctxSID, sid)
			c.Set(ctxProvider, p)
			return next(c)
		}
	}
}
