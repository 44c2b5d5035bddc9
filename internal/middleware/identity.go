package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-web/internal/session"
)

// Context keys set by Session.
const (
	ctxProvider = "session"
	ctxSID      = "sid"
)

// Provider returns the auth provider of the request. Handlers run behind
// Session, so a missing provider is a wiring bug.
func Provider(c echo.Context) *session.Provider {
	p, _ := c.Get(ctxProvider).(*session.Provider)
	return p
}

// SID returns the browser session id of the request or "".
func SID(c echo.Context) string {
	s, _ := c.Get(ctxSID).(string)
	return s
}

// clientID identifies the caller for rate limiting: the signed-in user when
// there is one, else the browser session.
func clientID(c echo.Context) string {
	if p := Provider(c); p != nil {
		if u := p.CurrentUser(); u != nil {
			return "user:" + strconv.FormatUint(u.ID, 10)
		}
	}
	if sid := SID(c); sid != "" {
		return "sid:" + sid
	}
	return "anon"
}
