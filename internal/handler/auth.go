package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-web/internal/checkout"
	"github.com/iliyamo/cinema-web/internal/middleware"
	"github.com/iliyamo/cinema-web/internal/model"
	"github.com/iliyamo/cinema-web/internal/notify"
	"github.com/iliyamo/cinema-web/internal/session"
	"github.com/iliyamo/cinema-web/internal/validate"
)

// AuthHandler serves login, logout, registration and the current user. A
// change of user ends the browser's checkout, if any.
type AuthHandler struct {
	Registry *checkout.Registry
	Outbox   *notify.Outbox
	Log      *zap.Logger
}

func (h *AuthHandler) endCheckout(c echo.Context) {
	if h.Registry != nil {
		h.Registry.Close(middleware.SID(c))
	}
}

type loginReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type registerReq struct {
	Name                 string `json:"name" form:"name" validate:"required,max=255"`
	Email                string `json:"email" form:"email" validate:"required,email"`
	Password             string `json:"password" form:"password" validate:"min=8"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation" validate:"eqfield=Password"`
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c echo.Context) error {
	p := middleware.Provider(c)
	return c.JSON(http.StatusOK, echo.Map{"user": p.CurrentUser(), "loading": p.Loading()})
}

// LoginPage handles GET /customer/login and /admin/login. A ?redirect= is
// remembered for after login; a user already signed in with role is sent on.
func (h *AuthHandler) LoginPage(role model.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := middleware.Provider(c)
		if u := p.CurrentUser(); u != nil && u.Role == role {
			return c.JSON(http.StatusOK, echo.Map{"role": role, "redirect": session.LandingPath(role)})
		}
		if next := c.QueryParam("redirect"); next != "" && role == model.RoleCustomer {
			if err := p.StashRedirect(c.Request().Context(), next); err != nil {
				h.Log.Warn("stash redirect", zap.Error(err))
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"role": role})
	}
}

// Login handles POST /customer/login and /admin/login.
func (h *AuthHandler) Login(role model.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		landing, err := middleware.Provider(c).Login(c.Request().Context(), req.Email, req.Password, role)
		if err != nil {
			var le *session.LoginError
			if errors.As(err, &le) {
				status := http.StatusUnauthorized
				if errors.Is(err, session.ErrMissingCredentials) {
					status = http.StatusUnprocessableEntity
				}
				return c.JSON(status, echo.Map{"error": le.Message})
			}
			h.Log.Error("login", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Login failed"})
		}
		h.endCheckout(c)
		return c.JSON(http.StatusOK, echo.Map{
			"user":     middleware.Provider(c).CurrentUser(),
			"redirect": landing,
		})
	}
}

// Logout handles POST /auth/logout. The local session ends even when the
// backend call fails.
func (h *AuthHandler) Logout(c echo.Context) error {
	p := middleware.Provider(c)
	next := "/"
	if u := p.CurrentUser(); u != nil && u.Role == model.RoleAdmin {
		next = session.LoginPath(model.RoleAdmin, "")
	}
	h.endCheckout(c)
	if err := p.Logout(c.Request().Context()); err != nil {
		h.Log.Info("logout", zap.Error(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"redirect": next})
}

// Register handles POST /customer/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if fields := validate.Fields(req); fields != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "Please fix the highlighted fields", "fields": fields})
	}

	reg := model.Registration{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	}
	if err := middleware.Provider(c).Register(c.Request().Context(), reg); err != nil {
		var le *session.LoginError
		if errors.As(err, &le) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": le.Message})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "Registration failed"})
	}
	notifierFor(c, h.Outbox).Notify(notify.Notice{Level: notify.Success, Message: "Account created. Please log in."})
	return c.JSON(http.StatusCreated, echo.Map{"redirect": session.LoginPath(model.RoleCustomer, "")})
}
