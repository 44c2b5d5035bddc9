// Package admin backs the admin console: movie and showtime management,
// booking review and the dashboard.
package admin

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-web/internal/api"
	"github.com/iliyamo/cinema-web/internal/model"
	"github.com/iliyamo/cinema-web/internal/notify"
)

var ErrStatusUnchanged = errors.New("admin: booking already has that status")

// ErrDeclined is returned when the user answered no to a confirmation prompt.
var ErrDeclined = errors.New("admin: action declined")

// ConfirmationRequired is returned by destructive operations called without
// an answer. The handler shows Prompt and retries with the decision.
type ConfirmationRequired struct {
	Prompt notify.Prompt
}

func (e *ConfirmationRequired) Error() string { return "admin: confirmation required" }

// ValidationError lists form fields the backend would reject anyway.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "admin: invalid " + strings.Join(keys, ", ")
}

// invalid wraps failing fields, or returns nil when there are none.
func invalid(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// Backend is the slice of the API client the console uses.
type Backend interface {
	AdminListMovies(ctx context.Context) ([]model.Movie, error)
	AdminCreateMovie(ctx context.Context, m model.Movie) (*model.Movie, error)
	AdminUpdateMovie(ctx context.Context, id uint64, m model.Movie) (*model.Movie, error)
	AdminDeleteMovie(ctx context.Context, id uint64) error
	AdminListShowtimes(ctx context.Context) ([]model.Showtime, error)
	AdminCreateShowtime(ctx context.Context, in model.ShowtimeInput) (*model.Showtime, error)
	AdminUpdateShowtime(ctx context.Context, id uint64, in model.ShowtimeInput) (*model.Showtime, error)
	AdminDeleteShowtime(ctx context.Context, id uint64) error
	AdminListAuditoriums(ctx context.Context) ([]model.Auditorium, error)
	AdminListBookings(ctx context.Context, f api.BookingFilter) (*api.BookingPage, error)
	AdminGetBooking(ctx context.Context, id uint64) (*model.Booking, error)
	AdminSetBookingStatus(ctx context.Context, id uint64, status model.BookingStatus) error
	AdminDashboardStats(ctx context.Context) (*model.DashboardStats, error)
}

var _ Backend = (*api.Client)(nil)

// Service runs console operations against one admin's backend client.
type Service struct {
	b   Backend
	log *zap.Logger
}

func New(b Backend, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{b: b, log: log.Named("admin")}
}

// confirm gates a destructive action on d.
func confirm(d notify.Decision, p notify.Prompt) error {
	switch d {
	case notify.Confirmed:
		return nil
	case notify.Declined:
		return ErrDeclined
	}
	return &ConfirmationRequired{Prompt: p}
}
