package admin

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-web/internal/api"
	"github.com/iliyamo/cinema-web/internal/model"
)

// Statuses an admin can put a booking in. Paid is owned by the payment
// provider.
var settable = []model.BookingStatus{model.BookingPending, model.BookingConfirmed, model.BookingCancelled}

// Bookings lists bookings matching f with the summary block.
func (s *Service) Bookings(ctx context.Context, f api.BookingFilter) (*api.BookingPage, error) {
	page, err := s.b.AdminListBookings(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return page, nil
}

func (s *Service) Booking(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := s.b.AdminGetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking %d: %w", id, err)
	}
	return b, nil
}

// SetBookingStatus moves a booking from current to target. No transition
// rules are enforced beyond refusing a no-op.
func (s *Service) SetBookingStatus(ctx context.Context, id uint64, current, target model.BookingStatus) error {
	if current == target {
		return ErrStatusUnchanged
	}
	if err := s.b.AdminSetBookingStatus(ctx, id, target); err != nil {
		return fmt.Errorf("set booking %d status: %w", id, err)
	}
	s.log.Info("booking status changed",
		zap.Uint64("booking_id", id),
		zap.String("from", string(current)),
		zap.String("to", string(target)))
	return nil
}

// AvailableActions lists the statuses offered as buttons for a booking in
// current.
func AvailableActions(current model.BookingStatus) []model.BookingStatus {
	out := make([]model.BookingStatus, 0, len(settable))
	for _, st := range settable {
		if st != current {
			out = append(out, st)
		}
	}
	return out
}

func (s *Service) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	stats, err := s.b.AdminDashboardStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return stats, nil
}
