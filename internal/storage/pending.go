package storage

import (
	"context"
	"errors"

	"github.com/iliyamo/cinema-web/internal/model"
)

// PendingBookings reads and writes the pending booking of a browser session.
type PendingBookings struct {
	Store Store
}

func (p PendingBookings) Save(ctx context.Context, sid string, pb model.PendingBooking) error {
	return SetJSON(ctx, p.Store, sid, model.PendingBookingKey, pb)
}

// Load returns ErrNotFound when nothing is pending. An unreadable entry is
// removed and reported as ErrCorrupt.
func (p PendingBookings) Load(ctx context.Context, sid string) (*model.PendingBooking, error) {
	var pb model.PendingBooking
	err := GetJSON(ctx, p.Store, sid, model.PendingBookingKey, &pb)
	if errors.Is(err, ErrCorrupt) {
		_, _ = p.Store.Delete(ctx, sid, model.PendingBookingKey)
		return nil, ErrCorrupt
	}
	if err != nil {
		return nil, err
	}
	return &pb, nil
}

// Clear removes the pending booking and reports whether one was present.
func (p PendingBookings) Clear(ctx context.Context, sid string) (bool, error) {
	return p.Store.Delete(ctx, sid, model.PendingBookingKey)
}
