package checkout

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-web/internal/display"
	"github.com/iliyamo/cinema-web/internal/model"
)

// Phase of the payment session. Phases only move forward.
type Phase string

const (
	PhaseAwaitingMethod  Phase = "awaiting-method"
	PhaseAwaitingPayment Phase = "awaiting-payment"
	PhaseConfirmed       Phase = "confirmed"
	PhaseExpired         Phase = "expired"
)

// Terminal reports whether no further transition can happen.
func (p Phase) Terminal() bool { return p == PhaseConfirmed || p == PhaseExpired }

// View names the page the phase renders as.
func (p Phase) View() string {
	switch p {
	case PhaseAwaitingPayment:
		return "payment"
	case PhaseConfirmed:
		return "success"
	case PhaseExpired:
		return "expired"
	}
	return "select"
}

// Snapshot is the rendered state of a flow.
type Snapshot struct {
	View                string                `json:"view"`
	Phase               Phase                 `json:"phase"`
	ShowtimeID          uint64                `json:"showtime_id"`
	Booking             *model.PendingBooking `json:"booking,omitempty"`
	BookingID           uint64                `json:"booking_id,omitempty"`
	Method              model.PaymentMethod   `json:"method,omitempty"`
	QR                  *model.PaymentSession `json:"qr,omitempty"`
	Bank                *BankTransfer         `json:"bank,omitempty"`
	Amount              string                `json:"amount"`
	RemainingSeconds    int                   `json:"remaining_seconds"`
	Countdown           string                `json:"countdown"`
	Urgent              bool                  `json:"urgent"`
	Checking            bool                  `json:"checking"`
	Submitting          bool                  `json:"submitting"`
	NeedsPaymentSession bool                  `json:"needs_payment_session"`
	Copied              bool                  `json:"copied"`
	Error               string                `json:"error,omitempty"`
	Redirect            string                `json:"redirect,omitempty"`
}

// Snapshot returns the current state.
func (f *Flow) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := f.do(ctx, func() { snap = f.snapshot() })
	return snap, err
}

func (f *Flow) snapshot() Snapshot {
	secs := int((f.st.remaining + time.Second - 1) / time.Second)
	snap := Snapshot{
		View:                f.st.phase.View(),
		Phase:               f.st.phase,
		ShowtimeID:          f.d.ShowtimeID,
		BookingID:           f.st.bookingID,
		Method:              f.st.method,
		QR:                  f.st.qr,
		Bank:                f.st.bank,
		Amount:              display.Money(f.st.amount),
		RemainingSeconds:    secs,
		Countdown:           display.Countdown(secs),
		Urgent:              f.st.phase == PhaseAwaitingPayment && display.Urgent(secs),
		Checking:            f.st.checking,
		Submitting:          f.st.submitting,
		NeedsPaymentSession: f.st.needsSession,
		Copied:              f.d.Clock.Now().Before(f.st.copiedUntil),
		Error:               f.st.lastError,
		Redirect:            f.st.redirect,
	}
	if f.st.pending != nil {
		pb := *f.st.pending
		snap.Booking = &pb
	}
	return snap
}
