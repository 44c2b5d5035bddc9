// Package checkout runs the checkout and payment confirmation flow of one
// browser session: booking creation, the payment countdown, payment status
// polling and expiry.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/iliyamo/cinema-web/internal/api"
	"github.com/iliyamo/cinema-web/internal/display"
	"github.com/iliyamo/cinema-web/internal/metrics"
	"github.com/iliyamo/cinema-web/internal/model"
	"github.com/iliyamo/cinema-web/internal/notify"
	"github.com/iliyamo/cinema-web/internal/queue"
	"github.com/iliyamo/cinema-web/internal/storage"
)

// LeavePath is where the customer is sent when checkout cannot continue.
const LeavePath = "/movies"

// BookingPath is the confirmation page of a paid booking.
func BookingPath(id uint64) string { return fmt.Sprintf("/customer/bookings/%d", id) }

// Backend is the part of the API client the flow calls.
type Backend interface {
	CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error)
	CreatePaymentSession(ctx context.Context, bookingID uint64) (*model.PaymentSession, error)
	GetBooking(ctx context.Context, id uint64) (*model.Booking, error)
	ExpireBooking(ctx context.Context, id uint64) error
	CancelBooking(ctx context.Context, id uint64) error
}

// Navigator is told about every navigation the flow decides on.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// EventSink receives terminal checkout events.
type EventSink interface {
	Publish(ctx context.Context, ev queue.CheckoutEvent) error
}

// Settings are the timings and payment instructions shared by all flows.
type Settings struct {
	Countdown     time.Duration
	Tick          time.Duration
	PollInterval  time.Duration
	CopyIndicator time.Duration
	CallTimeout   time.Duration // backend calls that outlive the request; 10s when zero
	ABAName       string
	ABANumber     string
}

// Deps wires one flow.
type Deps struct {
	SID        string
	ShowtimeID uint64
	UserID     uint64 // signed-in customer the backend client acts for
	Backend    Backend
	Pending    storage.PendingBookings
	Notifier   notify.Notifier
	Navigator  Navigator // optional
	Events     EventSink // optional
	Clock      Clock
	Settings   Settings
	Log        *zap.Logger
}

// BankTransfer are the instructions shown for the aba method.
type BankTransfer struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	Reference     string `json:"reference"`
}

// state is owned by the loop goroutine.
type state struct {
	phase        Phase
	pending      *model.PendingBooking
	consumed     bool
	submitting   bool
	needsSession bool
	bookingID    uint64
	method       model.PaymentMethod
	qr           *model.PaymentSession
	bank         *BankTransfer
	amount       decimal.Decimal
	remaining    time.Duration
	checking     bool
	pollFailures int
	copiedUntil  time.Time
	lastError    string
	redirect     string
}

// Flow is the checkout of one browser session. All state changes run on a
// single loop goroutine: operations, timer ticks and network results are
// serialized through it. Network calls run outside the loop and post their
// results back.
type Flow struct {
	d      Deps
	log    *zap.Logger
	sched  *Scheduler
	polls  *semaphore.Weighted
	ops    chan func()
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	terminal   atomic.Bool
	paying     atomic.Bool
	lastActive atomic.Int64

	st state
}

// Open starts a flow for the pending booking stored for d.SID. A missing
// pending booking yields ErrNoPendingBooking; one for another showtime, or
// one that cannot be read, is discarded and yields ErrBookingMismatch. In
// both cases the customer has been notified and belongs on LeavePath.
func Open(ctx context.Context, d Deps) (*Flow, error) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.Notifier == nil {
		d.Notifier = notify.NotifierFunc(func(notify.Notice) {})
	}

	pb, err := d.Pending.Load(ctx, d.SID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		d.Notifier.Notify(notify.Notice{Level: notify.Error, Message: MsgNoPending})
		return nil, ErrNoPendingBooking
	case errors.Is(err, storage.ErrCorrupt):
		d.Notifier.Notify(notify.Notice{Level: notify.Error, Message: MsgMismatch})
		return nil, ErrBookingMismatch
	case err != nil:
		return nil, fmt.Errorf("load pending booking: %w", err)
	}
	if pb.ShowtimeID != d.ShowtimeID {
		if _, err := d.Pending.Clear(ctx, d.SID); err != nil {
			d.Log.Warn("clear mismatched pending booking", zap.Error(err))
		}
		d.Notifier.Notify(notify.Notice{Level: notify.Error, Message: MsgMismatch})
		return nil, ErrBookingMismatch
	}

	fctx, cancel := context.WithCancel(context.Background())
	f := &Flow{
		d:      d,
		log:    d.Log.Named("checkout").With(zap.Uint64("showtime_id", d.ShowtimeID)),
		sched:  NewScheduler(d.Clock, d.Settings.Tick, d.Settings.PollInterval),
		polls:  semaphore.NewWeighted(1),
		ops:    make(chan func()),
		done:   make(chan struct{}),
		ctx:    fctx,
		cancel: cancel,
		st: state{
			phase:     PhaseAwaitingMethod,
			pending:   pb,
			amount:    pb.TotalPrice,
			remaining: d.Settings.Countdown,
		},
	}
	f.touch()
	metrics.FlowOpened()
	go f.loop()
	return f, nil
}

func (f *Flow) loop() {
	defer f.sched.Stop()
	for {
		select {
		case <-f.done:
			return
		case op := <-f.ops:
			op()
		case <-f.sched.Ticks():
			f.onTick()
		case <-f.sched.Polls():
			f.startPoll(nil)
		}
	}
}

// do runs fn on the loop and waits for it.
func (f *Flow) do(ctx context.Context, fn func()) error {
	select {
	case <-f.done:
		return ErrClosed
	default:
	}
	ran := make(chan struct{})
	select {
	case f.ops <- func() { fn(); close(ran) }:
	case <-f.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-ran
	f.touch()
	return nil
}

// post queues fn on the loop without waiting. It reports false when the flow
// is closed; the result is then dropped.
func (f *Flow) post(fn func()) bool {
	select {
	case f.ops <- fn:
		return true
	case <-f.done:
		return false
	}
}

func (f *Flow) touch() { f.lastActive.Store(f.d.Clock.Now().UnixNano()) }

// ShowtimeID is the showtime this flow checks out.
func (f *Flow) ShowtimeID() uint64 { return f.d.ShowtimeID }

// UserID is the customer the flow was opened for.
func (f *Flow) UserID() uint64 { return f.d.UserID }

// Done is closed once the flow is closed.
func (f *Flow) Done() <-chan struct{} { return f.done }

// Terminal reports whether the flow reached confirmed or expired.
func (f *Flow) Terminal() bool { return f.terminal.Load() }

// AwaitingPayment reports whether the payment countdown is running.
func (f *Flow) AwaitingPayment() bool { return f.paying.Load() }

// LastActive is the time of the last operation on the flow.
func (f *Flow) LastActive() time.Time { return time.Unix(0, f.lastActive.Load()) }

// Close disarms both timers and stops the loop. Results that arrive later are
// dropped. Close is idempotent.
func (f *Flow) Close() {
	f.once.Do(func() {
		stopped := make(chan struct{})
		f.ops <- func() { f.sched.Stop(); close(stopped) }
		<-stopped
		close(f.done)
		f.cancel()
		metrics.FlowClosed()
	})
}

// Submit creates the booking for the pending selection. Guards run in order
// (method, terms, pending booking, submit in flight) and never reach the
// network. On success the pending booking is cleared and the flow enters the
// payment step, or success directly when the booking is already paid.
func (f *Flow) Submit(ctx context.Context, method model.PaymentMethod, termsAccepted bool) (Snapshot, error) {
	var (
		req      model.CreateBookingRequest
		guardErr error
	)
	err := f.do(ctx, func() {
		switch {
		case !method.Valid():
			guardErr = ErrNoPaymentMethod
			f.reject(MsgNoPaymentMethod)
		case !termsAccepted:
			guardErr = ErrTermsNotAccepted
			f.reject(MsgTerms)
		case f.st.pending == nil:
			guardErr = ErrNoPendingBooking
			f.reject(MsgNoPending)
		case f.st.submitting:
			guardErr = ErrSubmitInProgress
		case f.st.consumed || f.st.bookingID != 0:
			guardErr = ErrAlreadySubmitted
		default:
			f.st.submitting = true
			f.st.method = method
			f.st.lastError = ""
			req = model.CreateBookingRequest{
				ShowtimeID:    f.st.pending.ShowtimeID,
				SeatIDs:       f.st.pending.SeatIDs,
				TotalPrice:    f.st.pending.TotalPrice,
				PaymentMethod: method,
			}
		}
	})
	if err != nil {
		return Snapshot{}, err
	}
	if guardErr != nil {
		metrics.Submission(string(method), "rejected")
		snap, _ := f.Snapshot(ctx)
		return snap, guardErr
	}

	// Not retryable: the call finishes even when the request goes away.
	cctx, cancel := f.callCtx(ctx)
	booking, createErr := f.d.Backend.CreateBooking(cctx, req)
	cancel()
	if createErr == nil && (booking == nil || booking.ID == 0) {
		createErr = errNoBookingID
	}
	if createErr == nil {
		// The booking exists server side; the pending selection is spent
		// whatever happens to this flow next.
		if existed, err := f.d.Pending.Clear(context.WithoutCancel(ctx), f.d.SID); err != nil {
			f.log.Warn("clear pending booking", zap.Error(err))
		} else if !existed {
			f.log.Warn("pending booking already cleared")
		}
	}

	var needSession bool
	var applyErr error
	err = f.do(context.Background(), func() {
		f.st.submitting = false
		if createErr != nil {
			msg := api.MessageOr(createErr, MsgBookingFailed)
			f.st.lastError = msg
			f.d.Notifier.Notify(notify.Notice{Level: notify.Error, Message: msg})
			applyErr = fmt.Errorf("%w: %w", ErrBookingFailed, createErr)
			return
		}
		f.st.consumed = true
		f.st.bookingID = booking.ID
		if booking.TotalPrice.IsPositive() {
			f.st.amount = booking.TotalPrice
		}

		switch {
		case booking.Status == model.BookingPaid || booking.Status == model.BookingConfirmed:
			f.confirm()
		case method == model.PaymentKHQR:
			f.st.needsSession = true
			needSession = true
		default:
			f.st.bank = &BankTransfer{
				AccountName:   f.d.Settings.ABAName,
				AccountNumber: f.d.Settings.ABANumber,
				Reference:     strconv.FormatUint(booking.ID, 10),
			}
			f.enterPayment()
		}
	})
	if err != nil {
		return Snapshot{}, err
	}
	if applyErr != nil {
		metrics.Submission(string(method), "error")
		f.log.Info("booking creation failed", zap.Error(createErr))
		snap, _ := f.Snapshot(context.Background())
		return snap, applyErr
	}
	metrics.Submission(string(method), "ok")

	if needSession {
		return f.generateSession(context.WithoutCancel(ctx))
	}
	return f.Snapshot(context.Background())
}

// ResumePayment retries payment session generation for a booking created by
// an earlier Submit whose session request failed.
func (f *Flow) ResumePayment(ctx context.Context) (Snapshot, error) {
	var guardErr error
	err := f.do(ctx, func() {
		switch {
		case f.st.submitting:
			guardErr = ErrSubmitInProgress
		case f.st.phase != PhaseAwaitingMethod || !f.st.needsSession:
			guardErr = ErrNothingToResume
		default:
			f.st.submitting = true
		}
	})
	if err != nil {
		return Snapshot{}, err
	}
	if guardErr != nil {
		snap, _ := f.Snapshot(ctx)
		return snap, guardErr
	}
	return f.generateSession(context.WithoutCancel(ctx))
}

// generateSession runs with submitting set, which only it clears, so ctx
// must not be cancelled by the caller.
func (f *Flow) generateSession(ctx context.Context) (Snapshot, error) {
	var id uint64
	if err := f.do(ctx, func() { id = f.st.bookingID }); err != nil {
		return Snapshot{}, err
	}
	cctx, cancel := f.callCtx(ctx)
	session, sessErr := f.d.Backend.CreatePaymentSession(cctx, id)
	cancel()

	var applyErr error
	err := f.do(context.Background(), func() {
		f.st.submitting = false
		if f.st.phase != PhaseAwaitingMethod {
			return
		}
		if sessErr != nil {
			msg := api.MessageOr(sessErr, MsgPaymentSetup)
			f.st.lastError = msg
			f.d.Notifier.Notify(notify.Notice{Level: notify.Error, Message: msg})
			applyErr = fmt.Errorf("%w: %w", ErrPaymentSetup, sessErr)
			return
		}
		f.st.needsSession = false
		f.st.lastError = ""
		f.st.qr = session
		f.enterPayment()
	})
	if err != nil {
		return Snapshot{}, err
	}
	if applyErr != nil {
		f.log.Warn("payment session failed", zap.Uint64("booking_id", id), zap.Error(sessErr))
	}
	snap, _ := f.Snapshot(context.Background())
	return snap, applyErr
}

// CheckNow polls the payment status immediately, subject to the same
// single-flight guard as the timer, and waits for the result.
func (f *Flow) CheckNow(ctx context.Context) (Snapshot, error) {
	var polled chan struct{}
	err := f.do(ctx, func() {
		if f.st.phase == PhaseAwaitingPayment {
			polled = make(chan struct{})
			f.startPoll(polled)
		}
	})
	if err != nil {
		return Snapshot{}, err
	}
	if polled != nil {
		select {
		case <-polled:
		case <-f.done:
			return Snapshot{}, ErrClosed
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		}
	}
	return f.Snapshot(ctx)
}

// CopyReference marks the payment reference as copied for a short while.
func (f *Flow) CopyReference(ctx context.Context) (Snapshot, error) {
	err := f.do(ctx, func() {
		if f.st.bookingID != 0 {
			f.st.copiedUntil = f.d.Clock.Now().Add(f.d.Settings.CopyIndicator)
		}
	})
	if err != nil {
		return Snapshot{}, err
	}
	return f.Snapshot(ctx)
}

// Abandon cancels a booking that was created but not paid, for instance
// after payment session generation kept failing.
func (f *Flow) Abandon(ctx context.Context) (Snapshot, error) {
	err := f.do(ctx, func() {
		if f.st.bookingID == 0 || f.st.phase.Terminal() || f.st.submitting {
			return
		}
		f.finish(PhaseExpired, queue.OutcomeCancelled, LeavePath, notify.Notice{Level: notify.Info, Message: MsgCancelled})
		f.cancelBooking(f.st.bookingID, f.d.Backend.CancelBooking)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return f.Snapshot(ctx)
}

// reject records a guard violation.
func (f *Flow) reject(msg string) {
	f.st.lastError = msg
	f.d.Notifier.Notify(notify.Notice{Level: notify.Warning, Message: msg})
}

func (f *Flow) enterPayment() {
	f.st.phase = PhaseAwaitingPayment
	f.paying.Store(true)
	f.st.remaining = f.d.Settings.Countdown
	f.sched.Start()
	f.log.Info("awaiting payment", zap.Uint64("booking_id", f.st.bookingID), zap.String("method", string(f.st.method)))
}

func (f *Flow) onTick() {
	if f.st.phase != PhaseAwaitingPayment {
		return
	}
	f.st.remaining -= f.d.Settings.Tick
	if f.st.remaining > 0 {
		return
	}
	f.st.remaining = 0
	f.expire()
}

// expire runs once, when the countdown reaches zero. The customer is told and
// sent away whether or not the cancel call succeeds.
func (f *Flow) expire() {
	id := f.st.bookingID
	f.finish(PhaseExpired, queue.OutcomeExpired, LeavePath, notify.Notice{Level: notify.Warning, Message: MsgTimeout})
	f.cancelBooking(id, f.d.Backend.ExpireBooking)
}

func (f *Flow) cancelBooking(id uint64, call func(context.Context, uint64) error) {
	go func() {
		ctx, cancel := f.callCtx(context.Background())
		defer cancel()
		if err := call(ctx, id); err != nil {
			f.log.Warn("cancel booking failed", zap.Uint64("booking_id", id), zap.Error(err))
		}
	}()
}

// startPoll issues one status request unless one is in flight. polled, when
// non-nil, is closed once the result has been applied or the poll skipped.
func (f *Flow) startPoll(polled chan struct{}) {
	if f.st.phase != PhaseAwaitingPayment || !f.polls.TryAcquire(1) {
		if polled != nil {
			close(polled)
		}
		return
	}
	f.st.checking = true
	id := f.st.bookingID
	go func() {
		defer f.polls.Release(1)
		b, err := f.d.Backend.GetBooking(f.ctx, id)
		f.post(func() {
			f.onPollResult(id, b, err)
			if polled != nil {
				close(polled)
			}
		})
	}()
}

func (f *Flow) onPollResult(id uint64, b *model.Booking, err error) {
	if f.st.phase != PhaseAwaitingPayment || id != f.st.bookingID {
		return
	}
	f.st.checking = false
	if err != nil {
		metrics.Poll("error")
		f.st.pollFailures++
		f.st.lastError = MsgPollFailed
		if f.st.pollFailures == 1 {
			f.d.Notifier.Notify(notify.Notice{Level: notify.Info, Message: MsgPollFailed})
		}
		f.log.Warn("payment status check failed", zap.Uint64("booking_id", id), zap.Int("failures", f.st.pollFailures), zap.Error(err))
		return
	}
	f.st.pollFailures = 0
	f.st.lastError = ""
	switch b.Status {
	case model.BookingPaid, model.BookingConfirmed:
		metrics.Poll("paid")
		f.confirm()
	case model.BookingCancelled:
		metrics.Poll("cancelled")
		f.finish(PhaseExpired, queue.OutcomeCancelled, LeavePath, notify.Notice{Level: notify.Warning, Message: MsgCancelled})
	default:
		metrics.Poll("pending")
	}
}

func (f *Flow) confirm() {
	f.finish(PhaseConfirmed, queue.OutcomeConfirmed, BookingPath(f.st.bookingID), notify.Notice{Level: notify.Success, Message: MsgConfirmed})
}

// finish moves to a terminal phase: timers off, customer told and redirected,
// event published.
func (f *Flow) finish(phase Phase, outcome, path string, n notify.Notice) {
	f.sched.Stop()
	f.st.phase = phase
	f.paying.Store(false)
	f.st.checking = false
	f.st.redirect = path
	f.terminal.Store(true)
	f.d.Notifier.Notify(n)
	if f.d.Navigator != nil {
		f.d.Navigator.Navigate(path)
	}
	metrics.Outcome(outcome)
	f.log.Info("checkout finished", zap.Uint64("booking_id", f.st.bookingID), zap.String("outcome", outcome))
	f.publish(outcome)
}

func (f *Flow) publish(outcome string) {
	if f.d.Events == nil {
		return
	}
	ev := queue.CheckoutEvent{
		Outcome:       outcome,
		BookingID:     f.st.bookingID,
		ShowtimeID:    f.d.ShowtimeID,
		Session:       fingerprint(f.d.SID),
		PaymentMethod: string(f.st.method),
		Amount:        display.Money(f.st.amount),
		OccurredAt:    f.d.Clock.Now().UTC().Format(time.RFC3339),
	}
	if pb := f.st.pending; pb != nil {
		ev.MovieTitle = pb.Showtime.MovieTitle
		ev.CinemaName = pb.Showtime.CinemaName
		ev.StartsAt = pb.Showtime.StartTime
		ev.SeatLabels = pb.Seats
	}
	sink := f.d.Events
	go func() {
		ctx, cancel := f.callCtx(context.Background())
		defer cancel()
		if err := sink.Publish(ctx, ev); err != nil {
			f.log.Debug("checkout event not published", zap.Uint64("booking_id", ev.BookingID), zap.Error(err))
		}
	}()
}

// callCtx bounds a backend call by CallTimeout, detached from ctx's
// cancellation.
func (f *Flow) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	d := f.d.Settings.CallTimeout
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(context.WithoutCancel(ctx), d)
}

func fingerprint(sid string) string {
	if len(sid) > 8 {
		return sid[:8]
	}
	return sid
}
