package checkout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-web/internal/model"
	"github.com/iliyamo/cinema-web/internal/notify"
	"github.com/iliyamo/cinema-web/internal/queue"
	"github.com/iliyamo/cinema-web/internal/storage"
)

type fakeTicker struct {
	d       time.Duration
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

// fire delivers one tick and reports whether the flow loop received it.
func (t *fakeTicker) fire() bool {
	select {
	case t.ch <- time.Now():
		return true
	case <-time.After(100 * time.Millisecond):
		return false
	}
}

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{d: d, ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

// ticker returns the newest ticker created with period d.
func (c *fakeClock) ticker(d time.Duration) *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.tickers) - 1; i >= 0; i-- {
		if c.tickers[i].d == d {
			return c.tickers[i]
		}
	}
	return nil
}

type fakeBackend struct {
	mu          sync.Mutex
	booking     model.Booking
	createErr   error
	createGate  chan struct{}
	sessionErr  error
	sessionGate chan struct{}
	status      model.BookingStatus
	getErr      error
	getGate     chan struct{}
	expireErr   error

	creates  atomic.Int32
	sessions atomic.Int32
	gets     atomic.Int32
	expires  atomic.Int32
	cancels  atomic.Int32
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		booking: model.Booking{ID: 42, Status: model.BookingPending, TotalPrice: decimal.NewFromInt(25)},
		status:  model.BookingPending,
	}
}

func (b *fakeBackend) set(fn func(b *fakeBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func (b *fakeBackend) CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	b.creates.Add(1)
	b.mu.Lock()
	gate, err, booking := b.createGate, b.createErr, b.booking
	b.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	booking.PaymentMethod = req.PaymentMethod
	return &booking, nil
}

func (b *fakeBackend) CreatePaymentSession(ctx context.Context, id uint64) (*model.PaymentSession, error) {
	b.sessions.Add(1)
	b.mu.Lock()
	gate := b.sessionGate
	b.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sessionErr != nil {
		return nil, b.sessionErr
	}
	return &model.PaymentSession{QRCode: "000201010212", ReferenceNumber: "REF42", Amount: decimal.NewFromInt(25)}, nil
}

func (b *fakeBackend) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	b.gets.Add(1)
	b.mu.Lock()
	gate := b.getGate
	b.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.getErr != nil {
		return nil, b.getErr
	}
	return &model.Booking{ID: id, Status: b.status}, nil
}

func (b *fakeBackend) ExpireBooking(ctx context.Context, id uint64) error {
	b.expires.Add(1)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.expireErr
}

func (b *fakeBackend) CancelBooking(ctx context.Context, id uint64) error {
	b.cancels.Add(1)
	return nil
}

type recorder struct {
	mu       sync.Mutex
	notices  []notify.Notice
	navs     []string
	events   []queue.CheckoutEvent
	eventErr error
}

func (r *recorder) Notify(n notify.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navs = append(r.navs, path)
}

func (r *recorder) Publish(_ context.Context, ev queue.CheckoutEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.eventErr
}

func (r *recorder) navigations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.navs...)
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.notices))
	for _, n := range r.notices {
		out = append(out, n.Message)
	}
	return out
}

func (r *recorder) eventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// countingStore counts deletes that removed something.
type countingStore struct {
	storage.Store
	removed atomic.Int32
}

func (s *countingStore) Delete(ctx context.Context, sid, key string) (bool, error) {
	existed, err := s.Store.Delete(ctx, sid, key)
	if existed {
		s.removed.Add(1)
	}
	return existed, err
}

var errBackendDown = errors.New("connection refused")
