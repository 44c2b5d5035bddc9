package checkout

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-web/internal/notify"
	"github.com/iliyamo/cinema-web/internal/storage"
)

// Registry holds at most one live flow per browser session.
type Registry struct {
	mu       sync.Mutex
	flows    map[string]*Flow
	settings Settings
	clock    Clock
	pending  storage.PendingBookings
	events   EventSink
	log      *zap.Logger
}

// RegistryConfig is shared by every flow the registry opens.
type RegistryConfig struct {
	Settings Settings
	Clock    Clock // defaults to SystemClock
	Pending  storage.PendingBookings
	Events   EventSink // optional
	Log      *zap.Logger
}

func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Registry{
		flows:    map[string]*Flow{},
		settings: cfg.Settings,
		clock:    cfg.Clock,
		pending:  cfg.Pending,
		events:   cfg.Events,
		log:      cfg.Log,
	}
}

// Open returns the live flow of sid for showtimeID, reusing it across page
// reloads by the same customer. A flow for another showtime or customer, or
// one that already finished, is closed and a new one opened from the stored
// pending booking.
func (r *Registry) Open(ctx context.Context, sid string, showtimeID, userID uint64, backend Backend, n notify.Notifier) (*Flow, error) {
	r.mu.Lock()
	old, ok := r.flows[sid]
	if ok && old.serves(showtimeID, userID) {
		r.mu.Unlock()
		return old, nil
	}
	if ok {
		delete(r.flows, sid)
	}
	r.mu.Unlock()
	if ok {
		old.Close()
	}

	f, err := Open(ctx, Deps{
		SID:        sid,
		ShowtimeID: showtimeID,
		UserID:     userID,
		Backend:    backend,
		Pending:    r.pending,
		Notifier:   n,
		Events:     r.events,
		Clock:      r.clock,
		Settings:   r.settings,
		Log:        r.log,
	})
	if err != nil {
		return nil, err
	}

	// Another request of the same browser may have opened a flow meanwhile.
	r.mu.Lock()
	cur, raced := r.flows[sid]
	if raced && cur.serves(showtimeID, userID) {
		r.mu.Unlock()
		f.Close()
		return cur, nil
	}
	r.flows[sid] = f
	r.mu.Unlock()
	if raced {
		cur.Close()
	}
	return f, nil
}

// serves reports whether f can be handed to userID checking out showtimeID.
func (f *Flow) serves(showtimeID, userID uint64) bool {
	return f.ShowtimeID() == showtimeID && f.UserID() == userID && !f.Terminal()
}

// Get returns the flow of sid when it checks out showtimeID for userID.
func (r *Registry) Get(sid string, showtimeID, userID uint64) (*Flow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flows[sid]
	if !ok || f.ShowtimeID() != showtimeID || f.UserID() != userID {
		return nil, false
	}
	return f, true
}

// Close closes the flow of sid, if any.
func (r *Registry) Close(sid string) {
	r.mu.Lock()
	f, ok := r.flows[sid]
	delete(r.flows, sid)
	r.mu.Unlock()
	if ok {
		f.Close()
	}
}

// Sweep closes flows idle for longer than idle that are not counting down a
// payment; those expire on their own. It returns the number closed.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.clock.Now().Add(-idle)
	var stale []*Flow

	r.mu.Lock()
	for sid, f := range r.flows {
		if !f.LastActive().Before(cutoff) || f.AwaitingPayment() {
			continue
		}
		stale = append(stale, f)
		delete(r.flows, sid)
	}
	r.mu.Unlock()

	for _, f := range stale {
		f.Close()
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, idle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(idle); n > 0 {
				r.log.Debug("swept checkout flows", zap.Int("closed", n))
			}
		}
	}
}

// CloseAll closes every flow; used at shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	flows := r.flows
	r.flows = map[string]*Flow{}
	r.mu.Unlock()
	for _, f := range flows {
		f.Close()
	}
}

// Len is the number of live flows.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}
