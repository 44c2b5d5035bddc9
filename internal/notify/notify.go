// Package notify replaces blocking browser dialogs: notices are queued per
// browser session and delivered with the next rendered view, confirmations
// are explicit prompt/decision pairs.
package notify

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-web/internal/storage"
)

type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

// Notice is a message shown to the user once.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier accepts notices for one browser session.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

const outboxKey = "notices"

// maxQueued bounds the outbox of a session nobody reads.
const maxQueued = 20

// Outbox stores pending notices in session-scoped storage.
type Outbox struct {
	mu    sync.Mutex
	store storage.Store
	log   *zap.Logger
}

func NewOutbox(store storage.Store, log *zap.Logger) *Outbox {
	return &Outbox{store: store, log: log.Named("notify")}
}

// Push appends n to the outbox of sid.
func (o *Outbox) Push(ctx context.Context, sid string, n Notice) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var queued []Notice
	err := storage.GetJSON(ctx, o.store, sid, outboxKey, &queued)
	if err != nil && !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, storage.ErrCorrupt) {
		return err
	}
	queued = append(queued, n)
	if len(queued) > maxQueued {
		queued = queued[len(queued)-maxQueued:]
	}
	return storage.SetJSON(ctx, o.store, sid, outboxKey, queued)
}

// Drain returns and clears the queued notices of sid.
func (o *Outbox) Drain(ctx context.Context, sid string) ([]Notice, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var queued []Notice
	err := storage.GetJSON(ctx, o.store, sid, outboxKey, &queued)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if _, delErr := o.store.Delete(ctx, sid, outboxKey); delErr != nil {
		return nil, delErr
	}
	if errors.Is(err, storage.ErrCorrupt) {
		return nil, nil
	}
	return queued, err
}

// For returns a Notifier bound to sid. Failures to queue are logged.
func (o *Outbox) For(sid string) Notifier {
	return NotifierFunc(func(n Notice) {
		if err := o.Push(context.Background(), sid, n); err != nil {
			o.log.Warn("notice dropped", zap.String("sid", sid), zap.String("message", n.Message), zap.Error(err))
		}
	})
}

// Prompt asks the user to confirm a destructive action.
type Prompt struct {
	Message string `json:"message"`
	Action  string `json:"action"`
}

// Decision is the user's answer to a Prompt.
type Decision int

const (
	Undecided Decision = iota
	Confirmed
	Declined
)

// ParseDecision reads the confirm form/query value.
func ParseDecision(v string) Decision {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "confirm", "confirmed":
		return Confirmed
	case "0", "false", "no", "cancel", "declined":
		return Declined
	}
	return Undecided
}

// Prompts used by the views.
var (
	DeleteMovie    = Prompt{Message: "Are you sure you want to delete this movie?", Action: "delete"}
	DeleteShowtime = Prompt{Message: "Are you sure you want to delete this showtime?", Action: "delete"}
	CancelBooking  = Prompt{Message: "Are you sure you want to cancel this booking?", Action: "cancel"}
)
