package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer appends every checkout event to <dir>/checkout.log, one line per
// event.
type Consumer struct {
	url string
	dir string
	log *zap.Logger
}

func NewConsumer(url, dir string, log *zap.Logger) *Consumer {
	return &Consumer{url: url, dir: dir, log: log.Named("consumer")}
}

// Run connects with exponential backoff and consumes until ctx is done.
// Undecodable messages are rejected without requeue.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended, reconnecting", zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(CheckoutQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, CheckoutQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.Handle(d.Body); err != nil {
			c.log.Error("handle message failed", zap.Error(err))
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// Handle decodes one message body and appends it to the log file.
func (c *Consumer) Handle(body []byte) error {
	var ev CheckoutEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.dir, "checkout.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	return WriteLine(f, ev)
}

// WriteLine renders ev as a single human readable line.
func WriteLine(w io.Writer, ev CheckoutEvent) error {
	seats := "[" + strings.Join(ev.SeatLabels, ",") + "]"
	_, err := fmt.Fprintf(w, "[%s] Checkout %s | booking_id=%d | showtime_id=%d | session=%s | method=%s | movie=%q | cinema=%q | starts_at=%s | amount=%s | seats=%s\n",
		ev.OccurredAt, ev.Outcome, ev.BookingID, ev.ShowtimeID, ev.Session, ev.PaymentMethod, ev.MovieTitle, ev.CinemaName, ev.StartsAt, ev.Amount, seats)
	if err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
