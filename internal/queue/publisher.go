package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends checkout events to RabbitMQ. Each publish dials, declares
// the queue and sends one persistent message; checkout events are rare enough
// that a pooled connection is not needed.
type Publisher struct {
	url   string
	queue string
	log   *zap.Logger
}

func NewPublisher(url string, log *zap.Logger) *Publisher {
	return &Publisher{url: url, queue: CheckoutQueue, log: log.Named("publisher")}
}

// Publish sends ev. Errors are logged and returned; callers treat them as
// best effort.
func (p *Publisher) Publish(ctx context.Context, ev CheckoutEvent) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(5 * time.Second)})
	if err != nil {
		p.log.Warn("dial failed", zap.Error(err))
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("channel open failed", zap.Error(err))
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		p.log.Warn("queue declare failed", zap.Error(err))
		return fmt.Errorf("queue declare: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Outcome,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.log.Warn("publish failed", zap.Uint64("booking_id", ev.BookingID), zap.Error(err))
		return fmt.Errorf("publish: %w", err)
	}
	p.log.Debug("published", zap.String("outcome", ev.Outcome), zap.Uint64("booking_id", ev.BookingID))
	return nil
}
