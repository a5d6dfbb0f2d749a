package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends notification events to RabbitMQ.  Each publish dials its
// own connection so a broker outage never blocks the request path beyond
// the caller's context; errors are logged and returned so callers can treat
// delivery as best effort.
type Publisher struct {
	url    string
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{url: url, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// SendConfirmation publishes a booking.confirmed event.
func (p *Publisher) SendConfirmation(ctx context.Context, ev BookingEvent) error {
	return p.publish(ctx, QueueBookingConfirmed, ev)
}

// SendCancellation publishes a booking.cancelled event.
func (p *Publisher) SendCancellation(ctx context.Context, ev BookingEvent) error {
	return p.publish(ctx, QueueBookingCancelled, ev)
}

// SendPaymentReceived publishes a payment.received event.
func (p *Publisher) SendPaymentReceived(ctx context.Context, ev PaymentEvent) error {
	return p.publish(ctx, QueuePaymentReceived, ev)
}

func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
	pub, err := encode(event, p.now())
	if err != nil {
		p.logger.Error("rabbitmq: marshal event failed", "queue", queue, "error", err)
		return err
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.Warn("rabbitmq: dial failed", "queue", queue, "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Warn("rabbitmq: channel open failed", "queue", queue, "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch, queue); err != nil {
		p.logger.Warn("rabbitmq: queue declare failed", "queue", queue, "error", err)
		return err
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		p.logger.Warn("rabbitmq: publish failed", "queue", queue, "error", err)
		return err
	}
	return nil
}

// encode builds a persistent JSON publishing for event.
func encode(event any, at time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    at,
		Body:         body,
	}, nil
}

// declare makes sure queue exists.  Durable so messages survive broker
// restarts; idempotent.
func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	return err
}
