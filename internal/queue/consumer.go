package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer listens to the notification queues and appends one line per
// delivery to out.  In production out is a rotating lumberjack logger; the
// mail worker tails the same queues independently.
type Consumer struct {
	url    string
	logger *slog.Logger
	mu     sync.Mutex
	out    io.Writer
}

// NewConsumer returns a Consumer writing delivery lines to out.
func NewConsumer(url string, out io.Writer, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{url: url, out: out, logger: logger}
}

// Run dials the broker and consumes until ctx is cancelled, reconnecting
// with exponential backoff (capped at 30s) whenever the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("notify-consumer: dial failed", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
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
		c.logger.Warn("notify-consumer: consume loop ended; reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
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
		c.logger.Warn("notify-consumer: set QoS failed", "error", err)
	}

	type tagged struct {
		queue string
		d     amqp.Delivery
	}
	merged := make(chan tagged)
	var wg sync.WaitGroup
	for _, q := range []string{QueueBookingConfirmed, QueueBookingCancelled, QueuePaymentReceived} {
		if err := declare(ch, q); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		wg.Add(1)
		go func(q string, msgs <-chan amqp.Delivery) {
			defer wg.Done()
			for d := range msgs {
				select {
				case merged <- tagged{queue: q, d: d}:
				case <-ctx.Done():
					return
				}
			}
		}(q, msgs)
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			return errors.New("deliveries channel closed")
		case m := <-merged:
			if err := c.Handle(m.queue, m.d.Body); err != nil {
				c.logger.Error("notify-consumer: handle message failed", "queue", m.queue, "error", err)
				_ = m.d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = m.d.Ack(false)
		}
	}
}

// Handle decodes one delivery from queue and appends its line to out.
func (c *Consumer) Handle(queue string, body []byte) error {
	line, err := formatLine(queue, body)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := io.WriteString(c.out, line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(queue string, body []byte) (string, error) {
	switch queue {
	case QueueBookingConfirmed, QueueBookingCancelled:
		var ev BookingEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		verb := "Reservation confirmed"
		if queue == QueueBookingCancelled {
			verb = "Reservation cancelled"
		}
		line := fmt.Sprintf("[%s] %s | reservation_id=%s | external_id=%s | owner_id=%d | hotel=%q | room_type=%s | stay=%s..%s | rooms=%d | email=%s",
			ev.OccurredAt.UTC().Format(time.RFC3339), verb, ev.ReservationID, ev.ExternalID, ev.OwnerID,
			ev.HotelCode, ev.RoomType, ev.CheckIn, ev.CheckOut, ev.Rooms, ev.ContactEmail)
		if ev.Reason != "" {
			line += fmt.Sprintf(" | reason=%q", ev.Reason)
		}
		return line + "\n", nil
	case QueuePaymentReceived:
		var ev PaymentEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Payment received | intent_id=%d | draft_id=%d | owner_id=%d | amount=%s %s@%s | tx=%s | from=%s\n",
			ev.ReceivedAt.UTC().Format(time.RFC3339), ev.IntentID, ev.DraftID, ev.OwnerID,
			ev.Amount.StringFixed(2), ev.Token, ev.Chain, ev.TxHash, ev.SenderWallet), nil
	default:
		return "", fmt.Errorf("unknown queue %q", queue)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
