package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer appends one line per booking notification to
// <logDir>/booking.log. Messages that cannot be decoded are rejected
// without requeue.
type Consumer struct {
	url    string
	logDir string

	mu sync.Mutex // serialises writes from both queues
}

func NewConsumer(url, logDir string) *Consumer {
	return &Consumer{url: url, logDir: logDir}
}

// Run connects, consumes every queue in Queues and reconnects with
// exponential backoff until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Printf("booking-consumer: dial failed: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, 30*time.Second)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("booking-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
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

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("booking-consumer: set QoS failed: %v", err)
	}

	var wg sync.WaitGroup
	done := make(chan error, len(Queues))
	for _, q := range Queues {
		q := q
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range msgs {
				if err := c.HandleMessage(d.Body); err != nil {
					log.Printf("booking-consumer: %s: %v", q, err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
			done <- errors.New("deliveries channel closed: " + q)
		}()
	}

	select {
	case <-ctx.Done():
		_ = ch.Close()
		wg.Wait()
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// HandleMessage decodes a BookingEvent and appends it to the log file.
func (c *Consumer) HandleMessage(body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.BookingID == 0 {
		return errors.New("missing booking_id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.logDir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.logDir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single log line ending in a newline.
func FormatLine(ev BookingEvent) string {
	switch ev.Type {
	case QueueBookingCancelled:
		return fmt.Sprintf("[%s] Booking cancelled | booking_id=%d | user_id=%d | event_id=%d | event=%q | qty=%d | refund=%d%%\n",
			ev.OccurredAt.Format(time.RFC3339), ev.BookingID, ev.UserID, ev.EventID, ev.EventTitle, ev.Quantity, ev.RefundPercent)
	default:
		return fmt.Sprintf("[%s] Booking confirmed | booking_id=%d | user_id=%d | event_id=%d | event=%q | qty=%d | total=%d cents | payment_ref=%s\n",
			ev.OccurredAt.Format(time.RFC3339), ev.BookingID, ev.UserID, ev.EventID, ev.EventTitle, ev.Quantity, ev.TotalCents, ev.PaymentRef)
	}
}
