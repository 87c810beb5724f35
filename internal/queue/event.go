// Package queue carries booking notifications over RabbitMQ. The API
// publishes after a booking is paid or cancelled; the consumer appends a
// line per message to the notification log.
package queue

import (
	"time"

	"github.com/iliyamo/eventmate/internal/model"
)

// Queue names. Each event type has its own durable queue.
const (
	QueueBookingConfirmed = "booking.confirmed"
	QueueBookingCancelled = "booking.cancelled"
)

// Queues lists every queue the consumer listens on.
var Queues = []string{QueueBookingConfirmed, QueueBookingCancelled}

// BookingEvent is the message body for both queues. Type equals the queue
// name it was published to.
type BookingEvent struct {
	Type          string    `json:"type"`
	BookingID     uint64    `json:"booking_id"`
	EventID       uint64    `json:"event_id"`
	EventTitle    string    `json:"event_title"`
	StartsAt      time.Time `json:"starts_at"`
	UserID        uint64    `json:"user_id"`
	Quantity      int       `json:"quantity"`
	TotalCents    int64     `json:"total_cents"`
	PaymentRef    string    `json:"payment_ref,omitempty"`
	RefundPercent int       `json:"refund_percent"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewBookingEvent builds the message for booking b of event ev.
func NewBookingEvent(typ string, b model.Booking, ev model.Event, at time.Time) BookingEvent {
	out := BookingEvent{
		Type:          typ,
		BookingID:     b.ID,
		EventID:       ev.ID,
		EventTitle:    ev.Title,
		StartsAt:      ev.StartsAt,
		UserID:        b.UserID,
		Quantity:      b.Quantity,
		TotalCents:    b.TotalCents,
		RefundPercent: b.RefundPercent,
		OccurredAt:    at.UTC(),
	}
	if b.PaymentRef != nil {
		out.PaymentRef = *b.PaymentRef
	}
	return out
}
