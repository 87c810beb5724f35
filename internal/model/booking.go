package model

import "time"

// BookingStatus is the lifecycle state of a Booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Holds reports whether a booking in this status still holds tickets.
func (s BookingStatus) Holds() bool { return s != BookingCancelled }

// Booking is a reservation of Quantity tickets against an Event.
//
// Fields:
//  TotalCents    – Quantity × event price at the time of booking.
//  PaymentRef    – reference issued when the booking is paid (nullable).
//  RefundPercent – share of TotalCents refunded on cancellation.
type Booking struct {
	ID            uint64        `json:"id"`                    // bookings.id
	EventID       uint64        `json:"event_id"`              // bookings.event_id
	UserID        uint64        `json:"user_id"`               // bookings.user_id
	Quantity      int           `json:"quantity"`              // bookings.quantity
	TotalCents    int64         `json:"total_cents"`           // bookings.total_cents
	Status        BookingStatus `json:"status"`                // bookings.status
	PaymentRef    *string       `json:"payment_ref,omitempty"` // bookings.payment_ref (nullable)
	IsPaid        bool          `json:"is_paid"`               // bookings.is_paid
	RefundPercent int           `json:"refund_percent"`        // bookings.refund_percent
	CreatedAt     time.Time     `json:"created_at"`            // bookings.created_at
	UpdatedAt     time.Time     `json:"updated_at"`            // bookings.updated_at
}
