package ledger

import (
	"context"
	"time"

	"github.com/iliyamo/eventmate/internal/model"
)

// Store is the persistence contract the ledger relies on. Methods called
// with a context returned by WithTx participate in that transaction.
//
// Conditional methods report whether their guard matched; a false result
// leaves the store unchanged.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	EventStore
	BookingStore
	ReviewStore
	FavoriteStore
}

type EventStore interface {
	// CreateEvent inserts e and sets its ID. It returns ErrSlugTaken when the
	// slug is already used.
	CreateEvent(ctx context.Context, e *model.Event) error
	GetEvent(ctx context.Context, id uint64) (model.Event, error)
	GetEventBySlug(ctx context.Context, slug string) (model.Event, error)
	// ReserveTickets decrements availability by qty when the event is
	// active, starts after now and has at least qty tickets left.
	ReserveTickets(ctx context.Context, eventID uint64, qty int, now time.Time) (bool, error)
	// ReleaseTickets increments availability by qty unless that would
	// exceed capacity.
	ReleaseTickets(ctx context.Context, eventID uint64, qty int) (bool, error)
	// SetCapacity changes capacity keeping the sold count constant, as long
	// as the new capacity is not below it.
	SetCapacity(ctx context.Context, eventID uint64, capacity int) (bool, error)
	SetEventActive(ctx context.Context, eventID uint64, active bool) error
	// UpdateDetails writes title, description, location and is_featured of
	// e when e.HostID owns it.
	UpdateDetails(ctx context.Context, e model.Event) (bool, error)
}

type BookingStore interface {
	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id uint64) (model.Booking, error)
	ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	// TransitionBooking moves a booking to next when its current status is
	// one of from. RefundPercent is written for cancellations.
	TransitionBooking(ctx context.Context, id uint64, from []model.BookingStatus, next model.BookingStatus, refundPercent int, now time.Time) (bool, error)
	// MarkPaid confirms a pending booking and records its payment reference.
	MarkPaid(ctx context.Context, id uint64, paymentRef string, now time.Time) (bool, error)
	// CompleteEnded marks confirmed bookings of events that ended at or
	// before now as completed and returns how many changed. A non-zero
	// hostID limits it to that host's events.
	CompleteEnded(ctx context.Context, now time.Time, hostID uint64) (int64, error)
	HasCompletedBooking(ctx context.Context, userID, eventID uint64) (bool, error)
}

type ReviewStore interface {
	// CreateReview inserts r and sets its ID. It returns ErrDuplicateReview
	// when (user, event) already has a review.
	CreateReview(ctx context.Context, r *model.Review) error
	ReviewExists(ctx context.Context, userID, eventID uint64) (bool, error)
	// RatingTotals returns the sum and count of ratings for an event.
	RatingTotals(ctx context.Context, eventID uint64) (sum, count int, err error)
}

type FavoriteStore interface {
	// AddFavorite is a no-op when the pair already exists.
	AddFavorite(ctx context.Context, userID, eventID uint64, at time.Time) error
	RemoveFavorite(ctx context.Context, userID, eventID uint64) (bool, error)
	ListFavorites(ctx context.Context, userID uint64) ([]model.Favorite, error)
}
