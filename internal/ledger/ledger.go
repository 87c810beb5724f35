// Package ledger owns ticket inventory and the booking, review and
// favorite rules built on top of it. Persistence is abstracted by Store so
// the same rules run against MySQL in production and MemoryStore in tests.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/eventmate/internal/clock"
	"github.com/iliyamo/eventmate/internal/model"
)

const (
	DefaultCancellationCutoff = 24 * time.Hour
	DefaultRefundFullWindow   = 7 * 24 * time.Hour
	DefaultPartialRefund      = 50
)

// Service applies the ledger rules. It is safe for concurrent use as long
// as the underlying Store is.
type Service struct {
	store Store
	clock clock.Clock

	cutoff         time.Duration
	fullRefund     time.Duration
	partialPercent int
}

// Option customises a Service.
type Option func(*Service)

// WithCancellationCutoff sets how long before an event starts cancellation
// stops being allowed.
func WithCancellationCutoff(d time.Duration) Option {
	return func(s *Service) { s.cutoff = d }
}

// WithRefundPolicy sets the refund rules for paid bookings: a full refund
// when cancelled at least fullWindow before start, partialPercent otherwise.
func WithRefundPolicy(fullWindow time.Duration, partialPercent int) Option {
	return func(s *Service) {
		s.fullRefund = fullWindow
		s.partialPercent = partialPercent
	}
}

// New returns a Service backed by store. A nil clk uses the system clock.
func New(store Store, clk clock.Clock, opts ...Option) *Service {
	if clk == nil {
		clk = clock.NewSystem()
	}
	s := &Service{
		store:          store,
		clock:          clk,
		cutoff:         DefaultCancellationCutoff,
		fullRefund:     DefaultRefundFullWindow,
		partialPercent: DefaultPartialRefund,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cancellation is the outcome of a successful CancelBooking.
type Cancellation struct {
	Booking     model.Booking `json:"booking"`
	RefundCents int64         `json:"refund_cents"`
}

// RatingSummary aggregates the reviews of one event.
type RatingSummary struct {
	Average *float64 `json:"average_rating"`
	Count   int      `json:"review_count"`
}

// CreateBooking reserves quantity tickets for userID. The decrement and
// the booking insert commit together or not at all.
func (s *Service) CreateBooking(ctx context.Context, eventID, userID uint64, quantity int) (model.Booking, error) {
	if quantity < 1 {
		return model.Booking{}, ErrInvalidQuantity
	}
	now := s.clock.Now()

	var booking model.Booking
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		ok, err := s.store.ReserveTickets(ctx, eventID, quantity, now)
		if err != nil {
			return err
		}
		if !ok {
			return s.reserveFailure(ctx, eventID, now)
		}
		ev, err := s.store.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		booking = model.Booking{
			EventID:    eventID,
			UserID:     userID,
			Quantity:   quantity,
			TotalCents: int64(quantity) * ev.PriceCents,
			Status:     model.BookingPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return s.store.CreateBooking(ctx, &booking)
	})
	if err != nil {
		return model.Booking{}, err
	}
	return booking, nil
}

// reserveFailure explains why a conditional decrement matched no row.
func (s *Service) reserveFailure(ctx context.Context, eventID uint64, now time.Time) error {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if !ev.Bookable(now) {
		return ErrEventInactive
	}
	return ErrSoldOut
}

// CancelBooking cancels a pending or confirmed booking owned by userID and
// returns its tickets to the event.
func (s *Service) CancelBooking(ctx context.Context, bookingID, userID uint64) (Cancellation, error) {
	now := s.clock.Now()

	var out Cancellation
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.store.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return ErrForbidden
		}
		switch b.Status {
		case model.BookingCancelled:
			return ErrAlreadyCancelled
		case model.BookingCompleted:
			return ErrInvalidTransition
		}
		ev, err := s.store.GetEvent(ctx, b.EventID)
		if err != nil {
			return err
		}
		if !now.Before(ev.StartsAt.Add(-s.cutoff)) {
			return ErrTooLate
		}

		refund := s.refundPercent(b, ev, now)
		if err := s.cancel(ctx, b, refund, now); err != nil {
			return err
		}
		b.Status = model.BookingCancelled
		b.RefundPercent = refund
		b.UpdatedAt = now
		out = Cancellation{Booking: b, RefundCents: b.TotalCents * int64(refund) / 100}
		return nil
	})
	if err != nil {
		return Cancellation{}, err
	}
	return out, nil
}

// cancel flips the status and restores exactly b.Quantity tickets. The
// status guard makes a concurrent second cancel a no-op.
func (s *Service) cancel(ctx context.Context, b model.Booking, refund int, now time.Time) error {
	from := []model.BookingStatus{model.BookingPending, model.BookingConfirmed}
	ok, err := s.store.TransitionBooking(ctx, b.ID, from, model.BookingCancelled, refund, now)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyCancelled
	}
	ok, err = s.store.ReleaseTickets(ctx, b.EventID, b.Quantity)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: event %d, booking %d", ErrInventoryInvariant, b.EventID, b.ID)
	}
	return nil
}

func (s *Service) refundPercent(b model.Booking, ev model.Event, now time.Time) int {
	if !b.IsPaid {
		return 0
	}
	if ev.StartsAt.Sub(now) >= s.fullRefund {
		return 100
	}
	return s.partialPercent
}

// ConfirmBooking records a simulated payment for a pending booking.
func (s *Service) ConfirmBooking(ctx context.Context, bookingID, userID uint64) (model.Booking, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if b.UserID != userID {
		return model.Booking{}, ErrForbidden
	}
	if b.Status != model.BookingPending {
		return model.Booking{}, ErrInvalidTransition
	}
	ref := uuid.NewString()
	now := s.clock.Now()
	ok, err := s.store.MarkPaid(ctx, b.ID, ref, now)
	if err != nil {
		return model.Booking{}, err
	}
	if !ok {
		return model.Booking{}, ErrInvalidTransition
	}
	b.Status = model.BookingConfirmed
	b.IsPaid = true
	b.PaymentRef = &ref
	b.UpdatedAt = now
	return b, nil
}

// CompleteFinished marks confirmed bookings of ended events as completed.
func (s *Service) CompleteFinished(ctx context.Context) (int64, error) {
	return s.store.CompleteEnded(ctx, s.clock.Now(), 0)
}

// CompleteHostFinished is CompleteFinished limited to the events of hostID.
func (s *Service) CompleteHostFinished(ctx context.Context, hostID uint64) (int64, error) {
	if hostID == 0 {
		return 0, ErrForbidden
	}
	return s.store.CompleteEnded(ctx, s.clock.Now(), hostID)
}

// ReleaseUserBookings cancels every pending or confirmed booking the user
// holds for events that have not started yet. The cancellation cutoff does
// not apply. It returns the number of bookings cancelled.
func (s *Service) ReleaseUserBookings(ctx context.Context, userID uint64) (int, error) {
	now := s.clock.Now()
	released := 0
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		bookings, err := s.store.ListBookingsByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, b := range bookings {
			if b.Status != model.BookingPending && b.Status != model.BookingConfirmed {
				continue
			}
			ev, err := s.store.GetEvent(ctx, b.EventID)
			if err != nil {
				return err
			}
			if !now.Before(ev.StartsAt) {
				continue
			}
			if err := s.cancel(ctx, b, s.refundPercent(b, ev, now), now); err != nil {
				return err
			}
			released++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}

// SubmitReview records a review for an event the user has attended.
func (s *Service) SubmitReview(ctx context.Context, eventID, userID uint64, rating int, comment string) (model.Review, error) {
	if rating < 1 || rating > 5 {
		return model.Review{}, ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return model.Review{}, ErrCommentRequired
	}
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return model.Review{}, err
	}
	attended, err := s.store.HasCompletedBooking(ctx, userID, eventID)
	if err != nil {
		return model.Review{}, err
	}
	if !attended {
		return model.Review{}, ErrNotEligible
	}
	exists, err := s.store.ReviewExists(ctx, userID, eventID)
	if err != nil {
		return model.Review{}, err
	}
	if exists {
		return model.Review{}, ErrDuplicateReview
	}
	r := model.Review{
		EventID:   eventID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: s.clock.Now(),
	}
	// A racing insert still trips the unique (user, event) constraint.
	if err := s.store.CreateReview(ctx, &r); err != nil {
		return model.Review{}, err
	}
	return r, nil
}

// AverageRating returns the mean rating of an event, or nil without reviews.
func (s *Service) AverageRating(ctx context.Context, eventID uint64) (*float64, error) {
	sum, err := s.RatingSummary(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return sum.Average, nil
}

func (s *Service) RatingSummary(ctx context.Context, eventID uint64) (RatingSummary, error) {
	total, count, err := s.store.RatingTotals(ctx, eventID)
	if err != nil {
		return RatingSummary{}, err
	}
	out := RatingSummary{Count: count}
	if count > 0 {
		avg := float64(total) / float64(count)
		out.Average = &avg
	}
	return out, nil
}

// ToggleFavorite adds the event to the user's favorites, or removes it if
// already present. It reports whether the event is a favorite afterwards.
func (s *Service) ToggleFavorite(ctx context.Context, eventID, userID uint64) (bool, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return false, err
	}
	var favorited bool
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		removed, err := s.store.RemoveFavorite(ctx, userID, eventID)
		if err != nil {
			return err
		}
		if removed {
			favorited = false
			return nil
		}
		favorited = true
		return s.store.AddFavorite(ctx, userID, eventID, s.clock.Now())
	})
	return favorited, err
}

// PublishEvent validates and stores a new event owned by e.HostID. The
// slug is derived from the title and made unique with a numeric suffix.
func (s *Service) PublishEvent(ctx context.Context, e model.Event) (model.Event, error) {
	now := s.clock.Now()
	e.Title = strings.TrimSpace(e.Title)
	e.Category = strings.ToLower(strings.TrimSpace(e.Category))
	if e.EndsAt.IsZero() {
		e.EndsAt = e.StartsAt
	}
	if err := validateEvent(e, now); err != nil {
		return model.Event{}, err
	}
	e.ID = 0
	e.TicketsAvailable = e.Capacity
	e.IsActive = true
	e.CreatedAt = now
	e.UpdatedAt = now

	base := Slugify(e.Title)
	for i := 1; i <= maxSlugAttempts; i++ {
		e.Slug = base
		if i > 1 {
			e.Slug = fmt.Sprintf("%s-%d", base, i)
		}
		err := s.store.CreateEvent(ctx, &e)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, ErrSlugTaken) {
			return model.Event{}, err
		}
	}
	return model.Event{}, ErrSlugTaken
}

const maxSlugAttempts = 50

func validateEvent(e model.Event, now time.Time) error {
	switch {
	case e.HostID == 0:
		return fmt.Errorf("%w: host is required", ErrInvalidEvent)
	case e.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	case !model.ValidCategory(e.Category):
		return fmt.Errorf("%w: unknown category %q", ErrInvalidEvent, e.Category)
	case e.Capacity < 1:
		return fmt.Errorf("%w: capacity must be at least 1", ErrInvalidEvent)
	case e.PriceCents < 0:
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidEvent)
	case !e.StartsAt.After(now):
		return fmt.Errorf("%w: start must be in the future", ErrInvalidEvent)
	case e.EndsAt.Before(e.StartsAt):
		return fmt.Errorf("%w: end cannot be before start", ErrInvalidEvent)
	}
	return nil
}

// Slugify lower-cases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return "event"
	}
	return b.String()
}

// EventChanges lists the fields of an event a host may edit. Nil fields
// are left as they are.
type EventChanges struct {
	Title       *string
	Description *string
	Location    *string
	IsFeatured  *bool
	Capacity    *int
}

func (c EventChanges) details() bool {
	return c.Title != nil || c.Description != nil || c.Location != nil || c.IsFeatured != nil
}

// UpdateEvent validates ch and applies it to a host's event in one
// transaction. A capacity change keeps the number of sold tickets
// unchanged and fails without touching the event when it would drop below
// them.
func (s *Service) UpdateEvent(ctx context.Context, eventID, hostID uint64, ch EventChanges) (model.Event, error) {
	if ch.Title != nil {
		title := strings.TrimSpace(*ch.Title)
		if title == "" {
			return model.Event{}, fmt.Errorf("%w: title is required", ErrInvalidEvent)
		}
		ch.Title = &title
	}
	if ch.Capacity != nil && *ch.Capacity < 0 {
		return model.Event{}, fmt.Errorf("%w: capacity cannot be negative", ErrInvalidEvent)
	}
	now := s.clock.Now()

	var out model.Event
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		ev, err := s.ownedEvent(ctx, eventID, hostID)
		if err != nil {
			return err
		}
		if ch.Capacity != nil {
			if *ch.Capacity < ev.Sold() {
				return ErrCapacityBelowSold
			}
			ok, err := s.store.SetCapacity(ctx, eventID, *ch.Capacity)
			if err != nil {
				return err
			}
			if !ok {
				return ErrCapacityBelowSold
			}
		}
		if ch.details() {
			if ch.Title != nil {
				ev.Title = *ch.Title
			}
			if ch.Description != nil {
				ev.Description = *ch.Description
			}
			if ch.Location != nil {
				ev.Location = *ch.Location
			}
			if ch.IsFeatured != nil {
				ev.IsFeatured = *ch.IsFeatured
			}
			ev.UpdatedAt = now
			ok, err := s.store.UpdateDetails(ctx, ev)
			if err != nil {
				return err
			}
			if !ok {
				return ErrEventNotFound
			}
		}
		out, err = s.store.GetEvent(ctx, eventID)
		return err
	})
	if err != nil {
		return model.Event{}, err
	}
	return out, nil
}

// AdjustCapacity changes the capacity of a host's event while keeping the
// number of sold tickets unchanged.
func (s *Service) AdjustCapacity(ctx context.Context, eventID, hostID uint64, capacity int) (model.Event, error) {
	return s.UpdateEvent(ctx, eventID, hostID, EventChanges{Capacity: &capacity})
}

// DeactivateEvent soft-deletes a host's event. Existing bookings and
// reviews are kept.
func (s *Service) DeactivateEvent(ctx context.Context, eventID, hostID uint64) error {
	if _, err := s.ownedEvent(ctx, eventID, hostID); err != nil {
		return err
	}
	return s.store.SetEventActive(ctx, eventID, false)
}

func (s *Service) ownedEvent(ctx context.Context, eventID, hostID uint64) (model.Event, error) {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}
	if ev.HostID != hostID {
		return model.Event{}, ErrForbidden
	}
	return ev, nil
}

func (s *Service) Event(ctx context.Context, id uint64) (model.Event, error) {
	return s.store.GetEvent(ctx, id)
}

func (s *Service) EventBySlug(ctx context.Context, slug string) (model.Event, error) {
	return s.store.GetEventBySlug(ctx, slug)
}

func (s *Service) BookingsForUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.store.ListBookingsByUser(ctx, userID)
}

func (s *Service) FavoritesForUser(ctx context.Context, userID uint64) ([]model.Favorite, error) {
	return s.store.ListFavorites(ctx, userID)
}
