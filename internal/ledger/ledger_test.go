package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/eventmate/internal/clock"
	"github.com/iliyamo/eventmate/internal/model"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	hostID  uint64 = 1
	aliceID uint64 = 2
	bobID   uint64 = 3
)

type fixture struct {
	svc   *Service
	store *MemoryStore
	clk   *clock.Fixed
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	store := NewMemoryStore()
	clk := clock.NewFixed(t0)
	return fixture{svc: New(store, clk, opts...), store: store, clk: clk}
}

// seedEvent stores an active event starting startsIn after t0 and lasting two hours.
func (f fixture) seedEvent(t *testing.T, capacity int, priceCents int64, startsIn time.Duration) model.Event {
	t.Helper()
	ev := model.Event{
		HostID:           hostID,
		Title:            "Jazz Night",
		Slug:             Slugify("Jazz Night " + startsIn.String()),
		Category:         "music",
		StartsAt:         t0.Add(startsIn),
		EndsAt:           t0.Add(startsIn + 2*time.Hour),
		PriceCents:       priceCents,
		Capacity:         capacity,
		TicketsAvailable: capacity,
		IsActive:         true,
	}
	require.NoError(t, f.store.CreateEvent(context.Background(), &ev))
	return ev
}

func (f fixture) available(t *testing.T, id uint64) int {
	t.Helper()
	ev, err := f.store.GetEvent(context.Background(), id)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ev.TicketsAvailable, 0)
	assert.LessOrEqual(t, ev.TicketsAvailable, ev.Capacity)
	return ev.TicketsAvailable
}

// attend books, pays and completes a booking for userID.
func (f fixture) attend(t *testing.T, ev model.Event, userID uint64) {
	t.Helper()
	ctx := context.Background()
	b, err := f.svc.CreateBooking(ctx, ev.ID, userID, 1)
	require.NoError(t, err)
	_, err = f.svc.ConfirmBooking(ctx, b.ID, userID)
	require.NoError(t, err)

	prev := f.clk.Now()
	f.clk.Set(ev.EndsAt)
	_, err = f.svc.CompleteFinished(ctx)
	require.NoError(t, err)
	f.clk.Set(prev)
}

func TestCreateBooking_CapacitySequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.seedEvent(t, 10, 2500, 30*24*time.Hour)

	b, err := f.svc.CreateBooking(ctx, ev.ID, aliceID, 7)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, int64(7*2500), b.TotalCents)
	assert.Equal(t, 3, f.available(t, ev.ID))

	_, err = f.svc.CreateBooking(ctx, ev.ID, bobID, 5)
	assert.ErrorIs(t, err, ErrSoldOut)
	assert.Equal(t, 3, f.available(t, ev.ID))

	_, err = f.svc.CreateBooking(ctx, ev.ID, bobID, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, f.available(t, ev.ID))

	bookings, err := f.svc.BookingsForUser(ctx, bobID)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestCreateBooking_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.seedEvent(t, 5, 0, time.Hour)

	_, err := f.svc.CreateBooking(ctx, ev.ID, aliceID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.svc.CreateBooking(ctx, 999, aliceID, 1)
	assert.ErrorIs(t, err, ErrEventNotFound)

	f.clk.Advance(time.Hour)
	_, err = f.svc.CreateBooking(ctx, ev.ID, aliceID, 1)
	assert.ErrorIs(t, err, ErrEventInactive, "started events are closed")

	f.clk.Set(t0)
	require.NoError(t, f.svc.DeactivateEvent(ctx, ev.ID, hostID))
	_, err = f.svc.CreateBooking(ctx, ev.ID, aliceID, 1)
	assert.ErrorIs(t, err, ErrEventInactive)
	assert.Equal(t, 5, f.available(t, ev.ID))
}

func TestCreateBooking_ConcurrentNeverOversells(t *testing.T) {
	f := newFixture(t)
	ev := f.seedEvent(t, 10, 1000, 48*time.Hour)

	var (
		wg      sync.WaitGroup
		ok      atomic.Int64
		soldOut atomic.Int64
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			_, err := f.svc.CreateBooking(context.Background(), ev.ID, user, 1)
			switch {
			case err == nil:
				ok.Add(1)
			case assert.ErrorIs(t, err, ErrSoldOut):
				soldOut.Add(1)
			}
		}(uint64(100 + i))
	}
	wg.Wait()

	assert.Equal(t, int64(10), ok.Load())
	assert.Equal(t, int64(15), soldOut.Load())
	assert.Equal(t, 0, f.available(t, ev.ID))
}

func TestCancelBooking_RestoresExactQuantityOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.seedEvent(t, 10, 1000, 10*24*time.Hour)

	b, err := f.svc.CreateBooking(ctx, ev.ID, aliceID, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, f.available(t, ev.ID))

	_, err = f.svc.CancelBooking(ctx, b.ID, bobID)
	assert.ErrorIs(t, err, ErrForbidden)

	c, err := f.svc.CancelBooking(ctx, b.ID, aliceID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, c.Booking.Status)
	assert.Zero(t, c.RefundCents, "unpaid bookings are not refunded")
	assert.Equal(t, 10, f.available(t, ev.ID))

	_, err = f.svc.CancelBooking(ctx, b.ID, aliceID)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Equal(t, 10, f.available(t, ev.ID))

	_, err = f.svc.CancelBooking(ctx, 12345, aliceID)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelBooking_ConcurrentCancelRestoresOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.seedEvent(t, 10, 1000, 10*24*time.Hour)
	b, err := f.svc.CreateBooking(ctx, ev.ID, aliceID, 4)
	require.NoError(t, err)
	require.Equal(t, 6, f.available(t, ev.ID))

	var (
		wg        sync.WaitGroup
		ok        atomic.Int64
		cancelled atomic.Int64
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CancelBooking(context.Background(), b.ID, aliceID)
			switch {
			case err == nil:
				ok.Add(1)
			case assert.ErrorIs(t, err, ErrAlreadyCancelled):
				cancelled.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), ok.Load())
	assert.Equal(t, int64(19), cancelled.Load())
	assert.Equal(t, 10, f.available(t, ev.ID))
}

func TestBookingTransitions_StampUpdatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.seedEvent(t, 10, 1000, 10*24*time.Hour)

	paid, err := f.svc.CreateBooking(ctx, ev.ID, aliceID, 1)
	require.NoError(t, err)
	f.clk.Advance(time.Minute)
	_, err = f.svc.ConfirmBooking(ctx, paid.ID, aliceID)
	require.NoError(t, err)
	got, err := f.store.GetBooking(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Minute), got.UpdatedAt)
	assert.Equal(t, t0, got.CreatedAt)

	dropped, err := f.svc.CreateBooking(ctx, ev.ID, bobID, 1)
	require.NoError(t, err)
	f.clk.Advance(time.Hour)
	_, err = f.svc.CancelBooking(ctx, dropped.ID, bobID)
	require.NoError(t, err)
	got, err = f.store.GetBooking(ctx, dropped.ID)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Minute+time.Hour), got.UpdatedAt)

	f.clk.Set(ev.EndsAt)
	_, err = f.svc.CompleteFinished(ctx)
	require.NoError(t, err)
	got, err = f.store.GetBooking(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, got.Status)
	assert.Equal(t, ev.EndsAt, got.UpdatedAt)
}

func TestCancelBooking_Cutoff(t *testing.T) {
	f := newFixture(t, WithCancellationCutoff(24*time.Hour))
	ctx := context.Background()
	ev := f.seedEvent(t, 10, 1000, 48*time.Hour)

	b, err := f.svc.CreateBooking(ctx, ev.ID, aliceID, 2)
	require.NoError(t, err)

	f.clk.Advance(24 * time.Hour)
	_, err = f.svc.CancelBooking(ctx, b.ID, aliceID)
	assert.ErrorIs(t, err, ErrTooLate, "exactly at the cutoff is too late")
	assert.Equal(t, 8, f.available(t, ev.ID))

	f.clk.Set(t0.Add(24*time.Hour - time.Second))
	_, err = f.svc.CancelBooking(ctx, b.ID, aliceID)
	require.NoError(t, err)
	assert.Equal(t, 10, f.available(t, ev.ID))
}

func TestCancelBooking_CompletedIsFinal(t *testing.T) {
	f := newFixture(t, WithCancellationCutoff(0))
	ctx := context.Background()
	ev := f.seedEvent(t, 3, 1000, time.Hour)
	f.attend(t, ev, aliceID)

	bookings, err := f.svc.BookingsForUser(ctx, aliceID)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	require.Equal(t, model.BookingCompleted, bookings[0].Status)

	_, err = f.svc.CancelBooking(ctx, bookings[0].ID, aliceID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelBooking_RefundPolicy(t *testing.T) {
	tests := []struct {
		name     string
		startsIn time.Duration
		paid     bool
		want     int64
	}{
		{"paid, a week ahead", 8 * 24 * time.Hour, true, 3000},
		{"paid, inside the week", 3 * 24 * time.Hour, true, 1500},
		{"unpaid", 8 * 24 * time.Hour, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			ev := f.seedEvent(t, 10, 1000, tt.startsIn)

			b, err := f.svc.CreateBooking(ctx, ev.ID, aliceID, 3)
			require.NoError(t, err)
			if tt.paid {
				_, err = f.svc.ConfirmBooking(ctx, b.ID, aliceID)
				require.NoError(t, err)
			}
			c, err := f.svc.CancelBooking(ctx, b.ID, aliceID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.RefundCents)
		})
	}
}

func TestConfirmBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.seedEvent(t, 10, 1000, 48*time.Hour)

	b, err := f.svc.CreateBooking(ctx, ev.ID, aliceID, 1)
	require.NoError(t, err)

	_, err = f.svc.ConfirmBooking(ctx, b.ID, bobID)
	assert.ErrorIs(t, err, ErrForbidden)

	paid, err := f.svc.ConfirmBooking(ctx, b.ID, aliceID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, paid.Status)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaymentRef)
	assert.Len(t, *paid.PaymentRef, 36)

	_, err = f.svc.ConfirmBooking(ctx, b.ID, aliceID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCompleteFinished_OnlyConfirmedOfEndedEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	past := f.seedEvent(t, 10, 0, time.Hour)
	future := f.seedEvent(t, 10, 0, 72*time.Hour)

	pending, err := f.svc.CreateBooking(ctx, past.ID, bobID, 1)
	require.NoError(t, err)
	for _, ev := range []model.Event{past, future} {
		b, err := f.svc.CreateBooking(ctx, ev.ID, aliceID, 1)
		require.NoError(t, err)
		_, err = f.svc.ConfirmBooking(ctx, b.ID, aliceID)
		require.NoError(t, err)
	}

	f.clk.Set(past.EndsAt)
	n, err := f.svc.CompleteFinished(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := f.store.GetBooking(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, got.Status)
}

func TestCompleteHostFinished_ScopedToHost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.seedEvent(t, 10, 0, time.Hour)
	theirs := model.Event{
		HostID:           9,
		Title:            "Other Show",
		Slug:             "other-show",
		Category:         "music",
		StartsAt:         mine.StartsAt,
		EndsAt:           mine.EndsAt,
		Capacity:         10,
		TicketsAvailable: 10,
		IsActive:         true,
	}
	require.NoError(t, f.store.CreateEvent(ctx, &theirs))

	ids := map[uint64]uint64{}
	for _, ev := range []model.Event{mine, theirs} {
		b, err := f.svc.CreateBooking(ctx, ev.ID, aliceID, 1)
		require.NoError(t, err)
		_, err = f.svc.ConfirmBooking(ctx, b.ID, aliceID)
		require.NoError(t, err)
		ids[ev.ID] = b.ID
	}

	f.clk.Set(mine.EndsAt)
	_, err := f.svc.CompleteHostFinished(ctx, 0)
	assert.ErrorIs(t, err, ErrForbidden)

	n, err := f.svc.CompleteHostFinished(ctx, hostID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := f.store.GetBooking(ctx, ids[mine.ID])
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, got.Status)
	got, err = f.store.GetBooking(ctx, ids[theirs.ID])
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, got.Status)

	n, err = f.svc.CompleteFinished(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSubmitReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.seedEvent(t, 10, 1000, time.Hour)

	_, err := f.svc.SubmitReview(ctx, ev.ID, aliceID, 6, "great")
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = f.svc.SubmitReview(ctx, ev.ID, aliceID, 0, "great")
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = f.svc.SubmitReview(ctx, ev.ID, aliceID, 4, "   ")
	assert.ErrorIs(t, err, ErrCommentRequired)
	_, err = f.svc.SubmitReview(ctx, 999, aliceID, 4, "great")
	assert.ErrorIs(t, err, ErrEventNotFound)

	// A confirmed but not yet completed booking is not enough.
	b, err := f.svc.CreateBooking(ctx, ev.ID, aliceID, 1)
	require.NoError(t, err)
	_, err = f.svc.ConfirmBooking(ctx, b.ID, aliceID)
	require.NoError(t, err)
	_, err = f.svc.SubmitReview(ctx, ev.ID, aliceID, 4, "great")
	assert.ErrorIs(t, err, ErrNotEligible)

	f.clk.Set(ev.EndsAt)
	_, err = f.svc.CompleteFinished(ctx)
	require.NoError(t, err)

	r, err := f.svc.SubmitReview(ctx, ev.ID, aliceID, 4, "  great  ")
	require.NoError(t, err)
	assert.Equal(t, "great", r.Comment)
	assert.NotZero(t, r.ID)

	_, err = f.svc.SubmitReview(ctx, ev.ID, aliceID, 5, "again")
	assert.ErrorIs(t, err, ErrDuplicateReview)
}

func TestRatingSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.seedEvent(t, 10, 1000, time.Hour)

	avg, err := f.svc.AverageRating(ctx, ev.ID)
	require.NoError(t, err)
	assert.Nil(t, avg)

	f.attend(t, ev, aliceID)
	f.attend(t, ev, bobID)
	_, err = f.svc.SubmitReview(ctx, ev.ID, aliceID, 5, "loved it")
	require.NoError(t, err)
	_, err = f.svc.SubmitReview(ctx, ev.ID, bobID, 2, "too loud")
	require.NoError(t, err)

	sum, err := f.svc.RatingSummary(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Count)
	require.NotNil(t, sum.Average)
	assert.InDelta(t, 3.5, *sum.Average, 1e-9)
}

func TestToggleFavorite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.seedEvent(t, 10, 1000, time.Hour)

	on, err := f.svc.ToggleFavorite(ctx, ev.ID, aliceID)
	require.NoError(t, err)
	assert.True(t, on)

	favs, err := f.svc.FavoritesForUser(ctx, aliceID)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, ev.ID, favs[0].EventID)

	on, err = f.svc.ToggleFavorite(ctx, ev.ID, aliceID)
	require.NoError(t, err)
	assert.False(t, on)

	favs, err = f.svc.FavoritesForUser(ctx, aliceID)
	require.NoError(t, err)
	assert.Empty(t, favs)

	_, err = f.svc.ToggleFavorite(ctx, 999, aliceID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestPublishEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := model.Event{
		HostID:     hostID,
		Title:      "  Rock & Roll Live!  ",
		Category:   "Music",
		StartsAt:   t0.Add(72 * time.Hour),
		EndsAt:     t0.Add(75 * time.Hour),
		PriceCents: 4500,
		Capacity:   200,
	}

	first, err := f.svc.PublishEvent(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, "rock-roll-live", first.Slug)
	assert.Equal(t, 200, first.TicketsAvailable)
	assert.True(t, first.IsActive)

	second, err := f.svc.PublishEvent(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, "rock-roll-live-2", second.Slug)

	bySlug, err := f.svc.EventBySlug(ctx, "rock-roll-live-2")
	require.NoError(t, err)
	assert.Equal(t, second.ID, bySlug.ID)
}

func TestPublishEvent_Validation(t *testing.T) {
	valid := model.Event{
		HostID:   hostID,
		Title:    "Yoga",
		Category: "wellness",
		StartsAt: t0.Add(time.Hour),
		Capacity: 1,
	}
	tests := []struct {
		name   string
		mutate func(*model.Event)
	}{
		{"missing host", func(e *model.Event) { e.HostID = 0 }},
		{"blank title", func(e *model.Event) { e.Title = " " }},
		{"unknown category", func(e *model.Event) { e.Category = "opera" }},
		{"zero capacity", func(e *model.Event) { e.Capacity = 0 }},
		{"negative price", func(e *model.Event) { e.PriceCents = -1 }},
		{"start in the past", func(e *model.Event) { e.StartsAt = t0 }},
		{"end before start", func(e *model.Event) { e.EndsAt = t0.Add(time.Minute) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ev := valid
			tt.mutate(&ev)
			_, err := f.svc.PublishEvent(context.Background(), ev)
			assert.ErrorIs(t, err, ErrInvalidEvent)
		})
	}
}

func TestAdjustCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.seedEvent(t, 10, 1000, 48*time.Hour)
	_, err := f.svc.CreateBooking(ctx, ev.ID, aliceID, 6)
	require.NoError(t, err)

	_, err = f.svc.AdjustCapacity(ctx, ev.ID, aliceID, 20)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.AdjustCapacity(ctx, ev.ID, hostID, 5)
	assert.ErrorIs(t, err, ErrCapacityBelowSold)

	got, err := f.svc.AdjustCapacity(ctx, ev.ID, hostID, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Capacity)
	assert.Equal(t, 0, got.TicketsAvailable)

	got, err = f.svc.AdjustCapacity(ctx, ev.ID, hostID, 15)
	require.NoError(t, err)
	assert.Equal(t, 9, got.TicketsAvailable)
}

func TestUpdateEvent_AppliesChangesTogether(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.seedEvent(t, 10, 0, 48*time.Hour)
	_, err := f.svc.CreateBooking(ctx, ev.ID, aliceID, 3)
	require.NoError(t, err)

	title, location, featured, capacity := "  Late Jazz ", "Basement", true, 5
	f.clk.Advance(time.Minute)
	out, err := f.svc.UpdateEvent(ctx, ev.ID, hostID, EventChanges{
		Title:      &title,
		Location:   &location,
		IsFeatured: &featured,
		Capacity:   &capacity,
	})
	require.NoError(t, err)
	assert.Equal(t, "Late Jazz", out.Title)
	assert.Equal(t, "Basement", out.Location)
	assert.True(t, out.IsFeatured)
	assert.Equal(t, 5, out.Capacity)
	assert.Equal(t, 2, out.TicketsAvailable)
	assert.Equal(t, t0.Add(time.Minute), out.UpdatedAt)

	_, err = f.svc.UpdateEvent(ctx, ev.ID, bobID, EventChanges{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateEvent_InvalidChangesLeaveEventUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.seedEvent(t, 10, 0, 48*time.Hour)
	_, err := f.svc.CreateBooking(ctx, ev.ID, aliceID, 3)
	require.NoError(t, err)

	blank, four, two, title := "   ", 4, 2, "Renamed"
	cases := []struct {
		name string
		ch   EventChanges
		want error
	}{
		{"blank title with capacity", EventChanges{Title: &blank, Capacity: &four}, ErrInvalidEvent},
		{"capacity below sold with title", EventChanges{Title: &title, Capacity: &two}, ErrCapacityBelowSold},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.UpdateEvent(ctx, ev.ID, hostID, tc.ch)
			assert.ErrorIs(t, err, tc.want)

			got, err := f.store.GetEvent(ctx, ev.ID)
			require.NoError(t, err)
			assert.Equal(t, 10, got.Capacity)
			assert.Equal(t, 7, got.TicketsAvailable)
			assert.Equal(t, ev.Title, got.Title)
		})
	}
}

func TestDeactivateEvent_RequiresHost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.seedEvent(t, 10, 1000, 48*time.Hour)

	assert.ErrorIs(t, f.svc.DeactivateEvent(ctx, ev.ID, aliceID), ErrForbidden)
	require.NoError(t, f.svc.DeactivateEvent(ctx, ev.ID, hostID))

	got, err := f.svc.Event(ctx, ev.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestReleaseUserBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soon := f.seedEvent(t, 10, 1000, time.Hour)
	later := f.seedEvent(t, 10, 1000, 72*time.Hour)

	_, err := f.svc.CreateBooking(ctx, soon.ID, aliceID, 2)
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, later.ID, aliceID, 3)
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, later.ID, bobID, 1)
	require.NoError(t, err)

	n, err := f.svc.ReleaseUserBookings(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "cutoff does not apply")
	assert.Equal(t, 10, f.available(t, soon.ID))
	assert.Equal(t, 9, f.available(t, later.ID))
}

func TestMemoryStore_RollsBackFailedTransaction(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	ev := model.Event{Slug: "x", Capacity: 5, TicketsAvailable: 5, IsActive: true, StartsAt: t0.Add(time.Hour)}
	require.NoError(t, store.CreateEvent(ctx, &ev))

	err := store.WithTx(ctx, func(ctx context.Context) error {
		ok, err := store.ReserveTickets(ctx, ev.ID, 3, t0)
		require.NoError(t, err)
		require.True(t, ok)
		return ErrInventoryInvariant
	})
	assert.ErrorIs(t, err, ErrInventoryInvariant)

	got, err := store.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.TicketsAvailable)

	ok, err := store.ReleaseTickets(ctx, ev.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok, "availability never exceeds capacity")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "summer-fest-2026", Slugify("Summer Fest 2026"))
	assert.Equal(t, "a-b", Slugify("--A__b--"))
	assert.Equal(t, "event", Slugify("!!!"))
}
