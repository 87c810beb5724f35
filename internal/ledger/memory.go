package ledger

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/iliyamo/eventmate/internal/model"
)

type pairKey struct{ user, event uint64 }

type memTxKey struct{}

// MemoryStore is an in-process Store. Transactions are serialised by a
// single mutex and rolled back by restoring a snapshot, so it reproduces
// the all-or-nothing behaviour of the SQL store.
type MemoryStore struct {
	mu sync.Mutex

	nextID    uint64
	events    map[uint64]model.Event
	slugs     map[string]uint64
	bookings  map[uint64]model.Booking
	reviews   map[uint64]model.Review
	reviewed  map[pairKey]uint64
	favorites map[pairKey]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:    map[uint64]model.Event{},
		slugs:     map[string]uint64{},
		bookings:  map[uint64]model.Booking{},
		reviews:   map[uint64]model.Review{},
		reviewed:  map[pairKey]uint64{},
		favorites: map[pairKey]time.Time{},
	}
}

type memSnapshot struct {
	nextID    uint64
	events    map[uint64]model.Event
	slugs     map[string]uint64
	bookings  map[uint64]model.Booking
	reviews   map[uint64]model.Review
	reviewed  map[pairKey]uint64
	favorites map[pairKey]time.Time
}

func (m *MemoryStore) snapshot() memSnapshot {
	return memSnapshot{
		nextID:    m.nextID,
		events:    maps.Clone(m.events),
		slugs:     maps.Clone(m.slugs),
		bookings:  maps.Clone(m.bookings),
		reviews:   maps.Clone(m.reviews),
		reviewed:  maps.Clone(m.reviewed),
		favorites: maps.Clone(m.favorites),
	}
}

func (m *MemoryStore) restore(s memSnapshot) {
	m.nextID = s.nextID
	m.events = s.events
	m.slugs = s.slugs
	m.bookings = s.bookings
	m.reviews = s.reviews
	m.reviewed = s.reviewed
	m.favorites = s.favorites
}

func (m *MemoryStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.inTx(ctx) {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, m)); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *MemoryStore) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(memTxKey{}).(*MemoryStore)
	return owner == m
}

// lock acquires the mutex unless ctx already runs inside a transaction of
// this store, which holds it.
func (m *MemoryStore) lock(ctx context.Context) func() {
	if m.inTx(ctx) {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *MemoryStore) id() uint64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) CreateEvent(ctx context.Context, e *model.Event) error {
	defer m.lock(ctx)()
	if _, taken := m.slugs[e.Slug]; taken {
		return ErrSlugTaken
	}
	e.ID = m.id()
	m.events[e.ID] = *e
	m.slugs[e.Slug] = e.ID
	return nil
}

func (m *MemoryStore) GetEvent(ctx context.Context, id uint64) (model.Event, error) {
	defer m.lock(ctx)()
	ev, ok := m.events[id]
	if !ok {
		return model.Event{}, ErrEventNotFound
	}
	return ev, nil
}

func (m *MemoryStore) GetEventBySlug(ctx context.Context, slug string) (model.Event, error) {
	defer m.lock(ctx)()
	id, ok := m.slugs[slug]
	if !ok {
		return model.Event{}, ErrEventNotFound
	}
	return m.events[id], nil
}

func (m *MemoryStore) ReserveTickets(ctx context.Context, eventID uint64, qty int, now time.Time) (bool, error) {
	defer m.lock(ctx)()
	ev, ok := m.events[eventID]
	if !ok || !ev.Bookable(now) || ev.TicketsAvailable < qty {
		return false, nil
	}
	ev.TicketsAvailable -= qty
	ev.UpdatedAt = now
	m.events[eventID] = ev
	return true, nil
}

func (m *MemoryStore) ReleaseTickets(ctx context.Context, eventID uint64, qty int) (bool, error) {
	defer m.lock(ctx)()
	ev, ok := m.events[eventID]
	if !ok || ev.TicketsAvailable+qty > ev.Capacity {
		return false, nil
	}
	ev.TicketsAvailable += qty
	m.events[eventID] = ev
	return true, nil
}

func (m *MemoryStore) SetCapacity(ctx context.Context, eventID uint64, capacity int) (bool, error) {
	defer m.lock(ctx)()
	ev, ok := m.events[eventID]
	if !ok || capacity < ev.Sold() {
		return false, nil
	}
	ev.TicketsAvailable = capacity - ev.Sold()
	ev.Capacity = capacity
	m.events[eventID] = ev
	return true, nil
}

func (m *MemoryStore) SetEventActive(ctx context.Context, eventID uint64, active bool) error {
	defer m.lock(ctx)()
	ev, ok := m.events[eventID]
	if !ok {
		return ErrEventNotFound
	}
	ev.IsActive = active
	m.events[eventID] = ev
	return nil
}

func (m *MemoryStore) UpdateDetails(ctx context.Context, e model.Event) (bool, error) {
	defer m.lock(ctx)()
	ev, ok := m.events[e.ID]
	if !ok || ev.HostID != e.HostID {
		return false, nil
	}
	ev.Title = e.Title
	ev.Description = e.Description
	ev.Location = e.Location
	ev.IsFeatured = e.IsFeatured
	ev.UpdatedAt = e.UpdatedAt
	m.events[e.ID] = ev
	return true, nil
}

func (m *MemoryStore) CreateBooking(ctx context.Context, b *model.Booking) error {
	defer m.lock(ctx)()
	b.ID = m.id()
	m.bookings[b.ID] = *b
	return nil
}

func (m *MemoryStore) GetBooking(ctx context.Context, id uint64) (model.Booking, error) {
	defer m.lock(ctx)()
	b, ok := m.bookings[id]
	if !ok {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, nil
}

func (m *MemoryStore) ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	defer m.lock(ctx)()
	var out []model.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b model.Booking) int { return cmpDesc(a.ID, b.ID) })
	return out, nil
}

func (m *MemoryStore) TransitionBooking(ctx context.Context, id uint64, from []model.BookingStatus, next model.BookingStatus, refundPercent int, now time.Time) (bool, error) {
	defer m.lock(ctx)()
	b, ok := m.bookings[id]
	if !ok || !slices.Contains(from, b.Status) {
		return false, nil
	}
	b.Status = next
	if next == model.BookingCancelled {
		b.RefundPercent = refundPercent
	}
	b.UpdatedAt = now
	m.bookings[id] = b
	return true, nil
}

func (m *MemoryStore) MarkPaid(ctx context.Context, id uint64, paymentRef string, now time.Time) (bool, error) {
	defer m.lock(ctx)()
	b, ok := m.bookings[id]
	if !ok || b.Status != model.BookingPending {
		return false, nil
	}
	b.Status = model.BookingConfirmed
	b.IsPaid = true
	b.PaymentRef = &paymentRef
	b.UpdatedAt = now
	m.bookings[id] = b
	return true, nil
}

func (m *MemoryStore) CompleteEnded(ctx context.Context, now time.Time, hostID uint64) (int64, error) {
	defer m.lock(ctx)()
	var n int64
	for id, b := range m.bookings {
		if b.Status != model.BookingConfirmed {
			continue
		}
		ev, ok := m.events[b.EventID]
		if !ok || ev.EndsAt.After(now) || (hostID != 0 && ev.HostID != hostID) {
			continue
		}
		b.Status = model.BookingCompleted
		b.UpdatedAt = now
		m.bookings[id] = b
		n++
	}
	return n, nil
}

func (m *MemoryStore) HasCompletedBooking(ctx context.Context, userID, eventID uint64) (bool, error) {
	defer m.lock(ctx)()
	for _, b := range m.bookings {
		if b.UserID == userID && b.EventID == eventID && b.Status == model.BookingCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) CreateReview(ctx context.Context, r *model.Review) error {
	defer m.lock(ctx)()
	key := pairKey{r.UserID, r.EventID}
	if _, dup := m.reviewed[key]; dup {
		return ErrDuplicateReview
	}
	r.ID = m.id()
	m.reviews[r.ID] = *r
	m.reviewed[key] = r.ID
	return nil
}

func (m *MemoryStore) ReviewExists(ctx context.Context, userID, eventID uint64) (bool, error) {
	defer m.lock(ctx)()
	_, ok := m.reviewed[pairKey{userID, eventID}]
	return ok, nil
}

func (m *MemoryStore) RatingTotals(ctx context.Context, eventID uint64) (int, int, error) {
	defer m.lock(ctx)()
	sum, count := 0, 0
	for _, r := range m.reviews {
		if r.EventID == eventID {
			sum += r.Rating
			count++
		}
	}
	return sum, count, nil
}

func (m *MemoryStore) AddFavorite(ctx context.Context, userID, eventID uint64, at time.Time) error {
	defer m.lock(ctx)()
	key := pairKey{userID, eventID}
	if _, ok := m.favorites[key]; !ok {
		m.favorites[key] = at
	}
	return nil
}

func (m *MemoryStore) RemoveFavorite(ctx context.Context, userID, eventID uint64) (bool, error) {
	defer m.lock(ctx)()
	key := pairKey{userID, eventID}
	if _, ok := m.favorites[key]; !ok {
		return false, nil
	}
	delete(m.favorites, key)
	return true, nil
}

func (m *MemoryStore) ListFavorites(ctx context.Context, userID uint64) ([]model.Favorite, error) {
	defer m.lock(ctx)()
	var out []model.Favorite
	for k, at := range m.favorites {
		if k.user == userID {
			out = append(out, model.Favorite{UserID: k.user, EventID: k.event, CreatedAt: at})
		}
	}
	slices.SortFunc(out, func(a, b model.Favorite) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmpDesc(a.EventID, b.EventID)
	})
	return out, nil
}

func cmpDesc(a, b uint64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

var _ Store = (*MemoryStore)(nil)
