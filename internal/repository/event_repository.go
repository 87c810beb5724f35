package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/eventmate/internal/ledger"
	"github.com/iliyamo/eventmate/internal/model"
)

// EventRepo persists events. Inventory changes are single guarded UPDATE
// statements so concurrent bookings can never oversell.
type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `e.id, e.host_id, e.city_id, e.title, e.slug, e.description, e.category, e.location,
	e.starts_at, e.ends_at, e.price_cents, e.capacity, e.tickets_available, e.is_active, e.is_featured,
	e.created_at, e.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner, extra ...any) (model.Event, error) {
	var (
		e      model.Event
		cityID sql.NullInt64
	)
	dest := []any{
		&e.ID, &e.HostID, &cityID, &e.Title, &e.Slug, &e.Description, &e.Category, &e.Location,
		&e.StartsAt, &e.EndsAt, &e.PriceCents, &e.Capacity, &e.TicketsAvailable, &e.IsActive, &e.IsFeatured,
		&e.CreatedAt, &e.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return model.Event{}, err
	}
	if cityID.Valid {
		id := uint64(cityID.Int64)
		e.CityID = &id
	}
	return e, nil
}

// CreateEvent inserts e and fills its ID. A slug collision returns
// ledger.ErrSlugTaken so the caller can retry with another suffix.
func (r *EventRepo) CreateEvent(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events
		(host_id, city_id, title, slug, description, category, location, starts_at, ends_at,
		 price_cents, capacity, tickets_available, is_active, is_featured, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		e.HostID, e.CityID, e.Title, e.Slug, e.Description, e.Category, e.Location, e.StartsAt, e.EndsAt,
		e.PriceCents, e.Capacity, e.TicketsAvailable, e.IsActive, e.IsFeatured, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return ledger.ErrSlugTaken
		}
		return fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

func (r *EventRepo) GetEvent(ctx context.Context, id uint64) (model.Event, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = ?`, id)
	return eventOrNotFound(row)
}

func (r *EventRepo) GetEventBySlug(ctx context.Context, slug string) (model.Event, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.slug = ?`, slug)
	return eventOrNotFound(row)
}

func eventOrNotFound(row *sql.Row) (model.Event, error) {
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ledger.ErrEventNotFound
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ReserveTickets performs the conditional decrement. The WHERE clause is
// the whole availability check; no row is read beforehand.
func (r *EventRepo) ReserveTickets(ctx context.Context, eventID uint64, qty int, now time.Time) (bool, error) {
	const q = `UPDATE events SET tickets_available = tickets_available - ?
		WHERE id = ? AND is_active = 1 AND starts_at > ? AND tickets_available >= ?`
	return matched(conn(ctx, r.db).ExecContext(ctx, q, qty, eventID, now, qty))
}

func (r *EventRepo) ReleaseTickets(ctx context.Context, eventID uint64, qty int) (bool, error) {
	const q = `UPDATE events SET tickets_available = tickets_available + ?
		WHERE id = ? AND tickets_available + ? <= capacity`
	return matched(conn(ctx, r.db).ExecContext(ctx, q, qty, eventID, qty))
}

// SetCapacity keeps capacity - tickets_available constant. MySQL applies
// single-table assignments left to right, so tickets_available is computed
// from the old capacity.
func (r *EventRepo) SetCapacity(ctx context.Context, eventID uint64, capacity int) (bool, error) {
	const q = `UPDATE events
		SET tickets_available = ? - (capacity - tickets_available), capacity = ?
		WHERE id = ? AND capacity - tickets_available <= ?`
	return matched(conn(ctx, r.db).ExecContext(ctx, q, capacity, capacity, eventID, capacity))
}

func (r *EventRepo) SetEventActive(ctx context.Context, eventID uint64, active bool) error {
	ok, err := matched(conn(ctx, r.db).ExecContext(ctx, `UPDATE events SET is_active = ? WHERE id = ?`, active, eventID))
	if err != nil {
		return err
	}
	if !ok {
		return ledger.ErrEventNotFound
	}
	return nil
}

// UpdateDetails changes the descriptive fields of a host's event. It
// reports false when the event does not exist or belongs to another host.
func (r *EventRepo) UpdateDetails(ctx context.Context, e model.Event) (bool, error) {
	const q = `UPDATE events SET title = ?, description = ?, location = ?, is_featured = ?, updated_at = ?
		WHERE id = ? AND host_id = ?`
	return matched(conn(ctx, r.db).ExecContext(ctx, q, e.Title, e.Description, e.Location, e.IsFeatured, e.UpdatedAt, e.ID, e.HostID))
}

// DeactivateByHost soft-deletes every active event of a host and returns
// how many were changed.
func (r *EventRepo) DeactivateByHost(ctx context.Context, hostID uint64) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE events SET is_active = 0 WHERE host_id = ? AND is_active = 1`, hostID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// HostEventRow is an event together with the figures shown on the host
// dashboard.
type HostEventRow struct {
	model.Event
	ActiveBookings int      `json:"active_bookings"`
	AverageRating  *float64 `json:"average_rating"`
}

// ListByHost returns every event of a host, including inactive ones,
// most recent first.
func (r *EventRepo) ListByHost(ctx context.Context, hostID uint64) ([]HostEventRow, error) {
	q := `SELECT ` + eventColumns + `,
			(SELECT COUNT(*) FROM bookings b WHERE b.event_id = e.id AND b.status <> 'cancelled'),
			(SELECT AVG(rv.rating) FROM reviews rv WHERE rv.event_id = e.id)
		FROM events e
		WHERE e.host_id = ?
		ORDER BY e.created_at DESC, e.id DESC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []HostEventRow{}
	for rows.Next() {
		var (
			row HostEventRow
			avg sql.NullFloat64
		)
		row.Event, err = scanEvent(rows, &row.ActiveBookings, &avg)
		if err != nil {
			return nil, err
		}
		if avg.Valid {
			v := avg.Float64
			row.AverageRating = &v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
