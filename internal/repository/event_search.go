package repository

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/eventmate/internal/model"
)

// EventSearchQuery defines filters, ordering & pagination for the public
// event listing. Zero values disable a filter.
type EventSearchQuery struct {
	Q        string
	Location string
	Category string
	City     string // city slug
	Date     time.Time
	MinPrice *int64
	MaxPrice *int64
	Sort     string
	Page     int
	PageSize int
	Now      time.Time
}

// Sort keys accepted by SearchEvents.
var eventSorts = map[string]string{
	"newest":     "e.created_at DESC, e.id DESC",
	"price":      "e.price_cents ASC, e.starts_at ASC",
	"-price":     "e.price_cents DESC, e.starts_at ASC",
	"start_date": "e.starts_at ASC, e.id ASC",
	"popular":    "(e.capacity - e.tickets_available) DESC, e.starts_at ASC",
}

// ValidEventSort reports whether s is an accepted sort key.
func ValidEventSort(s string) bool {
	_, ok := eventSorts[s]
	return ok
}

// EventRow is a public listing entry.
type EventRow struct {
	model.Event
	CityName *string `json:"city,omitempty"`
}

// SearchEvents lists active, upcoming events matching q and returns the
// page together with the total number of matches.
func (r *EventRepo) SearchEvents(ctx context.Context, q EventSearchQuery) ([]EventRow, int64, error) {
	where := []string{"e.is_active = 1", "e.starts_at > ?"}
	args := []any{q.Now}

	if q.Q != "" {
		where = append(where, "(LOWER(e.title) LIKE ? OR LOWER(e.description) LIKE ?)")
		like := "%" + strings.ToLower(q.Q) + "%"
		args = append(args, like, like)
	}
	if q.Location != "" {
		where = append(where, "LOWER(e.location) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Location)+"%")
	}
	if q.Category != "" {
		where = append(where, "e.category = ?")
		args = append(args, strings.ToLower(q.Category))
	}
	if q.City != "" {
		where = append(where, "c.slug = ?")
		args = append(args, q.City)
	}
	if !q.Date.IsZero() {
		day := time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 0, 0, 0, 0, time.UTC)
		where = append(where, "e.starts_at >= ? AND e.starts_at < ?")
		args = append(args, day, day.AddDate(0, 0, 1))
	}
	if q.MinPrice != nil {
		where = append(where, "e.price_cents >= ?")
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		where = append(where, "e.price_cents <= ?")
		args = append(args, *q.MaxPrice)
	}
	cond := strings.Join(where, " AND ")

	order, ok := eventSorts[q.Sort]
	if !ok {
		order = eventSorts["start_date"]
	}

	var total int64
	countSQL := `SELECT COUNT(*)
		FROM events e
		LEFT JOIN cities c ON c.id = e.city_id
		WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT ` + eventColumns + `, c.name
		FROM events e
		LEFT JOIN cities c ON c.id = e.city_id
		WHERE ` + cond + `
		ORDER BY ` + order + `
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]EventRow, 0, limit)
	for rows.Next() {
		var d EventRow
		d.Event, err = scanEvent(rows, &d.CityName)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// EventSuggestion is an autocomplete entry.
type EventSuggestion struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// SuggestEvents returns up to limit upcoming active events whose title
// contains prefix.
func (r *EventRepo) SuggestEvents(ctx context.Context, prefix string, now time.Time, limit int) ([]EventSuggestion, error) {
	const q = `SELECT id, title, slug FROM events
		WHERE is_active = 1 AND starts_at > ? AND LOWER(title) LIKE ?
		ORDER BY starts_at ASC
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, now, "%"+strings.ToLower(prefix)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []EventSuggestion{}
	for rows.Next() {
		var s EventSuggestion
		if err := rows.Scan(&s.ID, &s.Title, &s.Slug); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
