package repository

import (
	"context"
	"database/sql"
)

// Stats are the counters exposed on /metrics.
type Stats struct {
	ActiveEvents      int64 `json:"active_events"`
	TotalUsers        int64 `json:"total_users"`
	TotalBookings     int64 `json:"total_bookings"`
	PendingBookings   int64 `json:"pending_bookings"`
	ConfirmedBookings int64 `json:"confirmed_bookings"`
}

type StatsRepo struct {
	db *sql.DB
}

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

func (r *StatsRepo) Counts(ctx context.Context) (Stats, error) {
	const q = `SELECT
		(SELECT COUNT(*) FROM events WHERE is_active = 1),
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM bookings),
		(SELECT COUNT(*) FROM bookings WHERE status = 'pending'),
		(SELECT COUNT(*) FROM bookings WHERE status = 'confirmed')`
	var s Stats
	err := r.db.QueryRowContext(ctx, q).Scan(
		&s.ActiveEvents, &s.TotalUsers, &s.TotalBookings, &s.PendingBookings, &s.ConfirmedBookings)
	return s, err
}
