package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/eventmate/internal/ledger"
	"github.com/iliyamo/eventmate/internal/model"
)

// BookingRepo persists bookings. Status changes are conditional on the
// current status so a booking cannot be cancelled or paid twice.
type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, event_id, user_id, quantity, total_cents, status, payment_ref, is_paid,
	refund_percent, created_at, updated_at`

func scanBooking(s scanner) (model.Booking, error) {
	var (
		b   model.Booking
		ref sql.NullString
	)
	err := s.Scan(&b.ID, &b.EventID, &b.UserID, &b.Quantity, &b.TotalCents, &b.Status, &ref, &b.IsPaid,
		&b.RefundPercent, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	if ref.Valid {
		pr := ref.String
		b.PaymentRef = &pr
	}
	return b, nil
}

func (r *BookingRepo) CreateBooking(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (event_id, user_id, quantity, total_cents, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, b.EventID, b.UserID, b.Quantity, b.TotalCents, b.Status, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

func (r *BookingRepo) GetBooking(ctx context.Context, id uint64) (model.Booking, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ledger.ErrBookingNotFound
	}
	if err != nil {
		return model.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (r *BookingRepo) ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BookingRepo) TransitionBooking(ctx context.Context, id uint64, from []model.BookingStatus, next model.BookingStatus, refundPercent int, now time.Time) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	set := "status = ?, updated_at = ?"
	args := []any{next, now}
	if next == model.BookingCancelled {
		set += ", refund_percent = ?"
		args = append(args, refundPercent)
	}
	args = append(args, id)
	for _, s := range from {
		args = append(args, s)
	}
	q := `UPDATE bookings SET ` + set + ` WHERE id = ? AND status IN (?` + strings.Repeat(", ?", len(from)-1) + `)`
	return matched(conn(ctx, r.db).ExecContext(ctx, q, args...))
}

func (r *BookingRepo) MarkPaid(ctx context.Context, id uint64, paymentRef string, now time.Time) (bool, error) {
	const q = `UPDATE bookings SET status = 'confirmed', is_paid = 1, payment_ref = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`
	return matched(conn(ctx, r.db).ExecContext(ctx, q, paymentRef, now, id))
}

func (r *BookingRepo) CompleteEnded(ctx context.Context, now time.Time, hostID uint64) (int64, error) {
	const q = `UPDATE bookings b
		JOIN events e ON e.id = b.event_id
		SET b.status = 'completed', b.updated_at = ?
		WHERE b.status = 'confirmed' AND e.ends_at <= ? AND (? = 0 OR e.host_id = ?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, now, now, hostID, hostID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *BookingRepo) HasCompletedBooking(ctx context.Context, userID, eventID uint64) (bool, error) {
	var ok bool
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE user_id = ? AND event_id = ? AND status = 'completed')`,
		userID, eventID).Scan(&ok)
	return ok, err
}
