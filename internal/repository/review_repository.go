package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/eventmate/internal/ledger"
	"github.com/iliyamo/eventmate/internal/model"
)

// ReviewRepo persists reviews. The unique (user_id, event_id) key is the
// final guard against duplicate reviews.
type ReviewRepo struct {
	db *sql.DB
}

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

func (r *ReviewRepo) CreateReview(ctx context.Context, rv *model.Review) error {
	const q = `INSERT INTO reviews (event_id, user_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, rv.EventID, rv.UserID, rv.Rating, rv.Comment, rv.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return ledger.ErrDuplicateReview
		}
		return fmt.Errorf("insert review: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return nil
}

func (r *ReviewRepo) ReviewExists(ctx context.Context, userID, eventID uint64) (bool, error) {
	var ok bool
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM reviews WHERE user_id = ? AND event_id = ?)`, userID, eventID).Scan(&ok)
	return ok, err
}

func (r *ReviewRepo) RatingTotals(ctx context.Context, eventID uint64) (int, int, error) {
	var sum, count int
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT COALESCE(SUM(rating), 0), COUNT(*) FROM reviews WHERE event_id = ?`, eventID).Scan(&sum, &count)
	return sum, count, err
}

// ListReviews returns the reviews of an event, newest first.
func (r *ReviewRepo) ListReviews(ctx context.Context, eventID uint64) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, user_id, rating, comment, created_at FROM reviews WHERE event_id = ? ORDER BY created_at DESC, id DESC`,
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Review{}
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.EventID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
