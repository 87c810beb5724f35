package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/eventmate/internal/model"
)

type FavoriteRepo struct {
	db *sql.DB
}

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

// AddFavorite relies on the (user_id, event_id) primary key; an existing
// pair is left untouched.
func (r *FavoriteRepo) AddFavorite(ctx context.Context, userID, eventID uint64, at time.Time) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT IGNORE INTO favorites (user_id, event_id, created_at) VALUES (?, ?, ?)`, userID, eventID, at)
	return err
}

func (r *FavoriteRepo) RemoveFavorite(ctx context.Context, userID, eventID uint64) (bool, error) {
	return matched(conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND event_id = ?`, userID, eventID))
}

func (r *FavoriteRepo) ListFavorites(ctx context.Context, userID uint64) ([]model.Favorite, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT user_id, event_id, created_at FROM favorites WHERE user_id = ? ORDER BY created_at DESC, event_id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Favorite{}
	for rows.Next() {
		var f model.Favorite
		if err := rows.Scan(&f.UserID, &f.EventID, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
