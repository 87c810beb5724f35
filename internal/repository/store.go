package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/eventmate/internal/ledger"
)

// Store combines the ledger repositories behind one transaction boundary.
type Store struct {
	*EventRepo
	*BookingRepo
	*ReviewRepo
	*FavoriteRepo

	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		EventRepo:    NewEventRepo(db),
		BookingRepo:  NewBookingRepo(db),
		ReviewRepo:   NewReviewRepo(db),
		FavoriteRepo: NewFavoriteRepo(db),
		db:           db,
	}
}

// WithTx runs fn in a transaction; repositories called with the context
// passed to fn join it.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.db, fn)
}

// WithTx exposes the transaction helper to callers that combine user and
// ledger writes, such as account deletion.
func (r *UserRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.DB, fn)
}

var _ ledger.Store = (*Store)(nil)
