package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/eventmate/internal/model"
)

type CityRepo struct {
	db *sql.DB
}

func NewCityRepo(db *sql.DB) *CityRepo { return &CityRepo{db: db} }

const cityColumns = "id, name, state, country, slug, is_featured"

// Upsert inserts the city or returns the ID of the existing one with the
// same slug.
func (r *CityRepo) Upsert(ctx context.Context, c model.City) (uint64, error) {
	const q = `INSERT INTO cities (name, state, country, slug, is_featured) VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, c.Name, c.State, c.Country, c.Slug, c.IsFeatured)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// List returns all cities, featured first.
func (r *CityRepo) List(ctx context.Context) ([]model.City, error) {
	return r.query(ctx, `SELECT `+cityColumns+` FROM cities ORDER BY is_featured DESC, name ASC`)
}

func (r *CityRepo) GetBySlug(ctx context.Context, slug string) (model.City, error) {
	var c model.City
	err := r.db.QueryRowContext(ctx, `SELECT `+cityColumns+` FROM cities WHERE slug = ?`, slug).
		Scan(&c.ID, &c.Name, &c.State, &c.Country, &c.Slug, &c.IsFeatured)
	if errors.Is(err, sql.ErrNoRows) {
		return model.City{}, ErrCityNotFound
	}
	return c, err
}

// SuggestCities returns up to limit cities whose name starts with prefix.
func (r *CityRepo) SuggestCities(ctx context.Context, prefix string, limit int) ([]model.City, error) {
	return r.query(ctx, `SELECT `+cityColumns+` FROM cities WHERE LOWER(name) LIKE ? ORDER BY name ASC LIMIT ?`,
		strings.ToLower(prefix)+"%", limit)
}

func (r *CityRepo) query(ctx context.Context, q string, args ...any) ([]model.City, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.City{}
	for rows.Next() {
		var c model.City
		if err := rows.Scan(&c.ID, &c.Name, &c.State, &c.Country, &c.Slug, &c.IsFeatured); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
