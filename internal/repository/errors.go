// Package repository implements MySQL persistence. The ledger tables
// (events, bookings, reviews, favorites) satisfy ledger.Store through
// Store; users, cities and the public catalog queries are used directly by
// handlers.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrEmailExists is returned when registering an email that is already
// in use. Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrCityNotFound is returned when no city matches the lookup.
var ErrCityNotFound = errors.New("city not found")

// isDuplicate reports whether err is a MySQL duplicate-key violation.
func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}
