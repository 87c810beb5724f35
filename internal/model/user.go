package model

import "time"

// Role names carried in the JWT "role" claim.
const (
	RoleUser = "USER"
	RoleHost = "HOST"
)

// User represents an application user record as stored in the
// `users` table. Hosts may publish events; every user may book,
// review and favorite them.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  Username     – display name.
//  PasswordHash – bcrypt hashed password.
//  IsHost       – whether the user may publish events.
//  IsActive     – false once the account has been deleted.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	IsHost       bool      // users.is_host
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Role returns the role claim issued for the user.
func (u User) Role() string {
	if u.IsHost {
		return RoleHost
	}
	return RoleUser
}
