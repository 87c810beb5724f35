package model

import "time"

// Review is a user's rating of an event they attended. At most one
// review exists per (UserID, EventID).
type Review struct {
	ID        uint64    `json:"id"`         // reviews.id
	EventID   uint64    `json:"event_id"`   // reviews.event_id
	UserID    uint64    `json:"user_id"`    // reviews.user_id
	Rating    int       `json:"rating"`     // reviews.rating (1..5)
	Comment   string    `json:"comment"`    // reviews.comment
	CreatedAt time.Time `json:"created_at"` // reviews.created_at
}

// Favorite marks an event on a user's wishlist.
type Favorite struct {
	UserID    uint64    `json:"user_id"`    // favorites.user_id
	EventID   uint64    `json:"event_id"`   // favorites.event_id
	CreatedAt time.Time `json:"created_at"` // favorites.created_at
}
