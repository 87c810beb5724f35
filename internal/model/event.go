package model

import "time"

// Event is a bookable listing with a fixed capacity and schedule.
//
// Fields:
//  ID               – primary key identifier.
//  HostID           – user who created the listing.
//  CityID           – optional city the event takes place in.
//  Slug             – unique URL-friendly identifier derived from Title.
//  StartsAt/EndsAt  – schedule in UTC; EndsAt is never before StartsAt.
//  PriceCents       – ticket price in cents (non-negative).
//  Capacity         – total number of tickets for the event.
//  TicketsAvailable – tickets that can still be booked, 0..Capacity.
//  IsActive         – false once the host soft-deletes the event.
type Event struct {
	ID               uint64    `json:"id"`                // events.id
	HostID           uint64    `json:"host_id"`           // events.host_id
	CityID           *uint64   `json:"city_id,omitempty"` // events.city_id (nullable)
	Title            string    `json:"title"`             // events.title
	Slug             string    `json:"slug"`              // events.slug
	Description      string    `json:"description"`       // events.description
	Category         string    `json:"category"`          // events.category
	Location         string    `json:"location"`          // events.location
	StartsAt         time.Time `json:"starts_at"`         // events.starts_at
	EndsAt           time.Time `json:"ends_at"`           // events.ends_at
	PriceCents       int64     `json:"price_cents"`       // events.price_cents
	Capacity         int       `json:"capacity"`          // events.capacity
	TicketsAvailable int       `json:"tickets_available"` // events.tickets_available
	IsActive         bool      `json:"is_active"`         // events.is_active
	IsFeatured       bool      `json:"is_featured"`       // events.is_featured
	CreatedAt        time.Time `json:"created_at"`        // events.created_at
	UpdatedAt        time.Time `json:"updated_at"`        // events.updated_at
}

// Categories lists the accepted values for Event.Category.
var Categories = []string{"music", "sports", "arts", "food", "business", "tech", "wellness"}

// ValidCategory reports whether c is one of Categories.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Sold returns the number of tickets held by non-cancelled bookings.
func (e Event) Sold() int { return e.Capacity - e.TicketsAvailable }

// SoldOut reports whether no tickets remain.
func (e Event) SoldOut() bool { return e.TicketsAvailable <= 0 }

// Bookable reports whether the event accepts new bookings at now.
func (e Event) Bookable(now time.Time) bool { return e.IsActive && now.Before(e.StartsAt) }
