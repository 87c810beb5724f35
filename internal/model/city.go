package model

// City groups events by where they take place.
type City struct {
	ID         uint64 `json:"id"`          // cities.id
	Name       string `json:"name"`        // cities.name
	State      string `json:"state"`       // cities.state
	Country    string `json:"country"`     // cities.country
	Slug       string `json:"slug"`        // cities.slug
	IsFeatured bool   `json:"is_featured"` // cities.is_featured
}
