package domain

import "time"

// DiveSite is a point of interest fetched from the dive-site directory and
// cached locally on first view. ID matches the directory's site id.
// Cached rows are reference data and are never updated.
type DiveSite struct {
	ID          int64
	Name        string
	Lat         float64
	Lng         float64
	Description string
	Location    string // "City, Country" from reverse geocoding
	CreatedAt   time.Time
}
