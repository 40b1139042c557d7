package domain

import "time"

// Rating bounds for journal entries.
const (
	MinRating = 1
	MaxRating = 5
)

// JournalEntry is a completed dive at a site, owned by exactly one user.
// Description is public; Notes are private to the owner.
// Site is populated by reads that join dive_sites and is zero on writes.
type JournalEntry struct {
	ID          int64
	UserID      int64
	DiveSiteID  int64
	Description string
	Notes       string
	Rating      int
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Site DiveSite
}

// JournalInput carries the editable fields of a journal entry.
// An edit replaces all three fields.
type JournalInput struct {
	Description string
	Notes       string
	Rating      int
}
