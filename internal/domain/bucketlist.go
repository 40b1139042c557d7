package domain

import "time"

// BucketListEntry records that a user intends to dive a site.
// A (UserID, DiveSiteID) pair appears at most once.
type BucketListEntry struct {
	ID         int64
	UserID     int64
	DiveSiteID int64
	CreatedAt  time.Time
}
