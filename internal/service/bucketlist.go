package service

import (
	"context"
	"fmt"

	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/repo"
)

// BucketListService manages a user's wishlist of dive sites.
type BucketListService struct {
	entries repo.BucketListRepo
	sites   repo.DiveSiteRepo
}

// NewBucketListService constructs a BucketListService.
func NewBucketListService(entries repo.BucketListRepo, sites repo.DiveSiteRepo) *BucketListService {
	return &BucketListService{entries: entries, sites: sites}
}

// List returns the sites on the user's bucket list.
func (s *BucketListService) List(ctx context.Context, userID int64) ([]domain.DiveSite, error) {
	sites, err := s.entries.ListSites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.BucketListService.List: %w", err)
	}
	return sites, nil
}

// Add puts a cached site on the user's bucket list.
// Returns domain.ErrConflict if it is already there and domain.ErrNotFound
// if the site has never been viewed (and so is not cached).
func (s *BucketListService) Add(ctx context.Context, userID, siteID int64) (domain.BucketListEntry, error) {
	exists, err := s.entries.Exists(ctx, userID, siteID)
	if err != nil {
		return domain.BucketListEntry{}, fmt.Errorf("service.BucketListService.Add: %w", err)
	}
	if exists {
		return domain.BucketListEntry{}, fmt.Errorf("service.BucketListService.Add: %w", domain.ErrConflict)
	}

	if _, err := s.sites.GetByID(ctx, siteID); err != nil {
		return domain.BucketListEntry{}, fmt.Errorf("service.BucketListService.Add: site: %w", err)
	}

	// A concurrent add that slipped past Exists surfaces here as ErrConflict.
	entry, err := s.entries.Add(ctx, userID, siteID)
	if err != nil {
		return domain.BucketListEntry{}, fmt.Errorf("service.BucketListService.Add: %w", err)
	}
	return entry, nil
}

// Remove takes a site off the user's bucket list.
// Returns domain.ErrNotFound if it was not there.
func (s *BucketListService) Remove(ctx context.Context, userID, siteID int64) error {
	if err := s.entries.Remove(ctx, userID, siteID); err != nil {
		return fmt.Errorf("service.BucketListService.Remove: %w", err)
	}
	return nil
}
