package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/repo"
)

// JournalService manages a user's log of completed dives.
// Every operation is scoped to the acting user; another user's entry is
// reported as domain.ErrNotFound.
type JournalService struct {
	entries repo.JournalRepo
	sites   repo.DiveSiteRepo
}

// NewJournalService constructs a JournalService.
func NewJournalService(entries repo.JournalRepo, sites repo.DiveSiteRepo) *JournalService {
	return &JournalService{entries: entries, sites: sites}
}

// List returns the user's entries, newest first.
func (s *JournalService) List(ctx context.Context, userID int64) ([]domain.JournalEntry, error) {
	entries, err := s.entries.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.JournalService.List: %w", err)
	}
	return entries, nil
}

// Get returns one of the user's entries with its site.
func (s *JournalService) Get(ctx context.Context, userID, entryID int64) (domain.JournalEntry, error) {
	entry, err := s.entries.GetByID(ctx, userID, entryID)
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("service.JournalService.Get: %w", err)
	}
	return entry, nil
}

// SiteForNewEntry returns the site a new entry would be written for.
// Returns domain.ErrConflict if the user already journaled it and
// domain.ErrNotFound if the site is not cached.
func (s *JournalService) SiteForNewEntry(ctx context.Context, userID, siteID int64) (domain.DiveSite, error) {
	if err := s.ensureNoEntry(ctx, userID, siteID); err != nil {
		return domain.DiveSite{}, fmt.Errorf("service.JournalService.SiteForNewEntry: %w", err)
	}
	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return domain.DiveSite{}, fmt.Errorf("service.JournalService.SiteForNewEntry: %w", err)
	}
	return site, nil
}

// Add creates the user's entry for a site.
// Returns domain.ErrValidation for a rating outside 1..5, domain.ErrConflict
// if the user already has an entry for the site and domain.ErrNotFound if the
// site is not cached.
func (s *JournalService) Add(ctx context.Context, userID, siteID int64, in domain.JournalInput) (domain.JournalEntry, error) {
	in, err := normalizeJournal(in)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	if err := s.ensureNoEntry(ctx, userID, siteID); err != nil {
		return domain.JournalEntry{}, fmt.Errorf("service.JournalService.Add: %w", err)
	}

	entry, err := s.entries.Create(ctx, domain.JournalEntry{
		UserID:      userID,
		DiveSiteID:  siteID,
		Description: in.Description,
		Notes:       in.Notes,
		Rating:      in.Rating,
	})
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("service.JournalService.Add: %w", err)
	}
	return entry, nil
}

// Update replaces description, notes and rating of one of the user's entries.
func (s *JournalService) Update(ctx context.Context, userID, entryID int64, in domain.JournalInput) (domain.JournalEntry, error) {
	in, err := normalizeJournal(in)
	if err != nil {
		return domain.JournalEntry{}, err
	}

	entry, err := s.entries.Update(ctx, domain.JournalEntry{
		ID:          entryID,
		UserID:      userID,
		Description: in.Description,
		Notes:       in.Notes,
		Rating:      in.Rating,
	})
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("service.JournalService.Update: %w", err)
	}
	return entry, nil
}

// Delete removes one of the user's entries.
func (s *JournalService) Delete(ctx context.Context, userID, entryID int64) error {
	if err := s.entries.Delete(ctx, userID, entryID); err != nil {
		return fmt.Errorf("service.JournalService.Delete: %w", err)
	}
	return nil
}

func (s *JournalService) ensureNoEntry(ctx context.Context, userID, siteID int64) error {
	exists, err := s.entries.ExistsForSite(ctx, userID, siteID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrConflict
	}
	return nil
}

func normalizeJournal(in domain.JournalInput) (domain.JournalInput, error) {
	if in.Rating < domain.MinRating || in.Rating > domain.MaxRating {
		return in, fmt.Errorf("%w: rating must be between %d and %d", domain.ErrValidation, domain.MinRating, domain.MaxRating)
	}
	in.Description = strings.TrimSpace(in.Description)
	in.Notes = strings.TrimSpace(in.Notes)
	return in, nil
}
