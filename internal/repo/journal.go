package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/dive-logbook/internal/domain"
)

// JournalRepo defines the persistence operations for journal entries.
// Reads and writes of a single entry are scoped by userID to enforce ownership:
// an entry owned by someone else behaves exactly like a missing one.
type JournalRepo interface {
	// Create inserts a new entry and returns the persisted record (Site is zero).
	// Returns domain.ErrConflict if the user already has an entry for the site
	// and domain.ErrNotFound if the user or site does not exist.
	Create(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error)

	// GetByID retrieves one entry with its dive site populated.
	// Returns domain.ErrNotFound if no such entry exists for that user.
	GetByID(ctx context.Context, userID, entryID int64) (domain.JournalEntry, error)

	// ListByUser returns all of a user's entries with sites populated,
	// most recently created first.
	ListByUser(ctx context.Context, userID int64) ([]domain.JournalEntry, error)

	// ExistsForSite reports whether the user already has an entry for the site.
	ExistsForSite(ctx context.Context, userID, siteID int64) (bool, error)

	// Update replaces description, notes and rating of an entry.
	// Returns domain.ErrNotFound if no such entry exists for that user.
	Update(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error)

	// Delete removes an entry.
	// Returns domain.ErrNotFound if no such entry exists for that user.
	Delete(ctx context.Context, userID, entryID int64) error
}

// pgJournalRepo is the Postgres implementation of JournalRepo.
type pgJournalRepo struct {
	db db
}

// NewJournalRepo constructs a JournalRepo backed by the provided db connection.
func NewJournalRepo(db db) JournalRepo {
	return &pgJournalRepo{db: db}
}

const journalColumns = `id, user_id, dive_site_id, description, notes, rating, created_at, updated_at`

// journalWithSiteSelect joins the owning site so list and detail views can
// show the site name and location without a second query.
const journalWithSiteSelect = `
	SELECT j.id, j.user_id, j.dive_site_id, j.description, j.notes, j.rating, j.created_at, j.updated_at,
	       d.id, d.name, d.lat, d.lng, d.description, d.location, d.created_at
	FROM journal_entries j
	JOIN dive_sites d ON d.id = j.dive_site_id`

func (r *pgJournalRepo) Create(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error) {
	const q = `
		INSERT INTO journal_entries (dive_site_id, description, notes, rating, user_id)
		VALUES (@site_id, @description, @notes, @rating, @user_id)
		RETURNING ` + journalColumns

	args := pgx.NamedArgs{
		"site_id":     entry.DiveSiteID,
		"description": entry.Description,
		"notes":       entry.Notes,
		"rating":      entry.Rating,
		"user_id":     entry.UserID,
	}

	result, err := scanJournalEntry(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("repo.JournalRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgJournalRepo) GetByID(ctx context.Context, userID, entryID int64) (domain.JournalEntry, error) {
	const q = journalWithSiteSelect + `
	WHERE j.id = @id AND j.user_id = @user_id`

	result, err := scanJournalEntryWithSite(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": entryID, "user_id": userID}))
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("repo.JournalRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgJournalRepo) ListByUser(ctx context.Context, userID int64) ([]domain.JournalEntry, error) {
	const q = journalWithSiteSelect + `
	WHERE j.user_id = @user_id
	ORDER BY j.created_at DESC, j.id DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.JournalRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		e, err := scanJournalEntryWithSite(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.JournalRepo.ListByUser: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.JournalRepo.ListByUser: rows: %w", err)
	}
	return entries, nil
}

func (r *pgJournalRepo) ExistsForSite(ctx context.Context, userID, siteID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM journal_entries
			WHERE user_id = @user_id AND dive_site_id = @site_id
		)`

	var exists bool
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID, "site_id": siteID}).Scan(&exists); err != nil {
		return false, fmt.Errorf("repo.JournalRepo.ExistsForSite: %w", err)
	}
	return exists, nil
}

func (r *pgJournalRepo) Update(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error) {
	const q = `
		UPDATE journal_entries
		SET description = @description,
		    notes       = @notes,
		    rating      = @rating,
		    updated_at  = now()
		WHERE id = @id AND user_id = @user_id
		RETURNING ` + journalColumns

	args := pgx.NamedArgs{
		"id":          entry.ID,
		"user_id":     entry.UserID,
		"description": entry.Description,
		"notes":       entry.Notes,
		"rating":      entry.Rating,
	}

	result, err := scanJournalEntry(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("repo.JournalRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgJournalRepo) Delete(ctx context.Context, userID, entryID int64) error {
	const q = `DELETE FROM journal_entries WHERE id = @id AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": entryID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.JournalRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.JournalRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanJournalEntry(s scanner) (domain.JournalEntry, error) {
	var e domain.JournalEntry
	err := s.Scan(&e.ID, &e.UserID, &e.DiveSiteID, &e.Description, &e.Notes, &e.Rating, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return domain.JournalEntry{}, mapError(err)
	}
	return e, nil
}

func scanJournalEntryWithSite(s scanner) (domain.JournalEntry, error) {
	var e domain.JournalEntry
	err := s.Scan(
		&e.ID, &e.UserID, &e.DiveSiteID, &e.Description, &e.Notes, &e.Rating, &e.CreatedAt, &e.UpdatedAt,
		&e.Site.ID, &e.Site.Name, &e.Site.Lat, &e.Site.Lng, &e.Site.Description, &e.Site.Location, &e.Site.CreatedAt,
	)
	if err != nil {
		return domain.JournalEntry{}, mapError(err)
	}
	return e, nil
}
