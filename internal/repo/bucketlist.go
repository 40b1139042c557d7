package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/dive-logbook/internal/domain"
)

// BucketListRepo defines the persistence operations for bucket-list entries.
// Every operation is scoped by userID.
type BucketListRepo interface {
	// Add inserts a (user, site) pair.
	// Returns domain.ErrConflict if the pair already exists and
	// domain.ErrNotFound if the user or site does not exist.
	Add(ctx context.Context, userID, siteID int64) (domain.BucketListEntry, error)

	// Exists reports whether the user already has the site on their list.
	Exists(ctx context.Context, userID, siteID int64) (bool, error)

	// Remove deletes the (user, site) pair.
	// Returns domain.ErrNotFound if the pair does not exist.
	Remove(ctx context.Context, userID, siteID int64) error

	// ListSites returns the sites on a user's bucket list, oldest addition first.
	ListSites(ctx context.Context, userID int64) ([]domain.DiveSite, error)
}

// pgBucketListRepo is the Postgres implementation of BucketListRepo.
type pgBucketListRepo struct {
	db db
}

// NewBucketListRepo constructs a BucketListRepo backed by the provided db connection.
func NewBucketListRepo(db db) BucketListRepo {
	return &pgBucketListRepo{db: db}
}

func (r *pgBucketListRepo) Add(ctx context.Context, userID, siteID int64) (domain.BucketListEntry, error) {
	const q = `
		INSERT INTO bucket_list_sites (dive_site_id, user_id)
		VALUES (@site_id, @user_id)
		RETURNING id, user_id, dive_site_id, created_at`

	var e domain.BucketListEntry
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"site_id": siteID, "user_id": userID}).
		Scan(&e.ID, &e.UserID, &e.DiveSiteID, &e.CreatedAt)
	if err != nil {
		return domain.BucketListEntry{}, fmt.Errorf("repo.BucketListRepo.Add: %w", mapError(err))
	}
	return e, nil
}

func (r *pgBucketListRepo) Exists(ctx context.Context, userID, siteID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM bucket_list_sites
			WHERE user_id = @user_id AND dive_site_id = @site_id
		)`

	var exists bool
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID, "site_id": siteID}).Scan(&exists); err != nil {
		return false, fmt.Errorf("repo.BucketListRepo.Exists: %w", err)
	}
	return exists, nil
}

func (r *pgBucketListRepo) Remove(ctx context.Context, userID, siteID int64) error {
	const q = `DELETE FROM bucket_list_sites WHERE user_id = @user_id AND dive_site_id = @site_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"user_id": userID, "site_id": siteID})
	if err != nil {
		return fmt.Errorf("repo.BucketListRepo.Remove: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.BucketListRepo.Remove: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgBucketListRepo) ListSites(ctx context.Context, userID int64) ([]domain.DiveSite, error) {
	const q = `
		SELECT d.id, d.name, d.lat, d.lng, d.description, d.location, d.created_at
		FROM bucket_list_sites b
		JOIN dive_sites d ON d.id = b.dive_site_id
		WHERE b.user_id = @user_id
		ORDER BY b.created_at, b.id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.BucketListRepo.ListSites: %w", err)
	}
	defer rows.Close()

	var sites []domain.DiveSite
	for rows.Next() {
		s, err := scanDiveSite(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.BucketListRepo.ListSites: scan: %w", err)
		}
		sites = append(sites, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.BucketListRepo.ListSites: rows: %w", err)
	}
	return sites, nil
}
