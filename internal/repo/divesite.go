package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/dive-logbook/internal/domain"
)

// DiveSiteRepo defines the persistence operations for cached dive sites.
// There is deliberately no Update: a cached site is immutable reference data.
type DiveSiteRepo interface {
	// GetByID retrieves a cached site by its directory id.
	// Returns domain.ErrNotFound on a cache miss.
	GetByID(ctx context.Context, id int64) (domain.DiveSite, error)

	// Create caches a site under its directory id and returns the stored row.
	// If a row with that id already exists (a concurrent first view won the
	// race) the existing row is returned unchanged.
	Create(ctx context.Context, site domain.DiveSite) (domain.DiveSite, error)
}

// pgDiveSiteRepo is the Postgres implementation of DiveSiteRepo.
type pgDiveSiteRepo struct {
	db db
}

// NewDiveSiteRepo constructs a DiveSiteRepo backed by the provided db connection.
func NewDiveSiteRepo(db db) DiveSiteRepo {
	return &pgDiveSiteRepo{db: db}
}

const diveSiteColumns = `id, name, lat, lng, description, location, created_at`

func (r *pgDiveSiteRepo) GetByID(ctx context.Context, id int64) (domain.DiveSite, error) {
	const q = `SELECT ` + diveSiteColumns + ` FROM dive_sites WHERE id = @id`

	result, err := scanDiveSite(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.DiveSite{}, fmt.Errorf("repo.DiveSiteRepo.GetByID: %w", err)
	}
	return result, nil
}

// Create uses ON CONFLICT DO NOTHING, which makes RETURNING yield no row when
// the id is already cached; that case falls through to a plain read.
func (r *pgDiveSiteRepo) Create(ctx context.Context, site domain.DiveSite) (domain.DiveSite, error) {
	const q = `
		INSERT INTO dive_sites (id, name, lat, lng, description, location)
		VALUES (@id, @name, @lat, @lng, @description, @location)
		ON CONFLICT (id) DO NOTHING
		RETURNING ` + diveSiteColumns

	args := pgx.NamedArgs{
		"id":          site.ID,
		"name":        site.Name,
		"lat":         site.Lat,
		"lng":         site.Lng,
		"description": site.Description,
		"location":    site.Location,
	}

	result, err := scanDiveSite(r.db.QueryRow(ctx, q, args))
	if errors.Is(err, domain.ErrNotFound) {
		return r.GetByID(ctx, site.ID)
	}
	if err != nil {
		return domain.DiveSite{}, fmt.Errorf("repo.DiveSiteRepo.Create: %w", err)
	}
	return result, nil
}

// scanDiveSite maps a single dive_sites row into a domain.DiveSite.
func scanDiveSite(s scanner) (domain.DiveSite, error) {
	var d domain.DiveSite
	err := s.Scan(&d.ID, &d.Name, &d.Lat, &d.Lng, &d.Description, &d.Location, &d.CreatedAt)
	if err != nil {
		return domain.DiveSite{}, mapError(err)
	}
	return d, nil
}
