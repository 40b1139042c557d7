package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pkordes/dive-logbook/internal/divesites"
	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/geocode"
	"github.com/pkordes/dive-logbook/internal/metrics"
	"github.com/pkordes/dive-logbook/internal/repo"
)

// DirectoryClient is the dive-site directory API. *divesites.Client satisfies it.
type DirectoryClient interface {
	Search(ctx context.Context, params map[string]any) ([]byte, error)
	Detail(ctx context.Context, id int64) (divesites.Site, error)
}

// Geocoder resolves coordinates to a display location. *geocode.Client satisfies it.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// SiteService serves dive sites from the local cache, filling it from the
// directory API on a miss. Cached rows are never refreshed.
type SiteService struct {
	sites     repo.DiveSiteRepo
	directory DirectoryClient
	geocoder  Geocoder
}

// NewSiteService constructs a SiteService.
func NewSiteService(sites repo.DiveSiteRepo, directory DirectoryClient, geocoder Geocoder) *SiteService {
	return &SiteService{sites: sites, directory: directory, geocoder: geocoder}
}

// Search passes params to the directory's search and returns its JSON verbatim.
func (s *SiteService) Search(ctx context.Context, params map[string]any) ([]byte, error) {
	body, err := s.directory.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("service.SiteService.Search: %w", err)
	}
	return body, nil
}

// Show returns the site with the given directory id. Returns
// domain.ErrNotFound when neither the cache nor the directory knows it.
func (s *SiteService) Show(ctx context.Context, id int64) (domain.DiveSite, error) {
	if id <= 0 {
		return domain.DiveSite{}, fmt.Errorf("service.SiteService.Show: %w", domain.ErrNotFound)
	}

	site, err := s.sites.GetByID(ctx, id)
	if err == nil {
		metrics.RecordSiteCacheHit()
		return site, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.DiveSite{}, fmt.Errorf("service.SiteService.Show: %w", err)
	}
	metrics.RecordSiteCacheMiss()

	detail, err := s.directory.Detail(ctx, id)
	if err != nil {
		return domain.DiveSite{}, fmt.Errorf("service.SiteService.Show: %w", err)
	}

	location, err := s.geocoder.Reverse(ctx, detail.Lat, detail.Lng)
	if errors.Is(err, geocode.ErrNoResult) {
		location = coordinateLabel(detail.Lat, detail.Lng)
	} else if err != nil {
		return domain.DiveSite{}, fmt.Errorf("service.SiteService.Show: geocode: %w", err)
	}

	site, err = s.sites.Create(ctx, domain.DiveSite{
		ID:          id,
		Name:        detail.Name,
		Lat:         detail.Lat,
		Lng:         detail.Lng,
		Description: detail.Description,
		Location:    location,
	})
	if err != nil {
		return domain.DiveSite{}, fmt.Errorf("service.SiteService.Show: %w", err)
	}
	return site, nil
}

// coordinateLabel is the location shown for sites with no nearby named place.
func coordinateLabel(lat, lng float64) string {
	return fmt.Sprintf("%.4f, %.4f", lat, lng)
}
