package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/dive-logbook/internal/divesites"
	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/geocode"
	"github.com/pkordes/dive-logbook/internal/service"
)

// memSiteRepo is an in-memory DiveSiteRepo with insert-if-absent semantics.
func memSiteRepo() (*mockDiveSiteRepo, map[int64]domain.DiveSite) {
	rows := map[int64]domain.DiveSite{}
	return &mockDiveSiteRepo{
		getByID: func(_ context.Context, id int64) (domain.DiveSite, error) {
			s, ok := rows[id]
			if !ok {
				return domain.DiveSite{}, domain.ErrNotFound
			}
			return s, nil
		},
		create: func(_ context.Context, s domain.DiveSite) (domain.DiveSite, error) {
			if existing, ok := rows[s.ID]; ok {
				return existing, nil
			}
			rows[s.ID] = s
			return s, nil
		},
	}, rows
}

func blueHoleDirectory(calls *int) *mockDirectory {
	return &mockDirectory{
		detail: func(_ context.Context, id int64) (divesites.Site, error) {
			*calls++
			if id != 23265 {
				return divesites.Site{}, fmt.Errorf("detail %d: %w", id, domain.ErrNotFound)
			}
			return divesites.Site{Name: "The Blue Hole - Lighthouse Atoll", Lat: 17.245744, Lng: -87.555542, Description: "Sinkhole."}, nil
		},
	}
}

func belizeGeocoder() *mockGeocoder {
	return &mockGeocoder{reverse: func(context.Context, float64, float64) (string, error) {
		return "Lighthouse Atoll, Belize", nil
	}}
}

func TestSiteService_Show_ReadThrough(t *testing.T) {
	sites, rows := memSiteRepo()
	var calls int
	svc := service.NewSiteService(sites, blueHoleDirectory(&calls), belizeGeocoder())

	first, err := svc.Show(context.Background(), 23265)
	require.NoError(t, err)
	assert.Equal(t, "The Blue Hole - Lighthouse Atoll", first.Name)
	assert.Equal(t, "Lighthouse Atoll, Belize", first.Location)
	assert.Len(t, rows, 1, "a miss inserts exactly one row")

	second, err := svc.Show(context.Background(), 23265)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "a cached site never calls the directory again")
	assert.Len(t, rows, 1)
}

func TestSiteService_Show_UnknownUpstream(t *testing.T) {
	sites, rows := memSiteRepo()
	var calls int
	svc := service.NewSiteService(sites, blueHoleDirectory(&calls), belizeGeocoder())

	_, err := svc.Show(context.Background(), 1)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, rows)
}

func TestSiteService_Show_NonPositiveID(t *testing.T) {
	svc := service.NewSiteService(&mockDiveSiteRepo{}, &mockDirectory{}, &mockGeocoder{})

	_, err := svc.Show(context.Background(), 0)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSiteService_Show_OffshoreFallsBackToCoordinates(t *testing.T) {
	sites, _ := memSiteRepo()
	var calls int
	geo := &mockGeocoder{reverse: func(context.Context, float64, float64) (string, error) {
		return "", geocode.ErrNoResult
	}}
	svc := service.NewSiteService(sites, blueHoleDirectory(&calls), geo)

	got, err := svc.Show(context.Background(), 23265)

	require.NoError(t, err)
	assert.Equal(t, "17.2457, -87.5555", got.Location)
}

func TestSiteService_Show_UpstreamFailureNotCached(t *testing.T) {
	sites, rows := memSiteRepo()
	upstreamErr := errors.New("connection reset")
	dir := &mockDirectory{detail: func(context.Context, int64) (divesites.Site, error) {
		return divesites.Site{}, upstreamErr
	}}
	svc := service.NewSiteService(sites, dir, belizeGeocoder())

	_, err := svc.Show(context.Background(), 23265)

	assert.ErrorIs(t, err, upstreamErr)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, rows)
}

func TestSiteService_Show_GeocoderFailure(t *testing.T) {
	sites, rows := memSiteRepo()
	var calls int
	geoErr := errors.New("rate limited")
	geo := &mockGeocoder{reverse: func(context.Context, float64, float64) (string, error) { return "", geoErr }}
	svc := service.NewSiteService(sites, blueHoleDirectory(&calls), geo)

	_, err := svc.Show(context.Background(), 23265)

	assert.ErrorIs(t, err, geoErr)
	assert.Empty(t, rows)
}

func TestSiteService_Search(t *testing.T) {
	var got map[string]any
	dir := &mockDirectory{search: func(_ context.Context, params map[string]any) ([]byte, error) {
		got = params
		return []byte(`{"matches":[]}`), nil
	}}
	svc := service.NewSiteService(&mockDiveSiteRepo{}, dir, &mockGeocoder{})

	body, err := svc.Search(context.Background(), map[string]any{"mode": "search", "str": "blue"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"matches":[]}`, string(body))
	assert.Equal(t, map[string]any{"mode": "search", "str": "blue"}, got)
}
