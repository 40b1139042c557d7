package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/service"
)

// memJournal is an in-memory JournalRepo with owner scoping and the
// one-entry-per-site rule.
func memJournal() (*mockJournalRepo, map[int64]domain.JournalEntry) {
	rows := map[int64]domain.JournalEntry{}
	var nextID int64
	return &mockJournalRepo{
		existsForSite: func(_ context.Context, userID, siteID int64) (bool, error) {
			for _, e := range rows {
				if e.UserID == userID && e.DiveSiteID == siteID {
					return true, nil
				}
			}
			return false, nil
		},
		create: func(_ context.Context, e domain.JournalEntry) (domain.JournalEntry, error) {
			nextID++
			e.ID = nextID
			rows[e.ID] = e
			return e, nil
		},
		getByID: func(_ context.Context, userID, entryID int64) (domain.JournalEntry, error) {
			e, ok := rows[entryID]
			if !ok || e.UserID != userID {
				return domain.JournalEntry{}, domain.ErrNotFound
			}
			return e, nil
		},
		update: func(_ context.Context, e domain.JournalEntry) (domain.JournalEntry, error) {
			cur, ok := rows[e.ID]
			if !ok || cur.UserID != e.UserID {
				return domain.JournalEntry{}, domain.ErrNotFound
			}
			cur.Description, cur.Notes, cur.Rating = e.Description, e.Notes, e.Rating
			rows[e.ID] = cur
			return cur, nil
		},
		delete: func(_ context.Context, userID, entryID int64) error {
			e, ok := rows[entryID]
			if !ok || e.UserID != userID {
				return domain.ErrNotFound
			}
			delete(rows, entryID)
			return nil
		},
	}, rows
}

func TestJournalService_Add(t *testing.T) {
	entries, rows := memJournal()
	svc := service.NewJournalService(entries, cachedSites(1))

	got, err := svc.Add(context.Background(), 1111, 1, domain.JournalInput{Description: " meh ", Notes: "ok", Rating: 3})

	require.NoError(t, err)
	assert.Equal(t, "meh", got.Description, "input is trimmed")
	assert.Equal(t, int64(1111), got.UserID)
	assert.Len(t, rows, 1)
}

func TestJournalService_Add_Duplicate(t *testing.T) {
	entries, rows := memJournal()
	svc := service.NewJournalService(entries, cachedSites(1))
	_, err := svc.Add(context.Background(), 1111, 1, domain.JournalInput{Rating: 3})
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), 1111, 1, domain.JournalInput{Rating: 4})

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, rows, 1)
}

func TestJournalService_Add_RatingBounds(t *testing.T) {
	for _, rating := range []int{0, 6, -1} {
		svc := service.NewJournalService(&mockJournalRepo{}, cachedSites(1))

		_, err := svc.Add(context.Background(), 1, 1, domain.JournalInput{Rating: rating})

		assert.ErrorIs(t, err, domain.ErrValidation, "rating %d", rating)
	}
}

func TestJournalService_SiteForNewEntry(t *testing.T) {
	entries, _ := memJournal()
	svc := service.NewJournalService(entries, cachedSites(1))

	site, err := svc.SiteForNewEntry(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), site.ID)

	_, err = svc.SiteForNewEntry(context.Background(), 1, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Add(context.Background(), 1, 1, domain.JournalInput{Rating: 5})
	require.NoError(t, err)
	_, err = svc.SiteForNewEntry(context.Background(), 1, 1)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// TestJournalService_Update_ReplacesAllFields checks that an edit fully
// replaces description, notes and rating.
func TestJournalService_Update_ReplacesAllFields(t *testing.T) {
	entries, _ := memJournal()
	svc := service.NewJournalService(entries, cachedSites(1))
	e, err := svc.Add(context.Background(), 1111, 1, domain.JournalInput{Notes: "ok", Rating: 3})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), 1111, e.ID, domain.JournalInput{Description: "meh", Notes: "so so", Rating: 3})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), 1111, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "meh", got.Description)
	assert.Equal(t, "so so", got.Notes)
	assert.NotContains(t, got.Notes+got.Description, "ok")
}

func TestJournalService_OtherUsersEntryIsNotFound(t *testing.T) {
	entries, rows := memJournal()
	svc := service.NewJournalService(entries, cachedSites(1))
	e, err := svc.Add(context.Background(), 1, 1, domain.JournalInput{Rating: 3})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), 2, e.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Update(context.Background(), 2, e.ID, domain.JournalInput{Rating: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), 2, e.ID), domain.ErrNotFound)
	assert.Len(t, rows, 1)
}

func TestJournalService_Delete(t *testing.T) {
	entries, rows := memJournal()
	svc := service.NewJournalService(entries, cachedSites(1))
	e, err := svc.Add(context.Background(), 1, 1, domain.JournalInput{Rating: 3})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 1, e.ID))

	assert.Empty(t, rows)
	assert.ErrorIs(t, svc.Delete(context.Background(), 1, e.ID), domain.ErrNotFound)
}
