package collection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelkeep/models"
)

func TestReconcileMergesOnCanonicalKey(t *testing.T) {
	watched := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	existing := []models.MovieItem{
		{ImdbID: "tt0137523", ID: "77", Title: "Fight Club", Year: 1999, Type: models.MediaTypeMovie, Director: "David Fincher"},
	}
	incoming := []models.SourceRecord{
		{ImdbID: "tt0137523", ID: "77", Title: "Fight Club", Year: 1999, Type: models.MediaTypeMovie, WatchedAt: watched},
	}

	merged, result := reconcile(existing, incoming)

	require.Len(t, merged, 1)
	assert.Equal(t, models.SyncResult{Updated: 1}, result)
	assert.Equal(t, watched, merged[0].Date)
	// Previously enriched metadata survives the merge.
	assert.Equal(t, "David Fincher", merged[0].Director)
}

func TestReconcileInsertsNewRecords(t *testing.T) {
	incoming := []models.SourceRecord{
		{ImdbID: "tt0110912", Title: "Pulp Fiction", Year: 1994, Type: models.MediaTypeMovie},
		{ID: "42", Title: "Some Obscure Short", Type: models.MediaTypeMovie},
	}

	merged, result := reconcile(nil, incoming)

	require.Len(t, merged, 2)
	assert.Equal(t, models.SyncResult{Added: 2}, result)
	for _, item := range merged {
		assert.Equal(t, models.SourceActivity, item.Source)
		assert.Empty(t, item.List, "new records are watched by default")
	}
}

func TestReconcileWatchlistedRecordStartsOnWatchlist(t *testing.T) {
	incoming := []models.SourceRecord{
		{ImdbID: "tt0068646", Title: "The Godfather", Year: 1972, Type: models.MediaTypeMovie, Listed: true},
	}

	merged, _ := reconcile(nil, incoming)

	require.Len(t, merged, 1)
	assert.Equal(t, models.ListWatchlist, merged[0].List)
}

func TestReconcileIdentityUpgrade(t *testing.T) {
	// A record previously keyed by id=42 gains an imdb id on a later sync:
	// it must re-key onto the imdb id, merging rather than duplicating.
	existing := []models.MovieItem{
		{ID: "42", Title: "Old Title", Type: models.MediaTypeMovie},
	}
	incoming := []models.SourceRecord{
		{ID: "42", ImdbID: "tt001", Title: "New Title", Type: models.MediaTypeMovie},
	}

	merged, result := reconcile(existing, incoming)

	require.Len(t, merged, 1)
	assert.Equal(t, models.SyncResult{Updated: 1}, result)
	assert.Equal(t, "tt001", merged[0].Key())
	assert.Equal(t, "42", merged[0].ID, "source-native id is preserved")
	assert.Equal(t, "New Title", merged[0].Title)
}

func TestReconcilePreservesUserEditsAndListState(t *testing.T) {
	rating := 9.0
	note := "rewatched with friends"
	existing := []models.MovieItem{
		{
			ImdbID:     "tt1",
			Title:      "A",
			List:       models.ListWatchlist,
			UserRating: &rating,
			UserNote:   &note,
			Plays:      3,
		},
	}
	incoming := []models.SourceRecord{
		{ImdbID: "tt1", Title: "A (refreshed)", Year: 2001},
	}

	merged, _ := reconcile(existing, incoming)

	require.Len(t, merged, 1)
	assert.Equal(t, "A (refreshed)", merged[0].Title)
	assert.Equal(t, 2001, merged[0].Year)
	require.NotNil(t, merged[0].UserRating)
	assert.Equal(t, 9.0, *merged[0].UserRating)
	require.NotNil(t, merged[0].UserNote)
	assert.Equal(t, note, *merged[0].UserNote)
	assert.Equal(t, models.ListWatchlist, merged[0].List)
	assert.Equal(t, 3, merged[0].Plays)
}

func TestReconcileDeduplicatesIncomingBatch(t *testing.T) {
	incoming := []models.SourceRecord{
		{ImdbID: "tt1", Title: "A"},
		{ImdbID: "tt1", Title: "A (alt)"},
	}

	merged, _ := reconcile(nil, incoming)

	require.Len(t, merged, 1)
	assert.Equal(t, "tt1", merged[0].Key())
	assert.Equal(t, "A (alt)", merged[0].Title, "last record wins per key")
}

func TestReconcileSkipsUnresolvableRecords(t *testing.T) {
	incoming := []models.SourceRecord{
		{Title: "No Identity At All"},
		{ImdbID: "tt2", Title: "B"},
	}

	merged, result := reconcile(nil, incoming)

	require.Len(t, merged, 1)
	assert.Equal(t, models.SyncResult{Added: 1, Skipped: 1}, result)
}

func TestReconcileSkipsTitlelessNewRecords(t *testing.T) {
	existing := []models.MovieItem{
		{ImdbID: "tt1", Title: "A"},
	}
	incoming := []models.SourceRecord{
		{ID: "42"},                  // first seen without a title: dropped
		{ImdbID: "tt1", Year: 2001}, // titleless but merging: stored title survives
	}

	merged, result := reconcile(existing, incoming)

	require.Len(t, merged, 1)
	assert.Equal(t, models.SyncResult{Updated: 1, Skipped: 1}, result)
	assert.Equal(t, "A", merged[0].Title)
	assert.Equal(t, 2001, merged[0].Year)
}

func TestReconcileIsIdempotent(t *testing.T) {
	incoming := []models.SourceRecord{
		{ImdbID: "tt1", Title: "A", Year: 2000, WatchedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "9", Title: "B", Year: 2010},
		{ImdbID: "tt3", Title: "C", Listed: true},
	}

	once, _ := reconcile(nil, incoming)
	twice, result := reconcile(once, incoming)

	assert.Equal(t, once, twice)
	assert.Equal(t, models.SyncResult{Updated: 3}, result)
}

func TestReconcileProducesNoDuplicateKeys(t *testing.T) {
	existing := []models.MovieItem{
		{ImdbID: "tt1", Title: "A"},
		{ID: "5", Title: "B"},
	}
	incoming := []models.SourceRecord{
		{ImdbID: "tt1", Title: "A again"},
		{ID: "5", ImdbID: "tt5", Title: "B upgraded"},
		{ImdbID: "tt5", Title: "B again"},
		{ImdbID: "tt9", Title: "C"},
	}

	merged, _ := reconcile(existing, incoming)

	seen := make(map[string]bool)
	for _, item := range merged {
		key := item.Key()
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
	assert.Len(t, merged, 3)
}
