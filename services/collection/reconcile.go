package collection

import (
	"strings"

	"reelkeep/models"
	"reelkeep/services/identity"
)

// reconcile merges a batch of freshly fetched source records into the
// existing collection snapshot. Source-provided fields overwrite, user
// edits and list state survive untouched, and duplicates collapse onto one
// canonical key. Records that fail identity resolution, or first-seen
// records without a title, are skipped and counted, never fatal to the
// batch.
func reconcile(existing []models.MovieItem, incoming []models.SourceRecord) ([]models.MovieItem, models.SyncResult) {
	merged := make([]models.MovieItem, len(existing))
	copy(merged, existing)

	index := make(map[string]int, len(merged))
	for i, item := range merged {
		if key, err := identity.Resolve(item); err == nil {
			index[key] = i
		}
	}

	var result models.SyncResult

	for _, rec := range incoming {
		key, err := identity.ResolveRecord(rec)
		if err != nil {
			result.Skipped++
			continue
		}

		// Deferred identity upgrade: a record previously keyed by its
		// source-native id gets re-keyed onto the imdb id it just gained,
		// merging rather than duplicating.
		if _, exists := index[key]; !exists {
			if i, ok := index[rec.ID]; ok && key != rec.ID && identity.Upgradable(merged[i], rec) {
				delete(index, rec.ID)
				merged[i].ImdbID = rec.ImdbID
				index[key] = i
			}
		}

		if i, ok := index[key]; ok {
			merged[i] = mergeRecord(merged[i], rec)
			result.Updated++
			continue
		}

		// Every persisted record carries a title; a first-seen record
		// without one has nothing to show and is dropped.
		if strings.TrimSpace(rec.Title) == "" {
			result.Skipped++
			continue
		}

		index[key] = len(merged)
		merged = append(merged, newItem(rec))
		result.Added++
	}

	// The incoming batch itself may carry duplicate identities; collapse
	// the final sequence once more, last record wins per key.
	merged = dedupeByKey(merged)

	return merged, result
}

// mergeRecord overlays incoming source fields onto a stored item. The
// user-authored fields, list state, play count and previously enriched
// metadata all come from the stored side.
func mergeRecord(item models.MovieItem, rec models.SourceRecord) models.MovieItem {
	if rec.Title != "" {
		item.Title = rec.Title
	}
	if rec.Year != 0 {
		item.Year = rec.Year
	}
	if rec.Type != "" {
		item.Type = rec.Type
	}
	if !rec.WatchedAt.IsZero() {
		item.Date = rec.WatchedAt
	}
	if rec.ID != "" && item.ID == "" {
		item.ID = rec.ID
	}
	return item
}

// newItem builds a collection entry for a first-seen record. Watchlisted
// records start on the watchlist; everything else is watched by default
// (unset list).
func newItem(rec models.SourceRecord) models.MovieItem {
	item := models.MovieItem{
		ID:     rec.ID,
		ImdbID: rec.ImdbID,
		Title:  rec.Title,
		Year:   rec.Year,
		Type:   rec.Type,
		Source: models.SourceActivity,
		Date:   rec.WatchedAt,
	}
	if item.Type == "" {
		item.Type = models.MediaTypeMovie
	}
	if rec.Listed {
		item.List = models.ListWatchlist
	}
	return item
}

// dedupeByKey reduces a sequence to one record per canonical key. The
// position of the first occurrence is kept, the value of the last wins.
// Records without a resolvable key are dropped.
func dedupeByKey(items []models.MovieItem) []models.MovieItem {
	out := make([]models.MovieItem, 0, len(items))
	pos := make(map[string]int, len(items))
	for _, item := range items {
		key, err := identity.Resolve(item)
		if err != nil {
			continue
		}
		if i, ok := pos[key]; ok {
			out[i] = item
			continue
		}
		pos[key] = len(out)
		out = append(out, item)
	}
	return out
}
