package collection

import (
	"sort"
	"strings"

	"reelkeep/models"
)

// Sort keys accepted by the query engine.
const (
	SortTitle = "title"
	SortYear  = "year"
	SortDate  = "date"
)

// Query sorts and paginates a collection for presentation. It deduplicates
// by key first as defense in depth against a store left inconsistent.
// Pages are 1-indexed; out-of-range pages return an empty sequence, never
// an error.
func Query(items []models.MovieItem, sortKey string, page, pageSize int) []models.MovieItem {
	items = dedupeByKey(items)

	sorted := make([]models.MovieItem, len(items))
	copy(sorted, items)

	switch sortKey {
	case SortYear:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Year > sorted[j].Year
		})
	case SortDate:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Date.After(sorted[j].Date)
		})
	default: // SortTitle
		sort.SliceStable(sorted, func(i, j int) bool {
			return strings.ToLower(sorted[i].Title) < strings.ToLower(sorted[j].Title)
		})
	}

	if pageSize <= 0 {
		pageSize = 50
	}
	if page < 1 {
		return []models.MovieItem{}
	}
	start := (page - 1) * pageSize
	if start >= len(sorted) {
		return []models.MovieItem{}
	}
	end := start + pageSize
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[start:end]
}
