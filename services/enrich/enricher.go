package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reelkeep/models"
	"reelkeep/services/metadata"
)

// ErrEnrichmentFailed marks a lookup that could not complete. The record
// persists unenriched and is retried on the next sync; the surrounding
// operation must never abort because of it.
var ErrEnrichmentFailed = errors.New("enrichment failed")

// MetadataLookup is the single boundary call the enricher depends on.
type MetadataLookup interface {
	ByImdbID(ctx context.Context, imdbID string) (models.Metadata, error)
}

// Enricher fills missing descriptive fields on a record from the metadata
// service. Fields the user has authored are never targets; source fields
// already populated are left alone.
type Enricher struct {
	lookup  MetadataLookup
	timeout time.Duration
}

func NewEnricher(lookup MetadataLookup, timeout time.Duration) *Enricher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Enricher{lookup: lookup, timeout: timeout}
}

// Enrich returns a copy of item with empty metadata and rating fields
// filled from the metadata service. Items without an imdb id are returned
// unchanged with a nil error. On lookup failure or timeout the input is
// returned unchanged alongside ErrEnrichmentFailed for the caller to log.
func (e *Enricher) Enrich(ctx context.Context, item models.MovieItem) (models.MovieItem, error) {
	imdbID := strings.TrimSpace(item.ImdbID)
	if imdbID == "" {
		return item, nil
	}

	if !NeedsEnrichment(item) {
		return item, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	meta, err := e.lookup.ByImdbID(ctx, imdbID)
	if err != nil {
		return item, fmt.Errorf("%w: %s: %v", ErrEnrichmentFailed, imdbID, err)
	}

	return apply(item, meta), nil
}

// NeedsEnrichment reports whether any enrichable field is still empty or
// carries the provider's unknown sentinel. Callers batching lookups use it
// to pick their targets; Enrich applies it again before hitting the service.
func NeedsEnrichment(item models.MovieItem) bool {
	for _, v := range []string{item.Director, item.Actors, item.Plot, item.Genre, item.Runtime, item.RtRating, item.Metascore} {
		if empty(v) {
			return true
		}
	}
	return item.Rating == 0
}

// apply fills only the fields that are currently empty. User-authored
// fields are not enrichment targets and pass through untouched.
func apply(item models.MovieItem, meta models.Metadata) models.MovieItem {
	if empty(item.Director) {
		item.Director = meta.Director
	}
	if empty(item.Actors) {
		item.Actors = meta.Actors
	}
	if empty(item.Plot) {
		item.Plot = meta.Plot
	}
	if empty(item.Genre) {
		item.Genre = meta.Genre
	}
	if empty(item.Runtime) {
		item.Runtime = meta.Runtime
	}
	if item.Rating == 0 {
		item.Rating = meta.Rating
	}
	if empty(item.RtRating) {
		item.RtRating = meta.RottenTomatoes
	}
	if empty(item.Metascore) {
		item.Metascore = meta.Metacritic
	}
	return item
}

func empty(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == metadata.Unknown
}
