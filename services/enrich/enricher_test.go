package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"reelkeep/models"
)

type lookupFunc func(ctx context.Context, imdbID string) (models.Metadata, error)

func (f lookupFunc) ByImdbID(ctx context.Context, imdbID string) (models.Metadata, error) {
	return f(ctx, imdbID)
}

var fullMeta = models.Metadata{
	Director:       "Sofia Coppola",
	Actors:         "Bill Murray, Scarlett Johansson",
	Plot:           "Two strangers meet in Tokyo.",
	Genre:          "Drama",
	Runtime:        "102 min",
	Rating:         7.7,
	RottenTomatoes: "95%",
	Metacritic:     "91/100",
}

func TestEnrichFillsEmptyFields(t *testing.T) {
	e := NewEnricher(lookupFunc(func(_ context.Context, imdbID string) (models.Metadata, error) {
		if imdbID != "tt0335266" {
			t.Fatalf("unexpected lookup id %q", imdbID)
		}
		return fullMeta, nil
	}), time.Second)

	item, err := e.Enrich(context.Background(), models.MovieItem{ImdbID: "tt0335266", Title: "Lost in Translation"})
	if err != nil {
		t.Fatalf("enrich failed: %v", err)
	}
	if item.Director != fullMeta.Director || item.Runtime != fullMeta.Runtime {
		t.Fatalf("metadata not applied: %+v", item)
	}
	if item.Rating != 7.7 || item.RtRating != "95%" || item.Metascore != "91/100" {
		t.Fatalf("ratings not applied: %+v", item)
	}
}

func TestEnrichNeverOverwritesPopulatedFields(t *testing.T) {
	e := NewEnricher(lookupFunc(func(context.Context, string) (models.Metadata, error) {
		return fullMeta, nil
	}), time.Second)

	rating := 10.0
	note := "all time favourite"
	item := models.MovieItem{
		ImdbID:     "tt1",
		Title:      "A",
		Director:   "Hand-corrected Director",
		UserRating: &rating,
		UserNote:   &note,
	}

	out, err := e.Enrich(context.Background(), item)
	if err != nil {
		t.Fatalf("enrich failed: %v", err)
	}
	if out.Director != "Hand-corrected Director" {
		t.Fatalf("populated field overwritten: %+v", out)
	}
	if out.UserRating != &rating || out.UserNote != &note {
		t.Fatal("user-authored fields must pass through untouched")
	}
	if out.Plot != fullMeta.Plot {
		t.Fatalf("empty field should still fill: %+v", out)
	}
}

func TestEnrichTreatsUnknownSentinelAsEmpty(t *testing.T) {
	e := NewEnricher(lookupFunc(func(context.Context, string) (models.Metadata, error) {
		return fullMeta, nil
	}), time.Second)

	item := models.MovieItem{ImdbID: "tt1", Title: "A", Director: "N/A"}
	out, err := e.Enrich(context.Background(), item)
	if err != nil {
		t.Fatalf("enrich failed: %v", err)
	}
	if out.Director != fullMeta.Director {
		t.Fatalf("sentinel field should be replaced, got %q", out.Director)
	}
}

func TestEnrichWithoutImdbIDIsSilentNoop(t *testing.T) {
	e := NewEnricher(lookupFunc(func(context.Context, string) (models.Metadata, error) {
		t.Fatal("lookup must not be called without an imdb id")
		return models.Metadata{}, nil
	}), time.Second)

	item := models.MovieItem{ID: "42", Title: "No IMDb Entry"}
	out, err := e.Enrich(context.Background(), item)
	if err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if out != item {
		t.Fatalf("item changed: %+v", out)
	}
}

func TestEnrichFullyPopulatedItemSkipsLookup(t *testing.T) {
	calls := 0
	e := NewEnricher(lookupFunc(func(context.Context, string) (models.Metadata, error) {
		calls++
		return fullMeta, nil
	}), time.Second)

	item := models.MovieItem{
		ImdbID:    "tt1",
		Title:     "A",
		Director:  "D",
		Actors:    "A",
		Plot:      "P",
		Genre:     "G",
		Runtime:   "100 min",
		Rating:    8.0,
		RtRating:  "90%",
		Metascore: "80/100",
	}
	if _, err := e.Enrich(context.Background(), item); err != nil {
		t.Fatalf("enrich failed: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no lookup for a complete item, got %d calls", calls)
	}
}

func TestEnrichFailureReturnsInputUnchanged(t *testing.T) {
	e := NewEnricher(lookupFunc(func(context.Context, string) (models.Metadata, error) {
		return models.Metadata{}, errors.New("upstream timeout")
	}), time.Second)

	item := models.MovieItem{ImdbID: "tt1", Title: "A"}
	out, err := e.Enrich(context.Background(), item)
	if !errors.Is(err, ErrEnrichmentFailed) {
		t.Fatalf("expected ErrEnrichmentFailed, got %v", err)
	}
	if out != item {
		t.Fatalf("failed enrichment must return the input unchanged: %+v", out)
	}
}

func TestEnrichCarriesTimeout(t *testing.T) {
	e := NewEnricher(lookupFunc(func(ctx context.Context, _ string) (models.Metadata, error) {
		select {
		case <-ctx.Done():
			return models.Metadata{}, ctx.Err()
		case <-time.After(5 * time.Second):
			t.Fatal("lookup context was not cancelled")
			return models.Metadata{}, nil
		}
	}), 50*time.Millisecond)

	item := models.MovieItem{ImdbID: "tt1", Title: "A"}
	out, err := e.Enrich(context.Background(), item)
	if !errors.Is(err, ErrEnrichmentFailed) {
		t.Fatalf("expected ErrEnrichmentFailed on timeout, got %v", err)
	}
	if out != item {
		t.Fatal("timed-out enrichment must return the input unchanged")
	}
}
