package identity

import (
	"errors"
	"testing"

	"reelkeep/models"
)

func TestKeyPrefersImdbID(t *testing.T) {
	key, err := Key("tt0137523", "77")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "tt0137523" {
		t.Fatalf("expected imdb key, got %q", key)
	}
}

func TestKeyFallsBackToNativeID(t *testing.T) {
	key, err := Key("", "77")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "77" {
		t.Fatalf("expected native id key, got %q", key)
	}

	key, err = Key("   ", "77")
	if err != nil {
		t.Fatalf("unexpected error for blank imdb id: %v", err)
	}
	if key != "77" {
		t.Fatalf("expected native id key for blank imdb id, got %q", key)
	}
}

func TestKeyRejectsEmptyIdentity(t *testing.T) {
	if _, err := Key("", ""); !errors.Is(err, ErrInvalidIdentity) {
		t.Fatalf("expected ErrInvalidIdentity, got %v", err)
	}
}

func TestUpgradable(t *testing.T) {
	item := models.MovieItem{ID: "42", Title: "Old"}
	rec := models.SourceRecord{ID: "42", ImdbID: "tt001"}
	if !Upgradable(item, rec) {
		t.Fatal("expected id-keyed item to be upgradable")
	}

	// Already imdb-keyed items never re-key.
	keyed := models.MovieItem{ID: "42", ImdbID: "tt999"}
	if Upgradable(keyed, rec) {
		t.Fatal("imdb-keyed item must not be upgradable")
	}

	// Records without an imdb id cannot upgrade anything.
	if Upgradable(item, models.SourceRecord{ID: "42"}) {
		t.Fatal("record without imdb id must not upgrade")
	}

	// Mismatched native ids do not match.
	if Upgradable(item, models.SourceRecord{ID: "43", ImdbID: "tt001"}) {
		t.Fatal("mismatched native id must not upgrade")
	}
}
