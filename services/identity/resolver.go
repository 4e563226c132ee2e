package identity

import (
	"errors"
	"strings"

	"reelkeep/models"
)

// ErrInvalidIdentity marks a record that carries neither an imdb id nor a
// source-native id. Such records are dropped; the batch continues.
var ErrInvalidIdentity = errors.New("record has no resolvable identity")

// Key computes the canonical key from a pair of possibly-partial
// identifiers: imdbId wins when present, else the source-native id.
// The key must be stable across sync runs.
func Key(imdbID, id string) (string, error) {
	if imdb := strings.TrimSpace(imdbID); imdb != "" {
		return imdb, nil
	}
	if native := strings.TrimSpace(id); native != "" {
		return native, nil
	}
	return "", ErrInvalidIdentity
}

// Resolve returns the canonical key for a stored item.
func Resolve(item models.MovieItem) (string, error) {
	return Key(item.ImdbID, item.ID)
}

// ResolveRecord returns the canonical key for an incoming source record.
func ResolveRecord(rec models.SourceRecord) (string, error) {
	return Key(rec.ImdbID, rec.ID)
}

// Upgradable reports whether an incoming record would upgrade an existing
// id-keyed item onto an imdb key: the record carries an imdb id, the item
// does not, and the record's native id matches the item's key.
func Upgradable(item models.MovieItem, rec models.SourceRecord) bool {
	if strings.TrimSpace(rec.ImdbID) == "" || strings.TrimSpace(item.ImdbID) != "" {
		return false
	}
	native := strings.TrimSpace(rec.ID)
	return native != "" && native == item.Key()
}
