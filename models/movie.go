package models

import (
	"strings"
	"time"
)

// DefaultUserID is the partition used when no profile has been selected.
const DefaultUserID = "default"

// Media types recognised by the collection.
const (
	MediaTypeMovie  = "movie"
	MediaTypeSeries = "series"
)

// Provenance of a collection record. Informational only, never used for
// identity resolution.
const (
	SourceActivity = "activity-service"
	SourceManual   = "manual"
)

// List states. An empty list value means "watched" for already-consumed
// items; ListWatched is only ever an input to a transition, never stored.
const (
	ListWatchlist = "watchlist"
	ListWatched   = "watched"
)

// MovieItem is the sole persisted entity: one entry in a user's collection.
type MovieItem struct {
	ID     string    `json:"id"`
	ImdbID string    `json:"imdbId,omitempty"`
	Title  string    `json:"title"`
	Year   int       `json:"year,omitempty"`
	Type   string    `json:"type"` // movie | series
	Source string    `json:"source,omitempty"`
	Date   time.Time `json:"date"`
	List   string    `json:"list,omitempty"` // watchlist, or empty for watched

	// Metadata fields, populated by enrichment.
	Director string `json:"director,omitempty"`
	Actors   string `json:"actors,omitempty"`
	Plot     string `json:"plot,omitempty"`
	Genre    string `json:"genre,omitempty"`
	Runtime  string `json:"runtime,omitempty"`

	// Rating fields. Rating is the numeric provider score; RtRating and
	// Metascore carry the two string-valued rating providers as-is.
	Rating    float64 `json:"rating,omitempty"`
	RtRating  string  `json:"rtRating,omitempty"`
	Metascore string  `json:"metascore,omitempty"`

	// User-authored fields. Once set they are excluded from any automated
	// overwrite; only an explicit user edit may change them.
	UserRating *float64 `json:"userRating,omitempty"`
	UserNote   *string  `json:"userNote,omitempty"`

	Plays int `json:"plays,omitempty"`
}

// Key returns the canonical key for the item: imdbId when present,
// otherwise the source-native id.
func (m MovieItem) Key() string {
	if imdb := strings.TrimSpace(m.ImdbID); imdb != "" {
		return imdb
	}
	return strings.TrimSpace(m.ID)
}

// SourceRecord is a raw record from the watch-activity boundary:
// {title, year, ids:{canonical, alternate}, watched_at}.
type SourceRecord struct {
	ID        string    `json:"id"`     // alternate (source-native) identifier
	ImdbID    string    `json:"imdbId"` // canonical identifier, may be absent
	Title     string    `json:"title"`
	Year      int       `json:"year,omitempty"`
	Type      string    `json:"type"`
	WatchedAt time.Time `json:"watchedAt,omitempty"`
	Listed    bool      `json:"listed,omitempty"` // true for watchlist entries
}

// Metadata is the metadata-service lookup result keyed by imdbId.
type Metadata struct {
	Director       string  `json:"director,omitempty"`
	Actors         string  `json:"actors,omitempty"`
	Plot           string  `json:"plot,omitempty"`
	Genre          string  `json:"genre,omitempty"`
	Runtime        string  `json:"runtime,omitempty"`
	Rating         float64 `json:"rating,omitempty"`
	RottenTomatoes string  `json:"rottenTomatoes,omitempty"`
	Metacritic     string  `json:"metacritic,omitempty"`
}

// SyncResult summarises one reconciliation pass.
type SyncResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// UserEdit carries an explicit user edit of the authored fields. Nil fields
// are left untouched.
type UserEdit struct {
	Rating *float64 `json:"rating,omitempty"`
	Note   *string  `json:"note,omitempty"`
}

// ManualAdd captures data required to insert an item by hand.
type ManualAdd struct {
	ID     string `json:"id,omitempty"`
	ImdbID string `json:"imdbId,omitempty"`
	Title  string `json:"title"`
	Year   int    `json:"year,omitempty"`
	Type   string `json:"type,omitempty"`
}

// Related is a recommendation-service entry, consumed for presentation only.
type Related struct {
	Title  string `json:"title"`
	Year   int    `json:"year,omitempty"`
	ImdbID string `json:"imdbId,omitempty"`
	Type   string `json:"type,omitempty"`
}
