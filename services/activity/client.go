package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"reelkeep/models"
)

const apiVersion = "2"

// Client fetches a user's watch activity (history plus watchlist) from the
// activity service. The reconciler treats the result as an already-fetched
// batch of raw records.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// ids holds external identifiers as reported by the activity service:
// imdb is the canonical identifier, trakt the alternate source-native one.
type ids struct {
	Trakt int    `json:"trakt,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
}

type title struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	IDs   ids    `json:"ids"`
}

type historyEntry struct {
	WatchedAt time.Time `json:"watched_at"`
	Type      string    `json:"type"` // "movie" or "show"
	Movie     *title    `json:"movie,omitempty"`
	Show      *title    `json:"show,omitempty"`
}

type watchlistEntry struct {
	ListedAt time.Time `json:"listed_at"`
	Type     string    `json:"type"`
	Movie    *title    `json:"movie,omitempty"`
	Show     *title    `json:"show,omitempty"`
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", apiVersion)
	req.Header.Set("trakt-api-key", c.apiKey)
}

// Fetch returns the user's watched history followed by their watchlist as
// one batch of source records.
func (c *Client) Fetch(ctx context.Context, userID string) ([]models.SourceRecord, error) {
	history, err := c.fetchHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	listed, err := c.fetchWatchlist(ctx, userID)
	if err != nil {
		return nil, err
	}

	return append(history, listed...), nil
}

func (c *Client) fetchHistory(ctx context.Context, userID string) ([]models.SourceRecord, error) {
	var entries []historyEntry
	if err := c.getJSON(ctx, fmt.Sprintf("/users/%s/history", userID), &entries); err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	records := make([]models.SourceRecord, 0, len(entries))
	for _, e := range entries {
		rec, ok := toRecord(e.Type, e.Movie, e.Show)
		if !ok {
			continue
		}
		rec.WatchedAt = e.WatchedAt
		records = append(records, rec)
	}
	return records, nil
}

func (c *Client) fetchWatchlist(ctx context.Context, userID string) ([]models.SourceRecord, error) {
	var entries []watchlistEntry
	if err := c.getJSON(ctx, fmt.Sprintf("/users/%s/watchlist", userID), &entries); err != nil {
		return nil, fmt.Errorf("fetch watchlist: %w", err)
	}

	records := make([]models.SourceRecord, 0, len(entries))
	for _, e := range entries {
		rec, ok := toRecord(e.Type, e.Movie, e.Show)
		if !ok {
			continue
		}
		rec.WatchedAt = e.ListedAt
		rec.Listed = true
		records = append(records, rec)
	}
	return records, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("activity api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("activity api failed: %s - %s", resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func toRecord(entryType string, movie, show *title) (models.SourceRecord, bool) {
	var (
		t         *title
		mediaType string
	)
	switch entryType {
	case "movie":
		t, mediaType = movie, models.MediaTypeMovie
	case "show", "series":
		t, mediaType = show, models.MediaTypeSeries
	default:
		return models.SourceRecord{}, false
	}
	if t == nil {
		return models.SourceRecord{}, false
	}

	rec := models.SourceRecord{
		ImdbID: t.IDs.IMDB,
		Title:  t.Title,
		Year:   t.Year,
		Type:   mediaType,
	}
	if t.IDs.Trakt != 0 {
		rec.ID = strconv.Itoa(t.IDs.Trakt)
	}
	return rec, true
}
