package recs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelkeep/models"
)

// Client looks up similar and recommended titles for presentation. The
// results never participate in reconciliation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

type relatedEntry struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	IDs   struct {
		IMDB string `json:"imdb,omitempty"`
	} `json:"ids"`
}

// Similar returns titles alike the given one.
func (c *Client) Similar(ctx context.Context, imdbID string) ([]models.Related, error) {
	return c.related(ctx, imdbID, "related")
}

// Recommended returns titles the service suggests alongside the given one.
func (c *Client) Recommended(ctx context.Context, imdbID string) ([]models.Related, error) {
	return c.related(ctx, imdbID, "recommended")
}

func (c *Client) related(ctx context.Context, imdbID, kind string) ([]models.Related, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, fmt.Errorf("imdb id is required")
	}

	url := fmt.Sprintf("%s/movies/%s/%s", c.baseURL, imdbID, kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", "2")
	req.Header.Set("trakt-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recommendation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("recommendation lookup failed: %s - %s", resp.Status, string(body))
	}

	var entries []relatedEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	related := make([]models.Related, 0, len(entries))
	for _, e := range entries {
		related = append(related, models.Related{
			Title:  e.Title,
			Year:   e.Year,
			ImdbID: e.IDs.IMDB,
			Type:   models.MediaTypeMovie,
		})
	}
	return related, nil
}
