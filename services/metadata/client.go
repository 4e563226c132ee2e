package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"reelkeep/models"
)

// Unknown is the sentinel the metadata provider uses for fields it has no
// value for. Enrichment treats it the same as an empty field.
const Unknown = "N/A"

var ErrNotFound = errors.New("metadata not found")

// Client performs single-title lookups against the metadata service keyed
// by imdb id. The core never issues bulk queries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// NewClient creates a metadata client. requestsPerSec paces outgoing
// lookups below the provider's budget.
func NewClient(baseURL, apiKey string, requestsPerSec float64) *Client {
	if requestsPerSec <= 0 {
		requestsPerSec = 2
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSec), 1),
	}
}

// lookupResponse mirrors the provider's wire shape.
type lookupResponse struct {
	Response   string `json:"Response"`
	Error      string `json:"Error,omitempty"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Genre      string `json:"Genre"`
	Runtime    string `json:"Runtime"`
	ImdbRating string `json:"imdbRating"`
	Ratings    []struct {
		Source string `json:"Source"`
		Value  string `json:"Value"`
	} `json:"Ratings"`
}

// ByImdbID fetches descriptive fields for one title. Transient upstream
// failures are retried a few times with backoff before giving up.
func (c *Client) ByImdbID(ctx context.Context, imdbID string) (models.Metadata, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return models.Metadata{}, errors.New("imdb id is required")
	}

	var meta models.Metadata
	err := retry.Do(
		func() error {
			var err error
			meta, err = c.fetch(ctx, imdbID)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrNotFound)
		}),
	)
	return meta, err
}

func (c *Client) fetch(ctx context.Context, imdbID string) (models.Metadata, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.Metadata{}, err
	}

	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("i", imdbID)
	q.Set("plot", "short")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("metadata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return models.Metadata{}, fmt.Errorf("metadata lookup failed: %s - %s", resp.Status, string(body))
	}

	var lr lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return models.Metadata{}, fmt.Errorf("decode response: %w", err)
	}

	if strings.EqualFold(lr.Response, "False") {
		return models.Metadata{}, fmt.Errorf("%w: %s", ErrNotFound, lr.Error)
	}

	meta := models.Metadata{
		Director: clean(lr.Director),
		Actors:   clean(lr.Actors),
		Plot:     clean(lr.Plot),
		Genre:    clean(lr.Genre),
		Runtime:  clean(lr.Runtime),
	}

	if v := clean(lr.ImdbRating); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			meta.Rating = parsed
		}
	}

	for _, r := range lr.Ratings {
		switch r.Source {
		case "Rotten Tomatoes":
			meta.RottenTomatoes = clean(r.Value)
		case "Metacritic":
			meta.Metacritic = clean(r.Value)
		}
	}

	return meta, nil
}

// clean strips the provider's unknown sentinel down to an empty string.
func clean(v string) string {
	v = strings.TrimSpace(v)
	if v == Unknown {
		return ""
	}
	return v
}
