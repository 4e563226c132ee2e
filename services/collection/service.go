package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"reelkeep/models"
	"reelkeep/services/enrich"
	"reelkeep/services/identity"
	"reelkeep/services/store"
)

var (
	ErrNotFound         = errors.New("item not found")
	ErrUserIDRequired   = errors.New("user id is required")
	ErrKeyRequired      = errors.New("key is required")
	ErrTitleRequired    = errors.New("title is required")
	ErrInvalidListState = errors.New("invalid list state")
)

// ActivityProvider yields a user's already-fetched watch activity.
type ActivityProvider interface {
	Fetch(ctx context.Context, userID string) ([]models.SourceRecord, error)
}

// Enricher fills missing descriptive fields on a single record.
type Enricher interface {
	Enrich(ctx context.Context, item models.MovieItem) (models.MovieItem, error)
}

// Service owns the per-user collection: it reconciles sync batches, applies
// user edits and list transitions, and serves paginated views. All persisted
// state flows through the store's load/save contract; nothing mutates it
// directly.
type Service struct {
	store         store.Store
	enricher      Enricher
	activity      ActivityProvider
	pageSize      int
	enrichWorkers int
}

func NewService(st store.Store, enricher Enricher, activity ActivityProvider, pageSize, enrichWorkers int) *Service {
	if pageSize <= 0 {
		pageSize = 50
	}
	if enrichWorkers <= 0 {
		enrichWorkers = 4
	}
	return &Service{
		store:         st,
		enricher:      enricher,
		activity:      activity,
		pageSize:      pageSize,
		enrichWorkers: enrichWorkers,
	}
}

// Sync fetches the user's watch activity and reconciles it into the stored
// collection.
func (s *Service) Sync(ctx context.Context, userID string) (models.SyncResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.SyncResult{}, ErrUserIDRequired
	}
	if s.activity == nil {
		return models.SyncResult{}, errors.New("activity service not configured")
	}

	records, err := s.activity.Fetch(ctx, userID)
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("fetch activity: %w", err)
	}

	return s.SyncRecords(ctx, userID, records)
}

// SyncRecords reconciles an already-fetched batch of raw source records.
// Every merged record still missing metadata is enriched concurrently before
// the snapshot is persisted, so a record left unenriched by an earlier
// failure is retried on the next sync. An enrichment failure leaves its
// record unenriched and never aborts the sync.
func (s *Service) SyncRecords(ctx context.Context, userID string, records []models.SourceRecord) (models.SyncResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.SyncResult{}, ErrUserIDRequired
	}

	existing, err := s.store.LoadAll(ctx, userID)
	if err != nil {
		return models.SyncResult{}, err
	}

	merged, result := reconcile(existing, records)

	if s.enricher != nil {
		var targets []string
		for _, item := range merged {
			if strings.TrimSpace(item.ImdbID) == "" {
				continue
			}
			if enrich.NeedsEnrichment(item) {
				targets = append(targets, item.Key())
			}
		}
		if len(targets) > 0 {
			s.enrichKeys(ctx, merged, targets)
		}
	}

	if err := s.store.SaveAll(ctx, userID, merged); err != nil {
		return models.SyncResult{}, err
	}

	if result.Skipped > 0 {
		slog.Warn("sync skipped records missing identity or title",
			"user_id", userID,
			"skipped", result.Skipped,
		)
	}

	return result, nil
}

// enrichKeys fills metadata for the given keys in place, bounded by the
// configured worker count.
func (s *Service) enrichKeys(ctx context.Context, items []models.MovieItem, keys []string) {
	index := make(map[string]int, len(items))
	for i, item := range items {
		index[item.Key()] = i
	}

	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(s.enrichWorkers)
	for _, key := range keys {
		i, ok := index[key]
		if !ok {
			continue
		}
		item := items[i]
		p.Go(func() {
			enriched, err := s.enricher.Enrich(ctx, item)
			if err != nil {
				// Absorbed here: the record persists unenriched and is
				// retried on the next sync.
				slog.Warn("enrichment failed", "key", item.Key(), "error", err)
				return
			}
			mu.Lock()
			items[i] = enriched
			mu.Unlock()
		})
	}
	p.Wait()
}

// AddManual inserts an item by hand, or refreshes the source fields of an
// existing one. Items without any identifier get a generated id so the
// canonical key stays resolvable.
func (s *Service) AddManual(ctx context.Context, userID string, input models.ManualAdd) (models.MovieItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.MovieItem{}, ErrUserIDRequired
	}
	if strings.TrimSpace(input.Title) == "" {
		return models.MovieItem{}, ErrTitleRequired
	}

	if strings.TrimSpace(input.ImdbID) == "" && strings.TrimSpace(input.ID) == "" {
		input.ID = uuid.NewString()
	}
	key, err := identity.Key(input.ImdbID, input.ID)
	if err != nil {
		return models.MovieItem{}, err
	}

	items, err := s.store.LoadAll(ctx, userID)
	if err != nil {
		return models.MovieItem{}, err
	}

	mediaType := strings.ToLower(strings.TrimSpace(input.Type))
	if mediaType == "" {
		mediaType = models.MediaTypeMovie
	}

	found := -1
	for i := range items {
		if items[i].Key() == key {
			found = i
			break
		}
	}

	var item models.MovieItem
	if found >= 0 {
		item = items[found]
		item.Title = input.Title
		if input.Year != 0 {
			item.Year = input.Year
		}
		item.Type = mediaType
	} else {
		item = models.MovieItem{
			ID:     strings.TrimSpace(input.ID),
			ImdbID: strings.TrimSpace(input.ImdbID),
			Title:  input.Title,
			Year:   input.Year,
			Type:   mediaType,
			Source: models.SourceManual,
			Date:   time.Now().UTC(),
		}
	}

	if s.enricher != nil {
		enriched, err := s.enricher.Enrich(ctx, item)
		if err != nil {
			slog.Warn("enrichment failed", "key", key, "error", err)
		} else {
			item = enriched
		}
	}

	if found >= 0 {
		items[found] = item
	} else {
		items = append(items, item)
	}

	if err := s.store.SaveAll(ctx, userID, items); err != nil {
		return models.MovieItem{}, err
	}

	return item, nil
}

// SetListState applies a watchlist transition. Both directions are
// idempotent: re-adding a watchlisted item or re-watching a watched one is
// a no-op success. Anything but "watchlist" and "watched" is rejected.
func (s *Service) SetListState(ctx context.Context, userID, key, state string) (models.MovieItem, error) {
	state = strings.ToLower(strings.TrimSpace(state))
	if state != models.ListWatchlist && state != models.ListWatched {
		return models.MovieItem{}, ErrInvalidListState
	}

	return s.mutate(ctx, userID, key, func(item *models.MovieItem) {
		if state == models.ListWatchlist {
			item.List = models.ListWatchlist
			return
		}
		// Removing from the watchlist marks the item watched, which is the
		// unset list value.
		item.List = ""
	})
}

// SetUserEdit applies an explicit edit of the user-authored fields. This is
// the only path that may change them.
func (s *Service) SetUserEdit(ctx context.Context, userID, key string, edit models.UserEdit) (models.MovieItem, error) {
	return s.mutate(ctx, userID, key, func(item *models.MovieItem) {
		if edit.Rating != nil {
			item.UserRating = edit.Rating
		}
		if edit.Note != nil {
			item.UserNote = edit.Note
		}
	})
}

// RecordPlay bumps the play count and refreshes the activity date.
func (s *Service) RecordPlay(ctx context.Context, userID, key string) (models.MovieItem, error) {
	return s.mutate(ctx, userID, key, func(item *models.MovieItem) {
		item.Plays++
		item.Date = time.Now().UTC()
	})
}

// RemoveLocal deletes one item from the user's collection.
func (s *Service) RemoveLocal(ctx context.Context, userID, key string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrKeyRequired
	}

	removed, err := store.Remove(ctx, s.store, userID, key)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFound
	}
	return nil
}

// QueryPage returns one page of the collection under the given sort key.
func (s *Service) QueryPage(ctx context.Context, userID, sortKey string, page int) ([]models.MovieItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	items, err := s.store.LoadAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	return Query(items, sortKey, page, s.pageSize), nil
}

// Dedup is the collection-wide maintenance pass: it collapses any
// duplicate keys the store may have accumulated and reports how many
// records were removed.
func (s *Service) Dedup(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, ErrUserIDRequired
	}

	items, err := s.store.LoadAll(ctx, userID)
	if err != nil {
		return 0, err
	}

	deduped := dedupeByKey(items)
	removed := len(items) - len(deduped)
	if removed == 0 {
		return 0, nil
	}

	if err := s.store.SaveAll(ctx, userID, deduped); err != nil {
		return 0, err
	}

	return removed, nil
}

// mutate runs one read-modify-write cycle against a single record. Two
// concurrent mutations on the same partition resolve as last-writer-wins
// per full snapshot.
func (s *Service) mutate(ctx context.Context, userID, key string, fn func(*models.MovieItem)) (models.MovieItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.MovieItem{}, ErrUserIDRequired
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return models.MovieItem{}, ErrKeyRequired
	}

	items, err := s.store.LoadAll(ctx, userID)
	if err != nil {
		return models.MovieItem{}, err
	}

	for i := range items {
		if items[i].Key() != key {
			continue
		}
		before := items[i]
		fn(&items[i])
		if items[i] == before {
			// No change; skip the write so idempotent transitions stay cheap.
			return items[i], nil
		}
		if err := s.store.SaveAll(ctx, userID, items); err != nil {
			return models.MovieItem{}, err
		}
		return items[i], nil
	}

	return models.MovieItem{}, ErrNotFound
}
