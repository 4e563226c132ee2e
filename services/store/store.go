package store

import (
	"context"
	"errors"

	"reelkeep/models"
)

var (
	// ErrStoreUnavailable wraps backend I/O failures. The current operation
	// aborts; previously persisted state is never corrupted.
	ErrStoreUnavailable = errors.New("collection store unavailable")

	ErrUserIDRequired = errors.New("user id is required")
	ErrKeyRequired    = errors.New("key is required")
)

// Store is the durable key-partitioned collection storage. Both backends
// implement the identical contract so callers stay backend-agnostic.
//
// Concurrency: read-modify-write sequences racing on the same partition
// resolve as last-writer-wins per full snapshot. There is no fine-grained
// locking; the collection is single-user and conflicts are rare and
// non-catastrophic.
type Store interface {
	// LoadAll returns the ordered sequence of items for one user partition.
	// A partition that was never written loads as an empty sequence.
	LoadAll(ctx context.Context, userID string) ([]models.MovieItem, error)

	// SaveAll replaces the partition wholesale. The write is atomic from the
	// caller's perspective: a failure mid-write leaves the previous snapshot
	// intact.
	SaveAll(ctx context.Context, userID string, items []models.MovieItem) error
}

// Get finds a single item by canonical key via the load path.
func Get(ctx context.Context, s Store, userID, key string) (models.MovieItem, bool, error) {
	if key == "" {
		return models.MovieItem{}, false, ErrKeyRequired
	}
	items, err := s.LoadAll(ctx, userID)
	if err != nil {
		return models.MovieItem{}, false, err
	}
	for _, item := range items {
		if item.Key() == key {
			return item, true, nil
		}
	}
	return models.MovieItem{}, false, nil
}

// Upsert inserts or replaces one item via the load/save pair.
func Upsert(ctx context.Context, s Store, userID string, item models.MovieItem) error {
	key := item.Key()
	if key == "" {
		return ErrKeyRequired
	}
	items, err := s.LoadAll(ctx, userID)
	if err != nil {
		return err
	}
	replaced := false
	for i := range items {
		if items[i].Key() == key {
			items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, item)
	}
	return s.SaveAll(ctx, userID, items)
}

// Remove deletes one item by key via the load/save pair. It reports whether
// anything was removed.
func Remove(ctx context.Context, s Store, userID, key string) (bool, error) {
	if key == "" {
		return false, ErrKeyRequired
	}
	items, err := s.LoadAll(ctx, userID)
	if err != nil {
		return false, err
	}
	kept := items[:0]
	removed := false
	for _, item := range items {
		if item.Key() == key {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return false, nil
	}
	return true, s.SaveAll(ctx, userID, kept)
}
