package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"reelkeep/models"
)

var ErrStorageDirRequired = errors.New("storage directory not provided")

// FileStore persists every user partition inside a single JSON document,
// read and written wholesale. An in-process cache avoids redundant disk
// reads within one process lifetime; every SaveAll refreshes the cache
// atomically, and a fresh process reads from disk on construction.
type FileStore struct {
	mu    sync.RWMutex
	path  string
	cache map[string][]models.MovieItem
}

// NewFileStore creates a file-backed store inside the provided directory.
func NewFileStore(storageDir string) (*FileStore, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create collection dir: %v", ErrStoreUnavailable, err)
	}

	fs := &FileStore{
		path:  filepath.Join(storageDir, "collection.json"),
		cache: make(map[string][]models.MovieItem),
	}

	if err := fs.load(); err != nil {
		return nil, err
	}

	return fs, nil
}

// LoadAll returns a copy of the cached partition.
func (fs *FileStore) LoadAll(ctx context.Context, userID string) ([]models.MovieItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	items := make([]models.MovieItem, len(fs.cache[userID]))
	copy(items, fs.cache[userID])
	return items, nil
}

// SaveAll replaces the partition and persists the whole document atomically
// via a temp file and rename. The cache is only refreshed once the rename
// succeeded, so a failed write leaves both disk and cache at the previous
// snapshot.
func (fs *FileStore) SaveAll(ctx context.Context, userID string, items []models.MovieItem) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	snapshot := make(map[string][]models.MovieItem, len(fs.cache)+1)
	for id, existing := range fs.cache {
		if id == userID {
			continue
		}
		snapshot[id] = existing
	}
	stored := make([]models.MovieItem, len(items))
	copy(stored, items)
	snapshot[userID] = stored

	if err := fs.writeLocked(snapshot); err != nil {
		return err
	}

	fs.cache = snapshot
	return nil
}

func (fs *FileStore) load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	file, err := os.Open(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		fs.cache = make(map[string][]models.MovieItem)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: open collection: %v", ErrStoreUnavailable, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("%w: read collection: %v", ErrStoreUnavailable, err)
	}
	if len(data) == 0 {
		fs.cache = make(map[string][]models.MovieItem)
		return nil
	}

	var byUser map[string][]models.MovieItem
	if err := json.Unmarshal(data, &byUser); err != nil {
		return fmt.Errorf("%w: decode collection: %v", ErrStoreUnavailable, err)
	}

	fs.cache = make(map[string][]models.MovieItem, len(byUser))
	for userID, items := range byUser {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			continue
		}
		fs.cache[userID] = items
	}

	return nil
}

func (fs *FileStore) writeLocked(byUser map[string][]models.MovieItem) error {
	tmp := fs.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: create collection temp file: %v", ErrStoreUnavailable, err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(byUser); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: encode collection: %v", ErrStoreUnavailable, err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: sync collection: %v", ErrStoreUnavailable, err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: close collection temp file: %v", ErrStoreUnavailable, err)
	}

	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("%w: replace collection file: %v", ErrStoreUnavailable, err)
	}

	return nil
}
