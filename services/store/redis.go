package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"reelkeep/models"
)

// RedisStore persists each user partition under one key as a JSON value.
// SET replaces the value atomically, which satisfies the wholesale-write
// contract without temp-and-rename gymnastics.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to the configured redis instance and verifies the
// connection with a ping before returning.
func NewRedisStore(ctx context.Context, addr, password string, db int, keyPrefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: ping redis: %v", ErrStoreUnavailable, err)
	}

	if keyPrefix == "" {
		keyPrefix = "collection:"
	}

	return &RedisStore{client: client, prefix: keyPrefix}, nil
}

func (rs *RedisStore) key(userID string) string {
	return rs.prefix + userID
}

// LoadAll fetches and decodes the partition; a missing key is an empty
// collection, not an error.
func (rs *RedisStore) LoadAll(ctx context.Context, userID string) ([]models.MovieItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	data, err := rs.client.Get(ctx, rs.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.MovieItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get collection: %v", ErrStoreUnavailable, err)
	}

	var items []models.MovieItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: decode collection: %v", ErrStoreUnavailable, err)
	}

	return items, nil
}

// SaveAll encodes the partition and replaces its key in one atomic SET.
func (rs *RedisStore) SaveAll(ctx context.Context, userID string, items []models.MovieItem) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}

	if items == nil {
		items = []models.MovieItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: encode collection: %v", ErrStoreUnavailable, err)
	}

	if err := rs.client.Set(ctx, rs.key(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: set collection: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Close releases the underlying redis connection pool.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
