package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/riftcast/riftcast/internal/domain"
)

// TrackerStore implements domain.TrackerStore on Redis so tracking state
// survives process restarts. Entries are stored as JSON, one key per
// account, and carry no TTL: an entry lives until the tracker removes it.
type TrackerStore struct {
	rdb *redis.Client
}

// NewTrackerStore creates a TrackerStore backed by the given Client.
func NewTrackerStore(c *Client) *TrackerStore {
	return &TrackerStore{rdb: c.Underlying()}
}

func trackerKey(key string) string {
	return "tracker:" + key
}

func (s *TrackerStore) Get(ctx context.Context, key string) (domain.TrackerEntry, error) {
	data, err := s.rdb.Get(ctx, trackerKey(key)).Bytes()
	if err == redis.Nil {
		return domain.TrackerEntry{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.TrackerEntry{}, fmt.Errorf("redis: get tracker entry %s: %w", key, err)
	}

	var entry domain.TrackerEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return domain.TrackerEntry{}, fmt.Errorf("redis: decode tracker entry %s: %w", key, err)
	}
	return entry, nil
}

func (s *TrackerStore) Put(ctx context.Context, entry domain.TrackerEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis: encode tracker entry %s: %w", entry.AccountKey, err)
	}
	if err := s.rdb.Set(ctx, trackerKey(entry.AccountKey), data, 0).Err(); err != nil {
		return fmt.Errorf("redis: put tracker entry %s: %w", entry.AccountKey, err)
	}
	return nil
}

func (s *TrackerStore) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, trackerKey(key)).Err(); err != nil {
		return fmt.Errorf("redis: remove tracker entry %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.TrackerStore = (*TrackerStore)(nil)
