package tracker

import (
	"context"
	"sync"

	"github.com/riftcast/riftcast/internal/domain"
)

// MemoryStore is the default TrackerStore. State lives in process memory
// and is lost on restart; use the redis-backed store to survive restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]domain.TrackerEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]domain.TrackerEntry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (domain.TrackerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return domain.TrackerEntry{}, domain.ErrNotFound
	}
	return entry, nil
}

func (s *MemoryStore) Put(_ context.Context, entry domain.TrackerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.AccountKey] = entry
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

var _ domain.TrackerStore = (*MemoryStore)(nil)
