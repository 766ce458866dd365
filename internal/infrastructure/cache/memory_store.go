package cache

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/ports"
)

// MemoryStore keeps entries in a bounded LRU. The least recently used entry is
// dropped when the store is full.
type MemoryStore struct {
	entries   *lru.Cache[string, domain.CacheEntry]
	evictions atomic.Uint64
}

// NewMemoryStore creates a store holding at most maxEntries entries.
func NewMemoryStore(maxEntries int) (*MemoryStore, error) {
	if maxEntries <= 0 {
		maxEntries = domain.DefaultMaxCacheEntries
	}
	entries, err := lru.New[string, domain.CacheEntry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &MemoryStore{entries: entries}, nil
}

// Load returns a copy of the entry stored under key.
func (s *MemoryStore) Load(key string) (domain.CacheEntry, bool, error) {
	entry, ok := s.entries.Get(key)
	if !ok {
		return domain.CacheEntry{}, false, nil
	}
	entry.Data = domain.CloneItems(entry.Data)
	return entry, true, nil
}

// Save replaces the entry under entry.Key.
func (s *MemoryStore) Save(entry domain.CacheEntry) error {
	if entry.Key == "" {
		return nil
	}
	entry.Data = domain.CloneItems(entry.Data)
	if evicted := s.entries.Add(entry.Key, entry); evicted {
		s.evictions.Add(1)
	}
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(key string) error {
	s.entries.Remove(key)
	return nil
}

// List returns every stored entry, oldest first.
func (s *MemoryStore) List() ([]domain.CacheEntry, error) {
	values := s.entries.Values()
	out := make([]domain.CacheEntry, 0, len(values))
	for _, entry := range values {
		entry.Data = domain.CloneItems(entry.Data)
		out = append(out, entry)
	}
	return out, nil
}

// Clear drops every entry.
func (s *MemoryStore) Clear() error {
	s.entries.Purge()
	return nil
}

// CapacityEvictions counts entries dropped because the store was full.
func (s *MemoryStore) CapacityEvictions() uint64 {
	return s.evictions.Load()
}

var _ ports.CacheStore = (*MemoryStore)(nil)
