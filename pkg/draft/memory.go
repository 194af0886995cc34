package draft

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps drafts in a process-local map. Documents are deep-copied
// on the way in and out so callers never share state with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Draft
}

var (
	_ Store  = (*MemoryStore)(nil)
	_ Lister = (*MemoryStore)(nil)
)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Draft)}
}

// GetItem returns the draft stored under key.
func (s *MemoryStore) GetItem(ctx context.Context, key string) (Draft, bool, error) {
	if err := ctx.Err(); err != nil {
		return Draft{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.items[key]
	if !ok {
		return Draft{}, false, nil
	}
	return CloneDraft(d), true, nil
}

// SetItem replaces whatever is stored under key.
func (s *MemoryStore) SetItem(ctx context.Context, key string, d Draft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = CloneDraft(d)
	return nil
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (s *MemoryStore) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Keys returns the stored keys in lexical order.
func (s *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Len reports how many records are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
