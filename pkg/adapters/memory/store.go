package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/pathway/pkg/domain"
)

// CursorStore implements ports.CursorStore in memory.
// Safe for concurrent use.
type CursorStore struct {
	data map[string]*domain.Cursor
	mu   sync.RWMutex
}

// NewCursorStore creates an empty in-memory cursor store.
func NewCursorStore() *CursorStore {
	return &CursorStore{
		data: make(map[string]*domain.Cursor),
	}
}

// Save stores a copy of the cursor.
func (s *CursorStore) Save(_ context.Context, key string, cur *domain.Cursor) error {
	copied := cur.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = copied
	return nil
}

// Load returns a copy of the stored cursor.
func (s *CursorStore) Load(_ context.Context, key string) (*domain.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cur, ok := s.data[key]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return cur.Clone(), nil
}

// Delete removes the cursor.
func (s *CursorStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored session keys, sorted.
func (s *CursorStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
