package offline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps the queue in process memory. The queue is lost when the
// process exits.
type MemoryStore struct {
	mu       sync.RWMutex
	items    []Item
	lastSync *time.Time
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, cloneItem(item))
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, len(s.items))
	for i := range s.items {
		out[i] = cloneItem(s.items[i])
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i] = cloneItem(item)
			return nil
		}
	}
	return ErrItemNotFound
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.lastSync = nil
	return nil
}

func (s *MemoryStore) LastSync(_ context.Context) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSync == nil {
		return nil, nil
	}
	at := *s.lastSync
	return &at, nil
}

func (s *MemoryStore) SetLastSync(_ context.Context, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSync = &at
	return nil
}

func cloneItem(item Item) Item {
	if item.Data != nil {
		item.Data = append([]byte(nil), item.Data...)
	}
	if item.SyncedAt != nil {
		at := *item.SyncedAt
		item.SyncedAt = &at
	}
	return item
}
