package storage

import (
	"context"
	"sync"

	"github.com/nikbrunner/bmsync/internal/model"
)

// MemoryStorage keeps the blob in process memory. Used by tests and by the
// reference server when no data directory is configured.
type MemoryStorage struct {
	mu    sync.Mutex
	store *model.Store

	// FailSave, when set, is returned by Save instead of storing.
	FailSave error
}

// NewMemoryStorage returns a MemoryStorage seeded with a copy of store.
// A nil store starts empty.
func NewMemoryStorage(store *model.Store) *MemoryStorage {
	if store == nil {
		store = model.NewStore()
	}
	return &MemoryStorage{store: store.Clone()}
}

func (s *MemoryStorage) Load(_ context.Context) (*model.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Clone(), nil
}

func (s *MemoryStorage) Save(_ context.Context, store *model.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSave != nil {
		return s.FailSave
	}
	s.store = store.Clone()
	return nil
}

func (s *MemoryStorage) Close() error { return nil }
