package landmarks

import (
	"context"
	"errors"
	"sync"

	"github.com/example/tour-guide/internal/models"
)

var ErrNotFound = errors.New("landmark not found")

// Store holds the curated landmark catalog. Landmarks are immutable once
// fetched; Upsert exists for the curation path only.
type Store interface {
	All(ctx context.Context) ([]models.Landmark, error)
	Get(ctx context.Context, id string) (*models.Landmark, error)
	Upsert(ctx context.Context, l models.Landmark) error
}

type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]models.Landmark
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]models.Landmark)}
}

func (m *MemoryStore) All(ctx context.Context) ([]models.Landmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Landmark, 0, len(m.byID))
	for _, l := range m.byID {
		out = append(out, l)
	}
	return out, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Landmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (m *MemoryStore) Upsert(ctx context.Context, l models.Landmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[l.ID] = l
	return nil
}
