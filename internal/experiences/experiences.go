// Package experiences manages the paid AI-voice-guided tours authored by
// travel experts: the catalog, the Stripe checkout flow, and the thin
// clients for the voice-agent and itinerary-draft SaaS APIs.
package experiences

import (
	"context"
	"errors"
	"sync"

	"github.com/example/tour-guide/internal/models"
)

var (
	ErrNotFound         = errors.New("experience not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
)

type Store interface {
	List(ctx context.Context) ([]models.Experience, error)
	Get(ctx context.Context, id string) (*models.Experience, error)
	Save(ctx context.Context, e *models.Experience) error

	SavePurchase(ctx context.Context, p *models.Purchase) error
	GetPurchase(ctx context.Context, id string) (*models.Purchase, error)
	UpdatePurchaseStatus(ctx context.Context, id, status string) error
}

type MemoryStore struct {
	mu        sync.RWMutex
	byID      map[string]models.Experience
	purchases map[string]models.Purchase
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]models.Experience), purchases: make(map[string]models.Purchase)}
}

func (m *MemoryStore) List(ctx context.Context) ([]models.Experience, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Experience, 0, len(m.byID))
	for _, e := range m.byID {
		out = append(out, e)
	}
	return out, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Experience, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *MemoryStore) Save(ctx context.Context, e *models.Experience) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[e.ID] = *e
	return nil
}

func (m *MemoryStore) SavePurchase(ctx context.Context, p *models.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purchases[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetPurchase(ctx context.Context, id string) (*models.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.purchases[id]
	if !ok {
		return nil, ErrPurchaseNotFound
	}
	return &p, nil
}

func (m *MemoryStore) UpdatePurchaseStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.purchases[id]
	if !ok {
		return ErrPurchaseNotFound
	}
	p.Status = status
	m.purchases[id] = p
	return nil
}
