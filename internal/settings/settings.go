// Package settings persists per-user proximity settings. The distance
// ordering invariant is enforced here at write time by clamping; reads never
// fail the caller, they fall back to defaults.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/example/tour-guide/internal/models"
)

var ErrNotFound = errors.New("settings not found")

type Store interface {
	// Get returns the stored settings, or ErrNotFound.
	Get(ctx context.Context, userID string) (*models.ProximitySettings, error)
	Put(ctx context.Context, s *models.ProximitySettings) error
	Delete(ctx context.Context, userID string) error
}

// Normalize applies a named preset if requested, then clamps the distance
// ordering. Returns whether the clamp changed anything, for warning logs.
func Normalize(s *models.ProximitySettings) (clamped bool, err error) {
	if s.UserID == "" {
		return false, fmt.Errorf("settings missing user_id")
	}
	if s.Preset != "" {
		p, ok := models.PresetSettings(s.Preset)
		if !ok {
			return false, fmt.Errorf("unknown preset %q", s.Preset)
		}
		p.UserID = s.UserID
		*s = *p
	}
	return s.Clamp(), nil
}

type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]models.ProximitySettings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]models.ProximitySettings)}
}

func (m *MemoryStore) Get(ctx context.Context, userID string) (*models.ProximitySettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := s
	return &out, nil
}

func (m *MemoryStore) Put(ctx context.Context, s *models.ProximitySettings) error {
	if _, err := Normalize(s); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.UserID] = *s
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, userID)
	return nil
}
