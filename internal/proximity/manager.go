package proximity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/example/tour-guide/internal/geo"
	"github.com/example/tour-guide/internal/grace"
	"github.com/example/tour-guide/internal/models"
	"github.com/example/tour-guide/internal/timers"
)

var ErrNoSession = errors.New("no active session")

// SettingsSource returns the user's stored proximity settings, or nil when
// the user has none and defaults apply.
type SettingsSource interface {
	Get(ctx context.Context, userID string) (*models.ProximitySettings, error)
}

// Manager owns all live sessions, one per user, and the shared timer
// manager behind their grace controllers.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	landmarks geo.Source
	settings  SettingsSource
	dispatch  Dispatcher
	timers    *timers.Manager
	logger    *slog.Logger
}

func NewManager(landmarks geo.Source, settings SettingsSource, dispatch Dispatcher, tm *timers.Manager, logger *slog.Logger) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		landmarks: landmarks,
		settings:  settings,
		dispatch:  dispatch,
		timers:    tm,
		logger:    logger,
	}
}

// ProcessFix routes a fix to the user's session, creating one on first
// contact, and returns the resulting zones.
func (m *Manager) ProcessFix(ctx context.Context, f models.Fix) (Zones, error) {
	if f.UserID == "" {
		return Zones{}, errors.New("fix missing user_id")
	}
	s := m.session(ctx, f.UserID)
	return s.processFix(f), nil
}

// Resume signals an app-resume lifecycle event. Returns whether a grace
// period started.
func (m *Manager) Resume(ctx context.Context, userID string, backgroundFor time.Duration) bool {
	return m.session(ctx, userID).resume(backgroundFor)
}

// Zones returns the most recently computed zones for the user.
func (m *Manager) Zones(userID string) (Zones, error) {
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if !ok {
		return Zones{}, ErrNoSession
	}
	return s.zones(), nil
}

// GraceDebug exposes the grace metrics and history ring for the debug API.
func (m *Manager) GraceDebug(userID string) (grace.Metrics, []models.GraceHistoryEntry, error) {
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if !ok {
		return grace.Metrics{}, nil, ErrNoSession
	}
	return s.grace.Metrics(), s.grace.History(), nil
}

// UpdateSettings pushes fresh settings into a live session, if any.
func (m *Manager) UpdateSettings(userID string, ps *models.ProximitySettings) {
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if ok {
		s.setSettings(ps)
	}
}

func (m *Manager) Close(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()
	if ok {
		s.close()
	}
}

// CloseAll tears down every session and cancels all pending timers. Used on
// shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
	m.timers.CancelAll()
}

func (m *Manager) session(ctx context.Context, userID string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if ok {
		return s
	}

	var ps *models.ProximitySettings
	if m.settings != nil {
		// settings load failures degrade to defaults, never block
		if stored, err := m.settings.Get(ctx, userID); err == nil {
			ps = stored
		} else if m.logger != nil {
			m.logger.Warn("settings load failed, using defaults", "user_id", userID, "error", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s = &Session{
		userID:    userID,
		settings:  ps,
		landmarks: m.landmarks,
		dispatch:  m.dispatch,
		policy:    &grace.Policy{Logger: m.logger},
		grace:     grace.NewController(m.timers, m.logger),
		logger:    m.logger,
		alerted:   make(map[string]bool),
	}
	m.sessions[userID] = s
	return s
}
