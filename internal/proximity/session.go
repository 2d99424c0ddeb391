package proximity

import (
	"log/slog"
	"sync"
	"time"

	"github.com/example/tour-guide/internal/geo"
	"github.com/example/tour-guide/internal/grace"
	"github.com/example/tour-guide/internal/models"
	"github.com/example/tour-guide/internal/motion"
	"github.com/example/tour-guide/internal/observability"
)

// fixHistorySize bounds the per-session fix window fed to the classifier.
const fixHistorySize = 10

// Dispatcher delivers a proximity alert to the user's device.
type Dispatcher interface {
	Alert(userID string, a models.ProximityAlert) error
}

// Session tracks one user's proximity state: fix history, grace-period
// controller, and the landmarks already alerted. Fixes are processed
// strictly in arrival order under the mutex.
type Session struct {
	mu sync.Mutex

	userID    string
	settings  *models.ProximitySettings
	landmarks geo.Source
	dispatch  Dispatcher
	policy    *grace.Policy
	grace     *grace.Controller
	logger    *slog.Logger

	fixes []models.Fix
	// anchor is the position when the last grace evaluation reset it; the
	// movement trigger measures displacement from here.
	anchor    models.Coord
	hasAnchor bool
	alerted   map[string]bool
	lastZones Zones
}

func (s *Session) processFix(f models.Fix) Zones {
	s.mu.Lock()
	defer s.mu.Unlock()

	observability.FixesProcessed.Inc()

	first := len(s.fixes) == 0
	s.fixes = append(s.fixes, f)
	if len(s.fixes) > fixHistorySize {
		s.fixes = s.fixes[len(s.fixes)-fixHistorySize:]
	}

	cls := motion.Classify(s.fixes)
	s.maybeActivateGrace(f, first, cls)

	var cands []models.Landmark
	if s.landmarks != nil {
		outer := models.DefaultSettings().OuterDistanceM
		if s.settings != nil {
			outer = s.settings.OuterDistanceM
		}
		// +1m so the prefilter never excludes a boundary landmark the
		// evaluator would round in
		cands = s.landmarks.Near(f.Loc, outer+1, 0)
	}
	z := ZonesFor(f.Loc, cands, s.settings)
	s.fireAlerts(f, z)
	s.lastZones = z
	return z
}

func (s *Session) maybeActivateGrace(f models.Fix, first bool, cls motion.Classification) {
	ctx := grace.ActivationContext{CurrentlyActive: s.grace.Active()}
	ctx.TimeSinceLast, ctx.HasPrevious = s.grace.TimeSinceLast()

	if first {
		if s.policy.ShouldActivate(models.ReasonInitialization, ctx, s.settings) {
			_ = s.grace.Activate(models.ReasonInitialization, grace.Duration(models.ReasonInitialization, s.settings))
		}
		s.anchor = f.Loc
		s.hasAnchor = true
		return
	}

	if !s.hasAnchor {
		s.anchor = f.Loc
		s.hasAnchor = true
		return
	}
	if !cls.IsMoving {
		return
	}
	ctx.MovementDistanceM = geo.DistanceMeters(s.anchor, f.Loc)
	if s.policy.ShouldActivate(models.ReasonMovement, ctx, s.settings) {
		_ = s.grace.Activate(models.ReasonMovement, grace.Duration(models.ReasonMovement, s.settings))
		s.anchor = f.Loc
	}
}

// fireAlerts notifies for new notification-zone entries, once per landmark
// until the user leaves the outer zone. Caller holds the lock.
func (s *Session) fireAlerts(f models.Fix, z Zones) {
	inPrep := make(map[string]bool, len(z.Prep))
	for _, nl := range z.Prep {
		inPrep[nl.ID] = true
	}
	for id := range s.alerted {
		if !inPrep[id] {
			delete(s.alerted, id)
		}
	}

	// alerting off entirely; zones are still computed for the nearby surface
	if s.settings != nil && !s.settings.Enabled {
		return
	}

	suppressed := s.grace.Active()
	for _, nl := range z.Notification {
		if s.alerted[nl.ID] {
			continue
		}
		if suppressed {
			observability.AlertsSuppressed.Inc()
			continue
		}
		s.alerted[nl.ID] = true
		a := models.ProximityAlert{UserID: s.userID, Landmark: nl, FiredAt: time.Now()}
		if s.dispatch != nil {
			if err := s.dispatch.Alert(s.userID, a); err != nil {
				if s.logger != nil {
					s.logger.Warn("alert delivery failed", "user_id", s.userID, "landmark_id", nl.ID, "error", err)
				}
				continue
			}
		}
		observability.AlertsFired.Inc()
	}
}

func (s *Session) resume(backgroundFor time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := grace.ActivationContext{CurrentlyActive: s.grace.Active(), BackgroundDuration: backgroundFor}
	ctx.TimeSinceLast, ctx.HasPrevious = s.grace.TimeSinceLast()
	if !s.policy.ShouldActivate(models.ReasonAppResume, ctx, s.settings) {
		return false
	}
	_ = s.grace.Activate(models.ReasonAppResume, grace.Duration(models.ReasonAppResume, s.settings))
	return true
}

func (s *Session) setSettings(ps *models.ProximitySettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = ps
}

func (s *Session) zones() Zones {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastZones
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grace.Active() {
		_ = s.grace.Clear("session_closed")
	}
}
