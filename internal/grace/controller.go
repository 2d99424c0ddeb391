package grace

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/tour-guide/internal/models"
	"github.com/example/tour-guide/internal/observability"
	"github.com/example/tour-guide/internal/timers"
)

var (
	ErrAlreadyActive = errors.New("grace period already active")
	ErrNotActive     = errors.New("no grace period active")
)

// historySize bounds the debug ring buffer.
const historySize = 50

// Metrics is a point-in-time summary for the debug surface.
// EffectivenessRate is the share of activations that ran their full course
// instead of being cleared early.
type Metrics struct {
	TotalActivations  int           `json:"total_activations"`
	TotalExpired      int           `json:"total_expired"`
	TotalClears       int           `json:"total_clears"`
	EffectivenessRate float64       `json:"effectiveness_rate"`
	AverageDuration   time.Duration `json:"average_duration"`
}

// State is a snapshot of the controller for callers that need more than the
// active flag.
type State struct {
	Active      bool               `json:"active"`
	Reason      models.GraceReason `json:"reason,omitempty"`
	ActivatedAt time.Time          `json:"activated_at,omitempty"`
}

// Controller is the per-session grace-period state machine: Inactive or
// Active(reason, expiry), with the countdown timer owned here. One instance
// per session, constructed and injected by the session manager; there is no
// package-level instance.
type Controller struct {
	mu     sync.Mutex
	timers *timers.Manager
	logger *slog.Logger

	active      bool
	reason      models.GraceReason
	activatedAt time.Time
	timerID     string
	generation  uint64

	lastEnded    time.Time
	hasLastEnded bool

	activations int
	expired     int
	clears      int
	totalRun    time.Duration

	history []models.GraceHistoryEntry
}

func NewController(tm *timers.Manager, logger *slog.Logger) *Controller {
	return &Controller{timers: tm, logger: logger}
}

// Activate starts a grace period. Callers gate this through
// Policy.ShouldActivate; re-entrant calls while active are rejected rather
// than resetting the timer.
func (c *Controller) Activate(reason models.GraceReason, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return ErrAlreadyActive
	}

	c.active = true
	c.reason = reason
	c.activatedAt = time.Now()
	c.activations++
	c.generation++
	gen := c.generation
	c.timerID = c.timers.Schedule(timers.PurposeGracePeriod, d, func() { c.expire(gen) })

	observability.GraceActivations.WithLabelValues(string(reason)).Inc()
	c.append("activated", reason, "")
	if c.logger != nil {
		c.logger.Info("grace period activated", "reason", string(reason), "duration_ms", d.Milliseconds())
	}
	return nil
}

// Clear ends the active grace period early, recording what triggered it.
func (c *Controller) Clear(trigger string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return ErrNotActive
	}
	c.timers.Cancel(c.timerID)
	reason := c.reason
	c.deactivate()
	c.clears++
	c.append("cleared", reason, trigger)
	if c.logger != nil {
		c.logger.Info("grace period cleared", "reason", string(reason), "trigger", trigger)
	}
	return nil
}

// expire runs on the timer goroutine when the window elapses naturally.
// The generation guard drops callbacks from timers of already-ended periods
// so they cannot end a successor.
func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || gen != c.generation {
		return
	}
	reason := c.reason
	c.deactivate()
	c.expired++
	c.append("expired", reason, "")
	if c.logger != nil {
		c.logger.Debug("grace period expired", "reason", string(reason))
	}
}

// deactivate transitions to Inactive and books the elapsed run time.
// Caller holds the lock.
func (c *Controller) deactivate() {
	c.totalRun += time.Since(c.activatedAt)
	c.lastEnded = time.Now()
	c.hasLastEnded = true
	c.active = false
	c.reason = ""
	c.timerID = ""
}

func (c *Controller) append(action string, reason models.GraceReason, trigger string) {
	c.history = append(c.history, models.GraceHistoryEntry{
		ID:        uuid.NewString(),
		Action:    action,
		Reason:    reason,
		Trigger:   trigger,
		Timestamp: time.Now(),
	})
	if len(c.history) > historySize {
		c.history = c.history[len(c.history)-historySize:]
	}
}

func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Active: c.active, Reason: c.reason, ActivatedAt: c.activatedAt}
}

// TimeSinceLast reports how long ago the previous grace period ended; the
// bool is false when none has run yet.
func (c *Controller) TimeSinceLast() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasLastEnded {
		return 0, false
	}
	return time.Since(c.lastEnded), true
}

func (c *Controller) Metrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := Metrics{
		TotalActivations: c.activations,
		TotalExpired:     c.expired,
		TotalClears:      c.clears,
	}
	if c.activations > 0 {
		m.EffectivenessRate = float64(c.expired) / float64(c.activations)
	}
	if completed := c.expired + c.clears; completed > 0 {
		m.AverageDuration = c.totalRun / time.Duration(completed)
	}
	return m
}

// History returns a copy of the debug ring buffer, oldest first.
func (c *Controller) History() []models.GraceHistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.GraceHistoryEntry, len(c.history))
	copy(out, c.history)
	return out
}
