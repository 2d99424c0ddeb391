package timers

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Purpose string

const (
	PurposeGracePeriod Purpose = "grace_period"
	PurposeDebounce    Purpose = "debounce"
	PurposeRetry       Purpose = "retry"
	PurposeHealthCheck Purpose = "health_check"
)

// staleFactor: a timer still pending at this multiple of its duration past
// start is considered leaked and force-cleared by the sweeper.
const staleFactor = 1.5

type entry struct {
	id       string
	purpose  Purpose
	timer    *time.Timer
	started  time.Time
	duration time.Duration
}

// Manager owns all scheduled timers for a process. Timers self-clean on
// fire; a periodic sweep catches any left pending past 1.5x their duration,
// which in practice only happens after process suspension or an unmount
// race in a caller.
type Manager struct {
	mu      sync.Mutex
	timers  map[string]*entry
	logger  *slog.Logger
	sweeper *time.Ticker
	done    chan struct{}
	closed  bool
}

func NewManager(logger *slog.Logger, sweepInterval time.Duration) *Manager {
	if sweepInterval <= 0 {
		sweepInterval = 30 * time.Second
	}
	m := &Manager{
		timers:  make(map[string]*entry),
		logger:  logger,
		sweeper: time.NewTicker(sweepInterval),
		done:    make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

// Schedule arms a one-shot timer and returns its id. fn runs on the timer
// goroutine after the entry has been removed, so fn may schedule again.
func (m *Manager) Schedule(purpose Purpose, d time.Duration, fn func()) string {
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ""
	}
	e := &entry{id: id, purpose: purpose, started: time.Now(), duration: d}
	e.timer = time.AfterFunc(d, func() {
		m.mu.Lock()
		_, live := m.timers[id]
		delete(m.timers, id)
		m.mu.Unlock()
		if live {
			fn()
		}
	})
	m.timers[id] = e
	return id
}

// Cancel stops the timer with the given id. Returns false if it already
// fired or was never scheduled.
func (m *Manager) Cancel(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.timers[id]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(m.timers, id)
	return true
}

// CancelPurpose stops every pending timer of the given purpose and returns
// how many were cancelled.
func (m *Manager) CancelPurpose(p Purpose) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.timers {
		if e.purpose != p {
			continue
		}
		e.timer.Stop()
		delete(m.timers, id)
		n++
	}
	return n
}

func (m *Manager) CancelAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.timers)
	for id, e := range m.timers {
		e.timer.Stop()
		delete(m.timers, id)
	}
	return n
}

func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *Manager) sweepLoop() {
	for {
		select {
		case <-m.done:
			return
		case <-m.sweeper.C:
			m.sweepStale()
		}
	}
}

func (m *Manager) sweepStale() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for id, e := range m.timers {
		deadline := e.started.Add(time.Duration(float64(e.duration) * staleFactor))
		if now.Before(deadline) {
			continue
		}
		e.timer.Stop()
		delete(m.timers, id)
		if m.logger != nil {
			m.logger.Warn("stale timer force-cleared",
				"timer_id", id,
				"purpose", string(e.purpose),
				"duration_ms", e.duration.Milliseconds(),
				"age_ms", now.Sub(e.started).Milliseconds(),
			)
		}
	}
}

// Close cancels everything and stops the sweeper.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	for id, e := range m.timers {
		e.timer.Stop()
		delete(m.timers, id)
	}
	m.mu.Unlock()
	m.sweeper.Stop()
	close(m.done)
}
