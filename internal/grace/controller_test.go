package grace

import (
	"testing"
	"time"

	"github.com/example/tour-guide/internal/models"
	"github.com/example/tour-guide/internal/timers"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	tm := timers.NewManager(nil, time.Minute)
	t.Cleanup(tm.Close)
	return NewController(tm, nil)
}

func TestActivateRejectsWhileActive(t *testing.T) {
	c := newTestController(t)
	if err := c.Activate(models.ReasonInitialization, time.Hour); err != nil {
		t.Fatalf("first activate: %v", err)
	}
	if err := c.Activate(models.ReasonMovement, time.Hour); err != ErrAlreadyActive {
		t.Fatalf("expected ErrAlreadyActive, got %v", err)
	}
	if m := c.Metrics(); m.TotalActivations != 1 {
		t.Fatalf("rejected activate counted, activations=%d", m.TotalActivations)
	}
}

func TestTimerSingleFire(t *testing.T) {
	c := newTestController(t)
	if err := c.Activate(models.ReasonInitialization, 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(80 * time.Millisecond)

	if c.Active() {
		t.Fatal("still active after expiry")
	}
	expired := 0
	for _, e := range c.History() {
		if e.Action == "expired" {
			expired++
		}
	}
	if expired != 1 {
		t.Fatalf("expected exactly one expired entry, got %d", expired)
	}
	if m := c.Metrics(); m.TotalExpired != 1 || m.EffectivenessRate != 1 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestClearCancelsTimer(t *testing.T) {
	c := newTestController(t)
	if err := c.Activate(models.ReasonMovement, 30*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if err := c.Clear("settings_change"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(60 * time.Millisecond)

	m := c.Metrics()
	if m.TotalClears != 1 || m.TotalExpired != 0 {
		t.Fatalf("timer fired after clear: %+v", m)
	}
	h := c.History()
	last := h[len(h)-1]
	if last.Action != "cleared" || last.Trigger != "settings_change" {
		t.Fatalf("unexpected last entry %+v", last)
	}
}

func TestStaleTimerCannotExpireSuccessor(t *testing.T) {
	c := newTestController(t)
	_ = c.Activate(models.ReasonInitialization, time.Hour)
	_ = c.Clear("manual")
	_ = c.Activate(models.ReasonMovement, time.Hour)

	// callback from the first period's timer arriving late
	c.expire(1)
	if !c.Active() {
		t.Fatal("stale timer callback ended the active grace period")
	}
	if m := c.Metrics(); m.TotalExpired != 0 {
		t.Fatalf("expected no expirations, got %d", m.TotalExpired)
	}
}

func TestClearWhenInactive(t *testing.T) {
	c := newTestController(t)
	if err := c.Clear("manual"); err != ErrNotActive {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
}

func TestTimeSinceLast(t *testing.T) {
	c := newTestController(t)
	if _, ok := c.TimeSinceLast(); ok {
		t.Fatal("fresh controller should have no previous grace period")
	}
	_ = c.Activate(models.ReasonInitialization, time.Hour)
	_ = c.Clear("test")
	if d, ok := c.TimeSinceLast(); !ok || d > time.Second {
		t.Fatalf("expected recent end, got %s ok=%v", d, ok)
	}
}

func TestHistoryRingBounded(t *testing.T) {
	c := newTestController(t)
	for i := 0; i < historySize; i++ {
		_ = c.Activate(models.ReasonInitialization, time.Hour)
		_ = c.Clear("loop")
	}
	if n := len(c.History()); n != historySize {
		t.Fatalf("expected ring capped at %d, got %d", historySize, n)
	}
}
