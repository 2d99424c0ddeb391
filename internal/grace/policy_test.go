package grace

import (
	"testing"
	"time"

	"github.com/example/tour-guide/internal/models"
)

func TestInitializationDefaultsAllow(t *testing.T) {
	p := &Policy{}
	if !p.ShouldActivate(models.ReasonInitialization, ActivationContext{}, nil) {
		t.Fatal("initialization with defaults should activate")
	}
}

func TestNoStacking(t *testing.T) {
	p := &Policy{}
	ctx := ActivationContext{CurrentlyActive: true, MovementDistanceM: 10000, BackgroundDuration: time.Hour}
	for _, reason := range []models.GraceReason{models.ReasonInitialization, models.ReasonMovement, models.ReasonAppResume} {
		if p.ShouldActivate(reason, ctx, nil) {
			t.Fatalf("reason %s activated over an active grace period", reason)
		}
	}
}

func TestDisabledRefusesUnconditionally(t *testing.T) {
	p := &Policy{}
	s, _ := models.PresetSettings(models.PresetDisabled)
	if p.ShouldActivate(models.ReasonInitialization, ActivationContext{}, s) {
		t.Fatal("disabled settings should refuse")
	}
}

func TestCooldownRefuses(t *testing.T) {
	p := &Policy{}
	s := models.DefaultSettings()
	ctx := ActivationContext{HasPrevious: true, TimeSinceLast: CooldownFloor(s) - time.Second}
	if p.ShouldActivate(models.ReasonInitialization, ctx, s) {
		t.Fatal("activation inside cooldown floor")
	}
	ctx.TimeSinceLast = CooldownFloor(s) + time.Second
	if !p.ShouldActivate(models.ReasonInitialization, ctx, s) {
		t.Fatal("activation past cooldown floor refused")
	}
}

func TestCooldownFloorIsAtLeast30s(t *testing.T) {
	s := models.DefaultSettings()
	s.InitDuration = time.Second
	if got := CooldownFloor(s); got != 30*time.Second {
		t.Fatalf("expected 30s floor, got %s", got)
	}
	s.InitDuration = 60 * time.Second
	if got := CooldownFloor(s); got != 120*time.Second {
		t.Fatalf("expected 2x init duration, got %s", got)
	}
}

func TestMovementThresholdBoundary(t *testing.T) {
	p := &Policy{}
	s := models.DefaultSettings()

	ctx := ActivationContext{MovementDistanceM: s.SignificantMovementM - 1}
	if p.ShouldActivate(models.ReasonMovement, ctx, s) {
		t.Fatal("movement below threshold activated")
	}
	ctx.MovementDistanceM = s.SignificantMovementM
	if !p.ShouldActivate(models.ReasonMovement, ctx, s) {
		t.Fatal("movement at exact threshold refused")
	}
}

func TestAppResumeBelowFloor(t *testing.T) {
	p := &Policy{}
	ctx := ActivationContext{BackgroundDuration: time.Second}
	if p.ShouldActivate(models.ReasonAppResume, ctx, models.DefaultSettings()) {
		t.Fatal("1s background should be below the detection floor")
	}
	ctx.BackgroundDuration = time.Minute
	if !p.ShouldActivate(models.ReasonAppResume, ctx, models.DefaultSettings()) {
		t.Fatal("1m background refused")
	}
}

func TestResumeThresholdScalesWithDuration(t *testing.T) {
	s := models.DefaultSettings()
	s.AppResumeDuration = 2 * time.Minute
	if got := resumeThreshold(s); got != time.Minute {
		t.Fatalf("expected half the resume duration, got %s", got)
	}
	s.AppResumeDuration = 10 * time.Second
	if got := resumeThreshold(s); got != backgroundDetectionFloor {
		t.Fatalf("expected detection floor, got %s", got)
	}
}

func TestDurationPerReason(t *testing.T) {
	s := models.DefaultSettings()
	if Duration(models.ReasonInitialization, s) != s.InitDuration {
		t.Fatal("wrong init duration")
	}
	if Duration(models.ReasonMovement, s) != s.MovementDuration {
		t.Fatal("wrong movement duration")
	}
	if Duration(models.ReasonAppResume, s) != s.AppResumeDuration {
		t.Fatal("wrong app resume duration")
	}
}
