// Package grace implements grace-period arbitration: deciding when proximity
// alerts should be suppressed because of app startup, significant movement,
// or a resume from background, and owning the timer that ends the window.
package grace

import (
	"log/slog"
	"time"

	"github.com/example/tour-guide/internal/models"
	"github.com/example/tour-guide/internal/observability"
)

const (
	// cooldownFloorMin is the minimum spacing between grace periods,
	// regardless of configuration. Prevents rapid re-trigger loops.
	cooldownFloorMin = 30 * time.Second

	// backgroundDetectionFloor is the shortest backgrounding we trust the
	// client to have measured; anything under it is tab-switch noise.
	backgroundDetectionFloor = 30 * time.Second
)

// ActivationContext carries the facts the policy needs about the current
// session state.
type ActivationContext struct {
	CurrentlyActive bool

	// TimeSinceLast is how long ago the previous grace period ended;
	// meaningful only when HasPrevious is true.
	TimeSinceLast time.Duration
	HasPrevious   bool

	// MovementDistanceM applies to ReasonMovement.
	MovementDistanceM float64

	// BackgroundDuration applies to ReasonAppResume.
	BackgroundDuration time.Duration
}

// Policy decides whether a grace period may start. It is stateless; session
// state arrives through the context argument.
type Policy struct {
	Logger *slog.Logger
}

// CooldownFloor is the minimum time that must pass after one grace period
// ends before another may start: the larger of the fixed floor and twice the
// configured initialization duration.
func CooldownFloor(s *models.ProximitySettings) time.Duration {
	if s == nil {
		s = models.DefaultSettings()
	}
	if d := 2 * s.InitDuration; d > cooldownFloorMin {
		return d
	}
	return cooldownFloorMin
}

// Duration returns how long a grace period for the given reason should run.
func Duration(reason models.GraceReason, s *models.ProximitySettings) time.Duration {
	if s == nil {
		s = models.DefaultSettings()
	}
	switch reason {
	case models.ReasonMovement:
		return s.MovementDuration
	case models.ReasonAppResume:
		return s.AppResumeDuration
	default:
		return s.InitDuration
	}
}

// resumeThreshold derives the minimum background duration for an app_resume
// grace period from the configured duration, never below the detection floor.
func resumeThreshold(s *models.ProximitySettings) time.Duration {
	if d := s.AppResumeDuration / 2; d > backgroundDetectionFloor {
		return d
	}
	return backgroundDetectionFloor
}

// ShouldActivate applies the activation rules in order: disabled, no
// stacking, cooldown, then the reason-specific test. A nil settings argument
// means the user has no stored preferences and the defaults apply.
func (p *Policy) ShouldActivate(reason models.GraceReason, ctx ActivationContext, s *models.ProximitySettings) bool {
	if s == nil {
		s = models.DefaultSettings()
	}

	if !s.GraceEnabled {
		return p.refuse(reason, ctx, s, "disabled")
	}
	// An in-progress grace period is never overridden by a new reason,
	// whatever its relative importance. Observed product behavior; kept.
	if ctx.CurrentlyActive {
		return p.refuse(reason, ctx, s, "already_active")
	}
	if ctx.HasPrevious && ctx.TimeSinceLast < CooldownFloor(s) {
		return p.refuse(reason, ctx, s, "cooldown")
	}

	switch reason {
	case models.ReasonInitialization:
		// always allowed once the gates above pass
	case models.ReasonMovement:
		if ctx.MovementDistanceM < s.SignificantMovementM {
			return p.refuse(reason, ctx, s, "below_movement_threshold")
		}
	case models.ReasonAppResume:
		if ctx.BackgroundDuration <= resumeThreshold(s) {
			return p.refuse(reason, ctx, s, "below_background_threshold")
		}
	default:
		return p.refuse(reason, ctx, s, "unknown_reason")
	}

	p.log(reason, ctx, s, "activate", "")
	return true
}

func (p *Policy) refuse(reason models.GraceReason, ctx ActivationContext, s *models.ProximitySettings, rule string) bool {
	observability.GraceRefusals.WithLabelValues(rule).Inc()
	p.log(reason, ctx, s, "refuse", rule)
	return false
}

// log emits the structured decision record: preset, config validity, and the
// computed thresholds. Observational only.
func (p *Policy) log(reason models.GraceReason, ctx ActivationContext, s *models.ProximitySettings, decision, rule string) {
	if p.Logger == nil {
		return
	}
	args := []any{
		"reason", string(reason),
		"decision", decision,
		"preset", s.Preset,
		"config_valid", s.ValidOrdering(),
		"currently_active", ctx.CurrentlyActive,
		"cooldown_floor_ms", CooldownFloor(s).Milliseconds(),
		"movement_threshold_m", s.SignificantMovementM,
		"resume_threshold_ms", resumeThreshold(s).Milliseconds(),
	}
	if rule != "" {
		args = append(args, "rule", rule)
	}
	if ctx.HasPrevious {
		args = append(args, "time_since_last_ms", ctx.TimeSinceLast.Milliseconds())
	}
	p.Logger.Debug("grace_decision", args...)
}
