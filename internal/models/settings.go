package models

import "time"

// ProximitySettings is per-user proximity and grace-period configuration.
// Distances are nested: CardDistanceM <= NotificationDistanceM <= OuterDistanceM.
// The ordering is clamped at write time; ValidOrdering reports violations in
// settings that predate the clamp.
type ProximitySettings struct {
	UserID  string `json:"user_id,omitempty"`
	Enabled bool   `json:"enabled"`
	Preset  string `json:"preset,omitempty"`

	CardDistanceM         float64 `json:"card_distance_m"`
	NotificationDistanceM float64 `json:"notification_distance_m"`
	OuterDistanceM        float64 `json:"outer_distance_m"`

	GraceEnabled         bool          `json:"grace_enabled"`
	InitDuration         time.Duration `json:"init_duration"`
	MovementDuration     time.Duration `json:"movement_duration"`
	AppResumeDuration    time.Duration `json:"app_resume_duration"`
	SignificantMovementM float64       `json:"significant_movement_m"`
}

const (
	PresetConservative = "conservative"
	PresetBalanced     = "balanced"
	PresetAggressive   = "aggressive"
	PresetDisabled     = "disabled"
)

// DefaultSettings returns the balanced preset, used whenever a user has no
// stored settings.
func DefaultSettings() *ProximitySettings {
	s, _ := PresetSettings(PresetBalanced)
	return s
}

// PresetSettings returns the named preset bundle, or false for unknown names.
func PresetSettings(name string) (*ProximitySettings, bool) {
	base := ProximitySettings{
		Enabled:               true,
		Preset:                name,
		CardDistanceM:         50,
		NotificationDistanceM: 100,
		OuterDistanceM:        250,
		GraceEnabled:          true,
	}
	switch name {
	case PresetConservative:
		base.InitDuration = 120 * time.Second
		base.MovementDuration = 60 * time.Second
		base.AppResumeDuration = 90 * time.Second
		base.SignificantMovementM = 1000
	case PresetBalanced:
		base.InitDuration = 60 * time.Second
		base.MovementDuration = 30 * time.Second
		base.AppResumeDuration = 45 * time.Second
		base.SignificantMovementM = 500
	case PresetAggressive:
		base.InitDuration = 30 * time.Second
		base.MovementDuration = 15 * time.Second
		base.AppResumeDuration = 20 * time.Second
		base.SignificantMovementM = 250
	case PresetDisabled:
		base.GraceEnabled = false
		base.InitDuration = 60 * time.Second
		base.MovementDuration = 30 * time.Second
		base.AppResumeDuration = 45 * time.Second
		base.SignificantMovementM = 500
	default:
		return nil, false
	}
	return &base, true
}

// ValidOrdering reports whether the nested distance thresholds are in order.
func (s *ProximitySettings) ValidOrdering() bool {
	return s.CardDistanceM <= s.NotificationDistanceM && s.NotificationDistanceM <= s.OuterDistanceM
}

// Clamp raises out-of-order thresholds to the preceding bound so the nesting
// invariant holds. Returns true if anything changed.
func (s *ProximitySettings) Clamp() bool {
	changed := false
	if s.NotificationDistanceM < s.CardDistanceM {
		s.NotificationDistanceM = s.CardDistanceM
		changed = true
	}
	if s.OuterDistanceM < s.NotificationDistanceM {
		s.OuterDistanceM = s.NotificationDistanceM
		changed = true
	}
	return changed
}
