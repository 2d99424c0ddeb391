package models

import "time"

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Fix is a single location sample from a device. Accuracy is the sensor's
// reported error radius in meters; zero means unknown.
type Fix struct {
	UserID    string    `json:"user_id"`
	Loc       Coord     `json:"loc"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

type Landmark struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Loc         Coord   `json:"loc"`
	Description string  `json:"description,omitempty"`
	PhotoURL    string  `json:"photo_url,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
}

// NearbyLandmark pairs a landmark with its current distance from the user.
type NearbyLandmark struct {
	Landmark
	DistanceM float64 `json:"distance_m"`
}

type ProximityAlert struct {
	UserID   string         `json:"user_id"`
	Landmark NearbyLandmark `json:"landmark"`
	FiredAt  time.Time      `json:"fired_at"`
}

type GraceReason string

const (
	ReasonInitialization GraceReason = "initialization"
	ReasonMovement       GraceReason = "movement"
	ReasonAppResume      GraceReason = "app_resume"
)

type GraceHistoryEntry struct {
	ID        string      `json:"id"`
	Action    string      `json:"action"` // activated, cleared, expired
	Reason    GraceReason `json:"reason"`
	Trigger   string      `json:"trigger,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type Experience struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	LandmarkIDs []string  `json:"landmark_ids,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"`
	VoiceAgent  string    `json:"voice_agent,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type Purchase struct {
	ID              string    `json:"id"`
	ExperienceID    string    `json:"experience_id"`
	UserID          string    `json:"user_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	Status          string    `json:"status"` // held, captured, canceled
	CreatedAt       time.Time `json:"created_at"`
}
