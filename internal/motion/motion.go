package motion

import (
	"github.com/example/tour-guide/internal/geo"
	"github.com/example/tour-guide/internal/models"
)

// NoiseFloorSpeed is the minimum speed (m/s) treated as genuine movement.
// Stationary phones report sub-meter jitter between fixes; below this we
// consider the user stopped.
const NoiseFloorSpeed = 0.5

type Classification struct {
	IsMoving     bool    `json:"is_moving"`
	AverageSpeed float64 `json:"average_speed"` // m/s over the supplied history
}

// Classify inspects a short history of fixes, oldest first. IsMoving is
// decided from the two most recent samples; AverageSpeed is total
// displacement over total elapsed time across the whole window.
func Classify(history []models.Fix) Classification {
	if len(history) < 2 {
		return Classification{}
	}

	last := history[len(history)-1]
	prev := history[len(history)-2]
	elapsed := last.Timestamp.Sub(prev.Timestamp).Seconds()

	var instSpeed float64
	if elapsed > 0 {
		instSpeed = geo.DistanceMeters(prev.Loc, last.Loc) / elapsed
	}

	var total float64
	for i := 1; i < len(history); i++ {
		total += geo.DistanceMeters(history[i-1].Loc, history[i].Loc)
	}
	span := last.Timestamp.Sub(history[0].Timestamp).Seconds()
	var avg float64
	if span > 0 {
		avg = total / span
	}

	return Classification{
		IsMoving:     instSpeed >= NoiseFloorSpeed,
		AverageSpeed: avg,
	}
}
