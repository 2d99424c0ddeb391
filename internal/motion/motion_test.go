package motion

import (
	"testing"
	"time"

	"github.com/example/tour-guide/internal/models"
)

func fix(lat, lon float64, at time.Time) models.Fix {
	return models.Fix{Loc: models.Coord{Lat: lat, Lon: lon}, Timestamp: at}
}

func TestClassifyEmptyHistory(t *testing.T) {
	c := Classify(nil)
	if c.IsMoving || c.AverageSpeed != 0 {
		t.Fatalf("expected zero classification, got %+v", c)
	}
}

func TestClassifyStationaryJitter(t *testing.T) {
	t0 := time.Now()
	// ~1m of drift over 10s is well below the noise floor
	h := []models.Fix{
		fix(0, 0, t0),
		fix(0, 0.00001, t0.Add(10*time.Second)),
	}
	c := Classify(h)
	if c.IsMoving {
		t.Fatalf("jitter classified as movement, speed=%f", c.AverageSpeed)
	}
}

func TestClassifyWalking(t *testing.T) {
	t0 := time.Now()
	// ~111m in 60s is ~1.85 m/s, a brisk walk
	h := []models.Fix{
		fix(0, 0, t0),
		fix(0.001, 0, t0.Add(60*time.Second)),
	}
	c := Classify(h)
	if !c.IsMoving {
		t.Fatal("walking not classified as movement")
	}
	if c.AverageSpeed < 1.5 || c.AverageSpeed > 2.2 {
		t.Fatalf("unexpected speed %f", c.AverageSpeed)
	}
}

func TestClassifyZeroElapsed(t *testing.T) {
	t0 := time.Now()
	h := []models.Fix{fix(0, 0, t0), fix(0.001, 0, t0)}
	c := Classify(h)
	if c.IsMoving {
		t.Fatal("zero elapsed time should not classify as moving")
	}
}
