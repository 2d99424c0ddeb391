package geo

import (
	"testing"

	"github.com/example/tour-guide/internal/models"
)

func TestDistanceZero(t *testing.T) {
	d := DistanceMeters(models.Coord{Lat: 48.8584, Lon: 2.2945}, models.Coord{Lat: 48.8584, Lon: 2.2945})
	if d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := models.Coord{Lat: 40.7128, Lon: -74.0060}
	b := models.Coord{Lat: 51.5074, Lon: -0.1278}
	if DistanceMeters(a, b) != DistanceMeters(b, a) {
		t.Fatal("distance not symmetric")
	}
}

func TestDistanceKnownValue(t *testing.T) {
	// one degree of longitude at the equator is ~111.19 km
	d := DistanceMeters(models.Coord{}, models.Coord{Lon: 1})
	if d < 111000 || d > 111400 {
		t.Fatalf("unexpected distance %f", d)
	}
}

func TestIndexNearSortedAndBounded(t *testing.T) {
	idx := NewIndex()
	idx.Upsert(models.Landmark{ID: "far", Loc: models.Coord{Lat: 0, Lon: 0.01}})
	idx.Upsert(models.Landmark{ID: "near", Loc: models.Coord{Lat: 0, Lon: 0.001}})
	idx.Upsert(models.Landmark{ID: "out", Loc: models.Coord{Lat: 1, Lon: 1}})

	got := idx.Near(models.Coord{}, 2000, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 landmarks, got %d", len(got))
	}
	if got[0].ID != "near" || got[1].ID != "far" {
		t.Fatalf("wrong order: %s, %s", got[0].ID, got[1].ID)
	}
}
