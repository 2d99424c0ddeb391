package geo

import (
	"math"
	"sync"

	"github.com/example/tour-guide/internal/models"
)

// Source is the minimal interface the proximity tracker needs to enumerate
// candidate landmarks around a point.
type Source interface {
	Near(loc models.Coord, radiusM float64, limit int) []models.Landmark
	Upsert(l models.Landmark)
}

type Index struct {
	mu        sync.RWMutex
	landmarks map[string]models.Landmark
}

func NewIndex() *Index {
	return &Index{landmarks: make(map[string]models.Landmark)}
}

func (g *Index) Upsert(l models.Landmark) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.landmarks[l.ID] = l
}

func (g *Index) All() []models.Landmark {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]models.Landmark, 0, len(g.landmarks))
	for _, l := range g.landmarks {
		out = append(out, l)
	}
	return out
}

// naive scan; landmark counts per city are small enough that a geo-hash
// index is not worth it here
func (g *Index) Near(loc models.Coord, radiusM float64, limit int) []models.Landmark {
	g.mu.RLock()
	defer g.mu.RUnlock()
	type pair struct {
		l    models.Landmark
		dist float64
	}
	arr := make([]pair, 0, len(g.landmarks))
	for _, l := range g.landmarks {
		dist := DistanceMeters(loc, l.Loc)
		if dist > radiusM {
			continue
		}
		arr = append(arr, pair{l, dist})
	}
	n := limit
	if n <= 0 || n > len(arr) {
		n = len(arr)
	}
	// partial selection sort for top-N
	for i := 0; i < n; i++ {
		minIdx := i
		for j := i + 1; j < len(arr); j++ {
			if arr[j].dist < arr[minIdx].dist {
				minIdx = j
			}
		}
		arr[i], arr[minIdx] = arr[minIdx], arr[i]
	}
	out := make([]models.Landmark, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, arr[i].l)
	}
	return out
}

// DistanceMeters returns the Haversine great-circle distance in meters.
func DistanceMeters(a, b models.Coord) float64 {
	const R = 6371000.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return R * c
}
