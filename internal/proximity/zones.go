// Package proximity turns location fixes into proximity zones and alerts.
package proximity

import (
	"math"
	"sort"

	"github.com/example/tour-guide/internal/geo"
	"github.com/example/tour-guide/internal/models"
)

// Zones holds the two nested distance bands around the user. Prep (within
// the outer distance) drives content pre-fetch; Notification (within the
// notification distance) drives user-visible alerts. Notification is a
// subset of Prep whenever the settings are ordered.
type Zones struct {
	Prep         []models.NearbyLandmark `json:"prep_zone"`
	Notification []models.NearbyLandmark `json:"notification_zone"`
}

// ZonesFor evaluates every landmark against the user's position. Both lists
// are sorted ascending by distance. Nil settings fall back to defaults.
func ZonesFor(user models.Coord, landmarks []models.Landmark, s *models.ProximitySettings) Zones {
	if s == nil {
		s = models.DefaultSettings()
	}
	var z Zones
	for _, l := range landmarks {
		d := geo.DistanceMeters(user, l.Loc)
		// membership is judged at whole-meter granularity; sub-meter
		// differences against whole-meter thresholds are GPS noise
		rounded := math.Round(d)
		if rounded > s.OuterDistanceM {
			continue
		}
		nl := models.NearbyLandmark{Landmark: l, DistanceM: d}
		z.Prep = append(z.Prep, nl)
		if rounded <= s.NotificationDistanceM {
			z.Notification = append(z.Notification, nl)
		}
	}
	sort.Slice(z.Prep, func(i, j int) bool { return z.Prep[i].DistanceM < z.Prep[j].DistanceM })
	sort.Slice(z.Notification, func(i, j int) bool { return z.Notification[i].DistanceM < z.Notification[j].DistanceM })
	return z
}
