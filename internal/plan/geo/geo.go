// Package geo resolves current coordinates to the nearest saved place.
package geo

import (
	"math"

	"nextup/internal/model"
)

const (
	earthRadiusMeters = 6371000

	// DefaultRadiusMeters applies when a saved location has no radius of its own.
	DefaultRadiusMeters = 200
)

// Distance returns the great-circle (haversine) distance in meters between
// two coordinate pairs.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Nearest returns the closest saved location whose own radius contains the
// given coordinates, or nil when none matches. Exact-distance ties keep the
// earlier entry in input order (the comparison below is strict).
func Nearest(lat, lon float64, saved []model.SavedLocation) *model.SavedLocation {
	var best *model.SavedLocation
	bestDist := math.Inf(1)
	for i := range saved {
		loc := saved[i]
		radius := loc.RadiusMeters
		if radius <= 0 {
			radius = DefaultRadiusMeters
		}
		d := Distance(lat, lon, loc.Latitude, loc.Longitude)
		if d > radius {
			continue
		}
		if d < bestDist {
			bestDist = d
			best = &saved[i]
		}
	}
	return best
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
