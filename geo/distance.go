// Package geo computes great-circle distances between report locations.
package geo

import (
	"math"

	"github.com/golang/geo/s2"

	"collection-service/models"
)

// Mean Earth radius in kilometers.
const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between a and b in
// kilometers, rounded to two decimal places. It is symmetric and zero
// for identical points.
func DistanceKm(a, b models.Coordinates) float64 {
	if a == b {
		return 0
	}
	from := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	to := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	km := from.Distance(to).Radians() * earthRadiusKm
	return round2(km)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
