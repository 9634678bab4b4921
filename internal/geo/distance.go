// Package geo provides great-circle distance math for geofence checks.
package geo

import (
	"github.com/golang/geo/s2"

	"github.com/placepulse/fencewatch/internal/model"
)

// EarthRadiusMeters is the mean earth radius used for the spherical
// approximation.
const EarthRadiusMeters = 6371000.0

// DistanceMeters returns the great-circle distance between two coordinates
// in meters. Coordinates are not validated.
func DistanceMeters(a, b model.Coordinate) float64 {
	p1 := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	p2 := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}
