package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/placepulse/fencewatch/internal/model"
)

func TestDistanceMeters_SamePoint(t *testing.T) {
	p := model.Coordinate{Latitude: -6.2088, Longitude: 106.8456}
	assert.InDelta(t, 0, DistanceMeters(p, p), 0.001)
}

func TestDistanceMeters_KnownDistance(t *testing.T) {
	// 0.0012 degrees of latitude is roughly 133m at the equator.
	a := model.Coordinate{Latitude: -6.2088, Longitude: 106.8456}
	b := model.Coordinate{Latitude: -6.2100, Longitude: 106.8456}

	d := DistanceMeters(a, b)
	assert.InDelta(t, 133, d, 2)
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	a := model.Coordinate{Latitude: 40.7128, Longitude: -74.0060}
	b := model.Coordinate{Latitude: 51.5074, Longitude: -0.1278}

	assert.InDelta(t, DistanceMeters(a, b), DistanceMeters(b, a), 0.001)
}

func TestDistanceMeters_LongHaul(t *testing.T) {
	// New York to London is about 5,570 km.
	a := model.Coordinate{Latitude: 40.7128, Longitude: -74.0060}
	b := model.Coordinate{Latitude: 51.5074, Longitude: -0.1278}

	d := DistanceMeters(a, b)
	assert.InDelta(t, 5_570_000, d, 20_000)
}
