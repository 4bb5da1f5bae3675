// Package geo provides great-circle distance and bearing-based point offset
// computation for the treasure hunt engine.
package geo

import (
	"errors"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for all conversions.
const EarthRadiusMeters = 6371000.0

// ErrInvalidLocation is returned for malformed or out-of-range coordinates.
var ErrInvalidLocation = errors.New("invalid location")

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the point lies within valid coordinate ranges.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return ErrInvalidLocation
	}
	if p.Lat < -90 || p.Lat > 90 {
		return ErrInvalidLocation
	}
	if p.Lon < -180 || p.Lon > 180 {
		return ErrInvalidLocation
	}
	return nil
}

// DistanceMeters returns the great-circle distance between two points
// using the haversine formula.
func DistanceMeters(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	if h > 1 {
		h = 1
	}

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// OffsetPoint returns the point at the given bearing (radians, clockwise
// from north) and distance from center. Equirectangular approximation,
// accurate enough for the short search radii used by the game (<= ~100m).
func OffsetPoint(center Point, bearingRad, distanceMeters float64) Point {
	dLat := distanceMeters * math.Cos(bearingRad) / EarthRadiusMeters
	dLon := distanceMeters * math.Sin(bearingRad) /
		(EarthRadiusMeters * math.Cos(center.Lat*math.Pi/180))

	return Point{
		Lat: center.Lat + dLat*180/math.Pi,
		Lon: center.Lon + dLon*180/math.Pi,
	}
}
