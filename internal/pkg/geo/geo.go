// Package geo implements the pure geometric core of StormWatch:
// antimeridian normalization, planar segment intersection, and the
// multi-copy hazard scan. All functions are side-effect free and never
// mutate their inputs.
package geo

import (
	"fmt"
	"math"

	"github.com/nereamendi/stormwatch/internal/core/domain"
)

const earthRadiusNM = 3440.065

// Normalize unwraps antimeridian crossings in a coordinate sequence.
// Whenever consecutive longitudes differ by more than 180 degrees, the
// later point is shifted by a multiple of 360 so the path stays
// continuous. The first point is never adjusted; sequences of length 0
// or 1 are returned as-is (copied). Unwrapped longitudes may leave
// [-180, 180].
func Normalize(points []domain.GeoPoint) []domain.GeoPoint {
	out := make([]domain.GeoPoint, len(points))
	copy(out, points)
	if len(out) < 2 {
		return out
	}

	for i := 1; i < len(out); i++ {
		prev := out[i-1].Lon
		for out[i].Lon-prev > 180 {
			out[i].Lon -= 360
		}
		for out[i].Lon-prev < -180 {
			out[i].Lon += 360
		}
	}
	return out
}

// Centroid returns the arithmetic mean of all latitudes and longitudes,
// used as a default map focus point. No weighting by segment length.
func Centroid(points []domain.GeoPoint) (domain.GeoPoint, error) {
	if len(points) == 0 {
		return domain.GeoPoint{}, fmt.Errorf("centroid of empty point sequence")
	}

	var lat, lon float64
	for _, p := range points {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(points))
	return domain.GeoPoint{Lat: lat / n, Lon: lon / n}, nil
}

// DistanceNM returns the great-circle distance between two points in
// nautical miles, with the longitude delta wrapped so a dateline
// crossing measures the short way around.
func DistanceNM(a, b domain.GeoPoint) float64 {
	r1 := a.Lat * math.Pi / 180
	r2 := b.Lat * math.Pi / 180

	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	for dLon > math.Pi {
		dLon -= 2 * math.Pi
	}
	for dLon < -math.Pi {
		dLon += 2 * math.Pi
	}

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(r1)*math.Cos(r2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusNM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
