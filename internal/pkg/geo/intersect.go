package geo

import (
	"math"

	"github.com/nereamendi/stormwatch/internal/core/domain"
)

// detEpsilon guards the determinant in SegmentIntersection: segments
// whose direction vectors have a cross product below this magnitude are
// treated as parallel rather than divided through a near-zero value.
const detEpsilon = 1e-9

// SegmentIntersection computes the crossing point of two line segments
// a1-a2 and b1-b2, treating (lat, lon) as a planar (x, y) pair. The
// second value is false when the segments do not cross. Parallel and
// collinear segments never report an intersection; collinear overlap is
// deliberately not special-cased.
func SegmentIntersection(a1, a2, b1, b2 domain.GeoPoint) (domain.GeoPoint, bool) {
	dax := a2.Lat - a1.Lat
	day := a2.Lon - a1.Lon
	dbx := b2.Lat - b1.Lat
	dby := b2.Lon - b1.Lon

	det := dax*dby - day*dbx
	if math.Abs(det) < detEpsilon {
		return domain.GeoPoint{}, false
	}

	// Parametric scalars along each segment; a hit requires both to lie
	// in the closed range [0, 1].
	t := ((b1.Lat-a1.Lat)*dby - (b1.Lon-a1.Lon)*dbx) / det
	u := ((b1.Lat-a1.Lat)*day - (b1.Lon-a1.Lon)*dax) / det
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return domain.GeoPoint{}, false
	}

	return domain.GeoPoint{
		Lat: a1.Lat + t*dax,
		Lon: a1.Lon + t*day,
	}, true
}

// LineIntersectsPolygon probes every route segment against every edge of
// every ring, rings implicitly closed, and returns the first crossing
// found. Iteration order is fixed: route segments outer, then rings in
// listed order, then ring edges in ring order. Routes with fewer than 2
// points and rings with fewer than 3 vertices yield no intersection.
func LineIntersectsPolygon(route []domain.GeoPoint, rings []domain.Ring) *domain.GeoPoint {
	if len(route) < 2 {
		return nil
	}

	for i := 0; i < len(route)-1; i++ {
		for _, ring := range rings {
			if len(ring) < 3 {
				continue
			}
			for j := 0; j < len(ring); j++ {
				// Last edge closes the ring.
				k := (j + 1) % len(ring)
				if p, ok := SegmentIntersection(route[i], route[i+1], ring[j], ring[k]); ok {
					return &p
				}
			}
		}
	}
	return nil
}

// LineIntersectsLine probes every pair of segments across two open
// polylines and returns the first crossing found, or nil. Both inputs
// must already be in (lat, lon) order.
func LineIntersectsLine(route, other []domain.GeoPoint) *domain.GeoPoint {
	if len(route) < 2 || len(other) < 2 {
		return nil
	}

	for i := 0; i < len(route)-1; i++ {
		for j := 0; j < len(other)-1; j++ {
			if p, ok := SegmentIntersection(route[i], route[i+1], other[j], other[j+1]); ok {
				return &p
			}
		}
	}
	return nil
}
