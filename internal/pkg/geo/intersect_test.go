package geo_test

import (
	"math"
	"testing"

	"github.com/nereamendi/stormwatch/internal/core/domain"
	"github.com/nereamendi/stormwatch/internal/pkg/geo"
)

func TestSegmentIntersection(t *testing.T) {
	tests := []struct {
		name           string
		a1, a2, b1, b2 domain.GeoPoint
		want           domain.GeoPoint
		hit            bool
	}{
		{
			name: "perpendicular cross",
			a1:   domain.GeoPoint{Lat: 0, Lon: 0}, a2: domain.GeoPoint{Lat: 0, Lon: 10},
			b1: domain.GeoPoint{Lat: -5, Lon: 5}, b2: domain.GeoPoint{Lat: 5, Lon: 5},
			want: domain.GeoPoint{Lat: 0, Lon: 5}, hit: true,
		},
		{
			name: "parallel",
			a1:   domain.GeoPoint{Lat: 0, Lon: 0}, a2: domain.GeoPoint{Lat: 0, Lon: 10},
			b1: domain.GeoPoint{Lat: 1, Lon: 0}, b2: domain.GeoPoint{Lat: 1, Lon: 10},
			hit: false,
		},
		{
			name: "collinear overlap reports nothing",
			a1:   domain.GeoPoint{Lat: 0, Lon: 0}, a2: domain.GeoPoint{Lat: 0, Lon: 10},
			b1: domain.GeoPoint{Lat: 0, Lon: 5}, b2: domain.GeoPoint{Lat: 0, Lon: 15},
			hit: false,
		},
		{
			name: "lines cross but segments do not",
			a1:   domain.GeoPoint{Lat: 0, Lon: 0}, a2: domain.GeoPoint{Lat: 0, Lon: 10},
			b1: domain.GeoPoint{Lat: 1, Lon: 20}, b2: domain.GeoPoint{Lat: -1, Lon: 20},
			hit: false,
		},
		{
			name: "touch at shared endpoint",
			a1:   domain.GeoPoint{Lat: 0, Lon: 0}, a2: domain.GeoPoint{Lat: 5, Lon: 5},
			b1: domain.GeoPoint{Lat: 5, Lon: 5}, b2: domain.GeoPoint{Lat: 10, Lon: 0},
			want: domain.GeoPoint{Lat: 5, Lon: 5}, hit: true,
		},
		{
			name: "diagonal cross",
			a1:   domain.GeoPoint{Lat: -1, Lon: -1}, a2: domain.GeoPoint{Lat: 1, Lon: 1},
			b1: domain.GeoPoint{Lat: -1, Lon: 1}, b2: domain.GeoPoint{Lat: 1, Lon: -1},
			want: domain.GeoPoint{Lat: 0, Lon: 0}, hit: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, ok := geo.SegmentIntersection(tc.a1, tc.a2, tc.b1, tc.b2)
			if ok != tc.hit {
				t.Fatalf("hit = %v, want %v", ok, tc.hit)
			}
			if !ok {
				return
			}
			if math.Abs(p.Lat-tc.want.Lat) > 1e-9 || math.Abs(p.Lon-tc.want.Lon) > 1e-9 {
				t.Errorf("intersection = (%v, %v), want (%v, %v)", p.Lat, p.Lon, tc.want.Lat, tc.want.Lon)
			}
		})
	}
}

func squareRing() domain.Ring {
	return domain.Ring{
		{Lat: -1, Lon: -1},
		{Lat: -1, Lon: 1},
		{Lat: 1, Lon: 1},
		{Lat: 1, Lon: -1},
	}
}

func TestLineIntersectsPolygon_Crossing(t *testing.T) {
	// Route crosses the unit square at lat 0. Ring edges are probed in
	// vertex order, so the lon 1 edge between (-1,1) and (1,1) is found
	// before the closing edge at lon -1.
	route := []domain.GeoPoint{
		{Lat: 0, Lon: -5},
		{Lat: 0, Lon: 5},
	}

	p := geo.LineIntersectsPolygon(route, []domain.Ring{squareRing()})
	if p == nil {
		t.Fatal("expected an intersection")
	}
	if math.Abs(p.Lat) > 1e-9 || math.Abs(p.Lon-1) > 1e-9 {
		t.Errorf("expected crossing at (0, 1), got (%v, %v)", p.Lat, p.Lon)
	}
}

func TestLineIntersectsPolygon_ClosingEdge(t *testing.T) {
	// A route crossing only the implicit edge from the last vertex back
	// to the first (the western side of the square, between (1,-1) and
	// (-1,-1)) must still be detected.
	route := []domain.GeoPoint{
		{Lat: 0.5, Lon: -5},
		{Lat: 0.5, Lon: 0},
	}

	p := geo.LineIntersectsPolygon(route, []domain.Ring{squareRing()})
	if p == nil {
		t.Fatal("expected crossing on the ring-closing edge")
	}
	if math.Abs(p.Lon-(-1)) > 1e-9 {
		t.Errorf("expected crossing at lon -1, got %v", p.Lon)
	}
}

func TestLineIntersectsPolygon_Outside(t *testing.T) {
	route := []domain.GeoPoint{
		{Lat: 10, Lon: 10},
		{Lat: 20, Lon: 20},
	}
	if p := geo.LineIntersectsPolygon(route, []domain.Ring{squareRing()}); p != nil {
		t.Errorf("expected no intersection, got %v", p)
	}
}

func TestLineIntersectsPolygon_Degenerate(t *testing.T) {
	route := []domain.GeoPoint{{Lat: 0, Lon: -5}, {Lat: 0, Lon: 5}}

	// Two-vertex ring: not a polygon, no possible intersection.
	thin := domain.Ring{{Lat: -1, Lon: 0}, {Lat: 1, Lon: 0}}
	if p := geo.LineIntersectsPolygon(route, []domain.Ring{thin}); p != nil {
		t.Errorf("degenerate ring must not intersect, got %v", p)
	}

	// Single-point route: no segments to test.
	if p := geo.LineIntersectsPolygon(route[:1], []domain.Ring{squareRing()}); p != nil {
		t.Errorf("single-point route must not intersect, got %v", p)
	}
}

func TestLineIntersectsLine(t *testing.T) {
	route := []domain.GeoPoint{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 10},
	}
	track := []domain.GeoPoint{
		{Lat: -5, Lon: 3},
		{Lat: 5, Lon: 3},
		{Lat: 5, Lon: 20},
	}

	p := geo.LineIntersectsLine(route, track)
	if p == nil {
		t.Fatal("expected an intersection")
	}
	if math.Abs(p.Lat) > 1e-9 || math.Abs(p.Lon-3) > 1e-9 {
		t.Errorf("expected crossing at (0, 3), got (%v, %v)", p.Lat, p.Lon)
	}
}

func TestLineIntersectsLine_NoClosingEdge(t *testing.T) {
	// If the track were closed, its last-to-first edge would cross the
	// route; open polylines must not gain that edge.
	route := []domain.GeoPoint{
		{Lat: 0, Lon: -2},
		{Lat: 0, Lon: 2},
	}
	// The edge from (1,0) back to (-1,0) would cross the route at (0,0),
	// but only exists if the polyline is treated as a ring.
	track := []domain.GeoPoint{
		{Lat: -1, Lon: 0},
		{Lat: 0.5, Lon: 5},
		{Lat: 1, Lon: 0},
	}
	if p := geo.LineIntersectsLine(route, track); p != nil {
		t.Errorf("open polyline must not be closed implicitly, got %v", p)
	}
}
