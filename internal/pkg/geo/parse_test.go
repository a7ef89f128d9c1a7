package geo_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/nereamendi/stormwatch/internal/pkg/geo"
)

func TestParsePoint(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon any
		wantLat  float64
		wantLon  float64
	}{
		{name: "floats", lat: 51.5, lon: -0.12, wantLat: 51.5, wantLon: -0.12},
		{name: "numeric strings", lat: "35.68", lon: "139.69", wantLat: 35.68, wantLon: 139.69},
		{name: "ints", lat: 10, lon: -20, wantLat: 10, wantLon: -20},
		{name: "json numbers", lat: json.Number("-33.87"), lon: json.Number("151.21"), wantLat: -33.87, wantLon: 151.21},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := geo.ParsePoint(tc.lat, tc.lon)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(p.Lat-tc.wantLat) > 1e-12 || math.Abs(p.Lon-tc.wantLon) > 1e-12 {
				t.Errorf("got (%v, %v), want (%v, %v)", p.Lat, p.Lon, tc.wantLat, tc.wantLon)
			}
		})
	}
}

func TestParsePoint_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon any
		field    string
	}{
		{name: "garbage latitude string", lat: "north-ish", lon: 10.0, field: "latitude"},
		{name: "garbage longitude string", lat: 10.0, lon: "???", field: "longitude"},
		{name: "nil latitude", lat: nil, lon: 10.0, field: "latitude"},
		{name: "bool longitude", lat: 10.0, lon: true, field: "longitude"},
		{name: "nan latitude", lat: math.NaN(), lon: 10.0, field: "latitude"},
		{name: "inf longitude", lat: 10.0, lon: math.Inf(1), field: "longitude"},
		{name: "empty string", lat: "", lon: 10.0, field: "latitude"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := geo.ParsePoint(tc.lat, tc.lon)
			if err == nil {
				t.Fatal("expected an error")
			}
			var perr *geo.ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *geo.ParseError, got %T", err)
			}
			if perr.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, perr.Field)
			}
		})
	}
}

func TestFromGeoJSONPolygon(t *testing.T) {
	coords := [][][]float64{
		{
			{-60.0, 20.0},
			{-58.0, 22.0},
			{-61.0, 24.0},
			{-60.0, 20.0},
		},
	}

	rings := geo.FromGeoJSONPolygon(coords)
	if len(rings) != 1 {
		t.Fatalf("expected 1 ring, got %d", len(rings))
	}
	// GeoJSON axis order is (lon, lat); ours is (lat, lon).
	if rings[0][0].Lat != 20 || rings[0][0].Lon != -60 {
		t.Errorf("axis order not swapped: %+v", rings[0][0])
	}
	if len(rings[0]) != 4 {
		t.Errorf("expected 4 vertices, got %d", len(rings[0]))
	}
}

func TestFromGeoJSONLine(t *testing.T) {
	coords := [][]float64{
		{-62.0, 19.0},
		{-59.0, 21.0},
		{-57.0}, // malformed coordinate pair is skipped
	}

	line := geo.FromGeoJSONLine(coords)
	if len(line) != 2 {
		t.Fatalf("expected 2 points, got %d", len(line))
	}
	if line[1].Lat != 21 || line[1].Lon != -59 {
		t.Errorf("axis order not swapped: %+v", line[1])
	}
}
