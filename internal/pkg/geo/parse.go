package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/nereamendi/stormwatch/internal/core/domain"
)

// ParseError reports a coordinate value that could not be interpreted as
// a finite number. Scans must fail on bad input rather than proceed with
// NaN or zero.
type ParseError struct {
	Field string
	Value any
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: invalid coordinate value %v", e.Field, e.Value)
}

// ParsePoint builds a GeoPoint from loosely typed latitude/longitude
// values. Route sources expose coordinates as either numbers or numeric
// strings; anything else, or a non-finite result, is a ParseError.
func ParsePoint(lat, lon any) (domain.GeoPoint, error) {
	la, err := parseCoord("latitude", lat)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	lo, err := parseCoord("longitude", lon)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	return domain.GeoPoint{Lat: la, Lon: lo}, nil
}

func parseCoord(field string, v any) (float64, error) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, &ParseError{Field: field, Value: v}
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, &ParseError{Field: field, Value: v}
		}
		f = parsed
	default:
		return 0, &ParseError{Field: field, Value: v}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ParseError{Field: field, Value: v}
	}
	return f, nil
}

// FromGeoJSONPolygon converts GeoJSON polygon coordinates — nested rings
// in (longitude, latitude) axis order — into rings in (lat, lon) order.
func FromGeoJSONPolygon(coords [][][]float64) []domain.Ring {
	rings := make([]domain.Ring, 0, len(coords))
	for _, rc := range coords {
		ring := make(domain.Ring, 0, len(rc))
		for _, c := range rc {
			if len(c) < 2 {
				continue
			}
			ring = append(ring, domain.GeoPoint{Lat: c[1], Lon: c[0]})
		}
		rings = append(rings, ring)
	}
	return rings
}

// FromGeoJSONLine converts GeoJSON LineString coordinates in
// (longitude, latitude) order into a (lat, lon) point sequence.
func FromGeoJSONLine(coords [][]float64) []domain.GeoPoint {
	line := make([]domain.GeoPoint, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		line = append(line, domain.GeoPoint{Lat: c[1], Lon: c[0]})
	}
	return line
}
