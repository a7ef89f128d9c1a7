package domain

// GeoPoint represents a geographic coordinate (WGS 84).
// After antimeridian unwrapping, Lon may legitimately fall outside
// [-180, 180]; callers must not clamp it back.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Ring is a closed sequence of coordinates forming one boundary of a
// polygon. The closing edge (last vertex back to first) is implicit.
type Ring []GeoPoint

// GeoLineString represents an ordered sequence of geographic coordinates.
type GeoLineString struct {
	Coordinates []GeoPoint `json:"coordinates"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}
