package domain

import (
	"time"
)

// Waypoint is a single named point on a shipping route. CumulativeNM is
// the great-circle distance from the route origin, carried for display;
// the intersection scan never reads it.
type Waypoint struct {
	Name         string   `json:"name,omitempty"`
	Location     GeoPoint `json:"location"`
	CumulativeNM float64  `json:"cumulative_nm"`
}

// Route is an ordered shipping route between two ports. Waypoint order
// defines the polyline path.
type Route struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Origin      string     `json:"origin,omitempty"`
	Destination string     `json:"destination,omitempty"`
	Waypoints   []Waypoint `json:"waypoints"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Points returns the bare coordinate sequence of the route.
func (r *Route) Points() []GeoPoint {
	pts := make([]GeoPoint, len(r.Waypoints))
	for i, wp := range r.Waypoints {
		pts[i] = wp.Location
	}
	return pts
}

// FeatureKind distinguishes the two hazard geometry types.
type FeatureKind string

const (
	// FeatureCone is a forecast-cone polygon.
	FeatureCone FeatureKind = "cone"
	// FeatureTrack is an observed or forecast track polyline.
	FeatureTrack FeatureKind = "track"
)

// HazardFeature is one piece of cyclone hazard geometry. Exactly one of
// Rings (cone) or Track (track) is populated, selected by Kind.
type HazardFeature struct {
	Kind    FeatureKind `json:"kind"`
	StormID string      `json:"storm_id"`
	Rings   []Ring      `json:"rings,omitempty"`
	Track   []GeoPoint  `json:"track,omitempty"`
}

// HazardSet holds three longitude-shifted copies of the same hazard
// collection: the original plus copies offset by -360 and +360 degrees.
// The copies are geometrically identical except for the constant offset;
// together they make antimeridian-unaware source geometry visible to an
// unwrapped route.
type HazardSet struct {
	Original []HazardFeature `json:"original"`
	Minus360 []HazardFeature `json:"minus_360"`
	Plus360  []HazardFeature `json:"plus_360"`
}

// Advisory is one issued cyclone advisory: a named storm with its
// forecast cone(s) and track(s). Revision changes whenever the feature
// geometry changes, and drives both upsert detection and scan memoization.
type Advisory struct {
	ID        string          `json:"id"`
	StormID   string          `json:"storm_id"`
	Name      string          `json:"name"`
	Basin     string          `json:"basin"`
	Revision  string          `json:"revision"`
	IssuedAt  time.Time       `json:"issued_at"`
	Active    bool            `json:"active"`
	Features  []HazardFeature `json:"features"`
	CreatedAt time.Time       `json:"created_at"`
}

// Intersection is the first detected crossing between a route and hazard
// geometry. Point is reported in the route's unwrapped coordinate frame.
type Intersection struct {
	Point   GeoPoint    `json:"point"`
	StormID string      `json:"storm_id"`
	Kind    FeatureKind `json:"kind"`
}

// Warning records that a scan found a route crossing hazard geometry.
type Warning struct {
	ID             string      `json:"id"`
	RouteID        string      `json:"route_id"`
	AdvisoryID     string      `json:"advisory_id"`
	StormID        string      `json:"storm_id"`
	Kind           FeatureKind `json:"kind"`
	Point          GeoPoint    `json:"point"`
	IssuedAt       time.Time   `json:"issued_at"`
	AcknowledgedAt *time.Time  `json:"acknowledged_at,omitempty"`
}

// FeedState is the poller's bookkeeping for one upstream advisory feed.
type FeedState struct {
	FeedID       string    `json:"feed_id"`
	URL          string    `json:"url"`
	Basin        string    `json:"basin"`
	LastPolledAt time.Time `json:"last_polled_at"`
	LastRevision string    `json:"last_revision,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	FailureCount int       `json:"failure_count"`
}

// ScanResult is the outcome of scanning one route against the active
// advisories. Intersection is nil when the route is clear.
type ScanResult struct {
	RouteID      string        `json:"route_id"`
	Intersection *Intersection `json:"intersection,omitempty"`
	AdvisoryID   string        `json:"advisory_id,omitempty"`
	ScannedAt    time.Time     `json:"scanned_at"`
	Cached       bool          `json:"cached"`
}
