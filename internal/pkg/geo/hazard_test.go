package geo_test

import (
	"math"
	"testing"

	"github.com/nereamendi/stormwatch/internal/core/domain"
	"github.com/nereamendi/stormwatch/internal/pkg/geo"
)

func coneFeature(stormID string, ring domain.Ring) domain.HazardFeature {
	return domain.HazardFeature{
		Kind:    domain.FeatureCone,
		StormID: stormID,
		Rings:   []domain.Ring{ring},
	}
}

func trackFeature(stormID string, line []domain.GeoPoint) domain.HazardFeature {
	return domain.HazardFeature{
		Kind:    domain.FeatureTrack,
		StormID: stormID,
		Track:   line,
	}
}

func TestShiftedCopies_Offsets(t *testing.T) {
	features := []domain.HazardFeature{
		coneFeature("al092026", domain.Ring{
			{Lat: 20, Lon: -60},
			{Lat: 22, Lon: -58},
			{Lat: 24, Lon: -61},
		}),
		trackFeature("al092026", []domain.GeoPoint{
			{Lat: 19, Lon: -62},
			{Lat: 21, Lon: -59},
		}),
	}

	hz := geo.ShiftedCopies(features)

	if len(hz.Minus360) != len(features) || len(hz.Plus360) != len(features) {
		t.Fatalf("copies must carry every feature: -360 has %d, +360 has %d", len(hz.Minus360), len(hz.Plus360))
	}

	for i, f := range features {
		for r, ring := range f.Rings {
			for p, pt := range ring {
				minus := hz.Minus360[i].Rings[r][p]
				plus := hz.Plus360[i].Rings[r][p]
				if minus.Lat != pt.Lat || plus.Lat != pt.Lat {
					t.Errorf("latitudes must be untouched at feature %d ring %d point %d", i, r, p)
				}
				if math.Abs(minus.Lon-(pt.Lon-360)) > 1e-12 || math.Abs(plus.Lon-(pt.Lon+360)) > 1e-12 {
					t.Errorf("longitude offset wrong at feature %d ring %d point %d", i, r, p)
				}
			}
		}
		for p, pt := range f.Track {
			if math.Abs(hz.Minus360[i].Track[p].Lon-(pt.Lon-360)) > 1e-12 {
				t.Errorf("track longitude offset wrong at feature %d point %d", i, p)
			}
		}
	}
}

func TestShiftedCopies_DoesNotAliasOriginal(t *testing.T) {
	features := []domain.HazardFeature{
		coneFeature("ep052026", domain.Ring{
			{Lat: 10, Lon: 150},
			{Lat: 12, Lon: 152},
			{Lat: 14, Lon: 149},
		}),
	}

	hz := geo.ShiftedCopies(features)
	hz.Plus360[0].Rings[0][0].Lat = 99

	if features[0].Rings[0][0].Lat != 10 {
		t.Error("shifted copy shares backing storage with the original")
	}
}

func TestFindFirstIntersection_ConeBeatsTrack(t *testing.T) {
	// The route crosses the track before it reaches the cone, but cone
	// features are probed first across all copies, so the cone crossing
	// must win.
	route := []domain.GeoPoint{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 20},
	}
	features := []domain.HazardFeature{
		trackFeature("al012026", []domain.GeoPoint{
			{Lat: -5, Lon: 2},
			{Lat: 5, Lon: 2},
		}),
		coneFeature("al012026", domain.Ring{
			{Lat: -3, Lon: 9},
			{Lat: -3, Lon: 13},
			{Lat: 3, Lon: 13},
			{Lat: 3, Lon: 9},
		}),
	}

	hit := geo.FindFirstIntersection(route, geo.ShiftedCopies(features))
	if hit == nil {
		t.Fatal("expected an intersection")
	}
	if hit.Kind != domain.FeatureCone {
		t.Fatalf("expected the cone crossing to win, got %s", hit.Kind)
	}
	if hit.StormID != "al012026" {
		t.Errorf("unexpected storm id %q", hit.StormID)
	}
}

func TestFindFirstIntersection_TrackOnly(t *testing.T) {
	route := []domain.GeoPoint{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 10},
	}
	features := []domain.HazardFeature{
		trackFeature("al022026", []domain.GeoPoint{
			{Lat: -2, Lon: 4},
			{Lat: 2, Lon: 4},
		}),
	}

	hit := geo.FindFirstIntersection(route, geo.ShiftedCopies(features))
	if hit == nil {
		t.Fatal("expected an intersection")
	}
	if hit.Kind != domain.FeatureTrack {
		t.Fatalf("expected track kind, got %s", hit.Kind)
	}
	if math.Abs(hit.Point.Lat) > 1e-9 || math.Abs(hit.Point.Lon-4) > 1e-9 {
		t.Errorf("expected crossing at (0, 4), got (%v, %v)", hit.Point.Lat, hit.Point.Lon)
	}
}

func TestFindFirstIntersection_AcrossDateline(t *testing.T) {
	// A westbound Pacific route unwraps past 180; the hazard sits just
	// east of the dateline in [-180, 180] terms and is only reachable
	// through the +360 copy.
	route := geo.Normalize([]domain.GeoPoint{
		{Lat: 0, Lon: 175},
		{Lat: 0, Lon: -175}, // unwraps to 185
	})
	features := []domain.HazardFeature{
		coneFeature("wp292026", domain.Ring{
			{Lat: -2, Lon: -178},
			{Lat: -2, Lon: -176},
			{Lat: 2, Lon: -176},
			{Lat: 2, Lon: -178},
		}),
	}

	hit := geo.FindFirstIntersection(route, geo.ShiftedCopies(features))
	if hit == nil {
		t.Fatal("expected an intersection via the +360 copy")
	}
	if hit.Point.Lon < 180 {
		t.Errorf("expected the hit in unwrapped space past 180, got lon %v", hit.Point.Lon)
	}
}

func TestFindFirstIntersection_Clear(t *testing.T) {
	route := []domain.GeoPoint{
		{Lat: 40, Lon: -70},
		{Lat: 45, Lon: -60},
	}
	features := []domain.HazardFeature{
		coneFeature("al032026", domain.Ring{
			{Lat: 10, Lon: -50},
			{Lat: 12, Lon: -48},
			{Lat: 14, Lon: -51},
		}),
	}

	if hit := geo.FindFirstIntersection(route, geo.ShiftedCopies(features)); hit != nil {
		t.Errorf("expected a clear route, got %+v", hit)
	}
}

func TestFindFirstIntersection_ShortRoute(t *testing.T) {
	route := []domain.GeoPoint{{Lat: 0, Lon: 0}}
	features := []domain.HazardFeature{
		coneFeature("al042026", domain.Ring{
			{Lat: -1, Lon: -1},
			{Lat: -1, Lon: 1},
			{Lat: 1, Lon: 0},
		}),
	}

	if hit := geo.FindFirstIntersection(route, geo.ShiftedCopies(features)); hit != nil {
		t.Errorf("single-point route must not intersect, got %+v", hit)
	}
}
