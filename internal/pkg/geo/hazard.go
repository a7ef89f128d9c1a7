package geo

import (
	"github.com/mohae/deepcopy"

	"github.com/nereamendi/stormwatch/internal/core/domain"
)

// ShiftedCopies derives the three-copy hazard set from a feature
// collection: the original plus deep copies with every longitude offset
// by -360 and +360 degrees. Hazard geometry is authored without
// antimeridian awareness, so the shifted copies let an unwrapped route
// see geometry that sits on the far side of the dateline.
func ShiftedCopies(features []domain.HazardFeature) domain.HazardSet {
	return domain.HazardSet{
		Original: features,
		Minus360: shiftFeatures(features, -360),
		Plus360:  shiftFeatures(features, 360),
	}
}

func shiftFeatures(features []domain.HazardFeature, offset float64) []domain.HazardFeature {
	shifted := deepcopy.Copy(features).([]domain.HazardFeature)
	for i := range shifted {
		for r := range shifted[i].Rings {
			for p := range shifted[i].Rings[r] {
				shifted[i].Rings[r][p].Lon += offset
			}
		}
		for p := range shifted[i].Track {
			shifted[i].Track[p].Lon += offset
		}
	}
	return shifted
}

// FindFirstIntersection scans a normalized route against a hazard set
// and returns the first crossing found, or nil if the route is clear.
//
// Copies are probed in fixed order: original, minus-360, plus-360, with
// features in their given order inside each copy. Cone polygons are
// checked across all copies before any track polyline: a forecast-cone
// warning always takes priority over a track warning.
func FindFirstIntersection(route []domain.GeoPoint, hz domain.HazardSet) *domain.Intersection {
	if len(route) < 2 {
		return nil
	}

	copies := [][]domain.HazardFeature{hz.Original, hz.Minus360, hz.Plus360}

	for _, features := range copies {
		for _, f := range features {
			if f.Kind != domain.FeatureCone {
				continue
			}
			if p := LineIntersectsPolygon(route, f.Rings); p != nil {
				return &domain.Intersection{Point: *p, StormID: f.StormID, Kind: domain.FeatureCone}
			}
		}
	}

	for _, features := range copies {
		for _, f := range features {
			if f.Kind != domain.FeatureTrack {
				continue
			}
			if p := LineIntersectsLine(route, f.Track); p != nil {
				return &domain.Intersection{Point: *p, StormID: f.StormID, Kind: domain.FeatureTrack}
			}
		}
	}

	return nil
}
