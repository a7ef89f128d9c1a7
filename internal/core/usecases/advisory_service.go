package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nereamendi/stormwatch/internal/core/domain"
	"github.com/nereamendi/stormwatch/internal/core/ports"
	"github.com/nereamendi/stormwatch/internal/pkg/geo"
)

// AdvisoryService ingests cyclone advisories and tracks feed health.
type AdvisoryService struct {
	advisories ports.AdvisoryRepository
	feeds      ports.FeedStateRepository
	publisher  ports.EventPublisher
}

// NewAdvisoryService creates a new AdvisoryService.
func NewAdvisoryService(
	advisories ports.AdvisoryRepository,
	feeds ports.FeedStateRepository,
	publisher ports.EventPublisher,
) *AdvisoryService {
	return &AdvisoryService{advisories: advisories, feeds: feeds, publisher: publisher}
}

// geoJSON payload shapes for advisory feeds. Coordinates stay raw until
// the geometry type is known.
type geoJSONCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

type geoJSONFeature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   geoJSONGeometry `json:"geometry"`
}

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// IngestGeoJSON parses an advisory feed payload and upserts one advisory
// per storm found in it. Malformed coordinate data aborts the whole
// ingest; a partially applied advisory is worse than a stale one.
func (s *AdvisoryService) IngestGeoJSON(ctx context.Context, basin string, payload []byte) ([]domain.Advisory, error) {
	var fc geoJSONCollection
	if err := json.Unmarshal(payload, &fc); err != nil {
		return nil, fmt.Errorf("decode advisory payload: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("unexpected GeoJSON type %q", fc.Type)
	}

	byStorm := make(map[string]*domain.Advisory)
	order := make([]string, 0)

	for i, f := range fc.Features {
		stormID, _ := f.Properties["storm_id"].(string)
		if stormID == "" {
			return nil, fmt.Errorf("feature %d: missing storm_id property", i)
		}

		feature, err := parseHazardFeature(stormID, f)
		if err != nil {
			return nil, fmt.Errorf("feature %d (%s): %w", i, stormID, err)
		}
		if feature == nil {
			continue // unsupported geometry type, not hazard data
		}

		adv, ok := byStorm[stormID]
		if !ok {
			adv = &domain.Advisory{
				StormID:  stormID,
				Basin:    basin,
				Active:   true,
				IssuedAt: time.Now(),
			}
			if name, ok := f.Properties["name"].(string); ok {
				adv.Name = name
			}
			if issued, ok := f.Properties["issued_at"].(string); ok {
				if t, err := time.Parse(time.RFC3339, issued); err == nil {
					adv.IssuedAt = t
				}
			}
			byStorm[stormID] = adv
			order = append(order, stormID)
		}
		adv.Features = append(adv.Features, *feature)
	}

	upserted := make([]domain.Advisory, 0, len(order))
	for _, stormID := range order {
		adv := byStorm[stormID]

		rev, err := featureRevision(adv.Features)
		if err != nil {
			return nil, fmt.Errorf("revision for %s: %w", stormID, err)
		}
		adv.Revision = rev

		// Unchanged geometry means nothing to store or announce.
		if existing, err := s.advisories.GetByRevision(ctx, stormID, rev); err == nil && existing != nil {
			continue
		}

		id, err := newID("adv")
		if err != nil {
			return nil, fmt.Errorf("generate advisory id: %w", err)
		}
		adv.ID = id
		adv.CreatedAt = time.Now()

		if err := s.advisories.Upsert(ctx, adv); err != nil {
			return nil, fmt.Errorf("upsert advisory %s: %w", stormID, err)
		}
		if s.publisher != nil {
			_ = s.publisher.PublishAdvisoryUpdated(ctx, adv)
		}
		upserted = append(upserted, *adv)
	}

	return upserted, nil
}

// parseHazardFeature maps a GeoJSON feature to hazard geometry: polygons
// become forecast cones, line strings become tracks. Other geometry
// types are ignored. Coordinate payloads that fail to decode surface a
// ParseError so the caller aborts instead of scanning bad geometry.
func parseHazardFeature(stormID string, f geoJSONFeature) (*domain.HazardFeature, error) {
	switch f.Geometry.Type {
	case "Polygon":
		var coords [][][]float64
		if err := json.Unmarshal(f.Geometry.Coordinates, &coords); err != nil {
			return nil, &geo.ParseError{Field: "coordinates", Value: string(f.Geometry.Coordinates)}
		}
		return &domain.HazardFeature{
			Kind:    domain.FeatureCone,
			StormID: stormID,
			Rings:   geo.FromGeoJSONPolygon(coords),
		}, nil
	case "LineString":
		var coords [][]float64
		if err := json.Unmarshal(f.Geometry.Coordinates, &coords); err != nil {
			return nil, &geo.ParseError{Field: "coordinates", Value: string(f.Geometry.Coordinates)}
		}
		return &domain.HazardFeature{
			Kind:    domain.FeatureTrack,
			StormID: stormID,
			Track:   geo.FromGeoJSONLine(coords),
		}, nil
	default:
		return nil, nil
	}
}

// featureRevision fingerprints advisory geometry. Struct field order
// makes the JSON form canonical, so equal geometry always hashes equal.
func featureRevision(features []domain.HazardFeature) (string, error) {
	data, err := json.Marshal(features)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ListActive returns the advisories that scans run against, oldest
// issue time first.
func (s *AdvisoryService) ListActive(ctx context.Context) ([]domain.Advisory, error) {
	return s.advisories.ListActive(ctx)
}

// List returns advisories filtered by basin with offset pagination.
func (s *AdvisoryService) List(ctx context.Context, basin string, limit, offset int) ([]domain.Advisory, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.advisories.List(ctx, basin, limit, offset)
}

// GetByID returns a single advisory.
func (s *AdvisoryService) GetByID(ctx context.Context, id string) (*domain.Advisory, error) {
	return s.advisories.GetByID(ctx, id)
}

// ExpireStale deactivates advisories that have not been re-issued
// within maxAge. Feeds drop a storm once it dissipates, so an advisory
// the upstream has stopped refreshing is over and must leave the set
// that scans run against.
func (s *AdvisoryService) ExpireStale(ctx context.Context, maxAge time.Duration) (int, error) {
	active, err := s.advisories.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active advisories: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	expired := 0
	for _, adv := range active {
		if !adv.IssuedAt.Before(cutoff) {
			continue
		}
		if err := s.advisories.Deactivate(ctx, adv.StormID, cutoff); err != nil {
			return expired, fmt.Errorf("deactivate %s: %w", adv.StormID, err)
		}
		expired++
	}
	return expired, nil
}

// RecordPoll updates the stored poll state for a feed.
func (s *AdvisoryService) RecordPoll(ctx context.Context, state *domain.FeedState) error {
	if s.feeds == nil {
		return nil
	}
	state.LastPolledAt = time.Now()
	return s.feeds.Upsert(ctx, state)
}

// FeedState returns the stored poll state for one feed, nil when the
// feed has never been polled.
func (s *AdvisoryService) FeedState(ctx context.Context, feedID string) (*domain.FeedState, error) {
	if s.feeds == nil {
		return nil, nil
	}
	return s.feeds.Get(ctx, feedID)
}

// FeedStatus returns the last known poll state of every feed.
func (s *AdvisoryService) FeedStatus(ctx context.Context) ([]domain.FeedState, error) {
	if s.feeds == nil {
		return nil, nil
	}
	return s.feeds.List(ctx)
}
