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
	"github.com/nereamendi/stormwatch/internal/pkg/metrics"
)

// scanCacheTTL bounds how long a memoized scan result lives. Advisory
// revisions are part of the cache key, so a shorter TTL only matters for
// storage pressure, not correctness.
const scanCacheTTL = 3600

// ScanService runs routes against active advisories and records
// warnings for any crossing found.
type ScanService struct {
	routes     ports.RouteRepository
	advisories ports.AdvisoryRepository
	warnings   ports.WarningRepository
	publisher  ports.EventPublisher
	cache      ports.CacheService
}

// NewScanService creates a new ScanService.
func NewScanService(
	routes ports.RouteRepository,
	advisories ports.AdvisoryRepository,
	warnings ports.WarningRepository,
	publisher ports.EventPublisher,
	cache ports.CacheService,
) *ScanService {
	return &ScanService{
		routes:     routes,
		advisories: advisories,
		warnings:   warnings,
		publisher:  publisher,
		cache:      cache,
	}
}

// ScanRoute checks a stored route against every active advisory in
// issue order and returns the first crossing found. A hit persists a
// warning and publishes it; a clear result is memoized against the
// advisory revisions so repeat scans are free until geometry changes.
func (s *ScanService) ScanRoute(ctx context.Context, routeID string) (*domain.ScanResult, error) {
	route, err := s.routes.GetByID(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("load route: %w", err)
	}
	if route == nil {
		return nil, fmt.Errorf("route %s not found", routeID)
	}

	advisories, err := s.advisories.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active advisories: %w", err)
	}

	cacheKey, err := scanKey(routeID, route.Points(), advisories)
	if err == nil && s.cache != nil {
		if data, cerr := s.cache.Get(ctx, cacheKey); cerr == nil {
			var cached domain.ScanResult
			if json.Unmarshal(data, &cached) == nil {
				cached.Cached = true
				return &cached, nil
			}
		}
	}

	result, err := s.scan(route.Points(), advisories)
	if err != nil {
		return nil, err
	}
	result.RouteID = routeID

	if result.Intersection != nil {
		warning, werr := s.recordWarning(ctx, routeID, result)
		if werr != nil {
			return nil, werr
		}
		if s.publisher != nil {
			_ = s.publisher.PublishWarning(ctx, warning)
		}
	}

	if s.cache != nil && cacheKey != "" {
		if data, merr := json.Marshal(result); merr == nil {
			_ = s.cache.Set(ctx, cacheKey, data, scanCacheTTL)
		}
	}

	return result, nil
}

// RescanAll runs every stored route against the active advisories and
// returns how many fresh crossings were found. Called when an advisory
// revision changes, so standing routes pick up new warnings without
// waiting for a client-driven scan. Unchanged routes hit the memoized
// result and cost nothing.
func (s *ScanService) RescanAll(ctx context.Context) (int, error) {
	const pageSize = 100

	hits := 0
	for offset := 0; ; offset += pageSize {
		routes, err := s.routes.List(ctx, pageSize, offset)
		if err != nil {
			return hits, fmt.Errorf("list routes: %w", err)
		}
		for _, route := range routes {
			result, err := s.ScanRoute(ctx, route.ID)
			if err != nil {
				return hits, fmt.Errorf("rescan route %s: %w", route.ID, err)
			}
			if result.Intersection != nil && !result.Cached {
				hits++
			}
		}
		if len(routes) < pageSize {
			return hits, nil
		}
	}
}

// ScanPoints checks an ad-hoc coordinate sequence against the active
// advisories without touching storage. Used by the stateless scan
// endpoint for routes the client has not saved.
func (s *ScanService) ScanPoints(ctx context.Context, points []domain.GeoPoint) (*domain.ScanResult, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("scan needs at least 2 points, got %d", len(points))
	}

	advisories, err := s.advisories.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active advisories: %w", err)
	}
	return s.scan(points, advisories)
}

// scan is the pure core: unwrap the route, then probe each advisory's
// three-copy hazard set in issue order until something crosses.
func (s *ScanService) scan(points []domain.GeoPoint, advisories []domain.Advisory) (*domain.ScanResult, error) {
	start := time.Now()
	defer func() { metrics.ScanDuration.Observe(time.Since(start).Seconds()) }()

	result := &domain.ScanResult{ScannedAt: start}

	track := geo.Normalize(points)
	for _, adv := range advisories {
		hz := geo.ShiftedCopies(adv.Features)
		if hit := geo.FindFirstIntersection(track, hz); hit != nil {
			result.Intersection = hit
			result.AdvisoryID = adv.ID
			return result, nil
		}
	}
	return result, nil
}

func (s *ScanService) recordWarning(ctx context.Context, routeID string, result *domain.ScanResult) (*domain.Warning, error) {
	id, err := newID("wrn")
	if err != nil {
		return nil, fmt.Errorf("generate warning id: %w", err)
	}

	warning := &domain.Warning{
		ID:         id,
		RouteID:    routeID,
		AdvisoryID: result.AdvisoryID,
		StormID:    result.Intersection.StormID,
		Kind:       result.Intersection.Kind,
		Point:      result.Intersection.Point,
		IssuedAt:   result.ScannedAt,
	}
	if err := s.warnings.Insert(ctx, warning); err != nil {
		return nil, fmt.Errorf("insert warning: %w", err)
	}
	return warning, nil
}

// scanKey fingerprints a scan's full input: the route geometry plus the
// revision of every advisory it will run against.
func scanKey(routeID string, points []domain.GeoPoint, advisories []domain.Advisory) (string, error) {
	h := sha256.New()
	if err := json.NewEncoder(h).Encode(points); err != nil {
		return "", err
	}
	for _, adv := range advisories {
		h.Write([]byte(adv.StormID))
		h.Write([]byte(adv.Revision))
	}
	return "scan:" + routeID + ":" + hex.EncodeToString(h.Sum(nil)), nil
}
