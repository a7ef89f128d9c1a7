package usecases

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/nereamendi/stormwatch/internal/core/domain"
	"github.com/nereamendi/stormwatch/internal/core/ports"
	"github.com/nereamendi/stormwatch/internal/pkg/geo"
)

// RouteService handles route-related business logic.
type RouteService struct {
	routes ports.RouteRepository
	cache  ports.CacheService
}

// NewRouteService creates a new RouteService.
func NewRouteService(routes ports.RouteRepository, cache ports.CacheService) *RouteService {
	return &RouteService{routes: routes, cache: cache}
}

// Create validates and stores a new route. Cumulative distances are
// recomputed from the waypoint sequence regardless of what the caller
// supplied.
func (s *RouteService) Create(ctx context.Context, route *domain.Route) (*domain.Route, error) {
	if route.Name == "" {
		return nil, fmt.Errorf("route name must not be empty")
	}
	if len(route.Waypoints) < 2 {
		return nil, fmt.Errorf("route needs at least 2 waypoints, got %d", len(route.Waypoints))
	}

	if route.ID == "" {
		id, err := newID("rt")
		if err != nil {
			return nil, fmt.Errorf("generate route id: %w", err)
		}
		route.ID = id
	}
	route.CreatedAt = time.Now()

	annotateDistances(route)

	if err := s.routes.Create(ctx, route); err != nil {
		return nil, fmt.Errorf("create route: %w", err)
	}
	return route, nil
}

// GetByID returns a route by its ID.
func (s *RouteService) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	return s.routes.GetByID(ctx, id)
}

// List returns routes with simple offset pagination.
func (s *RouteService) List(ctx context.Context, limit, offset int) ([]domain.Route, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.routes.List(ctx, limit, offset)
}

// Count returns the total number of stored routes.
func (s *RouteService) Count(ctx context.Context) (int, error) {
	return s.routes.Count(ctx)
}

// Delete removes a route and invalidates its cached scan results.
func (s *RouteService) Delete(ctx context.Context, id string) error {
	if err := s.routes.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "routes:id:"+id)
	}
	return nil
}

// Centroid returns the arithmetic mean position of a route's waypoints,
// used by map clients to frame the viewport.
func (s *RouteService) Centroid(ctx context.Context, id string) (domain.GeoPoint, error) {
	route, err := s.routes.GetByID(ctx, id)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	if route == nil {
		return domain.GeoPoint{}, fmt.Errorf("route %s not found", id)
	}
	return geo.Centroid(route.Points())
}

// annotateDistances fills in each waypoint's great-circle distance from
// the route origin.
func annotateDistances(route *domain.Route) {
	total := 0.0
	for i := range route.Waypoints {
		if i > 0 {
			total += geo.DistanceNM(route.Waypoints[i-1].Location, route.Waypoints[i].Location)
		}
		route.Waypoints[i].CumulativeNM = total
	}
}

func newID(prefix string) (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return prefix + "-" + hex.EncodeToString(b), nil
}
