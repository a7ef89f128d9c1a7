package ports

import (
	"context"
	"time"

	"github.com/nereamendi/stormwatch/internal/core/domain"
)

// RouteRepository persists routes and their waypoints.
type RouteRepository interface {
	Create(ctx context.Context, route *domain.Route) error
	Upsert(ctx context.Context, route *domain.Route) error
	GetByID(ctx context.Context, id string) (*domain.Route, error)
	List(ctx context.Context, limit, offset int) ([]domain.Route, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
}

// AdvisoryRepository persists hazard advisories.
type AdvisoryRepository interface {
	Upsert(ctx context.Context, advisory *domain.Advisory) error
	GetByID(ctx context.Context, id string) (*domain.Advisory, error)
	GetByRevision(ctx context.Context, stormID, revision string) (*domain.Advisory, error)
	ListActive(ctx context.Context) ([]domain.Advisory, error)
	List(ctx context.Context, basin string, limit, offset int) ([]domain.Advisory, error)
	Deactivate(ctx context.Context, stormID string, before time.Time) error
}

// WarningRepository persists route warnings.
type WarningRepository interface {
	Insert(ctx context.Context, warning *domain.Warning) error
	GetByID(ctx context.Context, id string) (*domain.Warning, error)
	ListByRoute(ctx context.Context, routeID string, includeAcked bool) ([]domain.Warning, error)
	Acknowledge(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// FeedStateRepository tracks per-feed poll state for the advisory poller.
type FeedStateRepository interface {
	Get(ctx context.Context, feedID string) (*domain.FeedState, error)
	Upsert(ctx context.Context, state *domain.FeedState) error
	List(ctx context.Context) ([]domain.FeedState, error)
}
