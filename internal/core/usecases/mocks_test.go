package usecases_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nereamendi/stormwatch/internal/core/domain"
)

var errCacheMiss = errors.New("cache miss")

// --- Mock RouteRepository ---

type mockRouteRepo struct {
	createFn  func(ctx context.Context, route *domain.Route) error
	getByIDFn func(ctx context.Context, id string) (*domain.Route, error)
	listFn    func(ctx context.Context, limit, offset int) ([]domain.Route, error)
}

func (m *mockRouteRepo) Create(ctx context.Context, route *domain.Route) error {
	if m.createFn != nil {
		return m.createFn(ctx, route)
	}
	return nil
}

func (m *mockRouteRepo) Upsert(ctx context.Context, route *domain.Route) error { return nil }

func (m *mockRouteRepo) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockRouteRepo) List(ctx context.Context, limit, offset int) ([]domain.Route, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockRouteRepo) Count(ctx context.Context) (int, error) { return 0, nil }

func (m *mockRouteRepo) Delete(ctx context.Context, id string) error { return nil }

// --- Mock AdvisoryRepository ---

type mockAdvisoryRepo struct {
	upsertFn        func(ctx context.Context, adv *domain.Advisory) error
	getByRevisionFn func(ctx context.Context, stormID, revision string) (*domain.Advisory, error)
	listActiveFn    func(ctx context.Context) ([]domain.Advisory, error)
	deactivateFn    func(ctx context.Context, stormID string, before time.Time) error
}

func (m *mockAdvisoryRepo) Upsert(ctx context.Context, adv *domain.Advisory) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, adv)
	}
	return nil
}

func (m *mockAdvisoryRepo) GetByID(ctx context.Context, id string) (*domain.Advisory, error) {
	return nil, nil
}

func (m *mockAdvisoryRepo) GetByRevision(ctx context.Context, stormID, revision string) (*domain.Advisory, error) {
	if m.getByRevisionFn != nil {
		return m.getByRevisionFn(ctx, stormID, revision)
	}
	return nil, nil
}

func (m *mockAdvisoryRepo) ListActive(ctx context.Context) ([]domain.Advisory, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx)
	}
	return nil, nil
}

func (m *mockAdvisoryRepo) List(ctx context.Context, basin string, limit, offset int) ([]domain.Advisory, error) {
	return nil, nil
}

func (m *mockAdvisoryRepo) Deactivate(ctx context.Context, stormID string, before time.Time) error {
	if m.deactivateFn != nil {
		return m.deactivateFn(ctx, stormID, before)
	}
	return nil
}

// --- Mock FeedStateRepository ---

type mockFeedRepo struct {
	getFn    func(ctx context.Context, feedID string) (*domain.FeedState, error)
	upsertFn func(ctx context.Context, state *domain.FeedState) error
}

func (m *mockFeedRepo) Get(ctx context.Context, feedID string) (*domain.FeedState, error) {
	if m.getFn != nil {
		return m.getFn(ctx, feedID)
	}
	return nil, nil
}

func (m *mockFeedRepo) Upsert(ctx context.Context, state *domain.FeedState) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, state)
	}
	return nil
}

func (m *mockFeedRepo) List(ctx context.Context) ([]domain.FeedState, error) { return nil, nil }

// --- Mock WarningRepository ---

type mockWarningRepo struct {
	insertFn      func(ctx context.Context, w *domain.Warning) error
	getByIDFn     func(ctx context.Context, id string) (*domain.Warning, error)
	listByRouteFn func(ctx context.Context, routeID string, includeAcked bool) ([]domain.Warning, error)
	acknowledged  []string
}

func (m *mockWarningRepo) Insert(ctx context.Context, w *domain.Warning) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, w)
	}
	return nil
}

func (m *mockWarningRepo) GetByID(ctx context.Context, id string) (*domain.Warning, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockWarningRepo) ListByRoute(ctx context.Context, routeID string, includeAcked bool) ([]domain.Warning, error) {
	if m.listByRouteFn != nil {
		return m.listByRouteFn(ctx, routeID, includeAcked)
	}
	return nil, nil
}

func (m *mockWarningRepo) Acknowledge(ctx context.Context, id string) error {
	m.acknowledged = append(m.acknowledged, id)
	return nil
}

func (m *mockWarningRepo) Delete(ctx context.Context, id string) error { return nil }

// --- Mock EventPublisher ---

type mockPublisher struct {
	warnings   []*domain.Warning
	advisories []*domain.Advisory
}

func (m *mockPublisher) PublishWarning(ctx context.Context, w *domain.Warning) error {
	m.warnings = append(m.warnings, w)
	return nil
}

func (m *mockPublisher) PublishAdvisoryUpdated(ctx context.Context, adv *domain.Advisory) error {
	m.advisories = append(m.advisories, adv)
	return nil
}

func (m *mockPublisher) PublishBroadcast(ctx context.Context, data []byte) error { return nil }

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errCacheMiss
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
