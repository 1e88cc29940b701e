package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// --- Mock CrimeRepository ---

type mockCrimeRepo struct {
	insertFn    func(ctx context.Context, rec *domain.CrimeRecord) error
	inBoundsFn  func(ctx context.Context, b domain.Bounds, limit int) ([]domain.CrimeRecord, error)
	nearRouteFn func(ctx context.Context, route domain.Route, meters float64) ([]domain.CrimeRecord, error)
}

func (m *mockCrimeRepo) Insert(ctx context.Context, rec *domain.CrimeRecord) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, rec)
	}
	return nil
}

func (m *mockCrimeRepo) InBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.CrimeRecord, error) {
	if m.inBoundsFn != nil {
		return m.inBoundsFn(ctx, b, limit)
	}
	return nil, nil
}

func (m *mockCrimeRepo) NearRoute(ctx context.Context, route domain.Route, meters float64) ([]domain.CrimeRecord, error) {
	if m.nearRouteFn != nil {
		return m.nearRouteFn(ctx, route, meters)
	}
	return nil, nil
}

// --- Mock SOSRepository ---

type mockSOSRepo struct {
	createFn     func(ctx context.Context, a *domain.SOSAlert) error
	getByIDFn    func(ctx context.Context, id string) (*domain.SOSAlert, error)
	listByUserFn func(ctx context.Context, userID string, limit int) ([]domain.SOSAlert, error)
	resolveFn    func(ctx context.Context, id string) error
}

func (m *mockSOSRepo) Create(ctx context.Context, a *domain.SOSAlert) error {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	return nil
}

func (m *mockSOSRepo) GetByID(ctx context.Context, id string) (*domain.SOSAlert, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSOSRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.SOSAlert, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockSOSRepo) MarkNotified(ctx context.Context, id string) error             { return nil }
func (m *mockSOSRepo) MarkAuthoritiesContacted(ctx context.Context, id string) error { return nil }

func (m *mockSOSRepo) Resolve(ctx context.Context, id string) error {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, id)
	}
	return nil
}

// --- Mock ContactRepository ---

type mockContactRepo struct {
	createFn     func(ctx context.Context, c *domain.EmergencyContact) error
	listByUserFn func(ctx context.Context, userID string) ([]domain.EmergencyContact, error)
	deleteFn     func(ctx context.Context, userID, id string) error
}

func (m *mockContactRepo) Create(ctx context.Context, c *domain.EmergencyContact) error {
	if m.createFn != nil {
		return m.createFn(ctx, c)
	}
	return nil
}

func (m *mockContactRepo) ListByUser(ctx context.Context, userID string) ([]domain.EmergencyContact, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockContactRepo) Delete(ctx context.Context, userID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

// --- Mock RoutingProvider ---

type mockRouting struct {
	routesFn func(ctx context.Context, from, to domain.GeoPoint, mode domain.TravelMode, alternatives bool) ([]domain.RouteOption, error)
}

func (m *mockRouting) Routes(ctx context.Context, from, to domain.GeoPoint, mode domain.TravelMode, alternatives bool) ([]domain.RouteOption, error) {
	if m.routesFn != nil {
		return m.routesFn(ctx, from, to, mode, alternatives)
	}
	return nil, errors.New("routing unavailable")
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu       sync.Mutex
	sos      []*domain.SOSAlert
	plans    []*domain.RoutePlan
	failWith error
}

func (m *mockPublisher) PublishSOSAlert(ctx context.Context, a *domain.SOSAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sos = append(m.sos, a)
	return m.failWith
}

func (m *mockPublisher) PublishRouteScored(ctx context.Context, p *domain.RoutePlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = append(m.plans, p)
	return m.failWith
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache { return &mockCache{data: make(map[string][]byte)} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("cache miss")
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
