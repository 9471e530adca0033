package service

import (
	"context"
	"sync"
	"time"

	"github.com/Damiangorskii/web-order-service/internal/cache"
	"github.com/Damiangorskii/web-order-service/internal/domain"
	"github.com/Damiangorskii/web-order-service/internal/publisher"
	"github.com/Damiangorskii/web-order-service/internal/repository"
	"github.com/google/uuid"
)

type mockRepository struct {
	m       sync.RWMutex
	orders  map[uuid.UUID]*domain.Order
	err     error
	writes  int
	cutoffs []time.Time
	gets    int
}

func newMockRepository() *mockRepository {
	return &mockRepository{orders: map[uuid.UUID]*domain.Order{}}
}

func (m *mockRepository) put(o *domain.Order) {
	m.m.Lock()
	defer m.m.Unlock()
	c := *o
	m.orders[o.OrderID] = &c
}

func (m *mockRepository) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.gets++
	if m.err != nil {
		return nil, m.err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	c := *o
	return &c, nil
}

func (m *mockRepository) SaveOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.writes++
	c := *order
	m.orders[order.OrderID] = &c
	out := c
	return &out, nil
}

func (m *mockRepository) DeleteOrder(_ context.Context, id uuid.UUID) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.orders[id]; !ok {
		return repository.ErrOrderNotFound
	}
	m.writes++
	delete(m.orders, id)
	return nil
}

func (m *mockRepository) SaveOrders(_ context.Context, orders []*domain.Order) ([]*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.writes++
	saved := make([]*domain.Order, 0, len(orders))
	for _, o := range orders {
		c := *o
		m.orders[o.OrderID] = &c
		out := c
		saved = append(saved, &out)
	}
	return saved, nil
}

func (m *mockRepository) DeleteOrdersCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.cutoffs = append(m.cutoffs, cutoff)
	if m.err != nil {
		return 0, m.err
	}
	var deleted int64
	for id, o := range m.orders {
		if o.CreatedBefore(cutoff) {
			delete(m.orders, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockRepository) Close() error { return nil }

func (m *mockRepository) count() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return len(m.orders)
}

func (m *mockRepository) writeCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.writes
}

type mockCarts struct {
	cart *domain.CartSnapshot
	err  error
}

func (m *mockCarts) GetCart(context.Context, uuid.UUID) (*domain.CartSnapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.cart, nil
}

// mockCache fences deleted keys for the life of the test, like RedisCache
// does for cache.FenceTTL.
type mockCache struct {
	m        sync.RWMutex
	orders   map[uuid.UUID]*domain.Order
	fenced   map[uuid.UUID]bool
	err      error
	setDelay time.Duration
}

func newMockCache() *mockCache {
	return &mockCache{
		orders: map[uuid.UUID]*domain.Order{},
		fenced: map[uuid.UUID]bool{},
	}
}

func (m *mockCache) Get(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	c := *o
	return &c, nil
}

func (m *mockCache) Set(_ context.Context, order *domain.Order) error {
	time.Sleep(m.setDelay)
	m.m.Lock()
	defer m.m.Unlock()
	if m.fenced[order.OrderID] {
		return nil
	}
	c := *order
	m.orders[order.OrderID] = &c
	return nil
}

func (m *mockCache) Delete(_ context.Context, id uuid.UUID) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.orders, id)
	m.fenced[id] = true
	return nil
}

func (m *mockCache) cached(id uuid.UUID) (domain.Order, bool) {
	m.m.RLock()
	defer m.m.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, false
	}
	return *o, true
}

func (m *mockCache) has(id uuid.UUID) bool {
	m.m.RLock()
	defer m.m.RUnlock()
	_, ok := m.orders[id]
	return ok
}

type mockPublisher struct {
	m      sync.Mutex
	events []publisher.OrderEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, events ...publisher.OrderEvent) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, events...)
	return nil
}

func (m *mockPublisher) ofType(t publisher.EventType) []publisher.OrderEvent {
	m.m.Lock()
	defer m.m.Unlock()
	var out []publisher.OrderEvent
	for _, e := range m.events {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

type mockSweepRecorder struct {
	m         sync.Mutex
	completed []int64
	failed    int
}

func (m *mockSweepRecorder) SweepCompleted(deleted int64) {
	m.m.Lock()
	defer m.m.Unlock()
	m.completed = append(m.completed, deleted)
}

func (m *mockSweepRecorder) SweepFailed() {
	m.m.Lock()
	defer m.m.Unlock()
	m.failed++
}
