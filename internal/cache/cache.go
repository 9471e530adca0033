package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Damiangorskii/web-order-service/internal/domain"
	"github.com/google/uuid"
)

// FenceTTL is how long Delete blocks refills of a key. It must outlast the
// longest store read plus cache write a reader can still have in flight.
const FenceTTL = 10 * time.Second

// OrderCache sits in front of the order store. Delete fences the key for
// FenceTTL and Set is dropped while the fence stands, so a fill computed
// from a read taken before an update or delete never overwrites it.
type OrderCache interface {
	Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	Set(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, orderID uuid.UUID) error
}

var ErrCacheMiss = errors.New("cache miss")

// NoopCache is used when no Redis address is configured. Every Get misses.
type NoopCache struct{}

func (NoopCache) Get(context.Context, uuid.UUID) (*domain.Order, error) {
	return nil, ErrCacheMiss
}

func (NoopCache) Set(context.Context, *domain.Order) error { return nil }

func (NoopCache) Delete(context.Context, uuid.UUID) error { return nil }
