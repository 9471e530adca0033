package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Damiangorskii/web-order-service/internal/domain"
	"github.com/google/uuid"
)

var ErrOrderNotFound = errors.New("order not found")

// connection pool limits for both stores
const (
	maxOpenConns = 100
	minIdleConns = 10
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// OrderRepository is the order store. Implementations own identifier
// uniqueness and their own concurrency control; concurrent saves of the same
// order are last-write-wins.
type OrderRepository interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// SaveOrder inserts or replaces the order and returns the stored form.
	SaveOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	// DeleteOrder returns ErrOrderNotFound when nothing was deleted.
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	SaveOrders(ctx context.Context, orders []*domain.Order) ([]*domain.Order, error)
	DeleteOrdersCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}
