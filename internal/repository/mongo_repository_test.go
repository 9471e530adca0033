package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Damiangorskii/web-order-service/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupMongoRepo(t *testing.T) (*MongoRepository, func()) {
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	repo := NewMongoRepository(db)
	require.NoError(t, repo.CreateIndexes(ctx))

	cleanup := func() {
		_ = repo.Close()
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func TestMongo_GetOrder_NotFound(t *testing.T) {
	repo, cleanup := setupMongoRepo(t)
	defer cleanup()

	order, err := repo.GetOrderByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Nil(t, order)
}

func TestMongo_SaveAndGet(t *testing.T) {
	repo, cleanup := setupMongoRepo(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder(time.Now().UTC())

	saved, err := repo.SaveOrder(ctx, order)
	require.NoError(t, err)

	fetched, err := repo.GetOrderByID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, saved, fetched)
	assert.True(t, fetched.Products[0].Price.Equal(order.Products[0].Price))
	assert.Equal(t, order.Products[0].Categories, fetched.Products[0].Categories)
	assert.Equal(t, order.CustomerInfo, fetched.CustomerInfo)
	assert.WithinDuration(t, order.CreatedAt, fetched.CreatedAt, time.Millisecond)
}

func TestMongo_SaveOrder_Replaces(t *testing.T) {
	repo, cleanup := setupMongoRepo(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder(time.Now().UTC())
	_, err := repo.SaveOrder(ctx, order)
	require.NoError(t, err)

	order.IsPaid = true
	_, err = repo.SaveOrder(ctx, order)
	require.NoError(t, err)

	fetched, err := repo.GetOrderByID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.True(t, fetched.IsPaid)
}

func TestMongo_DeleteOrder(t *testing.T) {
	repo, cleanup := setupMongoRepo(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder(time.Now().UTC())
	_, err := repo.SaveOrder(ctx, order)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteOrder(ctx, order.OrderID))

	_, err = repo.GetOrderByID(ctx, order.OrderID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	assert.ErrorIs(t, repo.DeleteOrder(ctx, order.OrderID), ErrOrderNotFound)
}

func TestMongo_SaveOrders(t *testing.T) {
	repo, cleanup := setupMongoRepo(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC()
	first, second := newTestOrder(now), newTestOrder(now)

	saved, err := repo.SaveOrders(ctx, []*domain.Order{first, second})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, first.OrderID, saved[0].OrderID)
	assert.Equal(t, second.OrderID, saved[1].OrderID)

	for _, o := range saved {
		_, err := repo.GetOrderByID(ctx, o.OrderID)
		assert.NoError(t, err)
	}

	empty, err := repo.SaveOrders(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMongo_DeleteOrdersCreatedBefore(t *testing.T) {
	repo, cleanup := setupMongoRepo(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC()
	stale := newTestOrder(now.Add(-25 * time.Hour))
	fresh := newTestOrder(now.Add(-time.Hour))
	_, err := repo.SaveOrders(ctx, []*domain.Order{stale, fresh})
	require.NoError(t, err)

	deleted, err := repo.DeleteOrdersCreatedBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetOrderByID(ctx, stale.OrderID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	_, err = repo.GetOrderByID(ctx, fresh.OrderID)
	assert.NoError(t, err)

	deleted, err = repo.DeleteOrdersCreatedBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
