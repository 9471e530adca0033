package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Damiangorskii/web-order-service/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// jitter is 0 to maxJitterMinutes-1 whole minutes
const maxJitterMinutes = 5

// KEYS[1] entry, KEYS[2] fence; ARGV[1] value, ARGV[2] ttl in ms
var setUnlessFenced = redis.NewScript(`
if redis.call("EXISTS", KEYS[2]) == 1 then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 1
`)

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	data, err := r.client.Get(ctx, cacheKey(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var order domain.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("unmarshal order failed: %w", err)
	}

	return &order, nil
}

func (r *RedisCache) Set(ctx context.Context, order *domain.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order failed: %w", err)
	}

	// spread expiry so entries written together do not expire together
	jitter := time.Duration(rand.IntN(maxJitterMinutes)) * time.Minute
	ttl := r.baseTTL + jitter
	keys := []string{cacheKey(order.OrderID), fenceKey(order.OrderID)}
	if err := setUnlessFenced.Run(ctx, r.client, keys, data, ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete drops the entry and fences the key for FenceTTL.
func (r *RedisCache) Delete(ctx context.Context, orderID uuid.UUID) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, cacheKey(orderID))
		pipe.Set(ctx, fenceKey(orderID), 1, FenceTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(orderID uuid.UUID) string {
	return fmt.Sprintf("order:%s", orderID)
}

func fenceKey(orderID uuid.UUID) string {
	return fmt.Sprintf("order:%s:fence", orderID)
}
