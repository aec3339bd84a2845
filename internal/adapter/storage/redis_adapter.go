package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tejasmadane2310/billing-ledger/internal/core/domain"
)

const (
	productKeyPrefix = "product:"
	snapshotTTL      = 5 * time.Minute
)

// Decrements the cached stock only when the product is cached; a missing key
// stays missing rather than materializing a bogus snapshot.
var decrementCachedStockScript = redis.NewScript(`
local key = KEYS[1]
local quantity = tonumber(ARGV[1])

if redis.call('EXISTS', key) == 0 then
	return 0
end

redis.call('HINCRBY', key, 'stock', -quantity)
return 1
`)

// RedisAdapter caches product snapshots for the advisory cart-building check.
// MySQL stays authoritative; entries expire so a divergent cache self-heals.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) GetSnapshot(ctx context.Context, productID string) (*domain.ProductSnapshot, error) {
	fields, err := r.client.HGetAll(ctx, productKeyPrefix+productID).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	price, err := domain.ParseMoney(fields["price"])
	if err != nil {
		return nil, fmt.Errorf("cached price: %w", err)
	}
	stock, err := strconv.Atoi(fields["stock"])
	if err != nil {
		return nil, fmt.Errorf("cached stock: %w", err)
	}

	return &domain.ProductSnapshot{
		ProductID: productID,
		Name:      fields["name"],
		Price:     price,
		Stock:     stock,
	}, nil
}

func (r *RedisAdapter) SetSnapshot(ctx context.Context, snapshot domain.ProductSnapshot) error {
	key := productKeyPrefix + snapshot.ProductID

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"name":  snapshot.Name,
		"price": snapshot.Price.String(),
		"stock": snapshot.Stock,
	})
	pipe.Expire(ctx, key, snapshotTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisAdapter) DecrementStock(ctx context.Context, productID string, quantity int) error {
	key := productKeyPrefix + productID
	return decrementCachedStockScript.Run(ctx, r.client, []string{key}, quantity).Err()
}

func (r *RedisAdapter) InvalidateProduct(ctx context.Context, productID string) error {
	return r.client.Del(ctx, productKeyPrefix+productID).Err()
}
