package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

// sealedPriceTTL bounds how long an observation is kept at all. Freshness
// for pricing is decided by the caller.
const sealedPriceTTL = 30 * 24 * time.Hour

// SealedPriceCache implements domain.SealedPriceCache using Redis hashes at
// "sealed:{product}" with fields "price" and "ts" (Unix nanoseconds).
type SealedPriceCache struct {
	rdb *redis.Client
}

// NewSealedPriceCache creates a SealedPriceCache backed by the given Client.
func NewSealedPriceCache(c *Client) *SealedPriceCache {
	return &SealedPriceCache{rdb: c.Underlying()}
}

func sealedPriceKey(product string) string {
	return "sealed:" + product
}

// SetPrice records an observed sealed price.
func (sc *SealedPriceCache) SetPrice(ctx context.Context, product string, price float64, ts time.Time) error {
	key := sealedPriceKey(product)
	pipe := sc.rdb.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"price": strconv.FormatFloat(price, 'f', -1, 64),
		"ts":    strconv.FormatInt(ts.UnixNano(), 10),
	})
	pipe.Expire(ctx, key, sealedPriceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set sealed price %s: %w", product, err)
	}
	return nil
}

// GetPrice returns the last observed price of product and when it was seen.
// It returns domain.ErrNotFound when nothing was recorded.
func (sc *SealedPriceCache) GetPrice(ctx context.Context, product string) (float64, time.Time, error) {
	vals, err := sc.rdb.HGetAll(ctx, sealedPriceKey(product)).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: get sealed price %s: %w", product, err)
	}
	priceStr, ok := vals["price"]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	tsStr, ok := vals["ts"]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}

	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse sealed price %s: %w", product, err)
	}
	tsNano, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse sealed price ts %s: %w", product, err)
	}
	return price, time.Unix(0, tsNano), nil
}

// Compile-time interface check.
var _ domain.SealedPriceCache = (*SealedPriceCache)(nil)
