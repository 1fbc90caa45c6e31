package domain

import (
	"context"
	"time"
)

// ChannelAnalyses is the pub/sub channel every finished analysis is
// published on.
const ChannelAnalyses = "ch:analysis"

// TrendingCache holds the latest analysis per set with a short TTL.
type TrendingCache interface {
	Put(ctx context.Context, entry TrendingEntry) error
	List(ctx context.Context, limit int) ([]TrendingEntry, error)
}

// SealedPriceCache remembers observed sealed prices per product name.
type SealedPriceCache interface {
	SetPrice(ctx context.Context, product string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, product string) (float64, time.Time, error)
}

// CardCache keeps the last good card list per set so a failing price source
// can fall back to it.
type CardCache interface {
	SetCards(ctx context.Context, setID string, cards []Card) error
	GetCards(ctx context.Context, setID string) ([]Card, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub between processes.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
