package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

// DefaultCardTTL is how long a set's last good card list is kept.
const DefaultCardTTL = 24 * time.Hour

// CardCache implements domain.CardCache. Each set's cards are stored as one
// JSON string at "cards:{setID}".
type CardCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCardCache creates a CardCache. A non-positive ttl uses DefaultCardTTL.
func NewCardCache(c *Client, ttl time.Duration) *CardCache {
	if ttl <= 0 {
		ttl = DefaultCardTTL
	}
	return &CardCache{rdb: c.Underlying(), ttl: ttl}
}

func cardsKey(setID string) string { return "cards:" + setID }

// SetCards replaces the cached card list of a set.
func (cc *CardCache) SetCards(ctx context.Context, setID string, cards []domain.Card) error {
	data, err := json.Marshal(cards)
	if err != nil {
		return fmt.Errorf("redis: marshal cards %s: %w", setID, err)
	}
	if err := cc.rdb.Set(ctx, cardsKey(setID), data, cc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set cards %s: %w", setID, err)
	}
	return nil
}

// GetCards returns the cached card list of a set, or domain.ErrNotFound.
func (cc *CardCache) GetCards(ctx context.Context, setID string) ([]domain.Card, error) {
	data, err := cc.rdb.Get(ctx, cardsKey(setID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get cards %s: %w", setID, err)
	}

	var cards []domain.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("redis: unmarshal cards %s: %w", setID, err)
	}
	return cards, nil
}

// Compile-time interface check.
var _ domain.CardCache = (*CardCache)(nil)
