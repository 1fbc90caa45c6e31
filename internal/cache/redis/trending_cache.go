package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

// DefaultTrendingTTL is how long a set stays on the trending list after its
// last analysis.
const DefaultTrendingTTL = 7 * 24 * time.Hour

const trendingIndexKey = "trending"

// TrendingCache implements domain.TrendingCache.
//
// Key schema:
//
//	trending          - sorted set of set ids scored by analysis time (unix seconds)
//	trending:{setID}  - JSON TrendingEntry with a TTL
type TrendingCache struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewTrendingCache creates a TrendingCache. A non-positive ttl uses
// DefaultTrendingTTL.
func NewTrendingCache(c *Client, ttl time.Duration) *TrendingCache {
	if ttl <= 0 {
		ttl = DefaultTrendingTTL
	}
	return &TrendingCache{rdb: c.Underlying(), ttl: ttl, now: time.Now}
}

func trendingKey(setID string) string { return "trending:" + setID }

// Put records entry as the latest analysis of its set.
func (tc *TrendingCache) Put(ctx context.Context, entry domain.TrendingEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis: marshal trending %s: %w", entry.SetID, err)
	}

	pipe := tc.rdb.TxPipeline()
	pipe.Set(ctx, trendingKey(entry.SetID), data, tc.ttl)
	pipe.ZAdd(ctx, trendingIndexKey, redis.Z{
		Score:  float64(entry.Timestamp.Unix()),
		Member: entry.SetID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: put trending %s: %w", entry.SetID, err)
	}
	return nil
}

// List returns up to limit entries, most recent first. Entries older than
// the TTL are pruned from the index.
func (tc *TrendingCache) List(ctx context.Context, limit int) ([]domain.TrendingEntry, error) {
	if limit <= 0 {
		return []domain.TrendingEntry{}, nil
	}
	cutoff := tc.now().Add(-tc.ttl).Unix()
	if err := tc.rdb.ZRemRangeByScore(ctx, trendingIndexKey, "-inf", "("+strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return nil, fmt.Errorf("redis: prune trending: %w", err)
	}

	ids, err := tc.rdb.ZRevRange(ctx, trendingIndexKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list trending: %w", err)
	}
	if len(ids) == 0 {
		return []domain.TrendingEntry{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = trendingKey(id)
	}
	vals, err := tc.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get trending entries: %w", err)
	}

	out := make([]domain.TrendingEntry, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			// Entry expired; drop the dangling index member.
			tc.rdb.ZRem(ctx, trendingIndexKey, ids[i])
			continue
		}
		var e domain.TrendingEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.TrendingCache = (*TrendingCache)(nil)
