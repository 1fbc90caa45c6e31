package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

// releaseScript drops the key only while it still carries our token, so an
// expired lock re-taken by another refresher is left alone.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

const releaseTimeout = 5 * time.Second

// LockManager hands out TTL-bounded locks keyed under "lock:".
type LockManager struct {
	rdb *redis.Client
}

// NewLockManager creates a LockManager.
func NewLockManager(c *Client) *LockManager {
	return &LockManager{rdb: c.Underlying()}
}

// Acquire returns domain.ErrLockHeld if someone else owns key. The release
// func may be called any number of times.
func (lm *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	name := "lock:" + key
	token := uuid.NewString()

	won, err := lm.rdb.SetNX(ctx, name, token, ttl).Result()
	switch {
	case err != nil:
		return nil, fmt.Errorf("redis: lock %s: %w", key, err)
	case !won:
		return nil, fmt.Errorf("redis: lock %s: %w", key, domain.ErrLockHeld)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// ctx is often cancelled by the time the holder lets go.
			rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			_ = releaseScript.Run(rctx, lm.rdb, []string{name}, token).Err()
		})
	}, nil
}

var _ domain.LockManager = (*LockManager)(nil)
