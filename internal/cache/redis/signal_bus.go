package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

const busBuffer = 128

// SignalBus fans analysis events out over Redis Pub/Sub. Nothing is
// persisted, so a listener only sees events published while it is attached.
type SignalBus struct {
	rdb *redis.Client
}

// NewSignalBus creates a SignalBus.
func NewSignalBus(c *Client) *SignalBus {
	return &SignalBus{rdb: c.Underlying()}
}

func (sb *SignalBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := sb.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe attaches to channel, treating glob characters as a pattern
// subscription. The returned channel closes once ctx ends.
func (sb *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	sub := sb.rdb.Subscribe
	if strings.ContainsAny(channel, "*?[") {
		sub = sb.rdb.PSubscribe
	}
	ps := sub(ctx, channel)

	// Wait for the confirmation so publishes right after return are seen.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, busBuffer)
	go relay(ctx, ps, out)
	return out, nil
}

func relay(ctx context.Context, ps *redis.PubSub, out chan<- []byte) {
	defer close(out)
	defer ps.Close()

	in := ps.Channel()
	for {
		var msg *redis.Message
		select {
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			msg = m
		}
		select {
		case out <- []byte(msg.Payload):
		case <-ctx.Done():
			return
		}
	}
}

var _ domain.SignalBus = (*SignalBus)(nil)
