package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return Wrap(rdb), mr
}

func TestSealedPriceCache(t *testing.T) {
	c, _ := newTestClient(t)
	cache := NewSealedPriceCache(c)
	ctx := context.Background()

	_, _, err := cache.GetPrice(ctx, "obsidian flames booster box")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ts := time.Date(2026, 2, 3, 4, 5, 6, 7, time.UTC)
	require.NoError(t, cache.SetPrice(ctx, "obsidian flames booster box", 119.99, ts))

	price, got, err := cache.GetPrice(ctx, "obsidian flames booster box")
	require.NoError(t, err)
	assert.Equal(t, 119.99, price)
	assert.True(t, ts.Equal(got))
}

func TestCardCache(t *testing.T) {
	c, mr := newTestClient(t)
	cache := NewCardCache(c, time.Hour)
	ctx := context.Background()

	_, err := cache.GetCards(ctx, "sv3")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cards := []domain.Card{
		{ID: "sv3-6", Name: "Charizard ex", SetID: "sv3", Number: "6", Rarity: "Double Rare", Price: 45, Tier: "holofoil"},
	}
	require.NoError(t, cache.SetCards(ctx, "sv3", cards))

	got, err := cache.GetCards(ctx, "sv3")
	require.NoError(t, err)
	assert.Equal(t, cards, got)

	mr.FastForward(2 * time.Hour)
	_, err = cache.GetCards(ctx, "sv3")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTrendingCache(t *testing.T) {
	c, _ := newTestClient(t)
	cache := NewTrendingCache(c, 7*24*time.Hour)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	put := func(setID string, age time.Duration, roi float64) {
		require.NoError(t, cache.Put(ctx, domain.TrendingEntry{
			SetID:      setID,
			SetName:    setID + " name",
			ROIPercent: roi,
			Category:   domain.ActionOpen,
			Timestamp:  now.Add(-age),
		}))
	}
	put("sv1", 8*24*time.Hour, 1)
	put("sv2", 2*time.Hour, 2)
	put("sv3", time.Hour, 3)
	put("sv2", 30*time.Minute, 4)

	entries, err := cache.List(ctx, 20)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "sv2", entries[0].SetID)
	assert.Equal(t, 4.0, entries[0].ROIPercent)
	assert.Equal(t, "sv3", entries[1].SetID)

	entries, err = cache.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRateLimiter(t *testing.T) {
	c, _ := newTestClient(t)
	rl := NewRateLimiter(c)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, "client-a", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, err := rl.Allow(ctx, "client-a", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = rl.Allow(ctx, "client-b", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	rl.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	ok, err = rl.Allow(ctx, "client-a", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockManager(t *testing.T) {
	c, _ := newTestClient(t)
	lm := NewLockManager(c)
	ctx := context.Background()

	unlock, err := lm.Acquire(ctx, "refresh:sv3", time.Minute)
	require.NoError(t, err)

	_, err = lm.Acquire(ctx, "refresh:sv3", time.Minute)
	assert.ErrorIs(t, err, domain.ErrLockHeld)

	unlock()
	unlock()

	unlock2, err := lm.Acquire(ctx, "refresh:sv3", time.Minute)
	require.NoError(t, err)
	unlock2()
}

func TestSignalBus(t *testing.T) {
	c, _ := newTestClient(t)
	bus := NewSignalBus(c)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, domain.ChannelAnalyses)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, domain.ChannelAnalyses, []byte(`{"analysis_id":"sv3_1"}`)))

	select {
	case msg := <-ch:
		assert.JSONEq(t, `{"analysis_id":"sv3_1"}`, string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-ch
		return !open
	}, 2*time.Second, 10*time.Millisecond)
}
