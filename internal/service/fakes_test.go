package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSetClient struct {
	mu       sync.Mutex
	sets     []domain.CardSet
	err      error
	listHits int
}

func (f *fakeSetClient) GetSets(context.Context) ([]domain.CardSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listHits++
	if f.err != nil {
		return nil, f.err
	}
	return f.sets, nil
}

func (f *fakeSetClient) SearchSets(_ context.Context, name string) ([]domain.CardSet, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.CardSet
	for _, s := range f.sets {
		if strings.EqualFold(s.Name, name) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSetClient) GetSet(_ context.Context, id string) (domain.CardSet, error) {
	if f.err != nil {
		return domain.CardSet{}, f.err
	}
	for _, s := range f.sets {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.CardSet{}, domain.ErrNotFound
}

type fakeCardClient struct {
	cards map[string][]domain.Card
	err   error
}

func (f *fakeCardClient) FetchSetCards(_ context.Context, setID string) ([]domain.Card, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cards[setID], nil
}

type memCardCache struct {
	mu    sync.Mutex
	cards map[string][]domain.Card
}

func newMemCardCache() *memCardCache {
	return &memCardCache{cards: map[string][]domain.Card{}}
}

func (m *memCardCache) SetCards(_ context.Context, setID string, cards []domain.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[setID] = cards
	return nil
}

func (m *memCardCache) GetCards(_ context.Context, setID string) ([]domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[setID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

type priceObs struct {
	price float64
	ts    time.Time
}

type memPriceCache struct {
	mu     sync.Mutex
	prices map[string]priceObs
}

func newMemPriceCache() *memPriceCache {
	return &memPriceCache{prices: map[string]priceObs{}}
}

func (m *memPriceCache) SetPrice(_ context.Context, product string, price float64, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[product] = priceObs{price: price, ts: ts}
	return nil
}

func (m *memPriceCache) GetPrice(_ context.Context, product string) (float64, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.prices[product]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	return o.price, o.ts, nil
}

type memStore struct {
	mu   sync.Mutex
	recs []domain.Recommendation
	err  error
}

func (m *memStore) Insert(_ context.Context, rec domain.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (domain.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.recs {
		if r.AnalysisID == id {
			return r, nil
		}
	}
	return domain.Recommendation{}, domain.ErrNotFound
}

func (m *memStore) LatestBySet(_ context.Context, setID string) (domain.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best domain.Recommendation
	found := false
	for _, r := range m.recs {
		if r.SetID == setID && (!found || r.Timestamp.After(best.Timestamp)) {
			best, found = r, true
		}
	}
	if !found {
		return domain.Recommendation{}, domain.ErrNotFound
	}
	return best, nil
}

func (m *memStore) ListBySet(_ context.Context, setID string, opts domain.ListOpts) ([]domain.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Recommendation
	for _, r := range m.recs {
		if r.SetID == setID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memStore) ListRecent(_ context.Context, opts domain.ListOpts) ([]domain.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]domain.Recommendation(nil), m.recs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memStore) ListBefore(_ context.Context, before time.Time) ([]domain.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Recommendation
	for _, r := range m.recs {
		if r.Timestamp.Before(before) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.recs[:0]
	var n int64
	for _, r := range m.recs {
		if r.Timestamp.Before(before) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.recs = kept
	return n, nil
}

type memTrending struct {
	mu      sync.Mutex
	entries map[string]domain.TrendingEntry
	err     error
}

func newMemTrending() *memTrending {
	return &memTrending{entries: map[string]domain.TrendingEntry{}}
}

func (m *memTrending) Put(_ context.Context, e domain.TrendingEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.SetID] = e
	return nil
}

func (m *memTrending) List(_ context.Context, limit int) ([]domain.TrendingEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.TrendingEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memBus struct {
	mu        sync.Mutex
	published map[string][][]byte
}

func (b *memBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.published == nil {
		b.published = map[string][][]byte{}
	}
	b.published[channel] = append(b.published[channel], payload)
	return nil
}

func (b *memBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return make(chan []byte), nil
}

type alert struct {
	event, title, message string
}

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []alert
}

func (f *fakeAlerter) Notify(_ context.Context, event, title, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert{event, title, message})
	return nil
}
