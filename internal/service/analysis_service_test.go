package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/sealedev/internal/domain"
	"github.com/alanyoungcy/sealedev/internal/strategy"
	"github.com/alanyoungcy/sealedev/internal/valuation"
)

type analysisFixture struct {
	svc      *AnalysisService
	store    *memStore
	trending *memTrending
	bus      *memBus
	alerter  *fakeAlerter
	prices   *memPriceCache
}

func scenarioCards() []domain.Card {
	return []domain.Card{
		{Name: "Charizard ex", SetID: "sv3", Number: "6", Rarity: "Double Rare", Price: 45},
		{Name: "Pidgey", SetID: "sv3", Number: "16", Rarity: "Common", Price: 0.30},
	}
}

func newAnalysisFixture(t *testing.T, cardErr error) *analysisFixture {
	t.Helper()
	logger := discardLogger()
	catalog := newTestCatalog(t, &fakeSetClient{sets: testSets()})
	cards := &fakeCardClient{cards: map[string][]domain.Card{"sv3": scenarioCards()}, err: cardErr}

	f := &analysisFixture{
		store:    &memStore{},
		trending: newMemTrending(),
		bus:      &memBus{},
		alerter:  &fakeAlerter{},
		prices:   newMemPriceCache(),
	}
	f.svc = NewAnalysisService(AnalysisDeps{
		Catalog:     catalog,
		Prices:      NewPriceSource(cards, nil, "pokemontcg.io", time.Second, logger),
		Pricer:      NewSealedPricer(f.prices, time.Hour, logger),
		Estimator:   valuation.NewEstimator(nil),
		Recommender: valuation.NewRecommender(valuation.DefaultAssumption()),
		Store:       f.store,
		Trending:    f.trending,
		Bus:         f.bus,
		Alerter:     f.alerter,
	}, AnalysisConfig{AlertMinConfidence: 60}, logger)
	f.svc.now = func() time.Time { return time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC) }
	return f
}

func price(v float64) *float64 { return &v }

func TestAnalyze_Open(t *testing.T) {
	f := newAnalysisFixture(t, nil)

	rec, err := f.svc.Analyze(context.Background(), AnalyzeRequest{
		ProductName: "Obsidian Flames Booster Box",
		SealedPrice: price(200),
	})
	require.NoError(t, err)

	assert.Equal(t, "sv3", rec.SetID)
	assert.Equal(t, "Obsidian Flames", rec.SetName)
	assert.Equal(t, domain.ActionOpen, rec.Category)
	assert.Equal(t, strategy.NameRules, rec.Strategy)
	assert.Equal(t, 268.92, rec.EVBreakdown.EVTotal)
	assert.Equal(t, 68.92, rec.ROI.Open.Amount)
	assert.Equal(t, 34.46, rec.ROI.Open.Percent)
	assert.Equal(t, 65, rec.ConfidenceScore)
	assert.Equal(t, 36, rec.Assumptions.PacksPerBox)
	assert.Equal(t, SealedPriceFromRequest, rec.Assumptions.SealedPriceSource)
	assert.Equal(t, "pokemontcg.io", rec.EVBreakdown.APISource)
	assert.Equal(t, []string{"pokemontcg.io"}, rec.APISources)
	assert.Equal(t, "sv3_1775035800", rec.AnalysisID)

	require.Len(t, f.store.recs, 1)
	assert.Equal(t, rec, f.store.recs[0])

	entries, err := f.trending.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 34.46, entries[0].ROIPercent)

	require.Len(t, f.bus.published[domain.ChannelAnalyses], 1)
	var published domain.Recommendation
	require.NoError(t, json.Unmarshal(f.bus.published[domain.ChannelAnalyses][0], &published))
	assert.Equal(t, rec.AnalysisID, published.AnalysisID)

	require.Len(t, f.alerter.alerts, 1)
	assert.Equal(t, EventOpenSignal, f.alerter.alerts[0].event)

	cached, _, err := f.prices.GetPrice(context.Background(), "obsidian flames booster box")
	require.NoError(t, err)
	assert.Equal(t, 200.0, cached)
}

func TestAnalyze_HoldNoAlert(t *testing.T) {
	f := newAnalysisFixture(t, nil)

	rec, err := f.svc.Analyze(context.Background(), AnalyzeRequest{
		SetID:       "sv3",
		SealedPrice: price(300),
	})
	require.NoError(t, err)

	assert.Equal(t, "Obsidian Flames Booster Box", rec.ProductName)
	assert.Equal(t, domain.ActionHold, rec.Category)
	assert.Equal(t, strategy.LabelHoldBelowEV, rec.Label)
	assert.Empty(t, f.alerter.alerts)
}

func TestAnalyze_EstimatedPriceAndPacks(t *testing.T) {
	f := newAnalysisFixture(t, nil)

	rec, err := f.svc.Analyze(context.Background(), AnalyzeRequest{
		ProductName: "Obsidian Flames Elite Trainer Box",
	})
	require.NoError(t, err)

	assert.Equal(t, 9, rec.Assumptions.PacksPerBox)
	assert.Equal(t, 50.0, rec.Pricing.SealedBoxCost)
	assert.Equal(t, 50.0, rec.Pricing.MSRP)
	assert.Equal(t, SealedPriceFromEstimate, rec.Assumptions.SealedPriceSource)
	assert.InDelta(t, 45*0.166*9, rec.EVBreakdown.EVTotal, 0.005)
}

func TestAnalyze_SourceDown(t *testing.T) {
	f := newAnalysisFixture(t, errors.New("connection refused"))

	rec, err := f.svc.Analyze(context.Background(), AnalyzeRequest{SetName: "Obsidian Flames", SealedPrice: price(120)})
	require.NoError(t, err)

	assert.Zero(t, rec.EVBreakdown.EVTotal)
	assert.Empty(t, rec.EVBreakdown.TopCards)
	assert.Equal(t, SourceUnavailable, rec.EVBreakdown.APISource)
	assert.Equal(t, 50, rec.ConfidenceScore)
	assert.NotEqual(t, domain.ActionOpen, rec.Category)
}

func TestAnalyze_CachedCardsLoseSourceBonus(t *testing.T) {
	f := newAnalysisFixture(t, nil)
	cache := newMemCardCache()
	require.NoError(t, cache.SetCards(context.Background(), "sv3", scenarioCards()))
	f.svc.prices = NewPriceSource(&fakeCardClient{err: errors.New("connection refused")}, cache, "pokemontcg.io", time.Second, discardLogger())

	rec, err := f.svc.Analyze(context.Background(), AnalyzeRequest{SetName: "Obsidian Flames", SealedPrice: price(200)})
	require.NoError(t, err)

	assert.Equal(t, 268.92, rec.EVBreakdown.EVTotal)
	assert.Equal(t, "pokemontcg.io (cached)", rec.EVBreakdown.APISource)
	assert.Equal(t, 50, rec.ConfidenceScore)
}

func TestAnalyze_SetLookupSourceDown(t *testing.T) {
	f := newAnalysisFixture(t, nil)
	f.svc.catalog = newTestCatalog(t, &fakeSetClient{err: domain.ErrSourceUnavailable})
	ctx := context.Background()

	for _, req := range []AnalyzeRequest{
		{SetName: "Obsidian Flames"},
		{SetID: "sv3"},
	} {
		_, err := f.svc.Analyze(ctx, req)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NotErrorIs(t, err, domain.ErrSourceUnavailable)
	}
	assert.Empty(t, f.store.recs)
}

func TestAnalyze_Errors(t *testing.T) {
	f := newAnalysisFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Analyze(ctx, AnalyzeRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "product_name or set_name required")

	_, err = f.svc.Analyze(ctx, AnalyzeRequest{SetID: "sv3", SealedPrice: price(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Analyze(ctx, AnalyzeRequest{SetID: "sv3", Strategy: "yolo"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Analyze(ctx, AnalyzeRequest{SetName: "qqqq"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Empty(t, f.store.recs)
}

func TestAnalyze_StoreFailureSwallowed(t *testing.T) {
	f := newAnalysisFixture(t, nil)
	f.store.err = errors.New("db down")

	rec, err := f.svc.Analyze(context.Background(), AnalyzeRequest{SetID: "sv3", SealedPrice: price(200)})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionOpen, rec.Category)
}

func TestGetAnalysis(t *testing.T) {
	f := newAnalysisFixture(t, nil)
	ctx := context.Background()

	first, err := f.svc.Analyze(ctx, AnalyzeRequest{SetID: "sv3", SealedPrice: price(200)})
	require.NoError(t, err)
	f.svc.now = func() time.Time { return time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC) }
	second, err := f.svc.Analyze(ctx, AnalyzeRequest{SetID: "sv3", SealedPrice: price(300)})
	require.NoError(t, err)

	got, err := f.svc.GetAnalysis(ctx, first.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, first.AnalysisID, got.AnalysisID)

	got, err = f.svc.GetAnalysis(ctx, "sv3")
	require.NoError(t, err)
	assert.Equal(t, second.AnalysisID, got.AnalysisID)

	_, err = f.svc.GetAnalysis(ctx, "sv9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistory(t *testing.T) {
	f := newAnalysisFixture(t, nil)
	ctx := context.Background()

	first, err := f.svc.Analyze(ctx, AnalyzeRequest{SetID: "sv3", SealedPrice: price(200)})
	require.NoError(t, err)
	f.svc.now = func() time.Time { return time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC) }
	second, err := f.svc.Analyze(ctx, AnalyzeRequest{SetID: "sv3", SealedPrice: price(300)})
	require.NoError(t, err)

	recs, err := f.svc.History(ctx, "sv3", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, second.AnalysisID, recs[0].AnalysisID)
	assert.Equal(t, first.AnalysisID, recs[1].AnalysisID)

	recs, err = f.svc.History(ctx, first.AnalysisID, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, second.AnalysisID, recs[0].AnalysisID)

	_, err = f.svc.History(ctx, "sv9", 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTrending_FallsBackToStore(t *testing.T) {
	f := newAnalysisFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Analyze(ctx, AnalyzeRequest{SetID: "sv3", SealedPrice: price(200)})
	require.NoError(t, err)
	f.svc.now = func() time.Time { return time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC) }
	_, err = f.svc.Analyze(ctx, AnalyzeRequest{SetID: "sv3", SealedPrice: price(300)})
	require.NoError(t, err)

	f.trending.err = errors.New("redis down")
	entries, err := f.svc.Trending(ctx, 50)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionHold, entries[0].Category)
}

func TestStrategies(t *testing.T) {
	f := newAnalysisFixture(t, nil)
	assert.Equal(t, []string{strategy.NameMaxROI, strategy.NameRules}, f.svc.Strategies())
}
