package valuation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/sealedev/internal/domain"
	"github.com/alanyoungcy/sealedev/internal/strategy"
)

func scenarioRecommendation(t *testing.T, price float64) domain.Recommendation {
	t.Helper()
	ev := NewEstimator(nil).Estimate([]domain.Card{
		{Name: "Charizard ex", Number: "6", Rarity: "Double Rare", Price: 45, ImageURL: "https://img/6.png"},
		{Name: "Pidgey", Number: "16", Rarity: "Common", Price: 0.30},
	}, 36, 0.40)
	ev.APISource = "pokemontcg.io"

	r := NewRecommender(DefaultAssumption())
	return r.Recommend(ev, Subject{
		ProductName:       "Obsidian Flames Booster Box",
		SetID:             "sv3",
		SetName:           "Obsidian Flames",
		Product:           domain.SealedProduct{Name: "Obsidian Flames Booster Box", Price: price, MSRP: 160, PackCount: 36},
		PacksPerBox:       36,
		MinCardValue:      0.40,
		SourceAvailable:   true,
		Sources:           []string{"pokemontcg.io"},
		SealedPriceSource: "request",
	}, strategy.NewRules(), time.Unix(1700000000, 0))
}

func TestRecommend_Open(t *testing.T) {
	rec := scenarioRecommendation(t, 100)

	assert.Equal(t, "sv3_1700000000", rec.AnalysisID)
	assert.Equal(t, domain.ActionOpen, rec.Category)
	assert.Equal(t, strategy.LabelOpen, rec.Label)
	assert.Equal(t, strategy.NameRules, rec.Strategy)
	assert.InDelta(t, 268.92, rec.Pricing.ExpectedValueOpen, 1e-9)
	assert.InDelta(t, 168.92, rec.ROI.Open.Amount, 1e-9)
	assert.InDelta(t, 115, rec.Pricing.Projected6MoSealed, 1e-9, "discounted product appreciates 15%")
	assert.Equal(t, 65, rec.ConfidenceScore)
	assert.Equal(t, 36, rec.Assumptions.PacksPerBox)
	assert.Equal(t, "6 months", rec.Assumptions.HoldPeriod)
	assert.Equal(t, time.UTC, rec.Timestamp.Location())
}

func TestRecommend_HoldBelowEV(t *testing.T) {
	// EV 268.92 against a price far above it, but the hold rule fires first
	// because holding beats opening and EV is under cost.
	rec := scenarioRecommendation(t, 400)
	assert.Equal(t, domain.ActionHold, rec.Category)
	assert.Equal(t, strategy.LabelHoldBelowEV, rec.Label)
}

func TestRecommend_RoundTrip(t *testing.T) {
	rec := scenarioRecommendation(t, 150)

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded domain.Recommendation
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rec, decoded)
}

func TestRecommend_ResponseShape(t *testing.T) {
	data, err := json.Marshal(Present(scenarioRecommendation(t, 150)))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))

	for _, key := range []string{"product_name", "set_name", "set_id", "timestamp", "pricing", "roi", "recommendation", "confidence_score", "ev_breakdown", "assumptions", "api_sources"} {
		assert.Contains(t, m, key)
	}
	roi := m["roi"].(map[string]any)
	for _, key := range []string{"open", "hold_6mo", "resell_now"} {
		entry := roi[key].(map[string]any)
		assert.Contains(t, entry, "amount")
		assert.Contains(t, entry, "percent")
	}
	ev := m["ev_breakdown"].(map[string]any)
	for _, key := range []string{"ev_total", "top_cards", "rarity_breakdown", "total_cards_analyzed", "valuable_cards_count"} {
		assert.Contains(t, ev, key)
	}
	pricing := m["pricing"].(map[string]any)
	for _, key := range []string{"sealed_box_cost", "market_value_sealed", "expected_value_open", "projected_6mo_sealed"} {
		assert.Contains(t, pricing, key)
	}
}
