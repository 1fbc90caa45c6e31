package valuation

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

func TestEstimate_Scenario(t *testing.T) {
	est := NewEstimator(nil)
	cards := []domain.Card{
		{Name: "Charizard ex", Number: "6", Rarity: "Double Rare", Price: 45},
		{Name: "Pidgey", Number: "16", Rarity: "Common", Price: 0.30},
	}

	ev := est.Estimate(cards, 36, 0.40)

	assert.InDelta(t, 268.92, ev.EVTotal, 1e-9)
	assert.Equal(t, 2, ev.TotalCardsAnalyzed)
	assert.Equal(t, 1, ev.ValuableCardsCount)
	require.Len(t, ev.TopCards, 1)
	assert.Equal(t, "Charizard ex", ev.TopCards[0].Name)
	assert.InDelta(t, 0.166, ev.TopCards[0].PullRate, 1e-12)
	assert.NotContains(t, ev.RarityBreakdown, "Common")
	assert.Equal(t, 1, ev.RarityBreakdown["Double Rare"].Count)
	assert.InDelta(t, 45, ev.RarityBreakdown["Double Rare"].TotalValue, 1e-12)
}

func TestEstimate_Empty(t *testing.T) {
	ev := NewEstimator(nil).Estimate(nil, 36, 0.40)

	assert.Zero(t, ev.EVTotal)
	assert.NotNil(t, ev.TopCards)
	assert.Empty(t, ev.TopCards)
	assert.Empty(t, ev.RarityBreakdown)
	assert.Zero(t, ev.TotalCardsAnalyzed)
	assert.Zero(t, ev.ValuableCardsCount)
}

func TestEstimate_MinValueBoundary(t *testing.T) {
	cards := []domain.Card{
		{Name: "At", Number: "1", Rarity: "Common", Price: 0.40},
		{Name: "Below", Number: "2", Rarity: "Common", Price: 0.39},
		{Name: "Unpriced", Number: "3", Rarity: "Rare"},
	}

	ev := NewEstimator(nil).Estimate(cards, 36, 0.40)

	assert.InDelta(t, 0.40*36, ev.EVTotal, 1e-9)
	assert.Equal(t, 3, ev.TotalCardsAnalyzed)
	assert.Equal(t, 1, ev.ValuableCardsCount)
	for _, c := range ev.TopCards {
		assert.NotEqual(t, "Below", c.Name)
		assert.NotEqual(t, "Unpriced", c.Name)
	}
}

func TestEstimate_TotalEqualsIncludedContributions(t *testing.T) {
	table := DefaultPullRateTable()
	rarities := []string{"Common", "Uncommon", "Rare", "Double Rare", "Ultra Rare", "Illustration Rare", "Special Illustration Rare", "Hyper Rare", "Mystery"}
	rng := rand.New(rand.NewSource(7))

	cards := make([]domain.Card, 0, 250)
	for i := range 250 {
		cards = append(cards, domain.Card{
			Name:   fmt.Sprintf("card-%d", i),
			Number: fmt.Sprint(i + 1),
			Rarity: rarities[rng.Intn(len(rarities))],
			Price:  rng.Float64() * 30,
		})
	}

	ev := NewEstimator(table).Estimate(cards, 36, 0.40)

	var want float64
	var included int
	for _, c := range cards {
		if c.Price >= 0.40 {
			want += c.Price * table.Rate(c.Rarity) * 36
			included++
		}
	}
	assert.InDelta(t, want, ev.EVTotal, 1e-6)
	assert.Equal(t, included, ev.ValuableCardsCount)
	assert.LessOrEqual(t, len(ev.TopCards), DefaultTopCards)

	var byRarity float64
	for _, s := range ev.RarityBreakdown {
		byRarity += s.EVContribution
	}
	assert.InDelta(t, ev.EVTotal, byRarity, 1e-6)
}

func TestEstimate_RetentionFilter(t *testing.T) {
	cards := []domain.Card{
		{Name: "Big Holo", Number: "1", Rarity: "Rare Holo", Price: 100},     // 597.6
		{Name: "Cheap Secret", Number: "2", Rarity: "Secret Rare", Price: 1}, // 1.008, under 5% of running EV
		{Name: "Gold Energy", Number: "3", Rarity: "Gold Rare", Price: 12},   // small share but price >= 10
	}

	ev := NewEstimator(nil).Estimate(cards, 36, 0.40)

	names := make([]string, 0, len(ev.TopCards))
	for _, c := range ev.TopCards {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Big Holo", "Gold Energy"}, names)
	assert.Equal(t, 3, ev.ValuableCardsCount, "filtered cards still count toward EV")
}

func TestEstimate_OrderIndependent(t *testing.T) {
	cards := []domain.Card{
		{Name: "A", Number: "10", Rarity: "Common", Price: 1},
		{Name: "B", Number: "2", Rarity: "Common", Price: 0.5},
		{Name: "C", Number: "TG03", Rarity: "Rare Holo", Price: 4},
		{Name: "D", Number: "101", Rarity: "Rare", Price: 0.6},
		{Name: "E", Number: "33", Rarity: "Uncommon", Price: 0.45},
	}
	est := NewEstimator(nil)
	want := est.Estimate(cards, 36, 0.40)

	rng := rand.New(rand.NewSource(1))
	for range 10 {
		shuffled := append([]domain.Card(nil), cards...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := est.Estimate(shuffled, 36, 0.40)
		assert.Equal(t, want.TopCards, got.TopCards)
		assert.InDelta(t, want.EVTotal, got.EVTotal, 1e-9)
	}
}

func TestEstimate_TruncatesAndSorts(t *testing.T) {
	cards := make([]domain.Card, 0, 25)
	for i := range 25 {
		cards = append(cards, domain.Card{
			Name:   fmt.Sprintf("rare-%02d", i),
			Number: fmt.Sprint(i + 1),
			Rarity: "Rare",
			Price:  float64(10 + i),
		})
	}

	ev := NewEstimator(nil).Estimate(cards, 36, 0.40)

	require.Len(t, ev.TopCards, DefaultTopCards)
	assert.Equal(t, "rare-24", ev.TopCards[0].Name)
	for i := 1; i < len(ev.TopCards); i++ {
		assert.GreaterOrEqual(t, ev.TopCards[i-1].EVContribution, ev.TopCards[i].EVContribution)
	}
	assert.Equal(t, 25, ev.ValuableCardsCount)
}

func TestEstimate_DoesNotMutateInput(t *testing.T) {
	cards := []domain.Card{
		{Name: "second", Number: "2", Rarity: "Rare", Price: 5},
		{Name: "first", Number: "1", Rarity: "Rare", Price: 5},
	}
	NewEstimator(nil).Estimate(cards, 36, 0.40)
	assert.Equal(t, "second", cards[0].Name)
}

func TestEstimate_Options(t *testing.T) {
	cards := []domain.Card{
		{Name: "a", Number: "1", Rarity: "Rare", Price: 50},
		{Name: "b", Number: "2", Rarity: "Rare", Price: 40},
		{Name: "c", Number: "3", Rarity: "Rare", Price: 30},
	}
	ev := NewEstimator(nil, WithTopCards(2), WithRetention(0.05, 10)).Estimate(cards, 10, 0)
	require.Len(t, ev.TopCards, 2)
	assert.Equal(t, "a", ev.TopCards[0].Name)
	assert.InDelta(t, (50+40+30)*0.25*10, ev.EVTotal, 1e-9)
}

func TestSplitNumber(t *testing.T) {
	tests := []struct {
		in     string
		prefix string
		n      int
	}{
		{"199", "", 199},
		{"TG12", "TG", 12},
		{"sv107", "SV", 107},
		{"", "", -1},
		{"?", "?", -1},
		{"12a", "", 12},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, n := splitNumber(tt.in)
			assert.Equal(t, tt.prefix, p)
			assert.Equal(t, tt.n, n)
		})
	}
}
