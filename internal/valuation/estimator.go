package valuation

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

// Estimator defaults.
const (
	DefaultPacksPerBox        = 36
	DefaultMinCardValue       = 0.40
	DefaultTopCards           = 20
	DefaultSignificantShare   = 0.05
	DefaultHighValueThreshold = 10.0
)

// Estimator computes the expected value of opening one box.
type Estimator struct {
	rates              *PullRateTable
	topCards           int
	significantShare   float64
	highValueThreshold float64
}

// EstimatorOption customises an Estimator.
type EstimatorOption func(*Estimator)

// WithTopCards caps the number of cards returned in the breakdown.
func WithTopCards(n int) EstimatorOption {
	return func(e *Estimator) {
		if n > 0 {
			e.topCards = n
		}
	}
}

// WithRetention sets the online retention filter: a card is kept when its
// contribution is at least share of the running EV, or its price is at least
// highValue.
func WithRetention(share, highValue float64) EstimatorOption {
	return func(e *Estimator) {
		e.significantShare = share
		e.highValueThreshold = highValue
	}
}

// NewEstimator creates an Estimator backed by the given pull-rate table.
func NewEstimator(rates *PullRateTable, opts ...EstimatorOption) *Estimator {
	if rates == nil {
		rates = DefaultPullRateTable()
	}
	e := &Estimator{
		rates:              rates,
		topCards:           DefaultTopCards,
		significantShare:   DefaultSignificantShare,
		highValueThreshold: DefaultHighValueThreshold,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Rates exposes the table the estimator uses.
func (e *Estimator) Rates() *PullRateTable {
	return e.rates
}

// Estimate computes the EV of one box holding packsPerBox packs. Cards without
// a price or priced below minCardValue contribute nothing. The input slice is
// not modified.
func (e *Estimator) Estimate(cards []domain.Card, packsPerBox int, minCardValue float64) domain.EVBreakdown {
	out := domain.EVBreakdown{
		TopCards:           []domain.CardContribution{},
		RarityBreakdown:    map[string]domain.RarityStat{},
		TotalCardsAnalyzed: len(cards),
	}

	ordered := make([]domain.Card, len(cards))
	copy(ordered, cards)
	sortBySetPosition(ordered)

	var retained []domain.CardContribution
	for _, c := range ordered {
		if !c.Priced() || c.Price < minCardValue {
			continue
		}

		rate := e.rates.Rate(c.Rarity)
		contribution := c.Price * rate * float64(packsPerBox)

		out.EVTotal += contribution
		out.ValuableCardsCount++

		stat := out.RarityBreakdown[c.Rarity]
		stat.Count++
		stat.TotalValue += c.Price
		stat.EVContribution += contribution
		out.RarityBreakdown[c.Rarity] = stat

		if contribution >= out.EVTotal*e.significantShare || c.Price >= e.highValueThreshold {
			retained = append(retained, domain.CardContribution{
				Name:           c.Name,
				Rarity:         c.Rarity,
				Price:          c.Price,
				PullRate:       rate,
				EVContribution: contribution,
				SetNumber:      c.Number,
				ImageURL:       c.ImageURL,
			})
		}
	}

	sort.SliceStable(retained, func(i, j int) bool {
		return retained[i].EVContribution > retained[j].EVContribution
	})
	if len(retained) > e.topCards {
		retained = retained[:e.topCards]
	}
	if retained != nil {
		out.TopCards = retained
	}
	return out
}

// sortBySetPosition orders cards by their numeric set position, falling back
// to the raw number string and then the name. Numbers with a letter prefix
// ("TG05", "SV107") sort after plain numbers and group by prefix.
func sortBySetPosition(cards []domain.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		pi, ni := splitNumber(cards[i].Number)
		pj, nj := splitNumber(cards[j].Number)
		if pi != pj {
			return pi < pj
		}
		if ni != nj {
			return ni < nj
		}
		if cards[i].Number != cards[j].Number {
			return cards[i].Number < cards[j].Number
		}
		return cards[i].Name < cards[j].Name
	})
}

// splitNumber separates a set number into its alphabetic prefix and the
// leading integer that follows it. Missing digits yield -1.
func splitNumber(s string) (string, int) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsDigit)
	if i < 0 {
		return strings.ToUpper(s), -1
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	n, err := strconv.Atoi(s[i:j])
	if err != nil {
		return strings.ToUpper(s[:i]), -1
	}
	return strings.ToUpper(s[:i]), n
}
