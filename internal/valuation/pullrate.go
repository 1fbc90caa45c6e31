// Package valuation holds the pure expected-value engine: pull-rate lookup,
// per-box EV estimation, ROI comparison and confidence scoring. Nothing in
// here performs I/O.
package valuation

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultPullRate is returned for rarity labels that match neither the table
// nor any keyword.
const DefaultPullRate = 0.05

// Canonical rarity names.
const (
	RarityCommon                  = "Common"
	RarityUncommon                = "Uncommon"
	RarityRare                    = "Rare"
	RarityRareHolo                = "Rare Holo"
	RarityDoubleRare              = "Double Rare"
	RarityUltraRare               = "Ultra Rare"
	RarityFullArt                 = "Full Art"
	RaritySecretRare              = "Secret Rare"
	RarityIllustrationRare        = "Illustration Rare"
	RaritySpecialIllustrationRare = "Special Illustration Rare"
	RarityHyperRare               = "Hyper Rare"
	RarityGoldRare                = "Gold Rare"
)

// defaultRates are per-pack odds for the Scarlet & Violet era.
var defaultRates = map[string]float64{
	RarityCommon:                  1.0,
	RarityUncommon:                1.0,
	RarityRare:                    0.25,
	RarityRareHolo:                0.166,
	RarityDoubleRare:              0.166,
	RarityUltraRare:               0.166,
	RarityFullArt:                 0.083,
	RaritySecretRare:              0.028,
	RarityIllustrationRare:        0.055,
	RaritySpecialIllustrationRare: 0.055,
	RarityHyperRare:               0.020,
	RarityGoldRare:                0.020,
}

// keywordRule maps a lowercase substring to a canonical rarity.
type keywordRule struct {
	keywords []string
	rarity   string
}

// keywordRules are tried in order. Specific phrases must precede the generic
// "rare" catch-all.
var keywordRules = []keywordRule{
	{keywords: []string{"secret", "sr"}, rarity: RaritySecretRare},
	{keywords: []string{"hyper"}, rarity: RarityHyperRare},
	{keywords: []string{"gold"}, rarity: RarityGoldRare},
	{keywords: []string{"illustration rare"}, rarity: RarityIllustrationRare},
	{keywords: []string{"full art", "ultra rare"}, rarity: RarityFullArt},
	{keywords: []string{"holo"}, rarity: RarityRareHolo},
	{keywords: []string{"rare"}, rarity: RarityRare},
}

// PullRateTable resolves a rarity label to a per-pack probability. The zero
// value is not usable; build one with NewPullRateTable.
type PullRateTable struct {
	rates map[string]float64
}

// NewPullRateTable returns the default table with overrides applied on top.
// Every rate must lie in (0, 1].
func NewPullRateTable(overrides map[string]float64) (*PullRateTable, error) {
	rates := make(map[string]float64, len(defaultRates)+len(overrides))
	for k, v := range defaultRates {
		rates[k] = v
	}
	for k, v := range overrides {
		if v <= 0 || v > 1 {
			return nil, fmt.Errorf("valuation: pull rate for %q must be in (0,1], got %v", k, v)
		}
		rates[k] = v
	}
	return &PullRateTable{rates: rates}, nil
}

// DefaultPullRateTable returns the built-in table.
func DefaultPullRateTable() *PullRateTable {
	t, _ := NewPullRateTable(nil)
	return t
}

// Rate returns the pull probability for label. It never fails: unknown labels
// fall through the keyword rules and finally to DefaultPullRate.
func (t *PullRateTable) Rate(label string) float64 {
	if r, ok := t.rates[label]; ok {
		return r
	}
	lower := strings.ToLower(label)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return t.rates[rule.rarity]
			}
		}
	}
	return DefaultPullRate
}

// Rates returns a copy of the table sorted by name, for display.
func (t *PullRateTable) Rates() []NamedRate {
	out := make([]NamedRate, 0, len(t.rates))
	for k, v := range t.rates {
		out = append(out, NamedRate{Rarity: k, Rate: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rarity < out[j].Rarity })
	return out
}

// NamedRate is one table row.
type NamedRate struct {
	Rarity string  `json:"rarity"`
	Rate   float64 `json:"rate"`
}
