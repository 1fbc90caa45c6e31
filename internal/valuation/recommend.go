package valuation

import (
	"fmt"
	"time"

	"github.com/alanyoungcy/sealedev/internal/domain"
	"github.com/alanyoungcy/sealedev/internal/strategy"
)

// PullRateSourceNote is recorded in every analysis' assumptions block.
const PullRateSourceNote = "Scarlet & Violet era rarity odds"

// Subject identifies what is being analysed and how its inputs were sourced.
type Subject struct {
	ProductName       string
	SetID             string
	SetName           string
	Product           domain.SealedProduct
	PacksPerBox       int
	MinCardValue      float64
	SourceAvailable   bool
	Sources           []string
	SealedPriceSource string
}

// Recommender turns an EV breakdown into a Recommendation.
type Recommender struct {
	assumption Assumption
}

// NewRecommender creates a Recommender using the given hold model.
func NewRecommender(a Assumption) *Recommender {
	return &Recommender{assumption: a}
}

// Assumption returns the hold model in use.
func (r *Recommender) Assumption() Assumption {
	return r.assumption
}

// Recommend compares the three actions for subj and lets policy pick one.
// The result carries unrounded values; see Present.
func (r *Recommender) Recommend(ev domain.EVBreakdown, subj Subject, policy strategy.Policy, now time.Time) domain.Recommendation {
	roi := ComputeROI(ev.EVTotal, subj.Product, r.assumption)
	decision := policy.Decide(strategy.Input{
		EVTotal:     ev.EVTotal,
		SealedPrice: subj.Product.Price,
		ROI:         roi,
	})

	ts := now.UTC()
	sources := subj.Sources
	if sources == nil {
		sources = []string{}
	}

	return domain.Recommendation{
		AnalysisID:  AnalysisID(subj.SetID, ts),
		ProductName: subj.ProductName,
		SetName:     subj.SetName,
		SetID:       subj.SetID,
		Timestamp:   ts,
		Pricing: domain.Pricing{
			SealedBoxCost:      subj.Product.Price,
			MarketValueSealed:  subj.Product.Price,
			ExpectedValueOpen:  ev.EVTotal,
			Projected6MoSealed: roi.Hold.Value,
			MSRP:               subj.Product.MSRP,
		},
		ROI:             roi,
		Label:           decision.Label,
		Category:        decision.Action,
		Strategy:        policy.Name(),
		ConfidenceScore: Confidence(ev, subj.SourceAvailable),
		EVBreakdown:     ev,
		Assumptions: domain.Assumptions{
			PacksPerBox:          subj.PacksPerBox,
			PullRates:            PullRateSourceNote,
			MinCardValue:         subj.MinCardValue,
			HoldPeriod:           r.assumption.HoldPeriod,
			AppreciationEstimate: r.assumption.Describe(subj.Product),
			SealedPriceSource:    subj.SealedPriceSource,
		},
		APISources: sources,
	}
}

// AnalysisID derives the stable id of an analysis from its set and time.
func AnalysisID(setID string, ts time.Time) string {
	return fmt.Sprintf("%s_%d", setID, ts.Unix())
}
