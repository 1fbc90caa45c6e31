package valuation

import (
	"maps"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Present returns a copy of rec with every currency and percent field
// rounded for display. Pull rates are left as-is. rec is not modified.
func Present(rec domain.Recommendation) domain.Recommendation {
	out := rec

	out.Pricing = domain.Pricing{
		SealedBoxCost:      Round2(rec.Pricing.SealedBoxCost),
		MarketValueSealed:  Round2(rec.Pricing.MarketValueSealed),
		ExpectedValueOpen:  Round2(rec.Pricing.ExpectedValueOpen),
		Projected6MoSealed: Round2(rec.Pricing.Projected6MoSealed),
		MSRP:               Round2(rec.Pricing.MSRP),
	}
	out.ROI = roundROI(rec.ROI)

	ev := rec.EVBreakdown
	ev.EVTotal = Round2(ev.EVTotal)
	ev.TopCards = make([]domain.CardContribution, len(rec.EVBreakdown.TopCards))
	for i, c := range rec.EVBreakdown.TopCards {
		c.Price = Round2(c.Price)
		c.EVContribution = Round2(c.EVContribution)
		ev.TopCards[i] = c
	}
	ev.RarityBreakdown = maps.Clone(rec.EVBreakdown.RarityBreakdown)
	for k, s := range ev.RarityBreakdown {
		s.TotalValue = Round2(s.TotalValue)
		s.EVContribution = Round2(s.EVContribution)
		ev.RarityBreakdown[k] = s
	}
	out.EVBreakdown = ev

	if rec.APISources != nil {
		out.APISources = append([]string(nil), rec.APISources...)
	}
	return out
}

func roundROI(r domain.ROIEstimate) domain.ROIEstimate {
	round := func(e domain.ROIEntry) domain.ROIEntry {
		return domain.ROIEntry{Value: Round2(e.Value), Amount: Round2(e.Amount), Percent: Round2(e.Percent)}
	}
	return domain.ROIEstimate{Open: round(r.Open), Hold: round(r.Hold), Resell: round(r.Resell)}
}
