package valuation

import "github.com/alanyoungcy/sealedev/internal/domain"

// Confidence scores how much the EV figure can be trusted, from 0 to 100.
// More priced cards and a live price source raise it.
func Confidence(ev domain.EVBreakdown, sourceAvailable bool) int {
	score := 50

	switch {
	case ev.TotalCardsAnalyzed > 200:
		score += 20
	case ev.TotalCardsAnalyzed > 100:
		score += 10
	}

	switch {
	case ev.ValuableCardsCount > 50:
		score += 15
	case ev.ValuableCardsCount > 20:
		score += 10
	}

	if sourceAvailable {
		score += 15
	}

	return min(max(score, 0), 100)
}
