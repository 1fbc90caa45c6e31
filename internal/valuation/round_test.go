package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{268.92000000000002, 268.92},
		{1.005, 1.01},
		{-2.345, -2.35},
		{0, 0},
		{12.3, 12.3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "Round2(%v)", tt.in)
	}
}

func TestPresent_DoesNotMutate(t *testing.T) {
	rec := scenarioRecommendation(t, 133.333)
	rec.EVBreakdown.TopCards[0].EVContribution = 268.91999

	out := Present(rec)

	assert.Equal(t, 268.92, out.EVBreakdown.TopCards[0].EVContribution)
	assert.Equal(t, 268.91999, rec.EVBreakdown.TopCards[0].EVContribution)
	assert.Equal(t, 133.33, out.Pricing.SealedBoxCost)
	assert.Equal(t, 133.333, rec.Pricing.SealedBoxCost)
	assert.Equal(t, 0.166, out.EVBreakdown.TopCards[0].PullRate)
}
