package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

func TestConfidence(t *testing.T) {
	tests := []struct {
		name     string
		analyzed int
		valuable int
		source   bool
		want     int
	}{
		{"clamped", 500, 100, true, 100},
		{"baseline", 0, 0, false, 50},
		{"boundaries are strict", 200, 50, false, 70},
		{"just over boundaries", 201, 51, false, 85},
		{"mid tiers", 150, 30, true, 85},
		{"lower boundaries", 100, 20, true, 65},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := domain.EVBreakdown{TotalCardsAnalyzed: tt.analyzed, ValuableCardsCount: tt.valuable}
			got := Confidence(ev, tt.source)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}
