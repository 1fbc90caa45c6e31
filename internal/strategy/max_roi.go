package strategy

import (
	"fmt"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

// actionOrder is also the tie-break order.
var actionOrder = []domain.Action{domain.ActionOpen, domain.ActionHold, domain.ActionResell}

// MaxROI picks whichever action has the highest ROI percent. It is used for
// bulk ranking where only the numbers matter.
type MaxROI struct{}

// NewMaxROI returns the max-ROI policy.
func NewMaxROI() *MaxROI { return &MaxROI{} }

func (m *MaxROI) Name() string { return NameMaxROI }

func (m *MaxROI) Decide(in Input) Decision {
	best := actionOrder[0]
	bestPct := in.ROI.Entry(best).Percent
	for _, a := range actionOrder[1:] {
		if p := in.ROI.Entry(a).Percent; p > bestPct {
			best, bestPct = a, p
		}
	}
	return Decision{
		Action: best,
		Label:  fmt.Sprintf("%s - Highest projected return (%.1f%%)", best, bestPct),
	}
}

var _ Policy = (*MaxROI)(nil)
