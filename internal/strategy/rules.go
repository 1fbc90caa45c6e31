package strategy

import "github.com/alanyoungcy/sealedev/internal/domain"

// Labels produced by the rule-based policy.
const (
	LabelOpen         = "OPEN - Expected value significantly exceeds sealed price"
	LabelHoldBelowEV  = "HOLD SEALED - Sealed product likely to appreciate, EV below cost"
	LabelResell       = "RESELL SEALED NOW - Sealed price inflated above expected value"
	LabelHoldMarginal = "HOLD SEALED - Marginal expected value, sealed preservation recommended"
)

// Rules is the narrative single-product policy. The rules are evaluated in a
// fixed order and the first match wins.
type Rules struct {
	OpenMinPercent   float64 // open ROI percent must exceed this
	OpenEVMultiple   float64 // and EV must exceed price times this
	ResellEVMultiple float64 // resell when price exceeds EV times this
}

// NewRules returns the policy with its standard thresholds.
func NewRules() *Rules {
	return &Rules{
		OpenMinPercent:   20,
		OpenEVMultiple:   1.2,
		ResellEVMultiple: 1.3,
	}
}

func (r *Rules) Name() string { return NameRules }

func (r *Rules) Decide(in Input) Decision {
	openPct := in.ROI.Open.Percent
	holdPct := in.ROI.Hold.Percent

	switch {
	case openPct > r.OpenMinPercent && in.EVTotal > in.SealedPrice*r.OpenEVMultiple:
		return Decision{Action: domain.ActionOpen, Label: LabelOpen}
	case holdPct > openPct && in.EVTotal < in.SealedPrice:
		return Decision{Action: domain.ActionHold, Label: LabelHoldBelowEV}
	case in.SealedPrice > in.EVTotal*r.ResellEVMultiple:
		return Decision{Action: domain.ActionResell, Label: LabelResell}
	default:
		return Decision{Action: domain.ActionHold, Label: LabelHoldMarginal}
	}
}

var _ Policy = (*Rules)(nil)
