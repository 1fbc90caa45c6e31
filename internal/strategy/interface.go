// Package strategy holds the named recommendation policies that turn an ROI
// comparison into a single action.
package strategy

import "github.com/alanyoungcy/sealedev/internal/domain"

// Names of the built-in policies.
const (
	NameRules  = "rules"
	NameMaxROI = "max_roi"
)

// Input is everything a policy may look at.
type Input struct {
	EVTotal     float64
	SealedPrice float64
	ROI         domain.ROIEstimate
}

// Decision is the chosen action plus a human-readable label.
type Decision struct {
	Action domain.Action
	Label  string
}

// Policy picks an action for one product. Implementations must be
// deterministic and side-effect free.
type Policy interface {
	Name() string
	Decide(in Input) Decision
}
