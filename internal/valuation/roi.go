package valuation

import (
	"fmt"
	"math"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

// Assumption holds the hold and resell model parameters.
type Assumption struct {
	DiscountedRate    float64 // appreciation when the product sells below DiscountThreshold*MSRP
	BaseRate          float64 // appreciation otherwise
	DiscountThreshold float64
	ResellMarkup      float64
	HoldPeriod        string
}

// DefaultAssumption returns the standard six-month hold model.
func DefaultAssumption() Assumption {
	return Assumption{
		DiscountedRate:    0.15,
		BaseRate:          0.10,
		DiscountThreshold: 0.90,
		ResellMarkup:      0.05,
		HoldPeriod:        "6 months",
	}
}

const discountEpsilon = 1e-9

// AppreciationRate returns the hold appreciation for p. Discounted stock is
// assumed to appreciate faster as it sells through.
func (a Assumption) AppreciationRate(p domain.SealedProduct) float64 {
	// Epsilon keeps a price exactly at the threshold on the base rate.
	if p.MSRP > 0 && p.Discount() > 1-a.DiscountThreshold+discountEpsilon {
		return a.DiscountedRate
	}
	return a.BaseRate
}

// Describe renders the appreciation used for p.
func (a Assumption) Describe(p domain.SealedProduct) string {
	rate := a.AppreciationRate(p)
	if rate == a.DiscountedRate && a.DiscountedRate != a.BaseRate {
		return fmt.Sprintf("%.0f%% (sealed below %.0f%% of MSRP)", rate*100, a.DiscountThreshold*100)
	}
	return fmt.Sprintf("%.0f%%", rate*100)
}

// ComputeROI compares opening, holding and reselling p given the box EV.
// Percent fields are 0 whenever the sealed price is not positive.
func ComputeROI(evTotal float64, p domain.SealedProduct, a Assumption) domain.ROIEstimate {
	price := p.Price

	openAmount := evTotal - price

	projected := price * (1 + a.AppreciationRate(p))
	holdAmount := projected - price

	// Without a known MSRP there is nothing to cap the markup against, so
	// the product is assumed to resell at cost.
	resellValue := price
	if p.MSRP > 0 {
		resellValue = math.Min(p.MSRP, price*(1+a.ResellMarkup))
	}
	resellAmount := math.Max(0, resellValue-price)

	return domain.ROIEstimate{
		Open:   domain.ROIEntry{Value: evTotal, Amount: openAmount, Percent: percentOf(openAmount, price)},
		Hold:   domain.ROIEntry{Value: projected, Amount: holdAmount, Percent: percentOf(holdAmount, price)},
		Resell: domain.ROIEntry{Value: resellValue, Amount: resellAmount, Percent: percentOf(resellAmount, price)},
	}
}

func percentOf(amount, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return amount / base * 100
}
