package domain

// SealedProduct is an unopened purchasable unit. Price and MSRP are
// independent: Price is what it costs today, MSRP is the nominal retail.
type SealedProduct struct {
	Name      string  `json:"name"`
	MSRP      float64 `json:"msrp"`
	Price     float64 `json:"price"`
	PackCount int     `json:"pack_count"`
	InStock   bool    `json:"in_stock"`
}

// Discount returns the fraction below MSRP the product is selling at.
// Negative values mean it trades above MSRP.
func (p SealedProduct) Discount() float64 {
	if p.MSRP <= 0 {
		return 0
	}
	return (p.MSRP - p.Price) / p.MSRP
}
