package domain

// Card is a single priced printing inside a set. Price is zero when the
// source had no usable price tier for it.
type Card struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	SetID    string  `json:"set_id"`
	Number   string  `json:"number"` // position within the set, e.g. "199" or "TG12"
	Rarity   string  `json:"rarity"`
	Price    float64 `json:"price"`
	Tier     string  `json:"price_tier,omitempty"`
	ImageURL string  `json:"image,omitempty"`
}

// Priced reports whether the card carries a usable market price.
func (c Card) Priced() bool {
	return c.Price > 0
}

// CardSet describes an expansion as listed by the price source.
type CardSet struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Series       string `json:"series"`
	ReleaseDate  string `json:"release_date"`
	PrintedTotal int    `json:"printed_total"`
	Total        int    `json:"total"`
	LogoURL      string `json:"logo,omitempty"`
	SymbolURL    string `json:"symbol,omitempty"`
}
