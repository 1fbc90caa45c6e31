package pokemontcg

import (
	"github.com/alanyoungcy/sealedev/internal/domain"
)

// cardsPage is the envelope returned by GET /cards.
type cardsPage struct {
	Data       []APICard `json:"data"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	Count      int       `json:"count"`
	TotalCount int       `json:"totalCount"`
}

// setsPage is the envelope returned by GET /sets.
type setsPage struct {
	Data       []APISet `json:"data"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	Count      int      `json:"count"`
	TotalCount int      `json:"totalCount"`
}

// APICard is a card as returned by the pokemontcg.io v2 API. Only the fields
// used for pricing are decoded.
type APICard struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Number     string      `json:"number"`
	Rarity     string      `json:"rarity"`
	Set        APISetRef   `json:"set"`
	Images     APIImages   `json:"images"`
	TCGPlayer  *TCGPlayer  `json:"tcgplayer,omitempty"`
	CardMarket *CardMarket `json:"cardmarket,omitempty"`
}

// APISetRef is the set summary embedded in each card.
type APISetRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// APIImages holds image URLs.
type APIImages struct {
	Small  string `json:"small,omitempty"`
	Large  string `json:"large,omitempty"`
	Symbol string `json:"symbol,omitempty"`
	Logo   string `json:"logo,omitempty"`
}

// TCGPlayer holds TCGplayer prices. Every tier is optional.
type TCGPlayer struct {
	URL       string          `json:"url"`
	UpdatedAt string          `json:"updatedAt"`
	Prices    TCGPlayerPrices `json:"prices"`
}

// TCGPlayerPrices lists the printings TCGplayer may price.
type TCGPlayerPrices struct {
	Holofoil             *TierPrice `json:"holofoil,omitempty"`
	Normal               *TierPrice `json:"normal,omitempty"`
	ReverseHolofoil      *TierPrice `json:"reverseHolofoil,omitempty"`
	UnlimitedHolofoil    *TierPrice `json:"unlimitedHolofoil,omitempty"`
	FirstEditionHolofoil *TierPrice `json:"1stEditionHolofoil,omitempty"`
}

// TierPrice is a single printing's price points.
type TierPrice struct {
	Low       *float64 `json:"low,omitempty"`
	Mid       *float64 `json:"mid,omitempty"`
	High      *float64 `json:"high,omitempty"`
	Market    *float64 `json:"market,omitempty"`
	DirectLow *float64 `json:"directLow,omitempty"`
}

// CardMarket holds Cardmarket (EU) prices.
type CardMarket struct {
	URL       string           `json:"url"`
	UpdatedAt string           `json:"updatedAt"`
	Prices    CardMarketPrices `json:"prices"`
}

// CardMarketPrices is the subset of Cardmarket price points used here.
type CardMarketPrices struct {
	AverageSellPrice *float64 `json:"averageSellPrice,omitempty"`
	TrendPrice       *float64 `json:"trendPrice,omitempty"`
}

// APISet is an expansion as returned by GET /sets.
type APISet struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Series       string    `json:"series"`
	PrintedTotal int       `json:"printedTotal"`
	Total        int       `json:"total"`
	ReleaseDate  string    `json:"releaseDate"`
	Images       APIImages `json:"images"`
}

// Price tier names, in resolution order.
const (
	TierHolofoil          = "holofoil"
	TierNormal            = "normal"
	TierReverseHolofoil   = "reverseHolofoil"
	TierUnlimitedHolofoil = "unlimitedHolofoil"
	TierCardMarket        = "cardmarket"
)

// value returns the market price, else the mid price.
func (p *TierPrice) value() (float64, bool) {
	if p == nil {
		return 0, false
	}
	if p.Market != nil && *p.Market > 0 {
		return *p.Market, true
	}
	if p.Mid != nil && *p.Mid > 0 {
		return *p.Mid, true
	}
	return 0, false
}

// ResolvePrice picks one market price for the card: the first TCGplayer tier
// with a positive price in the order holofoil, normal, reverse holofoil,
// unlimited holofoil, then the Cardmarket average sell price.
func (c APICard) ResolvePrice() (float64, string, bool) {
	if c.TCGPlayer != nil {
		tiers := []struct {
			name  string
			price *TierPrice
		}{
			{TierHolofoil, c.TCGPlayer.Prices.Holofoil},
			{TierNormal, c.TCGPlayer.Prices.Normal},
			{TierReverseHolofoil, c.TCGPlayer.Prices.ReverseHolofoil},
			{TierUnlimitedHolofoil, c.TCGPlayer.Prices.UnlimitedHolofoil},
		}
		for _, t := range tiers {
			if v, ok := t.price.value(); ok {
				return v, t.name, true
			}
		}
	}
	if c.CardMarket != nil {
		if p := c.CardMarket.Prices.AverageSellPrice; p != nil && *p > 0 {
			return *p, TierCardMarket, true
		}
	}
	return 0, "", false
}

// ToDomainCard converts the API card, leaving Price at zero when no tier
// resolves. A missing rarity stays empty so it takes the default pull rate.
func (c APICard) ToDomainCard() domain.Card {
	price, tier, _ := c.ResolvePrice()
	img := c.Images.Large
	if img == "" {
		img = c.Images.Small
	}
	return domain.Card{
		ID:       c.ID,
		Name:     c.Name,
		SetID:    c.Set.ID,
		Number:   c.Number,
		Rarity:   c.Rarity,
		Price:    price,
		Tier:     tier,
		ImageURL: img,
	}
}

// ToDomainSet converts the API set.
func (s APISet) ToDomainSet() domain.CardSet {
	return domain.CardSet{
		ID:           s.ID,
		Name:         s.Name,
		Series:       s.Series,
		ReleaseDate:  s.ReleaseDate,
		PrintedTotal: s.PrintedTotal,
		Total:        s.Total,
		LogoURL:      s.Images.Logo,
		SymbolURL:    s.Images.Symbol,
	}
}
