package domain

import "time"

// Action is one of the three things an owner can do with a sealed product.
type Action string

const (
	ActionOpen   Action = "OPEN"
	ActionHold   Action = "HOLD"
	ActionResell Action = "RESELL"
)

// CardContribution is one row of the top-cards breakdown.
type CardContribution struct {
	Name           string  `json:"name"`
	Rarity         string  `json:"rarity"`
	Price          float64 `json:"price"`
	PullRate       float64 `json:"pull_rate"`
	EVContribution float64 `json:"ev_contribution"`
	SetNumber      string  `json:"set_number"`
	ImageURL       string  `json:"image,omitempty"`
}

// RarityStat aggregates the included cards of one rarity.
type RarityStat struct {
	Count          int     `json:"count"`
	TotalValue     float64 `json:"total_value"`
	EVContribution float64 `json:"ev_contribution"`
}

// EVBreakdown is the expected value of opening one box, plus the data it was
// derived from. EVTotal always equals the sum of contributions of the cards
// counted in ValuableCardsCount.
type EVBreakdown struct {
	EVTotal            float64               `json:"ev_total"`
	TopCards           []CardContribution    `json:"top_cards"`
	RarityBreakdown    map[string]RarityStat `json:"rarity_breakdown"`
	TotalCardsAnalyzed int                   `json:"total_cards_analyzed"`
	ValuableCardsCount int                   `json:"valuable_cards_count"`
	APISource          string                `json:"api_source"`
}

// ROIEntry is the outcome of taking one action.
type ROIEntry struct {
	Value   float64 `json:"value"`
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
}

// ROIEstimate compares the three actions for the same purchase price.
type ROIEstimate struct {
	Open   ROIEntry `json:"open"`
	Hold   ROIEntry `json:"hold_6mo"`
	Resell ROIEntry `json:"resell_now"`
}

// Entry returns the ROI entry for a.
func (r ROIEstimate) Entry(a Action) ROIEntry {
	switch a {
	case ActionOpen:
		return r.Open
	case ActionHold:
		return r.Hold
	default:
		return r.Resell
	}
}

// Pricing summarises the money side of an analysis.
type Pricing struct {
	SealedBoxCost      float64 `json:"sealed_box_cost"`
	MarketValueSealed  float64 `json:"market_value_sealed"`
	ExpectedValueOpen  float64 `json:"expected_value_open"`
	Projected6MoSealed float64 `json:"projected_6mo_sealed"`
	MSRP               float64 `json:"msrp"`
}

// Assumptions documents the model inputs that are not observed data.
type Assumptions struct {
	PacksPerBox          int     `json:"packs_per_box"`
	PullRates            string  `json:"pull_rates"`
	MinCardValue         float64 `json:"min_card_value"`
	HoldPeriod           string  `json:"hold_period"`
	AppreciationEstimate string  `json:"appreciation_estimate"`
	SealedPriceSource    string  `json:"sealed_price_source"`
}

// Recommendation is the full result of one analysis. It is created once,
// persisted, and read-only afterwards.
type Recommendation struct {
	AnalysisID      string      `json:"analysis_id"`
	ProductName     string      `json:"product_name"`
	SetName         string      `json:"set_name"`
	SetID           string      `json:"set_id"`
	Timestamp       time.Time   `json:"timestamp"`
	Pricing         Pricing     `json:"pricing"`
	ROI             ROIEstimate `json:"roi"`
	Label           string      `json:"recommendation"`
	Category        Action      `json:"category"`
	Strategy        string      `json:"strategy"`
	ConfidenceScore int         `json:"confidence_score"`
	EVBreakdown     EVBreakdown `json:"ev_breakdown"`
	Assumptions     Assumptions `json:"assumptions"`
	APISources      []string    `json:"api_sources"`
}

// TrendingEntry is the short-lived projection of the latest analysis per set.
type TrendingEntry struct {
	SetID          string    `json:"set_id"`
	SetName        string    `json:"set_name"`
	ProductName    string    `json:"product_name"`
	AnalysisID     string    `json:"analysis_id"`
	Recommendation string    `json:"recommendation"`
	Category       Action    `json:"category"`
	ROIPercent     float64   `json:"roi_percent"`
	Confidence     int       `json:"confidence_score"`
	Timestamp      time.Time `json:"timestamp"`
}

// RankedProduct is one row of a bulk ranking.
type RankedProduct struct {
	ProductName    string      `json:"product_name"`
	SetID          string      `json:"set_id"`
	SetName        string      `json:"set_name"`
	SealedPrice    float64     `json:"sealed_price"`
	EVTotal        float64     `json:"ev_total"`
	ROI            ROIEstimate `json:"roi"`
	Action         Action      `json:"action"`
	BestROIPercent float64     `json:"best_roi_percent"`
	Confidence     int         `json:"confidence_score"`
	Error          string      `json:"error,omitempty"`
}
