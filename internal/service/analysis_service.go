package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/alanyoungcy/sealedev/internal/domain"
	"github.com/alanyoungcy/sealedev/internal/strategy"
	"github.com/alanyoungcy/sealedev/internal/valuation"
)

// EventOpenSignal is the notification event raised for confident OPEN calls.
const EventOpenSignal = "open_signal"

// MaxTrending caps the trending list.
const MaxTrending = 20

// MaxHistory caps the analyses returned for one set.
const MaxHistory = 100

var analysisIDPattern = regexp.MustCompile(`^.+_\d{9,}$`)

// AnalyzeRequest is one product to evaluate. Pointers distinguish "not
// given" from zero.
type AnalyzeRequest struct {
	ProductName string   `json:"product_name"`
	SetName     string   `json:"set_name"`
	SetID       string   `json:"set_id"`
	SealedPrice *float64 `json:"sealed_price"`
	MSRP        *float64 `json:"msrp"`
	PacksPerBox int      `json:"packs_per_box"`
	Strategy    string   `json:"strategy"`
}

// Alerter delivers notifications. It is satisfied by *notify.Notifier.
type Alerter interface {
	Notify(ctx context.Context, event, title, message string) error
}

// AnalysisConfig tunes the analysis service.
type AnalysisConfig struct {
	MinCardValue       float64 // zero means valuation.DefaultMinCardValue
	DefaultStrategy    string
	AlertMinConfidence int
}

// AnalysisService runs analyses end to end and records their results.
type AnalysisService struct {
	catalog     *CatalogService
	prices      *PriceSource
	pricer      *SealedPricer
	estimator   *valuation.Estimator
	recommender *valuation.Recommender
	policies    *strategy.Registry
	store       domain.AnalysisStore
	trending    domain.TrendingCache
	bus         domain.SignalBus
	alerter     Alerter
	cfg         AnalysisConfig
	logger      *slog.Logger
	now         func() time.Time
}

// AnalysisDeps groups the collaborators of an AnalysisService. Store,
// Trending, Bus and Alerter may be nil.
type AnalysisDeps struct {
	Catalog     *CatalogService
	Prices      *PriceSource
	Pricer      *SealedPricer
	Estimator   *valuation.Estimator
	Recommender *valuation.Recommender
	Policies    *strategy.Registry
	Store       domain.AnalysisStore
	Trending    domain.TrendingCache
	Bus         domain.SignalBus
	Alerter     Alerter
}

// NewAnalysisService creates an AnalysisService.
func NewAnalysisService(deps AnalysisDeps, cfg AnalysisConfig, logger *slog.Logger) *AnalysisService {
	if cfg.MinCardValue <= 0 {
		cfg.MinCardValue = valuation.DefaultMinCardValue
	}
	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = strategy.NameRules
	}
	if deps.Policies == nil {
		deps.Policies = strategy.NewDefaultRegistry()
	}
	return &AnalysisService{
		catalog:     deps.Catalog,
		prices:      deps.Prices,
		pricer:      deps.Pricer,
		estimator:   deps.Estimator,
		recommender: deps.Recommender,
		policies:    deps.Policies,
		store:       deps.Store,
		trending:    deps.Trending,
		bus:         deps.Bus,
		alerter:     deps.Alerter,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "analysis")),
		now:         time.Now,
	}
}

// Strategies lists the selectable policy names.
func (s *AnalysisService) Strategies() []string {
	return s.policies.List()
}

// ListSets returns up to limit sets, newest first.
func (s *AnalysisService) ListSets(ctx context.Context, limit int) ([]domain.CardSet, error) {
	return s.catalog.ListSets(ctx, limit)
}

func validate(req AnalyzeRequest) error {
	if strings.TrimSpace(req.ProductName) == "" && strings.TrimSpace(req.SetName) == "" && strings.TrimSpace(req.SetID) == "" {
		return domain.Invalid("product_name or set_name required")
	}
	if req.SealedPrice != nil && *req.SealedPrice < 0 {
		return domain.Invalid("sealed_price must not be negative")
	}
	if req.MSRP != nil && *req.MSRP < 0 {
		return domain.Invalid("msrp must not be negative")
	}
	if req.PacksPerBox < 0 {
		return domain.Invalid("packs_per_box must not be negative")
	}
	return nil
}

func (s *AnalysisService) resolveSet(ctx context.Context, req AnalyzeRequest) (domain.CardSet, error) {
	if id := strings.TrimSpace(req.SetID); id != "" {
		return s.catalog.GetSet(ctx, id)
	}
	term := strings.TrimSpace(req.SetName)
	if term == "" {
		term = strings.TrimSpace(req.ProductName)
	}
	return s.catalog.FindSet(ctx, term)
}

// Evaluate computes a recommendation without recording it. The returned
// values are unrounded.
func (s *AnalysisService) Evaluate(ctx context.Context, req AnalyzeRequest) (domain.Recommendation, error) {
	if err := validate(req); err != nil {
		return domain.Recommendation{}, fmt.Errorf("analysis_service: %w", err)
	}

	name := req.Strategy
	if name == "" {
		name = s.cfg.DefaultStrategy
	}
	policy, err := s.policies.Get(name)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("analysis_service: %w", domain.Invalid(fmt.Sprintf("unknown strategy %q", name)))
	}

	set, err := s.resolveSet(ctx, req)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("analysis_service: resolve set: %w", err)
	}

	product := strings.TrimSpace(req.ProductName)
	if product == "" {
		product = set.Name + " Booster Box"
	}

	fetch := s.prices.FetchCards(ctx, set.ID)

	packs := req.PacksPerBox
	if packs == 0 {
		packs = PacksFor(product)
	}
	price, priceSource := s.pricer.Resolve(ctx, product, req.SealedPrice)
	msrp := EstimateSealedPrice(product)
	if req.MSRP != nil && *req.MSRP > 0 {
		msrp = *req.MSRP
	}

	ev := s.estimator.Estimate(fetch.Cards, packs, s.cfg.MinCardValue)
	ev.APISource = fetch.Source

	return s.recommender.Recommend(ev, valuation.Subject{
		ProductName: product,
		SetID:       set.ID,
		SetName:     set.Name,
		Product: domain.SealedProduct{
			Name:      product,
			MSRP:      msrp,
			Price:     price,
			PackCount: packs,
			InStock:   true,
		},
		PacksPerBox:       packs,
		MinCardValue:      s.cfg.MinCardValue,
		SourceAvailable:   fetch.Available,
		Sources:           []string{fetch.Source},
		SealedPriceSource: priceSource,
	}, policy, s.now()), nil
}

// Analyze evaluates req and records the rounded result. Recording failures
// are logged and do not fail the analysis.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (domain.Recommendation, error) {
	raw, err := s.Evaluate(ctx, req)
	if err != nil {
		return domain.Recommendation{}, err
	}
	rec := valuation.Present(raw)

	s.record(ctx, rec)

	s.logger.InfoContext(ctx, "analysis_service: analysis complete",
		slog.String("analysis_id", rec.AnalysisID),
		slog.String("set_id", rec.SetID),
		slog.String("category", string(rec.Category)),
		slog.Float64("ev_total", rec.EVBreakdown.EVTotal),
		slog.Int("confidence", rec.ConfidenceScore),
	)
	return rec, nil
}

func (s *AnalysisService) record(ctx context.Context, rec domain.Recommendation) {
	if s.store != nil {
		if err := s.store.Insert(ctx, rec); err != nil {
			s.logger.WarnContext(ctx, "analysis_service: persist failed",
				slog.String("analysis_id", rec.AnalysisID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.trending != nil {
		entry := domain.TrendingEntry{
			SetID:          rec.SetID,
			SetName:        rec.SetName,
			ProductName:    rec.ProductName,
			AnalysisID:     rec.AnalysisID,
			Recommendation: rec.Label,
			Category:       rec.Category,
			ROIPercent:     rec.ROI.Open.Percent,
			Confidence:     rec.ConfidenceScore,
			Timestamp:      rec.Timestamp,
		}
		if err := s.trending.Put(ctx, entry); err != nil {
			s.logger.WarnContext(ctx, "analysis_service: trending update failed",
				slog.String("set_id", rec.SetID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.bus != nil {
		payload, err := json.Marshal(rec)
		if err == nil {
			err = s.bus.Publish(ctx, domain.ChannelAnalyses, payload)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "analysis_service: publish failed",
				slog.String("analysis_id", rec.AnalysisID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.alerter != nil && rec.Category == domain.ActionOpen && rec.ConfidenceScore >= s.cfg.AlertMinConfidence {
		title := fmt.Sprintf("OPEN: %s", rec.ProductName)
		msg := fmt.Sprintf("%s\nEV %.2f vs sealed %.2f (%.1f%%), confidence %d",
			rec.Label,
			rec.Pricing.ExpectedValueOpen,
			rec.Pricing.SealedBoxCost,
			rec.ROI.Open.Percent,
			rec.ConfidenceScore,
		)
		if err := s.alerter.Notify(ctx, EventOpenSignal, title, msg); err != nil {
			s.logger.WarnContext(ctx, "analysis_service: notify failed",
				slog.String("analysis_id", rec.AnalysisID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// GetAnalysis returns a stored analysis. id is either an analysis id or a
// set id, in which case the latest analysis for that set is returned.
func (s *AnalysisService) GetAnalysis(ctx context.Context, id string) (domain.Recommendation, error) {
	if s.store == nil {
		return domain.Recommendation{}, fmt.Errorf("analysis_service: no store: %w", domain.ErrNotFound)
	}
	if analysisIDPattern.MatchString(id) {
		rec, err := s.store.GetByID(ctx, id)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Recommendation{}, fmt.Errorf("analysis_service: get %s: %w", id, err)
		}
	}
	rec, err := s.store.LatestBySet(ctx, id)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("analysis_service: latest for %s: %w", id, err)
	}
	return rec, nil
}

// History returns up to limit stored analyses of a set, newest first. id is
// a set id or an analysis id, in which case that analysis's set is used.
func (s *AnalysisService) History(ctx context.Context, id string, limit int) ([]domain.Recommendation, error) {
	if s.store == nil {
		return nil, fmt.Errorf("analysis_service: no store: %w", domain.ErrNotFound)
	}
	if limit <= 0 || limit > MaxHistory {
		limit = MaxHistory
	}

	setID := id
	if analysisIDPattern.MatchString(id) {
		rec, err := s.store.GetByID(ctx, id)
		switch {
		case err == nil:
			setID = rec.SetID
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("analysis_service: get %s: %w", id, err)
		}
	}

	recs, err := s.store.ListBySet(ctx, setID, domain.ListOpts{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("analysis_service: history for %s: %w", setID, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("analysis_service: history for %s: %w", setID, domain.ErrNotFound)
	}
	return recs, nil
}

// Trending returns the most recent analyses, one per set.
func (s *AnalysisService) Trending(ctx context.Context, limit int) ([]domain.TrendingEntry, error) {
	if limit <= 0 || limit > MaxTrending {
		limit = MaxTrending
	}
	if s.trending != nil {
		entries, err := s.trending.List(ctx, limit)
		if err == nil {
			return entries, nil
		}
		s.logger.WarnContext(ctx, "analysis_service: trending cache failed, using store",
			slog.String("error", err.Error()),
		)
	}
	if s.store == nil {
		return []domain.TrendingEntry{}, nil
	}

	recs, err := s.store.ListRecent(ctx, domain.ListOpts{Limit: limit * 4})
	if err != nil {
		return nil, fmt.Errorf("analysis_service: list recent: %w", err)
	}
	seen := make(map[string]bool, len(recs))
	out := make([]domain.TrendingEntry, 0, limit)
	for _, r := range recs {
		if seen[r.SetID] {
			continue
		}
		seen[r.SetID] = true
		out = append(out, domain.TrendingEntry{
			SetID:          r.SetID,
			SetName:        r.SetName,
			ProductName:    r.ProductName,
			AnalysisID:     r.AnalysisID,
			Recommendation: r.Label,
			Category:       r.Category,
			ROIPercent:     r.ROI.Open.Percent,
			Confidence:     r.ConfidenceScore,
			Timestamp:      r.Timestamp,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
