package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

// Where a sealed price came from.
const (
	SealedPriceFromRequest  = "request"
	SealedPriceFromCache    = "cache"
	SealedPriceFromEstimate = "estimate"
)

// productKind is a sealed product type recognised by keyword.
type productKind struct {
	name     string
	keywords []string
	price    float64
	packs    int
}

// productKinds are matched in order against the lowercased product name.
var productKinds = []productKind{
	{name: "booster box", keywords: []string{"booster box"}, price: 100, packs: 36},
	{name: "elite trainer box", keywords: []string{"etb", "elite trainer"}, price: 50, packs: 9},
	{name: "booster bundle", keywords: []string{"booster bundle"}, price: 25, packs: 6},
}

var defaultKind = productKind{name: "unknown", price: 100, packs: 36}

func classifyProduct(name string) productKind {
	lower := strings.ToLower(name)
	for _, k := range productKinds {
		for _, kw := range k.keywords {
			if strings.Contains(lower, kw) {
				return k
			}
		}
	}
	return defaultKind
}

// EstimateSealedPrice returns the keyword-based price guess for a product.
func EstimateSealedPrice(productName string) float64 {
	return classifyProduct(productName).price
}

// PacksFor returns the usual pack count for a product.
func PacksFor(productName string) int {
	return classifyProduct(productName).packs
}

// SealedPricer resolves the price of a sealed product when the caller did
// not supply one.
type SealedPricer struct {
	cache    domain.SealedPriceCache
	validity time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewSealedPricer creates a SealedPricer. cache may be nil.
func NewSealedPricer(cache domain.SealedPriceCache, validity time.Duration, logger *slog.Logger) *SealedPricer {
	if validity <= 0 {
		validity = time.Hour
	}
	return &SealedPricer{
		cache:    cache,
		validity: validity,
		logger:   logger.With(slog.String("component", "sealed_pricer")),
		now:      time.Now,
	}
}

// Resolve returns the price to analyse product at and where it came from.
// An observed positive price wins and is remembered; otherwise a fresh
// cached observation is used; otherwise the keyword estimate.
func (p *SealedPricer) Resolve(ctx context.Context, product string, observed *float64) (float64, string) {
	key := strings.ToLower(strings.TrimSpace(product))

	if observed != nil && *observed > 0 {
		if p.cache != nil {
			if err := p.cache.SetPrice(ctx, key, *observed, p.now()); err != nil {
				p.logger.WarnContext(ctx, "sealed_pricer: cache set failed",
					slog.String("product", product),
					slog.String("error", err.Error()),
				)
			}
		}
		return *observed, SealedPriceFromRequest
	}

	if p.cache != nil {
		price, ts, err := p.cache.GetPrice(ctx, key)
		switch {
		case err == nil && price > 0 && p.now().Sub(ts) < p.validity:
			return price, SealedPriceFromCache
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			p.logger.WarnContext(ctx, "sealed_pricer: cache get failed",
				slog.String("product", product),
				slog.String("error", err.Error()),
			)
		}
	}

	return EstimateSealedPrice(product), SealedPriceFromEstimate
}
