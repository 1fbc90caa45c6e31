package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

// CardClient fetches the priced cards of one set.
type CardClient interface {
	FetchSetCards(ctx context.Context, setID string) ([]domain.Card, error)
}

// CardFetch is the outcome of asking the price source for a set.
type CardFetch struct {
	Cards  []domain.Card
	Source string
	// Available is true only for a live fetch; cached cards still count
	// against confidence.
	Available bool
	FromCache bool
}

// SourceUnavailable labels a fetch that produced no data at all.
const SourceUnavailable = "unavailable"

// PriceSource wraps a CardClient so that callers never see its failures:
// on error it falls back to the last good card list, then to nothing.
type PriceSource struct {
	client  CardClient
	cache   domain.CardCache
	name    string
	timeout time.Duration
	logger  *slog.Logger
}

// NewPriceSource creates a PriceSource. cache may be nil.
func NewPriceSource(client CardClient, cache domain.CardCache, name string, timeout time.Duration, logger *slog.Logger) *PriceSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PriceSource{
		client:  client,
		cache:   cache,
		name:    name,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "price_source")),
	}
}

// FetchCards returns the cards of setID. It does not return an error.
func (p *PriceSource) FetchCards(ctx context.Context, setID string) CardFetch {
	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cards, err := p.client.FetchSetCards(fetchCtx, setID)
	if err == nil {
		if len(cards) > 0 && p.cache != nil {
			if cerr := p.cache.SetCards(ctx, setID, cards); cerr != nil {
				p.logger.WarnContext(ctx, "price_source: cache cards failed",
					slog.String("set_id", setID),
					slog.String("error", cerr.Error()),
				)
			}
		}
		return CardFetch{Cards: cards, Source: p.name, Available: true}
	}

	p.logger.WarnContext(ctx, "price_source: fetch failed, trying cache",
		slog.String("set_id", setID),
		slog.String("error", err.Error()),
	)

	if p.cache != nil {
		cached, cerr := p.cache.GetCards(ctx, setID)
		if cerr == nil && len(cached) > 0 {
			return CardFetch{Cards: cached, Source: p.name + " (cached)", FromCache: true}
		}
	}
	return CardFetch{Cards: []domain.Card{}, Source: SourceUnavailable}
}
