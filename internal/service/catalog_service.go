package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sahilm/fuzzy"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

// SetClient is the part of the price source that lists expansions.
type SetClient interface {
	GetSets(ctx context.Context) ([]domain.CardSet, error)
	SearchSets(ctx context.Context, name string) ([]domain.CardSet, error)
	GetSet(ctx context.Context, id string) (domain.CardSet, error)
}

const allSetsKey = "sets:all"

type catalogEntry struct {
	sets    []domain.CardSet
	set     domain.CardSet
	fetched time.Time
}

// CatalogService resolves free-text set names to sets and keeps the set
// list in a small in-process LRU.
type CatalogService struct {
	client SetClient
	cache  *lru.Cache
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewCatalogService creates a CatalogService holding up to size cached
// lookups for ttl each.
func NewCatalogService(client SetClient, size int, ttl time.Duration, logger *slog.Logger) (*CatalogService, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("catalog_service: create lru: %w", err)
	}
	return &CatalogService{
		client: client,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "catalog")),
		now:    time.Now,
	}, nil
}

func (s *CatalogService) cached(key string) (catalogEntry, bool) {
	v, ok := s.cache.Get(key)
	if !ok {
		return catalogEntry{}, false
	}
	e := v.(catalogEntry)
	if s.ttl > 0 && s.now().Sub(e.fetched) > s.ttl {
		s.cache.Remove(key)
		return catalogEntry{}, false
	}
	return e, true
}

// AllSets returns every set, newest first.
func (s *CatalogService) AllSets(ctx context.Context) ([]domain.CardSet, error) {
	if e, ok := s.cached(allSetsKey); ok {
		return e.sets, nil
	}
	sets, err := s.client.GetSets(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog_service: list sets: %w", err)
	}
	s.cache.Add(allSetsKey, catalogEntry{sets: sets, fetched: s.now()})
	return sets, nil
}

// ListSets returns at most limit sets, newest first.
func (s *CatalogService) ListSets(ctx context.Context, limit int) ([]domain.CardSet, error) {
	sets, err := s.AllSets(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(sets) > limit {
		sets = sets[:limit]
	}
	return sets, nil
}

// GetSet returns the set with the given id.
func (s *CatalogService) GetSet(ctx context.Context, id string) (domain.CardSet, error) {
	if e, ok := s.cached(allSetsKey); ok {
		for _, set := range e.sets {
			if set.ID == id {
				return set, nil
			}
		}
	}
	set, err := s.client.GetSet(ctx, id)
	switch {
	case err == nil:
		return set, nil
	case errors.Is(err, domain.ErrNotFound):
		return domain.CardSet{}, fmt.Errorf("catalog_service: get set %s: %w", id, err)
	default:
		s.logger.WarnContext(ctx, "catalog_service: set lookup failed",
			slog.String("set_id", id),
			slog.String("error", err.Error()),
		)
		return domain.CardSet{}, fmt.Errorf("catalog_service: get set %s: %w", id, domain.ErrNotFound)
	}
}

// FindSet resolves term to a set. It tries, in order: an exact name search
// at the source, a case-insensitive exact name or id match, a partial match
// in either direction (so product names like "Obsidian Flames Booster Box"
// resolve), and a fuzzy match. It returns domain.ErrNotFound when nothing
// matches.
func (s *CatalogService) FindSet(ctx context.Context, term string) (domain.CardSet, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return domain.CardSet{}, fmt.Errorf("catalog_service: %w", domain.Invalid("set name required"))
	}
	key := "find:" + strings.ToLower(term)
	if e, ok := s.cached(key); ok {
		return e.set, nil
	}

	exact, err := s.client.SearchSets(ctx, term)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "catalog_service: exact search failed",
			slog.String("term", term),
			slog.String("error", err.Error()),
		)
	}
	if len(exact) > 0 {
		s.cache.Add(key, catalogEntry{set: exact[0], fetched: s.now()})
		return exact[0], nil
	}

	// An unreachable source resolves nothing; the caller reports the set
	// as not found rather than failing.
	all, err := s.AllSets(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "catalog_service: set list unavailable",
			slog.String("term", term),
			slog.String("error", err.Error()),
		)
		return domain.CardSet{}, fmt.Errorf("catalog_service: set %q: %w", term, domain.ErrNotFound)
	}
	set, ok := matchSet(term, all)
	if !ok {
		return domain.CardSet{}, fmt.Errorf("catalog_service: set %q: %w", term, domain.ErrNotFound)
	}
	s.cache.Add(key, catalogEntry{set: set, fetched: s.now()})
	return set, nil
}

// setNames adapts a set list to fuzzy.Source.
type setNames []domain.CardSet

func (n setNames) String(i int) string { return n[i].Name }
func (n setNames) Len() int            { return len(n) }

// matchSet finds term in sets without calling the source.
func matchSet(term string, sets []domain.CardSet) (domain.CardSet, bool) {
	lower := strings.ToLower(term)

	for _, s := range sets {
		if strings.ToLower(s.Name) == lower || strings.ToLower(s.ID) == lower {
			return s, true
		}
	}

	// Term inside a set name: first (newest) wins.
	for _, s := range sets {
		if strings.Contains(strings.ToLower(s.Name), lower) {
			return s, true
		}
	}

	// Set name inside the term: longest name wins so "Paldea Evolved"
	// beats "Paldea" style prefixes.
	var best domain.CardSet
	found := false
	for _, s := range sets {
		name := strings.ToLower(s.Name)
		if name != "" && strings.Contains(lower, name) && len(s.Name) > len(best.Name) {
			best, found = s, true
		}
	}
	if found {
		return best, true
	}

	matches := fuzzy.FindFrom(term, setNames(sets))
	if len(matches) > 0 {
		return sets[matches[0].Index], true
	}
	return domain.CardSet{}, false
}
