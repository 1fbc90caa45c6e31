// Package pokemontcg is the REST client for the pokemontcg.io v2 API, which
// provides card lists with TCGplayer and Cardmarket prices per set.
package pokemontcg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

// SourceName identifies this source in analysis results.
const SourceName = "pokemontcg.io"

const (
	defaultBaseURL    = "https://api.pokemontcg.io/v2"
	defaultPageSize   = 250
	defaultMaxPages   = 10
	defaultMaxRetries = 3
	initialBackoff    = 500 * time.Millisecond
	maxBackoff        = 8 * time.Second
)

// Config configures a Client. Zero values fall back to sane defaults.
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	PageSize          int
	MaxPages          int
	MaxRetries        int
}

// Client talks to the pokemontcg.io API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	pageSize   int
	maxPages   int
	maxRetries int
	backoff    time.Duration
}

// NewClient creates a new client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		pageSize:   cfg.PageSize,
		maxPages:   cfg.MaxPages,
		maxRetries: cfg.MaxRetries,
		backoff:    initialBackoff,
	}
}

// FetchSetCards returns every card of setID that carries a usable price.
// Pages are fetched until the reported total is reached, a page comes back
// empty, a request fails, or MaxPages is hit. A failure after the first page
// returns what was collected so far without an error.
func (c *Client) FetchSetCards(ctx context.Context, setID string) ([]domain.Card, error) {
	var (
		cards []domain.Card
		seen  int
	)
	for page := 1; page <= c.maxPages; page++ {
		params := url.Values{}
		params.Set("q", "set.id:"+setID)
		params.Set("page", strconv.Itoa(page))
		params.Set("pageSize", strconv.Itoa(c.pageSize))
		params.Set("orderBy", "number")

		var resp cardsPage
		if err := c.getJSON(ctx, "/cards", params, &resp); err != nil {
			if page == 1 {
				return nil, fmt.Errorf("pokemontcg: fetch cards %s: %w", setID, err)
			}
			break
		}
		if len(resp.Data) == 0 {
			break
		}
		seen += len(resp.Data)

		for _, ac := range resp.Data {
			if ac.Set.ID != setID {
				continue
			}
			card := ac.ToDomainCard()
			if !card.Priced() {
				continue
			}
			cards = append(cards, card)
		}

		if seen >= resp.TotalCount {
			break
		}
	}
	return cards, nil
}

// GetSets returns every set, newest release first.
func (c *Client) GetSets(ctx context.Context) ([]domain.CardSet, error) {
	var sets []domain.CardSet
	for page := 1; page <= c.maxPages; page++ {
		params := url.Values{}
		params.Set("orderBy", "-releaseDate")
		params.Set("page", strconv.Itoa(page))
		params.Set("pageSize", strconv.Itoa(c.pageSize))

		var resp setsPage
		if err := c.getJSON(ctx, "/sets", params, &resp); err != nil {
			return nil, fmt.Errorf("pokemontcg: get sets: %w", err)
		}
		for _, s := range resp.Data {
			sets = append(sets, s.ToDomainSet())
		}
		if len(resp.Data) == 0 || len(sets) >= resp.TotalCount {
			break
		}
	}
	return sets, nil
}

// SearchSets returns sets whose name matches name exactly.
func (c *Client) SearchSets(ctx context.Context, name string) ([]domain.CardSet, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("name:%q", name))

	var resp setsPage
	if err := c.getJSON(ctx, "/sets", params, &resp); err != nil {
		return nil, fmt.Errorf("pokemontcg: search sets %q: %w", name, err)
	}
	sets := make([]domain.CardSet, 0, len(resp.Data))
	for _, s := range resp.Data {
		sets = append(sets, s.ToDomainSet())
	}
	return sets, nil
}

// GetSet returns one set by id.
func (c *Client) GetSet(ctx context.Context, id string) (domain.CardSet, error) {
	var resp struct {
		Data APISet `json:"data"`
	}
	if err := c.getJSON(ctx, "/sets/"+url.PathEscape(id), nil, &resp); err != nil {
		return domain.CardSet{}, fmt.Errorf("pokemontcg: get set %s: %w", id, err)
	}
	return resp.Data.ToDomainSet(), nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	body, err := c.doGet(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// doGet performs a rate-limited GET, retrying network errors, 429s and 5xx
// responses with exponential backoff.
func (c *Client) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var lastErr error
	backoff := c.backoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, backoff); err != nil {
				return nil, err
			}
			backoff = min(backoff*2, maxBackoff)
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-Api-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		err = checkHTTPStatus(resp.StatusCode, body)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(resp.StatusCode) {
			return nil, err
		}
		if d := retryAfter(resp.Header.Get("Retry-After")); d > 0 {
			backoff = min(d, maxBackoff)
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// checkHTTPStatus maps non-2xx status codes to domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	snippet := string(body)
	if len(snippet) > 256 {
		snippet = snippet[:256]
	}
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, snippet)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, snippet)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, snippet)
	default:
		if statusCode >= 500 {
			return fmt.Errorf("%w: HTTP %d: %s", domain.ErrSourceUnavailable, statusCode, snippet)
		}
		return fmt.Errorf("HTTP %d: %s", statusCode, snippet)
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsNotFound reports whether err came from a 404.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
