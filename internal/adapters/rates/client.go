// Package rates implements the external exchange-rate provider client with
// optional local caching.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ledgerlink/exchange-bot/internal/apperrors"
	"github.com/ledgerlink/exchange-bot/internal/core/ports/clients"
	"github.com/shopspring/decimal"
)

// Client fetches conversion rates from an exchange-rates HTTP API of the
// common latest/historical shape: GET {endpoint}?base=A&symbols=B[&date=D]
// answering {"base":"A","date":"...","rates":{"B":0.93}}.
type Client struct {
	httpClient *http.Client
	cache      *Cache
}

type ratesResponse struct {
	Base  string                 `json:"base"`
	Date  string                 `json:"date"`
	Rates map[string]json.Number `json:"rates"`
}

// NewClient creates a new rate provider client. cache may be nil to disable
// caching entirely.
func NewClient(cache *Cache) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      cache,
	}
}

var _ clients.RateProvider = (*Client)(nil)

// Convert implements clients.RateProvider. Identical codes convert 1:1
// without a provider call.
func (c *Client) Convert(ctx context.Context, query clients.ConvertQuery) (decimal.Decimal, error) {
	from := strings.ToUpper(query.From)
	to := strings.ToUpper(query.To)
	if from == to {
		return query.Amount, nil
	}

	rate, err := c.rate(ctx, query, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return query.Amount.Mul(rate), nil
}

func (c *Client) rate(ctx context.Context, query clients.ConvertQuery, from, to string) (decimal.Decimal, error) {
	key := cacheKey(query.Endpoint, from, to, query.Date)
	if c.cache != nil && query.CacheTTL > 0 {
		if cached, ok := c.cache.Get(key, query.CacheTTL); ok {
			return cached, nil
		}
	}

	rate, err := c.fetchRate(ctx, query.Endpoint, from, to, query.Date)
	if err != nil {
		return decimal.Zero, err
	}

	if c.cache != nil && query.CacheTTL > 0 {
		// Cache write failures are not worth failing the conversion for.
		_ = c.cache.Put(key, rate)
	}
	return rate, nil
}

func (c *Client) fetchRate(ctx context.Context, endpoint, from, to, date string) (decimal.Decimal, error) {
	if endpoint == "" {
		return decimal.Zero, fmt.Errorf("%w: no rates endpoint configured", apperrors.ErrRateNotFound)
	}

	values := url.Values{}
	values.Set("base", from)
	values.Set("symbols", to)
	if date != "" {
		values.Set("date", date)
	}
	requestURL := endpoint
	if strings.Contains(endpoint, "?") {
		requestURL += "&" + values.Encode()
	} else {
		requestURL += "?" + values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build rates request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rates request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return decimal.Zero, fmt.Errorf("%w: %s to %s", apperrors.ErrRateNotFound, from, to)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rates API returned %s", resp.Status)
	}

	var payload ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode rates response: %w", err)
	}

	raw, ok := payload.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s to %s", apperrors.ErrRateNotFound, from, to)
	}
	rate, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("rates API returned unparsable rate %q: %w", raw.String(), err)
	}
	return rate, nil
}
