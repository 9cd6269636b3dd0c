// Package currency converts amounts between currencies using exchange rates
// fetched from Yahoo Finance. Conversion is best effort: any failure is
// reported as ErrUnavailable so callers can fall back to native amounts.
package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"budgeteer/internal/metrics"
)

const (
	// DefaultBaseURL is the Yahoo Finance v8 chart endpoint.
	DefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"
)

// ErrUnavailable is returned (wrapped) whenever a rate cannot be obtained.
var ErrUnavailable = errors.New("currency conversion unavailable")

// Converter converts amounts between ISO 4217 currencies.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

type cachedRate struct {
	rate      decimal.Decimal
	fetchedAt time.Time
}

// YahooConverter fetches exchange rates from Yahoo Finance and caches them
// for a configurable TTL. It is safe for concurrent use.
type YahooConverter struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	ttl        time.Duration
	now        func() time.Time

	mu    sync.RWMutex
	rates map[string]cachedRate // e.g. "USDEUR" -> 0.92 (1 USD = 0.92 EUR)
}

// NewYahooConverter creates a converter. A zero timeout disables the
// per-request deadline; a zero ttl disables caching.
func NewYahooConverter(httpClient *http.Client, baseURL string, timeout, ttl time.Duration) *YahooConverter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &YahooConverter{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		ttl:        ttl,
		now:        time.Now,
		rates:      make(map[string]cachedRate),
	}
}

// Rate returns how many units of to one unit of from buys.
func (c *YahooConverter) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	pair := from + to
	c.mu.RLock()
	cached, ok := c.rates[pair]
	c.mu.RUnlock()
	if ok && c.ttl > 0 && c.now().Sub(cached.fetchedAt) < c.ttl {
		return cached.rate, nil
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	rate, err := c.fetchRate(ctx, pair)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c.mu.Lock()
	c.rates[pair] = cachedRate{rate: rate, fetchedAt: c.now()}
	c.mu.Unlock()

	return rate, nil
}

// Convert converts amount from one currency to another, rounded to cents.
func (c *YahooConverter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	rate, err := c.Rate(ctx, from, to)
	if err != nil {
		metrics.FXConversions.WithLabelValues("unavailable").Inc()
		return decimal.Zero, err
	}
	metrics.FXConversions.WithLabelValues("ok").Inc()
	return amount.Mul(rate).Round(2), nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// fetchRate fetches the exchange rate for a currency pair.
// Yahoo Finance uses tickers like "USDEUR=X" for forex pairs.
func (c *YahooConverter) fetchRate(ctx context.Context, pair string) (decimal.Decimal, error) {
	ticker := pair + "=X"
	url := c.baseURL + "/" + ticker + "?interval=1d&range=1d"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return decimal.Zero, fmt.Errorf("building forex request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("forex http request for %s: %w", ticker, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("forex request for %s: unexpected status %d", ticker, resp.StatusCode)
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return decimal.Zero, fmt.Errorf("decoding forex response for %s: %w", ticker, err)
	}

	if chart.Chart.Error != nil {
		return decimal.Zero, fmt.Errorf("forex chart error for %s: %s: %s", ticker, chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return decimal.Zero, fmt.Errorf("no forex results for %s", ticker)
	}

	price := chart.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return decimal.Zero, fmt.Errorf("invalid forex rate for %s: %f", ticker, price)
	}
	return decimal.NewFromFloat(price), nil
}
