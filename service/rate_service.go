package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	"webbank/logger"
	"webbank/model"

	"github.com/shopspring/decimal"
)

// RateProvider converts an amount in one currency into every supported
// currency. The aggregator assumes nothing about caching; implementations
// choose their own staleness bounds.
type RateProvider interface {
	Convert(ctx context.Context, amount decimal.Decimal, from model.Currency) (map[model.Currency]decimal.Decimal, error)
}

// HTTPRateProvider fetches live rates from an external provider. The rates
// are trusted as-is; conversion accuracy is the provider's problem.
type HTTPRateProvider struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPRateProvider(baseURL string) *HTTPRateProvider {
	return &HTTPRateProvider{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPRateProvider) Convert(ctx context.Context, amount decimal.Decimal, from model.Currency) (map[model.Currency]decimal.Decimal, error) {
	url := fmt.Sprintf("%s?base=%s", p.BaseURL, from)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not build rate request: %w", err)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	var payload struct {
		Rates map[model.Currency]decimal.Decimal `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("could not decode rate response: %w", err)
	}

	converted := make(map[model.Currency]decimal.Decimal, len(payload.Rates))
	for currency, rate := range payload.Rates {
		if !currency.IsValid() {
			continue
		}
		converted[currency] = amount.Mul(rate)
	}
	converted[from] = amount
	return converted, nil
}

// CachedRateProvider decorates another provider with a Redis TTL cache of
// per-unit rates. Staleness is bounded by the configured TTL.
type CachedRateProvider struct {
	inner RateProvider
	cache ICacheClient
	ttl   time.Duration
}

func NewCachedRateProvider(inner RateProvider, cache ICacheClient, ttl time.Duration) *CachedRateProvider {
	return &CachedRateProvider{inner: inner, cache: cache, ttl: ttl}
}

func (p *CachedRateProvider) Convert(ctx context.Context, amount decimal.Decimal, from model.Currency) (map[model.Currency]decimal.Decimal, error) {
	cacheKey := fmt.Sprintf("rates:%s", from)

	if cached, err := p.cache.Get(ctx, cacheKey).Result(); err == nil {
		var unit map[model.Currency]decimal.Decimal
		if err := json.Unmarshal([]byte(cached), &unit); err == nil {
			return scaleRates(unit, amount), nil
		}
	}

	unit, err := p.inner.Convert(ctx, decimal.NewFromInt(1), from)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(unit); err == nil {
		p.cache.Set(ctx, cacheKey, data, p.ttl)
	} else {
		logger.Log.WithError(err).Warn("Could not cache exchange rates")
	}

	return scaleRates(unit, amount), nil
}

func scaleRates(unit map[model.Currency]decimal.Decimal, amount decimal.Decimal) map[model.Currency]decimal.Decimal {
	out := make(map[model.Currency]decimal.Decimal, len(unit))
	for currency, rate := range unit {
		out[currency] = amount.Mul(rate)
	}
	return out
}
