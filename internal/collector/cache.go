package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"CCLSentinel/internal/model"
)

// CachingFetcher memoizes successful fetches per (symbol, start, end).
// Failures are never cached so a retry always reaches the provider.
type CachingFetcher struct {
	Fetcher Fetcher

	mu      sync.RWMutex
	entries map[string]model.PriceSeries
}

// NewCachingFetcher wraps f with an in-memory cache.
func NewCachingFetcher(f Fetcher) *CachingFetcher {
	return &CachingFetcher{Fetcher: f, entries: make(map[string]model.PriceSeries)}
}

func (c *CachingFetcher) Name() string { return c.Fetcher.Name() + "+cache" }

func cacheKey(symbol string, start, end time.Time) string {
	return fmt.Sprintf("%s|%d|%d", symbol, start.Unix(), end.Unix())
}

func (c *CachingFetcher) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	key := cacheKey(symbol, start, end)
	c.mu.RLock()
	s, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return s.Clone(), nil
	}

	s, err := c.Fetcher.FetchSeries(ctx, symbol, start, end)
	if err != nil {
		return model.PriceSeries{}, err
	}
	c.mu.Lock()
	c.entries[key] = s.Clone()
	c.mu.Unlock()
	return s, nil
}

// Len returns the number of cached series.
func (c *CachingFetcher) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge drops every cached series and returns how many were dropped.
func (c *CachingFetcher) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]model.PriceSeries)
	return n
}

// LimitedFetcher throttles calls to the wrapped provider.
type LimitedFetcher struct {
	Fetcher Fetcher
	Limiter *rate.Limiter
}

// NewLimitedFetcher allows rps requests per second with a burst of burst.
// A non-positive rps disables throttling.
func NewLimitedFetcher(f Fetcher, rps float64, burst int) *LimitedFetcher {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &LimitedFetcher{Fetcher: f, Limiter: rate.NewLimiter(limit, burst)}
}

func (l *LimitedFetcher) Name() string { return l.Fetcher.Name() }

func (l *LimitedFetcher) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	if err := l.Limiter.Wait(ctx); err != nil {
		return model.PriceSeries{}, fmt.Errorf("rate limit %s: %w", symbol, err)
	}
	return l.Fetcher.FetchSeries(ctx, symbol, start, end)
}
