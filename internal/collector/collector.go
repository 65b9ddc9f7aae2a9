package collector

import (
	"context"
	"errors"
	"sync"
	"time"

	"CCLSentinel/internal/model"
)

// ErrTransport is the failure MockFetcher returns for scripted failures.
var ErrTransport = errors.New("transport failure")

// MockCall records one FetchSeries invocation.
type MockCall struct {
	Symbol  string
	Timeout time.Duration // remaining time until the context deadline, 0 if none
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	// Series maps symbol to the series served for it.
	Series map[string]model.PriceSeries
	// Failures maps symbol to the number of leading calls that fail with
	// ErrTransport; a negative count fails every call.
	Failures map[string]int

	mu    sync.Mutex
	calls []MockCall
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	m.mu.Lock()
	call := MockCall{Symbol: symbol}
	if dl, ok := ctx.Deadline(); ok {
		call.Timeout = time.Until(dl)
	}
	m.calls = append(m.calls, call)
	if n := m.Failures[symbol]; n != 0 {
		if n > 0 {
			m.Failures[symbol] = n - 1
		}
		m.mu.Unlock()
		return model.PriceSeries{}, ErrTransport
	}
	s, ok := m.Series[symbol]
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return model.PriceSeries{}, err
	}
	if !ok {
		return model.PriceSeries{}, ErrNoData
	}
	out := model.PriceSeries{Symbol: symbol}
	for _, p := range s.Points {
		if !start.IsZero() && p.Time.Before(start) {
			continue
		}
		if !end.IsZero() && !p.Time.Before(end) {
			continue
		}
		out.Points = append(out.Points, p)
	}
	if len(out.Points) == 0 {
		return model.PriceSeries{}, ErrNoData
	}
	return out, nil
}

// Calls returns the recorded invocations.
func (m *MockFetcher) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times symbol was requested.
func (m *MockFetcher) CallCount(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Symbol == symbol {
			n++
		}
	}
	return n
}
