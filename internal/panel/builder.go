package panel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"CCLSentinel/internal/calculator"
	"CCLSentinel/internal/collector"
	"CCLSentinel/internal/metrics"
	"CCLSentinel/internal/model"
)

// ErrNoDataDownloadable is returned when no symbol could be fetched at all.
var ErrNoDataDownloadable = errors.New("no prices could be downloaded")

// RateError reports that the implied rate could not be computed for a window.
type RateError struct {
	Err error
}

func (e *RateError) Error() string { return "implied rate unavailable: " + e.Err.Error() }

func (e *RateError) Unwrap() error { return e.Err }

// Config tunes the provider calls made by a Builder.
type Config struct {
	FetchTimeout     time.Duration // per-call timeout on the first pass
	RetryTimeout     time.Duration // per-call timeout on the retry pass
	Concurrency      int           // concurrent provider calls per pass
	LocalReference   string        // local-currency quote of the dual-listed instrument
	ForeignReference string        // reference-currency quote of the same instrument
}

// DefaultConfig mirrors the provider defaults: 10s first pass, 30s retry.
func DefaultConfig() Config {
	return Config{
		FetchTimeout:     10 * time.Second,
		RetryTimeout:     30 * time.Second,
		Concurrency:      8,
		LocalReference:   "YPFD.BA",
		ForeignReference: "YPF",
	}
}

// Builder converts local-currency price panels to USD through the implied rate.
type Builder struct {
	Fetcher collector.Fetcher
	cfg     Config
}

// NewBuilder creates a Builder; zero fields of cfg take DefaultConfig values.
func NewBuilder(f collector.Fetcher, cfg Config) *Builder {
	def := DefaultConfig()
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.RetryTimeout <= 0 {
		cfg.RetryTimeout = def.RetryTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.LocalReference == "" {
		cfg.LocalReference = def.LocalReference
	}
	if cfg.ForeignReference == "" {
		cfg.ForeignReference = def.ForeignReference
	}
	return &Builder{Fetcher: f, cfg: cfg}
}

// Report is the outcome of BuildReturns.
type Report struct {
	Table model.ReturnTable
	// Omitted lists the symbols that failed both passes, in request order.
	Omitted []string
	// Diagnostic is the human-readable omission message, empty when nothing was omitted.
	Diagnostic string
}

// OmissionDiagnostic renders the omitted-symbols message in display form.
func OmissionDiagnostic(omitted []string) string {
	if len(omitted) == 0 {
		return ""
	}
	return "Tickers omitidos por error de descarga: " + strings.Join(model.DisplaySymbols(omitted), ", ")
}

// BuildReturns computes the USD total return of every symbol over [start, end).
// Symbols failing both fetch passes are omitted and reported; only a panel
// with no successful symbol at all is an error.
func (b *Builder) BuildReturns(ctx context.Context, symbols []string, start, end time.Time) (*Report, error) {
	began := time.Now()
	defer func() { metrics.PanelDuration.Observe(time.Since(began).Seconds()) }()

	series, omitted := b.fetchPanel(ctx, symbols, start, end)
	if len(omitted) > 0 {
		metrics.OmittedSymbols.Add(float64(len(omitted)))
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDataDownloadable, strings.Join(model.DisplaySymbols(omitted), ", "))
	}

	rate, err := b.Rate(ctx, start, end)
	if err != nil {
		return nil, err
	}

	entries := make([]model.ReturnEntry, 0, len(series))
	for _, s := range series {
		usd := calculator.ToUSD(s, rate)
		entries = append(entries, model.ReturnEntry{Symbol: s.Symbol, Return: calculator.TotalReturn(usd)})
	}

	report := &Report{
		Table:      model.NewReturnTable(entries),
		Omitted:    omitted,
		Diagnostic: OmissionDiagnostic(omitted),
	}
	log.Printf("[INFO] return panel %s..%s: %d symbols ranked, %d omitted",
		start.Format("2006-01-02"), end.Format("2006-01-02"), report.Table.Len(), len(omitted))
	return report, nil
}

// Rate fetches both reference quotes and computes the implied rate for [start, end).
func (b *Builder) Rate(ctx context.Context, start, end time.Time) (model.RateSeries, error) {
	local, err := b.fetchWithRetry(ctx, b.cfg.LocalReference, start, end)
	if err != nil {
		return model.RateSeries{}, &RateError{Err: err}
	}
	foreign, err := b.fetchWithRetry(ctx, b.cfg.ForeignReference, start, end)
	if err != nil {
		return model.RateSeries{}, &RateError{Err: err}
	}
	rate, err := calculator.ComputeRate(local, foreign, start, end)
	if err != nil {
		return model.RateSeries{}, &RateError{Err: err}
	}
	return rate, nil
}

// fetchPanel runs the first pass over every symbol and one retry pass over
// the failures. Successful series come back in request order.
func (b *Builder) fetchPanel(ctx context.Context, symbols []string, start, end time.Time) ([]model.PriceSeries, []string) {
	results := make([]model.PriceSeries, len(symbols))
	ok := make([]bool, len(symbols))

	all := make([]int, len(symbols))
	for i := range symbols {
		all[i] = i
	}
	b.pass(ctx, "first", symbols, all, start, end, b.cfg.FetchTimeout, results, ok)

	var failed []int
	for i := range symbols {
		if !ok[i] {
			failed = append(failed, i)
		}
	}
	if len(failed) > 0 {
		log.Printf("[INFO] retrying %d symbols with %v timeout", len(failed), b.cfg.RetryTimeout)
		b.pass(ctx, "retry", symbols, failed, start, end, b.cfg.RetryTimeout, results, ok)
	}

	var series []model.PriceSeries
	var omitted []string
	for i, sym := range symbols {
		if ok[i] {
			series = append(series, results[i])
		} else {
			omitted = append(omitted, sym)
		}
	}
	return series, omitted
}

// pass fetches symbols[idx] with bounded concurrency. Each goroutine writes
// only its own slot of results and ok.
func (b *Builder) pass(ctx context.Context, name string, symbols []string, idx []int, start, end time.Time,
	timeout time.Duration, results []model.PriceSeries, ok []bool) {
	var g errgroup.Group
	g.SetLimit(b.cfg.Concurrency)
	for _, i := range idx {
		g.Go(func() error {
			s, err := b.fetchOne(ctx, name, symbols[i], start, end, timeout)
			if err != nil {
				return nil
			}
			results[i], ok[i] = s, true
			return nil
		})
	}
	_ = g.Wait()
}

func (b *Builder) fetchOne(ctx context.Context, pass, symbol string, start, end time.Time, timeout time.Duration) (model.PriceSeries, error) {
	metrics.FetchAttempts.WithLabelValues(pass).Inc()
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s, err := b.Fetcher.FetchSeries(callCtx, symbol, start, end)
	if err == nil && s.DropInvalid().Len() == 0 {
		err = collector.ErrNoData
	}
	if err != nil {
		metrics.FetchFailures.WithLabelValues(pass).Inc()
		log.Printf("[WARN] fetch %s failed (%s pass): %v", symbol, pass, err)
		return model.PriceSeries{}, err
	}
	s.Symbol = symbol
	return s, nil
}

func (b *Builder) fetchWithRetry(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	s, err := b.fetchOne(ctx, "first", symbol, start, end, b.cfg.FetchTimeout)
	if err == nil {
		return s, nil
	}
	return b.fetchOne(ctx, "retry", symbol, start, end, b.cfg.RetryTimeout)
}
