package panel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"CCLSentinel/internal/calculator"
	"CCLSentinel/internal/collector"
	"CCLSentinel/internal/model"
)

// Plot holds the USD series requested for charting.
type Plot struct {
	Series  []model.PriceSeries
	Omitted []string
}

// USDSeries converts each symbol to USD over [start, end) with missing
// values dropped. With normalize set every series is rebased to 100 at its
// first finite non-zero value. Symbols that cannot be fetched, or that have
// nothing left after cleanup, are listed in Plot.Omitted.
func (b *Builder) USDSeries(ctx context.Context, symbols []string, start, end time.Time, normalize bool) (*Plot, error) {
	rate, err := b.Rate(ctx, start, end)
	if err != nil {
		return nil, err
	}

	plot := &Plot{}
	var noBase []string
	for _, sym := range symbols {
		s, err := b.fetchWithRetry(ctx, sym, start, end)
		if err != nil {
			plot.Omitted = append(plot.Omitted, sym)
			continue
		}
		usd := calculator.ToUSD(s, rate).DropInvalid()
		if usd.Len() == 0 {
			log.Printf("[WARN] %s has no USD values in %s..%s", sym, start.Format("2006-01-02"), end.Format("2006-01-02"))
			plot.Omitted = append(plot.Omitted, sym)
			continue
		}
		if normalize {
			rebased, err := calculator.Rebase(usd)
			if err != nil {
				noBase = append(noBase, sym)
				plot.Omitted = append(plot.Omitted, sym)
				continue
			}
			usd = rebased
		}
		plot.Series = append(plot.Series, usd)
	}

	if len(plot.Series) == 0 {
		if len(noBase) > 0 {
			return nil, fmt.Errorf("%w: %s", calculator.ErrNoValidBase, strings.Join(model.DisplaySymbols(noBase), ", "))
		}
		return nil, fmt.Errorf("%w for %s", collector.ErrNoData, strings.Join(model.DisplaySymbols(symbols), ", "))
	}
	return plot, nil
}

// IsDataUnavailable reports whether err is one of the data-availability
// conditions of the panel pipeline, as opposed to an internal failure.
func IsDataUnavailable(err error) bool {
	var rateErr *RateError
	return errors.As(err, &rateErr) ||
		errors.Is(err, ErrNoDataDownloadable) ||
		errors.Is(err, collector.ErrNoData) ||
		errors.Is(err, calculator.ErrNoValidBase)
}
