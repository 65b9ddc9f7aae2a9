package collector

import (
	"context"
	"errors"
	"time"

	"CCLSentinel/internal/model"
)

// ErrNoData is returned when the provider has no observations for the request.
var ErrNoData = errors.New("no data")

// Fetcher retrieves the daily close series of one symbol over [start, end).
// Implementations always return a single series per symbol, whatever shape
// the upstream response has.
type Fetcher interface {
	FetchSeries(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error)
	Name() string
}
