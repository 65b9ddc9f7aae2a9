package panel

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CCLSentinel/internal/calculator"
	"CCLSentinel/internal/collector"
	"CCLSentinel/internal/model"
)

var art = time.FixedZone("ART", -3*3600)

func localSeries(symbol string, first time.Time, values ...float64) model.PriceSeries {
	s := model.PriceSeries{Symbol: symbol}
	for i, v := range values {
		s.Points = append(s.Points, model.Point{Time: first.AddDate(0, 0, i), Value: v})
	}
	return s
}

func window() (time.Time, time.Time) {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
}

func twoDayMock() *collector.MockFetcher {
	d0 := time.Date(2024, 1, 1, 0, 0, 0, 0, art)
	return &collector.MockFetcher{
		Series: map[string]model.PriceSeries{
			"AAA.BA":  localSeries("AAA.BA", d0, 100, 110),
			"BBB.BA":  localSeries("BBB.BA", d0, 200, 190),
			"YPFD.BA": localSeries("YPFD.BA", d0, 100, 110),
			"YPF":     localSeries("YPF", d0, 10, 10),
		},
		Failures: map[string]int{},
	}
}

func testBuilder(f collector.Fetcher) *Builder {
	return NewBuilder(f, Config{FetchTimeout: time.Second, RetryTimeout: 5 * time.Second, Concurrency: 4})
}

func TestBuildReturns_EndToEnd(t *testing.T) {
	start, end := window()
	b := testBuilder(twoDayMock())

	rate, err := b.Rate(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, rate.Points, 2)
	assert.InDelta(t, 10.0, rate.Points[0].Value, 1e-9)
	assert.InDelta(t, 11.0, rate.Points[1].Value, 1e-9)

	report, err := b.BuildReturns(context.Background(), []string{"AAA.BA", "BBB.BA"}, start, end)
	require.NoError(t, err)
	assert.Empty(t, report.Diagnostic)
	assert.Empty(t, report.Omitted)

	entries := report.Table.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "BBB.BA", entries[0].Symbol)
	assert.InDelta(t, (190.0/11/20-1)*100, entries[0].Return, 1e-9)
	assert.Equal(t, "AAA.BA", entries[1].Symbol)
	assert.InDelta(t, 0.0, entries[1].Return, 1e-9)
}

func TestBuildReturns_ConstantRate(t *testing.T) {
	start, end := window()
	m := twoDayMock()
	m.Series["YPFD.BA"] = localSeries("YPFD.BA", time.Date(2024, 1, 1, 0, 0, 0, 0, art), 100, 100)
	b := testBuilder(m)

	report, err := b.BuildReturns(context.Background(), []string{"AAA.BA", "BBB.BA"}, start, end)
	require.NoError(t, err)
	entries := report.Table.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "BBB.BA", entries[0].Symbol)
	assert.InDelta(t, -5.0, entries[0].Return, 1e-9)
	assert.Equal(t, "AAA.BA", entries[1].Symbol)
	assert.InDelta(t, 10.0, entries[1].Return, 1e-9)
}

func TestBuildReturns_RetryRecovers(t *testing.T) {
	start, end := window()
	m := twoDayMock()
	m.Failures["AAA.BA"] = 1
	b := testBuilder(m)

	report, err := b.BuildReturns(context.Background(), []string{"AAA.BA", "BBB.BA"}, start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Table.Len())
	assert.Empty(t, report.Diagnostic)
	assert.Equal(t, 2, m.CallCount("AAA.BA"))
	assert.Equal(t, 1, m.CallCount("BBB.BA"))

	var timeouts []time.Duration
	for _, c := range m.Calls() {
		if c.Symbol == "AAA.BA" {
			timeouts = append(timeouts, c.Timeout)
		}
	}
	require.Len(t, timeouts, 2)
	assert.LessOrEqual(t, timeouts[0], time.Second)
	assert.Greater(t, timeouts[1], time.Second, "retry pass uses the longer timeout")
}

func TestBuildReturns_PermanentFailureIsOmitted(t *testing.T) {
	start, end := window()
	m := twoDayMock()
	m.Failures["AAA.BA"] = -1
	b := testBuilder(m)

	report, err := b.BuildReturns(context.Background(), []string{"AAA.BA", "CCC.BA", "BBB.BA"}, start, end)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA.BA", "CCC.BA"}, report.Omitted)
	assert.Equal(t, "Tickers omitidos por error de descarga: AAA, CCC", report.Diagnostic)
	assert.Equal(t, 2, m.CallCount("AAA.BA"), "exactly one retry")
	assert.Equal(t, 2, m.CallCount("CCC.BA"), "empty result is retried too")

	entries := report.Table.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "BBB.BA", entries[0].Symbol)
}

func TestBuildReturns_NothingDownloadable(t *testing.T) {
	start, end := window()
	m := twoDayMock()
	m.Failures["AAA.BA"] = -1
	m.Failures["BBB.BA"] = -1
	b := testBuilder(m)

	_, err := b.BuildReturns(context.Background(), []string{"AAA.BA", "BBB.BA"}, start, end)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoDataDownloadable)
	assert.Contains(t, err.Error(), "AAA, BBB")
	assert.True(t, IsDataUnavailable(err))
}

func TestBuildReturns_RateFailure(t *testing.T) {
	start, end := window()
	m := twoDayMock()
	m.Failures["YPF"] = -1
	b := testBuilder(m)

	_, err := b.BuildReturns(context.Background(), []string{"AAA.BA"}, start, end)
	var rateErr *RateError
	require.True(t, errors.As(err, &rateErr), "got %v", err)
	assert.True(t, IsDataUnavailable(err))
}

func TestBuildReturns_NoOverlapWithRate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	m := &collector.MockFetcher{
		Series: map[string]model.PriceSeries{
			"AAA.BA":  localSeries("AAA.BA", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 100, 110),
			"YPFD.BA": localSeries("YPFD.BA", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 100, 110),
			"YPF":     localSeries("YPF", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 10, 10),
		},
		Failures: map[string]int{},
	}
	// The rate series is forward-filled over its own span only, so AAA's
	// February quotes have no rate at all.
	b := testBuilder(m)
	report, err := b.BuildReturns(context.Background(), []string{"AAA.BA"}, start, end)
	require.NoError(t, err)
	assert.True(t, report.Table.Empty())
}

func TestBuildReturns_SortedFiniteUnique(t *testing.T) {
	start, end := window()
	d0 := time.Date(2024, 1, 1, 0, 0, 0, 0, art)
	m := twoDayMock()
	m.Series["ZER.BA"] = localSeries("ZER.BA", d0, 0, 5)
	m.Series["UPP.BA"] = localSeries("UPP.BA", d0, 50, 80)
	b := testBuilder(m)

	report, err := b.BuildReturns(context.Background(), []string{"UPP.BA", "AAA.BA", "ZER.BA", "BBB.BA", "AAA.BA"}, start, end)
	require.NoError(t, err)

	entries := report.Table.Entries()
	seen := map[string]bool{}
	for i, e := range entries {
		assert.False(t, math.IsNaN(e.Return) || math.IsInf(e.Return, 0))
		assert.False(t, seen[e.Symbol], "duplicate %s", e.Symbol)
		seen[e.Symbol] = true
		if i > 0 {
			assert.LessOrEqual(t, entries[i-1].Return, e.Return)
		}
	}
	assert.False(t, seen["ZER.BA"], "zero first value yields a non-finite return")
	assert.Len(t, entries, 3)
}

func TestUSDSeries(t *testing.T) {
	start, end := window()
	b := testBuilder(twoDayMock())

	plot, err := b.USDSeries(context.Background(), []string{"AAA.BA", "BBB.BA"}, start, end, false)
	require.NoError(t, err)
	require.Len(t, plot.Series, 2)
	assert.InDelta(t, 10.0, plot.Series[0].Points[0].Value, 1e-9)
	assert.InDelta(t, 10.0, plot.Series[0].Points[1].Value, 1e-9)
	assert.InDelta(t, 20.0, plot.Series[1].Points[0].Value, 1e-9)
	assert.InDelta(t, 190.0/11, plot.Series[1].Points[1].Value, 1e-9)

	plot, err = b.USDSeries(context.Background(), []string{"BBB.BA"}, start, end, true)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, plot.Series[0].Points[0].Value, 1e-9)
	assert.InDelta(t, 190.0/11/20*100, plot.Series[0].Points[1].Value, 1e-9)
}

func TestUSDSeries_NoValidBase(t *testing.T) {
	start, end := window()
	m := twoDayMock()
	m.Series["ALUA.BA"] = localSeries("ALUA.BA", time.Date(2024, 1, 1, 0, 0, 0, 0, art), 0, 0)
	b := testBuilder(m)

	_, err := b.USDSeries(context.Background(), []string{"ALUA.BA"}, start, end, true)
	assert.ErrorIs(t, err, calculator.ErrNoValidBase)
	assert.Contains(t, err.Error(), "ALUA")
}

func TestUSDSeries_NothingLeft(t *testing.T) {
	start, end := window()
	b := testBuilder(twoDayMock())

	_, err := b.USDSeries(context.Background(), []string{"MISSING.BA"}, start, end, false)
	assert.ErrorIs(t, err, collector.ErrNoData)
	assert.True(t, IsDataUnavailable(err))
}
