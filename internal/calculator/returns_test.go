package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CCLSentinel/internal/model"
)

func TestToUSD(t *testing.T) {
	rate := model.RateSeries{Points: []model.Point{
		{Time: day(2024, 1, 1), Value: 10},
		{Time: day(2024, 1, 2), Value: 11},
	}}
	usd := ToUSD(series("AAA.BA", day(2024, 1, 1), 100, 110, 120), rate)

	require.Len(t, usd.Points, 3)
	assert.InDelta(t, 10.0, usd.Points[0].Value, 1e-9)
	assert.InDelta(t, 10.0, usd.Points[1].Value, 1e-9)
	assert.True(t, math.IsNaN(usd.Points[2].Value), "no rate for the third day")
}

func TestTotalReturn(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"flat", []float64{10, 10}, 0},
		{"down five", []float64{20, 19}, -5},
		{"skips missing endpoints", []float64{nan, 50, 75, nan}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TotalReturn(series("X.BA", day(2024, 1, 1), tt.values...))
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	assert.True(t, math.IsNaN(TotalReturn(series("X.BA", day(2024, 1, 1), nan, nan))))
	assert.True(t, math.IsInf(TotalReturn(series("X.BA", day(2024, 1, 1), 0, 5)), 1))
}

func TestRebase(t *testing.T) {
	out, err := Rebase(series("X.BA", day(2024, 1, 1), 0, 50, 75))
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Points[0].Value)
	assert.InDelta(t, 100.0, out.Points[1].Value, 1e-9)
	assert.InDelta(t, 150.0, out.Points[2].Value, 1e-9)

	_, err = Rebase(series("X.BA", day(2024, 1, 1), 0, 0, math.NaN(), 0))
	assert.ErrorIs(t, err, ErrNoValidBase)
}
