package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CCLSentinel/internal/model"
)

func buenosAires(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Buenos_Aires")
	if err != nil {
		return time.FixedZone("ART", -3*3600)
	}
	return loc
}

func TestNormalizeIndex_ZoneAware(t *testing.T) {
	loc := buenosAires(t)
	in := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, loc),
		time.Date(2024, 1, 2, 0, 0, 0, 0, loc),
		time.Date(2024, 1, 3, 0, 0, 0, 0, loc),
	}
	out := NormalizeIndex(in)

	require.Len(t, out, 3)
	for i := range in {
		assert.Equal(t, time.UTC, out[i].Location())
		assert.True(t, out[i].Equal(in[i]), "instant changed at %d", i)
		assert.Equal(t, 3, out[i].Hour())
	}
	// input untouched
	assert.Equal(t, loc, in[0].Location())
}

func TestNormalizeIndex_NaiveIsCopied(t *testing.T) {
	in := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	out := NormalizeIndex(in)
	assert.Equal(t, in, out)

	out[0] = time.Time{}
	assert.Equal(t, 2024, in[0].Year(), "caller slice must not be shared")
}

func TestNormalizeIndex_Idempotent(t *testing.T) {
	loc := time.FixedZone("X", 5*3600+1800)
	in := []time.Time{
		time.Date(2023, 3, 1, 9, 30, 0, 0, loc),
		time.Date(2023, 3, 2, 9, 30, 0, 0, loc),
	}
	once := NormalizeIndex(in)
	twice := NormalizeIndex(once)
	assert.Equal(t, once, twice)
}

func TestNormalizeSeries_DoesNotMutate(t *testing.T) {
	loc := buenosAires(t)
	s := model.PriceSeries{Symbol: "ALUA.BA", Points: []model.Point{
		{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, loc), Value: 1},
	}}
	n := NormalizeSeries(s)
	n.Points[0].Value = 99

	assert.Equal(t, 1.0, s.Points[0].Value)
	assert.Equal(t, loc, s.Points[0].Time.Location())
	assert.Equal(t, time.UTC, n.Points[0].Time.Location())
}

func TestDayOf(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2024, 1, 2, 9, 30, 0, 0, ny), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 1, 2, 21, 0, 0, 0, ny), time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DayOf(tt.in), "DayOf(%v)", tt.in)
	}
}
