package calculator

import (
	"time"

	"CCLSentinel/internal/model"
)

// Day is one calendar day.
const Day = 24 * time.Hour

// NormalizeIndex converts every timestamp to UTC, dropping any zone
// information while keeping the same instants. The result is always a new
// slice; the input is never modified. Applying it twice equals applying it once.
func NormalizeIndex(index []time.Time) []time.Time {
	out := make([]time.Time, len(index))
	for i, t := range index {
		out[i] = t.UTC()
	}
	return out
}

// NormalizeSeries returns a copy of s with a normalized index.
func NormalizeSeries(s model.PriceSeries) model.PriceSeries {
	out := model.PriceSeries{Symbol: s.Symbol, Points: make([]model.Point, len(s.Points))}
	for i, p := range s.Points {
		out.Points[i] = model.Point{Time: p.Time.UTC(), Value: p.Value}
	}
	return out
}

// DayOf returns the UTC calendar day containing t, as midnight UTC.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// byDay keys the finite points of a normalized series by calendar day.
// When several observations fall on one day the last one wins.
func byDay(s model.PriceSeries) map[time.Time]float64 {
	out := make(map[time.Time]float64, len(s.Points))
	for _, p := range s.Points {
		if p.Valid() {
			out[DayOf(p.Time)] = p.Value
		}
	}
	return out
}
