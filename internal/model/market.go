package model

import (
	"math"
	"time"
)

// Point is a single dated observation. A NaN Value marks a missing observation.
type Point struct {
	Time  time.Time
	Value float64
}

// Valid reports whether the point carries a finite value.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0)
}

// PriceSeries holds the daily closes of one symbol in one currency.
// Points are ordered by strictly increasing Time and may contain gaps.
type PriceSeries struct {
	Symbol string
	Points []Point
}

// Len returns the number of points in the series.
func (s PriceSeries) Len() int { return len(s.Points) }

// Clone returns a deep copy of the series.
func (s PriceSeries) Clone() PriceSeries {
	out := PriceSeries{Symbol: s.Symbol, Points: make([]Point, len(s.Points))}
	copy(out.Points, s.Points)
	return out
}

// DropInvalid returns a copy of the series without NaN or infinite points.
func (s PriceSeries) DropInvalid() PriceSeries {
	out := PriceSeries{Symbol: s.Symbol, Points: make([]Point, 0, len(s.Points))}
	for _, p := range s.Points {
		if p.Valid() {
			out.Points = append(out.Points, p)
		}
	}
	return out
}

// FirstValid returns the first finite point.
func (s PriceSeries) FirstValid() (Point, bool) {
	for _, p := range s.Points {
		if p.Valid() {
			return p, true
		}
	}
	return Point{}, false
}

// LastValid returns the last finite point.
func (s PriceSeries) LastValid() (Point, bool) {
	for i := len(s.Points) - 1; i >= 0; i-- {
		if s.Points[i].Valid() {
			return s.Points[i], true
		}
	}
	return Point{}, false
}

// RateSeries is the implied cross-rate: units of local currency per unit of
// reference currency, one point per calendar day (midnight UTC), forward-filled.
// Leading points before the first joint observation are NaN.
type RateSeries struct {
	Points []Point
}

// At returns the rate for the given UTC calendar day.
func (r RateSeries) At(day time.Time) (float64, bool) {
	if len(r.Points) == 0 {
		return math.NaN(), false
	}
	first := r.Points[0].Time
	if day.Before(first) {
		return math.NaN(), false
	}
	idx := int(day.Sub(first) / (24 * time.Hour))
	if idx >= len(r.Points) || !r.Points[idx].Time.Equal(day) {
		return math.NaN(), false
	}
	v := r.Points[idx].Value
	return v, !math.IsNaN(v)
}

// Defined returns the points from the first defined rate onwards.
func (r RateSeries) Defined() []Point {
	for i, p := range r.Points {
		if !math.IsNaN(p.Value) {
			out := make([]Point, len(r.Points)-i)
			copy(out, r.Points[i:])
			return out
		}
	}
	return nil
}
