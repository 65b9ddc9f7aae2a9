package calculator

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"CCLSentinel/internal/model"
)

var (
	// ErrEmptySeries is returned when an input series has no usable points.
	ErrEmptySeries = errors.New("empty price series")
	// ErrNoOverlap is returned when the two quotes share no valid day.
	ErrNoOverlap = errors.New("no common dates between local and reference quotes")
)

// ComputeRate derives the implied cross-rate from two quotes of the same
// dual-listed instrument: local-currency price divided by reference-currency
// price on matching calendar days. The result has one point per day from the
// first observed day of either input through the last, restricted to
// [start, end) when those bounds are non-zero. Days without a joint
// observation carry the previous rate forward; days before the first joint
// observation are NaN.
//
// Non-positive or non-finite ratios are data-quality errors and are skipped.
func ComputeRate(local, reference model.PriceSeries, start, end time.Time) (model.RateSeries, error) {
	l := byDay(NormalizeSeries(local))
	r := byDay(NormalizeSeries(reference))
	if len(l) == 0 {
		return model.RateSeries{}, fmt.Errorf("%w: local %s", ErrEmptySeries, local.Symbol)
	}
	if len(r) == 0 {
		return model.RateSeries{}, fmt.Errorf("%w: reference %s", ErrEmptySeries, reference.Symbol)
	}

	first, last := span(l, r)
	if !start.IsZero() && first.Before(DayOf(start)) {
		first = DayOf(start)
	}
	if !end.IsZero() {
		limit := DayOf(end)
		if !end.Equal(limit) {
			limit = limit.Add(Day)
		}
		if !last.Before(limit) {
			last = limit.Add(-Day)
		}
	}

	ratios := make(map[time.Time]float64, len(l))
	for day, lv := range l {
		rv, ok := r[day]
		if !ok {
			continue
		}
		ratio := lv / rv
		if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			log.Printf("[WARN] discarding invalid rate %v on %s (%s=%v, %s=%v)",
				ratio, day.Format("2006-01-02"), local.Symbol, lv, reference.Symbol, rv)
			continue
		}
		ratios[day] = ratio
	}

	var out model.RateSeries
	current := math.NaN()
	defined := false
	// a joint observation before the window still seeds the fill
	var seedDay time.Time
	for day, v := range ratios {
		if day.Before(first) && (seedDay.IsZero() || day.After(seedDay)) {
			seedDay, current, defined = day, v, true
		}
	}
	for day := first; !day.After(last); day = day.Add(Day) {
		if v, ok := ratios[day]; ok {
			current = v
			defined = true
		}
		out.Points = append(out.Points, model.Point{Time: day, Value: current})
	}
	if !defined || len(out.Points) == 0 {
		return model.RateSeries{}, ErrNoOverlap
	}
	return out, nil
}

func span(series ...map[time.Time]float64) (first, last time.Time) {
	for _, s := range series {
		for day := range s {
			if first.IsZero() || day.Before(first) {
				first = day
			}
			if last.IsZero() || day.After(last) {
				last = day
			}
		}
	}
	return first, last
}
