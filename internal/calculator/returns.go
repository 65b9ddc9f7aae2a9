package calculator

import (
	"errors"
	"math"

	"CCLSentinel/internal/model"
)

// ErrNoValidBase is returned when a series has no finite non-zero value to rebase on.
var ErrNoValidBase = errors.New("no valid values to normalize")

// ToUSD divides every point of a local-currency series by the rate of the
// same calendar day. Points without a defined rate become NaN.
func ToUSD(s model.PriceSeries, rate model.RateSeries) model.PriceSeries {
	n := NormalizeSeries(s)
	for i, p := range n.Points {
		r, ok := rate.At(DayOf(p.Time))
		if !ok || !p.Valid() {
			n.Points[i].Value = math.NaN()
			continue
		}
		n.Points[i].Value = p.Value / r
	}
	return n
}

// TotalReturn is the percentage change between the first and last finite
// values of s. It is NaN when either endpoint is missing and infinite when
// the first value is zero.
func TotalReturn(s model.PriceSeries) float64 {
	first, ok := s.FirstValid()
	if !ok {
		return math.NaN()
	}
	last, _ := s.LastValid()
	return (last.Value/first.Value - 1) * 100
}

// Rebase scales a series so that its first finite non-zero value is 100.
func Rebase(s model.PriceSeries) (model.PriceSeries, error) {
	var base float64
	for _, p := range s.Points {
		if p.Valid() && p.Value != 0 {
			base = p.Value
			break
		}
	}
	if base == 0 {
		return model.PriceSeries{}, ErrNoValidBase
	}
	out := s.Clone()
	for i := range out.Points {
		out.Points[i].Value = out.Points[i].Value / base * 100
	}
	return out, nil
}
