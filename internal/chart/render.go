// Package chart renders the bot's PNG charts.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"CCLSentinel/internal/model"
)

// ErrEmptyInput is returned when there is nothing to draw.
var ErrEmptyInput = errors.New("no data to chart")

const (
	barWidth   = 36
	barSpacing = 18
	minWidth   = 800
	panelH     = 480
	lineWidth  = 1100
	lineHeight = 550
	dateLayout = "2006-01-02"
)

var (
	colorGain = drawing.ColorFromHex("1f77b4")
	colorLoss = drawing.ColorFromHex("d62728")
)

// TopBottom draws two stacked bar panels: the topN best returns (descending)
// above the bottomN worst (ascending). Bars are labeled with display symbols.
func TopBottom(table model.ReturnTable, topN, bottomN int, start, end time.Time, normalize bool) ([]byte, error) {
	if table.Empty() {
		return nil, ErrEmptyInput
	}
	tag := " (USD vía CCL)"
	if normalize {
		tag = " (Base 100=ini, USD vía CCL)"
	}
	period := fmt.Sprintf(" | %s → %s", start.Format(dateLayout), end.Format(dateLayout))

	var panels []image.Image
	for _, p := range []struct {
		title   string
		entries []model.ReturnEntry
	}{
		{"Best Performing Tickers" + tag + period, table.Top(topN)},
		{"Worst Performing Tickers" + tag + period, table.Bottom(bottomN)},
	} {
		if len(p.entries) == 0 {
			continue
		}
		img, err := barPanel(p.title, p.entries)
		if err != nil {
			return nil, err
		}
		panels = append(panels, img)
	}
	if len(panels) == 0 {
		return nil, ErrEmptyInput
	}
	return stack(panels)
}

func barPanel(title string, entries []model.ReturnEntry) (image.Image, error) {
	bars := make([]gochart.Value, 0, len(entries))
	values := make([]float64, 0, len(entries))
	for _, e := range entries {
		color := colorGain
		if e.Return < 0 {
			color = colorLoss
		}
		bars = append(bars, gochart.Value{
			Label: model.DisplaySymbol(e.Symbol),
			Value: e.Return,
			Style: gochart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1},
		})
		values = append(values, e.Return)
	}
	lo, hi := valueRange(values, true)

	width := len(bars)*(barWidth+barSpacing) + 200
	if width < minWidth {
		width = minWidth
	}
	bc := gochart.BarChart{
		Title:        title,
		TitleStyle:   gochart.Style{FontSize: 11},
		Width:        width,
		Height:       panelH,
		BarWidth:     barWidth,
		BarSpacing:   barSpacing,
		UseBaseValue: true,
		BaseValue:    0,
		Background:   gochart.Style{Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		YAxis: gochart.YAxis{
			Name:  "Return (%)",
			Range: &gochart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f%%", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render bars: %w", err)
	}
	return png.Decode(&buf)
}

// USDLines draws one line per series over [start, end). With normalize the
// series are expected to be rebased to 100 already; only labels change.
func USDLines(series []model.PriceSeries, start, end time.Time, normalize bool) ([]byte, error) {
	var all []float64
	var lines []gochart.Series
	var names []string
	for _, s := range series {
		s = s.DropInvalid()
		if s.Len() == 0 {
			continue
		}
		ts := gochart.TimeSeries{Name: model.DisplaySymbol(s.Symbol)}
		for _, p := range s.Points {
			ts.XValues = append(ts.XValues, p.Time)
			ts.YValues = append(ts.YValues, p.Value)
			all = append(all, p.Value)
		}
		lines = append(lines, ts)
		names = append(names, ts.Name)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyInput
	}

	yName, tag := "USD", " – USD vía CCL"
	if normalize {
		yName, tag = "Índice (100=ini)", " – Normalizado (100=ini) vía CCL"
	}
	title := names[0]
	if len(names) > 1 {
		title = fmt.Sprintf("%s +%d", names[0], len(names)-1)
	}
	lo, hi := valueRange(all, false)

	c := gochart.Chart{
		Title:      title + tag,
		TitleStyle: gochart.Style{FontSize: 11},
		Width:      lineWidth,
		Height:     lineHeight,
		Background: gochart.Style{Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		XAxis: gochart.XAxis{
			Name:           "Fecha",
			ValueFormatter: gochart.TimeDateValueFormatter,
			Range:          &gochart.ContinuousRange{Min: timeValue(start), Max: timeValue(end)},
		},
		YAxis: gochart.YAxis{
			Name:  yName,
			Range: &gochart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: lines,
	}
	c.Elements = []gochart.Renderable{gochart.Legend(&c)}

	var buf bytes.Buffer
	if err := c.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render lines: %w", err)
	}
	return buf.Bytes(), nil
}

// valueRange pads [min, max] by 10% and never returns an empty range.
// withZero keeps 0 inside the range so bars have a visible base.
func valueRange(values []float64, withZero bool) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if withZero {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}
	span := hi - lo
	if span < 1e-9 {
		span = math.Max(math.Abs(hi), 1)
	}
	pad := span * 0.1
	if !withZero || lo < 0 {
		lo -= pad
	}
	if !withZero || hi > 0 || lo == 0 {
		hi += pad
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

func timeValue(t time.Time) float64 { return float64(t.UnixNano()) }

// stack draws the panels top to bottom on a white canvas and encodes a PNG.
func stack(panels []image.Image) ([]byte, error) {
	w, h := 0, 0
	for _, p := range panels {
		b := p.Bounds()
		if b.Dx() > w {
			w = b.Dx()
		}
		h += b.Dy()
	}
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	y := 0
	for _, p := range panels {
		b := p.Bounds()
		draw.Draw(canvas, image.Rect(0, y, b.Dx(), y+b.Dy()), p, b.Min, draw.Over)
		y += b.Dy()
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
