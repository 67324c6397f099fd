package flight

import (
	"fmt"
	"image/color"
	"math"

	geo "github.com/paulmach/go.geo"
	"github.com/paulmach/go.geo/reducers"

	"github.com/skypies/flightkmz/render"
	"github.com/skypies/flightkmz/scale"
)

const (
	ScaleChartWidth  = 50
	ScaleChartHeight = 200

	kChartBands       = 32
	kGraphMargin      = 5.0
	kGraphSimplifyPx  = 1.0 // Douglas-Peucker tolerance, in pixels
	kGraphTimeLabelPx = 80  // Rough spacing of the time axis labels
)

var (
	chartBackground = color.RGBA{0xff, 0xff, 0xff, 0xcc}
	chartGrid       = color.RGBA{0x9f, 0x9f, 0x9f, 0xff}
	chartText       = color.RGBA{0xff, 0xff, 0xff, 0xff}
	graphLine       = color.RGBA{0x40, 0x40, 0x40, 0xff}
	graphText       = color.RGBA{0x20, 0x20, 0x20, 0xff}
)

// {{{ drawScaleChart

// drawScaleChart draws a legend: a vertical color bar with the scale's range running bottom to
// top, and graduations labelled to the right of it.
func drawScaleChart(c render.Canvas, s *scale.Scale) error {
	w, h := float64(ScaleChartWidth), float64(ScaleChartHeight)

	labelW := float64(len(s.Format(s.Max)))
	if l := float64(len(s.Format(s.Min))); l > labelW {
		labelW = l
	}
	labelW = labelW*7 + 2
	barW := w - labelW
	if barW < 8 {
		barW = 8
	}

	c.SetColor(chartBackground)
	c.FillRect(0, 0, barW, h)

	bandH := h / kChartBands
	for i := 0; i < kChartBands; i++ {
		v := s.Min + (float64(i)+0.5)*(s.Max-s.Min)/kChartBands
		c.SetColor(s.Color(v))
		c.FillRect(0, float64(kChartBands-1-i)*bandH, barW, bandH)
	}

	c.SetLineWidth(1)
	c.SetFontSize(9)
	n := int(h / 25)
	for i := 0; i < n; i++ {
		y := float64(i) * h / float64(n)
		v := s.Min + float64(n-i)*(s.Max-s.Min)/float64(n)
		c.SetColor(chartGrid)
		c.StrokePath([]render.Pt{{X: 0, Y: y}, {X: barW + 1, Y: y}})
		c.SetColor(chartText)
		c.FillText(s.Format(v), barW+2, y, 0, 0)
	}

	return nil
}

// }}}
// {{{ drawGraphChart

// drawGraphChart plots values against elapsed seconds t. The polyline is simplified before it
// is drawn, since a long flight has far more samples than the chart has pixels.
func drawGraphChart(c render.Canvas, width, height int, t []float64, values []float64,
	s *scale.Scale, ts *scale.Scale) error {
	if len(t) != len(values) {
		return fmt.Errorf("drawGraphChart: %d times but %d values", len(t), len(values))
	}
	if len(t) < 2 {
		return fmt.Errorf("drawGraphChart: need at least two samples, got %d", len(t))
	}

	w, h := float64(width), float64(height)
	m := kGraphMargin
	plotW, plotH := w-2*m, h-2*m-14 // leave room for the time labels

	c.SetColor(chartBackground)
	c.FillRect(0, 0, w, h)

	tMin, tMax := t[0], t[len(t)-1]
	x := func(secs float64) float64 {
		if tMax == tMin {
			return m
		}
		return m + plotW*(secs-tMin)/(tMax-tMin)
	}
	lo, hi := math.Min(s.Min, s.Max), math.Max(s.Min, s.Max)
	y := func(v float64) float64 {
		if hi == lo {
			return m + plotH/2
		}
		return m + plotH*(1-(v-lo)/(hi-lo))
	}

	// Horizontal grid, with the value labels
	c.SetLineWidth(1)
	c.SetFontSize(9)
	for i := 0; i <= 4; i++ {
		v := lo + float64(i)*(hi-lo)/4
		c.SetColor(chartGrid)
		c.StrokePath([]render.Pt{{X: m, Y: y(v)}, {X: m + plotW, Y: y(v)}})
		c.SetColor(graphText)
		c.FillText(s.Format(v), m+2, y(v), 0, 1)
	}

	// Time axis labels
	if ts != nil {
		n := int(plotW / kGraphTimeLabelPx)
		for i := 0; i <= n && n > 0; i++ {
			secs := tMin + float64(i)*(tMax-tMin)/float64(n)
			c.FillText(ts.Format(secs), x(secs), h-m, float64(i)/float64(n), 0)
		}
	}

	path := geo.NewPath()
	for i := range t {
		path.Push(geo.NewPoint(x(t[i]), y(values[i])))
	}
	simple := reducers.DouglasPeucker(path, kGraphSimplifyPx)

	pts := []render.Pt{}
	for _, p := range simple.Points() {
		pts = append(pts, render.Pt{X: p.X(), Y: p.Y()})
	}
	c.SetColor(graphLine)
	c.SetLineWidth(1.5)
	c.StrokePath(pts)

	return nil
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
