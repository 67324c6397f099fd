// Package fpdf renders a printable one page summary of a flight: the altitude (or speed)
// profile, colored the way the KMZ track is, and a table of the thermals, glides and dives.
package fpdf

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/jung-kurt/gofpdf"

	"github.com/skypies/flightkmz"
	"github.com/skypies/flightkmz/flight"
	"github.com/skypies/flightkmz/scale"
)

var (
	ProfileOffsetU = 25.0
	ProfileOffsetV = 30.0
	ProfileWidth   = 170.0
	ProfileHeight  = 80.0

	TableRowHeight = 5.0
	TableRows      = 30 // Any more segments than this get left off the page
)

// The columns of the segment table; keys into Stats.Dict.
var tableColumns = []struct {
	Title string
	Key   string
	W     float64
}{
	{"Start", "start_time", 20},
	{"Duration", "duration", 20},
	{"Alt. change", "altitude_change", 22},
	{"Avg climb", "average_climb", 20},
	{"Distance", "distance", 20},
	{"Avg L/D", "average_ld", 18},
	{"Speed", "average_speed", 18},
	{"Drift", "drift_direction", 14},
}

// {{{ NewSummaryPdf

func NewSummaryPdf() *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "", 10)
	return pdf
}

// }}}
// {{{ DrawTitle

func DrawTitle(pdf *gofpdf.Fpdf, t *flightkmz.Track, g *flight.Globals) {
	title := t.PilotName
	if title == "" {
		title = t.Filename
	}
	if title == "" {
		title = "Flight"
	}
	start := g.Local(t.Start())
	sub := fmt.Sprintf("%s, %s", start.Format("2006-01-02 15:04"), t.Duration())
	if t.GliderType != "" {
		sub = t.GliderType + ", " + sub
	}

	pdf.SetFont("Arial", "B", 14)
	pdf.MoveTo(10, 10)
	pdf.Cell(100, 8, title)
	pdf.SetFont("Arial", "", 10)
	pdf.MoveTo(10, 18)
	pdf.Cell(100, 6, sub)
}

// }}}
// {{{ DrawProfile

// DrawProfile plots altitude against time, colored by climb rate. Without elevation data it
// plots ground speed instead, colored by itself.
func DrawProfile(pdf *gofpdf.Fpdf, t *flightkmz.Track, g *flight.Globals) {
	vals, unit := t.Ele, "%.0fm"
	colorBy := g.Scales.Get(flight.KeyClimb)
	series := t.Climb
	if !t.ElevationData || colorBy == nil {
		vals, unit = t.Speed, "%.0fkm/h"
		colorBy, series = g.Scales.Get(flight.KeySpeed), t.Speed
	}
	if len(vals) < 2 {
		return
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	yStep := gridStep(hi - lo)
	lo, hi = math.Floor(lo/yStep)*yStep, math.Ceil(hi/yStep)*yStep

	duration := t.T[len(t.T)-1]
	bg := BaseGrid{
		Fpdf:           pdf,
		OffsetU:        ProfileOffsetU,
		OffsetV:        ProfileOffsetV,
		W:              ProfileWidth,
		H:              ProfileHeight,
		MinX:           0,
		MaxX:           duration,
		MinY:           lo,
		MaxY:           hi,
		XGridlineEvery: gridStep(duration),
		YGridlineEvery: yStep,
		YTickFmt:       unit,
		Clip:           true,
	}
	if ts := g.Scales.Get(flight.KeyTime); ts != nil {
		bg.XTickLabel = ts.Format
	}
	bg.DrawGridlines()

	pdf.SetLineWidth(0.3)
	for i := 1; i < len(vals); i++ {
		c := scale.DefaultGradient.At(0)
		if colorBy != nil {
			c = colorBy.Color(series[i])
		}
		bg.Line(t.T[i-1], vals[i-1], t.T[i], vals[i], c)
	}
}

// gridStep picks a round step that splits span into no more than 10 pieces.
func gridStep(span float64) float64 {
	if span <= 0 {
		return 1
	}
	base := math.Pow(10, math.Floor(math.Log10(span))-1)
	for _, f := range []float64{1, 2, 5, 10, 20, 50} {
		if span/(base*f) <= 10 {
			return base * f
		}
	}
	return base * 100
}

// }}}
// {{{ DrawSegmentTable

// DrawSegmentTable lists the segments in time order, starting at vertical offset v. It returns
// how many rows it drew.
func DrawSegmentTable(pdf *gofpdf.Fpdf, stats []flight.Stats, g *flight.Globals, v float64) int {
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Start.Before(stats[j].Start) })

	pdf.SetFont("Arial", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.MoveTo(10, v)
	pdf.CellFormat(16, TableRowHeight, "Kind", "B", 0, "L", false, 0, "")
	for _, col := range tableColumns {
		pdf.CellFormat(col.W, TableRowHeight, col.Title, "B", 0, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "", 8)
	n := 0
	for _, st := range stats {
		if n >= TableRows {
			break
		}
		v += TableRowHeight
		d := st.Dict(g.TZOffset)
		pdf.MoveTo(10, v)
		pdf.CellFormat(16, TableRowHeight, st.Kind.String(), "", 0, "L", false, 0, "")
		for _, col := range tableColumns {
			val, _ := d.Get(col.Key)
			pdf.CellFormat(col.W, TableRowHeight, fmt.Sprintf("%v", val), "", 0, "R", false, 0, "")
		}
		n++
	}

	return n
}

// }}}

// {{{ WriteFlightSummary

func WriteFlightSummary(output io.Writer, t *flightkmz.Track, g *flight.Globals) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("WriteFlightSummary: %v", err)
	}

	pdf := NewSummaryPdf()
	DrawTitle(pdf, t, g)
	DrawProfile(pdf, t, g)
	DrawSegmentTable(pdf, flight.AllStats(t), g, ProfileOffsetV+ProfileHeight+15)

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(output)
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
