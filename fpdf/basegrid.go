package fpdf

import (
	"fmt"
	"image/color"

	"github.com/jung-kurt/gofpdf"
)

// BaseGrid describes a grid we're going to plot over, and the location of its top-left corner
// in PDF space. Values in gridspace (x,y) are mapped into PDF space (u,v).
type BaseGrid struct {
	*gofpdf.Fpdf // Embed the thing we're writing to

	// The portion of PDF page space the grid will be drawn over (labels go outside of this)
	OffsetU float64 // where the origin (top-left) should be, in PDF coords
	OffsetV float64
	W, H    float64 // width and height of the grid, in PDF units (mm)

	// Control how (x,y) vals are mapped into (u,v) vals
	InvertX, InvertY       bool    // A grid's origin defaults to bottom-left; these bools flip that
	MinX, MinY, MaxX, MaxY float64 // the range of values that should be scaled onto the grid.
	Clip                   bool    // whether to skip lines that leave the grid

	// How to draw gridlines
	NoGridlines                    bool
	XGridlineEvery, YGridlineEvery float64              // From Min[XY] to Max[XY]
	XTickFmt, YTickFmt             string               // Passed a float64 via fmt.Sprintf; blank==none
	XTickLabel                     func(float64) string // Overrides XTickFmt

	LineColor color.Color // axis labels
}

// {{{ bg.U, V, UV

// the bools are whether the coords are out-of-bounds for the grid.
func (bg BaseGrid) U(x float64) (float64, bool) {
	xRatio := 0.5
	if bg.MaxX != bg.MinX {
		xRatio = (x - bg.MinX) / (bg.MaxX - bg.MinX)
	}
	if bg.InvertX {
		xRatio = 1.0 - xRatio
	}
	return bg.OffsetU + (xRatio * bg.W), xRatio < 0 || xRatio > 1
}

func (bg BaseGrid) V(y float64) (float64, bool) {
	yRatio := 0.5
	if bg.MaxY != bg.MinY {
		yRatio = (y - bg.MinY) / (bg.MaxY - bg.MinY)
	}
	if bg.InvertY {
		yRatio = 1.0 - yRatio
	}
	return bg.OffsetV + (bg.H - (yRatio * bg.H)), yRatio < 0 || yRatio > 1
}

func (bg BaseGrid) UV(x, y float64) (float64, float64, bool) {
	u, oobU := bg.U(x)
	v, oobV := bg.V(y)
	return u, v, (oobU || oobV)
}

// }}}
// {{{ bg.MoveBy, MoveTo, Line

func (bg BaseGrid) MoveBy(x, y float64) {
	currX, currY := bg.GetXY()
	bg.Fpdf.MoveTo(currX+x, currY+y)
}

// We submit coords in gridspace (e.g. x,y), and the grid transforms them into PDFspace.
func (bg BaseGrid) MoveTo(x, y float64) bool {
	u, v, oob := bg.UV(x, y)
	bg.Fpdf.MoveTo(u, v)
	return oob
}

func (bg BaseGrid) LineTo(x, y float64) bool {
	u, v, oob := bg.UV(x, y)
	bg.Fpdf.LineTo(u, v)
	return oob
}

// Line draws a single segment in color c; if the grid clips, it is only drawn when both ends
// are inside.
func (bg BaseGrid) Line(x1, y1, x2, y2 float64, c color.Color) {
	u1, v1, oob1 := bg.UV(x1, y1)
	u2, v2, oob2 := bg.UV(x2, y2)
	if bg.Clip && (oob1 || oob2) {
		return
	}
	setDrawColor(bg.Fpdf, c)
	bg.Fpdf.Line(u1, v1, u2, v2)
}

// }}}
// {{{ bg.DrawGridlines

func (bg BaseGrid) DrawGridlines() {
	bg.SetFont("Arial", "", 7)
	bg.SetLineWidth(0.1)
	bg.SetDrawColor(0xe0, 0xe0, 0xe0)

	if bg.XGridlineEvery > 0 {
		for x := bg.MinX; x <= bg.MaxX; x += bg.XGridlineEvery {
			if !bg.NoGridlines {
				bg.MoveTo(x, bg.MinY)
				bg.LineTo(x, bg.MaxY)
				bg.DrawPath("D")
			}

			label := ""
			if bg.XTickLabel != nil {
				label = bg.XTickLabel(x)
			} else if bg.XTickFmt != "" {
				label = fmt.Sprintf(bg.XTickFmt, x)
			}
			if label != "" {
				bg.MoveTo(x, bg.MinY)
				bg.MoveBy(-4, 1) // Offset in MM
				bg.SetTextColor(0, 0, 0)
				bg.Cell(30, 4, label)
			}
		}
	}

	if bg.YGridlineEvery > 0 {
		for y := bg.MinY; y <= bg.MaxY; y += bg.YGridlineEvery {
			if !bg.NoGridlines {
				bg.MoveTo(bg.MinX, y)
				bg.LineTo(bg.MaxX, y)
				bg.DrawPath("D")
			}
			if bg.YTickFmt != "" {
				bg.MoveTo(bg.MinX, y)
				bg.MoveBy(-19, -2)
				setTextColor(bg.Fpdf, bg.LineColor)
				bg.CellFormat(18, 4, fmt.Sprintf(bg.YTickFmt, y), "", 0, "R", false, 0, "")
			}
		}
	}
}

// }}}

func setDrawColor(pdf *gofpdf.Fpdf, c color.Color) {
	if c == nil {
		return
	}
	r, g, b, _ := c.RGBA()
	pdf.SetDrawColor(int(r>>8), int(g>>8), int(b>>8))
}

func setTextColor(pdf *gofpdf.Fpdf, c color.Color) {
	if c == nil {
		return
	}
	r, g, b, _ := c.RGBA()
	pdf.SetTextColor(int(r>>8), int(g>>8), int(b>>8))
}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
