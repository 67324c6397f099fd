// Package render is the 2-D drawing contract chart builders work against, plus a raster
// implementation of it on top of gg.
package render

import (
	"context"
	"errors"
	"image/color"
)

var (
	ErrForeignSurface = errors.New("render: surface was not created by this renderer")
	ErrBadSize        = errors.New("render: surface dimensions must be positive")
)

// Pt is a point in surface pixels; the origin is top left.
type Pt struct {
	X, Y float64
}

// Canvas is the set of drawing operations charts may use.
type Canvas interface {
	SetColor(c color.Color)
	SetLineWidth(w float64)
	SetFontSize(points float64)

	FillRect(x, y, w, h float64)
	StrokePath(pts []Pt)

	// FillText draws s so that the point (ax,ay) of its bounding box sits at (x,y); ax and ay
	// are fractions, so (0,0) is top left and (0.5,0.5) is centered.
	FillText(s string, x, y, ax, ay float64)
	MeasureText(s string) (w, h float64)
}

type Surface interface {
	Canvas
	Width() int
	Height() int
}

// Renderer creates surfaces and encodes them as PNG bytes. Implementations must be safe for
// concurrent use; a single surface is only ever used by one goroutine.
type Renderer interface {
	CreateSurface(ctx context.Context, width, height int) (Surface, error)
	Encode(ctx context.Context, s Surface) ([]byte, error)
}
