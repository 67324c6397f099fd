package render

import (
	"bytes"
	"context"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

var fontTTFs = map[string][]byte{
	"sans":      goregular.TTF,
	"goregular": goregular.TTF,
	"gobold":    gobold.TTF,
	"bold":      gobold.TTF,
	"gomono":    gomono.TTF,
	"mono":      gomono.TTF,
}

// FontNames lists the accepted font names.
func FontNames() []string {
	ret := []string{}
	for name := range fontTTFs {
		ret = append(ret, name)
	}
	return ret
}

// GG renders onto in-memory RGBA images with fogleman/gg.
type GG struct {
	font *truetype.Font
}

// NewGG parses the named font, one of the Go fonts; "" means "sans".
func NewGG(fontName string) (*GG, error) {
	if fontName == "" {
		fontName = "sans"
	}
	ttf, exists := fontTTFs[fontName]
	if !exists {
		return nil, fmt.Errorf("NewGG: unknown font '%s'", fontName)
	}
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("NewGG: %v", err)
	}
	return &GG{font: f}, nil
}

func (r *GG) CreateSurface(ctx context.Context, width, height int) (Surface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadSize, width, height)
	}
	s := &ggSurface{dc: gg.NewContext(width, height), font: r.font}
	s.SetFontSize(10)
	return s, nil
}

func (r *GG) Encode(ctx context.Context, s Surface) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gs, ok := s.(*ggSurface)
	if !ok {
		return nil, ErrForeignSurface
	}
	buf := bytes.Buffer{}
	if err := gs.dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("Encode: %v", err)
	}
	return buf.Bytes(), nil
}

type ggSurface struct {
	dc   *gg.Context
	font *truetype.Font
}

func (s *ggSurface) Width() int             { return s.dc.Width() }
func (s *ggSurface) Height() int            { return s.dc.Height() }
func (s *ggSurface) SetColor(c color.Color) { s.dc.SetColor(c) }
func (s *ggSurface) SetLineWidth(w float64) { s.dc.SetLineWidth(w) }

func (s *ggSurface) SetFontSize(points float64) {
	s.dc.SetFontFace(truetype.NewFace(s.font, &truetype.Options{Size: points}))
}

func (s *ggSurface) FillRect(x, y, w, h float64) {
	s.dc.DrawRectangle(x, y, w, h)
	s.dc.Fill()
}

func (s *ggSurface) StrokePath(pts []Pt) {
	if len(pts) < 2 {
		return
	}
	s.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		s.dc.LineTo(p.X, p.Y)
	}
	s.dc.Stroke()
}

func (s *ggSurface) FillText(str string, x, y, ax, ay float64) {
	s.dc.DrawStringAnchored(str, x, y, ax, ay)
}

func (s *ggSurface) MeasureText(str string) (float64, float64) {
	return s.dc.MeasureString(str)
}
