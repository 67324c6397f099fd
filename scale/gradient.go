package scale

import (
	"image/color"
	"math"
)

// A Gradient is a list of RGB stops, evenly spaced over [0.0, 1.0].
type Gradient [][]int

var (
	// http://www.perbang.dk/rgbgradient/
	DefaultGradient = Gradient{
		{0x00, 0x00, 0xE5}, // 0000E5
		{0x00, 0x5D, 0xE1}, // 005DE1
		{0x00, 0xBF, 0xA9}, // 00BFA9
		{0x00, 0xC2, 0x66}, // 00C266
		{0x00, 0xC5, 0x21}, // 00C521
		{0x25, 0xC9, 0x00}, // 25C900
		{0x6F, 0xCC, 0x00}, // 6FCC00
		{0xBB, 0xD0, 0x00}, // BBD000
		{0xD3, 0x9D, 0x00}, // D39D00
		{0xD7, 0x53, 0x00}, // D75300
		{0xDA, 0x06, 0x00}, // DA0600
	}

	// Sinking is red, level is grey, climbing is green.
	BilinearGradient = Gradient{
		{0xF5, 0x00, 0x2B},
		{0xA8, 0x00, 0x1C},
		{0x7C, 0x00, 0x0E},
		{0x70, 0x70, 0x70},
		{0x00, 0x6C, 0x03},
		{0x00, 0x98, 0x07},
		{0x00, 0xE5, 0x0B},
	}
)

// At returns the color at f, linearly interpolating between the two nearest stops. f is
// clamped to [0,1].
func (g Gradient) At(f float64) color.RGBA {
	if len(g) == 0 {
		return color.RGBA{0, 0, 0, 0xff}
	}
	if math.IsNaN(f) || f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	if len(g) == 1 {
		return rgb(g[0])
	}

	pos := f * float64(len(g)-1)
	i := int(pos)
	if i >= len(g)-1 {
		return rgb(g[len(g)-1])
	}
	frac := pos - float64(i)
	lerp := func(a, b int) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*frac))
	}
	return color.RGBA{
		R: lerp(g[i][0], g[i+1][0]),
		G: lerp(g[i][1], g[i+1][1]),
		B: lerp(g[i][2], g[i+1][2]),
		A: 0xff,
	}
}

func rgb(c []int) color.RGBA {
	return color.RGBA{uint8(c[0]), uint8(c[1]), uint8(c[2]), 0xff}
}
