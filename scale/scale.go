// Package scale maps the values of a track series onto colors, both as a small number of
// discrete buckets (for coloring track segments) and continuously (for chart images).
package scale

import (
	"fmt"
	"image/color"
	"math"
	"time"
)

const DefaultBuckets = 16

type Kind int

const (
	Linear       Kind = iota
	ZeroCentered      // negative values take the lower half of the gradient, positive the upper
)

// A Scale owns a closed range [Min,Max]. Min may be greater than Max, in which case the scale
// runs backwards: larger values map to lower buckets.
type Scale struct {
	Title    string
	Min, Max float64
	Kind
	Gradient
	Buckets int

	// Label formats a value for chart axes; defaults to a rounded number.
	Label func(float64) string
}

func New(title string, min, max float64, g Gradient) *Scale {
	return &Scale{
		Title:    title,
		Min:      min,
		Max:      max,
		Kind:     Linear,
		Gradient: g,
		Buckets:  DefaultBuckets,
	}
}

func NewZeroCentered(title string, min, max float64, g Gradient) *Scale {
	s := New(title, min, max, g)
	s.Kind = ZeroCentered
	return s
}

// NewTime builds the scale for elapsed seconds over a flight of the given duration. It runs
// backwards, so the end of the flight takes the start of the gradient. Labels are local times
// of day.
func NewTime(title string, start time.Time, duration time.Duration, tzOffsetSecs int) *Scale {
	s := New(title, duration.Seconds(), 0, DefaultGradient)
	s.Label = func(v float64) string {
		t := start.Add(time.Duration(v*float64(time.Second)) + time.Duration(tzOffsetSecs)*time.Second)
		return t.UTC().Format("15:04")
	}
	return s
}

func (s *Scale) String() string {
	return fmt.Sprintf("%s[%.1f,%.1f]/%d", s.Title, s.Min, s.Max, s.Buckets)
}

// Normalize maps v onto [0.0, 1.0], clamping values outside the range.
func (s *Scale) Normalize(v float64) float64 {
	if s.Min == s.Max || math.IsNaN(v) {
		return 0.0
	}

	var f float64
	switch s.Kind {
	case ZeroCentered:
		switch {
		case v < 0 && s.Min < 0:
			f = 0.5 - 0.5*v/s.Min
		case v < 0:
			f = 0.0
		case v > 0 && s.Max > 0:
			f = 0.5 + 0.5*v/s.Max
		case v > 0:
			f = 1.0
		default:
			f = 0.5
		}
	default:
		f = (v - s.Min) / (s.Max - s.Min)
	}

	return math.Max(0.0, math.Min(1.0, f))
}

// Discretize maps v onto a bucket in [0, Buckets).
func (s *Scale) Discretize(v float64) int {
	n := s.buckets()
	i := int(s.Normalize(v) * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Color is continuous in v; it ignores the buckets.
func (s *Scale) Color(v float64) color.RGBA {
	return s.Gradient.At(s.Normalize(v))
}

// Colors returns one color per bucket, so Colors()[s.Discretize(v)] is the color for v.
func (s *Scale) Colors() []color.RGBA {
	n := s.buckets()
	ret := make([]color.RGBA, n)
	for i := range ret {
		if n == 1 {
			ret[i] = s.Gradient.At(0)
			continue
		}
		ret[i] = s.Gradient.At(float64(i) / float64(n-1))
	}
	return ret
}

func (s *Scale) Format(v float64) string {
	if s.Label != nil {
		return s.Label(v)
	}
	return fmt.Sprintf("%.0f", v)
}

func (s *Scale) buckets() int {
	if s.Buckets <= 0 {
		return DefaultBuckets
	}
	return s.Buckets
}

// A Registry holds the configured scale for each series; a missing entry means that series
// is not rendered.
type Registry map[string]*Scale

func (r Registry) Get(name string) *Scale {
	if r == nil {
		return nil
	}
	return r[name]
}
