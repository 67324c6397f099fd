package flight

import (
	"image/color"
	"time"

	"github.com/skypies/flightkmz"
	"github.com/skypies/flightkmz/log"
	"github.com/skypies/flightkmz/render"
	"github.com/skypies/flightkmz/scale"
)

// Keys into the scale registry, also accepted as Options.DefaultTrack.
const (
	KeyClimb      = "climb"
	KeyAltitude   = "altitude"
	KeyTEC        = "tec"
	KeySpeed      = "speed"
	KeyTime       = "time"
	KeySolidColor = "solid_color"
)

// TrackKeys lists the accepted values of Options.DefaultTrack.
var TrackKeys = []string{KeyClimb, KeyAltitude, KeyTEC, KeySpeed, KeyTime, KeySolidColor}

func IsTrackKey(k string) bool {
	for _, key := range TrackKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Options is what a caller (e.g. the command line) gets to say about a conversion.
type Options struct {
	TZOffset     int // Seconds east of UTC, for all displayed times
	GraphWidth   int
	GraphHeight  int
	DefaultTrack string
	FontName     string
	URL          string // Optional, linked from the description

	MaxConcurrentRenders int64
	TimeMarkStep         time.Duration
}

func DefaultOptions() Options {
	return Options{
		GraphWidth:           600,
		GraphHeight:          300,
		DefaultTrack:         KeyClimb,
		FontName:             "sans",
		MaxConcurrentRenders: 4,
		TimeMarkStep:         5 * time.Minute,
	}
}

// Globals is the shared context every part of a conversion reads from.
type Globals struct {
	TZOffset     int
	GraphWidth   int
	GraphHeight  int
	DefaultTrack string
	FontName     string
	URL          string

	Scales   scale.Registry
	Stock    *Stock
	Renderer render.Renderer // If nil, no chart images are produced
	Logger   *log.Logger

	MaxConcurrentRenders int64
	TimeMarkStep         time.Duration

	// If set, these override the Flight's own solid color and line width.
	Color color.RGBA
	Width float64
}

// NewGlobals sizes the scales to the track. If the default track has nothing to draw (e.g. it
// depends on elevation and the track has none), another track is shown instead.
func NewGlobals(t *flightkmz.Track, opts Options, r render.Renderer, l *log.Logger) *Globals {
	g := &Globals{
		TZOffset:             opts.TZOffset,
		GraphWidth:           opts.GraphWidth,
		GraphHeight:          opts.GraphHeight,
		DefaultTrack:         opts.DefaultTrack,
		FontName:             opts.FontName,
		URL:                  opts.URL,
		Scales:               NewScales(t, opts.TZOffset),
		Renderer:             r,
		Logger:               l,
		MaxConcurrentRenders: opts.MaxConcurrentRenders,
		TimeMarkStep:         opts.TimeMarkStep,
	}
	return g.withDefaults(t)
}

// withDefaults returns a copy of g with the unset fields filled in, so that hand built
// Globals convert the same way as those from NewGlobals.
func (g *Globals) withDefaults(t *flightkmz.Track) *Globals {
	ret := *g
	def := DefaultOptions()
	if ret.GraphWidth <= 0 {
		ret.GraphWidth = def.GraphWidth
	}
	if ret.GraphHeight <= 0 {
		ret.GraphHeight = def.GraphHeight
	}
	if ret.FontName == "" {
		ret.FontName = def.FontName
	}
	if ret.MaxConcurrentRenders <= 0 {
		ret.MaxConcurrentRenders = def.MaxConcurrentRenders
	}
	if ret.TimeMarkStep <= 0 {
		ret.TimeMarkStep = def.TimeMarkStep
	}
	if ret.Scales == nil {
		ret.Scales = NewScales(t, ret.TZOffset)
	}
	if ret.Stock == nil {
		ret.Stock = NewStock(ret.Scales.Get(KeyAltitude))
	}
	ret.DefaultTrack = visibleTrack(ret.DefaultTrack, ret.Scales)
	return &ret
}

// visibleTrack returns want if the Track folder will have a sub-folder for it, else the first
// of climb, altitude, speed and time that has one. The solid color track is always drawn.
func visibleTrack(want string, scales scale.Registry) string {
	if want == "" {
		want = DefaultOptions().DefaultTrack
	}
	if want == KeySolidColor || (IsTrackKey(want) && scales.Get(want) != nil) {
		return want
	}
	for _, k := range []string{KeyClimb, KeyAltitude, KeySpeed, KeyTime} {
		if scales.Get(k) != nil {
			return k
		}
	}
	return KeySolidColor
}

// UseGG sets the Renderer to draw charts with fogleman/gg, in g.FontName.
func (g *Globals) UseGG() error {
	r, err := render.NewGG(g.FontName)
	if err != nil {
		return err
	}
	g.Renderer = r
	return nil
}

// NewScales builds the registry from the track's bounds. Climb and total energy share one
// scale (and so one legend image); there are no altitude based scales without elevation data.
func NewScales(t *flightkmz.Track, tzOffset int) scale.Registry {
	r := scale.Registry{}

	if t.ElevationData {
		climb := flightkmz.NewBounds()
		for _, key := range []string{"climb", "tec"} {
			if b, exists := t.Bounds[key]; exists && !b.IsEmpty() {
				climb.Update(b.Min)
				climb.Update(b.Max)
			}
		}
		if !climb.IsEmpty() {
			cs := scale.NewZeroCentered("climb", climb.Min, climb.Max, scale.BilinearGradient)
			r[KeyClimb] = cs
			r[KeyTEC] = cs
		}
		if b := t.Bounds["ele"]; !b.IsEmpty() {
			r[KeyAltitude] = scale.New("altitude", b.Min, b.Max, scale.DefaultGradient)
		}
	}

	if b := t.Bounds["speed"]; !b.IsEmpty() {
		r[KeySpeed] = scale.New("ground speed", b.Min, b.Max, scale.DefaultGradient)
	}

	if len(t.Samples) > 0 {
		r[KeyTime] = scale.NewTime("time", t.Start(), t.Duration(), tzOffset)
	}

	return r
}

// Local converts a UTC time into the display timezone.
func (g *Globals) Local(t time.Time) time.Time {
	return t.UTC().Add(time.Duration(g.TZOffset) * time.Second)
}
