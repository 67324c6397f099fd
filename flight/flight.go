// Package flight turns a track into a KMZ document: colored tracks, shadows, an animation,
// salient altitude marks, thermal/glide/dive analysis, time marks and chart images.
//
// The document skeleton is built synchronously. Chart images are rendered in the background,
// each one as a unit of a fanin.Barrier; ToKMZ returns once every image has either been
// attached to the document or has failed (and been logged).
package flight

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"image/color"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/skypies/flightkmz"
	"github.com/skypies/flightkmz/fanin"
	"github.com/skypies/flightkmz/kmldoc"
	"github.com/skypies/flightkmz/render"
	"github.com/skypies/flightkmz/scale"
)

var ErrAlreadyConverted = errors.New("flight: ToKMZ can only be called once per Flight")

type Flight struct {
	Track        *flightkmz.Track
	AltitudeMode kmldoc.AltitudeMode
	Color        color.RGBA
	Width        float64

	root    *kmldoc.KMZ
	barrier *fanin.Barrier
	sem     *semaphore.Weighted

	idOnce sync.Once
	id     string

	mu        sync.Mutex
	requested map[string]bool // hrefs of images already asked for
	styles    map[*scale.Scale][]*kmldoc.Style
	renders   int32
	failures  int32
}

func New(t *flightkmz.Track) *Flight {
	f := &Flight{
		Track:        t,
		AltitudeMode: kmldoc.ClampToGround,
		Color:        color.RGBA{0xff, 0x00, 0x00, 0xff},
		Width:        2,
		root:         kmldoc.NewKMZ(t.Filename),
		requested:    map[string]bool{},
	}
	if t.ElevationData {
		f.AltitudeMode = kmldoc.Absolute
	}
	f.root.Root.Open = true
	return f
}

// ID is a short identifier for this flight, stable for the life of the Flight.
func (f *Flight) ID() string {
	f.idOnce.Do(func() {
		h := fnv.New32a()
		fmt.Fprintf(h, "%s|%s|%d", f.Track.Filename, f.Track.PilotName, len(f.Track.Samples))
		if len(f.Track.Samples) > 0 {
			fmt.Fprintf(h, "|%d", f.Track.Start().UnixNano())
		}
		f.id = fmt.Sprintf("%05x", h.Sum32()&0xfffff)
	})
	return f.id
}

// Renders and Failures count the chart renders that were dispatched, and those that failed.
func (f *Flight) Renders() int  { return int(atomic.LoadInt32(&f.renders)) }
func (f *Flight) Failures() int { return int(atomic.LoadInt32(&f.failures)) }

// {{{ f.ToKMZ

// ToKMZ builds the document for the flight, and waits until all its chart images have been
// rendered (or have failed). ctx bounds the wait; if it expires, any renders that have not
// started are abandoned, and an error returned. Unset fields of g take their defaults.
func (f *Flight) ToKMZ(ctx context.Context, g *Globals) (*kmldoc.KMZ, error) {
	if err := f.Track.Validate(); err != nil {
		return nil, fmt.Errorf("ToKMZ: %v", err)
	}
	g = g.withDefaults(f.Track)

	f.mu.Lock()
	if f.barrier != nil {
		f.mu.Unlock()
		return nil, ErrAlreadyConverted
	}
	f.barrier = fanin.New(func() {
		g.Logger.Info("conversion complete",
			"flight", f.ID(),
			"renders", f.Renders(),
			"failures", f.Failures(),
			"files", len(f.root.Files()))
	})
	f.sem = semaphore.NewWeighted(g.MaxConcurrentRenders)
	f.mu.Unlock()

	if g.Color != (color.RGBA{}) {
		f.Color = g.Color
	}
	if g.Width > 0 {
		f.Width = g.Width
	}
	f.root.AddStyles(g.Stock.Styles()...)

	f.build(ctx, g)

	// Release the unit held for the synchronous build.
	f.barrier.End()

	if err := f.barrier.Wait(ctx); err != nil {
		return nil, fmt.Errorf("ToKMZ: %v", err)
	}
	g.Logger.Debugf("render stats for %s (in micros):-\n%s", f.ID(), f.barrier.Stats())

	return f.root, nil
}

func (f *Flight) build(ctx context.Context, g *Globals) {
	root := f.root.Root
	t := f.Track

	root.Add(f.Description(g), f.Snippet(g))
	if t.Declaration != nil {
		root.Add(f.TaskFolder(g, t.Declaration))
	}
	root.Add(f.TrackFolder(ctx, g))
	root.Add(f.ShadowFolder(g))
	root.Add(f.Animation(g))
	root.Add(f.PhotosFolder(g), f.XCFolder(g))
	root.Add(f.AltitudeMarksFolder(g))
	if t.ElevationData {
		if s := g.Scales.Get(KeyAltitude); s != nil {
			root.Add(f.Graph(ctx, g, t.Ele, s))
		}
	}
	root.Add(f.AnalysisFolder(g, Thermal, t.Thermals, g.Stock.Thermal))
	root.Add(f.AnalysisFolder(g, Glide, t.Glides, g.Stock.Glide))
	root.Add(f.AnalysisFolder(g, Dive, t.Dives, g.Stock.Dive))
	root.Add(f.TimeMarksFolder(g))
}

// }}}
// {{{ f.requestRender

// requestRender arranges for an image to be drawn and attached under href, at most once per
// href. It returns false if there is no renderer to draw it.
func (f *Flight) requestRender(ctx context.Context, g *Globals, href string, w, h int,
	draw func(render.Canvas) error) bool {
	if g.Renderer == nil {
		return false
	}

	f.mu.Lock()
	if f.requested[href] {
		f.mu.Unlock()
		return true
	}
	f.requested[href] = true
	f.mu.Unlock()

	atomic.AddInt32(&f.renders, 1)
	err := f.barrier.Go(href, func() {
		if err := f.sem.Acquire(ctx, 1); err != nil {
			f.renderFailed(g, href, err)
			return
		}
		defer f.sem.Release(1)

		data, err := renderImage(ctx, g.Renderer, w, h, draw)
		if err != nil {
			f.renderFailed(g, href, err)
			return
		}
		f.root.AddFile(href, data)
	})
	if err != nil {
		f.renderFailed(g, href, err)
	}
	return true
}

func (f *Flight) renderFailed(g *Globals, href string, err error) {
	atomic.AddInt32(&f.failures, 1)
	g.Logger.Warn("chart render failed", "flight", f.ID(), "href", href, "error", err)
}

func renderImage(ctx context.Context, r render.Renderer, w, h int,
	draw func(render.Canvas) error) ([]byte, error) {
	s, err := r.CreateSurface(ctx, w, h)
	if err != nil {
		return nil, fmt.Errorf("create surface: %w", err)
	}
	if err := draw(s); err != nil {
		return nil, fmt.Errorf("draw: %w", err)
	}
	return r.Encode(ctx, s)
}

// }}}

func scaleHref(title string) string {
	return "images/" + strings.ReplaceAll(title, " ", "_") + "_scale.png"
}

func (f *Flight) graphHref(title string) string {
	return "images/" + strings.ReplaceAll(title, " ", "_") + "_" + f.ID() + "_graph.png"
}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
