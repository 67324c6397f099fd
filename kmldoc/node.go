// Package kmldoc is a small document model for KML scene graphs. Builders assemble a tree of
// Nodes; the tree is only turned into KML markup (via go-kml) when written out, so it can be
// built incrementally, and have files attached to it while images are still being rendered.
package kmldoc

import (
	"fmt"
	"image/color"
	"sync"
	"sync/atomic"
	"time"
)

// Node is one of the element kinds in this package; the set is closed.
type Node interface {
	isNode()
}

func (*Folder) isNode()        {}
func (*Placemark) isNode()     {}
func (*Style) isNode()         {}
func (*ScreenOverlay) isNode() {}
func (*LineString) isNode()    {}
func (*Point) isNode()         {}
func (Description) isNode()    {}
func (Snippet) isNode()        {}

// {{{ lazyID

var idCounter int64

// lazyID hands out a document-unique identifier the first time it is asked for one; after that
// it keeps returning the same value.
type lazyID struct {
	once sync.Once
	id   string
}

func (l *lazyID) get(prefix string) string {
	l.once.Do(func() {
		l.id = fmt.Sprintf("%s%d", prefix, atomic.AddInt64(&idCounter, 1))
	})
	return l.id
}

// }}}

type AltitudeMode int

const (
	ClampToGround AltitudeMode = iota
	Absolute
	RelativeToGround
)

// Coord is a KML coordinate; note the longitude comes first.
type Coord struct {
	Lon, Lat, Alt float64
}

// TimeSpan is optional on placemarks; zero ends are left open.
type TimeSpan struct {
	Begin, End time.Time
}

func (ts TimeSpan) IsZero() bool { return ts.Begin.IsZero() && ts.End.IsZero() }

type Description string
type Snippet string

// {{{ Folder

type Folder struct {
	lazyID
	Name     string
	Hidden   bool // <visibility>0</visibility>
	Open     bool
	StyleURL string
	Children []Node
}

func NewFolder(name string, children ...Node) *Folder {
	f := &Folder{Name: name}
	return f.Add(children...)
}

func (f *Folder) ID() string { return f.lazyID.get("folder") }

// Add appends children, skipping nils, so that optional subtrees can be passed straight in.
func (f *Folder) Add(children ...Node) *Folder {
	for _, c := range children {
		if isNil(c) {
			continue
		}
		f.Children = append(f.Children, c)
	}
	return f
}

// Hide sets the folder (and whatever its style says about its children) to invisible.
func (f *Folder) Hide() *Folder { f.Hidden = true; return f }

// }}}
// {{{ Placemark

type Placemark struct {
	lazyID
	Name      string
	Hidden    bool
	StyleURL  string
	TimeSpan  TimeSpan
	TimeStamp time.Time
	Children  []Node // Geometry, descriptions, inline styles
}

func NewPlacemark(name string, children ...Node) *Placemark {
	p := &Placemark{Name: name}
	for _, c := range children {
		if !isNil(c) {
			p.Children = append(p.Children, c)
		}
	}
	return p
}

func (p *Placemark) ID() string { return p.lazyID.get("placemark") }

// }}}
// {{{ Style

type ListItemType int

const (
	ListCheck ListItemType = iota
	ListCheckHideChildren
	ListRadioFolder
	ListCheckOffOnly
)

// Style is a shared style. Zero colors mean that sub-style is not emitted.
type Style struct {
	lazyID

	IconHref  string
	IconScale float64
	IconColor color.RGBA

	LabelScale float64
	LabelColor color.RGBA
	HasLabel   bool // LabelScale of zero is meaningful (hides labels)

	LineColor color.RGBA
	LineWidth float64

	PolyColor color.RGBA

	ListItemType ListItemType
	HasList      bool
}

func (s *Style) ID() string { return s.lazyID.get("style") }

// URL is the reference placemarks and folders use to pick up this style.
func (s *Style) URL() string { return "#" + s.ID() }

// }}}
// {{{ ScreenOverlay

type Units int

const (
	Fraction Units = iota // of the viewport (or image), in [0,1]
	Pixels
)

// Vec2 is a KML screen position or size.
type Vec2 struct {
	X, Y           float64
	XUnits, YUnits Units
}

type ScreenOverlay struct {
	Name      string
	Href      string // Relative to the KMZ root, e.g. images/climb_scale.png
	OverlayXY Vec2
	ScreenXY  Vec2
	Size      Vec2
	Hidden    bool
}

// }}}
// {{{ LineString, Point

type LineString struct {
	Coords       []Coord
	AltitudeMode AltitudeMode
	Extrude      bool
	Tessellate   bool
}

type Point struct {
	Coord
	AltitudeMode AltitudeMode
	Extrude      bool
}

// }}}

func isNil(n Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *Folder:
		return v == nil
	case *Placemark:
		return v == nil
	case *Style:
		return v == nil
	case *ScreenOverlay:
		return v == nil
	case *LineString:
		return v == nil
	case *Point:
		return v == nil
	}
	return false
}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
