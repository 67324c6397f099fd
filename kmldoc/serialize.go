package kmldoc

import (
	"encoding/xml"
	"fmt"
	"image/color"

	kml "github.com/twpayne/go-kml"
)

// element is the one place that knows how every Node kind maps onto KML.
func element(n Node) (kml.Element, error) {
	switch v := n.(type) {
	case *Folder:
		return folderElement(v)
	case *Placemark:
		return placemarkElement(v)
	case *Style:
		return styleElement(v), nil
	case *ScreenOverlay:
		return overlayElement(v), nil
	case *LineString:
		return lineStringElement(v), nil
	case *Point:
		return pointElement(v), nil
	case Description:
		return kml.Description(string(v)), nil
	case Snippet:
		return kml.Snippet(string(v)), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownNode, n)
}

func elements(nodes []Node) ([]kml.Element, error) {
	ret := []kml.Element{}
	for _, n := range nodes {
		el, err := element(n)
		if err != nil {
			return nil, err
		}
		ret = append(ret, el)
	}
	return ret, nil
}

func withID(el *kml.CompoundElement, id string) *kml.CompoundElement {
	el.Attr = append(el.Attr, xml.Attr{Name: xml.Name{Local: "id"}, Value: id})
	return el
}

// splitText pulls the Snippet and description out of a feature's children, in that order;
// KML wants them ahead of the time primitive and styleUrl. els are the elements of nodes.
func splitText(nodes []Node, els []kml.Element) (text, rest []kml.Element) {
	snippets, descs := []kml.Element{}, []kml.Element{}
	for i, n := range nodes {
		switch n.(type) {
		case Snippet:
			snippets = append(snippets, els[i])
		case Description:
			descs = append(descs, els[i])
		default:
			rest = append(rest, els[i])
		}
	}
	return append(snippets, descs...), rest
}

func folderElement(f *Folder) (kml.Element, error) {
	children, err := elements(f.Children)
	if err != nil {
		return nil, fmt.Errorf("folder '%s': %v", f.Name, err)
	}

	el := kml.Folder(kml.Name(f.Name))
	if f.Hidden {
		el.Add(kml.Visibility(false))
	}
	if f.Open {
		el.Add(kml.Open(true))
	}
	text, rest := splitText(f.Children, children)
	el.Add(text...)
	if f.StyleURL != "" {
		el.Add(kml.StyleURL(f.StyleURL))
	}
	el.Add(rest...)

	return withID(el, f.ID()), nil
}

func placemarkElement(p *Placemark) (kml.Element, error) {
	children, err := elements(p.Children)
	if err != nil {
		return nil, fmt.Errorf("placemark '%s': %v", p.Name, err)
	}

	text, rest := splitText(p.Children, children)

	el := kml.Placemark()
	if p.Name != "" {
		el.Add(kml.Name(p.Name))
	}
	if p.Hidden {
		el.Add(kml.Visibility(false))
	}
	el.Add(text...)
	if !p.TimeSpan.IsZero() {
		span := kml.TimeSpan()
		if !p.TimeSpan.Begin.IsZero() {
			span.Add(kml.Begin(p.TimeSpan.Begin))
		}
		if !p.TimeSpan.End.IsZero() {
			span.Add(kml.End(p.TimeSpan.End))
		}
		el.Add(span)
	} else if !p.TimeStamp.IsZero() {
		el.Add(kml.TimeStamp(kml.When(p.TimeStamp)))
	}
	if p.StyleURL != "" {
		el.Add(kml.StyleURL(p.StyleURL))
	}
	el.Add(rest...)

	return withID(el, p.ID()), nil
}

func styleElement(s *Style) kml.Element {
	children := []kml.Element{}

	if s.IconHref != "" {
		is := kml.IconStyle(kml.Icon(kml.Href(s.IconHref)))
		if s.IconScale != 0 {
			is.Add(kml.Scale(s.IconScale))
		}
		if s.IconColor != (color.RGBA{}) {
			is.Add(kml.Color(s.IconColor))
		}
		children = append(children, is)
	}
	if s.HasLabel {
		ls := kml.LabelStyle(kml.Scale(s.LabelScale))
		if s.LabelColor != (color.RGBA{}) {
			ls.Add(kml.Color(s.LabelColor))
		}
		children = append(children, ls)
	}
	if s.LineColor != (color.RGBA{}) {
		ls := kml.LineStyle(kml.Color(s.LineColor))
		if s.LineWidth != 0 {
			ls.Add(kml.Width(s.LineWidth))
		}
		children = append(children, ls)
	}
	if s.PolyColor != (color.RGBA{}) {
		children = append(children, kml.PolyStyle(kml.Color(s.PolyColor)))
	}
	if s.HasList {
		children = append(children, kml.ListStyle(listItemType(s.ListItemType)))
	}

	return kml.SharedStyle(s.ID(), children...)
}

func listItemType(t ListItemType) kml.Element {
	switch t {
	case ListCheckHideChildren:
		return kml.ListItemType(kml.ListItemTypeCheckHideChildren)
	case ListRadioFolder:
		return kml.ListItemType(kml.ListItemTypeRadioFolder)
	case ListCheckOffOnly:
		return kml.ListItemType(kml.ListItemTypeCheckOffOnly)
	}
	return kml.ListItemType(kml.ListItemTypeCheck)
}

func vec2(v Vec2) kml.Vec2 {
	kv := kml.Vec2{X: v.X, Y: v.Y, XUnits: kml.UnitsFraction, YUnits: kml.UnitsFraction}
	if v.XUnits == Pixels {
		kv.XUnits = kml.UnitsPixels
	}
	if v.YUnits == Pixels {
		kv.YUnits = kml.UnitsPixels
	}
	return kv
}

func overlayElement(o *ScreenOverlay) kml.Element {
	el := kml.ScreenOverlay(
		kml.Name(o.Name),
		kml.Icon(kml.Href(o.Href)),
		kml.OverlayXY(vec2(o.OverlayXY)),
		kml.ScreenXY(vec2(o.ScreenXY)),
		kml.Size(vec2(o.Size)),
	)
	if o.Hidden {
		el.Add(kml.Visibility(false))
	}
	return el
}

func altitudeMode(m AltitudeMode) kml.Element {
	switch m {
	case Absolute:
		return kml.AltitudeMode(kml.AltitudeModeAbsolute)
	case RelativeToGround:
		return kml.AltitudeMode(kml.AltitudeModeRelativeToGround)
	}
	return kml.AltitudeMode(kml.AltitudeModeClampToGround)
}

func coordinates(coords []Coord) []kml.Coordinate {
	ret := make([]kml.Coordinate, len(coords))
	for i, c := range coords {
		ret[i] = kml.Coordinate{Lon: c.Lon, Lat: c.Lat, Alt: c.Alt}
	}
	return ret
}

func lineStringElement(l *LineString) kml.Element {
	el := kml.LineString(
		kml.Coordinates(coordinates(l.Coords)...),
		altitudeMode(l.AltitudeMode),
	)
	if l.Extrude {
		el.Add(kml.Extrude(true))
	}
	if l.Tessellate {
		el.Add(kml.Tessellate(true))
	}
	return el
}

func pointElement(p *Point) kml.Element {
	el := kml.Point(
		kml.Coordinates(kml.Coordinate{Lon: p.Lon, Lat: p.Lat, Alt: p.Alt}),
		altitudeMode(p.AltitudeMode),
	)
	if p.Extrude {
		el.Add(kml.Extrude(true))
	}
	return el
}
