package flight

import (
	"image/color"
	"math"

	"github.com/twpayne/go-kml/icon"

	"github.com/skypies/flightkmz/kmldoc"
	"github.com/skypies/flightkmz/scale"
)

// Stock is the set of shared styles every flight document uses.
type Stock struct {
	CheckHideChildren *kmldoc.Style
	RadioFolder       *kmldoc.Style

	IconScales    []float64         // Largest first
	TimeMarks     []*kmldoc.Style   // hour, half hour, quarter hour, other
	AltitudeMarks [][]*kmldoc.Style // [salience tier][altitude bucket]
	Thermal       *kmldoc.Style
	Glide         *kmldoc.Style
	Dive          *kmldoc.Style
	Task          *kmldoc.Style
	AnimationIcon string
}

var (
	thermalColor = color.RGBA{0xff, 0x33, 0x00, 0xff}
	glideColor   = color.RGBA{0x00, 0x99, 0xff, 0xff}
	diveColor    = color.RGBA{0x99, 0x00, 0xcc, 0xff}
	taskColor    = color.RGBA{0xff, 0xff, 0x00, 0xff}
)

func NewStock(altitude *scale.Scale) *Stock {
	s := &Stock{
		CheckHideChildren: &kmldoc.Style{HasList: true, ListItemType: kmldoc.ListCheckHideChildren},
		RadioFolder:       &kmldoc.Style{HasList: true, ListItemType: kmldoc.ListRadioFolder},
		AnimationIcon:     icon.PaletteHref(2, 18),
	}

	for _, f := range []float64{0.6, 0.5, 0.4, 0.3} {
		s.IconScales = append(s.IconScales, math.Sqrt(f))
	}

	markIcon := icon.PaletteHref(4, 24) // small dot
	for _, sc := range s.IconScales {
		s.TimeMarks = append(s.TimeMarks, &kmldoc.Style{
			IconHref:   markIcon,
			IconScale:  sc,
			HasLabel:   true,
			LabelScale: sc,
		})
	}

	if altitude != nil {
		for _, sc := range s.IconScales[:3] {
			tier := []*kmldoc.Style{}
			for _, c := range altitude.Colors() {
				tier = append(tier, &kmldoc.Style{
					IconHref:   markIcon,
					IconScale:  sc,
					IconColor:  c,
					HasLabel:   true,
					LabelScale: sc,
					LabelColor: c,
				})
			}
			s.AltitudeMarks = append(s.AltitudeMarks, tier)
		}
	}

	segment := func(c color.RGBA) *kmldoc.Style {
		return &kmldoc.Style{
			IconHref:   icon.PaletteHref(4, 24),
			IconScale:  s.IconScales[0],
			IconColor:  c,
			HasLabel:   true,
			LabelScale: s.IconScales[0],
			LabelColor: c,
			LineColor:  c,
			LineWidth:  2,
		}
	}
	s.Thermal = segment(thermalColor)
	s.Glide = segment(glideColor)
	s.Dive = segment(diveColor)
	s.Task = segment(taskColor)

	return s
}

// Styles returns every stock style, for registration with a document.
func (s *Stock) Styles() []*kmldoc.Style {
	ret := []*kmldoc.Style{s.CheckHideChildren, s.RadioFolder}
	ret = append(ret, s.TimeMarks...)
	for _, tier := range s.AltitudeMarks {
		ret = append(ret, tier...)
	}
	return append(ret, s.Thermal, s.Glide, s.Dive, s.Task)
}

// NoneFolder is the hidden, empty entry at the top of a radio folder, so everything in it can
// be switched off.
func (s *Stock) NoneFolder() *kmldoc.Folder {
	f := kmldoc.NewFolder("None")
	f.StyleURL = s.CheckHideChildren.URL()
	return f.Hide()
}

// AltitudeMark returns the style for a salient point of the given tier and altitude bucket,
// clamping out-of-range indices.
func (s *Stock) AltitudeMark(tier, bucket int) *kmldoc.Style {
	if len(s.AltitudeMarks) == 0 {
		return nil
	}
	tier = clamp(tier, 0, len(s.AltitudeMarks)-1)
	row := s.AltitudeMarks[tier]
	return row[clamp(bucket, 0, len(row)-1)]
}

func clamp(i, lo, hi int) int {
	if i < lo {
		return lo
	}
	if i > hi {
		return hi
	}
	return i
}
