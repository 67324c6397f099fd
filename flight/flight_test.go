package flight

// go test -v github.com/skypies/flightkmz/flight

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/skypies/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skypies/flightkmz"
	"github.com/skypies/flightkmz/kmldoc"
	"github.com/skypies/flightkmz/render"
)

// {{{ fakeRenderer

type fakeSurface struct{ w, h int }

func (s *fakeSurface) Width() int                                { return s.w }
func (s *fakeSurface) Height() int                               { return s.h }
func (s *fakeSurface) SetColor(c color.Color)                    {}
func (s *fakeSurface) SetLineWidth(w float64)                    {}
func (s *fakeSurface) SetFontSize(points float64)                {}
func (s *fakeSurface) FillRect(x, y, w, h float64)               {}
func (s *fakeSurface) StrokePath(pts []render.Pt)                {}
func (s *fakeSurface) FillText(str string, x, y, ax, ay float64) {}
func (s *fakeSurface) MeasureText(str string) (float64, float64) { return 0, 0 }

// fakeRenderer counts the surfaces it creates, by size, and fails any size that fail says to.
type fakeRenderer struct {
	mu       sync.Mutex
	surfaces map[string]int
	fail     func(w, h int) bool
}

func newFakeRenderer() *fakeRenderer { return &fakeRenderer{surfaces: map[string]int{}} }

func (r *fakeRenderer) CreateSurface(ctx context.Context, w, h int) (render.Surface, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surfaces[fmt.Sprintf("%dx%d", w, h)]++
	if r.fail != nil && r.fail(w, h) {
		return nil, errors.New("no surface for you")
	}
	return &fakeSurface{w, h}, nil
}

func (r *fakeRenderer) Encode(ctx context.Context, s render.Surface) ([]byte, error) {
	return []byte(fmt.Sprintf("PNG %dx%d", s.Width(), s.Height())), nil
}

func (r *fakeRenderer) count(w, h int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.surfaces[fmt.Sprintf("%dx%d", w, h)]
}

// }}}
// {{{ testTrack

// testTrack is five minutes of thermalling, five of gliding, and a few minutes of diving.
func testTrack(t *testing.T, withElevation bool) *flightkmz.Track {
	tm := time.Date(2016, 7, 1, 11, 58, 0, 0, time.UTC)
	samples := []flightkmz.Sample{}
	add := func(ll geo.Latlong, ele float64) {
		if !withElevation {
			ele = 0
		}
		samples = append(samples, flightkmz.Sample{
			TimestampUTC: tm.Add(time.Duration(len(samples)) * time.Second),
			Latlong:      ll,
			Elevation:    ele,
		})
	}
	circle := func(i int, c geo.Latlong) geo.Latlong {
		a := 2 * math.Pi * float64(i) / 20.0
		return geo.Latlong{c.Lat + 0.0005*math.Sin(a), c.Long + 0.0007*math.Cos(a)}
	}

	center := geo.Latlong{46.0, 7.0}
	ele := 1000.0
	for i := 0; i < 300; i++ {
		add(circle(i, center), ele)
		ele += 2
	}
	pos := samples[len(samples)-1].Latlong
	for i := 0; i < 300; i++ {
		pos = geo.Latlong{pos.Lat, pos.Long + 0.0002}
		add(pos, ele)
		ele -= 1
	}
	for i := 0; i < 200; i++ {
		add(circle(i, pos), ele)
		ele -= 5
	}

	tr, err := flightkmz.NewTrack(flightkmz.TrackMetadata{
		Filename:   "test.igc",
		PilotName:  "Test Pilot",
		GliderType: "Omega",
	}, samples)
	require.NoError(t, err)
	return tr
}

// }}}

func names(f *kmldoc.Folder) []string {
	ret := []string{}
	for _, c := range f.Children {
		switch v := c.(type) {
		case *kmldoc.Folder:
			ret = append(ret, v.Name)
		case kmldoc.Description:
			ret = append(ret, "<description>")
		case kmldoc.Snippet:
			ret = append(ret, "<snippet>")
		}
	}
	return ret
}

func child(t *testing.T, f *kmldoc.Folder, name string) *kmldoc.Folder {
	for _, c := range f.Children {
		if sub, ok := c.(*kmldoc.Folder); ok && sub.Name == name {
			return sub
		}
	}
	t.Fatalf("folder '%s' has no child folder '%s' (has %v)", f.Name, name, names(f))
	return nil
}

func overlays(f *kmldoc.Folder) []*kmldoc.ScreenOverlay {
	ret := []*kmldoc.ScreenOverlay{}
	for _, c := range f.Children {
		if o, ok := c.(*kmldoc.ScreenOverlay); ok {
			ret = append(ret, o)
		}
	}
	return ret
}

func convert(t *testing.T, tr *flightkmz.Track, opts Options, r render.Renderer) (*Flight, *kmldoc.KMZ) {
	g := NewGlobals(tr, opts, r, nil)
	f := New(tr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	kmz, err := f.ToKMZ(ctx, g)
	require.NoError(t, err)
	return f, kmz
}

func TestToKMZStructure(t *testing.T) {
	tr := testTrack(t, true)
	require.NotEmpty(t, tr.Thermals)
	require.NotEmpty(t, tr.Glides)
	require.NotEmpty(t, tr.Dives)

	r := newFakeRenderer()
	f, kmz := convert(t, tr, DefaultOptions(), r)

	assert.Equal(t, []string{"<description>", "<snippet>", "Track", "Shadow", "Animation",
		"Altitude marks", "Altitude graph", "Thermals", "Glides", "Dives", "Time marks"},
		names(kmz.Root))

	assert.Equal(t, []string{"None", "Colored by climb", "Colored by altitude",
		"Colored by total energy", "Colored by ground speed", "Colored by time", "Solid color"},
		names(child(t, kmz.Root, "Track")))

	hrefs := []string{}
	for _, file := range kmz.Files() {
		hrefs = append(hrefs, file.Href)
	}
	assert.Equal(t, []string{
		"images/altitude_" + f.ID() + "_graph.png",
		"images/altitude_scale.png",
		"images/climb_scale.png",
		"images/ground_speed_scale.png",
	}, hrefs)

	assert.Equal(t, 4, f.Renders())
	assert.Equal(t, 0, f.Failures())
	assert.Equal(t, 3, r.count(ScaleChartWidth, ScaleChartHeight))
	assert.Equal(t, 1, r.count(600, 300))
}

// Climb and total energy share a scale, so they share a legend, which is drawn only once.
func TestLegendDedup(t *testing.T) {
	r := newFakeRenderer()
	_, kmz := convert(t, testTrack(t, true), DefaultOptions(), r)

	track := child(t, kmz.Root, "Track")
	climb := overlays(child(t, track, "Colored by climb"))
	tec := overlays(child(t, track, "Colored by total energy"))
	require.Len(t, climb, 1)
	require.Len(t, tec, 1)
	assert.Equal(t, "images/climb_scale.png", climb[0].Href)
	assert.Equal(t, climb[0].Href, tec[0].Href)

	n := 0
	for _, file := range kmz.Files() {
		if file.Href == "images/climb_scale.png" {
			n++
		}
	}
	assert.Equal(t, 1, n)

	// Time is colored, but has no legend
	assert.Empty(t, overlays(child(t, track, "Colored by time")))
}

func TestRenderFailure(t *testing.T) {
	r := newFakeRenderer()
	r.fail = func(w, h int) bool { return w == ScaleChartWidth }

	f, kmz := convert(t, testTrack(t, true), DefaultOptions(), r)

	assert.Equal(t, 3, f.Failures())
	assert.Equal(t, 4, f.Renders(), "failed renders are counted as renders too")
	files := kmz.Files()
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0].Href, "_graph.png"))

	// The placeholders are still in the document
	track := child(t, kmz.Root, "Track")
	assert.Len(t, overlays(child(t, track, "Colored by climb")), 1)
}

func TestNoRenderer(t *testing.T) {
	f, kmz := convert(t, testTrack(t, true), DefaultOptions(), nil)

	assert.Empty(t, kmz.Files())
	assert.Equal(t, 0, f.Renders())
	assert.NotContains(t, names(kmz.Root), "Altitude graph")
	assert.Empty(t, overlays(child(t, child(t, kmz.Root, "Track"), "Colored by climb")))
}

func visibleTracks(t *testing.T, kmz *kmldoc.KMZ) []string {
	visible := []string{}
	for _, c := range child(t, kmz.Root, "Track").Children {
		if sub, ok := c.(*kmldoc.Folder); ok && !sub.Hidden {
			visible = append(visible, sub.Name)
		}
	}
	return visible
}

func TestDefaultTrackVisibility(t *testing.T) {
	tests := []struct {
		elevation bool
		def       string
		want      string
	}{
		{true, KeyClimb, "Colored by climb"},
		{true, KeyAltitude, "Colored by altitude"},
		{true, KeyTEC, "Colored by total energy"},
		{true, KeySpeed, "Colored by ground speed"},
		{true, KeyTime, "Colored by time"},
		{true, KeySolidColor, "Solid color"},
		{true, "", "Colored by climb"},
		{true, "altitud", "Colored by climb"},
		{false, KeyAltitude, "Colored by ground speed"},
		{false, "altitud", "Colored by ground speed"},
		{false, KeyTime, "Colored by time"},
	}

	for _, test := range tests {
		opts := DefaultOptions()
		opts.DefaultTrack = test.def
		_, kmz := convert(t, testTrack(t, test.elevation), opts, nil)
		assert.Equal(t, []string{test.want}, visibleTracks(t, kmz),
			"default %q, elevation %v", test.def, test.elevation)
	}
}

// A default whose series has no scale falls through to the next series that has one.
func TestVisibleTrack(t *testing.T) {
	scales := NewScales(testTrack(t, false), 0)
	require.NotNil(t, scales.Get(KeySpeed))

	assert.Equal(t, KeySpeed, visibleTrack(KeyClimb, scales))
	assert.Equal(t, KeyTime, visibleTrack(KeyTime, scales))
	assert.Equal(t, KeySolidColor, visibleTrack(KeySolidColor, scales))

	delete(scales, KeySpeed)
	assert.Equal(t, KeyTime, visibleTrack(KeySpeed, scales))
	assert.Equal(t, KeySolidColor, visibleTrack("speed ", nil))

	assert.True(t, IsTrackKey(KeyTEC))
	assert.False(t, IsTrackKey("altitud"))
}

// Globals built by hand, with none of the limits NewGlobals fills in, still convert.
func TestHandBuiltGlobals(t *testing.T) {
	tr := testTrack(t, true)
	r := newFakeRenderer()
	g := &Globals{Renderer: r}
	f := New(tr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	kmz, err := f.ToKMZ(ctx, g)
	require.NoError(t, err)

	assert.Equal(t, 4, f.Renders())
	assert.Equal(t, 0, f.Failures())
	assert.Equal(t, 1, r.count(600, 300))
	assert.Len(t, child(t, kmz.Root, "Time marks").Children, 5)
	assert.Equal(t, []string{"Colored by climb"}, visibleTracks(t, kmz))

	// The caller's Globals are left alone
	assert.Zero(t, g.MaxConcurrentRenders)
	assert.Zero(t, g.TimeMarkStep)

	g2 := NewGlobals(tr, DefaultOptions(), nil, nil)
	g2.TimeMarkStep = 0
	assert.Len(t, New(tr).TimeMarksFolder(g2).Children, 5)
}

func TestUseGG(t *testing.T) {
	tr := testTrack(t, true)

	g := NewGlobals(tr, Options{}, nil, nil)
	assert.Equal(t, "sans", g.FontName)
	assert.Nil(t, g.Renderer)
	require.NoError(t, g.UseGG())
	assert.IsType(t, &render.GG{}, g.Renderer)

	opts := DefaultOptions()
	opts.FontName = "mono"
	require.NoError(t, NewGlobals(tr, opts, nil, nil).UseGG())

	g.FontName = "comic"
	assert.Error(t, g.UseGG())
}

func solidColorStyle(t *testing.T, kmz *kmldoc.KMZ) *kmldoc.Style {
	solid := child(t, child(t, kmz.Root, "Track"), "Solid color")
	require.NotEmpty(t, solid.Children)
	url := solid.Children[0].(*kmldoc.Placemark).StyleURL
	for _, s := range kmz.Styles {
		if s.URL() == url {
			return s
		}
	}
	t.Fatalf("no style %s", url)
	return nil
}

func TestFlightColor(t *testing.T) {
	tr := testTrack(t, true)
	blue := color.RGBA{0x00, 0x00, 0xff, 0xff}
	green := color.RGBA{0x00, 0xff, 0x00, 0xff}

	// Set on the Flight, and Globals has no opinion
	f := New(tr)
	f.Color, f.Width = blue, 4
	kmz, err := f.ToKMZ(context.Background(), NewGlobals(tr, DefaultOptions(), nil, nil))
	require.NoError(t, err)
	style := solidColorStyle(t, kmz)
	assert.Equal(t, blue, style.LineColor)
	assert.Equal(t, 4.0, style.LineWidth)

	// Globals overrides only what it sets
	f = New(tr)
	f.Color = blue
	g := NewGlobals(tr, DefaultOptions(), nil, nil)
	g.Color = green
	kmz, err = f.ToKMZ(context.Background(), g)
	require.NoError(t, err)
	style = solidColorStyle(t, kmz)
	assert.Equal(t, green, style.LineColor)
	assert.Equal(t, 2.0, style.LineWidth)
}

func TestNoElevation(t *testing.T) {
	tr := testTrack(t, false)
	require.False(t, tr.ElevationData)

	opts := DefaultOptions()
	g := NewGlobals(tr, opts, nil, nil)
	assert.Equal(t, KeySpeed, g.DefaultTrack)
	assert.Nil(t, g.Scales.Get(KeyClimb))
	assert.Nil(t, g.Scales.Get(KeyAltitude))

	_, kmz := convert(t, tr, opts, newFakeRenderer())
	assert.Equal(t, []string{"<description>", "<snippet>", "Track", "Animation", "Time marks"},
		names(kmz.Root))
	assert.Equal(t, []string{"None", "Colored by ground speed", "Colored by time", "Solid color"},
		names(child(t, kmz.Root, "Track")))
}

func TestToKMZTwice(t *testing.T) {
	tr := testTrack(t, true)
	g := NewGlobals(tr, DefaultOptions(), nil, nil)
	f := New(tr)

	_, err := f.ToKMZ(context.Background(), g)
	require.NoError(t, err)
	_, err = f.ToKMZ(context.Background(), g)
	assert.ErrorIs(t, err, ErrAlreadyConverted)
}

func TestTimeMarks(t *testing.T) {
	tr := testTrack(t, true) // 11:58:00 to 12:11:19
	g := NewGlobals(tr, DefaultOptions(), nil, nil)
	f := New(tr)

	folder := f.TimeMarksFolder(g)
	got := []string{}
	for _, c := range folder.Children {
		pm := c.(*kmldoc.Placemark)
		prio := -1
		for i, s := range g.Stock.TimeMarks {
			if s.URL() == pm.StyleURL {
				prio = i
			}
		}
		got = append(got, fmt.Sprintf("%s/%d", pm.Name, prio))
	}
	assert.Equal(t, []string{"11:58/0", "12:00/0", "12:05/3", "12:10/3", "12:11/0"}, got)

	// Quarter and half hours
	assert.Equal(t, 2, timeMarkPriority(time.Date(2016, 1, 1, 9, 45, 0, 0, time.UTC)))
	assert.Equal(t, 1, timeMarkPriority(time.Date(2016, 1, 1, 9, 30, 0, 0, time.UTC)))
}

func TestDescription(t *testing.T) {
	tr := testTrack(t, true)
	opts := DefaultOptions()
	opts.TZOffset = 7200
	opts.URL = "https://www.example.com/flights/1234"
	g := NewGlobals(tr, opts, nil, nil)
	f := New(tr)

	desc := string(f.Description(g))
	for _, want := range []string{"Test Pilot", "Omega", "13:58:00", "0h 13m 19s", "1000m",
		"example.com</a>"} {
		assert.Contains(t, desc, want)
	}
	assert.Equal(t, kmldoc.Snippet("Test Pilot, 2016-07-01"), f.Snippet(g))
}

func TestTaskFolder(t *testing.T) {
	tr := testTrack(t, true)
	tr.Declaration = &flightkmz.Task{
		Name: "Race",
		Turnpoints: []flightkmz.Turnpoint{
			{Name: "Start", Latlong: geo.Latlong{46.0, 7.0}, RadiusM: 400},
			{Name: "Goal", Latlong: geo.Latlong{46.1, 7.1}},
		},
	}

	_, kmz := convert(t, tr, DefaultOptions(), nil)
	task := child(t, kmz.Root, "Task Race")
	// two turnpoints, one cylinder, one course line
	assert.Len(t, task.Children, 4)
}

func TestEndToEndKMZ(t *testing.T) {
	r, err := render.NewGG("sans")
	require.NoError(t, err)

	_, kmz := convert(t, testTrack(t, true), DefaultOptions(), r)

	buf := bytes.Buffer{}
	require.NoError(t, kmz.WriteKMZ(&buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	names := []string{}
	for _, file := range zr.File {
		names = append(names, file.Name)
	}
	assert.Contains(t, names, "doc.kml")
	assert.Contains(t, names, "images/climb_scale.png")
	assert.Len(t, names, 5)
}
