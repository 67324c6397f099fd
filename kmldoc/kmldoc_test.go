package kmldoc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image/color"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyID(t *testing.T) {
	f1, f2 := NewFolder("a"), NewFolder("b")
	id1 := f1.ID()

	assert.NotEmpty(t, id1)
	assert.Equal(t, id1, f1.ID(), "ID should be stable")
	assert.NotEqual(t, id1, f2.ID())

	s := &Style{}
	assert.Equal(t, "#"+s.ID(), s.URL())
}

func TestFolderAddSkipsNil(t *testing.T) {
	var missing *Folder
	var placemark *Placemark
	f := NewFolder("root", missing, NewFolder("child"), placemark, nil)

	require.Len(t, f.Children, 1)
	assert.Equal(t, "child", f.Children[0].(*Folder).Name)
}

func TestAddFileConcurrent(t *testing.T) {
	k := NewKMZ("test")
	wg := sync.WaitGroup{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k.AddFile(fmt.Sprintf("images/%02d.png", i), []byte{byte(i)})
		}(i)
	}
	wg.Wait()

	files := k.Files()
	require.Len(t, files, 50)
	assert.Equal(t, "images/00.png", files[0].Href)
	assert.True(t, k.HasFile("images/49.png"))
	assert.False(t, k.HasFile("images/50.png"))
}

func testDoc() *KMZ {
	k := NewKMZ("Flight")
	style := &Style{LineColor: color.RGBA{0xff, 0, 0, 0xff}, LineWidth: 2}
	k.AddStyles(style, style)

	tm := time.Date(2016, 7, 1, 12, 0, 0, 0, time.UTC)
	pm := NewPlacemark("seg",
		&LineString{Coords: []Coord{{7.1, 46.1, 1000}, {7.2, 46.2, 1100}}, AltitudeMode: Absolute},
		Description("<b>hi</b>"))
	pm.StyleURL = style.URL()
	pm.TimeSpan = TimeSpan{Begin: tm, End: tm.Add(time.Minute)}

	k.Root.Add(
		Snippet("pilot, 2016-07-01"),
		NewFolder("Track", pm),
		&ScreenOverlay{Name: "Legend", Href: "images/climb_scale.png",
			OverlayXY: Vec2{0, 1, Fraction, Fraction}, ScreenXY: Vec2{0, 16, Fraction, Pixels}},
	)
	return k
}

func TestWriteKML(t *testing.T) {
	k := testDoc()
	require.Len(t, k.Styles, 1)

	buf := bytes.Buffer{}
	require.NoError(t, k.WriteKML(&buf))
	out := buf.String()

	for _, want := range []string{"<Folder", "<Placemark", "<LineString>", "<ScreenOverlay>",
		"images/climb_scale.png", k.Styles[0].ID(), "<TimeSpan>"} {
		assert.Contains(t, out, want)
	}
}

// Snippet and description go ahead of the time primitive, styleUrl and geometry, whatever
// order they were added in.
func TestWriteKMLFeatureOrder(t *testing.T) {
	k := testDoc()
	pm := NewPlacemark("thermal",
		&Point{Coord: Coord{7.1, 46.1, 1000}},
		Description("climb"),
		Snippet("+2.1m/s"))
	pm.StyleURL = k.Styles[0].URL()
	pm.TimeStamp = time.Date(2016, 7, 1, 12, 30, 0, 0, time.UTC)
	folder := NewFolder("Thermals", Description("all the thermals"), pm)
	folder.StyleURL = k.Styles[0].URL()
	k.Root = NewFolder("Flight", folder)

	buf := bytes.Buffer{}
	require.NoError(t, k.WriteKML(&buf))
	out := buf.String()

	at := func(from int, tag string) int {
		i := strings.Index(out[from:], tag)
		require.True(t, i >= 0, "missing %s after offset %d", tag, from)
		return from + i
	}

	f := at(0, "<Folder")
	fDesc, fStyle := at(f, "<description>"), at(f, "<styleUrl>")
	assert.Less(t, fDesc, fStyle)

	p := at(f, "<Placemark")
	assert.Less(t, fStyle, p)
	snippet, desc := at(p, "<snippet>"), at(p, "<description>")
	when, style, point := at(p, "<TimeStamp>"), at(p, "<styleUrl>"), at(p, "<Point>")
	assert.Less(t, snippet, desc)
	assert.Less(t, desc, when)
	assert.Less(t, when, style)
	assert.Less(t, style, point)
}

func TestWriteKMZ(t *testing.T) {
	k := testDoc()
	k.AddFile("images/climb_scale.png", []byte("not really a png"))

	buf := bytes.Buffer{}
	require.NoError(t, k.WriteKMZ(&buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["doc.kml"])
	assert.True(t, names["images/climb_scale.png"])
	assert.Equal(t, "doc.kml", zr.File[0].Name, "Earth reads the first .kml in the archive")
}
