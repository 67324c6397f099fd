package flight

import (
	"context"
	"fmt"
	"html"
	"image/color"
	"net/url"
	"strings"
	"time"

	"github.com/iancoleman/orderedmap"

	"github.com/skypies/flightkmz"
	"github.com/skypies/flightkmz/kmldoc"
	"github.com/skypies/flightkmz/render"
	"github.com/skypies/flightkmz/scale"
)

// Thresholds for the salient altitude marks, coarsest first.
var AltitudeMarkThresholds = []float64{100, 50, 10}

func coord(s flightkmz.Sample) kmldoc.Coord {
	return kmldoc.Coord{Lon: s.Long, Lat: s.Lat, Alt: s.Elevation}
}

func coords(samples []flightkmz.Sample) []kmldoc.Coord {
	ret := make([]kmldoc.Coord, len(samples))
	for i, s := range samples {
		ret[i] = coord(s)
	}
	return ret
}

// makeTable renders the key/value pairs as a two column HTML table.
func makeTable(rows *orderedmap.OrderedMap) string {
	str := "<table>"
	for _, k := range rows.Keys() {
		v, _ := rows.Get(k)
		str += fmt.Sprintf("<tr><th align=\"right\">%s</th><td>%v</td></tr>", html.EscapeString(k), v)
	}
	return str + "</table>"
}

// {{{ f.Description, f.Snippet

func (f *Flight) Description(g *Globals) kmldoc.Description {
	t := f.Track
	rows := orderedmap.New()

	if t.PilotName != "" {
		rows.Set("Pilot name", html.EscapeString(t.PilotName))
	}
	if t.GliderType != "" {
		rows.Set("Glider type", html.EscapeString(t.GliderType))
	}
	if t.GliderID != "" {
		rows.Set("Glider ID", html.EscapeString(t.GliderID))
	}

	rows.Set("Take-off time", g.Local(t.Start()).Format("15:04:05"))
	rows.Set("Landing time", g.Local(t.End()).Format("15:04:05"))

	secs := int(t.Duration().Seconds())
	rows.Set("Duration", fmt.Sprintf("%dh %02dm %02ds", secs/3600, (secs%3600)/60, secs%60))

	if t.ElevationData {
		rows.Set("Take-off altitude", num(t.Samples[0].Elevation)+"m")
		rows.Set("Maximum altitude", num(t.Bounds["ele"].Max)+"m")
		rows.Set("Minimum altitude", num(t.Bounds["ele"].Min)+"m")
		rows.Set("Landing altitude", num(t.Samples[len(t.Samples)-1].Elevation)+"m")
		rows.Set("Total altitude gain", num(t.TotalDzPositive)+"m")
		rows.Set("Maximum altitude gain", num(t.MaxDzPositive)+"m")
		rows.Set("Maximum climb", num(round(t.Bounds["climb"].Max, 1))+"m/s")
		rows.Set("Maximum sink", num(round(t.Bounds["climb"].Min, 1))+"m/s")
	}
	rows.Set("Maximum speed", num(round(t.Bounds["speed"].Max, 1))+"km/h")

	if g.URL != "" {
		host := g.URL
		if u, err := url.Parse(g.URL); err == nil && u.Host != "" {
			host = u.Hostname()
		}
		rows.Set("Flight URL", fmt.Sprintf("<a href=\"%s\">%s</a>", html.EscapeString(g.URL),
			html.EscapeString(host)))
	}

	return kmldoc.Description(makeTable(rows))
}

func (f *Flight) Snippet(g *Globals) kmldoc.Snippet {
	strs := []string{}
	if f.Track.PilotName != "" {
		strs = append(strs, f.Track.PilotName)
	}
	strs = append(strs, g.Local(f.Track.Start()).Format("2006-01-02"))
	return kmldoc.Snippet(strings.Join(strs, ", "))
}

// }}}
// {{{ f.TrackFolder

// TrackFolder holds one sub-folder per way of coloring the track; it is a radio folder, and
// only the one named by Globals.DefaultTrack starts out visible.
func (f *Flight) TrackFolder(ctx context.Context, g *Globals) *kmldoc.Folder {
	t := f.Track
	folder := kmldoc.NewFolder("Track", g.Stock.NoneFolder())
	folder.StyleURL = g.Stock.RadioFolder.URL()
	folder.Open = true

	if t.ElevationData {
		folder.Add(f.coloredTrack(ctx, g, "climb", t.Climb, g.Scales.Get(KeyClimb), kmldoc.Absolute,
			g.DefaultTrack == KeyClimb, true))
		folder.Add(f.coloredTrack(ctx, g, "altitude", t.Ele, g.Scales.Get(KeyAltitude), kmldoc.Absolute,
			g.DefaultTrack == KeyAltitude, true))
		folder.Add(f.coloredTrack(ctx, g, "total energy", t.TEC, g.Scales.Get(KeyTEC), kmldoc.Absolute,
			g.DefaultTrack == KeyTEC, true))
	}
	folder.Add(f.coloredTrack(ctx, g, "ground speed", t.Speed, g.Scales.Get(KeySpeed), f.AltitudeMode,
		g.DefaultTrack == KeySpeed, true))
	folder.Add(f.coloredTrack(ctx, g, "time", t.T, g.Scales.Get(KeyTime), f.AltitudeMode,
		g.DefaultTrack == KeyTime, false))

	style := &kmldoc.Style{LineColor: f.Color, LineWidth: f.Width}
	f.root.AddStyles(style)
	folder.Add(f.solidTrack(g, style, f.AltitudeMode, "Solid color", g.DefaultTrack != KeySolidColor, false))

	return folder
}

func (f *Flight) lineStyles(s *scale.Scale) []*kmldoc.Style {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.styles == nil {
		f.styles = map[*scale.Scale][]*kmldoc.Style{}
	}
	if styles, exists := f.styles[s]; exists {
		return styles
	}
	styles := []*kmldoc.Style{}
	for _, c := range s.Colors() {
		styles = append(styles, &kmldoc.Style{LineColor: c, LineWidth: f.Width})
	}
	f.styles[s] = styles
	f.root.AddStyles(styles...)
	return styles
}

// coloredTrack splits the track into runs of samples whose values share a scale bucket, and
// draws each run in that bucket's color. Each run is extended by one sample so that it joins
// up with the next.
func (f *Flight) coloredTrack(ctx context.Context, g *Globals, label string, values []float64,
	s *scale.Scale, mode kmldoc.AltitudeMode, visible bool, legend bool) *kmldoc.Folder {
	if s == nil {
		return nil
	}

	folder := kmldoc.NewFolder("Colored by " + label)
	folder.StyleURL = g.Stock.CheckHideChildren.URL()
	folder.Hidden = !visible

	styles := f.lineStyles(s)
	buckets := make([]int, len(values))
	for i, v := range values {
		buckets[i] = s.Discretize(v)
	}

	samples := f.Track.Samples
	for _, sl := range flightkmz.Runs(buckets) {
		end := sl.Stop + 2
		if end > len(samples) {
			end = len(samples)
		}
		pm := kmldoc.NewPlacemark("", &kmldoc.LineString{
			Coords:       coords(samples[sl.Start:end]),
			AltitudeMode: mode,
		})
		pm.StyleURL = styles[buckets[sl.Start]].URL()
		folder.Add(pm)
	}

	if legend {
		href := scaleHref(s.Title)
		draw := func(c render.Canvas) error { return drawScaleChart(c, s) }
		if f.requestRender(ctx, g, href, ScaleChartWidth, ScaleChartHeight, draw) {
			folder.Add(&kmldoc.ScreenOverlay{
				Name:      "Legend",
				Href:      href,
				OverlayXY: kmldoc.Vec2{X: 0, Y: 1},
				ScreenXY:  kmldoc.Vec2{X: 0, Y: 1},
				Size:      kmldoc.Vec2{X: 0, Y: 0},
			})
		}
	}

	return folder
}

func (f *Flight) solidTrack(g *Globals, style *kmldoc.Style, mode kmldoc.AltitudeMode, name string,
	hidden bool, extrude bool) *kmldoc.Folder {
	pm := kmldoc.NewPlacemark("", &kmldoc.LineString{
		Coords:       coords(f.Track.Samples),
		AltitudeMode: mode,
		Extrude:      extrude,
	})
	pm.StyleURL = style.URL()

	folder := kmldoc.NewFolder(name, pm)
	folder.StyleURL = g.Stock.CheckHideChildren.URL()
	folder.Hidden = hidden
	return folder
}

// }}}
// {{{ f.ShadowFolder

func (f *Flight) ShadowFolder(g *Globals) *kmldoc.Folder {
	if !f.Track.ElevationData {
		return nil
	}

	folder := kmldoc.NewFolder("Shadow", g.Stock.NoneFolder())
	folder.StyleURL = g.Stock.RadioFolder.URL()

	normal := &kmldoc.Style{LineColor: color.RGBA{0, 0, 0, 0xff}, LineWidth: 1}
	curtain := &kmldoc.Style{LineColor: color.RGBA{0, 0, 0, 0x01}, LineWidth: 1,
		PolyColor: color.RGBA{0, 0, 0, 0x80}}
	solid := &kmldoc.Style{LineColor: f.Color, LineWidth: f.Width}
	f.root.AddStyles(normal, curtain, solid)

	folder.Add(
		f.solidTrack(g, normal, kmldoc.ClampToGround, "Normal", false, false),
		f.solidTrack(g, curtain, kmldoc.Absolute, "Extrude", true, true),
		f.solidTrack(g, solid, kmldoc.ClampToGround, "Solid color", true, false),
	)
	return folder
}

// }}}
// {{{ f.Animation

// Animation is a marker that moves along the track as the time slider plays, dragging a one
// minute tail behind it.
func (f *Flight) Animation(g *Globals) *kmldoc.Folder {
	samples := f.Track.Samples
	n := len(samples)
	if n == 0 {
		return nil
	}

	style := &kmldoc.Style{
		IconHref:     g.Stock.AnimationIcon,
		IconColor:    f.Color,
		IconScale:    g.Stock.IconScales[0],
		HasList:      true,
		ListItemType: kmldoc.ListCheckHideChildren,
		LineColor:    color.RGBA{0xff, 0x9b, 0x00, 0xff},
		LineWidth:    f.Width,
	}
	f.root.AddStyles(style)

	folder := kmldoc.NewFolder("Animation")
	folder.StyleURL = style.URL()
	folder.Hidden = true

	point := func(c kmldoc.Coord, ts kmldoc.TimeSpan) *kmldoc.Placemark {
		pm := kmldoc.NewPlacemark("", &kmldoc.Point{Coord: c, AltitudeMode: f.AltitudeMode})
		pm.StyleURL, pm.TimeSpan = style.URL(), ts
		return pm
	}
	line := func(cs []kmldoc.Coord, ts kmldoc.TimeSpan) *kmldoc.Placemark {
		pm := kmldoc.NewPlacemark("", &kmldoc.LineString{Coords: cs, AltitudeMode: kmldoc.Absolute})
		pm.StyleURL, pm.TimeSpan = style.URL(), ts
		return pm
	}

	folder.Add(point(coord(samples[0]), kmldoc.TimeSpan{End: samples[0].TimestampUTC}))
	for i := 1; i < n-1; i++ {
		prev, cur := samples[i-1], samples[i]
		folder.Add(point(coord(prev.HalfwayTo(cur)),
			kmldoc.TimeSpan{Begin: prev.TimestampUTC, End: cur.TimestampUTC}))
		folder.Add(line([]kmldoc.Coord{coord(prev), coord(cur)},
			kmldoc.TimeSpan{Begin: cur.TimestampUTC, End: cur.TimestampUTC.Add(time.Minute)}))
	}

	last := samples[n-1]
	final := kmldoc.TimeSpan{Begin: last.TimestampUTC}
	folder.Add(point(coord(last), final))
	if tail := samples[f.Track.IndexOf(last.TimestampUTC.Add(-time.Minute)):]; len(tail) > 1 {
		folder.Add(line(coords(tail), final))
	}

	return folder
}

// }}}
// {{{ f.PhotosFolder, f.XCFolder

// Neither photos nor XC optimisation results are inputs to a conversion yet, so these folders
// are never populated.
func (f *Flight) PhotosFolder(g *Globals) *kmldoc.Folder { return nil }
func (f *Flight) XCFolder(g *Globals) *kmldoc.Folder     { return nil }

// }}}
// {{{ f.AltitudeMarksFolder

func (f *Flight) AltitudeMarksFolder(g *Globals) *kmldoc.Folder {
	t := f.Track
	if !t.ElevationData {
		return nil
	}

	folder := kmldoc.NewFolder("Altitude marks")
	folder.StyleURL = g.Stock.CheckHideChildren.URL()
	folder.Hidden = true

	s := g.Scales.Get(KeyAltitude)
	salient := flightkmz.Salient(t.Ele, AltitudeMarkThresholds)
	for _, i := range flightkmz.SalientIndices(salient) {
		sample := t.Samples[i]
		bucket := 0
		if s != nil {
			bucket = s.Discretize(sample.Elevation)
		}

		pm := kmldoc.NewPlacemark(num(round(sample.Elevation, 0))+"m",
			&kmldoc.Point{Coord: coord(sample), AltitudeMode: kmldoc.Absolute},
			kmldoc.Snippet(""))
		if style := g.Stock.AltitudeMark(salient[i], bucket); style != nil {
			pm.StyleURL = style.URL()
		}
		folder.Add(pm)
	}

	return folder
}

// }}}
// {{{ f.Graph

// Graph is a screen overlay plotting values (in the units of s) against time.
func (f *Flight) Graph(ctx context.Context, g *Globals, values []float64, s *scale.Scale) *kmldoc.Folder {
	href := f.graphHref(s.Title)
	draw := func(c render.Canvas) error {
		return drawGraphChart(c, g.GraphWidth, g.GraphHeight, f.Track.T, values, s, g.Scales.Get(KeyTime))
	}
	if !f.requestRender(ctx, g, href, g.GraphWidth, g.GraphHeight, draw) {
		return nil
	}

	folder := kmldoc.NewFolder(capitalize(s.Title)+" graph", &kmldoc.ScreenOverlay{
		Name:      capitalize(s.Title),
		Href:      href,
		OverlayXY: kmldoc.Vec2{X: 0, Y: 0},
		ScreenXY:  kmldoc.Vec2{X: 0, Y: 16, YUnits: kmldoc.Pixels},
		Size:      kmldoc.Vec2{X: 0, Y: 0},
	})
	folder.StyleURL = g.Stock.CheckHideChildren.URL()
	folder.Hidden = true
	return folder
}

// }}}
// {{{ f.TimeMarksFolder

// TimeMarksFolder marks the first and last samples, and every step in between, snapped to
// multiples of step in local time. Marks on the hour get the biggest style, then half hours,
// then quarter hours.
func (f *Flight) TimeMarksFolder(g *Globals) *kmldoc.Folder {
	t := f.Track
	folder := kmldoc.NewFolder("Time marks")
	folder.StyleURL = g.Stock.CheckHideChildren.URL()
	folder.Hidden = true

	step := g.TimeMarkStep
	if step <= 0 {
		step = DefaultOptions().TimeMarkStep
	}
	tz := time.Duration(g.TZOffset) * time.Second
	first, last := t.Samples[0], t.Samples[len(t.Samples)-1]

	folder.Add(f.timeMark(g, first, g.Local(first.TimestampUTC), g.Stock.TimeMarks[0]))

	start, end := g.Local(first.TimestampUTC), g.Local(last.TimestampUTC)
	for dt := start.Truncate(step); dt.Before(end); dt = dt.Add(step) {
		if !dt.After(start) {
			continue
		}
		folder.Add(f.timeMark(g, t.SampleAt(dt.Add(-tz)), dt, g.Stock.TimeMarks[timeMarkPriority(dt)]))
	}

	folder.Add(f.timeMark(g, last, g.Local(last.TimestampUTC), g.Stock.TimeMarks[0]))
	return folder
}

// timeMarkPriority indexes Stock.TimeMarks: 0 on the hour, 1 on the half hour, 2 on the
// quarter hour, else 3.
func timeMarkPriority(local time.Time) int {
	switch local.Minute() {
	case 0:
		return 0
	case 30:
		return 1
	case 15, 45:
		return 2
	}
	return 3
}

func (f *Flight) timeMark(g *Globals, s flightkmz.Sample, local time.Time, style *kmldoc.Style) *kmldoc.Placemark {
	pm := kmldoc.NewPlacemark(local.Format("15:04"),
		&kmldoc.Point{Coord: coord(s), AltitudeMode: f.AltitudeMode})
	pm.StyleURL = style.URL()
	return pm
}

// }}}
// {{{ f.TaskFolder

const kCylinderPoints = 36

// TaskFolder draws the declared task: each turnpoint, its cylinder, and the course line.
func (f *Flight) TaskFolder(g *Globals, task *flightkmz.Task) *kmldoc.Folder {
	if task == nil || len(task.Turnpoints) == 0 {
		return nil
	}

	name := "Task"
	if task.Name != "" {
		name += " " + task.Name
	}
	folder := kmldoc.NewFolder(name)
	folder.StyleURL = g.Stock.CheckHideChildren.URL()
	styleURL := g.Stock.Task.URL()

	course := []kmldoc.Coord{}
	for _, tp := range task.Turnpoints {
		c := kmldoc.Coord{Lon: tp.Long, Lat: tp.Lat, Alt: tp.Elevation}
		course = append(course, c)

		pm := kmldoc.NewPlacemark(tp.Name, &kmldoc.Point{Coord: c, AltitudeMode: kmldoc.ClampToGround})
		pm.StyleURL = styleURL
		folder.Add(pm)

		if ring := tp.Cylinder(kCylinderPoints); len(ring) > 0 {
			cs := []kmldoc.Coord{}
			for _, ll := range ring {
				cs = append(cs, kmldoc.Coord{Lon: ll.Long, Lat: ll.Lat})
			}
			pm := kmldoc.NewPlacemark("", &kmldoc.LineString{Coords: cs, Tessellate: true})
			pm.StyleURL = styleURL
			folder.Add(pm)
		}
	}

	if len(course) > 1 {
		pm := kmldoc.NewPlacemark(fmt.Sprintf("%.1fkm", task.Distance()/1000.0),
			&kmldoc.LineString{Coords: course, Tessellate: true})
		pm.StyleURL = styleURL
		folder.Add(pm)
	}

	return folder
}

// }}}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
