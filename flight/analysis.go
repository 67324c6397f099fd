package flight

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/iancoleman/orderedmap"

	"github.com/skypies/flightkmz"
	"github.com/skypies/flightkmz/kmldoc"
)

// Reported in place of a number when the arithmetic behind it is degenerate.
const (
	NotApplicable = "n/a"
	Infinity      = "inf"
)

type Kind int

const (
	Thermal Kind = iota
	Glide
	Dive
)

func (k Kind) String() string {
	switch k {
	case Thermal:
		return "thermal"
	case Glide:
		return "glide"
	case Dive:
		return "dive"
	}
	return fmt.Sprintf("kind%d", int(k))
}

// Stats summarizes one thermal, glide or dive. Ratios that can't be computed are NaN (or +Inf,
// for the glide ratio of a segment that didn't lose height).
type Stats struct {
	Kind  Kind
	Slice flightkmz.Slice

	Start, Finish                 time.Time
	Duration                      time.Duration
	StartAltitude, FinishAltitude float64

	AltitudeChange  float64 // Meters, finish minus start
	AccumulatedGain float64 // Sum of every step up
	AccumulatedLoss float64 // Sum of every step down (negative)

	AverageClimb   float64 // m/s
	MaximumClimb   float64 // From the smoothed climb series
	MaximumDescent float64
	PeakClimb      float64 // From sample to sample altitude changes
	PeakDescent    float64

	Distance     float64 // Meters, start to finish in a straight line
	Bearing      float64 // Radians, start to finish
	AverageSpeed float64 // km/h
	AverageLD    float64
	Efficiency   float64 // Percent of the best climb sustained over the segment

	DriftDirection string
}

// {{{ SegmentStats

func SegmentStats(t *flightkmz.Track, kind Kind, sl flightkmz.Slice) Stats {
	s0, s1 := t.Samples[sl.Start], t.Samples[sl.Stop]
	st := Stats{
		Kind:           kind,
		Slice:          sl,
		Start:          s0.TimestampUTC,
		Finish:         s1.TimestampUTC,
		Duration:       s1.TimestampUTC.Sub(s0.TimestampUTC),
		StartAltitude:  s0.Elevation,
		FinishAltitude: s1.Elevation,
	}

	peak := flightkmz.NewBounds()
	for i := sl.Start; i < sl.Stop; i++ {
		dz := t.Ele[i+1] - t.Ele[i]
		if dz > 0 {
			st.AccumulatedGain += dz
		} else {
			st.AccumulatedLoss += dz
		}
		if dt := t.T[i+1] - t.T[i]; dt > 0 {
			peak.Update(dz / dt)
		}
	}
	if !peak.IsEmpty() {
		st.PeakClimb, st.PeakDescent = peak.Max, peak.Min
	}

	climb := flightkmz.NewBounds(t.Climb[sl.Start : sl.Stop+1]...)
	st.MaximumClimb, st.MaximumDescent = climb.Max, climb.Min

	dz := t.Ele[sl.Stop] - t.Ele[sl.Start]
	dt := t.T[sl.Stop] - t.T[sl.Start]
	dp := s0.DistanceTo(s1)

	st.AltitudeChange = dz
	st.Distance = dp
	st.Bearing = s0.InitialBearingTo(s1)
	st.DriftDirection = flightkmz.RadToCompass(st.Bearing + math.Pi)

	st.AverageClimb, st.AverageSpeed = math.NaN(), math.NaN()
	if dt > 0 {
		st.AverageClimb = dz / dt
		st.AverageSpeed = 3.6 * dp / dt
	}

	st.AverageLD = math.Inf(1)
	if dz < 0 {
		st.AverageLD = -dp / dz
	}

	st.Efficiency = math.NaN()
	if divisor := dt * st.MaximumClimb; divisor != 0 {
		st.Efficiency = 100.0 * dz / divisor
	}

	return st
}

// AllStats computes stats for every thermal, glide and dive, in that order.
func AllStats(t *flightkmz.Track) []Stats {
	ret := []Stats{}
	for kind, slices := range [][]flightkmz.Slice{t.Thermals, t.Glides, t.Dives} {
		for _, sl := range slices {
			ret = append(ret, SegmentStats(t, Kind(kind), sl))
		}
	}
	return ret
}

// }}}
// {{{ st.Dict, st.Name

// Dict lays the stats out for display; numbers are rounded, and degenerate values replaced by
// NotApplicable or Infinity.
func (st Stats) Dict(tzOffset int) *orderedmap.OrderedMap {
	tz := time.Duration(tzOffset) * time.Second
	secs := int(st.Duration.Seconds())

	d := orderedmap.New()
	d.Set("altitude_change", round(st.AltitudeChange, 0))
	d.Set("average_climb", stat(st.AverageClimb, 1))
	d.Set("maximum_climb", round(st.MaximumClimb, 1))
	d.Set("peak_climb", round(st.PeakClimb, 1))
	d.Set("efficiency", stat(st.Efficiency, 0))
	d.Set("distance", round(st.Distance/1000.0, 1))
	d.Set("average_ld", stat(st.AverageLD, 1))
	d.Set("average_speed", stat(st.AverageSpeed, 1))
	d.Set("maximum_descent", round(st.MaximumDescent, 1))
	d.Set("peak_descent", round(st.PeakDescent, 1))
	d.Set("start_altitude", st.StartAltitude)
	d.Set("finish_altitude", st.FinishAltitude)
	d.Set("start_time", st.Start.UTC().Add(tz).Format("15:04:05"))
	d.Set("finish_time", st.Finish.UTC().Add(tz).Format("15:04:05"))
	d.Set("duration", fmt.Sprintf("%dm %02ds", secs/60, secs%60))
	d.Set("accumulated_altitude_gain", st.AccumulatedGain)
	d.Set("accumulated_altitude_loss", st.AccumulatedLoss)
	d.Set("drift_direction", st.DriftDirection)
	return d
}

func (st Stats) Name() string {
	switch st.Kind {
	case Glide:
		return fmt.Sprintf("%skm at %s:1, %skm/h", num(round(st.Distance/1000.0, 1)),
			statString(st.AverageLD, 1), statString(st.AverageSpeed, 0))
	case Dive:
		return fmt.Sprintf("%sm at %sm/s", num(round(-st.AltitudeChange, 0)), statString(st.AverageClimb, 1))
	default:
		return fmt.Sprintf("%sm at %sm/s", num(round(st.AltitudeChange, 0)), statString(st.AverageClimb, 1))
	}
}

// }}}
// {{{ f.AnalysisFolder

// AnalysisFolder has a labelled marker at the middle of each segment, with the segment's
// stats as its description, plus a line from the segment's start to its finish.
func (f *Flight) AnalysisFolder(g *Globals, kind Kind, slices []flightkmz.Slice, style *kmldoc.Style) *kmldoc.Folder {
	t := f.Track
	if !t.ElevationData || len(slices) == 0 {
		return nil
	}

	folder := kmldoc.NewFolder(capitalize(kind.String()) + "s")
	folder.StyleURL = g.Stock.CheckHideChildren.URL()
	folder.Hidden = true

	for _, sl := range slices {
		st := SegmentStats(t, kind, sl)
		s0, s1 := t.Samples[sl.Start], t.Samples[sl.Stop]

		pm := kmldoc.NewPlacemark(st.Name(),
			&kmldoc.Point{Coord: coord(s0.HalfwayTo(s1)), AltitudeMode: kmldoc.Absolute},
			kmldoc.Description(makeTable(st.Dict(g.TZOffset))))
		pm.StyleURL = style.URL()

		line := kmldoc.NewPlacemark("", &kmldoc.LineString{
			Coords:       []kmldoc.Coord{coord(s0), coord(s1)},
			AltitudeMode: kmldoc.Absolute,
		})
		line.StyleURL = style.URL()

		folder.Add(pm, line)
	}

	return folder
}

// }}}

// round rounds half up, to the given number of decimal places.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Floor(v*p+0.5) / p
}

// num formats v with as few digits as it needs.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// stat is a rounded number, or a sentinel string if v is NaN or infinite.
func stat(v float64, places int) interface{} {
	switch {
	case math.IsNaN(v):
		return NotApplicable
	case math.IsInf(v, 0):
		return Infinity
	}
	return round(v, places)
}

func statString(v float64, places int) string {
	switch x := stat(v, places).(type) {
	case float64:
		return num(x)
	case string:
		return x
	}
	return ""
}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
