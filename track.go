package flightkmz

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

const kGravity = 9.80665

// A Track is a flight recording: the samples, ordered in time beginning to end, plus the
// series derived from them. The derived series are indexed identically to Samples.
type Track struct {
	Filename   string
	PilotName  string
	GliderType string
	GliderID   string

	Declaration *Task // Optional

	Samples []Sample

	T     []float64 // Seconds since the first sample
	Ele   []float64 // Meters
	Climb []float64 // Meters per second, averaged over DerivativeWindow
	TEC   []float64 // Climb with total energy compensation, m/s
	Speed []float64 // Ground speed, km/h, averaged over DerivativeWindow

	Bounds map[string]Bounds // Keyed by series name: "t", "ele", "climb", "tec", "speed"

	Thermals []Slice
	Glides   []Slice
	Dives    []Slice

	ElevationData bool // If false, Ele is not to be trusted

	TotalDzPositive float64 // Sum of all the altitude gains
	MaxDzPositive   float64 // Biggest gain from a low point to a later high point
}

// TrackMetadata is the descriptive stuff about a flight that doesn't come from the samples.
type TrackMetadata struct {
	Filename   string
	PilotName  string
	GliderType string
	GliderID   string

	Declaration *Task
}

func (t Track) Start() time.Time        { return t.Samples[0].TimestampUTC }
func (t Track) End() time.Time          { return t.Samples[len(t.Samples)-1].TimestampUTC }
func (t Track) Times() (s, e time.Time) { return t.Start(), t.End() }
func (t Track) Duration() time.Duration { return t.End().Sub(t.Start()) }
func (t Track) Len() int                { return len(t.Samples) }

func (t Track) String() string {
	if len(t.Samples) == 0 {
		return "Track: no samples"
	}
	str := fmt.Sprintf("Track: %d samples, start=%s", len(t.Samples),
		t.Start().Format("2006.01.02 15:04:05"))
	if len(t.Samples) > 1 {
		s, e := t.Samples[0], t.Samples[len(t.Samples)-1]
		str += fmt.Sprintf(", %s, %.1fKM", t.Duration(), s.DistanceTo(e)/1000.0)
	}
	str += fmt.Sprintf(", %d thermals, %d glides, %d dives",
		len(t.Thermals), len(t.Glides), len(t.Dives))
	return str
}

// Validate checks the invariants the document builder relies on.
func (t Track) Validate() error {
	n := len(t.Samples)
	if n == 0 {
		return fmt.Errorf("track has no samples")
	}
	for i := 1; i < n; i++ {
		if !t.Samples[i].TimestampUTC.After(t.Samples[i-1].TimestampUTC) {
			return fmt.Errorf("sample %d (%s) does not come after sample %d", i,
				t.Samples[i].TimestampUTC, i-1)
		}
	}
	for name, series := range map[string][]float64{"t": t.T, "ele": t.Ele, "climb": t.Climb,
		"tec": t.TEC, "speed": t.Speed} {
		if len(series) != n {
			return fmt.Errorf("series '%s' has %d values, want %d", name, len(series), n)
		}
	}
	for name, slices := range map[string][]Slice{"thermal": t.Thermals, "glide": t.Glides,
		"dive": t.Dives} {
		for _, sl := range slices {
			if sl.Start < 0 || sl.Stop < sl.Start || sl.Stop >= n {
				return fmt.Errorf("%s slice %s out of range for %d samples", name, sl, n)
			}
		}
	}
	return nil
}

// IndexOf returns the index of the last sample at or before tm (or 0, if tm precedes the track)
func (t Track) IndexOf(tm time.Time) int {
	i := sort.Search(len(t.Samples), func(i int) bool {
		return t.Samples[i].TimestampUTC.After(tm)
	})
	if i == 0 {
		return 0
	}
	return i - 1
}

// SampleAt interpolates a sample at time tm, clamping to the ends of the track.
func (t Track) SampleAt(tm time.Time) Sample {
	i := t.IndexOf(tm)
	if i >= len(t.Samples)-1 || tm.Before(t.Samples[i].TimestampUTC) {
		return t.Samples[i]
	}
	from, to := t.Samples[i], t.Samples[i+1]
	ratio := float64(tm.Sub(from.TimestampUTC)) / float64(to.TimestampUTC.Sub(from.TimestampUTC))
	return from.InterpolateTo(to, ratio)
}

// {{{ NewTrack

// NewTrack builds a track from raw samples, computing the derived series and looking for
// thermals, glides and dives. The samples are sorted by time, and duplicate timestamps dropped.
func NewTrack(meta TrackMetadata, samples []Sample) (*Track, error) {
	samples = append([]Sample{}, samples...)
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].TimestampUTC.Before(samples[j].TimestampUTC)
	})
	deduped := []Sample{}
	for i, s := range samples {
		if i > 0 && s.TimestampUTC.Equal(samples[i-1].TimestampUTC) {
			continue
		}
		deduped = append(deduped, s)
	}
	if len(deduped) == 0 {
		return nil, fmt.Errorf("NewTrack: no samples")
	}

	t := &Track{
		Filename:    meta.Filename,
		PilotName:   meta.PilotName,
		GliderType:  meta.GliderType,
		GliderID:    meta.GliderID,
		Declaration: meta.Declaration,
		Samples:     deduped,
		Bounds:      map[string]Bounds{},
	}
	t.analyse()

	return t, t.Validate()
}

// }}}
// {{{ t.analyse

func (t *Track) analyse() {
	n := len(t.Samples)
	t.T = make([]float64, n)
	t.Ele = make([]float64, n)
	t.Climb = make([]float64, n)
	t.TEC = make([]float64, n)
	t.Speed = make([]float64, n)

	// Cumulative distance along the path, so the path length between any two samples is cheap
	path := make([]float64, n)
	for i, s := range t.Samples {
		t.T[i] = s.TimestampUTC.Sub(t.Samples[0].TimestampUTC).Seconds()
		t.Ele[i] = s.Elevation
		if s.Elevation != 0 {
			t.ElevationData = true
		}
		if i > 0 {
			path[i] = path[i-1] + t.Samples[i-1].DistanceTo(s)
		}
	}

	progress := make([]float64, n)
	half := DerivativeWindow.Seconds() / 2
	for i := range t.Samples {
		j0, j1 := t.window(i, half)
		dt := t.T[j1] - t.T[j0]
		if dt <= 0 {
			progress[i] = 1.0
			continue
		}
		t.Climb[i] = (t.Ele[j1] - t.Ele[j0]) / dt
		t.Speed[i] = 3.6 * (path[j1] - path[j0]) / dt
		progress[i] = 1.0
		if d := path[j1] - path[j0]; d > 0 {
			progress[i] = t.Samples[j0].DistanceTo(t.Samples[j1]) / d
		}
	}

	// Total energy: fold the change in kinetic energy back into the climb rate
	for i := range t.Samples {
		j0, j1 := t.window(i, half)
		dt := t.T[j1] - t.T[j0]
		if dt <= 0 {
			t.TEC[i] = t.Climb[i]
			continue
		}
		v0, v1 := t.Speed[j0]/3.6, t.Speed[j1]/3.6
		t.TEC[i] = t.Climb[i] + (v1*v1-v0*v0)/(2*kGravity*dt)
	}

	t.Bounds["t"] = NewBounds(t.T...)
	t.Bounds["ele"] = NewBounds(t.Ele...)
	t.Bounds["climb"] = NewBounds(t.Climb...)
	t.Bounds["tec"] = NewBounds(t.TEC...)
	t.Bounds["speed"] = NewBounds(t.Speed...)

	low := t.Ele[0]
	for i := 1; i < n; i++ {
		if dz := t.Ele[i] - t.Ele[i-1]; dz > 0 {
			t.TotalDzPositive += dz
		}
		if t.Ele[i] < low {
			low = t.Ele[i]
		} else if t.Ele[i]-low > t.MaxDzPositive {
			t.MaxDzPositive = t.Ele[i] - low
		}
	}

	t.classify(progress)
}

// window returns the first and last sample indices within +/-half seconds of sample i,
// widening to the immediate neighbours if the window holds nothing else.
func (t *Track) window(i int, half float64) (int, int) {
	j0, j1 := i, i
	for j0 > 0 && t.T[i]-t.T[j0-1] <= half {
		j0--
	}
	for j1 < len(t.T)-1 && t.T[j1+1]-t.T[i] <= half {
		j1++
	}
	if j0 == j1 {
		if j0 > 0 {
			j0--
		}
		if j1 < len(t.T)-1 {
			j1++
		}
	}
	return j0, j1
}

// }}}
// {{{ t.classify

const (
	kStateNone = iota
	kStateThermal
	kStateGlide
	kStateDive
)

func (t *Track) classify(progress []float64) {
	states := make([]int, len(t.Samples))
	for i := range states {
		switch {
		case progress[i] >= 0.9:
			states[i] = kStateGlide
		case t.Climb[i] > 0:
			states[i] = kStateThermal
		case t.Climb[i] < -1:
			states[i] = kStateDive
		default:
			states[i] = kStateNone
		}
	}

	t.Thermals, t.Glides, t.Dives = []Slice{}, []Slice{}, []Slice{}
	for _, sl := range Runs(states) {
		if t.T[sl.Stop]-t.T[sl.Start] < MinSegmentDuration.Seconds() {
			continue
		}
		switch states[sl.Start] {
		case kStateThermal:
			t.Thermals = append(t.Thermals, sl)
		case kStateGlide:
			t.Glides = append(t.Glides, sl)
		case kStateDive:
			t.Dives = append(t.Dives, sl)
		}
	}
}

// }}}
// {{{ LoadJSON

// LoadJSON reads a JSON array of samples, e.g.
//   [{"TimestampUTC":"2016-01-01T21:36:08Z","Lat":46.1,"Long":7.2,"Elevation":1520}, ...]
func LoadJSON(r io.Reader, meta TrackMetadata) (*Track, error) {
	samples := []Sample{}
	if err := json.NewDecoder(r).Decode(&samples); err != nil {
		return nil, fmt.Errorf("LoadJSON: %v", err)
	}
	return NewTrack(meta, samples)
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
