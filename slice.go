package flightkmz

import (
	"fmt"
	"math"
)

// Slice is an inclusive range of sample indices, [Start, Stop].
type Slice struct {
	Start, Stop int
}

func (s Slice) String() string { return fmt.Sprintf("[%d,%d]", s.Start, s.Stop) }
func (s Slice) Len() int       { return s.Stop - s.Start + 1 }

// Runs splits seq into maximal runs of equal values. The slices are returned in order, and
// between them cover every index of seq exactly once.
func Runs(seq []int) []Slice {
	ret := []Slice{}
	if len(seq) == 0 {
		return ret
	}

	start := 0
	for i := 1; i < len(seq); i++ {
		if seq[i] != seq[start] {
			ret = append(ret, Slice{start, i - 1})
			start = i
		}
	}
	return append(ret, Slice{start, len(seq) - 1})
}

// Bounds tracks the observed range of a series. The zero value is empty; the first Update
// sets both ends.
type Bounds struct {
	Min, Max float64
	valid    bool
}

func NewBounds(vals ...float64) Bounds {
	b := Bounds{}
	for _, v := range vals {
		b.Update(v)
	}
	return b
}

func (b *Bounds) Update(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	if !b.valid {
		b.Min, b.Max, b.valid = v, v, true
		return
	}
	if v < b.Min {
		b.Min = v
	}
	if v > b.Max {
		b.Max = v
	}
}

func (b Bounds) IsEmpty() bool { return !b.valid }
func (b Bounds) Width() float64 { return b.Max - b.Min }

func (b Bounds) String() string {
	if !b.valid {
		return "[empty]"
	}
	return fmt.Sprintf("[%.1f,%.1f]", b.Min, b.Max)
}
