package flightkmz

import "sort"

// Salient picks out the turning points of a series at several magnitudes. thresholds are
// ordered coarsest first (e.g. {100, 50, 10}); the result maps a sample index to the index of
// the coarsest threshold for which that sample is a turning point. Samples that are not turning
// points at any threshold are absent.
//
// A sample is a turning point at threshold e if it is a local extremum of the zig-zag
// reduction of vals at e: the series moves away from it, in the opposite direction, by at
// least e before a new extremum is found. The first and last samples never qualify.
func Salient(vals []float64, thresholds []float64) map[int]int {
	ret := map[int]int{}
	for tier, e := range thresholds {
		for _, i := range zigzag(vals, e) {
			if prev, exists := ret[i]; !exists || tier < prev {
				ret[i] = tier
			}
		}
	}
	return ret
}

// SalientIndices returns the keys of a Salient result, in ascending order.
func SalientIndices(m map[int]int) []int {
	ret := []int{}
	for i := range m {
		ret = append(ret, i)
	}
	sort.Ints(ret)
	return ret
}

// zigzag returns the indices of confirmed turning points, in order.
func zigzag(vals []float64, e float64) []int {
	ret := []int{}
	if len(vals) < 3 || e <= 0 {
		return ret
	}

	const (
		undecided = iota
		rising
		falling
	)

	keep := func(i int) {
		if i > 0 && i < len(vals)-1 {
			ret = append(ret, i)
		}
	}

	dir := undecided
	lo, hi := 0, 0 // candidate extremes while undecided
	ext := 0       // candidate extreme once a direction is known

	for i := 1; i < len(vals); i++ {
		v := vals[i]
		switch dir {
		case undecided:
			if v < vals[lo] {
				lo = i
			}
			if v > vals[hi] {
				hi = i
			}
			if vals[hi]-vals[lo] >= e {
				// The earlier of the two is the first turning point; we now trend towards the other.
				if lo < hi {
					keep(lo)
					dir, ext = rising, hi
				} else {
					keep(hi)
					dir, ext = falling, lo
				}
			}

		case rising:
			if v > vals[ext] {
				ext = i
			} else if vals[ext]-v >= e {
				keep(ext)
				dir, ext = falling, i
			}

		case falling:
			if v < vals[ext] {
				ext = i
			} else if v-vals[ext] >= e {
				keep(ext)
				dir, ext = rising, i
			}
		}
	}

	return ret
}
