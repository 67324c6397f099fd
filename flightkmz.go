// This package contains the track model for flight-to-KMZ conversion: samples, tracks with
// their derived series, slices, and the small algorithms the document builder runs over them.
package flightkmz

import "time"

const (
	// DerivativeWindow is the span used to compute the windowed climb & speed series.
	DerivativeWindow = 20 * time.Second

	// MinSegmentDuration is how long a run of thermalling/gliding/diving needs to last
	// before it is reported as a segment.
	MinSegmentDuration = 60 * time.Second
)
