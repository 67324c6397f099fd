package fpdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skypies/flightkmz"
	"github.com/skypies/flightkmz/flight"
	"github.com/skypies/geo"
)

func climbingTrack(t *testing.T, withElevation bool) *flightkmz.Track {
	start := time.Date(2016, 7, 1, 12, 0, 0, 0, time.UTC)
	pos := geo.Latlong{Lat: 46.0, Long: 7.0}
	samples := []flightkmz.Sample{}
	for i := 0; i < 600; i++ {
		s := flightkmz.Sample{
			TimestampUTC: start.Add(time.Duration(i) * time.Second),
			Latlong:      flightkmz.Destination(pos, 0, float64(i)*10),
		}
		if withElevation {
			s.Elevation = 1000 + float64(i)
		}
		samples = append(samples, s)
	}
	tr, err := flightkmz.NewTrack(flightkmz.TrackMetadata{PilotName: "Test Pilot", GliderType: "Omega"}, samples)
	require.NoError(t, err)
	return tr
}

func TestWriteFlightSummary(t *testing.T) {
	for _, withElevation := range []bool{true, false} {
		tr := climbingTrack(t, withElevation)
		g := flight.NewGlobals(tr, flight.DefaultOptions(), nil, nil)

		var buf bytes.Buffer
		require.NoError(t, WriteFlightSummary(&buf, tr, g))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	}
}

func TestWriteFlightSummaryEmpty(t *testing.T) {
	tr := &flightkmz.Track{}
	var buf bytes.Buffer
	assert.Error(t, WriteFlightSummary(&buf, tr, &flight.Globals{}))
	assert.Zero(t, buf.Len())
}

func TestGridStep(t *testing.T) {
	tests := []struct {
		Span, Expected float64
	}{
		{0, 1},
		{7, 1},
		{35, 5},
		{600, 100},
		{1800, 200},
		{3600, 500},
	}
	for i, test := range tests {
		assert.Equal(t, test.Expected, gridStep(test.Span), "[%d] span %v", i, test.Span)
	}
}

func TestBaseGridUV(t *testing.T) {
	bg := BaseGrid{OffsetU: 10, OffsetV: 20, W: 100, H: 50, MinX: 0, MaxX: 10, MinY: 0, MaxY: 5}

	u, v, oob := bg.UV(0, 0)
	assert.Equal(t, 10.0, u)
	assert.Equal(t, 70.0, v) // origin is bottom-left
	assert.False(t, oob)

	u, v, oob = bg.UV(10, 5)
	assert.Equal(t, 110.0, u)
	assert.Equal(t, 20.0, v)
	assert.False(t, oob)

	_, _, oob = bg.UV(11, 2)
	assert.True(t, oob)

	bg.InvertX = true
	u, _ = bg.U(0)
	assert.Equal(t, 110.0, u)
}
