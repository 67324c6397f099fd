package flightkmz

import (
	"math"
	"testing"
	"time"

	"github.com/skypies/geo"
	"github.com/stretchr/testify/assert"
)

func TestDistanceAndBearing(t *testing.T) {
	tm := time.Date(2016, 7, 1, 12, 0, 0, 0, time.UTC)
	s1 := Sample{TimestampUTC: tm, Latlong: geo.Latlong{0, 0}, Elevation: 100}
	north := Sample{TimestampUTC: tm.Add(time.Minute), Latlong: geo.Latlong{1, 0}, Elevation: 160}
	east := Sample{TimestampUTC: tm.Add(time.Minute), Latlong: geo.Latlong{0, 1}}

	assert.InDelta(t, 111195.0, s1.DistanceTo(north), 500.0)
	assert.InDelta(t, 0.0, s1.InitialBearingTo(north), 1e-6)
	assert.InDelta(t, math.Pi/2, s1.InitialBearingTo(east), 1e-6)

	h := s1.HalfwayTo(north)
	assert.InDelta(t, 0.5, h.Lat, 1e-6)
	assert.InDelta(t, 130.0, h.Elevation, 1e-9)
	assert.Equal(t, tm.Add(30*time.Second), h.TimestampUTC)
}

func TestDestination(t *testing.T) {
	ll := Destination(geo.Latlong{0, 0}, math.Pi/2, 111195.0)
	assert.InDelta(t, 0.0, ll.Lat, 1e-6)
	assert.InDelta(t, 1.0, ll.Long, 0.01)

	ll = Destination(geo.Latlong{46, 7}, 0, 1000)
	assert.InDelta(t, 1000.0, ll.DistKM(geo.Latlong{46, 7})*1000, 5.0)
}

func TestRadToCompass(t *testing.T) {
	tests := []struct {
		Rad      float64
		Expected string
	}{
		{0, "N"},
		{math.Pi / 2, "E"},
		{math.Pi, "S"},
		{-math.Pi / 2, "W"},
		{2*math.Pi - 0.01, "N"},
		{math.Pi / 8, "NNE"},
		{5 * math.Pi / 2, "E"},
	}

	for i, test := range tests {
		if actual := RadToCompass(test.Rad); actual != test.Expected {
			t.Errorf("[%d] RadToCompass(%f): expected %s, got %s", i, test.Rad, test.Expected, actual)
		}
	}
}
