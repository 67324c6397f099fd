package flightkmz

import (
	"fmt"
	"math"
	"time"

	"github.com/skypies/geo"
)

const kEarthRadiusM = 6371000.0

// Sample is one fix of a flight recording; it locates the glider in space and time.
type Sample struct {
	TimestampUTC time.Time // Always in UTC

	geo.Latlong // Embedded type, so we can call all the geo stuff directly on samples

	Elevation float64 // In meters; only meaningful if the track says it has elevation data
}

func (s Sample) String() string {
	return fmt.Sprintf("[%s] %s %.0fm", s.TimestampUTC.Format("15:04:05"), s.Latlong, s.Elevation)
}

// DistanceTo is the great circle distance, in meters.
func (s Sample) DistanceTo(to Sample) float64 {
	return s.Latlong.DistKM(to.Latlong) * 1000.0
}

// InitialBearingTo is in radians, [0, 2pi)
func (s Sample) InitialBearingTo(to Sample) float64 {
	rad := s.Latlong.BearingTowards(to.Latlong) * math.Pi / 180.0
	if rad < 0 {
		rad += 2 * math.Pi
	}
	return rad
}

// HalfwayTo is the sample midway (in space, elevation and time) between s and to.
func (s Sample) HalfwayTo(to Sample) Sample {
	return s.InterpolateTo(to, 0.5)
}

func (from Sample) InterpolateTo(to Sample, ratio float64) Sample {
	return Sample{
		TimestampUTC: interpolateTime(from.TimestampUTC, to.TimestampUTC, ratio),
		Latlong:      from.Latlong.InterpolateTo(to.Latlong, ratio),
		Elevation:    interpolateFloat64(from.Elevation, to.Elevation, ratio),
	}
}

func interpolateFloat64(from, to, ratio float64) float64 {
	return from + (to-from)*ratio
}

func interpolateTime(from, to time.Time, ratio float64) time.Time {
	d := to.Sub(from)
	return from.Add(time.Duration(ratio * float64(d.Nanoseconds())))
}

// Destination walks distM meters from ll along the (initial) bearing, given in radians.
func Destination(ll geo.Latlong, bearing, distM float64) geo.Latlong {
	lat1 := ll.Lat * math.Pi / 180.0
	lon1 := ll.Long * math.Pi / 180.0
	d := distM / kEarthRadiusM

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(bearing))
	lon2 := lon1 + math.Atan2(math.Sin(bearing)*math.Sin(d)*math.Cos(lat1),
		math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))

	return geo.Latlong{lat2 * 180.0 / math.Pi, math.Remainder(lon2*180.0/math.Pi, 360.0)}
}

var compassPoints = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// RadToCompass maps a bearing (radians, any winding) onto a 16-point compass label.
func RadToCompass(rad float64) string {
	rad = math.Mod(rad, 2*math.Pi)
	if rad < 0 {
		rad += 2 * math.Pi
	}
	return compassPoints[int(8*rad/math.Pi+0.5)%16]
}
