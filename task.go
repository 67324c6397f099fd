package flightkmz

import (
	"math"

	"github.com/skypies/geo"
)

// A Turnpoint is one point of a declared task. RadiusM is the observation cylinder; zero
// means a plain point.
type Turnpoint struct {
	Name string
	geo.Latlong
	Elevation float64
	RadiusM   float64
}

// A Task is the route the pilot declared before the flight.
type Task struct {
	Name       string
	Turnpoints []Turnpoint
}

// Distance is the total length of the task legs, center to center, in meters.
func (t Task) Distance() float64 {
	d := 0.0
	for i := 1; i < len(t.Turnpoints); i++ {
		d += t.Turnpoints[i-1].DistKM(t.Turnpoints[i].Latlong) * 1000.0
	}
	return d
}

// Cylinder approximates the turnpoint's observation cylinder with n points; the first point
// is repeated at the end to close the ring.
func (tp Turnpoint) Cylinder(n int) []geo.Latlong {
	ret := []geo.Latlong{}
	if tp.RadiusM <= 0 || n < 3 {
		return ret
	}
	for i := 0; i <= n; i++ {
		bearing := 2 * math.Pi * float64(i%n) / float64(n)
		ret = append(ret, Destination(tp.Latlong, bearing, tp.RadiusM))
	}
	return ret
}
