// Package coordsys provides the purely functional conversions between the
// coordinate spaces the engine juggles: cube-space (a point on the surface
// of the unit cube, as produced by internal/vnode), sphere-space (the same
// point projected onto the unit sphere), world-space (meters from the
// planet's center), polar (latitude/longitude in radians), and geodetic
// lat/lon/altitude. Every function here is a pure value transform with no
// I/O and no shared state, matching the functional style of
// internal/vnode's own geometry helpers.
package coordsys

import (
	"math"

	"github.com/fintelia/terra/internal/vnode"
)

// CspaceToSspace projects a point on the unit cube's surface onto the unit
// sphere. cspace and sspace share the same direction from the origin, so
// this is just normalization.
func CspaceToSspace(c vnode.Vec3) vnode.Vec3 {
	return c.Normalize()
}

// SspaceToCspace projects a point on the unit sphere back onto the surface
// of the unit cube: the point is scaled so that its largest-magnitude axis
// becomes exactly ±1, which is the inverse of the cube's central
// projection used to build the sphere in the first place.
func SspaceToCspace(s vnode.Vec3) vnode.Vec3 {
	ax, ay, az := math.Abs(s.X), math.Abs(s.Y), math.Abs(s.Z)
	m := ax
	if ay > m {
		m = ay
	}
	if az > m {
		m = az
	}
	if m == 0 {
		return vnode.Vec3{X: 1}
	}
	return s.Scale(1 / m)
}

// SspaceToWspace scales a unit-sphere point out to the given planet radius,
// in meters.
func SspaceToWspace(s vnode.Vec3, planetRadius float64) vnode.Vec3 {
	return s.Scale(planetRadius)
}

// WspaceToSspace normalizes a world-space point back onto the unit sphere,
// discarding its altitude above/below the planet's surface.
func WspaceToSspace(w vnode.Vec3) vnode.Vec3 {
	return w.Normalize()
}

// Polar is a latitude/longitude pair, in radians.
type Polar struct {
	LatRadians float64
	LonRadians float64
}

// SspaceToPolar converts a unit-sphere point to latitude/longitude, using
// Z as the polar axis (latitude = asin(z), longitude = atan2(y, x)).
func SspaceToPolar(s vnode.Vec3) Polar {
	return Polar{
		LatRadians: math.Asin(clampUnit(s.Z)),
		LonRadians: math.Atan2(s.Y, s.X),
	}
}

// PolarToSspace is the inverse of SspaceToPolar.
func PolarToSspace(p Polar) vnode.Vec3 {
	cosLat := math.Cos(p.LatRadians)
	return vnode.Vec3{
		X: cosLat * math.Cos(p.LonRadians),
		Y: cosLat * math.Sin(p.LonRadians),
		Z: math.Sin(p.LatRadians),
	}
}

// LLA is a geodetic position: latitude and longitude in radians, plus
// altitude in meters above the reference sphere.
type LLA struct {
	LatRadians     float64
	LonRadians     float64
	AltitudeMeters float64
}

// LLAToWspace converts a geodetic position to world-space meters, treating
// the planet as a sphere of the given radius (the engine does not model an
// ellipsoid; see spec's planet-as-sphere simplification). At AltitudeMeters
// == 0 this is exactly planetRadius * PolarToSspace(...), so round-tripping
// through WspaceToLLA recovers the same latitude and longitude up to
// floating-point rounding (the tests allow 1e-12 radians).
func LLAToWspace(p LLA, planetRadius float64) vnode.Vec3 {
	dir := PolarToSspace(Polar{LatRadians: p.LatRadians, LonRadians: p.LonRadians})
	return dir.Scale(planetRadius + p.AltitudeMeters)
}

// WspaceToLLA is the inverse of LLAToWspace.
func WspaceToLLA(w vnode.Vec3, planetRadius float64) LLA {
	length := w.Length()
	dir := w
	if length != 0 {
		dir = w.Scale(1 / length)
	}
	polar := SspaceToPolar(dir)
	return LLA{
		LatRadians:     polar.LatRadians,
		LonRadians:     polar.LonRadians,
		AltitudeMeters: length - planetRadius,
	}
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
