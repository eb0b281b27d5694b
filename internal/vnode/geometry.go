package vnode

import "math"

// Vec3 is a plain 3-component vector in either cube space (coordinates in
// [-1, 1], one of which is always exactly ±1) or world space (meters from
// the planet's center).
type Vec3 struct {
	X, Y, Z float64
}

func (a Vec3) Add(b Vec3) Vec3    { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3    { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(s float64) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }
func (a Vec3) Dot(b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{a.Y*b.Z - a.Z*b.Y, a.Z*b.X - a.X*b.Z, a.X*b.Y - a.Y*b.X}
}
func (a Vec3) Length2() float64 { return a.Dot(a) }
func (a Vec3) Length() float64  { return math.Sqrt(a.Length2()) }
func (a Vec3) Normalize() Vec3 {
	l := a.Length()
	if l == 0 {
		return a
	}
	return a.Scale(1 / l)
}
func (a Vec3) Distance2(b Vec3) float64 { return a.Sub(b).Length2() }

// warp/unwarp coefficients for the equal-area cube-sphere mapping (the same
// constants the original engine tuned so that cube cells map onto
// roughly-equal-area regions of the sphere).
const (
	warpA = 1.4511
	warpB = 1.8044
)

func signum(v float64) float64 {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

// fspaceToCspace warps face-space coordinates x, y (each in [-1, 1]) onto
// the unit cube face this node belongs to.
func (n VNode) fspaceToCspace(x, y float64) Vec3 {
	x = signum(x) * (warpA - math.Sqrt(warpA*warpA-warpB*math.Abs(x))) / 0.9022
	y = signum(y) * (warpA - math.Sqrt(warpA*warpA-warpB*math.Abs(y))) / 0.9022

	switch n.Face() {
	case 0:
		return Vec3{1.0, x, -y}
	case 1:
		return Vec3{-1.0, -x, -y}
	case 2:
		return Vec3{x, 1.0, y}
	case 3:
		return Vec3{-x, -1.0, y}
	case 4:
		return Vec3{x, -y, 1.0}
	default:
		return Vec3{-x, -y, -1.0}
	}
}

// cspaceToFspace is the inverse of fspaceToCspace: given a point known to
// lie on the unit cube's surface, recovers which face it's on and its
// unwarped face-space coordinates.
func cspaceToFspace(c Vec3) (face uint8, x, y float64) {
	switch {
	case c.X == 1.0:
		face, x, y = 0, c.Y, -c.Z
	case c.X == -1.0:
		face, x, y = 1, -c.Y, -c.Z
	case c.Y == 1.0:
		face, x, y = 2, c.X, c.Z
	case c.Y == -1.0:
		face, x, y = 3, -c.X, c.Z
	case c.Z == 1.0:
		face, x, y = 4, c.X, -c.Y
	case c.Z == -1.0:
		face, x, y = 5, -c.X, -c.Y
	default:
		panic("vnode: point is not on the unit cube surface")
	}

	x = x * (warpA + (1.0-warpA)*math.Abs(x))
	y = y * (warpA + (1.0-warpA)*math.Abs(y))
	return face, x, y
}

// GridPositionCspace interpolates the cube-space position of grid point
// (x, y) on this node's tile, for a grid of the given resolution surrounded
// by skirt cells of padding on every edge (grid registration: sample points
// sit on cell corners, so the grid spans resolution-1 cells edge to edge).
// Used for heightmap/displacement data (spec §4.1).
func (n VNode) GridPositionCspace(x, y int32, skirt, resolution uint16) Vec3 {
	fx := float64(x-int32(skirt)) / float64(int32(resolution)-1-2*int32(skirt))
	fy := float64(y-int32(skirt)) / float64(int32(resolution)-1-2*int32(skirt))
	scale := 2.0 / float64(uint32(1)<<n.Level())

	fx = (float64(n.X())+fx)*scale - 1.0
	fy = (float64(n.Y())+fy)*scale - 1.0
	return n.fspaceToCspace(fx, fy)
}

// CellPositionCspace is GridPositionCspace's cell-registration counterpart:
// sample points sit at cell centers, so the grid spans resolution-2*skirt
// cells. Used for color/normal texture data (spec §4.1).
func (n VNode) CellPositionCspace(x, y int32, skirt, resolution uint16) Vec3 {
	fx := (float64(x-int32(skirt)) + 0.5) / float64(int32(resolution)-2*int32(skirt))
	fy := (float64(y-int32(skirt)) + 0.5) / float64(int32(resolution)-2*int32(skirt))
	scale := 2.0 / float64(uint32(1)<<n.Level())

	fx = (float64(n.X())+fx)*scale - 1.0
	fy = (float64(n.Y())+fy)*scale - 1.0
	return n.fspaceToCspace(fx, fy)
}

// FromCspace locates the VNode at the given level that contains cspace, and
// the fractional position within that node's cell ([0, 1) on each axis).
func FromCspace(cspace Vec3, level uint8) (node VNode, fracX, fracY float32) {
	face, x, y := cspaceToFspace(cspace)

	fx := (x*0.5 + 0.5) * float64(uint32(1)<<level)
	fy := (y*0.5 + 0.5) * float64(uint32(1)<<level)

	node = New(level, face, uint32(math.Floor(fx)), uint32(math.Floor(fy)))
	return node, float32(fx - math.Floor(fx)), float32(fy - math.Floor(fy))
}

// CenterWspace returns the world-space position (meters from the planet's
// center) of this node's cell center, projected onto the sphere of radius
// planetRadius.
func (n VNode) CenterWspace(planetRadius float64) Vec3 {
	return n.CellPositionCspace(0, 0, 0, 1).Normalize().Scale(planetRadius)
}

// shellMinRadius/shellMaxRadius bound the shell of terrain the engine renders: the
// planet's surface plus a margin below (ocean floor) and above (mountains).
const (
	shellMinRadius = EarthRadius - 1000.0
	shellMaxRadius = EarthRadius + 9000.0
)

// Distance2 returns the squared distance from point (world space) to the
// nearest point of this node's cell, clamped to the [shellMinRadius,
// shellMaxRadius] shell the terrain occupies. Zero if point already lies
// within the node's frustum and the shell.
func (n VNode) Distance2(point Vec3) float64 {
	corners := [4]Vec3{
		n.GridPositionCspace(0, 0, 0, 2),
		n.GridPositionCspace(1, 0, 0, 2),
		n.GridPositionCspace(1, 1, 0, 2),
		n.GridPositionCspace(0, 1, 0, 2),
	}
	normals := [4]Vec3{
		corners[0].Cross(corners[1].Scale(-1)),
		corners[1].Cross(corners[2].Scale(-1)),
		corners[2].Cross(corners[3].Scale(-1)),
		corners[3].Cross(corners[0].Scale(-1)),
	}

	allOutward := true
	for _, nrm := range normals {
		if nrm.Dot(point) < 0.0 {
			allOutward = false
			break
		}
	}
	if allOutward {
		length2 := point.Dot(point)
		if length2 > shellMinRadius*shellMinRadius && length2 < shellMaxRadius*shellMaxRadius {
			return 0.0
		}
		length := math.Sqrt(length2)
		d := math.Max(length-shellMaxRadius, shellMinRadius-length)
		return d * d
	}

	d2 := math.Inf(1)
	for i := 0; i < 4; i++ {
		corner := corners[i].Normalize()
		t := clamp(point.Dot(corner), shellMinRadius, shellMaxRadius)
		segmentPoint := corner.Scale(t)
		d2 = math.Min(d2, segmentPoint.Distance2(point))
	}

	for i := 0; i < 4; i++ {
		next := corners[(i+1)%4]
		if normals[i].Dot(point) < 0.0 &&
			corners[i].Cross(normals[i]).Dot(point) > 0.0 &&
			next.Scale(-1).Cross(normals[i]).Dot(point.Sub(next)) > 0.0 {

			surface := point.Sub(normals[i].Scale(normals[i].Dot(point) / normals[i].Dot(normals[i])))
			length2 := surface.Dot(surface)
			switch {
			case length2 > shellMaxRadius*shellMaxRadius:
				surface = surface.Normalize().Scale(shellMaxRadius)
				d2 = math.Min(d2, surface.Distance2(point))
			case length2 < shellMinRadius*shellMinRadius:
				surface = surface.Normalize().Scale(shellMinRadius)
				d2 = math.Min(d2, surface.Distance2(point))
			default:
				dot := normals[i].Dot(point)
				d2 = math.Min(d2, dot*dot/normals[i].Dot(normals[i]))
			}
		}
	}

	return d2
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
