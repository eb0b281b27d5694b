package vnode

// Priority scores how urgently a node's tiles are needed for the current
// frame. Larger means more urgent; values below Cutoff mean the node is
// at least as detailed as the camera currently needs, so it is not
// subdivided further (spec §3).
type Priority float32

// Cutoff is the threshold below which a node is considered unneeded.
const Cutoff Priority = 1.0

// FromFloat32 builds a Priority from a raw score.
func FromFloat32(v float32) Priority { return Priority(v) }

func (p Priority) Float32() float32 { return float32(p) }

// Priority computes how urgently this node is needed given the camera's
// world-space position: the ratio of the node's minimum on-screen size to
// its actual distance from the camera, squared so that it can be compared
// without taking a square root per node.
func (n VNode) Priority(camera Vec3) Priority {
	minDistance := n.minDistance()
	d2 := n.Distance2(camera)
	if d2 < 1e-12 {
		d2 = 1e-12
	}
	return FromFloat32(float32((minDistance * minDistance) / d2))
}
