// Package vnode implements the virtual-node addressing scheme: a quadtree
// laid over the six faces of a cube, each face mapped onto one sixth of a
// sphere approximating the Earth. A VNode is a pure value — (level, face, x,
// y) packed into a single uint64 — so the tree has no object graph: parents,
// children, and ancestors are all computed by arithmetic on the packed key,
// never by following a pointer (see spec §9, "avoiding cyclic ownership").
package vnode

import "math"

// EarthRadius is the radius, in meters, of the sphere the engine renders
// (spec §3).
const EarthRadius = 6371000.0

// EarthCircumference is the circumference, in meters, of EarthRadius.
const EarthCircumference = 2.0 * math.Pi * EarthRadius

// rootSideLength is the approximate world-space side length of a level-0
// (root) node's face region.
const rootSideLength = EarthCircumference * 0.25

// MaxLevel is the deepest level a VNode may address. Fixed at 22 per spec
// §9's open-question resolution (the tighter of the two bounds found in the
// original sources); widening it requires widening the bit layout below.
const MaxLevel = 22

// Bit layout, matching the original engine's packing exactly: 8 bits of
// level (bits 56-63) leave room to spare, 3 bits of face, and 26 bits each for x and y
// (sufficient for level 22, since x,y < 2^22 < 2^26).
const (
	levelShift = 56
	faceShift  = 53
	ySshift    = 26
	coordMask  = 0x3ffffff // 26 bits
	faceMask   = 0x7
)

// VNode is an opaque address of one cell of the cube-quadtree. Two VNodes
// are equal iff their (level, face, x, y) all match, which holds for Go's
// built-in == on this type since it is a plain uint64 under the hood.
type VNode uint64

// New constructs a VNode from its four fields. Callers within this package
// must maintain the invariants x < 2^level, y < 2^level, face < 6.
func New(level uint8, face uint8, x, y uint32) VNode {
	return VNode(uint64(level)<<levelShift | uint64(face)<<faceShift | uint64(y)<<ySshift | uint64(x))
}

// Roots returns the six level-0 nodes, one per cube face, in face order
// 0..5 (spec §8 scenario 1).
func Roots() [6]VNode {
	return [6]VNode{
		New(0, 0, 0, 0),
		New(0, 1, 0, 0),
		New(0, 2, 0, 0),
		New(0, 3, 0, 0),
		New(0, 4, 0, 0),
		New(0, 5, 0, 0),
	}
}

// Level returns the node's depth in the quadtree; 0 for the six roots.
func (n VNode) Level() uint8 { return uint8(uint64(n) >> levelShift) }

// Face returns which of the six cube faces (0..5) the node belongs to.
func (n VNode) Face() uint8 { return uint8(uint64(n)>>faceShift) & faceMask }

// X returns the node's column within its face's level grid.
func (n VNode) X() uint32 { return uint32(uint64(n)) & coordMask }

// Y returns the node's row within its face's level grid.
func (n VNode) Y() uint32 { return uint32(uint64(n)>>ySshift) & coordMask }

// ApproxSideLength returns the approximate world-space side length of this
// node's cell, in meters (spec §3).
func (n VNode) ApproxSideLength() float64 {
	return rootSideLength / float64(uint32(1)<<n.Level())
}

// minDistance is the camera distance, in meters, at which this node's
// priority equals Cutoff: twice the root side length divided by 2^level
// (spec §3 Priority).
func (n VNode) minDistance() float64 {
	return rootSideLength * 2.0 / float64(uint32(1)<<n.Level())
}

// Parent returns the node one level up, plus the 0..3 child index this node
// occupies within it (spec §4.1: childIndex = (x%2) + 2*(y%2)). Returns
// false if n is already a root.
func (n VNode) Parent() (parent VNode, childIndex uint8, ok bool) {
	if n.Level() == 0 {
		return 0, 0, false
	}
	childIndex = uint8(n.X()%2) + 2*uint8(n.Y()%2)
	parent = New(n.Level()-1, n.Face(), n.X()/2, n.Y()/2)
	return parent, childIndex, true
}

// Children returns the four nodes one level down, in index order 0..3:
// (2x,2y), (2x+1,2y), (2x,2y+1), (2x+1,2y+1). Panics if n is already at
// MaxLevel.
func (n VNode) Children() [4]VNode {
	if n.Level() >= MaxLevel {
		panic("vnode: Children called at MaxLevel")
	}
	level := n.Level() + 1
	face := n.Face()
	x, y := n.X(), n.Y()
	return [4]VNode{
		New(level, face, x*2, y*2),
		New(level, face, x*2+1, y*2),
		New(level, face, x*2, y*2+1),
		New(level, face, x*2+1, y*2+1),
	}
}

// FindAncestor walks upward from n, calling pred on each node starting with
// n itself, until pred returns true. It returns that ancestor, the number
// of generations climbed, and the (x, y) offset of n within the ancestor's
// cell, measured in cells of n's own level (i.e. in
// [0, 2^generations)). Returns ok=false if no ancestor (including the
// level-0 root) satisfies pred.
func (n VNode) FindAncestor(pred func(VNode) bool) (ancestor VNode, generations int, offsetX, offsetY uint32, ok bool) {
	node := n
	var gens int
	var ox, oy uint32
	for !pred(node) {
		if node.Level() == 0 {
			return 0, 0, 0, 0, false
		}
		ox += (node.X() & 1) << uint(gens)
		oy += (node.Y() & 1) << uint(gens)
		gens++
		node = New(node.Level()-1, node.Face(), node.X()/2, node.Y()/2)
	}
	return node, gens, ox, oy, true
}

// BreadthFirst traverses the quadtree starting from the six roots in face
// order, visiting each node and recursing into its children only when
// visit returns true. Children are enqueued in index order 0..3.
func BreadthFirst(visit func(VNode) bool) {
	pending := make([]VNode, 0, 64)
	for _, root := range Roots() {
		if visit(root) {
			pending = append(pending, root)
		}
	}
	for len(pending) > 0 {
		node := pending[0]
		pending = pending[1:]
		for _, child := range node.Children() {
			if visit(child) {
				pending = append(pending, child)
			}
		}
	}
}
