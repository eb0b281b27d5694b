package generate

import (
	"sort"

	"github.com/fintelia/terra/internal/vnode"
)

// xyToHilbert converts (x, y) to a Hilbert curve index within an n x n
// grid; n must be a power of two.
func xyToHilbert(x, y, n uint64) uint64 {
	var d uint64
	s := n / 2
	for s > 0 {
		var rx, ry uint64
		if x&s > 0 {
			rx = 1
		}
		if y&s > 0 {
			ry = 1
		}
		d += s * s * ((3 * rx) ^ ry)
		if ry == 0 {
			if rx == 1 {
				x = s*2 - 1 - x
				y = s*2 - 1 - y
			}
			x, y = y, x
		}
		s /= 2
	}
	return d
}

// SortByLocality orders nodes so that spatially-nearby tiles are processed
// near each other in time: primarily by level (so a single level's jobs
// stay grouped), then by cube face, then by each level's Hilbert curve
// index. This improves
// locality for any shared raster cache the generators read from, the same
// rationale the teacher's tile pipeline uses Hilbert ordering for.
func SortByLocality(nodes []vnode.VNode) {
	sort.Slice(nodes, func(i, j int) bool {
		li, lj := nodes[i].Level(), nodes[j].Level()
		if li != lj {
			return li < lj
		}
		if nodes[i].Face() != nodes[j].Face() {
			return nodes[i].Face() < nodes[j].Face()
		}
		n := uint64(1) << uint(li)
		return xyToHilbert(uint64(nodes[i].X()), uint64(nodes[i].Y()), n) <
			xyToHilbert(uint64(nodes[j].X()), uint64(nodes[j].Y()), n)
	})
}
