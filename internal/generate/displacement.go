package generate

import (
	"encoding/binary"
	"math"

	"github.com/fintelia/terra/internal/vnode"
)

// GenerateDisplacement produces a node's displacement tile: a 4-float
// vector per sample, channel layout {reserved, height, reserved, reserved}
// per spec §6 (the height channel doubles as the vertex displacement
// source; the other three channels are reserved for future per-vertex
// displacement and are left zero here).
//
// heightmap holds the node's own heightmap samples (little-endian f32,
// row-major, heightmapResolution²) when the node is at or above
// cfg.MaxTexturePresentLevel. For deeper nodes, the caller instead passes
// the nearest generated ancestor's heightmap via ancestor, along
// with the (offsetX, offsetY, generations) returned by VNode.FindAncestor,
// so this function can sample the coarser ancestor data at the
// appropriate sub-region.
func GenerateDisplacement(
	node vnode.VNode,
	resolution, heightmapResolution, skirt uint16,
	heightmap []byte,
	ancestor *AncestorSample,
) []byte {
	out := make([]byte, int(resolution)*int(resolution)*4*4)

	sampleHeight := func(x, y int) float32 {
		if ancestor != nil {
			return ancestor.HeightAt(x, y, int(resolution))
		}
		hx := x * int(heightmapResolution) / int(resolution)
		hy := y * int(heightmapResolution) / int(resolution)
		if hx >= int(heightmapResolution) {
			hx = int(heightmapResolution) - 1
		}
		if hy >= int(heightmapResolution) {
			hy = int(heightmapResolution) - 1
		}
		idx := (hy*int(heightmapResolution) + hx) * 4
		return math.Float32frombits(binary.LittleEndian.Uint32(heightmap[idx:]))
	}

	for y := 0; y < int(resolution); y++ {
		for x := 0; x < int(resolution); x++ {
			height := sampleHeight(x, y)
			base := (y*int(resolution) + x) * 16
			binary.LittleEndian.PutUint32(out[base:], 0)
			binary.LittleEndian.PutUint32(out[base+4:], math.Float32bits(height))
			binary.LittleEndian.PutUint32(out[base+8:], 0)
			binary.LittleEndian.PutUint32(out[base+12:], 0)
		}
	}
	return out
}

// AncestorSample lets GenerateDisplacement (and other texture generators)
// sample an ancestor node's heightmap as if it were this node's own
// texture, using the offset/scale VNode.FindAncestor computed.
type AncestorSample struct {
	Heightmap   []byte
	Resolution  int
	Generations int
	OffsetX     uint32
	OffsetY     uint32
}

// HeightAt returns the ancestor heightmap's value at the sub-region
// position implied by sampling (x, y) of a resolution x resolution grid
// covering this node's own cell.
func (a *AncestorSample) HeightAt(x, y, resolution int) float32 {
	scale := 1.0 / float64(uint32(1)<<uint(a.Generations))
	fx := (float64(a.OffsetX) + float64(x)/float64(resolution)) * scale * float64(a.Resolution)
	fy := (float64(a.OffsetY) + float64(y)/float64(resolution)) * scale * float64(a.Resolution)

	hx := int(fx)
	hy := int(fy)
	if hx >= a.Resolution {
		hx = a.Resolution - 1
	}
	if hy >= a.Resolution {
		hy = a.Resolution - 1
	}
	idx := (hy*a.Resolution + hx) * 4
	return math.Float32frombits(binary.LittleEndian.Uint32(a.Heightmap[idx:]))
}
