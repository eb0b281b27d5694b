package generate

import (
	"encoding/binary"
	"math"

	"github.com/fintelia/terra/internal/vnode"
)

// GenerateNormals computes a node's normal tile from its heightmap: a
// four-sample central-difference gradient with spacing =
// approxSideLength/(heightmapResolution-2*skirt) (spec §4.5), producing a
// unit normal per cell-registered sample, encoded to RG8 (X, Y channels;
// Z is reconstructed from X and Y in the shader and is not stored) with
// scale 127.5 and bias 127.5.
func GenerateNormals(node vnode.VNode, heightmap []byte, heightmapResolution, skirt, normalmapResolution uint16) []byte {
	spacing := node.ApproxSideLength() / float64(int(heightmapResolution)-2*int(skirt))

	sampleHeight := func(hx, hy int) float32 {
		if hx < 0 {
			hx = 0
		}
		if hx >= int(heightmapResolution) {
			hx = int(heightmapResolution) - 1
		}
		if hy < 0 {
			hy = 0
		}
		if hy >= int(heightmapResolution) {
			hy = int(heightmapResolution) - 1
		}
		idx := (hy*int(heightmapResolution) + hx) * 4
		return math.Float32frombits(binary.LittleEndian.Uint32(heightmap[idx:]))
	}

	out := make([]byte, int(normalmapResolution)*int(normalmapResolution)*2)

	// Offset from normalmap sample space into heightmap sample space:
	// normalmap sample (x, y) is centred on heightmap sample
	// (x+skirt+1, y+skirt+1).
	offset := int(skirt) + 1

	for y := 0; y < int(normalmapResolution); y++ {
		for x := 0; x < int(normalmapResolution); x++ {
			hx, hy := x+offset, y+offset

			left := float64(sampleHeight(hx-1, hy))
			right := float64(sampleHeight(hx+1, hy))
			down := float64(sampleHeight(hx, hy-1))
			up := float64(sampleHeight(hx, hy+1))

			dx := (right - left) / (2 * spacing)
			dy := (up - down) / (2 * spacing)

			n := vnode.Vec3{X: -dx, Y: -dy, Z: 1}.Normalize()

			idx := (y*int(normalmapResolution) + x) * 2
			out[idx] = encodeNormalChannel(n.X)
			out[idx+1] = encodeNormalChannel(n.Y)
		}
	}
	return out
}

func encodeNormalChannel(v float64) byte {
	scaled := v*127.5 + 127.5
	if scaled < 0 {
		scaled = 0
	}
	if scaled > 255 {
		scaled = 255
	}
	return byte(math.Round(scaled))
}
