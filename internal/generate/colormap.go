package generate

import (
	"context"
	"math"

	"github.com/fintelia/terra/internal/coordsys"
	"github.com/fintelia/terra/internal/raster"
	"github.com/fintelia/terra/internal/vnode"
)

// roughnessByte is the constant roughness value (0.7, 8-bit encoded) the
// colormap generator assigns as Albedo's alpha channel in the absence of a
// dedicated roughness source, per spec §4.5.
const roughnessByte = byte(0.7 * 255.0)

// ImagerySource supplies RGB source imagery samples, one band per color
// channel, keyed by integer degree tile.
type ImagerySource = raster.Cache[uint8]

// ErrTooFine signals that a node's sample spacing is finer than the
// source imagery can usefully provide, so RunLayer downgrades this node's
// tile from MissingBase to Missing rather than producing an
// over-interpolated result (spec §4.5: "skip nodes whose pixel spacing is
// finer than the source imagery").
type ErrTooFine struct{ Node vnode.VNode }

func (e ErrTooFine) Error() string { return "generate: node's spacing is finer than source imagery" }

// GenerateColormap produces a node's Albedo tile: cell-registered RGBA8
// samples of source imagery whose spacing is sourceSpacingMeters (meters
// per source sample),
// sRGB-decoded to linear, with alpha set to the constant roughness byte.
func GenerateColormap(ctx context.Context, node vnode.VNode, resolution, skirt uint16, imagery *ImagerySource, sourceSpacingMeters float64) ([]byte, error) {
	spacing := node.ApproxSideLength() / float64(int(resolution)-2*int(skirt))
	if spacing <= sourceSpacingMeters {
		return nil, ErrTooFine{Node: node}
	}

	out := make([]byte, int(resolution)*int(resolution)*4)
	for y := 0; y < int(resolution); y++ {
		for x := 0; x < int(resolution); x++ {
			cspace := node.CellPositionCspace(int32(x), int32(y), skirt, resolution)
			sspace := coordsys.CspaceToSspace(cspace)
			polar := coordsys.SspaceToPolar(sspace)
			latDeg := polar.LatRadians * 180 / math.Pi
			lonDeg := polar.LonRadians * 180 / math.Pi

			key := raster.Key{LatDeg: int(math.Floor(latDeg)), LonDeg: int(math.Floor(lonDeg))}
			r, err := imagery.Get(ctx, key)
			if err != nil {
				return nil, err
			}

			red := uint8(r.Interpolate(latDeg, lonDeg, 0))
			green := uint8(r.Interpolate(latDeg, lonDeg, 1))
			blue := uint8(r.Interpolate(latDeg, lonDeg, 2))

			idx := (y*int(resolution) + x) * 4
			out[idx] = srgbToLinear[red]
			out[idx+1] = srgbToLinear[green]
			out[idx+2] = srgbToLinear[blue]
			out[idx+3] = roughnessByte
		}
	}
	return out, nil
}
