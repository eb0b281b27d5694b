package generate

import (
	"context"
	"encoding/binary"
	"math"
	"math/rand"

	"github.com/fintelia/terra/internal/coordsys"
	"github.com/fintelia/terra/internal/raster"
	"github.com/fintelia/terra/internal/vnode"
)

// fractalFieldSize is the deterministic Gaussian noise field's edge
// length, per the 15x15 field the heightmap generator falls back to
// wherever no DEM source covers a sample.
const fractalFieldSize = 15

// fractalFieldSeed is fixed so the fractal fill is idempotent across runs.
const fractalFieldSeed = 0x5eed1

var fractalField [fractalFieldSize * fractalFieldSize]float32

func init() {
	rng := rand.New(rand.NewSource(fractalFieldSeed))
	for i := range fractalField {
		fractalField[i] = float32(rng.NormFloat64())
	}
}

func fractalFieldAt(x, y int) float32 {
	x = ((x % fractalFieldSize) + fractalFieldSize) % fractalFieldSize
	y = ((y % fractalFieldSize) + fractalFieldSize) % fractalFieldSize
	return fractalField[y*fractalFieldSize+x]
}

func fractalFieldBilinear(fx, fy float64) float64 {
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx, ty := fx-float64(x0), fy-float64(y0)

	v00 := float64(fractalFieldAt(x0, y0))
	v10 := float64(fractalFieldAt(x0+1, y0))
	v01 := float64(fractalFieldAt(x0, y0+1))
	v11 := float64(fractalFieldAt(x0+1, y0+1))

	top := v00 + (v10-v00)*tx
	bottom := v01 + (v11-v01)*tx
	return top + (bottom-top)*ty
}

// fractalHeight synthesizes a deterministic height value for a world-space
// direction, by summing octaves of the 15x15 Gaussian field at
// progressively finer frequency. The same input always yields the same
// output, satisfying the generators' idempotence requirement.
func fractalHeight(dir vnode.Vec3, octaves int, amplitude float64) float64 {
	total := 0.0
	freq := 1.0
	amp := amplitude
	for o := 0; o < octaves; o++ {
		fx := (dir.X*0.5 + 0.5) * fractalFieldSize * freq
		fy := (dir.Y*0.5 + 0.5) * fractalFieldSize * freq
		fz := (dir.Z*0.5 + 0.5) * fractalFieldSize * freq
		total += fractalFieldBilinear(fx+fz, fy+fz) * amp
		freq *= 2
		amp *= 0.5
	}
	return total
}

// DemSource supplies real elevation samples in meters, keyed by integer
// degree tile. A nil DemSource tells GenerateHeightmap to fill every
// sample from the deterministic fractal field instead — real DEM
// ingestion (parsing GridFloat/GeoTIFF archives) is an external
// collaborator this package does not implement.
type DemSource = raster.Cache[float32]

// GenerateHeightmap produces a node's heightmap tile: grid-registered
// samples (spec §4.1) at resolution, encoded as little-
// endian f32 row-major, in meters above the reference sphere. Where dem is
// non-nil, each sample is looked up there first; samples with no DEM
// coverage, and every sample when dem is nil, come from the fractal
// fallback field, with amplitude and octave count driven by node.Level()
// so deeper tiles show progressively finer synthetic detail.
func GenerateHeightmap(ctx context.Context, node vnode.VNode, resolution, skirt uint16, dem *DemSource) ([]byte, error) {
	buf := make([]byte, int(resolution)*int(resolution)*4)

	octaves := int(node.Level()) + 1
	if octaves > 10 {
		octaves = 10
	}

	for y := 0; y < int(resolution); y++ {
		for x := 0; x < int(resolution); x++ {
			cspace := node.GridPositionCspace(int32(x), int32(y), skirt, resolution)
			sspace := coordsys.CspaceToSspace(cspace)

			var height float64
			found := false
			if dem != nil {
				polar := coordsys.SspaceToPolar(sspace)
				latDeg := polar.LatRadians * 180 / math.Pi
				lonDeg := polar.LonRadians * 180 / math.Pi
				key := raster.Key{LatDeg: int(math.Floor(latDeg)), LonDeg: int(math.Floor(lonDeg))}
				if r, err := dem.Get(ctx, key); err == nil {
					height = r.Interpolate(latDeg, lonDeg, 0)
					found = true
				}
			}
			if !found {
				height = fractalHeight(sspace, octaves, 200.0/float64(node.Level()+1))
			}

			binary.LittleEndian.PutUint32(buf[(y*int(resolution)+x)*4:], math.Float32bits(float32(height)))
		}
	}

	return buf, nil
}
