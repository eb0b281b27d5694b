package generate

import (
	"math"
	"math/rand"
	"sort"
)

// latticeNoise is a deterministic, seeded band-limited noise field: pseudo-
// random values placed on a frequency x frequency lattice and bilinearly
// upsampled to resolution x resolution, giving smooth, reproducible
// "wavelet-like" detail at a chosen scale without requiring true Cook/DeRose
// wavelet noise (whose reference implementation this engine was distilled
// from was not available to port). Same seed, frequency, and resolution
// always produce the same field (spec's idempotence requirement).
func latticeNoise(seed int64, resolution, frequency int) []float32 {
	rng := rand.New(rand.NewSource(seed))
	lattice := make([]float32, (frequency+1)*(frequency+1))
	for i := range lattice {
		lattice[i] = float32(rng.NormFloat64())
	}

	out := make([]float32, resolution*resolution)
	for y := 0; y < resolution; y++ {
		fy := float64(y) / float64(resolution) * float64(frequency)
		y0 := int(math.Floor(fy))
		ty := fy - float64(y0)
		for x := 0; x < resolution; x++ {
			fx := float64(x) / float64(resolution) * float64(frequency)
			x0 := int(math.Floor(fx))
			tx := fx - float64(x0)

			v00 := lattice[y0*(frequency+1)+x0]
			v10 := lattice[y0*(frequency+1)+x0+1]
			v01 := lattice[(y0+1)*(frequency+1)+x0]
			v11 := lattice[(y0+1)*(frequency+1)+x0+1]

			top := float64(v00) + (float64(v10)-float64(v00))*tx
			bottom := float64(v01) + (float64(v11)-float64(v01))*tx
			out[y*resolution+x] = float32(top + (bottom-top)*ty)
		}
	}
	return out
}

// NoiseTextureResolution is the fixed size of the noise texture, per spec.
const NoiseTextureResolution = 2048

// noiseSeed is fixed so that regenerating the noise texture is byte-
// identical across runs, per the generators' idempotence requirement.
const noiseSeed = 0x7a11a5

// GenerateNoiseTexture builds the four-octave wavelet-style noise texture:
// an RGBA8 NoiseTextureResolution² image where each channel is one octave,
// each octave's samples replaced by their rank (stable ascending sort by
// value, rank scaled to [0, 256)).
func GenerateNoiseTexture() []byte {
	const resolution = NoiseTextureResolution
	frequencies := [4]int{32, 16, 8, 4}

	out := make([]byte, resolution*resolution*4)
	for octave, frequency := range frequencies {
		field := latticeNoise(noiseSeed+int64(octave), resolution, frequency)
		ranks := rankOf(field)
		for i, rank := range ranks {
			out[i*4+octave] = byte(rank * 256 / len(ranks))
		}
	}
	return out
}

// rankOf returns, for each element of values, its position in the
// ascending sort order of values (stable: ties keep their original
// relative order, matching Rust's stable sort_by).
func rankOf(values []float32) []int {
	type indexedValue struct {
		index int
		value float32
	}
	indexed := make([]indexedValue, len(values))
	for i, v := range values {
		indexed[i] = indexedValue{i, v}
	}
	sort.SliceStable(indexed, func(i, j int) bool { return indexed[i].value < indexed[j].value })

	ranks := make([]int, len(values))
	for rank, iv := range indexed {
		ranks[iv.index] = rank
	}
	return ranks
}
