package generate

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestGenerateDisplacementDirectSampling(t *testing.T) {
	const heightmapResolution = 5
	heightmap := make([]byte, heightmapResolution*heightmapResolution*4)
	for i := 0; i < heightmapResolution*heightmapResolution; i++ {
		binary.LittleEndian.PutUint32(heightmap[i*4:], math.Float32bits(float32(i)))
	}

	out := GenerateDisplacement(0, 5, heightmapResolution, 0, heightmap, nil)
	if len(out) != 5*5*16 {
		t.Fatalf("len(out) = %d, want %d", len(out), 5*5*16)
	}

	// reserved channel 0 must be zero, height channel 1 must be finite.
	for i := 0; i < 5*5; i++ {
		base := i * 16
		reserved := math.Float32frombits(binary.LittleEndian.Uint32(out[base:]))
		if reserved != 0 {
			t.Fatalf("sample %d reserved channel = %v, want 0", i, reserved)
		}
		height := math.Float32frombits(binary.LittleEndian.Uint32(out[base+4:]))
		if math.IsNaN(float64(height)) {
			t.Fatalf("sample %d height is NaN", i)
		}
	}
}

func TestAncestorSampleHeightAt(t *testing.T) {
	const resolution = 4
	heightmap := make([]byte, resolution*resolution*4)
	for i := 0; i < resolution*resolution; i++ {
		binary.LittleEndian.PutUint32(heightmap[i*4:], math.Float32bits(float32(i)))
	}

	ancestor := &AncestorSample{
		Heightmap:   heightmap,
		Resolution:  resolution,
		Generations: 1,
		OffsetX:     1,
		OffsetY:     0,
	}

	// With one generation climbed and offset (1,0), sampling (0,0) of an 8x8
	// virtual grid should land in the right half of the ancestor's heightmap.
	got := ancestor.HeightAt(0, 0, 8)
	want := math.Float32frombits(binary.LittleEndian.Uint32(heightmap[(0*resolution+2)*4:]))
	if got != want {
		t.Fatalf("HeightAt(0,0,8) = %v, want %v", got, want)
	}
}
