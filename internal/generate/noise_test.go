package generate

import (
	"bytes"
	"testing"
)

func TestGenerateNoiseTextureIsDeterministic(t *testing.T) {
	a := GenerateNoiseTexture()
	b := GenerateNoiseTexture()
	if !bytes.Equal(a, b) {
		t.Fatal("GenerateNoiseTexture produced different output across runs")
	}
}

func TestGenerateNoiseTextureSize(t *testing.T) {
	out := GenerateNoiseTexture()
	want := NoiseTextureResolution * NoiseTextureResolution * 4
	if len(out) != want {
		t.Fatalf("len(out) = %d, want %d", len(out), want)
	}
}

func TestRankOfOrdersAscending(t *testing.T) {
	values := []float32{3, 1, 2, 1}
	ranks := rankOf(values)
	// Stable sort: the two equal 1s keep their relative order (indices 1, 3).
	if ranks[1] >= ranks[3] {
		t.Fatalf("stable tie-break violated: ranks = %v", ranks)
	}
	if ranks[1] > ranks[2] || ranks[2] > ranks[0] {
		t.Fatalf("ranks not ascending with values: ranks = %v", ranks)
	}
}

func TestLatticeNoiseDeterministic(t *testing.T) {
	a := latticeNoise(42, 64, 8)
	b := latticeNoise(42, 64, 8)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("latticeNoise not deterministic at index %d: %v != %v", i, a[i], b[i])
		}
	}
}
