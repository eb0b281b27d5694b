package raster

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestInterpolateCorners(t *testing.T) {
	r := &Raster[float32]{
		Width: 2, Height: 2, Bands: 1,
		LatLLCorner: 0, LonLLCorner: 0, CellSize: 1,
		Values: []float32{
			10, 20, // row 0 (north, lat=1): (lon=0)=10 (lon=1)=20
			30, 40, // row 1 (south, lat=0): (lon=0)=30 (lon=1)=40
		},
	}
	if got := r.Interpolate(0, 0, 0); got != 30 {
		t.Errorf("Interpolate(0,0) = %v, want 30", got)
	}
	if got := r.Interpolate(1, 0, 0); got != 10 {
		t.Errorf("Interpolate(1,0) = %v, want 10", got)
	}
	if got := r.Interpolate(1, 1, 0); got != 20 {
		t.Errorf("Interpolate(1,1) = %v, want 20", got)
	}
	if got := r.Interpolate(0, 1, 0); got != 40 {
		t.Errorf("Interpolate(0,1) = %v, want 40", got)
	}
}

func TestInterpolateMidpoint(t *testing.T) {
	r := &Raster[float32]{
		Width: 2, Height: 2, Bands: 1,
		LatLLCorner: 0, LonLLCorner: 0, CellSize: 1,
		Values: []float32{10, 20, 30, 40},
	}
	got := r.Interpolate(0.5, 0.5, 0)
	want := (10.0 + 20.0 + 30.0 + 40.0) / 4.0
	if got != want {
		t.Errorf("Interpolate(0.5,0.5) = %v, want %v", got, want)
	}
}

func TestInterpolateClampsOutOfBounds(t *testing.T) {
	r := &Raster[float32]{
		Width: 2, Height: 2, Bands: 1,
		LatLLCorner: 0, LonLLCorner: 0, CellSize: 1,
		Values: []float32{10, 20, 30, 40},
	}
	if got := r.Interpolate(-5, -5, 0); got != 30 {
		t.Errorf("Interpolate(-5,-5) = %v, want 30 (clamped to SW corner)", got)
	}
	if got := r.Interpolate(100, 100, 0); got != 20 {
		t.Errorf("Interpolate(100,100) = %v, want 20 (clamped to NE corner)", got)
	}
}

func TestGetClampsIndices(t *testing.T) {
	r := &Raster[uint8]{Width: 2, Height: 2, Bands: 1, Values: []uint8{1, 2, 3, 4}}
	if got := r.Get(-1, -1, 0); got != 1 {
		t.Errorf("Get(-1,-1) = %v, want 1", got)
	}
	if got := r.Get(5, 5, 0); got != 4 {
		t.Errorf("Get(5,5) = %v, want 4", got)
	}
}

type countingSource struct {
	mu    sync.Mutex
	calls map[Key]int
}

func (s *countingSource) Load(ctx context.Context, key Key) (*Raster[float32], error) {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = make(map[Key]int)
	}
	s.calls[key]++
	s.mu.Unlock()
	return &Raster[float32]{Width: 1, Height: 1, Bands: 1, Values: []float32{1}}, nil
}

func (s *countingSource) count(key Key) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

func TestCacheHitAvoidsReload(t *testing.T) {
	src := &countingSource{}
	cache, err := NewCache[float32](4, src)
	if err != nil {
		t.Fatal(err)
	}
	key := Key{LatDeg: 40, LonDeg: -74}
	ctx := context.Background()

	if _, err := cache.Get(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Get(ctx, key); err != nil {
		t.Fatal(err)
	}
	if n := src.count(key); n != 1 {
		t.Errorf("source loaded %d times, want 1", n)
	}
}

func TestCacheCoalescesConcurrentLoads(t *testing.T) {
	src := &countingSource{}
	cache, err := NewCache[float32](4, src)
	if err != nil {
		t.Fatal(err)
	}
	key := Key{LatDeg: 10, LonDeg: 10}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(ctx, key); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if n := src.count(key); n != 1 {
		t.Errorf("source loaded %d times under concurrent access, want 1", n)
	}
}

type failingSource struct {
	attempts int32
}

func (s *failingSource) Load(ctx context.Context, key Key) (*Raster[float32], error) {
	atomic.AddInt32(&s.attempts, 1)
	return nil, errors.New("boom")
}

func TestCachePropagatesLoadError(t *testing.T) {
	src := &failingSource{}
	cache, err := NewCache[float32](4, src)
	if err != nil {
		t.Fatal(err)
	}
	_, err = cache.Get(context.Background(), Key{LatDeg: 1, LonDeg: 1})
	if err == nil {
		t.Fatal("expected an error from a failing source")
	}
}
