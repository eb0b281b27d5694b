// Package raster provides a typed 2-D sample grid with bilinear
// interpolation, and a capacity-bounded cache of such grids keyed by
// integer (latitude, longitude) degree tile, with coalesced concurrent
// loads. It backs the tile generators: a Raster holds one degree-tile's
// worth of source elevation or imagery data, and RasterCache keeps the
// working set of recently-used source tiles in memory.
package raster

import "math"

// Raster is a rectangular grid of samples, band-interleaved, covering the
// area from (LatLLCorner, LonLLCorner) up to (LatLLCorner +
// height*CellSize, LonLLCorner + width*CellSize) — the lower-left-corner
// convention used by most DEM/imagery source formats.
type Raster[T Sample] struct {
	Width, Height int
	Bands         int
	LatLLCorner   float64
	LonLLCorner   float64
	CellSize      float64
	Values        []T
}

// Sample is the set of element types a Raster may hold.
type Sample interface {
	~float32 | ~float64 | ~uint8 | ~uint16 | ~int16
}

// Get returns the raw sample at grid cell (x, y) in the given band. x and y
// are clamped to the raster's bounds, so callers at the very edge of the
// tile don't need their own bounds checks.
func (r *Raster[T]) Get(x, y, band int) T {
	if x < 0 {
		x = 0
	}
	if x >= r.Width {
		x = r.Width - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= r.Height {
		y = r.Height - 1
	}
	return r.Values[(y*r.Width+x)*r.Bands+band]
}

// Interpolate returns the bilinearly-interpolated value at the given
// latitude/longitude, for the given band. lat/lon outside the raster's
// footprint are clamped to the nearest edge.
func (r *Raster[T]) Interpolate(lat, lon float64, band int) float64 {
	fx := (lon - r.LonLLCorner) / r.CellSize
	// Row 0 is the northernmost row in most DEM conventions, which is the
	// highest latitude, hence the subtraction from (Height-1).
	fy := float64(r.Height-1) - (lat-r.LatLLCorner)/r.CellSize

	fx = clamp(fx, 0, float64(r.Width-1))
	fy = clamp(fy, 0, float64(r.Height-1))

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	x1, y1 := x0+1, y0+1
	tx, ty := fx-float64(x0), fy-float64(y0)

	v00 := float64(r.Get(x0, y0, band))
	v10 := float64(r.Get(x1, y0, band))
	v01 := float64(r.Get(x0, y1, band))
	v11 := float64(r.Get(x1, y1, band))

	top := v00 + (v10-v00)*tx
	bottom := v01 + (v11-v01)*tx
	return top + (bottom-top)*ty
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
