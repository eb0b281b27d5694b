package main

import (
	"context"
	"math"

	"github.com/fintelia/terra/internal/raster"
)

// proceduralImagerySource stands in for a real satellite-imagery backend
// (decoding GeoTIFF/JPEG imagery rasters is out of scope, same as
// generate.GenerateHeightmap's nil-dem fallback): it derives a deterministic
// RGB raster per degree-tile from latitude/longitude alone, so
// GenerateColormap has something to sample end to end.
type proceduralImagerySource struct{}

const imageryTileSize = 64

func (proceduralImagerySource) Load(ctx context.Context, key raster.Key) (*raster.Raster[uint8], error) {
	values := make([]uint8, imageryTileSize*imageryTileSize*3)
	for y := 0; y < imageryTileSize; y++ {
		for x := 0; x < imageryTileSize; x++ {
			lat := float64(key.LatDeg) + float64(y)/float64(imageryTileSize)
			lon := float64(key.LonDeg) + float64(x)/float64(imageryTileSize)

			idx := (y*imageryTileSize + x) * 3
			values[idx] = byte(128 + 127*math.Sin(lat*0.2))
			values[idx+1] = byte(128 + 127*math.Cos(lon*0.2))
			values[idx+2] = byte(128 + 127*math.Sin((lat+lon)*0.1))
		}
	}

	return &raster.Raster[uint8]{
		Width:       imageryTileSize,
		Height:      imageryTileSize,
		Bands:       3,
		LatLLCorner: float64(key.LatDeg),
		LonLLCorner: float64(key.LonDeg),
		CellSize:    1.0 / float64(imageryTileSize),
		Values:      values,
	}, nil
}
