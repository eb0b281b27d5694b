package raster

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Key identifies a degree-tile of source raster data: an integer
// (latitude, longitude) pair naming its south-west corner.
type Key struct {
	LatDeg int
	LonDeg int
}

func (k Key) String() string { return fmt.Sprintf("%d,%d", k.LatDeg, k.LonDeg) }

// Source loads the raster data for one degree-tile, typically by reading
// and decoding a DEM or imagery file from disk or a remote store. Load may
// block or be cancelled via ctx; it is the only collaborator RasterCache
// depends on, so different source formats plug in without RasterCache
// itself knowing anything about file formats.
type Source[T Sample] interface {
	Load(ctx context.Context, key Key) (*Raster[T], error)
}

// Cache is a fixed-capacity LRU of Rasters keyed by degree-tile. Concurrent
// Get calls for the same key coalesce into a single underlying Source.Load,
// so a burst of tile generators that all need the same source tile only
// pay for one decode.
type Cache[T Sample] struct {
	lru    *lru.Cache[Key, *Raster[T]]
	group  singleflight.Group
	source Source[T]
}

// NewCache creates a Cache with room for capacity rasters, backed by
// source for cache misses.
func NewCache[T Sample](capacity int, source Source[T]) (*Cache[T], error) {
	c, err := lru.New[Key, *Raster[T]](capacity)
	if err != nil {
		return nil, fmt.Errorf("raster: creating LRU: %w", err)
	}
	return &Cache[T]{lru: c, source: source}, nil
}

// Get returns the raster for key, loading it from the Source on a cache
// miss. Concurrent callers requesting the same key block on, and share the
// result of, a single Source.Load call.
func (c *Cache[T]) Get(ctx context.Context, key Key) (*Raster[T], error) {
	if r, ok := c.lru.Get(key); ok {
		return r, nil
	}

	result, err, _ := c.group.Do(key.String(), func() (any, error) {
		if r, ok := c.lru.Get(key); ok {
			return r, nil
		}
		r, err := c.source.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, r)
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Raster[T]), nil
}

// Len reports how many rasters currently reside in the cache.
func (c *Cache[T]) Len() int { return c.lru.Len() }
