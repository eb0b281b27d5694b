// Package sysinfo detects total system RAM, used to size the CPU tile
// cache's capacity so it occupies a bounded fraction of available memory
// rather than a fixed tile count chosen blind to the host.
package sysinfo

import "runtime"

// DefaultMemoryPressureFraction is the fraction of total RAM the CPU tile
// cache is sized against. 0.90 = 90%.
const DefaultMemoryPressureFraction = 0.90

// ComputeMemoryLimit returns the maximum bytes the CPU tile cache should
// occupy: fraction of total system RAM, minus current Go heap overhead
// plus a fixed headroom, to leave room for everything else the process
// does (raster caches, decode buffers, generator working memory). Returns
// 0 if RAM detection fails or the computed limit is unreasonably small,
// signaling callers to fall back to a fixed-size default instead.
func ComputeMemoryLimit(fraction float64) int64 {
	totalRAM, err := totalSystemRAM()
	if err != nil {
		return 0
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	overhead := m.Sys + 2*1024*1024*1024

	limit := int64(float64(totalRAM)*fraction) - int64(overhead)
	if limit < 512*1024*1024 {
		return 0
	}
	return limit
}
