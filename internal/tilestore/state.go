package tilestore

// State is a tile's position in its lifecycle, mirroring the state machine
// the engine uses to decide whether a tile needs generating, fetching, or
// is already usable.
type State uint8

const (
	// Missing means no data exists for this tile and it is not currently
	// needed as an input to anything else.
	Missing State = iota
	// Base means the tile's raw input data (from a source raster or a
	// downloaded file) is present on disk.
	Base
	// Generated means the tile was derived from other tiles and is
	// present on disk.
	Generated
	// GpuOnly means the tile only ever exists as GPU-resident data and is
	// never persisted; the tile store has no record of it at all, and
	// TileState returns GpuOnly as the default for any
	// (layer, node) pair it has never seen.
	GpuOnly
	// MissingBase means this tile's base input data needs to be
	// generated or downloaded before anything can proceed.
	MissingBase
)

func (s State) String() string {
	switch s {
	case Missing:
		return "missing"
	case Base:
		return "base"
	case Generated:
		return "generated"
	case GpuOnly:
		return "gpu-only"
	case MissingBase:
		return "missing-base"
	default:
		return "unknown"
	}
}
