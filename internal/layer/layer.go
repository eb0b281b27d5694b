// Package layer holds the small, dependency-free data model shared by the
// tile store, generators, and caches: which kinds of tile layers exist, what
// format and size their texels have. A tile's lifecycle state lives in
// tilestore.State.
package layer

import "fmt"

// Type enumerates the kinds of tile layers the engine streams and renders.
type Type uint8

const (
	Heightmaps Type = iota
	Displacements
	Albedo
	Normals
	Roughness

	numTypes = int(Roughness) + 1
)

func (t Type) String() string {
	switch t {
	case Heightmaps:
		return "heightmaps"
	case Displacements:
		return "displacements"
	case Albedo:
		return "albedo"
	case Normals:
		return "normals"
	case Roughness:
		return "roughness"
	default:
		return fmt.Sprintf("layer(%d)", uint8(t))
	}
}

// FileExtension returns the on-disk extension for a layer's tile files,
// per the layout in spec §6.
func (t Type) FileExtension() string {
	switch t {
	case Albedo:
		return "png"
	case Roughness:
		return "raw.lz4"
	default:
		return "raw"
	}
}

// Downloadable reports whether missing tiles of this layer may be fetched
// from the remote tile source (spec §4.4: "if the layer is downloadable").
func (t Type) Downloadable() bool {
	switch t {
	case Albedo, Heightmaps, Roughness:
		return true
	default:
		return false
	}
}

// AllTypes returns every layer type, in ascending numeric order.
func AllTypes() []Type {
	types := make([]Type, numTypes)
	for i := range types {
		types[i] = Type(i)
	}
	return types
}

// Format identifies a tile's pixel encoding, per spec §3 LayerParams.
type Format uint8

const (
	FormatR32F Format = iota
	FormatRGBA32F
	FormatRGBA8
	FormatRG8
	FormatBC4
	FormatBC5
	// FormatR8 is Roughness's on-disk format (spec §6); it is not part of
	// the §3 LayerParams enumeration but is required to match the binary
	// layout the spec names explicitly.
	FormatR8
)

func (f Format) String() string {
	switch f {
	case FormatR32F:
		return "R32F"
	case FormatRGBA32F:
		return "RGBA32F"
	case FormatRGBA8:
		return "RGBA8"
	case FormatRG8:
		return "RG8"
	case FormatBC4:
		return "BC4"
	case FormatBC5:
		return "BC5"
	case FormatR8:
		return "R8"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// BytesPerBlock returns the size in bytes of one compression block (or one
// texel, for uncompressed formats).
func (f Format) BytesPerBlock() int {
	switch f {
	case FormatR32F:
		return 4
	case FormatRGBA32F:
		return 16
	case FormatRGBA8:
		return 4
	case FormatRG8:
		return 2
	case FormatBC4:
		return 8
	case FormatBC5:
		return 16
	case FormatR8:
		return 1
	default:
		return 0
	}
}

// BlockSize returns the edge length, in texels, of one compression block.
// 1 for uncompressed formats, 4 for the BC4/BC5 block-compressed formats.
func (f Format) BlockSize() int {
	switch f {
	case FormatBC4, FormatBC5:
		return 4
	default:
		return 1
	}
}

// Params describes the fixed shape that every tile of a layer shares:
// resolution, border (skirt) width, and pixel format. Spec §3 invariant:
// all tiles of a layer share the same resolution, border, and format.
type Params struct {
	Type               Type
	TextureResolution  uint32
	TextureBorderSize  uint32
	Format             Format
}

// BufferSize returns the number of bytes a single tile of this layer
// occupies on disk (uncompressed; Roughness is additionally LZ4-framed on
// top of this many raw bytes).
func (p Params) BufferSize() int {
	blocks := int(p.TextureResolution) / p.Format.BlockSize()
	if int(p.TextureResolution)%p.Format.BlockSize() != 0 {
		blocks++
	}
	return blocks * blocks * p.Format.BytesPerBlock()
}

// DefaultParams returns the layer parameter set implied by a texture
// resolution and the fixed skirt width from spec §6 (skirt = 4), matching
// the derived-constants formulas there.
func DefaultParams(textureResolution uint32) map[Type]Params {
	const skirt = 4
	heightmapResolution := textureResolution + 1 + 2*skirt
	colormapResolution := heightmapResolution - 5
	normalmapResolution := heightmapResolution - 5

	return map[Type]Params{
		Heightmaps: {
			Type:              Heightmaps,
			TextureResolution: heightmapResolution,
			TextureBorderSize: skirt,
			Format:            FormatR32F,
		},
		Displacements: {
			Type:              Displacements,
			TextureResolution: heightmapResolution,
			TextureBorderSize: skirt,
			Format:            FormatRGBA32F,
		},
		Albedo: {
			Type:              Albedo,
			TextureResolution: colormapResolution,
			TextureBorderSize: skirt - 2,
			Format:            FormatRGBA8,
		},
		Normals: {
			Type:              Normals,
			TextureResolution: normalmapResolution,
			TextureBorderSize: skirt - 2,
			Format:            FormatRG8,
		},
		Roughness: {
			Type:              Roughness,
			TextureResolution: colormapResolution,
			TextureBorderSize: skirt - 2,
			Format:            FormatR8,
		},
	}
}
