// Package encode turns a layer's raw generated samples into the bytes the
// tile store persists to disk, and back: PNG for Albedo, LZ4-framed raw
// for Roughness, and plain little-endian raw for every other format (spec
// §6's on-disk layout).
package encode

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/pierrec/lz4/v4"

	"github.com/fintelia/terra/internal/layer"
)

// EncodeTile converts a layer's raw sample buffer (row-major, as produced
// by the generators in internal/generate) into the bytes that belong on
// disk for that layer, per spec §6.
func EncodeTile(params layer.Params, raw []byte) ([]byte, error) {
	switch params.Type {
	case layer.Albedo:
		return encodePNG(raw, int(params.TextureResolution))
	case layer.Roughness:
		return encodeLZ4(raw), nil
	default:
		return raw, nil
	}
}

// DecodeTile is EncodeTile's inverse: given a layer's on-disk bytes,
// recovers the raw row-major sample buffer.
func DecodeTile(params layer.Params, encoded []byte) ([]byte, error) {
	switch params.Type {
	case layer.Albedo:
		return decodePNG(encoded, int(params.TextureResolution))
	case layer.Roughness:
		return decodeLZ4(encoded, params.BufferSize())
	default:
		return encoded, nil
	}
}

// encodePNG wraps RGBA8 raw bytes directly as an *image.RGBA (no copy
// needed: RGBA8's 4-bytes-per-texel layout already matches image.RGBA's
// Pix layout) and PNG-encodes it.
func encodePNG(raw []byte, resolution int) ([]byte, error) {
	want := resolution * resolution * 4
	if len(raw) != want {
		return nil, fmt.Errorf("encode: albedo raw buffer is %d bytes, want %d", len(raw), want)
	}
	img := &image.RGBA{
		Pix:    raw,
		Stride: resolution * 4,
		Rect:   image.Rect(0, 0, resolution, resolution),
	}

	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode: PNG-encoding albedo tile: %w", err)
	}
	return buf.Bytes(), nil
}

func decodePNG(encoded []byte, resolution int) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("encode: PNG-decoding albedo tile: %w", err)
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == resolution*4 {
		return rgba.Pix, nil
	}

	bounds := img.Bounds()
	out := make([]byte, resolution*resolution*4)
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			idx := (y*resolution + x) * 4
			out[idx] = byte(r >> 8)
			out[idx+1] = byte(g >> 8)
			out[idx+2] = byte(b >> 8)
			out[idx+3] = byte(a >> 8)
		}
	}
	return out, nil
}

func encodeLZ4(raw []byte) []byte {
	out := make([]byte, lz4.CompressBlockBound(len(raw)))
	var compressor lz4.Compressor
	n, err := compressor.CompressBlock(raw, out)
	if err != nil || n == 0 {
		// Incompressible or too small to benefit: lz4.CompressBlock
		// returns n == 0 in that case per its documented contract, so
		// fall back to storing the frame uncompressed via a zero-length
		// marker header the decoder recognizes.
		return append(lengthPrefix(0), raw...)
	}
	return append(lengthPrefix(len(raw)), out[:n]...)
}

func decodeLZ4(encoded []byte, rawSize int) ([]byte, error) {
	if len(encoded) < 4 {
		return nil, fmt.Errorf("encode: lz4 frame too short (%d bytes)", len(encoded))
	}
	originalSize := readLengthPrefix(encoded)
	body := encoded[4:]
	if originalSize == 0 {
		return body, nil
	}

	out := make([]byte, originalSize)
	n, err := lz4.UncompressBlock(body, out)
	if err != nil {
		return nil, fmt.Errorf("encode: lz4-decoding tile: %w", err)
	}
	return out[:n], nil
}

func lengthPrefix(n int) []byte {
	return []byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}
}

func readLengthPrefix(buf []byte) int {
	return int(buf[0]) | int(buf[1])<<8 | int(buf[2])<<16 | int(buf[3])<<24
}
