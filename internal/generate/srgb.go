package generate

import "math"

// srgbToLinear maps an 8-bit sRGB-encoded channel value to its 8-bit
// linear-light equivalent, precomputed once at package init since the
// colormap generator applies it per-sample.
var srgbToLinear [256]uint8

func init() {
	for i := range srgbToLinear {
		c := float64(i) / 255.0
		var linear float64
		if c <= 0.04045 {
			linear = c / 12.92
		} else {
			linear = math.Pow((c+0.055)/1.055, 2.4)
		}
		v := int(math.Round(linear * 255.0))
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		srgbToLinear[i] = uint8(v)
	}
}
