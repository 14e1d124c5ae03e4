package normal

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-shade/common"
)

const (
	max10 = 1<<10 - 1
	max16 = 1<<16 - 1
)

// Unorm10 quantizes f in [0, 1] to a 10-bit unsigned normalized value, rounding to nearest.
// Out-of-range input is clamped and logged at warn level.
//
// Parameters:
//   - f: the value to quantize
//
// Returns:
//   - uint32: a value in [0, 1023]
func Unorm10(f float32) uint32 {
	return unorm(f, max10)
}

// Unorm16 quantizes f in [0, 1] to a 16-bit unsigned normalized value, rounding to nearest.
func Unorm16(f float32) uint16 {
	return uint16(unorm(f, max16))
}

func unorm(f float32, maxValue float32) uint32 {
	if !(f >= 0 && f <= 1) {
		common.Logger().Warn("unorm input outside [0, 1], clamping", "value", f)
		if math32.IsNaN(f) {
			f = 0
		}
		f = common.Clamp(f, 0, 1)
	}
	return uint32(math32.Round(f * maxValue))
}

// Unorm2 packs two flags into a 2-bit field: b0 in bit 0, b1 in bit 1.
func Unorm2(b0, b1 bool) uint32 {
	var v uint32
	if b0 {
		v |= 1
	}
	if b1 {
		v |= 2
	}
	return v
}

// PackUnorm1010102 packs three 10-bit fields and one 2-bit field into a word, r in the
// lowest bits and a in the top two. Bits above each field's width are discarded.
//
// Parameters:
//   - r, g, b: 10-bit fields
//   - a: 2-bit field
//
// Returns:
//   - uint32: a<<30 | b<<20 | g<<10 | r
func PackUnorm1010102(r, g, b, a uint32) uint32 {
	return (a&0x3)<<30 | (b&max10)<<20 | (g&max10)<<10 | r&max10
}

// UnpackUnorm1010102 splits a word into its three 10-bit fields, normalized to [0, 1], and
// its raw 2-bit field.
//
// Parameters:
//   - w: the packed word
//
// Returns:
//   - [3]float32: the normalized 10-bit fields (x, y, z)
//   - uint32: the top two bits
func UnpackUnorm1010102(w uint32) ([3]float32, uint32) {
	return [3]float32{
		float32(w&max10) / max10,
		float32((w>>10)&max10) / max10,
		float32((w>>20)&max10) / max10,
	}, w >> 30
}
