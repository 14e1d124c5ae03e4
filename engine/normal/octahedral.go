// Package normal encodes unit vectors into compact octahedral records on the host and decodes
// them the same way the fragment stage does.
//
// Two formats exist. The dense TriNormals record stores all three normals of a triangle in
// two 32-bit words and is the one meshes are encoded with. The float-pair octahedral codec
// is kept as the reference the dense codec is validated against.
package normal

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
)

// signNotNeg returns 1 for v >= 0 and -1 otherwise.
func signNotNeg(v float32) float32 {
	if v >= 0 {
		return 1
	}
	return -1
}

// l1Normalize projects v onto the octahedron |x|+|y|+|z| = 1.
func l1Normalize(v [3]float32) [3]float32 {
	sum := math32.Abs(v[0]) + math32.Abs(v[1]) + math32.Abs(v[2])
	if !(sum > common.NormalizeEpsilon) || math32.IsInf(sum, 0) {
		return [3]float32{0, 0, 1}
	}
	return [3]float32{v[0] / sum, v[1] / sum, v[2] / sum}
}

// EncodeOctahedral maps a unit vector onto the unfolded octahedron square, folding the lower
// hemisphere over the diagonals, and remaps the result to [0, 1]².
//
// Parameters:
//   - n: a unit vector
//
// Returns:
//   - [2]float32: the encoded coordinate in [0, 1]²
func EncodeOctahedral(n [3]float32) [2]float32 {
	p := l1Normalize(n)
	x, y := p[0], p[1]
	if p[2] < 0 {
		x, y = (1-math32.Abs(p[1]))*signNotNeg(p[0]), (1-math32.Abs(p[0]))*signNotNeg(p[1])
	}
	return [2]float32{
		common.Clamp(x*0.5+0.5, 0, 1),
		common.Clamp(y*0.5+0.5, 0, 1),
	}
}

// DecodeOctahedral recovers a unit vector from an encoded coordinate in [0, 1]².
// Points with |x|+|y| > 1 belong to the lower hemisphere and are folded back across the seams.
//
// Parameters:
//   - raw: the encoded coordinate
//
// Returns:
//   - [3]float32: a unit vector
func DecodeOctahedral(raw [2]float32) [3]float32 {
	fx := raw[0]*2 - 1
	fy := raw[1]*2 - 1
	z0 := 1 - math32.Abs(fx) - math32.Abs(fy)
	t := common.Clamp(-z0, 0, 1)
	if fx >= 0 {
		fx -= t
	} else {
		fx += t
	}
	if fy >= 0 {
		fy -= t
	} else {
		fy += t
	}
	return common.Normalize3([3]float32{fx, fy, z0})
}

// QuantizeOctahedral stores an encoded coordinate as two unorm16 values.
func QuantizeOctahedral(raw [2]float32) layout.UShort2 {
	return layout.UShort2{Unorm16(raw[0]), Unorm16(raw[1])}
}

// DequantizeOctahedral widens a stored unorm16 pair back to [0, 1]².
func DequantizeOctahedral(q layout.UShort2) [2]float32 {
	return [2]float32{float32(q[0]) / max16, float32(q[1]) / max16}
}

// EncodeOctNormal encodes and quantizes a unit vector into the 4-byte OctNormal record.
func EncodeOctNormal(n [3]float32) layout.UShort2 {
	return QuantizeOctahedral(EncodeOctahedral(n))
}

// DecodeOctNormal decodes a 4-byte OctNormal record.
func DecodeOctNormal(q layout.UShort2) [3]float32 {
	return DecodeOctahedral(DequantizeOctahedral(q))
}
