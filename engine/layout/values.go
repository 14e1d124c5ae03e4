package layout

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"
)

// Host-side value types. Go aligns arrays to their element, so over-aligned WGSL types
// (vec3f at 16, mat3x3 at 16) cannot be expressed by the Go compiler. Structs that embed
// these values place explicit padding where WGSL would, and CheckStruct verifies it.

// Float2 is a natural vec2f: 8 bytes, 8-byte aligned on the GPU.
type Float2 [2]float32

// Float3 is a natural vec3f: 12 bytes, 16-byte aligned on the GPU.
type Float3 [3]float32

// Float4 is a natural vec4f: 16 bytes, 16-byte aligned on the GPU.
type Float4 [4]float32

// PackedFloat2 is a packed float pair: 8 bytes, 4-byte aligned (array<f32, 2>).
type PackedFloat2 [2]float32

// PackedFloat3 is a packed float triple: 12 bytes, 4-byte aligned (array<f32, 3>).
type PackedFloat3 [3]float32

// PackedFloat4 is a packed float quad: 16 bytes, 4-byte aligned (array<f32, 4>).
type PackedFloat4 [4]float32

// Half2 is a natural vec2h: 4 bytes, 4-byte aligned.
type Half2 [2]float16.Float16

// Half3 is a natural vec3h: 6 bytes, 8-byte aligned.
type Half3 [3]float16.Float16

// Half4 is a natural vec4h: 8 bytes, 8-byte aligned.
type Half4 [4]float16.Float16

// PackedHalf3 is a packed half triple: 6 bytes, 2-byte aligned (array<f16, 3>).
type PackedHalf3 [3]float16.Float16

// UShort2 is a natural pair of unsigned shorts: 4 bytes, 4-byte aligned, read as one u32 on the GPU.
type UShort2 [2]uint16

// PackedUShort2 is a packed pair of unsigned shorts: 4 bytes, 2-byte aligned. Host only.
type PackedUShort2 [2]uint16

// Float3x3 is a column-major mat3x3<f32>. Each column is padded to four lanes: 48 bytes, 16-byte aligned.
type Float3x3 [3][4]float32

// Float4x4 is a column-major mat4x4<f32>: 64 bytes, 16-byte aligned.
type Float4x4 [16]float32

// PackedFloat4x3 is four packed float3 columns (array<array<f32, 3>, 4>): 48 bytes, 4-byte aligned.
// It stores an affine transform whose last column is the translation.
type PackedFloat4x3 [4][3]float32

// NewHalf3 converts a float triple to natural half precision.
func NewHalf3(v [3]float32) Half3 {
	return Half3{float16.Fromfloat32(v[0]), float16.Fromfloat32(v[1]), float16.Fromfloat32(v[2])}
}

// Float32 widens the half triple to single precision.
func (h Half3) Float32() [3]float32 {
	return [3]float32{h[0].Float32(), h[1].Float32(), h[2].Float32()}
}

// NewHalf4 converts a float quad to natural half precision.
func NewHalf4(v [4]float32) Half4 {
	return Half4{float16.Fromfloat32(v[0]), float16.Fromfloat32(v[1]), float16.Fromfloat32(v[2]), float16.Fromfloat32(v[3])}
}

// Float32 widens the half quad to single precision.
func (h Half4) Float32() [4]float32 {
	return [4]float32{h[0].Float32(), h[1].Float32(), h[2].Float32(), h[3].Float32()}
}

// Identity3x3 returns the 3x3 identity matrix.
func Identity3x3() Float3x3 {
	return Float3x3{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}}
}

// Float3x3FromColumns builds a matrix whose columns are c0, c1 and c2.
func Float3x3FromColumns(c0, c1, c2 [3]float32) Float3x3 {
	return Float3x3{
		{c0[0], c0[1], c0[2], 0},
		{c1[0], c1[1], c1[2], 0},
		{c2[0], c2[1], c2[2], 0},
	}
}

// Column returns column i without its padding lane.
func (m Float3x3) Column(i int) [3]float32 {
	return [3]float32{m[i][0], m[i][1], m[i][2]}
}

// MulVec returns m * v.
func (m Float3x3) MulVec(v [3]float32) [3]float32 {
	return [3]float32{
		m[0][0]*v[0] + m[1][0]*v[1] + m[2][0]*v[2],
		m[0][1]*v[0] + m[1][1]*v[1] + m[2][1]*v[2],
		m[0][2]*v[0] + m[1][2]*v[1] + m[2][2]*v[2],
	}
}

// Upper3x3 returns the rotation/scale part of the packed affine transform.
func (m PackedFloat4x3) Upper3x3() Float3x3 {
	return Float3x3FromColumns(m[0], m[1], m[2])
}

// Put writes the vector into buf in little-endian order.
func (v Float2) Put(buf []byte) { putF32s(buf, v[:]) }

// Put writes the vector into buf in little-endian order.
func (v Float3) Put(buf []byte) { putF32s(buf, v[:]) }

// Put writes the vector into buf in little-endian order.
func (v Float4) Put(buf []byte) { putF32s(buf, v[:]) }

// Put writes the vector into buf in little-endian order.
func (v PackedFloat2) Put(buf []byte) { putF32s(buf, v[:]) }

// Put writes the vector into buf in little-endian order.
func (v PackedFloat3) Put(buf []byte) { putF32s(buf, v[:]) }

// Put writes the vector into buf in little-endian order.
func (v PackedFloat4) Put(buf []byte) { putF32s(buf, v[:]) }

// Put writes the vector into buf in little-endian order.
func (v Half3) Put(buf []byte) { putF16s(buf, v[:]) }

// Put writes the vector into buf in little-endian order.
func (v Half4) Put(buf []byte) { putF16s(buf, v[:]) }

// Put writes the vector into buf in little-endian order.
func (v PackedHalf3) Put(buf []byte) { putF16s(buf, v[:]) }

// Put writes the pair into buf in little-endian order. The first element lands in the low half of the GPU u32.
func (v UShort2) Put(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:], v[0])
	binary.LittleEndian.PutUint16(buf[2:], v[1])
}

// Put writes all 48 bytes of the matrix, padding lanes included.
func (m Float3x3) Put(buf []byte) {
	for c := range 3 {
		putF32s(buf[c*16:], m[c][:])
	}
}

// Put writes the matrix into buf in little-endian order.
func (m Float4x4) Put(buf []byte) { putF32s(buf, m[:]) }

// Put writes the four packed columns into buf in little-endian order.
func (m PackedFloat4x3) Put(buf []byte) {
	for c := range 4 {
		putF32s(buf[c*12:], m[c][:])
	}
}

func putF32s(buf []byte, vs []float32) {
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}

func putF16s(buf []byte, vs []float16.Float16) {
	for i, v := range vs {
		binary.LittleEndian.PutUint16(buf[i*2:], v.Bits())
	}
}
