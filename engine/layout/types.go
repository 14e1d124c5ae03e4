// Package layout declares the byte-level contract shared by host Go structs and WGSL
// structs that read the same buffer memory. Each vector and matrix type has one size,
// one alignment and one WGSL spelling, and CheckStruct verifies a host struct against
// its WGSL declaration field by field.
package layout

import "fmt"

// Scalar identifies the element type of a vector or matrix.
type Scalar int

const (
	// ScalarF32 is a 32-bit IEEE-754 float.
	ScalarF32 Scalar = iota

	// ScalarF16 is a 16-bit IEEE-754 float.
	ScalarF16

	// ScalarU16 is a 16-bit unsigned integer.
	ScalarU16

	// ScalarU32 is a 32-bit unsigned integer.
	ScalarU32
)

// Bits returns the element width in bits.
func (s Scalar) Bits() int {
	switch s {
	case ScalarF16, ScalarU16:
		return 16
	default:
		return 32
	}
}

// Bytes returns the element width in bytes.
func (s Scalar) Bytes() uint64 {
	return uint64(s.Bits() / 8)
}

func (s Scalar) String() string {
	switch s {
	case ScalarF32:
		return "f32"
	case ScalarF16:
		return "f16"
	case ScalarU16:
		return "u16"
	case ScalarU32:
		return "u32"
	default:
		return fmt.Sprintf("Scalar(%d)", int(s))
	}
}

// Mode selects between the two alignment conventions a vector may use.
type Mode int

const (
	// ModeNatural aligns a vector to the next power of two at or above its byte size.
	ModeNatural Mode = iota

	// ModePacked aligns a vector to its element width with no padding.
	ModePacked
)

func (m Mode) String() string {
	if m == ModePacked {
		return "packed"
	}
	return "natural"
}

// VectorType describes a 2, 3 or 4 component vector.
type VectorType struct {
	Scalar     Scalar
	Components int
	Mode       Mode
}

// Size returns the byte size of the vector. Natural and packed vectors share a size;
// only alignment and therefore array stride differ.
func (v VectorType) Size() uint64 {
	return uint64(v.Components) * v.Scalar.Bytes()
}

// Align returns the byte alignment of the vector.
func (v VectorType) Align() uint64 {
	if v.Mode == ModePacked {
		return v.Scalar.Bytes()
	}
	return nextPow2(v.Size())
}

// Stride returns the distance between consecutive elements of an array of this vector.
func (v VectorType) Stride() uint64 {
	return roundUpAlign(v.Align(), v.Size())
}

// WGSL returns the WGSL spelling of the vector, or "" if WGSL has no type with the same
// size and alignment. Packed vectors map to fixed arrays. Unsigned-short vectors are read
// on the GPU as whole u32 words.
func (v VectorType) WGSL() string {
	if v.Mode == ModePacked {
		switch v.Scalar {
		case ScalarF32, ScalarF16, ScalarU32:
			return fmt.Sprintf("array<%s, %d>", v.Scalar, v.Components)
		default:
			return ""
		}
	}
	switch v.Scalar {
	case ScalarF32:
		return fmt.Sprintf("vec%df", v.Components)
	case ScalarU32:
		return fmt.Sprintf("vec%du", v.Components)
	case ScalarF16:
		return fmt.Sprintf("vec%dh", v.Components)
	case ScalarU16:
		switch v.Components {
		case 2:
			return "u32"
		case 4:
			return "vec2u"
		}
	}
	return ""
}

func (v VectorType) String() string {
	return fmt.Sprintf("%s vec%d<%s>", v.Mode, v.Components, v.Scalar)
}

// MatrixType describes a column-major f32 matrix with Columns columns of Rows rows.
type MatrixType struct {
	Columns int
	Rows    int
	Mode    Mode
}

// Column returns the vector type of a single column.
func (m MatrixType) Column() VectorType {
	return VectorType{Scalar: ScalarF32, Components: m.Rows, Mode: m.Mode}
}

// Size returns the byte size of the matrix. Natural 3-row columns are padded to four lanes.
func (m MatrixType) Size() uint64 {
	return uint64(m.Columns) * m.Column().Stride()
}

// Align returns the byte alignment of the matrix, equal to its column alignment.
func (m MatrixType) Align() uint64 {
	return m.Column().Align()
}

// WGSL returns the WGSL spelling of the matrix.
func (m MatrixType) WGSL() string {
	if m.Mode == ModePacked {
		return fmt.Sprintf("array<array<f32, %d>, %d>", m.Rows, m.Columns)
	}
	return fmt.Sprintf("mat%dx%d<f32>", m.Columns, m.Rows)
}

func (m MatrixType) String() string {
	return fmt.Sprintf("%s mat%dx%d<f32>", m.Mode, m.Columns, m.Rows)
}

// nextPow2 returns the smallest power of two greater than or equal to v.
func nextPow2(v uint64) uint64 {
	p := uint64(1)
	for p < v {
		p <<= 1
	}
	return p
}

// roundUpAlign rounds value up to the next multiple of alignment.
// Alignment must be a power of two.
//
// Parameters:
//   - alignment: the required alignment (must be a power of two)
//   - value: the value to align
//
// Returns:
//   - uint64: value rounded up to the next multiple of alignment
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}
