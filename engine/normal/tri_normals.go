package normal

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/geometry"
	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
)

// Signed is a signed-octahedron encoding of one unit vector: a coordinate in [0, 1]² and the
// hemisphere the vector points into.
type Signed struct {
	UV       [2]float32
	Positive bool
}

// EncodeSigned maps a unit vector onto the signed octahedron. Unlike EncodeOctahedral there
// is no fold: both hemispheres share the square and Positive records which one was meant.
//
// Parameters:
//   - n: a unit vector
//
// Returns:
//   - Signed: the coordinate and hemisphere bit
func EncodeSigned(n [3]float32) Signed {
	p := l1Normalize(n)
	y := p[1]*0.5 + 0.5
	x := p[0]*0.5 + y
	y = p[0]*-0.5 + y
	return Signed{UV: [2]float32{x, y}, Positive: p[2] >= 0}
}

// Compress packs three signed encodings into the two-word 10-10-10-2 layout:
//
//	          | bits 0-9 | bits 10-19 | bits 20-29 | bits 30-31
//	word 0    | n0.u     | n0.v       | n2.u       | n0 sign
//	word 1    | n1.u     | n1.v       | n2.v       | n1 sign | n2 sign << 1
//
// Parameters:
//   - n0, n1, n2: the triangle's vertex normals, in index order
//
// Returns:
//   - TriNormals: the packed record
func Compress(n0, n1, n2 Signed) TriNormals {
	return TriNormals{Normals: [2]uint32{
		PackUnorm1010102(Unorm10(n0.UV[0]), Unorm10(n0.UV[1]), Unorm10(n2.UV[0]), Unorm2(n0.Positive, false)),
		PackUnorm1010102(Unorm10(n1.UV[0]), Unorm10(n1.UV[1]), Unorm10(n2.UV[1]), Unorm2(n1.Positive, n2.Positive)),
	}}
}

// Encode packs the three vertex normals of a triangle.
func Encode(n0, n1, n2 [3]float32) TriNormals {
	return Compress(EncodeSigned(n0), EncodeSigned(n1), EncodeSigned(n2))
}

// FromIndexedNormals encodes one triangle of an indexed mesh.
//
// Parameters:
//   - normals: per-vertex normals
//   - indices: three indices per triangle
//   - triangle: the triangle to encode
//
// Returns:
//   - TriNormals: the packed record
func FromIndexedNormals(normals []layout.PackedFloat3, indices []uint32, triangle int) TriNormals {
	return Encode(
		normals[indices[triangle*3]],
		normals[indices[triangle*3+1]],
		normals[indices[triangle*3+2]],
	)
}

// FromGeometry encodes one triangle of a validated geometry.
func FromGeometry(g *geometry.Geometry, triangle int) TriNormals {
	return FromIndexedNormals(g.Normals, g.Indices, triangle)
}

// Decompress unpacks the record into per-component rows. Element i of each row belongs to
// normal i: xs and ys hold the octahedral coordinate and zs holds the hemisphere bit as 0 or 1.
//
// Returns:
//   - xs, ys, zs: the unpacked components
func (t TriNormals) Decompress() (xs, ys, zs [3]float32) {
	a0, s0 := UnpackUnorm1010102(t.Normals[0])
	a1, s12 := UnpackUnorm1010102(t.Normals[1])
	xs = [3]float32{a0[0], a1[0], a0[2]}
	ys = [3]float32{a0[1], a1[1], a1[2]}
	zs = [3]float32{float32(s0 & 1), float32(s12 & 1), float32(s12 >> 1)}
	return xs, ys, zs
}

// DecodeSigned turns the unpacked rows back into three unit vectors, each normalized on its own.
//
// Parameters:
//   - xs, ys, zs: rows from Decompress
//
// Returns:
//   - [3][3]float32: the three normals
func DecodeSigned(xs, ys, zs [3]float32) [3][3]float32 {
	var out [3][3]float32
	for i := range 3 {
		ox := xs[i] - ys[i]
		oy := xs[i] + ys[i] - 1
		oz := (zs[i]*2 - 1) * (1 - math32.Abs(ox) - math32.Abs(oy))
		out[i] = common.Normalize3([3]float32{ox, oy, oz})
	}
	return out
}

// Vectors decodes the record into its three unit vectors.
func (t TriNormals) Vectors() [3][3]float32 {
	return DecodeSigned(t.Decompress())
}

// Decode decodes the record into a matrix whose columns are the three vertex normals, ready
// to be multiplied by a barycentric weight vector.
func (t TriNormals) Decode() layout.Float3x3 {
	n := t.Vectors()
	return layout.Float3x3FromColumns(n[0], n[1], n[2])
}

// Decode decodes the dense part of the indexed record.
func (t IndexedTriNormals) Decode() layout.Float3x3 {
	return TriNormals{Normals: t.Normals}.Decode()
}

// Indexed attaches a transform index to a dense record.
func (t TriNormals) Indexed(transformIndex uint32) IndexedTriNormals {
	return IndexedTriNormals{Normals: t.Normals, TransformIndex: transformIndex}
}
