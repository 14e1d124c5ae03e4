// Package interpolator blends the three vertex normals of a triangle at a barycentric
// coordinate and carries the result into world space.
//
// The blend is never normalized on its own. Normalization happens exactly once, after the
// normal-to-world transform and in float64, so non-uniform scale yields the correct
// direction and short blended vectors keep their precision.
package interpolator

import (
	_ "embed"
	"math"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/geometry"
	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
	"github.com/Carmen-Shannon/oxy-shade/engine/normal"
)

// GPUInterpolateSource holds the WGSL interpolation functions. It depends on the TriNormals
// structs and decode functions from the normal package.
//
//go:embed assets/interpolate.wgsl
var GPUInterpolateSource string

// Epsilon is the shortest vector Normalize divides by.
const Epsilon = 1e-30

// Interpolator produces a world-space unit shading normal for a point on a triangle.
type Interpolator interface {
	// Normal returns the normalized world-space normal of triangle at barycentric (b1, b2).
	// The triangle index is not bounds checked.
	//
	// Parameters:
	//   - triangle: triangle index
	//   - b: the second and third barycentric weights
	//
	// Returns:
	//   - [3]float32: a finite unit vector
	Normal(triangle int, b [2]float32) [3]float32
}

// Barycentric expands (b1, b2) to the full weight triple (1-(b1+b2), b1, b2).
func Barycentric(b [2]float32) [3]float32 {
	return [3]float32{1 - (b[0] + b[1]), b[0], b[1]}
}

// Blend returns M·b, the weighted sum of the matrix columns. The result is not normalized.
func Blend(m layout.Float3x3, b [3]float32) [3]float32 {
	return m.MulVec(b)
}

// ToWorld applies the normal-to-world matrix. The result is not normalized.
func ToWorld(normalToWorld layout.Float3x3, v [3]float32) [3]float32 {
	return normalToWorld.MulVec(v)
}

// Normalize scales v to unit length, computing the length in float64. Vectors shorter than
// Epsilon, or with non-finite components, come back as +Z.
//
// Parameters:
//   - v: the vector
//
// Returns:
//   - [3]float32: a finite unit vector
func Normalize(v [3]float32) [3]float32 {
	x, y, z := float64(v[0]), float64(v[1]), float64(v[2])
	l := math.Sqrt(x*x + y*y + z*z)
	if !(l > Epsilon) || math.IsInf(l, 0) {
		return [3]float32{0, 0, 1}
	}
	return [3]float32{float32(x / l), float32(y / l), float32(z / l)}
}

// NormalToWorld derives the normal-to-world matrix of a model transform: the inverse
// transpose of its upper 3x3.
//
// Parameters:
//   - model: column-major model-to-world matrix
//
// Returns:
//   - layout.Float3x3: the normal matrix
//   - bool: false if the model matrix is singular
func NormalToWorld(model layout.Float4x4) (layout.Float3x3, bool) {
	m, ok := common.NormalMatrix(model[:])
	return layout.Float3x3(m), ok
}

// Shade is the full per-point path: blend the decoded matrix, transform, normalize.
func Shade(m, normalToWorld layout.Float3x3, b [2]float32) [3]float32 {
	return Normalize(ToWorld(normalToWorld, Blend(m, Barycentric(b))))
}

type compressed struct {
	records       []normal.TriNormals
	normalToWorld layout.Float3x3
}

// NewCompressed interpolates from dense TriNormals records, one per triangle, under a
// single normal-to-world matrix.
//
// Parameters:
//   - records: one record per triangle
//   - normalToWorld: the instance's normal matrix
//
// Returns:
//   - Interpolator: the interpolator
func NewCompressed(records []normal.TriNormals, normalToWorld layout.Float3x3) Interpolator {
	return &compressed{records: records, normalToWorld: normalToWorld}
}

func (c *compressed) Normal(triangle int, b [2]float32) [3]float32 {
	return Shade(c.records[triangle].Decode(), c.normalToWorld, b)
}

type indexed struct {
	records []normal.IndexedTriNormals
	table   []layout.PackedFloat4x3
}

// NewIndexed interpolates from indexed records. Each record selects its normal-to-world
// matrix from table by TransformIndex; only the upper 3x3 of the entry is used.
//
// Parameters:
//   - records: one record per triangle
//   - table: per-instance transforms
//
// Returns:
//   - Interpolator: the interpolator
func NewIndexed(records []normal.IndexedTriNormals, table []layout.PackedFloat4x3) Interpolator {
	return &indexed{records: records, table: table}
}

func (x *indexed) Normal(triangle int, b [2]float32) [3]float32 {
	r := x.records[triangle]
	return Shade(r.Decode(), x.table[r.TransformIndex].Upper3x3(), b)
}

type uncompressed struct {
	geom          *geometry.Geometry
	normalToWorld layout.Float3x3
}

// NewUncompressed interpolates directly from a geometry's stored vertex normals.
//
// Parameters:
//   - geom: validated geometry
//   - normalToWorld: the instance's normal matrix
//
// Returns:
//   - Interpolator: the interpolator
func NewUncompressed(geom *geometry.Geometry, normalToWorld layout.Float3x3) Interpolator {
	return &uncompressed{geom: geom, normalToWorld: normalToWorld}
}

func (u *uncompressed) Normal(triangle int, b [2]float32) [3]float32 {
	n := u.geom.TriangleNormals(triangle)
	return Shade(layout.Float3x3FromColumns(n[0], n[1], n[2]), u.normalToWorld, b)
}
