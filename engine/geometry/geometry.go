// Package geometry holds the read-only parallel arrays a mesh is drawn from and the fixed
// binding slots under which they reach the GPU.
package geometry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
)

var (
	// ErrIndexOutOfRange reports an index that does not address a vertex.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrLengthMismatch reports a per-vertex array whose length differs from the position array.
	ErrLengthMismatch = errors.New("vertex array length mismatch")

	// ErrNotTriangles reports an index count that is not a multiple of three.
	ErrNotTriangles = errors.New("index count is not a multiple of 3")

	// ErrEmptyGeometry reports geometry with no positions or no indices.
	ErrEmptyGeometry = errors.New("geometry has no vertices or no triangles")
)

// Geometry is an indexed triangle list. Positions, Normals and TexCoords are parallel arrays
// addressed by the values in Indices. TexCoords is nil for untextured meshes.
// A Geometry is immutable once NewGeometry has validated it.
type Geometry struct {
	Indices   []uint32
	Positions []layout.PackedFloat3
	Normals   []layout.PackedFloat3
	TexCoords []layout.PackedFloat2
}

// NewGeometry builds and validates a Geometry. This is the only place indices are range
// checked; every consumer after it trusts them.
//
// Parameters:
//   - opts: functional options supplying the arrays
//
// Returns:
//   - *Geometry: the validated geometry
//   - error: any Validate failure
func NewGeometry(opts ...GeometryBuilderOption) (*Geometry, error) {
	g := &Geometry{}
	for _, opt := range opts {
		opt(g)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks the triangle count, the parallel array lengths and every index.
//
// Returns:
//   - error: the joined failures, each wrapping one of the package sentinels
func (g *Geometry) Validate() error {
	if len(g.Positions) == 0 || len(g.Indices) == 0 {
		return ErrEmptyGeometry
	}

	var errs []error
	if len(g.Indices)%3 != 0 {
		errs = append(errs, fmt.Errorf("%w: %d indices", ErrNotTriangles, len(g.Indices)))
	}
	if len(g.Normals) != len(g.Positions) {
		errs = append(errs, fmt.Errorf("%w: %d normals for %d positions", ErrLengthMismatch, len(g.Normals), len(g.Positions)))
	}
	if g.TexCoords != nil && len(g.TexCoords) != len(g.Positions) {
		errs = append(errs, fmt.Errorf("%w: %d texcoords for %d positions", ErrLengthMismatch, len(g.TexCoords), len(g.Positions)))
	}
	n := uint32(len(g.Positions))
	for i, idx := range g.Indices {
		if idx >= n {
			errs = append(errs, fmt.Errorf("%w: indices[%d] = %d, %d vertices", ErrIndexOutOfRange, i, idx, n))
			break
		}
	}
	return errors.Join(errs...)
}

// TriangleCount returns the number of triangles.
func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	return len(g.Positions)
}

// Textured reports whether the geometry carries texture coordinates.
func (g *Geometry) Textured() bool {
	return g.TexCoords != nil
}

// Triangle returns the three vertex indices of triangle i. It does not bounds check.
func (g *Geometry) Triangle(i int) [3]uint32 {
	return [3]uint32{g.Indices[3*i], g.Indices[3*i+1], g.Indices[3*i+2]}
}

// TriangleNormals returns the three vertex normals of triangle i.
func (g *Geometry) TriangleNormals(i int) [3][3]float32 {
	t := g.Triangle(i)
	return [3][3]float32{g.Normals[t[0]], g.Normals[t[1]], g.Normals[t[2]]}
}

// TriangleTexCoords returns the three texture coordinates of triangle i, or false when the
// geometry is untextured.
func (g *Geometry) TriangleTexCoords(i int) ([3][2]float32, bool) {
	if g.TexCoords == nil {
		return [3][2]float32{}, false
	}
	t := g.Triangle(i)
	return [3][2]float32{g.TexCoords[t[0]], g.TexCoords[t[1]], g.TexCoords[t[2]]}, true
}

// Buffers returns the little-endian byte image of every populated slot, ready for upload.
//
// Returns:
//   - map[BindingSlot][]byte: buffer contents keyed by slot
func (g *Geometry) Buffers() map[BindingSlot][]byte {
	out := make(map[BindingSlot][]byte, 4)

	idx := make([]byte, 4*len(g.Indices))
	for i, v := range g.Indices {
		binary.LittleEndian.PutUint32(idx[i*4:], v)
	}
	out[SlotIndices] = idx
	out[SlotPositions] = marshalFloat3s(g.Positions)
	if len(g.Normals) > 0 {
		out[SlotNormals] = marshalFloat3s(g.Normals)
	}
	if g.TexCoords != nil {
		buf := make([]byte, 8*len(g.TexCoords))
		for i, tc := range g.TexCoords {
			tc.Put(buf[i*8:])
		}
		out[SlotTexCoords] = buf
	}
	return out
}

func marshalFloat3s(vs []layout.PackedFloat3) []byte {
	buf := make([]byte, 12*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[i*12:], math.Float32bits(v[0]))
		binary.LittleEndian.PutUint32(buf[i*12+4:], math.Float32bits(v[1]))
		binary.LittleEndian.PutUint32(buf[i*12+8:], math.Float32bits(v[2]))
	}
	return buf
}

// Mesh is a named, validated geometry with its bounds.
type Mesh struct {
	Name     string
	Geometry *Geometry
	Bounds   MaxBounds
}

// NewMesh wraps a geometry and computes its bounds.
//
// Parameters:
//   - name: the mesh identifier
//   - g: validated geometry
//
// Returns:
//   - *Mesh: the mesh
func NewMesh(name string, g *Geometry) *Mesh {
	return &Mesh{Name: name, Geometry: g, Bounds: CalculateBounds(g.Positions)}
}
