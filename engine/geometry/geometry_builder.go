package geometry

import "github.com/Carmen-Shannon/oxy-shade/engine/layout"

// GeometryBuilderOption is a functional option for configuring a Geometry via NewGeometry.
type GeometryBuilderOption func(*Geometry)

// WithIndices is an option builder that sets the triangle index list.
//
// Parameters:
//   - indices: three indices per triangle
//
// Returns:
//   - GeometryBuilderOption: a function that applies the indices option to a geometry
func WithIndices(indices []uint32) GeometryBuilderOption {
	return func(g *Geometry) {
		g.Indices = indices
	}
}

// WithPositions is an option builder that sets the vertex positions.
//
// Parameters:
//   - positions: model-space vertex positions
//
// Returns:
//   - GeometryBuilderOption: a function that applies the positions option to a geometry
func WithPositions(positions []layout.PackedFloat3) GeometryBuilderOption {
	return func(g *Geometry) {
		g.Positions = positions
	}
}

// WithNormals is an option builder that sets the vertex normals.
//
// Parameters:
//   - normals: unit vertex normals, one per position
//
// Returns:
//   - GeometryBuilderOption: a function that applies the normals option to a geometry
func WithNormals(normals []layout.PackedFloat3) GeometryBuilderOption {
	return func(g *Geometry) {
		g.Normals = normals
	}
}

// WithTexCoords is an option builder that sets the vertex texture coordinates.
//
// Parameters:
//   - texCoords: one UV pair per position, or nil for an untextured mesh
//
// Returns:
//   - GeometryBuilderOption: a function that applies the texcoords option to a geometry
func WithTexCoords(texCoords []layout.PackedFloat2) GeometryBuilderOption {
	return func(g *Geometry) {
		g.TexCoords = texCoords
	}
}
