package model

import (
	"github.com/Carmen-Shannon/oxy-shade/engine/geometry"
	"github.com/Carmen-Shannon/oxy-shade/engine/normal"
	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/material"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithMesh is an option builder that sets the mesh drawn by the Model.
//
// Parameters:
//   - mesh: the mesh
//
// Returns:
//   - ModelBuilderOption: a function that applies the mesh option to a model
func WithMesh(mesh *geometry.Mesh) ModelBuilderOption {
	return func(m *model) {
		m.mesh = mesh
	}
}

// WithTriNormals is an option builder that sets the encoded per-triangle normals,
// one record per mesh triangle.
//
// Parameters:
//   - records: the encoded normals
//
// Returns:
//   - ModelBuilderOption: a function that applies the records option to a model
func WithTriNormals(records []normal.TriNormals) ModelBuilderOption {
	return func(m *model) {
		m.triNormals = records
	}
}

// WithTransform is an option builder that places the Model in the world.
//
// Parameters:
//   - t: the transform
//
// Returns:
//   - ModelBuilderOption: a function that applies the transform option to a model
func WithTransform(t Transform) ModelBuilderOption {
	return func(m *model) {
		m.transform = t
	}
}

// WithMaterial is an option builder that sets the constant material.
//
// Parameters:
//   - mat: the material
//
// Returns:
//   - ModelBuilderOption: a function that applies the material option to a model
func WithMaterial(mat material.Material) ModelBuilderOption {
	return func(m *model) {
		m.material = mat
	}
}

// WithTextureSet is an option builder that sets the textures sampled in place of the
// constant material colors. It only takes effect when the mesh has texture coordinates.
//
// Parameters:
//   - set: the decoded texture set
//
// Returns:
//   - ModelBuilderOption: a function that applies the texture set option to a model
func WithTextureSet(set *material.TextureSet) ModelBuilderOption {
	return func(m *model) {
		m.textures = set
	}
}
