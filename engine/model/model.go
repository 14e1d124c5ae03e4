package model

import (
	"github.com/Carmen-Shannon/oxy-shade/engine/geometry"
	"github.com/Carmen-Shannon/oxy-shade/engine/normal"
	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/material"
)

// model is the implementation of the Model interface.
type model struct {
	name       string
	mesh       *geometry.Mesh
	triNormals []normal.TriNormals
	transform  Transform
	material   material.Material
	textures   *material.TextureSet
}

// Model is a mesh placed in the world with a material and its encoded normals.
// It is produced from a loaded asset and consumed by the reference rasterizer and the
// uniform builders.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Mesh retrieves the mesh drawn by this model.
	//
	// Returns:
	//   - *geometry.Mesh: the mesh, nil if none was set
	Mesh() *geometry.Mesh

	// TriNormals retrieves the encoded per-triangle normals.
	// When empty, consumers fall back to the uncompressed vertex normals.
	//
	// Returns:
	//   - []normal.TriNormals: one record per triangle, or nil
	TriNormals() []normal.TriNormals

	// Transform retrieves the model's placement.
	//
	// Returns:
	//   - Transform: the transform
	Transform() Transform

	// SetTransform replaces the model's placement.
	//
	// Parameters:
	//   - t: the new transform
	SetTransform(t Transform)

	// Material retrieves the constant material.
	//
	// Returns:
	//   - material.Material: the material
	Material() material.Material

	// Textured reports whether fragments sample the texture set.
	//
	// Returns:
	//   - bool: true if a texture set is bound and the mesh has texture coordinates
	Textured() bool

	// TextureSet returns the bound texture set, or nil.
	//
	// Returns:
	//   - *material.TextureSet: the texture set or nil
	TextureSet() *material.TextureSet

	// MaterialAt returns the material for one fragment. Textured models sample the
	// texture set at uv; otherwise the constant material is returned.
	//
	// Parameters:
	//   - uv: the interpolated texture coordinate
	//   - shadowed: true if the fragment is in shadow
	//
	// Returns:
	//   - material.Material: the fragment's material
	MaterialAt(uv [2]float32, shadowed bool) material.Material

	// ModelSpace builds the per-model uniform for a camera.
	//
	// Parameters:
	//   - worldToProjection: the camera view-projection matrix
	//
	// Returns:
	//   - GPUModelSpace: the uniform value
	//   - error: ErrSingularTransform if the transform has a zero scale
	ModelSpace(worldToProjection [16]float32) (GPUModelSpace, error)
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
// Without options the model has an identity transform and a default constant material.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{transform: IdentityTransform()}
	for _, option := range options {
		option(m)
	}
	if m.material == nil {
		m.material = material.NewConstantMaterial(material.WithName(m.name))
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Mesh() *geometry.Mesh {
	return m.mesh
}

func (m *model) TriNormals() []normal.TriNormals {
	return m.triNormals
}

func (m *model) Transform() Transform {
	return m.transform
}

func (m *model) SetTransform(t Transform) {
	m.transform = t
}

func (m *model) Material() material.Material {
	return m.material
}

func (m *model) Textured() bool {
	return m.textures != nil && m.mesh != nil && m.mesh.Geometry.Textured()
}

func (m *model) TextureSet() *material.TextureSet {
	return m.textures
}

func (m *model) MaterialAt(uv [2]float32, shadowed bool) material.Material {
	if !m.Textured() {
		return m.material
	}
	return material.NewTexturedMaterial(uv, shadowed, m.textures)
}

func (m *model) ModelSpace(worldToProjection [16]float32) (GPUModelSpace, error) {
	return NewModelSpace(m.transform.Matrix(), worldToProjection)
}
