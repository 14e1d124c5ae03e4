package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shade/engine/camera"
	"github.com/Carmen-Shannon/oxy-shade/engine/geometry"
	"github.com/Carmen-Shannon/oxy-shade/engine/model"
	"github.com/Carmen-Shannon/oxy-shade/engine/normal"
	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-shade/engine/shading"
)

// NewGeometryProvider stages group 0 for a mesh: indices, positions, the compressed
// triangle normal records and, for textured geometry, texture coordinates.
//
// Parameters:
//   - label: the debug label
//   - g: the validated geometry
//   - records: one record per triangle
//
// Returns:
//   - BindGroupProvider: the provider
//   - error: error if the record count does not match the triangle count
func NewGeometryProvider(label string, g *geometry.Geometry, records []normal.TriNormals) (BindGroupProvider, error) {
	if len(records) != g.TriangleCount() {
		return nil, fmt.Errorf("%s: %d normal records for %d triangles", label, len(records), g.TriangleCount())
	}
	buffers := g.Buffers()
	opts := []BindGroupProviderOption{
		WithBuffer(geometry.SlotIndices, buffers[geometry.SlotIndices]),
		WithBuffer(geometry.SlotPositions, buffers[geometry.SlotPositions]),
		WithBuffer(geometry.SlotNormals, normal.MarshalTriNormals(records)),
	}
	if tc, ok := buffers[geometry.SlotTexCoords]; ok {
		opts = append(opts, WithBuffer(geometry.SlotTexCoords, tc))
	}
	return NewBindGroupProvider(label+" geometry", geometry.GroupGeometry, opts...)
}

// NewTransformProvider stages group 1: the model's ModelSpace and the camera's
// ProjectedSpace.
//
// Parameters:
//   - label: the debug label
//   - m: the model
//   - cam: the camera, already updated
//   - width: the render target width in pixels
//   - height: the render target height in pixels
//
// Returns:
//   - BindGroupProvider: the provider
//   - error: model.ErrSingularTransform or camera.ErrSingularProjection
func NewTransformProvider(label string, m model.Model, cam camera.Camera, width, height int) (BindGroupProvider, error) {
	ms, err := m.ModelSpace(cam.ViewProjectionMatrix())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	ps, err := cam.ProjectedSpace(width, height)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	return NewBindGroupProvider(label+" transform", geometry.GroupTransform,
		WithBuffer(geometry.SlotModelSpace, ms.Marshal()),
		WithBuffer(geometry.SlotProjectedSpace, ps.Marshal()),
	)
}

// NewMaterialProvider stages group 2: the material parameters, the shading parameters and,
// for textured models, the three color textures and the sampler. Textures must already be
// decoded.
//
// Parameters:
//   - label: the debug label
//   - m: the model
//   - params: the light and camera positions
//
// Returns:
//   - BindGroupProvider: the provider
//   - error: error if a texture is missing
func NewMaterialProvider(label string, m model.Model, params shading.GPUShadingParams) (BindGroupProvider, error) {
	textured := m.Textured()
	mp := material.NewGPUMaterialParams(m.MaterialAt([2]float32{}, false), textured)
	opts := []BindGroupProviderOption{
		WithBuffer(geometry.SlotMaterial, mp.Marshal()),
		WithBuffer(geometry.SlotShading, params.Marshal()),
	}
	if textured {
		set := m.TextureSet()
		opts = append(opts,
			WithTexture(geometry.SlotAmbientTexture, set.Ambient),
			WithTexture(geometry.SlotDiffuseTexture, set.Diffuse),
			WithTexture(geometry.SlotSpecularTexture, set.Specular),
			WithSampler(),
		)
	}
	return NewBindGroupProvider(label+" material", geometry.GroupMaterial, opts...)
}
