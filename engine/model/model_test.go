package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/geometry"
	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/material"
)

func TestGPUModelSpaceLayout(t *testing.T) {
	require.NoError(t, layout.CheckStruct(GPUModelSpace{}, GPUModelSpaceSource, "ModelSpace"))
	g := GPUModelSpace{}
	assert.Equal(t, 112, g.Size())
}

func TestNewModelSpaceNonUniformScale(t *testing.T) {
	tr := IdentityTransform()
	tr.Scale = [3]float32{2, 1, 1}
	tr.Translation = [3]float32{5, 0, 0}

	var id [16]float32
	common.Identity(id[:])
	ms, err := NewModelSpace(tr.Matrix(), id)
	require.NoError(t, err)

	// translation does not reach the normal matrix, scale is inverted
	assert.InDelta(t, 0.5, ms.NormalToWorld[0][0], 1e-6)
	assert.InDelta(t, 1, ms.NormalToWorld[1][1], 1e-6)
	assert.Equal(t, float32(5), ms.ModelToProjection[12])
}

func TestNewModelSpaceSingular(t *testing.T) {
	tr := IdentityTransform()
	tr.Scale = [3]float32{1, 0, 1}
	var id [16]float32
	common.Identity(id[:])
	_, err := NewModelSpace(tr.Matrix(), id)
	assert.ErrorIs(t, err, ErrSingularTransform)
}

func TestGPUModelSpaceMarshalZeroesPadding(t *testing.T) {
	ms := GPUModelSpace{NormalToWorld: layout.Float3x3{{1, 0, 0, 9}, {0, 1, 0, 9}, {0, 0, 1, 9}}}
	buf := ms.Marshal()
	require.Len(t, buf, 112)
	assert.Equal(t, []byte{0, 0, 0, 0}, buf[64+12:64+16])
	assert.Equal(t, float32(9), ms.NormalToWorld[0][3], "Marshal must not modify the receiver")
}

func TestModelMaterialAt(t *testing.T) {
	g, err := geometry.NewGeometry(
		geometry.WithIndices([]uint32{0, 1, 2}),
		geometry.WithPositions([]layout.PackedFloat3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}),
		geometry.WithNormals([]layout.PackedFloat3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}),
		geometry.WithTexCoords([]layout.PackedFloat2{{0, 0}, {1, 0}, {0, 1}}),
	)
	require.NoError(t, err)

	red := common.NewSolidTexture("red", [4]float32{1, 0, 0, 1})
	set := material.NewTextureSet("tex", red, red, red)

	m := NewModel(WithName("tri"), WithMesh(geometry.NewMesh("tri", g)), WithTextureSet(set))
	require.True(t, m.Textured())
	assert.InDeltaSlice(t, []float32{1, 0, 0, 1}, sliceOf(m.MaterialAt([2]float32{0.3, 0.3}, false).DiffuseColor()), 1e-6)
	assert.Equal(t, [4]float32{}, m.MaterialAt([2]float32{0.3, 0.3}, true).DiffuseColor())

	plain := NewModel(WithName("plain"), WithMesh(geometry.NewMesh("tri", g)))
	assert.False(t, plain.Textured())
	assert.Equal(t, "plain", plain.MaterialAt([2]float32{}, false).Name())
}

func sliceOf(v [4]float32) []float32 { return v[:] }
