package geometry

import (
	"encoding/binary"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
)

func quad() []GeometryBuilderOption {
	return []GeometryBuilderOption{
		WithIndices([]uint32{0, 1, 2, 0, 2, 3}),
		WithPositions([]layout.PackedFloat3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}}),
		WithNormals([]layout.PackedFloat3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}}),
	}
}

func TestNewGeometry(t *testing.T) {
	g, err := NewGeometry(quad()...)
	require.NoError(t, err)
	assert.Equal(t, 2, g.TriangleCount())
	assert.Equal(t, 4, g.VertexCount())
	assert.False(t, g.Textured())
	assert.Equal(t, [3]uint32{0, 2, 3}, g.Triangle(1))
	assert.Equal(t, [3]float32{0, 0, 1}, g.TriangleNormals(1)[2])

	_, ok := g.TriangleTexCoords(0)
	assert.False(t, ok)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		opt  GeometryBuilderOption
		want error
	}{
		{"index out of range", WithIndices([]uint32{0, 1, 4}), ErrIndexOutOfRange},
		{"not triangles", WithIndices([]uint32{0, 1, 2, 3}), ErrNotTriangles},
		{"normal count", WithNormals([]layout.PackedFloat3{{0, 0, 1}}), ErrLengthMismatch},
		{"texcoord count", WithTexCoords([]layout.PackedFloat2{{0, 0}}), ErrLengthMismatch},
		{"empty", WithPositions(nil), ErrEmptyGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGeometry(append(quad(), tt.opt)...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuffers(t *testing.T) {
	g, err := NewGeometry(append(quad(), WithTexCoords([]layout.PackedFloat2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}))...)
	require.NoError(t, err)

	bufs := g.Buffers()
	require.Len(t, bufs, 4)
	assert.Len(t, bufs[SlotIndices], 24)
	assert.Len(t, bufs[SlotPositions], 48)
	assert.Len(t, bufs[SlotNormals], 48)
	assert.Len(t, bufs[SlotTexCoords], 32)
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(bufs[SlotIndices][20:]))

	tc, ok := g.TriangleTexCoords(0)
	require.True(t, ok)
	assert.Equal(t, [2]float32{1, 1}, tc[2])
}

func TestBindingSlots(t *testing.T) {
	seen := map[[2]int]BindingSlot{}
	for _, s := range Slots() {
		key := [2]int{s.Group(), int(s.Binding())}
		prev, dup := seen[key]
		assert.False(t, dup, "%s collides with %s", s, prev)
		seen[key] = s
	}
	assert.Equal(t, "normals", SlotNormals.String())
	assert.Equal(t, "BindingSlot(99)", BindingSlot(99).String())
}

func TestBindGroupLayoutDescriptors(t *testing.T) {
	untextured := BindGroupLayoutDescriptors(false)
	require.Len(t, untextured, 3)
	assert.Len(t, untextured[GroupGeometry].Entries, 3)
	assert.Len(t, untextured[GroupMaterial].Entries, 2)

	textured := BindGroupLayoutDescriptors(true)
	geo := textured[GroupGeometry]
	require.Len(t, geo.Entries, 4)
	for i, e := range geo.Entries {
		assert.Equal(t, uint32(i), e.Binding)
		assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, e.Buffer.Type)
	}
	assert.Equal(t, uint64(12), geo.Entries[1].Buffer.MinBindingSize)

	mat := textured[GroupMaterial].Entries
	require.Len(t, mat, 6)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, mat[0].Buffer.Type)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, mat[1].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, mat[4].Sampler.Type)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, mat[5].Buffer.Type)
}

func TestCalculateBounds(t *testing.T) {
	b := CalculateBounds([]layout.PackedFloat3{{-1, 0, 2}, {3, 4, 2}, {1, -2, 6}})
	assert.Equal(t, layout.PackedFloat3{1, 1, 4}, b.Center)
	assert.Equal(t, layout.PackedFloat3{4, 6, 4}, b.Size)
	assert.Equal(t, [3]float32{-1, -2, 2}, b.Min())
	assert.Equal(t, [3]float32{3, 4, 6}, b.Max())
	assert.InDelta(t, 0.5*8.2462112, b.Radius(), 1e-5)

	assert.Equal(t, MaxBounds{}, CalculateBounds(nil))

	g, err := NewGeometry(quad()...)
	require.NoError(t, err)
	m := NewMesh("quad", g)
	assert.Equal(t, layout.PackedFloat3{2, 2, 0}, m.Bounds.Size)
}
