package pipeline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shade/engine/geometry"
	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-shade/engine/shading"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("plain")
	assert.Equal(t, "plain", p.PipelineKey())
	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Nil(t, p.RenderPipeline())
	assert.Equal(t, shader.Capabilities{}, p.Capabilities())

	p = NewPipeline("culled", WithCullMode(wgpu.CullModeBack), WithBlendEnabled(true))
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
	assert.True(t, p.BlendEnabled())
}

func TestInitRequiresBothShaders(t *testing.T) {
	err := NewPipeline("empty").Init(nil, wgpu.TextureFormatRGBA8Unorm)
	assert.ErrorIs(t, err, ErrMissingShader)
}

func TestSetSelect(t *testing.T) {
	for _, textured := range []bool{false, true} {
		s, err := NewSet("blinn", textured)
		require.NoError(t, err)
		assert.Equal(t, textured, s.Textured())
		assert.Len(t, s.Pipelines(), 9)

		for _, mask := range shading.AllMasks() {
			p := s.Select(mask)
			require.NotNil(t, p, mask.String())
			assert.Same(t, p, s.Select(mask.With(shading.CapDebugPath)))
			if mask.Has(shading.CapNormalsOnly) {
				assert.Same(t, s.Select(shading.Mask(shading.CapNormalsOnly)), p)
			}
		}

		all := shading.Mask(shading.CapAmbient | shading.CapDiffuse | shading.CapSpecular)
		caps := s.Select(all).Capabilities()
		assert.Equal(t, all, caps.Mask)
		assert.Equal(t, textured, caps.Textured)
	}
}

func TestSetLayoutsMatchSchema(t *testing.T) {
	s, err := NewSet("blinn", true)
	require.NoError(t, err)
	reference := geometry.BindGroupLayoutDescriptors(true)

	all := shading.Mask(shading.CapAmbient | shading.CapDiffuse | shading.CapSpecular)
	merged := s.Select(all).BindGroupLayoutDescriptors()
	require.NoError(t, CheckLayouts(merged, reference))

	// the transform group is read by both stages
	for _, e := range merged[geometry.GroupTransform].Entries {
		if e.Binding == geometry.SlotModelSpace.Binding() {
			assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, e.Visibility)
		}
	}
	assert.Len(t, merged[geometry.GroupMaterial].Entries, 6)
	assert.Len(t, merged[geometry.GroupGeometry].Entries, 4)
}

func TestMergeBindGroupLayouts(t *testing.T) {
	v := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Label: "v0", Entries: []wgpu.BindGroupLayoutEntry{{Binding: 1, Visibility: wgpu.ShaderStageVertex}}},
		1: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0, Visibility: wgpu.ShaderStageVertex}}},
	}
	f := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0, Visibility: wgpu.ShaderStageFragment}, {Binding: 1, Visibility: wgpu.ShaderStageFragment}}},
		2: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 3, Visibility: wgpu.ShaderStageFragment}}},
	}
	merged := MergeBindGroupLayouts(v, f)
	require.Len(t, merged, 3)
	g0 := merged[0]
	assert.Equal(t, "v0", g0.Label)
	require.Len(t, g0.Entries, 2)
	assert.Equal(t, uint32(0), g0.Entries[0].Binding)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, g0.Entries[1].Visibility)
	assert.Equal(t, v[1], merged[1])
	assert.Equal(t, f[2], merged[2])
}

func TestCheckLayoutsMismatch(t *testing.T) {
	reference := geometry.BindGroupLayoutDescriptors(false)

	texture := wgpu.BindGroupLayoutEntry{Binding: geometry.SlotModelSpace.Binding()}
	texture.Texture.SampleType = wgpu.TextureSampleTypeFloat
	texture.Texture.ViewDimension = wgpu.TextureViewDimension2D
	err := CheckLayouts(map[int]wgpu.BindGroupLayoutDescriptor{
		geometry.GroupTransform: {Entries: []wgpu.BindGroupLayoutEntry{texture}},
	}, reference)
	assert.ErrorIs(t, err, ErrLayoutMismatch)

	// texture slots are absent from the untextured schema
	sampler := wgpu.BindGroupLayoutEntry{Binding: geometry.SlotSampler.Binding()}
	sampler.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	err = CheckLayouts(map[int]wgpu.BindGroupLayoutDescriptor{
		geometry.GroupMaterial: {Entries: []wgpu.BindGroupLayoutEntry{sampler}},
	}, reference)
	assert.ErrorIs(t, err, ErrLayoutMismatch)
}

func TestNewSetRejectsForeignBinding(t *testing.T) {
	vertex := "@vertex\nfn vs_main() -> @builtin(position) vec4f { return vec4f(0.0); }"
	fragment := "@group(3) @binding(0) var<uniform> extra: vec4f;\n@fragment\nfn fs_main() -> @location(0) vec4f { return extra; }"
	_, err := NewSetFromSources("foreign", vertex, fragment, false)
	assert.ErrorIs(t, err, ErrLayoutMismatch)
}
