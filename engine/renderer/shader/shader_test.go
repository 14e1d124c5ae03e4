package shader

import (
	"sort"
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shade/engine/shading"
)

func caps(mask shading.Mask, textured bool) Capabilities {
	return Capabilities{Mask: mask, Textured: textured}
}

func TestProcessBlocks(t *testing.T) {
	src := strings.Join([]string{
		"a",
		"//@oxy:if diffuse|specular",
		"lit",
		"//@oxy:if !textured",
		"constant",
		"//@oxy:else",
		"sampled",
		"//@oxy:endif",
		"//@oxy:else",
		"dark",
		"//@oxy:endif",
		"z",
	}, "\n")

	tests := []struct {
		name string
		caps Capabilities
		want string
	}{
		{"diffuse", caps(shading.Mask(shading.CapDiffuse), false), "a\nlit\nconstant\nz"},
		{"specular textured", caps(shading.Mask(shading.CapSpecular), true), "a\nlit\nsampled\nz"},
		{"ambient", caps(shading.Mask(shading.CapAmbient), true), "a\ndark\nz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewPreProcessor().Process(src, tt.caps)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestProcessErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		target error
		substr string
	}{
		{"unknown capability", "//@oxy:if shadows\n//@oxy:endif", shading.ErrUnknownCapability, ""},
		{"endif without if", "//@oxy:endif", ErrUnbalancedBlock, ""},
		{"else without if", "//@oxy:else", ErrUnbalancedBlock, ""},
		{"unclosed", "//@oxy:if ambient\nx", ErrUnbalancedBlock, ""},
		{"second else", "//@oxy:if ambient\n//@oxy:else\n//@oxy:else\n//@oxy:endif", ErrUnbalancedBlock, ""},
		{"function-only group type", "//@oxy:group 0 0 storage_uniform f interpolate", nil, "names no struct"},
		{"unknown include", "//@oxy:include camera_uniform", nil, "unknown key"},
		{"unknown role", "//@oxy:provider 0 0 geometry bones", nil, "unknown binding role"},
		{"duplicate binding", "//@oxy:group 1 0 storage_uniform a model_space\n//@oxy:provider 1 0 geometry", nil, "already declared on line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPreProcessor().Process(tt.src, caps(shading.Mask(shading.CapAmbient), false))
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.substr != "" {
				assert.Contains(t, err.Error(), tt.substr)
			}
		})
	}
}

func TestProcessSkipsInactiveDeclarations(t *testing.T) {
	src := strings.Join([]string{
		"//@oxy:group 1 0 storage_uniform model_space model_space",
		"//@oxy:if specular",
		"//@oxy:group 1 0 storage_uniform other model_space",
		"//@oxy:provider 2 3 material specular_texture",
		"//@oxy:endif",
	}, "\n")
	pp := NewPreProcessor()
	out, err := pp.Process(src, caps(shading.Mask(shading.CapDiffuse), false))
	require.NoError(t, err)
	assert.Equal(t, "@group(1) @binding(0) var<uniform> model_space: ModelSpace;", out)
	require.Len(t, pp.Declarations(), 1)
	assert.Equal(t, AnnotationTypeBindingGroup, pp.Declarations()[0].Type)
}

func TestProcessIncludesEachSourceOnce(t *testing.T) {
	src := "//@oxy:include tri_normals\n//@oxy:include indexed_tri_normals\n//@oxy:group 0 2 storage_read records array<indexed_tri_normals>"
	out, err := NewPreProcessor().Process(src, Capabilities{})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "struct TriNormals"))
	assert.Contains(t, out, "var<storage, read> records: array<IndexedTriNormals>;")
}

func TestCanonical(t *testing.T) {
	all := shading.Mask(shading.CapAmbient | shading.CapDiffuse | shading.CapSpecular)
	assert.Equal(t,
		Capabilities{Mask: shading.Mask(shading.CapNormalsOnly)},
		caps(all.With(shading.CapNormalsOnly), true).Canonical())
	assert.Equal(t, Capabilities{}, caps(shading.Mask(shading.CapDebugPath), true).Canonical())
	assert.Equal(t, caps(all, true), caps(all.With(shading.CapDebugPath), true).Canonical())
	assert.Equal(t, "ambient|diffuse|specular+textured", caps(all, true).String())
}

func bindings(s Shader, group int) []uint32 {
	var out []uint32
	for _, e := range s.BindGroupLayoutDescriptor(group).Entries {
		out = append(out, e.Binding)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestVariantBindings(t *testing.T) {
	all := shading.Mask(shading.CapAmbient | shading.CapDiffuse | shading.CapSpecular)
	tests := []struct {
		name     string
		caps     Capabilities
		vertex0  []uint32
		frag1    []uint32
		frag2    []uint32
		hasGroup bool
	}{
		{"all textured", caps(all, true), []uint32{0, 1, 3}, []uint32{0, 1}, []uint32{0, 1, 2, 3, 4, 5}, true},
		{"all constant", caps(all, false), []uint32{0, 1}, []uint32{0, 1}, []uint32{0, 5}, true},
		{"ambient textured", caps(shading.Mask(shading.CapAmbient), true), []uint32{0, 1, 3}, []uint32{0}, []uint32{0, 1, 4}, true},
		{"diffuse", caps(shading.Mask(shading.CapDiffuse), false), []uint32{0, 1}, []uint32{0, 1}, []uint32{0, 5}, true},
		{"normals only", caps(all.With(shading.CapNormalsOnly), true), []uint32{0, 1}, []uint32{0}, nil, false},
		{"none", caps(0, true), []uint32{0, 1}, []uint32{0}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs, err := NewShader("vs", ShaderTypeVertex, shading.GPUVertexSource, tt.caps)
			require.NoError(t, err)
			fs, err := NewShader("fs", ShaderTypeFragment, shading.GPUShadingSource, tt.caps)
			require.NoError(t, err)

			assert.Equal(t, "vs_main", vs.EntryPoint())
			assert.Equal(t, "fs_main", fs.EntryPoint())
			assert.Empty(t, vs.VertexLayouts())
			assert.NotContains(t, vs.Source(), "@oxy:")
			assert.NotContains(t, fs.Source(), "@oxy:")

			assert.Equal(t, tt.vertex0, bindings(vs, 0))
			assert.Equal(t, []uint32{2}, bindings(fs, 0))
			assert.Equal(t, tt.frag1, bindings(fs, 1))
			_, ok := fs.BindGroupLayoutDescriptors()[2]
			assert.Equal(t, tt.hasGroup, ok)
			if tt.hasGroup {
				assert.Equal(t, tt.frag2, bindings(fs, 2))
			}
		})
	}
}

func TestVariantLayoutEntries(t *testing.T) {
	all := shading.Mask(shading.CapAmbient | shading.CapDiffuse | shading.CapSpecular)
	fs, err := NewShader("fs", ShaderTypeFragment, shading.GPUShadingSource, caps(all, true))
	require.NoError(t, err)

	entry := func(group int, binding uint32) wgpu.BindGroupLayoutEntry {
		for _, e := range fs.BindGroupLayoutDescriptor(group).Entries {
			if e.Binding == binding {
				return e
			}
		}
		t.Fatalf("no entry for group %d binding %d", group, binding)
		return wgpu.BindGroupLayoutEntry{}
	}

	normals := entry(0, 2)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, normals.Buffer.Type)
	assert.Equal(t, uint64(8), normals.Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageFragment, normals.Visibility)

	assert.Equal(t, uint64(112), entry(1, 0).Buffer.MinBindingSize)
	assert.Equal(t, uint64(144), entry(1, 1).Buffer.MinBindingSize)
	assert.Equal(t, uint64(64), entry(2, 0).Buffer.MinBindingSize)
	assert.Equal(t, uint64(32), entry(2, 5).Buffer.MinBindingSize)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entry(2, 5).Buffer.Type)

	tex := entry(2, 2)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, tex.Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, tex.Texture.ViewDimension)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, entry(2, 4).Sampler.Type)

	assert.Equal(t, "camera", fs.BindGroupVarName(1, 1))
	b, ok := fs.BindGroupFromVarName(2, "diffuse_texture")
	assert.True(t, ok)
	assert.Equal(t, 2, b)

	var roles []AnnotationArg
	for _, d := range fs.Declarations() {
		if d.Type == AnnotationTypeProvider {
			roles = append(roles, d.Args[1])
		}
	}
	assert.Equal(t, []AnnotationArg{AnnotationArgAmbientTexture, AnnotationArgDiffuseTexture, AnnotationArgSpecularTexture, AnnotationArgTextureSampler}, roles)
}

func TestNewVariantsSharesCanonicalShaders(t *testing.T) {
	variants, err := NewVariants("blinn", shading.GPUVertexSource, shading.GPUShadingSource, true)
	require.NoError(t, err)
	require.Len(t, variants, 16)

	normalsOnly := variants[shading.Mask(shading.CapNormalsOnly)]
	for mask, v := range variants {
		if mask.Has(shading.CapNormalsOnly) {
			assert.Same(t, normalsOnly, v, mask.String())
		}
	}
	assert.Equal(t, Capabilities{}, variants[0].Capabilities)
	assert.NotSame(t, variants[shading.Mask(shading.CapAmbient)], variants[shading.Mask(shading.CapDiffuse)])
}

func TestVertexLayoutsFromInputStruct(t *testing.T) {
	src := `
struct VertexInput {
    @location(0) position: vec3f,
    @location(1) uv: vec2f,
}
@vertex
fn main(in: VertexInput) -> @builtin(position) vec4f { return vec4f(in.position, 1.0); }
`
	vs, err := NewShader("plain", ShaderTypeVertex, src, Capabilities{})
	require.NoError(t, err)
	require.Len(t, vs.VertexLayouts(), 1)
	vbl := vs.VertexLayouts()[0][0]
	assert.Equal(t, uint64(20), vbl.ArrayStride)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, vbl.Attributes[1].Format)
	assert.Equal(t, uint64(12), vbl.Attributes[1].Offset)
}

func TestNewShaderWithoutEntryPoint(t *testing.T) {
	_, err := NewShader("empty", ShaderTypeFragment, "fn f() {}", Capabilities{})
	assert.ErrorIs(t, err, ErrNoEntryPoint)
}

func TestCompileVariants(t *testing.T) {
	variants, err := NewVariants("blinn", shading.GPUVertexSource, shading.GPUShadingSource, true)
	require.NoError(t, err)

	for _, mask := range shading.AllMasks() {
		v := variants[mask]
		for _, s := range []Shader{v.Vertex, v.Fragment} {
			words, err := s.Compile()
			if err != nil {
				// naga does not cover all of WGSL yet
				t.Skipf("naga cannot compile %s: %v", s.Key(), err)
			}
			require.NotEmpty(t, words)
			assert.Equal(t, uint32(0x07230203), words[0], s.Key())
		}
	}
}

func TestClassifyResource(t *testing.T) {
	tests := []struct {
		name, space, typeName string
		check                 func(t *testing.T, e wgpu.BindGroupLayoutEntry)
	}{
		{"uniform", "uniform", "Material", func(t *testing.T, e wgpu.BindGroupLayoutEntry) {
			assert.Equal(t, wgpu.BufferBindingTypeUniform, e.Buffer.Type)
		}},
		{"read storage", "storage, read", "array<TriNormals>", func(t *testing.T, e wgpu.BindGroupLayoutEntry) {
			assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, e.Buffer.Type)
		}},
		{"read write storage", "storage, read_write", "array<u32>", func(t *testing.T, e wgpu.BindGroupLayoutEntry) {
			assert.Equal(t, wgpu.BufferBindingTypeStorage, e.Buffer.Type)
		}},
		{"sampler", "", "sampler", func(t *testing.T, e wgpu.BindGroupLayoutEntry) {
			assert.Equal(t, wgpu.SamplerBindingTypeFiltering, e.Sampler.Type)
		}},
		{"texture", "", "texture_2d<f32>", func(t *testing.T, e wgpu.BindGroupLayoutEntry) {
			assert.Equal(t, wgpu.TextureSampleTypeFloat, e.Texture.SampleType)
			assert.Equal(t, wgpu.TextureViewDimension2D, e.Texture.ViewDimension)
			assert.False(t, e.Texture.Multisampled)
		}},
		{"depth cube", "", "texture_depth_cube", func(t *testing.T, e wgpu.BindGroupLayoutEntry) {
			assert.Equal(t, wgpu.TextureSampleTypeDepth, e.Texture.SampleType)
			assert.Equal(t, wgpu.TextureViewDimensionCube, e.Texture.ViewDimension)
		}},
		{"multisampled", "", "texture_multisampled_2d<u32>", func(t *testing.T, e wgpu.BindGroupLayoutEntry) {
			assert.Equal(t, wgpu.TextureSampleTypeUint, e.Texture.SampleType)
			assert.True(t, e.Texture.Multisampled)
		}},
		{"storage texture", "", "texture_storage_2d<rgba8unorm, write>", func(t *testing.T, e wgpu.BindGroupLayoutEntry) {
			assert.Equal(t, wgpu.TextureSampleTypeUndefined, e.Texture.SampleType)
			assert.Equal(t, wgpu.BufferBindingTypeUndefined, e.Buffer.Type)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := classifyResource(3, wgpu.ShaderStageFragment, tt.space, tt.typeName)
			assert.Equal(t, uint32(3), e.Binding)
			assert.Equal(t, wgpu.ShaderStageFragment, e.Visibility)
			tt.check(t, e)
		})
	}
}

func TestVertexFormat(t *testing.T) {
	tests := []struct {
		typeName string
		format   wgpu.VertexFormat
		size     uint64
		ok       bool
	}{
		{"f32", wgpu.VertexFormatFloat32, 4, true},
		{"vec3f", wgpu.VertexFormatFloat32x3, 12, true},
		{"vec2<u32>", wgpu.VertexFormatUint32x2, 8, true},
		{"vec4i", wgpu.VertexFormatSint32x4, 16, true},
		{"mat4x4f", wgpu.VertexFormatUndefined, 0, false},
		{"vec3h", wgpu.VertexFormatUndefined, 0, false},
	}
	for _, tt := range tests {
		format, size, ok := vertexFormat(tt.typeName)
		assert.Equal(t, tt.ok, ok, tt.typeName)
		assert.Equal(t, tt.format, format, tt.typeName)
		assert.Equal(t, tt.size, size, tt.typeName)
	}
}
