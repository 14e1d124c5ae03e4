package shader

import (
	"strings"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
)

// textureDimensions maps the dimension suffix of a texture type to its view dimension.
var textureDimensions = map[string]wgpu.TextureViewDimension{
	"1d":         wgpu.TextureViewDimension1D,
	"2d":         wgpu.TextureViewDimension2D,
	"2d_array":   wgpu.TextureViewDimension2DArray,
	"3d":         wgpu.TextureViewDimension3D,
	"cube":       wgpu.TextureViewDimensionCube,
	"cube_array": wgpu.TextureViewDimensionCubeArray,
}

// sampleTypes maps the texel scalar of a sampled texture to its sample type.
var sampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

// vertexFormats holds the formats for one to four components of each scalar.
var vertexFormats = map[string][4]wgpu.VertexFormat{
	"f32": {wgpu.VertexFormatFloat32, wgpu.VertexFormatFloat32x2, wgpu.VertexFormatFloat32x3, wgpu.VertexFormatFloat32x4},
	"i32": {wgpu.VertexFormatSint32, wgpu.VertexFormatSint32x2, wgpu.VertexFormatSint32x3, wgpu.VertexFormatSint32x4},
	"u32": {wgpu.VertexFormatUint32, wgpu.VertexFormatUint32x2, wgpu.VertexFormatUint32x3, wgpu.VertexFormatUint32x4},
}

// scalarShorthand maps the vecNx suffix letter to its scalar.
var scalarShorthand = map[byte]string{'f': "f32", 'i': "i32", 'u': "u32"}

// classifyResource builds the layout entry for one resource declaration. Address-spaced
// variables are buffers; handle variables are samplers or sampled textures. Storage
// textures are left unclassified so the layout check rejects them.
//
// Parameters:
//   - binding: the @binding index
//   - visibility: the declaring stage
//   - addressSpace: e.g. "uniform" or "storage, read", empty for handles
//   - typeName: the declared type
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the entry
func classifyResource(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	e := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}

	switch {
	case addressSpace == "uniform":
		e.Buffer.Type = wgpu.BufferBindingTypeUniform
	case strings.HasPrefix(addressSpace, "storage"):
		e.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if strings.Contains(addressSpace, "read_write") {
			e.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
	case addressSpace != "":
		// private and workgroup variables bind nothing
	case typeName == "sampler":
		e.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case typeName == "sampler_comparison":
		e.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(typeName, "texture_storage_"):
	case strings.HasPrefix(typeName, "texture_"):
		classifyTexture(typeName, &e)
	}
	return e
}

// classifyTexture fills the texture fields for sampled, depth and multisampled textures,
// such as texture_2d<f32>, texture_depth_cube or texture_multisampled_2d<f32>.
func classifyTexture(typeName string, e *wgpu.BindGroupLayoutEntry) {
	base, param := splitTypeParams(typeName)
	dim := strings.TrimPrefix(base, "texture_")

	if d, ok := strings.CutPrefix(dim, "depth_"); ok {
		dim = d
		e.Texture.SampleType = wgpu.TextureSampleTypeDepth
	} else if st, ok := sampleTypes[param]; ok {
		e.Texture.SampleType = st
	}
	if d, ok := strings.CutPrefix(dim, "multisampled_"); ok {
		dim = d
		e.Texture.Multisampled = true
	}
	e.Texture.ViewDimension = textureDimensions[dim]
}

// splitTypeParams splits "texture_2d<f32>" into ("texture_2d", "f32"). A type without
// parameters returns an empty parameter string.
func splitTypeParams(typeName string) (string, string) {
	base, params, ok := strings.Cut(typeName, "<")
	if !ok {
		return typeName, ""
	}
	return base, strings.TrimSpace(strings.TrimSuffix(params, ">"))
}

// vertexFormat resolves a scalar or vector type, in either long or shorthand spelling, to
// its vertex format and byte size.
//
// Parameters:
//   - typeName: e.g. "f32", "vec3f" or "vec2<u32>"
//
// Returns:
//   - wgpu.VertexFormat: the format
//   - uint64: the attribute size in bytes
//   - bool: false when the type cannot be a vertex attribute
func vertexFormat(typeName string) (wgpu.VertexFormat, uint64, bool) {
	scalar, count := typeName, 1
	if strings.HasPrefix(typeName, "vec") && len(typeName) >= 5 {
		count = int(typeName[3] - '0')
		if _, param := splitTypeParams(typeName); param != "" {
			scalar = param
		} else {
			scalar = scalarShorthand[typeName[4]]
		}
	}
	formats, ok := vertexFormats[scalar]
	if !ok || count < 1 || count > 4 {
		return wgpu.VertexFormatUndefined, 0, false
	}
	return formats[count-1], uint64(4 * count), true
}

// isVertexInputStruct reports whether decl has a @location field and no @builtin field,
// which separates vertex inputs from stage outputs carrying @builtin(position).
func isVertexInputStruct(decl layout.StructDecl) bool {
	located := false
	for _, f := range decl.Fields {
		if f.Builtin {
			return false
		}
		located = located || f.Location >= 0
	}
	return located
}

// buildVertexBufferLayout packs the fields of a vertex input struct back to back.
func buildVertexBufferLayout(decl layout.StructDecl) (wgpu.VertexBufferLayout, bool) {
	attrs := make([]wgpu.VertexAttribute, 0, len(decl.Fields))
	var offset uint64
	for _, f := range decl.Fields {
		format, size, ok := vertexFormat(f.Type)
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         format,
			Offset:         offset,
			ShaderLocation: uint32(f.Location),
		})
		offset += size
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, true
}
