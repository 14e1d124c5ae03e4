package shader

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
)

var (
	// entryRegex captures the stage attribute and the name of each entry point.
	entryRegex = regexp.MustCompile(`(?s)@(vertex|fragment)\b.*?\bfn\s+(\w+)`)

	// resourceRegex captures group, binding, optional address space, variable name and type
	// from declarations like: @group(1) @binding(0) var<uniform> model_space: ModelSpace;
	// or handle types: @group(2) @binding(2) var diffuse_texture: texture_2d<f32>;
	resourceRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseEntryPoint returns the first entry point declared for shaderType, or "".
//
// Parameters:
//   - source: the WGSL source
//   - shaderType: ShaderTypeVertex or ShaderTypeFragment
//
// Returns:
//   - string: the entry point function name
func parseEntryPoint(source string, shaderType ShaderType) string {
	var stage string
	switch shaderType {
	case ShaderTypeVertex:
		stage = "vertex"
	case ShaderTypeFragment:
		stage = "fragment"
	default:
		return ""
	}
	for _, m := range entryRegex.FindAllStringSubmatch(layout.StripComments(source), -1) {
		if m[1] == stage {
			return m[2]
		}
	}
	return ""
}

// parseBindGroupLayouts turns every @group/@binding declaration into a layout entry visible
// to the declaring stage. Buffer entries get a MinBindingSize from the struct sizes in the
// same source; a runtime-sized array counts one element. Entries are sorted by binding.
//
// Parameters:
//   - source: the specialized WGSL source
//   - visibility: the declaring stage
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group
//   - map[int]map[int]string: variable names keyed by group and binding
func parseBindGroupLayouts(source string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	cleaned := layout.StripComments(source)
	structs := layout.ParseWGSLStructs(cleaned)

	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)
	for _, m := range resourceRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		space, name, typeName := strings.TrimSpace(m[3]), m[4], strings.TrimSpace(m[5])

		e := classifyResource(uint32(binding), visibility, space, typeName)
		if e.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if tl, ok := layout.ResolveWGSLType(typeName, structs); ok && tl.Size > 0 {
				e.Buffer.MinBindingSize = tl.Size
			}
		}
		entries[group] = append(entries[group], e)

		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][binding] = name
	}

	out := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for g, es := range entries {
		slices.SortFunc(es, func(a, b wgpu.BindGroupLayoutEntry) int {
			return int(a.Binding) - int(b.Binding)
		})
		out[g] = wgpu.BindGroupLayoutDescriptor{Entries: es}
	}
	return out, names
}

// parseVertexLayouts builds one vertex buffer layout per vertex input struct, meaning a
// struct with @location fields and no @builtin field. Pulling shaders declare none and get
// an empty map. A struct with a field that has no vertex format is skipped.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - map[int][]wgpu.VertexBufferLayout: layouts keyed by buffer slot
func parseVertexLayouts(source string) map[int][]wgpu.VertexBufferLayout {
	out := make(map[int][]wgpu.VertexBufferLayout)
	for _, decl := range layout.ParseWGSLStructDecls(source) {
		if !isVertexInputStruct(decl) {
			continue
		}
		if vbl, ok := buildVertexBufferLayout(decl); ok {
			out[len(out)] = []wgpu.VertexBufferLayout{vbl}
		}
	}
	return out
}
