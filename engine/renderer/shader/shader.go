package shader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"

	"github.com/Carmen-Shannon/oxy-shade/engine/shading"
)

// ShaderType identifies the render stage a shader serves.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// ErrNoEntryPoint reports a specialized source without an entry point for its stage.
var ErrNoEntryPoint = errors.New("shader has no entry point")

// shader is the implementation of the Shader interface.
// It holds all of the persistent shader data required for pipeline creation and material binding.
type shader struct {
	key                        string
	source                     string
	shaderType                 ShaderType
	caps                       Capabilities
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	vertexLayouts              map[int][]wgpu.VertexBufferLayout
	entryPoint                 string
	module                     *wgpu.ShaderModuleDescriptor
	declarations               []Annotation
}

// Shader defines the interface for one specialized and parsed WGSL shader. It exposes the
// shader's key, processed source, entry point, bind group layout descriptors, vertex buffer
// layouts and pre-processor declarations needed for pipeline creation and resource wiring.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the pre-processed WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// Capabilities retrieves the canonical capabilities this shader was specialized for.
	//
	// Returns:
	//   - Capabilities: the capabilities
	Capabilities() Capabilities

	// BindGroupLayoutDescriptor retrieves the bind group layout descriptor for a specific group.
	//
	// Parameters:
	//   - bindingKey: the group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor for the group, or an empty descriptor if not set
	BindGroupLayoutDescriptor(bindingKey int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all parsed bind group layout descriptors.
	// These are the CPU-side descriptors extracted from the shader source which the
	// pipeline set merges across stages to create the wgpu.BindGroupLayout GPU objects.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name for a given group and binding index, if it exists.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name associated with the group and binding, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName retrieves the binding index for a given group and variable name, if it exists.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the variable name within the group
	//
	// Returns:
	//   - int: the binding index associated with the variable name, or -1 if not found
	//   - bool: true if the variable name was found, false otherwise
	BindGroupFromVarName(group int, varName string) (int, bool)

	// BindGroupVarNames retrieves all variable names for all bind groups.
	//
	// Returns:
	//   - map[int]map[int]string: variable names keyed by group and binding index
	BindGroupVarNames() map[int]map[int]string

	// VertexLayouts retrieves the vertex buffer layouts parsed from vertex input structs.
	// The vertex-pulling shaders in this module have none.
	//
	// Returns:
	//   - map[int][]wgpu.VertexBufferLayout: a map of keys to their corresponding vertex buffer layouts
	VertexLayouts() map[int][]wgpu.VertexBufferLayout

	// EntryPoint returns the entry point name for this shader.
	//
	// Returns:
	//   - string: the entry point name (e.g. "fs_main")
	EntryPoint() string

	// Module returns the wgpu.ShaderModuleDescriptor for this shader.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// ShaderType returns the stage of the shader.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// Declarations returns the group and provider annotations kept by specialization.
	//
	// Returns:
	//   - []Annotation: the declarations in source order
	Declarations() []Annotation

	// Compile translates the processed WGSL to SPIR-V words, for backends that take SPIR-V
	// and for offline validation.
	//
	// Returns:
	//   - []uint32: the SPIR-V module
	//   - error: the compiler error, if any
	Compile() ([]uint32, error)
}

var _ Shader = &shader{}

// NewShader specializes an annotated WGSL source and parses the result. The capabilities
// are canonicalized first, so equivalent requests produce identical shaders.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the stage, used for entry point lookup and binding visibility
//   - source: the annotated WGSL source
//   - caps: the capabilities to specialize for
//
// Returns:
//   - Shader: the specialized shader
//   - error: a pre-processing error, or ErrNoEntryPoint
func NewShader(key string, shaderType ShaderType, source string, caps Capabilities) (Shader, error) {
	s := &shader{
		key:        key,
		shaderType: shaderType,
		caps:       caps.Canonical(),
	}
	if err := s.parseSource(source); err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	return s, nil
}

// NewShaderFromPath reads an annotated WGSL file and specializes it like NewShader.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage
//   - sourcePath: the file path to read WGSL source from
//   - caps: the capabilities to specialize for
//
// Returns:
//   - Shader: the specialized shader
//   - error: a read or pre-processing error
func NewShaderFromPath(key string, shaderType ShaderType, sourcePath string, caps Capabilities) (Shader, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("shader %s: failed to read source file %q: %w", key, sourcePath, err)
	}
	return NewShader(key, shaderType, string(data), caps)
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Capabilities() Capabilities {
	return s.caps
}

func (s *shader) VertexLayouts() map[int][]wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) BindGroupLayoutDescriptor(bindingKey int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[bindingKey]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if s.bindingVarNames[group] == nil {
		return ""
	}
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	if s.bindingVarNames[group] == nil {
		return -1, false
	}
	for binding, name := range s.bindingVarNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) BindGroupVarNames() map[int]map[int]string {
	return s.bindingVarNames
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}

func (s *shader) Compile() ([]uint32, error) {
	spirv, err := naga.Compile(s.source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: compile: %w", s.key, err)
	}
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirv[i*4:])
	}
	return words, nil
}

// parseSource specializes the source, builds the shader module descriptor, parses the
// entry point name and extracts the bind group layouts visible to this stage.
func (s *shader) parseSource(raw string) error {
	pp := NewPreProcessor()
	processed, err := pp.Process(raw, s.caps)
	if err != nil {
		return fmt.Errorf("failed to pre-process %s source for %s: %w", s.shaderType, s.caps, err)
	}
	s.source = processed
	s.declarations = slices.Clone(pp.Declarations())
	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
	s.entryPoint = parseEntryPoint(s.source, s.shaderType)
	if s.entryPoint == "" {
		return fmt.Errorf("%w: no @%s function", ErrNoEntryPoint, s.shaderType)
	}
	s.vertexLayouts = make(map[int][]wgpu.VertexBufferLayout)
	if s.shaderType == ShaderTypeVertex {
		s.vertexLayouts = parseVertexLayouts(s.source)
	}

	var visibility wgpu.ShaderStage
	switch s.shaderType {
	case ShaderTypeVertex:
		visibility = wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		visibility = wgpu.ShaderStageFragment
	default:
		visibility = wgpu.ShaderStageNone
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(s.source, visibility)
	return nil
}

// Variant is one specialized vertex and fragment pair.
type Variant struct {
	Capabilities Capabilities
	Vertex       Shader
	Fragment     Shader
}

// NewVariants specializes a vertex and fragment source for every mask in AllMasks. Masks
// that canonicalize to the same capabilities share one Variant value.
//
// Parameters:
//   - key: the key prefix; each shader is keyed "<key>/<stage>/<capabilities>"
//   - vertexSource: the annotated vertex source
//   - fragmentSource: the annotated fragment source
//   - textured: whether the draws sample textures
//
// Returns:
//   - map[shading.Mask]*Variant: one entry per mask
//   - error: the first specialization error
func NewVariants(key, vertexSource, fragmentSource string, textured bool) (map[shading.Mask]*Variant, error) {
	out := make(map[shading.Mask]*Variant)
	byCaps := make(map[Capabilities]*Variant)
	for _, mask := range shading.AllMasks() {
		caps := Capabilities{Mask: mask, Textured: textured}.Canonical()
		if v, ok := byCaps[caps]; ok {
			out[mask] = v
			continue
		}
		vs, err := NewShader(fmt.Sprintf("%s/vertex/%s", key, caps), ShaderTypeVertex, vertexSource, caps)
		if err != nil {
			return nil, err
		}
		fs, err := NewShader(fmt.Sprintf("%s/fragment/%s", key, caps), ShaderTypeFragment, fragmentSource, caps)
		if err != nil {
			return nil, err
		}
		v := &Variant{Capabilities: caps, Vertex: vs, Fragment: fs}
		byCaps[caps] = v
		out[mask] = v
	}
	return out, nil
}
