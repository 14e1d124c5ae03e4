// annotations.go defines the annotation types, argument constants, and parser for the
// Oxy WGSL shader pre-processor. Annotations are single-line WGSL comments prefixed
// with @oxy: that drive struct injection, bind group declaration, resource provider
// registration and capability specialization. The parsed results are stored as
// Annotation values and consumed by the PreProcessor and the pipeline set.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-shade/engine/shading"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source registered under a key. Each source is
	// injected at most once per Process call, so keys sharing a file may all be included.
	//
	// Syntax: //@oxy:include <key>
	//
	// Example: //@oxy:include model_space
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a WGSL @group/@binding variable declaration
	// and appends an Annotation to the PreProcessor's declarations list.
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@oxy:group 1 0 storage_uniform model_space model_space
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeProvider registers a resource provider identity for a group and binding
	// without generating any WGSL output. The WGSL binding declaration stays hand-written
	// directly below the annotation. This is used for textures, samplers and flat arrays of
	// primitives, which have no registered struct.
	//
	// Syntax:
	//   //@oxy:provider <group> <binding> <provider_identity>
	//   //@oxy:provider <group> <binding> <provider_identity> <binding_role>
	//
	// Example: //@oxy:provider 2 2 material diffuse_texture
	AnnotationTypeProvider AnnotationType = "provider"

	// annotationTypeIf opens a block that is kept only when its condition holds for the
	// capabilities being processed. A condition is one or more capability names joined by
	// '|' (any of), optionally negated by a leading '!'. Blocks nest.
	//
	// Syntax: //@oxy:if [!]<capability>[|<capability>...]
	//
	// Example: //@oxy:if diffuse|specular
	annotationTypeIf AnnotationType = "if"

	// annotationTypeElse flips the innermost open block.
	annotationTypeElse AnnotationType = "else"

	// annotationTypeEndif closes the innermost open block.
	annotationTypeEndif AnnotationType = "endif"
)

// Annotation represents a single parsed @oxy: annotation from a WGSL shader source line.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include:  [0] = registry key (e.g. "model_space")
	//   - group:    [0] = address space, [1] = var name, [2] = WGSL type key
	//   - provider: [0] = provider identity, [1] = binding role (optional)
	//   - if:       [0] = the condition as written
	Args []AnnotationArg

	// Line is the 1-based line number in the original WGSL source, used for error reporting.
	Line int

	// Group is the @group index for group and provider annotations. Nil otherwise.
	Group *int

	// Binding is the @binding index for group and provider annotations. Nil otherwise.
	Binding *int

	cond *condition
}

// AnnotationArg is a typed string constant used as an argument in annotations.
type AnnotationArg string

// ── Registry key arguments ─────────────────────────────────────────────────────
// These identify registered WGSL sources. They appear in @oxy:include annotations and,
// for keys that name a struct, as the type field of @oxy:group (optionally wrapped in array<>).

const (
	// AnnotationArgTriNormals identifies the compressed TriNormals record.
	// Source: engine/normal/assets/tri_normals.wgsl
	AnnotationArgTriNormals AnnotationArg = "tri_normals"

	// AnnotationArgIndexedTriNormals identifies the IndexedTriNormals record.
	// Source: engine/normal/assets/tri_normals.wgsl
	AnnotationArgIndexedTriNormals AnnotationArg = "indexed_tri_normals"

	// annotationArgOctNormal identifies the single-normal OctNormal record.
	// Source: engine/normal/assets/tri_normals.wgsl
	annotationArgOctNormal AnnotationArg = "oct_normal"

	// annotationArgTriNormalsDecode identifies the decode functions. It names no struct.
	// Source: engine/normal/assets/tri_normals_decode.wgsl
	annotationArgTriNormalsDecode AnnotationArg = "tri_normals_decode"

	// annotationArgInterpolate identifies the normal interpolation functions. It names no struct.
	// Source: engine/interpolator/assets/interpolate.wgsl
	annotationArgInterpolate AnnotationArg = "interpolate"

	// AnnotationArgModelSpace identifies the per-instance ModelSpace uniform.
	// Source: engine/model/assets/model_space.wgsl
	AnnotationArgModelSpace AnnotationArg = "model_space"

	// AnnotationArgProjectedSpace identifies the per-view ProjectedSpace uniform.
	// Source: engine/camera/assets/projected_space.wgsl
	AnnotationArgProjectedSpace AnnotationArg = "projected_space"

	// AnnotationArgMaterialParams identifies the MaterialParams uniform.
	// Source: engine/renderer/material/assets/material_params.wgsl
	AnnotationArgMaterialParams AnnotationArg = "material_params"

	// AnnotationArgShadingParams identifies the ShadingParams uniform.
	// Source: engine/shading/assets/shading_params.wgsl
	AnnotationArgShadingParams AnnotationArg = "shading_params"
)

// ── Address space arguments ────────────────────────────────────────────────────
// These specify the WGSL variable address space in @oxy:group annotations.

const (
	// annotationArgStorageTypeUniform maps to var<uniform> in WGSL.
	annotationArgStorageTypeUniform AnnotationArg = "storage_uniform"

	// annotationArgStorageTypeRead maps to var<storage, read> in WGSL.
	annotationArgStorageTypeRead AnnotationArg = "storage_read"

	// annotationArgStorageTypeReadWrite maps to var<storage, read_write> in WGSL.
	annotationArgStorageTypeReadWrite AnnotationArg = "storage_read_write"
)

// ── Provider identity arguments ────────────────────────────────────────────────
// These identify which host-side owner fills a hand-written binding.

const (
	// AnnotationArgGeometry identifies the mesh buffers (indices, positions, texture coordinates).
	AnnotationArgGeometry AnnotationArg = "geometry"

	// AnnotationArgMaterial identifies the material textures and sampler.
	AnnotationArgMaterial AnnotationArg = "material"
)

// ── Binding role arguments ─────────────────────────────────────────────────────
// These qualify individual bindings within a provider group, so the host resolves binding
// indices from declarations instead of variable names.

const (
	// AnnotationArgIndices identifies the triangle index buffer.
	AnnotationArgIndices AnnotationArg = "indices"

	// AnnotationArgPositions identifies the flat position buffer.
	AnnotationArgPositions AnnotationArg = "positions"

	// AnnotationArgNormals identifies an uncompressed flat normal buffer.
	AnnotationArgNormals AnnotationArg = "normals"

	// AnnotationArgTexCoords identifies the flat texture coordinate buffer.
	AnnotationArgTexCoords AnnotationArg = "tex_coords"

	// AnnotationArgAmbientTexture identifies the ambient color texture.
	AnnotationArgAmbientTexture AnnotationArg = "ambient_texture"

	// AnnotationArgDiffuseTexture identifies the diffuse color texture.
	AnnotationArgDiffuseTexture AnnotationArg = "diffuse_texture"

	// AnnotationArgSpecularTexture identifies the specular color texture.
	AnnotationArgSpecularTexture AnnotationArg = "specular_texture"

	// AnnotationArgTextureSampler identifies the sampler shared by the material textures.
	AnnotationArgTextureSampler AnnotationArg = "texture_sampler"
)

// conditionTextured is the pseudo-capability that holds when the draw samples textures.
const conditionTextured = "textured"

// validRegistryKeys lists every key accepted by @oxy:include. Each entry must have a
// corresponding registryEntry in the PreProcessor's registry.
var validRegistryKeys = []AnnotationArg{
	AnnotationArgTriNormals,
	AnnotationArgIndexedTriNormals,
	annotationArgOctNormal,
	annotationArgTriNormalsDecode,
	annotationArgInterpolate,
	AnnotationArgModelSpace,
	AnnotationArgProjectedSpace,
	AnnotationArgMaterialParams,
	AnnotationArgShadingParams,
}

// validAddressSpaces lists the address space arguments accepted in @oxy:group annotations.
var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeRead,
	annotationArgStorageTypeReadWrite,
}

// validProviderIdentities lists the identities accepted in @oxy:provider annotations.
var validProviderIdentities = []AnnotationArg{
	AnnotationArgGeometry,
	AnnotationArgMaterial,
}

// validBindingRoles lists the roles accepted as the optional fourth provider argument.
var validBindingRoles = []AnnotationArg{
	AnnotationArgIndices,
	AnnotationArgPositions,
	AnnotationArgNormals,
	AnnotationArgTexCoords,
	AnnotationArgAmbientTexture,
	AnnotationArgDiffuseTexture,
	AnnotationArgSpecularTexture,
	AnnotationArgTextureSampler,
}

// condition is a parsed @oxy:if expression.
type condition struct {
	negate bool
	names  []string
}

// holds reports whether the condition is true for caps.
func (c condition) holds(caps Capabilities) bool {
	hit := slices.ContainsFunc(c.names, caps.has)
	return hit != c.negate
}

// parseCondition validates an @oxy:if expression against the known capability names.
//
// Parameters:
//   - expr: the expression, e.g. "!normals_only" or "diffuse|specular"
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - condition: the parsed condition
//   - error: an error wrapping shading.ErrUnknownCapability for an unknown name
func parseCondition(expr string, lineNum int) (condition, error) {
	var c condition
	if rest, ok := strings.CutPrefix(expr, "!"); ok {
		c.negate = true
		expr = rest
	}
	for name := range strings.SplitSeq(expr, "|") {
		if name == conditionTextured {
			c.names = append(c.names, name)
			continue
		}
		capability, err := shading.ParseCapability(name)
		if err != nil {
			return condition{}, fmt.Errorf("line %d: @oxy if annotation: %w", lineNum, err)
		}
		c.names = append(c.names, capability.String())
	}
	return c, nil
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix. Returns
// a populated Annotation for valid annotations, or an error describing the problem for
// malformed annotations with correct prefix but invalid syntax or unknown arguments.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch args[0] {
	case string(annotationTypeInclude):
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validRegistryKeys, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown key %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case string(AnnotationTypeBindingGroup):
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @oxy group annotation requires exactly five arguments (group, binding, address space, var name, type)", lineNum)
		}
		groupInt, bindingInt, err := parseGroupBinding(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @oxy group annotation", lineNum, args[3])
		}
		typeKey := args[5]
		if inner, ok := strings.CutPrefix(typeKey, "array<"); ok {
			typeKey = strings.TrimSuffix(inner, ">")
		}
		if !slices.Contains(validRegistryKeys, AnnotationArg(typeKey)) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy group annotation", lineNum, typeKey)
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &groupInt,
			Binding: &bindingInt,
		}, nil
	case string(AnnotationTypeProvider):
		if len(args) < 4 || len(args) > 5 {
			return nil, fmt.Errorf("line %d: @oxy provider annotation requires three or four arguments (group, binding, provider identity[, binding role])", lineNum)
		}
		groupInt, bindingInt, err := parseGroupBinding(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validProviderIdentities, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown provider identity %q in @oxy provider annotation", lineNum, args[3])
		}
		providerArgs := []AnnotationArg{AnnotationArg(args[3])}
		if len(args) == 5 {
			if !slices.Contains(validBindingRoles, AnnotationArg(args[4])) {
				return nil, fmt.Errorf("line %d: unknown binding role %q in @oxy provider annotation", lineNum, args[4])
			}
			providerArgs = append(providerArgs, AnnotationArg(args[4]))
		}
		return &Annotation{
			Type:    AnnotationTypeProvider,
			Args:    providerArgs,
			Line:    lineNum,
			Group:   &groupInt,
			Binding: &bindingInt,
		}, nil
	case string(annotationTypeIf):
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy if annotation requires exactly one condition", lineNum)
		}
		c, err := parseCondition(args[1], lineNum)
		if err != nil {
			return nil, err
		}
		return &Annotation{
			Type: annotationTypeIf,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
			cond: &c,
		}, nil
	case string(annotationTypeElse), string(annotationTypeEndif):
		if len(args) != 1 {
			return nil, fmt.Errorf("line %d: @oxy %s annotation takes no arguments", lineNum, args[0])
		}
		return &Annotation{Type: AnnotationType(args[0]), Line: lineNum}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}

func parseGroupBinding(group, binding string, lineNum int) (int, int, error) {
	groupInt, err := strconv.Atoi(group)
	if err != nil {
		return 0, 0, fmt.Errorf("line %d: invalid group number %q: %v", lineNum, group, err)
	}
	bindingInt, err := strconv.Atoi(binding)
	if err != nil {
		return 0, 0, fmt.Errorf("line %d: invalid binding number %q: %v", lineNum, binding, err)
	}
	return groupInt, bindingInt, nil
}
