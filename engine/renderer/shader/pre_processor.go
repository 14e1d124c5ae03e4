// pre_processor.go implements the Oxy WGSL shader pre-processor. It scans shader
// source code for @oxy: annotations, drops the capability blocks that do not apply,
// replaces the remaining annotations with generated WGSL declarations or injected
// sources, and collects a declarations list that the pipeline set uses to wire
// GPU resources to bind groups.
//
// The pre-processor maintains two registries:
//   - registry: maps AnnotationArg keys to embedded WGSL sources and, for struct keys,
//     the WGSL type name used in @oxy:group declarations.
//   - addressSpaceRegistry: maps address space argument keys to WGSL var<> syntax strings.
package shader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-shade/engine/camera"
	"github.com/Carmen-Shannon/oxy-shade/engine/interpolator"
	"github.com/Carmen-Shannon/oxy-shade/engine/model"
	"github.com/Carmen-Shannon/oxy-shade/engine/normal"
	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-shade/engine/shading"
)

// ErrUnbalancedBlock reports an @oxy:else or @oxy:endif without an open @oxy:if, or an
// @oxy:if that is never closed.
var ErrUnbalancedBlock = errors.New("unbalanced @oxy:if block")

// Capabilities selects one specialization of an annotated shader.
type Capabilities struct {
	// Mask holds the enabled shading terms.
	Mask shading.Mask

	// Textured selects texture sampling over the constant material colors.
	Textured bool
}

// Canonical drops the bits that cannot change the generated code. Normals-only output reads
// no material, so it clears the other terms and texturing; texturing without any color term
// samples nothing and is cleared as well.
//
// Returns:
//   - Capabilities: the canonical form
func (c Capabilities) Canonical() Capabilities {
	m := c.Mask.Effective()
	if m.Has(shading.CapNormalsOnly) {
		return Capabilities{Mask: shading.Mask(shading.CapNormalsOnly)}
	}
	colored := m.Has(shading.CapAmbient) || m.Has(shading.CapDiffuse) || m.Has(shading.CapSpecular)
	return Capabilities{Mask: m, Textured: c.Textured && colored}
}

func (c Capabilities) String() string {
	if c.Textured {
		return c.Mask.String() + "+textured"
	}
	return c.Mask.String()
}

// has reports whether a condition name holds. Names are capability names or "textured".
func (c Capabilities) has(name string) bool {
	if name == conditionTextured {
		return c.Textured
	}
	capability, err := shading.ParseCapability(name)
	if err != nil {
		return false
	}
	return c.Mask.Has(capability)
}

// registryEntry pairs a WGSL source string (embedded from a .wgsl asset file) with the
// WGSL type name used in generated @group/@binding declarations. Type is empty for sources
// that only define functions.
type registryEntry struct {
	// Source is the raw WGSL text injected by @oxy:include.
	Source string

	// Type is the WGSL type name emitted in @oxy:group declarations (e.g. "ModelSpace").
	Type string
}

// block is one open @oxy:if on the pre-processor's stack.
type block struct {
	line         int
	parentActive bool
	holds        bool
	inElse       bool
}

func (b block) active() bool {
	if b.inElse {
		return b.parentActive && !b.holds
	}
	return b.parentActive && b.holds
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// registry maps registry keys to their embedded WGSL source and type name.
	registry map[AnnotationArg]registryEntry

	// addressSpaceRegistry maps address space argument keys to WGSL var<> syntax strings.
	addressSpaceRegistry map[AnnotationArg]string

	// declarations accumulates the active AnnotationTypeBindingGroup and AnnotationTypeProvider
	// annotations during a Process call. Reset at the start of each Process invocation.
	declarations []Annotation
}

// PreProcessor processes raw WGSL shader source code containing @oxy: annotations for one
// set of capabilities, replacing them with generated declarations or injected sources while
// collecting a declarations list for downstream resource wiring.
type PreProcessor interface {
	// Process specializes the annotated source for caps. Lines inside blocks whose condition
	// fails are dropped along with their annotations. @oxy:include annotations are replaced
	// with the registered source, each source at most once. @oxy:group annotations become
	// @group/@binding variable declarations. @oxy:provider annotations produce no WGSL
	// output but are recorded in the declarations list.
	//
	// Capabilities are used as given; callers wanting one variant per distinct output pass
	// caps.Canonical().
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations to be processed
	//   - caps: the capabilities to specialize for
	//
	// Returns:
	//   - string: the processed WGSL shader source code with annotations replaced
	//   - error: an error if any annotation is malformed, references an unknown key or
	//     capability, a block is unbalanced, or two active declarations share a binding
	Process(source string, caps Capabilities) (string, error)

	// Declarations returns the AnnotationTypeBindingGroup and AnnotationTypeProvider
	// annotations kept by the most recent call to Process, in source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor with all registered sources and address space
// mappings pre-populated.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		registry: map[AnnotationArg]registryEntry{
			AnnotationArgTriNormals:        {Source: normal.GPUTriNormalsSource, Type: "TriNormals"},
			AnnotationArgIndexedTriNormals: {Source: normal.GPUTriNormalsSource, Type: "IndexedTriNormals"},
			annotationArgOctNormal:         {Source: normal.GPUTriNormalsSource, Type: "OctNormal"},
			annotationArgTriNormalsDecode:  {Source: normal.GPUTriNormalsDecodeSource},
			annotationArgInterpolate:       {Source: interpolator.GPUInterpolateSource},
			AnnotationArgModelSpace:        {Source: model.GPUModelSpaceSource, Type: "ModelSpace"},
			AnnotationArgProjectedSpace:    {Source: camera.GPUProjectedSpaceSource, Type: "ProjectedSpace"},
			AnnotationArgMaterialParams:    {Source: material.GPUMaterialParamsSource, Type: "MaterialParams"},
			AnnotationArgShadingParams:     {Source: shading.GPUShadingParamsSource, Type: "ShadingParams"},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform:   "var<uniform>",
			annotationArgStorageTypeRead:      "var<storage, read>",
			annotationArgStorageTypeReadWrite: "var<storage, read_write>",
		},
	}
}

func (p *preProcessor) Process(source string, caps Capabilities) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	var stack []block
	included := make(map[string]bool)
	bound := make(map[[2]int]int)

	active := func() bool {
		return len(stack) == 0 || stack[len(stack)-1].active()
	}

	for i, line := range lines {
		lineNum := i + 1
		a, err := parseAnnotation(line, lineNum)
		if err != nil {
			return "", err
		}

		if a != nil {
			switch a.Type {
			case annotationTypeIf:
				stack = append(stack, block{line: lineNum, parentActive: active(), holds: a.cond.holds(caps)})
				continue
			case annotationTypeElse:
				if len(stack) == 0 {
					return "", fmt.Errorf("line %d: @oxy:else without @oxy:if: %w", lineNum, ErrUnbalancedBlock)
				}
				top := &stack[len(stack)-1]
				if top.inElse {
					return "", fmt.Errorf("line %d: second @oxy:else for the block opened on line %d: %w", lineNum, top.line, ErrUnbalancedBlock)
				}
				top.inElse = true
				continue
			case annotationTypeEndif:
				if len(stack) == 0 {
					return "", fmt.Errorf("line %d: @oxy:endif without @oxy:if: %w", lineNum, ErrUnbalancedBlock)
				}
				stack = stack[:len(stack)-1]
				continue
			}
		}

		if !active() {
			continue
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			entry, ok := p.registry[a.Args[0]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:include argument %q", lineNum, a.Args[0])
			}
			if included[entry.Source] {
				continue
			}
			included[entry.Source] = true
			out = append(out, entry.Source)
		case AnnotationTypeBindingGroup:
			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			varName := string(a.Args[1])
			key := string(a.Args[2])
			inner, isArray := strings.CutPrefix(key, "array<")
			if isArray {
				key = strings.TrimSuffix(inner, ">")
			}
			entry := p.registry[AnnotationArg(key)]
			if entry.Type == "" {
				return "", fmt.Errorf("line %d: @oxy:group type %q names no struct", lineNum, key)
			}
			wgslType := entry.Type
			if isArray {
				wgslType = fmt.Sprintf("array<%s>", entry.Type)
			}
			if err := p.claim(bound, *a); err != nil {
				return "", err
			}
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addrSpace, varName, wgslType))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeProvider:
			if err := p.claim(bound, *a); err != nil {
				return "", err
			}
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", lineNum, a.Type)
		}
	}

	if len(stack) > 0 {
		return "", fmt.Errorf("@oxy:if opened on line %d is never closed: %w", stack[len(stack)-1].line, ErrUnbalancedBlock)
	}
	return strings.Join(out, "\n"), nil
}

// claim records a group and binding pair, failing if an earlier active declaration used it.
func (p *preProcessor) claim(bound map[[2]int]int, a Annotation) error {
	key := [2]int{*a.Group, *a.Binding}
	if prev, ok := bound[key]; ok {
		return fmt.Errorf("line %d: @group(%d) @binding(%d) already declared on line %d", a.Line, key[0], key[1], prev)
	}
	bound[key] = a.Line
	return nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
