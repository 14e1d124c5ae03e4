package layout

import (
	"regexp"
	"strconv"
	"strings"
)

// wgslPrimitiveLayoutMap maps WGSL scalar, vector and matrix type names to their byte
// size and alignment.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var wgslPrimitiveLayoutMap = map[string]TypeLayout{
	// Scalars
	"f32":  {4, 4},
	"i32":  {4, 4},
	"u32":  {4, 4},
	"f16":  {2, 2},
	"bool": {4, 4},

	// Vectors – f32
	"vec2<f32>": {8, 8},
	"vec2f":     {8, 8},
	"vec3<f32>": {12, 16},
	"vec3f":     {12, 16},
	"vec4<f32>": {16, 16},
	"vec4f":     {16, 16},

	// Vectors – i32
	"vec2<i32>": {8, 8},
	"vec2i":     {8, 8},
	"vec3<i32>": {12, 16},
	"vec3i":     {12, 16},
	"vec4<i32>": {16, 16},
	"vec4i":     {16, 16},

	// Vectors – u32
	"vec2<u32>": {8, 8},
	"vec2u":     {8, 8},
	"vec3<u32>": {12, 16},
	"vec3u":     {12, 16},
	"vec4<u32>": {16, 16},
	"vec4u":     {16, 16},

	// Vectors – f16
	"vec2<f16>": {4, 4},
	"vec2h":     {4, 4},
	"vec3<f16>": {6, 8},
	"vec3h":     {6, 8},
	"vec4<f16>": {8, 8},
	"vec4h":     {8, 8},

	// Matrices – matCxR<f32>: C columns of vecR<f32>, stride = roundUp(align(vecR), size(vecR))
	"mat2x2<f32>": {16, 8},
	"mat2x3<f32>": {32, 16},
	"mat2x4<f32>": {32, 16},
	"mat3x2<f32>": {24, 8},
	"mat3x3<f32>": {48, 16},
	"mat3x4<f32>": {48, 16},
	"mat4x2<f32>": {32, 8},
	"mat4x3<f32>": {64, 16},
	"mat4x4<f32>": {64, 16},
	"mat3x3f":     {48, 16},
	"mat4x4f":     {64, 16},

	// Atomic types
	"atomic<u32>": {4, 4},
	"atomic<i32>": {4, 4},
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field: optional attributes, name, colon, type.
	// The type capture is greedy to keep parameterized types like array<T, N> whole.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)
)

// TypeLayout holds the byte size and alignment of a type.
type TypeLayout struct {
	Size  uint64
	Align uint64
}

// FieldLayout describes one field of a struct on either side of the boundary.
type FieldLayout struct {
	Name   string
	Type   string
	Offset uint64
	Size   uint64
	Align  uint64

	// Location is the @location index of a WGSL field, or -1.
	Location int

	// Builtin marks a WGSL @builtin field, which takes no buffer space.
	Builtin bool

	// Runtime marks a trailing runtime-sized WGSL array. It has no fixed size.
	Runtime bool
}

// StructLayout is the computed layout of a struct.
type StructLayout struct {
	Name   string
	Size   uint64
	Align  uint64
	Fields []FieldLayout
}

// StructDecl is a struct declaration as written in WGSL source, before layout.
type StructDecl struct {
	Name   string
	Fields []FieldLayout
}

// ParseWGSLStructDecls finds every struct block in the source and parses its fields,
// including @location and @builtin attributes. Sizes and offsets are left zero.
//
// Parameters:
//   - source: WGSL source, comments allowed
//
// Returns:
//   - []StructDecl: the declarations in source order
func ParseWGSLStructDecls(source string) []StructDecl {
	cleaned := StripComments(source)
	matches := structBlockRegex.FindAllStringSubmatch(cleaned, -1)
	decls := make([]StructDecl, 0, len(matches))
	for _, match := range matches {
		decls = append(decls, StructDecl{
			Name:   match[1],
			Fields: parseStructFields(match[2]),
		})
	}
	return decls
}

// ParseWGSLStructs computes the layout of every struct in the source. Structs may reference
// each other in any order. Structs with unresolvable field types are omitted.
//
// Parameters:
//   - source: WGSL source, comments allowed
//
// Returns:
//   - map[string]StructLayout: layouts keyed by struct name
func ParseWGSLStructs(source string) map[string]StructLayout {
	return ComputeStructLayouts(ParseWGSLStructDecls(source))
}

// ComputeStructLayouts resolves layouts for a set of declarations iteratively, so a struct
// containing another struct resolves once its dependency has.
//
// Parameters:
//   - decls: the parsed declarations
//
// Returns:
//   - map[string]StructLayout: layouts keyed by struct name
func ComputeStructLayouts(decls []StructDecl) map[string]StructLayout {
	resolved := make(map[string]StructLayout, len(decls))
	remaining := make([]StructDecl, len(decls))
	copy(remaining, decls)

	for {
		progress := false
		next := remaining[:0]
		for _, d := range remaining {
			if l, ok := computeStructLayout(d, resolved); ok {
				resolved[d.Name] = l
				progress = true
			} else {
				next = append(next, d)
			}
		}
		remaining = next
		if !progress || len(remaining) == 0 {
			break
		}
	}
	return resolved
}

// ResolveWGSLType resolves a WGSL type name to its size and alignment using primitives and
// previously computed struct layouts. Fixed arrays (array<T, N>) resolve to N strides; a
// runtime-sized array (array<T>) resolves to one element stride.
//
// Parameters:
//   - typeName: the WGSL type, e.g. "f32", "ModelSpace", "array<array<f32, 3>, 4>"
//   - known: already resolved struct layouts
//
// Returns:
//   - TypeLayout: the resolved layout
//   - bool: false for unknown types
func ResolveWGSLType(typeName string, known map[string]StructLayout) (TypeLayout, bool) {
	typeName = strings.TrimSpace(typeName)
	if l, ok := wgslPrimitiveLayoutMap[typeName]; ok {
		return l, true
	}
	if s, ok := known[typeName]; ok {
		return TypeLayout{s.Size, s.Align}, true
	}

	elem, count, isArray, runtime := splitArrayType(typeName)
	if !isArray {
		return TypeLayout{}, false
	}
	el, ok := ResolveWGSLType(elem, known)
	if !ok {
		return TypeLayout{}, false
	}
	stride := roundUpAlign(el.Align, el.Size)
	if runtime {
		return TypeLayout{stride, el.Align}, true
	}
	return TypeLayout{count * stride, el.Align}, true
}

// computeStructLayout places each field at the next aligned offset and rounds the struct
// size up to its largest field alignment. A trailing runtime-sized array contributes its
// alignment but no size. @builtin fields are skipped.
func computeStructLayout(d StructDecl, known map[string]StructLayout) (StructLayout, bool) {
	offset := uint64(0)
	maxAlign := uint64(1)
	fields := make([]FieldLayout, 0, len(d.Fields))

	for _, f := range d.Fields {
		if f.Builtin {
			continue
		}
		fl, ok := ResolveWGSLType(f.Type, known)
		if !ok {
			return StructLayout{}, false
		}
		_, _, isArray, runtime := splitArrayType(f.Type)

		offset = roundUpAlign(fl.Align, offset)
		f.Offset = offset
		f.Align = fl.Align
		if isArray && runtime {
			f.Runtime = true
		} else {
			f.Size = fl.Size
			offset += fl.Size
		}
		fields = append(fields, f)

		if fl.Align > maxAlign {
			maxAlign = fl.Align
		}
	}

	return StructLayout{
		Name:   d.Name,
		Size:   roundUpAlign(maxAlign, offset),
		Align:  maxAlign,
		Fields: fields,
	}, true
}

// splitArrayType splits "array<T, N>" into (T, N) and "array<T>" into (T, runtime).
// Nested parameterized element types are handled by splitting at the last top-level comma.
func splitArrayType(typeName string) (elem string, count uint64, isArray, runtime bool) {
	if !strings.HasPrefix(typeName, "array<") || !strings.HasSuffix(typeName, ">") {
		return "", 0, false, false
	}
	inner := typeName[len("array<") : len(typeName)-1]
	parts := splitAtTopLevelCommas(inner)
	if len(parts) == 1 {
		return strings.TrimSpace(parts[0]), 0, true, true
	}
	countStr := strings.TrimSpace(parts[len(parts)-1])
	n, err := strconv.ParseUint(countStr, 10, 64)
	if err != nil {
		return "", 0, false, false
	}
	return strings.TrimSpace(strings.Join(parts[:len(parts)-1], ",")), n, true, false
}

// parseStructFields parses the body of a struct block into fields, extracting @location
// and @builtin attributes along with the field name and type.
func parseStructFields(body string) []FieldLayout {
	lines := splitAtTopLevelCommas(body)
	fields := make([]FieldLayout, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field := FieldLayout{Location: -1}
		if builtinRegex.MatchString(line) {
			field.Builtin = true
		}
		if m := locationRegex.FindStringSubmatch(line); m != nil {
			if loc, err := strconv.Atoi(m[1]); err == nil {
				field.Location = loc
			}
		}
		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field.Name = fm[1]
		field.Type = strings.TrimSpace(fm[2])
		fields = append(fields, field)
	}
	return fields
}

// splitAtTopLevelCommas splits a string at commas that are not nested inside angle brackets,
// so array<T, N> stays one piece.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// StripComments removes both line (//) and block (/* */) comments from WGSL source.
// Block comments may nest.
//
// Parameters:
//   - source: raw WGSL source
//
// Returns:
//   - string: the source without comments
func StripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

func stripLineComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	i := 0
	for i < len(source) {
		if i+1 < len(source) {
			if source[i] == '/' && source[i+1] == '*' {
				depth++
				i += 2
				continue
			}
			if source[i] == '*' && source[i+1] == '/' {
				if depth > 0 {
					depth--
				}
				i += 2
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
		i++
	}
	return sb.String()
}
