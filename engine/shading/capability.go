// Package shading evaluates the Blinn-Phong reflectance of one fragment. The enabled terms
// are chosen per pipeline as a capability Mask, never per fragment: Specialize returns an
// evaluator that only touches the material accessors its mask needs.
package shading

import (
	"errors"
	"fmt"
	"strings"
)

// Capability is one specialization switch.
type Capability uint32

const (
	// CapAmbient enables the ambient term.
	CapAmbient Capability = 1 << iota

	// CapDiffuse enables the Lambertian diffuse term.
	CapDiffuse

	// CapNormalsOnly bypasses lighting and outputs the shading normal as a color.
	CapNormalsOnly

	// CapSpecular enables the Blinn-Phong specular term.
	CapSpecular

	// CapDebugPath is accepted for compatibility with older pipelines and has no effect.
	CapDebugPath
)

// ErrUnknownCapability reports a capability name ParseMask does not know.
var ErrUnknownCapability = errors.New("unknown capability")

var capabilityNames = []struct {
	cap  Capability
	name string
}{
	{CapAmbient, "ambient"},
	{CapDiffuse, "diffuse"},
	{CapNormalsOnly, "normals_only"},
	{CapSpecular, "specular"},
	{CapDebugPath, "debug_path"},
}

func (c Capability) String() string {
	for _, n := range capabilityNames {
		if n.cap == c {
			return n.name
		}
	}
	return fmt.Sprintf("Capability(%d)", uint32(c))
}

// ParseCapability resolves a capability name such as "specular". Matching ignores case and
// treats '-' like '_'.
//
// Parameters:
//   - name: the capability name
//
// Returns:
//   - Capability: the capability
//   - error: ErrUnknownCapability for an unknown name
func ParseCapability(name string) (Capability, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for _, n := range capabilityNames {
		if n.name == key {
			return n.cap, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCapability, name)
}

// Mask is a set of capabilities.
type Mask uint32

// MaskBits covers the four capabilities that change the evaluator.
const MaskBits = Mask(CapAmbient | CapDiffuse | CapNormalsOnly | CapSpecular)

// Has reports whether c is in the mask.
func (m Mask) Has(c Capability) bool {
	return uint32(m)&uint32(c) != 0
}

// With returns the mask with c added.
func (m Mask) With(c Capability) Mask {
	return m | Mask(c)
}

// Effective drops the bits that do not change the evaluator.
func (m Mask) Effective() Mask {
	return m & MaskBits
}

// Capabilities returns the set capabilities in bit order.
func (m Mask) Capabilities() []Capability {
	var out []Capability
	for _, n := range capabilityNames {
		if m.Has(n.cap) {
			out = append(out, n.cap)
		}
	}
	return out
}

func (m Mask) String() string {
	caps := m.Capabilities()
	if len(caps) == 0 {
		return "none"
	}
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = c.String()
	}
	return strings.Join(names, "|")
}

// ParseMask parses names separated by '|', ',' or whitespace, e.g. "ambient|diffuse".
// An empty string or "none" is the empty mask.
//
// Parameters:
//   - s: the mask expression
//
// Returns:
//   - Mask: the parsed mask
//   - error: ErrUnknownCapability for any unknown name
func ParseMask(s string) (Mask, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ',' || r == ' ' || r == '\t'
	})
	var m Mask
	for _, f := range fields {
		if strings.EqualFold(f, "none") {
			continue
		}
		c, err := ParseCapability(f)
		if err != nil {
			return 0, err
		}
		m = m.With(c)
	}
	return m, nil
}

// AllMasks returns the 16 masks that produce distinct evaluators, in ascending order.
func AllMasks() []Mask {
	out := make([]Mask, 0, 16)
	for m := Mask(0); m <= MaskBits; m++ {
		if m&^MaskBits == 0 {
			out = append(out, m)
		}
	}
	return out
}
