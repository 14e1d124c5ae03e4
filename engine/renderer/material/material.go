package material

import (
	"github.com/Carmen-Shannon/oxy-shade/common"
)

// DefaultAmbientIntensity is the share of light a material receives from the ambient term.
const DefaultAmbientIntensity = 0.15

// Material exposes the inputs the shading evaluator reads for one fragment. Accessors may do
// real work, such as a texture fetch, so callers only invoke the ones they need.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// AmbientColor retrieves the RGBA color lit by the ambient term.
	//
	// Returns:
	//   - [4]float32: the ambient color
	AmbientColor() [4]float32

	// DiffuseColor retrieves the RGBA color lit by the diffuse term.
	//
	// Returns:
	//   - [4]float32: the diffuse color
	DiffuseColor() [4]float32

	// SpecularColor retrieves the RGBA color of the specular highlight.
	//
	// Returns:
	//   - [4]float32: the specular color
	SpecularColor() [4]float32

	// SpecularExponent retrieves the Blinn-Phong shininess.
	//
	// Returns:
	//   - float32: the exponent
	SpecularExponent() float32

	// AmbientIntensity retrieves the ambient share of the light, in [0, 1].
	//
	// Returns:
	//   - float32: the ambient intensity
	AmbientIntensity() float32
}

// constantMaterial is a Material with fixed colors.
type constantMaterial struct {
	name             string
	ambientColor     [4]float32
	diffuseColor     [4]float32
	specularColor    [4]float32
	specularExponent float32
	ambientIntensity float32
}

var _ Material = &constantMaterial{}

// NewConstantMaterial creates a Material with fixed colors configured by the provided options.
// Colors default to opaque white, the exponent to 32 and the ambient intensity to
// DefaultAmbientIntensity.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewConstantMaterial(options ...MaterialBuilderOption) Material {
	m := &constantMaterial{
		ambientColor:     [4]float32{1, 1, 1, 1},
		diffuseColor:     [4]float32{1, 1, 1, 1},
		specularColor:    [4]float32{1, 1, 1, 1},
		specularExponent: 32,
		ambientIntensity: DefaultAmbientIntensity,
	}
	for _, opt := range options {
		opt(m)
	}
	m.ambientIntensity = common.Clamp(m.ambientIntensity, 0, 1)
	return m
}

func (m *constantMaterial) Name() string {
	return m.name
}

func (m *constantMaterial) AmbientColor() [4]float32 {
	return m.ambientColor
}

func (m *constantMaterial) DiffuseColor() [4]float32 {
	return m.diffuseColor
}

func (m *constantMaterial) SpecularColor() [4]float32 {
	return m.specularColor
}

func (m *constantMaterial) SpecularExponent() float32 {
	return m.specularExponent
}

func (m *constantMaterial) AmbientIntensity() float32 {
	return m.ambientIntensity
}

// texturedMaterial samples its colors from a TextureSet at one texture coordinate.
type texturedMaterial struct {
	texCoord [2]float32
	shadowed bool
	set      *TextureSet
}

var _ Material = &texturedMaterial{}

// NewTexturedMaterial creates a Material that samples set at texCoord. A shadowed fragment
// receives no diffuse or specular color.
//
// Parameters:
//   - texCoord: the fragment's interpolated texture coordinate
//   - shadowed: whether the fragment is in shadow
//   - set: decoded textures and scalar parameters
//
// Returns:
//   - Material: the per-fragment material
func NewTexturedMaterial(texCoord [2]float32, shadowed bool, set *TextureSet) Material {
	return &texturedMaterial{texCoord: texCoord, shadowed: shadowed, set: set}
}

func (m *texturedMaterial) Name() string {
	return m.set.Name
}

func (m *texturedMaterial) AmbientColor() [4]float32 {
	return Sample(m.set.Ambient, m.texCoord)
}

func (m *texturedMaterial) DiffuseColor() [4]float32 {
	if m.shadowed {
		return [4]float32{}
	}
	return Sample(m.set.Diffuse, m.texCoord)
}

func (m *texturedMaterial) SpecularColor() [4]float32 {
	if m.shadowed {
		return [4]float32{}
	}
	return Sample(m.set.Specular, m.texCoord)
}

func (m *texturedMaterial) SpecularExponent() float32 {
	return m.set.SpecularExponent
}

func (m *texturedMaterial) AmbientIntensity() float32 {
	return m.set.AmbientIntensity
}
