package material

// MaterialBuilderOption is a function that configures a constant material during construction.
type MaterialBuilderOption func(*constantMaterial)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *constantMaterial) {
		m.name = name
	}
}

// WithAmbientColor is an option builder that sets the RGBA color lit by the ambient term.
//
// Parameters:
//   - color: the ambient color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the ambient color option to a material
func WithAmbientColor(color [4]float32) MaterialBuilderOption {
	return func(m *constantMaterial) {
		m.ambientColor = color
	}
}

// WithDiffuseColor is an option builder that sets the RGBA color lit by the diffuse term.
//
// Parameters:
//   - color: the diffuse color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the diffuse color option to a material
func WithDiffuseColor(color [4]float32) MaterialBuilderOption {
	return func(m *constantMaterial) {
		m.diffuseColor = color
	}
}

// WithSpecularColor is an option builder that sets the RGBA specular highlight color.
//
// Parameters:
//   - color: the specular color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the specular color option to a material
func WithSpecularColor(color [4]float32) MaterialBuilderOption {
	return func(m *constantMaterial) {
		m.specularColor = color
	}
}

// WithSpecularExponent is an option builder that sets the Blinn-Phong shininess.
//
// Parameters:
//   - exponent: the shininess, larger is tighter
//
// Returns:
//   - MaterialBuilderOption: a function that applies the exponent option to a material
func WithSpecularExponent(exponent float32) MaterialBuilderOption {
	return func(m *constantMaterial) {
		m.specularExponent = exponent
	}
}

// WithAmbientIntensity is an option builder that sets the ambient share of the light.
// Values are clamped to [0, 1].
//
// Parameters:
//   - intensity: the ambient intensity
//
// Returns:
//   - MaterialBuilderOption: a function that applies the ambient intensity option to a material
func WithAmbientIntensity(intensity float32) MaterialBuilderOption {
	return func(m *constantMaterial) {
		m.ambientIntensity = intensity
	}
}
