package material

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-shade/common"
)

// TextureSet holds the decoded textures and scalar parameters shared by every fragment of a
// textured material.
type TextureSet struct {
	Name             string
	Ambient          *common.ImportedTexture
	Diffuse          *common.ImportedTexture
	Specular         *common.ImportedTexture
	SpecularExponent float32
	AmbientIntensity float32
}

// NewTextureSet creates a TextureSet with the default exponent and ambient intensity.
// Nil textures are replaced by opaque white.
//
// Parameters:
//   - name: material identifier
//   - ambient, diffuse, specular: the color textures
//
// Returns:
//   - *TextureSet: the set
func NewTextureSet(name string, ambient, diffuse, specular *common.ImportedTexture) *TextureSet {
	white := [4]float32{1, 1, 1, 1}
	return &TextureSet{
		Name:             name,
		Ambient:          common.Coalesce(ambient, common.NewSolidTexture("ambient", white)),
		Diffuse:          common.Coalesce(diffuse, common.NewSolidTexture("diffuse", white)),
		Specular:         common.Coalesce(specular, common.NewSolidTexture("specular", white)),
		SpecularExponent: 32,
		AmbientIntensity: DefaultAmbientIntensity,
	}
}

// Decode decodes every texture that has no pixels yet.
//
// Returns:
//   - error: the joined decode failures
func (s *TextureSet) Decode() error {
	var errs []error
	for _, t := range []*common.ImportedTexture{s.Ambient, s.Diffuse, s.Specular} {
		if t == nil || len(t.Pixels) > 0 {
			continue
		}
		if err := t.Decode(); err != nil {
			errs = append(errs, fmt.Errorf("texture set %s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Sample reads a texture bilinearly at uv with repeat addressing. Texel centers sit at
// half-integer coordinates. A nil or undecoded texture samples as transparent black.
//
// Parameters:
//   - t: the decoded texture
//   - uv: texture coordinate, any range
//
// Returns:
//   - [4]float32: the filtered RGBA color
func Sample(t *common.ImportedTexture, uv [2]float32) [4]float32 {
	if t == nil {
		return [4]float32{}
	}
	x := uv[0]*float32(t.Width) - 0.5
	y := uv[1]*float32(t.Height) - 0.5
	x0, y0 := math32.Floor(x), math32.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)

	c00, err := t.Texel(ix, iy)
	if err != nil {
		return [4]float32{}
	}
	c10, _ := t.Texel(ix+1, iy)
	c01, _ := t.Texel(ix, iy+1)
	c11, _ := t.Texel(ix+1, iy+1)

	var out [4]float32
	for k := range 4 {
		top := c00[k]*(1-fx) + c10[k]*fx
		bottom := c01[k]*(1-fx) + c11[k]*fx
		out[k] = top*(1-fy) + bottom*fy
	}
	return out
}
