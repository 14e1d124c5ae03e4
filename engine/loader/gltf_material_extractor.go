package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/material"
)

// dielectricSpecular is the specular reflectance of a non-metal.
const dielectricSpecular = 0.04

// gltfMaterialData is a glTF material mapped onto Blinn-Phong inputs.
type gltfMaterialData struct {
	constant material.Material

	// textures is nil when the material has no base color texture.
	textures *material.TextureSet
}

// gltfMaterialExtractorImpl is the implementation of the gltfMaterialExtractor interface.
type gltfMaterialExtractorImpl struct {
	parser gltfParser
}

// gltfMaterialExtractor maps metallic-roughness materials onto Blinn-Phong materials.
type gltfMaterialExtractor interface {
	// Extract maps one material. The base color drives the ambient and diffuse colors,
	// metalness blends the specular color from dielectric grey to the base color, and
	// roughness sets the specular exponent. A base color texture becomes the ambient and
	// diffuse textures of a TextureSet.
	//
	// Parameters:
	//   - materialIndex: index into the document materials, or -1 for the glTF default
	//
	// Returns:
	//   - *gltfMaterialData: the mapped material
	//   - error: error if a referenced texture cannot be read
	Extract(materialIndex int) (*gltfMaterialData, error)
}

var _ gltfMaterialExtractor = &gltfMaterialExtractorImpl{}

func newGLTFMaterialExtractor(parser gltfParser) gltfMaterialExtractor {
	return &gltfMaterialExtractorImpl{parser: parser}
}

func (e *gltfMaterialExtractorImpl) Extract(materialIndex int) (*gltfMaterialData, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	name := "default"
	base := [4]float32{1, 1, 1, 1}
	metallic, roughness := float32(1), float32(1)
	var baseTexture *gltfTextureInfo

	if materialIndex >= 0 {
		if materialIndex >= len(doc.Materials) {
			return nil, fmt.Errorf("material index %d out of range", materialIndex)
		}
		mat := &doc.Materials[materialIndex]
		name = common.Coalesce(mat.Name, fmt.Sprintf("material_%d", materialIndex))
		if pbr := mat.PbrMetallicRoughness; pbr != nil {
			if pbr.BaseColorFactor != nil {
				base = *pbr.BaseColorFactor
			}
			if pbr.MetallicFactor != nil {
				metallic = common.Clamp(*pbr.MetallicFactor, 0, 1)
			}
			if pbr.RoughnessFactor != nil {
				roughness = common.Clamp(*pbr.RoughnessFactor, 0, 1)
			}
			baseTexture = pbr.BaseColorTexture
		}
	}

	var specular [4]float32
	for k := range 3 {
		specular[k] = dielectricSpecular + (base[k]-dielectricSpecular)*metallic
	}
	specular[3] = 1
	exponent := roughnessToExponent(roughness)

	out := &gltfMaterialData{
		constant: material.NewConstantMaterial(
			material.WithName(name),
			material.WithAmbientColor(base),
			material.WithDiffuseColor(base),
			material.WithSpecularColor(specular),
			material.WithSpecularExponent(exponent),
		),
	}

	if baseTexture != nil {
		tex, err := e.loadTexture(baseTexture.Index)
		if err != nil {
			return nil, fmt.Errorf("material %q: base color texture: %w", name, err)
		}
		if tex != nil {
			set := material.NewTextureSet(name, tex, tex, common.NewSolidTexture("specular", specular))
			set.SpecularExponent = exponent
			out.textures = set
		}
	}
	return out, nil
}

// roughnessToExponent converts perceptual roughness to a Blinn-Phong exponent with the
// Beckmann equivalence 2/alpha^2 - 2, where alpha is roughness squared.
func roughnessToExponent(roughness float32) float32 {
	alpha := math32.Max(roughness*roughness, 0.03)
	return common.Clamp(2/(alpha*alpha)-2, 1, 2048)
}

// loadTexture resolves a texture index into an undecoded ImportedTexture. Embedded images
// carry their bytes; external images carry a path resolved against the document directory.
func (e *gltfMaterialExtractorImpl) loadTexture(textureIndex int) (*common.ImportedTexture, error) {
	doc := e.parser.Document()
	if textureIndex < 0 || textureIndex >= len(doc.Textures) {
		return nil, fmt.Errorf("texture index %d out of range", textureIndex)
	}

	tex := &doc.Textures[textureIndex]
	if tex.Source == nil {
		return nil, nil
	}
	imageIndex := *tex.Source
	if imageIndex < 0 || imageIndex >= len(doc.Images) {
		return nil, fmt.Errorf("image index %d out of range", imageIndex)
	}
	img := &doc.Images[imageIndex]

	result := &common.ImportedTexture{
		Name:     common.Coalesce(img.Name, fmt.Sprintf("image_%d", imageIndex)),
		MimeType: img.MimeType,
	}

	switch {
	case img.BufferView != nil:
		data, err := e.parser.ReadBufferView(*img.BufferView)
		if err != nil {
			return nil, fmt.Errorf("failed to read image buffer view: %w", err)
		}
		result.Data = data
	case strings.HasPrefix(img.URI, "data:"):
		data, mimeType, err := gltfDecodeDataURI(img.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image data URI: %w", err)
		}
		result.Data = data
		result.MimeType = common.Coalesce(result.MimeType, mimeType)
	case img.URI != "":
		result.Path = filepath.Join(e.parser.BaseDir(), img.URI)
	default:
		return nil, nil
	}
	return result, nil
}
