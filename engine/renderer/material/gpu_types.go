package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUMaterialParamsSource is the canonical WGSL definition of the MaterialParams struct.
// Matches GPUMaterialParams layout exactly (64 bytes).
//
//go:embed assets/material_params.wgsl
var GPUMaterialParamsSource string

// GPUMaterialParams is the GPU-aligned uniform holding a material's constant inputs.
// Matches the WGSL MaterialParams struct layout exactly (see GPUMaterialParamsSource).
// Size: 64 bytes (60 bytes of fields rounded up to the 16-byte vec4 alignment).
type GPUMaterialParams struct {
	AmbientColor     [4]float32 // offset  0: vec4f
	DiffuseColor     [4]float32 // offset 16: vec4f
	SpecularColor    [4]float32 // offset 32: vec4f
	SpecularExponent float32    // offset 48: f32
	AmbientIntensity float32    // offset 52: f32
	Textured         uint32     // offset 56: u32, 1 when textures are bound
	_pad             uint32     // offset 60: struct stride padding
}

// NewGPUMaterialParams captures a material's current inputs for upload.
//
// Parameters:
//   - m: the material
//   - textured: whether textures are bound alongside the uniform
//
// Returns:
//   - GPUMaterialParams: the uniform contents
func NewGPUMaterialParams(m Material, textured bool) GPUMaterialParams {
	p := GPUMaterialParams{
		AmbientColor:     m.AmbientColor(),
		DiffuseColor:     m.DiffuseColor(),
		SpecularColor:    m.SpecularColor(),
		SpecularExponent: m.SpecularExponent(),
		AmbientIntensity: m.AmbientIntensity(),
	}
	if textured {
		p.Textured = 1
	}
	return p
}

// Size returns the size of the GPUMaterialParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (64)
func (g *GPUMaterialParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterialParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (g *GPUMaterialParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.AmbientColor[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.DiffuseColor[i]))
		binary.LittleEndian.PutUint32(buf[32+i*4:], math.Float32bits(g.SpecularColor[i]))
	}
	binary.LittleEndian.PutUint32(buf[48:], math.Float32bits(g.SpecularExponent))
	binary.LittleEndian.PutUint32(buf[52:], math.Float32bits(g.AmbientIntensity))
	binary.LittleEndian.PutUint32(buf[56:], g.Textured)
	return buf
}
