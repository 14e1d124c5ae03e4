package shading

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUShadingParamsSource is the canonical WGSL definition of the ShadingParams struct.
// Matches GPUShadingParams layout exactly (32 bytes).
//
//go:embed assets/shading_params.wgsl
var GPUShadingParamsSource string

// GPUShadingSource is the fragment shader with capability blocks, before specialization.
//
//go:embed assets/shading.wgsl
var GPUShadingSource string

// GPUVertexSource is the vertex-pulling vertex shader paired with GPUShadingSource.
// Only its texture coordinate fetch depends on specialization.
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUShadingParams is the GPU-aligned uniform with the world-space light and camera positions.
// Matches the WGSL ShadingParams struct layout exactly (see GPUShadingParamsSource).
// Size: 32 bytes (two vec3f, each 16-byte aligned).
type GPUShadingParams struct {
	LightPosition  [3]float32 // offset  0: vec3f
	_pad0          float32    // offset 12: vec3f alignment padding
	CameraPosition [3]float32 // offset 16: vec3f
	_pad1          float32    // offset 28: struct stride padding
}

// NewGPUShadingParams builds the uniform from world-space positions.
func NewGPUShadingParams(light, camera [3]float32) GPUShadingParams {
	return GPUShadingParams{LightPosition: light, CameraPosition: camera}
}

// Size returns the size of the GPUShadingParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (32)
func (g *GPUShadingParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUShadingParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload, padding zeroed
func (g *GPUShadingParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.LightPosition[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.CameraPosition[i]))
	}
	return buf
}
