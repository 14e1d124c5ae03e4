package camera

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
)

// GPUProjectedSpaceSource is the canonical WGSL definition of the ProjectedSpace struct.
// Matches GPUProjectedSpace layout exactly (144 bytes).
//
//go:embed assets/projected_space.wgsl
var GPUProjectedSpaceSource string

// GPUProjectedSpace is the GPU-aligned representation of the camera uniform buffer.
// Matches the WGSL ProjectedSpace struct layout exactly (see GPUProjectedSpaceSource).
// Size: 144 bytes (two mat4x4f and one vec4f, 16-byte aligned, no padding required).
type GPUProjectedSpace struct {
	WorldToProjection layout.Float4x4 // offset   0: world to clip space (mat4x4f)
	ScreenToWorld     layout.Float4x4 // offset  64: pixel coordinate plus depth to world (mat4x4f)
	PositionWorld     layout.Float4   // offset 128: camera origin in world space, w = 1 (vec4f)
}

// Size returns the size of the GPUProjectedSpace struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (144)
func (g *GPUProjectedSpace) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUProjectedSpace struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUProjectedSpace) Marshal() []byte {
	buf := make([]byte, g.Size())
	g.WorldToProjection.Put(buf[0:])
	g.ScreenToWorld.Put(buf[64:])
	g.PositionWorld.Put(buf[128:])
	return buf
}
