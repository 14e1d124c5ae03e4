package model

import (
	_ "embed"
	"errors"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
)

// ErrSingularTransform is returned when a model matrix has no normal matrix because its
// upper 3x3 is singular (a zero scale on some axis).
var ErrSingularTransform = errors.New("model: transform is singular")

// GPUModelSpaceSource is the canonical WGSL definition of the ModelSpace struct.
// Matches GPUModelSpace layout exactly (112 bytes).
//
//go:embed assets/model_space.wgsl
var GPUModelSpaceSource string

// GPUModelSpace is the GPU-aligned per-model uniform.
// Matches the WGSL ModelSpace struct layout exactly (see GPUModelSpaceSource).
// Size: 112 bytes (mat4x4f followed by a mat3x3f whose columns are padded to 16 bytes).
type GPUModelSpace struct {
	ModelToProjection layout.Float4x4 // offset  0: model to clip space (mat4x4f)
	NormalToWorld     layout.Float3x3 // offset 64: normal matrix (mat3x3f, 3 x 16 bytes)
}

// NewModelSpace builds the uniform for one model.
//
// Parameters:
//   - modelToWorld: the model matrix (column-major)
//   - worldToProjection: the camera view-projection matrix (column-major)
//
// Returns:
//   - GPUModelSpace: the uniform value
//   - error: ErrSingularTransform if the model matrix has no normal matrix
func NewModelSpace(modelToWorld, worldToProjection [16]float32) (GPUModelSpace, error) {
	var ms GPUModelSpace
	nm, ok := common.NormalMatrix(modelToWorld[:])
	if !ok {
		return ms, ErrSingularTransform
	}
	common.Mul4(ms.ModelToProjection[:], worldToProjection[:], modelToWorld[:])
	ms.NormalToWorld = layout.Float3x3(nm)
	return ms, nil
}

// Size returns the size of the GPUModelSpace struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (112)
func (g *GPUModelSpace) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUModelSpace struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 112-byte buffer ready for GPU upload, column padding zeroed
func (g *GPUModelSpace) Marshal() []byte {
	buf := make([]byte, g.Size())
	g.ModelToProjection.Put(buf[0:])
	nm := g.NormalToWorld
	for c := range 3 {
		nm[c][3] = 0
	}
	nm.Put(buf[64:])
	return buf
}
