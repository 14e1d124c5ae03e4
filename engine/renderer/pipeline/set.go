package pipeline

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/geometry"
	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-shade/engine/shading"
)

// Set holds one specialized pipeline per capability mask. Masks that specialize to the same
// shaders share a pipeline, so a set builds nine pipelines for sixteen masks. Selection
// happens once per draw, never per fragment.
type Set struct {
	mu        sync.RWMutex
	key       string
	textured  bool
	pipelines map[shading.Mask]Pipeline
	distinct  []Pipeline
}

// NewSet specializes the built-in Blinn-Phong shaders for every mask and validates each
// pair against the geometry binding schema.
//
// Parameters:
//   - key: the key prefix for the pipelines
//   - textured: whether the draws sample textures
//   - opts: fixed-function options applied to every pipeline
//
// Returns:
//   - *Set: the set
//   - error: a specialization error or ErrLayoutMismatch
func NewSet(key string, textured bool, opts ...PipelineBuilderOption) (*Set, error) {
	return NewSetFromSources(key, shading.GPUVertexSource, shading.GPUShadingSource, textured, opts...)
}

// NewSetFromSources is NewSet for custom annotated sources.
//
// Parameters:
//   - key: the key prefix for the pipelines
//   - vertexSource: the annotated vertex source
//   - fragmentSource: the annotated fragment source
//   - textured: whether the draws sample textures
//   - opts: fixed-function options applied to every pipeline
//
// Returns:
//   - *Set: the set
//   - error: a specialization error or ErrLayoutMismatch
func NewSetFromSources(key, vertexSource, fragmentSource string, textured bool, opts ...PipelineBuilderOption) (*Set, error) {
	variants, err := shader.NewVariants(key, vertexSource, fragmentSource, textured)
	if err != nil {
		return nil, err
	}
	reference := geometry.BindGroupLayoutDescriptors(textured)

	s := &Set{
		key:       key,
		textured:  textured,
		pipelines: make(map[shading.Mask]Pipeline, len(variants)),
	}
	built := make(map[*shader.Variant]Pipeline)
	for _, mask := range shading.AllMasks() {
		v := variants[mask]
		if p, ok := built[v]; ok {
			s.pipelines[mask] = p
			continue
		}
		pipelineOpts := append([]PipelineBuilderOption{WithVertexShader(v.Vertex), WithFragmentShader(v.Fragment)}, opts...)
		p := NewPipeline(fmt.Sprintf("%s/%s", key, v.Capabilities), pipelineOpts...)
		if err := CheckLayouts(p.BindGroupLayoutDescriptors(), reference); err != nil {
			return nil, fmt.Errorf("%s: %w", p.PipelineKey(), err)
		}
		built[v] = p
		s.pipelines[mask] = p
		s.distinct = append(s.distinct, p)
	}

	common.Logger().Debug("built pipeline set",
		"key", key,
		"textured", textured,
		"masks", len(s.pipelines),
		"pipelines", len(s.distinct),
	)
	return s, nil
}

// Key returns the set's key prefix.
func (s *Set) Key() string {
	return s.key
}

// Textured reports whether the set samples textures.
func (s *Set) Textured() bool {
	return s.textured
}

// Select returns the pipeline for mask. Bits outside shading.MaskBits are ignored.
//
// Parameters:
//   - mask: the enabled capabilities
//
// Returns:
//   - Pipeline: the pipeline specialized for mask
func (s *Set) Select(mask shading.Mask) Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipelines[mask.Effective()]
}

// Pipelines returns the distinct pipelines in mask order.
func (s *Set) Pipelines() []Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Pipeline, len(s.distinct))
	copy(out, s.distinct)
	return out
}

// Register creates the GPU objects of every distinct pipeline. On failure the pipelines
// already created are released.
//
// Parameters:
//   - device: the WebGPU device
//   - colorFormat: the color target format
//
// Returns:
//   - error: the first pipeline error
func (s *Set) Register(device *wgpu.Device, colorFormat wgpu.TextureFormat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.distinct {
		if err := p.Init(device, colorFormat); err != nil {
			for _, done := range s.distinct[:i] {
				done.Release()
			}
			return err
		}
	}
	common.Logger().Info("registered pipelines", "key", s.key, "count", len(s.distinct))
	return nil
}

// Release frees the GPU objects of every pipeline.
func (s *Set) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.distinct {
		p.Release()
	}
}
