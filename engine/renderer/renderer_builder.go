package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/pipeline"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPipelineSet registers a pipeline set when the renderer is created. The set's
// Textured flag selects which models it draws.
//
// Parameters:
//   - set: the pipeline set
//
// Returns:
//   - RendererBuilderOption: a function that applies the pipeline set option to a renderer
func WithPipelineSet(set *pipeline.Set) RendererBuilderOption {
	return func(r *renderer) {
		r.pending = append(r.pending, set)
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithPowerPreference selects between low-power and high-performance adapters.
//
// Parameters:
//   - pref: the adapter power preference
//
// Returns:
//   - RendererBuilderOption: a function that applies the power preference option to a renderer
func WithPowerPreference(pref wgpu.PowerPreference) RendererBuilderOption {
	return func(r *renderer) {
		r.powerPreference = pref
	}
}
