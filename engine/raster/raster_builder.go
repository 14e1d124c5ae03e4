package raster

import (
	"github.com/Carmen-Shannon/oxy-shade/engine/profiler"
)

// RendererBuilderOption is a functional option for configuring a Renderer via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithWorkers sets the number of pool workers shading rows. Values below 1 are ignored.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - RendererBuilderOption: a function that applies the worker option to a renderer
func WithWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithRowsPerTask sets how many image rows one pool task shades. Values below 1 are ignored.
//
// Parameters:
//   - n: rows per task
//
// Returns:
//   - RendererBuilderOption: a function that applies the row option to a renderer
func WithRowsPerTask(n int) RendererBuilderOption {
	return func(r *renderer) {
		if n > 0 {
			r.rowsPerTask = n
		}
	}
}

// WithNormalSource selects where fragment normals are read from.
//
// Parameters:
//   - src: NormalsCompressed or NormalsUncompressed
//
// Returns:
//   - RendererBuilderOption: a function that applies the source option to a renderer
func WithNormalSource(src NormalSource) RendererBuilderOption {
	return func(r *renderer) {
		r.normals = src
	}
}

// WithProfiler records the setup and shading stages of every Render call.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - RendererBuilderOption: a function that applies the profiler option to a renderer
func WithProfiler(p *profiler.Profiler) RendererBuilderOption {
	return func(r *renderer) {
		r.profiler = p
	}
}
