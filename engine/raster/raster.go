// Package raster is a CPU reference for the per-fragment stage. It projects meshes with the
// same ModelSpace uniform the vertex shader reads, interpolates decoded normals at each
// covered pixel and shades with the evaluator specialized for the frame's capability mask.
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/camera"
	"github.com/Carmen-Shannon/oxy-shade/engine/model"
	"github.com/Carmen-Shannon/oxy-shade/engine/profiler"
	"github.com/Carmen-Shannon/oxy-shade/engine/shading"
)

// ErrInvalidFrame reports a frame with no pixels.
var ErrInvalidFrame = errors.New("raster: frame has no pixels")

const defaultRowsPerTask = 16

// NormalSource selects where fragment normals come from.
type NormalSource int

const (
	// NormalsCompressed reads a model's TriNormals records, falling back to the vertex
	// normals when the model has none.
	NormalsCompressed NormalSource = iota

	// NormalsUncompressed always reads the geometry's vertex normals.
	NormalsUncompressed
)

// Frame holds the per-draw inputs shared by every model.
type Frame struct {
	Width  int
	Height int

	// WorldToProjection is the column-major view-projection matrix, WebGPU depth range.
	WorldToProjection [16]float32

	CameraPos [3]float32
	LightPos  [3]float32
	Mask      shading.Mask

	// Background fills pixels no triangle covers.
	Background [4]float32
}

// FrameFromCamera builds a frame from a camera's current matrices and position.
//
// Parameters:
//   - c: the camera, already updated
//   - width: image width in pixels
//   - height: image height in pixels
//   - light: world-space point light position
//   - mask: the enabled shading capabilities
//
// Returns:
//   - Frame: the frame with an opaque black background
func FrameFromCamera(c camera.Camera, width, height int, light [3]float32, mask shading.Mask) Frame {
	return Frame{
		Width:             width,
		Height:            height,
		WorldToProjection: c.ViewProjectionMatrix(),
		CameraPos:         c.Position(),
		LightPos:          light,
		Mask:              mask,
		Background:        [4]float32{0, 0, 0, 1},
	}
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	workers     int
	rowsPerTask int
	normals     NormalSource
	profiler    *profiler.Profiler
	pool        worker.DynamicWorkerPool
}

// Renderer draws models into an RGBA image on the host.
type Renderer interface {
	// Render rasterizes every model with a depth buffer and shades each covered pixel.
	// Rows are shaded in parallel; each task owns a disjoint band of rows.
	// Triangles with a vertex behind the camera are skipped, and faces are not culled.
	//
	// Parameters:
	//   - ctx: cancels outstanding row bands
	//   - models: the models to draw
	//   - f: the frame inputs
	//
	// Returns:
	//   - *image.RGBA: the rendered image
	//   - error: ErrInvalidFrame, model.ErrSingularTransform for a degenerate model, or ctx.Err()
	Render(ctx context.Context, models []model.Model, f Frame) (*image.RGBA, error)
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer backed by a dynamic worker pool.
//
// Parameters:
//   - opts: functional options
//
// Returns:
//   - Renderer: the renderer
func NewRenderer(opts ...RendererBuilderOption) Renderer {
	r := &renderer{
		workers:     runtime.NumCPU(),
		rowsPerTask: defaultRowsPerTask,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.pool = worker.NewDynamicWorkerPool(r.workers, 256, 1*time.Second)
	return r
}

func (r *renderer) Render(ctx context.Context, models []model.Model, f Frame) (*image.RGBA, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	stop := r.profiler.Start("raster.setup")
	tris, err := r.setup(models, f)
	stop()
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	depth := make([]float32, f.Width*f.Height)
	target := &target{img: img, depth: depth, frame: f, eval: shading.Specialize(f.Mask)}

	stop = r.profiler.Start("raster.shade")
	var (
		wg     sync.WaitGroup
		taskID int
	)
	for y0 := 0; y0 < f.Height; y0 += r.rowsPerTask {
		y1 := min(y0+r.rowsPerTask, f.Height)
		wg.Add(1)
		id := taskID
		taskID++
		r.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				target.shadeRows(tris, y0, y1)
				return nil, nil
			},
		})
	}
	wg.Wait()
	stop()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	common.Logger().Debug("rendered frame",
		"width", f.Width,
		"height", f.Height,
		"mask", f.Mask.Effective(),
		"triangles", len(tris),
		"bands", taskID,
		"elapsed", time.Since(start))
	return img, nil
}
