package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/camera"
	"github.com/Carmen-Shannon/oxy-shade/engine/model"
	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shade/engine/shading"
)

var (
	// ErrNoPipelineSet reports a model whose textured flag has no registered set.
	ErrNoPipelineSet = errors.New("renderer: no pipeline set registered")

	// ErrInvalidFrame reports a frame with a non-positive size.
	ErrInvalidFrame = errors.New("renderer: invalid frame")

	// ErrNoMesh reports a model without geometry.
	ErrNoMesh = errors.New("renderer: model has no mesh")
)

// Frame describes one offscreen render.
type Frame struct {
	Width, Height int
	LightPos      [3]float32
	Mask          shading.Mask
	Background    [4]float32
}

// drawPlan is everything one model needs for a draw call.
type drawPlan struct {
	name        string
	pipeline    pipeline.Pipeline
	providers   []bind_group_provider.BindGroupProvider
	vertexCount uint32
}

func (d *drawPlan) release() {
	for _, p := range d.providers {
		p.Release()
	}
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backend RendererBackend
	sets    map[bool]*pipeline.Set

	// Pre-creation config collected from builder options
	pending              []*pipeline.Set
	forceFallbackAdapter bool
	powerPreference      wgpu.PowerPreference
}

// Renderer draws models with the specialized shading pipelines on a headless device and
// reads the result back.
type Renderer interface {
	// RegisterSets builds the GPU pipelines of each set and makes them available for models
	// with the matching textured flag. A later set replaces an earlier one.
	//
	// Parameters:
	//   - sets: the pipeline sets to register
	//
	// Returns:
	//   - error: error if a pipeline fails to build
	RegisterSets(sets ...*pipeline.Set) error

	// Set returns the registered set for textured or untextured models, or nil.
	Set(textured bool) *pipeline.Set

	// Render draws the models from the camera into a new image.
	//
	// Parameters:
	//   - ctx: cancels the render between stages
	//   - models: the models to draw
	//   - cam: the camera, already updated
	//   - f: the frame settings
	//
	// Returns:
	//   - *image.RGBA: the rendered pixels
	//   - error: ErrInvalidFrame, ErrNoPipelineSet, a transform error or a device error
	Render(ctx context.Context, models []model.Model, cam camera.Camera, f Frame) (*image.RGBA, error)

	// Release releases the registered pipelines and the device.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer on a new headless device.
//
// Parameters:
//   - backendType: the graphics backend
//   - opts: builder options
//
// Returns:
//   - Renderer: the renderer
//   - error: error if no adapter or device is available, or a pending set fails to build
func NewRenderer(backendType RendererBackendType, opts ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:   &sync.Mutex{},
		sets: make(map[bool]*pipeline.Set),
	}
	for _, opt := range opts {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		b, err := newWGPURendererBackend(r.forceFallbackAdapter, r.powerPreference)
		if err != nil {
			return nil, err
		}
		r.backend = b
	default:
		return nil, fmt.Errorf("unsupported renderer backend %d", backendType)
	}

	if err := r.RegisterSets(r.pending...); err != nil {
		r.Release()
		return nil, err
	}
	r.pending = nil
	return r, nil
}

func (r *renderer) RegisterSets(sets ...*pipeline.Set) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range sets {
		if err := s.Register(r.backend.Device(), ColorFormat); err != nil {
			return fmt.Errorf("register set %q: %w", s.Key(), err)
		}
		if old, ok := r.sets[s.Textured()]; ok && old != s {
			old.Release()
		}
		r.sets[s.Textured()] = s
	}
	return nil
}

func (r *renderer) Set(textured bool) *pipeline.Set {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sets[textured]
}

func (r *renderer) Render(ctx context.Context, models []model.Model, cam camera.Camera, f Frame) (*image.RGBA, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plans := make([]*drawPlan, 0, len(models))
	defer func() {
		for _, p := range plans {
			p.release()
		}
	}()
	for _, m := range models {
		if set := m.TextureSet(); m.Textured() && set != nil {
			if err := set.Decode(); err != nil {
				return nil, fmt.Errorf("model %q: %w", m.Name(), err)
			}
		}
		p, err := r.plan(m, cam, f)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
		if err := r.initPlan(p); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := r.backend.CreateTarget(f.Width, f.Height, pipeline.DefaultDepthFormat)
	if err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}
	defer target.release()

	if err := r.backend.DrawFrame(target, f.Background, plans); err != nil {
		return nil, fmt.Errorf("draw frame: %w", err)
	}
	img, err := r.backend.ReadTarget(target)
	if err != nil {
		return nil, err
	}
	common.Logger().Debug("rendered frame on device",
		"width", f.Width, "height", f.Height, "models", len(plans), "mask", f.Mask.String())
	return img, nil
}

// plan selects the pipeline for a model and stages its three bind groups against that
// pipeline's layouts. It touches no device.
func (r *renderer) plan(m model.Model, cam camera.Camera, f Frame) (*drawPlan, error) {
	mesh := m.Mesh()
	if mesh == nil || mesh.Geometry == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoMesh, m.Name())
	}

	r.mu.Lock()
	set, ok := r.sets[m.Textured()]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: model %q textured=%t", ErrNoPipelineSet, m.Name(), m.Textured())
	}
	p := set.Select(f.Mask)

	g := mesh.Geometry
	plan := &drawPlan{
		name:        m.Name(),
		pipeline:    p,
		vertexCount: uint32(g.TriangleCount() * 3),
	}

	geo, err := bind_group_provider.NewGeometryProvider(m.Name(), g, m.TriNormals())
	if err != nil {
		return nil, err
	}
	plan.providers = append(plan.providers, geo)

	tr, err := bind_group_provider.NewTransformProvider(m.Name(), m, cam, f.Width, f.Height)
	if err != nil {
		plan.release()
		return nil, err
	}
	plan.providers = append(plan.providers, tr)

	mat, err := bind_group_provider.NewMaterialProvider(m.Name(), m, shading.NewGPUShadingParams(f.LightPos, cam.Position()))
	if err != nil {
		plan.release()
		return nil, err
	}
	plan.providers = append(plan.providers, mat)

	descs := p.BindGroupLayoutDescriptors()
	for _, prov := range plan.providers {
		desc, ok := descs[prov.Group()]
		if !ok {
			continue
		}
		if _, err := prov.Resolve(desc); err != nil {
			plan.release()
			return nil, fmt.Errorf("model %q: %w", m.Name(), err)
		}
	}
	return plan, nil
}

// initPlan creates the GPU resources of every provider against the pipeline's layouts.
// Providers for groups past the pipeline's last layout are released and dropped.
func (r *renderer) initPlan(p *drawPlan) error {
	layouts := p.pipeline.BindGroupLayouts()
	descs := p.pipeline.BindGroupLayoutDescriptors()
	kept := p.providers[:0]
	for _, prov := range p.providers {
		g := prov.Group()
		if g >= len(layouts) {
			prov.Release()
			continue
		}
		desc, ok := descs[g]
		if !ok {
			desc = wgpu.BindGroupLayoutDescriptor{Label: fmt.Sprintf("%s empty group %d", p.name, g)}
		}
		if err := prov.Init(r.backend.Device(), r.backend.Queue(), layouts[g], desc); err != nil {
			return fmt.Errorf("model %q: %w", p.name, err)
		}
		kept = append(kept, prov)
	}
	p.providers = kept
	return nil
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, s := range r.sets {
		s.Release()
		delete(r.sets, k)
	}
	if r.backend != nil {
		r.backend.Release()
		r.backend = nil
	}
}
