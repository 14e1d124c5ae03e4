package pipeline

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-shade/engine/renderer/shader"
)

// ErrMissingShader reports a pipeline initialized without both stages.
var ErrMissingShader = errors.New("pipeline requires a vertex and a fragment shader")

// DefaultDepthFormat is the depth attachment format used when none is configured.
const DefaultDepthFormat = wgpu.TextureFormatDepth24Plus

// pipeline is the implementation of the Pipeline interface.
// It holds the specialized shader pair, the underlying WebGPU render pipeline and the
// fixed-function state used to create it.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	// the shader pair must be set before initializing a pipeline.

	vertexShader, fragmentShader shader.Shader

	// renderPipeline is nil until Init succeeds
	renderPipeline *wgpu.RenderPipeline

	// bindGroupLayouts are created by Init, indexed by group
	bindGroupLayouts []*wgpu.BindGroupLayout

	// The following properties are used to configure the pipeline during creation and can be toggled/set with the builder options.

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
	depthFormat         wgpu.TextureFormat
	sampleCount         uint32
}

// Pipeline defines the interface for one specialized render pipeline (vertex + fragment
// shaders). It holds all configuration state required for pipeline creation including depth,
// blend, cull, and topology settings.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified type if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the type of shader to retrieve (vertex or fragment)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified type, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Capabilities returns the canonical capabilities of the shader pair.
	//
	// Returns:
	//   - shader.Capabilities: the capabilities, zero if no fragment shader is set
	Capabilities() shader.Capabilities

	// RenderPipeline returns the underlying pipeline object.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the pipeline, nil before Init
	RenderPipeline() *wgpu.RenderPipeline

	// BindGroupLayouts returns the GPU bind group layouts created by Init, indexed by group.
	// Groups no stage declares are nil.
	//
	// Returns:
	//   - []*wgpu.BindGroupLayout: the layouts, nil before Init
	BindGroupLayouts() []*wgpu.BindGroupLayout

	// BindGroupLayoutDescriptors returns the layout descriptors of both stages merged per
	// group, with the visibility of shared bindings combined.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth testing is enabled, false otherwise
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writing is enabled, false otherwise
	DepthWriteEnabled() bool

	// DepthBias returns the depth bias value configured for this pipeline.
	//
	// Returns:
	//   - int32: the depth bias value for this pipeline
	DepthBias() int32

	// DepthBiasSlopeScale returns the depth bias slope scale configured for this pipeline.
	//
	// Returns:
	//   - float32: the depth bias slope scale for this pipeline
	DepthBiasSlopeScale() float32

	// BlendEnabled returns whether blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled, false otherwise
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode for this pipeline (e.g., wgpu.CullModeNone, wgpu.CullModeFront, wgpu.CullModeBack)
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology for this pipeline (e.g., wgpu.PrimitiveTopologyTriangleList)
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	//
	// Returns:
	//   - wgpu.FrontFace: the front face winding order for this pipeline (e.g., wgpu.FrontFaceCCW, wgpu.FrontFaceCW)
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the color write mask for this pipeline (e.g., wgpu.ColorWriteMaskAll)
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state configured for this pipeline.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state for this pipeline, or nil if blending is not enabled
	BlendState() *wgpu.BlendState

	// Init creates the shader modules, bind group layouts, pipeline layout and render
	// pipeline on device. Calling Init again replaces the previous objects.
	//
	// Parameters:
	//   - device: the WebGPU device
	//   - colorFormat: the color target format
	//
	// Returns:
	//   - error: ErrMissingShader, or the first device error
	Init(device *wgpu.Device, colorFormat wgpu.TextureFormat) error

	// Release frees the GPU objects created by Init.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline interface.
// Culling is off by default so both faces of a triangle are shaded; back faces receive
// ambient light only.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		blendEnabled:      false,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		depthFormat:       DefaultDepthFormat,
		sampleCount:       1,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Capabilities() shader.Capabilities {
	if p.fragmentShader == nil {
		return shader.Capabilities{}
	}
	return p.fragmentShader.Capabilities()
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) BindGroupLayouts() []*wgpu.BindGroupLayout {
	return p.bindGroupLayouts
}

func (p *pipeline) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	var vertex, fragment map[int]wgpu.BindGroupLayoutDescriptor
	if p.vertexShader != nil {
		vertex = p.vertexShader.BindGroupLayoutDescriptors()
	}
	if p.fragmentShader != nil {
		fragment = p.fragmentShader.BindGroupLayoutDescriptors()
	}
	return MergeBindGroupLayouts(vertex, fragment)
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depthBiasSlopeScale
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) Init(device *wgpu.Device, colorFormat wgpu.TextureFormat) error {
	if p.vertexShader == nil || p.fragmentShader == nil {
		return fmt.Errorf("%s: %w", p.pipelineKey, ErrMissingShader)
	}
	p.Release()

	vs, err := device.CreateShaderModule(p.vertexShader.Module())
	if err != nil {
		return fmt.Errorf("%s: vertex module: %w", p.pipelineKey, err)
	}
	defer vs.Release()
	fs, err := device.CreateShaderModule(p.fragmentShader.Module())
	if err != nil {
		return fmt.Errorf("%s: fragment module: %w", p.pipelineKey, err)
	}
	defer fs.Release()

	merged := p.BindGroupLayoutDescriptors()
	maxGroup := -1
	for g := range merged {
		maxGroup = max(maxGroup, g)
	}
	p.bindGroupLayouts = make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g := range p.bindGroupLayouts {
		desc, ok := merged[g]
		if !ok {
			// a gap still needs a layout; an empty one binds nothing
			desc = wgpu.BindGroupLayoutDescriptor{}
		}
		desc.Label = fmt.Sprintf("%s group %d", p.pipelineKey, g)
		bgl, bglErr := device.CreateBindGroupLayout(&desc)
		if bglErr != nil {
			return fmt.Errorf("%s: failed to create bind group layout for group %d: %w", p.pipelineKey, g, bglErr)
		}
		p.bindGroupLayouts[g] = bgl
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.pipelineKey,
		BindGroupLayouts: p.bindGroupLayouts,
	})
	if err != nil {
		return fmt.Errorf("%s: pipeline layout: %w", p.pipelineKey, err)
	}
	defer pipelineLayout.Release()

	vertexLayouts := make([]wgpu.VertexBufferLayout, 0, len(p.vertexShader.VertexLayouts()))
	for i := range len(p.vertexShader.VertexLayouts()) {
		vertexLayouts = append(vertexLayouts, p.vertexShader.VertexLayouts()[i]...)
	}

	target := wgpu.ColorTargetState{
		Format:    colorFormat,
		WriteMask: p.writeMask,
	}
	if p.blendEnabled {
		target.Blend = p.blendState
	}
	depthCompare := wgpu.CompareFunctionLess
	if !p.depthTestEnabled {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.pipelineKey + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: p.vertexShader.EntryPoint(),
			Buffers:    vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: p.fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: p.sampleCount,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:              p.depthFormat,
			DepthWriteEnabled:   p.depthWriteEnabled,
			DepthCompare:        depthCompare,
			DepthBias:           p.depthBias,
			DepthBiasSlopeScale: p.depthBiasSlopeScale,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%s: render pipeline: %w", p.pipelineKey, err)
	}
	p.renderPipeline = created
	return nil
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	for _, bgl := range p.bindGroupLayouts {
		if bgl != nil {
			bgl.Release()
		}
	}
	p.bindGroupLayouts = nil
}
