package bind_group_provider

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/geometry"
)

var (
	// ErrWrongGroup reports a slot staged on a provider for another bind group.
	ErrWrongGroup = errors.New("slot belongs to another bind group")

	// ErrNotStaged reports a layout entry with no staged resource.
	ErrNotStaged = errors.New("layout entry has no staged resource")

	// ErrBufferTooSmall reports a write larger than the buffer created by Init.
	ErrBufferTooSmall = errors.New("write exceeds buffer size")

	// ErrResourceKind reports a layout entry whose kind does not match the staged resource.
	ErrResourceKind = errors.New("staged resource does not match layout entry")
)

// Resource is the host-side content of one binding. Buffer slots carry Data, texture slots
// carry a decoded Texture, and the sampler slot carries neither.
type Resource struct {
	Slot    geometry.BindingSlot
	Data    []byte
	Texture *common.ImportedTexture
}

// kind classifies a resource the way wgpu classifies layout entries.
func (r Resource) kind() string {
	switch {
	case r.Texture != nil:
		return "texture"
	case r.Slot == geometry.SlotSampler:
		return "sampler"
	default:
		return "buffer"
	}
}

func entryKind(e wgpu.BindGroupLayoutEntry) string {
	switch {
	case e.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
		return "texture"
	case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		return "sampler"
	default:
		return "buffer"
	}
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	mu sync.Mutex

	// label is a debug label added for convenience.
	label string
	group int

	// staged holds the host contents keyed by binding index.
	staged map[uint32]Resource

	// pending holds buffer writes staged after Init, in staging order.
	pending []BufferWrite

	// The following fields are GPU allocated resources created by Init and released by Release.

	bindGroup    *wgpu.BindGroup
	buffers      map[uint32]*wgpu.Buffer
	bufferSizes  map[uint32]uint64
	textures     map[uint32]*wgpu.Texture
	textureViews map[uint32]*wgpu.TextureView
	samplers     map[uint32]*wgpu.Sampler
}

// BindGroupProvider stages the resources of one bind group for one draw and turns them into
// GPU objects. Providers are built with the resources of every capability; Init binds only
// the entries the specialized pipeline layout declares.
//
// Usage pattern:
//  1. Build a provider with NewGeometryProvider, NewTransformProvider or NewMaterialProvider
//  2. Call Init with the pipeline's layout for the provider's group
//  3. Call Stage when a uniform changes and Flush once per frame
//  4. Bind BindGroup() at Group() for the draw
type BindGroupProvider interface {
	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Group returns the bind group index the provider fills.
	//
	// Returns:
	//   - int: the group index
	Group() int

	// Bindings returns the staged binding indices in ascending order.
	//
	// Returns:
	//   - []uint32: the binding indices
	Bindings() []uint32

	// Resource returns the staged content of a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - Resource: the staged content
	//   - bool: false if nothing is staged at binding
	Resource(binding uint32) (Resource, bool)

	// Stage replaces the content of a buffer slot. After Init the write is queued for Flush
	// and must fit the buffer Init created.
	//
	// Parameters:
	//   - slot: the buffer slot
	//   - data: the new contents
	//
	// Returns:
	//   - error: ErrWrongGroup or ErrBufferTooSmall
	Stage(slot geometry.BindingSlot, data []byte) error

	// Pending returns a copy of the writes queued since the last Flush.
	//
	// Returns:
	//   - []BufferWrite: the queued writes
	Pending() []BufferWrite

	// Resolve matches a layout descriptor against the staged resources. The result follows
	// the descriptor's entry order.
	//
	// Parameters:
	//   - desc: the layout descriptor of the provider's group
	//
	// Returns:
	//   - []Resource: one resource per layout entry
	//   - error: ErrNotStaged or ErrResourceKind
	Resolve(desc wgpu.BindGroupLayoutDescriptor) ([]Resource, error)

	// Init creates the buffers, textures and sampler named by desc and the bind group.
	// Resources staged for bindings desc does not name are left on the host.
	//
	// Parameters:
	//   - device: the device creating the GPU objects
	//   - queue: the queue uploading texture contents
	//   - layout: the created layout for desc
	//   - desc: the layout descriptor of the provider's group
	//
	// Returns:
	//   - error: any Resolve error or GPU creation failure
	Init(device *wgpu.Device, queue *wgpu.Queue, layout *wgpu.BindGroupLayout, desc wgpu.BindGroupLayoutDescriptor) error

	// Flush writes every pending buffer write to the queue.
	//
	// Parameters:
	//   - queue: the device queue
	//
	// Returns:
	//   - error: the first failed write
	Flush(queue *wgpu.Queue) error

	// BindGroup returns the created bind group, or nil before Init.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// Buffer returns the created buffer for a binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding uint32) *wgpu.Buffer

	// Release releases every GPU object held by this provider. Staged resources are kept, so
	// the provider can be initialized again.
	Release()
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a provider for one bind group.
//
// Parameters:
//   - label: the debug label
//   - group: the bind group index
//   - options: the resources to stage
//
// Returns:
//   - BindGroupProvider: the provider
//   - error: ErrWrongGroup if an option stages a slot of another group
func NewBindGroupProvider(label string, group int, options ...BindGroupProviderOption) (BindGroupProvider, error) {
	p := &bindGroupProvider{
		label:  label,
		group:  group,
		staged: make(map[uint32]Resource),
	}
	var errs []error
	for _, opt := range options {
		if err := opt(p); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("bind group provider %s: %w", label, err)
	}
	return p, nil
}

func (p *bindGroupProvider) stage(r Resource) error {
	if r.Slot.Group() != p.group {
		return fmt.Errorf("%w: %s is in group %d, provider fills group %d", ErrWrongGroup, r.Slot, r.Slot.Group(), p.group)
	}
	p.staged[r.Slot.Binding()] = r
	return nil
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Group() int {
	return p.group
}

func (p *bindGroupProvider) Bindings() []uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]uint32, 0, len(p.staged))
	for b := range p.staged {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p *bindGroupProvider) Resource(binding uint32) (Resource, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.staged[binding]
	return r, ok
}

func (p *bindGroupProvider) Stage(slot geometry.BindingSlot, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.stage(Resource{Slot: slot, Data: data}); err != nil {
		return err
	}
	binding := slot.Binding()
	if p.buffers[binding] == nil {
		return nil
	}
	if size := p.bufferSizes[binding]; uint64(len(data)) > size {
		return fmt.Errorf("%w: %s: %d bytes into %d", ErrBufferTooSmall, slot, len(data), size)
	}
	p.pending = append(p.pending, BufferWrite{Binding: binding, Data: data})
	return nil
}

func (p *bindGroupProvider) Pending() []BufferWrite {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]BufferWrite(nil), p.pending...)
}

func (p *bindGroupProvider) Resolve(desc wgpu.BindGroupLayoutDescriptor) ([]Resource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolve(desc)
}

func (p *bindGroupProvider) resolve(desc wgpu.BindGroupLayoutDescriptor) ([]Resource, error) {
	out := make([]Resource, len(desc.Entries))
	for i, e := range desc.Entries {
		r, ok := p.staged[e.Binding]
		if !ok {
			return nil, fmt.Errorf("%w: %s group %d binding %d", ErrNotStaged, p.label, p.group, e.Binding)
		}
		if want, got := entryKind(e), r.kind(); want != got {
			return nil, fmt.Errorf("%w: %s binding %d wants a %s, staged a %s", ErrResourceKind, p.label, e.Binding, want, got)
		}
		out[i] = r
	}
	return out, nil
}

func (p *bindGroupProvider) Init(device *wgpu.Device, queue *wgpu.Queue, layout *wgpu.BindGroupLayout, desc wgpu.BindGroupLayoutDescriptor) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	resources, err := p.resolve(desc)
	if err != nil {
		return err
	}
	p.release()
	p.buffers = make(map[uint32]*wgpu.Buffer)
	p.bufferSizes = make(map[uint32]uint64)
	p.textures = make(map[uint32]*wgpu.Texture)
	p.textureViews = make(map[uint32]*wgpu.TextureView)
	p.samplers = make(map[uint32]*wgpu.Sampler)

	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		r := resources[i]
		entries[i] = wgpu.BindGroupEntry{Binding: e.Binding}
		switch r.kind() {
		case "texture":
			view, err := p.initTexture(device, queue, e.Binding, r)
			if err != nil {
				p.release()
				return err
			}
			entries[i].TextureView = view
		case "sampler":
			samp, err := device.CreateSampler(&wgpu.SamplerDescriptor{
				Label:         p.label + " Sampler",
				AddressModeU:  wgpu.AddressModeRepeat,
				AddressModeV:  wgpu.AddressModeRepeat,
				AddressModeW:  wgpu.AddressModeRepeat,
				MagFilter:     wgpu.FilterModeLinear,
				MinFilter:     wgpu.FilterModeLinear,
				MipmapFilter:  wgpu.MipmapFilterModeLinear,
				LodMaxClamp:   32,
				MaxAnisotropy: 1,
			})
			if err != nil {
				p.release()
				return err
			}
			p.samplers[e.Binding] = samp
			entries[i].Sampler = samp
		default:
			contents := padBuffer(r.Data, e.Buffer.MinBindingSize)
			buf, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
				Label:    fmt.Sprintf("%s %s Buffer", p.label, r.Slot),
				Contents: contents,
				Usage:    bufferUsage(e.Buffer.Type),
			})
			if err != nil {
				p.release()
				return err
			}
			p.buffers[e.Binding] = buf
			p.bufferSizes[e.Binding] = uint64(len(contents))
			entries[i].Buffer = buf
			entries[i].Size = wgpu.WholeSize
		}
	}

	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.label + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		p.release()
		return err
	}
	p.bindGroup = bindGroup
	p.pending = nil
	common.Logger().Debug("initialized bind group", "label", p.label, "group", p.group, "entries", len(entries))
	return nil
}

func (p *bindGroupProvider) initTexture(device *wgpu.Device, queue *wgpu.Queue, binding uint32, r Resource) (*wgpu.TextureView, error) {
	t := r.Texture
	if t.Width <= 0 || t.Height <= 0 || len(t.Pixels) < t.Width*t.Height*4 {
		return nil, fmt.Errorf("%s: texture %s is not decoded", p.label, t.Name)
	}
	extent := wgpu.Extent3D{Width: uint32(t.Width), Height: uint32(t.Height), DepthOrArrayLayers: 1}
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         fmt.Sprintf("%s %s Texture", p.label, r.Slot),
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          extent,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}
	p.textures[binding] = tex

	queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: tex, Aspect: wgpu.TextureAspectAll},
		t.Pixels,
		&wgpu.TextureDataLayout{BytesPerRow: uint32(t.Width) * 4, RowsPerImage: uint32(t.Height)},
		&extent,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		return nil, err
	}
	p.textureViews[binding] = view
	return view, nil
}

func (p *bindGroupProvider) Flush(queue *wgpu.Queue) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, w := range p.pending {
		buf := p.buffers[w.Binding]
		if buf == nil {
			continue
		}
		if err := queue.WriteBuffer(buf, w.Offset, w.Data); err != nil {
			p.pending = p.pending[i:]
			return fmt.Errorf("%s binding %d: %w", p.label, w.Binding, err)
		}
	}
	p.pending = nil
	return nil
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bindGroup
}

func (p *bindGroupProvider) Buffer(binding uint32) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffers[binding]
}

func (p *bindGroupProvider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.release()
}

func (p *bindGroupProvider) release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for i, tv := range p.textureViews {
		tv.Release()
		delete(p.textureViews, i)
	}
	for i, t := range p.textures {
		t.Release()
		delete(p.textures, i)
	}
	for i, s := range p.samplers {
		s.Release()
		delete(p.samplers, i)
	}
	for i, buf := range p.buffers {
		buf.Release()
		delete(p.buffers, i)
		delete(p.bufferSizes, i)
	}
	p.pending = nil
}

// bufferUsage maps a layout buffer type to the usage of the buffer behind it.
func bufferUsage(t wgpu.BufferBindingType) wgpu.BufferUsage {
	switch t {
	case wgpu.BufferBindingTypeStorage, wgpu.BufferBindingTypeReadOnlyStorage:
		return wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
	default:
		return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	}
}

// padBuffer grows data to at least minSize bytes and to a multiple of 4, as buffer writes
// require.
func padBuffer(data []byte, minSize uint64) []byte {
	size := max(uint64(len(data)), minSize, 4)
	size = (size + 3) &^ 3
	if size == uint64(len(data)) {
		return data
	}
	out := make([]byte, size)
	copy(out, data)
	return out
}
