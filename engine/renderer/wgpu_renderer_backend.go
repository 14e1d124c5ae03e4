package renderer

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-shade/common"
)

// ColorFormat is the format of the offscreen color target. It is linear so the read back
// pixels match the CPU reference rasterizer.
const ColorFormat = wgpu.TextureFormatRGBA8Unorm

// ErrReadback reports a failed map of the readback buffer.
var ErrReadback = errors.New("renderer: readback failed")

// renderTarget is an offscreen color and depth attachment pair sized for one frame.
type renderTarget struct {
	width, height int
	color         *wgpu.Texture
	colorView     *wgpu.TextureView
	depth         *wgpu.Texture
	depthView     *wgpu.TextureView
}

func (t *renderTarget) release() {
	for _, v := range []*wgpu.TextureView{t.colorView, t.depthView} {
		if v != nil {
			v.Release()
		}
	}
	for _, tex := range []*wgpu.Texture{t.color, t.depth} {
		if tex != nil {
			tex.Release()
		}
	}
}

// wgpuRendererBackendImpl is the implementation of the wgpuRendererBackend interface.
type wgpuRendererBackendImpl struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

// wgpuRendererBackend is a headless WebGPU device that draws into offscreen targets and
// reads them back.
type wgpuRendererBackend interface {
	// Device returns the logical device.
	Device() *wgpu.Device

	// Queue returns the device queue.
	Queue() *wgpu.Queue

	// CreateTarget allocates a color target and a depth target of the given size.
	//
	// Parameters:
	//   - width: target width in pixels
	//   - height: target height in pixels
	//   - depthFormat: the depth format the pipelines were built with
	//
	// Returns:
	//   - *renderTarget: the target, released by the caller
	//   - error: error if texture creation fails
	CreateTarget(width, height int, depthFormat wgpu.TextureFormat) (*renderTarget, error)

	// DrawFrame clears the target, records one draw per plan and submits the pass.
	//
	// Parameters:
	//   - target: the offscreen target
	//   - clear: the clear color
	//   - draws: initialized draw plans
	//
	// Returns:
	//   - error: error if command encoding fails
	DrawFrame(target *renderTarget, clear [4]float32, draws []*drawPlan) error

	// ReadTarget copies the color target into host memory.
	//
	// Parameters:
	//   - target: the offscreen target
	//
	// Returns:
	//   - *image.RGBA: the pixels
	//   - error: ErrReadback or a command failure
	ReadTarget(target *renderTarget) (*image.RGBA, error)

	// Release releases the device, adapter and instance.
	Release()
}

var _ wgpuRendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(forceFallbackAdapter bool, powerPreference wgpu.PowerPreference) (wgpuRendererBackend, error) {
	w := &wgpuRendererBackendImpl{
		mu:       &sync.Mutex{},
		instance: wgpu.CreateInstance(nil),
	}

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		PowerPreference:      powerPreference,
	})
	if err != nil {
		w.instance.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Headless Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		a.Release()
		w.instance.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()
	return w, nil
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) CreateTarget(width, height int, depthFormat wgpu.TextureFormat) (*renderTarget, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := &renderTarget{width: width, height: height}
	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}

	var err error
	t.color, err = b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Color Target",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        ColorFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, err
	}
	if t.colorView, err = t.color.CreateView(nil); err != nil {
		t.release()
		return nil, err
	}

	t.depth, err = b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Target",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.release()
		return nil, err
	}
	if t.depthView, err = t.depth.CreateView(nil); err != nil {
		t.release()
		return nil, err
	}
	return t, nil
}

func (b *wgpuRendererBackendImpl) DrawFrame(target *renderTarget, clear [4]float32, draws []*drawPlan) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    target.colorView,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: float64(clear[0]), G: float64(clear[1]), B: float64(clear[2]), A: float64(clear[3]),
				},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            target.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	for _, d := range draws {
		pass.SetPipeline(d.pipeline.RenderPipeline())
		for _, bg := range d.providers {
			pass.SetBindGroup(uint32(bg.Group()), bg.BindGroup(), nil)
		}
		pass.Draw(d.vertexCount, 1, 0, 0)
	}
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()
	b.queue.Submit(commandBuffer)
	return nil
}

func (b *wgpuRendererBackendImpl) ReadTarget(target *renderTarget) (*image.RGBA, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rowBytes := uint64(target.width) * 4
	paddedRow := paddedRowSize(rowBytes)
	size := paddedRow * uint64(target.height)

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Readback Buffer",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	defer buf.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	defer encoder.Release()
	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{Texture: target.color, Aspect: wgpu.TextureAspectAll},
		&wgpu.ImageCopyBuffer{
			Buffer: buf,
			Layout: wgpu.TextureDataLayout{BytesPerRow: uint32(paddedRow), RowsPerImage: uint32(target.height)},
		},
		&wgpu.Extent3D{Width: uint32(target.width), Height: uint32(target.height), DepthOrArrayLayers: 1},
	)
	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return nil, err
	}
	defer commandBuffer.Release()
	b.queue.Submit(commandBuffer)

	var status wgpu.BufferMapAsyncStatus
	if err := buf.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	}); err != nil {
		return nil, err
	}
	b.device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("%w: status %v", ErrReadback, status)
	}
	defer buf.Unmap()

	img := image.NewRGBA(image.Rect(0, 0, target.width, target.height))
	unpadRows(img.Pix, buf.GetMappedRange(0, uint(size)), int(rowBytes), int(paddedRow), target.height)
	common.Logger().Debug("read back target", "width", target.width, "height", target.height, "bytes", size)
	return img, nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// paddedRowSize rounds a row up to the copy row alignment.
func paddedRowSize(rowBytes uint64) uint64 {
	align := uint64(wgpu.CopyBytesPerRowAlignment)
	return (rowBytes + align - 1) / align * align
}

// unpadRows copies height rows of rowBytes each from a buffer with paddedRow stride.
func unpadRows(dst, src []byte, rowBytes, paddedRow, height int) {
	for y := range height {
		copy(dst[y*rowBytes:(y+1)*rowBytes], src[y*paddedRow:y*paddedRow+rowBytes])
	}
}
