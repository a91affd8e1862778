package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/command"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuDeviceImpl executes command buffers on a WebGPU device. GL-style state, validation and queries are
// handled by a MemoryDevice tracker; this type realizes the accepted commands as wgpu objects and encodes
// draws into one render pass per eye.
//
// WGSL programs are linked from one vertex and one fragment module, using the configured entry points.
// Pipelines use an automatic layout and vertex attribute i is read from shader location i.
type wgpuDeviceImpl struct {
	mu      *sync.Mutex
	tracker *MemoryDevice

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceDescriptor    *wgpu.SurfaceDescriptor
	forceFallbackAdapter bool
	presentMode          wgpu.PresentMode
	format               wgpu.TextureFormat
	width, height        uint32
	vertexEntry          string
	fragmentEntry        string

	eyes [EyeCount]eyeTarget

	buffers   map[command.Handle]*wgpu.Buffer
	textures  map[command.Handle]*gpuTexture
	programs  map[command.Handle]*gpuProgram
	pipelines map[command.Handle]map[string]*wgpu.RenderPipeline

	activeEye    int
	encoder      *wgpu.CommandEncoder
	pass         *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	closed       bool
}

type eyeTarget struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

type gpuTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

type gpuProgram struct {
	vertex   *wgpu.ShaderModule
	fragment *wgpu.ShaderModule
}

var _ Device = &wgpuDeviceImpl{}

// errNoPass is raised when a command needs a render pass and none is open.
var errNoPass = errors.New("no render pass open")

// NewWGPUDevice opens a WebGPU adapter and device. Without WithSurface the device is headless and both
// eyes render offscreen; with a surface the left eye is presented to it.
// The device must be driven from a single goroutine, the one that created it.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Device: the device
//   - error: an error if no adapter or device could be obtained
func NewWGPUDevice(options ...WGPUDeviceOption) (Device, error) {
	d := &wgpuDeviceImpl{
		mu:            &sync.Mutex{},
		tracker:       NewMemoryDevice(),
		presentMode:   wgpu.PresentModeFifo,
		format:        wgpu.TextureFormatRGBA8Unorm,
		width:         1280,
		height:        720,
		vertexEntry:   "vs_main",
		fragmentEntry: "fs_main",
		buffers:       make(map[command.Handle]*wgpu.Buffer),
		textures:      make(map[command.Handle]*gpuTexture),
		programs:      make(map[command.Handle]*gpuProgram),
		pipelines:     make(map[command.Handle]map[string]*wgpu.RenderPipeline),
		activeEye:     -1,
	}
	for _, opt := range options {
		opt(d)
	}

	d.instance = wgpu.CreateInstance(nil)
	if d.surfaceDescriptor != nil {
		d.surface = d.instance.CreateSurface(d.surfaceDescriptor)
	}

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		d.releaseInstance()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	d.adapter = adapter

	dev, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "oxy-xr device",
	})
	if err != nil {
		d.releaseInstance()
		return nil, fmt.Errorf("request device: %w", err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	if d.surface != nil {
		capabilities := d.surface.GetCapabilities(adapter)
		d.format = common.Coalesce(capabilities.Formats...)
		d.surface.Configure(adapter, dev, &wgpu.SurfaceConfiguration{
			Usage:       wgpu.TextureUsageRenderAttachment,
			Format:      d.format,
			Width:       d.width,
			Height:      d.height,
			PresentMode: d.presentMode,
			AlphaMode:   capabilities.AlphaModes[0],
		})
	}

	for eye := range d.eyes {
		if err := d.createEyeTarget(eye); err != nil {
			d.releaseAll()
			return nil, fmt.Errorf("create eye %d target: %w", eye, err)
		}
	}

	common.Logger().Info("wgpu device opened",
		"width", d.width, "height", d.height, "surface", d.surface != nil, "format", d.format)
	return d, nil
}

func (d *wgpuDeviceImpl) createEyeTarget(eye int) error {
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: fmt.Sprintf("Eye %d Color Target", eye),
		Size: wgpu.Extent3D{
			Width:              d.width,
			Height:             d.height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        d.format,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	d.eyes[eye] = eyeTarget{texture: tex, view: view}
	return nil
}

func (d *wgpuDeviceImpl) Execute(cb *command.CommandBuffer) (command.Result, error) {
	if cb == nil {
		return command.Result{}, ErrNilCommand
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return command.Result{}, ErrClosed
	}

	r, err := d.tracker.Execute(cb)
	if err != nil || r.Error != command.NoError {
		return r, err
	}
	realize := realizeTable[cb.Kind()]
	if realize == nil {
		return r, nil
	}
	if err := realize(d, cb.Args(), r); err != nil {
		common.Logger().Warn("wgpu command failed", "command", cb.String(), "error", err)
		d.tracker.raise(command.InvalidOperation)
		r.Error = command.InvalidOperation
	}
	return r, nil
}

func (d *wgpuDeviceImpl) BeginPass(eye int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := d.tracker.BeginPass(eye); err != nil {
		return err
	}

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		_ = d.tracker.EndPass(eye)
		return err
	}

	if eye == 0 && d.surface != nil {
		surfaceTexture, err := d.surface.GetCurrentTexture()
		if err != nil {
			encoder.Release()
			_ = d.tracker.EndPass(eye)
			return err
		}
		view, err := surfaceTexture.CreateView(nil)
		if err != nil {
			surfaceTexture.Release()
			encoder.Release()
			_ = d.tracker.EndPass(eye)
			return err
		}
		d.frameSurface = surfaceTexture
		d.frameView = view
	}

	d.encoder = encoder
	d.activeEye = eye
	return nil
}

func (d *wgpuDeviceImpl) EndPass(eye int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := d.tracker.EndPass(eye); err != nil {
		return err
	}

	if d.pass != nil {
		d.pass.End()
		d.pass = nil
	}
	commandBuffer, err := d.encoder.Finish(nil)
	if err == nil {
		d.queue.Submit(commandBuffer)
		commandBuffer.Release()
	}
	d.encoder.Release()
	d.encoder = nil
	d.activeEye = -1

	if d.frameSurface != nil {
		if err == nil {
			d.surface.Present()
		}
		d.frameView.Release()
		d.frameSurface.Release()
		d.frameView = nil
		d.frameSurface = nil
	}
	return err
}

func (d *wgpuDeviceImpl) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.releaseAll()
	return d.tracker.Close()
}

func (d *wgpuDeviceImpl) Stats() Stats {
	return d.tracker.Stats()
}

// targetView returns the color attachment of the active eye.
func (d *wgpuDeviceImpl) targetView() *wgpu.TextureView {
	if d.activeEye == 0 && d.frameView != nil {
		return d.frameView
	}
	return d.eyes[d.activeEye].view
}

// beginRenderPass ends any open render pass and begins a new one on the active eye.
func (d *wgpuDeviceImpl) beginRenderPass(load wgpu.LoadOp) error {
	if d.encoder == nil {
		return errNoPass
	}
	if d.pass != nil {
		d.pass.End()
		d.pass = nil
	}

	c := d.tracker.clearColor
	d.pass = d.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    d.targetView(),
				LoadOp:  load,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A),
				},
			},
		},
	})
	d.applyViewport()
	return nil
}

// renderPass returns the open render pass, beginning one that preserves the target if needed.
func (d *wgpuDeviceImpl) renderPass() (*wgpu.RenderPassEncoder, error) {
	if d.pass == nil {
		if err := d.beginRenderPass(wgpu.LoadOpLoad); err != nil {
			return nil, err
		}
	}
	return d.pass, nil
}

// applyViewport sets the tracked viewport on the open pass, clamped to the eye target.
func (d *wgpuDeviceImpl) applyViewport() {
	if d.pass == nil {
		return
	}
	v := d.tracker.viewport
	if v[2] <= 0 || v[3] <= 0 {
		return
	}
	x := min(max(float32(v[0]), 0), float32(d.width))
	y := min(max(float32(v[1]), 0), float32(d.height))
	w := min(float32(v[2]), float32(d.width)-x)
	h := min(float32(v[3]), float32(d.height)-y)
	if w <= 0 || h <= 0 {
		return
	}
	d.pass.SetViewport(x, y, w, h, 0, 1)
}

func (d *wgpuDeviceImpl) releaseInstance() {
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

func (d *wgpuDeviceImpl) releaseAll() {
	if d.pass != nil {
		d.pass.End()
		d.pass = nil
	}
	if d.encoder != nil {
		d.encoder.Release()
		d.encoder = nil
	}
	if d.frameView != nil {
		d.frameView.Release()
		d.frameView = nil
	}
	if d.frameSurface != nil {
		d.frameSurface.Release()
		d.frameSurface = nil
	}
	for h := range d.pipelines {
		d.dropPipelines(h)
	}
	for h, p := range d.programs {
		p.release()
		delete(d.programs, h)
	}
	for h, b := range d.buffers {
		b.Release()
		delete(d.buffers, h)
	}
	for h, t := range d.textures {
		t.release()
		delete(d.textures, h)
	}
	for i := range d.eyes {
		if d.eyes[i].view != nil {
			d.eyes[i].view.Release()
		}
		if d.eyes[i].texture != nil {
			d.eyes[i].texture.Release()
		}
		d.eyes[i] = eyeTarget{}
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	d.releaseInstance()
}

func (d *wgpuDeviceImpl) dropPipelines(program command.Handle) {
	for _, p := range d.pipelines[program] {
		p.Release()
	}
	delete(d.pipelines, program)
}

func (p *gpuProgram) release() {
	if p.vertex != nil {
		p.vertex.Release()
	}
	if p.fragment != nil {
		p.fragment.Release()
	}
}

func (t *gpuTexture) release() {
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
}
