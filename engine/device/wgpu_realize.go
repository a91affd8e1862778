package device

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/command"
	"github.com/cogentcore/webgpu/wgpu"
)

// realizeFunc mirrors a command the tracker accepted onto wgpu objects. r is the tracker's result.
// Kinds without an entry only change tracked state.
type realizeFunc func(d *wgpuDeviceImpl, args command.Args, r command.Result) error

var realizeTable = [command.KindCount]realizeFunc{
	command.KindDeleteProgram: realizeDeleteProgram,
	command.KindLinkProgram:   realizeLinkProgram,
	command.KindUseProgram:    realizeUseProgram,
	command.KindCompileShader: realizeCompileShader,
	command.KindDeleteBuffer:  realizeDeleteBuffer,
	command.KindBufferData:    realizeBufferData,
	command.KindBufferSubData: realizeBufferData,
	command.KindDeleteTexture: realizeDeleteTexture,
	command.KindTexImage2D:    realizeTexImage2D,
	command.KindClear:         realizeClear,
	command.KindViewport:      realizeViewport,
	command.KindDrawArrays:    realizeDrawArrays,
	command.KindDrawElements:  realizeDrawElements,
}

func realizeDeleteProgram(d *wgpuDeviceImpl, args command.Args, _ command.Result) error {
	h := args.(command.HandleArgs).Handle
	if _, live := d.tracker.programs[h]; live {
		// Still current; released when the tracker drops it.
		return nil
	}
	d.dropProgram(h)
	return nil
}

// realizeUseProgram releases the modules of programs the tracker deleted once they stopped being current.
func realizeUseProgram(d *wgpuDeviceImpl, _ command.Args, _ command.Result) error {
	for h := range d.programs {
		if _, live := d.tracker.programs[h]; !live {
			d.dropProgram(h)
		}
	}
	return nil
}

func (d *wgpuDeviceImpl) dropProgram(h command.Handle) {
	d.dropPipelines(h)
	if p, ok := d.programs[h]; ok {
		p.release()
		delete(d.programs, h)
	}
}

func realizeLinkProgram(d *wgpuDeviceImpl, args command.Args, r command.Result) error {
	h := args.(command.HandleArgs).Handle
	d.dropProgram(h)
	if !r.Bool {
		return nil
	}

	p := d.tracker.programs[h]
	vs, err := d.shaderModule(fmt.Sprintf("Program %d Vertex", h), p.vertexSource)
	if err != nil {
		return err
	}
	fs, err := d.shaderModule(fmt.Sprintf("Program %d Fragment", h), p.fragmentSource)
	if err != nil {
		vs.Release()
		return err
	}
	d.programs[h] = &gpuProgram{vertex: vs, fragment: fs}
	return nil
}

// realizeCompileShader validates the WGSL source by building a throwaway module.
func realizeCompileShader(d *wgpuDeviceImpl, args command.Args, r command.Result) error {
	if !r.Bool {
		return nil
	}
	h := args.(command.HandleArgs).Handle
	s := d.tracker.shaders[h]
	module, err := d.shaderModule(fmt.Sprintf("Shader %d", h), s.source)
	if err != nil {
		s.compiled = false
		return err
	}
	module.Release()
	return nil
}

func (d *wgpuDeviceImpl) shaderModule(label, source string) (*wgpu.ShaderModule, error) {
	return d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
}

func realizeDeleteBuffer(d *wgpuDeviceImpl, args command.Args, _ command.Result) error {
	h := args.(command.HandleArgs).Handle
	if buf, ok := d.buffers[h]; ok {
		buf.Release()
		delete(d.buffers, h)
	}
	return nil
}

// realizeBufferData re-uploads the tracker's copy of the buffer. Sub-range updates also re-upload the whole
// store, which keeps writes 4-byte aligned as the queue requires.
func realizeBufferData(d *wgpuDeviceImpl, _ command.Args, r command.Result) error {
	obj := d.tracker.buffers[r.Handle]
	size := alignTo4(max(len(obj.data), 4))

	buf, ok := d.buffers[r.Handle]
	if ok && buf.GetSize() != uint64(size) {
		buf.Release()
		delete(d.buffers, r.Handle)
		ok = false
	}
	if !ok {
		created, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            fmt.Sprintf("Buffer %d", r.Handle),
			Size:             uint64(size),
			Usage:            bufferUsage(obj.target) | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return err
		}
		d.buffers[r.Handle] = created
		buf = created
	}

	data := obj.data
	if len(data) != size {
		data = make([]byte, size)
		copy(data, obj.data)
	}
	d.queue.WriteBuffer(buf, 0, data)
	return nil
}

func bufferUsage(target command.BufferTarget) wgpu.BufferUsage {
	switch target {
	case command.BufferTargetElementArray:
		return wgpu.BufferUsageIndex
	case command.BufferTargetUniform:
		return wgpu.BufferUsageUniform
	}
	return wgpu.BufferUsageVertex
}

func alignTo4(n int) int {
	return (n + 3) &^ 3
}

func realizeDeleteTexture(d *wgpuDeviceImpl, args command.Args, _ command.Result) error {
	h := args.(command.HandleArgs).Handle
	if t, ok := d.textures[h]; ok {
		t.release()
		delete(d.textures, h)
	}
	return nil
}

// realizeTexImage2D allocates the texture for level 0 uploads. Other levels are tracked but not uploaded.
func realizeTexImage2D(d *wgpuDeviceImpl, args command.Args, r command.Result) error {
	a := args.(command.TexImage2DArgs)
	if a.Level != 0 || a.Image.Width == 0 || a.Image.Height == 0 {
		return nil
	}
	if old, ok := d.textures[r.Handle]; ok {
		old.release()
		delete(d.textures, r.Handle)
	}

	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     fmt.Sprintf("Texture %d", r.Handle),
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              a.Image.Width,
			Height:             a.Image.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}

	if a.Image.Pixels != nil {
		d.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			expandRGBA(a.Image),
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  a.Image.Width * 4,
				RowsPerImage: a.Image.Height,
			},
			&wgpu.Extent3D{
				Width:              a.Image.Width,
				Height:             a.Image.Height,
				DepthOrArrayLayers: 1,
			},
		)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	d.textures[r.Handle] = &gpuTexture{texture: tex, view: view}
	return nil
}

// expandRGBA converts staged pixels to tightly packed RGBA8.
func expandRGBA(img common.TextureStagingData) []byte {
	if img.Format == common.PixelFormatRGBA8 {
		return img.Pixels
	}
	n := int(img.Width) * int(img.Height)
	bpp := img.Format.BytesPerPixel()
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		src := img.Pixels[i*bpp : i*bpp+bpp]
		dst := out[i*4 : i*4+4]
		switch img.Format {
		case common.PixelFormatRGB8:
			dst[0], dst[1], dst[2] = src[0], src[1], src[2]
		case common.PixelFormatR8:
			dst[0], dst[1], dst[2] = src[0], src[0], src[0]
		}
		dst[3] = 0xFF
	}
	return out
}

// realizeClear starts a fresh render pass that clears the eye target to the tracked clear color.
// Outside a pass the clear has no target and only the tracker records it.
func realizeClear(d *wgpuDeviceImpl, args command.Args, _ command.Result) error {
	if d.encoder == nil || args.(command.ClearArgs).Mask&command.ClearColorBit == 0 {
		return nil
	}
	return d.beginRenderPass(wgpu.LoadOpClear)
}

func realizeViewport(d *wgpuDeviceImpl, _ command.Args, _ command.Result) error {
	d.applyViewport()
	return nil
}

func realizeDrawArrays(d *wgpuDeviceImpl, args command.Args, _ command.Result) error {
	a := args.(command.DrawArraysArgs)
	if a.Count == 0 || d.encoder == nil {
		return nil
	}
	pass, err := d.preparePipeline(a.Mode, wgpu.IndexFormatUndefined)
	if err != nil {
		return err
	}
	pass.Draw(uint32(a.Count), 1, uint32(a.First), 0)
	return nil
}

func realizeDrawElements(d *wgpuDeviceImpl, args command.Args, _ command.Result) error {
	a := args.(command.DrawElementsArgs)
	if a.Count == 0 || d.encoder == nil {
		return nil
	}
	var format wgpu.IndexFormat
	switch a.Type {
	case command.DataTypeUnsignedShort:
		format = wgpu.IndexFormatUint16
	case command.DataTypeUnsignedInt:
		format = wgpu.IndexFormatUint32
	default:
		return fmt.Errorf("index type 0x%04X not supported", uint32(a.Type))
	}

	indices, ok := d.buffers[d.tracker.elementBuffer]
	if !ok {
		return fmt.Errorf("element buffer %d has no data store", d.tracker.elementBuffer)
	}
	pass, err := d.preparePipeline(a.Mode, format)
	if err != nil {
		return err
	}
	pass.SetIndexBuffer(indices, format, uint64(a.Offset), wgpu.WholeSize)
	pass.DrawIndexed(uint32(a.Count), 1, 0, 0, 0)
	return nil
}

// preparePipeline binds the pipeline for the current program and vertex layout plus its vertex buffers.
func (d *wgpuDeviceImpl) preparePipeline(mode command.PrimitiveMode, indexFormat wgpu.IndexFormat) (*wgpu.RenderPassEncoder, error) {
	program := d.tracker.currentProgram
	mods, ok := d.programs[program]
	if !ok {
		return nil, fmt.Errorf("program %d has no modules", program)
	}

	var (
		layouts []wgpu.VertexBufferLayout
		slots   []*wgpu.Buffer
		offsets []uint64
		key     strings.Builder
	)
	fmt.Fprintf(&key, "%d/%d", mode, indexFormat)
	for i, attr := range d.tracker.attribs {
		if !attr.enabled {
			continue
		}
		format, ok := vertexFormat(attr.typ, attr.size)
		if !ok {
			return nil, fmt.Errorf("attribute %d: %d x 0x%04X not supported", i, attr.size, uint32(attr.typ))
		}
		buf, ok := d.buffers[attr.buffer]
		if !ok {
			return nil, fmt.Errorf("attribute %d: buffer %d has no data store", i, attr.buffer)
		}
		stride := uint64(attr.stride)
		if stride == 0 {
			stride = uint64(attr.size) * uint64(attr.typ.Size())
		}
		layouts = append(layouts, wgpu.VertexBufferLayout{
			ArrayStride: stride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{Format: format, Offset: 0, ShaderLocation: uint32(i)},
			},
		})
		slots = append(slots, buf)
		offsets = append(offsets, uint64(attr.offset))
		fmt.Fprintf(&key, "/%d:%d:%d", i, format, stride)
	}

	cache := d.pipelines[program]
	if cache == nil {
		cache = make(map[string]*wgpu.RenderPipeline)
		d.pipelines[program] = cache
	}
	pipeline, ok := cache[key.String()]
	if !ok {
		var err error
		pipeline, err = d.createPipeline(mods, layouts, mode, indexFormat)
		if err != nil {
			return nil, err
		}
		cache[key.String()] = pipeline
	}

	pass, err := d.renderPass()
	if err != nil {
		return nil, err
	}
	pass.SetPipeline(pipeline)
	for i, buf := range slots {
		pass.SetVertexBuffer(uint32(i), buf, offsets[i], wgpu.WholeSize)
	}
	return pass, nil
}

func (d *wgpuDeviceImpl) createPipeline(mods *gpuProgram, layouts []wgpu.VertexBufferLayout, mode command.PrimitiveMode, indexFormat wgpu.IndexFormat) (*wgpu.RenderPipeline, error) {
	topology := primitiveTopology(mode)
	primitive := wgpu.PrimitiveState{
		Topology:  topology,
		FrontFace: wgpu.FrontFaceCCW,
		CullMode:  wgpu.CullModeNone,
	}
	if topology == wgpu.PrimitiveTopologyLineStrip || topology == wgpu.PrimitiveTopologyTriangleStrip {
		primitive.StripIndexFormat = indexFormat
	}
	if d.tracker.caps[command.CapabilityCullFace] {
		primitive.CullMode = wgpu.CullModeBack
	}

	target := wgpu.ColorTargetState{
		Format:    d.format,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if d.tracker.caps[command.CapabilityBlend] {
		target.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: blendFactor(d.tracker.blendSrc),
				DstFactor: blendFactor(d.tracker.blendDst),
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	}

	return d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Program Render Pipeline",
		Vertex: wgpu.VertexState{
			Module:     mods.vertex,
			EntryPoint: d.vertexEntry,
			Buffers:    layouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     mods.fragment,
			EntryPoint: d.fragmentEntry,
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: primitive,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
}

func primitiveTopology(mode command.PrimitiveMode) wgpu.PrimitiveTopology {
	switch mode {
	case command.PrimitivePoints:
		return wgpu.PrimitiveTopologyPointList
	case command.PrimitiveLines:
		return wgpu.PrimitiveTopologyLineList
	case command.PrimitiveLineStrip:
		return wgpu.PrimitiveTopologyLineStrip
	case command.PrimitiveTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	}
	return wgpu.PrimitiveTopologyTriangleList
}

func vertexFormat(t command.DataType, size int32) (wgpu.VertexFormat, bool) {
	switch t {
	case command.DataTypeFloat:
		switch size {
		case 1:
			return wgpu.VertexFormatFloat32, true
		case 2:
			return wgpu.VertexFormatFloat32x2, true
		case 3:
			return wgpu.VertexFormatFloat32x3, true
		case 4:
			return wgpu.VertexFormatFloat32x4, true
		}
	case command.DataTypeUnsignedInt:
		switch size {
		case 1:
			return wgpu.VertexFormatUint32, true
		case 2:
			return wgpu.VertexFormatUint32x2, true
		case 3:
			return wgpu.VertexFormatUint32x3, true
		case 4:
			return wgpu.VertexFormatUint32x4, true
		}
	}
	return 0, false
}

func blendFactor(f command.BlendFactor) wgpu.BlendFactor {
	switch f {
	case command.BlendZero:
		return wgpu.BlendFactorZero
	case command.BlendSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case command.BlendOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	}
	return wgpu.BlendFactorOne
}
