package device

import (
	"strings"

	"github.com/Carmen-Shannon/oxy-xr/engine/command"
)

// applyFunc executes one command kind against the reference state. The args type is guaranteed by
// command.New, so each function asserts it directly. Called with the device lock held.
type applyFunc func(d *MemoryDevice, args command.Args) command.Result

var applyTable = [command.KindCount]applyFunc{
	command.KindCreateProgram:            createProgram,
	command.KindDeleteProgram:            deleteProgram,
	command.KindAttachShader:             attachShader,
	command.KindLinkProgram:              linkProgram,
	command.KindUseProgram:               useProgram,
	command.KindCreateShader:             createShader,
	command.KindDeleteShader:             deleteShader,
	command.KindShaderSource:             shaderSource,
	command.KindCompileShader:            compileShader,
	command.KindCreateBuffer:             createBuffer,
	command.KindDeleteBuffer:             deleteBuffer,
	command.KindBindBuffer:               bindBuffer,
	command.KindBufferData:               bufferData,
	command.KindBufferSubData:            bufferSubData,
	command.KindCreateTexture:            createTexture,
	command.KindDeleteTexture:            deleteTexture,
	command.KindBindTexture:              bindTexture,
	command.KindTexImage2D:               texImage2D,
	command.KindTexParameteri:            texParameteri,
	command.KindActiveTexture:            activeTexture,
	command.KindCreateFramebuffer:        createFramebuffer,
	command.KindDeleteFramebuffer:        deleteFramebuffer,
	command.KindBindFramebuffer:          bindFramebuffer,
	command.KindUniform1f:                uniform1f,
	command.KindUniform1i:                uniform1i,
	command.KindUniform3f:                uniform3f,
	command.KindUniform4f:                uniform4f,
	command.KindUniformMatrix4fv:         uniformMatrix4fv,
	command.KindVertexAttribPointer:      vertexAttribPointer,
	command.KindEnableVertexAttribArray:  enableVertexAttribArray,
	command.KindDisableVertexAttribArray: disableVertexAttribArray,
	command.KindClearColor:               clearColor,
	command.KindClear:                    clearTarget,
	command.KindViewport:                 viewport,
	command.KindScissor:                  scissor,
	command.KindEnable:                   enable,
	command.KindDisable:                  disable,
	command.KindDepthFunc:                depthFunc,
	command.KindBlendFunc:                blendFunc,
	command.KindDrawArrays:               drawArrays,
	command.KindDrawElements:             drawElements,
	command.KindGetError:                 getError,
	command.KindGetParameter:             getParameter,
	command.KindGetShaderParameter:       getShaderParameter,
	command.KindGetProgramParameter:      getProgramParameter,
	command.KindGetUniformLocation:       getUniformLocation,
	command.KindGetAttribLocation:        getAttribLocation,
	command.KindCheckFramebufferStatus:   checkFramebufferStatus,
	command.KindFinish:                   finish,
}

// programs and shaders

func createProgram(d *MemoryDevice, args command.Args) command.Result {
	h := args.(command.HandleArgs).Handle
	if h == 0 {
		return d.fail(command.InvalidValue)
	}
	if _, ok := d.programs[h]; ok {
		return d.fail(command.InvalidOperation)
	}
	d.programs[h] = &programObject{
		uniforms:      make(map[string]int32),
		uniformValues: make(map[int32][]float32),
		attribs:       make(map[string]int32),
	}
	return command.Result{Handle: h}
}

func deleteProgram(d *MemoryDevice, args command.Args) command.Result {
	h := args.(command.HandleArgs).Handle
	if h == 0 {
		return command.Result{}
	}
	p, ok := d.programs[h]
	if !ok {
		return d.fail(command.InvalidValue)
	}
	p.deletePending = true
	d.releaseProgramIfPending(h)
	return command.Result{Handle: h}
}

func attachShader(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.AttachShaderArgs)
	p, ok := d.programs[a.Program]
	s, sok := d.shaders[a.Shader]
	if !ok || !sok {
		return d.fail(command.InvalidValue)
	}
	for _, h := range p.shaders {
		if h == a.Shader {
			return d.fail(command.InvalidOperation)
		}
		if other, ok := d.shaders[h]; ok && other.typ == s.typ {
			return d.fail(command.InvalidOperation)
		}
	}
	p.shaders = append(p.shaders, a.Shader)
	return command.Result{}
}

func linkProgram(d *MemoryDevice, args command.Args) command.Result {
	h := args.(command.HandleArgs).Handle
	p, ok := d.programs[h]
	if !ok {
		return d.fail(command.InvalidValue)
	}

	p.linked = false
	p.vertexSource, p.fragmentSource = "", ""
	clear(p.uniforms)
	clear(p.uniformValues)
	clear(p.attribs)

	var vertex, fragment bool
	for _, sh := range p.shaders {
		s, ok := d.shaders[sh]
		if !ok || !s.compiled {
			continue
		}
		switch s.typ {
		case command.ShaderTypeVertex:
			vertex = true
			p.vertexSource = s.source
		case command.ShaderTypeFragment:
			fragment = true
			p.fragmentSource = s.source
		}
	}
	p.linked = vertex && fragment
	return command.Result{Handle: h, Bool: p.linked}
}

func useProgram(d *MemoryDevice, args command.Args) command.Result {
	h := args.(command.HandleArgs).Handle
	prev := d.currentProgram
	if h == 0 {
		d.currentProgram = 0
		d.releaseProgramIfPending(prev)
		return command.Result{}
	}
	p, ok := d.programs[h]
	if !ok || p.deletePending {
		return d.fail(command.InvalidValue)
	}
	if !p.linked {
		return d.fail(command.InvalidOperation)
	}
	d.currentProgram = h
	d.releaseProgramIfPending(prev)
	return command.Result{Handle: h}
}

func createShader(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.CreateShaderArgs)
	if a.Handle == 0 {
		return d.fail(command.InvalidValue)
	}
	if a.Type != command.ShaderTypeVertex && a.Type != command.ShaderTypeFragment {
		return d.fail(command.InvalidEnum)
	}
	if _, ok := d.shaders[a.Handle]; ok {
		return d.fail(command.InvalidOperation)
	}
	d.shaders[a.Handle] = &shaderObject{typ: a.Type}
	return command.Result{Handle: a.Handle}
}

func deleteShader(d *MemoryDevice, args command.Args) command.Result {
	h := args.(command.HandleArgs).Handle
	if h == 0 {
		return command.Result{}
	}
	if _, ok := d.shaders[h]; !ok {
		return d.fail(command.InvalidValue)
	}
	delete(d.shaders, h)
	return command.Result{Handle: h}
}

func shaderSource(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.ShaderSourceArgs)
	s, ok := d.shaders[a.Shader]
	if !ok {
		return d.fail(command.InvalidValue)
	}
	s.source = a.Source
	s.compiled = false
	return command.Result{}
}

func compileShader(d *MemoryDevice, args command.Args) command.Result {
	s, ok := d.shaders[args.(command.HandleArgs).Handle]
	if !ok {
		return d.fail(command.InvalidValue)
	}
	s.compiled = strings.TrimSpace(s.source) != ""
	return command.Result{Bool: s.compiled}
}

// buffers

func createBuffer(d *MemoryDevice, args command.Args) command.Result {
	h := args.(command.HandleArgs).Handle
	if h == 0 {
		return d.fail(command.InvalidValue)
	}
	if _, ok := d.buffers[h]; ok {
		return d.fail(command.InvalidOperation)
	}
	d.buffers[h] = &bufferObject{}
	return command.Result{Handle: h}
}

func deleteBuffer(d *MemoryDevice, args command.Args) command.Result {
	h := args.(command.HandleArgs).Handle
	if h == 0 {
		return command.Result{}
	}
	if _, ok := d.buffers[h]; !ok {
		return d.fail(command.InvalidValue)
	}
	delete(d.buffers, h)
	for _, slot := range []*command.Handle{&d.arrayBuffer, &d.elementBuffer, &d.uniformBuffer} {
		if *slot == h {
			*slot = 0
		}
	}
	return command.Result{Handle: h}
}

func bindBuffer(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.BindBufferArgs)
	slot := d.bufferSlot(a.Target)
	if slot == nil {
		return d.fail(command.InvalidEnum)
	}
	if a.Buffer == 0 {
		*slot = 0
		return command.Result{}
	}
	b, ok := d.buffers[a.Buffer]
	if !ok {
		return d.fail(command.InvalidOperation)
	}
	// Element array buffers never share a binding point with other targets.
	if b.target != 0 && b.target != a.Target &&
		(b.target == command.BufferTargetElementArray || a.Target == command.BufferTargetElementArray) {
		return d.fail(command.InvalidOperation)
	}
	if b.target == 0 {
		b.target = a.Target
	}
	*slot = a.Buffer
	return command.Result{Handle: a.Buffer}
}

func bufferData(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.BufferDataArgs)
	slot := d.bufferSlot(a.Target)
	if slot == nil {
		return d.fail(command.InvalidEnum)
	}
	switch a.Usage {
	case command.BufferUsageStreamDraw, command.BufferUsageStaticDraw, command.BufferUsageDynamicDraw:
	default:
		return d.fail(command.InvalidEnum)
	}
	if *slot == 0 {
		return d.fail(command.InvalidOperation)
	}
	b := d.buffers[*slot]
	b.data = make([]byte, len(a.Data))
	copy(b.data, a.Data)
	b.usage = a.Usage
	return command.Result{Handle: *slot, Int: int32(len(a.Data))}
}

func bufferSubData(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.BufferSubDataArgs)
	slot := d.bufferSlot(a.Target)
	if slot == nil {
		return d.fail(command.InvalidEnum)
	}
	if *slot == 0 {
		return d.fail(command.InvalidOperation)
	}
	b := d.buffers[*slot]
	if a.Offset < 0 || a.Offset > len(b.data) || len(a.Data) > len(b.data)-a.Offset {
		return d.fail(command.InvalidValue)
	}
	copy(b.data[a.Offset:], a.Data)
	return command.Result{Handle: *slot}
}

// textures

func createTexture(d *MemoryDevice, args command.Args) command.Result {
	h := args.(command.HandleArgs).Handle
	if h == 0 {
		return d.fail(command.InvalidValue)
	}
	if _, ok := d.textures[h]; ok {
		return d.fail(command.InvalidOperation)
	}
	d.textures[h] = &textureObject{params: make(map[command.TextureParam]int32)}
	return command.Result{Handle: h}
}

func deleteTexture(d *MemoryDevice, args command.Args) command.Result {
	h := args.(command.HandleArgs).Handle
	if h == 0 {
		return command.Result{}
	}
	if _, ok := d.textures[h]; !ok {
		return d.fail(command.InvalidValue)
	}
	delete(d.textures, h)
	for i := range d.boundTextures {
		if d.boundTextures[i] == h {
			d.boundTextures[i] = 0
		}
	}
	return command.Result{Handle: h}
}

func bindTexture(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.BindTextureArgs)
	if a.Target != command.TextureTarget2D {
		return d.fail(command.InvalidEnum)
	}
	if a.Texture != 0 {
		if _, ok := d.textures[a.Texture]; !ok {
			return d.fail(command.InvalidOperation)
		}
	}
	d.boundTextures[d.activeUnit] = a.Texture
	return command.Result{Handle: a.Texture}
}

func texImage2D(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.TexImage2DArgs)
	if a.Target != command.TextureTarget2D {
		return d.fail(command.InvalidEnum)
	}
	h := d.boundTextures[d.activeUnit]
	if h == 0 {
		return d.fail(command.InvalidOperation)
	}
	if a.Level < 0 || a.Level > 31 {
		return d.fail(command.InvalidValue)
	}
	limit := uint32(d.maxTextureSize) >> uint32(a.Level)
	if a.Image.Width > limit || a.Image.Height > limit {
		return d.fail(command.InvalidValue)
	}

	t := d.textures[h]
	if a.Level == 0 {
		t.width, t.height, t.format = a.Image.Width, a.Image.Height, a.Image.Format
		t.pixels = nil
		if a.Image.Pixels != nil {
			t.pixels = append([]byte(nil), a.Image.Pixels...)
		}
	}
	t.levels = max(t.levels, a.Level+1)
	return command.Result{Handle: h}
}

func texParameteri(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.TexParameteriArgs)
	if a.Target != command.TextureTarget2D {
		return d.fail(command.InvalidEnum)
	}
	switch a.Param {
	case command.TextureParamMagFilter, command.TextureParamMinFilter,
		command.TextureParamWrapS, command.TextureParamWrapT:
	default:
		return d.fail(command.InvalidEnum)
	}
	h := d.boundTextures[d.activeUnit]
	if h == 0 {
		return d.fail(command.InvalidOperation)
	}
	d.textures[h].params[a.Param] = a.Value
	return command.Result{}
}

func activeTexture(d *MemoryDevice, args command.Args) command.Result {
	unit := args.(command.ActiveTextureArgs).Unit
	if unit < command.TextureUnit0 || unit >= command.TextureUnit0+MaxTextureUnits {
		return d.fail(command.InvalidEnum)
	}
	d.activeUnit = unit - command.TextureUnit0
	return command.Result{}
}

// framebuffers

func createFramebuffer(d *MemoryDevice, args command.Args) command.Result {
	h := args.(command.HandleArgs).Handle
	if h == 0 {
		return d.fail(command.InvalidValue)
	}
	if _, ok := d.framebuffers[h]; ok {
		return d.fail(command.InvalidOperation)
	}
	d.framebuffers[h] = &framebufferObject{}
	return command.Result{Handle: h}
}

func deleteFramebuffer(d *MemoryDevice, args command.Args) command.Result {
	h := args.(command.HandleArgs).Handle
	if h == 0 {
		return command.Result{}
	}
	if _, ok := d.framebuffers[h]; !ok {
		return d.fail(command.InvalidValue)
	}
	delete(d.framebuffers, h)
	if d.framebuffer == h {
		d.framebuffer = 0
	}
	return command.Result{Handle: h}
}

func bindFramebuffer(d *MemoryDevice, args command.Args) command.Result {
	h := args.(command.HandleArgs).Handle
	if h != 0 {
		if _, ok := d.framebuffers[h]; !ok {
			return d.fail(command.InvalidOperation)
		}
	}
	d.framebuffer = h
	return command.Result{Handle: h}
}

// uniforms

// setUniform stores values at a location of the current program. Location -1 is silently ignored.
func setUniform(d *MemoryDevice, location int32, values ...float32) command.Result {
	if d.currentProgram == 0 {
		return d.fail(command.InvalidOperation)
	}
	if location == -1 {
		return command.Result{}
	}
	p := d.programs[d.currentProgram]
	known := false
	for _, loc := range p.uniforms {
		if loc == location {
			known = true
			break
		}
	}
	if !known {
		return d.fail(command.InvalidOperation)
	}
	p.uniformValues[location] = values
	return command.Result{}
}

func uniform1f(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.Uniform1fArgs)
	return setUniform(d, a.Location, a.X)
}

func uniform1i(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.Uniform1iArgs)
	return setUniform(d, a.Location, float32(a.X))
}

func uniform3f(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.Uniform3fArgs)
	return setUniform(d, a.Location, a.X, a.Y, a.Z)
}

func uniform4f(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.Uniform4fArgs)
	return setUniform(d, a.Location, a.X, a.Y, a.Z, a.W)
}

func uniformMatrix4fv(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.UniformMatrix4fvArgs)
	if a.Transpose {
		return d.fail(command.InvalidValue)
	}
	m := a.Value
	return setUniform(d, a.Location, m[:]...)
}

// vertex attributes

func vertexAttribPointer(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.VertexAttribPointerArgs)
	if a.Index >= MaxVertexAttribs || a.Size < 1 || a.Size > 4 {
		return d.fail(command.InvalidValue)
	}
	if a.Type.Size() == 0 {
		return d.fail(command.InvalidEnum)
	}
	if a.Stride < 0 || a.Stride > 255 || a.Offset < 0 {
		return d.fail(command.InvalidValue)
	}
	if d.arrayBuffer == 0 && a.Offset != 0 {
		return d.fail(command.InvalidOperation)
	}
	attr := &d.attribs[a.Index]
	attr.buffer = d.arrayBuffer
	attr.size = a.Size
	attr.typ = a.Type
	attr.normalized = a.Normalized
	attr.stride = a.Stride
	attr.offset = a.Offset
	return command.Result{}
}

func enableVertexAttribArray(d *MemoryDevice, args command.Args) command.Result {
	return setAttribEnabled(d, args.(command.VertexAttribArrayArgs).Index, true)
}

func disableVertexAttribArray(d *MemoryDevice, args command.Args) command.Result {
	return setAttribEnabled(d, args.(command.VertexAttribArrayArgs).Index, false)
}

func setAttribEnabled(d *MemoryDevice, index uint32, enabled bool) command.Result {
	if index >= MaxVertexAttribs {
		return d.fail(command.InvalidValue)
	}
	d.attribs[index].enabled = enabled
	return command.Result{}
}

// fixed-function state

func clearColor(d *MemoryDevice, args command.Args) command.Result {
	c := args.(command.ClearColorArgs).Color
	c.R, c.G, c.B, c.A = clamp01(c.R), clamp01(c.G), clamp01(c.B), clamp01(c.A)
	d.clearColor = c
	return command.Result{}
}

func clearTarget(d *MemoryDevice, args command.Args) command.Result {
	mask := args.(command.ClearArgs).Mask
	if mask&^(command.ClearColorBit|command.ClearDepthBit|command.ClearStencilBit) != 0 {
		return d.fail(command.InvalidValue)
	}
	if d.framebufferStatus() != command.FramebufferComplete {
		return d.fail(command.InvalidFramebufferOperation)
	}
	d.stats.Clears++
	return command.Result{}
}

func viewport(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.RectArgs)
	if a.Width < 0 || a.Height < 0 {
		return d.fail(command.InvalidValue)
	}
	d.viewport = [4]int32{a.X, a.Y, a.Width, a.Height}
	return command.Result{}
}

func scissor(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.RectArgs)
	if a.Width < 0 || a.Height < 0 {
		return d.fail(command.InvalidValue)
	}
	d.scissor = [4]int32{a.X, a.Y, a.Width, a.Height}
	return command.Result{}
}

func enable(d *MemoryDevice, args command.Args) command.Result {
	return setCapability(d, args.(command.CapabilityArgs).Cap, true)
}

func disable(d *MemoryDevice, args command.Args) command.Result {
	return setCapability(d, args.(command.CapabilityArgs).Cap, false)
}

func setCapability(d *MemoryDevice, c command.Capability, on bool) command.Result {
	switch c {
	case command.CapabilityCullFace, command.CapabilityDepthTest, command.CapabilityBlend, command.CapabilityScissorTest:
	default:
		return d.fail(command.InvalidEnum)
	}
	d.caps[c] = on
	return command.Result{}
}

func depthFunc(d *MemoryDevice, args command.Args) command.Result {
	f := args.(command.DepthFuncArgs).Func
	if f < command.CompareNever || f > command.CompareAlways {
		return d.fail(command.InvalidEnum)
	}
	d.depthFunc = f
	return command.Result{}
}

func blendFunc(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.BlendFuncArgs)
	if !validBlendFactor(a.Src) || !validBlendFactor(a.Dst) {
		return d.fail(command.InvalidEnum)
	}
	d.blendSrc, d.blendDst = a.Src, a.Dst
	return command.Result{}
}

// draws

func drawArrays(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.DrawArraysArgs)
	if !validPrimitive(a.Mode) {
		return d.fail(command.InvalidEnum)
	}
	if a.First < 0 || a.Count < 0 {
		return d.fail(command.InvalidValue)
	}
	if code := drawPreconditions(d); code != command.NoError {
		return d.fail(code)
	}
	if a.Count > 0 {
		d.recordDraw()
	}
	return command.Result{}
}

func drawElements(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.DrawElementsArgs)
	if !validPrimitive(a.Mode) {
		return d.fail(command.InvalidEnum)
	}
	if a.Count < 0 || a.Offset < 0 {
		return d.fail(command.InvalidValue)
	}
	switch a.Type {
	case command.DataTypeUnsignedByte, command.DataTypeUnsignedShort, command.DataTypeUnsignedInt:
	default:
		return d.fail(command.InvalidEnum)
	}
	if code := drawPreconditions(d); code != command.NoError {
		return d.fail(code)
	}
	if d.elementBuffer == 0 {
		return d.fail(command.InvalidOperation)
	}
	size := a.Type.Size()
	if int(a.Offset)%size != 0 || int(a.Offset)+int(a.Count)*size > len(d.buffers[d.elementBuffer].data) {
		return d.fail(command.InvalidOperation)
	}
	if a.Count > 0 {
		d.recordDraw()
	}
	return command.Result{}
}

func drawPreconditions(d *MemoryDevice) command.ErrorCode {
	if d.currentProgram == 0 {
		return command.InvalidOperation
	}
	if d.framebufferStatus() != command.FramebufferComplete {
		return command.InvalidFramebufferOperation
	}
	for _, attr := range d.attribs {
		if !attr.enabled {
			continue
		}
		if _, ok := d.buffers[attr.buffer]; !ok {
			return command.InvalidOperation
		}
	}
	return command.NoError
}

// queries

func getError(d *MemoryDevice, _ command.Args) command.Result {
	code := d.err
	d.err = command.NoError
	return command.Result{Error: code}
}

func getParameter(d *MemoryDevice, args command.Args) command.Result {
	switch args.(command.GetParameterArgs).Param {
	case command.ParamCurrentProgram:
		return command.Result{Handle: d.currentProgram, Int: int32(d.currentProgram)}
	case command.ParamViewport:
		v := d.viewport
		return command.Result{Floats: []float32{float32(v[0]), float32(v[1]), float32(v[2]), float32(v[3])}}
	case command.ParamColorClearValue:
		c := d.clearColor
		return command.Result{Floats: []float32{c.R, c.G, c.B, c.A}}
	case command.ParamMaxTextureSize:
		return command.Result{Int: d.maxTextureSize}
	case command.ParamActiveTexture:
		return command.Result{Int: int32(command.TextureUnit0 + d.activeUnit)}
	}
	return d.fail(command.InvalidEnum)
}

func getShaderParameter(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.ObjectParameterArgs)
	s, ok := d.shaders[a.Object]
	if !ok {
		return d.fail(command.InvalidValue)
	}
	switch a.Param {
	case command.ParamShaderType:
		return command.Result{Int: int32(s.typ)}
	case command.ParamCompileStatus:
		return command.Result{Bool: s.compiled}
	case command.ParamDeleteStatus:
		return command.Result{Bool: false}
	}
	return d.fail(command.InvalidEnum)
}

func getProgramParameter(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.ObjectParameterArgs)
	p, ok := d.programs[a.Object]
	if !ok {
		return d.fail(command.InvalidValue)
	}
	switch a.Param {
	case command.ParamLinkStatus:
		return command.Result{Bool: p.linked}
	case command.ParamDeleteStatus:
		return command.Result{Bool: p.deletePending}
	case command.ParamAttachedShaders:
		return command.Result{Int: int32(len(p.shaders))}
	}
	return d.fail(command.InvalidEnum)
}

func getUniformLocation(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.LocationQueryArgs)
	return locate(d, a, func(p *programObject) (map[string]int32, []string) {
		return p.uniforms, []string{p.vertexSource, p.fragmentSource}
	})
}

func getAttribLocation(d *MemoryDevice, args command.Args) command.Result {
	a := args.(command.LocationQueryArgs)
	return locate(d, a, func(p *programObject) (map[string]int32, []string) {
		return p.attribs, []string{p.vertexSource}
	})
}

// locate resolves a name against a linked program's sources, assigning locations in first-query order.
// Unknown and reserved names resolve to -1.
func locate(d *MemoryDevice, a command.LocationQueryArgs, table func(*programObject) (map[string]int32, []string)) command.Result {
	p, ok := d.programs[a.Program]
	if !ok {
		r := d.fail(command.InvalidValue)
		r.Int = -1
		return r
	}
	if !p.linked {
		r := d.fail(command.InvalidOperation)
		r.Int = -1
		return r
	}

	locations, sources := table(p)
	if loc, ok := locations[a.Name]; ok {
		return command.Result{Int: loc}
	}
	if a.Name == "" || strings.HasPrefix(a.Name, "gl_") || strings.HasPrefix(a.Name, "webgl_") {
		return command.Result{Int: -1}
	}
	for _, src := range sources {
		if strings.Contains(src, a.Name) {
			loc := int32(len(locations))
			locations[a.Name] = loc
			return command.Result{Int: loc}
		}
	}
	return command.Result{Int: -1}
}

func checkFramebufferStatus(d *MemoryDevice, _ command.Args) command.Result {
	return command.Result{Int: d.framebufferStatus()}
}

func finish(_ *MemoryDevice, _ command.Args) command.Result {
	return command.Result{}
}

func validPrimitive(m command.PrimitiveMode) bool {
	switch m {
	case command.PrimitivePoints, command.PrimitiveLines, command.PrimitiveLineStrip,
		command.PrimitiveTriangles, command.PrimitiveTriangleStrip:
		return true
	}
	return false
}

func validBlendFactor(f command.BlendFactor) bool {
	switch f {
	case command.BlendZero, command.BlendOne, command.BlendSrcAlpha, command.BlendOneMinusSrcAlpha:
		return true
	}
	return false
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}
