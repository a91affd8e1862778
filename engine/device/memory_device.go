package device

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/command"
)

// MemoryDevice is the reference Device. It keeps the complete GL-style state machine in memory: client
// handles map to plain objects, bindings and fixed-function state are tracked, and errors follow GL sticky
// semantics (the first error raised is kept until GetError reads it).
// The WebGPU device uses a MemoryDevice as its state tracker.
type MemoryDevice struct {
	mu *sync.Mutex

	programs     map[command.Handle]*programObject
	shaders      map[command.Handle]*shaderObject
	buffers      map[command.Handle]*bufferObject
	textures     map[command.Handle]*textureObject
	framebuffers map[command.Handle]*framebufferObject

	currentProgram command.Handle
	arrayBuffer    command.Handle
	elementBuffer  command.Handle
	uniformBuffer  command.Handle
	activeUnit     uint32
	boundTextures  [MaxTextureUnits]command.Handle
	framebuffer    command.Handle

	clearColor common.Color
	viewport   [4]int32
	scissor    [4]int32
	caps       map[command.Capability]bool
	depthFunc  command.CompareFunc
	blendSrc   command.BlendFactor
	blendDst   command.BlendFactor
	attribs    [MaxVertexAttribs]vertexAttrib

	err            command.ErrorCode
	maxTextureSize int32
	activeEye      int
	closed         bool
	stats          Stats
}

var _ Device = &MemoryDevice{}

type programObject struct {
	shaders        []command.Handle
	linked         bool
	deletePending  bool
	vertexSource   string
	fragmentSource string
	uniforms       map[string]int32
	uniformValues  map[int32][]float32
	attribs        map[string]int32
}

type shaderObject struct {
	typ      command.ShaderType
	source   string
	compiled bool
}

type bufferObject struct {
	target command.BufferTarget
	usage  command.BufferUsage
	data   []byte
}

type textureObject struct {
	width  uint32
	height uint32
	format common.PixelFormat
	levels int32
	pixels []byte
	params map[command.TextureParam]int32
}

type framebufferObject struct{}

type vertexAttrib struct {
	enabled    bool
	buffer     command.Handle
	size       int32
	typ        command.DataType
	normalized bool
	stride     int32
	offset     int32
}

// NewMemoryDevice creates a reference device with default GL state.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *MemoryDevice: the device
func NewMemoryDevice(options ...MemoryDeviceOption) *MemoryDevice {
	d := &MemoryDevice{
		mu:             &sync.Mutex{},
		programs:       make(map[command.Handle]*programObject),
		shaders:        make(map[command.Handle]*shaderObject),
		buffers:        make(map[command.Handle]*bufferObject),
		textures:       make(map[command.Handle]*textureObject),
		framebuffers:   make(map[command.Handle]*framebufferObject),
		caps:           make(map[command.Capability]bool),
		depthFunc:      command.CompareLess,
		blendSrc:       command.BlendOne,
		blendDst:       command.BlendZero,
		maxTextureSize: DefaultMaxTextureSize,
		activeEye:      -1,
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *MemoryDevice) Execute(cb *command.CommandBuffer) (command.Result, error) {
	if cb == nil {
		return command.Result{}, ErrNilCommand
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.executeLocked(cb)
}

func (d *MemoryDevice) executeLocked(cb *command.CommandBuffer) (command.Result, error) {
	if d.closed {
		return command.Result{}, ErrClosed
	}
	if cb.Released() {
		return command.Result{}, fmt.Errorf("%w: %v", ErrCommandReleased, cb.Kind())
	}
	apply := applyTable[cb.Kind()]
	if apply == nil {
		return command.Result{}, fmt.Errorf("%w: %v", command.ErrUnknownKind, cb.Kind())
	}
	d.stats.Executed++
	return apply(d, cb.Args()), nil
}

func (d *MemoryDevice) BeginPass(eye int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.beginPassLocked(eye)
}

func (d *MemoryDevice) beginPassLocked(eye int) error {
	if d.closed {
		return ErrClosed
	}
	if !validEye(eye) {
		return fmt.Errorf("%w: %d", ErrInvalidEye, eye)
	}
	if d.activeEye >= 0 {
		return fmt.Errorf("%w: eye %d", ErrPassActive, d.activeEye)
	}
	d.activeEye = eye
	return nil
}

func (d *MemoryDevice) EndPass(eye int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.endPassLocked(eye)
}

func (d *MemoryDevice) endPassLocked(eye int) error {
	if d.closed {
		return ErrClosed
	}
	if !validEye(eye) {
		return fmt.Errorf("%w: %d", ErrInvalidEye, eye)
	}
	if d.activeEye != eye {
		return fmt.Errorf("%w: eye %d", ErrNoActivePass, eye)
	}
	d.activeEye = -1
	d.stats.Passes++
	return nil
}

func (d *MemoryDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	clear(d.programs)
	clear(d.shaders)
	clear(d.buffers)
	clear(d.textures)
	clear(d.framebuffers)
	return nil
}

func (d *MemoryDevice) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.LiveObjects = d.liveObjectsLocked()
	return s
}

func (d *MemoryDevice) liveObjectsLocked() int {
	return len(d.programs) + len(d.shaders) + len(d.buffers) + len(d.textures) + len(d.framebuffers)
}

// ActiveEye returns the eye of the open pass, or -1 outside a pass.
func (d *MemoryDevice) ActiveEye() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activeEye
}

// PendingError returns the sticky error without clearing it.
func (d *MemoryDevice) PendingError() command.ErrorCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// ClearColor returns the current clear color.
func (d *MemoryDevice) ClearColor() common.Color {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clearColor
}

// Viewport returns the current viewport as x, y, width, height.
func (d *MemoryDevice) Viewport() [4]int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewport
}

// CurrentProgram returns the program installed by UseProgram, or 0.
func (d *MemoryDevice) CurrentProgram() command.Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentProgram
}

// IsEnabled reports whether a capability is enabled.
func (d *MemoryDevice) IsEnabled(c command.Capability) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.caps[c]
}

// BufferContents returns a copy of a buffer's data store.
//
// Parameters:
//   - h: the buffer handle
//
// Returns:
//   - []byte: the data, nil if no data was uploaded
//   - bool: false if no buffer with that handle exists
func (d *MemoryDevice) BufferContents(h command.Handle) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[h]
	if !ok {
		return nil, false
	}
	if b.data == nil {
		return nil, true
	}
	return append([]byte(nil), b.data...), true
}

// TextureSize returns the level 0 size of a texture.
func (d *MemoryDevice) TextureSize(h command.Handle) (width, height uint32, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[h]
	if !ok {
		return 0, 0, false
	}
	return t.width, t.height, true
}

// UniformValue returns the last value written to a uniform location of a program.
func (d *MemoryDevice) UniformValue(program command.Handle, location int32) ([]float32, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.programs[program]
	if !ok {
		return nil, false
	}
	v, ok := p.uniformValues[location]
	return v, ok
}

// raise records an error detected outside the state machine, such as a backend failure.
func (d *MemoryDevice) raise(code command.ErrorCode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail(code)
}

// fail raises code on the sticky error flag and returns it as the command's result.
func (d *MemoryDevice) fail(code command.ErrorCode) command.Result {
	if d.err == command.NoError {
		d.err = code
	}
	d.stats.Errors++
	return command.Result{Error: code}
}

func (d *MemoryDevice) recordDraw() {
	if d.activeEye >= 0 {
		d.stats.Draws[d.activeEye]++
		return
	}
	d.stats.ImmediateDraws++
}

func (d *MemoryDevice) framebufferStatus() int32 {
	if d.framebuffer == 0 {
		return command.FramebufferComplete
	}
	// Framebuffers carry no attachment commands, so a bound user framebuffer is never complete.
	return command.FramebufferIncompleteMissingAttach
}

func (d *MemoryDevice) bufferSlot(target command.BufferTarget) *command.Handle {
	switch target {
	case command.BufferTargetArray:
		return &d.arrayBuffer
	case command.BufferTargetElementArray:
		return &d.elementBuffer
	case command.BufferTargetUniform:
		return &d.uniformBuffer
	}
	return nil
}

// releaseProgramIfPending deletes a program flagged for deletion once it is no longer current.
func (d *MemoryDevice) releaseProgramIfPending(h command.Handle) {
	if h == 0 || h == d.currentProgram {
		return
	}
	if p, ok := d.programs[h]; ok && p.deletePending {
		delete(d.programs, h)
	}
}
