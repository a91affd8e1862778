package main

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/command"
	"github.com/Carmen-Shannon/oxy-xr/engine/xr"
)

const (
	cubeVertexSource = `
@group(0) @binding(0) var<uniform> u_mvp: mat4x4<f32>;
@vertex fn vs_main(@location(0) a_position: vec3<f32>) -> @builtin(position) vec4<f32> {
	return u_mvp * vec4<f32>(a_position, 1.0);
}`
	cubeFragmentSource = `
@group(0) @binding(1) var<uniform> u_tint: vec4<f32>;
@fragment fn fs_main() -> @location(0) vec4<f32> {
	return u_tint;
}`
)

// cubeVertexData is a unit cube centred on the origin as 36 little-endian vec3<f32> positions.
var cubeVertexData = packFloats(cubePositions(0.5))

// cubeVertexCount is the number of vertices DrawArrays submits for the cube.
var cubeVertexCount = int32(len(cubeVertexData) / 12)

// cubePositions expands the 8 corners of a cube with half extent h into 12 triangles.
func cubePositions(h float32) []float32 {
	corners := [8][3]float32{
		{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
		{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
	}
	faces := [6][4]int{
		{4, 5, 6, 7}, // +z
		{1, 0, 3, 2}, // -z
		{0, 4, 7, 3}, // -x
		{5, 1, 2, 6}, // +x
		{3, 7, 6, 2}, // +y
		{0, 1, 5, 4}, // -y
	}

	out := make([]float32, 0, 6*6*3)
	for _, f := range faces {
		for _, i := range [6]int{f[0], f[1], f[2], f[0], f[2], f[3]} {
			out = append(out, corners[i][:]...)
		}
	}
	return out
}

func packFloats(values []float32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// cubeContent is the frame callback state of one simulated session. Its first frame creates the program
// and vertex buffer; every pass after that clears the eye and draws the cube.
type cubeContent struct {
	ctx     context.Context
	handles *command.HandleAllocator
	color   common.Color

	program command.Handle
	vbo     command.Handle
	ready   bool

	// maxTextureSize is answered by the render goroutine on the first frame.
	maxTextureSize int32
}

func newCubeContent(ctx context.Context, handles *command.HandleAllocator, color common.Color) *cubeContent {
	return &cubeContent{
		ctx:     ctx,
		handles: handles,
		color:   color,
	}
}

// frame is the session's xr.FrameCallback.
func (c *cubeContent) frame(fc *xr.FrameContext) error {
	if !c.ready {
		if fc.Pass != 0 {
			return nil
		}
		if err := fc.Add(c.setup()...); err != nil {
			return err
		}
		r, err := fc.Query(c.ctx, command.NewGetParameter(command.ParamMaxTextureSize))
		if err != nil {
			return err
		}
		c.maxTextureSize = r.Int
		c.ready = true
		common.Logger().Debug("session content created", "session", fc.Session.ID(), "program", c.program, "maxTextureSize", r.Int)
	}

	return fc.Add(
		command.NewClearColor(c.color),
		command.NewClear(command.ClearColorBit|command.ClearDepthBit),
		command.NewUseProgram(c.program),
		command.NewBindBuffer(command.BufferTargetArray, c.vbo),
		command.NewVertexAttribPointer(0, 3, command.DataTypeFloat, false, 0, 0),
		command.NewEnableVertexAttribArray(0),
		command.NewDrawArrays(command.PrimitiveTriangles, 0, cubeVertexCount),
	)
}

// setup allocates handles and returns the commands that build the cube's program and vertex buffer.
func (c *cubeContent) setup() []*command.CommandBuffer {
	c.program = c.handles.Next()
	vs, fs := c.handles.Next(), c.handles.Next()
	c.vbo = c.handles.Next()

	return []*command.CommandBuffer{
		command.NewCreateProgram(c.program),
		command.NewCreateShader(vs, command.ShaderTypeVertex),
		command.NewShaderSource(vs, cubeVertexSource),
		command.NewCompileShader(vs),
		command.NewCreateShader(fs, command.ShaderTypeFragment),
		command.NewShaderSource(fs, cubeFragmentSource),
		command.NewCompileShader(fs),
		command.NewAttachShader(c.program, vs),
		command.NewAttachShader(c.program, fs),
		command.NewLinkProgram(c.program),
		command.NewCreateBuffer(c.vbo),
		command.NewBindBuffer(command.BufferTargetArray, c.vbo),
		command.NewBufferData(command.BufferTargetArray, cubeVertexData, command.BufferUsageStaticDraw),
	}
}
