package command

import (
	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Constructors for the calls content code issues most. They cannot fail because the args type is fixed.

func NewCreateProgram(h Handle) *CommandBuffer {
	return build(KindCreateProgram, HandleArgs{Handle: h})
}

func NewDeleteProgram(h Handle) *CommandBuffer {
	return build(KindDeleteProgram, HandleArgs{Handle: h})
}

func NewCreateShader(h Handle, t ShaderType) *CommandBuffer {
	return build(KindCreateShader, CreateShaderArgs{Handle: h, Type: t})
}

func NewDeleteShader(h Handle) *CommandBuffer {
	return build(KindDeleteShader, HandleArgs{Handle: h})
}

func NewShaderSource(shader Handle, source string) *CommandBuffer {
	return build(KindShaderSource, ShaderSourceArgs{Shader: shader, Source: source})
}

func NewCompileShader(shader Handle) *CommandBuffer {
	return build(KindCompileShader, HandleArgs{Handle: shader})
}

func NewAttachShader(program, shader Handle) *CommandBuffer {
	return build(KindAttachShader, AttachShaderArgs{Program: program, Shader: shader})
}

func NewLinkProgram(program Handle) *CommandBuffer {
	return build(KindLinkProgram, HandleArgs{Handle: program})
}

func NewUseProgram(program Handle) *CommandBuffer {
	return build(KindUseProgram, HandleArgs{Handle: program})
}

func NewCreateBuffer(h Handle) *CommandBuffer {
	return build(KindCreateBuffer, HandleArgs{Handle: h})
}

func NewDeleteBuffer(h Handle) *CommandBuffer {
	return build(KindDeleteBuffer, HandleArgs{Handle: h})
}

func NewBindBuffer(target BufferTarget, buffer Handle) *CommandBuffer {
	return build(KindBindBuffer, BindBufferArgs{Target: target, Buffer: buffer})
}

// NewBufferData copies data into the command's payload.
func NewBufferData(target BufferTarget, data []byte, usage BufferUsage) *CommandBuffer {
	return build(KindBufferData, BufferDataArgs{Target: target, Data: data, Usage: usage})
}

func NewCreateTexture(h Handle) *CommandBuffer {
	return build(KindCreateTexture, HandleArgs{Handle: h})
}

func NewDeleteTexture(h Handle) *CommandBuffer {
	return build(KindDeleteTexture, HandleArgs{Handle: h})
}

func NewBindTexture(target TextureTarget, texture Handle) *CommandBuffer {
	return build(KindBindTexture, BindTextureArgs{Target: target, Texture: texture})
}

// NewTexImage2D validates and copies image into the command's payload.
//
// Parameters:
//   - level: mip level
//   - image: the staged pixels
//
// Returns:
//   - *CommandBuffer: the command
//   - error: ErrInvalidArgs if the pixel data does not match the declared size
func NewTexImage2D(level int32, image common.TextureStagingData) (*CommandBuffer, error) {
	return New(KindTexImage2D, TexImage2DArgs{Target: TextureTarget2D, Level: level, Image: image})
}

func NewCreateFramebuffer(h Handle) *CommandBuffer {
	return build(KindCreateFramebuffer, HandleArgs{Handle: h})
}

func NewBindFramebuffer(h Handle) *CommandBuffer {
	return build(KindBindFramebuffer, HandleArgs{Handle: h})
}

func NewUniformMatrix4fv(location int32, m mgl32.Mat4) *CommandBuffer {
	return build(KindUniformMatrix4fv, UniformMatrix4fvArgs{Location: location, Value: m})
}

func NewUniform4f(location int32, x, y, z, w float32) *CommandBuffer {
	return build(KindUniform4f, Uniform4fArgs{Location: location, X: x, Y: y, Z: z, W: w})
}

func NewVertexAttribPointer(index uint32, size int32, t DataType, normalized bool, stride, offset int32) *CommandBuffer {
	return build(KindVertexAttribPointer, VertexAttribPointerArgs{
		Index: index, Size: size, Type: t, Normalized: normalized, Stride: stride, Offset: offset,
	})
}

func NewEnableVertexAttribArray(index uint32) *CommandBuffer {
	return build(KindEnableVertexAttribArray, VertexAttribArrayArgs{Index: index})
}

func NewClearColor(c common.Color) *CommandBuffer {
	return build(KindClearColor, ClearColorArgs{Color: c})
}

func NewClear(mask ClearMask) *CommandBuffer {
	return build(KindClear, ClearArgs{Mask: mask})
}

func NewViewport(x, y, width, height int32) *CommandBuffer {
	return build(KindViewport, RectArgs{X: x, Y: y, Width: width, Height: height})
}

func NewEnable(c Capability) *CommandBuffer {
	return build(KindEnable, CapabilityArgs{Cap: c})
}

func NewDrawArrays(mode PrimitiveMode, first, count int32) *CommandBuffer {
	return build(KindDrawArrays, DrawArraysArgs{Mode: mode, First: first, Count: count})
}

func NewDrawElements(mode PrimitiveMode, count int32, t DataType, offset int32) *CommandBuffer {
	return build(KindDrawElements, DrawElementsArgs{Mode: mode, Count: count, Type: t, Offset: offset})
}

func NewGetError() *CommandBuffer {
	return build(KindGetError, NoArgs{})
}

func NewGetParameter(p Parameter) *CommandBuffer {
	return build(KindGetParameter, GetParameterArgs{Param: p})
}

func NewGetShaderParameter(shader Handle, p Parameter) *CommandBuffer {
	return build(KindGetShaderParameter, ObjectParameterArgs{Object: shader, Param: p})
}

func NewGetProgramParameter(program Handle, p Parameter) *CommandBuffer {
	return build(KindGetProgramParameter, ObjectParameterArgs{Object: program, Param: p})
}

func NewGetUniformLocation(program Handle, name string) *CommandBuffer {
	return build(KindGetUniformLocation, LocationQueryArgs{Program: program, Name: name})
}

func NewGetAttribLocation(program Handle, name string) *CommandBuffer {
	return build(KindGetAttribLocation, LocationQueryArgs{Program: program, Name: name})
}

func NewCheckFramebufferStatus() *CommandBuffer {
	return build(KindCheckFramebufferStatus, NoArgs{})
}

func NewFinish() *CommandBuffer {
	return build(KindFinish, NoArgs{})
}
