package command

import (
	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Args is the typed argument set of one command kind. The set of implementations is closed:
// every kind accepts exactly one Args type, checked by New.
type Args interface {
	isArgs()
}

// NoArgs is used by kinds without arguments (GetError, CheckFramebufferStatus, Finish).
type NoArgs struct{}

// HandleArgs names one object by client handle. Used by create/delete kinds and the
// single-object operations (LinkProgram, UseProgram, CompileShader, BindFramebuffer).
type HandleArgs struct {
	Handle Handle
}

type CreateShaderArgs struct {
	Handle Handle
	Type   ShaderType
}

type AttachShaderArgs struct {
	Program Handle
	Shader  Handle
}

type ShaderSourceArgs struct {
	Shader Handle
	Source string
}

type BindBufferArgs struct {
	Target BufferTarget
	Buffer Handle
}

// BufferDataArgs uploads a full buffer store. Data is copied into an owned payload by New.
type BufferDataArgs struct {
	Target BufferTarget
	Data   []byte
	Usage  BufferUsage
}

// BufferSubDataArgs updates a range of a buffer store. Data is copied into an owned payload by New.
type BufferSubDataArgs struct {
	Target BufferTarget
	Offset int
	Data   []byte
}

type BindTextureArgs struct {
	Target  TextureTarget
	Texture Handle
}

// TexImage2DArgs allocates and optionally uploads a texture level.
// Image.Pixels is copied into an owned payload by New; nil Pixels allocates without upload.
type TexImage2DArgs struct {
	Target TextureTarget
	Level  int32
	Image  common.TextureStagingData
}

type TexParameteriArgs struct {
	Target TextureTarget
	Param  TextureParam
	Value  int32
}

// ActiveTextureArgs selects a texture unit. Unit is TextureUnit0 + n.
type ActiveTextureArgs struct {
	Unit uint32
}

type Uniform1fArgs struct {
	Location int32
	X        float32
}

type Uniform1iArgs struct {
	Location int32
	X        int32
}

type Uniform3fArgs struct {
	Location int32
	X, Y, Z  float32
}

type Uniform4fArgs struct {
	Location   int32
	X, Y, Z, W float32
}

type UniformMatrix4fvArgs struct {
	Location  int32
	Transpose bool
	Value     mgl32.Mat4
}

type VertexAttribPointerArgs struct {
	Index      uint32
	Size       int32
	Type       DataType
	Normalized bool
	Stride     int32
	Offset     int32
}

type VertexAttribArrayArgs struct {
	Index uint32
}

type ClearColorArgs struct {
	Color common.Color
}

type ClearArgs struct {
	Mask ClearMask
}

// RectArgs is shared by Viewport and Scissor.
type RectArgs struct {
	X, Y, Width, Height int32
}

// CapabilityArgs is shared by Enable and Disable.
type CapabilityArgs struct {
	Cap Capability
}

type DepthFuncArgs struct {
	Func CompareFunc
}

type BlendFuncArgs struct {
	Src BlendFactor
	Dst BlendFactor
}

type DrawArraysArgs struct {
	Mode  PrimitiveMode
	First int32
	Count int32
}

type DrawElementsArgs struct {
	Mode   PrimitiveMode
	Count  int32
	Type   DataType
	Offset int32
}

type GetParameterArgs struct {
	Param Parameter
}

// ObjectParameterArgs is shared by GetShaderParameter and GetProgramParameter.
type ObjectParameterArgs struct {
	Object Handle
	Param  Parameter
}

// LocationQueryArgs is shared by GetUniformLocation and GetAttribLocation.
type LocationQueryArgs struct {
	Program Handle
	Name    string
}

func (NoArgs) isArgs()                  {}
func (HandleArgs) isArgs()              {}
func (CreateShaderArgs) isArgs()        {}
func (AttachShaderArgs) isArgs()        {}
func (ShaderSourceArgs) isArgs()        {}
func (BindBufferArgs) isArgs()          {}
func (BufferDataArgs) isArgs()          {}
func (BufferSubDataArgs) isArgs()       {}
func (BindTextureArgs) isArgs()         {}
func (TexImage2DArgs) isArgs()          {}
func (TexParameteriArgs) isArgs()       {}
func (ActiveTextureArgs) isArgs()       {}
func (Uniform1fArgs) isArgs()           {}
func (Uniform1iArgs) isArgs()           {}
func (Uniform3fArgs) isArgs()           {}
func (Uniform4fArgs) isArgs()           {}
func (UniformMatrix4fvArgs) isArgs()    {}
func (VertexAttribPointerArgs) isArgs() {}
func (VertexAttribArrayArgs) isArgs()   {}
func (ClearColorArgs) isArgs()          {}
func (ClearArgs) isArgs()               {}
func (RectArgs) isArgs()                {}
func (CapabilityArgs) isArgs()          {}
func (DepthFuncArgs) isArgs()           {}
func (BlendFuncArgs) isArgs()           {}
func (DrawArraysArgs) isArgs()          {}
func (DrawElementsArgs) isArgs()        {}
func (GetParameterArgs) isArgs()        {}
func (ObjectParameterArgs) isArgs()     {}
func (LocationQueryArgs) isArgs()       {}
