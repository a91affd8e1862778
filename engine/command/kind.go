package command

import (
	"fmt"
	"reflect"
)

// Kind tags a CommandBuffer with the graphics call it encodes.
type Kind uint8

const (
	KindCreateProgram Kind = iota
	KindDeleteProgram
	KindAttachShader
	KindLinkProgram
	KindUseProgram
	KindCreateShader
	KindDeleteShader
	KindShaderSource
	KindCompileShader
	KindCreateBuffer
	KindDeleteBuffer
	KindBindBuffer
	KindBufferData
	KindBufferSubData
	KindCreateTexture
	KindDeleteTexture
	KindBindTexture
	KindTexImage2D
	KindTexParameteri
	KindActiveTexture
	KindCreateFramebuffer
	KindDeleteFramebuffer
	KindBindFramebuffer
	KindUniform1f
	KindUniform1i
	KindUniform3f
	KindUniform4f
	KindUniformMatrix4fv
	KindVertexAttribPointer
	KindEnableVertexAttribArray
	KindDisableVertexAttribArray
	KindClearColor
	KindClear
	KindViewport
	KindScissor
	KindEnable
	KindDisable
	KindDepthFunc
	KindBlendFunc
	KindDrawArrays
	KindDrawElements
	KindGetError
	KindGetParameter
	KindGetShaderParameter
	KindGetProgramParameter
	KindGetUniformLocation
	KindGetAttribLocation
	KindCheckFramebufferStatus
	KindFinish

	// KindCount is the number of kinds. Tables indexed by Kind use it as their length.
	KindCount
)

// Class groups kinds by how they interact with frames and the producer.
type Class uint8

const (
	// ClassLifecycle creates or deletes a GPU-visible object. A frame holding one is never droppable.
	ClassLifecycle Class = iota
	// ClassState mutates device state or draws. It never blocks the producer.
	ClassState
	// ClassQuery returns a value to the producer and always uses the blocking handshake.
	ClassQuery
)

func (c Class) String() string {
	switch c {
	case ClassLifecycle:
		return "lifecycle"
	case ClassState:
		return "state"
	case ClassQuery:
		return "query"
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

type descriptor struct {
	name  string
	class Class
	args  reflect.Type
}

func argsType[T Args]() reflect.Type {
	var zero T
	return reflect.TypeOf(zero)
}

var descriptors = [KindCount]descriptor{
	KindCreateProgram:            {"CreateProgram", ClassLifecycle, argsType[HandleArgs]()},
	KindDeleteProgram:            {"DeleteProgram", ClassLifecycle, argsType[HandleArgs]()},
	KindAttachShader:             {"AttachShader", ClassState, argsType[AttachShaderArgs]()},
	KindLinkProgram:              {"LinkProgram", ClassState, argsType[HandleArgs]()},
	KindUseProgram:               {"UseProgram", ClassState, argsType[HandleArgs]()},
	KindCreateShader:             {"CreateShader", ClassLifecycle, argsType[CreateShaderArgs]()},
	KindDeleteShader:             {"DeleteShader", ClassLifecycle, argsType[HandleArgs]()},
	KindShaderSource:             {"ShaderSource", ClassState, argsType[ShaderSourceArgs]()},
	KindCompileShader:            {"CompileShader", ClassState, argsType[HandleArgs]()},
	KindCreateBuffer:             {"CreateBuffer", ClassLifecycle, argsType[HandleArgs]()},
	KindDeleteBuffer:             {"DeleteBuffer", ClassLifecycle, argsType[HandleArgs]()},
	KindBindBuffer:               {"BindBuffer", ClassState, argsType[BindBufferArgs]()},
	KindBufferData:               {"BufferData", ClassState, argsType[BufferDataArgs]()},
	KindBufferSubData:            {"BufferSubData", ClassState, argsType[BufferSubDataArgs]()},
	KindCreateTexture:            {"CreateTexture", ClassLifecycle, argsType[HandleArgs]()},
	KindDeleteTexture:            {"DeleteTexture", ClassLifecycle, argsType[HandleArgs]()},
	KindBindTexture:              {"BindTexture", ClassState, argsType[BindTextureArgs]()},
	KindTexImage2D:               {"TexImage2D", ClassState, argsType[TexImage2DArgs]()},
	KindTexParameteri:            {"TexParameteri", ClassState, argsType[TexParameteriArgs]()},
	KindActiveTexture:            {"ActiveTexture", ClassState, argsType[ActiveTextureArgs]()},
	KindCreateFramebuffer:        {"CreateFramebuffer", ClassLifecycle, argsType[HandleArgs]()},
	KindDeleteFramebuffer:        {"DeleteFramebuffer", ClassLifecycle, argsType[HandleArgs]()},
	KindBindFramebuffer:          {"BindFramebuffer", ClassState, argsType[HandleArgs]()},
	KindUniform1f:                {"Uniform1f", ClassState, argsType[Uniform1fArgs]()},
	KindUniform1i:                {"Uniform1i", ClassState, argsType[Uniform1iArgs]()},
	KindUniform3f:                {"Uniform3f", ClassState, argsType[Uniform3fArgs]()},
	KindUniform4f:                {"Uniform4f", ClassState, argsType[Uniform4fArgs]()},
	KindUniformMatrix4fv:         {"UniformMatrix4fv", ClassState, argsType[UniformMatrix4fvArgs]()},
	KindVertexAttribPointer:      {"VertexAttribPointer", ClassState, argsType[VertexAttribPointerArgs]()},
	KindEnableVertexAttribArray:  {"EnableVertexAttribArray", ClassState, argsType[VertexAttribArrayArgs]()},
	KindDisableVertexAttribArray: {"DisableVertexAttribArray", ClassState, argsType[VertexAttribArrayArgs]()},
	KindClearColor:               {"ClearColor", ClassState, argsType[ClearColorArgs]()},
	KindClear:                    {"Clear", ClassState, argsType[ClearArgs]()},
	KindViewport:                 {"Viewport", ClassState, argsType[RectArgs]()},
	KindScissor:                  {"Scissor", ClassState, argsType[RectArgs]()},
	KindEnable:                   {"Enable", ClassState, argsType[CapabilityArgs]()},
	KindDisable:                  {"Disable", ClassState, argsType[CapabilityArgs]()},
	KindDepthFunc:                {"DepthFunc", ClassState, argsType[DepthFuncArgs]()},
	KindBlendFunc:                {"BlendFunc", ClassState, argsType[BlendFuncArgs]()},
	KindDrawArrays:               {"DrawArrays", ClassState, argsType[DrawArraysArgs]()},
	KindDrawElements:             {"DrawElements", ClassState, argsType[DrawElementsArgs]()},
	KindGetError:                 {"GetError", ClassQuery, argsType[NoArgs]()},
	KindGetParameter:             {"GetParameter", ClassQuery, argsType[GetParameterArgs]()},
	KindGetShaderParameter:       {"GetShaderParameter", ClassQuery, argsType[ObjectParameterArgs]()},
	KindGetProgramParameter:      {"GetProgramParameter", ClassQuery, argsType[ObjectParameterArgs]()},
	KindGetUniformLocation:       {"GetUniformLocation", ClassQuery, argsType[LocationQueryArgs]()},
	KindGetAttribLocation:        {"GetAttribLocation", ClassQuery, argsType[LocationQueryArgs]()},
	KindCheckFramebufferStatus:   {"CheckFramebufferStatus", ClassQuery, argsType[NoArgs]()},
	KindFinish:                   {"Finish", ClassQuery, argsType[NoArgs]()},
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k < KindCount
}

// Class returns the class of k. Invalid kinds report ClassState.
func (k Kind) Class() Class {
	if !k.Valid() {
		return ClassState
	}
	return descriptors[k].class
}

// IsResourceLifecycle reports whether k creates or deletes a GPU-visible object.
func (k Kind) IsResourceLifecycle() bool {
	return k.Valid() && descriptors[k].class == ClassLifecycle
}

// IsBlocking reports whether commands of kind k use the blocking completion handshake.
func (k Kind) IsBlocking() bool {
	return k.Valid() && descriptors[k].class == ClassQuery
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return descriptors[k].name
}

// accepts reports whether args has the concrete type expected by k.
func (k Kind) accepts(args Args) bool {
	return k.Valid() && args != nil && reflect.TypeOf(args) == descriptors[k].args
}
