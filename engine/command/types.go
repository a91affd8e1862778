package command

// Enumerations carried by command arguments. Values follow the GL numbering so traces
// line up with what content code passes in.

type ShaderType uint32

const (
	ShaderTypeFragment ShaderType = 0x8B30
	ShaderTypeVertex   ShaderType = 0x8B31
)

type BufferTarget uint32

const (
	BufferTargetArray        BufferTarget = 0x8892
	BufferTargetElementArray BufferTarget = 0x8893
	BufferTargetUniform      BufferTarget = 0x8A11
)

type BufferUsage uint32

const (
	BufferUsageStreamDraw  BufferUsage = 0x88E0
	BufferUsageStaticDraw  BufferUsage = 0x88E4
	BufferUsageDynamicDraw BufferUsage = 0x88E8
)

type TextureTarget uint32

const (
	TextureTarget2D TextureTarget = 0x0DE1
)

type TextureParam uint32

const (
	TextureParamMagFilter TextureParam = 0x2800
	TextureParamMinFilter TextureParam = 0x2801
	TextureParamWrapS     TextureParam = 0x2802
	TextureParamWrapT     TextureParam = 0x2803
)

// TextureUnit0 is the first texture unit accepted by ActiveTexture.
const TextureUnit0 uint32 = 0x84C0

type DataType uint32

const (
	DataTypeUnsignedByte  DataType = 0x1401
	DataTypeUnsignedShort DataType = 0x1403
	DataTypeUnsignedInt   DataType = 0x1405
	DataTypeFloat         DataType = 0x1406
)

// Size returns the size in bytes of one component of t, or 0 if unknown.
func (t DataType) Size() int {
	switch t {
	case DataTypeUnsignedByte:
		return 1
	case DataTypeUnsignedShort:
		return 2
	case DataTypeUnsignedInt, DataTypeFloat:
		return 4
	}
	return 0
}

type ClearMask uint32

const (
	ClearDepthBit   ClearMask = 0x00000100
	ClearStencilBit ClearMask = 0x00000400
	ClearColorBit   ClearMask = 0x00004000
)

type Capability uint32

const (
	CapabilityCullFace    Capability = 0x0B44
	CapabilityDepthTest   Capability = 0x0B71
	CapabilityBlend       Capability = 0x0BE2
	CapabilityScissorTest Capability = 0x0C11
)

type CompareFunc uint32

const (
	CompareNever    CompareFunc = 0x0200
	CompareLess     CompareFunc = 0x0201
	CompareEqual    CompareFunc = 0x0202
	CompareLEqual   CompareFunc = 0x0203
	CompareGreater  CompareFunc = 0x0204
	CompareNotEqual CompareFunc = 0x0205
	CompareGEqual   CompareFunc = 0x0206
	CompareAlways   CompareFunc = 0x0207
)

type BlendFactor uint32

const (
	BlendZero             BlendFactor = 0
	BlendOne              BlendFactor = 1
	BlendSrcAlpha         BlendFactor = 0x0302
	BlendOneMinusSrcAlpha BlendFactor = 0x0303
)

type PrimitiveMode uint32

const (
	PrimitivePoints        PrimitiveMode = 0x0000
	PrimitiveLines         PrimitiveMode = 0x0001
	PrimitiveLineStrip     PrimitiveMode = 0x0003
	PrimitiveTriangles     PrimitiveMode = 0x0004
	PrimitiveTriangleStrip PrimitiveMode = 0x0005
)

// Parameter names a value returned by the Get*Parameter queries.
type Parameter uint32

const (
	ParamCurrentProgram  Parameter = 0x8B8D
	ParamViewport        Parameter = 0x0BA2
	ParamColorClearValue Parameter = 0x0C22
	ParamMaxTextureSize  Parameter = 0x0D33
	ParamActiveTexture   Parameter = 0x84E0
	ParamShaderType      Parameter = 0x8B4F
	ParamDeleteStatus    Parameter = 0x8B80
	ParamCompileStatus   Parameter = 0x8B81
	ParamLinkStatus      Parameter = 0x8B82
	ParamAttachedShaders Parameter = 0x8B85
)

// Framebuffer status values reported by CheckFramebufferStatus in Result.Int.
const (
	FramebufferComplete                int32 = 0x8CD5
	FramebufferIncompleteAttachment    int32 = 0x8CD6
	FramebufferIncompleteMissingAttach int32 = 0x8CD7
)
