package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Perspective creates a right-handed perspective projection matrix.
// Clip-space depth is mapped to [0, 1] (WebGPU convention), which is the convention
// ExtractFrustum expects for its near plane.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))

	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}

// LookAt creates a view matrix that positions a viewer at eye looking towards center.
//
// Parameters:
//   - eye: viewer position in world space
//   - center: target point the viewer looks at
//   - up: up vector defining orientation (typically 0,1,0)
//
// Returns:
//   - mgl32.Mat4: the world-to-view matrix
func LookAt(eye, center, up mgl32.Vec3) mgl32.Mat4 {
	if eye.ApproxEqual(center) {
		return mgl32.Translate3D(-eye.X(), -eye.Y(), -eye.Z())
	}
	return mgl32.LookAtV(eye, center, up)
}

// TransformCoordinates transforms a point by a 4x4 matrix including the perspective divide.
//
// Parameters:
//   - v: the point to transform
//   - m: the transform
//
// Returns:
//   - mgl32.Vec3: the transformed point
func TransformCoordinates(v mgl32.Vec3, m mgl32.Mat4) mgl32.Vec3 {
	r := m.Mul4x1(v.Vec4(1))
	if r.W() == 0 || r.W() == 1 {
		return r.Vec3()
	}
	return r.Vec3().Mul(1 / r.W())
}

// MaxAxisScale returns the largest scale factor applied by the upper 3x3 part of m.
// Used to scale bounding sphere radii into world space.
//
// Parameters:
//   - m: the transform
//
// Returns:
//   - float32: the length of the longest basis column
func MaxAxisScale(m mgl32.Mat4) float32 {
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	return max(sx, sy, sz)
}

// ComposeTRS builds a model matrix from translation, rotation and scale (T * R * S).
//
// Parameters:
//   - t: translation
//   - r: rotation quaternion
//   - s: per-axis scale
//
// Returns:
//   - mgl32.Mat4: the composed transform
func ComposeTRS(t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(t.X(), t.Y(), t.Z()).
		Mul4(r.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(s.X(), s.Y(), s.Z()))
}

// Invert returns the inverse of m. If m is singular the identity is returned with ok=false.
//
// Parameters:
//   - m: the matrix to invert
//
// Returns:
//   - mgl32.Mat4: the inverse, or identity when singular
//   - bool: true if m was invertible
func Invert(m mgl32.Mat4) (mgl32.Mat4, bool) {
	if m.Det() == 0 {
		return mgl32.Ident4(), false
	}
	return m.Inv(), true
}
