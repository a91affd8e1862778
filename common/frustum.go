package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance term.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// NewPlane creates a plane from its four equation coefficients.
//
// Parameters:
//   - a, b, c: normal components
//   - d: distance term
//
// Returns:
//   - Plane: the plane (not normalized)
func NewPlane(a, b, c, d float32) Plane {
	return Plane{Normal: mgl32.Vec3{a, b, c}, D: d}
}

// PlaneFromPoints creates a normalized plane passing through three points.
// The normal follows the right-hand rule over (p1, p2, p3).
//
// Parameters:
//   - p1, p2, p3: three non-collinear points
//
// Returns:
//   - Plane: the normalized plane; a zero plane if the points are collinear
func PlaneFromPoints(p1, p2, p3 mgl32.Vec3) Plane {
	n := p2.Sub(p1).Cross(p3.Sub(p1))
	l := n.Len()
	if l == 0 {
		return Plane{}
	}
	n = n.Mul(1 / l)
	return Plane{Normal: n, D: -n.Dot(p1)}
}

// PlaneFromPositionAndNormal creates a plane passing through origin with the given normal.
//
// Parameters:
//   - origin: a point on the plane
//   - normal: the plane normal (normalized by this function)
//
// Returns:
//   - Plane: the normalized plane
func PlaneFromPositionAndNormal(origin, normal mgl32.Vec3) Plane {
	n := normal
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}
	return Plane{Normal: n, D: -n.Dot(origin)}
}

// Normalize returns the plane scaled so that its normal has unit length.
// A plane with a zero normal is returned unchanged.
//
// Returns:
//   - Plane: the normalized plane
func (p Plane) Normalize() Plane {
	length := float32(math.Sqrt(float64(p.Normal.Dot(p.Normal))))
	if length == 0 {
		return p
	}
	inv := 1.0 / length
	return Plane{Normal: p.Normal.Mul(inv), D: p.D * inv}
}

// DotCoordinate evaluates the plane equation at point. For a normalized plane this is the
// signed distance from the plane, positive on the inside (normal side).
//
// Parameters:
//   - point: the point to evaluate
//
// Returns:
//   - float32: a*x + b*y + c*z + d
func (p Plane) DotCoordinate(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.D
}

// SignedDistanceTo is an alias of DotCoordinate kept for readability at call sites dealing with rays.
func (p Plane) SignedDistanceTo(point mgl32.Vec3) float32 {
	return p.DotCoordinate(point)
}

// IsFrontFacingTo reports whether the plane faces against direction, i.e. a ray along direction
// would hit the front side of the plane.
//
// Parameters:
//   - direction: the viewing direction
//   - epsilon: tolerance below which the plane counts as front facing
//
// Returns:
//   - bool: true if dot(normal, direction) <= epsilon
func (p Plane) IsFrontFacingTo(direction mgl32.Vec3, epsilon float32) bool {
	return p.Normal.Dot(direction) <= epsilon
}

// Transform returns the plane transformed by m. The plane is carried by the inverse-transpose
// of m so that normals stay perpendicular under non-uniform scale.
//
// Parameters:
//   - m: the transform to apply
//
// Returns:
//   - Plane: the transformed plane; unchanged if m is singular
func (p Plane) Transform(m mgl32.Mat4) Plane {
	inv, ok := Invert(m)
	if !ok {
		return p
	}
	v := inv.Transpose().Mul4x1(mgl32.Vec4{p.Normal.X(), p.Normal.Y(), p.Normal.Z(), p.D})
	return Plane{Normal: v.Vec3(), D: v.W()}
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum [6]Plane // Left, Right, Bottom, Top, Near, Far

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustum extracts frustum planes from a view-projection matrix.
// The matrix should be the combined Projection * View matrix with clip-space depth in [0, 1],
// as produced by Perspective. Uses the Gribb/Hartmann method for plane extraction.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the column-major view-projection matrix
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustum(viewProj mgl32.Mat4) Frustum {
	// For column-major m, row i is (m[i], m[4+i], m[8+i], m[12+i]).
	row := func(i int) mgl32.Vec4 {
		return mgl32.Vec4{viewProj[i], viewProj[4+i], viewProj[8+i], viewProj[12+i]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	toPlane := func(v mgl32.Vec4) Plane {
		return Plane{Normal: v.Vec3(), D: v.W()}.Normalize()
	}

	var f Frustum
	f[FrustumLeft] = toPlane(r3.Add(r0))
	f[FrustumRight] = toPlane(r3.Sub(r0))
	f[FrustumBottom] = toPlane(r3.Add(r1))
	f[FrustumTop] = toPlane(r3.Sub(r1))
	// Depth in [0, 1]: the near plane is row2 alone rather than row3 + row2.
	f[FrustumNear] = toPlane(r2)
	f[FrustumFar] = toPlane(r3.Sub(r2))
	return f
}

// Planes returns the frustum planes as a slice, the form accepted by the bounding volume tests.
//
// Returns:
//   - []Plane: the six planes in Left, Right, Bottom, Top, Near, Far order
func (f *Frustum) Planes() []Plane {
	return f[:]
}

// ContainsPoint reports whether point lies inside or on every plane.
//
// Parameters:
//   - point: the point to test
//
// Returns:
//   - bool: true if the point is inside the frustum
func (f *Frustum) ContainsPoint(point mgl32.Vec3) bool {
	for i := range f {
		if f[i].DotCoordinate(point) < 0 {
			return false
		}
	}
	return true
}

// IntersectsSphere reports whether a sphere is inside or intersects the frustum.
//
// Parameters:
//   - center: sphere center
//   - radius: sphere radius
//
// Returns:
//   - bool: false only if the sphere is entirely behind one plane
func (f *Frustum) IntersectsSphere(center mgl32.Vec3, radius float32) bool {
	for i := range f {
		if f[i].DotCoordinate(center) < -radius {
			return false
		}
	}
	return true
}
