package bounding

import (
	"math"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Axis names a world axis for Ray.IntersectsAxis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Ray is a half line with an optional maximum length.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
	Length    float32
}

// NewRay creates a ray. A non-positive length means unbounded.
//
// Parameters:
//   - origin: ray origin
//   - direction: ray direction (not normalized by this function)
//   - length: maximum distance along the ray
//
// Returns:
//   - Ray: the ray
func NewRay(origin, direction mgl32.Vec3, length float32) Ray {
	if length <= 0 {
		length = maxFloat
	}
	return Ray{Origin: origin, Direction: direction, Length: length}
}

// NewRayFromTo creates a ray starting at from and ending at to.
//
// Parameters:
//   - from: start point
//   - to: end point
//
// Returns:
//   - Ray: the ray with a normalized direction and Length equal to the distance between the points
func NewRayFromTo(from, to mgl32.Vec3) Ray {
	d := to.Sub(from)
	l := d.Len()
	if l > 0 {
		d = d.Mul(1 / l)
	}
	return Ray{Origin: from, Direction: d, Length: l}
}

// IntersectsBoxMinMax runs the slab test against an axis-aligned box.
//
// Parameters:
//   - min: box minimum
//   - max: box maximum
//   - threshold: amount the box is widened by on every side
//
// Returns:
//   - bool: true if the ray hits the box within its length
func (r Ray) IntersectsBoxMinMax(min, max mgl32.Vec3, threshold float32) bool {
	near := float32(0)
	far := maxFloat

	for i := 0; i < 3; i++ {
		lo := min[i] - threshold
		hi := max[i] + threshold
		if float32(math.Abs(float64(r.Direction[i]))) < 1e-7 {
			if r.Origin[i] < lo || r.Origin[i] > hi {
				return false
			}
			continue
		}

		inv := 1 / r.Direction[i]
		t1 := (lo - r.Origin[i]) * inv
		t2 := (hi - r.Origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		near = max32(near, t1)
		far = min32(far, t2)
		if near > far {
			return false
		}
	}
	return near <= r.Length
}

// IntersectsBox runs the slab test against a box's world-space envelope.
func (r Ray) IntersectsBox(box *BoundingBox, threshold float32) bool {
	return r.IntersectsBoxMinMax(box.MinimumWorld, box.MaximumWorld, threshold)
}

// IntersectsSphere reports whether the ray passes within the world radius (plus threshold) of a sphere.
//
// Parameters:
//   - sphere: the sphere to test
//   - threshold: amount added to the radius
//
// Returns:
//   - bool: true if the ray hits the sphere
func (r Ray) IntersectsSphere(sphere *BoundingSphere, threshold float32) bool {
	toCenter := sphere.CenterWorld.Sub(r.Origin)
	pyth := toCenter.Dot(toCenter)
	rr := (sphere.RadiusWorld + threshold) * (sphere.RadiusWorld + threshold)
	if pyth <= rr {
		return true
	}

	dot := toCenter.Dot(r.Direction)
	if dot < 0 {
		return false
	}
	return pyth-dot*dot <= rr
}

// IntersectsPlane returns the distance along the ray to a plane.
//
// Parameters:
//   - plane: the plane to test
//
// Returns:
//   - float32: the distance along the ray
//   - bool: false if the ray is parallel to the plane or the plane is behind the origin
func (r Ray) IntersectsPlane(plane common.Plane) (float32, bool) {
	denom := plane.Normal.Dot(r.Direction)
	if float32(math.Abs(float64(denom))) < 9.99999997475243e-7 {
		return 0, false
	}

	distance := (-plane.D - plane.Normal.Dot(r.Origin)) / denom
	if distance < 0 {
		if distance < -9.99999997475243e-7 {
			return 0, false
		}
		return 0, true
	}
	return distance, true
}

// IntersectsAxis returns where the ray crosses the plane axis == offset.
//
// Parameters:
//   - axis: the axis the plane is perpendicular to
//   - offset: the plane's coordinate on that axis
//
// Returns:
//   - mgl32.Vec3: the crossing point
//   - bool: false if the ray is parallel to the plane or moving away from it
func (r Ray) IntersectsAxis(axis Axis, offset float32) (mgl32.Vec3, bool) {
	i := int(axis)
	if r.Direction[i] == 0 {
		return mgl32.Vec3{}, false
	}
	t := (offset - r.Origin[i]) / r.Direction[i]
	if t < 0 {
		return mgl32.Vec3{}, false
	}
	p := r.Origin.Add(r.Direction.Mul(t))
	p[i] = offset
	return p, true
}

// IntersectsTriangle runs the Moller-Trumbore test.
//
// Parameters:
//   - v0, v1, v2: triangle vertices
//
// Returns:
//   - float32: distance along the ray
//   - float32: barycentric u
//   - float32: barycentric v
//   - bool: true if the ray hits the triangle within its length
func (r Ray) IntersectsTriangle(v0, v1, v2 mgl32.Vec3) (float32, float32, float32, bool) {
	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	pvec := r.Direction.Cross(edge2)
	det := edge1.Dot(pvec)
	if det == 0 {
		return 0, 0, 0, false
	}
	invDet := 1 / det

	tvec := r.Origin.Sub(v0)
	bu := tvec.Dot(pvec) * invDet
	if bu < 0 || bu > 1 {
		return 0, 0, 0, false
	}

	qvec := tvec.Cross(edge1)
	bv := r.Direction.Dot(qvec) * invDet
	if bv < 0 || bu+bv > 1 {
		return 0, 0, 0, false
	}

	distance := edge2.Dot(qvec) * invDet
	if distance < 0 || distance > r.Length {
		return 0, 0, 0, false
	}
	return distance, bu, bv, true
}

// Transform returns the ray carried by m. The direction is renormalized and Length scaled accordingly.
//
// Parameters:
//   - m: the transform
//
// Returns:
//   - Ray: the transformed ray
func (r Ray) Transform(m mgl32.Mat4) Ray {
	out := Ray{
		Origin:    common.TransformCoordinates(r.Origin, m),
		Direction: m.Mat3().Mul3x1(r.Direction),
		Length:    r.Length,
	}
	l := out.Direction.Len()
	if l != 0 && l != 1 {
		out.Direction = out.Direction.Mul(1 / l)
		if out.Length != maxFloat {
			out.Length *= l
		}
	}
	return out
}

// Unproject builds a picking ray from viewport coordinates.
// Clip depth 0 maps to the near plane and 1 to the far plane.
//
// Parameters:
//   - x, y: viewport coordinates in pixels, origin top-left
//   - viewportWidth, viewportHeight: viewport size in pixels
//   - world: the world matrix of the content being picked (identity for world space)
//   - view: the view matrix
//   - projection: the projection matrix
//
// Returns:
//   - Ray: the ray from the near plane to the far plane
//   - bool: false if the combined matrix is singular
func Unproject(x, y, viewportWidth, viewportHeight float32, world, view, projection mgl32.Mat4) (Ray, bool) {
	inv, ok := common.Invert(projection.Mul4(view).Mul4(world))
	if !ok {
		return Ray{}, false
	}
	ndcX := x/viewportWidth*2 - 1
	ndcY := -(y/viewportHeight*2 - 1)

	near := common.TransformCoordinates(mgl32.Vec3{ndcX, ndcY, 0}, inv)
	far := common.TransformCoordinates(mgl32.Vec3{ndcX, ndcY, 1}, inv)
	return NewRayFromTo(near, far), true
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
