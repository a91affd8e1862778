package bounding

import (
	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/go-gl/mathgl/mgl32"
)

// BoundingSphere is a sphere in local space together with its world-space projection.
// The world radius is the local radius scaled by the largest axis scale of the world matrix.
type BoundingSphere struct {
	// Center is the local-space center.
	Center mgl32.Vec3
	// Radius is the local-space radius.
	Radius float32
	// Minimum is the local-space minimum the sphere was built from.
	Minimum mgl32.Vec3
	// Maximum is the local-space maximum the sphere was built from.
	Maximum mgl32.Vec3

	// CenterWorld is the world-space center.
	CenterWorld mgl32.Vec3
	// RadiusWorld is the world-space radius.
	RadiusWorld float32

	worldMatrix mgl32.Mat4
}

// NewBoundingSphereFromMinMax creates a sphere enclosing the box described by min and max.
//
// Parameters:
//   - min: local minimum corner
//   - max: local maximum corner
//   - world: the world matrix to apply
//
// Returns:
//   - *BoundingSphere: the constructed sphere
func NewBoundingSphereFromMinMax(min, max mgl32.Vec3, world mgl32.Mat4) *BoundingSphere {
	s := &BoundingSphere{}
	s.ReConstruct(min, max, world)
	return s
}

// NewBoundingSphereFromCenter creates a sphere from a local center and radius.
//
// Parameters:
//   - center: local center
//   - radius: local radius
//   - world: the world matrix to apply
//
// Returns:
//   - *BoundingSphere: the constructed sphere
func NewBoundingSphereFromCenter(center mgl32.Vec3, radius float32, world mgl32.Mat4) *BoundingSphere {
	s := &BoundingSphere{}
	s.setCenterRadius(center, radius)
	s.Update(world)
	return s
}

// ReConstruct recomputes the local center and radius from min and max, then the world-space fields.
// The radius is half the box diagonal.
//
// Parameters:
//   - min: local minimum corner
//   - max: local maximum corner
//   - world: the world matrix to apply
func (s *BoundingSphere) ReConstruct(min, max mgl32.Vec3, world mgl32.Mat4) {
	s.Minimum = min
	s.Maximum = max
	s.Center = min.Add(max).Mul(0.5)
	s.Radius = max.Sub(min).Len() * 0.5
	s.Update(world)
}

// Update recomputes the world-space center and radius.
//
// Parameters:
//   - world: the world matrix to apply
func (s *BoundingSphere) Update(world mgl32.Mat4) {
	s.worldMatrix = world
	s.CenterWorld = common.TransformCoordinates(s.Center, world)
	s.RadiusWorld = s.Radius * common.MaxAxisScale(world)
}

// WorldMatrix returns the world matrix last passed to Update or ReConstruct.
func (s *BoundingSphere) WorldMatrix() mgl32.Mat4 {
	return s.worldMatrix
}

// Scale multiplies the local radius by factor and recomputes all fields.
//
// Parameters:
//   - factor: the radius scale factor
func (s *BoundingSphere) Scale(factor float32) {
	s.setCenterRadius(s.Center, s.Radius*factor)
	s.Update(s.worldMatrix)
}

func (s *BoundingSphere) setCenterRadius(center mgl32.Vec3, radius float32) {
	half := mgl32.Vec3{radius, radius, radius}
	s.Center = center
	s.Radius = radius
	s.Minimum = center.Sub(half)
	s.Maximum = center.Add(half)
}

// IsInFrustum reports whether the sphere intersects or is inside the frustum.
// A sphere whose center lies exactly on a plane is inside for any positive radius.
//
// Parameters:
//   - planes: frustum planes with their positive half-space inside
//
// Returns:
//   - bool: false only if the center is further than RadiusWorld behind some plane
func (s *BoundingSphere) IsInFrustum(planes []common.Plane) bool {
	for _, p := range planes {
		if p.DotCoordinate(s.CenterWorld) < -s.RadiusWorld {
			return false
		}
	}
	return true
}

// IsCenterInFrustum reports whether the world-space center alone is inside every plane.
//
// Parameters:
//   - planes: frustum planes with their positive half-space inside
//
// Returns:
//   - bool: true if the center is inside the frustum
func (s *BoundingSphere) IsCenterInFrustum(planes []common.Plane) bool {
	for _, p := range planes {
		if p.DotCoordinate(s.CenterWorld) < 0 {
			return false
		}
	}
	return true
}

// IntersectsPoint reports whether a world-space point lies inside the sphere, widened by Epsilon.
func (s *BoundingSphere) IntersectsPoint(point mgl32.Vec3) bool {
	d := s.CenterWorld.Sub(point)
	return d.Dot(d) <= (s.RadiusWorld+Epsilon)*(s.RadiusWorld+Epsilon)
}

// SpheresIntersect reports whether two world-space spheres overlap.
func SpheresIntersect(a, b *BoundingSphere) bool {
	d := a.CenterWorld.Sub(b.CenterWorld)
	r := a.RadiusWorld + b.RadiusWorld
	return d.Dot(d) <= r*r
}
