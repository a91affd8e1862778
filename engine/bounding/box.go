// Package bounding provides the spatial envelopes (box, sphere, combined info) that XR sessions refresh once per tick
// and test against the viewer frustum, plus ray intersection helpers used by pointer logic.
package bounding

import (
	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon is the tolerance used by point containment and ray tests.
const Epsilon float32 = 1e-3

// BoundingBox is an axis-aligned box in local space together with its world-space projection.
// World-space fields are only valid after Update has been called with the current world matrix.
type BoundingBox struct {
	// Vectors holds the 8 local-space corners.
	Vectors [8]mgl32.Vec3
	// Center is the local-space center.
	Center mgl32.Vec3
	// ExtendSize is the local-space half size.
	ExtendSize mgl32.Vec3
	// Minimum is the local-space minimum corner.
	Minimum mgl32.Vec3
	// Maximum is the local-space maximum corner.
	Maximum mgl32.Vec3

	// VectorsWorld holds the 8 corners transformed by the world matrix.
	VectorsWorld [8]mgl32.Vec3
	// CenterWorld is the world-space center.
	CenterWorld mgl32.Vec3
	// ExtendSizeWorld is the world-space half size of the axis-aligned envelope of VectorsWorld.
	ExtendSizeWorld mgl32.Vec3
	// MinimumWorld is the world-space axis-aligned minimum of VectorsWorld.
	MinimumWorld mgl32.Vec3
	// MaximumWorld is the world-space axis-aligned maximum of VectorsWorld.
	MaximumWorld mgl32.Vec3

	// Directions holds the normalized world-space box axes, used by oriented intersection tests.
	Directions [3]mgl32.Vec3

	worldMatrix mgl32.Mat4
}

// NewBoundingBox creates a bounding box from local extremes and computes its world-space fields.
//
// Parameters:
//   - min: local minimum corner
//   - max: local maximum corner
//   - world: the world matrix to apply
//
// Returns:
//   - *BoundingBox: the constructed box
func NewBoundingBox(min, max mgl32.Vec3, world mgl32.Mat4) *BoundingBox {
	b := &BoundingBox{}
	b.ReConstruct(min, max, world)
	return b
}

// ReConstruct fully recomputes the local geometry from min and max, then the world-space fields from world.
// Call this whenever the local geometry changes; use Update when only the transform changed.
//
// Parameters:
//   - min: local minimum corner
//   - max: local maximum corner
//   - world: the world matrix to apply
func (b *BoundingBox) ReConstruct(min, max mgl32.Vec3, world mgl32.Mat4) {
	b.Minimum = min
	b.Maximum = max

	b.Vectors = [8]mgl32.Vec3{
		{min.X(), min.Y(), min.Z()},
		{max.X(), max.Y(), max.Z()},
		{max.X(), min.Y(), min.Z()},
		{min.X(), max.Y(), min.Z()},
		{min.X(), min.Y(), max.Z()},
		{max.X(), max.Y(), min.Z()},
		{min.X(), max.Y(), max.Z()},
		{max.X(), min.Y(), max.Z()},
	}

	b.Center = max.Add(min).Mul(0.5)
	b.ExtendSize = max.Sub(min).Mul(0.5)

	b.Update(world)
}

// Update recomputes the world-space fields from the existing local geometry.
// This is the cheap per-tick path.
//
// Parameters:
//   - world: the world matrix to apply
func (b *BoundingBox) Update(world mgl32.Mat4) {
	b.worldMatrix = world

	minW := mgl32.Vec3{maxFloat, maxFloat, maxFloat}
	maxW := mgl32.Vec3{-maxFloat, -maxFloat, -maxFloat}
	for i, v := range b.Vectors {
		w := common.TransformCoordinates(v, world)
		b.VectorsWorld[i] = w
		minW = componentMin(minW, w)
		maxW = componentMax(maxW, w)
	}
	b.MinimumWorld = minW
	b.MaximumWorld = maxW
	b.ExtendSizeWorld = maxW.Sub(minW).Mul(0.5)
	b.CenterWorld = maxW.Add(minW).Mul(0.5)

	for i := range b.Directions {
		d := world.Col(i).Vec3()
		if l := d.Len(); l > 0 {
			d = d.Mul(1 / l)
		}
		b.Directions[i] = d
	}
}

// WorldMatrix returns the world matrix last passed to Update or ReConstruct.
//
// Returns:
//   - mgl32.Mat4: the world matrix
func (b *BoundingBox) WorldMatrix() mgl32.Mat4 {
	return b.worldMatrix
}

// Scale grows or shrinks the box around its local center and recomputes all fields.
//
// Parameters:
//   - factor: the scale factor applied to the half size
func (b *BoundingBox) Scale(factor float32) {
	half := b.ExtendSize.Mul(factor)
	b.ReConstruct(b.Center.Sub(half), b.Center.Add(half), b.worldMatrix)
}

// IsInFrustum reports whether the box intersects or is inside the frustum described by planes.
//
// Parameters:
//   - planes: frustum planes with their positive half-space inside
//
// Returns:
//   - bool: false only if all 8 world corners are behind a single plane
func (b *BoundingBox) IsInFrustum(planes []common.Plane) bool {
	return IsBoxInFrustum(b.VectorsWorld, planes)
}

// IsCompletelyInFrustum reports whether every world corner is on the positive side of every plane.
//
// Parameters:
//   - planes: frustum planes with their positive half-space inside
//
// Returns:
//   - bool: true if the box is entirely inside the frustum
func (b *BoundingBox) IsCompletelyInFrustum(planes []common.Plane) bool {
	for _, p := range planes {
		for _, v := range b.VectorsWorld {
			if p.DotCoordinate(v) < 0 {
				return false
			}
		}
	}
	return true
}

// IntersectsPoint reports whether point lies within the world-space envelope, widened by Epsilon.
//
// Parameters:
//   - point: the world-space point
//
// Returns:
//   - bool: true if the point is inside the box
func (b *BoundingBox) IntersectsPoint(point mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if b.MaximumWorld[i]-point[i] < -Epsilon || point[i]-b.MinimumWorld[i] < -Epsilon {
			return false
		}
	}
	return true
}

// IntersectsSphere reports whether a world-space sphere touches the world-space envelope.
//
// Parameters:
//   - center: sphere center in world space
//   - radius: sphere radius in world space
//
// Returns:
//   - bool: true if they intersect
func (b *BoundingBox) IntersectsSphere(center mgl32.Vec3, radius float32) bool {
	closest := componentMax(b.MinimumWorld, componentMin(b.MaximumWorld, center))
	d := center.Sub(closest)
	return d.Dot(d) <= radius*radius
}

// IntersectsMinMax reports whether the world-space envelope overlaps the given axis-aligned extremes.
//
// Parameters:
//   - min: minimum corner of the other box
//   - max: maximum corner of the other box
//
// Returns:
//   - bool: true if they overlap
func (b *BoundingBox) IntersectsMinMax(min, max mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if b.MaximumWorld[i] < min[i] || b.MinimumWorld[i] > max[i] {
			return false
		}
	}
	return true
}

// BoxesIntersect reports whether the world-space envelopes of two boxes overlap.
func BoxesIntersect(a, b *BoundingBox) bool {
	return a.IntersectsMinMax(b.MinimumWorld, b.MaximumWorld)
}

// IsBoxInFrustum tests 8 corner points against a set of planes.
//
// Parameters:
//   - corners: the 8 world-space corners
//   - planes: frustum planes with their positive half-space inside
//
// Returns:
//   - bool: false only if every corner is behind the same plane
func IsBoxInFrustum(corners [8]mgl32.Vec3, planes []common.Plane) bool {
	for _, p := range planes {
		inside := false
		for _, v := range corners {
			if p.DotCoordinate(v) >= 0 {
				inside = true
				break
			}
		}
		if !inside {
			return false
		}
	}
	return true
}

const maxFloat float32 = 3.4028234663852886e38

func componentMin(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
}

func componentMax(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
}
