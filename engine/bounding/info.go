package bounding

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/go-gl/mathgl/mgl32"
)

// CullingStrategy selects how BoundingInfo.IsInFrustum trades CPU cost against culling precision.
type CullingStrategy uint8

const (
	// CullingStrategyStandard rejects with the sphere, then runs the exact 8-corner box test.
	CullingStrategyStandard CullingStrategy = iota
	// CullingStrategyBoundingSphereOnly only runs the sphere test. Cheapest, least precise.
	CullingStrategyBoundingSphereOnly
	// CullingStrategyOptimisticInclusion accepts immediately when the sphere center is inside all planes,
	// otherwise falls back to the standard test.
	CullingStrategyOptimisticInclusion
	// CullingStrategyOptimisticInclusionThenSphereOnly accepts on the sphere center, otherwise runs the sphere test only.
	CullingStrategyOptimisticInclusionThenSphereOnly
)

var cullingStrategyNames = map[CullingStrategy]string{
	CullingStrategyStandard:                          "standard",
	CullingStrategyBoundingSphereOnly:                "sphere_only",
	CullingStrategyOptimisticInclusion:               "optimistic",
	CullingStrategyOptimisticInclusionThenSphereOnly: "optimistic_sphere_only",
}

func (c CullingStrategy) String() string {
	if n, ok := cullingStrategyNames[c]; ok {
		return n
	}
	return fmt.Sprintf("CullingStrategy(%d)", uint8(c))
}

// ParseCullingStrategy maps a configuration name onto a CullingStrategy.
//
// Parameters:
//   - name: one of "standard", "sphere_only", "optimistic", "optimistic_sphere_only"
//
// Returns:
//   - CullingStrategy: the parsed strategy
//   - error: an error if the name is unknown
func ParseCullingStrategy(name string) (CullingStrategy, error) {
	for c, n := range cullingStrategyNames {
		if n == name {
			return c, nil
		}
	}
	return CullingStrategyStandard, fmt.Errorf("unknown culling strategy %q", name)
}

// BoundingInfo composes one BoundingBox and one BoundingSphere describing the same local extremes.
type BoundingInfo struct {
	box    BoundingBox
	sphere BoundingSphere
	locked bool
}

// NewBoundingInfo creates a bounding info from local extremes and a world matrix.
//
// Parameters:
//   - min: local minimum corner
//   - max: local maximum corner
//   - world: the world matrix to apply
//
// Returns:
//   - *BoundingInfo: the constructed info
func NewBoundingInfo(min, max mgl32.Vec3, world mgl32.Mat4) *BoundingInfo {
	bi := &BoundingInfo{}
	bi.ReConstruct(min, max, world)
	return bi
}

// Box returns the bounding box.
func (bi *BoundingInfo) Box() *BoundingBox {
	return &bi.box
}

// Sphere returns the bounding sphere.
func (bi *BoundingInfo) Sphere() *BoundingSphere {
	return &bi.sphere
}

// ReConstruct rebuilds both volumes from new local extremes.
//
// Parameters:
//   - min: local minimum corner
//   - max: local maximum corner
//   - world: the world matrix to apply
func (bi *BoundingInfo) ReConstruct(min, max mgl32.Vec3, world mgl32.Mat4) {
	bi.box.ReConstruct(min, max, world)
	bi.sphere.ReConstruct(min, max, world)
}

// Update refreshes the world-space fields of both volumes. Locked infos are left untouched.
//
// Parameters:
//   - world: the world matrix to apply
func (bi *BoundingInfo) Update(world mgl32.Mat4) {
	if bi.locked {
		return
	}
	bi.box.Update(world)
	bi.sphere.Update(world)
}

// Minimum returns the local minimum corner.
func (bi *BoundingInfo) Minimum() mgl32.Vec3 {
	return bi.box.Minimum
}

// Maximum returns the local maximum corner.
func (bi *BoundingInfo) Maximum() mgl32.Vec3 {
	return bi.box.Maximum
}

// DiagonalLength returns the length of the world-space box diagonal.
func (bi *BoundingInfo) DiagonalLength() float32 {
	return bi.box.MaximumWorld.Sub(bi.box.MinimumWorld).Len()
}

// IsLocked reports whether Update is currently ignored.
func (bi *BoundingInfo) IsLocked() bool {
	return bi.locked
}

// SetLocked freezes or unfreezes the world-space fields.
//
// Parameters:
//   - locked: true to make Update a no-op
func (bi *BoundingInfo) SetLocked(locked bool) {
	bi.locked = locked
}

// CenterOn rebuilds the volumes around a local center with the given half size.
//
// Parameters:
//   - center: local center
//   - extend: local half size
func (bi *BoundingInfo) CenterOn(center, extend mgl32.Vec3) {
	bi.ReConstruct(center.Sub(extend), center.Add(extend), bi.box.worldMatrix)
}

// Encapsulate grows the local extremes to include a local-space point.
//
// Parameters:
//   - point: the local-space point to include
func (bi *BoundingInfo) Encapsulate(point mgl32.Vec3) {
	bi.ReConstruct(componentMin(bi.box.Minimum, point), componentMax(bi.box.Maximum, point), bi.box.worldMatrix)
}

// EncapsulateBoundingInfo grows the local extremes to include every world corner of other,
// brought into this info's local space through the inverse world matrix.
//
// Parameters:
//   - other: the bounding info to include
func (bi *BoundingInfo) EncapsulateBoundingInfo(other *BoundingInfo) {
	inv, ok := common.Invert(bi.box.worldMatrix)
	if !ok {
		return
	}
	minL, maxL := bi.box.Minimum, bi.box.Maximum
	for _, v := range other.box.VectorsWorld {
		local := common.TransformCoordinates(v, inv)
		minL = componentMin(minL, local)
		maxL = componentMax(maxL, local)
	}
	bi.ReConstruct(minL, maxL, bi.box.worldMatrix)
}

// Scale scales both volumes around their local centers.
//
// Parameters:
//   - factor: the scale factor
func (bi *BoundingInfo) Scale(factor float32) {
	bi.box.Scale(factor)
	bi.sphere.Scale(factor)
}

// IsInFrustum reports whether the volumes intersect the frustum using the given strategy.
//
// Parameters:
//   - planes: frustum planes with their positive half-space inside
//   - strategy: the culling strategy for this call
//
// Returns:
//   - bool: true if the content may be visible
func (bi *BoundingInfo) IsInFrustum(planes []common.Plane, strategy CullingStrategy) bool {
	inclusion := strategy == CullingStrategyOptimisticInclusion ||
		strategy == CullingStrategyOptimisticInclusionThenSphereOnly
	if inclusion && bi.sphere.IsCenterInFrustum(planes) {
		return true
	}

	if !bi.sphere.IsInFrustum(planes) {
		return false
	}

	sphereOnly := strategy == CullingStrategyBoundingSphereOnly ||
		strategy == CullingStrategyOptimisticInclusionThenSphereOnly
	if sphereOnly {
		return true
	}

	return bi.box.IsInFrustum(planes)
}

// IsCompletelyInFrustum reports whether the box is entirely inside the frustum.
// This is strictly stronger than IsInFrustum.
func (bi *BoundingInfo) IsCompletelyInFrustum(planes []common.Plane) bool {
	return bi.box.IsCompletelyInFrustum(planes)
}

// IntersectsPoint reports whether a world-space point is inside both the sphere and the box.
func (bi *BoundingInfo) IntersectsPoint(point mgl32.Vec3) bool {
	return bi.sphere.IntersectsPoint(point) && bi.box.IntersectsPoint(point)
}

// Intersects reports whether two bounding infos overlap.
//
// Parameters:
//   - other: the other bounding info
//   - precise: if true, run the oriented separating-axis test after the axis-aligned one
//
// Returns:
//   - bool: true if they intersect
func (bi *BoundingInfo) Intersects(other *BoundingInfo, precise bool) bool {
	if !SpheresIntersect(&bi.sphere, &other.sphere) {
		return false
	}
	if !BoxesIntersect(&bi.box, &other.box) {
		return false
	}
	if !precise {
		return true
	}

	a, b := &bi.box, &other.box
	axes := make([]mgl32.Vec3, 0, 15)
	axes = append(axes, a.Directions[:]...)
	axes = append(axes, b.Directions[:]...)
	for _, da := range a.Directions {
		for _, db := range b.Directions {
			axes = append(axes, da.Cross(db))
		}
	}
	for _, axis := range axes {
		if axis.Dot(axis) < Epsilon*Epsilon {
			continue
		}
		minA, maxA := projectCorners(a.VectorsWorld, axis)
		minB, maxB := projectCorners(b.VectorsWorld, axis)
		if maxA < minB || maxB < minA {
			return false
		}
	}
	return true
}

func projectCorners(corners [8]mgl32.Vec3, axis mgl32.Vec3) (float32, float32) {
	lo, hi := maxFloat, -maxFloat
	for _, v := range corners {
		d := v.Dot(axis)
		lo = min(lo, d)
		hi = max(hi, d)
	}
	return lo, hi
}
