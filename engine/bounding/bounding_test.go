package bounding

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitCubePlanes is the frustum of an identity view-projection: x,y in [-1,1], z in [0,1].
func unitCubePlanes() []common.Plane {
	f := common.ExtractFrustum(mgl32.Ident4())
	return f.Planes()
}

func TestBoundingBox_IdentityUpdate(t *testing.T) {
	min := mgl32.Vec3{-1, -1, -1}
	max := mgl32.Vec3{1, 1, 1}
	b := NewBoundingBox(min, max, mgl32.Ident4())

	b.Update(mgl32.Ident4())

	assert.Equal(t, min, b.MinimumWorld)
	assert.Equal(t, max, b.MaximumWorld)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, b.CenterWorld)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, b.ExtendSizeWorld)
	assert.Equal(t, b.Vectors, b.VectorsWorld)
}

func TestBoundingBox_UpdateOnlyTouchesWorld(t *testing.T) {
	b := NewBoundingBox(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 2, 2}, mgl32.Ident4())
	local := b.Vectors

	b.Update(mgl32.Translate3D(10, 0, 0))

	assert.Equal(t, local, b.Vectors)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, b.Center)
	assert.Equal(t, mgl32.Vec3{11, 1, 1}, b.CenterWorld)
	assert.Equal(t, mgl32.Vec3{10, 0, 0}, b.MinimumWorld)
	assert.Equal(t, mgl32.Translate3D(10, 0, 0), b.WorldMatrix())
}

func TestBoundingBox_FrustumTests(t *testing.T) {
	planes := unitCubePlanes()

	tests := []struct {
		name       string
		min, max   mgl32.Vec3
		in         bool
		completely bool
	}{
		{"fully inside", mgl32.Vec3{-0.5, -0.5, 0.2}, mgl32.Vec3{0.5, 0.5, 0.8}, true, true},
		{"one corner outside", mgl32.Vec3{-0.5, -0.5, 0.2}, mgl32.Vec3{1.5, 0.5, 0.8}, true, false},
		{"straddles near plane", mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0.5, 0.5}, true, false},
		{"fully left", mgl32.Vec3{-5, -0.5, 0.2}, mgl32.Vec3{-2, 0.5, 0.8}, false, false},
		{"fully behind", mgl32.Vec3{-0.5, -0.5, -3}, mgl32.Vec3{0.5, 0.5, -1}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBoundingBox(tt.min, tt.max, mgl32.Ident4())
			assert.Equal(t, tt.in, b.IsInFrustum(planes))
			assert.Equal(t, tt.completely, b.IsCompletelyInFrustum(planes))
			if tt.completely {
				assert.True(t, b.IsInFrustum(planes), "completely in implies in")
			}
		})
	}
}

func TestBoundingBox_Intersections(t *testing.T) {
	a := NewBoundingBox(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 2, 2}, mgl32.Ident4())
	b := NewBoundingBox(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{3, 3, 3}, mgl32.Ident4())
	c := NewBoundingBox(mgl32.Vec3{5, 5, 5}, mgl32.Vec3{6, 6, 6}, mgl32.Ident4())

	assert.True(t, BoxesIntersect(a, b))
	assert.False(t, BoxesIntersect(a, c))
	assert.True(t, a.IntersectsPoint(mgl32.Vec3{1, 1, 1}))
	assert.True(t, a.IntersectsPoint(mgl32.Vec3{2.0005, 1, 1}), "within epsilon")
	assert.False(t, a.IntersectsPoint(mgl32.Vec3{2.1, 1, 1}))
	assert.True(t, a.IntersectsSphere(mgl32.Vec3{3, 1, 1}, 1.5))
	assert.False(t, a.IntersectsSphere(mgl32.Vec3{4, 1, 1}, 1.5))
}

func TestBoundingBox_Scale(t *testing.T) {
	b := NewBoundingBox(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}, mgl32.Translate3D(0, 5, 0))
	b.Scale(2)

	assert.Equal(t, mgl32.Vec3{-2, -2, -2}, b.Minimum)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, b.Maximum)
	assert.Equal(t, mgl32.Vec3{-2, 3, -2}, b.MinimumWorld)
}

func TestBoundingSphere_FrustumProperties(t *testing.T) {
	planes := unitCubePlanes()

	t.Run("center further than radius behind a plane is out", func(t *testing.T) {
		s := NewBoundingSphereFromCenter(mgl32.Vec3{-2.01, 0, 0.5}, 1, mgl32.Ident4())
		require.Less(t, planes[common.FrustumLeft].DotCoordinate(s.CenterWorld), -s.RadiusWorld)
		assert.False(t, s.IsInFrustum(planes))
	})

	t.Run("center on plane with positive radius is in", func(t *testing.T) {
		for _, r := range []float32{1e-4, 0.5, 10} {
			s := NewBoundingSphereFromCenter(mgl32.Vec3{1, 0, 0.5}, r, mgl32.Ident4())
			assert.True(t, s.IsInFrustum(planes), "radius %v", r)
		}
	})

	t.Run("center test", func(t *testing.T) {
		s := NewBoundingSphereFromCenter(mgl32.Vec3{-1.2, 0, 0.5}, 0.5, mgl32.Ident4())
		assert.True(t, s.IsInFrustum(planes))
		assert.False(t, s.IsCenterInFrustum(planes))
	})
}

func TestBoundingSphere_WorldRadiusScales(t *testing.T) {
	s := NewBoundingSphereFromCenter(mgl32.Vec3{}, 1, mgl32.Ident4())
	s.Update(mgl32.Scale3D(1, 4, 2))
	assert.InDelta(t, 4.0, s.RadiusWorld, 1e-5)

	s.Scale(0.5)
	assert.InDelta(t, 0.5, s.Radius, 1e-6)
	assert.InDelta(t, 2.0, s.RadiusWorld, 1e-5)
}

func TestSpheresIntersect(t *testing.T) {
	a := NewBoundingSphereFromCenter(mgl32.Vec3{0, 0, 0}, 1, mgl32.Ident4())
	b := NewBoundingSphereFromCenter(mgl32.Vec3{1.5, 0, 0}, 1, mgl32.Ident4())
	c := NewBoundingSphereFromCenter(mgl32.Vec3{3, 0, 0}, 0.5, mgl32.Ident4())

	assert.True(t, SpheresIntersect(a, b))
	assert.False(t, SpheresIntersect(a, c))
	assert.True(t, a.IntersectsPoint(mgl32.Vec3{0, 1, 0}))
	assert.False(t, a.IntersectsPoint(mgl32.Vec3{0, 1.1, 0}))
}

func TestBoundingInfo_Strategies(t *testing.T) {
	planes := unitCubePlanes()

	// Every corner is left of the left plane, but the enclosing sphere reaches inside.
	diag := NewBoundingInfo(mgl32.Vec3{-1.9, -1.9, 0.4}, mgl32.Vec3{-1.05, -1.05, 0.6}, mgl32.Ident4())
	inside := NewBoundingInfo(mgl32.Vec3{-0.1, -0.1, 0.4}, mgl32.Vec3{0.1, 0.1, 0.6}, mgl32.Ident4())
	far := NewBoundingInfo(mgl32.Vec3{10, 10, 0.4}, mgl32.Vec3{11, 11, 0.6}, mgl32.Ident4())

	tests := []struct {
		strategy CullingStrategy
		diag     bool
	}{
		{CullingStrategyStandard, false},
		{CullingStrategyBoundingSphereOnly, true},
		{CullingStrategyOptimisticInclusion, false},
		{CullingStrategyOptimisticInclusionThenSphereOnly, true},
	}
	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			assert.True(t, inside.IsInFrustum(planes, tt.strategy))
			assert.False(t, far.IsInFrustum(planes, tt.strategy))
			assert.Equal(t, tt.diag, diag.IsInFrustum(planes, tt.strategy))
		})
	}

	assert.True(t, inside.IsCompletelyInFrustum(planes))
	assert.False(t, diag.IsCompletelyInFrustum(planes))
}

func TestBoundingInfo_LockedSkipsUpdate(t *testing.T) {
	bi := NewBoundingInfo(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}, mgl32.Ident4())
	bi.SetLocked(true)
	bi.Update(mgl32.Translate3D(100, 0, 0))

	assert.True(t, bi.IsLocked())
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, bi.Box().CenterWorld)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, bi.Sphere().CenterWorld)

	bi.SetLocked(false)
	bi.Update(mgl32.Translate3D(100, 0, 0))
	assert.Equal(t, mgl32.Vec3{100, 0, 0}, bi.Box().CenterWorld)
}

func TestBoundingInfo_Encapsulate(t *testing.T) {
	bi := NewBoundingInfo(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}, mgl32.Ident4())
	bi.Encapsulate(mgl32.Vec3{3, 0, 0})

	assert.Equal(t, mgl32.Vec3{-1, -1, -1}, bi.Minimum())
	assert.Equal(t, mgl32.Vec3{3, 1, 1}, bi.Maximum())

	other := NewBoundingInfo(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}, mgl32.Translate3D(0, 4, 0))
	bi.EncapsulateBoundingInfo(other)
	assert.Equal(t, mgl32.Vec3{3, 5, 1}, bi.Maximum())

	bi.CenterOn(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 2, 2})
	assert.Equal(t, mgl32.Vec3{-2, -2, -2}, bi.Minimum())
	assert.InDelta(t, mgl32.Vec3{4, 4, 4}.Len(), bi.DiagonalLength(), 1e-5)
}

func TestBoundingInfo_Intersects(t *testing.T) {
	a := NewBoundingInfo(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}, mgl32.Ident4())
	b := NewBoundingInfo(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}, mgl32.Translate3D(1.5, 0, 0))

	// Rotated 45 degrees about Z and placed so the world AABBs overlap but the oriented boxes do not.
	rot := mgl32.Translate3D(2.35, 2.35, 0).Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(45)))
	c := NewBoundingInfo(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}, rot)

	assert.True(t, a.Intersects(b, true))
	assert.True(t, a.Intersects(c, false), "axis-aligned envelopes overlap")
	assert.False(t, a.Intersects(c, true), "oriented boxes are separated")
	assert.True(t, a.IntersectsPoint(mgl32.Vec3{0.5, 0.5, 0.5}))
}

func TestParseCullingStrategy(t *testing.T) {
	for _, c := range []CullingStrategy{
		CullingStrategyStandard,
		CullingStrategyBoundingSphereOnly,
		CullingStrategyOptimisticInclusion,
		CullingStrategyOptimisticInclusionThenSphereOnly,
	} {
		got, err := ParseCullingStrategy(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCullingStrategy("bogus")
	assert.Error(t, err)
}

func TestRay_Intersections(t *testing.T) {
	box := NewBoundingBox(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}, mgl32.Ident4())
	sphere := NewBoundingSphereFromCenter(mgl32.Vec3{0, 0, 0}, 1, mgl32.Ident4())

	hit := NewRay(mgl32.Vec3{0, 0, -5}, mgl32.Vec3{0, 0, 1}, 0)
	miss := NewRay(mgl32.Vec3{3, 0, -5}, mgl32.Vec3{0, 0, 1}, 0)
	short := NewRay(mgl32.Vec3{0, 0, -5}, mgl32.Vec3{0, 0, 1}, 2)
	away := NewRay(mgl32.Vec3{0, 0, -5}, mgl32.Vec3{0, 0, -1}, 0)

	assert.True(t, hit.IntersectsBox(box, 0))
	assert.False(t, miss.IntersectsBox(box, 0))
	assert.True(t, miss.IntersectsBox(box, 2.5), "threshold widens the box")
	assert.False(t, short.IntersectsBox(box, 0))
	assert.False(t, away.IntersectsBox(box, 0))

	assert.True(t, hit.IntersectsSphere(sphere, 0))
	assert.False(t, miss.IntersectsSphere(sphere, 0))
	assert.False(t, away.IntersectsSphere(sphere, 0))
}

func TestRay_IntersectsPlane(t *testing.T) {
	p := common.PlaneFromPositionAndNormal(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})

	d, ok := NewRay(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{0, -1, 0}, 0).IntersectsPlane(p)
	require.True(t, ok)
	assert.InDelta(t, 5.0, d, 1e-6)

	_, ok = NewRay(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{1, 0, 0}, 0).IntersectsPlane(p)
	assert.False(t, ok, "parallel")

	_, ok = NewRay(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{0, 1, 0}, 0).IntersectsPlane(p)
	assert.False(t, ok, "plane behind origin")
}

func TestRay_IntersectsAxis(t *testing.T) {
	r := NewRay(mgl32.Vec3{0, 4, 0}, mgl32.Vec3{1, -1, 0}, 0)
	p, ok := r.IntersectsAxis(AxisY, 0)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{4, 0, 0}, p)

	_, ok = r.IntersectsAxis(AxisY, 10)
	assert.False(t, ok)
	_, ok = r.IntersectsAxis(AxisZ, 1)
	assert.False(t, ok)
}

func TestRay_IntersectsTriangle(t *testing.T) {
	r := NewRay(mgl32.Vec3{0.25, 0.25, -1}, mgl32.Vec3{0, 0, 1}, 0)
	d, u, v, ok := r.IntersectsTriangle(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0})
	require.True(t, ok)
	assert.InDelta(t, 1.0, d, 1e-6)
	assert.InDelta(t, 0.25, u, 1e-6)
	assert.InDelta(t, 0.25, v, 1e-6)

	_, _, _, ok = NewRay(mgl32.Vec3{2, 2, -1}, mgl32.Vec3{0, 0, 1}, 0).
		IntersectsTriangle(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0})
	assert.False(t, ok)
}

func TestRay_TransformAndUnproject(t *testing.T) {
	r := NewRayFromTo(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 2})
	moved := r.Transform(mgl32.Translate3D(1, 0, 0).Mul4(mgl32.Scale3D(1, 1, 3)))

	assert.Equal(t, mgl32.Vec3{1, 0, 0}, moved.Origin)
	assert.InDelta(t, 1.0, moved.Direction.Z(), 1e-6)
	assert.InDelta(t, 6.0, moved.Length, 1e-5)

	ray, ok := Unproject(50, 50, 100, 100, mgl32.Ident4(), mgl32.Ident4(), mgl32.Ident4())
	require.True(t, ok)
	assert.InDelta(t, 0.0, ray.Origin.Z(), 1e-6)
	assert.InDelta(t, 1.0, ray.Direction.Z(), 1e-6)
	assert.InDelta(t, 1.0, ray.Length, 1e-6)
}
