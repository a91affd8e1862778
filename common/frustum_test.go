package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFrustum_IdentityIsClipCube(t *testing.T) {
	f := ExtractFrustum(mgl32.Ident4())

	tests := []struct {
		name  string
		point mgl32.Vec3
		want  bool
	}{
		{"origin", mgl32.Vec3{0, 0, 0}, true},
		{"center", mgl32.Vec3{0, 0, 0.5}, true},
		{"left of cube", mgl32.Vec3{-1.5, 0, 0.5}, false},
		{"right of cube", mgl32.Vec3{1.5, 0, 0.5}, false},
		{"below", mgl32.Vec3{0, -2, 0.5}, false},
		{"above", mgl32.Vec3{0, 2, 0.5}, false},
		{"behind near", mgl32.Vec3{0, 0, -0.1}, false},
		{"beyond far", mgl32.Vec3{0, 0, 1.1}, false},
		{"on far corner", mgl32.Vec3{1, 1, 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.ContainsPoint(tt.point))
		})
	}
}

func TestExtractFrustum_PlanesAreNormalized(t *testing.T) {
	proj := Perspective(float32(math.Pi/3), 1.5, 0.1, 100)
	view := LookAt(mgl32.Vec3{0, 2, 5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	f := ExtractFrustum(proj.Mul4(view))

	for i, p := range f {
		assert.InDelta(t, 1.0, p.Normal.Len(), 1e-5, "plane %d", i)
	}
}

func TestExtractFrustum_PerspectiveNearFar(t *testing.T) {
	proj := Perspective(float32(math.Pi/2), 1, 1, 10)
	f := ExtractFrustum(proj)

	// Camera looks down -Z.
	assert.True(t, f.ContainsPoint(mgl32.Vec3{0, 0, -5}))
	assert.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, -0.5}), "in front of near plane")
	assert.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, -11}), "beyond far plane")
	assert.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, 5}), "behind the viewer")

	assert.InDelta(t, 1.0, f[FrustumNear].DotCoordinate(mgl32.Vec3{0, 0, -2}), 1e-4)
	assert.InDelta(t, 1.0, f[FrustumFar].DotCoordinate(mgl32.Vec3{0, 0, -9}), 1e-4)
}

func TestFrustum_IntersectsSphere(t *testing.T) {
	f := ExtractFrustum(mgl32.Ident4())

	assert.True(t, f.IntersectsSphere(mgl32.Vec3{-1.4, 0, 0.5}, 0.5), "straddles left plane")
	assert.False(t, f.IntersectsSphere(mgl32.Vec3{-1.6, 0, 0.5}, 0.5), "fully left")
	assert.True(t, f.IntersectsSphere(mgl32.Vec3{-1, 0, 0.5}, 0.01), "center on plane")
}

func TestPlaneFromPoints(t *testing.T) {
	p := PlaneFromPoints(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0})
	require.InDelta(t, 1.0, p.Normal.Z(), 1e-6)
	assert.InDelta(t, 3.0, p.DotCoordinate(mgl32.Vec3{5, 5, 3}), 1e-6)

	degenerate := PlaneFromPoints(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{2, 0, 0})
	assert.Equal(t, Plane{}, degenerate)
}

func TestPlane_Transform(t *testing.T) {
	p := PlaneFromPositionAndNormal(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	moved := p.Transform(mgl32.Translate3D(0, 2, 0))

	assert.InDelta(t, 0.0, moved.DotCoordinate(mgl32.Vec3{7, 2, -3}), 1e-5)
	assert.InDelta(t, 1.0, moved.DotCoordinate(mgl32.Vec3{0, 3, 0}), 1e-5)
}

func TestPlane_IsFrontFacingTo(t *testing.T) {
	p := PlaneFromPositionAndNormal(mgl32.Vec3{}, mgl32.Vec3{0, 0, 1})
	assert.True(t, p.IsFrontFacingTo(mgl32.Vec3{0, 0, -1}, 0))
	assert.False(t, p.IsFrontFacingTo(mgl32.Vec3{0, 0, 1}, 0))
}

func TestMaxAxisScale(t *testing.T) {
	m := ComposeTRS(mgl32.Vec3{4, 5, 6}, mgl32.QuatRotate(0.7, mgl32.Vec3{0, 1, 0}), mgl32.Vec3{1, 3, 2})
	assert.InDelta(t, 3.0, MaxAxisScale(m), 1e-5)
	assert.InDelta(t, 1.0, MaxAxisScale(mgl32.Ident4()), 1e-6)
}

func TestInvert_Singular(t *testing.T) {
	_, ok := Invert(mgl32.Mat4{})
	assert.False(t, ok)

	inv, ok := Invert(mgl32.Translate3D(1, 2, 3))
	require.True(t, ok)
	assert.True(t, inv.ApproxEqual(mgl32.Translate3D(-1, -2, -3)))
}
