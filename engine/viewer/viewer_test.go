package viewer

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVecInDelta(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "component %d of %v", i, got)
	}
}

func TestController_Defaults(t *testing.T) {
	c := NewController()
	assertVecInDelta(t, mgl32.Vec3{0, 0, 2}, c.Position())
	assert.Equal(t, mgl32.Vec3{}, c.Target())
	assert.Equal(t, float32(2), c.Radius())
}

func TestController_Orbit(t *testing.T) {
	c := NewController(WithOrbitSpeed(float32(math.Pi/2)), WithRadius(4))

	c.OrbitRight()
	assertVecInDelta(t, mgl32.Vec3{4, 0, 0}, c.Position())
	c.OrbitLeft()
	c.OrbitLeft()
	assertVecInDelta(t, mgl32.Vec3{-4, 0, 0}, c.Position())

	for i := 0; i < 10; i++ {
		c.OrbitUp()
	}
	assert.InDelta(t, math.Pi/2-0.1, c.Elevation(), 1e-6, "elevation is clamped")
	for i := 0; i < 10; i++ {
		c.OrbitDown()
	}
	assert.InDelta(t, -(math.Pi/2 - 0.1), c.Elevation(), 1e-6)
}

func TestController_ZoomIsClamped(t *testing.T) {
	c := NewController(WithRadiusBounds(1, 3), WithZoomSpeed(1))
	c.Zoom(0.5)
	assert.Equal(t, float32(1.5), c.Radius())
	c.Zoom(10)
	assert.Equal(t, float32(1), c.Radius())
	c.Zoom(-10)
	assert.Equal(t, float32(3), c.Radius())
}

func TestController_SetTargetMovesPosition(t *testing.T) {
	c := NewController(WithTarget(mgl32.Vec3{1, 1, 1}))
	assertVecInDelta(t, mgl32.Vec3{1, 1, 3}, c.Position())
	c.SetTarget(mgl32.Vec3{0, 5, 0})
	assertVecInDelta(t, mgl32.Vec3{0, 5, 2}, c.Position())
}

func TestController_HandleKey(t *testing.T) {
	c := NewController()

	require.True(t, c.HandleKey(common.KeyW))
	assert.Greater(t, c.Elevation(), float32(0))
	require.True(t, c.HandleKey(common.KeyS))
	assert.InDelta(t, 0, c.Elevation(), 1e-6)

	require.True(t, c.HandleKey(common.KeyD))
	assert.Greater(t, c.Azimuth(), float32(0))
	require.True(t, c.HandleKey(common.KeyA))
	assert.InDelta(t, 0, c.Azimuth(), 1e-6)

	require.True(t, c.HandleKey(common.KeyE))
	assert.Less(t, c.Radius(), float32(2))
	require.True(t, c.HandleKey(common.KeyQ))
	assert.InDelta(t, 2, c.Radius(), 1e-6)

	assert.False(t, c.HandleKey(common.KeyP))
}

func TestViewer_EyesAreOffsetByIPD(t *testing.T) {
	v := NewViewer(WithIPD(0.1))

	origin := mgl32.Vec4{0, 0, 0, 1}
	left := v.EyeView(EyeLeft).View.Mul4x1(origin)
	right := v.EyeView(EyeRight).View.Mul4x1(origin)

	assert.InDelta(t, 0.05, left.X(), 1e-5, "the origin appears right of the left eye")
	assert.InDelta(t, -0.05, right.X(), 1e-5)
	assert.InDelta(t, -2, left.Z(), 1e-5)
	assert.InDelta(t, -2, right.Z(), 1e-5)

	assert.Equal(t, v.EyeView(EyeLeft).Projection, v.EyeView(EyeRight).Projection)
	assert.Equal(t, v.EyeView(EyeRight), v.EyeView(7), "out of range eyes are clamped")
}

func TestViewer_TransformIsHeadPose(t *testing.T) {
	v := NewViewer()
	head := v.Transform().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assertVecInDelta(t, mgl32.Vec3{0, 0, 2}, head.Vec3())
}

func TestViewer_UpdateFollowsController(t *testing.T) {
	ctrl := NewController(WithOrbitSpeed(float32(math.Pi / 2)))
	v := NewViewer(WithController(ctrl))
	before := v.EyeView(EyeLeft)

	ctrl.OrbitRight()
	assert.Equal(t, before, v.EyeView(EyeLeft), "matrices only change on Update")

	v.Update()
	head := v.Transform().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assertVecInDelta(t, mgl32.Vec3{2, 0, 0}, head.Vec3())
	assert.Same(t, ctrl, v.Controller())
}

func TestViewer_ProjectionSettings(t *testing.T) {
	v := NewViewer(WithFov(1), WithAspect(2), WithClipPlanes(0.5, 50), WithAspect(-1))
	assert.Equal(t, float32(1), v.Fov())
	assert.Equal(t, float32(2), v.Aspect())
	assert.Equal(t, float32(0.5), v.Near())
	assert.Equal(t, float32(50), v.Far())
	assert.Equal(t, common.Perspective(1, 2, 0.5, 50), v.EyeView(EyeLeft).Projection)

	v.SetAspect(0)
	assert.Equal(t, float32(2), v.Aspect())
	v.SetFov(float32(math.Pi / 3))
	v.SetNear(1)
	v.SetFar(10)
	v.SetAspect(1.5)
	assert.Equal(t, common.Perspective(float32(math.Pi/3), 1.5, 1, 10), v.EyeView(EyeRight).Projection)

	v.SetIPD(0)
	assert.Equal(t, v.EyeView(EyeLeft).View, v.EyeView(EyeRight).View)
	assert.Equal(t, float32(0), v.IPD())
}
