package xr

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/bounding"
	"github.com/Carmen-Shannon/oxy-xr/engine/frame"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eyeOffset = 0.032

// stereoEyes returns a viewer at the origin looking down -Z with a 90 degree field of view per eye.
func stereoEyes() [frame.PassCount]EyeView {
	proj := common.Perspective(float32(math.Pi/2), 1, 0.1, 100)
	return [frame.PassCount]EyeView{
		{View: mgl32.Translate3D(eyeOffset, 0, 0), Projection: proj},
		{View: mgl32.Translate3D(-eyeOffset, 0, 0), Projection: proj},
	}
}

func beginTick(t *testing.T, d Device) []*frame.MultiPassFrame {
	t.Helper()
	eyes, err := d.BeginDeviceFrame(mgl32.Ident4(), stereoEyes())
	require.NoError(t, err)
	require.Len(t, eyes, frame.PassCount)
	return eyes
}

func at(x, y, z float32) SessionBuilderOption {
	return WithBaseMatrix(mgl32.Translate3D(x, y, z))
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSession_AdmissionGate(t *testing.T) {
	d := NewDevice(WithZoneWorkers(2))
	defer d.Close()

	front, err := d.RequestSession(at(0, 0, -5))
	require.NoError(t, err)
	behind, err := d.RequestSession(at(0, 0, 5))
	require.NoError(t, err)

	_, err = front.CreateStereoRenderingFrame(true)
	assert.ErrorIs(t, err, ErrSessionCulled, "sessions start culled until the first zone update")

	eyes := beginTick(t, d)
	front.UpdateStatesInZone(eyes...)
	behind.UpdateStatesInZone(eyes...)

	assert.True(t, front.IsInFrustum())
	assert.True(t, front.IsCompletelyInFrustum())
	assert.False(t, behind.IsInFrustum())
	assert.False(t, behind.IsCompletelyInFrustum())

	f, err := front.CreateStereoRenderingFrame(true)
	require.NoError(t, err)
	assert.Equal(t, front.ID(), f.SessionID())
	assert.True(t, f.IsMultiPass())

	single, err := front.CreateStereoRenderingFrame(false)
	require.NoError(t, err)
	assert.Equal(t, 1, single.PassCount())
	assert.Greater(t, single.ID(), f.ID())

	_, err = behind.CreateStereoRenderingFrame(true)
	assert.ErrorIs(t, err, ErrSessionCulled)

	assert.Equal(t, uint64(2), front.FramesBuilt())
	assert.Equal(t, uint64(0), behind.FramesBuilt())
}

func TestSession_PartiallyVisible(t *testing.T) {
	d := NewDevice(WithZoneWorkers(1))
	defer d.Close()

	// At z = -5 a 90 degree frustum is 5 units wide on each side; this cube straddles the left edge.
	edge, err := d.RequestSession(at(-5, 0, -5))
	require.NoError(t, err)

	edge.UpdateStatesInZone(beginTick(t, d)...)
	assert.True(t, edge.IsInFrustum())
	assert.False(t, edge.IsCompletelyInFrustum())
}

func TestSession_EitherEyeAdmits(t *testing.T) {
	d := NewDevice(WithZoneWorkers(1))
	defer d.Close()

	proj := common.Perspective(float32(math.Pi/2), 1, 0.1, 100)
	// The left eye looks down -Z, the right eye looks down +Z.
	eyes, err := d.BeginDeviceFrame(mgl32.Ident4(), [frame.PassCount]EyeView{
		{View: mgl32.Ident4(), Projection: proj},
		{View: mgl32.HomogRotate3DY(float32(math.Pi)), Projection: proj},
	})
	require.NoError(t, err)

	behind, err := d.RequestSession(at(0, 0, 5))
	require.NoError(t, err)
	behind.UpdateStatesInZone(eyes...)
	assert.True(t, behind.IsInFrustum(), "visible to the right eye")
	assert.False(t, behind.IsCompletelyInFrustum(), "not contained by the left eye")

	behind.UpdateStatesInZone(eyes[0])
	assert.False(t, behind.IsInFrustum())
}

func TestSession_UsesTransformRegisteredInDeviceFrame(t *testing.T) {
	d := NewDevice(WithZoneWorkers(1))
	defer d.Close()

	s, err := d.RequestSession(WithLocalTransform(mgl32.Translate3D(0, 0, -5)))
	require.NoError(t, err)

	eyes := beginTick(t, d)
	slot, ok := eyes[0].Session(s.ID())
	require.True(t, ok)
	assert.Equal(t, mgl32.Translate3D(0, 0, -5), slot.LocalTransform)

	s.SetLocalTransform(mgl32.Translate3D(0, 0, 5))
	s.UpdateStatesInZone(eyes...)
	assert.True(t, s.IsInFrustum(), "the tick keeps the transform registered when it began")

	s.UpdateStatesInZone(beginTick(t, d)...)
	assert.False(t, s.IsInFrustum(), "the next tick picks up the new transform")
}

func TestSession_WorldTransformIsBaseTimesLocal(t *testing.T) {
	d := NewDevice(WithZoneWorkers(1))
	defer d.Close()

	s, err := d.RequestSession(at(0, 0, -10), WithLocalTransform(mgl32.Translate3D(2, 0, 0)))
	require.NoError(t, err)
	s.UpdateStatesInZone(beginTick(t, d)...)

	box := s.BoundingInfo().Box()
	assert.InDelta(t, 2, box.CenterWorld.X(), 1e-5)
	assert.InDelta(t, -10, box.CenterWorld.Z(), 1e-5)
}

func TestSession_SetLocalBounds(t *testing.T) {
	d := NewDevice(WithZoneWorkers(1))
	defer d.Close()

	s, err := d.RequestSession(at(0, 0, 5))
	require.NoError(t, err)
	eyes := beginTick(t, d)

	s.UpdateStatesInZone(eyes...)
	assert.False(t, s.IsInFrustum())

	s.SetLocalBounds(mgl32.Vec3{-20, -20, -20}, mgl32.Vec3{20, 20, 20})
	assert.Equal(t, mgl32.Vec3{-20, -20, -20}, s.BoundingInfo().Minimum())
	s.UpdateStatesInZone(eyes...)
	assert.True(t, s.IsInFrustum(), "the grown volume reaches into the frustum")
}

func TestSession_OptionsAndDefaults(t *testing.T) {
	d := NewDevice(WithZoneWorkers(1), WithDefaultCullingStrategy(bounding.CullingStrategyBoundingSphereOnly))
	defer d.Close()

	plain, err := d.RequestSession()
	require.NoError(t, err)
	assert.Equal(t, bounding.CullingStrategyBoundingSphereOnly, plain.CullingStrategy())
	assert.Equal(t, float32(1), plain.RecommendedContentScale())
	assert.Equal(t, mgl32.Ident4(), plain.BaseMatrix())
	assert.Nil(t, plain.FrameCallback())

	called := false
	custom, err := d.RequestSession(
		WithCullingStrategy(bounding.CullingStrategyOptimisticInclusion),
		WithContentScale(0.25),
		WithContentScale(-1),
		WithFrameCallback(func(*FrameContext) error { called = true; return nil }),
	)
	require.NoError(t, err)
	assert.Equal(t, bounding.CullingStrategyOptimisticInclusion, custom.CullingStrategy())
	assert.Equal(t, float32(0.25), custom.RecommendedContentScale())
	require.NotNil(t, custom.FrameCallback())
	require.NoError(t, custom.FrameCallback()(nil))
	assert.True(t, called)

	custom.SetBaseMatrix(mgl32.Translate3D(1, 2, 3))
	assert.Equal(t, mgl32.Translate3D(1, 2, 3), custom.BaseMatrix())
	assert.Greater(t, custom.ID(), plain.ID())
}

func TestSession_End(t *testing.T) {
	d := NewDevice(WithZoneWorkers(1))
	defer d.Close()

	s, err := d.RequestSession(at(0, 0, -5))
	require.NoError(t, err)
	s.UpdateStatesInZone(beginTick(t, d)...)
	require.True(t, s.IsInFrustum())

	s.End()
	s.End()
	assert.True(t, s.Ended())
	assert.False(t, s.IsInFrustum())
	_, err = s.CreateStereoRenderingFrame(true)
	assert.ErrorIs(t, err, ErrSessionEnded)
}
