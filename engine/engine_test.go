package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/config"
	"github.com/Carmen-Shannon/oxy-xr/engine/command"
	"github.com/Carmen-Shannon/oxy-xr/engine/frame"
	"github.com/Carmen-Shannon/oxy-xr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-xr/engine/xr"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, options ...EngineBuilderOption) Engine {
	t.Helper()
	opts := append([]EngineBuilderOption{
		WithDeviceOptions(xr.WithZoneWorkers(2), xr.WithFrameTimeout(0)),
	}, options...)
	e, err := NewEngine(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func rendererMemory(maxTextureSize int32) renderer.BackendConfig {
	return renderer.BackendConfig{Type: renderer.BackendTypeMemory, MaxTextureSize: maxTextureSize}
}

// clearEveryPass is a frame callback that clears each pass it is given.
func clearEveryPass(calls *atomic.Int32) xr.FrameCallback {
	return func(fc *xr.FrameContext) error {
		calls.Add(1)
		return fc.Add(command.NewClear(command.ClearColorBit))
	}
}

func TestEngine_TickBuildsFramesOnlyForVisibleSessions(t *testing.T) {
	e := newTestEngine(t)

	var frontCalls, behindCalls atomic.Int32
	// The default viewer sits at z=2 looking down -Z.
	_, err := e.XRDevice().RequestSession(xr.WithBaseMatrix(mgl32.Translate3D(0, 0, -3)), xr.WithFrameCallback(clearEveryPass(&frontCalls)))
	require.NoError(t, err)
	_, err = e.XRDevice().RequestSession(xr.WithBaseMatrix(mgl32.Translate3D(0, 0, 10)), xr.WithFrameCallback(clearEveryPass(&behindCalls)))
	require.NoError(t, err)

	require.NoError(t, e.Tick(1.0/72))

	assert.Equal(t, int32(2), frontCalls.Load(), "one callback per eye pass")
	assert.Zero(t, behindCalls.Load(), "culled sessions get no frame")
	assert.Equal(t, 1, e.XRDevice().Frames().Len())

	worked, err := e.Executor().Step(context.Background())
	require.NoError(t, err)
	require.True(t, worked)

	stats := e.Stats()
	assert.Equal(t, uint64(1), stats.Ticks)
	assert.Equal(t, uint64(1), stats.FramesBuilt)
	assert.Equal(t, uint64(1), stats.Renderer.FramesExecuted)
	assert.Equal(t, uint64(2), stats.Renderer.PassesExecuted)
	assert.Equal(t, uint64(2), stats.Renderer.Device.Clears)
	assert.Equal(t, 1, stats.XR.VisibleLastTick)
	assert.Equal(t, 1, stats.XR.CulledLastTick)
}

func TestEngine_FrameContextSeesTheTick(t *testing.T) {
	e := newTestEngine(t)

	var seen []*xr.FrameContext
	_, err := e.XRDevice().RequestSession(
		xr.WithBaseMatrix(mgl32.Translate3D(0, 0, -3)),
		xr.WithFrameCallback(func(fc *xr.FrameContext) error {
			seen = append(seen, fc)
			return nil
		}),
	)
	require.NoError(t, err)

	require.NoError(t, e.Tick(0))
	require.NoError(t, e.Tick(0))
	require.Len(t, seen, 4)

	for i, fc := range seen {
		assert.Equal(t, uint64(i/2+1), fc.Tick)
		assert.Equal(t, i%2, fc.Pass)
		assert.Equal(t, i%2, fc.Eye().Eye())
		assert.True(t, fc.Frame.IsMultiPass())
	}
	assert.Less(t, seen[0].Frame.ID(), seen[2].Frame.ID())

	left := e.Viewer().EyeView(0)
	assert.Equal(t, left.View, seen[2].Eye().ViewMatrix(), "eye frames carry the viewer's eye views")
	assert.True(t, seen[0].Eye().Ended(), "the device frame ends with its tick")
}

func TestEngine_SinglePassConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Stereo = config.StereoSinglePass
	cfg.FrameTimeout = 0
	e := newTestEngine(t, WithConfig(cfg))
	assert.False(t, e.XRDevice().IsMultiPass())

	var calls atomic.Int32
	_, err := e.XRDevice().RequestSession(xr.WithBaseMatrix(mgl32.Translate3D(0, 0, -3)), xr.WithFrameCallback(clearEveryPass(&calls)))
	require.NoError(t, err)

	require.NoError(t, e.Tick(0))
	assert.Equal(t, int32(1), calls.Load())

	f := e.XRDevice().NextAvailableFrame()
	require.NotNil(t, f)
	assert.Equal(t, 1, f.PassCount())
	assert.Len(t, f.CommandBuffers(0), 1)
}

func TestEngine_CallbackErrorDiscardsFrame(t *testing.T) {
	e := newTestEngine(t)

	query := command.NewGetError()
	_, err := e.XRDevice().RequestSession(
		xr.WithBaseMatrix(mgl32.Translate3D(0, 0, -3)),
		xr.WithFrameCallback(func(fc *xr.FrameContext) error {
			if fc.Pass == 1 {
				return errors.New("content failed")
			}
			return fc.Add(query)
		}),
	)
	require.NoError(t, err)

	require.NoError(t, e.Tick(0))
	assert.Zero(t, e.XRDevice().Frames().Len())
	assert.True(t, query.Completed(), "commands stranded in a discarded frame are completed")

	stats := e.Stats()
	assert.Equal(t, uint64(1), stats.FramesDiscarded)
	assert.Zero(t, stats.FramesBuilt)
}

func TestEngine_SessionWithoutCallbackStillGetsFrame(t *testing.T) {
	var submitted []*frame.StereoRenderingFrame
	e := newTestEngine(t, WithFrameSubmitHook(func(f *frame.StereoRenderingFrame) { submitted = append(submitted, f) }))

	s, err := e.XRDevice().RequestSession(xr.WithBaseMatrix(mgl32.Translate3D(0, 0, -3)))
	require.NoError(t, err)
	require.NoError(t, e.Tick(0))

	require.Len(t, submitted, 1)
	assert.Equal(t, s.ID(), submitted[0].SessionID())
	assert.True(t, submitted[0].Ended())
	assert.Zero(t, submitted[0].CommandCount())
}

func TestEngine_TickCallbackRunsFirst(t *testing.T) {
	e := newTestEngine(t)

	s, err := e.XRDevice().RequestSession(xr.WithBaseMatrix(mgl32.Translate3D(0, 0, 10)))
	require.NoError(t, err)

	// Moving the session in front of the viewer before the zone update admits it on this tick.
	e.SetTickCallback(func(float32) { s.SetBaseMatrix(mgl32.Translate3D(0, 0, -3)) })
	require.NoError(t, e.Tick(0))
	assert.True(t, s.IsInFrustum())
	assert.Equal(t, 1, e.XRDevice().Frames().Len())
}

func TestEngine_HandleKey(t *testing.T) {
	e := newTestEngine(t)
	impl := e.(*engine)

	impl.handleKey(common.KeyP)
	assert.True(t, e.ProfilerEnabled())
	impl.handleKey(common.KeyP)
	assert.False(t, e.ProfilerEnabled())

	impl.handleKey(common.KeySpace)
	require.True(t, e.Paused())
	require.NoError(t, e.Tick(0))
	assert.Zero(t, e.Stats().Ticks, "paused ticks do nothing")
	impl.handleKey(common.KeySpace)
	assert.False(t, e.Paused())

	impl.handleKey(common.KeyW)
	assert.Greater(t, e.Viewer().Controller().Elevation(), float32(0))
}

func TestEngine_RunExecutesEverySubmittedFrame(t *testing.T) {
	var calls atomic.Int32
	var maxTexture atomic.Int32
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	e := newTestEngine(t, WithTickRate(500), WithBackend(rendererMemory(1024)))
	_, err := e.XRDevice().RequestSession(
		xr.WithBaseMatrix(mgl32.Translate3D(0, 0, -3)),
		xr.WithFrameCallback(func(fc *xr.FrameContext) error {
			calls.Add(1)
			if fc.Tick == 1 && fc.Pass == 0 {
				r, err := fc.Query(ctx, command.NewGetParameter(command.ParamMaxTextureSize))
				if err != nil {
					return err
				}
				maxTexture.Store(r.Int)
			}
			return fc.Add(command.NewClear(command.ClearColorBit))
		}),
	)
	require.NoError(t, err)

	var ticks atomic.Int32
	e.SetTickCallback(func(float32) {
		if ticks.Add(1) == 5 {
			e.Quit()
		}
	})

	require.NoError(t, e.Run(ctx))

	stats := e.Stats()
	assert.GreaterOrEqual(t, stats.Ticks, uint64(5))
	assert.Equal(t, int32(1024), maxTexture.Load(), "queries are answered while the engine runs")
	assert.Equal(t, stats.FramesBuilt, stats.Renderer.FramesExecuted, "queued frames are drained before Run returns")
	assert.Equal(t, stats.FramesBuilt, stats.XR.FramesSubmitted)
	assert.Equal(t, uint64(calls.Load()), stats.Renderer.Device.Clears)
	assert.Equal(t, uint64(1), stats.Renderer.ImmediateExecuted)

	assert.ErrorIs(t, e.Run(ctx), ErrEngineClosed)
	assert.ErrorIs(t, e.Tick(0), xr.ErrDeviceClosed)
}

func TestEngine_QueryOnFinalTickIsAnswered(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	e := newTestEngine(t, WithTickRate(500), WithBackend(rendererMemory(512)))
	var answered atomic.Int32
	var queryErr atomic.Value
	_, err := e.XRDevice().RequestSession(
		xr.WithBaseMatrix(mgl32.Translate3D(0, 0, -3)),
		xr.WithFrameCallback(func(fc *xr.FrameContext) error {
			if fc.Tick != 3 || fc.Pass != 0 {
				return nil
			}
			r, err := fc.Query(ctx, command.NewGetParameter(command.ParamMaxTextureSize))
			if err != nil {
				queryErr.Store(err)
				return err
			}
			answered.Store(r.Int)
			return nil
		}),
	)
	require.NoError(t, err)

	var ticks atomic.Int32
	e.SetTickCallback(func(float32) {
		if ticks.Add(1) == 3 {
			e.SetPaused(true)
			e.Quit()
		}
	})

	require.NoError(t, e.Run(ctx))
	assert.Nil(t, queryErr.Load())
	assert.Equal(t, int32(512), answered.Load(), "the render loop outlives the tick that quits")
	assert.Equal(t, uint64(3), e.Stats().Ticks)
}

func TestEngine_RunStopsOnContextCancel(t *testing.T) {
	e := newTestEngine(t, WithTickRate(1000), WithRenderFrameLimit(240))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	e.SetRenderFrameLimit(0)
	e.SetTickRate(2000)
	require.NoError(t, e.Run(ctx))
	assert.True(t, e.(*engine).closed.Load())
}

func TestEngine_Close(t *testing.T) {
	e := newTestEngine(t)
	s, err := e.XRDevice().RequestSession()
	require.NoError(t, err)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.True(t, s.Ended())
	e.Quit()
}
