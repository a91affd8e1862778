package xr

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-xr/engine/command"
	"github.com/Carmen-Shannon/oxy-xr/engine/frame"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFrame runs the producer side of one session's frame: start, fill and end every pass.
func buildFrame(t *testing.T, s Session, multiPass bool, cmds ...*command.CommandBuffer) *frame.StereoRenderingFrame {
	t.Helper()
	f, err := s.CreateStereoRenderingFrame(multiPass)
	require.NoError(t, err)
	for p := 0; p < f.PassCount(); p++ {
		require.NoError(t, f.StartFrame(p))
		for _, cb := range cmds {
			require.NoError(t, f.AddCommandBuffer(p, cb))
		}
		require.NoError(t, f.EndFrame(p))
	}
	return f
}

func TestDevice_UpdateSessionsInZone(t *testing.T) {
	d := NewDevice(WithZoneWorkers(4))
	defer d.Close()

	const n = 40
	var wantVisible []uint32
	for i := 0; i < n; i++ {
		z := float32(-5)
		if i%2 == 1 {
			z = 5
		}
		s, err := d.RequestSession(at(float32(i%5)-2, 0, z))
		require.NoError(t, err)
		if z < 0 {
			wantVisible = append(wantVisible, s.ID())
		}
	}

	visible := d.UpdateSessionsInZone(beginTick(t, d))
	var got []uint32
	for _, s := range visible {
		got = append(got, s.ID())
	}
	assert.Equal(t, wantVisible, got, "visible sessions are returned in id order")

	for _, id := range wantVisible {
		assert.True(t, d.IsSessionVisible(id))
	}
	assert.False(t, d.IsSessionVisible(2))
	assert.False(t, d.IsSessionVisible(999))

	stats := d.Stats()
	assert.Equal(t, n, stats.Sessions)
	assert.Equal(t, n/2, stats.VisibleLastTick)
	assert.Equal(t, n/2, stats.CulledLastTick)
	assert.Equal(t, uint64(n/2), stats.CulledTotal)
	assert.Equal(t, uint64(1), stats.Ticks)
}

func TestDevice_BeginDeviceFrame(t *testing.T) {
	d := NewDevice(WithZoneWorkers(1), WithMultiPass(false))
	defer d.Close()
	assert.False(t, d.IsMultiPass())

	a, err := d.RequestSession()
	require.NoError(t, err)
	b, err := d.RequestSession()
	require.NoError(t, err)

	viewer := mgl32.Translate3D(0, 1.6, 0)
	eyes, err := d.BeginDeviceFrame(viewer, stereoEyes())
	require.NoError(t, err)

	for i, eye := range eyes {
		assert.Equal(t, i, eye.Eye())
		assert.False(t, eye.IsMultiPass())
		assert.Equal(t, viewer, eye.ViewerTransform())
	}
	assert.Same(t, eyes[0].DeviceFrame, eyes[1].DeviceFrame, "both eyes share the tick's device frame")

	slots := eyes[0].Sessions()
	require.Len(t, slots, 2)
	assert.Equal(t, a.ID(), slots[0].SessionID)
	assert.Equal(t, b.ID(), slots[1].SessionID)

	next := beginTick(t, d)
	assert.True(t, eyes[0].Ended(), "opening a tick ends the previous one")
	assert.False(t, next[0].Ended())
}

func TestDevice_SessionsAndEndSession(t *testing.T) {
	d := NewDevice(WithZoneWorkers(1))
	defer d.Close()

	for i := 0; i < 3; i++ {
		_, err := d.RequestSession()
		require.NoError(t, err)
	}
	sessions := d.Sessions()
	require.Len(t, sessions, 3)
	assert.True(t, sort.SliceIsSorted(sessions, func(i, j int) bool { return sessions[i].ID() < sessions[j].ID() }))

	s, ok := d.Session(2)
	require.True(t, ok)
	require.NoError(t, d.EndSession(2))
	assert.True(t, s.Ended())
	_, ok = d.Session(2)
	assert.False(t, ok)
	assert.ErrorIs(t, d.EndSession(2), ErrSessionNotFound)
	assert.Len(t, d.Sessions(), 2)
}

func TestDevice_FrameIDsAreSharedAcrossSessions(t *testing.T) {
	d := NewDevice(WithZoneWorkers(2))
	defer d.Close()

	var sessions []Session
	for i := 0; i < 4; i++ {
		s, err := d.RequestSession(at(0, 0, -5))
		require.NoError(t, err)
		sessions = append(sessions, s)
	}
	d.UpdateSessionsInZone(beginTick(t, d))

	const perSession = 100
	var mu sync.Mutex
	seen := make(map[uint64]bool)
	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s Session) {
			defer wg.Done()
			last := uint64(0)
			for i := 0; i < perSession; i++ {
				f, err := s.CreateStereoRenderingFrame(true)
				if !assert.NoError(t, err) {
					return
				}
				assert.Greater(t, f.ID(), last, "ids increase within a session")
				last = f.ID()
				mu.Lock()
				seen[f.ID()] = true
				mu.Unlock()
			}
		}(s)
	}
	wg.Wait()

	assert.Len(t, seen, len(sessions)*perSession, "ids are distinct across sessions")
	assert.Equal(t, uint64(len(sessions)*perSession), d.FrameIDs().Last())
}

func TestDevice_SubmitFrame(t *testing.T) {
	d := NewDevice(WithZoneWorkers(1), WithFrameTimeout(0))
	defer d.Close()

	s, err := d.RequestSession(at(0, 0, -5))
	require.NoError(t, err)
	d.UpdateSessionsInZone(beginTick(t, d))

	open, err := s.CreateStereoRenderingFrame(true)
	require.NoError(t, err)
	assert.ErrorIs(t, d.SubmitFrame(open), frame.ErrFrameNotEnded)

	f := buildFrame(t, s, true, command.NewClear(command.ClearColorBit))
	require.NoError(t, d.SubmitFrame(f))
	assert.Same(t, f, d.Frames().NextAvailable())
	assert.True(t, f.AddedOnce())
	assert.Nil(t, d.NextAvailableFrame())

	assert.Equal(t, uint64(1), d.Stats().FramesSubmitted)
}

func TestDevice_ExpiredFramesAreDropped(t *testing.T) {
	clk := newManualClock()
	var dropped []uint64
	d := NewDevice(
		WithZoneWorkers(1),
		WithClock(clk.Now),
		WithFrameTimeout(10*time.Millisecond),
		WithFrameDropCallback(func(f *frame.StereoRenderingFrame) { dropped = append(dropped, f.ID()) }),
	)
	defer d.Close()

	s, err := d.RequestSession(at(0, 0, -5))
	require.NoError(t, err)
	d.UpdateSessionsInZone(beginTick(t, d))

	stale := buildFrame(t, s, true, command.NewClear(command.ClearColorBit))
	pinned := buildFrame(t, s, true, command.NewCreateTexture(3))
	require.NoError(t, d.SubmitFrame(stale))
	require.NoError(t, d.SubmitFrame(pinned))

	clk.Advance(10 * time.Millisecond)
	clk.Advance(time.Millisecond)

	assert.Same(t, pinned, d.NextAvailableFrame(), "expired frames with resource commands still run")
	assert.Equal(t, []uint64{stale.ID()}, dropped)
	assert.True(t, stale.Released())
	assert.Equal(t, uint64(1), d.Stats().FramesDropped)
}

func TestDevice_Close(t *testing.T) {
	d := NewDevice(WithZoneWorkers(1), WithFrameTimeout(0))

	s, err := d.RequestSession(at(0, 0, -5))
	require.NoError(t, err)
	d.UpdateSessionsInZone(beginTick(t, d))

	query := command.NewGetError()
	f := buildFrame(t, s, false, query)
	require.NoError(t, d.SubmitFrame(f))

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	assert.True(t, s.Ended())
	assert.True(t, f.Released(), "queued frames are released on close")
	assert.True(t, query.Completed())
	assert.Empty(t, d.Sessions())

	_, err = d.RequestSession()
	assert.ErrorIs(t, err, ErrDeviceClosed)
	_, err = d.BeginDeviceFrame(mgl32.Ident4(), stereoEyes())
	assert.ErrorIs(t, err, ErrDeviceClosed)
	assert.ErrorIs(t, d.SubmitFrame(f), ErrDeviceClosed)
}

// countingPool records how often the zone pool is stopped.
type countingPool struct {
	worker.DynamicWorkerPool
	stops int
}

func (p *countingPool) Stop() {
	p.stops++
	p.DynamicWorkerPool.Stop()
}

func TestDevice_CloseStopsZoneWorkers(t *testing.T) {
	d := NewDevice(WithZoneWorkers(2), WithFrameTimeout(0))
	impl := d.(*xrDevice)
	pool := &countingPool{DynamicWorkerPool: impl.zonePool}
	impl.zonePool = pool

	_, err := d.RequestSession(at(0, 0, -5))
	require.NoError(t, err)
	require.Len(t, d.UpdateSessionsInZone(beginTick(t, d)), 1)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.Equal(t, 1, pool.stops, "the pool is stopped once")
}

// signalingSubmitter answers every submitted command from another goroutine.
type signalingSubmitter struct {
	result    command.Result
	submitted []*command.CommandBuffer
}

func (s *signalingSubmitter) Submit(cb *command.CommandBuffer) error {
	s.submitted = append(s.submitted, cb)
	go cb.SignalCompletion(s.result)
	return nil
}

func TestFrameContext(t *testing.T) {
	d := NewDevice(WithZoneWorkers(1))
	defer d.Close()

	s, err := d.RequestSession(at(0, 0, -5))
	require.NoError(t, err)
	eyes := beginTick(t, d)
	d.UpdateSessionsInZone(eyes)

	f, err := s.CreateStereoRenderingFrame(true)
	require.NoError(t, err)
	require.NoError(t, f.StartFrame(1))

	sub := &signalingSubmitter{result: command.Result{Int: 4096}}
	fc := NewFrameContext(s, f, 1, eyes, sub)
	assert.Same(t, eyes[1], fc.Eye())

	clearCmd := command.NewClear(command.ClearColorBit)
	require.NoError(t, fc.Add(clearCmd))
	assert.Equal(t, []*command.CommandBuffer{clearCmd}, f.CommandBuffers(1))
	assert.Empty(t, f.CommandBuffers(0))

	r, err := fc.Query(context.Background(), command.NewGetParameter(command.ParamMaxTextureSize))
	require.NoError(t, err)
	assert.Equal(t, int32(4096), r.Int)
	assert.Len(t, sub.submitted, 1)
	assert.Empty(t, f.CommandBuffers(0), "queries never enter the frame")

	_, err = fc.Query(context.Background(), command.NewClear(command.ClearColorBit))
	assert.ErrorIs(t, err, ErrNotQuery)

	detached := NewFrameContext(s, f, 1, eyes, nil)
	_, err = detached.Query(context.Background(), command.NewGetError())
	assert.ErrorIs(t, err, ErrNoSubmitter)

	single, err := s.CreateStereoRenderingFrame(false)
	require.NoError(t, err)
	assert.Same(t, eyes[0], NewFrameContext(s, single, 0, eyes, nil).Eye())

	require.NoError(t, f.EndFrame(1))
	require.ErrorIs(t, fc.Add(command.NewClear(command.ClearColorBit)), frame.ErrPassClosed)
}
