package renderer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/command"
	"github.com/Carmen-Shannon/oxy-xr/engine/device"
	"github.com/Carmen-Shannon/oxy-xr/engine/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDevice logs every pass boundary and command it sees before delegating to a MemoryDevice.
type recordingDevice struct {
	*device.MemoryDevice
	mu  *sync.Mutex
	log []string
}

func newRecordingDevice() *recordingDevice {
	return &recordingDevice{MemoryDevice: device.NewMemoryDevice(), mu: &sync.Mutex{}}
}

func (r *recordingDevice) record(entry string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, entry)
}

func (r *recordingDevice) entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}

func (r *recordingDevice) Execute(cb *command.CommandBuffer) (command.Result, error) {
	r.record(cb.String())
	return r.MemoryDevice.Execute(cb)
}

func (r *recordingDevice) BeginPass(eye int) error {
	r.record(fmt.Sprintf("begin %d", eye))
	return r.MemoryDevice.BeginPass(eye)
}

func (r *recordingDevice) EndPass(eye int) error {
	r.record(fmt.Sprintf("end %d", eye))
	return r.MemoryDevice.EndPass(eye)
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
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

// endedFrame builds a frame whose pass p holds passes[p], with every pass ended.
func endedFrame(t *testing.T, id uint64, passes [][]*command.CommandBuffer, options ...frame.FrameOption) *frame.StereoRenderingFrame {
	t.Helper()
	f := frame.NewStereoRenderingFrame(id, options...)
	for p := 0; p < f.PassCount(); p++ {
		require.NoError(t, f.StartFrame(p))
		if p < len(passes) {
			for _, cb := range passes[p] {
				require.NoError(t, f.AddCommandBuffer(p, cb))
			}
		}
		require.NoError(t, f.EndFrame(p))
	}
	return f
}

func TestExecuteFrame_PassesRunInOrder(t *testing.T) {
	dev := newRecordingDevice()
	ex := NewExecutor(dev, frame.NewQueue(0))

	left := []*command.CommandBuffer{
		command.NewClearColor(common.Color{R: 1, A: 1}),
		command.NewClear(command.ClearColorBit),
	}
	right := []*command.CommandBuffer{
		command.NewViewport(0, 0, 640, 480),
		command.NewClear(command.ClearColorBit | command.ClearDepthBit),
	}
	f := endedFrame(t, 1, [][]*command.CommandBuffer{left, right})

	var want []string
	want = append(want, "begin 0", left[0].String(), left[1].String(), "end 0")
	want = append(want, "begin 1", right[0].String(), right[1].String(), "end 1")

	require.NoError(t, ex.ExecuteFrame(f))
	assert.Equal(t, want, dev.entries())

	for _, cb := range append(left, right...) {
		assert.True(t, cb.Completed(), cb.String())
		assert.True(t, cb.Released(), cb.String())
	}
	assert.True(t, f.Finished())
	assert.True(t, f.Released())

	stats := ex.Stats()
	assert.Equal(t, uint64(1), stats.FramesExecuted)
	assert.Equal(t, uint64(2), stats.PassesExecuted)
	assert.Equal(t, uint64(4), stats.CommandsExecuted)
	assert.Equal(t, uint64(2), stats.Device.Passes)
	assert.Equal(t, uint64(2), stats.Device.Clears)
}

func TestExecuteFrame_SinglePass(t *testing.T) {
	dev := newRecordingDevice()
	ex := NewExecutor(dev, frame.NewQueue(0))
	cb := command.NewClear(command.ClearColorBit)
	f := endedFrame(t, 1, [][]*command.CommandBuffer{{cb}}, frame.WithMultiPass(false))

	require.NoError(t, ex.ExecuteFrame(f))
	assert.Equal(t, []string{"begin 0", cb.String(), "end 0"}, dev.entries())
	assert.True(t, f.Finished())
}

func TestExecuteFrame_DeviceErrorDoesNotStopThePass(t *testing.T) {
	ex := NewExecutor(device.NewMemoryDevice(), frame.NewQueue(0))
	bad := command.NewEnable(command.Capability(0xDEAD))
	good := command.NewClearColor(common.Color{G: 1, A: 1})
	query := command.NewGetError()
	f := endedFrame(t, 1, [][]*command.CommandBuffer{{bad, good}, {query}})

	require.NoError(t, ex.ExecuteFrame(f))
	assert.Equal(t, command.InvalidEnum, bad.Result().Error)
	assert.Equal(t, command.NoError, good.Result().Error)
	assert.Equal(t, command.InvalidEnum, query.WaitForCompletion().Error, "the sticky flag survives into pass 1")
	assert.True(t, f.Finished())

	stats := ex.Stats()
	assert.Equal(t, uint64(3), stats.CommandsExecuted)
	assert.Equal(t, uint64(1), stats.CommandErrors, "reading the error flag is not itself an error")
}

func TestExecuteFrame_RejectsUnendedAndReleasedFrames(t *testing.T) {
	ex := NewExecutor(device.NewMemoryDevice(), frame.NewQueue(0))

	open := frame.NewStereoRenderingFrame(1)
	require.NoError(t, open.StartFrame(0))
	query := command.NewGetError()
	require.NoError(t, open.AddCommandBuffer(0, query))
	assert.ErrorIs(t, ex.ExecuteFrame(open), frame.ErrFrameNotEnded)
	assert.True(t, open.Released(), "a rejected frame is still released")
	assert.True(t, query.Completed(), "a stranded query is completed on release")

	assert.ErrorIs(t, ex.ExecuteFrame(open), ErrFrameReleased)
}

func TestExecuteCommands_RequiresEndedPass(t *testing.T) {
	ex := NewExecutor(device.NewMemoryDevice(), frame.NewQueue(0))
	f := frame.NewStereoRenderingFrame(1)
	require.NoError(t, f.StartFrame(0))

	assert.ErrorIs(t, ex.ExecuteCommands(f, 0), frame.ErrOutOfOrderTransition)
	assert.ErrorIs(t, ex.ExecuteCommands(f, 2), frame.ErrInvalidPassIndex)
	assert.Equal(t, -1, ex.Device().(*device.MemoryDevice).ActiveEye(), "no pass was opened")
}

func TestStep_ImmediateRunsBeforeLaterFrames(t *testing.T) {
	dev := device.NewMemoryDevice()
	q := frame.NewQueue(0)
	ex := NewExecutor(dev, q)

	create := command.NewCreateBuffer(1)
	require.NoError(t, ex.Submit(create))

	bind := command.NewBindBuffer(command.BufferTargetArray, 1)
	upload := command.NewBufferData(command.BufferTargetArray, []byte{1, 2, 3, 4}, command.BufferUsageStaticDraw)
	require.NoError(t, q.Push(endedFrame(t, 1, [][]*command.CommandBuffer{{bind, upload}})))

	worked, err := ex.Step(context.Background())
	require.NoError(t, err)
	assert.True(t, worked)
	assert.Equal(t, command.NoError, bind.Result().Error, "the buffer exists before the frame binds it")

	data, ok := dev.BufferContents(1)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)

	worked, err = ex.Step(context.Background())
	require.NoError(t, err)
	assert.False(t, worked, "nothing left to do")
	assert.Equal(t, uint64(1), ex.Stats().ImmediateExecuted)
}

func TestStep_ImmediateWaitsForEarlierFrames(t *testing.T) {
	dev := newRecordingDevice()
	q := frame.NewQueue(0)
	ex := NewExecutor(dev, q)

	const shader command.Handle = 3
	compile := endedFrame(t, 1, [][]*command.CommandBuffer{{
		command.NewCreateShader(shader, command.ShaderTypeVertex),
		command.NewShaderSource(shader, "@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(); }"),
		command.NewCompileShader(shader),
	}})
	require.NoError(t, q.Push(compile))

	status := command.NewGetShaderParameter(shader, command.ParamCompileStatus)
	require.NoError(t, ex.Submit(status))

	later := command.NewClear(command.ClearColorBit)
	require.NoError(t, q.Push(endedFrame(t, 2, [][]*command.CommandBuffer{{later}})))

	worked, err := ex.Step(context.Background())
	require.NoError(t, err)
	require.True(t, worked)

	r := status.Result()
	assert.Equal(t, command.NoError, r.Error, "the shader exists when the query runs")
	assert.True(t, r.Bool, "the query sees the compile from the earlier frame")
	assert.True(t, compile.Finished())
	assert.True(t, later.Completed(), "the frame pushed after the query runs in the same step")

	log := dev.entries()
	statusAt, laterAt := -1, -1
	for i, entry := range log {
		switch entry {
		case status.String():
			statusAt = i
		case later.String():
			laterAt = i
		}
	}
	require.NotEqual(t, -1, statusAt)
	require.NotEqual(t, -1, laterAt)
	assert.Less(t, statusAt, laterAt)
	assert.Equal(t, uint64(2), ex.Stats().FramesExecuted)
}

func TestStep_SkipsExpiredDroppableFrames(t *testing.T) {
	clk := &manualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	q := frame.NewQueue(5 * time.Millisecond)
	ex := NewExecutor(device.NewMemoryDevice(), q)

	stale := endedFrame(t, 1, [][]*command.CommandBuffer{{command.NewClear(command.ClearColorBit)}}, frame.WithClock(clk.Now))
	pinned := endedFrame(t, 2, [][]*command.CommandBuffer{{command.NewCreateBuffer(7)}}, frame.WithClock(clk.Now))
	require.NoError(t, q.Push(stale))
	require.NoError(t, q.Push(pinned))
	clk.Advance(20 * time.Millisecond)

	worked, err := ex.Step(context.Background())
	require.NoError(t, err)
	assert.True(t, worked)

	assert.True(t, stale.Released())
	assert.False(t, stale.Finished(), "a dropped frame is never executed")
	assert.True(t, pinned.Finished(), "frames creating objects execute however late")

	stats := ex.Stats()
	assert.Equal(t, uint64(1), stats.FramesExecuted)
	assert.Equal(t, uint64(1), stats.FramesDropped)
	assert.Equal(t, 1, stats.Device.LiveObjects)
}

func TestStep_DeviceClosed(t *testing.T) {
	dev := device.NewMemoryDevice()
	q := frame.NewQueue(0)
	ex := NewExecutor(dev, q)

	query := command.NewGetParameter(command.ParamMaxTextureSize)
	f := endedFrame(t, 1, [][]*command.CommandBuffer{{query}})
	require.NoError(t, q.Push(f))
	require.NoError(t, dev.Close())

	_, err := ex.Step(context.Background())
	assert.ErrorIs(t, err, device.ErrClosed)
	assert.True(t, f.Released())
	assert.True(t, query.Completed(), "producers never stay parked on a failed frame")
}

func TestSubmit_QueryRoundTrip(t *testing.T) {
	q := frame.NewQueue(0)
	ex := NewExecutor(device.NewMemoryDevice(device.WithMaxTextureSize(2048)), q, WithIdlePoll(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ex.Run(ctx) }()

	query := command.NewGetParameter(command.ParamMaxTextureSize)
	require.NoError(t, ex.Submit(query))

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	r, err := query.WaitForCompletionContext(waitCtx)
	require.NoError(t, err)
	assert.Equal(t, int32(2048), r.Int)

	cancel()
	require.NoError(t, <-done, "cancellation is a clean shutdown")
}

func TestRun_ReturnsWhenQueueClosed(t *testing.T) {
	q := frame.NewQueue(0)
	var observed []uint64
	var mu sync.Mutex
	ex := NewExecutor(device.NewMemoryDevice(), q, WithFrameObserver(func(s Stats) {
		mu.Lock()
		defer mu.Unlock()
		observed = append(observed, s.FramesExecuted)
	}))

	for id := uint64(1); id <= 3; id++ {
		require.NoError(t, q.Push(endedFrame(t, id, [][]*command.CommandBuffer{{command.NewClear(command.ClearColorBit)}})))
	}
	q.Close()

	require.NoError(t, ex.Run(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, observed, "frames still queued at Close are released, not executed")
	assert.Equal(t, uint64(0), ex.Stats().FramesExecuted)
}

func TestRun_FrameObserver(t *testing.T) {
	q := frame.NewQueue(0)
	observed := make(chan uint64, 4)
	ex := NewExecutor(device.NewMemoryDevice(), q, WithFrameLimit(1000), WithFrameObserver(func(s Stats) {
		observed <- s.FramesExecuted
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ex.Run(ctx) }()

	for id := uint64(1); id <= 2; id++ {
		require.NoError(t, q.Push(endedFrame(t, id, [][]*command.CommandBuffer{{command.NewClear(command.ClearColorBit)}})))
	}

	for want := uint64(1); want <= 2; want++ {
		select {
		case got := <-observed:
			assert.Equal(t, want, got)
		case <-time.After(5 * time.Second):
			t.Fatalf("frame %d was never executed", want)
		}
	}

	cancel()
	require.NoError(t, <-done)
}

func TestClose_CompletesPendingCommands(t *testing.T) {
	ex := NewExecutor(device.NewMemoryDevice(), frame.NewQueue(0))

	pending := command.NewGetError()
	require.NoError(t, ex.Submit(pending))
	ex.Close()
	ex.Close()
	assert.True(t, pending.Completed())

	late := command.NewGetError()
	assert.ErrorIs(t, ex.Submit(late), ErrExecutorClosed)
	assert.True(t, late.Completed())

	_, err := ex.Step(context.Background())
	assert.ErrorIs(t, err, ErrExecutorClosed)
	assert.ErrorIs(t, ex.Submit(nil), device.ErrNilCommand)
}

func TestParseBackendType(t *testing.T) {
	for _, tt := range []struct {
		name string
		want BackendType
	}{
		{"memory", BackendTypeMemory},
		{"wgpu", BackendTypeWGPU},
	} {
		got, err := ParseBackendType(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.name, got.String())
	}

	_, err := ParseBackendType("vulkan")
	assert.Error(t, err)

	dev, err := NewDevice(BackendConfig{Type: BackendTypeMemory, MaxTextureSize: 256})
	require.NoError(t, err)
	r, err := dev.Execute(command.NewGetParameter(command.ParamMaxTextureSize))
	require.NoError(t, err)
	assert.Equal(t, int32(256), r.Int)
}
