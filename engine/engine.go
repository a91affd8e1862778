// Package engine wires the stereo command runtime together. A producer goroutine ticks the viewer, the XR
// device and every visible session's frame callback; a render goroutine executes the frames they submit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/device"
	"github.com/Carmen-Shannon/oxy-xr/engine/frame"
	"github.com/Carmen-Shannon/oxy-xr/engine/profiler"
	"github.com/Carmen-Shannon/oxy-xr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-xr/engine/viewer"
	"github.com/Carmen-Shannon/oxy-xr/engine/window"
	"github.com/Carmen-Shannon/oxy-xr/engine/xr"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrEngineRunning is returned by Run while another Run is active.
	ErrEngineRunning = errors.New("engine already running")
	// ErrEngineClosed is returned by Run after Close.
	ErrEngineClosed = errors.New("engine closed")
)

// Stats is a snapshot of the producer counters together with the XR device and executor counters.
type Stats struct {
	Ticks           uint64
	FramesBuilt     uint64
	FramesDiscarded uint64

	XR       xr.Stats
	Renderer renderer.Stats
}

// engine implements the Engine interface.
type engine struct {
	mu *sync.Mutex

	xrDevice xr.Device
	executor renderer.Executor
	graphics device.Device
	viewer   viewer.Viewer
	window   window.Window

	backend         renderer.BackendConfig
	deviceOptions   []xr.DeviceBuilderOption
	viewerOptions   []viewer.ViewerBuilderOption
	executorOptions []renderer.ExecutorBuilderOption

	tickRateChannel  chan time.Duration // dynamic tick rate updates while running
	engineTickRate   time.Duration
	renderFrameLimit float64
	tickCallback     func(deltaTime float32)
	submitHook       func(f *frame.StereoRenderingFrame)

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool
	paused           atomic.Bool
	running          atomic.Bool
	closed           atomic.Bool

	quitChannel chan struct{}
	quitOnce    sync.Once
	closeOnce   sync.Once
	closeErr    error

	stats Stats
}

// Engine is the main entry point of the runtime.
type Engine interface {
	// XRDevice returns the XR device that owns the sessions and the frame queue.
	XRDevice() xr.Device

	// Executor returns the executor that runs submitted frames on the graphics device.
	Executor() renderer.Executor

	// Viewer returns the stereo viewer rig.
	Viewer() viewer.Viewer

	// Window returns the mirror window, or nil when running headless.
	Window() window.Window

	// Stats returns a snapshot of the engine counters.
	Stats() Stats

	// EnableProfiler enables the periodic profiler log line.
	EnableProfiler()

	// DisableProfiler disables the periodic profiler log line.
	DisableProfiler()

	// ProfilerEnabled reports whether the profiler is logging.
	ProfilerEnabled() bool

	// SetPaused suspends or resumes producer ticks. A paused tick builds no frames.
	//
	// Parameters:
	//   - paused: true to suspend
	SetPaused(paused bool)

	// Paused reports whether producer ticks are suspended.
	Paused() bool

	// SetTickRate sets the producer tick rate. Takes effect immediately when the engine is running.
	//
	// Parameters:
	//   - hz: ticks per second (defaults to 72 if <= 0)
	SetTickRate(hz float64)

	// SetRenderFrameLimit caps how many frames per second the render goroutine executes.
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// SetTickCallback registers a function called at the start of every tick, before the viewer is updated.
	// Use it to move sessions or the viewer and to request or end sessions.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// Tick runs one producer tick: viewer update, device frame, zone update, then for every session in
	// frustum one stereo frame whose passes are filled by the session's frame callback and submitted.
	// Sessions outside the frustum get no frame.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous tick
	//
	// Returns:
	//   - error: xr.ErrDeviceClosed after Close, or a device frame error
	Tick(deltaTime float32) error

	// Run starts the producer and render goroutines and blocks until ctx is cancelled, Quit is called, the
	// mirror window closes, or a goroutine fails. With a window, Run must be called from the main goroutine.
	// Frames still queued are executed before Run closes the engine.
	//
	// Parameters:
	//   - ctx: stops the engine when cancelled
	//
	// Returns:
	//   - error: the first goroutine failure, ErrEngineRunning, or ErrEngineClosed
	Run(ctx context.Context) error

	// Quit signals Run to stop. Safe to call multiple times and from any goroutine.
	Quit()

	// Close releases the XR device, the executor, the graphics device and the window.
	// Safe to call more than once.
	Close() error
}

var _ Engine = &engine{}

// NewEngine creates an Engine and its graphics device.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the engine
//   - error: the graphics device could not be created
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		mu:              &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  tickInterval(72),
		backend:         renderer.BackendConfig{Type: renderer.BackendTypeMemory},
	}
	for _, opt := range options {
		opt(e)
	}

	e.viewer = viewer.NewViewer(e.viewerOptions...)
	if e.window != nil {
		if e.backend.Type == renderer.BackendTypeWGPU && e.backend.Surface == nil {
			e.backend.Surface = e.window.SurfaceDescriptor()
			e.backend.Width, e.backend.Height = e.window.Width(), e.window.Height()
		}
		e.wireWindow()
	}

	gfx, err := renderer.NewDevice(e.backend)
	if err != nil {
		return nil, fmt.Errorf("failed to create graphics device: %w", err)
	}
	e.graphics = gfx
	e.xrDevice = xr.NewDevice(e.deviceOptions...)

	execOptions := append([]renderer.ExecutorBuilderOption{
		renderer.WithFrameLimit(e.renderFrameLimit),
		renderer.WithFrameObserver(e.observeFrame),
	}, e.executorOptions...)
	e.executor = renderer.NewExecutor(gfx, e.xrDevice.Frames(), execOptions...)

	common.Logger().Info("engine created",
		"backend", e.backend.Type.String(),
		"tickRate", e.engineTickRate,
		"multiPass", e.xrDevice.IsMultiPass(),
		"window", e.window != nil,
	)
	return e, nil
}

func tickInterval(hz float64) time.Duration {
	if hz <= 0 {
		hz = 72
	}
	return time.Duration(float64(time.Second) / hz)
}

// wireWindow routes the mirror window's input to the viewer and the engine toggles.
func (e *engine) wireWindow() {
	e.window.SetKeyDownCallback(e.handleKey)
	e.window.SetScrollCallback(func(delta float32) {
		if c := e.viewer.Controller(); c != nil {
			c.Zoom(delta)
		}
	})
	e.window.SetResizeCallback(func(width, height int) {
		if height > 0 {
			e.viewer.SetAspect(float32(width) / float32(height))
		}
	})
}

// handleKey applies the engine toggles (P profiler, Space pause) and hands every other key to the viewer controller.
func (e *engine) handleKey(code int) {
	switch code {
	case common.KeyP:
		if e.ProfilerEnabled() {
			e.DisableProfiler()
		} else {
			e.EnableProfiler()
		}
	case common.KeySpace:
		e.SetPaused(!e.Paused())
	default:
		if c := e.viewer.Controller(); c != nil {
			c.HandleKey(code)
		}
	}
}

// observeFrame runs on the render goroutine after every executed frame.
func (e *engine) observeFrame(s renderer.Stats) {
	if !e.profilingEnabled.Load() {
		return
	}
	xs := e.xrDevice.Stats()
	e.profiler.Tick(profiler.Counters{
		FramesExecuted:   s.FramesExecuted,
		FramesDropped:    s.FramesDropped,
		CommandsExecuted: s.CommandsExecuted,
		CommandErrors:    s.CommandErrors,
		CulledSessions:   xs.CulledTotal,
		VisibleSessions:  xs.VisibleLastTick,
	})
}

func (e *engine) XRDevice() xr.Device {
	return e.xrDevice
}

func (e *engine) Executor() renderer.Executor {
	return e.executor
}

func (e *engine) Viewer() viewer.Viewer {
	return e.viewer
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Stats() Stats {
	e.mu.Lock()
	s := e.stats
	e.mu.Unlock()
	s.XR = e.xrDevice.Stats()
	s.Renderer = e.executor.Stats()
	return s
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

func (e *engine) ProfilerEnabled() bool {
	return e.profilingEnabled.Load()
}

func (e *engine) SetPaused(paused bool) {
	e.paused.Store(paused)
	common.Logger().Info("engine ticks paused", "paused", paused)
}

func (e *engine) Paused() bool {
	return e.paused.Load()
}

func (e *engine) SetTickRate(hz float64) {
	newRate := tickInterval(hz)

	e.mu.Lock()
	e.engineTickRate = newRate
	e.mu.Unlock()

	if !e.running.Load() {
		return
	}
	// Replace any pending update so the loop always sees the latest rate.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		select {
		case e.tickRateChannel <- newRate:
		default:
		}
	}
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.executor.SetFrameLimit(fps)
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) Tick(deltaTime float32) error {
	if e.paused.Load() {
		return nil
	}

	e.mu.Lock()
	callback := e.tickCallback
	e.mu.Unlock()
	if callback != nil {
		callback(deltaTime)
	}

	e.viewer.Update()
	var views [frame.PassCount]xr.EyeView
	for eye := range views {
		v := e.viewer.EyeView(eye)
		views[eye] = xr.EyeView{View: v.View, Projection: v.Projection}
	}

	eyes, err := e.xrDevice.BeginDeviceFrame(e.viewer.Transform(), views)
	if err != nil {
		return err
	}
	// Ending the device frame marks the tick's eye data as no longer current.
	defer eyes[0].End()

	visible := e.xrDevice.UpdateSessionsInZone(eyes)

	e.mu.Lock()
	e.stats.Ticks++
	tick := e.stats.Ticks
	e.mu.Unlock()

	for _, s := range visible {
		if err := e.buildFrame(s, eyes, tick); errors.Is(err, xr.ErrDeviceClosed) {
			return err
		}
	}
	return nil
}

// buildFrame creates one stereo frame for a session, runs its frame callback for every pass and submits it.
// A frame that cannot be completed is released and counted as discarded.
func (e *engine) buildFrame(s xr.Session, eyes []*frame.MultiPassFrame, tick uint64) error {
	f, err := s.CreateStereoRenderingFrame(e.xrDevice.IsMultiPass())
	if err != nil {
		common.Logger().Debug("session skipped", "session", s.ID(), "error", err)
		return err
	}

	callback := s.FrameCallback()
	for pass := 0; pass < f.PassCount(); pass++ {
		if err := f.StartFrame(pass); err != nil {
			return e.discard(f, err)
		}
		if callback != nil {
			fc := xr.NewFrameContext(s, f, pass, eyes, e.executor)
			fc.Tick = tick
			if err := callback(fc); err != nil {
				return e.discard(f, fmt.Errorf("frame callback failed on pass %d: %w", pass, err))
			}
		}
		if err := f.EndFrame(pass); err != nil {
			return e.discard(f, err)
		}
	}

	e.mu.Lock()
	e.stats.FramesBuilt++
	hook := e.submitHook
	e.mu.Unlock()
	if hook != nil {
		hook(f)
	}

	if err := e.xrDevice.SubmitFrame(f); err != nil {
		return e.discard(f, err)
	}
	return nil
}

func (e *engine) discard(f *frame.StereoRenderingFrame, err error) error {
	f.Release()
	e.mu.Lock()
	e.stats.FramesDiscarded++
	e.mu.Unlock()
	common.Logger().Warn("frame discarded", "frame", f.ID(), "session", f.SessionID(), "error", err)
	return err
}

func (e *engine) Run(ctx context.Context) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	if !e.running.CompareAndSwap(false, true) {
		return ErrEngineRunning
	}
	defer e.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The render loop stops only after the producer, so a query issued by the last tick is still answered.
	renderCtx, stopRender := context.WithCancel(context.Background())
	defer stopRender()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stopRender()
		return e.handleEngine(gctx)
	})
	g.Go(func() error {
		if err := e.handleRender(renderCtx); err != nil {
			// Nothing answers queries anymore; complete them so the producer can stop.
			e.executor.Close()
			return err
		}
		return nil
	})
	g.Go(func() error {
		e.handleQuit(gctx, cancel)
		return nil
	})

	if e.window != nil {
		e.window.SetUpdateCallback(func() {
			if gctx.Err() != nil {
				e.window.RequestClose()
			}
		})
		e.window.ProcessMessages()
		e.signalQuit()
	}

	err := g.Wait()
	e.drain()
	if closeErr := e.Close(); err == nil {
		err = closeErr
	}
	common.Logger().Info("engine stopped", "ticks", e.Stats().Ticks, "error", err)
	return err
}

// handleEngine runs the fixed-rate producer tick loop until ctx is cancelled.
// Listens for dynamic rate changes via tickRateChannel.
func (e *engine) handleEngine(ctx context.Context) error {
	e.mu.Lock()
	rate := e.engineTickRate
	e.mu.Unlock()

	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	lastTick := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			if err := e.Tick(dt); err != nil {
				if errors.Is(err, xr.ErrDeviceClosed) {
					return nil
				}
				return fmt.Errorf("tick failed: %w", err)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
		}
	}
}

// handleRender runs the executor loop on the render goroutine.
// Recovers from panics so a failing device stops the engine instead of the process.
func (e *engine) handleRender(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("render goroutine recovered from panic", "panic", r)
			err = fmt.Errorf("render goroutine panic: %v", r)
		}
	}()
	return e.executor.Run(ctx)
}

// handleQuit cancels the run when Quit is called.
func (e *engine) handleQuit(ctx context.Context, cancel context.CancelFunc) {
	select {
	case <-e.quitChannel:
		cancel()
	case <-ctx.Done():
	}
}

// drain executes whatever the producer submitted before the goroutines stopped.
func (e *engine) drain() {
	for {
		worked, err := e.executor.Step(context.Background())
		if err != nil || !worked {
			return
		}
	}
}

func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		e.signalQuit()
		e.executor.Close()

		errs := []error{e.xrDevice.Close(), e.graphics.Close()}
		if e.window != nil {
			errs = append(errs, e.window.Close())
		}
		e.closeErr = errors.Join(errs...)
	})
	return e.closeErr
}
