package engine

import (
	"github.com/Carmen-Shannon/oxy-xr/config"
	"github.com/Carmen-Shannon/oxy-xr/engine/frame"
	"github.com/Carmen-Shannon/oxy-xr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-xr/engine/viewer"
	"github.com/Carmen-Shannon/oxy-xr/engine/window"
	"github.com/Carmen-Shannon/oxy-xr/engine/xr"
	"github.com/go-gl/mathgl/mgl32"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig applies a runtime configuration: tick rate, render frame limit, profiling, backend, stereo mode,
// frame timeout, culling strategy, zone workers and the viewer rig. Options after it override its values.
// The window section is not applied; create the window on the main goroutine and pass it with WithWindow.
//
// Parameters:
//   - cfg: a validated configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg *config.Config) EngineBuilderOption {
	return func(e *engine) {
		if cfg == nil {
			return
		}
		e.engineTickRate = tickInterval(cfg.TickRate)
		e.renderFrameLimit = cfg.RenderFrameLimit
		e.profilingEnabled.Store(cfg.Profiling)
		if bt, err := renderer.ParseBackendType(cfg.Backend); err == nil {
			e.backend.Type = bt
		}
		e.deviceOptions = append(e.deviceOptions,
			xr.WithMultiPass(cfg.MultiPass()),
			xr.WithFrameTimeout(cfg.FrameTimeout),
			xr.WithDefaultCullingStrategy(cfg.Culling()),
			xr.WithZoneWorkers(cfg.ZoneWorkers),
		)
		e.viewerOptions = append(e.viewerOptions,
			viewer.WithFov(mgl32.DegToRad(cfg.Viewer.Fov)),
			viewer.WithClipPlanes(cfg.Viewer.Near, cfg.Viewer.Far),
			viewer.WithIPD(cfg.Viewer.IPD),
			viewer.WithAspect(cfg.Viewer.Aspect),
		)
	}
}

// WithProfiling enables or disables the periodic profiler log line.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithTickRate sets the producer tick rate. Values <= 0 are treated as the default (72Hz).
//
// Parameters:
//   - hz: target ticks per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(hz float64) EngineBuilderOption {
	return func(e *engine) {
		e.engineTickRate = tickInterval(hz)
	}
}

// WithRenderFrameLimit sets an optional cap on frames executed per second. Pass 0 to uncap (default).
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = fps
	}
}

// WithWindow attaches a mirror window. Its keys drive the viewer controller and, with the WebGPU backend,
// its surface receives the left eye.
//
// Parameters:
//   - w: an open Window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithBackend replaces the graphics backend configuration. Defaults to the in-memory device.
func WithBackend(cfg renderer.BackendConfig) EngineBuilderOption {
	return func(e *engine) {
		e.backend = cfg
	}
}

// WithDeviceOptions appends options passed to xr.NewDevice.
func WithDeviceOptions(options ...xr.DeviceBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.deviceOptions = append(e.deviceOptions, options...)
	}
}

// WithViewerOptions appends options passed to viewer.NewViewer.
func WithViewerOptions(options ...viewer.ViewerBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.viewerOptions = append(e.viewerOptions, options...)
	}
}

// WithExecutorOptions appends options passed to renderer.NewExecutor. A frame observer set here replaces
// the engine's profiler hook.
func WithExecutorOptions(options ...renderer.ExecutorBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.executorOptions = append(e.executorOptions, options...)
	}
}

// WithTickCallback registers the function called at the start of every tick.
func WithTickCallback(callback func(deltaTime float32)) EngineBuilderOption {
	return func(e *engine) {
		e.tickCallback = callback
	}
}

// WithFrameSubmitHook registers a function called on the producer goroutine with every ended frame just
// before it is submitted. The hook must not modify the frame.
//
// Parameters:
//   - hook: receives the frame
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameSubmitHook(hook func(f *frame.StereoRenderingFrame)) EngineBuilderOption {
	return func(e *engine) {
		e.submitHook = hook
	}
}
