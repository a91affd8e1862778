package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine"
	"github.com/Carmen-Shannon/oxy-xr/engine/command"
	"github.com/Carmen-Shannon/oxy-xr/engine/frame"
	"github.com/Carmen-Shannon/oxy-xr/engine/window"
	"github.com/Carmen-Shannon/oxy-xr/engine/xr"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/cobra"
)

// sessionRingRadius is the distance of the simulated sessions from the origin.
const sessionRingRadius = 3

// simulateOptions holds the flags of the simulate command.
type simulateOptions struct {
	*rootOptions

	Ticks       int
	Sessions    int
	Backend     string
	Window      bool
	Trace       bool
	TraceFrames int
}

// newSimulateCommand creates the simulate command.
func newSimulateCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &simulateOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run sessions through the runtime and print a summary",
		Long: `Run the producer and render goroutines against a ring of sessions around the
origin. Each session draws a cube into both eyes; sessions the viewer cannot see
are culled and get no frame. When the ticks are done the queued frames are
drained and a summary of the run is printed.

With --window a mirror window is opened: W/A/S/D orbit the viewer, Q/E zoom,
P toggles the profiler and Space pauses ticking.

Example:
  oxyxr simulate --ticks 300 --sessions 12
  oxyxr simulate --trace --trace-frames 2
  oxyxr simulate --window --backend wgpu --ticks 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Ticks, "ticks", "n", 300, "producer ticks to run, 0 runs until interrupted")
	cmd.Flags().IntVarP(&opts.Sessions, "sessions", "s", 8, "sessions placed on a ring around the origin")
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "graphics backend override (memory|wgpu)")
	cmd.Flags().BoolVar(&opts.Window, "window", false, "open the mirror window")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print the commands of the first submitted frames")
	cmd.Flags().IntVar(&opts.TraceFrames, "trace-frames", 4, "frames printed by --trace")

	return cmd
}

func runSimulate(cmd *cobra.Command, opts *simulateOptions) error {
	if opts.Ticks < 0 {
		return fmt.Errorf("--ticks must be >= 0, got %d", opts.Ticks)
	}
	if opts.Sessions < 0 {
		return fmt.Errorf("--sessions must be >= 0, got %d", opts.Sessions)
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}
	if opts.Window {
		cfg.Window.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := opts.setupLogging(cmd.ErrOrStderr(), cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineOpts := []engine.EngineBuilderOption{engine.WithConfig(cfg)}
	var w window.Window
	if cfg.Window.Enabled {
		w, err = window.NewWindow(window.WithTitle(cfg.Window.Title), window.WithSize(cfg.Window.Width, cfg.Window.Height))
		if err != nil {
			return fmt.Errorf("failed to open mirror window: %w", err)
		}
		engineOpts = append(engineOpts, engine.WithWindow(w))
	}
	if opts.Trace {
		engineOpts = append(engineOpts, engine.WithFrameSubmitHook(traceFrames(cmd.OutOrStdout(), opts.TraceFrames)))
	}

	eng, err := engine.NewEngine(engineOpts...)
	if err != nil {
		if w != nil {
			_ = w.Close()
		}
		return err
	}

	if err := spawnSessions(ctx, eng.XRDevice(), opts.Sessions); err != nil {
		_ = eng.Close()
		return err
	}

	var ticks atomic.Int64
	eng.SetTickCallback(func(float32) {
		if opts.Ticks > 0 && ticks.Add(1) == int64(opts.Ticks) {
			// The current tick still runs; pausing keeps the engine from starting another before it stops.
			eng.SetPaused(true)
			eng.Quit()
		}
	})

	common.Logger().Info("simulation started", "sessions", opts.Sessions, "ticks", opts.Ticks, "backend", cfg.Backend, "stereo", cfg.Stereo)
	if err := eng.Run(ctx); err != nil {
		return err
	}

	writeSummary(cmd.OutOrStdout(), eng.Stats(), opts.Sessions)
	return nil
}

// spawnSessions requests n sessions spread evenly over a ring around the origin, each drawing a cube of
// its own color.
func spawnSessions(ctx context.Context, device xr.Device, n int) error {
	handles := &command.HandleAllocator{}
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		x := float32(sessionRingRadius * math.Sin(angle))
		z := float32(-sessionRingRadius * math.Cos(angle))

		content := newCubeContent(ctx, handles, ringColor(i, n))
		if _, err := device.RequestSession(
			xr.WithBaseMatrix(mgl32.Translate3D(x, 0, z)),
			xr.WithFrameCallback(content.frame),
		); err != nil {
			return fmt.Errorf("failed to request session %d: %w", i, err)
		}
	}
	return nil
}

// ringColor picks a clear color for session i of n by walking the hue circle.
func ringColor(i, n int) common.Color {
	hue := float64(i) / float64(max(n, 1))
	channel := func(offset float64) float32 {
		return float32(0.5 + 0.5*math.Cos(2*math.Pi*(hue+offset)))
	}
	return common.Color{R: channel(0), G: channel(1.0 / 3), B: channel(2.0 / 3), A: 1}
}

// traceFrames returns a frame submit hook that writes the first limit frames to w.
func traceFrames(w io.Writer, limit int) func(f *frame.StereoRenderingFrame) {
	traced := 0
	return func(f *frame.StereoRenderingFrame) {
		if traced >= limit {
			return
		}
		traced++
		if err := frame.WriteTrace(w, f); err != nil {
			common.Logger().Warn("failed to write frame trace", "frame", f.ID(), "error", err)
		}
	}
}

// writeSummary prints the counters of a finished run.
func writeSummary(w io.Writer, s engine.Stats, sessions int) {
	rows := []struct {
		name  string
		value uint64
	}{
		{"ticks", s.Ticks},
		{"sessions", uint64(sessions)},
		{"frames built", s.FramesBuilt},
		{"frames executed", s.Renderer.FramesExecuted},
		{"frames dropped", s.Renderer.FramesDropped},
		{"frames discarded", s.FramesDiscarded},
		{"sessions culled", s.XR.CulledTotal},
		{"commands executed", s.Renderer.CommandsExecuted},
		{"command errors", s.Renderer.CommandErrors},
		{"draws", s.Renderer.Device.TotalDraws()},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-18s %d\n", r.name, r.value)
	}
}
