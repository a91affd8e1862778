// Package config holds the YAML runtime configuration for the stereo command runtime and the simulator binary.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/bounding"
	"gopkg.in/yaml.v3"
)

// Stereo modes.
const (
	StereoMultiPass  = "multi_pass"
	StereoSinglePass = "single_pass"
)

// Graphics backends.
const (
	BackendMemory = "memory"
	BackendWGPU   = "wgpu"
)

// Config is the full runtime configuration.
type Config struct {
	// TickRate is the producer tick rate in Hz.
	TickRate float64 `yaml:"tick_rate"`

	// RenderFrameLimit caps the render loop in Hz. 0 means uncapped.
	RenderFrameLimit float64 `yaml:"render_frame_limit"`

	// FrameTimeout is the age after which a droppable frame may be discarded unexecuted.
	FrameTimeout time.Duration `yaml:"frame_timeout"`

	// Stereo is either "multi_pass" (one pass per eye) or "single_pass".
	Stereo string `yaml:"stereo"`

	// CullingStrategy names the bounding.CullingStrategy used for admission control.
	CullingStrategy string `yaml:"culling_strategy"`

	// ZoneWorkers is the worker count for per-tick session updates. 0 means NumCPU-1.
	ZoneWorkers int `yaml:"zone_workers"`

	// Backend is the graphics device: "memory" or "wgpu".
	Backend string `yaml:"backend"`

	// Profiling enables the periodic profiler log line.
	Profiling bool `yaml:"profiling"`

	// LogLevel is a slog level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	Viewer ViewerConfig `yaml:"viewer"`
	Window WindowConfig `yaml:"window"`
}

// ViewerConfig describes the stereo viewer rig.
type ViewerConfig struct {
	// Fov is the vertical field of view in degrees.
	Fov float32 `yaml:"fov"`
	// Near is the near clip distance.
	Near float32 `yaml:"near"`
	// Far is the far clip distance.
	Far float32 `yaml:"far"`
	// IPD is the inter-pupillary distance in world units.
	IPD float32 `yaml:"ipd"`
	// Aspect is the per-eye aspect ratio (width / height).
	Aspect float32 `yaml:"aspect"`
}

// WindowConfig describes the optional desktop mirror window.
type WindowConfig struct {
	Enabled bool   `yaml:"enabled"`
	Title   string `yaml:"title"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
}

// Default returns a runnable configuration: 72 Hz ticks, multi-pass stereo, in-memory backend.
//
// Returns:
//   - *Config: the default configuration
func Default() *Config {
	return &Config{
		TickRate:         72,
		RenderFrameLimit: 0,
		FrameTimeout:     50 * time.Millisecond,
		Stereo:           StereoMultiPass,
		CullingStrategy:  bounding.CullingStrategyStandard.String(),
		ZoneWorkers:      0,
		Backend:          BackendMemory,
		Profiling:        false,
		LogLevel:         "info",
		Viewer: ViewerConfig{
			Fov:    90,
			Near:   0.1,
			Far:    100,
			IPD:    0.064,
			Aspect: 1,
		},
		Window: WindowConfig{
			Enabled: false,
			Title:   "oxy-xr mirror",
			Width:   1280,
			Height:  720,
		},
	}
}

// Load reads a YAML file on top of Default and validates the result.
// Unknown keys are rejected.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - *Config: the loaded configuration
//   - error: read, parse, or validation error
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes on top of Default and validates the result.
// Empty input yields the defaults.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - *Config: the parsed configuration
//   - error: parse or validation error
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
//
// Returns:
//   - error: the joined field errors, or nil
func (c *Config) Validate() error {
	var errs []error

	if c.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("tick_rate must be > 0, got %v", c.TickRate))
	}
	if c.RenderFrameLimit < 0 {
		errs = append(errs, fmt.Errorf("render_frame_limit must be >= 0, got %v", c.RenderFrameLimit))
	}
	if c.FrameTimeout < 0 {
		errs = append(errs, fmt.Errorf("frame_timeout must be >= 0, got %v", c.FrameTimeout))
	}
	if c.Stereo != StereoMultiPass && c.Stereo != StereoSinglePass {
		errs = append(errs, fmt.Errorf("stereo must be %q or %q, got %q", StereoMultiPass, StereoSinglePass, c.Stereo))
	}
	if _, err := bounding.ParseCullingStrategy(c.CullingStrategy); err != nil {
		errs = append(errs, fmt.Errorf("culling_strategy: %w", err))
	}
	if c.ZoneWorkers < 0 {
		errs = append(errs, fmt.Errorf("zone_workers must be >= 0, got %d", c.ZoneWorkers))
	}
	if c.Backend != BackendMemory && c.Backend != BackendWGPU {
		errs = append(errs, fmt.Errorf("backend must be %q or %q, got %q", BackendMemory, BackendWGPU, c.Backend))
	}
	if _, ok := common.ParseLogLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level %q is not a valid level", c.LogLevel))
	}

	if c.Viewer.Fov <= 0 || c.Viewer.Fov >= 180 {
		errs = append(errs, fmt.Errorf("viewer.fov must be in (0, 180), got %v", c.Viewer.Fov))
	}
	if c.Viewer.Near <= 0 {
		errs = append(errs, fmt.Errorf("viewer.near must be > 0, got %v", c.Viewer.Near))
	}
	if c.Viewer.Far <= c.Viewer.Near {
		errs = append(errs, fmt.Errorf("viewer.far must be > viewer.near, got %v", c.Viewer.Far))
	}
	if c.Viewer.IPD < 0 {
		errs = append(errs, fmt.Errorf("viewer.ipd must be >= 0, got %v", c.Viewer.IPD))
	}
	if c.Viewer.Aspect <= 0 {
		errs = append(errs, fmt.Errorf("viewer.aspect must be > 0, got %v", c.Viewer.Aspect))
	}

	if c.Window.Enabled && (c.Window.Width <= 0 || c.Window.Height <= 0) {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}

	return errors.Join(errs...)
}

// Marshal encodes the configuration as YAML.
//
// Returns:
//   - []byte: the YAML document
//   - error: encoding error
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MultiPass reports whether stereo is rendered as two sequential passes.
func (c *Config) MultiPass() bool {
	return c.Stereo == StereoMultiPass
}

// Culling returns the parsed culling strategy, falling back to standard for an invalid name.
func (c *Config) Culling() bounding.CullingStrategy {
	s, err := bounding.ParseCullingStrategy(c.CullingStrategy)
	if err != nil {
		return bounding.CullingStrategyStandard
	}
	return s
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() slog.Level {
	if l, ok := common.ParseLogLevel(c.LogLevel); ok {
		return l
	}
	return slog.LevelInfo
}

// TickInterval converts TickRate into a tick period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.TickRate)
}
