package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-xr/engine/device"
	"github.com/cogentcore/webgpu/wgpu"
)

// BackendType identifies the graphics device implementation the Executor drives.
type BackendType int

const (
	// BackendTypeMemory selects the in-memory reference device. No GPU is required.
	BackendTypeMemory BackendType = iota

	// BackendTypeWGPU selects the WebGPU device.
	BackendTypeWGPU
)

func (b BackendType) String() string {
	switch b {
	case BackendTypeMemory:
		return "memory"
	case BackendTypeWGPU:
		return "wgpu"
	default:
		return fmt.Sprintf("BackendType(%d)", int(b))
	}
}

// ParseBackendType maps a backend name ("memory", "wgpu") onto a BackendType.
//
// Parameters:
//   - name: the backend name
//
// Returns:
//   - BackendType: the parsed backend
//   - error: an error if the name is unknown
func ParseBackendType(name string) (BackendType, error) {
	switch name {
	case "memory":
		return BackendTypeMemory, nil
	case "wgpu":
		return BackendTypeWGPU, nil
	default:
		return BackendTypeMemory, fmt.Errorf("unknown backend %q", name)
	}
}

// PresentMode controls how the mirrored eye is presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents immediately without waiting for vertical blank.
	PresentModeUncapped
)

func (p PresentMode) wgpu() wgpu.PresentMode {
	if p == PresentModeUncapped {
		return wgpu.PresentModeImmediate
	}
	return wgpu.PresentModeFifo
}

// BackendConfig collects what NewDevice needs to open a device.
type BackendConfig struct {
	Type BackendType

	// Surface, when set, makes the WebGPU device present the left eye to a window.
	Surface *wgpu.SurfaceDescriptor

	PresentMode           PresentMode
	ForceSoftwareRenderer bool

	// Width and Height size the per-eye color targets of the WebGPU device.
	Width  int
	Height int

	// MaxTextureSize bounds texture uploads on the memory device. 0 keeps the device default.
	MaxTextureSize int32
}

// NewDevice opens the graphics device selected by cfg.Type.
//
// Parameters:
//   - cfg: the backend configuration
//
// Returns:
//   - device.Device: the opened device
//   - error: an error if the backend is unknown or could not be initialized
func NewDevice(cfg BackendConfig) (device.Device, error) {
	switch cfg.Type {
	case BackendTypeMemory:
		return device.NewMemoryDevice(device.WithMaxTextureSize(cfg.MaxTextureSize)), nil
	case BackendTypeWGPU:
		return device.NewWGPUDevice(
			device.WithSurface(cfg.Surface),
			device.WithTargetSize(cfg.Width, cfg.Height),
			device.WithFallbackAdapter(cfg.ForceSoftwareRenderer),
			device.WithPresentMode(cfg.PresentMode.wgpu()),
		)
	default:
		return nil, fmt.Errorf("unknown backend %v", cfg.Type)
	}
}
