package xr

import (
	"time"

	"github.com/Carmen-Shannon/oxy-xr/engine/bounding"
	"github.com/Carmen-Shannon/oxy-xr/engine/frame"
)

// DeviceBuilderOption is a functional option applied to a device during construction via NewDevice.
type DeviceBuilderOption func(*xrDevice)

// WithMultiPass selects one pass per eye (true, the default) or a single pass for both eyes.
//
// Parameters:
//   - multiPass: the stereo mode
//
// Returns:
//   - DeviceBuilderOption: a function that applies the stereo mode option to a device
func WithMultiPass(multiPass bool) DeviceBuilderOption {
	return func(d *xrDevice) {
		d.multiPass = multiPass
	}
}

// WithFrameTimeout sets the age after which a droppable frame may be discarded unexecuted.
// A timeout <= 0 disables expiry. Defaults to 50ms.
//
// Parameters:
//   - timeout: the expiry threshold
//
// Returns:
//   - DeviceBuilderOption: a function that applies the timeout option to a device
func WithFrameTimeout(timeout time.Duration) DeviceBuilderOption {
	return func(d *xrDevice) {
		d.frameTimeout = timeout
	}
}

// WithDefaultCullingStrategy sets the culling strategy new sessions use unless they override it.
func WithDefaultCullingStrategy(strategy bounding.CullingStrategy) DeviceBuilderOption {
	return func(d *xrDevice) {
		d.strategy = strategy
	}
}

// WithZoneWorkers sets the number of workers UpdateSessionsInZone fans out to.
// Defaults to runtime.NumCPU()-1. Values <= 0 keep the default.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - DeviceBuilderOption: a function that applies the worker count option to a device
func WithZoneWorkers(n int) DeviceBuilderOption {
	return func(d *xrDevice) {
		if n > 0 {
			d.zoneWorkers = n
		}
	}
}

// WithClock replaces the time source used for device frame timestamps and frame ages.
func WithClock(clock frame.Clock) DeviceBuilderOption {
	return func(d *xrDevice) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// WithFrameDropCallback registers a function called for every frame discarded for expiry.
func WithFrameDropCallback(cb func(*frame.StereoRenderingFrame)) DeviceBuilderOption {
	return func(d *xrDevice) {
		d.onDrop = cb
	}
}
