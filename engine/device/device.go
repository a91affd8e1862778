// Package device executes command buffers against a graphics device. The render goroutine owns a Device;
// nothing else may call into it except Stats.
package device

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-xr/engine/command"
)

// EyeCount is the number of per-eye passes a device renders.
const EyeCount = 2

// Limits reported by devices and enforced by the reference device.
const (
	DefaultMaxTextureSize int32  = 4096
	MaxTextureUnits       uint32 = 16
	MaxVertexAttribs      uint32 = 16
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("device closed")
	// ErrNilCommand is returned when Execute is handed a nil command.
	ErrNilCommand = errors.New("nil command buffer")
	// ErrCommandReleased is returned when Execute is handed a command whose payload was already released.
	ErrCommandReleased = errors.New("command buffer released")
	// ErrInvalidEye is returned for an eye index outside [0, EyeCount).
	ErrInvalidEye = errors.New("invalid eye index")
	// ErrPassActive is returned by BeginPass while another pass is open.
	ErrPassActive = errors.New("pass already active")
	// ErrNoActivePass is returned by EndPass when the given eye has no open pass.
	ErrNoActivePass = errors.New("no active pass")
)

// Device executes decoded graphics calls. Errors raised by the graphics call itself are reported through
// Result.Error and the sticky GetError flag; the error return is reserved for failures of the device.
type Device interface {
	// Execute applies one command.
	//
	// Parameters:
	//   - cb: the command to apply
	//
	// Returns:
	//   - command.Result: the command's output, with Error set if the call raised a device error
	//   - error: ErrClosed, ErrNilCommand, ErrCommandReleased, or a backend failure
	Execute(cb *command.CommandBuffer) (command.Result, error)

	// BeginPass opens the render pass for an eye. Draws until EndPass target that eye.
	//
	// Parameters:
	//   - eye: 0 for the left eye, 1 for the right eye
	//
	// Returns:
	//   - error: ErrInvalidEye, ErrPassActive, ErrClosed, or a backend failure
	BeginPass(eye int) error

	// EndPass closes the eye's render pass and submits its work.
	//
	// Parameters:
	//   - eye: the eye passed to BeginPass
	//
	// Returns:
	//   - error: ErrInvalidEye, ErrNoActivePass, ErrClosed, or a backend failure
	EndPass(eye int) error

	// Close releases every device object. Safe to call more than once.
	Close() error

	// Stats returns a snapshot of the device counters. Safe to call from any goroutine.
	Stats() Stats
}

// Stats counts the work a device has done since it was created.
type Stats struct {
	Executed       uint64
	Errors         uint64
	Passes         uint64
	Clears         uint64
	Draws          [EyeCount]uint64
	ImmediateDraws uint64
	LiveObjects    int
}

// TotalDraws returns the draw count across both eyes and outside passes.
func (s Stats) TotalDraws() uint64 {
	total := s.ImmediateDraws
	for _, d := range s.Draws {
		total += d
	}
	return total
}

func validEye(eye int) bool {
	return eye >= 0 && eye < EyeCount
}
