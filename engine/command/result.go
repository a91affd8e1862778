package command

import (
	"fmt"
	"sync/atomic"
)

// Handle is a client-side object name allocated by the producer. 0 means "no object".
// The executing device maps handles onto its own objects.
type Handle uint32

// HandleAllocator hands out process-unique, non-zero client handles.
// Safe for concurrent use.
type HandleAllocator struct {
	next atomic.Uint32
}

// Next returns a fresh handle.
func (a *HandleAllocator) Next() Handle {
	return Handle(a.next.Add(1))
}

// ErrorCode is a device error code, reported per command and through GetError.
type ErrorCode uint32

const (
	NoError                     ErrorCode = 0
	InvalidEnum                 ErrorCode = 0x0500
	InvalidValue                ErrorCode = 0x0501
	InvalidOperation            ErrorCode = 0x0502
	OutOfMemory                 ErrorCode = 0x0505
	InvalidFramebufferOperation ErrorCode = 0x0506
)

func (e ErrorCode) String() string {
	switch e {
	case NoError:
		return "NO_ERROR"
	case InvalidEnum:
		return "INVALID_ENUM"
	case InvalidValue:
		return "INVALID_VALUE"
	case InvalidOperation:
		return "INVALID_OPERATION"
	case OutOfMemory:
		return "OUT_OF_MEMORY"
	case InvalidFramebufferOperation:
		return "INVALID_FRAMEBUFFER_OPERATION"
	}
	return fmt.Sprintf("ErrorCode(0x%04X)", uint32(e))
}

// Result is the output of an executed command, readable by the producer once WaitForCompletion returns.
// Which fields are meaningful depends on the kind: GetError reports its code in Error, location and
// status queries use Int, boolean parameters use Bool, vector parameters use Floats.
// For non-query kinds Error carries the code raised by that command, if any.
type Result struct {
	Handle Handle
	Int    int32
	Bool   bool
	Floats []float32
	Error  ErrorCode
}
