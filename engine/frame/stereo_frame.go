// Package frame holds the per-tick containers that move graphics work from the producer to the render goroutine:
// the per-pass StereoRenderingFrame with its lifecycle state machine, the DeviceFrame aggregate of viewer and
// session transforms, and the Queue that hands frames over while enforcing the expiry policy.
package frame

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/engine/command"
)

// PassCount is the number of passes a multi-pass frame carries (left eye, right eye).
const PassCount = 2

var (
	// ErrInvalidPassIndex is returned for a pass index outside {0, 1}, or 1 on a single-pass frame.
	// The frame is never mutated when it is returned.
	ErrInvalidPassIndex = errors.New("invalid pass index")
	// ErrOutOfOrderTransition is returned when a pass transition is requested from the wrong state.
	ErrOutOfOrderTransition = errors.New("out of order pass transition")
	// ErrPassClosed is returned when appending to a pass that has already ended.
	ErrPassClosed = errors.New("pass already ended")
	// ErrNilCommand is returned when appending a nil command buffer.
	ErrNilCommand = errors.New("nil command buffer")
)

// PassState is the lifecycle state of one pass. Passes only move forward: Idle, Started, Ended, Finished.
type PassState uint8

const (
	PassIdle PassState = iota
	PassStarted
	PassEnded
	PassFinished
)

func (s PassState) String() string {
	switch s {
	case PassIdle:
		return "Idle"
	case PassStarted:
		return "Started"
	case PassEnded:
		return "Ended"
	case PassFinished:
		return "Finished"
	}
	return fmt.Sprintf("PassState(%d)", uint8(s))
}

// Clock returns the current time. Frames take one so expiry can be tested deterministically.
type Clock func() time.Time

type pass struct {
	state    PassState
	commands []*command.CommandBuffer
}

// StereoRenderingFrame is the per-pass container of queued command buffers for one session and one tick.
// It is built on the producer goroutine and handed to the render goroutine through a Queue.
type StereoRenderingFrame struct {
	mu *sync.Mutex

	id        uint64
	sessionID uint32
	multiPass bool
	passes    [PassCount]pass

	available      bool
	droppableHint  bool
	addedOnce      bool
	lifecycleCount int
	released       bool

	clock     Clock
	createdAt time.Time
	endedAt   time.Time
}

// NewStereoRenderingFrame creates an idle frame.
// Frames are multi-pass and droppable by default; see the With options.
//
// Parameters:
//   - id: the frame identifier, usually from an IDAllocator
//   - options: functional options
//
// Returns:
//   - *StereoRenderingFrame: the frame
func NewStereoRenderingFrame(id uint64, options ...FrameOption) *StereoRenderingFrame {
	f := &StereoRenderingFrame{
		mu:            &sync.Mutex{},
		id:            id,
		multiPass:     true,
		droppableHint: true,
		clock:         time.Now,
	}
	for _, opt := range options {
		opt(f)
	}
	f.createdAt = f.clock()
	return f
}

// ID returns the frame identifier.
func (f *StereoRenderingFrame) ID() uint64 {
	return f.id
}

// SessionID returns the session the frame was built for.
func (f *StereoRenderingFrame) SessionID() uint32 {
	return f.sessionID
}

// IsMultiPass reports whether the frame renders each eye in its own pass.
func (f *StereoRenderingFrame) IsMultiPass() bool {
	return f.multiPass
}

// PassCount returns 2 for multi-pass frames and 1 otherwise.
func (f *StereoRenderingFrame) PassCount() int {
	if f.multiPass {
		return PassCount
	}
	return 1
}

func (f *StereoRenderingFrame) checkPass(p int) error {
	if p < 0 || p >= f.PassCount() {
		return fmt.Errorf("%w: %d", ErrInvalidPassIndex, p)
	}
	return nil
}

func (f *StereoRenderingFrame) transition(p int, from, to PassState) error {
	if err := f.checkPass(p); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.passes[p].state != from {
		return fmt.Errorf("%w: pass %d is %s, want %s", ErrOutOfOrderTransition, p, f.passes[p].state, from)
	}
	f.passes[p].state = to
	if to == PassEnded && f.endedLocked() {
		f.endedAt = f.clock()
	}
	return nil
}

// StartFrame moves pass p from Idle to Started.
//
// Parameters:
//   - p: the pass index
//
// Returns:
//   - error: ErrInvalidPassIndex or ErrOutOfOrderTransition
func (f *StereoRenderingFrame) StartFrame(p int) error {
	return f.transition(p, PassIdle, PassStarted)
}

// EndFrame moves pass p from Started to Ended. No more commands can be added to it afterwards.
//
// Parameters:
//   - p: the pass index
//
// Returns:
//   - error: ErrInvalidPassIndex or ErrOutOfOrderTransition
func (f *StereoRenderingFrame) EndFrame(p int) error {
	return f.transition(p, PassStarted, PassEnded)
}

// FinishPass moves pass p from Ended to Finished. Called by the render goroutine after executing the pass.
//
// Parameters:
//   - p: the pass index
//
// Returns:
//   - error: ErrInvalidPassIndex or ErrOutOfOrderTransition
func (f *StereoRenderingFrame) FinishPass(p int) error {
	return f.transition(p, PassEnded, PassFinished)
}

// State returns the state of pass p.
func (f *StereoRenderingFrame) State(p int) (PassState, error) {
	if err := f.checkPass(p); err != nil {
		return PassIdle, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.passes[p].state, nil
}

func (f *StereoRenderingFrame) atLeast(p int, s PassState) bool {
	st, err := f.State(p)
	return err == nil && st >= s
}

// PassStarted reports whether pass p is Started or later.
func (f *StereoRenderingFrame) PassStarted(p int) bool {
	return f.atLeast(p, PassStarted)
}

// PassEnded reports whether pass p is Ended or later.
func (f *StereoRenderingFrame) PassEnded(p int) bool {
	return f.atLeast(p, PassEnded)
}

// PassFinished reports whether pass p is Finished.
func (f *StereoRenderingFrame) PassFinished(p int) bool {
	return f.atLeast(p, PassFinished)
}

// Ended reports whether every pass is Ended or later: both passes for a multi-pass frame, pass 0 otherwise.
func (f *StereoRenderingFrame) Ended() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.endedLocked()
}

func (f *StereoRenderingFrame) endedLocked() bool {
	for p := 0; p < f.PassCount(); p++ {
		if f.passes[p].state < PassEnded {
			return false
		}
	}
	return true
}

// Finished reports whether every pass is Finished.
func (f *StereoRenderingFrame) Finished() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for p := 0; p < f.PassCount(); p++ {
		if f.passes[p].state != PassFinished {
			return false
		}
	}
	return true
}

// AddCommandBuffer appends cb to pass p. Appends are accepted while the pass is Idle or Started.
//
// Parameters:
//   - p: the pass index
//   - cb: the command to queue; the frame takes ownership
//
// Returns:
//   - error: ErrInvalidPassIndex, ErrNilCommand, or ErrPassClosed
func (f *StereoRenderingFrame) AddCommandBuffer(p int, cb *command.CommandBuffer) error {
	if err := f.checkPass(p); err != nil {
		return err
	}
	if cb == nil {
		return ErrNilCommand
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.passes[p].state >= PassEnded {
		return fmt.Errorf("%w: pass %d is %s", ErrPassClosed, p, f.passes[p].state)
	}
	f.passes[p].commands = append(f.passes[p].commands, cb)
	if cb.IsResourceLifecycle() {
		f.lifecycleCount++
	}
	return nil
}

// CommandBuffers returns a copy of the commands queued on pass p in insertion order.
// An invalid pass yields nil.
func (f *StereoRenderingFrame) CommandBuffers(p int) []*command.CommandBuffer {
	if f.checkPass(p) != nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*command.CommandBuffer, len(f.passes[p].commands))
	copy(out, f.passes[p].commands)
	return out
}

// CommandCount returns the number of commands across all passes.
func (f *StereoRenderingFrame) CommandCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for p := range f.passes {
		n += len(f.passes[p].commands)
	}
	return n
}

// HasResourceLifecycle reports whether any queued command creates or deletes a GPU-visible object.
func (f *StereoRenderingFrame) HasResourceLifecycle() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lifecycleCount > 0
}

// SetDroppable sets the droppable hint. The hint alone never makes a frame droppable; see Droppable.
func (f *StereoRenderingFrame) SetDroppable(hint bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.droppableHint = hint
}

// Droppable reports whether the frame may be discarded unexecuted: the hint is set, the frame has not been
// handed to the consumer yet, and it holds no resource-lifecycle command.
func (f *StereoRenderingFrame) Droppable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.droppableHint && !f.addedOnce && f.lifecycleCount == 0
}

// MarkAddedOnce records that the frame was handed to the consumer. It is never droppable afterwards.
func (f *StereoRenderingFrame) MarkAddedOnce() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addedOnce = true
}

// AddedOnce reports whether MarkAddedOnce was called.
func (f *StereoRenderingFrame) AddedOnce() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addedOnce
}

// SetAvailable flags the frame as published for consumption.
func (f *StereoRenderingFrame) SetAvailable(available bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available = available
}

// IsAvailable reports whether the frame was published for consumption.
func (f *StereoRenderingFrame) IsAvailable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

// Age returns the time elapsed since construction, measured at millisecond resolution.
func (f *StereoRenderingFrame) Age() time.Duration {
	return f.clock().Sub(f.createdAt).Truncate(time.Millisecond)
}

// Expired reports whether the frame is older than timeout. It is independent of Droppable:
// callers must check both before discarding a frame.
//
// Parameters:
//   - timeout: the expiry threshold; an age equal to timeout is not expired
//
// Returns:
//   - bool: true if Age() > timeout
func (f *StereoRenderingFrame) Expired(timeout time.Duration) bool {
	return f.Age() > timeout
}

// CreatedAt returns the construction time.
func (f *StereoRenderingFrame) CreatedAt() time.Time {
	return f.createdAt
}

// EndedAt returns the time the last pass ended, or the zero time if the frame has not ended.
func (f *StereoRenderingFrame) EndedAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.endedAt
}

// Release frees every queued command's payload. Blocking commands that were never completed are
// completed with an empty result so no producer stays parked on a discarded frame.
// Safe to call more than once.
//
// Returns:
//   - int: the number of commands released by this call
func (f *StereoRenderingFrame) Release() int {
	f.mu.Lock()
	if f.released {
		f.mu.Unlock()
		return 0
	}
	f.released = true
	var all []*command.CommandBuffer
	for p := range f.passes {
		all = append(all, f.passes[p].commands...)
	}
	f.mu.Unlock()

	for _, cb := range all {
		if cb.IsBlocking() {
			cb.SignalCompletion(command.Result{})
		}
		cb.Release()
	}
	return len(all)
}

// Released reports whether Release was called.
func (f *StereoRenderingFrame) Released() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}
