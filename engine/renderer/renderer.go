// Package renderer is the consumer side of the stereo command runtime. The Executor runs on the render
// goroutine, takes ended frames from the frame queue and decodes their command buffers onto a device.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/command"
	"github.com/Carmen-Shannon/oxy-xr/engine/device"
	"github.com/Carmen-Shannon/oxy-xr/engine/frame"
)

var (
	// ErrExecutorClosed is returned by Submit and Step after Close.
	ErrExecutorClosed = errors.New("executor closed")
	// ErrFrameReleased is returned when asked to execute a frame that was already released.
	ErrFrameReleased = errors.New("frame already released")
)

// Stats counts the work done by an Executor.
type Stats struct {
	FramesExecuted    uint64
	PassesExecuted    uint64
	CommandsExecuted  uint64
	CommandErrors     uint64
	ImmediateExecuted uint64

	// FramesDropped is read from the frame queue: frames discarded for expiry before execution.
	FramesDropped uint64

	Device device.Stats
}

// executor is the implementation of the Executor interface.
type executor struct {
	mu *sync.Mutex

	device device.Device
	frames *frame.Queue

	immediate []pendingCommand
	wake      chan struct{}
	closed    bool

	frameInterval time.Duration
	lastFrame     time.Time
	idlePoll      time.Duration
	observer      func(Stats)

	stats Stats
}

// pendingCommand is an immediate command and the number of frames pushed to the queue before it.
type pendingCommand struct {
	cb    *command.CommandBuffer
	after uint64
}

// Executor decodes command buffers onto a device. Every method except Submit and Stats must be called from
// the render goroutine.
type Executor interface {
	// Submit queues a command for execution outside any frame. It runs after every frame pushed to the
	// queue before the call and ahead of frames pushed later. A frame still being built is not pushed yet,
	// so its commands have not run when the command does.
	// Queries are submitted this way; the producer then waits on the command's completion.
	// A command submitted after Close is completed with an empty result.
	//
	// Parameters:
	//   - cb: the command to queue
	//
	// Returns:
	//   - error: ErrExecutorClosed or device.ErrNilCommand
	Submit(cb *command.CommandBuffer) error

	// ExecuteCommands runs one ended pass of a frame inside a device pass and moves the pass to Finished.
	// Every command is completed with its result and its payload released.
	//
	// Parameters:
	//   - f: the frame
	//   - pass: the pass index
	//
	// Returns:
	//   - error: a frame state error, or a device failure that aborted the pass
	ExecuteCommands(f *frame.StereoRenderingFrame, pass int) error

	// ExecuteFrame runs every pass of a frame in index order and releases the frame.
	// The frame is released even when execution fails.
	//
	// Parameters:
	//   - f: the frame
	//
	// Returns:
	//   - error: ErrFrameReleased, frame.ErrFrameNotEnded, or the first pass error
	ExecuteFrame(f *frame.StereoRenderingFrame) error

	// Step drains the immediate queue in submission order, first executing the frames pushed before each
	// command, and then executes at most one more available frame.
	//
	// Parameters:
	//   - ctx: checked between commands of the immediate queue
	//
	// Returns:
	//   - bool: true if any command or frame was executed
	//   - error: ErrExecutorClosed, a device failure, or ctx.Err()
	Step(ctx context.Context) (bool, error)

	// Run calls Step until ctx is cancelled or the frame queue is closed and drained.
	// Cancellation is a normal shutdown and returns nil.
	//
	// Parameters:
	//   - ctx: stops the loop
	//
	// Returns:
	//   - error: a device failure
	Run(ctx context.Context) error

	// Device returns the device commands are executed on.
	Device() device.Device

	// Frames returns the queue frames are taken from.
	Frames() *frame.Queue

	// Stats returns a snapshot of the executor and device counters.
	Stats() Stats

	// SetFrameLimit changes the cap Run applies between frames. Safe to call while Run is active.
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetFrameLimit(fps float64)

	// Close completes every command still in the immediate queue with an empty result.
	// The device and the frame queue are not closed. Safe to call more than once.
	Close()
}

var _ Executor = &executor{}

// NewExecutor creates an Executor that takes frames from frames and runs them on dev.
//
// Parameters:
//   - dev: the device to execute on
//   - frames: the queue the producer pushes ended frames to
//   - options: variadic list of ExecutorBuilderOption functions
//
// Returns:
//   - Executor: the executor
func NewExecutor(dev device.Device, frames *frame.Queue, options ...ExecutorBuilderOption) Executor {
	e := &executor{
		mu:       &sync.Mutex{},
		device:   dev,
		frames:   frames,
		wake:     make(chan struct{}, 1),
		idlePoll: 10 * time.Millisecond,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

func (e *executor) Submit(cb *command.CommandBuffer) error {
	if cb == nil {
		return device.ErrNilCommand
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		cb.SignalCompletion(command.Result{})
		return ErrExecutorClosed
	}
	e.immediate = append(e.immediate, pendingCommand{cb: cb, after: e.frames.Pushed()})
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
	return nil
}

func (e *executor) ExecuteCommands(f *frame.StereoRenderingFrame, pass int) error {
	state, err := f.State(pass)
	if err != nil {
		return err
	}
	if state != frame.PassEnded {
		return fmt.Errorf("%w: pass %d is %s", frame.ErrOutOfOrderTransition, pass, state)
	}

	if err := e.device.BeginPass(pass); err != nil {
		return fmt.Errorf("failed to begin pass %d of frame %d: %w", pass, f.ID(), err)
	}

	var execErr error
	for _, cb := range f.CommandBuffers(pass) {
		if err := e.execute(cb, f.ID(), pass); err != nil {
			execErr = err
			break
		}
	}

	if err := e.device.EndPass(pass); err != nil && execErr == nil {
		execErr = fmt.Errorf("failed to end pass %d of frame %d: %w", pass, f.ID(), err)
	}
	if execErr != nil {
		return execErr
	}

	if err := f.FinishPass(pass); err != nil {
		return err
	}
	e.mu.Lock()
	e.stats.PassesExecuted++
	e.mu.Unlock()
	common.Logger().Debug("pass finished", "frame", f.ID(), "session", f.SessionID(), "pass", pass)
	return nil
}

func (e *executor) ExecuteFrame(f *frame.StereoRenderingFrame) error {
	if f.Released() {
		return fmt.Errorf("%w: frame %d", ErrFrameReleased, f.ID())
	}
	defer f.Release()

	if !f.Ended() {
		return fmt.Errorf("%w: frame %d", frame.ErrFrameNotEnded, f.ID())
	}

	for p := 0; p < f.PassCount(); p++ {
		if err := e.ExecuteCommands(f, p); err != nil {
			return err
		}
	}

	e.mu.Lock()
	e.stats.FramesExecuted++
	e.mu.Unlock()
	return nil
}

// execute runs one command and publishes its result. Device errors are recorded in the result and do not
// stop the pass; only a failure of the device itself is returned.
func (e *executor) execute(cb *command.CommandBuffer, frameID uint64, pass int) error {
	defer cb.Release()

	r, err := e.device.Execute(cb)
	if err != nil {
		cb.SignalCompletion(command.Result{Error: command.InvalidOperation})
		if errors.Is(err, device.ErrClosed) {
			return err
		}
		common.Logger().Warn("command rejected by device", "command", cb.Kind().String(), "frame", frameID, "pass", pass, "error", err)
		e.countCommand(true)
		return nil
	}

	cb.SignalCompletion(r)
	// GetError reports the sticky flag through Result.Error; that is its answer, not a failure.
	failed := r.Error != command.NoError && cb.Kind() != command.KindGetError
	if failed {
		common.Logger().Warn("command raised device error", "command", cb.Kind().String(), "frame", frameID, "pass", pass, "code", r.Error.String())
	}
	e.countCommand(failed)
	return nil
}

func (e *executor) countCommand(failed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.CommandsExecuted++
	if failed {
		e.stats.CommandErrors++
	}
}

func (e *executor) Step(ctx context.Context) (bool, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false, ErrExecutorClosed
	}
	pending := e.immediate
	e.immediate = nil
	e.mu.Unlock()

	worked := len(pending) > 0
	for i, p := range pending {
		if err := ctx.Err(); err != nil {
			e.requeue(pending[i:])
			return worked, err
		}
		ran, err := e.executeFramesBefore(p.after)
		worked = worked || ran
		if err != nil {
			e.abandon(pending[i:])
			return worked, err
		}
		if err := e.execute(p.cb, 0, -1); err != nil {
			e.abandon(pending[i+1:])
			return worked, err
		}
		e.mu.Lock()
		e.stats.ImmediateExecuted++
		e.mu.Unlock()
	}

	f := e.frames.NextAvailable()
	if f == nil {
		return worked, nil
	}
	return true, e.executeQueued(f)
}

// executeFramesBefore executes queued frames until the first pushed frames have all left the queue.
func (e *executor) executeFramesBefore(pushed uint64) (bool, error) {
	worked := false
	for e.frames.Taken() < pushed {
		f := e.frames.NextAvailable()
		if f == nil {
			return worked, nil
		}
		worked = true
		if err := e.executeQueued(f); err != nil {
			return worked, err
		}
	}
	return worked, nil
}

// executeQueued executes a frame taken from the queue. Only a closed device stops the caller; other
// failures are logged and the frame is skipped.
func (e *executor) executeQueued(f *frame.StereoRenderingFrame) error {
	if err := e.ExecuteFrame(f); err != nil {
		if errors.Is(err, device.ErrClosed) {
			return err
		}
		common.Logger().Warn("frame execution failed", "frame", f.ID(), "session", f.SessionID(), "error", err)
	}
	return nil
}

// requeue puts unexecuted immediate commands back at the head of the queue.
func (e *executor) requeue(cmds []pendingCommand) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.immediate = append(append([]pendingCommand(nil), cmds...), e.immediate...)
}

// abandon completes commands that will never run so no producer stays parked on them.
func (e *executor) abandon(cmds []pendingCommand) {
	for _, p := range cmds {
		p.cb.SignalCompletion(command.Result{})
		p.cb.Release()
	}
}

func (e *executor) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if interval := e.limit(); interval > 0 && !e.lastFrame.IsZero() {
			if wait := interval - time.Since(e.lastFrame); wait > 0 {
				if !e.sleep(ctx, wait) {
					return nil
				}
			}
		}

		before := e.Stats().FramesExecuted
		worked, err := e.Step(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrExecutorClosed) {
				return nil
			}
			return err
		}

		if stats := e.Stats(); stats.FramesExecuted != before {
			e.lastFrame = time.Now()
			if e.observer != nil {
				e.observer(stats)
			}
		}
		if worked {
			continue
		}

		if e.frames.Closed() && e.frames.Len() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-e.wake:
		case <-e.frames.Ready():
		case <-e.frames.Done():
		case <-time.After(e.idlePoll):
		}
	}
}

func (e *executor) limit() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameInterval
}

func (e *executor) SetFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frameInterval = frameInterval(fps)
}

func (e *executor) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (e *executor) Device() device.Device {
	return e.device
}

func (e *executor) Frames() *frame.Queue {
	return e.frames
}

func (e *executor) Stats() Stats {
	e.mu.Lock()
	s := e.stats
	e.mu.Unlock()
	s.FramesDropped = e.frames.Dropped()
	s.Device = e.device.Stats()
	return s
}

func (e *executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	pending := e.immediate
	e.immediate = nil
	e.mu.Unlock()

	e.abandon(pending)
}
