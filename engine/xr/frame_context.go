package xr

import (
	"context"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-xr/engine/command"
	"github.com/Carmen-Shannon/oxy-xr/engine/frame"
)

var (
	// ErrNotQuery is returned by FrameContext.Query for a command that does not return a value.
	ErrNotQuery = errors.New("command is not a query")
	// ErrNoSubmitter is returned by FrameContext.Query when no immediate queue is attached.
	ErrNoSubmitter = errors.New("no immediate command queue")
)

// Submitter queues commands for execution outside any frame. The renderer's Executor is a Submitter.
type Submitter interface {
	Submit(cb *command.CommandBuffer) error
}

// FrameCallback fills one pass of a session's frame. It runs on the producer goroutine between the
// pass's StartFrame and EndFrame. Returning an error discards the whole frame.
type FrameCallback func(fc *FrameContext) error

// FrameContext is what a FrameCallback sees for one pass.
type FrameContext struct {
	Session Session
	Frame   *frame.StereoRenderingFrame
	Pass    int
	Tick    uint64

	// Eyes holds every eye frame of the tick, in eye order.
	Eyes []*frame.MultiPassFrame

	immediate Submitter
}

// NewFrameContext creates the context for one pass.
//
// Parameters:
//   - s: the session the frame belongs to
//   - f: the frame being filled
//   - pass: the pass index
//   - eyes: the tick's eye frames
//   - immediate: the queue used by Query, may be nil
//
// Returns:
//   - *FrameContext: the context
func NewFrameContext(s Session, f *frame.StereoRenderingFrame, pass int, eyes []*frame.MultiPassFrame, immediate Submitter) *FrameContext {
	return &FrameContext{
		Session:   s,
		Frame:     f,
		Pass:      pass,
		Eyes:      eyes,
		immediate: immediate,
	}
}

// Eye returns the eye frame this pass renders. A single-pass frame renders both eyes and reports the left one.
func (fc *FrameContext) Eye() *frame.MultiPassFrame {
	if len(fc.Eyes) == 0 {
		return nil
	}
	if fc.Frame.IsMultiPass() && fc.Pass < len(fc.Eyes) {
		return fc.Eyes[fc.Pass]
	}
	return fc.Eyes[0]
}

// Add appends commands to the pass in order.
//
// Parameters:
//   - cbs: the commands
//
// Returns:
//   - error: the first error from StereoRenderingFrame.AddCommandBuffer
func (fc *FrameContext) Add(cbs ...*command.CommandBuffer) error {
	for _, cb := range cbs {
		if err := fc.Frame.AddCommandBuffer(fc.Pass, cb); err != nil {
			return err
		}
	}
	return nil
}

// Query submits a query to the immediate queue and blocks until the render goroutine has answered it.
// Queries never travel inside a frame, so they are answered even while frames are being built.
// The answer reflects every frame submitted before the call, but not the frame this context is filling:
// a query about an object created in the current frame must wait for a later frame.
//
// Parameters:
//   - ctx: cancels the wait
//   - cb: a blocking command
//
// Returns:
//   - command.Result: the answer
//   - error: ErrNotQuery, ErrNoSubmitter, a submit error, or ctx.Err()
func (fc *FrameContext) Query(ctx context.Context, cb *command.CommandBuffer) (command.Result, error) {
	if !cb.IsBlocking() {
		return command.Result{}, fmt.Errorf("%w: %v", ErrNotQuery, cb.Kind())
	}
	if fc.immediate == nil {
		return command.Result{}, ErrNoSubmitter
	}
	if err := fc.immediate.Submit(cb); err != nil {
		return command.Result{}, err
	}
	return cb.WaitForCompletionContext(ctx)
}
