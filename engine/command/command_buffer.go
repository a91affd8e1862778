// Package command defines the unit of graphics work handed from the producer goroutine to the render goroutine:
// a tagged CommandBuffer carrying its own typed arguments, an owned payload for variable-length data,
// and a one-shot completion handshake for calls whose result the producer must observe.
package command

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// ErrUnknownKind is returned by New for a kind outside the defined set.
	ErrUnknownKind = errors.New("unknown command kind")
	// ErrKindArgsMismatch is returned by New when the args type does not belong to the kind.
	ErrKindArgsMismatch = errors.New("command args do not match kind")
	// ErrInvalidArgs is returned by New when the args fail validation.
	ErrInvalidArgs = errors.New("invalid command args")
)

// sequence numbers every CommandBuffer in creation order across the process.
var sequence atomic.Uint64

// CommandBuffer is one queued graphics call. It is created on the producer goroutine, executed on the
// render goroutine, and released by whichever side ends up owning it last.
type CommandBuffer struct {
	seq     uint64
	kind    Kind
	args    Args
	payload *Payload

	done   chan struct{}
	once   sync.Once
	result Result

	released atomic.Bool
}

// New creates a CommandBuffer for kind, copying every variable-length argument into an owned payload.
// The caller keeps ownership of any slices in args.
//
// Parameters:
//   - kind: the graphics call
//   - args: the argument struct for kind
//
// Returns:
//   - *CommandBuffer: the command
//   - error: ErrUnknownKind, ErrKindArgsMismatch, or ErrInvalidArgs
func New(kind Kind, args Args) (*CommandBuffer, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(kind))
	}
	if !kind.accepts(args) {
		return nil, fmt.Errorf("%w: %s does not take %T", ErrKindArgsMismatch, kind, args)
	}

	cb := &CommandBuffer{
		seq:  sequence.Add(1),
		kind: kind,
		done: make(chan struct{}),
	}

	switch a := args.(type) {
	case BufferDataArgs:
		cb.payload = NewPayload(a.Data)
		a.Data = cb.payload.Bytes()
		args = a
	case BufferSubDataArgs:
		if a.Offset < 0 {
			return nil, fmt.Errorf("%w: negative offset %d", ErrInvalidArgs, a.Offset)
		}
		cb.payload = NewPayload(a.Data)
		a.Data = cb.payload.Bytes()
		args = a
	case TexImage2DArgs:
		if err := a.Image.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArgs, err)
		}
		cb.payload = NewPayload(a.Image.Pixels)
		a.Image.Pixels = cb.payload.Bytes()
		args = a
	}
	cb.args = args

	return cb, nil
}

// build is New for callers that construct args of the right type by hand.
// A failure here is a wiring error in this package and panics.
func build(kind Kind, args Args) *CommandBuffer {
	cb, err := New(kind, args)
	if err != nil {
		panic(err)
	}
	return cb
}

// Kind returns the call this command encodes.
func (cb *CommandBuffer) Kind() Kind {
	return cb.kind
}

// Args returns the typed arguments. Slices inside are owned by the command and valid until Release.
func (cb *CommandBuffer) Args() Args {
	return cb.args
}

// Sequence returns the process-wide creation sequence number.
func (cb *CommandBuffer) Sequence() uint64 {
	return cb.seq
}

// PayloadSize returns the number of owned payload bytes.
func (cb *CommandBuffer) PayloadSize() int {
	return cb.payload.Len()
}

// IsBlocking reports whether the producer must wait for this command's completion.
func (cb *CommandBuffer) IsBlocking() bool {
	return cb.kind.IsBlocking()
}

// IsResourceLifecycle reports whether this command creates or deletes a GPU-visible object.
func (cb *CommandBuffer) IsResourceLifecycle() bool {
	return cb.kind.IsResourceLifecycle()
}

// SignalCompletion publishes result and wakes every waiter. Only the first call has an effect;
// later calls are no-ops and report false.
//
// Parameters:
//   - result: the output of execution
//
// Returns:
//   - bool: true if this call completed the command
func (cb *CommandBuffer) SignalCompletion(result Result) bool {
	signaled := false
	cb.once.Do(func() {
		cb.result = result
		close(cb.done)
		signaled = true
	})
	return signaled
}

// WaitForCompletion blocks until SignalCompletion has been called, returning immediately if it already was.
//
// Returns:
//   - Result: the published result
func (cb *CommandBuffer) WaitForCompletion() Result {
	<-cb.done
	return cb.result
}

// WaitForCompletionContext is WaitForCompletion with cancellation.
//
// Parameters:
//   - ctx: cancels the wait
//
// Returns:
//   - Result: the published result
//   - error: ctx.Err() if the wait was cancelled first
func (cb *CommandBuffer) WaitForCompletionContext(ctx context.Context) (Result, error) {
	select {
	case <-cb.done:
		return cb.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Done returns a channel closed on completion.
func (cb *CommandBuffer) Done() <-chan struct{} {
	return cb.done
}

// Completed reports whether SignalCompletion has been called.
func (cb *CommandBuffer) Completed() bool {
	select {
	case <-cb.done:
		return true
	default:
		return false
	}
}

// Result returns the published result. Only meaningful after completion.
func (cb *CommandBuffer) Result() Result {
	if !cb.Completed() {
		return Result{}
	}
	return cb.result
}

// Release frees the owned payload whether or not the command was executed.
// The payload-backed slices in Args are cleared. Safe to call more than once.
func (cb *CommandBuffer) Release() {
	if !cb.released.CompareAndSwap(false, true) {
		return
	}
	switch a := cb.args.(type) {
	case BufferDataArgs:
		a.Data = nil
		cb.args = a
	case BufferSubDataArgs:
		a.Data = nil
		cb.args = a
	case TexImage2DArgs:
		a.Image.Pixels = nil
		cb.args = a
	}
	cb.payload.Release()
}

// Released reports whether Release has been called.
func (cb *CommandBuffer) Released() bool {
	return cb.released.Load()
}

// String describes the command without its sequence number, e.g. "Clear{Mask:16384}".
// Payload-backed data is summarized by its length.
func (cb *CommandBuffer) String() string {
	return cb.kind.String() + describeArgs(cb.args)
}

func describeArgs(args Args) string {
	switch a := args.(type) {
	case NoArgs:
		return ""
	case BufferDataArgs:
		return fmt.Sprintf("{Target:%d Bytes:%d Usage:%d}", a.Target, len(a.Data), a.Usage)
	case BufferSubDataArgs:
		return fmt.Sprintf("{Target:%d Offset:%d Bytes:%d}", a.Target, a.Offset, len(a.Data))
	case TexImage2DArgs:
		return fmt.Sprintf("{Target:%d Level:%d Size:%dx%d Format:%v Bytes:%d}",
			a.Target, a.Level, a.Image.Width, a.Image.Height, a.Image.Format, len(a.Image.Pixels))
	case ShaderSourceArgs:
		return fmt.Sprintf("{Shader:%d Bytes:%d}", a.Shader, len(a.Source))
	case UniformMatrix4fvArgs:
		return fmt.Sprintf("{Location:%d Transpose:%t}", a.Location, a.Transpose)
	}
	return fmt.Sprintf("%+v", args)
}
