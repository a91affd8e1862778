package frame

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/common"
)

var (
	// ErrFrameNotEnded is returned by Queue.Push for a frame whose passes have not all ended.
	ErrFrameNotEnded = errors.New("frame not ended")
	// ErrQueueClosed is returned once the queue has been closed.
	ErrQueueClosed = errors.New("frame queue closed")
)

// Queue hands ended frames from the producer to the consumer in the order they became available.
// Pushing a frame transfers its ownership to the queue; NextAvailable transfers it to the consumer.
type Queue struct {
	mu      *sync.Mutex
	frames  []*StereoRenderingFrame
	timeout time.Duration
	dropped uint64
	pushed  uint64
	taken   uint64
	closed  bool

	notify   chan struct{}
	closedCh chan struct{}

	onDrop func(*StereoRenderingFrame)
}

// NewQueue creates a frame queue.
//
// Parameters:
//   - timeout: age after which a droppable head frame is discarded; <= 0 disables expiry
//   - options: functional options
//
// Returns:
//   - *Queue: the queue
func NewQueue(timeout time.Duration, options ...QueueOption) *Queue {
	q := &Queue{
		mu:       &sync.Mutex{},
		timeout:  timeout,
		notify:   make(chan struct{}, 1),
		closedCh: make(chan struct{}),
	}
	for _, opt := range options {
		opt(q)
	}
	return q
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithDropCallback registers a function called for every frame discarded for expiry, before it is released.
func WithDropCallback(cb func(*StereoRenderingFrame)) QueueOption {
	return func(q *Queue) {
		q.onDrop = cb
	}
}

// Push publishes an ended frame.
//
// Parameters:
//   - f: the frame; every pass must be Ended
//
// Returns:
//   - error: ErrFrameNotEnded or ErrQueueClosed
func (q *Queue) Push(f *StereoRenderingFrame) error {
	if !f.Ended() {
		return ErrFrameNotEnded
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	f.SetAvailable(true)
	q.frames = append(q.frames, f)
	q.pushed++
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// NextAvailable pops the oldest frame. Head frames that are both expired and droppable are discarded whole
// and counted; a frame that is not droppable is always returned, however late.
// The returned frame is marked added-once.
//
// Returns:
//   - *StereoRenderingFrame: the next frame, or nil if none is ready
func (q *Queue) NextAvailable() *StereoRenderingFrame {
	for {
		q.mu.Lock()
		if len(q.frames) == 0 {
			q.mu.Unlock()
			return nil
		}
		f := q.frames[0]
		q.frames[0] = nil
		q.frames = q.frames[1:]
		q.taken++

		if q.timeout > 0 && f.Expired(q.timeout) && f.Droppable() {
			q.dropped++
			q.mu.Unlock()
			q.discard(f)
			continue
		}
		q.mu.Unlock()

		f.MarkAddedOnce()
		return f
	}
}

func (q *Queue) discard(f *StereoRenderingFrame) {
	common.Logger().Debug("frame dropped", "frame", f.ID(), "session", f.SessionID(), "age", f.Age())
	if q.onDrop != nil {
		q.onDrop(f)
	}
	f.Release()
}

// Len returns the number of queued frames.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Dropped returns the number of frames discarded for expiry so far.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Pushed returns the number of frames ever pushed.
func (q *Queue) Pushed() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pushed
}

// Taken returns the number of frames that have left the queue: returned by NextAvailable, dropped for
// expiry, or released by Close. Frames are taken in push order, so Taken() >= n means the first n
// pushed frames are gone.
func (q *Queue) Taken() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.taken
}

// Timeout returns the expiry threshold.
func (q *Queue) Timeout() time.Duration {
	return q.timeout
}

// Ready returns a channel that receives after a Push. Signals coalesce, so a receive means
// "check NextAvailable", not "exactly one new frame".
func (q *Queue) Ready() <-chan struct{} {
	return q.notify
}

// Done returns a channel closed by Close.
func (q *Queue) Done() <-chan struct{} {
	return q.closedCh
}

// Closed reports whether Close was called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Wait blocks until at least one frame is queued.
//
// Parameters:
//   - ctx: cancels the wait
//
// Returns:
//   - error: nil when a frame is queued, ErrQueueClosed, or ctx.Err()
func (q *Queue) Wait(ctx context.Context) error {
	for {
		q.mu.Lock()
		n, closed := len(q.frames), q.closed
		q.mu.Unlock()
		if n > 0 {
			return nil
		}
		if closed {
			return ErrQueueClosed
		}

		select {
		case <-q.notify:
		case <-q.closedCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close rejects further pushes, releases every frame still queued, and wakes waiters.
// Safe to call more than once.
//
// Returns:
//   - int: the number of frames released by this call
func (q *Queue) Close() int {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0
	}
	q.closed = true
	pending := q.frames
	q.frames = nil
	q.taken += uint64(len(pending))
	close(q.closedCh)
	q.mu.Unlock()

	for _, f := range pending {
		f.Release()
	}
	return len(pending)
}
