package renderer

import (
	"time"
)

// ExecutorBuilderOption is a functional option applied to an executor during construction via NewExecutor.
type ExecutorBuilderOption func(*executor)

// WithFrameLimit caps how often Run executes a frame.
// A frame is never started sooner than the given interval after the previous one.
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - ExecutorBuilderOption: a function that applies the frame limit option to an executor
func WithFrameLimit(fps float64) ExecutorBuilderOption {
	return func(e *executor) {
		e.frameInterval = frameInterval(fps)
	}
}

func frameInterval(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

// WithFrameObserver registers a function called by Run after every frame it executes.
// The observer runs on the render goroutine and must not block.
//
// Parameters:
//   - observer: receives a snapshot of the executor counters
//
// Returns:
//   - ExecutorBuilderOption: a function that applies the observer option to an executor
func WithFrameObserver(observer func(Stats)) ExecutorBuilderOption {
	return func(e *executor) {
		e.observer = observer
	}
}

// WithIdlePoll sets how long Run sleeps between checks when nothing signals new work.
// Run normally wakes on Submit and on frame pushes; the poll only bounds the wait.
//
// Parameters:
//   - d: the poll interval (values <= 0 keep the default)
//
// Returns:
//   - ExecutorBuilderOption: a function that applies the poll option to an executor
func WithIdlePoll(d time.Duration) ExecutorBuilderOption {
	return func(e *executor) {
		if d > 0 {
			e.idlePoll = d
		}
	}
}
