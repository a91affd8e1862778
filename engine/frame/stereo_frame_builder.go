package frame

type FrameOption func(*StereoRenderingFrame)

// WithMultiPass selects between one pass per eye (true) and a single pass.
//
// Parameters:
//   - multiPass: true for two passes
//
// Returns:
//   - FrameOption: a function that sets the pass layout
func WithMultiPass(multiPass bool) FrameOption {
	return func(f *StereoRenderingFrame) {
		f.multiPass = multiPass
	}
}

// WithDroppable sets the initial droppable hint.
//
// Parameters:
//   - droppable: the hint
//
// Returns:
//   - FrameOption: a function that sets the hint
func WithDroppable(droppable bool) FrameOption {
	return func(f *StereoRenderingFrame) {
		f.droppableHint = droppable
	}
}

// WithSessionID records which session the frame belongs to.
func WithSessionID(id uint32) FrameOption {
	return func(f *StereoRenderingFrame) {
		f.sessionID = id
	}
}

// WithClock replaces time.Now as the frame's time source.
//
// Parameters:
//   - clock: the time source; nil keeps time.Now
//
// Returns:
//   - FrameOption: a function that sets the clock
func WithClock(clock Clock) FrameOption {
	return func(f *StereoRenderingFrame) {
		if clock != nil {
			f.clock = clock
		}
	}
}
