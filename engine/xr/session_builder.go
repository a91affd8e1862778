package xr

import (
	"github.com/Carmen-Shannon/oxy-xr/engine/bounding"
	"github.com/Carmen-Shannon/oxy-xr/engine/frame"
	"github.com/go-gl/mathgl/mgl32"
)

// SessionBuilderOption is a functional option applied to a session during construction via Device.RequestSession.
type SessionBuilderOption func(*session)

// WithBounds sets the local extremes of the session content.
// The default is a unit cube centered on the origin.
//
// Parameters:
//   - min: local minimum corner
//   - max: local maximum corner
//
// Returns:
//   - SessionBuilderOption: a function that applies the bounds option to a session
func WithBounds(min, max mgl32.Vec3) SessionBuilderOption {
	return func(s *session) {
		s.localMin, s.localMax = min, max
	}
}

// WithBaseMatrix sets the session's base (local to world) transform.
//
// Parameters:
//   - m: the base transform
//
// Returns:
//   - SessionBuilderOption: a function that applies the base matrix option to a session
func WithBaseMatrix(m mgl32.Mat4) SessionBuilderOption {
	return func(s *session) {
		s.base = m
	}
}

// WithLocalTransform sets the transform registered for the session in every device frame.
func WithLocalTransform(m mgl32.Mat4) SessionBuilderOption {
	return func(s *session) {
		s.localTransform = m
	}
}

// WithContentScale sets the recommended content scale. Values <= 0 are ignored.
func WithContentScale(scale float32) SessionBuilderOption {
	return func(s *session) {
		if scale > 0 {
			s.contentScale = scale
		}
	}
}

// WithCullingStrategy overrides the device's default culling strategy for this session.
func WithCullingStrategy(strategy bounding.CullingStrategy) SessionBuilderOption {
	return func(s *session) {
		s.strategy = strategy
	}
}

// WithFrameCallback registers the function that fills the session's frames with commands.
func WithFrameCallback(cb FrameCallback) SessionBuilderOption {
	return func(s *session) {
		s.callback = cb
	}
}

// withSessionClock is applied by the device so every frame it builds shares the device clock.
func withSessionClock(clock frame.Clock) SessionBuilderOption {
	return func(s *session) {
		s.clock = clock
	}
}
