// Package xr holds the admission-control side of the runtime: XR sessions own the bounding volume of their
// content and decide, once per tick, whether a stereo frame is built for them at all.
package xr

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/engine/bounding"
	"github.com/Carmen-Shannon/oxy-xr/engine/frame"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrSessionCulled is returned by CreateStereoRenderingFrame when the session is outside the frustum.
	ErrSessionCulled = errors.New("session is not in frustum")
	// ErrSessionEnded is returned by operations on a session after End.
	ErrSessionEnded = errors.New("session ended")
)

// session is the implementation of the Session interface.
type session struct {
	mu *sync.Mutex

	id  uint32
	ids *frame.IDAllocator

	bounds         *bounding.BoundingInfo
	localMin       mgl32.Vec3
	localMax       mgl32.Vec3
	base           mgl32.Mat4
	localTransform mgl32.Mat4
	contentScale   float32
	strategy       bounding.CullingStrategy
	clock          frame.Clock

	inFrustum           bool
	completelyInFrustum bool

	framesBuilt uint64
	callback    FrameCallback
	ended       bool
}

// Session is one piece of spatial content taking part in stereo rendering.
// It owns exactly one BoundingInfo; the device and content that created it are referenced, not owned.
type Session interface {
	// ID returns the session identifier assigned by the device.
	ID() uint32

	// BoundingInfo returns the session's bounding volume. World-space fields reflect the last UpdateStatesInZone.
	//
	// Returns:
	//   - *bounding.BoundingInfo: the bounding info
	BoundingInfo() *bounding.BoundingInfo

	// SetLocalBounds replaces the local extremes of the session content and rebuilds the bounding volume
	// against the current world transform.
	//
	// Parameters:
	//   - min: local minimum corner
	//   - max: local maximum corner
	SetLocalBounds(min, max mgl32.Vec3)

	// BaseMatrix returns the session's base (local to world) transform.
	BaseMatrix() mgl32.Mat4

	// SetBaseMatrix replaces the base transform. It takes effect at the next UpdateStatesInZone.
	SetBaseMatrix(m mgl32.Mat4)

	// LocalTransform returns the transform the device registers for this session in each device frame.
	LocalTransform() mgl32.Mat4

	// SetLocalTransform replaces the session's local transform. It takes effect at the next device frame.
	SetLocalTransform(m mgl32.Mat4)

	// RecommendedContentScale returns the scale content should apply to fit the session's volume.
	RecommendedContentScale() float32

	// CullingStrategy returns the strategy used for the in-frustum test.
	CullingStrategy() bounding.CullingStrategy

	// UpdateStatesInZone refreshes the world-space bounding volume and the frustum flags for a tick.
	// The world transform is the base matrix times the local transform registered in the device frame.
	// The session is in frustum when either eye can see it and completely in frustum when every eye
	// contains it entirely. With no eyes only the bounding volume is refreshed.
	//
	// Parameters:
	//   - eyes: the tick's per-eye frames
	UpdateStatesInZone(eyes ...*frame.MultiPassFrame)

	// IsInFrustum reports whether the last update found the session visible. False before the first update.
	IsInFrustum() bool

	// IsCompletelyInFrustum reports whether the last update found the session entirely inside every eye's frustum.
	IsCompletelyInFrustum() bool

	// NextStereoFrameID allocates a frame identifier from the device's shared counter.
	//
	// Returns:
	//   - uint64: an identifier greater than every identifier allocated before it
	NextStereoFrameID() uint64

	// CreateStereoRenderingFrame builds an idle frame for this session. This is the admission-control gate:
	// a session outside the frustum gets no frame.
	//
	// Parameters:
	//   - multiPass: whether each eye gets its own pass
	//   - options: additional frame options
	//
	// Returns:
	//   - *frame.StereoRenderingFrame: the frame
	//   - error: ErrSessionEnded or ErrSessionCulled
	CreateStereoRenderingFrame(multiPass bool, options ...frame.FrameOption) (*frame.StereoRenderingFrame, error)

	// FramesBuilt returns how many frames CreateStereoRenderingFrame has built.
	FramesBuilt() uint64

	// SetFrameCallback registers the function that fills the session's frames with commands.
	SetFrameCallback(cb FrameCallback)

	// FrameCallback returns the registered frame callback, or nil.
	FrameCallback() FrameCallback

	// End marks the session as ended. Safe to call more than once.
	End()

	// Ended reports whether End was called.
	Ended() bool
}

var _ Session = &session{}

// newSession is called by the device, which owns the identifier counters.
func newSession(id uint32, ids *frame.IDAllocator, options ...SessionBuilderOption) *session {
	s := &session{
		mu:             &sync.Mutex{},
		id:             id,
		ids:            ids,
		localMin:       mgl32.Vec3{-0.5, -0.5, -0.5},
		localMax:       mgl32.Vec3{0.5, 0.5, 0.5},
		base:           mgl32.Ident4(),
		localTransform: mgl32.Ident4(),
		contentScale:   1,
		strategy:       bounding.CullingStrategyStandard,
		clock:          time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	s.bounds = bounding.NewBoundingInfo(s.localMin, s.localMax, s.base.Mul4(s.localTransform))
	return s
}

func (s *session) ID() uint32 {
	return s.id
}

func (s *session) BoundingInfo() *bounding.BoundingInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds
}

func (s *session) SetLocalBounds(min, max mgl32.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localMin, s.localMax = min, max
	s.bounds.ReConstruct(min, max, s.base.Mul4(s.localTransform))
}

func (s *session) BaseMatrix() mgl32.Mat4 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base
}

func (s *session) SetBaseMatrix(m mgl32.Mat4) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = m
}

func (s *session) LocalTransform() mgl32.Mat4 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localTransform
}

func (s *session) SetLocalTransform(m mgl32.Mat4) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localTransform = m
}

func (s *session) RecommendedContentScale() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contentScale
}

func (s *session) CullingStrategy() bounding.CullingStrategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy
}

func (s *session) UpdateStatesInZone(eyes ...*frame.MultiPassFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	local := s.localTransform
	if len(eyes) > 0 {
		if slot, ok := eyes[0].Session(s.id); ok {
			local = slot.LocalTransform
		}
	}
	s.bounds.Update(s.base.Mul4(local))

	if len(eyes) == 0 {
		return
	}

	visible, contained := false, true
	for _, eye := range eyes {
		frustum := eye.Frustum()
		planes := frustum.Planes()
		if s.bounds.IsInFrustum(planes, s.strategy) {
			visible = true
		}
		if !s.bounds.IsCompletelyInFrustum(planes) {
			contained = false
		}
	}
	s.inFrustum = visible
	s.completelyInFrustum = visible && contained
}

func (s *session) IsInFrustum() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFrustum
}

func (s *session) IsCompletelyInFrustum() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completelyInFrustum
}

func (s *session) NextStereoFrameID() uint64 {
	return s.ids.Next()
}

func (s *session) CreateStereoRenderingFrame(multiPass bool, options ...frame.FrameOption) (*frame.StereoRenderingFrame, error) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrSessionEnded, s.id)
	}
	if !s.inFrustum {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrSessionCulled, s.id)
	}
	s.framesBuilt++
	clock := s.clock
	s.mu.Unlock()

	opts := append([]frame.FrameOption{
		frame.WithSessionID(s.id),
		frame.WithMultiPass(multiPass),
		frame.WithClock(clock),
	}, options...)
	return frame.NewStereoRenderingFrame(s.NextStereoFrameID(), opts...), nil
}

func (s *session) FramesBuilt() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.framesBuilt
}

func (s *session) SetFrameCallback(cb FrameCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callback = cb
}

func (s *session) FrameCallback() FrameCallback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callback
}

func (s *session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = true
	s.inFrustum = false
	s.completelyInFrustum = false
}

func (s *session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}
