package xr

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/bounding"
	"github.com/Carmen-Shannon/oxy-xr/engine/frame"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrDeviceClosed is returned by RequestSession and SubmitFrame after Close.
	ErrDeviceClosed = errors.New("xr device closed")
	// ErrSessionNotFound is returned for an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
)

// EyeView is one eye's camera for a tick.
type EyeView struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

// Stats counts the device's admission-control work.
type Stats struct {
	Sessions int
	Ticks    uint64

	// VisibleLastTick and CulledLastTick split the live sessions by the last UpdateSessionsInZone.
	VisibleLastTick int
	CulledLastTick  int
	CulledTotal     uint64

	FramesSubmitted uint64
	FramesDropped   uint64
}

// xrDevice is the implementation of the Device interface.
type xrDevice struct {
	mu *sync.Mutex

	sessions      map[uint32]*session
	nextSessionID uint32

	ids    *frame.IDAllocator
	frames *frame.Queue

	multiPass    bool
	strategy     bounding.CullingStrategy
	clock        frame.Clock
	frameTimeout time.Duration
	onDrop       func(*frame.StereoRenderingFrame)

	zoneWorkers int
	zonePool    worker.DynamicWorkerPool

	current *frame.DeviceFrame
	stats   Stats
	closed  bool
}

// Device is the XR device: it owns the sessions, the frame identifier counter and the frame queue the
// render goroutine consumes.
type Device interface {
	// RequestSession creates a session. Sessions start culled until the first UpdateSessionsInZone.
	//
	// Parameters:
	//   - options: variadic list of SessionBuilderOption functions
	//
	// Returns:
	//   - Session: the new session
	//   - error: ErrDeviceClosed
	RequestSession(options ...SessionBuilderOption) (Session, error)

	// EndSession ends and forgets a session.
	//
	// Parameters:
	//   - id: the session id
	//
	// Returns:
	//   - error: ErrSessionNotFound
	EndSession(id uint32) error

	// Session returns a live session by id.
	Session(id uint32) (Session, bool)

	// Sessions returns every live session ordered by id.
	Sessions() []Session

	// IsSessionVisible reports whether a session exists and was in frustum at the last zone update.
	IsSessionVisible(id uint32) bool

	// IsMultiPass reports whether stereo is rendered as one pass per eye.
	IsMultiPass() bool

	// FrameIDs returns the frame identifier counter shared by every session.
	FrameIDs() *frame.IDAllocator

	// BeginDeviceFrame opens the tick's device frame, registers every live session's local transform in it
	// and returns one eye frame per eye. The previous device frame is ended.
	//
	// Parameters:
	//   - viewerTransform: the viewer's world transform
	//   - eyes: the view and projection of each eye
	//
	// Returns:
	//   - []*frame.MultiPassFrame: the eye frames, indexed by eye
	//   - error: ErrDeviceClosed
	BeginDeviceFrame(viewerTransform mgl32.Mat4, eyes [frame.PassCount]EyeView) ([]*frame.MultiPassFrame, error)

	// UpdateSessionsInZone runs UpdateStatesInZone for every live session on the zone worker pool and waits
	// for all of them.
	//
	// Parameters:
	//   - eyes: the tick's eye frames
	//
	// Returns:
	//   - []Session: the sessions in frustum, ordered by id
	UpdateSessionsInZone(eyes []*frame.MultiPassFrame) []Session

	// Frames returns the queue ended frames are pushed to.
	Frames() *frame.Queue

	// SubmitFrame hands an ended frame to the render goroutine.
	//
	// Parameters:
	//   - f: the frame; every pass must be ended
	//
	// Returns:
	//   - error: ErrDeviceClosed, frame.ErrFrameNotEnded, or frame.ErrQueueClosed
	SubmitFrame(f *frame.StereoRenderingFrame) error

	// NextAvailableFrame pops the next frame for execution, skipping expired droppable frames.
	NextAvailableFrame() *frame.StereoRenderingFrame

	// Stats returns a snapshot of the device counters.
	Stats() Stats

	// Close ends every session and closes the frame queue, releasing frames still queued.
	// Safe to call more than once.
	Close() error
}

var _ Device = &xrDevice{}

// NewDevice creates an XR device.
//
// Parameters:
//   - options: variadic list of DeviceBuilderOption functions
//
// Returns:
//   - Device: the device
func NewDevice(options ...DeviceBuilderOption) Device {
	d := &xrDevice{
		mu:           &sync.Mutex{},
		sessions:     make(map[uint32]*session),
		ids:          &frame.IDAllocator{},
		multiPass:    true,
		strategy:     bounding.CullingStrategyStandard,
		clock:        time.Now,
		frameTimeout: 50 * time.Millisecond,
		zoneWorkers:  max(runtime.NumCPU()-1, 1),
	}
	for _, opt := range options {
		opt(d)
	}

	d.frames = frame.NewQueue(d.frameTimeout, frame.WithDropCallback(d.frameDropped))
	// Queue size of 256 covers typical session counts with headroom.
	d.zonePool = worker.NewDynamicWorkerPool(d.zoneWorkers, 256, 1*time.Second)

	common.Logger().Info("xr device created", "multiPass", d.multiPass, "strategy", d.strategy.String(), "zoneWorkers", d.zoneWorkers, "frameTimeout", d.frameTimeout)
	return d
}

func (d *xrDevice) frameDropped(f *frame.StereoRenderingFrame) {
	d.mu.Lock()
	d.stats.FramesDropped++
	onDrop := d.onDrop
	d.mu.Unlock()
	if onDrop != nil {
		onDrop(f)
	}
}

func (d *xrDevice) RequestSession(options ...SessionBuilderOption) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}

	d.nextSessionID++
	id := d.nextSessionID
	opts := append([]SessionBuilderOption{WithCullingStrategy(d.strategy), withSessionClock(d.clock)}, options...)
	s := newSession(id, d.ids, opts...)
	d.sessions[id] = s

	common.Logger().Info("session requested", "session", id, "strategy", s.strategy.String())
	return s, nil
}

func (d *xrDevice) EndSession(id uint32) error {
	d.mu.Lock()
	s, ok := d.sessions[id]
	delete(d.sessions, id)
	d.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrSessionNotFound, id)
	}
	s.End()
	common.Logger().Info("session ended", "session", id, "framesBuilt", s.FramesBuilt())
	return nil
}

func (d *xrDevice) Session(id uint32) (Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[id]
	if !ok {
		return nil, false
	}
	return s, true
}

func (d *xrDevice) Sessions() []Session {
	live := d.liveSessions()
	out := make([]Session, len(live))
	for i, s := range live {
		out[i] = s
	}
	return out
}

func (d *xrDevice) liveSessions() []*session {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*session, 0, len(d.sessions))
	for _, s := range d.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (d *xrDevice) IsSessionVisible(id uint32) bool {
	s, ok := d.Session(id)
	return ok && !s.Ended() && s.IsInFrustum()
}

func (d *xrDevice) IsMultiPass() bool {
	return d.multiPass
}

func (d *xrDevice) FrameIDs() *frame.IDAllocator {
	return d.ids
}

func (d *xrDevice) BeginDeviceFrame(viewerTransform mgl32.Mat4, eyes [frame.PassCount]EyeView) ([]*frame.MultiPassFrame, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrDeviceClosed
	}
	if d.current != nil {
		d.current.End()
	}
	base := frame.NewDeviceFrame(viewerTransform, d.multiPass, d.clock())
	d.current = base
	d.stats.Ticks++
	d.mu.Unlock()

	for _, s := range d.liveSessions() {
		if _, err := base.AddSession(s.id); err != nil {
			return nil, err
		}
		if err := base.SetSessionTransform(s.id, s.LocalTransform()); err != nil {
			return nil, err
		}
	}

	out := make([]*frame.MultiPassFrame, 0, frame.PassCount)
	for eye, v := range eyes {
		mp, err := frame.NewMultiPassFrame(base, eye, v.View, v.Projection)
		if err != nil {
			return nil, err
		}
		out = append(out, mp)
	}
	return out, nil
}

func (d *xrDevice) UpdateSessionsInZone(eyes []*frame.MultiPassFrame) []Session {
	live := d.liveSessions()

	var wg sync.WaitGroup
	for taskID, s := range live {
		wg.Add(1)
		sCap := s
		d.zonePool.SubmitTask(worker.Task{
			ID: taskID,
			Do: func() (any, error) {
				defer wg.Done()
				sCap.UpdateStatesInZone(eyes...)
				return nil, nil
			},
		})
	}
	wg.Wait()

	visible := make([]Session, 0, len(live))
	for _, s := range live {
		if s.IsInFrustum() {
			visible = append(visible, s)
		}
	}

	culled := len(live) - len(visible)
	d.mu.Lock()
	d.stats.VisibleLastTick = len(visible)
	d.stats.CulledLastTick = culled
	d.stats.CulledTotal += uint64(culled)
	d.mu.Unlock()

	if culled > 0 {
		common.Logger().Debug("sessions culled", "culled", culled, "visible", len(visible))
	}
	return visible
}

func (d *xrDevice) Frames() *frame.Queue {
	return d.frames
}

func (d *xrDevice) SubmitFrame(f *frame.StereoRenderingFrame) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return ErrDeviceClosed
	}

	if err := d.frames.Push(f); err != nil {
		return err
	}
	d.mu.Lock()
	d.stats.FramesSubmitted++
	d.mu.Unlock()
	return nil
}

func (d *xrDevice) NextAvailableFrame() *frame.StereoRenderingFrame {
	return d.frames.NextAvailable()
}

func (d *xrDevice) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.Sessions = len(d.sessions)
	return s
}

func (d *xrDevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	sessions := d.sessions
	d.sessions = make(map[uint32]*session)
	if d.current != nil {
		d.current.End()
	}
	d.mu.Unlock()

	for _, s := range sessions {
		s.End()
	}
	d.zonePool.Stop()
	released := d.frames.Close()
	common.Logger().Info("xr device closed", "sessions", len(sessions), "framesReleased", released)
	return nil
}
