package frame

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrDeviceFrameEnded is returned when registering a session on a device frame that has ended.
var ErrDeviceFrameEnded = errors.New("device frame ended")

// FrameContextBySessionID is one session's slice of a DeviceFrame.
type FrameContextBySessionID struct {
	SessionID      uint32
	LocalTransform mgl32.Mat4
}

// DeviceFrame aggregates the viewer transform and per-session local transforms for one render tick.
type DeviceFrame struct {
	mu *sync.Mutex

	ended           bool
	multiPass       bool
	timestamp       time.Time
	viewerTransform mgl32.Mat4
	sessions        map[uint32]*FrameContextBySessionID
}

// NewDeviceFrame opens a device frame for one tick.
//
// Parameters:
//   - viewerTransform: the viewer's world transform for the tick
//   - multiPass: whether the tick renders one pass per eye
//   - timestamp: the tick time
//
// Returns:
//   - *DeviceFrame: the open frame
func NewDeviceFrame(viewerTransform mgl32.Mat4, multiPass bool, timestamp time.Time) *DeviceFrame {
	return &DeviceFrame{
		mu:              &sync.Mutex{},
		multiPass:       multiPass,
		timestamp:       timestamp,
		viewerTransform: viewerTransform,
		sessions:        make(map[uint32]*FrameContextBySessionID),
	}
}

// AddSession registers a transform slot for a session, initialized to identity.
// Registering the same id again within the tick replaces the prior slot.
//
// Parameters:
//   - id: the session id
//
// Returns:
//   - *FrameContextBySessionID: the slot
//   - error: ErrDeviceFrameEnded if the frame has ended
func (d *DeviceFrame) AddSession(id uint32) (*FrameContextBySessionID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ended {
		return nil, fmt.Errorf("%w: session %d", ErrDeviceFrameEnded, id)
	}
	slot := &FrameContextBySessionID{SessionID: id, LocalTransform: mgl32.Ident4()}
	d.sessions[id] = slot
	return slot, nil
}

// SetSessionTransform registers a session with the given local transform.
func (d *DeviceFrame) SetSessionTransform(id uint32, local mgl32.Mat4) error {
	slot, err := d.AddSession(id)
	if err != nil {
		return err
	}
	d.mu.Lock()
	slot.LocalTransform = local
	d.mu.Unlock()
	return nil
}

// Session returns a copy of a session's slot.
func (d *DeviceFrame) Session(id uint32) (FrameContextBySessionID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	slot, ok := d.sessions[id]
	if !ok {
		return FrameContextBySessionID{}, false
	}
	return *slot, true
}

// Sessions returns copies of every slot, ordered by session id.
func (d *DeviceFrame) Sessions() []FrameContextBySessionID {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]FrameContextBySessionID, 0, len(d.sessions))
	for _, slot := range d.sessions {
		out = append(out, *slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}

// End closes the frame for the tick.
func (d *DeviceFrame) End() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ended = true
}

// Ended reports whether End was called.
func (d *DeviceFrame) Ended() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ended
}

// IsMultiPass reports whether the tick renders one pass per eye.
func (d *DeviceFrame) IsMultiPass() bool {
	return d.multiPass
}

// Timestamp returns the tick time.
func (d *DeviceFrame) Timestamp() time.Time {
	return d.timestamp
}

// ViewerTransform returns the viewer's world transform.
func (d *DeviceFrame) ViewerTransform() mgl32.Mat4 {
	return d.viewerTransform
}

// MultiPassFrame is the per-eye view of a DeviceFrame. The eye index and its view and projection matrices are
// fixed at construction; the other eye gets its own instance sharing the same DeviceFrame.
type MultiPassFrame struct {
	*DeviceFrame

	eye        int
	view       mgl32.Mat4
	projection mgl32.Mat4
	viewProj   mgl32.Mat4
	frustum    common.Frustum
}

// NewMultiPassFrame binds an eye to a device frame.
//
// Parameters:
//   - base: the tick's device frame
//   - eye: 0 for the left eye, 1 for the right eye
//   - view: the eye's view matrix
//   - projection: the eye's projection matrix
//
// Returns:
//   - *MultiPassFrame: the eye frame
//   - error: ErrInvalidPassIndex if eye is not 0 or 1
func NewMultiPassFrame(base *DeviceFrame, eye int, view, projection mgl32.Mat4) (*MultiPassFrame, error) {
	if eye < 0 || eye >= PassCount {
		return nil, fmt.Errorf("%w: eye %d", ErrInvalidPassIndex, eye)
	}
	vp := projection.Mul4(view)
	return &MultiPassFrame{
		DeviceFrame: base,
		eye:         eye,
		view:        view,
		projection:  projection,
		viewProj:    vp,
		frustum:     common.ExtractFrustum(vp),
	}, nil
}

// Eye returns the active eye index.
func (m *MultiPassFrame) Eye() int {
	return m.eye
}

// ViewMatrix returns the eye's view matrix.
func (m *MultiPassFrame) ViewMatrix() mgl32.Mat4 {
	return m.view
}

// ProjectionMatrix returns the eye's projection matrix.
func (m *MultiPassFrame) ProjectionMatrix() mgl32.Mat4 {
	return m.projection
}

// ViewProjectionMatrix returns projection * view.
func (m *MultiPassFrame) ViewProjectionMatrix() mgl32.Mat4 {
	return m.viewProj
}

// Frustum returns the eye's frustum planes.
func (m *MultiPassFrame) Frustum() common.Frustum {
	return m.frustum
}
