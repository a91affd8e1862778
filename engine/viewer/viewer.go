// Package viewer is the stereo viewer rig: a head pose driven by a Controller and one view/projection pair per eye.
package viewer

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Eye indices. Eye 0 renders first in multi-pass stereo.
const (
	EyeLeft  = 0
	EyeRight = 1
	EyeCount = 2
)

// EyeView is one eye's world-to-view and projection matrices.
type EyeView struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

type viewerImpl struct {
	mu *sync.Mutex

	up mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32
	ipd    float32

	headView   mgl32.Mat4
	transform  mgl32.Mat4
	projection mgl32.Mat4
	eyes       [EyeCount]EyeView

	controller Controller
}

// Viewer holds the stereo projection settings and computes both eyes' matrices from its Controller on Update.
// The eyes sit IPD apart along the head's local X axis, left eye at -IPD/2.
type Viewer interface {
	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the per-eye aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clip distance.
	Near() float32

	// Far returns the far clip distance.
	Far() float32

	// IPD returns the inter-pupillary distance in world units.
	IPD() float32

	// EyeView returns the matrices of one eye as of the last Update.
	//
	// Parameters:
	//   - eye: EyeLeft or EyeRight; other values are clamped
	//
	// Returns:
	//   - EyeView: the eye's view and projection
	EyeView(eye int) EyeView

	// Transform returns the head's world transform (the inverse of the head view matrix).
	Transform() mgl32.Mat4

	// Controller returns the attached controller.
	Controller() Controller

	// Update reads the controller pose and recomputes every matrix.
	// Should be called once per tick before the device frame is opened.
	Update()

	// SetController attaches a controller.
	//
	// Parameters:
	//   - ctrl: the controller; nil freezes the pose
	SetController(ctrl Controller)

	// SetFov sets the vertical field of view in radians and recomputes the matrices.
	SetFov(fov float32)

	// SetAspect sets the per-eye aspect ratio and recomputes the matrices.
	//
	// Parameters:
	//   - aspect: width / height, ignored when <= 0
	SetAspect(aspect float32)

	// SetNear sets the near clip distance and recomputes the matrices.
	SetNear(near float32)

	// SetFar sets the far clip distance and recomputes the matrices.
	SetFar(far float32)

	// SetIPD sets the inter-pupillary distance and recomputes the eye views.
	SetIPD(ipd float32)
}

var _ Viewer = &viewerImpl{}

// NewViewer creates a viewer with a 90 degree field of view, 0.064 IPD and a default Controller.
//
// Parameters:
//   - options: functional options to configure the viewer
//
// Returns:
//   - Viewer: the viewer
func NewViewer(options ...ViewerBuilderOption) Viewer {
	v := &viewerImpl{
		mu:        &sync.Mutex{},
		up:        mgl32.Vec3{0, 1, 0},
		fov:       float32(math.Pi / 2),
		aspect:    1,
		near:      0.1,
		far:       100,
		ipd:       0.064,
		headView:  mgl32.Ident4(),
		transform: mgl32.Ident4(),
	}
	for _, opt := range options {
		opt(v)
	}
	if v.controller == nil {
		v.controller = NewController()
	}
	v.updateMatrices()
	return v
}

func (v *viewerImpl) Fov() float32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fov
}

func (v *viewerImpl) Aspect() float32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.aspect
}

func (v *viewerImpl) Near() float32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.near
}

func (v *viewerImpl) Far() float32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.far
}

func (v *viewerImpl) IPD() float32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ipd
}

func (v *viewerImpl) EyeView(eye int) EyeView {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.eyes[min(max(eye, 0), EyeCount-1)]
}

func (v *viewerImpl) Transform() mgl32.Mat4 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.transform
}

func (v *viewerImpl) Controller() Controller {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.controller
}

func (v *viewerImpl) Update() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.updateMatrices()
}

func (v *viewerImpl) SetController(ctrl Controller) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.controller = ctrl
}

func (v *viewerImpl) SetFov(fov float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fov = fov
	v.updateMatrices()
}

func (v *viewerImpl) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.aspect = aspect
	v.updateMatrices()
}

func (v *viewerImpl) SetNear(near float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.near = near
	v.updateMatrices()
}

func (v *viewerImpl) SetFar(far float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.far = far
	v.updateMatrices()
}

func (v *viewerImpl) SetIPD(ipd float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ipd = ipd
	v.updateMatrices()
}

// updateMatrices recomputes the head view, head transform, projection and both eye views.
// Caller must hold the mutex.
func (v *viewerImpl) updateMatrices() {
	if v.controller != nil {
		v.headView = common.LookAt(v.controller.Position(), v.controller.Target(), v.up)
		if inv, ok := common.Invert(v.headView); ok {
			v.transform = inv
		}
	}
	v.projection = common.Perspective(v.fov, v.aspect, v.near, v.far)

	half := v.ipd / 2
	v.eyes[EyeLeft] = EyeView{View: mgl32.Translate3D(half, 0, 0).Mul4(v.headView), Projection: v.projection}
	v.eyes[EyeRight] = EyeView{View: mgl32.Translate3D(-half, 0, 0).Mul4(v.headView), Projection: v.projection}
}
