package viewer

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/go-gl/mathgl/mgl32"
)

// controllerImpl orbits the viewer's head around a target point using spherical coordinates.
type controllerImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	target   mgl32.Vec3

	radius    float32
	azimuth   float32 // around Y, 0 = +Z
	elevation float32 // from the horizontal plane

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed float32
	zoomSpeed  float32
}

// Controller owns the viewer's head pose. The Viewer reads Position and Target from it on Update.
type Controller interface {
	// Position returns the head's world-space position.
	Position() mgl32.Vec3

	// Target returns the point the head looks at.
	Target() mgl32.Vec3

	// SetTarget moves the orbit pivot and recomputes the position.
	//
	// Parameters:
	//   - target: world-space pivot
	SetTarget(target mgl32.Vec3)

	// OrbitLeft rotates the head left around the target by one orbit step.
	OrbitLeft()

	// OrbitRight rotates the head right around the target by one orbit step.
	OrbitRight()

	// OrbitUp tilts the head upward by one orbit step, clamped to the maximum elevation.
	OrbitUp()

	// OrbitDown tilts the head downward by one orbit step, clamped to the minimum elevation.
	OrbitDown()

	// Zoom changes the orbit radius. Positive delta moves closer to the target.
	//
	// Parameters:
	//   - delta: zoom amount scaled by the zoom speed
	Zoom(delta float32)

	// Radius returns the current distance from the target.
	Radius() float32

	// Azimuth returns the horizontal angle in radians.
	Azimuth() float32

	// Elevation returns the vertical angle in radians.
	Elevation() float32

	// HandleKey applies the action bound to a key code (WASD orbit, Q/E zoom).
	//
	// Parameters:
	//   - code: a common.Key* code
	//
	// Returns:
	//   - bool: true if the key is bound to a controller action
	HandleKey(code int) bool
}

var _ Controller = &controllerImpl{}

// NewController creates an orbit controller. By default it sits 2 units in front of the origin on +Z,
// level with it, looking down -Z.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - Controller: the controller
func NewController(options ...ControllerBuilderOption) Controller {
	c := &controllerImpl{
		mu: &sync.Mutex{},

		radius:    2,
		azimuth:   0,
		elevation: 0,

		minRadius:    0.25,
		maxRadius:    100,
		minElevation: -float32(math.Pi/2 - 0.1),
		maxElevation: float32(math.Pi/2 - 0.1),

		orbitSpeed: 0.03,
		zoomSpeed:  0.25,
	}
	for _, opt := range options {
		opt(c)
	}
	c.clampRadius()
	c.clampElevation()
	c.updatePosition()
	return c
}

// updatePosition recomputes the position from the spherical coordinates. Caller must hold the mutex.
func (c *controllerImpl) updatePosition() {
	cosElev := float32(math.Cos(float64(c.elevation)))
	sinElev := float32(math.Sin(float64(c.elevation)))
	cosAzim := float32(math.Cos(float64(c.azimuth)))
	sinAzim := float32(math.Sin(float64(c.azimuth)))

	c.position = c.target.Add(mgl32.Vec3{
		c.radius * cosElev * sinAzim,
		c.radius * sinElev,
		c.radius * cosElev * cosAzim,
	})
}

func (c *controllerImpl) clampRadius() {
	c.radius = mgl32.Clamp(c.radius, c.minRadius, c.maxRadius)
}

func (c *controllerImpl) clampElevation() {
	c.elevation = mgl32.Clamp(c.elevation, c.minElevation, c.maxElevation)
}

func (c *controllerImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *controllerImpl) Target() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *controllerImpl) SetTarget(target mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
	c.updatePosition()
}

func (c *controllerImpl) OrbitLeft() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.azimuth -= c.orbitSpeed
	c.updatePosition()
}

func (c *controllerImpl) OrbitRight() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.azimuth += c.orbitSpeed
	c.updatePosition()
}

func (c *controllerImpl) OrbitUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elevation += c.orbitSpeed
	c.clampElevation()
	c.updatePosition()
}

func (c *controllerImpl) OrbitDown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elevation -= c.orbitSpeed
	c.clampElevation()
	c.updatePosition()
}

func (c *controllerImpl) Zoom(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radius -= delta * c.zoomSpeed
	c.clampRadius()
	c.updatePosition()
}

func (c *controllerImpl) Radius() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.radius
}

func (c *controllerImpl) Azimuth() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.azimuth
}

func (c *controllerImpl) Elevation() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elevation
}

func (c *controllerImpl) HandleKey(code int) bool {
	switch code {
	case common.KeyW:
		c.OrbitUp()
	case common.KeyS:
		c.OrbitDown()
	case common.KeyA:
		c.OrbitLeft()
	case common.KeyD:
		c.OrbitRight()
	case common.KeyE:
		c.Zoom(1)
	case common.KeyQ:
		c.Zoom(-1)
	default:
		return false
	}
	return true
}
