package viewer

import "github.com/go-gl/mathgl/mgl32"

// ControllerBuilderOption is a functional option for configuring a Controller.
type ControllerBuilderOption func(*controllerImpl)

// WithRadius sets the initial distance from the target.
//
// Parameters:
//   - radius: distance from the orbit target
//
// Returns:
//   - ControllerBuilderOption: functional option to set the radius
func WithRadius(radius float32) ControllerBuilderOption {
	return func(c *controllerImpl) {
		c.radius = radius
	}
}

// WithAzimuth sets the initial horizontal angle around the Y axis.
//
// Parameters:
//   - azimuth: horizontal angle in radians (0 = +Z axis)
//
// Returns:
//   - ControllerBuilderOption: functional option to set the azimuth
func WithAzimuth(azimuth float32) ControllerBuilderOption {
	return func(c *controllerImpl) {
		c.azimuth = azimuth
	}
}

// WithElevation sets the initial vertical angle from the horizontal plane.
func WithElevation(elevation float32) ControllerBuilderOption {
	return func(c *controllerImpl) {
		c.elevation = elevation
	}
}

// WithTarget sets the orbit pivot.
func WithTarget(target mgl32.Vec3) ControllerBuilderOption {
	return func(c *controllerImpl) {
		c.target = target
	}
}

// WithRadiusBounds sets the minimum and maximum orbit radius.
//
// Parameters:
//   - minRadius: closest allowed distance
//   - maxRadius: farthest allowed distance
//
// Returns:
//   - ControllerBuilderOption: functional option to set radius bounds
func WithRadiusBounds(minRadius, maxRadius float32) ControllerBuilderOption {
	return func(c *controllerImpl) {
		c.minRadius = minRadius
		c.maxRadius = maxRadius
	}
}

// WithOrbitSpeed sets the radians moved per orbit step.
func WithOrbitSpeed(speed float32) ControllerBuilderOption {
	return func(c *controllerImpl) {
		c.orbitSpeed = speed
	}
}

// WithZoomSpeed sets the zoom speed multiplier.
func WithZoomSpeed(speed float32) ControllerBuilderOption {
	return func(c *controllerImpl) {
		c.zoomSpeed = speed
	}
}
