package viewer

// ViewerBuilderOption is a functional option applied to a viewer during construction via NewViewer.
type ViewerBuilderOption func(*viewerImpl)

// WithFov sets the vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - ViewerBuilderOption: a function that sets the viewer's field of view
func WithFov(fov float32) ViewerBuilderOption {
	return func(v *viewerImpl) {
		v.fov = fov
	}
}

// WithAspect sets the per-eye aspect ratio (width / height). Values <= 0 are ignored.
func WithAspect(aspect float32) ViewerBuilderOption {
	return func(v *viewerImpl) {
		if aspect > 0 {
			v.aspect = aspect
		}
	}
}

// WithClipPlanes sets the near and far clip distances.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - ViewerBuilderOption: a function that sets both clip planes
func WithClipPlanes(near, far float32) ViewerBuilderOption {
	return func(v *viewerImpl) {
		v.near = near
		v.far = far
	}
}

// WithIPD sets the inter-pupillary distance in world units.
func WithIPD(ipd float32) ViewerBuilderOption {
	return func(v *viewerImpl) {
		v.ipd = ipd
	}
}

// WithController attaches a controller. After all options are applied the viewer computes its matrices
// from the controller's pose.
//
// Parameters:
//   - ctrl: the controller to attach
//
// Returns:
//   - ViewerBuilderOption: a function that sets the controller
func WithController(ctrl Controller) ViewerBuilderOption {
	return func(v *viewerImpl) {
		v.controller = ctrl
	}
}
