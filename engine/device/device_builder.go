package device

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// MemoryDeviceOption configures a MemoryDevice.
type MemoryDeviceOption func(*MemoryDevice)

// WithMaxTextureSize sets the largest texture dimension the device accepts.
// Values <= 0 are ignored.
func WithMaxTextureSize(size int32) MemoryDeviceOption {
	return func(d *MemoryDevice) {
		if size > 0 {
			d.maxTextureSize = size
		}
	}
}

// WGPUDeviceOption configures the WebGPU device.
type WGPUDeviceOption func(*wgpuDeviceImpl)

// WithSurface presents the left eye to a window surface.
//
// Parameters:
//   - descriptor: the platform surface descriptor, usually from the mirror window
func WithSurface(descriptor *wgpu.SurfaceDescriptor) WGPUDeviceOption {
	return func(d *wgpuDeviceImpl) {
		d.surfaceDescriptor = descriptor
	}
}

// WithTargetSize sets the per-eye color target size in pixels.
func WithTargetSize(width, height int) WGPUDeviceOption {
	return func(d *wgpuDeviceImpl) {
		if width > 0 && height > 0 {
			d.width = uint32(width)
			d.height = uint32(height)
		}
	}
}

// WithFallbackAdapter forces the software fallback adapter, useful on machines without a GPU.
func WithFallbackAdapter(force bool) WGPUDeviceOption {
	return func(d *wgpuDeviceImpl) {
		d.forceFallbackAdapter = force
	}
}

// WithPresentMode sets the surface present mode. Ignored without a surface.
func WithPresentMode(mode wgpu.PresentMode) WGPUDeviceOption {
	return func(d *wgpuDeviceImpl) {
		d.presentMode = mode
	}
}

// WithShaderEntryPoints overrides the WGSL entry points used when building render pipelines.
func WithShaderEntryPoints(vertex, fragment string) WGPUDeviceOption {
	return func(d *wgpuDeviceImpl) {
		if vertex != "" {
			d.vertexEntry = vertex
		}
		if fragment != "" {
			d.fragmentEntry = fragment
		}
	}
}
