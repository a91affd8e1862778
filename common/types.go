// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "fmt"

// PixelFormat identifies the layout of a texel in TextureStagingData.
type PixelFormat uint8

const (
	// PixelFormatRGBA8 stores 4 unsigned bytes per pixel (R, G, B, A).
	PixelFormatRGBA8 PixelFormat = iota
	// PixelFormatRGB8 stores 3 unsigned bytes per pixel (R, G, B).
	PixelFormatRGB8
	// PixelFormatR8 stores a single unsigned byte per pixel.
	PixelFormatR8
)

// BytesPerPixel returns the size of one texel in bytes for the format.
//
// Returns:
//   - int: bytes per pixel, or 0 for an unknown format
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatRGBA8:
		return 4
	case PixelFormatRGB8:
		return 3
	case PixelFormatR8:
		return 1
	}
	return 0
}

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatRGBA8:
		return "RGBA8"
	case PixelFormatRGB8:
		return "RGB8"
	case PixelFormatR8:
		return "R8"
	}
	return fmt.Sprintf("PixelFormat(%d)", uint8(f))
}

// TextureStagingData holds pixel data for a texture upload pending execution on the render goroutine.
// Texture upload commands own a copy of Pixels; the producer's slice is never referenced after construction.
type TextureStagingData struct {
	// Pixels is the raw pixel data, row-major, tightly packed according to Format.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
	// Format describes how Pixels is laid out.
	Format PixelFormat
}

// Validate checks that Pixels is large enough for Width x Height texels of Format.
// A nil Pixels slice is valid and means "allocate without upload".
//
// Returns:
//   - error: an error describing the size mismatch, or nil
func (t TextureStagingData) Validate() error {
	bpp := t.Format.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("unknown pixel format %v", t.Format)
	}
	if t.Pixels == nil {
		return nil
	}
	want := int(t.Width) * int(t.Height) * bpp
	if len(t.Pixels) < want {
		return fmt.Errorf("pixel data too small: got %d bytes, want %d for %dx%d %v", len(t.Pixels), want, t.Width, t.Height, t.Format)
	}
	return nil
}

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}
