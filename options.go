package gx

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gx/backend"
	"github.com/gogpu/gx/gpu"
	"github.com/gogpu/gx/text"
)

// Default batch capacities, in primitives per GPU submission.
const (
	DefaultMaxImagesPerBatch     = 2000
	DefaultMaxRectanglesPerBatch = 1000
	DefaultMaxCirclesPerBatch    = 1000
	DefaultMaxLinesPerBatch      = 1000
	DefaultMaxPointsPerBatch     = 1000
	DefaultMaxCharsPerBatch      = 2000
)

// ContextOption configures a Context during creation.
//
// Example:
//
//	ctx, err := gx.NewContext(800, 600,
//		gx.WithSmoothing(true),
//		gx.WithBackgroundColor(gx.Black),
//	)
type ContextOption func(*contextOptions)

type contextOptions struct {
	smoothing       bool
	transparency    bool
	snapToPixel     bool
	background      RGBA
	powerPreference gputypes.PowerPreference

	device      gpu.Device
	backendName string

	maxImages     int
	maxRectangles int
	maxCircles    int
	maxLines      int
	maxPoints     int
	maxChars      int

	debugFont *text.Font
}

func defaultOptions() contextOptions {
	return contextOptions{
		transparency:    true,
		snapToPixel:     true,
		background:      DefaultBackground,
		powerPreference: gputypes.PowerPreferenceHighPerformance,
		backendName:     backend.Software,
		maxImages:       DefaultMaxImagesPerBatch,
		maxRectangles:   DefaultMaxRectanglesPerBatch,
		maxCircles:      DefaultMaxCirclesPerBatch,
		maxLines:        DefaultMaxLinesPerBatch,
		maxPoints:       DefaultMaxPointsPerBatch,
		maxChars:        DefaultMaxCharsPerBatch,
	}
}

// surfaceConfig translates the options into device creation flags.
func (o *contextOptions) surfaceConfig(width, height int) gpu.SurfaceConfig {
	return gpu.SurfaceConfig{
		Width:           width,
		Height:          height,
		Antialias:       o.smoothing,
		Alpha:           o.transparency,
		Depth:           false,
		PowerPreference: o.powerPreference,
	}
}

// filtering is the texture filter applied to images drawn without an
// explicit mode.
func (o *contextOptions) filtering() ImageFiltering {
	if o.smoothing {
		return FilterBlended
	}
	return FilterPixel
}

// WithSmoothing enables antialiased rendering and linear image filtering.
// Off by default, which suits pixel art.
func WithSmoothing(enabled bool) ContextOption {
	return func(o *contextOptions) {
		o.smoothing = enabled
	}
}

// WithTransparency controls whether the alpha channel survives into the
// output. On by default.
func WithTransparency(enabled bool) ContextOption {
	return func(o *contextOptions) {
		o.transparency = enabled
	}
}

// WithSnapToPixel truncates translation offsets toward zero. On by default.
func WithSnapToPixel(enabled bool) ContextOption {
	return func(o *contextOptions) {
		o.snapToPixel = enabled
	}
}

// WithBackgroundColor sets the color Clear fills with.
func WithBackgroundColor(c RGBA) ContextOption {
	return func(o *contextOptions) {
		o.background = c
	}
}

// WithPowerPreference passes a GPU selection hint to the backend.
func WithPowerPreference(p gputypes.PowerPreference) ContextOption {
	return func(o *contextOptions) {
		o.powerPreference = p
	}
}

// WithDevice draws through an already opened device instead of opening one
// from a backend. The context does not release a device it did not open.
func WithDevice(d gpu.Device) ContextOption {
	return func(o *contextOptions) {
		o.device = d
	}
}

// WithBackend selects the backend to open by name. An empty name picks the
// best available backend.
//
// Example:
//
//	import _ "github.com/gogpu/gx/backend/wgpu"
//
//	ctx, err := gx.NewContext(800, 600, gx.WithBackend("wgpu"))
func WithBackend(name string) ContextOption {
	return func(o *contextOptions) {
		o.backendName = name
	}
}

// WithMaxImagesPerBatch sets the image batch capacity.
func WithMaxImagesPerBatch(n int) ContextOption {
	return func(o *contextOptions) {
		if n > 0 {
			o.maxImages = n
		}
	}
}

// WithMaxRectanglesPerBatch sets the rectangle batch capacity.
func WithMaxRectanglesPerBatch(n int) ContextOption {
	return func(o *contextOptions) {
		if n > 0 {
			o.maxRectangles = n
		}
	}
}

// WithMaxCirclesPerBatch sets the circle batch capacity.
func WithMaxCirclesPerBatch(n int) ContextOption {
	return func(o *contextOptions) {
		if n > 0 {
			o.maxCircles = n
		}
	}
}

// WithMaxLinesPerBatch sets the line batch capacity.
func WithMaxLinesPerBatch(n int) ContextOption {
	return func(o *contextOptions) {
		if n > 0 {
			o.maxLines = n
		}
	}
}

// WithMaxPointsPerBatch sets the point batch capacity.
func WithMaxPointsPerBatch(n int) ContextOption {
	return func(o *contextOptions) {
		if n > 0 {
			o.maxPoints = n
		}
	}
}

// WithMaxCharsPerBatch sets the glyph batch capacity of the text renderer.
func WithMaxCharsPerBatch(n int) ContextOption {
	return func(o *contextOptions) {
		if n > 0 {
			o.maxChars = n
		}
	}
}

// WithDebugFont replaces the font Debug().DrawText uses.
func WithDebugFont(f *text.Font) ContextOption {
	return func(o *contextOptions) {
		o.debugFont = f
	}
}
