package gx

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gx/backend"
	"github.com/gogpu/gx/gpu"
	"github.com/gogpu/gx/internal/pool"
	"github.com/gogpu/gx/text"
)

// Context is the graphics context. Draw calls are queued with a snapshot
// of the current transform and state, and Flush submits them sorted by
// layer, renderer priority and renderer name, in as few batches as the
// order allows.
//
// A Context is not safe for concurrent use. Renderers must not call back
// into the context while it flushes.
type Context struct {
	width  int
	height int
	opts   contextOptions

	device     gpu.Device
	ownsDevice bool
	backend    string

	transform  *TransformStack
	state      *StateStack
	projection Mat4

	textures  *TextureCache
	diag      Diagnostics
	renderers map[string]Renderer
	copier    *copyRenderer

	calls *pool.Pool[drawCall]
	queue []*drawCall
	err   error

	debug  DebugDraw
	closed bool
}

// Ensure Context implements io.Closer
var _ io.Closer = (*Context)(nil)

// NewContext creates a context of width x height pixels.
//
// Unless WithDevice is given, a device is opened from the backend registry
// and released by Close. The built-in renderers are registered under the
// Renderer* names.
func NewContext(width, height int, opts ...ContextOption) (*Context, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Context{
		width:     width,
		height:    height,
		opts:      o,
		transform: NewTransformStack(),
		state:     NewStateStack(),
		renderers: make(map[string]Renderer),
		calls:     pool.New(func() *drawCall { return new(drawCall) }, pool.DefaultMaxObjects),
	}
	if err := c.openDevice(); err != nil {
		return nil, err
	}

	c.device.EnableBlend(true)
	c.device.BlendFunc(gputypes.BlendFactorSrcAlpha, gputypes.BlendFactorOneMinusSrcAlpha)
	c.textures = NewTextureCache(c.device, o.filtering())
	c.projection = ScreenProjection(width, height)

	builtins := []struct {
		r   Renderer
		max int
	}{
		{newImageRenderer(), o.maxImages},
		{newRectangleRenderer(), o.maxRectangles},
		{newCircleRenderer(), o.maxCircles},
		{newLineRenderer(), o.maxLines},
		{newPointRenderer(), o.maxPoints},
		{newTextRenderer(), o.maxChars},
	}
	for _, b := range builtins {
		if err := c.register(b.r.Name(), b.r, b.max); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	c.copier = newCopyRenderer()
	if err := c.copier.Initialize(c.rendererInfo(1)); err != nil {
		c.copier = nil
		_ = c.Close()
		return nil, err
	}

	font := o.debugFont
	if font == nil {
		font = text.Mono()
	}
	c.debug = DebugDraw{ctx: c, font: font}
	c.UpdateViewport()
	return c, nil
}

func (c *Context) openDevice() error {
	if c.opts.device != nil {
		c.device = c.opts.device
		c.backend = "external"
		if w, h := c.device.Size(); w != c.width || h != c.height {
			if err := c.device.Resize(c.width, c.height); err != nil {
				return fmt.Errorf("gx: resize device: %w", err)
			}
		}
		propagateLogger(c.device)
		return nil
	}

	cfg := c.opts.surfaceConfig(c.width, c.height)
	name := c.opts.backendName
	var (
		dev gpu.Device
		err error
	)
	if name == "" {
		dev, name, err = backend.Default(cfg)
	} else {
		dev, err = backend.Open(name, cfg)
	}
	if err != nil {
		return fmt.Errorf("gx: open device: %w", err)
	}
	if dev == nil {
		return ErrNilDevice
	}
	c.device = dev
	c.ownsDevice = true
	c.backend = name
	propagateLogger(dev)
	Logger().Info("device opened", "backend", name, "width", c.width, "height", c.height,
		"antialias", cfg.Antialias, "units", dev.MaxTextureImageUnits())
	return nil
}

func (c *Context) rendererInfo(maxPrimitives int) *RendererInfo {
	return &RendererInfo{
		Device:        c.device,
		Projection:    c.projection,
		Textures:      c.textures,
		Diagnostics:   &c.diag,
		MaxPrimitives: maxPrimitives,
	}
}

// Register initializes r and makes it available to commands whose
// Renderer method returns name.
func (c *Context) Register(name string, r Renderer) error {
	if c.closed {
		return ErrClosed
	}
	return c.register(name, r, 0)
}

func (c *Context) register(name string, r Renderer, maxPrimitives int) error {
	if r == nil {
		return fmt.Errorf("gx: register %q: nil renderer", name)
	}
	if _, ok := c.renderers[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateRenderer, name)
	}
	if err := r.Initialize(c.rendererInfo(maxPrimitives)); err != nil {
		return fmt.Errorf("gx: initialize %s renderer: %w", name, err)
	}
	c.renderers[name] = r
	return nil
}

// Unregister flushes pending draws, then removes and releases the renderer
// registered under name.
func (c *Context) Unregister(name string) error {
	r, ok := c.renderers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnregisteredRenderer, name)
	}
	err := c.Flush()
	delete(c.renderers, name)
	r.Release()
	return err
}

// Renderer returns the renderer registered under name.
func (c *Context) Renderer(name string) (Renderer, bool) {
	r, ok := c.renderers[name]
	return r, ok
}

// Draw queues cmd for its renderer with the current transform and state.
// Degenerate commands are dropped. Nothing reaches the renderer until
// Flush.
func (c *Context) Draw(cmd Command) error {
	if c.closed {
		return ErrClosed
	}
	if cmd == nil {
		return errors.New("gx: nil command")
	}
	name := cmd.Renderer()
	r, ok := c.renderers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnregisteredRenderer, name)
	}

	// Checked on a local call so skipped draws take no pool cell.
	var d drawCall
	d.set(cmd)
	d.transform = c.transform.Current()
	if reason := d.degenerate(); reason != "" {
		Logger().Debug("draw skipped", "renderer", name, "reason", reason)
		return nil
	}
	d.renderer = r
	d.name = r.Name()
	d.priority = r.Priority()
	d.state = *c.state.Current()
	cell := c.calls.Get()
	*cell = d
	c.queue = append(c.queue, cell)
	return nil
}

// enqueue is Draw for the convenience methods. The first failure is kept
// and returned by the next Flush.
func (c *Context) enqueue(cmd Command) {
	if err := c.Draw(cmd); err != nil {
		Logger().Warn("draw failed", "renderer", cmd.Renderer(), "err", err)
		if c.err == nil {
			c.err = err
		}
	}
}

// DrawImage draws img at (x, y) at its natural size.
func (c *Context) DrawImage(img ImageSource, x, y float64) {
	c.enqueue(&ImageCommand{Image: img, Dst: Rect{X: x, Y: y}})
}

// DrawImageSize draws img into the rectangle (x, y, w, h).
func (c *Context) DrawImageSize(img ImageSource, x, y, w, h float64) {
	c.enqueue(&ImageCommand{Image: img, Dst: Rect{X: x, Y: y, W: w, H: h}})
}

// DrawImageView draws the (sx, sy, sw, sh) region of img into the
// rectangle (dx, dy, dw, dh).
func (c *Context) DrawImageView(img ImageSource, sx, sy, sw, sh, dx, dy, dw, dh float64) {
	c.enqueue(&ImageCommand{
		Image: img,
		Src:   Rect{X: sx, Y: sy, W: sw, H: sh},
		Dst:   Rect{X: dx, Y: dy, W: dw, H: dh},
	})
}

// DrawRectangle draws a filled w x h rectangle with its top-left corner at
// pos.
func (c *Context) DrawRectangle(pos Point, w, h float64, color RGBA) {
	c.enqueue(&RectangleCommand{Pos: pos, Width: w, Height: h, Color: color})
}

// DrawCircle draws a filled circle of radius r centered on pos.
func (c *Context) DrawCircle(pos Point, r float64, color RGBA) {
	c.enqueue(&CircleCommand{Pos: pos, Radius: r, Color: color})
}

// DrawLine draws a segment. A thickness of zero draws one pixel wide.
func (c *Context) DrawLine(start, end Point, color RGBA, thickness float64) {
	c.enqueue(&LineCommand{Start: start, End: end, Color: color, Thickness: thickness})
}

// DrawText draws s with its first baseline starting at pos. A nil font
// uses text.Regular.
func (c *Context) DrawText(font *text.Font, s string, pos Point, color RGBA, size float64) {
	c.enqueue(&TextCommand{Font: font, Text: s, Pos: pos, Color: color, Size: size})
}

// Save pushes the current transform and state.
func (c *Context) Save() {
	c.transform.Save()
	c.state.Save()
}

// Restore pops the transform and state pushed by the matching Save. With
// nothing saved it returns ErrStackUnderflow and changes nothing.
func (c *Context) Restore() error {
	if err := c.transform.Restore(); err != nil {
		Logger().Warn("restore without save")
		return err
	}
	return c.state.Restore()
}

// Translate moves the origin. With snap-to-pixel the offsets are
// truncated toward zero.
func (c *Context) Translate(x, y float64) {
	if c.opts.snapToPixel {
		x, y = math.Trunc(x), math.Trunc(y)
	}
	c.transform.Translate(x, y)
}

// Rotate rotates by angle radians.
func (c *Context) Rotate(angle float64) { c.transform.Rotate(angle) }

// Scale scales by (x, y).
func (c *Context) Scale(x, y float64) { c.transform.Scale(x, y) }

// ResetTransform sets the current transform to the identity.
func (c *Context) ResetTransform() { c.transform.Reset() }

// SetTransform replaces the current transform.
func (c *Context) SetTransform(m Matrix) { c.transform.SetCurrent(m) }

// Transform returns the current transform.
func (c *Context) Transform() Matrix { return c.transform.Current() }

// SetOpacity sets the opacity applied to subsequent draws.
func (c *Context) SetOpacity(v float64) { c.state.Current().Opacity = v }

// Opacity returns the current opacity.
func (c *Context) Opacity() float64 { return c.state.Current().Opacity }

// SetZ sets the layer of subsequent draws.
func (c *Context) SetZ(z int) { c.state.Current().Z = z }

// Z returns the current layer.
func (c *Context) Z() int { return c.state.Current().Z }

// Clear fills the surface with the background color and resets the
// diagnostics. Queued draws are kept.
func (c *Context) Clear() error {
	if c.closed {
		return ErrClosed
	}
	c.diag.Clear()
	bg := c.opts.background
	c.device.ClearColor(gputypes.Color{R: bg.R, G: bg.G, B: bg.B, A: bg.A})
	return c.device.Clear(gpu.ColorBufferBit)
}

func compareCalls(a, b *drawCall) int {
	return cmp.Or(
		cmp.Compare(a.state.Z, b.state.Z),
		cmp.Compare(a.priority, b.priority),
		cmp.Compare(a.name, b.name),
	)
}

// Flush sorts the queue and submits it. A renderer's batch is flushed
// whenever the next call belongs to a different renderer, and once at the
// end. It returns the first error of the frame; the queue is emptied
// either way.
func (c *Context) Flush() error {
	if c.closed {
		return ErrClosed
	}
	err := c.err
	c.err = nil
	keep := func(e error) {
		if e != nil && err == nil {
			err = e
		}
	}

	if len(c.queue) == 0 {
		c.calls.Done()
		c.transform.Done()
		return err
	}
	c.device.Viewport(0, 0, c.width, c.height)

	slices.SortStableFunc(c.queue, compareCalls)
	var current Renderer
	for _, d := range c.queue {
		if current != nil && d.renderer != current {
			keep(current.Flush())
		}
		current = d.renderer
		current.SetState(d.state)
		current.SetTransform(d.transform)
		keep(current.Draw(d.command()))
	}
	keep(current.Flush())

	for _, d := range c.queue {
		d.reset()
	}
	clear(c.queue)
	c.queue = c.queue[:0]
	c.calls.Done()
	c.transform.Done()
	return err
}

// Pending returns the number of queued draw calls.
func (c *Context) Pending() int { return len(c.queue) }

// UpdateViewport recomputes the projection from the surface size and
// pushes it to every renderer.
func (c *Context) UpdateViewport() {
	c.projection = ScreenProjection(c.width, c.height)
	c.device.Viewport(0, 0, c.width, c.height)
	for _, r := range c.renderers {
		r.SetProjection(c.projection)
	}
	if c.copier != nil {
		c.copier.SetProjection(c.projection)
	}
}

// Resize changes the surface size and updates the viewport.
func (c *Context) Resize(width, height int) error {
	if c.closed {
		return ErrClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if err := c.device.Resize(width, height); err != nil {
		return fmt.Errorf("gx: resize device: %w", err)
	}
	c.width, c.height = width, height
	c.UpdateViewport()
	return nil
}

// Composite flushes pending draws, then draws src over the whole surface.
func (c *Context) Composite(src ImageSource) error {
	if c.closed {
		return ErrClosed
	}
	if src == nil {
		return fmt.Errorf("gx: composite nil source: %w", gpu.ErrInvalidHandle)
	}
	err := c.Flush()
	c.copier.SetTransform(Identity())
	c.copier.SetState(DefaultState)
	if e := c.copier.Draw(&copyCommand{src: src}); e != nil && err == nil {
		err = e
	}
	if e := c.copier.Flush(); e != nil && err == nil {
		err = e
	}
	return err
}

// Snapshot reads back the surface. Call it after Flush.
func (c *Context) Snapshot() (*image.NRGBA, error) {
	if c.closed {
		return nil, ErrClosed
	}
	return c.device.ReadPixels()
}

// Diagnostics returns a copy of the counters collected since the last
// Clear.
func (c *Context) Diagnostics() Diagnostics {
	d := c.diag
	d.DrawRenderer = slices.Clone(c.diag.DrawRenderer)
	return d
}

// Debug returns the debug drawing helpers.
func (c *Context) Debug() *DebugDraw { return &c.debug }

// Textures returns the texture cache.
func (c *Context) Textures() *TextureCache { return c.textures }

// Device returns the device the context draws through.
func (c *Context) Device() gpu.Device { return c.device }

// Backend returns the name of the backend the device came from, or
// "external" for a device passed with WithDevice.
func (c *Context) Backend() string { return c.backend }

// Width returns the surface width in pixels.
func (c *Context) Width() int { return c.width }

// Height returns the surface height in pixels.
func (c *Context) Height() int { return c.height }

// SnapToPixel reports whether translations are truncated.
func (c *Context) SnapToPixel() bool { return c.opts.snapToPixel }

// Smoothing reports whether antialiasing was requested.
func (c *Context) Smoothing() bool { return c.opts.smoothing }

// BackgroundColor returns the color Clear fills with.
func (c *Context) BackgroundColor() RGBA { return c.opts.background }

// SetBackgroundColor changes the color Clear fills with.
func (c *Context) SetBackgroundColor(col RGBA) { c.opts.background = col }

// Close releases the renderers, the textures and, if the context opened
// it, the device. Closing twice is a no-op.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	for _, d := range c.queue {
		d.reset()
	}
	c.queue = nil
	for name, r := range c.renderers {
		r.Release()
		delete(c.renderers, name)
	}
	if c.copier != nil {
		c.copier.Release()
	}
	if c.textures != nil {
		c.textures.Release()
	}
	if c.ownsDevice {
		c.device.Release()
	}
	return nil
}
