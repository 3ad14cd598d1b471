// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gxcanvas

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/gx"
	"github.com/gogpu/gx/backend"
	"github.com/gogpu/gx/backend/wgpu"
	"github.com/gogpu/gx/gpu"
)

// Canvas errors.
var (
	// ErrCanvasClosed is returned by operations on a closed Canvas.
	ErrCanvasClosed = errors.New("gxcanvas: canvas is closed")

	// ErrInvalidDimensions is returned for non-positive sizes.
	ErrInvalidDimensions = errors.New("gxcanvas: invalid dimensions")

	// ErrNilProvider is returned when New is called without a provider.
	ErrNilProvider = errors.New("gxcanvas: nil device provider")
)

// textureDestroyer is implemented by window textures that hold GPU memory.
type textureDestroyer interface {
	Destroy()
}

// Canvas owns a gx.Context sized to a window region and the window texture
// its frames are uploaded to.
type Canvas struct {
	ctx         *gx.Context
	provider    gpucontext.DeviceProvider
	device      gpu.Device // opened on the provider's device, nil for software
	texture     any
	oldTexture  any
	dirty       bool
	sizeChanged bool
	width       int
	height      int
	closed      bool
}

// New creates a Canvas drawing on the device of provider. Extra options are
// passed to gx.NewContext.
func New(provider gpucontext.DeviceProvider, width, height int, opts ...gx.ContextOption) (*Canvas, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}

	dev := openDevice(provider, width, height)
	if dev != nil {
		opts = append(opts, gx.WithDevice(dev))
	} else {
		opts = append(opts, gx.WithBackend(backend.Software))
	}
	ctx, err := gx.NewContext(width, height, opts...)
	if err != nil {
		if dev != nil {
			dev.Release()
		}
		return nil, fmt.Errorf("gxcanvas: %w", err)
	}
	return &Canvas{
		ctx:      ctx,
		provider: provider,
		device:   dev,
		width:    width,
		height:   height,
		dirty:    true,
	}, nil
}

// openDevice wraps the provider's HAL device. It returns nil when the
// provider cannot share one or reports a software adapter.
func openDevice(provider gpucontext.DeviceProvider, width, height int) gpu.Device {
	info := provider.AdapterInfo()
	if info.Type == gpucontext.AdapterTypeSoftware {
		gx.Logger().Debug("gxcanvas: software adapter, using software backend", "adapter", info.Name)
		return nil
	}
	dev, err := wgpu.NewFromProvider(provider, gpu.SurfaceConfig{Width: width, Height: height, Alpha: true})
	if err != nil {
		gx.Logger().Debug("gxcanvas: provider device unavailable, using software backend", "err", err)
		return nil
	}
	gx.Logger().Info("gxcanvas: sharing provider device", "adapter", info.Name, "type", info.Type)
	return dev
}

// MustNew is like New but panics on error.
func MustNew(provider gpucontext.DeviceProvider, width, height int, opts ...gx.ContextOption) *Canvas {
	c, err := New(provider, width, height, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Context returns the drawing context, or nil after Close.
func (c *Canvas) Context() *gx.Context {
	if c.closed {
		return nil
	}
	return c.ctx
}

// Backend names the backend the context draws through.
func (c *Canvas) Backend() string {
	if c.device != nil {
		return backend.WGPU
	}
	return backend.Software
}

func (c *Canvas) Width() int { return c.width }

func (c *Canvas) Height() int { return c.height }

func (c *Canvas) Size() (width, height int) { return c.width, c.height }

// MarkDirty flags the canvas for upload on the next Flush.
func (c *Canvas) MarkDirty() { c.dirty = true }

// IsDirty reports whether a frame awaits upload.
func (c *Canvas) IsDirty() bool { return c.dirty }

// Draw calls fn with the context and marks the canvas dirty. The frame is
// flushed by the next Flush or RenderTo.
func (c *Canvas) Draw(fn func(*gx.Context)) error {
	if c.closed {
		return ErrCanvasClosed
	}
	fn(c.ctx)
	c.dirty = true
	return nil
}

// Resize changes the canvas size. The next Flush replaces the window
// texture.
func (c *Canvas) Resize(width, height int) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	if c.width == width && c.height == height {
		return nil
	}
	if err := c.ctx.Resize(width, height); err != nil {
		return fmt.Errorf("gxcanvas: resize context: %w", err)
	}
	c.width, c.height = width, height
	c.sizeChanged = true
	c.dirty = true
	return nil
}

// Flush dispatches queued draws, reads the frame back and uploads it. It
// returns the window texture, or a pending texture when none was created
// yet. A clean canvas returns its texture unchanged.
func (c *Canvas) Flush() (any, error) {
	if c.closed {
		return nil, ErrCanvasClosed
	}
	if c.sizeChanged {
		// The old texture may still be sampled by frames in flight.
		if c.texture != nil {
			c.destroyOld()
			c.oldTexture = c.texture
			c.texture = nil
		}
		c.sizeChanged = false
	}
	if !c.dirty && c.texture != nil {
		return c.texture, nil
	}

	data, err := c.pixels()
	if err != nil {
		return nil, err
	}
	if c.texture == nil {
		c.texture = &pendingTexture{width: c.width, height: c.height, data: data}
		c.dirty = false
		return c.texture, nil
	}
	switch t := c.texture.(type) {
	case *pendingTexture:
		t.width, t.height, t.data = c.width, c.height, data
	case gpucontext.TextureUpdater:
		if err := t.UpdateData(data); err != nil {
			return nil, fmt.Errorf("gxcanvas: texture update failed: %w", err)
		}
	}
	c.dirty = false
	return c.texture, nil
}

// pixels flushes the context and returns the frame as tightly packed RGBA
// rows.
func (c *Canvas) pixels() ([]byte, error) {
	if err := c.ctx.Flush(); err != nil {
		return nil, fmt.Errorf("gxcanvas: flush: %w", err)
	}
	img, err := c.ctx.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("gxcanvas: snapshot: %w", err)
	}
	row := img.Rect.Dx() * 4
	if img.Stride == row {
		return img.Pix, nil
	}
	out := make([]byte, row*img.Rect.Dy())
	for y := range img.Rect.Dy() {
		copy(out[y*row:(y+1)*row], img.Pix[y*img.Stride:])
	}
	return out, nil
}

// Texture returns the current texture without flushing.
func (c *Canvas) Texture() any { return c.texture }

// Provider returns the provider, or nil after Close.
func (c *Canvas) Provider() gpucontext.DeviceProvider {
	if c.closed {
		return nil
	}
	return c.provider
}

// Close releases the textures, the context and the shared device wrapper.
// Close is idempotent.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.destroyOld()
	if d, ok := c.texture.(textureDestroyer); ok {
		d.Destroy()
	}
	c.texture = nil

	var err error
	if c.ctx != nil {
		err = c.ctx.Close()
		c.ctx = nil
	}
	if c.device != nil {
		c.device.Release()
		c.device = nil
	}
	c.provider = nil
	return err
}

func (c *Canvas) destroyOld() {
	if d, ok := c.oldTexture.(textureDestroyer); ok {
		d.Destroy()
	}
	c.oldTexture = nil
}

// pendingTexture holds a frame until RenderTo has a TextureCreator to
// create the window texture with.
type pendingTexture struct {
	width  int
	height int
	data   []byte
}
