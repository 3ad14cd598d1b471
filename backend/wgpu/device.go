// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gx/gpu"
)

// targetFormat is the format of the offscreen color target.
const targetFormat = gputypes.TextureFormatRGBA8Unorm

// sampleCount is the MSAA sample count used when antialiasing is requested.
const sampleCount = 4

// maxDimension bounds the target size in pixels.
const maxDimension = 1 << 14

var (
	// ErrNoAdapter is returned by Open when no HAL backend exposes an adapter.
	ErrNoAdapter = errors.New("wgpu: no adapter available")

	// ErrNotHALProvider is returned by NewFromProvider when the provider
	// does not expose its HAL device and queue.
	ErrNotHALProvider = errors.New("wgpu: provider does not expose HAL device and queue")
)

// Device is a gpu.Device that renders through a HAL device.
type Device struct {
	cfg    gpu.SurfaceConfig
	device hal.Device
	queue  hal.Queue
	limits gputypes.Limits
	log    *slog.Logger

	// Set by Open. A device wrapped by New belongs to its caller.
	instance hal.Instance
	owned    bool

	target target

	next     uint32
	buffers  map[gpu.Buffer]*buffer
	textures map[gpu.Texture]*texture
	programs map[gpu.Program]*program

	boundBuffer gpu.Buffer
	activeUnit  int
	units       [gpu.MaxTextureUnits]gpu.Texture
	current     *program

	// blank is bound on units no texture is bound to.
	blank *texture

	viewport   [4]int
	clearColor gputypes.Color
	blend      blendKey

	retired []retired
}

var _ gpu.Device = (*Device)(nil)

// New wraps an open HAL device and queue. Release frees the objects the
// Device created but leaves the HAL device open.
func New(device hal.Device, queue hal.Queue, limits gputypes.Limits, cfg gpu.SurfaceConfig) (*Device, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("wgpu: nil HAL device or queue")
	}
	d := &Device{
		cfg:      cfg,
		device:   device,
		queue:    queue,
		limits:   limits,
		log:      slogger(),
		buffers:  make(map[gpu.Buffer]*buffer),
		textures: make(map[gpu.Texture]*texture),
		programs: make(map[gpu.Program]*program),
		blend: blendKey{
			src: gputypes.BlendFactorOne,
			dst: gputypes.BlendFactorZero,
		},
	}
	if err := d.Resize(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	blank := newTexture("gx_blank")
	if err := d.upload(blank, 1, 1, make([]byte, 4), gputypes.FilterModeNearest); err != nil {
		d.Release()
		return nil, err
	}
	d.blank = blank
	return d, nil
}

// NewFromProvider wraps the HAL device of a host application. The provider
// must implement HalDevice() any and HalQueue() any.
func NewFromProvider(provider any, cfg gpu.SurfaceConfig) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNotHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNotHALProvider, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNotHALProvider, hp.HalQueue())
	}
	return New(device, queue, gputypes.DefaultLimits(), cfg)
}

// SetLogger replaces the device logger. Called from gx.SetLogger.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	d.log = l
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

// Viewport sets the drawable region in target pixels, origin top-left.
func (d *Device) Viewport(x, y, width, height int) {
	d.viewport = [4]int{x, y, width, height}
}

// ClearColor sets the color Clear fills with.
func (d *Device) ClearColor(c gputypes.Color) { d.clearColor = c }

// Clear fills the color target with the clear color in a pass of its own.
func (d *Device) Clear(mask gpu.ClearMask) error {
	if mask&gpu.ColorBufferBit == 0 {
		return nil
	}
	return d.submitPass("clear", gputypes.LoadOpClear, nil)
}

// EnableBlend toggles blending.
func (d *Device) EnableBlend(enabled bool) { d.blend.enabled = enabled }

// BlendFunc sets the color blend factors. Alpha always blends as
// One, OneMinusSrcAlpha.
func (d *Device) BlendFunc(src, dst gputypes.BlendFactor) {
	d.blend.src, d.blend.dst = src, dst
}

// MaxTextureImageUnits reports the sampled texture limit of the device,
// capped at gpu.MaxTextureUnits.
func (d *Device) MaxTextureImageUnits() int {
	n := min(d.limits.MaxSampledTexturesPerShaderStage, d.limits.MaxSamplersPerShaderStage)
	return max(1, min(int(n), gpu.MaxTextureUnits))
}

// Size reports the target size in pixels.
func (d *Device) Size() (int, int) { return d.target.width, d.target.height }

// Resize reallocates the color target and resets the viewport to cover it.
func (d *Device) Resize(width, height int) error {
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return fmt.Errorf("wgpu: invalid surface size %dx%d", width, height)
	}
	samples := uint32(1)
	if d.cfg.Antialias {
		samples = sampleCount
	}
	if err := d.waitIdle(); err != nil {
		return err
	}
	d.target.destroy(d.device)
	if err := d.target.create(d.device, uint32(width), uint32(height), samples); err != nil {
		return err
	}
	d.viewport = [4]int{0, 0, width, height}
	return nil
}

// Release frees every object the device created. A device opened with Open
// also closes the HAL device and instance.
func (d *Device) Release() {
	if d.device == nil {
		return
	}
	if err := d.device.WaitIdle(); err != nil {
		d.log.Warn("wgpu: wait idle on release", "err", err)
	}
	d.collect(true)
	for h, p := range d.programs {
		p.destroy(d.device)
		delete(d.programs, h)
	}
	for h, t := range d.textures {
		t.destroy(d.device)
		delete(d.textures, h)
	}
	if d.blank != nil {
		d.blank.destroy(d.device)
		d.blank = nil
	}
	clear(d.buffers)
	d.target.destroy(d.device)
	d.units = [gpu.MaxTextureUnits]gpu.Texture{}
	d.current = nil
	d.boundBuffer = 0

	if d.owned {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
		d.log.Info("wgpu device closed")
	}
	d.device, d.queue, d.instance = nil, nil, nil
}

// waitIdle blocks until the queue drains and frees retired objects.
func (d *Device) waitIdle() error {
	if len(d.retired) == 0 {
		return nil
	}
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("wgpu: wait idle: %w", err)
	}
	d.collect(true)
	return nil
}

// target is the offscreen color attachment. With multisampling, msaa is
// rendered to and resolved into color after every pass.
type target struct {
	width, height int

	color     hal.Texture
	colorView hal.TextureView
	msaa      hal.Texture
	msaaView  hal.TextureView
	samples   uint32
}

func (t *target) create(device hal.Device, w, h, samples uint32) error {
	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}
	color, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "gx_target",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create target: %w", err)
	}
	t.color = color
	if t.colorView, err = device.CreateTextureView(color, viewDescriptor("gx_target_view")); err != nil {
		t.destroy(device)
		return fmt.Errorf("wgpu: create target view: %w", err)
	}

	if samples > 1 {
		msaa, err := device.CreateTexture(&hal.TextureDescriptor{
			Label:         "gx_target_msaa",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   samples,
			Dimension:     gputypes.TextureDimension2D,
			Format:        targetFormat,
			Usage:         gputypes.TextureUsageRenderAttachment,
		})
		if err != nil {
			t.destroy(device)
			return fmt.Errorf("wgpu: create MSAA target: %w", err)
		}
		t.msaa = msaa
		if t.msaaView, err = device.CreateTextureView(msaa, viewDescriptor("gx_target_msaa_view")); err != nil {
			t.destroy(device)
			return fmt.Errorf("wgpu: create MSAA view: %w", err)
		}
	}
	t.width, t.height, t.samples = int(w), int(h), samples
	return nil
}

func (t *target) destroy(device hal.Device) {
	if t.msaaView != nil {
		device.DestroyTextureView(t.msaaView)
		t.msaaView = nil
	}
	if t.msaa != nil {
		device.DestroyTexture(t.msaa)
		t.msaa = nil
	}
	if t.colorView != nil {
		device.DestroyTextureView(t.colorView)
		t.colorView = nil
	}
	if t.color != nil {
		device.DestroyTexture(t.color)
		t.color = nil
	}
	t.width, t.height = 0, 0
}

// attachment returns the color attachment of a pass with the given load op.
func (t *target) attachment(load gputypes.LoadOp, clearValue gputypes.Color) hal.RenderPassColorAttachment {
	a := hal.RenderPassColorAttachment{
		View:       t.colorView,
		LoadOp:     load,
		StoreOp:    gputypes.StoreOpStore,
		ClearValue: clearValue,
	}
	if t.msaaView != nil {
		a.View = t.msaaView
		a.ResolveTarget = t.colorView
	}
	return a
}

func viewDescriptor(label string) *hal.TextureViewDescriptor {
	return &hal.TextureViewDescriptor{
		Label:         label,
		Format:        targetFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	}
}
