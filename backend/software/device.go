// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gx/backend"
	"github.com/gogpu/gx/gpu"
)

// MaxTextureUnits is the number of texture units the device exposes.
const MaxTextureUnits = gpu.MaxTextureUnits

// maxDimension bounds the surface size in pixels.
const maxDimension = 1 << 14

func init() {
	backend.Register(backend.Software, func(cfg gpu.SurfaceConfig) (gpu.Device, error) {
		return New(cfg)
	})
}

type texture struct {
	img    *image.NRGBA
	filter gputypes.FilterMode
}

type program struct {
	desc     gpu.ProgramDescriptor
	stride   int
	posSize  int
	mats     map[string][16]float32
	floats   map[string]float32
	ints     map[string]int32
	intArray map[string][]int32
}

// Device is a CPU implementation of gpu.Device.
type Device struct {
	cfg gpu.SurfaceConfig

	width, height int
	samples       int // samples per axis
	color         []float32

	viewport   image.Rectangle
	clearColor gputypes.Color
	blend      bool
	srcFactor  gputypes.BlendFactor
	dstFactor  gputypes.BlendFactor

	next     uint32
	buffers  map[gpu.Buffer][]float32
	textures map[gpu.Texture]*texture
	programs map[gpu.Program]*program

	boundBuffer gpu.Buffer
	activeUnit  int
	units       [MaxTextureUnits]gpu.Texture
	current     *program

	frag fragment
}

var _ gpu.Device = (*Device)(nil)

// New opens a software device with the given surface configuration.
func New(cfg gpu.SurfaceConfig) (*Device, error) {
	d := &Device{
		cfg:       cfg,
		samples:   1,
		srcFactor: gputypes.BlendFactorOne,
		dstFactor: gputypes.BlendFactorZero,
		buffers:   make(map[gpu.Buffer][]float32),
		textures:  make(map[gpu.Texture]*texture),
		programs:  make(map[gpu.Program]*program),
	}
	if cfg.Antialias {
		d.samples = 2
	}
	if err := d.Resize(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	d.frag.dev = d
	slogger().Info("software device opened",
		"width", cfg.Width, "height", cfg.Height, "antialias", cfg.Antialias, "alpha", cfg.Alpha)
	return d, nil
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

// CreateBuffer allocates an empty vertex buffer.
func (d *Device) CreateBuffer() (gpu.Buffer, error) {
	b := gpu.Buffer(d.handle())
	d.buffers[b] = nil
	return b, nil
}

// BindBuffer binds b as the vertex source.
func (d *Device) BindBuffer(b gpu.Buffer) { d.boundBuffer = b }

// BufferData replaces the bound buffer's storage.
func (d *Device) BufferData(data []float32, _ gpu.BufferUsage) error {
	if _, ok := d.buffers[d.boundBuffer]; !ok {
		return gpu.ErrNoBuffer
	}
	d.buffers[d.boundBuffer] = append([]float32(nil), data...)
	return nil
}

// BufferSubData writes data into the bound buffer at offset.
func (d *Device) BufferSubData(offset int, data []float32) error {
	buf, ok := d.buffers[d.boundBuffer]
	if !ok {
		return gpu.ErrNoBuffer
	}
	if offset < 0 || offset+len(data) > len(buf) {
		return fmt.Errorf("write %d floats at %d into %d: %w", len(data), offset, len(buf), gpu.ErrOutOfRange)
	}
	copy(buf[offset:], data)
	return nil
}

// DeleteBuffer frees b.
func (d *Device) DeleteBuffer(b gpu.Buffer) {
	delete(d.buffers, b)
	if d.boundBuffer == b {
		d.boundBuffer = 0
	}
}

// CreateTexture allocates an empty texture.
func (d *Device) CreateTexture() (gpu.Texture, error) {
	t := gpu.Texture(d.handle())
	d.textures[t] = &texture{filter: gputypes.FilterModeNearest}
	return t, nil
}

// ActiveTexture selects the unit BindTexture binds to.
func (d *Device) ActiveTexture(unit int) {
	if unit >= 0 && unit < MaxTextureUnits {
		d.activeUnit = unit
	}
}

// BindTexture binds t on the active unit.
func (d *Device) BindTexture(t gpu.Texture) { d.units[d.activeUnit] = t }

// TexImage2D uploads img into the texture on the active unit.
func (d *Device) TexImage2D(img *image.NRGBA, filter gputypes.FilterMode) error {
	tex, ok := d.textures[d.units[d.activeUnit]]
	if !ok {
		return gpu.ErrInvalidHandle
	}
	cp := image.NewNRGBA(image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy()))
	for y := 0; y < cp.Rect.Dy(); y++ {
		src := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(cp.Pix[y*cp.Stride:y*cp.Stride+cp.Rect.Dx()*4], img.Pix[src:src+cp.Rect.Dx()*4])
	}
	tex.img = cp
	tex.filter = filter
	slogger().Debug("texture uploaded", "w", cp.Rect.Dx(), "h", cp.Rect.Dy(), "filter", filter)
	return nil
}

// DeleteTexture frees t and unbinds it from every unit.
func (d *Device) DeleteTexture(t gpu.Texture) {
	delete(d.textures, t)
	for i, u := range d.units {
		if u == t {
			d.units[i] = 0
		}
	}
}

// CreateProgram links a program from its descriptor. Only the CPU fragment
// is used; the WGSL source is ignored.
func (d *Device) CreateProgram(desc gpu.ProgramDescriptor) (gpu.Program, error) {
	if len(desc.Attributes) == 0 {
		return 0, fmt.Errorf("program %q: no position attribute", desc.Label)
	}
	if desc.Fragment == nil {
		return 0, fmt.Errorf("program %q: no fragment function", desc.Label)
	}
	pos := desc.Attributes[0].Components()
	if pos < 2 || pos > 4 {
		return 0, fmt.Errorf("program %q: position has %d components", desc.Label, pos)
	}
	p := gpu.Program(d.handle())
	d.programs[p] = &program{
		desc:     desc,
		stride:   desc.Stride(),
		posSize:  pos,
		mats:     make(map[string][16]float32),
		floats:   make(map[string]float32),
		ints:     make(map[string]int32),
		intArray: make(map[string][]int32),
	}
	return p, nil
}

// UseProgram makes p current. Unknown handles clear the current program.
func (d *Device) UseProgram(p gpu.Program) { d.current = d.programs[p] }

// DeleteProgram frees p.
func (d *Device) DeleteProgram(p gpu.Program) {
	if prog, ok := d.programs[p]; ok && prog == d.current {
		d.current = nil
	}
	delete(d.programs, p)
}

// UniformMatrix4 sets a mat4 uniform on the current program.
func (d *Device) UniformMatrix4(name string, m [16]float32) {
	if d.current != nil {
		d.current.mats[name] = m
	}
}

// UniformInt sets an int uniform on the current program.
func (d *Device) UniformInt(name string, v int32) {
	if d.current != nil {
		d.current.ints[name] = v
	}
}

// UniformIntArray sets an int array uniform on the current program.
func (d *Device) UniformIntArray(name string, v []int32) {
	if d.current != nil {
		d.current.intArray[name] = append([]int32(nil), v...)
	}
}

// UniformFloat sets a float uniform on the current program.
func (d *Device) UniformFloat(name string, v float32) {
	if d.current != nil {
		d.current.floats[name] = v
	}
}

// DrawArrays rasterizes count vertices of the bound buffer as triangles.
func (d *Device) DrawArrays(mode gpu.Topology, first, count int) error {
	if mode != gpu.TopologyTriangles {
		return fmt.Errorf("software: unsupported topology %d", mode)
	}
	if d.current == nil {
		return gpu.ErrNoProgram
	}
	buf, ok := d.buffers[d.boundBuffer]
	if !ok {
		return gpu.ErrNoBuffer
	}
	stride := d.current.stride
	if first < 0 || count < 0 || (first+count)*stride > len(buf) {
		return fmt.Errorf("draw %d vertices at %d from %d floats: %w", count, first, len(buf), gpu.ErrOutOfRange)
	}
	mvp, ok := d.current.mats[gpu.MatrixUniform]
	if !ok {
		mvp = identity
	}
	for v := first; v+3 <= first+count; v += 3 {
		d.triangle(d.current, &mvp, buf[v*stride:(v+3)*stride])
	}
	return nil
}

// Viewport sets the drawable region in surface pixels, origin top-left.
func (d *Device) Viewport(x, y, width, height int) {
	d.viewport = image.Rect(x, y, x+width, y+height)
}

// ClearColor sets the color Clear fills with.
func (d *Device) ClearColor(c gputypes.Color) { d.clearColor = c }

// Clear fills the color attachment with the clear color. There is no depth
// attachment.
func (d *Device) Clear(mask gpu.ClearMask) error {
	if mask&gpu.ColorBufferBit == 0 {
		return nil
	}
	c := [4]float32{
		float32(d.clearColor.R), float32(d.clearColor.G),
		float32(d.clearColor.B), float32(d.clearColor.A),
	}
	for i := 0; i < len(d.color); i += 4 {
		copy(d.color[i:i+4], c[:])
	}
	return nil
}

// EnableBlend toggles blending.
func (d *Device) EnableBlend(enabled bool) { d.blend = enabled }

// BlendFunc sets the color blend factors. Alpha always blends as
// One, OneMinusSrcAlpha.
func (d *Device) BlendFunc(src, dst gputypes.BlendFactor) {
	d.srcFactor, d.dstFactor = src, dst
}

// MaxTextureImageUnits reports MaxTextureUnits.
func (d *Device) MaxTextureImageUnits() int { return MaxTextureUnits }

// Size reports the surface size in pixels.
func (d *Device) Size() (int, int) { return d.width, d.height }

// Resize reallocates the surface and resets the viewport to cover it.
func (d *Device) Resize(width, height int) error {
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return fmt.Errorf("software: invalid surface size %dx%d", width, height)
	}
	d.width, d.height = width, height
	d.color = make([]float32, width*height*d.samples*d.samples*4)
	d.viewport = image.Rect(0, 0, width, height)
	return nil
}

// ReadPixels resolves the surface into a new image. When the surface was
// opened without Alpha the result is opaque.
func (d *Device) ReadPixels() (*image.NRGBA, error) {
	out := image.NewNRGBA(image.Rect(0, 0, d.width, d.height))
	s := d.samples
	sw := d.width * s
	inv := 1 / float32(s*s)
	for y := 0; y < d.height; y++ {
		for x := 0; x < d.width; x++ {
			var acc [4]float32
			for sy := 0; sy < s; sy++ {
				for sx := 0; sx < s; sx++ {
					i := ((y*s+sy)*sw + x*s + sx) * 4
					acc[0] += d.color[i]
					acc[1] += d.color[i+1]
					acc[2] += d.color[i+2]
					acc[3] += d.color[i+3]
				}
			}
			o := out.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				out.Pix[o+c] = toByte(acc[c] * inv)
			}
			if !d.cfg.Alpha {
				out.Pix[o+3] = 0xff
			}
		}
	}
	return out, nil
}

// Release frees every object the device owns.
func (d *Device) Release() {
	clear(d.buffers)
	clear(d.textures)
	clear(d.programs)
	d.units = [MaxTextureUnits]gpu.Texture{}
	d.current = nil
	d.boundBuffer = 0
}

func toByte(v float32) uint8 {
	switch {
	case !(v > 0):
		return 0
	case v >= 1:
		return 0xff
	}
	return uint8(v*255 + 0.5)
}
