// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gx/gpu"
)

// buffer is the CPU copy of a vertex buffer. The drawn range is uploaded
// into a transient HAL buffer by DrawArrays.
type buffer struct {
	data []float32
}

// CreateBuffer allocates an empty vertex buffer.
func (d *Device) CreateBuffer() (gpu.Buffer, error) {
	b := gpu.Buffer(d.handle())
	d.buffers[b] = &buffer{}
	return b, nil
}

// BindBuffer binds b as the vertex source.
func (d *Device) BindBuffer(b gpu.Buffer) { d.boundBuffer = b }

// BufferData replaces the bound buffer's storage.
func (d *Device) BufferData(data []float32, _ gpu.BufferUsage) error {
	buf, ok := d.buffers[d.boundBuffer]
	if !ok {
		return gpu.ErrNoBuffer
	}
	buf.data = append(buf.data[:0:0], data...)
	return nil
}

// BufferSubData writes data into the bound buffer at offset.
func (d *Device) BufferSubData(offset int, data []float32) error {
	buf, ok := d.buffers[d.boundBuffer]
	if !ok {
		return gpu.ErrNoBuffer
	}
	if offset < 0 || offset+len(data) > len(buf.data) {
		return fmt.Errorf("write %d floats at %d into %d: %w", len(data), offset, len(buf.data), gpu.ErrOutOfRange)
	}
	copy(buf.data[offset:], data)
	return nil
}

// DeleteBuffer frees b.
func (d *Device) DeleteBuffer(b gpu.Buffer) {
	delete(d.buffers, b)
	if d.boundBuffer == b {
		d.boundBuffer = 0
	}
}

type texture struct {
	label   string
	tex     hal.Texture
	view    hal.TextureView
	sampler hal.Sampler
	filter  gputypes.FilterMode
	w, h    uint32
}

func (t *texture) destroy(device hal.Device) {
	if t.sampler != nil {
		device.DestroySampler(t.sampler)
		t.sampler = nil
	}
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

func newTexture(label string) *texture {
	return &texture{label: label, filter: gputypes.FilterModeNearest}
}

// CreateTexture allocates an empty texture. Storage is created by the
// first TexImage2D.
func (d *Device) CreateTexture() (gpu.Texture, error) {
	h := gpu.Texture(d.handle())
	d.textures[h] = newTexture(fmt.Sprintf("gx_texture_%d", h))
	return h, nil
}

// ActiveTexture selects the unit BindTexture binds to.
func (d *Device) ActiveTexture(unit int) {
	if unit >= 0 && unit < gpu.MaxTextureUnits {
		d.activeUnit = unit
	}
}

// BindTexture binds t on the active unit.
func (d *Device) BindTexture(t gpu.Texture) { d.units[d.activeUnit] = t }

// TexImage2D uploads img into the texture on the active unit.
func (d *Device) TexImage2D(img *image.NRGBA, filter gputypes.FilterMode) error {
	t, ok := d.textures[d.units[d.activeUnit]]
	if !ok {
		return gpu.ErrInvalidHandle
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("wgpu: empty texture image %v", img.Rect)
	}
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		src := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(pix[y*w*4:(y+1)*w*4], img.Pix[src:src+w*4])
	}
	return d.upload(t, uint32(w), uint32(h), pix, filter)
}

// upload writes tightly packed RGBA rows into t, recreating its storage
// when the size changes and its sampler when the filter changes.
func (d *Device) upload(t *texture, w, h uint32, pix []byte, filter gputypes.FilterMode) error {
	if t.tex == nil || t.w != w || t.h != h {
		if t.tex != nil {
			d.retireTexture(t.tex, t.view, nil)
			t.tex, t.view = nil, nil
		}
		tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
			Label:         t.label,
			Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        targetFormat,
			Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create texture %s: %w", t.label, err)
		}
		view, err := d.device.CreateTextureView(tex, viewDescriptor(t.label+"_view"))
		if err != nil {
			d.device.DestroyTexture(tex)
			return fmt.Errorf("wgpu: create texture view %s: %w", t.label, err)
		}
		t.tex, t.view, t.w, t.h = tex, view, w, h
	}
	if t.sampler == nil || t.filter != filter {
		if t.sampler != nil {
			d.retireTexture(nil, nil, t.sampler)
		}
		s, err := d.device.CreateSampler(&hal.SamplerDescriptor{
			Label:        t.label + "_sampler",
			AddressModeU: gputypes.AddressModeClampToEdge,
			AddressModeV: gputypes.AddressModeClampToEdge,
			AddressModeW: gputypes.AddressModeClampToEdge,
			MagFilter:    filter,
			MinFilter:    filter,
			MipmapFilter: gputypes.FilterModeNearest,
			LodMaxClamp:  32,
		})
		if err != nil {
			t.sampler = nil
			return fmt.Errorf("wgpu: create sampler %s: %w", t.label, err)
		}
		t.sampler, t.filter = s, filter
	}
	err := d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, Aspect: gputypes.TextureAspectAll},
		pix,
		&hal.ImageDataLayout{BytesPerRow: w * 4, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("wgpu: write texture %s: %w", t.label, err)
	}
	d.log.Debug("texture uploaded", "label", t.label, "w", w, "h", h, "filter", filter)
	return nil
}

// DeleteTexture frees t and unbinds it from every unit.
func (d *Device) DeleteTexture(h gpu.Texture) {
	t, ok := d.textures[h]
	if !ok {
		return
	}
	delete(d.textures, h)
	d.retireTexture(t.tex, t.view, t.sampler)
	for i, u := range d.units {
		if u == h {
			d.units[i] = 0
		}
	}
}

// program is a compiled WGSL module with its layouts, its uniform block and
// one pipeline per blend state it has been drawn with.
type program struct {
	desc      gpu.ProgramDescriptor
	stride    int
	module    hal.ShaderModule
	layout    hal.BindGroupLayout
	pipeLay   hal.PipelineLayout
	pipelines map[blendKey]hal.RenderPipeline

	offsets  map[string]int
	uniforms []byte
}

func (p *program) destroy(device hal.Device) {
	for k, pl := range p.pipelines {
		device.DestroyRenderPipeline(pl)
		delete(p.pipelines, k)
	}
	if p.pipeLay != nil {
		device.DestroyPipelineLayout(p.pipeLay)
		p.pipeLay = nil
	}
	if p.layout != nil {
		device.DestroyBindGroupLayout(p.layout)
		p.layout = nil
	}
	if p.module != nil {
		device.DestroyShaderModule(p.module)
		p.module = nil
	}
}

// CreateProgram compiles desc.Source and creates its bind group layout.
// Pipelines are created on first draw.
func (d *Device) CreateProgram(desc gpu.ProgramDescriptor) (gpu.Program, error) {
	if desc.Source == "" {
		return 0, fmt.Errorf("program %q: no WGSL source", desc.Label)
	}
	if len(desc.Attributes) == 0 {
		return 0, fmt.Errorf("program %q: no position attribute", desc.Label)
	}
	if desc.Textures > d.MaxTextureImageUnits() {
		return 0, fmt.Errorf("program %q: %d texture units, device has %d", desc.Label, desc.Textures, d.MaxTextureImageUnits())
	}

	p := &program{
		desc:      desc,
		stride:    desc.Stride(),
		pipelines: make(map[blendKey]hal.RenderPipeline),
	}
	var size int
	p.offsets, size = desc.UniformLayout()
	p.uniforms = make([]byte, size)

	var err error
	p.module, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{WGSL: desc.Source},
	})
	if err != nil {
		return 0, fmt.Errorf("program %q: compile: %w", desc.Label, err)
	}

	var entries []gputypes.BindGroupLayoutEntry
	if size > 0 {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		})
	}
	for i := 0; i < desc.Textures; i++ {
		entries = append(entries,
			gputypes.BindGroupLayoutEntry{
				Binding:    textureBinding(i),
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			gputypes.BindGroupLayoutEntry{
				Binding:    samplerBinding(i),
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		)
	}
	p.layout, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label + "_layout",
		Entries: entries,
	})
	if err != nil {
		p.destroy(d.device)
		return 0, fmt.Errorf("program %q: bind group layout: %w", desc.Label, err)
	}
	p.pipeLay, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.layout},
	})
	if err != nil {
		p.destroy(d.device)
		return 0, fmt.Errorf("program %q: pipeline layout: %w", desc.Label, err)
	}

	h := gpu.Program(d.handle())
	d.programs[h] = p
	d.log.Debug("program created", "label", desc.Label, "stride", p.stride, "textures", desc.Textures)
	return h, nil
}

// UseProgram makes p current. Unknown handles clear the current program.
func (d *Device) UseProgram(p gpu.Program) { d.current = d.programs[p] }

// DeleteProgram frees p.
func (d *Device) DeleteProgram(h gpu.Program) {
	p, ok := d.programs[h]
	if !ok {
		return
	}
	if p == d.current {
		d.current = nil
	}
	delete(d.programs, h)
	if err := d.waitIdle(); err != nil {
		d.log.Warn("wgpu: delete program", "label", p.desc.Label, "err", err)
	}
	p.destroy(d.device)
}

// UniformMatrix4 sets a mat4 uniform on the current program.
func (d *Device) UniformMatrix4(name string, m [16]float32) {
	off, ok := d.uniformOffset(name)
	if !ok {
		return
	}
	for i, v := range m {
		binary.LittleEndian.PutUint32(d.current.uniforms[off+4*i:], math.Float32bits(v))
	}
}

// UniformInt sets an int uniform on the current program.
func (d *Device) UniformInt(name string, v int32) {
	if off, ok := d.uniformOffset(name); ok {
		binary.LittleEndian.PutUint32(d.current.uniforms[off:], uint32(v))
	}
}

// UniformIntArray is ignored: WGSL programs bind one texture and sampler
// per unit, so sampler index arrays have no block member.
func (d *Device) UniformIntArray(string, []int32) {}

// UniformFloat sets a float uniform on the current program.
func (d *Device) UniformFloat(name string, v float32) {
	if off, ok := d.uniformOffset(name); ok {
		binary.LittleEndian.PutUint32(d.current.uniforms[off:], math.Float32bits(v))
	}
}

func (d *Device) uniformOffset(name string) (int, bool) {
	if d.current == nil {
		return 0, false
	}
	off, ok := d.current.offsets[name]
	return off, ok
}

func textureBinding(unit int) uint32 { return uint32(1 + 2*unit) }
func samplerBinding(unit int) uint32 { return uint32(2 + 2*unit) }
