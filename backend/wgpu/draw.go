// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gx/gpu"
)

// blendKey selects a pipeline variant of a program.
type blendKey struct {
	enabled  bool
	src, dst gputypes.BlendFactor
}

func (k blendKey) state() *gputypes.BlendState {
	if !k.enabled {
		return nil
	}
	return &gputypes.BlendState{
		Color: gputypes.BlendComponent{SrcFactor: k.src, DstFactor: k.dst, Operation: gputypes.BlendOperationAdd},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
	}
}

// pipeline returns the pipeline of p for the current blend state.
func (d *Device) pipeline(p *program) (hal.RenderPipeline, error) {
	if pl, ok := p.pipelines[d.blend]; ok {
		return pl, nil
	}
	pl, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.desc.Label + "_pipeline",
		Layout: p.pipeLay,
		Vertex: hal.VertexState{
			Module:     p.module,
			EntryPoint: "vs_main",
			Buffers:    []gputypes.VertexBufferLayout{vertexLayout(&p.desc)},
		},
		Fragment: &hal.FragmentState{
			Module:     p.module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    targetFormat,
				Blend:     d.blend.state(),
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: d.target.samples,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("program %q: create pipeline: %w", p.desc.Label, err)
	}
	p.pipelines[d.blend] = pl
	d.log.Debug("pipeline created", "label", p.desc.Label, "blend", d.blend.enabled)
	return pl, nil
}

// vertexLayout maps the attributes of desc to consecutive shader locations.
func vertexLayout(desc *gpu.ProgramDescriptor) gputypes.VertexBufferLayout {
	attrs := make([]gputypes.VertexAttribute, len(desc.Attributes))
	var off uint64
	for i, a := range desc.Attributes {
		attrs[i] = gputypes.VertexAttribute{Format: a.Format, Offset: off, ShaderLocation: uint32(i)}
		off += a.Format.Size()
	}
	return gputypes.VertexBufferLayout{
		ArrayStride: off,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

// drawResources are the per-draw objects of one pass.
type drawResources struct {
	pipeline  hal.RenderPipeline
	bindGroup hal.BindGroup
	vertices  hal.Buffer
	count     uint32
}

// DrawArrays draws count vertices of the bound buffer as triangles in a
// render pass of its own.
func (d *Device) DrawArrays(mode gpu.Topology, first, count int) error {
	if mode != gpu.TopologyTriangles {
		return fmt.Errorf("wgpu: unsupported topology %d", mode)
	}
	p := d.current
	if p == nil {
		return gpu.ErrNoProgram
	}
	buf, ok := d.buffers[d.boundBuffer]
	if !ok {
		return gpu.ErrNoBuffer
	}
	if first < 0 || count < 0 || (first+count)*p.stride > len(buf.data) {
		return fmt.Errorf("draw %d vertices at %d from %d floats: %w", count, first, len(buf.data), gpu.ErrOutOfRange)
	}
	if count == 0 {
		return nil
	}
	d.collect(false)

	pl, err := d.pipeline(p)
	if err != nil {
		return err
	}
	vertices, err := d.transientBuffer(p.desc.Label+"_vertices",
		floatBytes(buf.data[first*p.stride:(first+count)*p.stride]), gputypes.BufferUsageVertex)
	if err != nil {
		return err
	}
	d.retire(func() { d.device.DestroyBuffer(vertices) })
	bg, err := d.bindGroup(p)
	if err != nil {
		return err
	}
	return d.submitPass(p.desc.Label, gputypes.LoadOpLoad, &drawResources{
		pipeline:  pl,
		bindGroup: bg,
		vertices:  vertices,
		count:     uint32(count),
	})
}

// bindGroup binds a snapshot of the uniform block and the texture of every
// unit the program samples. Units without a texture read d.blank.
func (d *Device) bindGroup(p *program) (hal.BindGroup, error) {
	var entries []gputypes.BindGroupEntry
	if len(p.uniforms) > 0 {
		ub, err := d.transientBuffer(p.desc.Label+"_uniforms", p.uniforms, gputypes.BufferUsageUniform)
		if err != nil {
			return nil, err
		}
		d.retire(func() { d.device.DestroyBuffer(ub) })
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  0,
			Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Size: uint64(len(p.uniforms))},
		})
	}
	for i := 0; i < p.desc.Textures; i++ {
		t, ok := d.textures[d.units[i]]
		if !ok || t.tex == nil {
			t = d.blank
		}
		entries = append(entries,
			gputypes.BindGroupEntry{Binding: textureBinding(i), Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()}},
			gputypes.BindGroupEntry{Binding: samplerBinding(i), Resource: gputypes.SamplerBinding{Sampler: t.sampler.NativeHandle()}},
		)
	}
	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.desc.Label + "_bind",
		Layout:  p.layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("program %q: create bind group: %w", p.desc.Label, err)
	}
	d.retire(func() { d.device.DestroyBindGroup(bg) })
	return bg, nil
}

// transientBuffer creates a buffer holding data. The caller retires it once
// the pass that reads it is submitted.
func (d *Device) transientBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	size := (uint64(len(data)) + 3) &^ 3
	b, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s: %w", label, err)
	}
	if err := d.queue.WriteBuffer(b, 0, data); err != nil {
		d.device.DestroyBuffer(b)
		return nil, fmt.Errorf("wgpu: write %s: %w", label, err)
	}
	return b, nil
}

// submitPass encodes and submits one render pass over the target. With a
// nil draw the pass only applies its load op.
func (d *Device) submitPass(label string, load gputypes.LoadOp, draw *drawResources) error {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		encoder.Destroy()
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            label + "_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{d.target.attachment(load, d.clearColor)},
	})
	if draw != nil {
		x, y, w, h := d.clippedViewport()
		rp.SetViewport(x, y, w, h, 0, 1)
		rp.SetPipeline(draw.pipeline)
		rp.SetBindGroup(0, draw.bindGroup, nil)
		rp.SetVertexBuffer(0, draw.vertices, 0)
		rp.Draw(draw.count, 1, 0, 0)
	}
	rp.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		encoder.Destroy()
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	index, err := d.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		d.device.FreeCommandBuffer(cmd)
		encoder.Destroy()
		return fmt.Errorf("wgpu: submit %s: %w", label, err)
	}
	d.retired = append(d.retired, retired{index: index, cmd: cmd, encoder: encoder})
	d.stamp(index)
	return nil
}

// clippedViewport clamps the viewport to the target.
func (d *Device) clippedViewport() (x, y, w, h float32) {
	v := d.viewport
	x0 := min(max(v[0], 0), d.target.width)
	y0 := min(max(v[1], 0), d.target.height)
	x1, y1 := min(v[0]+v[2], d.target.width), min(v[1]+v[3], d.target.height)
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return float32(x0), float32(y0), float32(x1 - x0), float32(y1 - y0)
}

// retired holds objects freed once the GPU finishes submission index.
// An index of zero marks objects created for a submission not yet made.
type retired struct {
	index   uint64
	cmd     hal.CommandBuffer
	encoder hal.CommandEncoder
	free    func()
}

// retire schedules free to run after the next submission completes.
func (d *Device) retire(free func()) {
	d.retired = append(d.retired, retired{free: free})
}

// retireTexture schedules the non-nil parts of a texture for destruction.
func (d *Device) retireTexture(tex hal.Texture, view hal.TextureView, sampler hal.Sampler) {
	device := d.device
	d.retire(func() {
		if sampler != nil {
			device.DestroySampler(sampler)
		}
		if view != nil {
			device.DestroyTextureView(view)
		}
		if tex != nil {
			device.DestroyTexture(tex)
		}
	})
}

// stamp assigns index to every retired entry still waiting for a submission.
func (d *Device) stamp(index uint64) {
	for i := range d.retired {
		if d.retired[i].index == 0 {
			d.retired[i].index = index
		}
	}
}

// collect frees retired entries whose submission completed. With all set
// the caller has waited for the device to go idle.
func (d *Device) collect(all bool) {
	done := d.queue.PollCompleted()
	kept := d.retired[:0]
	for _, r := range d.retired {
		if !all && (r.index == 0 || r.index > done) {
			kept = append(kept, r)
			continue
		}
		if r.free != nil {
			r.free()
		}
		if r.cmd != nil {
			d.device.FreeCommandBuffer(r.cmd)
		}
		if r.encoder != nil {
			r.encoder.Destroy()
		}
	}
	clear(d.retired[len(kept):])
	d.retired = kept
}

func floatBytes(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(f))
	}
	return out
}
