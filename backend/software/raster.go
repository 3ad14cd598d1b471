// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"image"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gx/gpu"
)

var identity = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

const (
	subpixelBits = 8
	subpixelOne  = 1 << subpixelBits
	subpixelHalf = subpixelOne / 2

	// Screen coordinates beyond this many samples are rejected before
	// fixed-point conversion.
	maxCoord = 1 << 22
)

type vertex struct {
	x, y int64
	data []float32
}

// edge is twice the signed area of (a, b, p) in fixed point.
func edge(ax, ay, bx, by, px, py int64) int64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// topLeft reports whether samples exactly on edge a->b belong to the
// triangle. Every edge is owned by exactly one of its two directions.
func topLeft(a, b *vertex) bool {
	dy := b.y - a.y
	return dy < 0 || (dy == 0 && b.x > a.x)
}

// triangle rasterizes one triangle of interleaved vertex data.
func (d *Device) triangle(p *program, m *[16]float32, data []float32) {
	s := d.samples
	vp := d.viewport.Intersect(image.Rect(0, 0, d.width, d.height))
	if vp.Empty() {
		return
	}
	vx, vy := float32(vp.Min.X*s), float32(vp.Min.Y*s)
	vw, vh := float32(vp.Dx()*s), float32(vp.Dy()*s)

	var vs [3]vertex
	for i := range vs {
		v := data[i*p.stride : (i+1)*p.stride]
		x, y := v[0], v[1]
		var z float32
		if p.posSize > 2 {
			z = v[2]
		}
		cx := m[0]*x + m[4]*y + m[8]*z + m[12]
		cy := m[1]*x + m[5]*y + m[9]*z + m[13]
		cw := m[3]*x + m[7]*y + m[11]*z + m[15]
		if !(cw > 0) {
			return
		}
		sx := vx + (cx/cw+1)*0.5*vw
		sy := vy + (1-cy/cw)*0.5*vh
		if !(math32.Abs(sx) < maxCoord && math32.Abs(sy) < maxCoord) {
			slogger().Debug("triangle rejected", "x", sx, "y", sy)
			return
		}
		vs[i] = vertex{
			x:    int64(math32.Round(sx * subpixelOne)),
			y:    int64(math32.Round(sy * subpixelOne)),
			data: v[p.posSize:],
		}
	}

	area := edge(vs[0].x, vs[0].y, vs[1].x, vs[1].y, vs[2].x, vs[2].y)
	if area == 0 {
		return
	}
	if area < 0 {
		vs[1], vs[2] = vs[2], vs[1]
		area = -area
	}

	var bias [3]int64
	for i := range vs {
		// Edge i is opposite vertex i.
		if !topLeft(&vs[(i+1)%3], &vs[(i+2)%3]) {
			bias[i] = -1
		}
	}

	minX := min(vs[0].x, vs[1].x, vs[2].x) >> subpixelBits
	maxX := max(vs[0].x, vs[1].x, vs[2].x)>>subpixelBits + 1
	minY := min(vs[0].y, vs[1].y, vs[2].y) >> subpixelBits
	maxY := max(vs[0].y, vs[1].y, vs[2].y)>>subpixelBits + 1
	minX = max(minX, int64(vp.Min.X*s))
	minY = max(minY, int64(vp.Min.Y*s))
	maxX = min(maxX, int64(vp.Max.X*s))
	maxY = min(maxY, int64(vp.Max.Y*s))

	nv := p.stride - p.posSize
	f := &d.frag
	f.prog = p
	if cap(f.vary) < nv {
		f.vary = make([]float32, nv)
	}
	f.vary = f.vary[:nv]

	inv := 1 / float64(area)
	rowStride := int64(d.width * s)
	for py := minY; py < maxY; py++ {
		cy := py<<subpixelBits + subpixelHalf
		for px := minX; px < maxX; px++ {
			cx := px<<subpixelBits + subpixelHalf
			w0 := edge(vs[1].x, vs[1].y, vs[2].x, vs[2].y, cx, cy)
			w1 := edge(vs[2].x, vs[2].y, vs[0].x, vs[0].y, cx, cy)
			w2 := edge(vs[0].x, vs[0].y, vs[1].x, vs[1].y, cx, cy)
			if w0+bias[0] < 0 || w1+bias[1] < 0 || w2+bias[2] < 0 {
				continue
			}
			l0 := float32(float64(w0) * inv)
			l1 := float32(float64(w1) * inv)
			l2 := float32(float64(w2) * inv)
			for k := 0; k < nv; k++ {
				f.vary[k] = l0*vs[0].data[k] + l1*vs[1].data[k] + l2*vs[2].data[k]
			}
			rgba, ok := p.desc.Fragment(f)
			if !ok {
				continue
			}
			d.write(int((py*rowStride+px)*4), rgba)
		}
	}
}

// write blends src into the sample at float offset i.
func (d *Device) write(i int, src [4]float32) {
	for c := range src {
		src[c] = clamp01(src[c])
	}
	dst := d.color[i : i+4 : i+4]
	if !d.blend {
		copy(dst, src[:])
		return
	}
	var out [4]float32
	for c := 0; c < 3; c++ {
		fs := factor(d.srcFactor, src, dst, c)
		fd := factor(d.dstFactor, src, dst, c)
		out[c] = src[c]*fs + dst[c]*fd
	}
	out[3] = src[3] + dst[3]*(1-src[3])
	for c := range out {
		dst[c] = clamp01(out[c])
	}
}

func factor(f gputypes.BlendFactor, src [4]float32, dst []float32, c int) float32 {
	switch f {
	case gputypes.BlendFactorZero:
		return 0
	case gputypes.BlendFactorSrc:
		return src[c]
	case gputypes.BlendFactorOneMinusSrc:
		return 1 - src[c]
	case gputypes.BlendFactorSrcAlpha:
		return src[3]
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return 1 - src[3]
	case gputypes.BlendFactorDst:
		return dst[c]
	case gputypes.BlendFactorOneMinusDst:
		return 1 - dst[c]
	case gputypes.BlendFactorDstAlpha:
		return dst[3]
	case gputypes.BlendFactorOneMinusDstAlpha:
		return 1 - dst[3]
	}
	return 1
}

func clamp01(v float32) float32 {
	switch {
	case !(v > 0):
		return 0
	case v > 1:
		return 1
	}
	return v
}

// fragment is the gpu.Fragment handed to CPU fragment programs.
type fragment struct {
	dev  *Device
	prog *program
	vary []float32
}

func (f *fragment) Varying(i int) float32 {
	if i < 0 || i >= len(f.vary) {
		return 0
	}
	return f.vary[i]
}

func (f *fragment) Sample(unit int, u, v float32) [4]float32 {
	if unit < 0 || unit >= MaxTextureUnits {
		return [4]float32{}
	}
	return f.dev.textures[f.dev.units[unit]].sample(u, v)
}

func (f *fragment) UniformFloat(name string) float32 { return f.prog.floats[name] }

func (f *fragment) UniformInt(name string) int32 { return f.prog.ints[name] }

func (f *fragment) UniformIntArray(name string) []int32 { return f.prog.intArray[name] }

// sample reads the texture with clamp-to-edge addressing.
func (t *texture) sample(u, v float32) [4]float32 {
	if t == nil || t.img == nil || t.img.Rect.Empty() {
		return [4]float32{}
	}
	w, h := float32(t.img.Rect.Dx()), float32(t.img.Rect.Dy())
	if t.filter != gputypes.FilterModeLinear {
		return t.texel(coord(u*w, w), coord(v*h, h))
	}

	fx := clampf(u*w-0.5, 0, w-1)
	fy := clampf(v*h-0.5, 0, h-1)
	x0, y0 := math32.Floor(fx), math32.Floor(fy)
	tx, ty := fx-x0, fy-y0
	x1, y1 := min(x0+1, w-1), min(y0+1, h-1)
	a := t.texel(int(x0), int(y0))
	b := t.texel(int(x1), int(y0))
	c := t.texel(int(x0), int(y1))
	d := t.texel(int(x1), int(y1))
	var out [4]float32
	for i := range out {
		top := a[i] + (b[i]-a[i])*tx
		bot := c[i] + (d[i]-c[i])*tx
		out[i] = top + (bot-top)*ty
	}
	return out
}

func (t *texture) texel(x, y int) [4]float32 {
	o := t.img.PixOffset(x, y)
	p := t.img.Pix[o : o+4 : o+4]
	const k = 1.0 / 255
	return [4]float32{float32(p[0]) * k, float32(p[1]) * k, float32(p[2]) * k, float32(p[3]) * k}
}

// coord maps a texel-space coordinate to a clamped index.
func coord(f, size float32) int {
	return int(clampf(math32.Floor(f), 0, size-1))
}

func clampf(v, lo, hi float32) float32 {
	switch {
	case !(v > lo):
		return lo
	case v > hi:
		return hi
	}
	return v
}

var _ gpu.Fragment = (*fragment)(nil)
