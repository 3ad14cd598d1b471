package gx

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gx/gpu"
)

// Line vertex layout, 7 floats: position 2, color 4, opacity 1.
type lineRenderer struct {
	baseRenderer
}

func newLineRenderer() *lineRenderer {
	return &lineRenderer{baseRenderer{name: RendererLine}}
}

func (r *lineRenderer) Initialize(info *RendererInfo) error {
	return r.init(info, gpu.ProgramDescriptor{
		Label:  RendererLine,
		Source: lineShaderSource,
		Attributes: []gpu.Attribute{
			{Name: "a_position", Format: gputypes.VertexFormatFloat32x2},
			{Name: "a_color", Format: gputypes.VertexFormatFloat32x4},
			{Name: "a_opacity", Format: gputypes.VertexFormatFloat32},
		},
		Uniforms: matrixUniforms(),
		Fragment: lineFragment,
	}, DefaultMaxLinesPerBatch)
}

func (r *lineRenderer) Draw(cmd Command) error {
	c, ok := cmd.(*LineCommand)
	if !ok {
		return mismatch(r.name, cmd)
	}
	if r.Full() {
		if err := r.Flush(); err != nil {
			return err
		}
	}

	thickness := c.Thickness
	if thickness <= 0 {
		thickness = 1
	}
	// Offset both ends along the normal in local space, so the thickness
	// scales with the transform.
	n := c.End.Sub(c.Start).Normalize().Perp().Mul(thickness / 2)
	m := r.transform
	q := quad{
		m.TransformPoint(c.Start.Sub(n)),
		m.TransformPoint(c.Start.Add(n)),
		m.TransformPoint(c.End.Sub(n)),
		m.TransformPoint(c.End.Add(n)),
	}
	opacity := r.opacity()
	color := c.Color.vec()
	q.put(r.Reserve(), r.Stride(), 2, func(_ int, out []float32) {
		copy(out[0:4], color[:])
		out[4] = opacity
	})
	return nil
}

// Point vertex layout, 9 floats: position 2, uv 2, color 4, opacity 1.
// Points keep their size in screen pixels regardless of scale or rotation.
type pointRenderer struct {
	baseRenderer
}

func newPointRenderer() *pointRenderer {
	return &pointRenderer{baseRenderer{name: RendererPoint}}
}

func (r *pointRenderer) Initialize(info *RendererInfo) error {
	return r.init(info, gpu.ProgramDescriptor{
		Label:  RendererPoint,
		Source: pointShaderSource,
		Attributes: []gpu.Attribute{
			{Name: "a_position", Format: gputypes.VertexFormatFloat32x2},
			{Name: "a_uv", Format: gputypes.VertexFormatFloat32x2},
			{Name: "a_color", Format: gputypes.VertexFormatFloat32x4},
			{Name: "a_opacity", Format: gputypes.VertexFormatFloat32},
		},
		Uniforms: matrixUniforms(),
		Fragment: pointFragment,
	}, DefaultMaxPointsPerBatch)
}

func (r *pointRenderer) Draw(cmd Command) error {
	c, ok := cmd.(*PointCommand)
	if !ok {
		return mismatch(r.name, cmd)
	}
	if r.Full() {
		if err := r.Flush(); err != nil {
			return err
		}
	}

	center := r.transform.TransformPoint(c.Pos)
	h := c.Size / 2
	q := rectQuad(Identity(), center.X-h, center.Y-h, c.Size, c.Size)
	opacity := r.opacity()
	color := c.Color.vec()
	q.put(r.Reserve(), r.Stride(), 2, func(corner int, out []float32) {
		out[0], out[1] = cornerUV[corner][0], cornerUV[corner][1]
		copy(out[2:6], color[:])
		out[6] = opacity
	})
	return nil
}
