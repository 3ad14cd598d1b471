package gx

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gx/gpu"
)

// baseRenderer carries what every built-in renderer shares: one batch, the
// per-call draw state and the diagnostics sink.
type baseRenderer struct {
	Batch
	drawState

	name string
	diag *Diagnostics
}

func (r *baseRenderer) Name() string { return r.name }

func (r *baseRenderer) Priority() int { return 0 }

func (r *baseRenderer) Flush() error { return r.Submit(r.diag, r.name) }

func (r *baseRenderer) init(info *RendererInfo, desc gpu.ProgramDescriptor, capacity int) error {
	if info.MaxPrimitives > 0 {
		capacity = info.MaxPrimitives
	}
	r.diag = info.Diagnostics
	r.transform = Identity()
	r.state = DefaultState
	if err := r.Batch.Init(info.Device, desc, capacity); err != nil {
		return err
	}
	r.SetProjection(info.Projection)
	return nil
}

func mismatch(renderer string, cmd Command) error {
	return fmt.Errorf("%w: %s renderer got %T", ErrCommandMismatch, renderer, cmd)
}

func matrixUniforms() []gpu.Uniform {
	return []gpu.Uniform{{Name: gpu.MatrixUniform, Kind: gpu.UniformMat4}}
}

// Rectangle vertex layout, 16 floats:
//
//	position         3 (z = 0)
//	uv               2
//	radius           1  border radius / width
//	opacity          1
//	color            4
//	strokeColor      4
//	strokeThickness  1  stroke thickness / width
type rectangleRenderer struct {
	baseRenderer
}

func newRectangleRenderer() *rectangleRenderer {
	return &rectangleRenderer{baseRenderer{name: RendererRectangle}}
}

func (r *rectangleRenderer) Initialize(info *RendererInfo) error {
	return r.init(info, gpu.ProgramDescriptor{
		Label:  RendererRectangle,
		Source: rectangleShaderSource,
		Attributes: []gpu.Attribute{
			{Name: "a_position", Format: gputypes.VertexFormatFloat32x3},
			{Name: "a_uv", Format: gputypes.VertexFormatFloat32x2},
			{Name: "a_radius", Format: gputypes.VertexFormatFloat32},
			{Name: "a_opacity", Format: gputypes.VertexFormatFloat32},
			{Name: "a_color", Format: gputypes.VertexFormatFloat32x4},
			{Name: "a_strokeColor", Format: gputypes.VertexFormatFloat32x4},
			{Name: "a_strokeThickness", Format: gputypes.VertexFormatFloat32},
		},
		Uniforms: matrixUniforms(),
		Fragment: rectangleFragment,
	}, DefaultMaxRectanglesPerBatch)
}

func (r *rectangleRenderer) Draw(cmd Command) error {
	c, ok := cmd.(*RectangleCommand)
	if !ok {
		return mismatch(r.name, cmd)
	}
	if r.Full() {
		if err := r.Flush(); err != nil {
			return err
		}
	}

	q := rectQuad(r.transform, c.Pos.X, c.Pos.Y, c.Width, c.Height)
	radius := float32(c.BorderRadius / c.Width)
	thickness := float32(c.StrokeThickness / c.Width)
	opacity := r.opacity()
	fill, stroke := c.Color.vec(), c.Stroke.vec()
	q.put(r.Reserve(), r.Stride(), 3, func(corner int, out []float32) {
		out[0], out[1] = cornerUV[corner][0], cornerUV[corner][1]
		out[2] = radius
		out[3] = opacity
		copy(out[4:8], fill[:])
		copy(out[8:12], stroke[:])
		out[12] = thickness
	})
	return nil
}

// Circle vertex layout, 14 floats:
//
//	position         2
//	uv               2
//	opacity          1
//	color            4
//	strokeColor      4
//	strokeThickness  1  stroke thickness / diameter
type circleRenderer struct {
	baseRenderer
}

func newCircleRenderer() *circleRenderer {
	return &circleRenderer{baseRenderer{name: RendererCircle}}
}

func (r *circleRenderer) Initialize(info *RendererInfo) error {
	return r.init(info, gpu.ProgramDescriptor{
		Label:  RendererCircle,
		Source: circleShaderSource,
		Attributes: []gpu.Attribute{
			{Name: "a_position", Format: gputypes.VertexFormatFloat32x2},
			{Name: "a_uv", Format: gputypes.VertexFormatFloat32x2},
			{Name: "a_opacity", Format: gputypes.VertexFormatFloat32},
			{Name: "a_color", Format: gputypes.VertexFormatFloat32x4},
			{Name: "a_strokeColor", Format: gputypes.VertexFormatFloat32x4},
			{Name: "a_strokeThickness", Format: gputypes.VertexFormatFloat32},
		},
		Uniforms: matrixUniforms(),
		Fragment: circleFragment,
	}, DefaultMaxCirclesPerBatch)
}

func (r *circleRenderer) Draw(cmd Command) error {
	c, ok := cmd.(*CircleCommand)
	if !ok {
		return mismatch(r.name, cmd)
	}
	if r.Full() {
		if err := r.Flush(); err != nil {
			return err
		}
	}

	d := 2 * c.Radius
	q := rectQuad(r.transform, c.Pos.X-c.Radius, c.Pos.Y-c.Radius, d, d)
	thickness := float32(c.StrokeThickness / d)
	opacity := r.opacity()
	fill, stroke := c.Color.vec(), c.Stroke.vec()
	q.put(r.Reserve(), r.Stride(), 2, func(corner int, out []float32) {
		out[0], out[1] = cornerUV[corner][0], cornerUV[corner][1]
		out[2] = opacity
		copy(out[3:7], fill[:])
		copy(out[7:11], stroke[:])
		out[11] = thickness
	})
	return nil
}
