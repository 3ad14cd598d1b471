package gx

import (
	"fmt"

	"github.com/gogpu/gx/gpu"
)

// VerticesPerQuad is the number of vertices written per primitive: two
// triangles, top-left, bottom-left, top-right, then top-right, bottom-left,
// bottom-right.
const VerticesPerQuad = 6

// quadCorners maps the six quad vertices to corners indexed TL=0, BL=1,
// TR=2, BR=3.
var quadCorners = [VerticesPerQuad]int{0, 1, 2, 2, 1, 3}

// cornerUV is the unit texture coordinate of each corner.
var cornerUV = [4][2]float32{{0, 0}, {0, 1}, {1, 0}, {1, 1}}

// Batch owns a program, a vertex buffer and the primitive accounting of one
// batch renderer. Renderers embed it and call Reserve per primitive and
// Submit on flush.
type Batch struct {
	device  gpu.Device
	program gpu.Program
	buffer  gpu.Buffer
	stride  int

	vertices []float32
	index    int
	count    int
	max      int
}

// Init compiles the program and allocates a buffer for capacity primitives of
// six vertices each.
func (b *Batch) Init(dev gpu.Device, desc gpu.ProgramDescriptor, capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("gx: %s batch capacity %d", desc.Label, capacity)
	}
	prog, err := dev.CreateProgram(desc)
	if err != nil {
		return fmt.Errorf("gx: compile %s program: %w", desc.Label, err)
	}
	buf, err := dev.CreateBuffer()
	if err != nil {
		dev.DeleteProgram(prog)
		return fmt.Errorf("gx: create %s vertex buffer: %w", desc.Label, err)
	}

	b.device = dev
	b.program = prog
	b.buffer = buf
	b.stride = desc.Stride()
	b.max = capacity
	b.vertices = make([]float32, b.stride*VerticesPerQuad*capacity)
	b.index, b.count = 0, 0

	dev.BindBuffer(buf)
	if err := dev.BufferData(b.vertices, gpu.UsageDynamic); err != nil {
		b.Release()
		return fmt.Errorf("gx: allocate %s vertex buffer: %w", desc.Label, err)
	}
	return nil
}

// Full reports whether the batch holds its maximum number of primitives.
func (b *Batch) Full() bool { return b.count >= b.max }

// Count returns the number of pending primitives.
func (b *Batch) Count() int { return b.count }

// Max returns the batch capacity.
func (b *Batch) Max() int { return b.max }

// Stride returns the number of floats per vertex.
func (b *Batch) Stride() int { return b.stride }

// Program returns the batch's program.
func (b *Batch) Program() gpu.Program { return b.program }

// Reserve claims space for one more primitive and returns its six vertices
// of Stride floats each. The batch must not be full.
func (b *Batch) Reserve() []float32 {
	n := b.stride * VerticesPerQuad
	v := b.vertices[b.index : b.index+n : b.index+n]
	b.index += n
	b.count++
	return v
}

// Vertices returns the written portion of the vertex buffer.
func (b *Batch) Vertices() []float32 { return b.vertices[:b.index] }

// SetProjection writes the projection uniform.
func (b *Batch) SetProjection(m Mat4) {
	b.device.UseProgram(b.program)
	b.device.UniformMatrix4(gpu.MatrixUniform, m)
}

// Use makes the batch's program current and binds its buffer.
func (b *Batch) Use() {
	b.device.UseProgram(b.program)
	b.device.BindBuffer(b.buffer)
}

// Submit uploads the written vertices and draws them in one call. Textures
// must be bound before. An empty batch submits nothing. The batch is reset
// even when the device fails.
func (b *Batch) Submit(diag *Diagnostics, name string) error {
	if b.count == 0 {
		return nil
	}
	count, index := b.count, b.index
	b.count, b.index = 0, 0

	b.Use()
	if err := b.device.BufferSubData(0, b.vertices[:index]); err != nil {
		return fmt.Errorf("gx: upload %s vertices: %w", name, err)
	}
	if err := b.device.DrawArrays(gpu.TopologyTriangles, 0, count*VerticesPerQuad); err != nil {
		return fmt.Errorf("gx: draw %s batch: %w", name, err)
	}
	diag.record(name, count)
	Logger().Debug("batch flushed", "renderer", name, "primitives", count, "vertices", count*VerticesPerQuad)
	return nil
}

// Reset drops pending primitives without drawing them.
func (b *Batch) Reset() { b.count, b.index = 0, 0 }

// Release frees the program and buffer.
func (b *Batch) Release() {
	if b.device == nil {
		return
	}
	b.device.DeleteBuffer(b.buffer)
	b.device.DeleteProgram(b.program)
	b.buffer, b.program = 0, 0
	b.vertices = nil
	b.index, b.count = 0, 0
}

// quad holds the four transformed corners of a primitive, TL, BL, TR, BR.
type quad [4]Point

// rectQuad transforms the rectangle (x, y, w, h) by m.
func rectQuad(m Matrix, x, y, w, h float64) quad {
	return quad{
		m.TransformPoint(Pt(x, y)),
		m.TransformPoint(Pt(x, y+h)),
		m.TransformPoint(Pt(x+w, y)),
		m.TransformPoint(Pt(x+w, y+h)),
	}
}

// put writes the six vertices of q into v. attrs fills the attributes of
// one vertex after its position, given the corner index and the slice
// starting at the first attribute.
func (q *quad) put(v []float32, stride, posSize int, attrs func(corner int, out []float32)) {
	for i, c := range quadCorners {
		out := v[i*stride : (i+1)*stride]
		out[0] = float32(q[c].X)
		out[1] = float32(q[c].Y)
		for k := 2; k < posSize; k++ {
			out[k] = 0
		}
		attrs(c, out[posSize:])
	}
}
