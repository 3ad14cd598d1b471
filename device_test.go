package gx

import (
	"image"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gx/gpu"
)

// drawRecord is one DrawArrays call seen by recordingDevice.
type drawRecord struct {
	program  string
	count    int
	vertices []float32
	textures []gpu.Texture
}

// recordingDevice implements gpu.Device without drawing anything. It keeps
// every submission with a copy of the vertices it drew.
type recordingDevice struct {
	units int
	w, h  int

	next     uint32
	buffers  map[gpu.Buffer][]float32
	programs map[gpu.Program]gpu.ProgramDescriptor
	textures map[gpu.Texture]bool

	bound   gpu.Buffer
	current gpu.Program
	active  int
	unit    [gpu.MaxTextureUnits]gpu.Texture

	draws     []drawRecord
	uploads   int
	clears    int
	viewports int
	released  bool
	intArray  map[string][]int32
}

var _ gpu.Device = (*recordingDevice)(nil)

func newRecordingDevice(units int) *recordingDevice {
	return &recordingDevice{
		units:    units,
		w:        100,
		h:        100,
		buffers:  make(map[gpu.Buffer][]float32),
		programs: make(map[gpu.Program]gpu.ProgramDescriptor),
		textures: make(map[gpu.Texture]bool),
		intArray: make(map[string][]int32),
	}
}

func (d *recordingDevice) handle() uint32 {
	d.next++
	return d.next
}

func (d *recordingDevice) CreateBuffer() (gpu.Buffer, error) {
	b := gpu.Buffer(d.handle())
	d.buffers[b] = nil
	return b, nil
}

func (d *recordingDevice) BindBuffer(b gpu.Buffer) { d.bound = b }

func (d *recordingDevice) BufferData(data []float32, _ gpu.BufferUsage) error {
	d.buffers[d.bound] = append([]float32(nil), data...)
	return nil
}

func (d *recordingDevice) BufferSubData(offset int, data []float32) error {
	buf, ok := d.buffers[d.bound]
	if !ok {
		return gpu.ErrNoBuffer
	}
	if offset+len(data) > len(buf) {
		return gpu.ErrOutOfRange
	}
	copy(buf[offset:], data)
	return nil
}

func (d *recordingDevice) DeleteBuffer(b gpu.Buffer) { delete(d.buffers, b) }

func (d *recordingDevice) CreateTexture() (gpu.Texture, error) {
	t := gpu.Texture(d.handle())
	d.textures[t] = true
	return t, nil
}

func (d *recordingDevice) ActiveTexture(unit int) { d.active = unit }

func (d *recordingDevice) BindTexture(t gpu.Texture) { d.unit[d.active] = t }

func (d *recordingDevice) TexImage2D(*image.NRGBA, gputypes.FilterMode) error {
	d.uploads++
	return nil
}

func (d *recordingDevice) DeleteTexture(t gpu.Texture) { delete(d.textures, t) }

func (d *recordingDevice) CreateProgram(desc gpu.ProgramDescriptor) (gpu.Program, error) {
	p := gpu.Program(d.handle())
	d.programs[p] = desc
	return p, nil
}

func (d *recordingDevice) UseProgram(p gpu.Program) { d.current = p }

func (d *recordingDevice) DeleteProgram(p gpu.Program) { delete(d.programs, p) }

func (d *recordingDevice) UniformMatrix4(string, [16]float32) {}
func (d *recordingDevice) UniformInt(string, int32)           {}
func (d *recordingDevice) UniformFloat(string, float32)       {}

func (d *recordingDevice) UniformIntArray(name string, v []int32) {
	d.intArray[name] = append([]int32(nil), v...)
}

func (d *recordingDevice) DrawArrays(_ gpu.Topology, first, count int) error {
	desc, ok := d.programs[d.current]
	if !ok {
		return gpu.ErrNoProgram
	}
	stride := desc.Stride()
	buf := d.buffers[d.bound]
	rec := drawRecord{
		program:  desc.Label,
		count:    count,
		vertices: append([]float32(nil), buf[first*stride:(first+count)*stride]...),
	}
	for i := 0; i < desc.Textures; i++ {
		rec.textures = append(rec.textures, d.unit[i])
	}
	d.draws = append(d.draws, rec)
	return nil
}

func (d *recordingDevice) Viewport(int, int, int, int) { d.viewports++ }

func (d *recordingDevice) ClearColor(gputypes.Color)                            {}
func (d *recordingDevice) EnableBlend(bool)                                     {}
func (d *recordingDevice) BlendFunc(gputypes.BlendFactor, gputypes.BlendFactor) {}

func (d *recordingDevice) Clear(gpu.ClearMask) error {
	d.clears++
	return nil
}

func (d *recordingDevice) MaxTextureImageUnits() int { return d.units }

func (d *recordingDevice) Size() (int, int) { return d.w, d.h }

func (d *recordingDevice) Resize(w, h int) error {
	d.w, d.h = w, h
	return nil
}

func (d *recordingDevice) ReadPixels() (*image.NRGBA, error) {
	return image.NewNRGBA(image.Rect(0, 0, d.w, d.h)), nil
}

func (d *recordingDevice) Release() { d.released = true }

// drawOrder returns the program label of every draw, in order.
func (d *recordingDevice) drawOrder() []string {
	out := make([]string, len(d.draws))
	for i, r := range d.draws {
		out[i] = r.program
	}
	return out
}

// newTestContext builds a 100x100 context over a recording device.
func newTestContext(t testing.TB, units int, opts ...ContextOption) (*Context, *recordingDevice) {
	t.Helper()
	dev := newRecordingDevice(units)
	ctx, err := NewContext(100, 100, append([]ContextOption{WithDevice(dev)}, opts...)...)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx, dev
}
