package gx

import (
	"errors"
	"image"
	"math"
	"slices"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gx/gpu"
)

// vertex returns the floats of vertex i of a submission.
func vertex(rec drawRecord, stride, i int) []float32 {
	return rec.vertices[i*stride : (i+1)*stride]
}

func solidImage(w, h int) *Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return NewImage(img)
}

const rectStride = 16

func TestFlushEmptyQueue(t *testing.T) {
	ctx, dev := newTestContext(t, 4)
	before := dev.viewports
	if err := ctx.Flush(); err != nil {
		t.Fatalf("Flush() = %v", err)
	}
	if len(dev.draws) != 0 {
		t.Errorf("draws = %d, want 0", len(dev.draws))
	}
	if dev.viewports != before {
		t.Errorf("empty flush set the viewport %d times, want 0", dev.viewports-before)
	}
}

func TestDegenerateFramesReclaimCalls(t *testing.T) {
	tests := []struct {
		name string
		draw func(ctx *Context)
	}{
		{"zero rectangle", func(ctx *Context) { ctx.DrawRectangle(Pt(0, 0), 0, 0, Blue) }},
		{"nan circle", func(ctx *Context) { ctx.DrawCircle(Pt(math.NaN(), 0), 5, Red) }},
		{"nil image", func(ctx *Context) { ctx.DrawImage(nil, 0, 0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, dev := newTestContext(t, 4)
			for range 50 {
				for range 100 {
					tt.draw(ctx)
				}
				if ctx.Pending() != 0 {
					t.Fatalf("Pending() = %d, want 0", ctx.Pending())
				}
				if err := ctx.Flush(); err != nil {
					t.Fatalf("Flush() = %v", err)
				}
				if got := ctx.calls.Index(); got != 0 {
					t.Fatalf("calls index after Flush = %d, want 0", got)
				}
			}
			if got := ctx.calls.TotalAllocations(); got != 0 {
				t.Errorf("calls allocated = %d, want 0", got)
			}
			if len(dev.draws) != 0 {
				t.Errorf("draws = %d, want 0", len(dev.draws))
			}
		})
	}
}

func TestOrderPreservingBatching(t *testing.T) {
	ctx, dev := newTestContext(t, 4)
	ctx.DrawRectangle(Pt(0, 0), 10, 10, Red)
	ctx.DrawRectangle(Pt(50, 60), 10, 10, Blue)
	if err := ctx.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(dev.draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(dev.draws))
	}
	rec := dev.draws[0]
	if rec.count != 2*VerticesPerQuad {
		t.Fatalf("vertices = %d, want %d", rec.count, 2*VerticesPerQuad)
	}
	a := vertex(rec, rectStride, 0)
	b := vertex(rec, rectStride, VerticesPerQuad)
	if a[0] != 0 || a[1] != 0 {
		t.Errorf("first quad TL = (%v, %v), want (0, 0)", a[0], a[1])
	}
	if b[0] != 50 || b[1] != 60 {
		t.Errorf("second quad TL = (%v, %v), want (50, 60)", b[0], b[1])
	}
}

func TestCapacityForcesFlush(t *testing.T) {
	const capacity = 10
	tests := []struct {
		name  string
		draws int
		want  int
	}{
		{"none", 0, 0},
		{"one", 1, 1},
		{"exactly full", 10, 1},
		{"one over", 11, 2},
		{"several", 35, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, dev := newTestContext(t, 4, WithMaxRectanglesPerBatch(capacity))
			for i := 0; i < tt.draws; i++ {
				ctx.DrawRectangle(Pt(float64(i), 0), 1, 1, Red)
			}
			if err := ctx.Flush(); err != nil {
				t.Fatal(err)
			}
			if got := len(dev.draws); got != tt.want {
				t.Errorf("submissions = %d, want ceil(%d/%d) = %d", got, tt.draws, capacity, tt.want)
			}
		})
	}
}

func TestTextureUnitsForceFlush(t *testing.T) {
	a, b, c := solidImage(2, 2), solidImage(2, 2), solidImage(2, 2)
	tests := []struct {
		name   string
		images []*Image
		counts []int
	}{
		{"repeated textures share a batch", []*Image{a, b, a, b, a}, []int{5}},
		{"new texture over the limit flushes once", []*Image{a, b, a, c}, []int{3, 1}},
		{"limit reached by later draws", []*Image{a, b, c, a, b, c}, []int{2, 2, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, dev := newTestContext(t, 2)
			for _, img := range tt.images {
				ctx.DrawImage(img, 0, 0)
			}
			if err := ctx.Flush(); err != nil {
				t.Fatal(err)
			}
			var counts []int
			for _, rec := range dev.draws {
				counts = append(counts, rec.count/VerticesPerQuad)
			}
			if !slices.Equal(counts, tt.counts) {
				t.Errorf("primitives per submission = %v, want %v", counts, tt.counts)
			}
		})
	}
}

func TestImageUnusedUnitsBindFirstTexture(t *testing.T) {
	ctx, dev := newTestContext(t, 4)
	img := solidImage(4, 4)
	ctx.DrawImage(img, 0, 0)
	if err := ctx.Flush(); err != nil {
		t.Fatal(err)
	}
	tex, ok := ctx.Textures().Get(img)
	if !ok {
		t.Fatal("image not in texture cache")
	}
	want := []gpu.Texture{tex, tex, tex, tex}
	if got := dev.draws[0].textures; !slices.Equal(got, want) {
		t.Errorf("bound units = %v, want %v", got, want)
	}
	if got := dev.intArray[texturesUniform]; !slices.Equal(got, []int32{0, 1, 2, 3}) {
		t.Errorf("%s = %v, want [0 1 2 3]", texturesUniform, got)
	}
}

func TestImageTextureCoordinates(t *testing.T) {
	ctx, dev := newTestContext(t, 4)
	ctx.DrawImage(solidImage(3, 5), 10, 20)
	ctx.DrawImageView(solidImage(8, 8), 2, 4, 4, 2, 0, 0, 8, 4)
	if err := ctx.Flush(); err != nil {
		t.Fatal(err)
	}
	const stride = 6
	rec := dev.draws[0]
	tests := []struct {
		name   string
		vertex int
		want   [4]float32
	}{
		{"natural size TL", 0, [4]float32{10, 20, 0, 0}},
		{"natural size BL", 1, [4]float32{10, 25, 0, 0.625}},
		{"natural size TR", 2, [4]float32{13, 20, 0.75, 0}},
		{"natural size BR", 5, [4]float32{13, 25, 0.75, 0.625}},
		{"view TL", 6, [4]float32{0, 0, 0.25, 0.5}},
		{"view BR", 11, [4]float32{8, 4, 0.75, 0.75}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := vertex(rec, stride, tt.vertex)
			got := [4]float32{v[0], v[1], v[2], v[3]}
			if got != tt.want {
				t.Errorf("vertex %d = %v, want %v", tt.vertex, got, tt.want)
			}
		})
	}
	if idx := vertex(rec, stride, 6)[4]; idx != 1 {
		t.Errorf("second image texture index = %v, want 1", idx)
	}
}

func TestRectangleAttributesNormalizedByWidth(t *testing.T) {
	ctx, dev := newTestContext(t, 4)
	ctx.SetOpacity(0.5)
	if err := ctx.Draw(&RectangleCommand{
		Pos: Pt(0, 0), Width: 20, Height: 10, Color: Red,
		BorderRadius: 5, Stroke: Blue, StrokeThickness: 2,
	}); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Flush(); err != nil {
		t.Fatal(err)
	}
	v := vertex(dev.draws[0], rectStride, 0)
	want := []float32{0, 0, 0, 0, 0, 0.25, 0.5, 1, 0, 0, 1, 0, 0, 1, 1, float32(2.0 / 20)}
	if !slices.Equal(v, want) {
		t.Errorf("TL vertex = %v, want %v", v, want)
	}
}

func TestTransformSnapshotIsolation(t *testing.T) {
	ctx, dev := newTestContext(t, 4)
	ctx.DrawRectangle(Pt(0, 0), 10, 10, Red)
	ctx.Translate(20, 30)
	ctx.SetOpacity(0.25)
	ctx.DrawRectangle(Pt(0, 0), 10, 10, Red)
	ctx.Translate(100, 100)
	if err := ctx.Flush(); err != nil {
		t.Fatal(err)
	}

	rec := dev.draws[0]
	a := vertex(rec, rectStride, 0)
	b := vertex(rec, rectStride, VerticesPerQuad)
	if a[0] != 0 || a[1] != 0 || a[6] != 1 {
		t.Errorf("A = (%v, %v) opacity %v, want (0, 0) opacity 1", a[0], a[1], a[6])
	}
	if b[0] != 20 || b[1] != 30 || b[6] != 0.25 {
		t.Errorf("B = (%v, %v) opacity %v, want (20, 30) opacity 0.25", b[0], b[1], b[6])
	}
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		before func(*Context)
		dx, dy float64
	}{
		{"identity", func(*Context) {}, 3, 4},
		{"fractional without snapping", func(c *Context) { c.opts.snapToPixel = false }, 0.1, -7.3},
		{"rotated and scaled", func(c *Context) {
			c.Rotate(0.3)
			c.Scale(1.5, 0.7)
			c.Translate(11, 13)
		}, 1e6, -1e-3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newTestContext(t, 4)
			tt.before(ctx)
			want := ctx.Transform()
			ctx.Save()
			ctx.Translate(tt.dx, tt.dy)
			ctx.SetOpacity(0.1)
			ctx.SetZ(9)
			if err := ctx.Restore(); err != nil {
				t.Fatal(err)
			}
			got := ctx.Transform()
			if math.Float64bits(got.C) != math.Float64bits(want.C) ||
				math.Float64bits(got.F) != math.Float64bits(want.F) || got != want {
				t.Errorf("transform = %+v, want %+v", got, want)
			}
			if ctx.Opacity() != 1 || ctx.Z() != 0 {
				t.Errorf("state = (%v, %v), want (1, 0)", ctx.Opacity(), ctx.Z())
			}
		})
	}
}

func TestRestoreUnderflow(t *testing.T) {
	ctx, _ := newTestContext(t, 4)
	ctx.Translate(5, 5)
	want := ctx.Transform()
	if err := ctx.Restore(); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("Restore() = %v, want ErrStackUnderflow", err)
	}
	if got := ctx.Transform(); got != want {
		t.Errorf("transform changed to %+v", got)
	}
}

func TestSnapToPixel(t *testing.T) {
	tests := []struct {
		name   string
		snap   bool
		wx, wy float64
	}{
		{"snapped", true, 1, -1},
		{"unsnapped", false, 1.7, -1.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newTestContext(t, 4, WithSnapToPixel(tt.snap))
			ctx.Translate(1.7, -1.7)
			m := ctx.Transform()
			if m.C != tt.wx || m.F != tt.wy {
				t.Errorf("translation = (%v, %v), want (%v, %v)", m.C, m.F, tt.wx, tt.wy)
			}
		})
	}
}

// sortRenderer submits one-vertex-wide quads under its own program label.
type sortRenderer struct {
	baseRenderer
	priority int
}

type sortCommand struct{ renderer string }

func (c sortCommand) Renderer() string { return c.renderer }

func (r *sortRenderer) Priority() int { return r.priority }

func (r *sortRenderer) Initialize(info *RendererInfo) error {
	return r.init(info, gpu.ProgramDescriptor{
		Label:      r.name,
		Attributes: []gpu.Attribute{{Name: "a_position", Format: gputypes.VertexFormatFloat32x2}},
		Uniforms:   matrixUniforms(),
	}, 8)
}

func (r *sortRenderer) Draw(cmd Command) error {
	if _, ok := cmd.(sortCommand); !ok {
		return mismatch(r.name, cmd)
	}
	if r.Full() {
		if err := r.Flush(); err != nil {
			return err
		}
	}
	q := rectQuad(r.transform, 0, 0, 1, 1)
	q.put(r.Reserve(), r.Stride(), 2, func(int, []float32) {})
	return nil
}

func TestSortDeterminism(t *testing.T) {
	run := func() []string {
		ctx, dev := newTestContext(t, 4)
		if err := ctx.Register("custom", &sortRenderer{baseRenderer: baseRenderer{name: "custom"}, priority: -1}); err != nil {
			t.Fatal(err)
		}
		ctx.SetZ(1)
		ctx.DrawCircle(Pt(5, 5), 2, Red)
		ctx.SetZ(0)
		ctx.DrawRectangle(Pt(0, 0), 1, 1, Red)
		ctx.DrawLine(Pt(0, 0), Pt(5, 5), Red, 1)
		ctx.SetZ(1)
		ctx.DrawRectangle(Pt(0, 0), 1, 1, Red)
		if err := ctx.Draw(sortCommand{"custom"}); err != nil {
			t.Fatal(err)
		}
		ctx.SetZ(-3)
		ctx.DrawCircle(Pt(5, 5), 2, Red)
		ctx.SetZ(0)
		ctx.DrawLine(Pt(1, 1), Pt(5, 5), Red, 1)
		if err := ctx.Flush(); err != nil {
			t.Fatal(err)
		}
		return dev.drawOrder()
	}

	want := []string{RendererCircle, RendererLine, RendererRectangle, "custom", RendererCircle, RendererRectangle}
	first := run()
	if !slices.Equal(first, want) {
		t.Fatalf("submission order = %v, want %v", first, want)
	}
	for i := 0; i < 5; i++ {
		if got := run(); !slices.Equal(got, first) {
			t.Fatalf("run %d order = %v, want %v", i, got, first)
		}
	}
}

func TestDrawUnregisteredRenderer(t *testing.T) {
	ctx, _ := newTestContext(t, 4)
	err := ctx.Draw(sortCommand{"missing"})
	if !errors.Is(err, ErrUnregisteredRenderer) {
		t.Fatalf("Draw() = %v, want ErrUnregisteredRenderer", err)
	}
	if ctx.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", ctx.Pending())
	}
}

func TestConvenienceDrawErrorReturnedByFlush(t *testing.T) {
	ctx, _ := newTestContext(t, 4)
	if err := ctx.Unregister(RendererCircle); err != nil {
		t.Fatal(err)
	}
	ctx.DrawCircle(Pt(1, 1), 1, Red)
	ctx.DrawRectangle(Pt(0, 0), 1, 1, Red)
	if err := ctx.Flush(); !errors.Is(err, ErrUnregisteredRenderer) {
		t.Fatalf("Flush() = %v, want ErrUnregisteredRenderer", err)
	}
	if err := ctx.Flush(); err != nil {
		t.Errorf("second Flush() = %v, want nil", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	ctx, _ := newTestContext(t, 4)
	err := ctx.Register(RendererLine, newLineRenderer())
	if !errors.Is(err, ErrDuplicateRenderer) {
		t.Fatalf("Register() = %v, want ErrDuplicateRenderer", err)
	}
}

func TestDegenerateDrawsSkipped(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	tests := []struct {
		name string
		cmd  Command
	}{
		{"zero width rectangle", &RectangleCommand{Width: 0, Height: 5}},
		{"negative height rectangle", &RectangleCommand{Width: 5, Height: -1}},
		{"NaN rectangle", &RectangleCommand{Pos: Pt(nan, 0), Width: 5, Height: 5}},
		{"zero radius circle", &CircleCommand{Radius: 0}},
		{"infinite circle", &CircleCommand{Radius: inf}},
		{"zero-length line", &LineCommand{Start: Pt(3, 3), End: Pt(3, 3)}},
		{"zero size point", &PointCommand{Size: 0}},
		{"nil image", &ImageCommand{}},
		{"empty image", &ImageCommand{Image: NewCanvas(0, 0)}},
		{"empty view", &ImageCommand{Image: solidImage(2, 2), Src: Rect{W: -1, H: 1}}},
		{"empty text", &TextCommand{Size: 12}},
		{"zero size text", &TextCommand{Text: "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, dev := newTestContext(t, 4)
			if err := ctx.Draw(tt.cmd); err != nil {
				t.Fatalf("Draw() = %v, want nil", err)
			}
			if ctx.Pending() != 0 {
				t.Errorf("Pending() = %d, want 0", ctx.Pending())
			}
			if err := ctx.Flush(); err != nil {
				t.Fatal(err)
			}
			if len(dev.draws) != 0 {
				t.Errorf("draws = %d, want 0", len(dev.draws))
			}
		})
	}
}

func TestNonFiniteTransformSkipped(t *testing.T) {
	ctx, _ := newTestContext(t, 4)
	ctx.Scale(math.Inf(1), 1)
	ctx.DrawRectangle(Pt(0, 0), 1, 1, Red)
	if ctx.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", ctx.Pending())
	}
}

func TestDiagnostics(t *testing.T) {
	ctx, dev := newTestContext(t, 4)
	ctx.DrawRectangle(Pt(0, 0), 1, 1, Red)
	ctx.DrawRectangle(Pt(0, 0), 1, 1, Red)
	ctx.DrawCircle(Pt(5, 5), 1, Red)
	if err := ctx.Flush(); err != nil {
		t.Fatal(err)
	}
	d := ctx.Diagnostics()
	if d.DrawCallCount != 2 || d.DrawnImagesCount != 3 {
		t.Errorf("counts = (%d, %d), want (2, 3)", d.DrawCallCount, d.DrawnImagesCount)
	}
	if want := []string{RendererCircle, RendererRectangle}; !slices.Equal(d.DrawRenderer, want) {
		t.Errorf("DrawRenderer = %v, want %v", d.DrawRenderer, want)
	}

	if err := ctx.Clear(); err != nil {
		t.Fatal(err)
	}
	if d := ctx.Diagnostics(); d.DrawCallCount != 0 || d.DrawnImagesCount != 0 || len(d.DrawRenderer) != 0 {
		t.Errorf("after Clear diagnostics = %+v", d)
	}
	if dev.clears != 1 {
		t.Errorf("device clears = %d, want 1", dev.clears)
	}
}

func TestLineThicknessDefault(t *testing.T) {
	ctx, dev := newTestContext(t, 4)
	ctx.DrawLine(Pt(0, 0), Pt(10, 0), Red, 0)
	if err := ctx.Flush(); err != nil {
		t.Fatal(err)
	}
	const stride = 7
	rec := dev.draws[0]
	tl, bl := vertex(rec, stride, 0), vertex(rec, stride, 1)
	if got := math.Abs(float64(bl[1] - tl[1])); got != 1 {
		t.Errorf("line thickness = %v, want 1", got)
	}
}

func TestPointIgnoresScale(t *testing.T) {
	ctx, dev := newTestContext(t, 4)
	ctx.Translate(10, 10)
	ctx.Scale(4, 4)
	ctx.Debug().DrawPoint(Pt(1, 1), PointOptions{Color: Red})
	if err := ctx.Flush(); err != nil {
		t.Fatal(err)
	}
	const stride = 9
	rec := dev.draws[0]
	tl, br := vertex(rec, stride, 0), vertex(rec, stride, 5)
	if tl[0] != 11.5 || tl[1] != 11.5 || br[0] != 16.5 || br[1] != 16.5 {
		t.Errorf("point quad = (%v, %v)-(%v, %v), want (11.5, 11.5)-(16.5, 16.5)", tl[0], tl[1], br[0], br[1])
	}
}

func TestDebugTextUsesAtlas(t *testing.T) {
	ctx, dev := newTestContext(t, 4)
	ctx.Debug().DrawText("gx", Pt(2, 20))
	if err := ctx.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(dev.draws) != 1 || dev.draws[0].program != RendererText {
		t.Fatalf("draws = %v, want one text submission", dev.drawOrder())
	}
	if n := dev.draws[0].count / VerticesPerQuad; n != 2 {
		t.Errorf("glyph quads = %d, want 2", n)
	}
	if ctx.Textures().Len() != 1 {
		t.Errorf("textures = %d, want the atlas only", ctx.Textures().Len())
	}
}

func TestComposite(t *testing.T) {
	ctx, dev := newTestContext(t, 4)
	ctx.DrawRectangle(Pt(0, 0), 1, 1, Red)
	if err := ctx.Composite(NewCanvas(100, 100)); err != nil {
		t.Fatal(err)
	}
	if want := []string{RendererRectangle, rendererCopy}; !slices.Equal(dev.drawOrder(), want) {
		t.Errorf("order = %v, want %v", dev.drawOrder(), want)
	}
}

func TestCloseKeepsExternalDevice(t *testing.T) {
	ctx, dev := newTestContext(t, 4)
	if err := ctx.Close(); err != nil {
		t.Fatal(err)
	}
	if dev.released {
		t.Error("external device was released")
	}
	if err := ctx.Flush(); !errors.Is(err, ErrClosed) {
		t.Errorf("Flush() after Close = %v, want ErrClosed", err)
	}
	if err := ctx.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestNewContextInvalidDimensions(t *testing.T) {
	for _, size := range [][2]int{{0, 10}, {10, -1}} {
		if _, err := NewContext(size[0], size[1]); !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("NewContext(%d, %d) = %v, want ErrInvalidDimensions", size[0], size[1], err)
		}
	}
}
