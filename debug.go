package gx

import "github.com/gogpu/gx/text"

// Debug drawing defaults.
const (
	DebugRectThickness = 4
	DebugPointSize     = 5
	DebugTextSize      = 16
)

// RectOptions styles DebugDraw.DrawRect.
type RectOptions struct {
	Color RGBA
}

// LineOptions styles DebugDraw.DrawLine.
type LineOptions struct {
	Color RGBA
	// Thickness defaults to 1.
	Thickness float64
}

// PointOptions styles DebugDraw.DrawPoint.
type PointOptions struct {
	Color RGBA
	// Size defaults to DebugPointSize.
	Size float64
}

// DebugDraw queues outline shapes and labels through the built-in
// renderers. They sort like any other draw.
type DebugDraw struct {
	ctx  *Context
	font *text.Font
}

// DrawRect outlines the rectangle (x, y, w, h).
func (d *DebugDraw) DrawRect(x, y, w, h float64, opts RectOptions) {
	d.ctx.enqueue(&RectangleCommand{
		Pos:             Pt(x, y),
		Width:           w,
		Height:          h,
		Color:           Transparent,
		Stroke:          opts.Color,
		StrokeThickness: DebugRectThickness,
	})
}

// DrawLine draws a segment.
func (d *DebugDraw) DrawLine(start, end Point, opts LineOptions) {
	d.ctx.enqueue(&LineCommand{Start: start, End: end, Color: opts.Color, Thickness: opts.Thickness})
}

// DrawPoint draws a dot.
func (d *DebugDraw) DrawPoint(p Point, opts PointOptions) {
	size := opts.Size
	if size <= 0 {
		size = DebugPointSize
	}
	d.ctx.enqueue(&PointCommand{Pos: p, Color: opts.Color, Size: size})
}

// DrawText draws s in black with the debug font, its first baseline
// starting at pos.
func (d *DebugDraw) DrawText(s string, pos Point) {
	d.ctx.enqueue(&TextCommand{Font: d.font, Text: s, Pos: pos, Color: Black, Size: DebugTextSize})
}

// Font returns the debug font.
func (d *DebugDraw) Font() *text.Font { return d.font }
