package gx

import "github.com/gogpu/gx/text"

// Names of the built-in renderers.
const (
	RendererImage     = "image"
	RendererRectangle = "rectangle"
	RendererCircle    = "circle"
	RendererLine      = "line"
	RendererPoint     = "point"
	RendererText      = "text"

	rendererCopy = "copy"
)

// Command is one draw request. Renderer names the renderer that consumes it.
//
// The built-in variants below are routed to the built-in renderers. Custom
// renderers registered with Context.Register define their own commands and
// receive them unchanged.
type Command interface {
	Renderer() string
}

// ImageCommand draws the Src region of Image into Dst. A zero Src draws
// the whole image. A zero-size Dst uses the size of Src.
type ImageCommand struct {
	Image  ImageSource
	Src    Rect
	Dst    Rect
	Filter ImageFiltering
}

// Renderer returns RendererImage.
func (ImageCommand) Renderer() string { return RendererImage }

// RectangleCommand draws a filled rectangle with an optional rounded corner
// radius and inner stroke.
type RectangleCommand struct {
	Pos             Point
	Width, Height   float64
	Color           RGBA
	BorderRadius    float64
	Stroke          RGBA
	StrokeThickness float64
}

// Renderer returns RendererRectangle.
func (RectangleCommand) Renderer() string { return RendererRectangle }

// CircleCommand draws a filled circle centered on Pos with an optional
// inner stroke.
type CircleCommand struct {
	Pos             Point
	Radius          float64
	Color           RGBA
	Stroke          RGBA
	StrokeThickness float64
}

// Renderer returns RendererCircle.
func (CircleCommand) Renderer() string { return RendererCircle }

// LineCommand draws a segment of the given thickness. Zero thickness draws
// a one pixel line.
type LineCommand struct {
	Start, End Point
	Color      RGBA
	Thickness  float64
}

// Renderer returns RendererLine.
func (LineCommand) Renderer() string { return RendererLine }

// PointCommand draws a round dot of Size pixels. The size is not affected
// by scale or rotation.
type PointCommand struct {
	Pos   Point
	Color RGBA
	Size  float64
}

// Renderer returns RendererPoint.
func (PointCommand) Renderer() string { return RendererPoint }

// TextCommand draws Text with its first baseline starting at Pos.
type TextCommand struct {
	Font  *text.Font
	Text  string
	Pos   Point
	Color RGBA
	Size  float64
}

// Renderer returns RendererText.
func (TextCommand) Renderer() string { return RendererText }

type copyCommand struct {
	src ImageSource
}

func (copyCommand) Renderer() string { return rendererCopy }

// commandKind tags which payload slot of a drawCall is live.
type commandKind uint8

const (
	kindCustom commandKind = iota
	kindImage
	kindRectangle
	kindCircle
	kindLine
	kindPoint
	kindText
	kindCopy
)

// drawCall is a deferred draw. Built-in commands are stored by value in
// typed slots so queueing them does not allocate.
type drawCall struct {
	renderer Renderer
	name     string
	priority int

	transform Matrix
	state     State

	kind   commandKind
	image  ImageCommand
	rect   RectangleCommand
	circle CircleCommand
	line   LineCommand
	point  PointCommand
	text   TextCommand
	copy   copyCommand
	custom Command
}

// set stores cmd in the matching slot.
func (d *drawCall) set(cmd Command) {
	d.custom = nil
	switch c := cmd.(type) {
	case ImageCommand:
		d.kind, d.image = kindImage, c
	case *ImageCommand:
		d.kind, d.image = kindImage, *c
	case RectangleCommand:
		d.kind, d.rect = kindRectangle, c
	case *RectangleCommand:
		d.kind, d.rect = kindRectangle, *c
	case CircleCommand:
		d.kind, d.circle = kindCircle, c
	case *CircleCommand:
		d.kind, d.circle = kindCircle, *c
	case LineCommand:
		d.kind, d.line = kindLine, c
	case *LineCommand:
		d.kind, d.line = kindLine, *c
	case PointCommand:
		d.kind, d.point = kindPoint, c
	case *PointCommand:
		d.kind, d.point = kindPoint, *c
	case TextCommand:
		d.kind, d.text = kindText, c
	case *TextCommand:
		d.kind, d.text = kindText, *c
	case copyCommand:
		d.kind, d.copy = kindCopy, c
	default:
		d.kind, d.custom = kindCustom, cmd
	}
}

// command returns the stored command. Built-in commands are returned as
// pointers into the slot.
func (d *drawCall) command() Command {
	switch d.kind {
	case kindImage:
		return &d.image
	case kindRectangle:
		return &d.rect
	case kindCircle:
		return &d.circle
	case kindLine:
		return &d.line
	case kindPoint:
		return &d.point
	case kindText:
		return &d.text
	case kindCopy:
		return &d.copy
	}
	return d.custom
}

// reset drops references so recycled calls do not pin images or fonts.
func (d *drawCall) reset() {
	d.renderer = nil
	d.custom = nil
	d.image.Image = nil
	d.text.Font = nil
	d.copy.src = nil
}

// degenerate returns why the stored command draws nothing, or "" when it
// is drawable. Custom commands are never degenerate.
func (d *drawCall) degenerate() string {
	m := d.transform
	if !finite(m.A, m.B, m.C, m.D, m.E, m.F) {
		return "non-finite transform"
	}
	switch d.kind {
	case kindImage:
		c := &d.image
		if c.Image == nil {
			return "nil image"
		}
		if c.Image.Bounds().Empty() {
			return "empty image"
		}
		if c.Src != (Rect{}) && c.Src.empty() {
			return "empty source view"
		}
		if (c.Dst.W != 0 || c.Dst.H != 0) && c.Dst.empty() || !finite(c.Dst.X, c.Dst.Y) {
			return "empty destination"
		}
	case kindRectangle:
		c := &d.rect
		if !c.Pos.finite() || !finite(c.Width, c.Height, c.BorderRadius, c.StrokeThickness) ||
			c.Width <= 0 || c.Height <= 0 {
			return "empty rectangle"
		}
	case kindCircle:
		c := &d.circle
		if !c.Pos.finite() || !finite(c.Radius, c.StrokeThickness) || c.Radius <= 0 {
			return "empty circle"
		}
	case kindLine:
		c := &d.line
		if !c.Start.finite() || !c.End.finite() || !finite(c.Thickness) || c.Start == c.End {
			return "zero-length line"
		}
	case kindPoint:
		c := &d.point
		if !c.Pos.finite() || !finite(c.Size) || c.Size <= 0 {
			return "empty point"
		}
	case kindText:
		c := &d.text
		if c.Text == "" || !c.Pos.finite() || !finite(c.Size) || c.Size <= 0 {
			return "empty text"
		}
	}
	return ""
}
