package gx

import (
	"image"
	"image/color"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"
)

// ImageSource is decoded pixel data ready for upload.
//
// Sources are cache keys, so implementations must be comparable; pointer
// types are. A source may also implement
//
//	Mutable() bool             // re-upload on every Load
//	Version() uint64           // with Mutable, re-upload only when it moves
//	Filtering() ImageFiltering // preferred filter when Load gets FilterDefault
type ImageSource interface {
	Bounds() image.Rectangle
	Pixels() *image.NRGBA
}

// ImageFiltering selects how a texture is sampled.
type ImageFiltering uint8

const (
	// FilterDefault defers to the source, then to the context's smoothing.
	FilterDefault ImageFiltering = iota
	// FilterPixel samples the nearest texel. Suited to pixel art.
	FilterPixel
	// FilterBlended interpolates between texels.
	FilterBlended
)

// String returns the filter name.
func (f ImageFiltering) String() string {
	switch f {
	case FilterPixel:
		return "Pixel"
	case FilterBlended:
		return "Blended"
	default:
		return "Default"
	}
}

func (f ImageFiltering) mode() gputypes.FilterMode {
	if f == FilterBlended {
		return gputypes.FilterModeLinear
	}
	return gputypes.FilterModeNearest
}

type mutableSource interface{ Mutable() bool }

type versionedSource interface{ Version() uint64 }

type filteredSource interface{ Filtering() ImageFiltering }

// Image is an immutable ImageSource.
type Image struct {
	img    *image.NRGBA
	filter ImageFiltering
}

// NewImage converts src to an Image. The pixels are copied once, so later
// changes to src are not seen.
func NewImage(src image.Image) *Image {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &Image{img: dst}
}

// NewImageSize resamples src to width x height. FilterBlended uses a
// bilinear kernel, anything else nearest neighbor.
func NewImageSize(src image.Image, width, height int, filter ImageFiltering) *Image {
	dst := image.NewNRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	var s draw.Scaler = draw.NearestNeighbor
	if filter == FilterBlended {
		s = draw.BiLinear
	}
	s.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return &Image{img: dst, filter: filter}
}

// SetFiltering sets the filter the image asks for when drawn with
// FilterDefault.
func (i *Image) SetFiltering(f ImageFiltering) { i.filter = f }

// Filtering returns the image's preferred filter.
func (i *Image) Filtering() ImageFiltering { return i.filter }

// Bounds returns the image bounds, always anchored at the origin.
func (i *Image) Bounds() image.Rectangle { return i.img.Rect }

// Pixels returns the image pixels. Callers must not modify them.
func (i *Image) Pixels() *image.NRGBA { return i.img }

// Width returns the width in pixels.
func (i *Image) Width() int { return i.img.Rect.Dx() }

// Height returns the height in pixels.
func (i *Image) Height() int { return i.img.Rect.Dy() }

// Canvas is a mutable ImageSource. It is re-uploaded every time it is
// drawn, so changes show up on the next frame.
type Canvas struct {
	img *image.NRGBA
}

// NewCanvas creates a transparent canvas.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{img: image.NewNRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))}
}

// Bounds returns the canvas bounds.
func (c *Canvas) Bounds() image.Rectangle { return c.img.Rect }

// Pixels returns the backing pixels for reading and writing.
func (c *Canvas) Pixels() *image.NRGBA { return c.img }

// Mutable reports true.
func (c *Canvas) Mutable() bool { return true }

// Fill sets every pixel to col.
func (c *Canvas) Fill(col RGBA) {
	draw.Draw(c.img, c.img.Rect, image.NewUniform(col.Color()), image.Point{}, draw.Src)
}

// Set sets one pixel.
func (c *Canvas) Set(x, y int, col color.Color) { c.img.Set(x, y, col) }

// DrawImage composites src over the canvas with its top-left at p.
func (c *Canvas) DrawImage(src image.Image, p image.Point) {
	r := src.Bounds().Sub(src.Bounds().Min).Add(p)
	draw.Draw(c.img, r, src, src.Bounds().Min, draw.Over)
}
