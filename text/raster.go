package text

import (
	"fmt"
	"image"
	"math"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/vector"
)

// rasterize renders the coverage mask of a glyph. The returned offset is the
// mask's top-left corner relative to the glyph origin, y down. Glyphs
// without ink (spaces) return a nil mask.
func (f *Font) rasterize(id GlyphID, size float64) (*image.Alpha, image.Point, error) {
	if id > math.MaxUint16 {
		return nil, image.Point{}, fmt.Errorf("text: glyph %d out of range", id)
	}
	gi := sfnt.GlyphIndex(id)
	ppem := toFixed(size)

	buf := f.buffer()
	defer f.release(buf)

	bounds, _, err := f.sfnt.GlyphBounds(buf, gi, ppem, xfont.HintingNone)
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("text: glyph %d bounds: %w", id, err)
	}
	minX, minY := bounds.Min.X.Floor(), bounds.Min.Y.Floor()
	w, h := bounds.Max.X.Ceil()-minX, bounds.Max.Y.Ceil()-minY
	if w <= 0 || h <= 0 {
		return nil, image.Point{}, nil
	}

	segments, err := f.sfnt.LoadGlyph(buf, gi, ppem, nil)
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("text: glyph %d outline: %w", id, err)
	}

	ox, oy := float32(-minX), float32(-minY)
	pt := func(i int, s sfnt.Segment) (float32, float32) {
		return float32(s.Args[i].X)/64 + ox, float32(s.Args[i].Y)/64 + oy
	}

	r := vector.NewRasterizer(w, h)
	open := false
	for _, s := range segments {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				r.ClosePath()
			}
			r.MoveTo(pt(0, s))
			open = true
		case sfnt.SegmentOpLineTo:
			r.LineTo(pt(0, s))
		case sfnt.SegmentOpQuadTo:
			bx, by := pt(0, s)
			cx, cy := pt(1, s)
			r.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := pt(0, s)
			cx, cy := pt(1, s)
			dx, dy := pt(2, s)
			r.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	if open {
		r.ClosePath()
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask, image.Pt(minX, minY), nil
}
