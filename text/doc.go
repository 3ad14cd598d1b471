// Package text lays out strings as positioned glyphs for gx's text renderer.
//
// The pipeline has three stages:
//
//   - Font: a parsed TrueType/OpenType font shared across sizes
//   - Shape: HarfBuzz shaping via go-text/typesetting, with bidi runs
//     resolved by golang.org/x/text/unicode/bidi
//   - Atlas: glyph coverage rasterized with golang.org/x/image/vector and
//     shelf-packed into a single mutable NRGBA page
//
// Shaped runs are cached by (font, size, text), so a string drawn every
// frame is shaped once.
//
// # Example usage
//
//	f := text.Regular()
//	l := text.Shape(f, "Hello, gx!", 24)
//	atlas := text.NewAtlas(1024, 1024)
//	for _, g := range l.Glyphs {
//		ag, err := atlas.Glyph(f, g.ID, 24)
//		...
//	}
package text
