package text

import "errors"

// Sentinel errors for text package.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("text: empty font data")

	// ErrAtlasFull is returned when a glyph does not fit in the atlas.
	// The caller flushes whatever references the atlas, calls Reset, and
	// retries.
	ErrAtlasFull = errors.New("text: glyph atlas full")

	// ErrGlyphTooLarge is returned when a glyph is larger than an empty atlas.
	ErrGlyphTooLarge = errors.New("text: glyph larger than atlas")
)
