package text

import (
	"sync"

	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
)

// GlyphID is a glyph index within a font.
type GlyphID uint32

// Glyph is one positioned glyph of a shaped string.
//
// X and Y locate the glyph origin relative to the baseline-left origin of
// the first line, with Y growing downwards.
type Glyph struct {
	ID      GlyphID
	X, Y    float64
	Advance float64
	// Cluster is the rune index in the source string the glyph came from.
	Cluster int
}

// HarfbuzzShaper has internal buffers and is not safe for concurrent use,
// so instances are pooled.
var shaperPool = sync.Pool{
	New: func() any { return &shaping.HarfbuzzShaper{} },
}

// shapeLine shapes one line of runes starting at pen position (x, y) and
// appends the glyphs to dst. It returns the extended slice and the pen x
// after the last glyph.
func shapeLine(dst []Glyph, f *Font, line []rune, offset int, size, x, y float64) ([]Glyph, float64) {
	if len(line) == 0 {
		return dst, x
	}
	face := gtfont.NewFace(f.gt)
	hb := shaperPool.Get().(*shaping.HarfbuzzShaper)
	defer shaperPool.Put(hb)

	for _, r := range visualRuns(line) {
		out := hb.Shape(shaping.Input{
			Text:      line,
			RunStart:  r.start,
			RunEnd:    r.end,
			Direction: r.dir,
			Face:      face,
			Size:      toFixed(size),
			Script:    detectScript(line[r.start:r.end]),
			Language:  language.NewLanguage("en"),
		})
		for _, g := range out.Glyphs {
			adv := fromFixed(g.Advance)
			dst = append(dst, Glyph{
				ID:      GlyphID(g.GlyphID),
				X:       x + fromFixed(g.XOffset),
				Y:       y - fromFixed(g.YOffset),
				Advance: adv,
				Cluster: offset + g.TextIndex(),
			})
			x += adv
		}
	}
	return dst, x
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

// run is a half-open rune range shaped in one direction.
type run struct {
	start, end int
	dir        di.Direction
}
