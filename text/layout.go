package text

import (
	"strings"

	"github.com/gogpu/gx/cache"
	"golang.org/x/image/math/fixed"
)

// Layout is a shaped string ready for drawing.
//
// Glyphs is shared with the run cache and must not be modified.
type Layout struct {
	Glyphs []Glyph
	// Width is the advance of the widest line.
	Width float64
	// Ascent and Descent bound the first and last line around their baselines.
	Ascent     float64
	Descent    float64
	LineHeight float64
	Lines      int
}

// Height returns the distance from the top of the first line to the bottom
// of the last.
func (l Layout) Height() float64 {
	if l.Lines == 0 {
		return 0
	}
	return l.Ascent + l.Descent + float64(l.Lines-1)*l.LineHeight
}

type runKey struct {
	font uint64
	size fixed.Int26_6
	text string
}

func hashRunKey(k runKey) uint64 {
	return cache.StringHasher(k.text) ^ k.font*0x9e3779b97f4a7c15 ^ uint64(k.size)
}

var runs = cache.NewSharded[runKey, Layout](256, hashRunKey)

// Shape lays out s in f at size pixels per em. Lines are separated by '\n'
// and advance by the font line height. Results are cached.
func Shape(f *Font, s string, size float64) Layout {
	if f == nil || s == "" || !(size > 0) {
		return Layout{}
	}
	key := runKey{font: f.id, size: toFixed(size), text: s}
	return runs.GetOrCreate(key, func() Layout {
		return shape(f, s, size)
	})
}

func shape(f *Font, s string, size float64) Layout {
	m := f.Metrics(size)
	l := Layout{Ascent: m.Ascent, Descent: m.Descent, LineHeight: m.LineHeight}

	glyphs := make([]Glyph, 0, len(s))
	offset := 0
	y := 0.0
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			y += m.LineHeight
		}
		runes := []rune(line)
		var end float64
		glyphs, end = shapeLine(glyphs, f, runes, offset, size, 0, y)
		l.Width = max(l.Width, end)
		l.Lines++
		offset += len(runes) + 1
	}
	l.Glyphs = glyphs
	slogger().Debug("text shaped", "font", f.name, "size", size, "glyphs", len(glyphs))
	return l
}

// ClearCache drops all cached layouts.
func ClearCache() { runs.Clear() }

// CacheStats reports the layout cache counters.
func CacheStats() cache.Stats { return runs.Stats() }
