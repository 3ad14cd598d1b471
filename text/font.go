package text

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"

	gtfont "github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

var nextFontID atomic.Uint64

// Font is a parsed TrueType or OpenType font. It is safe for concurrent use
// and is shared across all sizes.
type Font struct {
	id   uint64
	name string

	sfnt *sfnt.Font
	gt   *gtfont.Font

	// sfnt.Buffer is not safe for concurrent use.
	buffers sync.Pool
}

// ParseFont parses font data. The data must not be modified afterwards.
func ParseFont(data []byte) (*Font, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	sf, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("text: parse font: %w", err)
	}
	face, err := gtfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("text: parse font for shaping: %w", err)
	}

	f := &Font{
		id:   nextFontID.Add(1),
		sfnt: sf,
		gt:   face.Font,
	}
	f.buffers.New = func() any { return new(sfnt.Buffer) }

	buf := f.buffer()
	defer f.release(buf)
	if name, err := sf.Name(buf, sfnt.NameIDFull); err == nil {
		f.name = name
	}
	slogger().Debug("font parsed", "name", f.name, "glyphs", sf.NumGlyphs())
	return f, nil
}

func mustParse(data []byte) *Font {
	f, err := ParseFont(data)
	if err != nil {
		panic(err)
	}
	return f
}

var (
	regular = sync.OnceValue(func() *Font { return mustParse(goregular.TTF) })
	mono    = sync.OnceValue(func() *Font { return mustParse(gomono.TTF) })
)

// Regular returns the embedded Go Regular font.
func Regular() *Font { return regular() }

// Mono returns the embedded Go Mono font.
func Mono() *Font { return mono() }

// Name returns the full font name, or "" if the font has none.
func (f *Font) Name() string { return f.name }

// ID returns a process-unique identifier for the font.
func (f *Font) ID() uint64 { return f.id }

// Metrics holds vertical font metrics in pixels at a given size.
type Metrics struct {
	Ascent     float64
	Descent    float64
	LineHeight float64
}

// Metrics returns the font metrics at size pixels per em.
func (f *Font) Metrics(size float64) Metrics {
	buf := f.buffer()
	defer f.release(buf)
	m, err := f.sfnt.Metrics(buf, toFixed(size), xfont.HintingNone)
	if err != nil {
		slogger().Warn("font metrics", "font", f.name, "err", err)
		return Metrics{Ascent: size, LineHeight: size * 1.2}
	}
	return Metrics{
		Ascent:     fromFixed(m.Ascent),
		Descent:    fromFixed(m.Descent),
		LineHeight: fromFixed(m.Height),
	}
}

func (f *Font) buffer() *sfnt.Buffer { return f.buffers.Get().(*sfnt.Buffer) }

func (f *Font) release(b *sfnt.Buffer) { f.buffers.Put(b) }

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(v * 64) }

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }
