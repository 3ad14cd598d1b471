package text

import (
	"image"
	"sync"

	"golang.org/x/image/math/fixed"
)

// Default atlas page size.
const (
	DefaultAtlasWidth  = 1024
	DefaultAtlasHeight = 1024

	atlasPadding = 1
)

// AtlasGlyph locates a rasterized glyph in the atlas.
type AtlasGlyph struct {
	// Region is the glyph's pixels in the atlas. Empty for glyphs without ink.
	Region image.Rectangle
	// Offset is Region's top-left relative to the glyph origin, y down.
	Offset image.Point
}

type glyphKey struct {
	font uint64
	id   GlyphID
	size fixed.Int26_6
}

// Atlas is a single NRGBA page of glyph coverage: white color with the
// coverage in alpha. It implements gx.ImageSource and reports itself
// mutable, so the texture cache re-uploads it whenever its version moved.
type Atlas struct {
	mu      sync.Mutex
	img     *image.NRGBA
	packer  shelfPacker
	glyphs  map[glyphKey]AtlasGlyph
	version uint64
}

// NewAtlas creates an empty atlas. Non-positive sizes use the defaults.
func NewAtlas(width, height int) *Atlas {
	if width <= 0 {
		width = DefaultAtlasWidth
	}
	if height <= 0 {
		height = DefaultAtlasHeight
	}
	return &Atlas{
		img:    image.NewNRGBA(image.Rect(0, 0, width, height)),
		packer: shelfPacker{width: width, height: height, padding: atlasPadding},
		glyphs: make(map[glyphKey]AtlasGlyph),
	}
}

// Glyph returns the atlas location of a glyph, rasterizing it on first use.
// It returns ErrAtlasFull when the page has no room left.
func (a *Atlas) Glyph(f *Font, id GlyphID, size float64) (AtlasGlyph, error) {
	key := glyphKey{font: f.id, id: id, size: toFixed(size)}

	a.mu.Lock()
	defer a.mu.Unlock()
	if g, ok := a.glyphs[key]; ok {
		return g, nil
	}

	mask, offset, err := f.rasterize(id, size)
	if err != nil {
		return AtlasGlyph{}, err
	}
	if mask == nil {
		g := AtlasGlyph{Offset: offset}
		a.glyphs[key] = g
		return g, nil
	}

	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	at, ok := a.packer.alloc(w, h)
	if !ok {
		if w+atlasPadding > a.packer.width || h+atlasPadding > a.packer.height {
			return AtlasGlyph{}, ErrGlyphTooLarge
		}
		return AtlasGlyph{}, ErrAtlasFull
	}

	region := image.Rectangle{Min: at, Max: at.Add(image.Pt(w, h))}
	for y := 0; y < h; y++ {
		src := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		o := a.img.PixOffset(region.Min.X, region.Min.Y+y)
		dst := a.img.Pix[o : o+w*4]
		for x, c := range src {
			dst[x*4+0] = 0xff
			dst[x*4+1] = 0xff
			dst[x*4+2] = 0xff
			dst[x*4+3] = c
		}
	}

	g := AtlasGlyph{Region: region, Offset: offset}
	a.glyphs[key] = g
	a.version++
	return g, nil
}

// Reset empties the atlas. Previously returned regions become invalid.
func (a *Atlas) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.img.Pix)
	clear(a.glyphs)
	a.packer.reset()
	a.version++
	slogger().Debug("glyph atlas reset", "version", a.version)
}

// Bounds returns the page size.
func (a *Atlas) Bounds() image.Rectangle { return a.img.Rect }

// Pixels returns the page. Callers must not modify it.
func (a *Atlas) Pixels() *image.NRGBA { return a.img }

// Mutable reports that the page content changes over time.
func (a *Atlas) Mutable() bool { return true }

// Version increments every time the page content changes.
func (a *Atlas) Version() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.version
}

// Len returns the number of cached glyphs.
func (a *Atlas) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.glyphs)
}

// shelfPacker places rectangles on horizontal shelves. Only the last shelf
// may grow taller, so placed rectangles never overlap.
type shelfPacker struct {
	width, height int
	padding       int
	shelves       []shelf
}

type shelf struct {
	y, height, nextX int
}

func (p *shelfPacker) alloc(w, h int) (image.Point, bool) {
	pw, ph := w+p.padding, h+p.padding
	if w <= 0 || h <= 0 || pw > p.width || ph > p.height {
		return image.Point{}, false
	}

	last := len(p.shelves) - 1
	for i := range p.shelves {
		s := &p.shelves[i]
		if s.nextX+pw > p.width {
			continue
		}
		if ph > s.height && (i != last || s.y+ph > p.height) {
			continue
		}
		at := image.Pt(s.nextX, s.y)
		s.nextX += pw
		s.height = max(s.height, ph)
		return at, true
	}

	y := 0
	if last >= 0 {
		y = p.shelves[last].y + p.shelves[last].height
	}
	if y+ph > p.height {
		return image.Point{}, false
	}
	p.shelves = append(p.shelves, shelf{y: y, height: ph, nextX: pw})
	return image.Pt(0, y), true
}

func (p *shelfPacker) reset() { p.shelves = p.shelves[:0] }
