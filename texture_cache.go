package gx

import (
	"fmt"
	"image"
	"math/bits"

	"github.com/gogpu/gx/gpu"
	"github.com/gogpu/gx/internal/pool"
)

// TextureCache maps image sources to GPU textures. Entries live until
// Delete or Release; nothing is evicted implicitly.
//
// Uploaded pixels are padded to power-of-two dimensions, anchored top-left,
// so texture coordinates computed against ensurePowerOfTwo of the source
// size address the source texels exactly.
type TextureCache struct {
	device  gpu.Device
	filter  ImageFiltering
	entries map[ImageSource]*textureEntry
	records *pool.SparsePool[textureEntry]
	uploads int
}

type textureEntry struct {
	handle  gpu.Texture
	filter  ImageFiltering
	version uint64
	size    image.Point
}

// NewTextureCache creates a cache uploading through dev. filter is used
// when neither the caller nor the source picks one.
func NewTextureCache(dev gpu.Device, filter ImageFiltering) *TextureCache {
	if filter == FilterDefault {
		filter = FilterPixel
	}
	return &TextureCache{
		device:  dev,
		filter:  filter,
		entries: make(map[ImageSource]*textureEntry),
		records: pool.NewSparse[textureEntry](nil),
	}
}

// Load returns the texture for src, uploading it on first use. A known
// source is uploaded again when forceUpdate is set, when the filter changed,
// or when it is mutable (mutable sources with a Version are re-uploaded
// only after the version moved). Uploads bind the texture on unit 0.
func (c *TextureCache) Load(src ImageSource, filter ImageFiltering, forceUpdate bool) (gpu.Texture, error) {
	if src == nil {
		return 0, fmt.Errorf("gx: load nil image source: %w", gpu.ErrInvalidHandle)
	}
	filter = c.resolve(src, filter)

	e, ok := c.entries[src]
	if ok && !forceUpdate && e.filter == filter && !changed(src, e) {
		return e.handle, nil
	}
	if !ok {
		h, err := c.device.CreateTexture()
		if err != nil {
			return 0, fmt.Errorf("gx: create texture: %w", err)
		}
		e = c.records.Get()
		*e = textureEntry{handle: h}
		c.entries[src] = e
	}

	img := potPixels(src.Pixels())
	c.device.ActiveTexture(0)
	c.device.BindTexture(e.handle)
	if err := c.device.TexImage2D(img, filter.mode()); err != nil {
		return 0, fmt.Errorf("gx: upload texture: %w", err)
	}
	e.filter = filter
	e.size = src.Bounds().Size()
	if v, ok := src.(versionedSource); ok {
		e.version = v.Version()
	}
	c.uploads++
	Logger().Debug("texture uploaded",
		"texture", e.handle, "w", e.size.X, "h", e.size.Y, "filter", filter)
	return e.handle, nil
}

func (c *TextureCache) resolve(src ImageSource, filter ImageFiltering) ImageFiltering {
	if filter != FilterDefault {
		return filter
	}
	if f, ok := src.(filteredSource); ok && f.Filtering() != FilterDefault {
		return f.Filtering()
	}
	return c.filter
}

func changed(src ImageSource, e *textureEntry) bool {
	m, ok := src.(mutableSource)
	if !ok || !m.Mutable() {
		return false
	}
	if v, ok := src.(versionedSource); ok {
		return v.Version() != e.version
	}
	return true
}

// Get returns the texture for src without uploading.
func (c *TextureCache) Get(src ImageSource) (gpu.Texture, bool) {
	e, ok := c.entries[src]
	if !ok {
		return 0, false
	}
	return e.handle, true
}

// Delete frees the texture of src.
func (c *TextureCache) Delete(src ImageSource) {
	e, ok := c.entries[src]
	if !ok {
		return
	}
	c.device.DeleteTexture(e.handle)
	delete(c.entries, src)
	c.records.Return(e)
}

// Len returns the number of cached textures.
func (c *TextureCache) Len() int { return len(c.entries) }

// Uploads returns the number of uploads performed so far.
func (c *TextureCache) Uploads() int { return c.uploads }

// Release frees every cached texture.
func (c *TextureCache) Release() {
	for src := range c.entries {
		c.Delete(src)
	}
}

// ensurePowerOfTwo returns x when it is a power of two, otherwise the next
// larger one. Values below 1 return 1.
func ensurePowerOfTwo(x int) int {
	if x <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(x-1))
}

// potPixels returns img padded with transparent texels to power-of-two
// dimensions. Images that already qualify are returned as is.
func potPixels(img *image.NRGBA) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	pw, ph := ensurePowerOfTwo(w), ensurePowerOfTwo(h)
	if pw == w && ph == h && img.Rect.Min == (image.Point{}) {
		return img
	}
	out := image.NewNRGBA(image.Rect(0, 0, pw, ph))
	for y := 0; y < h; y++ {
		src := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+w*4], img.Pix[src:src+w*4])
	}
	return out
}
