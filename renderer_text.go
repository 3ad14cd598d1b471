package gx

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gx/gpu"
	"github.com/gogpu/gx/text"
)

// textRenderer draws shaped glyphs as quads over a shared glyph atlas.
//
// Vertex layout, 8 floats: position 2, uv 2, color 4. The color alpha
// carries the draw opacity.
type textRenderer struct {
	baseRenderer

	textures *TextureCache
	atlas    *text.Atlas
}

func newTextRenderer() *textRenderer {
	return &textRenderer{baseRenderer: baseRenderer{name: RendererText}}
}

func (r *textRenderer) Initialize(info *RendererInfo) error {
	if info.Textures == nil {
		return fmt.Errorf("gx: text renderer needs a texture cache")
	}
	r.textures = info.Textures
	r.atlas = text.NewAtlas(text.DefaultAtlasWidth, text.DefaultAtlasHeight)
	return r.init(info, gpu.ProgramDescriptor{
		Label:  RendererText,
		Source: textShaderSource,
		Attributes: []gpu.Attribute{
			{Name: "a_position", Format: gputypes.VertexFormatFloat32x2},
			{Name: "a_uv", Format: gputypes.VertexFormatFloat32x2},
			{Name: "a_color", Format: gputypes.VertexFormatFloat32x4},
		},
		Uniforms: matrixUniforms(),
		Textures: 1,
		Fragment: textFragment,
	}, DefaultMaxCharsPerBatch)
}

// glyph returns the atlas entry of id. A full atlas is flushed and reset
// once before giving up.
func (r *textRenderer) glyph(f *text.Font, id text.GlyphID, size float64) (text.AtlasGlyph, error) {
	g, err := r.atlas.Glyph(f, id, size)
	if !errors.Is(err, text.ErrAtlasFull) {
		return g, err
	}
	if err := r.Flush(); err != nil {
		return text.AtlasGlyph{}, err
	}
	r.atlas.Reset()
	return r.atlas.Glyph(f, id, size)
}

func (r *textRenderer) Draw(cmd Command) error {
	c, ok := cmd.(*TextCommand)
	if !ok {
		return mismatch(r.name, cmd)
	}
	font := c.Font
	if font == nil {
		font = text.Regular()
	}
	layout := text.Shape(font, c.Text, c.Size)

	color := c.Color.vec()
	color[3] *= r.opacity()
	page := r.atlas.Bounds().Size()
	pw, ph := float32(ensurePowerOfTwo(page.X)), float32(ensurePowerOfTwo(page.Y))

	for _, g := range layout.Glyphs {
		ag, err := r.glyph(font, g.ID, c.Size)
		if err != nil {
			if errors.Is(err, text.ErrGlyphTooLarge) {
				Logger().Debug("glyph skipped", "glyph", g.ID, "size", c.Size, "err", err)
				continue
			}
			return err
		}
		if ag.Region.Empty() {
			continue
		}
		if r.Full() {
			if err := r.Flush(); err != nil {
				return err
			}
		}

		x := c.Pos.X + g.X + float64(ag.Offset.X)
		y := c.Pos.Y + g.Y + float64(ag.Offset.Y)
		w, h := float64(ag.Region.Dx()), float64(ag.Region.Dy())
		u0, v0 := float32(ag.Region.Min.X)/pw, float32(ag.Region.Min.Y)/ph
		u1, v1 := float32(ag.Region.Max.X)/pw, float32(ag.Region.Max.Y)/ph
		uv := [4][2]float32{{u0, v0}, {u0, v1}, {u1, v0}, {u1, v1}}

		q := rectQuad(r.transform, x, y, w, h)
		q.put(r.Reserve(), r.Stride(), 2, func(corner int, out []float32) {
			out[0], out[1] = uv[corner][0], uv[corner][1]
			copy(out[2:6], color[:])
		})
	}
	return nil
}

// Flush uploads the atlas if it changed since the last upload and draws.
func (r *textRenderer) Flush() error {
	if r.Count() == 0 {
		return nil
	}
	tex, err := r.textures.Load(r.atlas, FilterBlended, false)
	if err != nil {
		r.Reset()
		return err
	}
	r.device.ActiveTexture(0)
	r.device.BindTexture(tex)
	return r.Submit(r.diag, r.name)
}

func (r *textRenderer) Release() {
	if r.textures != nil && r.atlas != nil {
		r.textures.Delete(r.atlas)
	}
	r.baseRenderer.Release()
}
