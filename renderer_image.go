package gx

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gx/gpu"
)

// texturesUniform maps sampler slot i to texture unit i in the image
// program.
const texturesUniform = "u_textures"

// imageRenderer draws textured quads from up to maxUnits distinct textures
// per batch.
//
// Vertex layout, 6 floats: position 2, texcoord 2, texture index 1,
// opacity 1.
type imageRenderer struct {
	baseRenderer

	textures *TextureCache
	maxUnits int
	bound    []gpu.Texture
}

func newImageRenderer() *imageRenderer {
	return &imageRenderer{baseRenderer: baseRenderer{name: RendererImage}}
}

func (r *imageRenderer) Initialize(info *RendererInfo) error {
	if info.Textures == nil {
		return fmt.Errorf("gx: image renderer needs a texture cache")
	}
	r.textures = info.Textures
	r.maxUnits = max(1, min(info.Device.MaxTextureImageUnits(), gpu.MaxTextureUnits))

	src, err := imageShaderSource(r.maxUnits)
	if err != nil {
		return err
	}
	err = r.init(info, gpu.ProgramDescriptor{
		Label:  RendererImage,
		Source: src,
		Attributes: []gpu.Attribute{
			{Name: "a_position", Format: gputypes.VertexFormatFloat32x2},
			{Name: "a_texcoord", Format: gputypes.VertexFormatFloat32x2},
			{Name: "a_textureIndex", Format: gputypes.VertexFormatFloat32},
			{Name: "a_opacity", Format: gputypes.VertexFormatFloat32},
		},
		Uniforms: matrixUniforms(),
		Textures: r.maxUnits,
		Fragment: imageFragment,
	}, DefaultMaxImagesPerBatch)
	if err != nil {
		return err
	}

	units := make([]int32, r.maxUnits)
	for i := range units {
		units[i] = int32(i)
	}
	info.Device.UseProgram(r.Program())
	info.Device.UniformIntArray(texturesUniform, units)
	r.bound = make([]gpu.Texture, 0, r.maxUnits)
	return nil
}

// full reports whether tex cannot join the current batch.
func (r *imageRenderer) full(tex gpu.Texture) bool {
	if r.Full() {
		return true
	}
	return !slices.Contains(r.bound, tex) && len(r.bound) >= r.maxUnits
}

func (r *imageRenderer) Draw(cmd Command) error {
	c, ok := cmd.(*ImageCommand)
	if !ok {
		return mismatch(r.name, cmd)
	}
	tex, err := r.textures.Load(c.Image, c.Filter, false)
	if err != nil {
		return err
	}
	if r.full(tex) {
		if err := r.Flush(); err != nil {
			return err
		}
	}
	slot := slices.Index(r.bound, tex)
	if slot < 0 {
		r.bound = append(r.bound, tex)
		slot = len(r.bound) - 1
	}

	size := c.Image.Bounds().Size()
	src := c.Src
	if src.W == 0 && src.H == 0 {
		src = Rect{W: float64(size.X), H: float64(size.Y)}
	}
	dst := c.Dst
	if dst.W == 0 && dst.H == 0 {
		dst.W, dst.H = src.W, src.H
	}

	pw, ph := float64(ensurePowerOfTwo(size.X)), float64(ensurePowerOfTwo(size.Y))
	u0, v0 := float32(src.X/pw), float32(src.Y/ph)
	u1, v1 := float32((src.X+src.W)/pw), float32((src.Y+src.H)/ph)
	uv := [4][2]float32{{u0, v0}, {u0, v1}, {u1, v0}, {u1, v1}}

	q := rectQuad(r.transform, dst.X, dst.Y, dst.W, dst.H)
	index := float32(slot)
	opacity := r.opacity()
	q.put(r.Reserve(), r.Stride(), 2, func(corner int, out []float32) {
		out[0], out[1] = uv[corner][0], uv[corner][1]
		out[2] = index
		out[3] = opacity
	})
	return nil
}

// Flush binds the batch's textures to units 0..n-1 and draws. Unused units
// get the first texture so every sampler has something bound.
func (r *imageRenderer) Flush() error {
	if r.Count() == 0 {
		r.bound = r.bound[:0]
		return nil
	}
	dev := r.device
	for i := 0; i < r.maxUnits; i++ {
		tex := r.bound[0]
		if i < len(r.bound) {
			tex = r.bound[i]
		}
		dev.ActiveTexture(i)
		dev.BindTexture(tex)
	}
	r.bound = r.bound[:0]
	return r.Submit(r.diag, r.name)
}
