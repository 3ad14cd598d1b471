package gx

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gx/gpu"
)

// copyRenderer draws one source over the whole surface. Context.Composite
// drives it directly; it is not part of the renderer registry.
//
// Vertex layout, 4 floats: position 2, texcoord 2.
type copyRenderer struct {
	baseRenderer

	textures *TextureCache
	source   gpu.Texture
}

func newCopyRenderer() *copyRenderer {
	return &copyRenderer{baseRenderer: baseRenderer{name: rendererCopy}}
}

func (r *copyRenderer) Initialize(info *RendererInfo) error {
	r.textures = info.Textures
	single := *info
	single.MaxPrimitives = 1
	return r.init(&single, gpu.ProgramDescriptor{
		Label:  rendererCopy,
		Source: copyShaderSource,
		Attributes: []gpu.Attribute{
			{Name: "a_position", Format: gputypes.VertexFormatFloat32x2},
			{Name: "a_texcoord", Format: gputypes.VertexFormatFloat32x2},
		},
		Uniforms: matrixUniforms(),
		Textures: 1,
		Fragment: copyFragment,
	}, 1)
}

func (r *copyRenderer) Draw(cmd Command) error {
	c, ok := cmd.(*copyCommand)
	if !ok {
		return mismatch(r.name, cmd)
	}
	if r.Full() {
		if err := r.Flush(); err != nil {
			return err
		}
	}
	tex, err := r.textures.Load(c.src, FilterDefault, false)
	if err != nil {
		return err
	}
	r.source = tex

	w, h := r.device.Size()
	size := c.src.Bounds().Size()
	u := float32(size.X) / float32(ensurePowerOfTwo(size.X))
	v := float32(size.Y) / float32(ensurePowerOfTwo(size.Y))

	q := rectQuad(Identity(), 0, 0, float64(w), float64(h))
	q.put(r.Reserve(), r.Stride(), 2, func(corner int, out []float32) {
		out[0], out[1] = cornerUV[corner][0]*u, cornerUV[corner][1]*v
	})
	return nil
}

func (r *copyRenderer) Flush() error {
	if r.Count() == 0 {
		return nil
	}
	r.device.ActiveTexture(0)
	r.device.BindTexture(r.source)
	return r.Submit(r.diag, r.name)
}
