package gx

import (
	"github.com/gogpu/gx/gpu"
)

// Renderer is a batch renderer. It accumulates primitives from Draw and
// submits them to the GPU in one draw call per Flush.
//
// The context calls SetState and SetTransform before every Draw with the
// values captured when the command was queued. Draw must flush on its own
// when the batch is full. Renderers must not call back into the context.
type Renderer interface {
	// Name identifies the renderer type. It is the last sort key.
	Name() string
	// Priority orders renderers within a layer, lowest first.
	Priority() int
	Initialize(info *RendererInfo) error
	// SetProjection updates the projection uniform.
	SetProjection(m Mat4)
	SetState(s State)
	SetTransform(m Matrix)
	Draw(cmd Command) error
	// Flush submits the pending batch, if any.
	Flush() error
	Release()
}

// RendererInfo is what a renderer gets to work with.
type RendererInfo struct {
	Device      gpu.Device
	Projection  Mat4
	Textures    *TextureCache
	Diagnostics *Diagnostics
	// MaxPrimitives is the batch capacity configured for the renderer.
	// Zero lets the renderer pick.
	MaxPrimitives int
}

// drawState holds the per-call transform and state pushed by the context.
type drawState struct {
	transform Matrix
	state     State
}

func (s *drawState) SetState(st State)     { s.state = st }
func (s *drawState) SetTransform(m Matrix) { s.transform = m }

// opacity returns the current opacity clamped to [0, 1].
func (s *drawState) opacity() float32 {
	return float32(clamp01(s.state.Opacity))
}
