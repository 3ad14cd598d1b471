// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gxcanvas

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
)

// Rendering errors.
var (
	// ErrInvalidRenderer is returned when the drawer has no TextureCreator.
	ErrInvalidRenderer = errors.New("gxcanvas: drawer has no texture creator")

	// ErrInvalidTexture is returned when the stored texture cannot be drawn.
	ErrInvalidTexture = errors.New("gxcanvas: texture is not a gpucontext.Texture")
)

// RenderTo flushes the canvas and draws it at the window origin.
func (c *Canvas) RenderTo(dc gpucontext.TextureDrawer) error {
	return c.RenderToPosition(dc, 0, 0)
}

// RenderToPosition flushes the canvas and draws it with its top-left corner
// at (x, y) in window pixels.
func (c *Canvas) RenderToPosition(dc gpucontext.TextureDrawer, x, y float32) error {
	if c.closed {
		return ErrCanvasClosed
	}
	tex, err := c.Flush()
	if err != nil {
		return err
	}
	if pending, ok := tex.(*pendingTexture); ok {
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrInvalidRenderer
		}
		created, err := creator.NewTextureFromRGBA(pending.width, pending.height, pending.data)
		if err != nil {
			return fmt.Errorf("gxcanvas: create texture: %w", err)
		}
		c.texture = created
		tex = created
		// Texture creation waits for the queue, so the replaced texture is idle.
		c.destroyOld()
	}
	gt, ok := tex.(gpucontext.Texture)
	if !ok {
		return ErrInvalidTexture
	}
	return dc.DrawTexture(gt, x, y)
}
