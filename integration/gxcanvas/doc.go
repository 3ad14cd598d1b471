// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gxcanvas hosts a gx drawing context inside a gogpu window.
//
// The data flow is:
//
//	gx.Context (batched draws) -> device target -> RGBA snapshot -> window texture
//
// When the host's DeviceProvider exposes its HAL device (HalDevice and
// HalQueue) and the adapter is not a software one, the context draws through
// the wgpu backend on that device. Otherwise it uses the gx software backend.
//
// # Usage
//
//	canvas, err := gxcanvas.New(app.GPUContextProvider(), 800, 600)
//	if err != nil {
//	    return err
//	}
//	defer canvas.Close()
//
//	canvas.Draw(func(ctx *gx.Context) {
//	    ctx.DrawCircle(gx.Pt(400, 300), 100, gx.Red)
//	})
//	canvas.RenderTo(dc)
//
// Canvas is not safe for concurrent use.
package gxcanvas
