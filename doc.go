// Package gx is a batched 2D rendering core.
//
// # Overview
//
// gx turns a stream of draw commands (images, rectangles, circles, lines,
// points and text) into as few GPU draw calls as the requested layering
// allows. Draws are queued with a snapshot of the current transform and
// opacity, sorted on Flush by layer, renderer priority and renderer name,
// and packed into per-renderer vertex batches.
//
// # Quick Start
//
//	import "github.com/gogpu/gx"
//
//	ctx, err := gx.NewContext(800, 600)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer ctx.Close()
//
//	ctx.Clear()
//	ctx.DrawRectangle(gx.Pt(10, 10), 50, 50, gx.Blue)
//
//	ctx.Save()
//	ctx.SetOpacity(0.5)
//	ctx.Translate(100, 100)
//	ctx.Rotate(math.Pi / 4)
//	ctx.DrawCircle(gx.Pt(0, 0), 20, gx.Red)
//	ctx.Restore()
//
//	if err := ctx.Flush(); err != nil {
//		log.Fatal(err)
//	}
//	img, _ := ctx.Snapshot()
//
// # Renderers
//
// Each built-in renderer owns one program and one vertex buffer. A batch
// is submitted when it is full, when the next queued call belongs to a
// different renderer, or at the end of Flush. The image renderer also
// submits when a new texture would exceed the device's texture units.
//
// Custom renderers implement Renderer, embed Batch for the buffer
// bookkeeping and are added with Context.Register. Their commands are any
// type implementing Command.
//
// # Backends
//
// Devices come from the backend registry. The software backend is always
// available and rasterizes on the CPU; import backend/wgpu to draw through
// gogpu/wgpu.
//
// # Logging
//
// gx is silent by default. Call SetLogger with a *slog.Logger to see batch
// flushes, texture uploads and skipped draws.
package gx
