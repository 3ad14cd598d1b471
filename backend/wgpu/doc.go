// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package wgpu implements gpu.Device over the gogpu/wgpu HAL.
//
// Importing the package registers the "wgpu" backend, which the gx
// registry prefers over the software rasterizer:
//
//	import _ "github.com/gogpu/gx/backend/wgpu"
//
// The device renders into an offscreen RGBA8 target. Every DrawArrays call
// encodes one render pass that loads the target, draws the requested
// vertex range and stores the result; ReadPixels copies the target through
// a staging buffer. Programs are compiled from the WGSL module in their
// descriptor, and one pipeline is cached per program and blend state.
//
// To draw with a device owned by a host application, wrap its HAL device
// and queue with New, or pass a gpucontext.DeviceProvider that exposes
// HalDevice and HalQueue to NewFromProvider.
package wgpu
