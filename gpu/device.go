// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"image"

	"github.com/gogpu/gputypes"
)

// Buffer is a vertex buffer handle. Zero is never a valid buffer.
type Buffer uint32

// Texture is a texture handle. Zero is never a valid texture.
type Texture uint32

// Program is a linked program handle. Zero is never a valid program.
type Program uint32

// BufferUsage hints how often buffer storage is rewritten.
type BufferUsage uint8

const (
	// UsageStatic marks storage written once.
	UsageStatic BufferUsage = iota
	// UsageDynamic marks storage rewritten every frame.
	UsageDynamic
)

// Topology is the primitive assembly mode for DrawArrays.
type Topology uint8

const (
	// TopologyTriangles draws independent triangles from every three vertices.
	TopologyTriangles Topology = iota
)

// ClearMask selects which attachments Clear touches.
type ClearMask uint8

const (
	// ColorBufferBit clears the color attachment.
	ColorBufferBit ClearMask = 1 << iota
	// DepthBufferBit clears the depth attachment, if any.
	DepthBufferBit
)

// SurfaceConfig holds the context creation flags a device is opened with.
type SurfaceConfig struct {
	Width, Height int

	// Antialias requests multisampled rendering.
	Antialias bool

	// Alpha keeps the alpha channel in the output. When false the surface
	// reads back as opaque.
	Alpha bool

	// Depth requests a depth attachment. The 2D core never uses one.
	Depth bool

	PowerPreference gputypes.PowerPreference
}

// Device is a stateful GPU binding.
//
// A Device is not safe for concurrent use. All calls happen on the render
// goroutine.
type Device interface {
	// CreateBuffer allocates an empty vertex buffer.
	CreateBuffer() (Buffer, error)
	// BindBuffer makes b the target of BufferData, BufferSubData and the
	// vertex source of DrawArrays.
	BindBuffer(b Buffer)
	// BufferData replaces the bound buffer's storage with data.
	BufferData(data []float32, usage BufferUsage) error
	// BufferSubData writes data into the bound buffer starting at the
	// given float offset.
	BufferSubData(offset int, data []float32) error
	DeleteBuffer(b Buffer)

	CreateTexture() (Texture, error)
	// ActiveTexture selects the unit BindTexture binds to.
	ActiveTexture(unit int)
	BindTexture(t Texture)
	// TexImage2D uploads img into the texture bound on the active unit.
	TexImage2D(img *image.NRGBA, filter gputypes.FilterMode) error
	DeleteTexture(t Texture)

	CreateProgram(desc ProgramDescriptor) (Program, error)
	UseProgram(p Program)
	DeleteProgram(p Program)

	// Uniform setters write to the program in use. Unknown names are ignored.
	UniformMatrix4(name string, m [16]float32)
	UniformInt(name string, v int32)
	UniformIntArray(name string, v []int32)
	UniformFloat(name string, v float32)

	// DrawArrays draws count vertices of the bound buffer starting at first.
	DrawArrays(mode Topology, first, count int) error

	Viewport(x, y, width, height int)
	ClearColor(c gputypes.Color)
	Clear(mask ClearMask) error
	EnableBlend(enabled bool)
	BlendFunc(src, dst gputypes.BlendFactor)

	// MaxTextureImageUnits reports how many textures a program can sample.
	MaxTextureImageUnits() int

	// Size reports the drawable surface size in pixels.
	Size() (width, height int)
	// Resize reallocates the drawable surface. Contents are undefined
	// afterwards.
	Resize(width, height int) error
	// ReadPixels copies the surface into a new image.
	ReadPixels() (*image.NRGBA, error)

	// Release frees every object the device owns.
	Release()
}
