// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import "github.com/gogpu/gputypes"

// MatrixUniform is the uniform every program's vertex stage reads its
// projection from.
const MatrixUniform = "u_matrix"

// MaxTextureUnits is the most texture units a program may sample.
const MaxTextureUnits = 16

// Attribute describes one per-vertex attribute.
type Attribute struct {
	Name   string
	Format gputypes.VertexFormat
}

// Components returns the number of float32 values the attribute occupies.
func (a Attribute) Components() int {
	return int(a.Format.Size() / 4)
}

// UniformKind is the type of a uniform block member.
type UniformKind uint8

const (
	UniformMat4 UniformKind = iota
	UniformFloat
	UniformInt
)

// Uniform describes one member of a program's uniform block.
type Uniform struct {
	Name string
	Kind UniformKind
}

// ProgramDescriptor describes a program for any device.
type ProgramDescriptor struct {
	Label string

	// Source is the WGSL module with vs_main and fs_main entry points.
	Source string

	// Attributes are in vertex order. Attributes[0] is the position.
	Attributes []Attribute

	// Uniforms lists the uniform block members in declaration order.
	// Sampler arrays are not part of the block.
	Uniforms []Uniform
	// Textures is the number of texture units the program samples. Unit i
	// is bound at @group(0) @binding(1+2*i) with its sampler at 2+2*i;
	// the uniform block is @binding(0).
	Textures int

	// Fragment is the CPU rendition of fs_main.
	Fragment FragmentFunc
}

// Stride returns the number of float32 values per vertex.
func (d *ProgramDescriptor) Stride() int {
	n := 0
	for _, a := range d.Attributes {
		n += a.Components()
	}
	return n
}

// UniformLayout returns the byte offset of every uniform block member and the
// block size. A mat4 takes 64 bytes at a 16-byte boundary, scalars take 4
// bytes, and the block is padded to a multiple of 16.
func (d *ProgramDescriptor) UniformLayout() (offsets map[string]int, size int) {
	offsets = make(map[string]int, len(d.Uniforms))
	for _, u := range d.Uniforms {
		switch u.Kind {
		case UniformMat4:
			size = alignUp(size, 16)
			offsets[u.Name] = size
			size += 64
		default:
			offsets[u.Name] = size
			size += 4
		}
	}
	return offsets, alignUp(size, 16)
}

func alignUp(n, a int) int {
	return (n + a - 1) / a * a
}

// Fragment is the input of one CPU fragment invocation.
type Fragment interface {
	// Varying returns the interpolated value of the i-th varying. Varyings
	// are the attribute components after the position, in order.
	Varying(i int) float32

	// Sample reads the texture bound on unit at normalized (u, v) and
	// returns straight RGBA in [0, 1]. Unbound units read transparent black.
	Sample(unit int, u, v float32) [4]float32

	UniformFloat(name string) float32
	UniformInt(name string) int32
	UniformIntArray(name string) []int32
}

// FragmentFunc shades one fragment. It returns straight RGBA in [0, 1], or
// ok == false to discard the fragment.
type FragmentFunc func(f Fragment) (rgba [4]float32, ok bool)
