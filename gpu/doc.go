// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gpu defines the GPU binding surface the gx batch renderers draw
// through.
//
// Device is a small stateful interface in the shape of a GL-style context:
// objects are created and referred to by integer handles, one buffer, one
// program and one texture per unit are bound at a time, and DrawArrays
// consumes whatever is bound. Implementations live under backend/.
//
// Programs are described by a ProgramDescriptor that carries both a WGSL
// module (for hardware devices) and a FragmentFunc (for CPU devices). The
// vertex stage is fixed: the first attribute is the position, transformed
// by the "u_matrix" uniform; every remaining attribute is passed to the
// fragment stage as varyings.
//
// WGSL programs bind their resources in group 0:
//
//	@binding(0)        uniform block, members in descriptor order
//	@binding(1 + 2*n)  texture for unit n
//	@binding(2 + 2*n)  sampler for unit n
package gpu
