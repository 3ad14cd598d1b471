// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package software implements gpu.Device on the CPU.
//
// Triangles are set up in 24.8 fixed point and scanned with edge functions
// under a top-left fill rule, so two triangles sharing an edge never touch
// the same sample twice. Pixel centers sit at +0.5. Varyings are
// interpolated barycentrically and shaded by the program's FragmentFunc.
//
// When the surface is opened with Antialias, every pixel holds a 2x2 grid
// of samples that ReadPixels averages.
//
// The package registers itself as backend "software" on import.
package software
