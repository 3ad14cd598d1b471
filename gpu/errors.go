// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import "errors"

var (
	// ErrInvalidHandle is returned when a zero or deleted handle is used.
	ErrInvalidHandle = errors.New("gpu: invalid handle")

	// ErrNoProgram is returned by DrawArrays when no program is in use.
	ErrNoProgram = errors.New("gpu: no program in use")

	// ErrNoBuffer is returned when a buffer operation has nothing bound.
	ErrNoBuffer = errors.New("gpu: no buffer bound")

	// ErrOutOfRange is returned when a write or draw exceeds buffer storage.
	ErrOutOfRange = errors.New("gpu: range exceeds buffer storage")
)
