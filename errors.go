package gx

import "errors"

var (
	// ErrUnregisteredRenderer is returned when a command names a renderer
	// that is not registered on the context.
	ErrUnregisteredRenderer = errors.New("gx: unregistered renderer")

	// ErrStackUnderflow is returned by Restore when nothing was saved.
	ErrStackUnderflow = errors.New("gx: restore without matching save")

	// ErrNilDevice is returned when a context is built without a device.
	ErrNilDevice = errors.New("gx: nil device")

	// ErrInvalidDimensions is returned for non-positive surface sizes.
	ErrInvalidDimensions = errors.New("gx: invalid dimensions")

	// ErrDuplicateRenderer is returned when a renderer name is registered twice.
	ErrDuplicateRenderer = errors.New("gx: renderer already registered")

	// ErrCommandMismatch is returned when a renderer receives a command of
	// a type it does not draw.
	ErrCommandMismatch = errors.New("gx: command does not match renderer")

	// ErrClosed is returned by operations on a closed context.
	ErrClosed = errors.New("gx: context closed")
)
