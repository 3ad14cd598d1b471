package backend

import (
	"errors"

	"github.com/gogpu/gx/gpu"
)

// Backend name constants.
const (
	// Software is the name of the CPU rasterizer backend.
	Software = "software"
	// WGPU is the name of the gogpu/wgpu HAL backend.
	WGPU = "wgpu"
)

// Common backend errors.
var (
	// ErrUnknownBackend is returned when no backend is registered under a name.
	ErrUnknownBackend = errors.New("backend: unknown backend")

	// ErrBackendNotAvailable is returned when no registered backend can open
	// a device.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Factory opens a device configured by cfg.
type Factory func(cfg gpu.SurfaceConfig) (gpu.Device, error)
