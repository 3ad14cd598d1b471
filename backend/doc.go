// Package backend selects the gpu.Device implementation a gx context draws
// through.
//
// Backends register a Factory under a name from an init function, so a
// blank import is enough to make one available:
//
//	import _ "github.com/gogpu/gx/backend/wgpu"
//
// Open creates a device from a named backend. Default tries the backends in
// priority order (wgpu, then software) and returns the first that opens.
//
// # Available Backends
//
//   - "software": CPU rasterizer, always available through gx
//   - "wgpu": hardware device over gogpu/wgpu HAL
package backend
