// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/allbackends"

	"github.com/gogpu/gx/backend"
	"github.com/gogpu/gx/gpu"
)

func init() {
	backend.Register(backend.WGPU, func(cfg gpu.SurfaceConfig) (gpu.Device, error) {
		return Open(cfg)
	})
}

// backendOrder lists the HAL backends Open tries, most preferred first.
// The HAL software rasterizer is left to the gx software backend.
var backendOrder = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
}

// Open creates a HAL instance, picks an adapter for cfg.PowerPreference and
// opens a device on it. The returned Device owns the instance.
func Open(cfg gpu.SurfaceConfig) (*Device, error) {
	var errs []error
	for _, variant := range backendOrder {
		b, ok := hal.GetBackend(variant)
		if !ok {
			continue
		}
		d, err := openBackend(b, cfg)
		if err == nil {
			return d, nil
		}
		slogger().Debug("wgpu: backend unavailable", "backend", variant, "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", variant, err))
	}
	if len(errs) == 0 {
		return nil, ErrNoAdapter
	}
	return nil, fmt.Errorf("%w: %w", ErrNoAdapter, errors.Join(errs...))
}

func openBackend(b hal.Backend, cfg gpu.SurfaceConfig) (*Device, error) {
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{Backends: gputypes.BackendsPrimary | gputypes.BackendsSecondary})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	exposed, ok := pickAdapter(adapters, cfg.PowerPreference)
	if !ok {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	open, err := exposed.Adapter.Open(0, exposed.Capabilities.Limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open adapter %q: %w", exposed.Info.Name, err)
	}
	d, err := New(open.Device, open.Queue, exposed.Capabilities.Limits, cfg)
	if err != nil {
		open.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	d.instance, d.owned = instance, true
	slogger().Info("wgpu device opened",
		"adapter", exposed.Info.Name, "type", exposed.Info.DeviceType, "backend", b.Variant(),
		"width", cfg.Width, "height", cfg.Height, "antialias", cfg.Antialias)
	return d, nil
}

// pickAdapter chooses the adapter matching pref. CPU adapters are skipped.
// Without a preference, or when nothing matches, the first hardware adapter
// wins.
func pickAdapter(adapters []hal.ExposedAdapter, pref gputypes.PowerPreference) (hal.ExposedAdapter, bool) {
	want := gputypes.DeviceTypeOther
	switch pref {
	case gputypes.PowerPreferenceHighPerformance:
		want = gputypes.DeviceTypeDiscreteGPU
	case gputypes.PowerPreferenceLowPower:
		want = gputypes.DeviceTypeIntegratedGPU
	}
	var (
		first hal.ExposedAdapter
		found bool
	)
	for _, a := range adapters {
		if a.Info.DeviceType == gputypes.DeviceTypeCPU {
			continue
		}
		if want != gputypes.DeviceTypeOther && a.Info.DeviceType == want {
			return a, true
		}
		if !found {
			first, found = a, true
		}
	}
	return first, found
}
