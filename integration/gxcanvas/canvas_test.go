// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gxcanvas

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gx"
	"github.com/gogpu/gx/backend"
)

// mockProvider implements gpucontext.DeviceProvider without a HAL device.
type mockProvider struct {
	info gpucontext.AdapterInfo
}

func newMockProvider() *mockProvider {
	return &mockProvider{info: gpucontext.AdapterInfo{Name: "mock", Type: gpucontext.AdapterTypeUnknown}}
}

func (m *mockProvider) Device() gpucontext.Device   { return nil }
func (m *mockProvider) Queue() gpucontext.Queue     { return nil }
func (m *mockProvider) Adapter() gpucontext.Adapter { return nil }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatBGRA8Unorm
}
func (m *mockProvider) AdapterInfo() gpucontext.AdapterInfo { return m.info }

// halProvider additionally exposes a noop HAL device.
type halProvider struct {
	mockProvider
	device hal.Device
	queue  hal.Queue
}

func (p *halProvider) HalDevice() any { return p.device }
func (p *halProvider) HalQueue() any  { return p.queue }

func newHALProvider(t *testing.T) *halProvider {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(instance.Destroy)
	open, err := instance.EnumerateAdapters(nil)[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(open.Device.Destroy)
	return &halProvider{
		mockProvider: mockProvider{info: gpucontext.AdapterInfo{Name: "noop", Type: gpucontext.AdapterTypeDiscrete}},
		device:       open.Device,
		queue:        open.Queue,
	}
}

type mockTexture struct {
	width, height int
	data          []byte
	updated       int
	destroyed     bool
}

func (m *mockTexture) Width() int  { return m.width }
func (m *mockTexture) Height() int { return m.height }

func (m *mockTexture) UpdateData(data []byte) error {
	m.data = append(m.data[:0], data...)
	m.updated++
	return nil
}

func (m *mockTexture) Destroy() { m.destroyed = true }

type mockCreator struct {
	textures []*mockTexture
	failNext bool
}

func (m *mockCreator) NewTextureFromRGBA(width, height int, data []byte) (gpucontext.Texture, error) {
	if m.failNext {
		m.failNext = false
		return nil, errors.New("mock texture creation failed")
	}
	tex := &mockTexture{width: width, height: height, data: append([]byte(nil), data...)}
	m.textures = append(m.textures, tex)
	return tex, nil
}

type mockDrawer struct {
	creator *mockCreator
	drawn   gpucontext.Texture
	x, y    float32
	draws   int
}

func (m *mockDrawer) DrawTexture(tex gpucontext.Texture, x, y float32) error {
	m.drawn, m.x, m.y = tex, x, y
	m.draws++
	return nil
}

func (m *mockDrawer) TextureCreator() gpucontext.TextureCreator {
	if m.creator == nil {
		return nil
	}
	return m.creator
}

func newTestCanvas(t *testing.T, w, h int) *Canvas {
	t.Helper()
	c, err := New(newMockProvider(), w, h, gx.WithBackgroundColor(gx.White))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		provider gpucontext.DeviceProvider
		width    int
		height   int
		wantErr  error
	}{
		{"valid", newMockProvider(), 64, 32, nil},
		{"nil provider", nil, 64, 32, ErrNilProvider},
		{"zero width", newMockProvider(), 0, 32, ErrInvalidDimensions},
		{"negative height", newMockProvider(), 64, -1, ErrInvalidDimensions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.provider, tt.width, tt.height)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer c.Close()
			if w, h := c.Size(); w != tt.width || h != tt.height {
				t.Errorf("Size() = %dx%d, want %dx%d", w, h, tt.width, tt.height)
			}
			if !c.IsDirty() {
				t.Error("new canvas should be dirty")
			}
			if c.Backend() != backend.Software {
				t.Errorf("Backend() = %q, want %q", c.Backend(), backend.Software)
			}
		})
	}
}

func TestNewBackendSelection(t *testing.T) {
	p := newHALProvider(t)
	c, err := New(p, 16, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	if c.Backend() != backend.WGPU {
		t.Errorf("Backend() = %q, want %q", c.Backend(), backend.WGPU)
	}

	p.info.Type = gpucontext.AdapterTypeSoftware
	s, err := New(p, 16, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	if s.Backend() != backend.Software {
		t.Errorf("software adapter Backend() = %q, want %q", s.Backend(), backend.Software)
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustNew(nil) did not panic")
		}
	}()
	MustNew(nil, 10, 10)
}

func TestRenderToCreatesTexture(t *testing.T) {
	c := newTestCanvas(t, 8, 4)
	if err := c.Draw(func(ctx *gx.Context) {
		ctx.DrawRectangle(gx.Pt(0, 0), 8, 4, gx.Red)
	}); err != nil {
		t.Fatal(err)
	}

	dc := &mockDrawer{creator: &mockCreator{}}
	if err := c.RenderToPosition(dc, 3, 5); err != nil {
		t.Fatalf("RenderToPosition: %v", err)
	}
	if len(dc.creator.textures) != 1 {
		t.Fatalf("textures created = %d, want 1", len(dc.creator.textures))
	}
	tex := dc.creator.textures[0]
	if tex.width != 8 || tex.height != 4 || len(tex.data) != 8*4*4 {
		t.Fatalf("texture = %dx%d with %d bytes, want 8x4 with 128", tex.width, tex.height, len(tex.data))
	}
	if got := tex.data[:4]; got[0] != 0xff || got[1] != 0 || got[2] != 0 || got[3] != 0xff {
		t.Errorf("first pixel = %v, want opaque red", got)
	}
	if dc.drawn != tex || dc.x != 3 || dc.y != 5 {
		t.Errorf("drawn %v at (%v, %v), want texture at (3, 5)", dc.drawn, dc.x, dc.y)
	}
	if c.IsDirty() {
		t.Error("canvas dirty after render")
	}
}

func TestFlushUpdatesOnlyWhenDirty(t *testing.T) {
	c := newTestCanvas(t, 4, 4)
	dc := &mockDrawer{creator: &mockCreator{}}
	if err := c.RenderTo(dc); err != nil {
		t.Fatal(err)
	}
	tex := dc.creator.textures[0]

	if err := c.RenderTo(dc); err != nil {
		t.Fatal(err)
	}
	if tex.updated != 0 {
		t.Errorf("clean canvas uploaded %d times", tex.updated)
	}

	c.MarkDirty()
	if err := c.RenderTo(dc); err != nil {
		t.Fatal(err)
	}
	if tex.updated != 1 {
		t.Errorf("updates = %d, want 1", tex.updated)
	}
	if len(dc.creator.textures) != 1 {
		t.Errorf("textures created = %d, want 1", len(dc.creator.textures))
	}
	if dc.draws != 3 {
		t.Errorf("draws = %d, want 3", dc.draws)
	}
}

func TestResize(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		wantErr error
		replace bool
	}{
		{"same size", 4, 4, nil, false},
		{"grow", 8, 6, nil, true},
		{"invalid", 0, 6, ErrInvalidDimensions, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCanvas(t, 4, 4)
			dc := &mockDrawer{creator: &mockCreator{}}
			if err := c.RenderTo(dc); err != nil {
				t.Fatal(err)
			}
			first := dc.creator.textures[0]

			err := c.Resize(tt.w, tt.h)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Resize() error = %v, want %v", err, tt.wantErr)
			}
			if err := c.RenderTo(dc); err != nil {
				t.Fatal(err)
			}
			created := len(dc.creator.textures) == 2
			if created != tt.replace {
				t.Fatalf("texture replaced = %v, want %v", created, tt.replace)
			}
			if !tt.replace {
				return
			}
			if !first.destroyed {
				t.Error("old texture not destroyed after replacement")
			}
			if second := dc.creator.textures[1]; second.width != tt.w || second.height != tt.h {
				t.Errorf("new texture = %dx%d, want %dx%d", second.width, second.height, tt.w, tt.h)
			}
		})
	}
}

func TestRenderErrors(t *testing.T) {
	c := newTestCanvas(t, 4, 4)
	if err := c.RenderTo(&mockDrawer{}); !errors.Is(err, ErrInvalidRenderer) {
		t.Errorf("RenderTo without creator = %v, want %v", err, ErrInvalidRenderer)
	}
	failing := &mockDrawer{creator: &mockCreator{failNext: true}}
	if err := c.RenderTo(failing); err == nil {
		t.Error("RenderTo with failing creator = nil, want error")
	}
	if err := c.RenderTo(failing); err != nil {
		t.Errorf("RenderTo retry = %v", err)
	}
}

func TestClose(t *testing.T) {
	c := newTestCanvas(t, 4, 4)
	dc := &mockDrawer{creator: &mockCreator{}}
	if err := c.RenderTo(dc); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if !dc.creator.textures[0].destroyed {
		t.Error("texture not destroyed by Close")
	}
	if c.Context() != nil || c.Provider() != nil {
		t.Error("closed canvas still exposes context or provider")
	}
	if err := c.Draw(func(*gx.Context) {}); !errors.Is(err, ErrCanvasClosed) {
		t.Errorf("Draw after Close = %v", err)
	}
	if _, err := c.Flush(); !errors.Is(err, ErrCanvasClosed) {
		t.Errorf("Flush after Close = %v", err)
	}
	if err := c.Resize(2, 2); !errors.Is(err, ErrCanvasClosed) {
		t.Errorf("Resize after Close = %v", err)
	}
	if err := c.RenderTo(dc); !errors.Is(err, ErrCanvasClosed) {
		t.Errorf("RenderTo after Close = %v", err)
	}
}
