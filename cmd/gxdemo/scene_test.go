package main

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/gx"
	"github.com/gogpu/gx/backend"
)

const tomlScene = `
width = 40
height = 30
background = "#ffffff"

[[items]]
type = "rectangle"
x = 5
y = 5
width = 10
height = 10
color = "blue"

[[items]]
type = "circle"
x = 30
y = 20
radius = 4
color = "#f00"
opacity = 0.5
`

const yamlScene = `
width: 40
height: 30
items:
  - type: line
    x: 0
    y: 0
    x2: 40
    y2: 30
    thickness: 2
    color: "#00ff00"
  - type: text
    x: 2
    y: 20
    text: hi
    font: mono
`

func TestParseScene(t *testing.T) {
	tests := []struct {
		name    string
		ext     string
		data    string
		items   int
		wantErr error
	}{
		{"toml", ".toml", tomlScene, 2, nil},
		{"yaml", ".yaml", yamlScene, 2, nil},
		{"yml", ".YML", yamlScene, 2, nil},
		{"unknown format", ".json", "{}", 0, errUnknownFormat},
		{"unknown item", ".toml", "[[items]]\ntype = \"polygon\"\n", 0, errUnknownItem},
		{"bad color", ".toml", "[[items]]\ntype = \"point\"\ncolor = \"#zzz\"\n", 0, errBadColor},
		{"bad background", ".yaml", "background: notacolor\n", 0, errBadColor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := parseScene(tt.ext, []byte(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("parseScene() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if s.Width != 40 || s.Height != 30 {
				t.Errorf("size = %dx%d, want 40x30", s.Width, s.Height)
			}
			if len(s.Items) != tt.items {
				t.Errorf("items = %d, want %d", len(s.Items), tt.items)
			}
		})
	}
}

func TestParseSceneDefaults(t *testing.T) {
	s, err := parseScene(".toml", []byte("[[items]]\ntype = \"circle\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if s.Width != 800 || s.Height != 600 {
		t.Errorf("size = %dx%d, want 800x600", s.Width, s.Height)
	}
	if s.Items[0].color != gx.White {
		t.Errorf("default color = %v, want white", s.Items[0].color)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    gx.RGBA
		wantErr bool
	}{
		{"", gx.White, false},
		{"#0000ff", gx.Blue, false},
		{"00f", gx.Blue, false},
		{"Red", gx.Red, false},
		{"#12345", gx.RGBA{}, true},
		{"#ggg", gx.RGBA{}, true},
	}
	for _, tt := range tests {
		got, err := parseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRenderScene(t *testing.T) {
	s, err := parseScene(".toml", []byte(tomlScene))
	if err != nil {
		t.Fatal(err)
	}
	img, err := render(s, backend.Software)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := img.NRGBAAt(10, 10); got != (color.NRGBA{0, 0, 255, 255}) {
		t.Errorf("rectangle pixel = %v, want blue", got)
	}
	if got := img.NRGBAAt(1, 1); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("background pixel = %v, want white", got)
	}
}

func TestRenderImageItem(t *testing.T) {
	dir := t.TempDir()
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}
	for i := 1; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1] = 0, 0
	}
	if err := savePNG(filepath.Join(dir, "red.png"), src); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "scene.yaml")
	scene := "width: 8\nheight: 8\nbackground: black\nitems:\n  - type: image\n    image: red.png\n    x: 2\n    y: 2\n"
	if err := os.WriteFile(path, []byte(scene), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := loadScene(path)
	if err != nil {
		t.Fatal(err)
	}
	img, err := render(s, backend.Software)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := img.NRGBAAt(3, 3); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("image pixel = %v, want red", got)
	}
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("outside pixel = %v, want black", got)
	}

	out := filepath.Join(dir, "out.png")
	if err := savePNG(out, img); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 8 || cfg.Height != 8 {
		t.Errorf("saved size = %dx%d, want 8x8", cfg.Width, cfg.Height)
	}
}

func TestRenderDefaultScene(t *testing.T) {
	s := defaultScene()
	s.Width, s.Height = 200, 150
	img, err := render(s, backend.Software)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 150 {
		t.Errorf("bounds = %v, want 200x150", b)
	}
}
