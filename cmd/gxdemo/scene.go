package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/gx"
)

// Item types.
const (
	itemRectangle = "rectangle"
	itemCircle    = "circle"
	itemLine      = "line"
	itemPoint     = "point"
	itemText      = "text"
	itemImage     = "image"
)

var (
	errUnknownFormat = errors.New("unknown scene format")
	errUnknownItem   = errors.New("unknown item type")
	errBadColor      = errors.New("bad color")
)

// Scene is the decoded scene file.
type Scene struct {
	Width       int     `toml:"width" yaml:"width"`
	Height      int     `toml:"height" yaml:"height"`
	Background  string  `toml:"background" yaml:"background"`
	Smoothing   bool    `toml:"smoothing" yaml:"smoothing"`
	Transparent *bool   `toml:"transparent" yaml:"transparent"`
	Items       []*Item `toml:"items" yaml:"items"`

	dir string
}

// Item is one drawable of a scene. Positions are in pixels and Rotation is
// in degrees around (X, Y).
type Item struct {
	Type            string   `toml:"type" yaml:"type"`
	X               float64  `toml:"x" yaml:"x"`
	Y               float64  `toml:"y" yaml:"y"`
	X2              float64  `toml:"x2" yaml:"x2"`
	Y2              float64  `toml:"y2" yaml:"y2"`
	Width           float64  `toml:"width" yaml:"width"`
	Height          float64  `toml:"height" yaml:"height"`
	Radius          float64  `toml:"radius" yaml:"radius"`
	BorderRadius    float64  `toml:"border_radius" yaml:"border_radius"`
	Color           string   `toml:"color" yaml:"color"`
	Stroke          string   `toml:"stroke" yaml:"stroke"`
	StrokeThickness float64  `toml:"stroke_thickness" yaml:"stroke_thickness"`
	Thickness       float64  `toml:"thickness" yaml:"thickness"`
	Size            float64  `toml:"size" yaml:"size"`
	Text            string   `toml:"text" yaml:"text"`
	Font            string   `toml:"font" yaml:"font"`
	Image           string   `toml:"image" yaml:"image"`
	Z               int      `toml:"z" yaml:"z"`
	Opacity         *float64 `toml:"opacity" yaml:"opacity"`
	Rotation        float64  `toml:"rotation" yaml:"rotation"`

	color, stroke gx.RGBA
}

// loadScene reads a .toml, .yaml or .yml scene file.
func loadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := parseScene(filepath.Ext(path), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

func parseScene(ext string, data []byte) (*Scene, error) {
	s := &Scene{}
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, s); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w %q", errUnknownFormat, ext)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// validate fills defaults and resolves colors.
func (s *Scene) validate() error {
	if s.Width <= 0 {
		s.Width = 800
	}
	if s.Height <= 0 {
		s.Height = 600
	}
	if s.Background != "" {
		if _, err := parseColor(s.Background); err != nil {
			return fmt.Errorf("background: %w", err)
		}
	}
	for i, it := range s.Items {
		if err := it.validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func (it *Item) validate() error {
	switch it.Type {
	case itemRectangle, itemCircle, itemLine, itemPoint, itemText, itemImage:
	default:
		return fmt.Errorf("%w %q", errUnknownItem, it.Type)
	}
	var err error
	if it.color, err = parseColor(it.Color); err != nil {
		return err
	}
	if it.Stroke != "" {
		if it.stroke, err = parseColor(it.Stroke); err != nil {
			return err
		}
	}
	return nil
}

// parseColor accepts an SVG color name or a hex color. Empty is white.
func parseColor(s string) (gx.RGBA, error) {
	if s == "" {
		return gx.White, nil
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return gx.FromColor(c), nil
	}
	hex := strings.TrimPrefix(s, "#")
	switch len(hex) {
	case 3, 4, 6, 8:
	default:
		return gx.RGBA{}, fmt.Errorf("%w %q", errBadColor, s)
	}
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return gx.RGBA{}, fmt.Errorf("%w %q", errBadColor, s)
		}
	}
	return gx.Hex(hex), nil
}
