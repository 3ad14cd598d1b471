package gx

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed shaders/rectangle.wgsl
var rectangleShaderSource string

//go:embed shaders/circle.wgsl
var circleShaderSource string

//go:embed shaders/line.wgsl
var lineShaderSource string

//go:embed shaders/point.wgsl
var pointShaderSource string

//go:embed shaders/text.wgsl
var textShaderSource string

//go:embed shaders/copy.wgsl
var copyShaderSource string

//go:embed shaders/image.wgsl.tmpl
var imageShaderTemplate string

var imageShader = template.Must(template.New("image").Parse(imageShaderTemplate))

type textureUnit struct {
	Index, Texture, Sampler int
}

// imageShaderSource generates the image program for the given number of
// texture units.
func imageShaderSource(units int) (string, error) {
	if units < 1 {
		return "", fmt.Errorf("gx: image program needs at least one texture unit, got %d", units)
	}
	data := struct {
		Count    int
		Last     int
		Units    []textureUnit
		Reversed []textureUnit
	}{Count: units, Last: units - 1}
	for i := 0; i < units; i++ {
		data.Units = append(data.Units, textureUnit{Index: i, Texture: 1 + 2*i, Sampler: 2 + 2*i})
	}
	for i := units - 1; i >= 0; i-- {
		data.Reversed = append(data.Reversed, data.Units[i])
	}

	var b strings.Builder
	if err := imageShader.Execute(&b, data); err != nil {
		return "", fmt.Errorf("gx: generate image program: %w", err)
	}
	return b.String(), nil
}

// Shaders returns the WGSL source of every built-in program, keyed by
// renderer name. The image program is generated for textureUnits units.
func Shaders(textureUnits int) (map[string]string, error) {
	img, err := imageShaderSource(textureUnits)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		RendererImage:     img,
		RendererRectangle: rectangleShaderSource,
		RendererCircle:    circleShaderSource,
		RendererLine:      lineShaderSource,
		RendererPoint:     pointShaderSource,
		RendererText:      textShaderSource,
		rendererCopy:      copyShaderSource,
	}, nil
}
