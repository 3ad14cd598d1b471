package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/gx"
	"github.com/gogpu/gx/text"
)

// render draws s on the named backend and reads the frame back.
func render(s *Scene, backendName string) (*image.NRGBA, error) {
	opts := []gx.ContextOption{
		gx.WithBackend(backendName),
		gx.WithSmoothing(s.Smoothing),
	}
	if s.Background != "" {
		bg, _ := parseColor(s.Background)
		opts = append(opts, gx.WithBackgroundColor(bg))
	}
	if s.Transparent != nil {
		opts = append(opts, gx.WithTransparency(*s.Transparent))
	}
	ctx, err := gx.NewContext(s.Width, s.Height, opts...)
	if err != nil {
		return nil, err
	}
	defer ctx.Close()

	if err := ctx.Clear(); err != nil {
		return nil, err
	}
	images := map[string]*gx.Image{}
	for i, it := range s.Items {
		if err := drawItem(ctx, s, it, images); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	if err := ctx.Flush(); err != nil {
		return nil, err
	}
	d := ctx.Diagnostics()
	gx.Logger().Info("scene rendered", "backend", ctx.Backend(), "items", len(s.Items),
		"drawCalls", d.DrawCallCount, "primitives", d.DrawnImagesCount)
	return ctx.Snapshot()
}

func drawItem(ctx *gx.Context, s *Scene, it *Item, images map[string]*gx.Image) error {
	ctx.Save()
	defer func() { _ = ctx.Restore() }()

	ctx.Translate(it.X, it.Y)
	if it.Rotation != 0 {
		ctx.Rotate(it.Rotation * math.Pi / 180)
	}
	ctx.SetZ(it.Z)
	if it.Opacity != nil {
		ctx.SetOpacity(*it.Opacity)
	}

	origin := gx.Pt(0, 0)
	switch it.Type {
	case itemRectangle:
		return ctx.Draw(gx.RectangleCommand{
			Pos: origin, Width: it.Width, Height: it.Height, Color: it.color,
			BorderRadius: it.BorderRadius, Stroke: it.stroke, StrokeThickness: it.StrokeThickness,
		})
	case itemCircle:
		return ctx.Draw(gx.CircleCommand{
			Pos: origin, Radius: it.Radius, Color: it.color,
			Stroke: it.stroke, StrokeThickness: it.StrokeThickness,
		})
	case itemLine:
		ctx.DrawLine(origin, gx.Pt(it.X2-it.X, it.Y2-it.Y), it.color, it.Thickness)
	case itemPoint:
		size := it.Size
		if size <= 0 {
			size = 4
		}
		return ctx.Draw(gx.PointCommand{Pos: origin, Color: it.color, Size: size})
	case itemText:
		font := text.Regular()
		if it.Font == "mono" {
			font = text.Mono()
		}
		size := it.Size
		if size <= 0 {
			size = 16
		}
		ctx.DrawText(font, it.Text, origin, it.color, size)
	case itemImage:
		img, err := loadImage(filepath.Join(s.dir, it.Image), images)
		if err != nil {
			return err
		}
		if it.Width > 0 && it.Height > 0 {
			ctx.DrawImageSize(img, 0, 0, it.Width, it.Height)
		} else {
			ctx.DrawImage(img, 0, 0)
		}
	}
	return nil
}

func loadImage(path string, cache map[string]*gx.Image) (*gx.Image, error) {
	if img, ok := cache[path]; ok {
		return img, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	img := gx.NewImage(src)
	cache[path] = img
	return img, nil
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
