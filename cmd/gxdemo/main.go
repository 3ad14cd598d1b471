// Command gxdemo renders a scene file with gx and saves it as PNG.
//
// Without -scene a built-in scene is drawn. With -watch the scene is
// re-rendered every time the file changes.
//
//	gxdemo -scene scene.toml -output scene.png -watch
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gogpu/gx"
	"github.com/gogpu/gx/backend"
	_ "github.com/gogpu/gx/backend/wgpu"
)

func main() {
	var (
		scenePath = flag.String("scene", "", "scene file (.toml, .yaml or .yml)")
		output    = flag.String("output", "demo.png", "output file")
		backendNm = flag.String("backend", backend.Software, "backend: "+fmt.Sprint(backend.Available()))
		width     = flag.Int("width", 0, "override scene width")
		height    = flag.Int("height", 0, "override scene height")
		watchFlag = flag.Bool("watch", false, "re-render when the scene file changes")
		verbose   = flag.Bool("v", false, "log to stderr")
	)
	flag.Parse()

	if *verbose {
		gx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	build := func() error {
		s := defaultScene()
		if *scenePath != "" {
			var err error
			if s, err = loadScene(*scenePath); err != nil {
				return err
			}
		}
		if *width > 0 {
			s.Width = *width
		}
		if *height > 0 {
			s.Height = *height
		}
		img, err := render(s, *backendNm)
		if err != nil {
			return err
		}
		if err := savePNG(*output, img); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "gxdemo: saved %s (%dx%d)\n", *output, s.Width, s.Height)
		return nil
	}

	if err := build(); err != nil {
		fmt.Fprintf(os.Stderr, "gxdemo: %v\n", err)
		if !*watchFlag {
			os.Exit(1)
		}
	}
	if !*watchFlag || *scenePath == "" {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := watch(ctx, *scenePath, func() {
		if err := build(); err != nil {
			fmt.Fprintf(os.Stderr, "gxdemo: %v\n", err)
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "gxdemo: watch: %v\n", err)
		os.Exit(1)
	}
}

// defaultScene draws a band background, overlapping circles, a ring of
// rotated squares and a caption.
func defaultScene() *Scene {
	s := &Scene{Width: 800, Height: 600, Background: "#176BAA"}
	const bands = 20
	for i := range bands {
		t := float64(i) / bands
		s.Items = append(s.Items, &Item{
			Type: itemRectangle, Y: 600 * t, Width: 800, Height: 600/bands + 1,
			color: gx.RGB(0.1+t*0.4, 0.2+t*0.3, 0.4+t*0.2), Z: -1,
		})
	}
	for i, c := range []gx.RGBA{gx.RGB(1, 0.3, 0.3), gx.RGB(0.3, 1, 0.3), gx.RGB(0.3, 0.3, 1)} {
		op := 0.8
		s.Items = append(s.Items, &Item{
			Type: itemCircle, X: 150 + 50*float64(i%2), Y: 150 + 50*float64(i/2), Radius: 60,
			color: c, Opacity: &op,
		})
	}
	for i := range 8 {
		s.Items = append(s.Items, &Item{
			Type: itemRectangle, X: 600, Y: 150, Width: 40, Height: 40, Rotation: float64(i) * 45,
			color: gx.RGB(1, 0.8-float64(i)*0.08, float64(i)*0.1), BorderRadius: 6,
		})
	}
	s.Items = append(s.Items,
		&Item{Type: itemLine, X: 100, Y: 400, X2: 700, Y2: 420, Thickness: 6, color: gx.RGB(1, 0.5, 0)},
		&Item{Type: itemText, X: 100, Y: 500, Text: "gx batched rendering", Size: 32, color: gx.White},
	)
	return s
}
