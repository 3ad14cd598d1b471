// Command gxshaders validates the built-in gx programs and writes them out
// as SPIR-V or GLSL ES 3.00.
//
// Usage:
//
//	gxshaders [options]
//
// Examples:
//
//	gxshaders                          # validate every program
//	gxshaders -o out                   # write out/<name>.spv
//	gxshaders -format glsl -o out      # write out/<name>.vert and out/<name>.frag
//	gxshaders -units 4 -format wgsl    # dump the generated WGSL
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/spirv"

	"github.com/gogpu/gx"
	"github.com/gogpu/gx/gpu"
)

// Output formats.
const (
	formatSPIRV = "spirv"
	formatGLSL  = "glsl"
	formatWGSL  = "wgsl"
)

var errUnknownFormat = errors.New("unknown format")

type config struct {
	units  int
	format string
	out    string
	debug  bool
}

func main() {
	var cfg config
	flag.IntVar(&cfg.units, "units", gpu.MaxTextureUnits, "texture units of the image program")
	flag.StringVar(&cfg.format, "format", formatSPIRV, "output format: spirv, glsl or wgsl")
	flag.StringVar(&cfg.out, "o", "", "output directory (default: validate only)")
	flag.BoolVar(&cfg.debug, "debug", false, "include SPIR-V debug info")
	flag.Usage = usage
	flag.Parse()

	if err := run(cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "gxshaders: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config, w io.Writer) error {
	sources, err := gx.Shaders(cfg.units)
	if err != nil {
		return err
	}
	if cfg.out != "" {
		if err := os.MkdirAll(cfg.out, 0o755); err != nil {
			return err
		}
	}
	for _, name := range slices.Sorted(maps.Keys(sources)) {
		files, err := translate(cfg, sources[name])
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		for _, f := range files {
			path := name + f.ext
			if cfg.out != "" {
				path = filepath.Join(cfg.out, path)
				if err := os.WriteFile(path, f.data, 0o644); err != nil {
					return err
				}
			}
			fmt.Fprintf(w, "%-24s %6d bytes\n", path, len(f.data))
		}
	}
	return nil
}

type output struct {
	ext  string
	data []byte
}

func translate(cfg config, src string) ([]output, error) {
	switch cfg.format {
	case formatSPIRV:
		opts := naga.DefaultOptions()
		opts.SPIRVVersion = spirv.Version1_3
		opts.Debug = cfg.debug
		code, err := naga.CompileWithOptions(src, opts)
		if err != nil {
			return nil, err
		}
		return []output{{".spv", code}}, nil
	case formatGLSL:
		return translateGLSL(src)
	case formatWGSL:
		// Parse and validate so a broken template still fails here.
		if _, err := naga.Compile(src); err != nil {
			return nil, err
		}
		return []output{{".wgsl", []byte(src)}}, nil
	default:
		return nil, fmt.Errorf("%w %q", errUnknownFormat, cfg.format)
	}
}

// translateGLSL emits one GLSL ES 3.00 file per entry point.
func translateGLSL(src string) ([]output, error) {
	ast, err := naga.Parse(src)
	if err != nil {
		return nil, err
	}
	module, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return nil, err
	}
	if errs, err := naga.Validate(module); err != nil {
		return nil, err
	} else if len(errs) > 0 {
		return nil, fmt.Errorf("validate: %v", errs[0])
	}
	var files []output
	for _, ep := range []struct{ name, ext string }{{"vs_main", ".vert"}, {"fs_main", ".frag"}} {
		code, _, err := glsl.Compile(module, glsl.Options{
			LangVersion:        glsl.VersionES300,
			EntryPoint:         ep.name,
			ForceHighPrecision: true,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ep.name, err)
		}
		files = append(files, output{ep.ext, []byte(code)})
	}
	return files, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: gxshaders [options]\n\nOptions:\n")
	flag.PrintDefaults()
}
