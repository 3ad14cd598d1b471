package gx

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/gx/gpu"
)

// CPU renditions of the fs_main entry points in shaders/, for devices that
// shade on the CPU. Varying indices follow each program's attribute list
// after the position.

func rectangleFragment(f gpu.Fragment) ([4]float32, bool) {
	u, v := f.Varying(0), f.Varying(1)
	r := min(max(f.Varying(2), 0), 0.5)
	qx := math32.Abs(u-0.5) - (0.5 - r)
	qy := math32.Abs(v-0.5) - (0.5 - r)
	d := math32.Hypot(max(qx, 0), max(qy, 0)) + min(max(qx, qy), 0) - r
	if d > 0 {
		return [4]float32{}, false
	}
	color := 4
	if t := f.Varying(12); t > 0 && d > -t {
		color = 8
	}
	return shade(f, color, f.Varying(3)), true
}

func circleFragment(f gpu.Fragment) ([4]float32, bool) {
	d := math32.Hypot(f.Varying(0)-0.5, f.Varying(1)-0.5)
	if d > 0.5 {
		return [4]float32{}, false
	}
	color := 3
	if t := f.Varying(11); t > 0 && d > 0.5-t {
		color = 7
	}
	return shade(f, color, f.Varying(2)), true
}

func lineFragment(f gpu.Fragment) ([4]float32, bool) {
	return shade(f, 0, f.Varying(4)), true
}

func pointFragment(f gpu.Fragment) ([4]float32, bool) {
	if math32.Hypot(f.Varying(0)-0.5, f.Varying(1)-0.5) > 0.5 {
		return [4]float32{}, false
	}
	return shade(f, 2, f.Varying(6)), true
}

func textFragment(f gpu.Fragment) ([4]float32, bool) {
	coverage := f.Sample(0, f.Varying(0), f.Varying(1))[3]
	if coverage <= 0 {
		return [4]float32{}, false
	}
	return shade(f, 2, coverage), true
}

func copyFragment(f gpu.Fragment) ([4]float32, bool) {
	return f.Sample(0, f.Varying(0), f.Varying(1)), true
}

func imageFragment(f gpu.Fragment) ([4]float32, bool) {
	units := f.UniformIntArray(texturesUniform)
	if len(units) == 0 {
		return [4]float32{}, false
	}
	idx := f.Varying(2)
	slot := len(units) - 1
	for i := range units {
		if idx <= float32(i)+0.5 {
			slot = i
			break
		}
	}
	c := f.Sample(int(units[slot]), f.Varying(0), f.Varying(1))
	c[3] *= f.Varying(3)
	return c, true
}

// shade reads the color varying starting at i and multiplies its alpha.
func shade(f gpu.Fragment, i int, alpha float32) [4]float32 {
	return [4]float32{f.Varying(i), f.Varying(i + 1), f.Varying(i + 2), f.Varying(i+3) * alpha}
}
