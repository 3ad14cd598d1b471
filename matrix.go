package gx

import "math"

// Matrix represents a 2D affine transformation matrix.
// It uses a 2x3 matrix in row-major order:
//
//	| a  b  c |
//	| d  e  f |
//
// This represents the transformation:
//
//	x' = a*x + b*y + c
//	y' = d*x + e*y + f
type Matrix struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transformation matrix.
func Identity() Matrix {
	return Matrix{A: 1, E: 1}
}

// Translate creates a translation matrix.
func Translate(x, y float64) Matrix {
	return Matrix{A: 1, C: x, E: 1, F: y}
}

// Scale creates a scaling matrix.
func Scale(x, y float64) Matrix {
	return Matrix{A: x, E: y}
}

// Rotate creates a rotation matrix (angle in radians). Positive angles turn
// clockwise on screen because y grows downwards.
func Rotate(angle float64) Matrix {
	sin, cos := math.Sincos(angle)
	return Matrix{
		A: cos, B: -sin,
		D: sin, E: cos,
	}
}

// Multiply multiplies two matrices (m * other). The result applies other
// first, then m.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// TransformPoint applies the transformation to a point.
func (m Matrix) TransformPoint(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// TransformVector applies the transformation to a vector (no translation).
func (m Matrix) TransformVector(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y,
		Y: m.D*p.X + m.E*p.Y,
	}
}

// Invert returns the inverse matrix.
// Returns the identity matrix if the matrix is not invertible.
func (m Matrix) Invert() Matrix {
	det := m.A*m.E - m.B*m.D
	if math.Abs(det) < 1e-10 {
		return Identity()
	}

	inv := 1.0 / det
	return Matrix{
		A: m.E * inv,
		B: -m.B * inv,
		C: (m.B*m.F - m.C*m.E) * inv,
		D: -m.D * inv,
		E: m.A * inv,
		F: (m.C*m.D - m.A*m.F) * inv,
	}
}

// IsIdentity returns true if the matrix is the identity matrix.
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}

// The in-place operations right-multiply, so each one acts in the local
// space established by the calls before it.

func (m *Matrix) translate(x, y float64) {
	m.C += m.A*x + m.B*y
	m.F += m.D*x + m.E*y
}

func (m *Matrix) rotate(angle float64) {
	sin, cos := math.Sincos(angle)
	a, b, d, e := m.A, m.B, m.D, m.E
	m.A = a*cos + b*sin
	m.B = b*cos - a*sin
	m.D = d*cos + e*sin
	m.E = e*cos - d*sin
}

func (m *Matrix) scale(x, y float64) {
	m.A *= x
	m.D *= x
	m.B *= y
	m.E *= y
}

// Mat4 is a column-major 4x4 matrix in the layout shader uniforms expect.
type Mat4 [16]float32

// Ortho returns an orthographic projection mapping the box
// [left,right]x[bottom,top]x[near,far] onto clip space.
func Ortho(left, right, bottom, top, near, far float64) Mat4 {
	var m Mat4
	m[0] = float32(2 / (right - left))
	m[5] = float32(2 / (top - bottom))
	m[10] = float32(-2 / (far - near))
	m[12] = float32(-(right + left) / (right - left))
	m[13] = float32(-(top + bottom) / (top - bottom))
	m[14] = float32(-(far + near) / (far - near))
	m[15] = 1
	return m
}

// ScreenProjection returns the projection for a width x height surface with
// the origin at the top-left corner and y growing downwards.
func ScreenProjection(width, height int) Mat4 {
	return Ortho(0, float64(width), float64(height), 0, 400, -400)
}

// Apply transforms (x, y, 0, 1) and returns the clip-space x and y.
func (m Mat4) Apply(x, y float64) (float64, float64) {
	fx, fy := float32(x), float32(y)
	return float64(m[0]*fx + m[4]*fy + m[12]), float64(m[1]*fx + m[5]*fy + m[13])
}
