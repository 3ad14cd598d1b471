package gx

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func pointNear(a, b Point) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon
}

func TestMatrixTransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		in   Point
		want Point
	}{
		{"identity", Identity(), Pt(3, 4), Pt(3, 4)},
		{"translate", Translate(10, -5), Pt(1, 1), Pt(11, -4)},
		{"scale", Scale(2, 3), Pt(1, 1), Pt(2, 3)},
		{"rotate quarter turn", Rotate(math.Pi / 2), Pt(1, 0), Pt(0, 1)},
		{"translate then scale", Translate(10, 0).Multiply(Scale(2, 2)), Pt(1, 1), Pt(12, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.TransformPoint(tt.in); !pointNear(got, tt.want) {
				t.Errorf("TransformPoint(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatrixInPlaceMatchesMultiply(t *testing.T) {
	m := Identity()
	m.translate(50, 50)
	m.rotate(math.Pi / 4)
	m.scale(0.5, 2)

	want := Translate(50, 50).Multiply(Rotate(math.Pi / 4)).Multiply(Scale(0.5, 2))
	for _, p := range []Point{Pt(0, 0), Pt(1, 0), Pt(0, 1), Pt(-25, 13)} {
		if got, w := m.TransformPoint(p), want.TransformPoint(p); !pointNear(got, w) {
			t.Errorf("in-place(%v) = %v, Multiply = %v", p, got, w)
		}
	}
}

func TestMatrixInvert(t *testing.T) {
	m := Translate(5, 7).Multiply(Rotate(0.7)).Multiply(Scale(2, 3))
	p := Pt(3, -2)
	if got := m.Invert().TransformPoint(m.TransformPoint(p)); !pointNear(got, p) {
		t.Errorf("round trip = %v, want %v", got, p)
	}
	if got := Scale(0, 1).Invert(); !got.IsIdentity() {
		t.Errorf("singular Invert() = %+v, want identity", got)
	}
}

func TestScreenProjection(t *testing.T) {
	m := ScreenProjection(200, 100)
	tests := []struct {
		name   string
		x, y   float64
		cx, cy float64
	}{
		{"top-left", 0, 0, -1, 1},
		{"bottom-right", 200, 100, 1, -1},
		{"center", 100, 50, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cx, cy := m.Apply(tt.x, tt.y)
			if math.Abs(cx-tt.cx) > 1e-6 || math.Abs(cy-tt.cy) > 1e-6 {
				t.Errorf("Apply(%v, %v) = (%v, %v), want (%v, %v)", tt.x, tt.y, cx, cy, tt.cx, tt.cy)
			}
		})
	}
	if m[15] != 1 {
		t.Errorf("m[15] = %v, want 1", m[15])
	}
}

func TestTransformStackSaveRestore(t *testing.T) {
	s := NewTransformStack()
	s.Translate(1, 2)
	s.Save()
	s.Scale(3, 3)
	s.Save()
	s.Rotate(1)
	if s.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", s.Depth())
	}
	if err := s.Restore(); err != nil {
		t.Fatal(err)
	}
	if got, want := s.Current(), Translate(1, 2).Multiply(Scale(3, 3)); got != want {
		t.Errorf("after one Restore = %+v, want %+v", got, want)
	}
	if err := s.Restore(); err != nil {
		t.Fatal(err)
	}
	if got := s.Current(); got != Translate(1, 2) {
		t.Errorf("after two Restores = %+v", got)
	}
	if err := s.Restore(); err != ErrStackUnderflow {
		t.Errorf("third Restore() = %v, want ErrStackUnderflow", err)
	}
}

func TestTransformStackDoneKeepsLiveTransforms(t *testing.T) {
	s := NewTransformStack()
	s.Translate(1, 0)
	s.Save()
	s.Translate(0, 5)
	s.Save()
	s.Scale(2, 2)
	want := s.Current()

	s.Done()
	for i := 0; i < 8; i++ {
		s.pool.Get().translate(100, 100)
	}
	if got := s.Current(); got != want {
		t.Errorf("current after Done = %+v, want %+v", got, want)
	}
	if err := s.Restore(); err != nil {
		t.Fatal(err)
	}
	if got := s.Current(); got != Translate(1, 5) {
		t.Errorf("saved after Done = %+v, want %+v", got, Translate(1, 5))
	}
}

func TestStateStack(t *testing.T) {
	s := NewStateStack()
	if *s.Current() != DefaultState {
		t.Fatalf("initial state = %+v, want %+v", *s.Current(), DefaultState)
	}
	s.Current().Opacity = 0.5
	s.Save()
	s.Current().Z = 3
	s.Current().Opacity = 0.1
	if err := s.Restore(); err != nil {
		t.Fatal(err)
	}
	if got := *s.Current(); got != (State{Opacity: 0.5}) {
		t.Errorf("restored state = %+v", got)
	}
	if err := s.Restore(); err != ErrStackUnderflow {
		t.Errorf("Restore() = %v, want ErrStackUnderflow", err)
	}
}
