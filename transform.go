package gx

import "github.com/gogpu/gx/internal/pool"

// TransformStack is a save/restore stack of affine transforms.
//
// Save pushes the current transform and continues with a copy of it, so
// composition carries into nested scopes. Cells come from a frame pool that
// Done reclaims; callers never see the cells themselves.
type TransformStack struct {
	pool    *pool.Pool[Matrix]
	saved   []*Matrix
	current *Matrix
	root    Matrix
}

// NewTransformStack returns a stack whose current transform is the identity.
func NewTransformStack() *TransformStack {
	s := &TransformStack{
		pool: pool.New(func() *Matrix { return new(Matrix) }, pool.DefaultMaxObjects),
		root: Identity(),
	}
	s.current = &s.root
	return s
}

// Save pushes the current transform.
func (s *TransformStack) Save() {
	s.saved = append(s.saved, s.current)
	next := s.pool.Get()
	*next = *s.current
	s.current = next
}

// Restore discards the current transform and pops the last saved one.
// On an empty stack it returns ErrStackUnderflow and changes nothing.
func (s *TransformStack) Restore() error {
	n := len(s.saved)
	if n == 0 {
		return ErrStackUnderflow
	}
	s.current = s.saved[n-1]
	s.saved[n-1] = nil
	s.saved = s.saved[:n-1]
	return nil
}

// Translate composes a translation onto the current transform.
func (s *TransformStack) Translate(x, y float64) { s.current.translate(x, y) }

// Rotate composes a rotation (radians) onto the current transform.
func (s *TransformStack) Rotate(angle float64) { s.current.rotate(angle) }

// Scale composes a scale onto the current transform.
func (s *TransformStack) Scale(x, y float64) { s.current.scale(x, y) }

// Reset sets the current transform to the identity.
func (s *TransformStack) Reset() { *s.current = Identity() }

// Current returns a copy of the current transform.
func (s *TransformStack) Current() Matrix { return *s.current }

// SetCurrent replaces the current transform with a copy of m.
func (s *TransformStack) SetCurrent(m Matrix) { *s.current = m }

// Depth returns the number of saved transforms.
func (s *TransformStack) Depth() int { return len(s.saved) }

// Done reclaims the frame's pool cells. Transforms that are still live
// are moved out of the pool first so nothing aliases a recycled cell.
func (s *TransformStack) Done() {
	if len(s.saved) == 0 {
		s.root = *s.current
		s.current = &s.root
		s.pool.Done()
		return
	}
	live := make([]*Matrix, 0, len(s.saved)+1)
	for _, m := range s.saved {
		if m != &s.root {
			live = append(live, m)
		}
	}
	if s.current != &s.root {
		live = append(live, s.current)
	}
	s.pool.Done(live...)
}
