package gx

// State is the per-draw state captured with every draw call.
type State struct {
	// Opacity multiplies the alpha of everything drawn, in [0, 1].
	Opacity float64
	// Z is the layer index. Lower layers are submitted first.
	Z int
}

// DefaultState is the state of a fresh stack.
var DefaultState = State{Opacity: 1}

// StateStack is a save/restore stack of State values.
type StateStack struct {
	saved   []State
	current State
}

// NewStateStack returns a stack holding DefaultState.
func NewStateStack() *StateStack {
	return &StateStack{current: DefaultState}
}

// Save pushes a copy of the current state.
func (s *StateStack) Save() {
	s.saved = append(s.saved, s.current)
}

// Restore pops the last saved state. On an empty stack it returns
// ErrStackUnderflow and changes nothing.
func (s *StateStack) Restore() error {
	n := len(s.saved)
	if n == 0 {
		return ErrStackUnderflow
	}
	s.current = s.saved[n-1]
	s.saved = s.saved[:n-1]
	return nil
}

// Current returns the live state for modification.
func (s *StateStack) Current() *State { return &s.current }

// Depth returns the number of saved states.
func (s *StateStack) Depth() int { return len(s.saved) }
