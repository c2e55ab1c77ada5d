package model

import "fmt"

// State is a piece of persistent memory with a fixed shape, an initial
// condition and an optional derivative function. States occupy a
// contiguous, disjoint slice of the global state vector; the slice offset
// is assigned by the owning system at creation time and never changes.
//
// A state with a nil derivative function is constant between discrete
// updates and changes only through event responses.
type State struct {
	system  *System
	path    string
	shape   Shape
	index   int
	offset  int
	initial []float64
	deriv   SignalFunc
}

// NewState creates a state under the given owner. A nil initial condition
// means zero; otherwise its length must match the shape. The derivative
// function may be nil.
func NewState(owner Owner, name string, shape Shape, initial []float64, deriv SignalFunc) (*State, error) {
	if initial == nil {
		initial = make([]float64, shape.Size())
	} else if len(initial) != shape.Size() {
		return nil, fmt.Errorf("%w: initial condition of state %q has %d lines, shape is %d",
			ErrShapeMismatch, childPath(owner, name), len(initial), shape)
	} else {
		ic := make([]float64, len(initial))
		copy(ic, initial)
		initial = ic
	}
	sys := owner.System()
	st := &State{
		system:  sys,
		path:    childPath(owner, name),
		shape:   shape,
		index:   len(sys.states),
		offset:  sys.allocateStateLines(shape.Size()),
		initial: initial,
		deriv:   deriv,
	}
	sys.states = append(sys.states, st)
	return st, nil
}

// Shape implements Producer.
func (st *State) Shape() Shape { return st.shape }

// Path implements Producer.
func (st *State) Path() string { return st.path }

// Offset returns the first line of this state in the state vector.
func (st *State) Offset() int { return st.offset }

// Slice returns the view of x occupied by this state.
func (st *State) Slice(x []float64) []float64 {
	return x[st.offset : st.offset+st.shape.Size()]
}
