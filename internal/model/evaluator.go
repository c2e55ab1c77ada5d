package model

import (
	"fmt"
	"strings"
)

type resolution uint8

const (
	unresolved resolution = iota
	inProgress
	resolved
)

// Evaluator resolves signal, port and state values against a single
// snapshot (time, state vector). Values are memoized within the snapshot,
// so each signal function runs at most once per evaluator; circular
// dependencies among signals and ports are detected and reported as
// algebraic loops. State reads return slices of the snapshot vector
// directly, which is what breaks feedback cycles through integrators.
//
// An evaluator must not be reused for a different snapshot: construct a
// fresh one per (t, x) pair.
type Evaluator struct {
	sys   *System
	start float64
	t     float64
	x     []float64

	signalStatus []resolution
	signalValues [][]float64
	portStatus   []resolution
	chain        []string

	ctx Context
	err error
}

// NewEvaluator creates an evaluator for the snapshot (t, x). The length
// of x must match the system's declared number of state lines. The
// simulation start time defaults to t; see SetStart.
func NewEvaluator(sys *System, t float64, x []float64) *Evaluator {
	e := &Evaluator{
		sys:          sys,
		start:        t,
		t:            t,
		x:            x,
		signalStatus: make([]resolution, len(sys.signals)),
		signalValues: make([][]float64, len(sys.signals)),
		portStatus:   make([]resolution, len(sys.ports)),
	}
	e.ctx = Context{ev: e}
	if len(x) != sys.NumStates() {
		e.err = fmt.Errorf("%w: got %d lines, system declares %d",
			ErrStateVectorSize, len(x), sys.NumStates())
	}
	return e
}

// SetStart overrides the simulation start time used for Context.Elapsed.
// Must be called before the first value is resolved.
func (e *Evaluator) SetStart(t0 float64) { e.start = t0 }

// Time returns the snapshot time.
func (e *Evaluator) Time() float64 { return e.t }

// StateVector returns the snapshot state vector.
func (e *Evaluator) StateVector() []float64 { return e.x }

// Err returns the first error recorded during evaluation, if any.
func (e *Evaluator) Err() error { return e.err }

// Value resolves the value of a signal, port or state, shape-checked
// against its declared shape.
func (e *Evaluator) Value(p Producer) ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	return p.resolve(e)
}

// Derivatives evaluates all declared state derivative functions and
// assembles them into a derivative vector. States without a derivative
// function contribute zero.
func (e *Evaluator) Derivatives() ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	dxdt := make([]float64, e.sys.NumStates())
	for _, st := range e.sys.states {
		if st.deriv == nil {
			continue
		}
		v := st.deriv(&e.ctx)
		if e.err != nil {
			return nil, e.err
		}
		if len(v) != st.shape.Size() {
			return nil, fmt.Errorf("%w: derivative of state %q returned %d lines, shape is %d",
				ErrShapeMismatch, st.path, len(v), st.shape)
		}
		copy(dxdt[st.offset:], v)
	}
	return dxdt, nil
}

// Outputs evaluates every signal in the system into the flat output
// vector laid out by the signals' declared offsets.
func (e *Evaluator) Outputs() ([]float64, error) {
	out := make([]float64, e.sys.NumOutputs())
	for _, sig := range e.sys.signals {
		v, err := e.Value(sig)
		if err != nil {
			return nil, err
		}
		copy(out[sig.offset:], v)
	}
	return out, nil
}

// Events evaluates every event function into the global event vector.
func (e *Evaluator) Events() ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	vals := make([]float64, e.sys.NumEvents())
	for i, evt := range e.sys.events {
		vals[i] = evt.fn(&e.ctx)
		if e.err != nil {
			return nil, e.err
		}
	}
	return vals, nil
}

// ApplyUpdate runs the event's state-update function against this
// snapshot and returns the resulting state vector. The update starts from
// a copy of the snapshot state, so an event without an update function
// leaves the state unchanged.
func (e *Evaluator) ApplyUpdate(evt *Event) ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	u := &UpdateContext{
		Context: Context{ev: e},
		next:    append([]float64(nil), e.x...),
	}
	if evt.update != nil {
		evt.update(u)
	}
	if e.err != nil {
		return nil, e.err
	}
	return u.next, nil
}

func (e *Evaluator) loopError(path string) error {
	cycle := append(append([]string(nil), e.chain...), path)
	return fmt.Errorf("%w: %s", ErrAlgebraicLoop, strings.Join(cycle, " -> "))
}

func (s *Signal) resolve(e *Evaluator) ([]float64, error) {
	switch e.signalStatus[s.index] {
	case resolved:
		return e.signalValues[s.index], nil
	case inProgress:
		return nil, e.loopError(s.path)
	}
	if s.fn == nil {
		e.signalStatus[s.index] = resolved
		e.signalValues[s.index] = s.value
		return s.value, nil
	}
	e.signalStatus[s.index] = inProgress
	e.chain = append(e.chain, s.path)
	v := s.fn(&e.ctx)
	e.chain = e.chain[:len(e.chain)-1]
	if e.err != nil {
		return nil, e.err
	}
	if len(v) != s.shape.Size() {
		return nil, fmt.Errorf("%w: signal %q returned %d lines, shape is %d",
			ErrShapeMismatch, s.path, len(v), s.shape)
	}
	e.signalStatus[s.index] = resolved
	e.signalValues[s.index] = v
	return v, nil
}

func (p *Port) resolve(e *Evaluator) ([]float64, error) {
	if p.producer == nil {
		return nil, fmt.Errorf("%w: %s port %q read during evaluation",
			ErrPortNotConnected, p.kind, p.path)
	}
	if e.portStatus[p.index] == inProgress {
		return nil, e.loopError(p.path)
	}
	e.portStatus[p.index] = inProgress
	e.chain = append(e.chain, p.path)
	v, err := p.producer.resolve(e)
	e.chain = e.chain[:len(e.chain)-1]
	e.portStatus[p.index] = resolved
	return v, err
}

func (st *State) resolve(e *Evaluator) ([]float64, error) {
	return st.Slice(e.x), nil
}

// Context is the read-only surface passed to user-supplied signal,
// derivative and event functions. Read errors (unconnected ports,
// algebraic loops, shape mismatches) stick to the underlying evaluator
// and abort the enclosing top-level evaluation; the failed read itself
// returns a zero value so user functions need no error plumbing.
type Context struct {
	ev *Evaluator
}

// Time returns the snapshot time.
func (c *Context) Time() float64 { return c.ev.t }

// Elapsed returns the time since simulation start.
func (c *Context) Elapsed() float64 { return c.ev.t - c.ev.start }

// Value reads a signal or port, resolving its dependencies transitively.
func (c *Context) Value(p Producer) []float64 {
	if c.ev.err != nil {
		return make([]float64, p.Shape().Size())
	}
	v, err := p.resolve(c.ev)
	if err != nil {
		c.ev.err = err
		return make([]float64, p.Shape().Size())
	}
	return v
}

// State reads the slice of the snapshot state vector occupied by st.
func (c *Context) State(st *State) []float64 { return st.Slice(c.ev.x) }

// UpdateContext is passed to event update functions. It adds write access
// to a pending copy of the state vector on top of the usual read surface.
type UpdateContext struct {
	Context
	next []float64
}

// Set overwrites the value of st in the pending state vector.
func (u *UpdateContext) Set(st *State, v []float64) {
	if u.ev.err != nil {
		return
	}
	if len(v) != st.shape.Size() {
		u.ev.err = fmt.Errorf("%w: update of state %q given %d lines, shape is %d",
			ErrShapeMismatch, st.path, len(v), st.shape)
		return
	}
	copy(u.next[st.offset:], v)
}
