package model

import "fmt"

// SignalFunc computes the value of a signal from an evaluation context.
// The returned slice must match the signal's declared shape. Functions
// must be pure: they may read other signals, ports and states through the
// context, but must not retain it or mutate anything.
type SignalFunc func(ctx *Context) []float64

// Producer is anything a port can be connected to and an evaluation
// context can read: a Signal, a State, or another Port acting as a relay.
type Producer interface {
	Shape() Shape
	Path() string

	// resolve computes the producer's value against the given snapshot.
	// Implemented by the entity types in this package only.
	resolve(e *Evaluator) ([]float64, error)
}

// Signal is a named, shaped quantity whose value is either a constant or
// computed by a pure function of the evaluation context. Signals occupy a
// contiguous slice of the system's output vector, assigned at creation.
type Signal struct {
	system *System
	path   string
	shape  Shape
	index  int
	offset int
	fn     SignalFunc
	value  []float64
}

// NewSignal creates a computed signal under the given owner.
func NewSignal(owner Owner, name string, shape Shape, fn SignalFunc) *Signal {
	sys := owner.System()
	s := &Signal{
		system: sys,
		path:   childPath(owner, name),
		shape:  shape,
		index:  len(sys.signals),
		offset: sys.allocateOutputLines(shape.Size()),
		fn:     fn,
	}
	sys.signals = append(sys.signals, s)
	return s
}

// NewConstant creates a constant signal. Its shape is the length of the
// given value.
func NewConstant(owner Owner, name string, value ...float64) *Signal {
	v := make([]float64, len(value))
	copy(v, value)
	s := NewSignal(owner, name, Shape(len(v)), nil)
	s.value = v
	return s
}

// Shape implements Producer.
func (s *Signal) Shape() Shape { return s.shape }

// Path implements Producer.
func (s *Signal) Path() string { return s.path }

// Offset returns the first line of this signal in the output vector.
func (s *Signal) Offset() int { return s.offset }

// PortKind distinguishes input ports, which must be connected to exactly
// one producer to be evaluable, from output ports, which expose a value
// for other components to read.
type PortKind int

const (
	Input PortKind = iota
	Output
)

func (k PortKind) String() string {
	if k == Input {
		return "input"
	}
	return "output"
}

// Port is an abstract addressable quantity with a fixed shape. A port has
// no value of its own; reading it reads its connected producer.
type Port struct {
	system   *System
	path     string
	shape    Shape
	kind     PortKind
	index    int
	producer Producer
}

// NewInput creates an input port under the given owner.
func NewInput(owner Owner, name string, shape Shape) *Port {
	return newPort(owner, name, shape, Input)
}

// NewOutput creates an output port under the given owner.
func NewOutput(owner Owner, name string, shape Shape) *Port {
	return newPort(owner, name, shape, Output)
}

func newPort(owner Owner, name string, shape Shape, kind PortKind) *Port {
	sys := owner.System()
	p := &Port{
		system: sys,
		path:   childPath(owner, name),
		shape:  shape,
		kind:   kind,
		index:  len(sys.ports),
	}
	sys.ports = append(sys.ports, p)
	return p
}

// Shape implements Producer.
func (p *Port) Shape() Shape { return p.shape }

// Path implements Producer.
func (p *Port) Path() string { return p.path }

// Kind returns whether this is an input or an output port.
func (p *Port) Kind() PortKind { return p.kind }

// Producer returns the connected producer, or nil.
func (p *Port) Producer() Producer { return p.producer }

// Connect attaches a producer to the port. Connecting a producer with a
// mismatched shape or connecting a second producer is a construction-time
// error.
func (p *Port) Connect(prod Producer) error {
	if prod.Shape() != p.shape {
		return fmt.Errorf("%w: cannot connect %q (shape %d) to %s port %q (shape %d)",
			ErrShapeMismatch, prod.Path(), prod.Shape(), p.kind, p.path, p.shape)
	}
	if p.producer != nil {
		return fmt.Errorf("%w: %s port %q is already connected to %q",
			ErrMultipleProducers, p.kind, p.path, p.producer.Path())
	}
	p.producer = prod
	return nil
}
