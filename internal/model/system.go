package model

// Shape is the number of scalar lines an entity occupies. Scalar entities
// have shape 1, vector entities a fixed length greater than 1.
type Shape int

// Scalar is the shape of a single-valued entity.
const Scalar Shape = 1

// Size returns the number of scalar lines of the shape.
func (s Shape) Size() int { return int(s) }

// Owner is anything that graph entities can be created under: the System
// itself or a Block nested below it.
type Owner interface {
	// System returns the root system of the owner.
	System() *System
	// Path returns the dotted path of the owner within the system. The
	// root system has the empty path.
	Path() string
}

// System is the root owner of a model. It holds the arenas for all ports,
// signals, states and events and is the sole authority for index
// allocation: state-vector offsets, output-vector offsets and event
// indices are assigned once at entity creation and never change.
type System struct {
	stateLines  int
	outputLines int

	ports   []*Port
	signals []*Signal
	states  []*State
	events  []*Event
}

// NewSystem creates an empty system.
func NewSystem() *System {
	return &System{}
}

// System implements Owner.
func (s *System) System() *System { return s }

// Path implements Owner. The root path is empty.
func (s *System) Path() string { return "" }

// NumStates returns the total number of state-vector lines.
func (s *System) NumStates() int { return s.stateLines }

// NumOutputs returns the total number of output-vector lines.
func (s *System) NumOutputs() int { return s.outputLines }

// NumEvents returns the number of events in the system.
func (s *System) NumEvents() int { return len(s.events) }

// Signals returns all signals in creation order.
func (s *System) Signals() []*Signal { return s.signals }

// States returns all states in creation order.
func (s *System) States() []*State { return s.states }

// Events returns all events in creation order.
func (s *System) Events() []*Event { return s.events }

// InitialState assembles the declared initial conditions of all states
// into a fresh state vector.
func (s *System) InitialState() []float64 {
	x0 := make([]float64, s.stateLines)
	for _, st := range s.states {
		copy(x0[st.offset:st.offset+st.shape.Size()], st.initial)
	}
	return x0
}

// allocateStateLines reserves n contiguous lines in the state vector and
// returns the offset of the first one.
func (s *System) allocateStateLines(n int) int {
	offset := s.stateLines
	s.stateLines += n
	return offset
}

// allocateOutputLines reserves n contiguous lines in the output vector and
// returns the offset of the first one.
func (s *System) allocateOutputLines(n int) int {
	offset := s.outputLines
	s.outputLines += n
	return offset
}

// Block is a purely structural grouping of ports, signals, states and
// events. Blocks let models be composed from reusable sub-models; they
// carry no behavior of their own.
type Block struct {
	system *System
	path   string
}

// NewBlock creates a block under the given owner.
func NewBlock(owner Owner, name string) *Block {
	return &Block{
		system: owner.System(),
		path:   childPath(owner, name),
	}
}

// System implements Owner.
func (b *Block) System() *System { return b.system }

// Path implements Owner.
func (b *Block) Path() string { return b.path }

func childPath(owner Owner, name string) string {
	if owner.Path() == "" {
		return name
	}
	return owner.Path() + "." + name
}
