package sim

import "github.com/san-kum/blocksim/internal/model"

// initialCapacity is the number of rows preallocated by a fresh result.
const initialCapacity = 16

// Result is the append-only record of a simulation trajectory: per sample
// a time, the state vector, the output vector and the set of triggered
// events. Backing storage doubles whenever an append would exceed the
// current capacity; accessors expose only the appended prefix. Returned
// slices view the current backing arrays and stay valid until the next
// append, so query freshly rather than holding on to them.
type Result struct {
	numStates  int
	numOutputs int
	numEvents  int

	times   []float64
	states  []float64 // n rows of numStates lines
	outputs []float64 // n rows of numOutputs lines
	events  []bool    // n rows of numEvents flags

	n   int
	cap int
}

func newResult(sys *model.System) *Result {
	r := &Result{
		numStates:  sys.NumStates(),
		numOutputs: sys.NumOutputs(),
		numEvents:  sys.NumEvents(),
		cap:        initialCapacity,
	}
	r.times = make([]float64, r.cap)
	r.states = make([]float64, r.cap*r.numStates)
	r.outputs = make([]float64, r.cap*r.numOutputs)
	r.events = make([]bool, r.cap*r.numEvents)
	return r
}

func (r *Result) grow() {
	r.cap *= 2
	times := make([]float64, r.cap)
	copy(times, r.times)
	r.times = times
	states := make([]float64, r.cap*r.numStates)
	copy(states, r.states)
	r.states = states
	outputs := make([]float64, r.cap*r.numOutputs)
	copy(outputs, r.outputs)
	r.outputs = outputs
	events := make([]bool, r.cap*r.numEvents)
	copy(events, r.events)
	r.events = events
}

// append records one sample. event < 0 means no event triggered.
func (r *Result) append(t float64, state, output []float64, event int) Sample {
	if r.n == r.cap {
		r.grow()
	}
	i := r.n
	r.times[i] = t
	copy(r.states[i*r.numStates:], state)
	copy(r.outputs[i*r.numOutputs:], output)
	if event >= 0 {
		r.events[i*r.numEvents+event] = true
	}
	r.n++
	return Sample{
		Time:   t,
		State:  r.State(i),
		Output: r.Output(i),
		Event:  event,
	}
}

// Len returns the number of recorded samples.
func (r *Result) Len() int { return r.n }

// Times returns the time of each recorded sample.
func (r *Result) Times() []float64 { return r.times[:r.n] }

// State returns the state vector of sample i.
func (r *Result) State(i int) []float64 {
	return r.states[i*r.numStates : (i+1)*r.numStates]
}

// Output returns the output vector of sample i.
func (r *Result) Output(i int) []float64 {
	return r.outputs[i*r.numOutputs : (i+1)*r.numOutputs]
}

// StateSeries returns, per sample, the slice of the state vector occupied
// by st.
func (r *Result) StateSeries(st *model.State) [][]float64 {
	lo, n := st.Offset(), st.Shape().Size()
	rows := make([][]float64, r.n)
	for i := 0; i < r.n; i++ {
		row := r.State(i)
		rows[i] = row[lo : lo+n]
	}
	return rows
}

// SignalSeries returns, per sample, the slice of the output vector
// occupied by sig.
func (r *Result) SignalSeries(sig *model.Signal) [][]float64 {
	lo, n := sig.Offset(), sig.Shape().Size()
	rows := make([][]float64, r.n)
	for i := 0; i < r.n; i++ {
		row := r.Output(i)
		rows[i] = row[lo : lo+n]
	}
	return rows
}

// StateValues returns the first line of st per sample. Convenient for
// plotting scalar states.
func (r *Result) StateValues(st *model.State) []float64 {
	vals := make([]float64, r.n)
	for i := 0; i < r.n; i++ {
		vals[i] = r.State(i)[st.Offset()]
	}
	return vals
}

// SignalValues returns the first line of sig per sample.
func (r *Result) SignalValues(sig *model.Signal) []float64 {
	vals := make([]float64, r.n)
	for i := 0; i < r.n; i++ {
		vals[i] = r.Output(i)[sig.Offset()]
	}
	return vals
}

// EventSeries returns, per sample, whether evt triggered at that sample.
func (r *Result) EventSeries(evt *model.Event) []bool {
	flags := make([]bool, r.n)
	for i := 0; i < r.n; i++ {
		flags[i] = r.events[i*r.numEvents+evt.Index()]
	}
	return flags
}

// EventRow returns the event flags of sample i.
func (r *Result) EventRow(i int) []bool {
	return r.events[i*r.numEvents : (i+1)*r.numEvents]
}
