package sim

import (
	"errors"

	"github.com/san-kum/blocksim/internal/solver"
)

// Status describes the simulator state machine.
type Status int

const (
	StatusRunning Status = iota
	StatusFinished
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusFinished:
		return "finished"
	default:
		return "failed"
	}
}

// Options configures a simulator. Zero-valued strategy fields fall back
// to the built-in defaults.
type Options struct {
	StartTime float64

	// InitialState overrides the system's declared initial conditions.
	InitialState []float64

	// EndTime bounds the integration. A value not greater than StartTime
	// means unbounded; RunUntil narrows it per call.
	EndTime float64

	// Integrator constructs the ODE integrator. Default: solver.NewRK45
	// with its package defaults.
	Integrator solver.Factory

	// RootFinder locates event-function zero crossings on the
	// integrator's dense output. Default: solver.DefaultBrent.
	RootFinder solver.RootFinder
}

// Sample is one recorded trajectory point. Event is the index of the
// event that triggered at this sample, or -1.
type Sample struct {
	Time   float64
	State  []float64
	Output []float64
	Event  int
}

// Observer is notified of every sample recorded by a simulator.
type Observer interface {
	OnSample(Sample)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Sample)

func (f ObserverFunc) OnSample(s Sample) { f(s) }

// Numerical run failures. These are expected operating conditions, not
// model bugs: the simulator surfaces them as returned error values with
// the partial result intact, never as panics. Structural model errors
// pass through unwrapped under the model package sentinels.
var (
	// ErrIntegratorFailure wraps an integrator step failure.
	ErrIntegratorFailure = errors.New("sim: integrator step failed")

	// ErrRootFinderFailure wraps a failure to locate an event crossing.
	ErrRootFinderFailure = errors.New("sim: event localization failed")

	// ErrNotRunning indicates a step was requested on a finished or
	// failed simulator.
	ErrNotRunning = errors.New("sim: simulator is not running")
)
