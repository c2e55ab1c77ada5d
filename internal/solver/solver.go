// Package solver provides the pluggable numerical strategies used by the
// hybrid simulator: adaptive ODE integration with dense output, and
// bracketed root finding for event localization.
//
// The [Integrator] interface follows the step/dense-output/status shape
// of classic one-step solver libraries: construct an integrator bound to
// a derivative function and a time boundary, advance it one adaptive
// internal step at a time, and interpolate the continuous solution
// anywhere inside the last completed step.
package solver

import "errors"

// Func is the derivative function of an ODE system, dx/dt = f(t, x).
type Func func(t float64, x []float64) ([]float64, error)

// Status describes the integrator lifecycle.
type Status int

const (
	Running Status = iota
	Finished
	Failed
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return "failed"
	}
}

// Interpolant evaluates the continuous solution within the last completed
// step interval.
type Interpolant interface {
	At(t float64) []float64
}

// Integrator advances an initial value problem one adaptive internal step
// at a time, stopping exactly at the time boundary it was constructed
// with.
type Integrator interface {
	// Step advances one internal step. A non-nil error means the
	// integration failed and the integrator is unusable.
	Step() error
	Time() float64
	State() []float64
	Status() Status
	// DenseOutput returns an interpolant valid over the interval of the
	// last completed step.
	DenseOutput() Interpolant
}

// Factory constructs an integrator bound to a derivative function, a
// start point and a time boundary. Simulators restart integration after
// discrete events by calling the factory again; integrators are not
// assumed to support in-place re-seeding.
type Factory func(f Func, t0 float64, x0 []float64, tBound float64) Integrator

// RootFinder locates a zero of a scalar function within a bracketing
// interval.
type RootFinder interface {
	// Find returns t in [a, b] with f(t) approximately zero. f(a) and
	// f(b) must have opposite signs unless one of them is exactly zero.
	Find(f func(float64) float64, a, b float64) (float64, error)
	// Tol returns the absolute tolerance on the returned root.
	Tol() float64
}

var (
	// ErrStepTooSmall indicates the adaptive step size collapsed below
	// the representable minimum near the current time.
	ErrStepTooSmall = errors.New("solver: step size below minimum")

	// ErrNotRunning indicates a step was attempted on a finished or
	// failed integrator.
	ErrNotRunning = errors.New("solver: integrator is not running")

	// ErrNoBracket indicates the root finder was given an interval whose
	// endpoint values do not have opposite signs.
	ErrNoBracket = errors.New("solver: root is not bracketed")

	// ErrMaxIterations indicates the root finder failed to converge
	// within its iteration budget.
	ErrMaxIterations = errors.New("solver: root finder failed to converge")
)
