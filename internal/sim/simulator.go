package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/blocksim/internal/model"
	"github.com/san-kum/blocksim/internal/solver"
)

// Simulator drives the hybrid simulation of a system: it advances an
// adaptive ODE integrator, watches the event functions for sign changes
// between steps, locates exact crossing times on the integrator's dense
// output, applies discrete state transitions and restarts integration
// from the post-event state.
//
// A simulator owns its integrator and result exclusively and never
// mutates the declarative model graph. It is not safe for concurrent use.
type Simulator struct {
	sys     *model.System
	start   float64
	tBound  float64
	factory solver.Factory
	root    solver.RootFinder

	integ     solver.Integrator
	status    Status
	err       error
	result    *Result
	observers []Observer
}

// New constructs a simulator and records the initial sample. It fails if
// the explicit initial state has the wrong size or if evaluating the
// initial outputs exposes a structural model error.
func New(sys *model.System, opts Options) (*Simulator, error) {
	factory := opts.Integrator
	if factory == nil {
		factory = solver.NewRK45(solver.RK45Options{})
	}
	root := opts.RootFinder
	if root == nil {
		root = solver.DefaultBrent()
	}

	x0 := opts.InitialState
	if x0 == nil {
		x0 = sys.InitialState()
	} else if len(x0) != sys.NumStates() {
		return nil, fmt.Errorf("%w: initial state has %d lines, system declares %d",
			model.ErrStateVectorSize, len(x0), sys.NumStates())
	} else {
		x0 = append([]float64(nil), x0...)
	}

	tBound := opts.EndTime
	if tBound <= opts.StartTime {
		tBound = math.Inf(1)
	}

	s := &Simulator{
		sys:     sys,
		start:   opts.StartTime,
		tBound:  tBound,
		factory: factory,
		root:    root,
		status:  StatusRunning,
		result:  newResult(sys),
	}

	outputs, err := s.eval(s.start, x0).Outputs()
	if err != nil {
		return nil, err
	}
	s.integ = factory(s.derivative, s.start, x0, tBound)
	s.record(s.start, x0, outputs, -1)
	return s, nil
}

// derivative is the combined state derivative function handed to the
// integrator.
func (s *Simulator) derivative(t float64, x []float64) ([]float64, error) {
	return s.eval(t, x).Derivatives()
}

// eval builds a fresh evaluator for the snapshot (t, x). Every top-level
// evaluation gets its own resolution cache; caches are never shared
// across snapshots.
func (s *Simulator) eval(t float64, x []float64) *model.Evaluator {
	e := model.NewEvaluator(s.sys, t, x)
	e.SetStart(s.start)
	return e
}

// Time returns the current simulation time.
func (s *Simulator) Time() float64 { return s.integ.Time() }

// State returns the current state vector.
func (s *Simulator) State() []float64 { return s.integ.State() }

// Status returns the simulator status.
func (s *Simulator) Status() Status { return s.status }

// Err returns the terminal error of a failed simulator, else nil.
func (s *Simulator) Err() error { return s.err }

// Result returns the trajectory recorded so far. It remains valid and
// complete up to the point of failure even after a failed run.
func (s *Simulator) Result() *Result { return s.result }

// AddObserver registers an observer notified of every recorded sample.
func (s *Simulator) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *Simulator) record(t float64, x, outputs []float64, event int) {
	sample := s.result.append(t, x, outputs, event)
	for _, o := range s.observers {
		o.OnSample(sample)
	}
}

func (s *Simulator) fail(err error) error {
	s.status = StatusFailed
	s.err = err
	return err
}

// structural reports whether err is a model error rather than a
// numerical contingency.
func structural(err error) bool {
	return errors.Is(err, model.ErrAlgebraicLoop) ||
		errors.Is(err, model.ErrPortNotConnected) ||
		errors.Is(err, model.ErrShapeMismatch) ||
		errors.Is(err, model.ErrMultipleProducers) ||
		errors.Is(err, model.ErrStateVectorSize)
}

// Step advances the simulation by one internal integration step,
// processing at most one event: if several event functions change sign
// within the step, only the earliest crossing is handled and the rest are
// re-detected after the restart. A non-nil return means the simulation
// terminated; numerical failures wrap ErrIntegratorFailure or
// ErrRootFinderFailure, structural model errors keep their own sentinels.
func (s *Simulator) Step() error {
	if s.status != StatusRunning {
		if s.err != nil {
			return s.err
		}
		return ErrNotRunning
	}
	if s.integ.Status() == solver.Finished {
		s.status = StatusFinished
		return nil
	}

	tPrev := s.integ.Time()
	ePrev, err := s.eval(tPrev, s.integ.State()).Events()
	if err != nil {
		return s.fail(err)
	}

	if err := s.integ.Step(); err != nil {
		if structural(err) {
			return s.fail(err)
		}
		return s.fail(fmt.Errorf("%w: %w", ErrIntegratorFailure, err))
	}

	t := s.integ.Time()
	x := s.integ.State()
	eNew, err := s.eval(t, x).Events()
	if err != nil {
		return s.fail(err)
	}

	var candidates []int
	for i := range eNew {
		if signum(ePrev[i]) != signum(eNew[i]) {
			candidates = append(candidates, i)
		}
	}

	if len(candidates) == 0 {
		outputs, err := s.eval(t, x).Outputs()
		if err != nil {
			return s.fail(err)
		}
		s.record(t, x, outputs, -1)
		if s.integ.Status() == solver.Finished {
			s.status = StatusFinished
		}
		return nil
	}

	// Locate the exact crossing time of each candidate on the dense
	// output, then process only the earliest one; ties break by
	// ascending event index.
	dense := s.integ.DenseOutput()
	var evalErr error
	eventAt := func(tq float64, idx int) float64 {
		vals, err := s.eval(tq, dense.At(tq)).Events()
		if err != nil {
			if evalErr == nil {
				evalErr = err
			}
			return 0
		}
		return vals[idx]
	}

	eventIdx, eventT := -1, 0.0
	for _, idx := range candidates {
		idx := idx
		tc, err := s.root.Find(func(tq float64) float64 { return eventAt(tq, idx) }, tPrev, t)
		if evalErr != nil {
			return s.fail(evalErr)
		}
		if err != nil {
			return s.fail(fmt.Errorf("%w: event %q in [%g, %g]: %w",
				ErrRootFinderFailure, s.sys.Events()[idx].Path(), tPrev, t, err))
		}
		if eventIdx < 0 || tc < eventT {
			eventIdx, eventT = idx, tc
		}
	}

	// Record the exact crossing, tagged with the triggered event.
	xCross := dense.At(eventT)
	outputs, err := s.eval(eventT, xCross).Outputs()
	if err != nil {
		return s.fail(err)
	}
	s.record(eventT, xCross, outputs, eventIdx)

	// Continue just past the crossing so the same sign change is not
	// detected again on the next step. This can still skip a second,
	// very close crossing inside the epsilon window.
	tNext := eventT + s.root.Tol()/2
	xNext := dense.At(tNext)
	ev := s.eval(tNext, xNext)
	newState, err := ev.ApplyUpdate(s.sys.Events()[eventIdx])
	if err != nil {
		return s.fail(err)
	}

	// Integrators are not re-seeded in place; restart from scratch at
	// the post-event state.
	s.integ = s.factory(s.derivative, tNext, newState, s.tBound)
	return nil
}

// RunUntil steps the simulation until the given time boundary, stopping
// exactly at it. It returns nil on success; on failure it returns the
// terminal error, leaving all samples recorded up to that point in the
// result.
func (s *Simulator) RunUntil(boundary float64) error {
	if s.status == StatusFailed {
		return s.err
	}
	if boundary != s.tBound {
		s.tBound = boundary
		if s.status == StatusFinished && s.integ.Time() < boundary {
			s.status = StatusRunning
		}
		s.integ = s.factory(s.derivative, s.integ.Time(), s.integ.State(), boundary)
	}
	for s.status == StatusRunning && s.integ.Time() < boundary {
		if err := s.Step(); err != nil {
			return err
		}
	}
	if s.status == StatusRunning {
		s.status = StatusFinished
	}
	return nil
}

func signum(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
