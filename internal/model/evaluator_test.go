package model

import (
	"errors"
	"strings"
	"testing"
)

func TestSignalMemoization(t *testing.T) {
	sys := NewSystem()
	calls := 0
	src := NewSignal(sys, "src", Scalar, func(ctx *Context) []float64 {
		calls++
		return []float64{2}
	})
	a := NewSignal(sys, "a", Scalar, func(ctx *Context) []float64 {
		return []float64{ctx.Value(src)[0] + 1}
	})
	b := NewSignal(sys, "b", Scalar, func(ctx *Context) []float64 {
		return []float64{ctx.Value(src)[0] * 3}
	})

	ev := NewEvaluator(sys, 0, nil)
	va, err := ev.Value(a)
	if err != nil {
		t.Fatalf("resolve a: %v", err)
	}
	vb, err := ev.Value(b)
	if err != nil {
		t.Fatalf("resolve b: %v", err)
	}
	if va[0] != 3 || vb[0] != 6 {
		t.Errorf("got a=%v b=%v, want 3 and 6", va[0], vb[0])
	}
	if calls != 1 {
		t.Errorf("source evaluated %d times, want 1", calls)
	}

	// A fresh evaluator re-evaluates.
	if _, err := NewEvaluator(sys, 1, nil).Value(a); err != nil {
		t.Fatalf("resolve a at t=1: %v", err)
	}
	if calls != 2 {
		t.Errorf("source evaluated %d times after second snapshot, want 2", calls)
	}
}

func TestConstantSignal(t *testing.T) {
	sys := NewSystem()
	k := NewConstant(sys, "k", 1, 2, 3)
	if k.Shape() != 3 {
		t.Fatalf("constant shape = %d, want 3", k.Shape())
	}
	v, err := NewEvaluator(sys, 0, nil).Value(k)
	if err != nil {
		t.Fatalf("resolve constant: %v", err)
	}
	if v[0] != 1 || v[1] != 2 || v[2] != 3 {
		t.Errorf("constant value = %v", v)
	}
}

func TestAlgebraicLoopDetected(t *testing.T) {
	sys := NewSystem()
	var a, b *Signal
	a = NewSignal(sys, "a", Scalar, func(ctx *Context) []float64 {
		return ctx.Value(b)
	})
	b = NewSignal(sys, "b", Scalar, func(ctx *Context) []float64 {
		return ctx.Value(a)
	})

	_, err := NewEvaluator(sys, 0, nil).Value(a)
	if !errors.Is(err, ErrAlgebraicLoop) {
		t.Fatalf("got %v, want ErrAlgebraicLoop", err)
	}
	if !strings.Contains(err.Error(), "a") || !strings.Contains(err.Error(), "b") {
		t.Errorf("loop error does not name the cycle: %v", err)
	}
}

func TestStateReadBreaksCycle(t *testing.T) {
	sys := NewSystem()
	var gain *Signal
	st, err := NewState(sys, "x", Scalar, []float64{5}, func(ctx *Context) []float64 {
		return ctx.Value(gain)
	})
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	gain = NewSignal(sys, "gain", Scalar, func(ctx *Context) []float64 {
		return []float64{-2 * ctx.State(st)[0]}
	})

	ev := NewEvaluator(sys, 0, []float64{5})
	dxdt, err := ev.Derivatives()
	if err != nil {
		t.Fatalf("derivatives: %v", err)
	}
	if dxdt[0] != -10 {
		t.Errorf("dx/dt = %v, want -10", dxdt[0])
	}
}

func TestStateAsProducer(t *testing.T) {
	sys := NewSystem()
	st, err := NewState(sys, "x", 2, []float64{1, 2}, nil)
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	v, err := NewEvaluator(sys, 0, []float64{7, 8}).Value(st)
	if err != nil {
		t.Fatalf("resolve state: %v", err)
	}
	if v[0] != 7 || v[1] != 8 {
		t.Errorf("state value = %v, want [7 8]", v)
	}
}

func TestPortNotConnected(t *testing.T) {
	sys := NewSystem()
	in := NewInput(sys, "in", Scalar)
	_, err := NewEvaluator(sys, 0, nil).Value(in)
	if !errors.Is(err, ErrPortNotConnected) {
		t.Fatalf("got %v, want ErrPortNotConnected", err)
	}
}

func TestConnectShapeMismatch(t *testing.T) {
	sys := NewSystem()
	in := NewInput(sys, "in", Scalar)
	wide := NewConstant(sys, "wide", 1, 2, 3)
	if err := in.Connect(wide); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("got %v, want ErrShapeMismatch", err)
	}
}

func TestConnectMultipleProducers(t *testing.T) {
	sys := NewSystem()
	in := NewInput(sys, "in", Scalar)
	first := NewConstant(sys, "first", 1)
	second := NewConstant(sys, "second", 2)
	if err := in.Connect(first); err != nil {
		t.Fatalf("first connect: %v", err)
	}
	if err := in.Connect(second); !errors.Is(err, ErrMultipleProducers) {
		t.Fatalf("got %v, want ErrMultipleProducers", err)
	}
}

func TestPortForwardsProducer(t *testing.T) {
	sys := NewSystem()
	in := NewInput(sys, "in", Scalar)
	if err := in.Connect(NewConstant(sys, "k", 4)); err != nil {
		t.Fatalf("connect: %v", err)
	}
	v, err := NewEvaluator(sys, 0, nil).Value(in)
	if err != nil {
		t.Fatalf("resolve port: %v", err)
	}
	if v[0] != 4 {
		t.Errorf("port value = %v, want 4", v[0])
	}
}

func TestSignalShapeChecked(t *testing.T) {
	sys := NewSystem()
	bad := NewSignal(sys, "bad", 2, func(ctx *Context) []float64 {
		return []float64{1}
	})
	_, err := NewEvaluator(sys, 0, nil).Value(bad)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("got %v, want ErrShapeMismatch", err)
	}
}

func TestStateVectorSizeChecked(t *testing.T) {
	sys := NewSystem()
	if _, err := NewState(sys, "x", Scalar, nil, nil); err != nil {
		t.Fatalf("new state: %v", err)
	}
	ev := NewEvaluator(sys, 0, []float64{1, 2})
	if err := ev.Err(); !errors.Is(err, ErrStateVectorSize) {
		t.Fatalf("got %v, want ErrStateVectorSize", err)
	}
	k := NewConstant(sys, "k", 1)
	if _, err := ev.Value(k); !errors.Is(err, ErrStateVectorSize) {
		t.Fatalf("value after size error: got %v, want ErrStateVectorSize", err)
	}
}

func TestElapsed(t *testing.T) {
	sys := NewSystem()
	sig := NewSignal(sys, "elapsed", Scalar, func(ctx *Context) []float64 {
		return []float64{ctx.Elapsed()}
	})
	ev := NewEvaluator(sys, 3, nil)
	ev.SetStart(1)
	v, err := ev.Value(sig)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if v[0] != 2 {
		t.Errorf("elapsed = %v, want 2", v[0])
	}
}

func TestDerivativesDefaultZero(t *testing.T) {
	sys := NewSystem()
	if _, err := NewState(sys, "held", 2, []float64{1, 1}, nil); err != nil {
		t.Fatalf("new state: %v", err)
	}
	dxdt, err := NewEvaluator(sys, 0, []float64{1, 1}).Derivatives()
	if err != nil {
		t.Fatalf("derivatives: %v", err)
	}
	if dxdt[0] != 0 || dxdt[1] != 0 {
		t.Errorf("dx/dt = %v, want zeros", dxdt)
	}
}

func TestApplyUpdate(t *testing.T) {
	sys := NewSystem()
	a, err := NewState(sys, "a", Scalar, []float64{1}, nil)
	if err != nil {
		t.Fatalf("new state a: %v", err)
	}
	if _, err := NewState(sys, "b", Scalar, []float64{2}, nil); err != nil {
		t.Fatalf("new state b: %v", err)
	}
	evt := NewEvent(sys, "flip", func(ctx *Context) float64 { return 0 },
		func(u *UpdateContext) {
			u.Set(a, []float64{-u.State(a)[0]})
		})

	ev := NewEvaluator(sys, 0, []float64{3, 4})
	next, err := ev.ApplyUpdate(evt)
	if err != nil {
		t.Fatalf("apply update: %v", err)
	}
	if next[0] != -3 || next[1] != 4 {
		t.Errorf("next state = %v, want [-3 4]", next)
	}
	if ev.StateVector()[0] != 3 {
		t.Errorf("snapshot mutated: %v", ev.StateVector())
	}
}

func TestUpdateShapeChecked(t *testing.T) {
	sys := NewSystem()
	a, err := NewState(sys, "a", 2, nil, nil)
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	evt := NewEvent(sys, "bad", func(ctx *Context) float64 { return 0 },
		func(u *UpdateContext) {
			u.Set(a, []float64{1})
		})
	_, err = NewEvaluator(sys, 0, []float64{0, 0}).ApplyUpdate(evt)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("got %v, want ErrShapeMismatch", err)
	}
}
