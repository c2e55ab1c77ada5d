package models

import (
	"math"
	"testing"

	"github.com/san-kum/blocksim/internal/sim"
	"github.com/san-kum/blocksim/internal/solver"
)

func TestRegistryList(t *testing.T) {
	names := NewRegistry().List()
	want := []string{"ball", "propeller", "sampler"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestRegistryUnknown(t *testing.T) {
	if _, err := NewRegistry().Get("warp-drive"); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestDemosBuildAndRun(t *testing.T) {
	reg := NewRegistry()
	for _, name := range reg.List() {
		name := name
		t.Run(name, func(t *testing.T) {
			demo, err := reg.Get(name)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			s, err := sim.New(demo.System, sim.Options{
				Integrator: solver.NewRK45(solver.RK45Options{MaxStep: 0.002}),
			})
			if err != nil {
				t.Fatalf("new simulator: %v", err)
			}
			if err := s.RunUntil(0.1); err != nil {
				t.Fatalf("run: %v", err)
			}
			trace := demo.Trace(s.Result())
			if len(trace) != s.Result().Len() {
				t.Errorf("trace has %d points, result has %d", len(trace), s.Result().Len())
			}
		})
	}
}

func TestBouncingBallBounces(t *testing.T) {
	demo, err := BouncingBall()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	s, err := sim.New(demo.System, sim.Options{})
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	if err := s.RunUntil(1); err != nil {
		t.Fatalf("run: %v", err)
	}

	heights := demo.Trace(s.Result())
	min := math.Inf(1)
	for _, h := range heights {
		if h < min {
			min = h
		}
	}
	if min > 1e-6 {
		t.Errorf("ball never reached the ground, min height %v", min)
	}
	if last := heights[len(heights)-1]; last <= 0 {
		t.Errorf("height after bounce = %v, want > 0", last)
	}
}
