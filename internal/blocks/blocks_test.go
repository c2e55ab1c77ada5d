package blocks

import (
	"math"
	"testing"

	"github.com/san-kum/blocksim/internal/model"
	"github.com/san-kum/blocksim/internal/sim"
	"github.com/san-kum/blocksim/internal/solver"
)

func TestSine(t *testing.T) {
	sys := model.NewSystem()
	sig := Sine(sys, "src", 2, 3, 0.5)
	v, err := model.NewEvaluator(sys, 1.2, nil).Value(sig)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := 2 * math.Sin(3*1.2+0.5)
	if math.Abs(v[0]-want) > 1e-15 {
		t.Errorf("sine = %v, want %v", v[0], want)
	}
}

func TestSaturation(t *testing.T) {
	sys := model.NewSystem()
	in := model.NewConstant(sys, "in", -2, 0.5, 2)
	sat := Saturation(sys, "sat", in, -1, 1)
	v, err := model.NewEvaluator(sys, 0, nil).Value(sat)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := []float64{-1, 0.5, 1}
	for i := range want {
		if v[i] != want[i] {
			t.Fatalf("saturated value = %v, want %v", v, want)
		}
	}
}

func TestIntegrate(t *testing.T) {
	sys := model.NewSystem()
	src := model.NewConstant(sys, "src", 2)
	x, err := Integrate(sys, "x", src, []float64{1})
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}

	s, err := sim.New(sys, sim.Options{})
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	if err := s.RunUntil(1); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := x.Slice(s.State())[0]; math.Abs(got-3) > 1e-8 {
		t.Errorf("x(1) = %v, want 3", got)
	}
}

func TestClockSigns(t *testing.T) {
	sys := model.NewSystem()
	Clock(sys, "tick", 0.01, nil)

	tests := []struct {
		time float64
		sign int
	}{
		{0.005, 1},
		{0.015, -1},
		{0.025, 1},
	}
	for _, tt := range tests {
		vals, err := model.NewEvaluator(sys, tt.time, nil).Events()
		if err != nil {
			t.Fatalf("events at t=%v: %v", tt.time, err)
		}
		got := 0
		if vals[0] > 0 {
			got = 1
		} else if vals[0] < 0 {
			got = -1
		}
		if got != tt.sign {
			t.Errorf("clock sign at t=%v is %d, want %d", tt.time, got, tt.sign)
		}
	}
}

func TestZeroOrderHoldSampling(t *testing.T) {
	const period = 0.01

	sys := model.NewSystem()
	input := Sine(sys, "input", 1, 2*math.Pi, 0)
	hold, err := NewZeroOrderHold(sys, "hold", model.Scalar, period, nil)
	if err != nil {
		t.Fatalf("new hold: %v", err)
	}
	if err := hold.Input.Connect(input); err != nil {
		t.Fatalf("connect: %v", err)
	}

	// Bound the step below the sampling period so no tick is skipped;
	// the hold itself contributes no dynamics.
	s, err := sim.New(sys, sim.Options{
		Integrator: solver.NewRK45(solver.RK45Options{MaxStep: period / 4}),
	})
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	if err := s.RunUntil(1); err != nil {
		t.Fatalf("run: %v", err)
	}

	r := s.Result()
	flags := r.EventSeries(hold.Tick)
	times := r.Times()
	held := r.StateValues(hold.Output)

	ticks := 0
	next := 0.0 // multiple of period expected at the next tick
	expected := 0.0
	for i := range times {
		// Samples show the value held since the previous tick; the
		// tick sample itself still carries the pre-update value.
		if math.Abs(held[i]-expected) > 1e-9 {
			t.Fatalf("held value at t=%v is %v, want %v", times[i], held[i], expected)
		}
		if flags[i] {
			if math.Abs(times[i]-next) > 1e-9 {
				t.Fatalf("tick %d at t=%v, want %v", ticks, times[i], next)
			}
			expected = math.Sin(2 * math.Pi * times[i])
			next += period
			ticks++
		}
	}
	if ticks < 100 || ticks > 101 {
		t.Errorf("saw %d ticks over 1s, want 100 or 101", ticks)
	}
}

func TestPropeller(t *testing.T) {
	const (
		ct  = 0.09
		cp  = 0.04
		d   = 0.25
		n   = 40.0
		rho = 1.225
	)

	sys := model.NewSystem()
	prop := NewPropeller(sys, "prop", FixedCoefficient(ct), FixedCoefficient(cp), d)
	if err := prop.SpeedRPS.Connect(model.NewConstant(sys, "speed", n)); err != nil {
		t.Fatalf("connect speed: %v", err)
	}
	if err := prop.Density.Connect(model.NewConstant(sys, "rho", rho)); err != nil {
		t.Fatalf("connect density: %v", err)
	}

	ev := model.NewEvaluator(sys, 0, nil)
	thrust, err := ev.Value(prop.Thrust)
	if err != nil {
		t.Fatalf("thrust: %v", err)
	}
	torque, err := ev.Value(prop.Torque)
	if err != nil {
		t.Fatalf("torque: %v", err)
	}
	power, err := ev.Value(prop.Power)
	if err != nil {
		t.Fatalf("power: %v", err)
	}

	d4 := math.Pow(d, 4)
	d5 := math.Pow(d, 5)
	if want := ct * rho * d4 * n * n; math.Abs(thrust[0]-want) > 1e-12 {
		t.Errorf("thrust = %v, want %v", thrust[0], want)
	}
	if want := cp / (2 * math.Pi) * rho * d5 * n * n; math.Abs(torque[0]-want) > 1e-12 {
		t.Errorf("torque = %v, want %v", torque[0], want)
	}
	if want := cp * rho * d5 * n * n * n; math.Abs(power[0]-want) > 1e-12 {
		t.Errorf("power = %v, want %v", power[0], want)
	}
}

func TestThruster(t *testing.T) {
	sys := model.NewSystem()
	thr := NewThruster(sys, "thr", [3]float64{0, 0, -1}, [3]float64{0.2, 0, 0}, 1)
	if err := thr.ScalarThrust.Connect(model.NewConstant(sys, "f", 10)); err != nil {
		t.Fatalf("connect thrust: %v", err)
	}
	if err := thr.ScalarTorque.Connect(model.NewConstant(sys, "tau", 2)); err != nil {
		t.Fatalf("connect torque: %v", err)
	}

	ev := model.NewEvaluator(sys, 0, nil)
	fv, err := ev.Value(thr.ThrustVector)
	if err != nil {
		t.Fatalf("thrust vector: %v", err)
	}
	tv, err := ev.Value(thr.TorqueVector)
	if err != nil {
		t.Fatalf("torque vector: %v", err)
	}

	if fv[0] != 0 || fv[1] != 0 || fv[2] != -10 {
		t.Errorf("thrust vector = %v, want [0 0 -10]", fv)
	}
	// torque = direction*axis*tau + arm x thrust
	// arm x thrust = (0.2,0,0) x (0,0,-10) = (0, 2, 0)
	if tv[0] != 0 || tv[1] != 2 || tv[2] != -2 {
		t.Errorf("torque vector = %v, want [0 2 -2]", tv)
	}
}
