package models

import (
	"github.com/san-kum/blocksim/internal/blocks"
	"github.com/san-kum/blocksim/internal/model"
	"github.com/san-kum/blocksim/internal/sim"
)

// PropellerRig builds a propeller spinning up along a speed ramp, feeding
// a thruster mounted off-center. Exercises vector-shaped signals.
func PropellerRig() (*Demo, error) {
	sys := model.NewSystem()

	speed := model.NewSignal(sys, "speed_rps", model.Scalar, func(ctx *model.Context) []float64 {
		return []float64{20 + 5*ctx.Time()}
	})
	density := model.NewConstant(sys, "density", 1.225)

	prop := blocks.NewPropeller(sys, "prop",
		blocks.FixedCoefficient(0.09), blocks.FixedCoefficient(0.04), 0.25)
	thr := blocks.NewThruster(sys, "thruster",
		[3]float64{0, 0, -1}, [3]float64{0.2, 0, 0}, 1)

	for _, c := range []struct {
		port *model.Port
		prod model.Producer
	}{
		{prop.SpeedRPS, speed},
		{prop.Density, density},
		{thr.ScalarThrust, prop.Thrust},
		{thr.ScalarTorque, prop.Torque},
	} {
		if err := c.port.Connect(c.prod); err != nil {
			return nil, err
		}
	}

	return &Demo{
		Name:   "propeller",
		System: sys,
		Label:  "thrust",
		Trace: func(r *sim.Result) []float64 {
			return r.SignalValues(prop.Thrust)
		},
	}, nil
}
