package models

import (
	"math"

	"github.com/san-kum/blocksim/internal/blocks"
	"github.com/san-kum/blocksim/internal/model"
	"github.com/san-kum/blocksim/internal/sim"
)

// SampledSine builds a zero-order hold sampling a sine source every 10ms,
// the elementary discrete-time scenario.
func SampledSine() (*Demo, error) {
	sys := model.NewSystem()

	input := blocks.Sine(sys, "input", 1.0, 2*math.Pi, 0)
	hold, err := blocks.NewZeroOrderHold(sys, "hold", model.Scalar, 0.01, nil)
	if err != nil {
		return nil, err
	}
	if err := hold.Input.Connect(input); err != nil {
		return nil, err
	}

	return &Demo{
		Name:   "sampler",
		System: sys,
		Label:  "sampled input",
		Trace: func(r *sim.Result) []float64 {
			return r.StateValues(hold.Output)
		},
	}, nil
}
