package models

import (
	"github.com/san-kum/blocksim/internal/model"
	"github.com/san-kum/blocksim/internal/sim"
)

const (
	gravity     = 9.81
	restitution = 0.8
	dropHeight  = 1.0
)

// BouncingBall builds the classic hybrid benchmark: a ball in free fall
// whose height crossing zero triggers a restitution bounce.
func BouncingBall() (*Demo, error) {
	sys := model.NewSystem()
	ball := model.NewBlock(sys, "ball")

	velocity, err := model.NewState(ball, "velocity", model.Scalar, nil,
		func(ctx *model.Context) []float64 {
			return []float64{-gravity}
		})
	if err != nil {
		return nil, err
	}
	height, err := model.NewState(ball, "height", model.Scalar, []float64{dropHeight},
		func(ctx *model.Context) []float64 {
			return ctx.State(velocity)
		})
	if err != nil {
		return nil, err
	}

	// Expose the height as a recorded output as well.
	model.NewSignal(ball, "height_out", model.Scalar, func(ctx *model.Context) []float64 {
		return ctx.State(height)
	})

	model.NewEvent(ball, "bounce",
		func(ctx *model.Context) float64 {
			return ctx.State(height)[0]
		},
		func(u *model.UpdateContext) {
			v := u.State(velocity)[0]
			u.Set(height, []float64{0})
			u.Set(velocity, []float64{-restitution * v})
		})

	return &Demo{
		Name:   "ball",
		System: sys,
		Label:  "height",
		Trace: func(r *sim.Result) []float64 {
			return r.StateValues(height)
		},
	}, nil
}
