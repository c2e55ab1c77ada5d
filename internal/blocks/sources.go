package blocks

import (
	"math"

	"github.com/san-kum/blocksim/internal/model"
)

// Sine creates a scalar signal amplitude*sin(omega*t + phase).
func Sine(owner model.Owner, name string, amplitude, omega, phase float64) *model.Signal {
	return model.NewSignal(owner, name, model.Scalar, func(ctx *model.Context) []float64 {
		return []float64{amplitude * math.Sin(omega*ctx.Time()+phase)}
	})
}

// Integrate creates a state integrating the producer's value over time,
// starting from the given initial condition (nil means zero).
func Integrate(owner model.Owner, name string, in model.Producer, initial []float64) (*model.State, error) {
	return model.NewState(owner, name, in.Shape(), initial, func(ctx *model.Context) []float64 {
		return ctx.Value(in)
	})
}
