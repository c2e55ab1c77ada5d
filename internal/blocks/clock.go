// Package blocks provides reusable building blocks for models: periodic
// event sources, discrete-time sampling, discontinuities, simple sources
// and a small aerodynamics library.
package blocks

import (
	"math"

	"github.com/san-kum/blocksim/internal/model"
)

// Clock creates a periodic event source ticking at every multiple of
// period. Events in this engine are zero-crossing detectors, so the tick
// is expressed as a sine that crosses zero exactly at the tick times.
func Clock(owner model.Owner, name string, period float64, update model.UpdateFunc) *model.Event {
	return model.NewEvent(owner, name, ClockFunc(period), update)
}

// ClockFunc returns an event function crossing zero at every multiple of
// period.
func ClockFunc(period float64) model.EventFunc {
	return func(ctx *model.Context) float64 {
		return math.Sin(math.Pi * ctx.Time() / period)
	}
}
