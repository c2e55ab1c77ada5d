package blocks

import (
	"math"

	"github.com/san-kum/blocksim/internal/model"
)

// Saturation returns a signal clamping the producer's value into
// [lower, upper], componentwise.
func Saturation(owner model.Owner, name string, in model.Producer, lower, upper float64) *model.Signal {
	return model.NewSignal(owner, name, in.Shape(), func(ctx *model.Context) []float64 {
		v := ctx.Value(in)
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = math.Min(math.Max(x, lower), upper)
		}
		return out
	})
}
