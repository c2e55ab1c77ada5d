package blocks

import "github.com/san-kum/blocksim/internal/model"

// ZeroOrderHold samples an input port into a derivative-free state on
// every tick of an internal periodic clock. The sampled value is held
// constant between ticks.
type ZeroOrderHold struct {
	Input  *model.Port
	Output *model.State
	Tick   *model.Event
}

// NewZeroOrderHold creates a zero-order hold under the given owner. The
// initial condition is the output value before the first tick; nil means
// zero.
func NewZeroOrderHold(owner model.Owner, name string, shape model.Shape, period float64, initial []float64) (*ZeroOrderHold, error) {
	blk := model.NewBlock(owner, name)
	h := &ZeroOrderHold{
		Input: model.NewInput(blk, "input", shape),
	}
	out, err := model.NewState(blk, "output", shape, initial, nil)
	if err != nil {
		return nil, err
	}
	h.Output = out
	h.Tick = Clock(blk, "tick", period, func(u *model.UpdateContext) {
		u.Set(h.Output, u.Value(h.Input))
	})
	return h, nil
}
