package model

import "errors"

// Structural errors. These indicate a malformed model and abort the
// offending construction or evaluation call outright; they are never
// folded into the simulator's numerical failure channel.
var (
	// ErrShapeMismatch indicates a connection or value whose shape
	// disagrees with a declared shape.
	ErrShapeMismatch = errors.New("model: shape mismatch")

	// ErrPortNotConnected indicates an input port was read during
	// evaluation without a connected producer.
	ErrPortNotConnected = errors.New("model: port not connected")

	// ErrMultipleProducers indicates a second producer was attached to a
	// port that expects exactly one.
	ErrMultipleProducers = errors.New("model: multiple producers")

	// ErrAlgebraicLoop indicates a signal whose value transitively
	// depends on itself with no intervening state read.
	ErrAlgebraicLoop = errors.New("model: algebraic loop")

	// ErrStateVectorSize indicates a state vector whose length does not
	// match the system's declared number of state lines.
	ErrStateVectorSize = errors.New("model: state vector size mismatch")
)
