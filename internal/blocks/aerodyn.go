package blocks

import (
	"math"

	"github.com/san-kum/blocksim/internal/model"
)

// Coefficient maps a propeller speed to a thrust or power coefficient.
type Coefficient func(speedRPS float64) float64

// FixedCoefficient returns a speed-independent coefficient.
func FixedCoefficient(c float64) Coefficient {
	return func(float64) float64 { return c }
}

// Propeller computes scalar thrust, torque and power from propeller
// speed and air density:
//
//	F   = ct(n) * rho * D^4 * n^2
//	tau = cp(n)/(2*pi) * rho * D^5 * n^2
//	P   = cp(n) * rho * D^5 * |n^3|
type Propeller struct {
	SpeedRPS *model.Port
	Density  *model.Port

	Thrust *model.Signal
	Torque *model.Signal
	Power  *model.Signal
}

// NewPropeller creates a propeller block with the given thrust and power
// coefficients and diameter.
func NewPropeller(owner model.Owner, name string, thrustCoeff, powerCoeff Coefficient, diameter float64) *Propeller {
	blk := model.NewBlock(owner, name)
	p := &Propeller{
		SpeedRPS: model.NewInput(blk, "speed_rps", model.Scalar),
		Density:  model.NewInput(blk, "density", model.Scalar),
	}
	d4 := math.Pow(diameter, 4)
	d5 := math.Pow(diameter, 5)
	p.Thrust = model.NewSignal(blk, "thrust", model.Scalar, func(ctx *model.Context) []float64 {
		n := ctx.Value(p.SpeedRPS)[0]
		rho := ctx.Value(p.Density)[0]
		return []float64{thrustCoeff(n) * rho * d4 * n * n}
	})
	p.Torque = model.NewSignal(blk, "torque", model.Scalar, func(ctx *model.Context) []float64 {
		n := ctx.Value(p.SpeedRPS)[0]
		rho := ctx.Value(p.Density)[0]
		return []float64{powerCoeff(n) / (2 * math.Pi) * rho * d5 * n * n}
	})
	p.Power = model.NewSignal(blk, "power", model.Scalar, func(ctx *model.Context) []float64 {
		n := ctx.Value(p.SpeedRPS)[0]
		rho := ctx.Value(p.Density)[0]
		return []float64{powerCoeff(n) * rho * d5 * math.Abs(n*n*n)}
	})
	return p
}

// Thruster converts scalar thrust and torque into thrust and torque
// vectors. Thrust acts along a constant axis; torque combines the
// reaction torque along that axis with the moment of the thrust working
// at the end of a constant arm.
type Thruster struct {
	ScalarThrust *model.Port
	ScalarTorque *model.Port

	ThrustVector *model.Signal
	TorqueVector *model.Signal
}

// NewThruster creates a thruster with the given thrust axis, arm
// relative to the center of gravity, and turning direction (+1 or -1).
func NewThruster(owner model.Owner, name string, axis, arm [3]float64, direction float64) *Thruster {
	blk := model.NewBlock(owner, name)
	t := &Thruster{
		ScalarThrust: model.NewInput(blk, "scalar_thrust", model.Scalar),
		ScalarTorque: model.NewInput(blk, "scalar_torque", model.Scalar),
	}
	t.ThrustVector = model.NewSignal(blk, "thrust_vector", 3, func(ctx *model.Context) []float64 {
		f := ctx.Value(t.ScalarThrust)[0]
		return []float64{axis[0] * f, axis[1] * f, axis[2] * f}
	})
	t.TorqueVector = model.NewSignal(blk, "torque_vector", 3, func(ctx *model.Context) []float64 {
		f := ctx.Value(t.ScalarThrust)[0]
		tau := ctx.Value(t.ScalarTorque)[0]
		fv := [3]float64{axis[0] * f, axis[1] * f, axis[2] * f}
		moment := cross(arm, fv)
		return []float64{
			direction*axis[0]*tau + moment[0],
			direction*axis[1]*tau + moment[1],
			direction*axis[2]*tau + moment[2],
		}
	})
	return t
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
