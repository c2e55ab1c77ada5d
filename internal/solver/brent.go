package solver

import (
	"fmt"
	"math"
)

// Default tolerances for the built-in Brent root finder.
const (
	DefaultXTol    = 1e-12
	DefaultMaxIter = 1000
)

// machEps is the double-precision machine epsilon.
const machEps = 2.220446049250313e-16

// Brent is a bracketed root finder combining bisection, the secant method
// and inverse quadratic interpolation.
type Brent struct {
	XTol    float64
	MaxIter int
}

// DefaultBrent returns a Brent root finder with the package defaults.
func DefaultBrent() Brent {
	return Brent{XTol: DefaultXTol, MaxIter: DefaultMaxIter}
}

// Tol implements RootFinder.
func (br Brent) Tol() float64 {
	if br.XTol <= 0 {
		return DefaultXTol
	}
	return br.XTol
}

// Find implements RootFinder.
func (br Brent) Find(f func(float64) float64, a, b float64) (float64, error) {
	xtol := br.Tol()
	maxIter := br.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}

	fa := f(a)
	fb := f(b)
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if (fa > 0) == (fb > 0) {
		return 0, fmt.Errorf("%w: f(%g)=%g and f(%g)=%g", ErrNoBracket, a, fa, b, fb)
	}

	c, fc := a, fa
	d := b - a
	e := d

	for i := 0; i < maxIter; i++ {
		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2*machEps*math.Abs(b) + xtol/2
		xm := (c - b) / 2
		if math.Abs(xm) <= tol1 || fb == 0 {
			return b, nil
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			// Attempt inverse quadratic interpolation or secant.
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			min1 := 3*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)
			if 2*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}
		fb = f(b)
	}
	return 0, fmt.Errorf("%w after %d iterations", ErrMaxIterations, maxIter)
}
