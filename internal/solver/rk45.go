package solver

import (
	"fmt"
	"math"
)

// Dormand-Prince coefficients (RK45)
const (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0

	safety   = 0.9
	minScale = 0.2
	maxScale = 10.0
)

// Default tolerances for the built-in RK45 integrator.
const (
	DefaultRTol = 1e-10
	DefaultATol = 1e-12
)

// RK45Options configures the built-in adaptive Dormand-Prince integrator.
// Zero-valued fields fall back to the package defaults.
type RK45Options struct {
	RTol        float64
	ATol        float64
	MaxStep     float64 // maximum internal step size (default: unbounded)
	InitialStep float64 // first trial step (default: chosen from the derivative)
}

func (o RK45Options) withDefaults() RK45Options {
	if o.RTol <= 0 {
		o.RTol = DefaultRTol
	}
	if o.ATol <= 0 {
		o.ATol = DefaultATol
	}
	if o.MaxStep <= 0 {
		o.MaxStep = math.Inf(1)
	}
	return o
}

// NewRK45 returns a factory producing adaptive Dormand-Prince 4(5)
// integrators with the given options.
func NewRK45(opts RK45Options) Factory {
	o := opts.withDefaults()
	return func(f Func, t0 float64, x0 []float64, tBound float64) Integrator {
		r := &rk45{
			f:      f,
			t:      t0,
			x:      append([]float64(nil), x0...),
			tBound: tBound,
			h:      o.InitialStep,
			opts:   o,
			status: Running,
		}
		if r.t >= r.tBound {
			r.status = Finished
		}
		return r
	}
}

type rk45 struct {
	f      Func
	t      float64
	x      []float64
	tBound float64
	h      float64
	opts   RK45Options
	status Status

	k1 []float64 // derivative at (t, x), reused across steps (FSAL)

	// last completed step, for dense output
	tOld float64
	xOld []float64
	fOld []float64
	fNew []float64
}

func (r *rk45) Time() float64    { return r.t }
func (r *rk45) State() []float64 { return r.x }
func (r *rk45) Status() Status   { return r.status }

func (r *rk45) Step() error {
	if r.status != Running {
		return fmt.Errorf("%w: status is %s", ErrNotRunning, r.status)
	}
	if r.k1 == nil {
		k1, err := r.f(r.t, r.x)
		if err != nil {
			return r.fail(err)
		}
		r.k1 = k1
	}
	if r.h <= 0 {
		h, err := r.initialStep()
		if err != nil {
			return r.fail(err)
		}
		r.h = h
	}

	minStep := 10 * math.Abs(math.Nextafter(r.t, math.Inf(1))-r.t)
	h := math.Min(r.h, r.opts.MaxStep)

	for {
		if h < minStep {
			return r.fail(fmt.Errorf("%w: h=%g at t=%g", ErrStepTooSmall, h, r.t))
		}
		hc := h
		if r.t+hc >= r.tBound {
			hc = r.tBound - r.t
		}

		xNew, k7, errNorm, err := r.trial(hc)
		if err != nil {
			return r.fail(err)
		}

		if errNorm <= 1 {
			factor := maxScale
			if errNorm > 0 {
				factor = math.Min(maxScale, math.Max(minScale, safety*math.Pow(errNorm, -0.2)))
			}
			r.tOld = r.t
			r.xOld = r.x
			r.fOld = r.k1
			r.fNew = k7
			r.t += hc
			r.x = xNew
			r.k1 = k7
			r.h = math.Min(hc*factor, r.opts.MaxStep)
			if r.t >= r.tBound {
				r.status = Finished
			}
			return nil
		}
		h = hc * math.Max(minScale, safety*math.Pow(errNorm, -0.2))
	}
}

func (r *rk45) fail(err error) error {
	r.status = Failed
	return err
}

// trial computes one candidate step of size h and its scaled error norm.
func (r *rk45) trial(h float64) (xNew, k7 []float64, errNorm float64, err error) {
	n := len(r.x)
	k1 := r.k1

	y := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = r.x[i] + h*b21*k1[i]
	}
	k2, err := r.f(r.t+a2*h, y)
	if err != nil {
		return nil, nil, 0, err
	}

	y = make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = r.x[i] + h*(b31*k1[i]+b32*k2[i])
	}
	k3, err := r.f(r.t+a3*h, y)
	if err != nil {
		return nil, nil, 0, err
	}

	y = make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = r.x[i] + h*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4, err := r.f(r.t+a4*h, y)
	if err != nil {
		return nil, nil, 0, err
	}

	y = make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = r.x[i] + h*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5, err := r.f(r.t+a5*h, y)
	if err != nil {
		return nil, nil, 0, err
	}

	y = make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = r.x[i] + h*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6, err := r.f(r.t+h, y)
	if err != nil {
		return nil, nil, 0, err
	}

	xNew = make([]float64, n)
	for i := 0; i < n; i++ {
		xNew[i] = r.x[i] + h*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}
	k7, err = r.f(r.t+h, xNew)
	if err != nil {
		return nil, nil, 0, err
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		est := h * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := r.opts.ATol + r.opts.RTol*math.Max(math.Abs(r.x[i]), math.Abs(xNew[i]))
		sum += (est / scale) * (est / scale)
	}
	if n > 0 {
		errNorm = math.Sqrt(sum / float64(n))
	}
	return xNew, k7, errNorm, nil
}

// initialStep picks a first trial step from the magnitudes of the state
// and its derivative, refined by a single Euler probe.
func (r *rk45) initialStep() (float64, error) {
	n := len(r.x)
	if n == 0 {
		return math.Min(r.opts.MaxStep, math.Max(1e-6, (r.tBound-r.t)/100)), nil
	}
	scale := make([]float64, n)
	for i := 0; i < n; i++ {
		scale[i] = r.opts.ATol + r.opts.RTol*math.Abs(r.x[i])
	}
	d0 := scaledNorm(r.x, scale)
	d1 := scaledNorm(r.k1, scale)

	var h0 float64
	if d0 < 1e-5 || d1 < 1e-5 {
		h0 = 1e-6
	} else {
		h0 = 0.01 * d0 / d1
	}

	y1 := make([]float64, n)
	for i := 0; i < n; i++ {
		y1[i] = r.x[i] + h0*r.k1[i]
	}
	f1, err := r.f(r.t+h0, y1)
	if err != nil {
		return 0, err
	}
	diff := make([]float64, n)
	for i := 0; i < n; i++ {
		diff[i] = f1[i] - r.k1[i]
	}
	d2 := scaledNorm(diff, scale) / h0

	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 0.2)
	}
	return math.Min(math.Min(100*h0, h1), r.opts.MaxStep), nil
}

func scaledNorm(v, scale []float64) float64 {
	sum := 0.0
	for i := range v {
		sum += (v[i] / scale[i]) * (v[i] / scale[i])
	}
	return math.Sqrt(sum / float64(len(v)))
}

// DenseOutput returns a cubic Hermite interpolant over the last completed
// step, matching the solution values and derivatives at both ends.
func (r *rk45) DenseOutput() Interpolant {
	return &hermite{
		t0: r.tOld,
		t1: r.t,
		y0: r.xOld,
		y1: append([]float64(nil), r.x...),
		f0: r.fOld,
		f1: r.fNew,
	}
}

type hermite struct {
	t0, t1 float64
	y0, y1 []float64
	f0, f1 []float64
}

func (h *hermite) At(t float64) []float64 {
	dt := h.t1 - h.t0
	s := 0.0
	if dt != 0 {
		s = (t - h.t0) / dt
	}
	s2 := s * s
	s3 := s2 * s
	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	y := make([]float64, len(h.y0))
	for i := range y {
		y[i] = h00*h.y0[i] + h10*dt*h.f0[i] + h01*h.y1[i] + h11*dt*h.f1[i]
	}
	return y
}
