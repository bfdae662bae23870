package ode

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrInvalidInput indicates a malformed problem: bad interval, tolerances,
	// evaluation times or derivative dimension.
	ErrInvalidInput = errors.New("ode: invalid input")

	// ErrStepTooSmall indicates the step size needed to meet the tolerances
	// fell below the floating point resolution of t.
	ErrStepTooSmall = errors.New("ode: required step size below floating point resolution")

	// ErrMaxSteps indicates Options.MaxSteps attempts were used before tf.
	ErrMaxSteps = errors.New("ode: maximum number of steps exceeded")
)

// Func is the right-hand side dy/dt = f(t, y). It must return a slice of
// len(y) and must not retain y.
type Func func(t float64, y []float64) []float64

type Options struct {
	RTol float64
	ATol float64

	// MaxStep bounds every step when positive.
	MaxStep float64
	// MaxSteps bounds accepted plus rejected steps when positive.
	MaxSteps int
}

// Solution holds the samples at the requested evaluation times.
type Solution struct {
	T           []float64
	Y           [][]float64
	Steps       int
	Rejected    int
	Evaluations int
}

const (
	safety      = 0.9
	minFactor   = 0.2
	maxFactor   = 10.0
	errExponent = -1.0 / 5.0
)

type solver struct {
	f     Func
	opts  Options
	n     int
	k     [7][]float64
	tmp   []float64
	evals int
}

func newSolver(f Func, n int, opts Options) *solver {
	s := &solver{f: f, opts: opts, n: n, tmp: make([]float64, n)}
	for i := range s.k {
		s.k[i] = make([]float64, n)
	}
	return s
}

func (s *solver) eval(dst []float64, t float64, y []float64) error {
	s.evals++
	dy := s.f(t, y)
	if len(dy) != s.n {
		return fmt.Errorf("%w: derivative returned %d values for %d-dimensional state", ErrInvalidInput, len(dy), s.n)
	}
	copy(dst, dy)
	return nil
}

// Solve integrates y' = f(t, y) from (t0, y0) to tf and returns y at every
// time in tEval. tEval must be non-decreasing and lie within [t0, tf].
// On failure the partial solution up to the last accepted step is returned
// together with the error.
func Solve(f Func, y0 []float64, t0, tf float64, tEval []float64, opts Options) (*Solution, error) {
	if err := validate(y0, t0, tf, tEval, opts); err != nil {
		return nil, err
	}

	n := len(y0)
	s := newSolver(f, n, opts)
	sol := &Solution{
		T: make([]float64, 0, len(tEval)),
		Y: make([][]float64, 0, len(tEval)),
	}

	y := make([]float64, n)
	copy(y, y0)
	yNew := make([]float64, n)
	t := t0

	next := 0
	for next < len(tEval) && tEval[next] <= t0 {
		sol.add(tEval[next], y)
		next++
	}

	if err := s.eval(s.k[0], t, y); err != nil {
		return nil, err
	}

	h, err := s.initialStep(t0, tf, y)
	if err != nil {
		return nil, err
	}

	for t < tf {
		minStep := 10 * math.Abs(math.Nextafter(t, math.Inf(1))-t)
		if opts.MaxStep > 0 && h > opts.MaxStep {
			h = opts.MaxStep
		} else if h < minStep {
			h = minStep
		}

		var tNew, hNext float64
		rejected := false
		for {
			if h < minStep {
				sol.Evaluations = s.evals
				return sol, fmt.Errorf("%w: h=%g at t=%g", ErrStepTooSmall, h, t)
			}
			if opts.MaxSteps > 0 && sol.Steps+sol.Rejected >= opts.MaxSteps {
				sol.Evaluations = s.evals
				return sol, fmt.Errorf("%w: %d steps at t=%g", ErrMaxSteps, opts.MaxSteps, t)
			}

			tNew = t + h
			if tNew > tf {
				tNew = tf
			}
			h = tNew - t

			errNorm, err := s.step(t, y, h, yNew)
			if err != nil {
				return nil, err
			}

			if errNorm < 1 {
				factor := maxFactor
				if errNorm > 0 {
					factor = math.Min(maxFactor, safety*math.Pow(errNorm, errExponent))
				}
				if rejected {
					factor = math.Min(1, factor)
				}
				hNext = h * factor
				break
			}

			sol.Rejected++
			factor := minFactor
			if !math.IsNaN(errNorm) && !math.IsInf(errNorm, 0) {
				factor = math.Max(minFactor, safety*math.Pow(errNorm, errExponent))
			}
			h *= factor
			rejected = true
		}
		sol.Steps++

		for next < len(tEval) && tEval[next] <= tNew {
			if tEval[next] == tNew {
				sol.add(tNew, yNew)
			} else {
				sol.add(tEval[next], s.interpolate(t, h, y, tEval[next]))
			}
			next++
		}

		t = tNew
		copy(y, yNew)
		copy(s.k[0], s.k[6])
		h = hNext
	}

	sol.Evaluations = s.evals
	return sol, nil
}

func validate(y0 []float64, t0, tf float64, tEval []float64, opts Options) error {
	if len(y0) == 0 {
		return fmt.Errorf("%w: empty initial state", ErrInvalidInput)
	}
	if !finite(t0) || !finite(tf) || t0 >= tf {
		return fmt.Errorf("%w: interval [%g, %g]", ErrInvalidInput, t0, tf)
	}
	if !(opts.RTol > 0) || !(opts.ATol > 0) || !finite(opts.RTol) || !finite(opts.ATol) {
		return fmt.Errorf("%w: rtol=%g atol=%g", ErrInvalidInput, opts.RTol, opts.ATol)
	}
	for i, te := range tEval {
		if te < t0 || te > tf || math.IsNaN(te) {
			return fmt.Errorf("%w: evaluation time %g outside [%g, %g]", ErrInvalidInput, te, t0, tf)
		}
		if i > 0 && te < tEval[i-1] {
			return fmt.Errorf("%w: evaluation times not sorted at index %d", ErrInvalidInput, i)
		}
	}
	return nil
}

// step advances one Dormand-Prince step of size h from (t, y), assuming
// s.k[0] holds f(t, y). It leaves the FSAL derivative in s.k[6] and returns
// the RMS scaled error estimate.
func (s *solver) step(t float64, y []float64, h float64, yNew []float64) (float64, error) {
	n := s.n
	k0, k1, k2, k3, k4, k5, k6 := s.k[0], s.k[1], s.k[2], s.k[3], s.k[4], s.k[5], s.k[6]
	tmp := s.tmp

	floats.AddScaledTo(tmp, y, h*b21, k0)
	if err := s.eval(k1, t+a2*h, tmp); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		tmp[i] = y[i] + h*(b31*k0[i]+b32*k1[i])
	}
	if err := s.eval(k2, t+a3*h, tmp); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		tmp[i] = y[i] + h*(b41*k0[i]+b42*k1[i]+b43*k2[i])
	}
	if err := s.eval(k3, t+a4*h, tmp); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		tmp[i] = y[i] + h*(b51*k0[i]+b52*k1[i]+b53*k2[i]+b54*k3[i])
	}
	if err := s.eval(k4, t+a5*h, tmp); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		tmp[i] = y[i] + h*(b61*k0[i]+b62*k1[i]+b63*k2[i]+b64*k3[i]+b65*k4[i])
	}
	if err := s.eval(k5, t+h, tmp); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		yNew[i] = y[i] + h*(c1*k0[i]+c3*k2[i]+c4*k3[i]+c5*k4[i]+c6*k5[i])
	}
	if err := s.eval(k6, t+h, yNew); err != nil {
		return 0, err
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		errEst := h * (e1*k0[i] + e3*k2[i] + e4*k3[i] + e5*k4[i] + e6*k5[i] + e7*k6[i])
		scale := s.opts.ATol + math.Max(math.Abs(y[i]), math.Abs(yNew[i]))*s.opts.RTol
		r := errEst / scale
		sum += r * r
	}
	return math.Sqrt(sum / float64(n)), nil
}

func (s *solver) interpolate(t, h float64, y []float64, at float64) []float64 {
	x := (at - t) / h
	p := [4]float64{x, x * x, x * x * x, x * x * x * x}

	var q [7]float64
	for j := range dense {
		q[j] = dense[j][0]*p[0] + dense[j][1]*p[1] + dense[j][2]*p[2] + dense[j][3]*p[3]
	}

	out := make([]float64, s.n)
	for i := range out {
		sum := 0.0
		for j := range q {
			sum += q[j] * s.k[j][i]
		}
		out[i] = y[i] + h*sum
	}
	return out
}

// initialStep follows Hairer, Norsett & Wanner, "Solving ODEs I", II.4.
func (s *solver) initialStep(t0, tf float64, y0 []float64) (float64, error) {
	n := s.n
	f0 := s.k[0]
	rtol, atol := s.opts.RTol, s.opts.ATol

	scale := make([]float64, n)
	d0, d1 := 0.0, 0.0
	for i := 0; i < n; i++ {
		scale[i] = atol + math.Abs(y0[i])*rtol
		d0 += (y0[i] / scale[i]) * (y0[i] / scale[i])
		d1 += (f0[i] / scale[i]) * (f0[i] / scale[i])
	}
	d0 = math.Sqrt(d0 / float64(n))
	d1 = math.Sqrt(d1 / float64(n))

	h0 := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h0 = 0.01 * d0 / d1
	}
	h0 = math.Min(h0, tf-t0)

	y1 := make([]float64, n)
	floats.AddScaledTo(y1, y0, h0, f0)
	f1 := make([]float64, n)
	if err := s.eval(f1, t0+h0, y1); err != nil {
		return 0, err
	}

	d2 := 0.0
	for i := 0; i < n; i++ {
		r := (f1[i] - f0[i]) / scale[i]
		d2 += r * r
	}
	d2 = math.Sqrt(d2/float64(n)) / h0

	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1.0/5.0)
	}

	return math.Min(math.Min(100*h0, h1), tf-t0), nil
}

func (sol *Solution) add(t float64, y []float64) {
	c := make([]float64, len(y))
	copy(c, y)
	sol.T = append(sol.T, t)
	sol.Y = append(sol.Y, c)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
