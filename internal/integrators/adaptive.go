package integrators

import (
	"fmt"

	"github.com/san-kum/starsys/internal/dynamo"
	"github.com/san-kum/starsys/internal/ode"
)

// gridRoundoff is the fraction of a step by which a grid point may pass tf
// and still be kept (clamped to tf).
const gridRoundoff = 1e-9

// AdaptiveStrategy hands the problem to ode.Solve and reports the state on the
// evaluation grid t0, t0+h, t0+2h, ... up to tf. Internal steps are chosen
// by the solver's error control and are independent of StepSize.
type AdaptiveStrategy struct {
	StepSize float64
	RTol     float64
	ATol     float64
	// MaxStep and MaxSteps bound the solver when positive.
	MaxStep  float64
	MaxSteps int
}

func NewAdaptive(stepSize, rtol, atol float64) *AdaptiveStrategy {
	return &AdaptiveStrategy{StepSize: stepSize, RTol: rtol, ATol: atol}
}

// EvaluationGrid returns t0 + i*step for every i with t0 + i*step < tf + step/2.
// A point past tf only by round-off is clamped to tf; points further out are
// dropped, so the grid ends at or just before tf. A step yielding more than
// MaxSamples points is rejected with ErrInvalidStepSize.
func EvaluationGrid(span dynamo.TimeSpan, step float64) ([]float64, error) {
	if err := span.Validate(); err != nil {
		return nil, err
	}
	if !positive(step) {
		return nil, fmt.Errorf("%w: step size %g", dynamo.ErrInvalidStepSize, step)
	}
	n, err := sampleCount(span, step)
	if err != nil {
		return nil, err
	}

	limit := span.Tf + 0.5*step
	tol := gridRoundoff * step

	grid := make([]float64, 0, n+1)
	for i := 0; ; i++ {
		t := span.T0 + float64(i)*step
		if t >= limit {
			break
		}
		if t > span.Tf {
			if t-span.Tf > tol {
				break
			}
			t = span.Tf
		}
		grid = append(grid, t)
	}
	return grid, nil
}

// Advance returns solver failures such as ode.ErrStepTooSmall unchanged.
func (a *AdaptiveStrategy) Advance(y0 dynamo.State, span dynamo.TimeSpan, f dynamo.Derivative) (*Result, error) {
	if err := span.Validate(); err != nil {
		return nil, err
	}
	if !positive(a.StepSize) {
		return nil, fmt.Errorf("%w: step size %g", dynamo.ErrInvalidStepSize, a.StepSize)
	}
	if !positive(a.RTol) || !positive(a.ATol) {
		return nil, fmt.Errorf("%w: rtol=%g atol=%g", dynamo.ErrInvalidStepSize, a.RTol, a.ATol)
	}
	if err := checkState(y0); err != nil {
		return nil, err
	}

	rhs := func(t float64, y []float64) []float64 {
		return f(t, y)
	}

	grid, err := EvaluationGrid(span, a.StepSize)
	if err != nil {
		return nil, err
	}

	sol, err := ode.Solve(rhs, y0, span.T0, span.Tf, grid, ode.Options{
		RTol:     a.RTol,
		ATol:     a.ATol,
		MaxStep:  a.MaxStep,
		MaxSteps: a.MaxSteps,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Method:      Adaptive,
		States:      make([]dynamo.State, len(sol.Y)),
		Times:       sol.T,
		Evaluations: sol.Evaluations,
	}
	for i, row := range sol.Y {
		res.States[i] = row
	}
	return res, nil
}
