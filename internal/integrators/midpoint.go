package integrators

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/starsys/internal/dynamo"
)

// snapFraction is the fraction of a step below which the remainder before tf
// is treated as round-off and merged into the final step.
const snapFraction = 1e-9

// MidpointStrategy is the explicit midpoint (RK2) scheme on a fixed grid:
// k1 = f(t, y), k2 = f(t+h/2, y+h/2*k1), y <- y + h*k2.
type MidpointStrategy struct {
	StepSize float64
}

func NewMidpoint(stepSize float64) *MidpointStrategy {
	return &MidpointStrategy{StepSize: stepSize}
}

// Advance samples t0, t0+h, t0+2h, ... and ends exactly at tf. The final
// interval is shortened so it never overshoots; a remainder below
// snapFraction*h is round-off and is merged into the final step instead.
func (m *MidpointStrategy) Advance(y0 dynamo.State, span dynamo.TimeSpan, f dynamo.Derivative) (*Result, error) {
	if err := span.Validate(); err != nil {
		return nil, err
	}
	if !positive(m.StepSize) {
		return nil, fmt.Errorf("%w: step size %g", dynamo.ErrInvalidStepSize, m.StepSize)
	}
	if err := checkState(y0); err != nil {
		return nil, err
	}

	steps, err := sampleCount(span, m.StepSize)
	if err != nil {
		return nil, err
	}

	n := len(y0)
	res := &Result{
		Method: Midpoint,
		States: make([]dynamo.State, 0, steps+1),
		Times:  make([]float64, 0, steps+1),
	}

	y := y0.Clone()
	t := span.T0
	res.append(t, y)

	scratch := make(dynamo.State, n)
	snap := snapFraction * m.StepSize

	for i := 1; t < span.Tf; i++ {
		next := span.T0 + float64(i)*m.StepSize
		if next > span.Tf-snap {
			next = span.Tf
		}
		if next <= t {
			return nil, fmt.Errorf("%w: step %g below resolution at t=%g", dynamo.ErrInvalidStepSize, m.StepSize, t)
		}
		h := next - t

		k1 := f(t, y)
		if len(k1) != n {
			return nil, fmt.Errorf("%w: derivative has %d values, state has %d", dynamo.ErrDimensionMismatch, len(k1), n)
		}
		floats.AddScaledTo(scratch, y, 0.5*h, k1)

		k2 := f(t+0.5*h, scratch)
		if len(k2) != n {
			return nil, fmt.Errorf("%w: derivative has %d values, state has %d", dynamo.ErrDimensionMismatch, len(k2), n)
		}
		res.Evaluations += 2

		yNext := make(dynamo.State, n)
		floats.AddScaledTo(yNext, y, h, k2)

		y = yNext
		t = next
		res.append(t, y)
	}

	return res, nil
}
