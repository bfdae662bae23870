package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Derivative is the right-hand side of dY/dt = f(t, Y). Implementations must
// not retain or modify y.
type Derivative func(t float64, y State) State

// TimeSpan is the closed integration interval [T0, Tf].
type TimeSpan struct {
	T0 float64
	Tf float64
}

func (s TimeSpan) Duration() float64 { return s.Tf - s.T0 }

// Validate reports ErrInvalidTimeSpan unless both ends are finite and T0 < Tf.
func (s TimeSpan) Validate() error {
	if math.IsNaN(s.T0) || math.IsInf(s.T0, 0) || math.IsNaN(s.Tf) || math.IsInf(s.Tf, 0) {
		return fmt.Errorf("%w: [%g, %g] is not finite", ErrInvalidTimeSpan, s.T0, s.Tf)
	}
	if s.T0 >= s.Tf {
		return fmt.Errorf("%w: t0=%g must be before tf=%g", ErrInvalidTimeSpan, s.T0, s.Tf)
	}
	return nil
}

func (s TimeSpan) String() string {
	return fmt.Sprintf("[%g, %g]", s.T0, s.Tf)
}
