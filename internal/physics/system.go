package physics

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/starsys/internal/dynamo"
	"github.com/san-kum/starsys/internal/integrators"
)

// InitialCondition is the (mass, x0, y0, vx0, vy0) tuple of one body.
type InitialCondition struct {
	Mass float64
	X    float64
	Y    float64
	VX   float64
	VY   float64
}

// System is an ordered set of bodies sharing a reference frame and a time
// span. Body order fixes the state vector layout.
//
// A System must not run ComputeTrajectories concurrently with itself or
// with reads of its bodies' trajectories.
type System struct {
	bodies []*Body
	span   dynamo.TimeSpan
}

// NewSystem takes ownership of bodies and shifts their velocities into the
// zero-momentum frame. A body may belong to only one System.
func NewSystem(bodies []*Body, span dynamo.TimeSpan) (*System, error) {
	if err := span.Validate(); err != nil {
		return nil, err
	}

	seen := make(map[*Body]bool, len(bodies))
	for i, b := range bodies {
		if b == nil {
			return nil, &dynamo.SimulationError{Body: i, Sample: -1, Wrapped: fmt.Errorf("%w: nil body", dynamo.ErrParameterBounds)}
		}
		if seen[b] || b.owned {
			return nil, &dynamo.SimulationError{Body: i, Sample: -1, Wrapped: fmt.Errorf("%w: body already belongs to a system", dynamo.ErrParameterBounds)}
		}
		seen[b] = true
	}

	s := &System{
		bodies: append([]*Body(nil), bodies...),
		span:   span,
	}
	if err := s.zeroMomentum(); err != nil {
		return nil, err
	}
	for _, b := range s.bodies {
		b.owned = true
	}
	return s, nil
}

// NewSystemFromConditions builds one body per initial condition.
func NewSystemFromConditions(conds []InitialCondition, span dynamo.TimeSpan) (*System, error) {
	bodies := make([]*Body, len(conds))
	for i, c := range conds {
		b, err := NewBody(c.Mass, r2.Vec{X: c.X, Y: c.Y}, r2.Vec{X: c.VX, Y: c.VY})
		if err != nil {
			return nil, &dynamo.SimulationError{Body: i, Sample: -1, Wrapped: err}
		}
		bodies[i] = b
	}
	return NewSystem(bodies, span)
}

func (s *System) zeroMomentum() error {
	total := 0.0
	var momentum r2.Vec
	for _, b := range s.bodies {
		total += b.mass
		momentum = r2.Add(momentum, r2.Scale(b.mass, b.initialVelocity))
	}
	if total == 0 {
		return dynamo.ErrDegenerateSystem
	}

	vcm := r2.Scale(1/total, momentum)
	for _, b := range s.bodies {
		b.shiftVelocity(vcm)
	}
	return nil
}

// Bodies returns the bodies in state-vector order.
func (s *System) Bodies() []*Body {
	return append([]*Body(nil), s.bodies...)
}

func (s *System) Len() int                  { return len(s.bodies) }
func (s *System) TimeSpan() dynamo.TimeSpan { return s.span }

func (s *System) Masses() []float64 {
	m := make([]float64, len(s.bodies))
	for i, b := range s.bodies {
		m[i] = b.mass
	}
	return m
}

// InitialPositions returns x1, y1, ..., xn, yn.
func (s *System) InitialPositions() []float64 {
	out := make([]float64, 0, 2*len(s.bodies))
	for _, b := range s.bodies {
		out = append(out, b.initialPosition.X, b.initialPosition.Y)
	}
	return out
}

// InitialVelocities returns vx1, vy1, ..., vxn, vyn in the zero-momentum frame.
func (s *System) InitialVelocities() []float64 {
	out := make([]float64, 0, 2*len(s.bodies))
	for _, b := range s.bodies {
		out = append(out, b.initialVelocity.X, b.initialVelocity.Y)
	}
	return out
}

// InitialState is the positions followed by the velocities.
func (s *System) InitialState() dynamo.State {
	state := make(dynamo.State, 0, 4*len(s.bodies))
	state = append(state, s.InitialPositions()...)
	return append(state, s.InitialVelocities()...)
}

// Momentum is the total momentum of the stored initial velocities, zero up
// to round-off once the System is built.
func (s *System) Momentum() r2.Vec {
	var p r2.Vec
	for _, b := range s.bodies {
		p = r2.Add(p, r2.Scale(b.mass, b.initialVelocity))
	}
	return p
}

// ComputeTrajectories integrates with integrators.DefaultConfig.
func (s *System) ComputeTrajectories(method integrators.Method) (*integrators.Result, error) {
	return s.ComputeTrajectoriesWith(integrators.Default(), method)
}

// ComputeTrajectoriesWith integrates the system with the given strategy and
// stores each body's positions, replacing any earlier run. The returned
// result holds the full state history including velocities. On error the
// bodies keep their previous trajectories.
func (s *System) ComputeTrajectoriesWith(integ *integrators.Integrator, method integrators.Method) (*integrators.Result, error) {
	if integ == nil {
		integ = integrators.Default()
	}

	strategy, err := integ.Strategy(method)
	if err != nil {
		return nil, err
	}

	res, err := strategy.Advance(s.InitialState(), s.span, NewGravity(s.Masses()))
	if err != nil {
		return nil, err
	}

	for k, b := range s.bodies {
		samples := make([]r2.Vec, len(res.States))
		for i, row := range res.States {
			samples[i] = r2.Vec{X: row[2*k], Y: row[2*k+1]}
		}
		b.setTrajectory(samples)
	}

	return res, nil
}
