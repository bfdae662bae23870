package physics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/starsys/internal/dynamo"
)

// Body is a point mass in the plane. Its initial conditions are fixed at
// construction except for the single center-of-mass shift applied by the
// owning System. The trajectory is absent until the System integrates.
type Body struct {
	mass            float64
	initialPosition r2.Vec
	initialVelocity r2.Vec

	owned bool
	track trajectory
}

// trajectory is either unset (computed == false) or holds one position per
// sample of the last integration run.
type trajectory struct {
	computed bool
	samples  []r2.Vec
}

// NewBody returns a body with the given mass (zero for a massless test
// particle) and initial conditions.
func NewBody(mass float64, position, velocity r2.Vec) (*Body, error) {
	if mass < 0 || math.IsNaN(mass) || math.IsInf(mass, 0) {
		return nil, fmt.Errorf("%w: mass %g", dynamo.ErrParameterBounds, mass)
	}
	for _, v := range []float64{position.X, position.Y, velocity.X, velocity.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: initial conditions must be finite", dynamo.ErrParameterBounds)
		}
	}
	return &Body{
		mass:            mass,
		initialPosition: position,
		initialVelocity: velocity,
	}, nil
}

func (b *Body) Mass() float64            { return b.mass }
func (b *Body) InitialPosition() r2.Vec { return b.initialPosition }
func (b *Body) InitialVelocity() r2.Vec { return b.initialVelocity }

// Computed reports whether a trajectory has been stored.
func (b *Body) Computed() bool { return b.track.computed }

// Len returns the number of stored samples, zero before integration.
func (b *Body) Len() int { return len(b.track.samples) }

// PositionAt returns the position at sample index i of the last run.
func (b *Body) PositionAt(i int) (r2.Vec, error) {
	if !b.track.computed {
		return r2.Vec{}, dynamo.ErrNotComputed
	}
	if i < 0 || i >= len(b.track.samples) {
		return r2.Vec{}, fmt.Errorf("%w: %d not in [0, %d)", dynamo.ErrIndexOutOfRange, i, len(b.track.samples))
	}
	return b.track.samples[i], nil
}

// Trajectory returns a copy of the stored positions and whether any exist.
func (b *Body) Trajectory() ([]r2.Vec, bool) {
	if !b.track.computed {
		return nil, false
	}
	out := make([]r2.Vec, len(b.track.samples))
	copy(out, b.track.samples)
	return out, true
}

func (b *Body) shiftVelocity(dv r2.Vec) {
	b.initialVelocity = r2.Sub(b.initialVelocity, dv)
}

func (b *Body) setTrajectory(samples []r2.Vec) {
	b.track = trajectory{computed: true, samples: samples}
}
