package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/starsys/internal/dynamo"
)

// Gravity returns dY/dt for the flattened state
// [x1,y1..xn,yn, vx1,vy1..vxn,vyn] under pairwise Newtonian attraction with
// G = 1 and no softening. Bodies with zero mass exert no force but are still
// accelerated by the others. Coincident bodies produce Inf/NaN.
//
// It panics if len(y) != 4*len(masses).
func Gravity(y dynamo.State, masses []float64) dynamo.State {
	n := len(masses)
	if len(y) != 4*n {
		panic(fmt.Errorf("%w: state has %d values for %d bodies", dynamo.ErrDimensionMismatch, len(y), n))
	}

	half := 2 * n
	dy := make(dynamo.State, len(y))
	copy(dy[:half], y[half:])

	for i := 0; i < n; i++ {
		xi, yi := y[2*i], y[2*i+1]
		ax, ay := 0.0, 0.0

		for j := 0; j < n; j++ {
			if j == i || masses[j] == 0 {
				continue
			}

			rx := y[2*j] - xi
			ry := y[2*j+1] - yi
			r2 := rx*rx + ry*ry
			r3Inv := 1.0 / (r2 * math.Sqrt(r2))

			ax += masses[j] * rx * r3Inv
			ay += masses[j] * ry * r3Inv
		}

		dy[half+2*i] = ax
		dy[half+2*i+1] = ay
	}

	return dy
}

// NewGravity binds a copy of masses into a Derivative. The result is pure
// and safe for concurrent use.
func NewGravity(masses []float64) dynamo.Derivative {
	m := make([]float64, len(masses))
	copy(m, masses)
	return func(t float64, y dynamo.State) dynamo.State {
		return Gravity(y, m)
	}
}
