// Package physics models planar star systems under Newtonian gravity.
//
//   - [Body]: point mass with initial conditions and a computed trajectory
//   - [System]: ordered bodies in the zero-momentum frame over a time span
//   - [Gravity]: the N-body right-hand side, dY/dt for the flattened state
//
// # State layout
//
// For n bodies the state vector has 4n entries: all positions
// (x1, y1, ..., xn, yn) followed by all velocities in the same order.
//
//	sys, err := physics.NewSystemFromConditions([]physics.InitialCondition{
//	    {Mass: 1, X: -0.5, VY: -0.7071},
//	    {Mass: 1, X: 0.5, VY: 0.7071},
//	}, dynamo.TimeSpan{T0: 0, Tf: 10})
//	res, err := sys.ComputeTrajectories(integrators.Midpoint)
package physics
