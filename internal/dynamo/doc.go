// Package dynamo provides core simulation primitives for planar N-body systems.
//
// The package defines the vocabulary shared by the integrators and the
// physics models:
//
//   - [State]: flattened phase-space vector
//   - [Derivative]: right-hand side of the governing ODE, dY/dt = f(t, Y)
//   - [TimeSpan]: closed integration interval
//   - the sentinel errors returned across the module
//
// # Example
//
//	sys, _ := physics.NewSystem(bodies, dynamo.TimeSpan{T0: 0, Tf: 10})
//	res, _ := sys.ComputeTrajectories(integrators.Midpoint)
//	for i, t := range res.Times { ... }
//
// # Thread Safety
//
// State values are plain slices. A [Derivative] built by this module is pure
// and may be called from several goroutines at once.
package dynamo
