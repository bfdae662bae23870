// Package ode solves initial-value problems with an adaptive explicit
// Runge-Kutta method and reports the solution at caller-chosen times.
//
// [Solve] uses the Dormand-Prince 5(4) pair with first-same-as-last stage
// reuse. Each step is accepted when the RMS of the embedded error estimate,
// scaled by atol + rtol*|y|, is at most one. Samples between internal steps
// come from the pair's fourth-order continuous extension, so the internal
// step sequence is independent of the requested output grid.
package ode
