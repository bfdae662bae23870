package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrDegenerateSystem indicates a system whose total mass is zero, so the
	// center-of-mass frame is undefined.
	ErrDegenerateSystem = errors.New("dynamo: degenerate system (total mass is zero)")

	// ErrUnsupportedMethod indicates an unknown integration strategy.
	ErrUnsupportedMethod = errors.New("dynamo: unsupported integration method")

	// ErrNotComputed indicates a trajectory query before integration ran.
	ErrNotComputed = errors.New("dynamo: trajectory not computed")

	// ErrIndexOutOfRange indicates a sample index outside the computed trajectory.
	ErrIndexOutOfRange = errors.New("dynamo: sample index out of range")

	// ErrInvalidTimeSpan indicates a time span that is not finite or not increasing.
	ErrInvalidTimeSpan = errors.New("dynamo: invalid time span")

	// ErrInvalidStepSize indicates a non-positive or non-finite step size or tolerance.
	ErrInvalidStepSize = errors.New("dynamo: invalid step size")

	// ErrInvalidState indicates an empty initial state or one holding NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (empty, NaN or Inf)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrDimensionMismatch indicates mismatched state/mass dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// SimulationError wraps an error with the body and sample it concerns.
// Body or Sample is -1 when not applicable.
type SimulationError struct {
	Body    int
	Sample  int
	Wrapped error
}

func (e *SimulationError) Error() string {
	switch {
	case e.Body >= 0 && e.Sample >= 0:
		return fmt.Sprintf("body %d, sample %d: %v", e.Body, e.Sample, e.Wrapped)
	case e.Body >= 0:
		return fmt.Sprintf("body %d: %v", e.Body, e.Wrapped)
	case e.Sample >= 0:
		return fmt.Sprintf("sample %d: %v", e.Sample, e.Wrapped)
	}
	return e.Wrapped.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
