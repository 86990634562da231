package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration and sampling operations.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the integration became numerically unstable.
	ErrUnstable = errors.New("dynamo: integration unstable (error estimate diverged)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrMaxSteps indicates the solver gave up before reaching the final time.
	ErrMaxSteps = errors.New("dynamo: maximum number of steps exceeded")

	// ErrTimeGrid indicates an empty or non-increasing time grid.
	ErrTimeGrid = errors.New("dynamo: time grid must be non-empty and strictly increasing")

	// ErrDimensionMismatch indicates mismatched tensor or state dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")
)

// SimulationError wraps an error with integration context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// Bounds returns an ErrParameterBounds error naming the offending parameter.
func Bounds(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParameterBounds, fmt.Sprintf(format, args...))
}

// Mismatch returns an ErrDimensionMismatch error with a description.
func Mismatch(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDimensionMismatch, fmt.Sprintf(format, args...))
}
