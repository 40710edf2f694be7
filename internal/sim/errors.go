package sim

import "errors"

var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates an initial state that does not fit the plant.
	ErrDimensionMismatch = errors.New("sim: dimension mismatch between state and plant")

	// ErrInvalidConfig indicates a non-positive dt or duration.
	ErrInvalidConfig = errors.New("sim: invalid run config")
)

// StepError wraps an error with the step and time it occurred at.
type StepError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *StepError) Error() string {
	return e.Wrapped.Error()
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
