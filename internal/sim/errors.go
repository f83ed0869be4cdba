package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates a non-positive step or duration.
	ErrInvalidConfig = errors.New("sim: invalid run configuration")

	// ErrDiverged indicates a body reached a NaN or infinite position.
	ErrDiverged = errors.New("sim: body state diverged (NaN or Inf detected)")
)

// StepError wraps an error with the physics step it happened on.
type StepError struct {
	Step    int
	Time    float64
	Body    string
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f) %s: %v", e.Step, e.Time, e.Body, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
