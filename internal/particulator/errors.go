package particulator

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates a builder or run parameter out of range.
	ErrInvalidConfig = errors.New("particulator: invalid configuration")

	// ErrAlreadyBuilt indicates a second call to Build on the same builder.
	ErrAlreadyBuilt = errors.New("particulator: builder already used")

	// ErrDuplicateProduct indicates two products registered under one name.
	ErrDuplicateProduct = errors.New("particulator: duplicate product name")

	// ErrUnknownProduct indicates a product name that was not registered.
	ErrUnknownProduct = errors.New("particulator: unknown product")
)

// SimulationError wraps an error with the step at which it happened.
type SimulationError struct {
	Step    int
	Time    float64
	Stage   string
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%g) %s: %v", e.Step, e.Time, e.Stage, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
