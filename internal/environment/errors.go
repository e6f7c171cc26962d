package environment

import "errors"

var (
	// ErrUnknownField indicates a field name the environment does not track.
	ErrUnknownField = errors.New("environment: unknown field")

	// ErrFieldNotSet indicates a read of a Box field that was never set.
	ErrFieldNotSet = errors.New("environment: field not set")

	// ErrInvalidState indicates a NaN or Inf in the thermodynamic state.
	ErrInvalidState = errors.New("environment: invalid state (NaN or Inf detected)")

	// ErrInvalidParameters indicates a parcel configured with non-physical
	// initial conditions.
	ErrInvalidParameters = errors.New("environment: invalid parameters")

	// ErrNotRegistered indicates use before Register.
	ErrNotRegistered = errors.New("environment: not registered")
)
