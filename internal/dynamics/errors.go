package dynamics

import "errors"

var (
	// ErrInvalidConfig indicates a combination of options that cannot be simulated.
	ErrInvalidConfig = errors.New("dynamics: invalid configuration")

	// ErrMissingClosure indicates a pathway whose rate closure is Null in the
	// selected formulae.
	ErrMissingClosure = errors.New("dynamics: nucleation rate closure not selected")
)
