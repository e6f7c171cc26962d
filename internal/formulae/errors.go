package formulae

import "errors"

var (
	// ErrUnknownClosure indicates a closure name that is not implemented.
	ErrUnknownClosure = errors.New("formulae: unknown closure")

	// ErrUnknownConstant indicates a constant name that is not defined.
	ErrUnknownConstant = errors.New("formulae: unknown constant")

	// ErrMissingConstant indicates a closure that needs a constant which was not supplied.
	ErrMissingConstant = errors.New("formulae: required constant not set")
)
