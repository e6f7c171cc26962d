package backend

import "errors"

var (
	// ErrUnknownBackend indicates a backend name that is not compiled in.
	ErrUnknownBackend = errors.New("backend: unknown backend")

	// ErrInvalidProbability indicates a transition probability outside [0, 1] or NaN.
	ErrInvalidProbability = errors.New("backend: probability outside [0, 1]")

	// ErrNegativeMultiplicity indicates a super-droplet representing fewer than zero droplets.
	ErrNegativeMultiplicity = errors.New("backend: negative multiplicity")

	// ErrNonFinite indicates a NaN or Inf where a finite value is required.
	ErrNonFinite = errors.New("backend: non-finite value")

	// ErrLengthMismatch indicates arrays that are not index aligned.
	ErrLengthMismatch = errors.New("backend: array length mismatch")
)
