package attributes

import "errors"

var (
	// ErrMissingAttribute indicates an attribute that was requested but can
	// be neither found among the supplied arrays nor derived from them.
	ErrMissingAttribute = errors.New("attributes: missing attribute")

	// ErrLengthMismatch indicates a supplied array whose length is not N.
	ErrLengthMismatch = errors.New("attributes: array length differs from number of super-droplets")

	// ErrReadOnly indicates a write to a derived attribute.
	ErrReadOnly = errors.New("attributes: derived attribute is read-only")

	// ErrConflictingAttributes indicates supplied base arrays that describe
	// the same quantity twice.
	ErrConflictingAttributes = errors.New("attributes: conflicting attributes supplied")

	// ErrDependencyCycle indicates derived attributes that depend on each other.
	ErrDependencyCycle = errors.New("attributes: dependency cycle")

	// ErrNotResolved indicates use of the store before Resolve.
	ErrNotResolved = errors.New("attributes: store not resolved")
)
