package dynamics

import (
	"github.com/san-kum/sdmsim/internal/attributes"
	"github.com/san-kum/sdmsim/internal/backend"
	"github.com/san-kum/sdmsim/internal/environment"
	"github.com/san-kum/sdmsim/internal/formulae"
)

// Registrar is what a dynamic sees while the particulator is being built.
type Registrar interface {
	RequestAttribute(name string)
	Formulae() *formulae.Formulae
}

// Host is what a dynamic sees while stepping.
type Host interface {
	Dt() float64
	Steps() int
	Formulae() *formulae.Formulae
	Backend() backend.Backend
	Environment() environment.Environment
	Attributes() *attributes.Store
}

type Dynamic interface {
	Name() string
	Register(r Registrar) error
	Step(h Host, rng backend.Rand) error
}
