package products

import (
	"errors"
	"fmt"

	"github.com/ctessum/unit"

	"github.com/san-kum/sdmsim/internal/attributes"
	"github.com/san-kum/sdmsim/internal/backend"
	"github.com/san-kum/sdmsim/internal/environment"
)

// ErrInvalidVolume indicates a cell volume that is not positive and finite.
var ErrInvalidVolume = errors.New("products: invalid cell volume")

type Registrar interface {
	RequestAttribute(name string)
}

type Host interface {
	Time() float64
	Backend() backend.Backend
	Environment() environment.Environment
	Attributes() *attributes.Store
}

type Product interface {
	Name() string
	Units() unit.Dimensions
	Register(r Registrar) error
	Get(h Host) (float64, error)
}

type Option func(*base)

// WithName overrides the default product name.
func WithName(name string) Option {
	return func(b *base) { b.name = name }
}

type base struct {
	name  string
	units unit.Dimensions
}

func newBase(name string, units unit.Dimensions, opts []Option) base {
	b := base{name: name, units: units}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b base) Name() string           { return b.name }
func (b base) Units() unit.Dimensions { return b.units }

func (base) Register(Registrar) error { return nil }

// Quantity evaluates p and attaches its units.
func Quantity(p Product, h Host) (*unit.Unit, error) {
	v, err := p.Get(h)
	if err != nil {
		return nil, err
	}
	return unit.New(v, p.Units()), nil
}

var perCubicMetre = unit.Dimensions{unit.LengthDim: -3}

func cellVolume(h Host) (float64, error) {
	dv := h.Environment().DV()
	if !(dv > 0) {
		return 0, fmt.Errorf("%w: %g", ErrInvalidVolume, dv)
	}
	return dv, nil
}

func massAndMultiplicity(h Host) (mult, mass []float64, err error) {
	attrs := h.Attributes()
	if mult, err = attrs.Get(attributes.Multiplicity); err != nil {
		return nil, nil, err
	}
	if mass, err = attrs.Get(attributes.SignedWaterMass); err != nil {
		return nil, nil, err
	}
	return mult, mass, nil
}

func requestMass(r Registrar) error {
	r.RequestAttribute(attributes.Multiplicity)
	r.RequestAttribute(attributes.SignedWaterMass)
	return nil
}
