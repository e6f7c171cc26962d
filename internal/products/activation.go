package products

import (
	"github.com/ctessum/unit"

	"github.com/san-kum/sdmsim/internal/attributes"
	"github.com/san-kum/sdmsim/internal/backend"
)

// ActivableFraction is the share of real particles whose critical
// saturation lies below SMax, i.e. that would activate if the ambient
// saturation reached SMax.
type ActivableFraction struct {
	base
	SMax float64
}

func NewActivableFraction(sMax float64, opts ...Option) *ActivableFraction {
	return &ActivableFraction{base: newBase("activable fraction", unit.Dimless, opts), SMax: sMax}
}

func (a *ActivableFraction) Register(r Registrar) error {
	r.RequestAttribute(attributes.Multiplicity)
	r.RequestAttribute(attributes.CriticalSaturation)
	return nil
}

func (a *ActivableFraction) Get(h Host) (float64, error) {
	attrs := h.Attributes()
	mult, err := attrs.Get(attributes.Multiplicity)
	if err != nil {
		return 0, err
	}
	sCrit, err := attrs.Get(attributes.CriticalSaturation)
	if err != nil {
		return 0, err
	}
	b := h.Backend()
	total := b.CountSum(mult, nil, backend.Any)
	if total == 0 {
		return 0, nil
	}
	return b.ThresholdSum(mult, sCrit, a.SMax) / total, nil
}
