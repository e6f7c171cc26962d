package products

import (
	"github.com/ctessum/unit"

	"github.com/san-kum/sdmsim/internal/backend"
)

// WaterContent is the mass of water in one phase per unit volume of air.
type WaterContent struct {
	base
	phase backend.Phase
}

func NewIceWaterContent(opts ...Option) *WaterContent {
	return &WaterContent{base: newBase("ice water content", unit.KilogramPerMeter3, opts), phase: backend.Ice}
}

func NewLiquidWaterContent(opts ...Option) *WaterContent {
	return &WaterContent{base: newBase("liquid water content", unit.KilogramPerMeter3, opts), phase: backend.Liquid}
}

func (w *WaterContent) Register(r Registrar) error { return requestMass(r) }

func (w *WaterContent) Get(h Host) (float64, error) {
	mult, mass, err := massAndMultiplicity(h)
	if err != nil {
		return 0, err
	}
	dv, err := cellVolume(h)
	if err != nil {
		return 0, err
	}
	return h.Backend().MassSum(mult, mass, w.phase) / dv, nil
}

type IceNumberConcentration struct {
	base
}

func NewIceNumberConcentration(opts ...Option) *IceNumberConcentration {
	return &IceNumberConcentration{base: newBase("ice number concentration", perCubicMetre, opts)}
}

func (c *IceNumberConcentration) Register(r Registrar) error { return requestMass(r) }

func (c *IceNumberConcentration) Get(h Host) (float64, error) {
	mult, mass, err := massAndMultiplicity(h)
	if err != nil {
		return 0, err
	}
	dv, err := cellVolume(h)
	if err != nil {
		return 0, err
	}
	return h.Backend().CountSum(mult, mass, backend.Ice) / dv, nil
}

// FrozenFraction is the share of real droplets that are ice.
type FrozenFraction struct {
	base
}

func NewFrozenFraction(opts ...Option) *FrozenFraction {
	return &FrozenFraction{base: newBase("frozen fraction", unit.Dimless, opts)}
}

func (f *FrozenFraction) Register(r Registrar) error { return requestMass(r) }

func (f *FrozenFraction) Get(h Host) (float64, error) {
	mult, mass, err := massAndMultiplicity(h)
	if err != nil {
		return 0, err
	}
	b := h.Backend()
	total := b.CountSum(mult, mass, backend.Any)
	if total == 0 {
		return 0, nil
	}
	return b.CountSum(mult, mass, backend.Ice) / total, nil
}
