package attributes

import (
	"math"

	"github.com/san-kum/sdmsim/internal/formulae"
)

// Attribute names.
const (
	Multiplicity              = "multiplicity"
	SignedWaterMass           = "signed water mass"
	WaterMass                 = "water mass"
	Volume                    = "volume"
	Radius                    = "radius"
	DryVolume                 = "dry volume"
	KappaTimesDryVolume       = "kappa times dry volume"
	ImmersedSurfaceArea       = "immersed surface area"
	FreezingTemperature       = "freezing temperature"
	TemperatureOfLastFreezing = "temperature of last freezing"
	CriticalSaturation        = "critical saturation"
)

// Definition describes how a derived attribute is computed. Deps are read
// in order and passed to Compute; Ambient marks attributes that also read
// the environment and go stale whenever its version changes.
type Definition struct {
	Name    string
	Deps    []string
	Ambient bool
	Compute func(s *Store, deps [][]float64, out []float64) error
}

var initialised = map[string]float64{
	TemperatureOfLastFreezing: math.NaN(),
}

func catalog() map[string]Definition {
	defs := []Definition{
		{
			Name: WaterMass,
			Deps: []string{SignedWaterMass},
			Compute: func(_ *Store, deps [][]float64, out []float64) error {
				for i, m := range deps[0] {
					out[i] = math.Abs(m)
				}
				return nil
			},
		},
		{
			Name: Volume,
			Deps: []string{SignedWaterMass},
			Compute: func(s *Store, deps [][]float64, out []float64) error {
				c := s.f.Constants()
				for i, m := range deps[0] {
					out[i] = volumeOfSignedMass(m, c)
				}
				return nil
			},
		},
		{
			Name: Radius,
			Deps: []string{Volume},
			Compute: func(_ *Store, deps [][]float64, out []float64) error {
				for i, v := range deps[0] {
					out[i] = formulae.Radius(v)
				}
				return nil
			},
		},
		{
			Name:    CriticalSaturation,
			Deps:    []string{KappaTimesDryVolume, DryVolume},
			Ambient: true,
			Compute: func(s *Store, deps [][]float64, out []float64) error {
				T, err := s.ambient("T")
				if err != nil {
					return err
				}
				kvd, vd := deps[0], deps[1]
				for i := range out {
					kappa := kvd[i] / vd[i]
					rd3 := vd[i] * 3 / (4 * math.Pi)
					out[i] = s.f.SCrit(T, kappa, rd3)
				}
				return nil
			},
		},
	}

	m := make(map[string]Definition, len(defs))
	for _, d := range defs {
		m[d.Name] = d
	}
	return m
}

// volumeOfSignedMass keeps the phase in the sign: ice volumes are negative.
func volumeOfSignedMass(m float64, c formulae.Constants) float64 {
	if m < 0 {
		return m / c.RhoI
	}
	return m / c.RhoW
}

func signedMassOfVolume(v float64, c formulae.Constants) float64 {
	if v < 0 {
		return v * c.RhoI
	}
	return v * c.RhoW
}
