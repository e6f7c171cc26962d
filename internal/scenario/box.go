package scenario

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/sdmsim/internal/attributes"
	"github.com/san-kum/sdmsim/internal/config"
	"github.com/san-kum/sdmsim/internal/dynamics"
	"github.com/san-kum/sdmsim/internal/environment"
	"github.com/san-kum/sdmsim/internal/formulae"
	"github.com/san-kum/sdmsim/internal/particulator"
	"github.com/san-kum/sdmsim/internal/products"
)

// BoxAmbient returns the box fields for temperature T. Zero RHIce and AWIce
// in c are derived from the saturation vapour pressures at T.
func BoxAmbient(f *formulae.Formulae, c config.BoxConfig, T float64) map[string]float64 {
	pvs, pvi := f.PvsWater(T), f.PvsIce(T)
	rhIce, aw := c.RHIce, c.AWIce
	if rhIce == 0 {
		rhIce = c.RH * pvs / pvi
	}
	if aw == 0 {
		aw = pvi / pvs
	}
	return map[string]float64{
		environment.T:     T,
		environment.RH:    c.RH,
		environment.RHIce: rhIce,
		environment.AWIce: aw,
	}
}

func setAmbient(env environment.Environment, values map[string]float64) error {
	for name, v := range values {
		if err := env.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

func buildBox(cfg *config.Config, f *formulae.Formulae, prods []products.Product, opts []particulator.Option) (*particulator.Particulator, error) {
	env := environment.NewBox(cfg.Box.DV)
	if err := setAmbient(env, BoxAmbient(f, cfg.Box, cfg.Box.T)); err != nil {
		return nil, err
	}

	b := particulator.NewBuilder(cfg.NSD, cfg.Dt, f, env, opts...)
	if err := addFreezing(b, cfg.Freezing); err != nil {
		return nil, err
	}

	n, pc := cfg.NSD, cfg.Particles
	attrs := map[string][]float64{
		attributes.Multiplicity:    constant(n, pc.Multiplicity),
		attributes.SignedWaterMass: constant(n, pc.WaterMass),
	}
	if pc.ImmersedSurfaceArea > 0 {
		attrs[attributes.ImmersedSurfaceArea] = constant(n, pc.ImmersedSurfaceArea)
	}
	if cfg.Freezing.Enabled && cfg.Freezing.Singular {
		area := attrs[attributes.ImmersedSurfaceArea]
		tf, err := freezingTemperatures(f, pc.FreezingTemperature, area, n, cfg.EffectiveSeed())
		if err != nil {
			return nil, err
		}
		attrs[attributes.FreezingTemperature] = tf
	}

	p, err := b.Build(attrs, prods...)
	if err != nil {
		return nil, err
	}

	if cfg.Box.CoolingRate != 0 {
		p.AddObserver(coolingObserver(env, f, cfg.Box))
	}
	return p, nil
}

// coolingObserver lowers the box temperature linearly in time at
// box.CoolingRate, starting from box.T.
func coolingObserver(env environment.Environment, f *formulae.Formulae, box config.BoxConfig) particulator.Observer {
	return particulator.ObserverFunc(func(p *particulator.Particulator) {
		T := box.T - box.CoolingRate*p.Time()
		if err := setAmbient(env, BoxAmbient(f, box, T)); err != nil {
			p.Logger().WithFields(logrus.Fields{
				"step": p.Steps(),
				"T":    T,
			}).WithError(err).Error("box cooling failed")
		}
	})
}

func addFreezing(b *particulator.Builder, c config.FreezingConfig) error {
	if !c.Enabled {
		return nil
	}
	fz, err := dynamics.NewFreezing(dynamics.FreezingConfig{
		Singular:    c.Singular,
		Immersion:   c.Immersion,
		Homogeneous: c.Homogeneous,
		Thaw:        c.Thaw,
	})
	if err != nil {
		return err
	}
	b.AddDynamic(fz)
	if c.RecordFreezingTemperature {
		b.RequestAttribute(attributes.TemperatureOfLastFreezing)
	}
	return nil
}

// freezingTemperatures returns fixed when it is non-zero and otherwise
// samples the formulae spectrum for each immersed surface area.
func freezingTemperatures(f *formulae.Formulae, fixed float64, area []float64, n int, seed int64) ([]float64, error) {
	if fixed != 0 {
		return constant(n, fixed), nil
	}
	if !f.HasFreezingSpectrum() {
		return nil, fmt.Errorf("%w: singular freezing needs a freezing temperature or a spectrum", ErrInitialisation)
	}
	if area == nil {
		return nil, fmt.Errorf("%w: sampling freezing temperatures needs an immersed surface area", ErrInitialisation)
	}

	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		u := rng.Float64()
		for u == 0 {
			u = rng.Float64()
		}
		out[i] = f.FreezingTemperatureInvCDF(u, area[i])
	}
	return out, nil
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
