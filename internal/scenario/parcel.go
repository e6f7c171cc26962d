package scenario

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/sdmsim/internal/attributes"
	"github.com/san-kum/sdmsim/internal/config"
	"github.com/san-kum/sdmsim/internal/environment"
	"github.com/san-kum/sdmsim/internal/equilibrium"
	"github.com/san-kum/sdmsim/internal/formulae"
	"github.com/san-kum/sdmsim/internal/particulator"
	"github.com/san-kum/sdmsim/internal/products"
)

// DryRadii samples a lognormal spectrum at n equally spaced quantiles so
// that every super-droplet carries the same multiplicity.
func DryRadii(median, geometricStdDev float64, n int) []float64 {
	dist := distuv.LogNormal{Mu: math.Log(median), Sigma: math.Log(geometricStdDev)}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Quantile((float64(i) + 0.5) / float64(n))
	}
	return out
}

func buildParcel(cfg *config.Config, f *formulae.Formulae, prods []products.Product, opts []particulator.Option) (*particulator.Particulator, error) {
	pc := cfg.Parcel
	env, err := environment.NewParcel(environment.ParcelConfig{
		MassOfDryAir:                  pc.MassOfDryAir,
		P0:                            pc.P0,
		InitialWaterVapourMixingRatio: pc.QV0,
		T0:                            pc.T0,
		Z0:                            pc.Z0,
		W:                             environment.ConstantW(pc.W),
	})
	if err != nil {
		return nil, err
	}

	b := particulator.NewBuilder(cfg.NSD, cfg.Dt, f, env, opts...)
	if err := addFreezing(b, cfg.Freezing); err != nil {
		return nil, err
	}
	if err := b.RegisterEnvironment(); err != nil {
		return nil, err
	}

	n, part := cfg.NSD, cfg.Particles
	rDry := DryRadii(part.DryRadius, part.GeometricStdDev, n)
	mult := constant(n, part.SpecificConcentration*pc.MassOfDryAir/float64(n))
	attrs, err := env.InitAttributes(mult, part.Kappa, rDry, equilibrium.DefaultRtol)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialisation, err)
	}

	fz := cfg.Freezing
	if fz.Enabled && (fz.Immersion || fz.Singular) {
		area := make([]float64, n)
		for i, r := range rDry {
			area[i] = 4 * math.Pi * r * r
		}
		attrs[attributes.ImmersedSurfaceArea] = area
	}
	if fz.Enabled && fz.Singular {
		tf, err := freezingTemperatures(f, part.FreezingTemperature, attrs[attributes.ImmersedSurfaceArea], n, cfg.EffectiveSeed())
		if err != nil {
			return nil, err
		}
		attrs[attributes.FreezingTemperature] = tf
	}

	return b.Build(attrs, prods...)
}
