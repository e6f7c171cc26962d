package equilibrium

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/sdmsim/internal/formulae"
)

// DefaultRtol is the relative tolerance used when none is given.
const DefaultRtol = 1e-5

const maxIterations = 200

var (
	// ErrNoEquilibrium indicates a relative humidity at or above the critical
	// saturation of a particle, where no stable haze radius exists.
	ErrNoEquilibrium = errors.New("equilibrium: no stable wet radius")

	// ErrInvalidInput indicates mismatched or non-positive dry sizes.
	ErrInvalidInput = errors.New("equilibrium: invalid input")
)

// WetRadii solves RHEq(r) = RH for every particle between its dry radius
// and its critical radius by bisection.
func WetRadii(f *formulae.Formulae, T, RH float64, rDry, kappaTimesDryVolume []float64, rtol float64) ([]float64, error) {
	if len(rDry) != len(kappaTimesDryVolume) {
		return nil, fmt.Errorf("%w: %d dry radii, %d kappa times dry volumes",
			ErrInvalidInput, len(rDry), len(kappaTimesDryVolume))
	}
	if rtol <= 0 {
		rtol = DefaultRtol
	}
	if !(RH >= 0) || math.IsNaN(T) {
		return nil, fmt.Errorf("%w: T=%g RH=%g", ErrInvalidInput, T, RH)
	}

	out := make([]float64, len(rDry))
	for i, rd := range rDry {
		if !(rd > 0) {
			return nil, fmt.Errorf("%w: dry radius %g at %d", ErrInvalidInput, rd, i)
		}
		rd3 := rd * rd * rd
		kappa := kappaTimesDryVolume[i] / formulae.Volume(rd)
		if !(kappa > 0) {
			return nil, fmt.Errorf("%w: kappa %g at %d", ErrInvalidInput, kappa, i)
		}

		r, err := bisect(func(r float64) float64 {
			return f.RHEq(r, T, kappa, rd3) - RH
		}, rd, f.RCrit(T, kappa, rd3), rtol)
		if err != nil {
			return nil, fmt.Errorf("particle %d (r_dry=%g, kappa=%g, RH=%g): %w", i, rd, kappa, RH, err)
		}
		out[i] = r
	}
	return out, nil
}

func bisect(fn func(float64) float64, lo, hi, rtol float64) (float64, error) {
	flo, fhi := fn(lo), fn(hi)
	if flo == 0 {
		return lo, nil
	}
	if fhi < 0 {
		return 0, ErrNoEquilibrium
	}

	for i := 0; i < maxIterations; i++ {
		mid := (lo + hi) / 2
		if hi-lo <= rtol*lo {
			return mid, nil
		}
		fmid := fn(mid)
		if fmid == 0 {
			return mid, nil
		}
		if (fmid < 0) == (flo < 0) {
			lo, flo = mid, fmid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}
