package formulae

import "math"

// PD is the dry-air partial pressure for total pressure p and vapour mixing ratio qv.
func (f *Formulae) PD(p, qv float64) float64 {
	return p * f.c.Eps / (f.c.Eps + qv)
}

func (f *Formulae) RhodOfPdT(pd, T float64) float64 {
	return pd / (f.c.Rd * T)
}

// ThStd is the dry potential temperature referenced to p1000.
func (f *Formulae) ThStd(pd, T float64) float64 {
	return T * math.Pow(f.c.P1000/pd, f.c.Rd/f.c.CPD)
}

func (f *Formulae) VolumeOfDensityMass(rho, mass float64) float64 {
	return mass / rho
}

// TemperatureOfRhodThd inverts ThStd with pd = rhod Rd T.
func (f *Formulae) TemperatureOfRhodThd(rhod, thd float64) float64 {
	k := f.c.Rd / f.c.CPD
	return thd * math.Pow(rhod*thd/f.c.P1000*f.c.Rd, k/(1-k))
}

func (f *Formulae) PressureOfRhodTQv(rhod, T, qv float64) float64 {
	return rhod * T * (f.c.Rd + qv*f.c.Rv)
}

// PvOfPQv is the water vapour partial pressure.
func (f *Formulae) PvOfPQv(p, qv float64) float64 {
	return p * qv / (qv + f.c.Eps)
}

func (f *Formulae) PvsWater(T float64) float64 { return f.pvsWater(T) }
func (f *Formulae) PvsIce(T float64) float64   { return f.pvsIce(T) }

// Lv is the latent heat of vaporisation (Kirchhoff's law, constant heat capacities).
func (f *Formulae) Lv(T float64) float64 {
	return f.c.LTri + (f.c.CPV-f.c.CPW)*(T-f.c.TTri)
}

// DrhoDz is the hydrostatic, moist-adiabatic density gradient including
// the latent heat release of dQl/dz.
func (f *Formulae) DrhoDz(p, T, qv, lv, dQlDz float64) float64 {
	rq := (f.c.Rv*qv + f.c.Rd) / (1 + qv)
	cp := (f.c.CPV*qv + f.c.CPD) / (1 + qv)
	rho := p / rq / T
	return (f.c.G/T*rho*(rq/cp-1) - p*lv/cp/(T*T)*dQlDz) / rq
}

// HasHeterogeneousRate reports whether a non-Null immersion closure is selected.
func (f *Formulae) HasHeterogeneousRate() bool { return f.jHet != nil }

// HasHomogeneousRate reports whether a non-Null homogeneous closure is selected.
func (f *Formulae) HasHomogeneousRate() bool { return f.jHom != nil }

// JHet is the immersion freezing rate per unit immersed surface area [m-2 s-1].
func (f *Formulae) JHet(aWIce float64) float64 {
	if f.jHet == nil {
		return 0
	}
	return f.jHet(aWIce)
}

// JHom is the homogeneous freezing rate per unit liquid volume [m-3 s-1].
func (f *Formulae) JHom(T, dAw float64) float64 {
	if f.jHom == nil {
		return 0
	}
	return f.jHom(T, dAw)
}

func (f *Formulae) HasFreezingSpectrum() bool { return f.invCDF != nil }

// FreezingTemperatureInvCDF maps a uniform variate to a singular freezing
// temperature for a particle with the given immersed surface area.
func (f *Formulae) FreezingTemperatureInvCDF(u, area float64) float64 {
	if f.invCDF == nil {
		return math.NaN()
	}
	return f.invCDF(u, area)
}

func Volume(radius float64) float64 {
	return 4.0 / 3.0 * math.Pi * radius * radius * radius
}

// Radius keeps the sign of the volume (ice volumes are negative).
func Radius(volume float64) float64 {
	return math.Cbrt(3 * volume / (4 * math.Pi))
}

// KelvinA is the curvature coefficient of the Köhler curve [m].
func (f *Formulae) KelvinA(T float64) float64 {
	return 2 * f.c.SgmW / (f.c.RhoW * f.c.Rv * T)
}

// RHEq is the kappa-Köhler equilibrium saturation over a droplet of radius r.
func (f *Formulae) RHEq(r, T, kappa, rd3 float64) float64 {
	r3 := r * r * r
	return math.Exp(f.KelvinA(T)/r) * (r3 - rd3) / (r3 - rd3*(1-kappa))
}

// RCrit is the activation radius of the kappa-Köhler curve.
func (f *Formulae) RCrit(T, kappa, rd3 float64) float64 {
	return math.Sqrt(3 * kappa * rd3 / f.KelvinA(T))
}

// SCrit is the critical saturation of the kappa-Köhler curve.
func (f *Formulae) SCrit(T, kappa, rd3 float64) float64 {
	a := f.KelvinA(T)
	return math.Exp(math.Sqrt(4 * a * a * a / 27 / kappa / rd3))
}
