package formulae

import "math"

const (
	molarGasConstant = 8.314462618
	molarMassDryAir  = 28.966e-3
	molarMassWater   = 18.015e-3
)

// Constants holds the typed copy of the constants used on hot paths.
// Closure-specific constants stay in the name map only.
type Constants struct {
	T0    float64 // melting reference temperature
	TTri  float64 // triple point temperature
	Rd    float64
	Rv    float64
	Eps   float64 // Rd / Rv
	CPD   float64
	CPV   float64
	CPW   float64
	G     float64
	P1000 float64
	RhoW  float64
	RhoI  float64
	LTri  float64
	SgmW  float64
}

func defaultConstants() map[string]float64 {
	rd := molarGasConstant / molarMassDryAir
	rv := molarGasConstant / molarMassWater
	return map[string]float64{
		"T0":    273.15,
		"T_tri": 273.16,
		"Rd":    rd,
		"Rv":    rv,
		"c_pd":  1005,
		"c_pv":  1850,
		"c_pw":  4218,
		"g_std": 9.80665,
		"p1000": 1000e2,
		"rho_w": 1000,
		"rho_i": 916.8,
		"l_tri": 2.5e6,
		"sgm_w": 0.072,

		"ARM_C1": 610.94,
		"ARM_C2": 17.625,
		"ARM_C3": 243.04,
		"ARM_I1": 611.21,
		"ARM_I2": 22.587,
		"ARM_I3": 273.86,

		"J_HET": math.NaN(),
		"J_HOM": math.NaN(),

		"ABIFM_M":    28.13797,
		"ABIFM_C":    -2.92414,
		"ABIFM_UNIT": 1e4, // 1 / cm^2 / s

		"KOOP_MIN_DA_W_ICE": 0.26,
		"KOOP_MAX_DA_W_ICE": 0.34,
		"KOOP_UNIT":         1e6, // 1 / cm^3 / s

		"NIEMAND_A": -0.517,
		"NIEMAND_B": 8.934,
	}
}

func typedConstants(m map[string]float64) Constants {
	return Constants{
		T0:    m["T0"],
		TTri:  m["T_tri"],
		Rd:    m["Rd"],
		Rv:    m["Rv"],
		Eps:   m["Rd"] / m["Rv"],
		CPD:   m["c_pd"],
		CPV:   m["c_pv"],
		CPW:   m["c_pw"],
		G:     m["g_std"],
		P1000: m["p1000"],
		RhoW:  m["rho_w"],
		RhoI:  m["rho_i"],
		LTri:  m["l_tri"],
		SgmW:  m["sgm_w"],
	}
}
