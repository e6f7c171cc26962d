// Package formulae provides the physical relations used by environments,
// dynamics and products.
//
// A [Formulae] value bundles a set of constants with a selection of
// closures chosen by name when it is constructed:
//
//   - heterogeneous ice nucleation rate: Null, Constant, ABIFM
//   - homogeneous ice nucleation rate: Null, Constant, KoopEtAl2000
//   - saturation vapour pressure: AugustRocheMagnus
//   - freezing temperature spectrum: Null, Niemand_et_al_2012
//
// Everything else (dry-air density, potential temperature, latent heat,
// hydrostatic density gradient, kappa-Köhler curves) is a pure function of
// its arguments and of the constants.
//
// # Example
//
//	f, err := formulae.New(formulae.Options{
//	    HeterogeneousIceNucleationRate: "Constant",
//	    Constants:                      map[string]float64{"J_HET": 1e-9},
//	})
//	rate := f.JHet(0.6)
package formulae
