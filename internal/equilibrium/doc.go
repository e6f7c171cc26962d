// Package equilibrium computes wet radii of haze particles in equilibrium
// with the ambient relative humidity on the kappa-Köhler curve.
package equilibrium
