// Package products computes bulk diagnostics of the particle population
// and its environment.
//
// Every [Product] has a name, physical units (github.com/ctessum/unit
// dimensions) and a Get method evaluated against the current state.
// Products that need particle attributes request them in Register, before
// the attribute store is resolved.
//
// Concentrations are per unit cell volume, taken from the environment's
// DV at the time of evaluation.
package products
