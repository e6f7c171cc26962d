// Package environment provides the thermodynamic surroundings of the
// particles.
//
// An [Environment] exposes named scalar fields of a single cell:
//
//   - T, p, RH, RH_ice, a_w_ice: ambient state read by dynamics
//   - water_vapour_mixing_ratio, thd, rhod: prognostic state
//   - z: vertical displacement (parcel only)
//
// Two variants are provided. [Box] holds an externally imposed state that
// Sync leaves untouched. [Parcel] integrates an adiabatic ascent with a
// prescribed vertical velocity and keeps its fields in two buffers:
// dynamics read the current buffer, write predictions with
// SetPredicted, and Commit makes the predictions current.
//
// # Timestep protocol
//
//	env.Sync(host)   // prepare the next time level
//	// dynamics run against env.Get
//	env.Commit()     // swap current and next
//
// Version changes whenever the state a derived attribute may depend on
// changes.
package environment
