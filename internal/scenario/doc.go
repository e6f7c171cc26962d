// Package scenario turns a config.Config into a built particulator.
//
// A [Registry] maps scenario names to builders and product names to
// constructors:
//
//   - "box": a fixed-volume box with prescribed, optionally ramped,
//     temperature and humidity and a monodisperse droplet population
//   - "parcel": an adiabatic parcel lifted at constant velocity with a
//     lognormal aerosol population in equilibrium with the initial
//     humidity
//
// Freezing is added when the configuration enables it. [Registry.Factory]
// adapts a configuration to particulator.Ensemble.
package scenario
