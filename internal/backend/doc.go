// Package backend provides the array kernels that mutate particle
// attributes.
//
// Every dynamic and product goes through a [Backend] instead of looping
// over attribute arrays itself, so the per-particle work can be split
// across workers:
//
//   - CPU: chunked goroutines over index ranges, serial below a threshold
//
// # Kernels
//
// Kernels own disjoint index ranges while they run and join before
// returning. Random variates are drawn serially with [Backend.Urand]
// before a stochastic kernel runs, so the consumed sequence does not
// depend on the worker count:
//
//	b, _ := backend.New("cpu")
//	b.Urand(u, rng)
//	frozen, err := b.FreezeTimeDependent(u, mass, area, nil, rate, dt, T)
package backend
