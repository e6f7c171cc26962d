// Package particulator drives a super-droplet simulation.
//
// A [Builder] wires an environment, an ordered list of dynamics and a set
// of products to a population of super-droplets:
//
//   - [NewBuilder]: number of super-droplets, timestep, formulae, environment
//   - [Builder.AddDynamic]: dynamics run in the order they are added
//   - [Builder.Build]: registers everything once and resolves attributes
//
// [Particulator.Run] then advances the state one step at a time:
//
//	env.Sync -> dynamics in order -> step counter -> env.Commit -> observers
//
// A single random stream, seeded from the formulae, is created at build
// time and handed to every dynamic call, so a fixed seed reproduces a run
// exactly. Changing the order of dynamics changes which variates each one
// consumes.
//
// # Example
//
//	b := particulator.NewBuilder(n, dt, f, environment.NewBox(1))
//	b.AddDynamic(freezing)
//	p, err := b.Build(attrs, products.NewIceWaterContent())
//	res, err := p.Record(ctx, 100)
//
// # Thread Safety
//
// A Particulator is NOT thread-safe. Use [Ensemble] to run independent
// members in parallel.
package particulator
