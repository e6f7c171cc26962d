// Package dynamics provides the per-step particle processes.
//
// A [Dynamic] registers the attributes it needs once, when the
// particulator is built, and is then called once per step after the
// environment has been synchronised. Dynamics read the current ambient
// state, mutate base attributes in place through the backend kernels and
// report what they changed with attributes.Store.MarkUpdated.
//
// Stochastic dynamics draw their variates from the random stream passed
// to Step, so the sequence consumed depends only on the seed and on the
// order in which dynamics were added.
//
// [Freezing] covers singular and time-dependent ice nucleation through the
// immersion and homogeneous pathways, and optional thaw.
package dynamics
