// Package attributes stores per-particle attribute arrays.
//
// Every array in a [Store] has the same length N and index i refers to the
// same super-droplet in all of them. Attributes come in three kinds:
//
//   - base: supplied at build time and mutated in place by dynamics, which
//     then call [Store.MarkUpdated]
//   - derived: computed from other attributes (and, for some, from the
//     ambient environment) and cached until a dependency changes
//   - initialised: base attributes with a fixed starting value that need
//     not be supplied, such as "temperature of last freezing" (NaN)
//
// Names are resolved once with [Store.Resolve]; an attribute that is
// neither supplied, derivable nor initialised is an [ErrMissingAttribute].
//
// # Example
//
//	s := attributes.New(n, f, env)
//	s.Request("volume")
//	if err := s.Resolve(map[string][]float64{
//	    "multiplicity":      mult,
//	    "signed water mass": mass,
//	}); err != nil {
//	    return err
//	}
//	vol, _ := s.Get("volume")
package attributes
