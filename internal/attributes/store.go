package attributes

import (
	"fmt"
	"sort"

	"github.com/san-kum/sdmsim/internal/formulae"
)

// Ambient is the read side of the environment seen by derived attributes.
type Ambient interface {
	Get(name string) (float64, error)
	Version() uint64
}

type attribute struct {
	data    []float64
	version uint64
	def     *Definition

	fresh       bool
	depVersions []uint64
	envVersion  uint64
}

type Store struct {
	n        int
	f        *formulae.Formulae
	env      Ambient
	defs     map[string]Definition
	attrs    map[string]*attribute
	order    []string
	request  map[string]bool
	resolved bool
}

// New creates an empty store for n super-droplets. env may be nil when no
// environment-dependent attribute is used.
func New(n int, f *formulae.Formulae, env Ambient) *Store {
	return &Store{
		n:       n,
		f:       f,
		env:     env,
		defs:    catalog(),
		attrs:   make(map[string]*attribute),
		request: make(map[string]bool),
	}
}

func (s *Store) N() int { return s.n }

// Request marks name as needed; it is resolved by Resolve.
func (s *Store) Request(name string) {
	if !s.request[name] {
		s.request[name] = true
		s.order = append(s.order, name)
	}
}

// Resolve copies the supplied base arrays and resolves every requested
// attribute. "multiplicity" is always required. "volume" and "signed water
// mass" are mutually exclusive; when only "volume" is supplied and mass is
// needed, "signed water mass" is computed from it once and "volume" becomes
// derived.
func (s *Store) Resolve(supplied map[string][]float64) error {
	_, hasVolume := supplied[Volume]
	_, hasMass := supplied[SignedWaterMass]
	if hasVolume && hasMass {
		return fmt.Errorf("%w: %q and %q", ErrConflictingAttributes, Volume, SignedWaterMass)
	}

	names := make([]string, 0, len(supplied))
	for name := range supplied {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		data := supplied[name]
		if len(data) != s.n {
			return fmt.Errorf("%w: %q has %d, want %d", ErrLengthMismatch, name, len(data), s.n)
		}
		s.attrs[name] = &attribute{data: append([]float64(nil), data...)}
	}

	if _, ok := s.attrs[Multiplicity]; !ok {
		return fmt.Errorf("%w: %q", ErrMissingAttribute, Multiplicity)
	}

	if vol, ok := s.attrs[Volume]; ok && s.needsMass() {
		c := s.f.Constants()
		mass := make([]float64, s.n)
		for i, v := range vol.data {
			mass[i] = signedMassOfVolume(v, c)
		}
		s.attrs[SignedWaterMass] = &attribute{data: mass}
		delete(s.attrs, Volume)
		s.Request(Volume)
	}

	for _, name := range s.order {
		if err := s.resolve(name, map[string]bool{}); err != nil {
			return err
		}
	}
	s.resolved = true
	return nil
}

func (s *Store) needsMass() bool {
	if s.request[SignedWaterMass] || s.request[WaterMass] {
		return true
	}
	for name := range s.request {
		if d, ok := s.defs[name]; ok && dependsOn(s.defs, d, SignedWaterMass, 0) {
			return true
		}
	}
	return false
}

func dependsOn(defs map[string]Definition, d Definition, target string, depth int) bool {
	if depth > len(defs) {
		return false
	}
	for _, dep := range d.Deps {
		if dep == target {
			return true
		}
		if dd, ok := defs[dep]; ok && dependsOn(defs, dd, target, depth+1) {
			return true
		}
	}
	return false
}

func (s *Store) resolve(name string, visiting map[string]bool) error {
	if _, ok := s.attrs[name]; ok {
		return nil
	}
	if visiting[name] {
		return fmt.Errorf("%w: %q", ErrDependencyCycle, name)
	}

	if v, ok := initialised[name]; ok {
		data := make([]float64, s.n)
		for i := range data {
			data[i] = v
		}
		s.attrs[name] = &attribute{data: data}
		return nil
	}

	def, ok := s.defs[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingAttribute, name)
	}

	visiting[name] = true
	for _, dep := range def.Deps {
		if err := s.resolve(dep, visiting); err != nil {
			return fmt.Errorf("%q: %w", name, err)
		}
	}
	delete(visiting, name)

	s.attrs[name] = &attribute{
		data:        make([]float64, s.n),
		def:         &def,
		depVersions: make([]uint64, len(def.Deps)),
	}
	return nil
}

// Has reports whether name has been resolved.
func (s *Store) Has(name string) bool {
	_, ok := s.attrs[name]
	return ok
}

// IsDerived reports whether name is a resolved derived attribute.
func (s *Store) IsDerived(name string) bool {
	a, ok := s.attrs[name]
	return ok && a.def != nil
}

// Names lists the resolved attributes in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.attrs))
	for name := range s.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the array for name, recomputing a derived attribute first if
// any dependency changed. Base arrays may be written in place; callers
// must then call MarkUpdated.
func (s *Store) Get(name string) ([]float64, error) {
	if !s.resolved {
		return nil, ErrNotResolved
	}
	a, ok := s.attrs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingAttribute, name)
	}
	if a.def != nil {
		if err := s.refresh(a); err != nil {
			return nil, err
		}
	}
	return a.data, nil
}

// MarkUpdated records that a base attribute was modified in place.
func (s *Store) MarkUpdated(name string) error {
	a, ok := s.attrs[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingAttribute, name)
	}
	if a.def != nil {
		return fmt.Errorf("%w: %q", ErrReadOnly, name)
	}
	a.version++
	return nil
}

// Version is the number of times name changed since Resolve.
func (s *Store) Version(name string) uint64 {
	if a, ok := s.attrs[name]; ok {
		return a.version
	}
	return 0
}

func (s *Store) refresh(a *attribute) error {
	stale := !a.fresh
	deps := make([][]float64, len(a.def.Deps))
	for i, name := range a.def.Deps {
		dep := s.attrs[name]
		if dep.def != nil {
			if err := s.refresh(dep); err != nil {
				return err
			}
		}
		if dep.version != a.depVersions[i] {
			stale = true
		}
		deps[i] = dep.data
	}

	var envVersion uint64
	if a.def.Ambient && s.env != nil {
		envVersion = s.env.Version()
		if envVersion != a.envVersion {
			stale = true
		}
	}
	if !stale {
		return nil
	}

	if err := a.def.Compute(s, deps, a.data); err != nil {
		return fmt.Errorf("attributes: computing %q: %w", a.def.Name, err)
	}
	for i, name := range a.def.Deps {
		a.depVersions[i] = s.attrs[name].version
	}
	a.envVersion = envVersion
	a.fresh = true
	a.version++
	return nil
}

func (s *Store) Formulae() *formulae.Formulae { return s.f }

func (s *Store) ambient(name string) (float64, error) {
	if s.env == nil {
		return 0, fmt.Errorf("%w: no environment for %q", ErrMissingAttribute, name)
	}
	return s.env.Get(name)
}
