package dynamics

import (
	"fmt"

	"github.com/san-kum/sdmsim/internal/attributes"
	"github.com/san-kum/sdmsim/internal/backend"
	"github.com/san-kum/sdmsim/internal/environment"
)

type FreezingConfig struct {
	// Singular selects threshold freezing at a per-particle freezing
	// temperature; otherwise freezing is a rate process.
	Singular    bool
	Immersion   bool
	Homogeneous bool
	Thaw        bool
}

// FreezingStats counts phase transitions since the dynamic was built.
type FreezingStats struct {
	Frozen int
	Thawed int
}

// Freezing flips the sign of the signed water mass of particles that
// freeze (liquid to ice) or thaw (ice to liquid). The magnitude is never
// changed.
type Freezing struct {
	cfg   FreezingConfig
	u     []float64
	held  []int
	stats FreezingStats
}

// NewFreezing validates cfg. Singular freezing cannot be combined with a
// time-dependent pathway, and time-dependent freezing needs at least one.
func NewFreezing(cfg FreezingConfig) (*Freezing, error) {
	if cfg.Singular && (cfg.Immersion || cfg.Homogeneous) {
		return nil, fmt.Errorf("%w: singular freezing cannot be combined with immersion or homogeneous pathways", ErrInvalidConfig)
	}
	if !cfg.Singular && !cfg.Immersion && !cfg.Homogeneous {
		return nil, fmt.Errorf("%w: time-dependent freezing needs the immersion or homogeneous pathway", ErrInvalidConfig)
	}
	return &Freezing{cfg: cfg}, nil
}

func (fz *Freezing) Name() string         { return "freezing" }
func (fz *Freezing) Stats() FreezingStats { return fz.stats }

func (fz *Freezing) Register(r Registrar) error {
	f := r.Formulae()
	r.RequestAttribute(attributes.SignedWaterMass)
	r.RequestAttribute(attributes.Multiplicity)

	if fz.cfg.Singular {
		r.RequestAttribute(attributes.FreezingTemperature)
		return nil
	}
	if fz.cfg.Immersion {
		if !f.HasHeterogeneousRate() {
			return fmt.Errorf("%w: immersion freezing with Null heterogeneous rate", ErrMissingClosure)
		}
		r.RequestAttribute(attributes.ImmersedSurfaceArea)
	}
	if fz.cfg.Homogeneous {
		if !f.HasHomogeneousRate() {
			return fmt.Errorf("%w: homogeneous freezing with Null homogeneous rate", ErrMissingClosure)
		}
		r.RequestAttribute(attributes.Volume)
	}
	return nil
}

type ambient struct {
	T, RH, RHIce, AWIce float64
}

func (fz *Freezing) readAmbient(env environment.Environment) (ambient, error) {
	var a ambient
	var err error

	if a.T, err = env.Get(environment.T); err != nil {
		return a, err
	}
	if fz.cfg.Singular || fz.cfg.Immersion {
		if a.RH, err = env.Get(environment.RH); err != nil {
			return a, err
		}
	}
	if fz.cfg.Immersion || fz.cfg.Homogeneous {
		if a.AWIce, err = env.Get(environment.AWIce); err != nil {
			return a, err
		}
	}
	if fz.cfg.Homogeneous {
		if a.RHIce, err = env.Get(environment.RHIce); err != nil {
			return a, err
		}
	}
	return a, nil
}

// Step applies thaw first. Particles thawed in a step cannot re-freeze in
// the same step; all other liquid is evaluated by the freezing pathways at
// any temperature. Time-dependent pathways draw one variate per
// super-droplet each, immersion before homogeneous, so the number of draws
// per step never depends on the state.
func (fz *Freezing) Step(h Host, rng backend.Rand) error {
	attrs := h.Attributes()

	amb, err := fz.readAmbient(h.Environment())
	if err != nil {
		return fmt.Errorf("freezing: %w", err)
	}

	mass, err := attrs.Get(attributes.SignedWaterMass)
	if err != nil {
		return err
	}
	var last []float64
	if attrs.Has(attributes.TemperatureOfLastFreezing) {
		if last, err = attrs.Get(attributes.TemperatureOfLastFreezing); err != nil {
			return err
		}
	}

	thawed := 0
	fz.held = fz.held[:0]
	if fz.cfg.Thaw {
		t0 := h.Formulae().Constants().T0
		if amb.T >= t0 {
			fz.held = appendIce(fz.held, mass)
		}
		thawed = h.Backend().Thaw(mass, last, amb.T, t0)
		fz.stats.Thawed += thawed
	}

	// just-thawed particles sit out the freezing pass as ice
	negate(mass, fz.held)
	frozen, freezeErr := fz.freeze(h, rng, amb, mass, last)
	negate(mass, fz.held)
	fz.stats.Frozen += frozen

	if thawed+frozen > 0 {
		if err := attrs.MarkUpdated(attributes.SignedWaterMass); err != nil {
			return err
		}
		if last != nil {
			if err := attrs.MarkUpdated(attributes.TemperatureOfLastFreezing); err != nil {
				return err
			}
		}
	}
	return freezeErr
}

func (fz *Freezing) freeze(h Host, rng backend.Rand, amb ambient, mass, last []float64) (int, error) {
	attrs := h.Attributes()
	b := h.Backend()
	f := h.Formulae()

	if fz.cfg.Singular {
		tf, err := attrs.Get(attributes.FreezingTemperature)
		if err != nil {
			return 0, err
		}
		return b.FreezeSingular(mass, tf, last, amb.T, amb.RH), nil
	}

	if len(fz.u) != len(mass) {
		fz.u = make([]float64, len(mass))
	}
	dt := h.Dt()
	frozen := 0

	if fz.cfg.Immersion {
		area, err := attrs.Get(attributes.ImmersedSurfaceArea)
		if err != nil {
			return frozen, err
		}
		b.Urand(fz.u, rng)

		var rate float64
		if amb.RH > 1 {
			rate = f.JHet(amb.AWIce)
		}
		n, err := b.FreezeTimeDependent(fz.u, mass, area, last, rate, dt, amb.T)
		frozen += n
		if err != nil {
			return frozen, fmt.Errorf("immersion freezing: %w", err)
		}
		if n > 0 {
			if err := attrs.MarkUpdated(attributes.SignedWaterMass); err != nil {
				return frozen, err
			}
		}
	}

	if fz.cfg.Homogeneous {
		volume, err := attrs.Get(attributes.Volume)
		if err != nil {
			return frozen, err
		}
		b.Urand(fz.u, rng)

		rate := f.JHom(amb.T, (amb.RHIce-1)*amb.AWIce)
		n, err := b.FreezeTimeDependent(fz.u, mass, volume, last, rate, dt, amb.T)
		frozen += n
		if err != nil {
			return frozen, fmt.Errorf("homogeneous freezing: %w", err)
		}
	}
	return frozen, nil
}

func appendIce(dst []int, signedMass []float64) []int {
	for i, m := range signedMass {
		if m < 0 {
			dst = append(dst, i)
		}
	}
	return dst
}

func negate(signedMass []float64, idx []int) {
	for _, i := range idx {
		signedMass[i] = -signedMass[i]
	}
}
