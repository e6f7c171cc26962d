package formulae

import (
	"fmt"
	"math"
)

// Closure names.
const (
	Null              = "Null"
	Constant          = "Constant"
	ABIFM             = "ABIFM"
	KoopEtAl2000      = "KoopEtAl2000"
	AugustRocheMagnus = "AugustRocheMagnus"
	NiemandEtAl2012   = "Niemand_et_al_2012"
)

// DefaultSeed seeds the random stream when Options.Seed is zero.
const DefaultSeed int64 = 44

// Options selects closures by name and overrides constants.
// Empty closure names fall back to the defaults listed in the package doc.
type Options struct {
	HeterogeneousIceNucleationRate string             `yaml:"heterogeneous_ice_nucleation_rate" toml:"heterogeneous_ice_nucleation_rate"`
	HomogeneousIceNucleationRate   string             `yaml:"homogeneous_ice_nucleation_rate" toml:"homogeneous_ice_nucleation_rate"`
	SaturationVapourPressure       string             `yaml:"saturation_vapour_pressure" toml:"saturation_vapour_pressure"`
	FreezingTemperatureSpectrum    string             `yaml:"freezing_temperature_spectrum" toml:"freezing_temperature_spectrum"`
	Constants                      map[string]float64 `yaml:"constants,omitempty" toml:"constants,omitempty"`
	Seed                           int64              `yaml:"seed" toml:"seed"`
}

type Formulae struct {
	opts      Options
	constants map[string]float64
	c         Constants
	seed      int64

	jHet     func(aWIce float64) float64
	jHom     func(T, dAw float64) float64
	pvsWater func(T float64) float64
	pvsIce   func(T float64) float64
	invCDF   func(u, area float64) float64
}

// New resolves closure names and constants. Unknown names and closures
// whose constants were left unset are reported here rather than at run time.
func New(opts Options) (*Formulae, error) {
	if opts.HeterogeneousIceNucleationRate == "" {
		opts.HeterogeneousIceNucleationRate = Null
	}
	if opts.HomogeneousIceNucleationRate == "" {
		opts.HomogeneousIceNucleationRate = Null
	}
	if opts.SaturationVapourPressure == "" {
		opts.SaturationVapourPressure = AugustRocheMagnus
	}
	if opts.FreezingTemperatureSpectrum == "" {
		opts.FreezingTemperatureSpectrum = Null
	}

	constants := defaultConstants()
	for name, v := range opts.Constants {
		if _, ok := constants[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownConstant, name)
		}
		constants[name] = v
	}

	f := &Formulae{
		opts:      opts,
		constants: constants,
		c:         typedConstants(constants),
		seed:      opts.Seed,
	}
	if f.seed == 0 {
		f.seed = DefaultSeed
	}

	if err := f.selectHeterogeneous(opts.HeterogeneousIceNucleationRate); err != nil {
		return nil, err
	}
	if err := f.selectHomogeneous(opts.HomogeneousIceNucleationRate); err != nil {
		return nil, err
	}
	if err := f.selectSaturation(opts.SaturationVapourPressure); err != nil {
		return nil, err
	}
	if err := f.selectSpectrum(opts.FreezingTemperatureSpectrum); err != nil {
		return nil, err
	}
	return f, nil
}

// MustNew is New for statically known options; it panics on error.
func MustNew(opts Options) *Formulae {
	f, err := New(opts)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Formulae) Constants() Constants { return f.c }
func (f *Formulae) Options() Options     { return f.opts }
func (f *Formulae) Seed() int64          { return f.seed }

// Constant resolves a constant by name.
func (f *Formulae) Constant(name string) (float64, error) {
	v, ok := f.constants[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownConstant, name)
	}
	return v, nil
}

func (f *Formulae) requireConstant(closure, name string) (float64, error) {
	v := f.constants[name]
	if math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %s needs %s", ErrMissingConstant, closure, name)
	}
	return v, nil
}

func (f *Formulae) selectHeterogeneous(name string) error {
	switch name {
	case Null:
		f.jHet = nil
	case Constant:
		j, err := f.requireConstant("heterogeneous Constant", "J_HET")
		if err != nil {
			return err
		}
		f.jHet = func(float64) float64 { return j }
	case ABIFM:
		m, c, u := f.constants["ABIFM_M"], f.constants["ABIFM_C"], f.constants["ABIFM_UNIT"]
		f.jHet = func(aWIce float64) float64 {
			return math.Exp(math.Ln10*(m*(1-aWIce)+c)) * u
		}
	default:
		return fmt.Errorf("%w: heterogeneous ice nucleation rate %q", ErrUnknownClosure, name)
	}
	return nil
}

func (f *Formulae) selectHomogeneous(name string) error {
	switch name {
	case Null:
		f.jHom = nil
	case Constant:
		j, err := f.requireConstant("homogeneous Constant", "J_HOM")
		if err != nil {
			return err
		}
		f.jHom = func(float64, float64) float64 { return j }
	case KoopEtAl2000:
		lo, hi, u := f.constants["KOOP_MIN_DA_W_ICE"], f.constants["KOOP_MAX_DA_W_ICE"], f.constants["KOOP_UNIT"]
		f.jHom = func(_, dAw float64) float64 {
			if !(dAw >= lo && dAw <= hi) {
				return 0
			}
			log10J := -906.7 + 8502*dAw - 26924*dAw*dAw + 29180*dAw*dAw*dAw
			return math.Pow(10, log10J) * u
		}
	default:
		return fmt.Errorf("%w: homogeneous ice nucleation rate %q", ErrUnknownClosure, name)
	}
	return nil
}

func (f *Formulae) selectSaturation(name string) error {
	switch name {
	case AugustRocheMagnus:
		t0 := f.c.T0
		c1, c2, c3 := f.constants["ARM_C1"], f.constants["ARM_C2"], f.constants["ARM_C3"]
		i1, i2, i3 := f.constants["ARM_I1"], f.constants["ARM_I2"], f.constants["ARM_I3"]
		f.pvsWater = func(T float64) float64 {
			tc := T - t0
			return c1 * math.Exp(c2*tc/(tc+c3))
		}
		f.pvsIce = func(T float64) float64 {
			tc := T - t0
			return i1 * math.Exp(i2*tc/(tc+i3))
		}
	default:
		return fmt.Errorf("%w: saturation vapour pressure %q", ErrUnknownClosure, name)
	}
	return nil
}

func (f *Formulae) selectSpectrum(name string) error {
	switch name {
	case Null:
		f.invCDF = nil
	case NiemandEtAl2012:
		a, b, t0 := f.constants["NIEMAND_A"], f.constants["NIEMAND_B"], f.c.T0
		f.invCDF = func(u, area float64) float64 {
			return t0 + (math.Log(-math.Log1p(-u)/area)-b)/a
		}
	default:
		return fmt.Errorf("%w: freezing temperature spectrum %q", ErrUnknownClosure, name)
	}
	return nil
}
