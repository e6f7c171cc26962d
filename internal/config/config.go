package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/sdmsim/internal/formulae"
)

const (
	DefaultScenario      = "box"
	DefaultNSD           = 256
	DefaultDt            = 1.0
	DefaultSteps         = 600
	DefaultDV            = 1.0
	DefaultMultiplicity  = 1e6
	DefaultWaterMass     = 1e-12
	DefaultMassOfDryAir  = 1.0
	DefaultP0            = 1000e2
	DefaultT0            = 300.0
	DefaultQV0           = 22.2e-3
	DefaultW             = 1.0
	DefaultKappa         = 0.5
	DefaultDryRadius     = 40e-9
	DefaultGeoStdDev     = 1.4
	DefaultConcentration = 1e8
)

var (
	ErrInvalid       = errors.New("config: invalid configuration")
	ErrUnknownFormat = errors.New("config: unknown file format")
)

// Config describes one run. Seed, when non-zero, replaces Formulae.Seed.
type Config struct {
	Scenario  string           `yaml:"scenario" toml:"scenario"`
	NSD       int              `yaml:"n_sd" toml:"n_sd"`
	Dt        float64          `yaml:"dt" toml:"dt"`
	Steps     int              `yaml:"steps" toml:"steps"`
	Seed      int64            `yaml:"seed" toml:"seed"`
	Backend   string           `yaml:"backend" toml:"backend"`
	Formulae  formulae.Options `yaml:"formulae" toml:"formulae"`
	Freezing  FreezingConfig   `yaml:"freezing" toml:"freezing"`
	Box       BoxConfig        `yaml:"box" toml:"box"`
	Parcel    ParcelConfig     `yaml:"parcel" toml:"parcel"`
	Particles ParticleConfig   `yaml:"particles" toml:"particles"`
	Products  []string         `yaml:"products,omitempty" toml:"products,omitempty"`
}

type FreezingConfig struct {
	Enabled                   bool `yaml:"enabled" toml:"enabled"`
	Singular                  bool `yaml:"singular" toml:"singular"`
	Immersion                 bool `yaml:"immersion" toml:"immersion"`
	Homogeneous               bool `yaml:"homogeneous" toml:"homogeneous"`
	Thaw                      bool `yaml:"thaw" toml:"thaw"`
	RecordFreezingTemperature bool `yaml:"record_freezing_temperature" toml:"record_freezing_temperature"`
}

// BoxConfig describes a fixed-volume box. Zero RHIce and AWIce are derived
// from T and RH with the saturation curves; a non-zero CoolingRate lowers T
// by that many kelvin per second after every step.
type BoxConfig struct {
	DV          float64 `yaml:"dv" toml:"dv"`
	T           float64 `yaml:"T" toml:"T"`
	RH          float64 `yaml:"RH" toml:"RH"`
	RHIce       float64 `yaml:"RH_ice" toml:"RH_ice"`
	AWIce       float64 `yaml:"a_w_ice" toml:"a_w_ice"`
	CoolingRate float64 `yaml:"cooling_rate" toml:"cooling_rate"`
}

type ParcelConfig struct {
	MassOfDryAir float64 `yaml:"mass_of_dry_air" toml:"mass_of_dry_air"`
	P0           float64 `yaml:"p0" toml:"p0"`
	T0           float64 `yaml:"T0" toml:"T0"`
	QV0          float64 `yaml:"initial_water_vapour_mixing_ratio" toml:"initial_water_vapour_mixing_ratio"`
	Z0           float64 `yaml:"z0" toml:"z0"`
	W            float64 `yaml:"w" toml:"w"`
}

// ParticleConfig holds the initial particle population. Box scenarios use
// the monodisperse fields; parcel scenarios sample a lognormal dry
// spectrum and start in equilibrium with the ambient humidity.
type ParticleConfig struct {
	Multiplicity        float64 `yaml:"multiplicity" toml:"multiplicity"`
	WaterMass           float64 `yaml:"water_mass" toml:"water_mass"`
	ImmersedSurfaceArea float64 `yaml:"immersed_surface_area" toml:"immersed_surface_area"`
	// FreezingTemperature of zero samples from the formulae spectrum.
	FreezingTemperature float64 `yaml:"freezing_temperature" toml:"freezing_temperature"`

	SpecificConcentration float64 `yaml:"specific_concentration" toml:"specific_concentration"`
	DryRadius             float64 `yaml:"dry_radius" toml:"dry_radius"`
	GeometricStdDev       float64 `yaml:"geometric_std_dev" toml:"geometric_std_dev"`
	Kappa                 float64 `yaml:"kappa" toml:"kappa"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario: DefaultScenario,
		NSD:      DefaultNSD,
		Dt:       DefaultDt,
		Steps:    DefaultSteps,
		Backend:  "cpu",
		Formulae: formulae.Options{Seed: formulae.DefaultSeed},
		Box: BoxConfig{
			DV: DefaultDV,
			T:  250,
			RH: 1.0,
		},
		Parcel: ParcelConfig{
			MassOfDryAir: DefaultMassOfDryAir,
			P0:           DefaultP0,
			T0:           DefaultT0,
			QV0:          DefaultQV0,
			W:            DefaultW,
		},
		Particles: ParticleConfig{
			Multiplicity:          DefaultMultiplicity,
			WaterMass:             DefaultWaterMass,
			SpecificConcentration: DefaultConcentration,
			DryRadius:             DefaultDryRadius,
			GeometricStdDev:       DefaultGeoStdDev,
			Kappa:                 DefaultKappa,
		},
	}
}

// Duration is the simulated time covered by Steps.
func (c *Config) Duration() float64 { return float64(c.Steps) * c.Dt }

// Load reads a YAML or TOML file on top of DefaultConfig. The format is
// chosen by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	switch format(path) {
	case "yaml":
		err = yaml.Unmarshal(data, cfg)
	case "toml":
		_, err = toml.Decode(string(data), cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// EffectiveSeed is the seed the random stream will be created with.
func (c *Config) EffectiveSeed() int64 {
	if c.Seed != 0 {
		return c.Seed
	}
	if c.Formulae.Seed != 0 {
		return c.Formulae.Seed
	}
	return formulae.DefaultSeed
}

func Save(path string, cfg *Config) error {
	var data []byte
	switch format(path) {
	case "yaml":
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		data = out
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	return os.WriteFile(path, data, 0644)
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	}
	return ""
}

// Validate checks the parts of the configuration that the selected
// scenario reads.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.NSD <= 0 {
		add("n_sd must be positive, got %d", c.NSD)
	}
	if !(c.Dt > 0) {
		add("dt must be positive, got %g", c.Dt)
	}
	if c.Steps < 0 {
		add("steps must not be negative, got %d", c.Steps)
	}

	fz := c.Freezing
	if fz.Enabled {
		if fz.Singular && (fz.Immersion || fz.Homogeneous) {
			add("singular freezing excludes the immersion and homogeneous pathways")
		}
		if !fz.Singular && !fz.Immersion && !fz.Homogeneous {
			add("freezing needs singular, immersion or homogeneous")
		}
	}

	p := c.Particles
	switch c.Scenario {
	case "box":
		if !(c.Box.DV > 0) {
			add("box.dv must be positive, got %g", c.Box.DV)
		}
		if !(p.Multiplicity >= 0) {
			add("particles.multiplicity must not be negative, got %g", p.Multiplicity)
		}
		if !(p.WaterMass > 0) {
			add("particles.water_mass must be positive, got %g", p.WaterMass)
		}
	case "parcel":
		if !(c.Parcel.MassOfDryAir > 0) {
			add("parcel.mass_of_dry_air must be positive, got %g", c.Parcel.MassOfDryAir)
		}
		if !(c.Parcel.P0 > 0) || !(c.Parcel.T0 > 0) {
			add("parcel.p0 and parcel.T0 must be positive")
		}
		if !(p.DryRadius > 0) || !(p.GeometricStdDev >= 1) {
			add("particles.dry_radius must be positive and geometric_std_dev at least 1")
		}
		if !(p.SpecificConcentration >= 0) {
			add("particles.specific_concentration must not be negative, got %g", p.SpecificConcentration)
		}
	default:
		add("unknown scenario %q", c.Scenario)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
