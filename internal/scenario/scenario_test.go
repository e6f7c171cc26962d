package scenario

import (
	"context"
	"errors"
	"io"
	"math"
	"reflect"
	"sort"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/san-kum/sdmsim/internal/attributes"
	"github.com/san-kum/sdmsim/internal/config"
	"github.com/san-kum/sdmsim/internal/environment"
	"github.com/san-kum/sdmsim/internal/formulae"
	"github.com/san-kum/sdmsim/internal/particulator"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRegistryLists(t *testing.T) {
	r := NewRegistry()

	if got := r.ListScenarios(); !reflect.DeepEqual(got, []string{"box", "parcel"}) {
		t.Errorf("scenarios: %v", got)
	}
	prods := r.ListProducts()
	if !sort.StringsAreSorted(prods) {
		t.Error("product names should be sorted")
	}
	for _, name := range prods {
		p, err := r.GetProduct(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("registered as %q but named %q", name, p.Name())
		}
	}
	if _, err := r.GetProduct("rain rate"); !errors.Is(err, ErrUnknownProduct) {
		t.Errorf("expected ErrUnknownProduct, got %v", err)
	}
}

func TestPresetsBuildAndRun(t *testing.T) {
	r := NewRegistry()
	for scenario, names := range config.Presets {
		for name := range names {
			t.Run(name, func(t *testing.T) {
				cfg := config.GetPreset(scenario, name)
				cfg.NSD = 32

				p, err := r.Build(cfg, particulator.WithLogger(quietLogger()))
				if err != nil {
					t.Fatalf("build: %v", err)
				}
				res, err := p.Record(context.Background(), 5)
				if err != nil {
					t.Fatalf("record: %v", err)
				}
				if len(res.Times) != 6 {
					t.Errorf("expected 6 samples, got %d", len(res.Times))
				}
				if !reflect.DeepEqual(res.Order, cfg.Products) {
					t.Errorf("products %v, want %v", res.Order, cfg.Products)
				}
			})
		}
	}
}

func TestDefaultProducts(t *testing.T) {
	r := NewRegistry()
	cfg := config.DefaultConfig()
	cfg.NSD = 4

	p, err := r.Build(cfg, particulator.WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, prod := range p.Products() {
		names = append(names, prod.Name())
	}
	if !reflect.DeepEqual(names, r.DefaultProducts("box")) {
		t.Errorf("got %v, want %v", names, r.DefaultProducts("box"))
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		want   error
	}{
		{"invalid config", func(c *config.Config) { c.NSD = 0 }, config.ErrInvalid},
		{"unknown product", func(c *config.Config) { c.Products = []string{"rain rate"} }, ErrUnknownProduct},
		{"unknown closure", func(c *config.Config) {
			c.Formulae.HeterogeneousIceNucleationRate = "Magic"
		}, formulae.ErrUnknownClosure},
		{"singular without temperatures", func(c *config.Config) {
			c.Freezing = config.FreezingConfig{Enabled: true, Singular: true}
		}, ErrInitialisation},
		{"spectrum without area", func(c *config.Config) {
			c.Formulae.FreezingTemperatureSpectrum = formulae.NiemandEtAl2012
			c.Freezing = config.FreezingConfig{Enabled: true, Singular: true}
		}, ErrInitialisation},
		{"parcel above critical saturation", func(c *config.Config) {
			c.Scenario = "parcel"
			c.Parcel.QV0 = 0.05
		}, ErrInitialisation},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.NSD = 8
			tt.mutate(cfg)
			_, err := r.Build(cfg, particulator.WithLogger(quietLogger()))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBoxAmbient(t *testing.T) {
	f := formulae.MustNew(formulae.Options{})
	const T = 240.0
	pvs, pvi := f.PvsWater(T), f.PvsIce(T)

	got := BoxAmbient(f, config.BoxConfig{RH: 0.9}, T)
	if math.Abs(got[environment.AWIce]-pvi/pvs) > 1e-15 {
		t.Errorf("a_w_ice = %g, want %g", got[environment.AWIce], pvi/pvs)
	}
	if math.Abs(got[environment.RHIce]-0.9*pvs/pvi) > 1e-12 {
		t.Errorf("RH_ice = %g, want %g", got[environment.RHIce], 0.9*pvs/pvi)
	}

	fixed := BoxAmbient(f, config.BoxConfig{RH: 1, RHIce: 1.5, AWIce: 0.6}, T)
	if fixed[environment.RHIce] != 1.5 || fixed[environment.AWIce] != 0.6 {
		t.Errorf("explicit values overridden: %v", fixed)
	}
}

func TestBoxCooling(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.NSD = 4
	cfg.Box = config.BoxConfig{DV: 1, T: 260, RH: 1, CoolingRate: 0.5}

	p, err := NewRegistry().Build(cfg, particulator.WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Run(context.Background(), 10); err != nil {
		t.Fatal(err)
	}
	T, _ := p.Environment().Get(environment.T)
	if math.Abs(T-255) > 1e-12 {
		t.Errorf("T = %g after 10 s at 0.5 K/s, want 255", T)
	}
}

type readOnlyBox struct {
	*environment.Box
}

func (b readOnlyBox) Set(name string, v float64) error {
	return errors.New("read-only")
}

func TestBoxCoolingLogsFailure(t *testing.T) {
	f := formulae.MustNew(formulae.Options{})
	box := environment.NewBox(1)
	for name, v := range BoxAmbient(f, config.BoxConfig{RH: 1}, 260) {
		if err := box.Set(name, v); err != nil {
			t.Fatal(err)
		}
	}
	env := readOnlyBox{box}

	logger, hook := test.NewNullLogger()
	b := particulator.NewBuilder(2, 1, f, env, particulator.WithLogger(logger))
	p, err := b.Build(map[string][]float64{
		attributes.Multiplicity:    {1, 1},
		attributes.SignedWaterMass: {1e-9, 1e-9},
	})
	if err != nil {
		t.Fatal(err)
	}
	p.AddObserver(coolingObserver(env, f, config.BoxConfig{DV: 1, T: 260, RH: 1, CoolingRate: 1}))

	if err := p.Run(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.ErrorLevel {
		t.Fatalf("expected an error log entry, got %v", entry)
	}
	if entry.Data["step"] != 1 || entry.Data[logrus.ErrorKey] == nil {
		t.Errorf("log fields %v", entry.Data)
	}
}

func TestSingularSpectrumSampling(t *testing.T) {
	cfg := config.GetPreset("box", "immersion_singular")
	cfg.NSD = 64

	build := func(seed int64) []float64 {
		c := *cfg
		c.Seed = seed
		p, err := NewRegistry().Build(&c, particulator.WithLogger(quietLogger()))
		if err != nil {
			t.Fatal(err)
		}
		tf, err := p.Attributes().Get(attributes.FreezingTemperature)
		if err != nil {
			t.Fatal(err)
		}
		return append([]float64(nil), tf...)
	}

	a, b, c := build(1), build(1), build(2)
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed should sample the same freezing temperatures")
	}
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds should sample different freezing temperatures")
	}
	for _, v := range a {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite freezing temperature %g", v)
		}
	}
}

func TestDryRadii(t *testing.T) {
	r := DryRadii(50e-9, 1.5, 101)
	if !sort.Float64sAreSorted(r) {
		t.Error("quantiles should be increasing")
	}
	if math.Abs(r[50]-50e-9) > 1e-15 {
		t.Errorf("middle quantile %g, want the median", r[50])
	}

	mono := DryRadii(50e-9, 1, 3)
	for _, v := range mono {
		if math.Abs(v-50e-9) > 1e-15 {
			t.Errorf("geometric std dev 1 should be monodisperse, got %v", mono)
			break
		}
	}
}

func TestParcelInitialisation(t *testing.T) {
	cfg := config.GetPreset("parcel", "parcel_freezing")
	cfg.NSD = 16

	p, err := NewRegistry().Build(cfg, particulator.WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	attrs := p.Attributes()
	for _, name := range []string{attributes.ImmersedSurfaceArea, attributes.SignedWaterMass, attributes.Volume} {
		if !attrs.Has(name) {
			t.Errorf("missing attribute %q", name)
		}
	}
	mult, _ := attrs.Get(attributes.Multiplicity)
	want := cfg.Particles.SpecificConcentration * cfg.Parcel.MassOfDryAir / float64(cfg.NSD)
	for _, m := range mult {
		if m != want {
			t.Fatalf("multiplicity %g, want %g", m, want)
		}
	}

	mass, _ := attrs.Get(attributes.SignedWaterMass)
	for _, m := range mass {
		if !(m > 0) {
			t.Fatalf("particles should start liquid, got mass %g", m)
		}
	}
}

func TestFactoryEnsemble(t *testing.T) {
	cfg := config.GetPreset("box", "immersion_time_dependent")
	cfg.NSD = 64
	cfg.Steps = 20

	r := NewRegistry()
	run := func() []*particulator.Result {
		ens := particulator.NewEnsemble(r.Factory(cfg, particulator.WithLogger(quietLogger())), 3, 10)
		res, err := ens.Run(context.Background(), cfg.Steps)
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	first, second := run(), run()
	for i := range first {
		if first[i].Seed != int64(10+i) {
			t.Errorf("member %d has seed %d", i, first[i].Seed)
		}
		if !reflect.DeepEqual(first[i].Products, second[i].Products) {
			t.Errorf("member %d not reproducible", i)
		}
	}
	if cfg.Seed != 0 {
		t.Error("factory must not modify the shared configuration")
	}
}
