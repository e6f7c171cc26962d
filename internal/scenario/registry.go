package scenario

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/sdmsim/internal/backend"
	"github.com/san-kum/sdmsim/internal/config"
	"github.com/san-kum/sdmsim/internal/formulae"
	"github.com/san-kum/sdmsim/internal/particulator"
	"github.com/san-kum/sdmsim/internal/products"
)

var (
	ErrUnknownScenario = errors.New("scenario: unknown scenario")
	ErrUnknownProduct  = errors.New("scenario: unknown product")
	ErrInitialisation  = errors.New("scenario: cannot initialise particles")
)

// DefaultActivationSaturation is the saturation ratio used by the
// "activable fraction" product.
const DefaultActivationSaturation = 1.001

type builderFunc func(cfg *config.Config, f *formulae.Formulae, prods []products.Product, opts []particulator.Option) (*particulator.Particulator, error)

type Registry struct {
	scenarios map[string]builderFunc
	products  map[string]func() products.Product
	defaults  map[string][]string
}

func NewRegistry() *Registry {
	r := &Registry{
		scenarios: make(map[string]builderFunc),
		products:  make(map[string]func() products.Product),
		defaults:  make(map[string][]string),
	}

	r.scenarios["box"] = buildBox
	r.scenarios["parcel"] = buildParcel

	r.products["ice water content"] = func() products.Product { return products.NewIceWaterContent() }
	r.products["liquid water content"] = func() products.Product { return products.NewLiquidWaterContent() }
	r.products["ice number concentration"] = func() products.Product { return products.NewIceNumberConcentration() }
	r.products["frozen fraction"] = func() products.Product { return products.NewFrozenFraction() }
	r.products["ambient temperature"] = func() products.Product { return products.NewAmbientTemperature() }
	r.products["ambient pressure"] = func() products.Product { return products.NewAmbientPressure() }
	r.products["relative humidity"] = func() products.Product { return products.NewRelativeHumidity() }
	r.products["relative humidity ice"] = func() products.Product { return products.NewRelativeHumidityIce() }
	r.products["parcel displacement"] = func() products.Product { return products.NewParcelDisplacement() }
	r.products["time"] = func() products.Product { return products.NewTime() }
	r.products["activable fraction"] = func() products.Product {
		return products.NewActivableFraction(DefaultActivationSaturation)
	}

	r.defaults["box"] = []string{"ambient temperature", "frozen fraction", "ice water content"}
	r.defaults["parcel"] = []string{"ambient temperature", "ambient pressure", "relative humidity", "parcel displacement"}

	return r
}

func (r *Registry) GetProduct(name string) (products.Product, error) {
	fn, ok := r.products[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProduct, name)
	}
	return fn(), nil
}

func (r *Registry) ListScenarios() []string {
	return sortedKeys(r.scenarios)
}

func (r *Registry) ListProducts() []string {
	return sortedKeys(r.products)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultProducts lists what a scenario records when the configuration
// names no products.
func (r *Registry) DefaultProducts(scenario string) []string {
	return append([]string(nil), r.defaults[scenario]...)
}

// Build validates cfg and builds the scenario it names. opts are applied
// after the scenario's own options.
func (r *Registry) Build(cfg *config.Config, opts ...particulator.Option) (*particulator.Particulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	build, ok := r.scenarios[cfg.Scenario]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, cfg.Scenario)
	}

	fopts := cfg.Formulae
	fopts.Seed = cfg.EffectiveSeed()
	f, err := formulae.New(fopts)
	if err != nil {
		return nil, err
	}
	b, err := backend.New(cfg.Backend)
	if err != nil {
		return nil, err
	}

	names := cfg.Products
	if len(names) == 0 {
		names = r.defaults[cfg.Scenario]
	}
	prods := make([]products.Product, 0, len(names))
	for _, name := range names {
		prod, err := r.GetProduct(name)
		if err != nil {
			return nil, err
		}
		prods = append(prods, prod)
	}

	all := append([]particulator.Option{particulator.WithBackend(b)}, opts...)
	return build(cfg, f, prods, all)
}

// Factory returns an ensemble factory that builds cfg with the member seed.
func (r *Registry) Factory(cfg *config.Config, opts ...particulator.Option) particulator.Factory {
	return func(seed int64) (*particulator.Particulator, error) {
		member := *cfg
		member.Seed = seed
		return r.Build(&member, opts...)
	}
}
