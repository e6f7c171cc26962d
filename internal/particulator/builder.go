package particulator

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/sdmsim/internal/attributes"
	"github.com/san-kum/sdmsim/internal/backend"
	"github.com/san-kum/sdmsim/internal/dynamics"
	"github.com/san-kum/sdmsim/internal/environment"
	"github.com/san-kum/sdmsim/internal/formulae"
	"github.com/san-kum/sdmsim/internal/products"
)

type Option func(*Builder)

// WithBackend selects the array backend; the default is the best
// available one.
func WithBackend(b backend.Backend) Option {
	return func(bd *Builder) { bd.backend = b }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(bd *Builder) { bd.log = log }
}

// WithSeed overrides the seed taken from the formulae.
func WithSeed(seed int64) Option {
	return func(bd *Builder) { bd.seed = seed }
}

type Builder struct {
	nSD      int
	dt       float64
	f        *formulae.Formulae
	env      environment.Environment
	backend  backend.Backend
	log      logrus.FieldLogger
	seed     int64
	dynamics []dynamics.Dynamic
	requests []string

	store      *attributes.Store
	registered bool
	built      bool
}

func NewBuilder(nSD int, dt float64, f *formulae.Formulae, env environment.Environment, opts ...Option) *Builder {
	b := &Builder{
		nSD:  nSD,
		dt:   dt,
		f:    f,
		env:  env,
		log:  logrus.StandardLogger(),
		seed: formulae.DefaultSeed,
	}
	if f != nil {
		b.seed = f.Seed()
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.backend == nil {
		b.backend = backend.AutoSelectBackend()
	}
	return b
}

// AddDynamic appends d; dynamics run in the order they were added.
func (b *Builder) AddDynamic(d dynamics.Dynamic) *Builder {
	b.dynamics = append(b.dynamics, d)
	return b
}

// RequestAttribute asks for an attribute no dynamic or product needs,
// e.g. "temperature of last freezing".
func (b *Builder) RequestAttribute(name string) {
	if b.store != nil {
		b.store.Request(name)
		return
	}
	b.requests = append(b.requests, name)
}

func (b *Builder) Formulae() *formulae.Formulae { return b.f }
func (b *Builder) Backend() backend.Backend     { return b.backend }
func (b *Builder) Dt() float64                  { return b.dt }
func (b *Builder) Steps() int                   { return 0 }

// RegisterEnvironment registers the environment ahead of Build so that
// its initial state can be used to initialise attributes, e.g. with
// Parcel.InitAttributes. Build skips the registration when it already
// happened.
func (b *Builder) RegisterEnvironment() error {
	if b.registered {
		return nil
	}
	if b.f == nil || b.env == nil {
		return fmt.Errorf("%w: formulae and environment are required", ErrInvalidConfig)
	}
	if err := b.env.Register(b); err != nil {
		return fmt.Errorf("registering %s environment: %w", b.env.Name(), err)
	}
	b.registered = true
	return nil
}

// Build registers the environment, the dynamics and the products, then
// resolves the attributes from attrs. Any error aborts the build.
func (b *Builder) Build(attrs map[string][]float64, prods ...products.Product) (*Particulator, error) {
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	b.built = true

	if b.nSD <= 0 {
		return nil, fmt.Errorf("%w: number of super-droplets must be positive, got %d", ErrInvalidConfig, b.nSD)
	}
	if !(b.dt > 0) || math.IsInf(b.dt, 1) {
		return nil, fmt.Errorf("%w: dt must be positive and finite, got %g", ErrInvalidConfig, b.dt)
	}
	if b.f == nil || b.env == nil {
		return nil, fmt.Errorf("%w: formulae and environment are required", ErrInvalidConfig)
	}

	p := &Particulator{
		dt:       b.dt,
		f:        b.f,
		b:        b.backend,
		env:      b.env,
		dynamics: b.dynamics,
		products: make(map[string]products.Product, len(prods)),
		seed:     b.seed,
		rng:      rand.New(rand.NewSource(b.seed)),
		log:      b.log,
	}

	b.store = attributes.New(b.nSD, b.f, b.env)
	p.attrs = b.store
	for _, name := range b.requests {
		b.store.Request(name)
	}

	if err := b.RegisterEnvironment(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(b.dynamics))
	for _, d := range b.dynamics {
		if err := d.Register(b); err != nil {
			return nil, fmt.Errorf("registering %s: %w", d.Name(), err)
		}
		names = append(names, d.Name())
	}

	for _, prod := range prods {
		if _, dup := p.products[prod.Name()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateProduct, prod.Name())
		}
		if err := prod.Register(b); err != nil {
			return nil, fmt.Errorf("registering product %q: %w", prod.Name(), err)
		}
		p.products[prod.Name()] = prod
		p.order = append(p.order, prod.Name())
	}

	if err := b.store.Resolve(attrs); err != nil {
		return nil, err
	}
	mult, err := b.store.Get(attributes.Multiplicity)
	if err != nil {
		return nil, err
	}
	if err := b.backend.Validate(mult); err != nil {
		return nil, err
	}

	b.log.WithFields(logrus.Fields{
		"n_sd":        b.nSD,
		"dt":          b.dt,
		"environment": b.env.Name(),
		"dynamics":    names,
		"backend":     b.backend.Name(),
		"seed":        b.seed,
	}).Info("particulator built")

	return p, nil
}
