package particulator

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/sdmsim/internal/attributes"
	"github.com/san-kum/sdmsim/internal/backend"
	"github.com/san-kum/sdmsim/internal/dynamics"
	"github.com/san-kum/sdmsim/internal/environment"
	"github.com/san-kum/sdmsim/internal/formulae"
	"github.com/san-kum/sdmsim/internal/products"
)

// Observer is notified after every completed step.
type Observer interface {
	OnStep(p *Particulator)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(p *Particulator)

func (f ObserverFunc) OnStep(p *Particulator) { f(p) }

type Particulator struct {
	dt     float64
	nSteps int
	f      *formulae.Formulae
	b      backend.Backend
	env    environment.Environment
	attrs  *attributes.Store

	dynamics  []dynamics.Dynamic
	products  map[string]products.Product
	order     []string
	observers []Observer

	seed int64
	rng  *rand.Rand
	log  logrus.FieldLogger
}

func (p *Particulator) Dt() float64                          { return p.dt }
func (p *Particulator) Steps() int                           { return p.nSteps }
func (p *Particulator) Time() float64                        { return float64(p.nSteps) * p.dt }
func (p *Particulator) Seed() int64                          { return p.seed }
func (p *Particulator) Formulae() *formulae.Formulae         { return p.f }
func (p *Particulator) Backend() backend.Backend             { return p.b }
func (p *Particulator) Environment() environment.Environment { return p.env }
func (p *Particulator) Attributes() *attributes.Store        { return p.attrs }
func (p *Particulator) Dynamics() []dynamics.Dynamic         { return p.dynamics }
func (p *Particulator) Logger() logrus.FieldLogger           { return p.log }

func (p *Particulator) AddObserver(o Observer) { p.observers = append(p.observers, o) }

// Products lists the registered products in registration order.
func (p *Particulator) Products() []products.Product {
	out := make([]products.Product, len(p.order))
	for i, name := range p.order {
		out[i] = p.products[name]
	}
	return out
}

func (p *Particulator) Product(name string) (products.Product, error) {
	prod, ok := p.products[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProduct, name)
	}
	return prod, nil
}

// ProductValue evaluates the named product against the current state.
func (p *Particulator) ProductValue(name string) (float64, error) {
	prod, err := p.Product(name)
	if err != nil {
		return 0, err
	}
	return prod.Get(p)
}

// Run advances the simulation by steps timesteps. The context is checked
// between steps only.
func (p *Particulator) Run(ctx context.Context, steps int) error {
	if steps < 0 {
		return fmt.Errorf("%w: negative step count %d", ErrInvalidConfig, steps)
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := p.step(); err != nil {
			p.log.WithFields(logrus.Fields{
				"step": p.nSteps,
				"time": p.Time(),
			}).WithError(err).Error("simulation aborted")
			return err
		}
	}
	return nil
}

func (p *Particulator) step() error {
	if err := p.env.Sync(p); err != nil {
		return p.fail("environment sync", err)
	}

	for _, d := range p.dynamics {
		if err := d.Step(p, p.rng); err != nil {
			return p.fail(d.Name(), err)
		}
	}

	p.nSteps++
	p.env.Commit()

	mult, err := p.attrs.Get(attributes.Multiplicity)
	if err != nil {
		return p.fail("validation", err)
	}
	if err := p.b.Validate(mult); err != nil {
		return p.fail("validation", err)
	}

	if entry := p.log.WithFields(logrus.Fields{"step": p.nSteps, "time": p.Time()}); entry.Logger.IsLevelEnabled(logrus.DebugLevel) {
		fields := logrus.Fields{}
		for _, name := range []string{environment.T, environment.RH} {
			if v, err := p.env.Get(name); err == nil {
				fields[name] = v
			}
		}
		entry.WithFields(fields).Debug("step")
	}

	for _, o := range p.observers {
		o.OnStep(p)
	}
	return nil
}

func (p *Particulator) fail(stage string, err error) error {
	return &SimulationError{
		Step:    p.nSteps,
		Time:    p.Time(),
		Stage:   stage,
		Wrapped: err,
	}
}
