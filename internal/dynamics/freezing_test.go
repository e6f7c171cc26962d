package dynamics_test

import (
	"context"
	"fmt"
	"io"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/sdmsim/internal/attributes"
	"github.com/san-kum/sdmsim/internal/backend"
	"github.com/san-kum/sdmsim/internal/dynamics"
	"github.com/san-kum/sdmsim/internal/environment"
	"github.com/san-kum/sdmsim/internal/formulae"
	"github.com/san-kum/sdmsim/internal/particulator"
	"github.com/san-kum/sdmsim/internal/products"
)

func full(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func quiet() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func setAll(env environment.Environment, values map[string]float64) {
	for name, v := range values {
		ExpectWithOffset(1, env.Set(name, v)).To(Succeed())
	}
}

type countingRand struct{ draws int }

func (r *countingRand) Float64() float64 {
	r.draws++
	return 0.5
}

type setup struct {
	n        int
	dt       float64
	dv       float64
	opts     formulae.Options
	cfg      dynamics.FreezingConfig
	attrs    map[string][]float64
	requests []string
	prods    []products.Product
}

func (s setup) build() (*particulator.Particulator, *environment.Box) {
	f, err := formulae.New(s.opts)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	fz, err := dynamics.NewFreezing(s.cfg)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	env := environment.NewBox(s.dv)
	b := particulator.NewBuilder(s.n, s.dt, f, env, particulator.WithLogger(quiet()))
	b.AddDynamic(fz)
	for _, r := range s.requests {
		b.RequestAttribute(r)
	}
	p, err := b.Build(s.attrs, s.prods...)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return p, env
}

var _ = Describe("Freezing", func() {
	ctx := context.Background()

	Describe("configuration", func() {
		DescribeTable("rejects inconsistent flags",
			func(cfg dynamics.FreezingConfig) {
				_, err := dynamics.NewFreezing(cfg)
				Expect(err).To(MatchError(dynamics.ErrInvalidConfig))
			},
			Entry("singular with immersion", dynamics.FreezingConfig{Singular: true, Immersion: true}),
			Entry("singular with homogeneous", dynamics.FreezingConfig{Singular: true, Homogeneous: true}),
			Entry("time-dependent without pathway", dynamics.FreezingConfig{Thaw: true}),
		)

		DescribeTable("fails at build when a required attribute is missing",
			func(cfg dynamics.FreezingConfig, opts formulae.Options, missing string) {
				f := formulae.MustNew(opts)
				fz, err := dynamics.NewFreezing(cfg)
				Expect(err).NotTo(HaveOccurred())

				b := particulator.NewBuilder(1, 1, f, environment.NewBox(1), particulator.WithLogger(quiet()))
				b.AddDynamic(fz)
				_, err = b.Build(map[string][]float64{attributes.Multiplicity: {1}, attributes.SignedWaterMass: {1}})
				Expect(err).To(MatchError(attributes.ErrMissingAttribute))
				Expect(err.Error()).To(ContainSubstring(missing))
			},
			Entry("singular", dynamics.FreezingConfig{Singular: true}, formulae.Options{},
				attributes.FreezingTemperature),
			Entry("immersion", dynamics.FreezingConfig{Immersion: true},
				formulae.Options{HeterogeneousIceNucleationRate: formulae.ABIFM},
				attributes.ImmersedSurfaceArea),
		)

		It("requires signed water mass for homogeneous freezing", func() {
			f := formulae.MustNew(formulae.Options{HomogeneousIceNucleationRate: formulae.KoopEtAl2000})
			fz, err := dynamics.NewFreezing(dynamics.FreezingConfig{Homogeneous: true})
			Expect(err).NotTo(HaveOccurred())

			b := particulator.NewBuilder(1, 1, f, environment.NewBox(1), particulator.WithLogger(quiet()))
			b.AddDynamic(fz)
			_, err = b.Build(map[string][]float64{attributes.Multiplicity: {1}})
			Expect(err).To(MatchError(attributes.ErrMissingAttribute))
		})

		It("rejects a Null rate closure for a selected pathway", func() {
			fz, err := dynamics.NewFreezing(dynamics.FreezingConfig{Homogeneous: true})
			Expect(err).NotTo(HaveOccurred())

			b := particulator.NewBuilder(1, 1, formulae.MustNew(formulae.Options{}), environment.NewBox(1),
				particulator.WithLogger(quiet()))
			b.AddDynamic(fz)
			_, err = b.Build(map[string][]float64{attributes.Multiplicity: {1}, attributes.SignedWaterMass: {1}})
			Expect(err).To(MatchError(dynamics.ErrMissingClosure))
		})
	})

	Describe("singular immersion freezing", func() {
		const (
			nSD          = 44
			multiplicity = 1e10
			waterMass    = 1e-6
			tFreeze      = 250.0
		)

		newSingular := func() (*particulator.Particulator, *environment.Box) {
			return setup{
				n: nSD, dt: 1, dv: 1,
				cfg: dynamics.FreezingConfig{Singular: true},
				attrs: map[string][]float64{
					attributes.Multiplicity:        full(nSD, multiplicity),
					attributes.FreezingTemperature: full(nSD, tFreeze),
					attributes.SignedWaterMass:     full(nSD, waterMass),
				},
				prods: []products.Product{products.NewIceWaterContent(products.WithName("qi"))},
			}.build()
		}

		It("freezes everything at the freezing temperature", func() {
			p, env := newSingular()
			setAll(env, map[string]float64{environment.T: tFreeze, environment.RH: 1.000001})

			Expect(p.Run(ctx, 1)).To(Succeed())

			qi, err := p.ProductValue("qi")
			Expect(err).NotTo(HaveOccurred())
			Expect(qi).To(BeNumerically("~", nSD*multiplicity*waterMass/1, 1e-7*nSD*multiplicity*waterMass))
		})

		DescribeTable("does not freeze just above the threshold",
			func(eps float64) {
				p, env := newSingular()
				setAll(env, map[string]float64{environment.T: tFreeze + eps, environment.RH: 1.01})

				Expect(p.Run(ctx, 3)).To(Succeed())
				Expect(p.ProductValue("qi")).To(BeZero())
			},
			Entry("1e-9 K", 1e-9),
			Entry("1e-3 K", 1e-3),
			Entry("1 K", 1.0),
		)

		It("needs supersaturation over water", func() {
			p, env := newSingular()
			setAll(env, map[string]float64{environment.T: tFreeze - 10, environment.RH: 1})

			Expect(p.Run(ctx, 2)).To(Succeed())
			Expect(p.ProductValue("qi")).To(BeZero())
		})
	})

	Describe("time-dependent freezing", func() {
		const (
			rate         = 1e-9
			totalTime    = 0.25e9
			realDroplets = 1024
			mass         = 1000.0
			dv           = 666.0
		)

		hgh := func(t float64) float64 { return math.Exp(-0.75 * rate * (t - totalTime/4)) }
		low := func(t float64) float64 { return math.Exp(-1.25 * rate * (t + totalTime/4)) }

		type pathway struct {
			cfg  dynamics.FreezingConfig
			opts formulae.Options
		}
		pathways := map[string]pathway{
			"immersion": {
				cfg: dynamics.FreezingConfig{Immersion: true},
				opts: formulae.Options{
					HeterogeneousIceNucleationRate: formulae.Constant,
					Constants:                      map[string]float64{"J_HET": rate},
					Seed:                           44,
				},
			},
			"homogeneous": {
				cfg: dynamics.FreezingConfig{Homogeneous: true},
				opts: formulae.Options{
					HomogeneousIceNucleationRate: formulae.Constant,
					Constants:                    map[string]float64{"J_HOM": rate},
					Seed:                         44,
				},
			},
		}

		for name, pw := range pathways {
			for _, dt := range []float64{5e5, 1e6} {
				for _, n := range []int{1, 8, 16} {
					pw, dt, n := pw, dt, n
					It(fmt.Sprintf("%s: unfrozen fraction follows exp(-J t) with dt=%g and multiplicity %d", name, dt, n), func() {
						nSD := realDroplets / n
						p, env := setup{
							n: nSD, dt: dt, dv: dv,
							opts: pw.opts,
							cfg:  pw.cfg,
							attrs: map[string][]float64{
								attributes.Multiplicity:        full(nSD, float64(n)),
								attributes.ImmersedSurfaceArea: full(nSD, 1),
								attributes.SignedWaterMass:     full(nSD, mass),
							},
							prods: []products.Product{products.NewIceWaterContent(products.WithName("qi"))},
						}.build()
						setAll(env, map[string]float64{
							environment.RH:    1.0001,
							environment.RHIce: 1.5,
							environment.AWIce: 0.6,
							environment.T:     math.NaN(),
						})

						res, err := p.Record(ctx, int(totalTime/dt))
						Expect(err).NotTo(HaveOccurred())

						qi, err := res.Series("qi")
						Expect(err).NotTo(HaveOccurred())
						for i, v := range qi {
							t := res.Times[i]
							unfrozen := 1 - v*dv/mass/realDroplets
							Expect(unfrozen).To(BeNumerically("<", hgh(t)), "t=%g", t)
							Expect(unfrozen).To(BeNumerically(">", low(t)), "t=%g", t)
						}
					})
				}
			}
		}

		It("never freezes with a zero rate", func() {
			p, env := setup{
				n: 100, dt: 1e6, dv: 1,
				opts: formulae.Options{
					HeterogeneousIceNucleationRate: formulae.Constant,
					Constants:                      map[string]float64{"J_HET": 0},
				},
				cfg: dynamics.FreezingConfig{Immersion: true},
				attrs: map[string][]float64{
					attributes.Multiplicity:        full(100, 1),
					attributes.ImmersedSurfaceArea: full(100, 1e6),
					attributes.SignedWaterMass:     full(100, 1),
				},
				prods: []products.Product{products.NewFrozenFraction()},
			}.build()
			setAll(env, map[string]float64{environment.T: 230, environment.RH: 1.1, environment.AWIce: 0.8})

			Expect(p.Run(ctx, 500)).To(Succeed())
			Expect(p.ProductValue("frozen fraction")).To(BeZero())
		})

		It("does not freeze by immersion when subsaturated", func() {
			p, env := setup{
				n: 10, dt: 1, dv: 1,
				opts: formulae.Options{
					HeterogeneousIceNucleationRate: formulae.Constant,
					Constants:                      map[string]float64{"J_HET": 1e20},
				},
				cfg: dynamics.FreezingConfig{Immersion: true},
				attrs: map[string][]float64{
					attributes.Multiplicity:        full(10, 1),
					attributes.ImmersedSurfaceArea: full(10, 1),
					attributes.SignedWaterMass:     full(10, 1),
				},
				prods: []products.Product{products.NewFrozenFraction()},
			}.build()
			setAll(env, map[string]float64{environment.T: 230, environment.RH: 0.99, environment.AWIce: 0.8})

			Expect(p.Run(ctx, 5)).To(Succeed())
			Expect(p.ProductValue("frozen fraction")).To(BeZero())
		})

		It("aborts the run on a probability outside [0, 1]", func() {
			p, env := setup{
				n: 2, dt: 1, dv: 1,
				opts: formulae.Options{
					HeterogeneousIceNucleationRate: formulae.Constant,
					Constants:                      map[string]float64{"J_HET": -1},
				},
				cfg: dynamics.FreezingConfig{Immersion: true},
				attrs: map[string][]float64{
					attributes.Multiplicity:        full(2, 1),
					attributes.ImmersedSurfaceArea: full(2, 1),
					attributes.SignedWaterMass:     full(2, 1),
				},
			}.build()
			setAll(env, map[string]float64{environment.T: 230, environment.RH: 1.1, environment.AWIce: 0.8})

			err := p.Run(ctx, 1)
			Expect(err).To(MatchError(backend.ErrInvalidProbability))
			var simErr *particulator.SimulationError
			Expect(err).To(BeAssignableToTypeOf(simErr))
		})

		It("reproduces the freeze sequence for a fixed seed", func() {
			run := func() ([]float64, []float64) {
				p, env := setup{
					n: 256, dt: 1, dv: 1,
					opts: formulae.Options{
						HeterogeneousIceNucleationRate: formulae.Constant,
						Constants:                      map[string]float64{"J_HET": 0.05},
						Seed:                           123,
					},
					cfg:      dynamics.FreezingConfig{Immersion: true},
					requests: []string{attributes.TemperatureOfLastFreezing},
					attrs: map[string][]float64{
						attributes.Multiplicity:        full(256, 1),
						attributes.ImmersedSurfaceArea: full(256, 1),
						attributes.SignedWaterMass:     full(256, 1e-9),
					},
					prods: []products.Product{products.NewIceNumberConcentration()},
				}.build()
				setAll(env, map[string]float64{environment.RH: 1.01, environment.AWIce: 0.8})

				var last []float64
				p.AddObserver(particulator.ObserverFunc(func(p *particulator.Particulator) {
					// encode the step at which each particle froze
					mass, err := p.Attributes().Get(attributes.SignedWaterMass)
					Expect(err).NotTo(HaveOccurred())
					if last == nil {
						last = full(len(mass), -1)
					}
					for i, m := range mass {
						if m < 0 && last[i] < 0 {
							last[i] = float64(p.Steps())
						}
					}
				}))

				for i, temp := range []float64{250, 245, 240, 235, 230} {
					Expect(env.Set(environment.T, temp)).To(Succeed(), "step %d", i)
					Expect(p.Run(ctx, 1)).To(Succeed())
				}
				tf, err := p.Attributes().Get(attributes.TemperatureOfLastFreezing)
				Expect(err).NotTo(HaveOccurred())
				return last, append([]float64(nil), tf...)
			}

			steps1, temps1 := run()
			steps2, temps2 := run()
			Expect(steps2).To(Equal(steps1))
			for i := range temps1 {
				if math.IsNaN(temps1[i]) {
					Expect(math.IsNaN(temps2[i])).To(BeTrue())
				} else {
					Expect(temps2[i]).To(Equal(temps1[i]))
				}
			}
			Expect(steps1).To(ContainElement(BeNumerically(">", 0)))
		})
	})

	Describe("record of the last freezing temperature", func() {
		const (
			veryBigJHet = 1e20
			epsilonRH   = 1e-3
		)

		newRecording := func(record bool) (*particulator.Particulator, *environment.Box) {
			s := setup{
				n: 1, dt: 1, dv: 1,
				opts: formulae.Options{
					HeterogeneousIceNucleationRate: formulae.Constant,
					Constants:                      map[string]float64{"J_HET": veryBigJHet},
				},
				cfg: dynamics.FreezingConfig{Immersion: true, Thaw: true},
				attrs: map[string][]float64{
					attributes.Multiplicity:        {1},
					attributes.SignedWaterMass:     {1e-9},
					attributes.ImmersedSurfaceArea: {1e-12},
				},
			}
			if record {
				s.requests = []string{attributes.TemperatureOfLastFreezing}
			}
			return s.build()
		}

		lastFreezing := func(p *particulator.Particulator) float64 {
			v, err := p.Attributes().Get(attributes.TemperatureOfLastFreezing)
			ExpectWithOffset(1, err).NotTo(HaveOccurred())
			return v[0]
		}

		It("is absent unless requested", func() {
			p, _ := newRecording(false)
			Expect(p.Attributes().Has(attributes.TemperatureOfLastFreezing)).To(BeFalse())
		})

		It("follows freeze, thaw and re-freeze", func() {
			p, env := newRecording(true)
			setAll(env, map[string]float64{environment.AWIce: math.NaN(), environment.T: 200})
			Expect(math.IsNaN(lastFreezing(p))).To(BeTrue())

			By("staying liquid at RH = 1")
			Expect(env.Set(environment.RH, 1)).To(Succeed())
			Expect(p.Run(ctx, 1)).To(Succeed())
			Expect(math.IsNaN(lastFreezing(p))).To(BeTrue())

			By("freezing once supersaturated")
			Expect(env.Set(environment.RH, 1+epsilonRH)).To(Succeed())
			Expect(p.Run(ctx, 1)).To(Succeed())
			Expect(lastFreezing(p)).To(Equal(200.0))

			By("thawing when warm")
			Expect(env.Set(environment.T, 300)).To(Succeed())
			Expect(p.Run(ctx, 1)).To(Succeed())
			Expect(math.IsNaN(lastFreezing(p))).To(BeTrue())

			By("re-freezing at the new temperature")
			Expect(env.Set(environment.T, 250)).To(Succeed())
			Expect(p.Run(ctx, 1)).To(Succeed())
			Expect(lastFreezing(p)).To(Equal(250.0))
		})
	})

	Describe("thaw", func() {
		t0 := formulae.MustNew(formulae.Options{}).Constants().T0

		type kind struct {
			cfg   dynamics.FreezingConfig
			opts  formulae.Options
			extra string
		}
		kinds := map[string]kind{
			"singular immersion": {
				cfg:   dynamics.FreezingConfig{Singular: true},
				extra: attributes.FreezingTemperature,
			},
			"time-dependent immersion": {
				cfg: dynamics.FreezingConfig{Immersion: true},
				opts: formulae.Options{
					HeterogeneousIceNucleationRate: formulae.Constant,
					Constants:                      map[string]float64{"J_HET": 0},
				},
				extra: attributes.ImmersedSurfaceArea,
			},
			"time-dependent homogeneous": {
				cfg: dynamics.FreezingConfig{Homogeneous: true},
				opts: formulae.Options{
					HomogeneousIceNucleationRate: formulae.Constant,
					Constants:                    map[string]float64{"J_HOM": 0},
				},
				extra: attributes.ImmersedSurfaceArea,
			},
		}

		for name, k := range kinds {
			for _, thaw := range []bool{true, false} {
				for _, eps := range []float64{0, 1e-5} {
					k, thaw, eps := k, thaw, eps
					It(fmt.Sprintf("%s with thaw=%v at T0+%g", name, thaw, eps), func() {
						cfg := k.cfg
						cfg.Thaw = thaw
						p, env := setup{
							n: 1, dt: 1, dv: 1,
							opts: k.opts,
							cfg:  cfg,
							attrs: map[string][]float64{
								attributes.Multiplicity:    {1},
								attributes.SignedWaterMass: {-1e-9},
								k.extra:                    {-1},
							},
							prods: []products.Product{products.NewIceWaterContent()},
						}.build()
						setAll(env, map[string]float64{
							environment.T:     t0 + eps,
							environment.RH:    math.NaN(),
							environment.RHIce: math.NaN(),
							environment.AWIce: math.NaN(),
						})
						Expect(p.ProductValue("ice water content")).To(BeNumerically(">", 0))

						Expect(p.Run(ctx, 1)).To(Succeed())

						iwc, err := p.ProductValue("ice water content")
						Expect(err).NotTo(HaveOccurred())
						if thaw {
							// thaw applies at and above the melting point
							Expect(iwc).To(BeZero())
						} else {
							Expect(iwc).To(BeNumerically(">", 0))
						}
					})
				}
			}
		}

		It("does not re-freeze just-thawed ice in the same step", func() {
			p, env := setup{
				n: 3, dt: 1, dv: 1,
				opts: formulae.Options{
					HeterogeneousIceNucleationRate: formulae.Constant,
					Constants:                      map[string]float64{"J_HET": 1e20},
				},
				cfg: dynamics.FreezingConfig{Immersion: true, Thaw: true},
				attrs: map[string][]float64{
					attributes.Multiplicity:        {1, 1, 1},
					attributes.SignedWaterMass:     {-1e-9, 1e-9, -2e-9},
					attributes.ImmersedSurfaceArea: {1, 1, 1},
				},
			}.build()
			setAll(env, map[string]float64{environment.T: t0, environment.RH: 1.1, environment.AWIce: 1})

			Expect(p.Run(ctx, 1)).To(Succeed())
			mass, err := p.Attributes().Get(attributes.SignedWaterMass)
			Expect(err).NotTo(HaveOccurred())
			Expect(mass).To(Equal([]float64{1e-9, -1e-9, 2e-9}))
		})

		DescribeTable("draws one variate per super-droplet regardless of temperature",
			func(dT float64, initial, want []float64) {
				f := formulae.MustNew(formulae.Options{
					HeterogeneousIceNucleationRate: formulae.Constant,
					Constants:                      map[string]float64{"J_HET": 1e20},
				})
				fz, err := dynamics.NewFreezing(dynamics.FreezingConfig{Immersion: true, Thaw: true})
				Expect(err).NotTo(HaveOccurred())
				env := environment.NewBox(1)
				b := particulator.NewBuilder(len(initial), 1, f, env, particulator.WithLogger(quiet()))
				b.AddDynamic(fz)
				p, err := b.Build(map[string][]float64{
					attributes.Multiplicity:        full(len(initial), 1),
					attributes.SignedWaterMass:     initial,
					attributes.ImmersedSurfaceArea: full(len(initial), 1),
				})
				Expect(err).NotTo(HaveOccurred())
				setAll(env, map[string]float64{environment.T: t0 + dT, environment.RH: 1.1, environment.AWIce: 1})

				rng := &countingRand{}
				Expect(fz.Step(p, rng)).To(Succeed())
				Expect(rng.draws).To(Equal(len(initial)))

				mass, err := p.Attributes().Get(attributes.SignedWaterMass)
				Expect(err).NotTo(HaveOccurred())
				Expect(mass).To(Equal(want))
			},
			Entry("liquid below the melting point", -1.0, []float64{1, 1, 1}, []float64{-1, -1, -1}),
			Entry("liquid above the melting point", 1.0, []float64{1, 1, 1}, []float64{-1, -1, -1}),
			Entry("ice above the melting point", 1.0, []float64{-1, -1, -1}, []float64{1, 1, 1}),
			Entry("mixed above the melting point", 1.0, []float64{-1, 1, -1}, []float64{1, -1, 1}),
		)

		It("counts transitions", func() {
			f := formulae.MustNew(formulae.Options{})
			fz, err := dynamics.NewFreezing(dynamics.FreezingConfig{Singular: true, Thaw: true})
			Expect(err).NotTo(HaveOccurred())
			env := environment.NewBox(1)
			b := particulator.NewBuilder(4, 1, f, env, particulator.WithLogger(quiet()))
			b.AddDynamic(fz)
			p, err := b.Build(map[string][]float64{
				attributes.Multiplicity:        full(4, 1),
				attributes.SignedWaterMass:     {1e-9, 1e-9, 1e-9, -1e-9},
				attributes.FreezingTemperature: {240, 250, 260, 240},
			})
			Expect(err).NotTo(HaveOccurred())

			setAll(env, map[string]float64{environment.T: 255, environment.RH: 1.01})
			Expect(p.Run(ctx, 1)).To(Succeed())
			Expect(fz.Stats()).To(Equal(dynamics.FreezingStats{Frozen: 1}))

			Expect(env.Set(environment.T, t0+1)).To(Succeed())
			Expect(p.Run(ctx, 1)).To(Succeed())
			Expect(fz.Stats()).To(Equal(dynamics.FreezingStats{Frozen: 1, Thawed: 2}))
		})

		It("conserves the water mass through freeze and thaw cycles", func() {
			p, env := setup{
				n: 64, dt: 1, dv: 1,
				opts: formulae.Options{
					HeterogeneousIceNucleationRate: formulae.Constant,
					Constants:                      map[string]float64{"J_HET": 0.3},
				},
				cfg: dynamics.FreezingConfig{Immersion: true, Thaw: true},
				attrs: map[string][]float64{
					attributes.Multiplicity:        full(64, 2),
					attributes.SignedWaterMass:     full(64, 3e-9),
					attributes.ImmersedSurfaceArea: full(64, 1),
				},
			}.build()
			setAll(env, map[string]float64{environment.RH: 1.05, environment.AWIce: 0.9})

			for i := 0; i < 20; i++ {
				temp := 250.0
				if i%3 == 2 {
					temp = 280
				}
				Expect(env.Set(environment.T, temp)).To(Succeed())
				Expect(p.Run(ctx, 1)).To(Succeed())

				mass, err := p.Attributes().Get(attributes.SignedWaterMass)
				Expect(err).NotTo(HaveOccurred())
				for _, m := range mass {
					Expect(math.Abs(m)).To(Equal(3e-9))
				}
			}
		})
	})
})
