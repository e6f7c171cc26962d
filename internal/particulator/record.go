package particulator

import (
	"context"
	"fmt"
)

// Result holds product time series sampled before the first step and
// after every step.
type Result struct {
	Seed     int64                `json:"seed"`
	Steps    int                  `json:"steps"`
	Dt       float64              `json:"dt"`
	Times    []float64            `json:"times"`
	Products map[string][]float64 `json:"products"`
	Units    map[string]string    `json:"units"`
	Order    []string             `json:"order"`
}

// Record runs steps timesteps and samples every product along the way.
// On error the partial result is returned together with the error.
func (p *Particulator) Record(ctx context.Context, steps int) (*Result, error) {
	res := &Result{
		Seed:     p.seed,
		Dt:       p.dt,
		Times:    make([]float64, 0, steps+1),
		Products: make(map[string][]float64, len(p.order)),
		Units:    make(map[string]string, len(p.order)),
		Order:    append([]string(nil), p.order...),
	}
	for _, name := range p.order {
		res.Products[name] = make([]float64, 0, steps+1)
		res.Units[name] = p.products[name].Units().String()
	}

	if err := p.sample(res); err != nil {
		return res, err
	}
	for i := 0; i < steps; i++ {
		if err := p.Run(ctx, 1); err != nil {
			return res, err
		}
		res.Steps++
		if err := p.sample(res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (p *Particulator) sample(res *Result) error {
	res.Times = append(res.Times, p.Time())
	for _, name := range p.order {
		v, err := p.products[name].Get(p)
		if err != nil {
			return p.fail(fmt.Sprintf("product %q", name), err)
		}
		res.Products[name] = append(res.Products[name], v)
	}
	return nil
}

// Series returns the recorded values of a product.
func (r *Result) Series(name string) ([]float64, error) {
	s, ok := r.Products[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProduct, name)
	}
	return s, nil
}
