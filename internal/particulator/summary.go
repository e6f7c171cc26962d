package particulator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/sdmsim/internal/attributes"
	"github.com/san-kum/sdmsim/internal/dynamics"
	"github.com/san-kum/sdmsim/internal/formulae"
	"github.com/san-kum/sdmsim/internal/products"
)

// Reading is a value with the units it is expressed in.
type Reading struct {
	Name    string
	Value   float64
	Units   string
	Derived bool
}

// Summary is the state of a particulator at one instant.
type Summary struct {
	Step       int
	Time       float64
	Products   []Reading
	Ambient    []Reading
	Attributes []Reading
	Freezing   dynamics.FreezingStats
}

// Summary evaluates every product, reads the environment fields that are
// set and averages each attribute weighted by multiplicity. NaN entries,
// e.g. the freezing temperature of particles that never froze, are left
// out of the averages.
func (p *Particulator) Summary() (*Summary, error) {
	s := &Summary{
		Step:     p.nSteps,
		Time:     p.Time(),
		Freezing: p.FreezingStats(),
	}

	for _, name := range p.order {
		q, err := products.Quantity(p.products[name], p)
		if err != nil {
			return nil, p.fail(fmt.Sprintf("product %q", name), err)
		}
		s.Products = append(s.Products, Reading{Name: name, Value: q.Value(), Units: q.Dimensions().String()})
	}

	for _, name := range p.env.Fields() {
		v, err := p.env.Get(name)
		if err != nil {
			continue
		}
		q := formulae.Quantity(name, v)
		s.Ambient = append(s.Ambient, Reading{Name: name, Value: q.Value(), Units: q.Dimensions().String()})
	}

	mult, err := p.attrs.Get(attributes.Multiplicity)
	if err != nil {
		return nil, err
	}
	for _, name := range p.attrs.Names() {
		if name == attributes.Multiplicity {
			continue
		}
		data, err := p.attrs.Get(name)
		if err != nil {
			return nil, err
		}
		var units string
		if d, ok := formulae.Units[name]; ok {
			units = d.String()
		}
		s.Attributes = append(s.Attributes, Reading{
			Name:    name,
			Value:   weightedMean(data, mult),
			Units:   units,
			Derived: p.attrs.IsDerived(name),
		})
	}
	return s, nil
}

// FreezingStats sums the transition counts of every freezing dynamic.
func (p *Particulator) FreezingStats() dynamics.FreezingStats {
	var total dynamics.FreezingStats
	for _, d := range p.dynamics {
		fz, ok := d.(*dynamics.Freezing)
		if !ok {
			continue
		}
		st := fz.Stats()
		total.Frozen += st.Frozen
		total.Thawed += st.Thawed
	}
	return total
}

func weightedMean(x, w []float64) float64 {
	xs := make([]float64, 0, len(x))
	ws := make([]float64, 0, len(x))
	for i, v := range x {
		if math.IsNaN(v) {
			continue
		}
		xs = append(xs, v)
		ws = append(ws, w[i])
	}
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, ws)
}
