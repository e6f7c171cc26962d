package environment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/sdmsim/internal/formulae"
)

var moistFields = []string{T, P, RH, RHIce, AWIce, WaterVapourMixingRatio, Thd}

// fields holds one single-cell array per name so that backend kernels can
// operate on them directly.
type fields map[string][]float64

func newFields(names []string) fields {
	fs := make(fields, len(names))
	for _, name := range names {
		fs[name] = []float64{math.NaN()}
	}
	return fs
}

func (fs fields) copyFrom(src fields, names []string) {
	for _, name := range names {
		fs[name][0] = src[name][0]
	}
}

// Moist is the two-buffer thermodynamic state shared by moist
// environments. The current and next buffers never alias.
type Moist struct {
	names   []string
	current fields
	next    fields
	version uint64
}

func newMoist(extra ...string) *Moist {
	names := append(append([]string(nil), moistFields...), extra...)
	return &Moist{
		names:   names,
		current: newFields(names),
		next:    newFields(names),
	}
}

func (m *Moist) Fields() []string {
	out := append([]string(nil), m.names...)
	sort.Strings(out)
	return out
}

func (m *Moist) Version() uint64 { return m.version }

func (m *Moist) Get(name string) (float64, error) {
	v, ok := m.current[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return v[0], nil
}

func (m *Moist) Set(name string, v float64) error {
	c, ok := m.current[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	c[0] = v
	m.version++
	return nil
}

func (m *Moist) Predicted(name string) (float64, error) {
	v, ok := m.next[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return v[0], nil
}

func (m *Moist) SetPredicted(name string, v float64) error {
	n, ok := m.next[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	n[0] = v
	return nil
}

func (m *Moist) Commit() {
	m.current, m.next = m.next, m.current
	m.version++
}

// syncThermodynamics recomputes T, p, RH, RH_ice and a_w_ice in the next
// buffer from its rhod, thd and water vapour mixing ratio.
func (m *Moist) syncThermodynamics(f *formulae.Formulae) {
	n := m.next
	rhod, thd, qv := n[Rhod][0], n[Thd][0], n[WaterVapourMixingRatio][0]

	temp := f.TemperatureOfRhodThd(rhod, thd)
	p := f.PressureOfRhodTQv(rhod, temp, qv)
	pv := f.PvOfPQv(p, qv)
	pvs, pvi := f.PvsWater(temp), f.PvsIce(temp)

	n[T][0] = temp
	n[P][0] = p
	n[RH][0] = pv / pvs
	n[RHIce][0] = pv / pvi
	n[AWIce][0] = pvi / pvs
}

func (m *Moist) checkFinite(buf fields, names ...string) error {
	for _, name := range names {
		v := buf[name][0]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s=%g", ErrInvalidState, name, v)
		}
	}
	return nil
}
