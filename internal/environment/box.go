package environment

import (
	"fmt"
	"sort"
)

var boxFields = []string{T, P, RH, RHIce, AWIce, WaterVapourMixingRatio, Thd, Rhod}

// Box is a zero-dimensional environment whose state is imposed from
// outside. It keeps a single buffer: predictions are applied immediately.
type Box struct {
	dv      float64
	values  map[string]float64
	version uint64
}

func NewBox(dv float64) *Box {
	return &Box{dv: dv, values: make(map[string]float64)}
}

func (b *Box) Name() string { return "box" }

func (b *Box) Register(Host) error { return nil }
func (b *Box) Sync(Host) error     { return nil }
func (b *Box) Commit()             {}
func (b *Box) DV() float64         { return b.dv }
func (b *Box) Version() uint64     { return b.version }

func (b *Box) Fields() []string {
	out := append([]string(nil), boxFields...)
	sort.Strings(out)
	return out
}

func known(name string) bool {
	for _, f := range boxFields {
		if f == name {
			return true
		}
	}
	return false
}

func (b *Box) Get(name string) (float64, error) {
	if !known(name) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	v, ok := b.values[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrFieldNotSet, name)
	}
	return v, nil
}

func (b *Box) Set(name string, v float64) error {
	if !known(name) {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	b.values[name] = v
	b.version++
	return nil
}

func (b *Box) Predicted(name string) (float64, error) { return b.Get(name) }

func (b *Box) SetPredicted(name string, v float64) error { return b.Set(name, v) }
