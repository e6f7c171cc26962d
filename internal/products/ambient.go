package products

import (
	"github.com/ctessum/unit"

	"github.com/san-kum/sdmsim/internal/environment"
)

// Ambient reports one environment field.
type Ambient struct {
	base
	field string
}

func NewAmbientTemperature(opts ...Option) *Ambient {
	return &Ambient{base: newBase("ambient temperature", unit.Kelvin, opts), field: environment.T}
}

func NewAmbientPressure(opts ...Option) *Ambient {
	return &Ambient{base: newBase("ambient pressure", unit.Pascal, opts), field: environment.P}
}

func NewRelativeHumidity(opts ...Option) *Ambient {
	return &Ambient{base: newBase("relative humidity", unit.Dimless, opts), field: environment.RH}
}

func NewRelativeHumidityIce(opts ...Option) *Ambient {
	return &Ambient{base: newBase("relative humidity ice", unit.Dimless, opts), field: environment.RHIce}
}

func NewParcelDisplacement(opts ...Option) *Ambient {
	return &Ambient{base: newBase("parcel displacement", unit.Meter, opts), field: environment.Z}
}

func (a *Ambient) Field() string { return a.field }

func (a *Ambient) Get(h Host) (float64, error) {
	return h.Environment().Get(a.field)
}

type Time struct {
	base
}

func NewTime(opts ...Option) *Time {
	return &Time{base: newBase("time", unit.Second, opts)}
}

func (t *Time) Get(h Host) (float64, error) { return h.Time(), nil }
