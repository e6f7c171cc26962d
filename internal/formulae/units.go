package formulae

import "github.com/ctessum/unit"

// Units maps the names of environment fields and attributes to their
// physical dimensions.
var Units = map[string]unit.Dimensions{
	"T":                         unit.Kelvin,
	"p":                         unit.Pascal,
	"RH":                        unit.Dimless,
	"RH_ice":                    unit.Dimless,
	"a_w_ice":                   unit.Dimless,
	"water_vapour_mixing_ratio": unit.Dimless,
	"thd":                       unit.Kelvin,
	"rhod":                      unit.KilogramPerMeter3,
	"z":                         unit.Meter,

	"multiplicity":                 unit.Dimless,
	"signed water mass":            unit.Kilogram,
	"water mass":                   unit.Kilogram,
	"volume":                       unit.Meter3,
	"radius":                       unit.Meter,
	"dry volume":                   unit.Meter3,
	"kappa times dry volume":       unit.Meter3,
	"immersed surface area":        unit.Meter2,
	"freezing temperature":         unit.Kelvin,
	"temperature of last freezing": unit.Kelvin,
	"critical saturation":          unit.Dimless,
}

// Quantity wraps a value with the dimensions registered for name;
// unknown names are treated as dimensionless.
func Quantity(name string, value float64) *unit.Unit {
	d, ok := Units[name]
	if !ok {
		d = unit.Dimless
	}
	return unit.New(value, d)
}
