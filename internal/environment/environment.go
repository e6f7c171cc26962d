package environment

import (
	"github.com/san-kum/sdmsim/internal/backend"
	"github.com/san-kum/sdmsim/internal/formulae"
)

// Field names.
const (
	T                      = "T"
	P                      = "p"
	RH                     = "RH"
	RHIce                  = "RH_ice"
	AWIce                  = "a_w_ice"
	WaterVapourMixingRatio = "water_vapour_mixing_ratio"
	Thd                    = "thd"
	Rhod                   = "rhod"
	Z                      = "z"
)

// Host is the part of the particulator an environment needs.
type Host interface {
	Dt() float64
	Steps() int
	Formulae() *formulae.Formulae
	Backend() backend.Backend
}

type Environment interface {
	Name() string

	// Register is called once when the particulator is built.
	Register(h Host) error

	// Sync prepares the next time level; called once per step before any
	// dynamic runs.
	Sync(h Host) error

	// Commit makes the predicted state current; called once per step after
	// the dynamics.
	Commit()

	Get(name string) (float64, error)
	Set(name string, v float64) error
	Predicted(name string) (float64, error)
	SetPredicted(name string, v float64) error

	// DV is the cell volume.
	DV() float64

	Version() uint64
	Fields() []string
}
