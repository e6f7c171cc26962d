package environment

import (
	"fmt"
	"math"

	"github.com/san-kum/sdmsim/internal/equilibrium"
	"github.com/san-kum/sdmsim/internal/formulae"
)

// ParcelConfig holds the initial conditions of an adiabatic parcel.
type ParcelConfig struct {
	MassOfDryAir                  float64
	P0                            float64
	InitialWaterVapourMixingRatio float64
	T0                            float64
	Z0                            float64

	// W is the vertical velocity as a function of elapsed time.
	W func(t float64) float64
}

// ConstantW returns a vertical velocity profile that is w at all times.
func ConstantW(w float64) func(float64) float64 {
	return func(float64) float64 { return w }
}

// Parcel is an adiabatic air parcel lifted with a prescribed vertical
// velocity. z and rhod are integrated with explicit Euler; dv follows from
// the dry-air mass and the mean dry-air density over the step.
type Parcel struct {
	*Moist
	cfg ParcelConfig

	f     *formulae.Formulae
	dv    float64
	delta float64

	registered bool
}

var parcelVariables = []string{Rhod, Z, Thd, WaterVapourMixingRatio}

func NewParcel(cfg ParcelConfig) (*Parcel, error) {
	switch {
	case !(cfg.MassOfDryAir > 0):
		return nil, fmt.Errorf("%w: mass of dry air %g", ErrInvalidParameters, cfg.MassOfDryAir)
	case !(cfg.P0 > 0):
		return nil, fmt.Errorf("%w: p0 %g", ErrInvalidParameters, cfg.P0)
	case !(cfg.T0 > 0):
		return nil, fmt.Errorf("%w: T0 %g", ErrInvalidParameters, cfg.T0)
	case !(cfg.InitialWaterVapourMixingRatio >= 0):
		return nil, fmt.Errorf("%w: water vapour mixing ratio %g", ErrInvalidParameters, cfg.InitialWaterVapourMixingRatio)
	case cfg.W == nil:
		return nil, fmt.Errorf("%w: no vertical velocity", ErrInvalidParameters)
	}

	return &Parcel{
		Moist: newMoist(Rhod, Z),
		cfg:   cfg,
		dv:    math.NaN(),
		delta: math.NaN(),
	}, nil
}

func (p *Parcel) Name() string { return "parcel" }

func (p *Parcel) MassOfDryAir() float64 { return p.cfg.MassOfDryAir }

func (p *Parcel) DV() float64 { return p.dv }

// DeltaLiquidWaterMixingRatio is the liquid water gained by the parcel
// during the previous step, as inferred from the vapour mixing ratio.
func (p *Parcel) DeltaLiquidWaterMixingRatio() float64 { return p.delta }

func (p *Parcel) Register(h Host) error {
	f := h.Formulae()
	p.f = f
	c := p.cfg

	pd0 := f.PD(c.P0, c.InitialWaterVapourMixingRatio)
	rhod0 := f.RhodOfPdT(pd0, c.T0)
	p.dv = f.VolumeOfDensityMass(rhod0, c.MassOfDryAir)

	cur := p.current
	cur[WaterVapourMixingRatio][0] = c.InitialWaterVapourMixingRatio
	cur[Thd][0] = f.ThStd(pd0, c.T0)
	cur[Rhod][0] = rhod0
	cur[Z][0] = c.Z0
	p.next[WaterVapourMixingRatio][0] = c.InitialWaterVapourMixingRatio

	p.syncParcelVars()
	p.syncThermodynamics(f)
	if err := p.checkFinite(p.next, T, P, RH, Rhod); err != nil {
		return fmt.Errorf("parcel initial state: %w", err)
	}
	p.Commit()
	p.registered = true
	return nil
}

func (p *Parcel) Sync(h Host) error {
	if !p.registered {
		return ErrNotRegistered
	}
	p.syncParcelVars()
	p.advanceParcelVars(h)
	p.syncThermodynamics(p.f)
	p.version++

	if err := p.checkFinite(p.next, Z, Rhod, T, P, RH, RHIce); err != nil {
		return err
	}
	if math.IsNaN(p.dv) || math.IsInf(p.dv, 0) {
		return fmt.Errorf("%w: dv=%g", ErrInvalidState, p.dv)
	}
	return nil
}

// syncParcelVars records the vapour lost since the previous commit and
// copies the tracked variables into the next buffer. After a commit the
// next buffer holds the previous time level.
func (p *Parcel) syncParcelVars() {
	p.delta = p.next[WaterVapourMixingRatio][0] - p.current[WaterVapourMixingRatio][0]
	p.next.copyFrom(p.current, parcelVariables)
}

func (p *Parcel) advanceParcelVars(h Host) {
	dt := h.Dt()
	f := p.f
	temp := p.current[T][0]
	press := p.current[P][0]

	w := p.cfg.W((float64(h.Steps()) + 0.5) * dt)
	qv := p.current[WaterVapourMixingRatio][0] - p.delta/2

	var dQlDz float64
	if w != 0 {
		dQlDz = p.delta / w / dt
	}
	drhoDz := f.DrhoDz(press, temp, qv, f.Lv(temp), dQlDz)

	b := h.Backend()
	b.ExplicitEuler(p.next[Z], dt, w)
	b.ExplicitEuler(p.next[Rhod], dt, w*drhoDz)

	p.dv = f.VolumeOfDensityMass((p.next[Rhod][0]+p.current[Rhod][0])/2, p.cfg.MassOfDryAir)
}

// InitAttributes returns base attributes for particles with the given
// dry radii and hygroscopicity, with wet volumes in equilibrium with the
// current relative humidity.
func (p *Parcel) InitAttributes(nInDV []float64, kappa float64, rDry []float64, rtol float64) (map[string][]float64, error) {
	if !p.registered {
		return nil, ErrNotRegistered
	}
	if len(nInDV) != len(rDry) {
		return nil, fmt.Errorf("%w: %d multiplicities for %d dry radii", ErrInvalidParameters, len(nInDV), len(rDry))
	}

	n := len(rDry)
	dryVolume := make([]float64, n)
	kvd := make([]float64, n)
	for i, rd := range rDry {
		dryVolume[i] = formulae.Volume(rd)
		kvd[i] = kappa * dryVolume[i]
	}

	temp, _ := p.Get(T)
	rh, _ := p.Get(RH)
	rWet, err := equilibrium.WetRadii(p.f, temp, rh, rDry, kvd, rtol)
	if err != nil {
		return nil, err
	}

	volume := make([]float64, n)
	for i, r := range rWet {
		volume[i] = formulae.Volume(r)
	}

	return map[string][]float64{
		"multiplicity":           append([]float64(nil), nInDV...),
		"kappa times dry volume": kvd,
		"dry volume":             dryVolume,
		"volume":                 volume,
	}, nil
}
