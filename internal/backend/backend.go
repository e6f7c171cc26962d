package backend

import "fmt"

// Rand is the random stream a stochastic kernel consumes. *rand.Rand
// satisfies it.
type Rand interface {
	Float64() float64
}

// Phase selects particles by the sign of their signed water mass.
type Phase int

const (
	Any Phase = iota
	Liquid
	Ice
)

func (p Phase) match(signedMass float64) bool {
	switch p {
	case Liquid:
		return signedMass > 0
	case Ice:
		return signedMass < 0
	default:
		return true
	}
}

type Backend interface {
	Name() string

	// ExplicitEuler advances y by dt*dydt in place.
	ExplicitEuler(y []float64, dt, dydt float64)

	// Urand fills dst with uniform variates in [0, 1), in index order.
	Urand(dst []float64, src Rand)

	// Thaw flips ice with T >= threshold back to liquid and resets
	// lastFreeze (when non-nil) to NaN. It returns the number of thawed
	// super-droplets.
	Thaw(signedMass, lastFreeze []float64, T, threshold float64) int

	// FreezeSingular freezes liquid with T <= freezingT[i] when RH > 1.
	FreezeSingular(signedMass, freezingT, lastFreeze []float64, T, RH float64) int

	// FreezeTimeDependent freezes liquid with u[i] < 1-exp(-rate*scale[i]*dt).
	FreezeTimeDependent(u, signedMass, scale, lastFreeze []float64, rate, dt, T float64) (int, error)

	// MassSum is sum(multiplicity * |signedMass|) over the selected phase.
	MassSum(multiplicity, signedMass []float64, phase Phase) float64

	// CountSum is sum(multiplicity) over the selected phase.
	CountSum(multiplicity, signedMass []float64, phase Phase) float64

	// ThresholdSum is sum(multiplicity) over particles with values[i] < threshold.
	ThresholdSum(multiplicity, values []float64, threshold float64) float64

	// Validate checks that multiplicities are finite and non-negative.
	Validate(multiplicity []float64) error
}

// New returns the named backend; an empty name selects the best available one.
func New(name string) (Backend, error) {
	switch name {
	case "", "cpu":
		return AutoSelectBackend(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

func AutoSelectBackend() Backend {
	return NewCPUBackend()
}
