package backend

import (
	"fmt"
	"math"
	"runtime"

	"gonum.org/v1/gonum/floats"
)

// serialBelow is the array length under which kernels run on one goroutine.
const serialBelow = 4096

type CPUBackend struct {
	workers  int
	minChunk int
}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{
		workers:  runtime.NumCPU(),
		minChunk: serialBelow,
	}
}

// NewCPUBackendWorkers is NewCPUBackend with an explicit worker count and
// chunk size, mostly for tests that want to force the parallel path.
func NewCPUBackendWorkers(workers, minChunk int) *CPUBackend {
	if workers < 1 {
		workers = 1
	}
	if minChunk < 1 {
		minChunk = 1
	}
	return &CPUBackend{workers: workers, minChunk: minChunk}
}

func (c *CPUBackend) Name() string { return "cpu" }

func (c *CPUBackend) each(n int, fn func(worker, start, end int)) {
	ParallelFor(n, c.workers, c.minChunk, fn)
}

func (c *CPUBackend) ExplicitEuler(y []float64, dt, dydt float64) {
	floats.AddConst(dt*dydt, y)
}

func (c *CPUBackend) Urand(dst []float64, src Rand) {
	for i := range dst {
		dst[i] = src.Float64()
	}
}

func (c *CPUBackend) Thaw(signedMass, lastFreeze []float64, T, threshold float64) int {
	if !(T >= threshold) {
		return 0
	}
	counts := make([]int, c.workers)
	c.each(len(signedMass), func(w, start, end int) {
		for i := start; i < end; i++ {
			if signedMass[i] < 0 {
				signedMass[i] = -signedMass[i]
				if lastFreeze != nil {
					lastFreeze[i] = math.NaN()
				}
				counts[w]++
			}
		}
	})
	return sumInts(counts)
}

func (c *CPUBackend) FreezeSingular(signedMass, freezingT, lastFreeze []float64, T, RH float64) int {
	if !(RH > 1) {
		return 0
	}
	counts := make([]int, c.workers)
	c.each(len(signedMass), func(w, start, end int) {
		for i := start; i < end; i++ {
			if signedMass[i] > 0 && T <= freezingT[i] {
				signedMass[i] = -signedMass[i]
				if lastFreeze != nil {
					lastFreeze[i] = T
				}
				counts[w]++
			}
		}
	})
	return sumInts(counts)
}

func (c *CPUBackend) FreezeTimeDependent(u, signedMass, scale, lastFreeze []float64, rate, dt, T float64) (int, error) {
	n := len(signedMass)
	if len(u) != n || len(scale) != n {
		return 0, fmt.Errorf("%w: u=%d mass=%d scale=%d", ErrLengthMismatch, len(u), n, len(scale))
	}

	counts := make([]int, c.workers)
	bad := make([]int, c.workers)
	for w := range bad {
		bad[w] = -1
	}

	c.each(n, func(w, start, end int) {
		for i := start; i < end; i++ {
			if !(signedMass[i] > 0) {
				continue
			}
			prob := -math.Expm1(-rate * scale[i] * dt)
			if !(prob >= 0 && prob <= 1) {
				if bad[w] < 0 {
					bad[w] = i
				}
				continue
			}
			if u[i] < prob {
				signedMass[i] = -signedMass[i]
				if lastFreeze != nil {
					lastFreeze[i] = T
				}
				counts[w]++
			}
		}
	})

	for _, i := range bad {
		if i >= 0 {
			return sumInts(counts), fmt.Errorf("%w: particle %d (rate=%g scale=%g dt=%g)",
				ErrInvalidProbability, i, rate, scale[i], dt)
		}
	}
	return sumInts(counts), nil
}

func (c *CPUBackend) MassSum(multiplicity, signedMass []float64, phase Phase) float64 {
	partial := make([]float64, c.workers)
	c.each(len(signedMass), func(w, start, end int) {
		for i := start; i < end; i++ {
			if phase.match(signedMass[i]) {
				partial[w] += multiplicity[i] * math.Abs(signedMass[i])
			}
		}
	})
	return floats.Sum(partial)
}

func (c *CPUBackend) CountSum(multiplicity, signedMass []float64, phase Phase) float64 {
	if phase == Any {
		return floats.Sum(multiplicity)
	}
	partial := make([]float64, c.workers)
	c.each(len(signedMass), func(w, start, end int) {
		for i := start; i < end; i++ {
			if phase.match(signedMass[i]) {
				partial[w] += multiplicity[i]
			}
		}
	})
	return floats.Sum(partial)
}

func (c *CPUBackend) ThresholdSum(multiplicity, values []float64, threshold float64) float64 {
	partial := make([]float64, c.workers)
	c.each(len(values), func(w, start, end int) {
		for i := start; i < end; i++ {
			if values[i] < threshold {
				partial[w] += multiplicity[i]
			}
		}
	})
	return floats.Sum(partial)
}

func (c *CPUBackend) Validate(multiplicity []float64) error {
	if len(multiplicity) == 0 {
		return nil
	}
	if floats.HasNaN(multiplicity) {
		return fmt.Errorf("%w: multiplicity", ErrNonFinite)
	}
	if m := floats.Min(multiplicity); m < 0 {
		return fmt.Errorf("%w: min=%g", ErrNegativeMultiplicity, m)
	}
	if math.IsInf(floats.Max(multiplicity), 1) {
		return fmt.Errorf("%w: multiplicity", ErrNonFinite)
	}
	return nil
}

func sumInts(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}
