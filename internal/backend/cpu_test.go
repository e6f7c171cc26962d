package backend

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"testing/quick"
)

func backends() map[string]*CPUBackend {
	return map[string]*CPUBackend{
		"serial":   NewCPUBackendWorkers(1, 1),
		"parallel": NewCPUBackendWorkers(4, 2),
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", "cpu"} {
		b, err := New(name)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if b.Name() != "cpu" {
			t.Errorf("New(%q) = %s", name, b.Name())
		}
	}

	if _, err := New("cuda"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestExplicitEuler(t *testing.T) {
	b := NewCPUBackend()
	y := []float64{1, 2}
	b.ExplicitEuler(y, 0.5, 4)
	if y[0] != 3 || y[1] != 4 {
		t.Errorf("got %v, want [3 4]", y)
	}
}

func TestUrandIndependentOfWorkers(t *testing.T) {
	a := make([]float64, 100)
	b := make([]float64, 100)
	NewCPUBackendWorkers(1, 1).Urand(a, rand.New(rand.NewSource(1)))
	NewCPUBackendWorkers(8, 1).Urand(b, rand.New(rand.NewSource(1)))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("index %d: %g != %g", i, a[i], b[i])
		}
		if a[i] < 0 || a[i] >= 1 {
			t.Fatalf("index %d out of range: %g", i, a[i])
		}
	}
}

func TestThaw(t *testing.T) {
	tests := []struct {
		name   string
		T      float64
		thawed int
	}{
		{"below", 273.14, 0},
		{"at threshold", 273.15, 2},
		{"above", 280, 2},
		{"NaN", math.NaN(), 0},
	}

	for bname, b := range backends() {
		for _, tt := range tests {
			t.Run(bname+"/"+tt.name, func(t *testing.T) {
				mass := []float64{-1, 2, -3, 0}
				last := []float64{250, math.NaN(), 240, math.NaN()}
				n := b.Thaw(mass, last, tt.T, 273.15)
				if n != tt.thawed {
					t.Fatalf("thawed %d, want %d", n, tt.thawed)
				}
				if tt.thawed > 0 {
					if mass[0] != 1 || mass[2] != 3 || !math.IsNaN(last[0]) || !math.IsNaN(last[2]) {
						t.Errorf("unexpected state mass=%v last=%v", mass, last)
					}
				} else if mass[0] != -1 || last[0] != 250 {
					t.Errorf("unexpected thaw mass=%v last=%v", mass, last)
				}
			})
		}
	}
}

func TestFreezeSingular(t *testing.T) {
	tests := []struct {
		name   string
		T, RH  float64
		frozen int
	}{
		{"subsaturated", 240, 1, 0},
		{"too warm", 250.001, 1.01, 0},
		{"at threshold", 250, 1.01, 2},
		{"colder", 200, 1.01, 2},
	}

	for bname, b := range backends() {
		for _, tt := range tests {
			t.Run(bname+"/"+tt.name, func(t *testing.T) {
				mass := []float64{1, 2, -3, 0}
				tf := []float64{250, 250, 260, 260}
				last := []float64{math.NaN(), math.NaN(), 100, math.NaN()}
				n := b.FreezeSingular(mass, tf, last, tt.T, tt.RH)
				if n != tt.frozen {
					t.Fatalf("frozen %d, want %d", n, tt.frozen)
				}
				if mass[2] != -3 || last[2] != 100 {
					t.Errorf("ice particle touched: %v %v", mass, last)
				}
				if mass[3] != 0 {
					t.Errorf("zero-mass particle flipped")
				}
				if tt.frozen > 0 && (mass[0] != -1 || last[0] != tt.T) {
					t.Errorf("expected freeze at %g, got mass=%v last=%v", tt.T, mass, last)
				}
			})
		}
	}
}

func TestFreezeTimeDependent(t *testing.T) {
	b := NewCPUBackendWorkers(2, 1)
	mass := []float64{1, 1, 1, -1, 0}
	u := []float64{0.1, 0.9, 0.6, 0, 0}
	scale := []float64{1, 1, 1, 1, 1}

	// p = 1 - exp(-ln 2) = 0.5
	n, err := b.FreezeTimeDependent(u, mass, scale, nil, math.Ln2, 1, 240)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || mass[0] != -1 || mass[1] != 1 || mass[2] != 1 {
		t.Errorf("frozen=%d mass=%v", n, mass)
	}
	if mass[3] != -1 || mass[4] != 0 {
		t.Errorf("non-liquid particles touched: %v", mass)
	}
}

func TestFreezeTimeDependentZeroRate(t *testing.T) {
	b := NewCPUBackend()
	mass := []float64{1, 1}
	u := []float64{0, 0}
	n, err := b.FreezeTimeDependent(u, mass, []float64{1e3, 1e9}, nil, 0, 1e6, 240)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("zero rate froze %d particles", n)
	}
}

func TestFreezeTimeDependentErrors(t *testing.T) {
	b := NewCPUBackend()

	_, err := b.FreezeTimeDependent([]float64{0}, []float64{1, 1}, []float64{1, 1}, nil, 1, 1, 240)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}

	for _, rate := range []float64{math.NaN(), -1} {
		_, err := b.FreezeTimeDependent([]float64{0.5}, []float64{1}, []float64{1}, nil, rate, 1, 240)
		if !errors.Is(err, ErrInvalidProbability) {
			t.Errorf("rate %g: expected ErrInvalidProbability, got %v", rate, err)
		}
	}
}

func TestReductions(t *testing.T) {
	mult := []float64{1, 2, 3, 4}
	mass := []float64{1, -2, 3, -4}

	for bname, b := range backends() {
		t.Run(bname, func(t *testing.T) {
			if got := b.MassSum(mult, mass, Ice); got != 20 {
				t.Errorf("ice mass %g, want 20", got)
			}
			if got := b.MassSum(mult, mass, Liquid); got != 10 {
				t.Errorf("liquid mass %g, want 10", got)
			}
			if got := b.CountSum(mult, mass, Ice); got != 6 {
				t.Errorf("ice count %g, want 6", got)
			}
			if got := b.CountSum(mult, mass, Any); got != 10 {
				t.Errorf("count %g, want 10", got)
			}
			if got := b.ThresholdSum(mult, []float64{0.5, 1.5, 0.9, math.NaN()}, 1); got != 4 {
				t.Errorf("threshold sum %g, want 4", got)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mult []float64
		want error
	}{
		{"empty", nil, nil},
		{"ok", []float64{0, 1, 1e10}, nil},
		{"negative", []float64{1, -1}, ErrNegativeMultiplicity},
		{"NaN", []float64{1, math.NaN()}, ErrNonFinite},
		{"Inf", []float64{1, math.Inf(1)}, ErrNonFinite},
	}

	b := NewCPUBackend()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.Validate(tt.mult)
			if tt.want == nil && err != nil {
				t.Errorf("unexpected error %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParallelForCoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		seen := make([]int, n)
		ParallelFor(n, 4, 3, func(_, start, end int) {
			for i := start; i < end; i++ {
				seen[i]++
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d index %d visited %d times", n, i, c)
			}
		}
	}
}

func TestPropertyFreezeThawConservesMass(t *testing.T) {
	b := NewCPUBackendWorkers(3, 1)
	property := func(raw []float64, seed int64, rate float64) bool {
		mass := make([]float64, len(raw))
		for i, v := range raw {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 1
			}
			mass[i] = v
		}
		abs := make([]float64, len(mass))
		for i, m := range mass {
			abs[i] = math.Abs(m)
		}

		u := make([]float64, len(mass))
		b.Urand(u, rand.New(rand.NewSource(seed)))
		scale := make([]float64, len(mass))
		for i := range scale {
			scale[i] = 1
		}
		if _, err := b.FreezeTimeDependent(u, mass, scale, nil, math.Abs(rate), 1, 240); err != nil {
			return math.IsInf(rate, 0) || math.IsNaN(rate)
		}
		b.Thaw(mass, nil, 300, 273.15)

		for i := range mass {
			if math.Abs(mass[i]) != abs[i] {
				return false
			}
			if mass[i] < 0 {
				return false
			}
		}
		return true
	}
	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}

func TestPropertyProbabilityBounds(t *testing.T) {
	b := NewCPUBackend()
	property := func(rate, scale, dt float64) bool {
		rate, scale, dt = math.Abs(rate), math.Abs(scale), math.Abs(dt)
		mass := []float64{1}
		_, err := b.FreezeTimeDependent([]float64{0.5}, mass, []float64{scale}, nil, rate, dt, 240)
		x := rate * scale * dt
		if math.IsNaN(x) {
			return errors.Is(err, ErrInvalidProbability)
		}
		return err == nil
	}
	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}

func TestPropertyMultiplicityNonNegative(t *testing.T) {
	b := NewCPUBackend()
	property := func(mult []float64) bool {
		err := b.Validate(mult)
		for _, m := range mult {
			if m < 0 {
				return errors.Is(err, ErrNegativeMultiplicity)
			}
		}
		return err == nil
	}
	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}
