package particulator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Factory builds an independent particulator for one ensemble member.
type Factory func(seed int64) (*Particulator, error)

// Ensemble runs members with seeds seedStart, seedStart+1, ... in parallel.
type Ensemble struct {
	factory   Factory
	numRuns   int
	seedStart int64
}

func NewEnsemble(factory Factory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, seedStart: seedStart}
}

// Run records steps timesteps for every member and returns the results in
// seed order. The first failure cancels the remaining members.
func (e *Ensemble) Run(ctx context.Context, steps int) ([]*Result, error) {
	if e.numRuns <= 0 {
		return nil, fmt.Errorf("%w: ensemble size must be positive, got %d", ErrInvalidConfig, e.numRuns)
	}

	results := make([]*Result, e.numRuns)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			seed := e.seedStart + int64(idx)
			p, err := e.factory(seed)
			if err != nil {
				return fmt.Errorf("member %d (seed %d): %w", idx, seed, err)
			}
			res, err := p.Record(ctx, steps)
			if err != nil {
				return fmt.Errorf("member %d (seed %d): %w", idx, seed, err)
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MeanSeries averages a product across ensemble members at every sample.
func MeanSeries(results []*Result, product string) ([]float64, error) {
	if len(results) == 0 {
		return nil, nil
	}
	series := make([][]float64, len(results))
	for i, r := range results {
		s, err := r.Series(product)
		if err != nil {
			return nil, err
		}
		if i > 0 && len(s) != len(series[0]) {
			return nil, fmt.Errorf("%w: member %d has %d samples, want %d", ErrInvalidConfig, i, len(s), len(series[0]))
		}
		series[i] = s
	}

	mean := make([]float64, len(series[0]))
	column := make([]float64, len(series))
	for t := range mean {
		for i, s := range series {
			column[i] = s[t]
		}
		mean[t] = stat.Mean(column, nil)
	}
	return mean, nil
}
