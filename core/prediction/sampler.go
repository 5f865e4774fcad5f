package prediction

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/chargecap/core/model"
)

// NormalSampler draws N normally distributed peaks truncated at zero. Equal
// parameters always produce the same samples.
type NormalSampler struct {
	Mean   float64
	StdDev float64
	N      int
	Seed   uint64
}

// Validate checks the sampler parameters.
func (s NormalSampler) Validate() error {
	switch {
	case s.N <= 0:
		return fmt.Errorf("%w: sample count must be positive, got %d", model.ErrInvalidInput, s.N)
	case math.IsNaN(s.Mean) || math.IsInf(s.Mean, 0) || s.Mean < 0:
		return fmt.Errorf("%w: mean must be finite and non-negative, got %v", model.ErrInvalidInput, s.Mean)
	case math.IsNaN(s.StdDev) || math.IsInf(s.StdDev, 0) || s.StdDev < 0:
		return fmt.Errorf("%w: stddev must be finite and non-negative, got %v", model.ErrInvalidInput, s.StdDev)
	}
	return nil
}

// Samples returns the synthetic distribution.
func (s NormalSampler) Samples() ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	dist := distuv.Normal{
		Mu:    s.Mean,
		Sigma: s.StdDev,
		Src:   rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15),
	}
	out := make([]float64, s.N)
	for i := range out {
		out[i] = math.Max(0, dist.Rand())
	}
	return out, nil
}

// PeakDistribution implements Forecaster with the same samples for every station.
func (s NormalSampler) PeakDistribution(ctx context.Context, _ string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Samples()
}
