// Package testkit generates seeded synthetic samples and tables for tests.
package testkit

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"edakit/domain/dataset"
)

// SampleGenerator draws reproducible samples by inverse-transform sampling
type SampleGenerator struct {
	rng *rand.Rand
}

// NewSampleGenerator creates a generator; equal seeds give equal samples
func NewSampleGenerator(seed uint64) *SampleGenerator {
	return &SampleGenerator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// uniform returns a value in the open interval (0, 1)
func (g *SampleGenerator) uniform() float64 {
	for {
		if u := g.rng.Float64(); u > 0 {
			return u
		}
	}
}

func (g *SampleGenerator) draw(n int, quantile func(float64) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = quantile(g.uniform())
	}
	return out
}

// Normal draws n values from N(mu, sigma^2)
func (g *SampleGenerator) Normal(n int, mu, sigma float64) []float64 {
	return g.draw(n, distuv.Normal{Mu: mu, Sigma: sigma}.Quantile)
}

// Exponential draws n values with the given rate
func (g *SampleGenerator) Exponential(n int, rate float64) []float64 {
	return g.draw(n, distuv.Exponential{Rate: rate}.Quantile)
}

// Uniform draws n values from [lo, hi)
func (g *SampleGenerator) Uniform(n int, lo, hi float64) []float64 {
	return g.draw(n, distuv.Uniform{Min: lo, Max: hi}.Quantile)
}

// Categories draws n labels uniformly from labels
func (g *SampleGenerator) Categories(n int, labels ...string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = labels[g.rng.IntN(len(labels))]
	}
	return out
}

// WithMissing returns a copy of values with every k-th entry set to NaN
func WithMissing(values []float64, k int) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	if k <= 0 {
		return out
	}
	for i := k - 1; i < len(out); i += k {
		out[i] = math.NaN()
	}
	return out
}

// Shift returns a copy of values with delta added to each
func Shift(values []float64, delta float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v + delta
	}
	return out
}

// NumericTable builds a table of numeric columns named c0, c1, ...
func NumericTable(samples ...[]float64) *dataset.Table {
	cols := make([]*dataset.Column, len(samples))
	for i, s := range samples {
		cols[i] = dataset.NewNumericColumn(fmt.Sprintf("c%d", i), s)
	}
	return dataset.MustTable(cols...)
}
