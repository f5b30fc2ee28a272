// Package generator produces synthetic glucose samples with a bounded random walk.
package generator

import (
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"glucose-dashboard/internal/glucose"
)

// Walk parameters in mg/dL per step.
const (
	DriftSpan = 6.0
	TrendSpan = 2.0
)

// RandomSource yields uniformly distributed values in [0, 1).
// *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// Generator computes successive synthetic values.
type Generator struct {
	rnd    RandomSource
	bounds glucose.Bounds
}

// New constructs a Generator. A nil source falls back to a time-seeded PCG.
func New(rnd RandomSource, bounds glucose.Bounds) *Generator {
	if rnd == nil {
		rnd = NewSeededSource(uint64(time.Now().UnixNano()))
	}
	return &Generator{rnd: rnd, bounds: bounds}
}

// NewSeededSource returns a deterministic source for the given seed.
func NewSeededSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Next returns clamp(prev + drift + trend) rounded to one decimal.
func (g *Generator) Next(prev float64) float64 {
	drift := g.uniform(-DriftSpan, DriftSpan)
	trend := g.uniform(-TrendSpan, TrendSpan)
	return round1(g.bounds.Clamp(prev + drift + trend))
}

// Seed backfills count samples spaced by step, the last one stamped at now.
// The first sample starts from baseline; later ones chain through Next.
func (g *Generator) Seed(count int, step time.Duration, baseline float64, now time.Time) []glucose.Sample {
	if count <= 0 {
		return nil
	}

	samples := make([]glucose.Sample, count)
	value := round1(g.bounds.Clamp(baseline))
	start := now.Add(-time.Duration(count-1) * step)
	for i := 0; i < count; i++ {
		if i > 0 {
			value = g.Next(value)
		}
		samples[i] = glucose.Sample{
			Timestamp: start.Add(time.Duration(i) * step).UnixMilli(),
			Value:     value,
		}
	}
	return samples
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*g.rnd.Float64()
}

func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
