package simulation

import (
	"math"
	"math/rand/v2"
)

// Triangular maps u in [0,1) onto the triangular distribution (min, mode, max)
// by inverse CDF. Callers guarantee min < max and min <= mode <= max.
func Triangular(u, min, mode, max float64) float64 {
	span := max - min
	f := (mode - min) / span
	var v float64
	if u < f {
		v = min + math.Sqrt(u*span*(mode-min))
	} else {
		v = max - math.Sqrt((1-u)*span*(max-mode))
	}
	return clamp(v, min, max)
}

// Uniform maps u in [0,1) onto [min, max].
func Uniform(u, min, max float64) float64 {
	return clamp(min+u*(max-min), min, max)
}

// clamp absorbs floating point overshoot at the bounds. NaN maps to lo so a
// sample never leaves [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sampler draws exposure samples for one parameter set.
type sampler struct {
	p   Params
	rng *rand.Rand
}

func newSampler(p Params, seed, stream uint64) *sampler {
	return &sampler{p: p, rng: rand.New(rand.NewPCG(seed, stream))}
}

func (s *sampler) impact() float64 {
	return Triangular(s.rng.Float64(), s.p.ImpactMin, s.p.ImpactMost, s.p.ImpactMax)
}

func (s *sampler) probability() float64 {
	return Uniform(s.rng.Float64(), s.p.ProbabilityMin, s.p.ProbabilityMax)
}

func (s *sampler) next() float64 {
	return s.impact() * s.probability()
}
