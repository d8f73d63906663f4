// Package simulation runs Monte Carlo simulations of risk exposure. Each
// iteration multiplies a triangular impact draw by a uniform probability draw;
// the sorted samples are summarized as statistics, percentiles and a histogram.
package simulation

import (
	"fmt"
	"math"

	"github.com/dd0wney/cluso-continuity/pkg/validation"
)

const (
	// DefaultIterations is used when a caller passes 0 iterations.
	DefaultIterations = 10000
	// DefaultMaxIterations caps a single run.
	DefaultMaxIterations = 1000000
	// HistogramBins is the number of equal-width bins in a distribution.
	HistogramBins = 20
	// MaxImpactMagnitude bounds |impact|. Spans, sums and squares of samples
	// stay finite below it for any run up to DefaultMaxIterations.
	MaxImpactMagnitude = 1e150
)

// Params bound the sampled distributions.
type Params struct {
	ImpactMin      float64 `json:"impactMin"`
	ImpactMost     float64 `json:"impactMost"`
	ImpactMax      float64 `json:"impactMax"`
	ProbabilityMin float64 `json:"probabilityMin"`
	ProbabilityMax float64 `json:"probabilityMax"`
	// Seed makes a run reproducible. Nil draws a fresh seed.
	Seed *uint64 `json:"seed,omitempty"`
	// Workers > 1 splits the run into chunks sampled concurrently.
	Workers int `json:"workers,omitempty"`
}

// Validate rejects bounds that would make the sampler produce NaN or
// out-of-range values.
func (p Params) Validate() error {
	for name, v := range map[string]float64{
		"impactMin":      p.ImpactMin,
		"impactMost":     p.ImpactMost,
		"impactMax":      p.ImpactMax,
		"probabilityMin": p.ProbabilityMin,
		"probabilityMax": p.ProbabilityMax,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("%s must be finite", name)
		}
	}
	if math.Abs(p.ImpactMin) > MaxImpactMagnitude || math.Abs(p.ImpactMax) > MaxImpactMagnitude {
		return invalid("impact bounds must lie within ±%g, got [%g, %g]", MaxImpactMagnitude, p.ImpactMin, p.ImpactMax)
	}
	if p.ImpactMin >= p.ImpactMax {
		return invalid("impactMin (%g) must be below impactMax (%g)", p.ImpactMin, p.ImpactMax)
	}
	if p.ImpactMost < p.ImpactMin || p.ImpactMost > p.ImpactMax {
		return invalid("impactMost (%g) must lie in [%g, %g]", p.ImpactMost, p.ImpactMin, p.ImpactMax)
	}
	if p.ProbabilityMin < 0 || p.ProbabilityMax > 1 {
		return invalid("probabilities must lie in [0, 1], got [%g, %g]", p.ProbabilityMin, p.ProbabilityMax)
	}
	if p.ProbabilityMin > p.ProbabilityMax {
		return invalid("probabilityMin (%g) must not exceed probabilityMax (%g)", p.ProbabilityMin, p.ProbabilityMax)
	}
	if p.Workers < 0 {
		return invalid("workers must be non-negative, got %d", p.Workers)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", validation.ErrInvalidParameter, fmt.Sprintf(format, args...))
}
