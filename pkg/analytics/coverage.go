// Package analytics composes the graph analyses, scoring and simulation into
// coverage, compliance and exposure summaries for a tenant.
package analytics

import (
	"math"

	"github.com/dd0wney/cluso-continuity/pkg/scoring"
)

// Status buckets a coverage percentage.
type Status string

const (
	StatusGood             Status = "GOOD"
	StatusAcceptable       Status = "ACCEPTABLE"
	StatusNeedsImprovement Status = "NEEDS_IMPROVEMENT"
)

// Coverage is covered/total as a percentage rounded to two decimals.
type Coverage struct {
	Coverage float64 `json:"coverage"`
	Status   Status  `json:"status"`
	Covered  int     `json:"covered"`
	Total    int     `json:"total"`
}

// CoverageOf grades covered out of total. A total of zero is 0%,
// NEEDS_IMPROVEMENT. Both thresholds are inclusive.
func CoverageOf(t scoring.CoverageThresholds, covered, total int) Coverage {
	c := Coverage{Status: StatusNeedsImprovement, Covered: covered, Total: total}
	if total <= 0 {
		return c
	}
	c.Coverage = round2(float64(covered) * 100 / float64(total))
	switch {
	case c.Coverage >= t.Good:
		c.Status = StatusGood
	case c.Coverage >= t.Acceptable:
		c.Status = StatusAcceptable
	}
	return c
}

// BIACoverage grades processes with an RTO against all processes using the
// default thresholds.
func BIACoverage(withRTO, total int) Coverage {
	return CoverageOf(scoring.DefaultThresholds().Coverage, withRTO, total)
}

// PlanCoverage grades critical processes protected by a plan against all
// critical processes using the default thresholds.
func PlanCoverage(withPlan, critical int) Coverage {
	return planCoverageOf(scoring.DefaultThresholds().Coverage, withPlan, critical)
}

// planCoverageOf is CoverageOf except that a tenant without critical
// processes has nothing left unprotected: 100%, GOOD.
func planCoverageOf(t scoring.CoverageThresholds, withPlan, critical int) Coverage {
	if critical <= 0 {
		return Coverage{Coverage: 100, Status: StatusGood}
	}
	return CoverageOf(t, min(withPlan, critical), critical)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
