package scoring

import (
	"strings"
)

// PriorityInput carries the BIA figures that feed the priority score. Nil
// fields take the "otherwise" band.
type PriorityInput struct {
	RTOHours          *int
	FinancialImpact   *float64
	OperationalImpact string
}

// Priority breaks the priority score into its contributions.
type Priority struct {
	RTOPoints         int `json:"rtoPoints"`
	FinancialPoints   int `json:"financialPoints"`
	OperationalPoints int `json:"operationalPoints"`
	Total             int `json:"total"`
}

// PriorityScore sums the three banded contributions. They are not normalized.
func (e *Engine) PriorityScore(in PriorityInput) Priority {
	p := Priority{
		RTOPoints:         e.rtoPoints(in.RTOHours),
		FinancialPoints:   e.financialPoints(in.FinancialImpact),
		OperationalPoints: e.operationalPoints(in.OperationalImpact),
	}
	p.Total = p.RTOPoints + p.FinancialPoints + p.OperationalPoints
	return p
}

func (e *Engine) rtoPoints(rto *int) int {
	if rto == nil {
		return e.t.RTO.Otherwise
	}
	for _, b := range e.t.RTO.Bands {
		if float64(*rto) <= b.UpTo {
			return b.Points
		}
	}
	return e.t.RTO.Otherwise
}

func (e *Engine) financialPoints(amount *float64) int {
	if amount == nil {
		return e.t.Financial.Otherwise
	}
	for _, b := range e.t.Financial.Bands {
		if *amount >= b.AtLeast {
			return b.Points
		}
	}
	return e.t.Financial.Otherwise
}

func (e *Engine) operationalPoints(text string) int {
	upper := strings.ToUpper(strings.TrimSpace(text))
	if upper == "" {
		return e.t.Operational.Otherwise
	}
	for _, b := range e.t.Operational.Bands {
		for _, kw := range b.Keywords {
			if strings.Contains(upper, strings.ToUpper(kw)) {
				return b.Points
			}
		}
	}
	return e.t.Operational.Otherwise
}
