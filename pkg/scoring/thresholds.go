// Package scoring holds the weighted risk score, probability/impact level
// classification, residual scoring and the banded BIA priority score. All
// business constants live in a versioned Thresholds value.
package scoring

import (
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-continuity/pkg/validation"
)

// ThresholdsVersion identifies the built-in constant set.
const ThresholdsVersion = "2024.1"

// Category weight keys.
const (
	CategoryTechnological = "TECHNOLOGICAL"
	CategoryOperational   = "OPERATIONAL"
	CategoryExternal      = "EXTERNAL"
	CategoryNatural       = "NATURAL"
	CategoryHuman         = "HUMAN"
)

// UpperBand awards Points when a value is at most UpTo.
type UpperBand struct {
	UpTo   float64 `yaml:"up_to" json:"upTo"`
	Points int     `yaml:"points" json:"points"`
}

// LowerBand awards Points when a value is at least AtLeast.
type LowerBand struct {
	AtLeast float64 `yaml:"at_least" json:"atLeast"`
	Points  int     `yaml:"points" json:"points"`
}

// KeywordBand awards Points when the text matches one of Keywords.
type KeywordBand struct {
	Keywords []string `yaml:"keywords" json:"keywords"`
	Points   int      `yaml:"points" json:"points"`
}

// RTOBands are checked in ascending UpTo order.
type RTOBands struct {
	Bands     []UpperBand `yaml:"bands" json:"bands"`
	Otherwise int         `yaml:"otherwise" json:"otherwise"`
}

// FinancialBands are checked in descending AtLeast order.
type FinancialBands struct {
	Bands     []LowerBand `yaml:"bands" json:"bands"`
	Otherwise int         `yaml:"otherwise" json:"otherwise"`
}

// OperationalBands are checked in order; the first matching keyword wins.
type OperationalBands struct {
	Bands     []KeywordBand `yaml:"bands" json:"bands"`
	Otherwise int           `yaml:"otherwise" json:"otherwise"`
}

// CascadeThresholds classify the size and criticality of an impact set.
type CascadeThresholds struct {
	CriticalCountForCritical int `yaml:"critical_count_for_critical" json:"criticalCountForCritical"`
	TotalForCritical         int `yaml:"total_for_critical" json:"totalForCritical"`
	CriticalCountForHigh     int `yaml:"critical_count_for_high" json:"criticalCountForHigh"`
	TotalForHigh             int `yaml:"total_for_high" json:"totalForHigh"`
	TotalForMedium           int `yaml:"total_for_medium" json:"totalForMedium"`
}

// CoverageThresholds bucket a coverage percentage.
type CoverageThresholds struct {
	Good       float64 `yaml:"good" json:"good"`
	Acceptable float64 `yaml:"acceptable" json:"acceptable"`
}

// Thresholds is the complete, versioned set of scoring constants.
type Thresholds struct {
	Version         string             `yaml:"version" json:"version"`
	CategoryWeights map[string]float64 `yaml:"category_weights" json:"categoryWeights"`
	DefaultWeight   float64            `yaml:"default_weight" json:"defaultWeight"`

	// Probability and impact levels on the 1-5 scale.
	LevelHigh   int `yaml:"level_high" json:"levelHigh"`
	LevelMedium int `yaml:"level_medium" json:"levelMedium"`

	// Overall risk level from the weighted score.
	HighScore   float64 `yaml:"high_score" json:"highScore"`
	MediumScore float64 `yaml:"medium_score" json:"mediumScore"`

	RTO         RTOBands           `yaml:"rto" json:"rto"`
	Financial   FinancialBands     `yaml:"financial" json:"financial"`
	Operational OperationalBands   `yaml:"operational" json:"operational"`
	Cascade     CascadeThresholds  `yaml:"cascade" json:"cascade"`
	Coverage    CoverageThresholds `yaml:"coverage" json:"coverage"`
}

// DefaultThresholds returns the built-in constant set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Version: ThresholdsVersion,
		CategoryWeights: map[string]float64{
			CategoryTechnological: 1.3,
			CategoryOperational:   1.2,
			CategoryExternal:      1.15,
			CategoryNatural:       1.1,
			CategoryHuman:         1.0,
		},
		DefaultWeight: 1.0,
		LevelHigh:     4,
		LevelMedium:   2,
		HighScore:     15,
		MediumScore:   8,
		RTO: RTOBands{
			Bands:     []UpperBand{{UpTo: 4, Points: 50}, {UpTo: 24, Points: 30}, {UpTo: 72, Points: 15}},
			Otherwise: 5,
		},
		Financial: FinancialBands{
			Bands:     []LowerBand{{AtLeast: 100000, Points: 30}, {AtLeast: 50000, Points: 20}, {AtLeast: 10000, Points: 10}},
			Otherwise: 5,
		},
		Operational: OperationalBands{
			Bands: []KeywordBand{
				{Keywords: []string{"CRITICAL", "SEVERE"}, Points: 20},
				{Keywords: []string{"HIGH", "MAJOR"}, Points: 15},
				{Keywords: []string{"MEDIUM", "MODERATE"}, Points: 10},
			},
			Otherwise: 5,
		},
		Cascade: CascadeThresholds{
			CriticalCountForCritical: 3,
			TotalForCritical:         10,
			CriticalCountForHigh:     1,
			TotalForHigh:             5,
			TotalForMedium:           2,
		},
		Coverage: CoverageThresholds{Good: 80, Acceptable: 50},
	}
}

func categoryKey(category string) string {
	return strings.ToUpper(strings.TrimSpace(category))
}

// NormalizeCategories rewrites CategoryWeights keys to their upper case form.
// A key not yet in that form wins over an existing upper case entry, since
// only user input carries such keys.
func (t *Thresholds) NormalizeCategories() {
	if len(t.CategoryWeights) == 0 {
		return
	}
	out := make(map[string]float64, len(t.CategoryWeights))
	for k, w := range t.CategoryWeights {
		if k == categoryKey(k) {
			if _, set := out[k]; !set {
				out[k] = w
			}
			continue
		}
		out[categoryKey(k)] = w
	}
	t.CategoryWeights = out
}

// Weight returns the multiplier for a category, matched case-insensitively.
func (t Thresholds) Weight(category string) float64 {
	if w, ok := t.CategoryWeights[categoryKey(category)]; ok {
		return w
	}
	if t.DefaultWeight > 0 {
		return t.DefaultWeight
	}
	return 1.0
}

// Validate checks the set is internally consistent.
func (t Thresholds) Validate() error {
	cv := validation.NewConfigValidator("scoring").
		Required("version", t.Version).
		PositiveFloat("default_weight", t.DefaultWeight).
		RangeInt("level_medium", t.LevelMedium, 1, 5).
		RangeInt("level_high", t.LevelHigh, t.LevelMedium, 5).
		PositiveFloat("medium_score", t.MediumScore).
		Custom("high_score", func() error {
			if t.HighScore < t.MediumScore {
				return fmt.Errorf("%g is below medium_score %g", t.HighScore, t.MediumScore)
			}
			return nil
		}).
		RangeFloat("coverage.acceptable", t.Coverage.Acceptable, 0, 100).
		RangeFloat("coverage.good", t.Coverage.Good, t.Coverage.Acceptable, 100).
		Positive("cascade.total_for_medium", t.Cascade.TotalForMedium).
		Custom("cascade", t.Cascade.validate).
		Custom("rto.bands", func() error {
			for i := 1; i < len(t.RTO.Bands); i++ {
				if t.RTO.Bands[i].UpTo <= t.RTO.Bands[i-1].UpTo {
					return fmt.Errorf("band %d is not ascending", i)
				}
			}
			return nil
		}).
		Custom("financial.bands", func() error {
			for i := 1; i < len(t.Financial.Bands); i++ {
				if t.Financial.Bands[i].AtLeast >= t.Financial.Bands[i-1].AtLeast {
					return fmt.Errorf("band %d is not descending", i)
				}
			}
			return nil
		})

	for name, w := range t.CategoryWeights {
		cv.PositiveFloat("category_weights."+name, w)
		if name == "" || name != categoryKey(name) {
			cv.Custom("category_weights."+name, func() error {
				return fmt.Errorf("category must be upper case")
			})
		}
	}
	return cv.Validate()
}

func (c CascadeThresholds) validate() error {
	if c.TotalForHigh < c.TotalForMedium || c.TotalForCritical < c.TotalForHigh {
		return fmt.Errorf("totals must satisfy medium <= high <= critical, got %d/%d/%d",
			c.TotalForMedium, c.TotalForHigh, c.TotalForCritical)
	}
	if c.CriticalCountForHigh <= 0 || c.CriticalCountForCritical < c.CriticalCountForHigh {
		return fmt.Errorf("critical counts must satisfy 0 < high <= critical, got %d/%d",
			c.CriticalCountForHigh, c.CriticalCountForCritical)
	}
	return nil
}
