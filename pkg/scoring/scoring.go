package scoring

import (
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-continuity/pkg/validation"
)

// Level is a LOW/MEDIUM/HIGH classification.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

const (
	minRating = 1
	maxRating = 5
)

// Engine scores risks against one threshold set. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	t Thresholds
}

// NewEngine returns an engine over t.
func NewEngine(t Thresholds) *Engine {
	t.NormalizeCategories()
	return &Engine{t: t}
}

// Default returns an engine over DefaultThresholds.
func Default() *Engine {
	return NewEngine(DefaultThresholds())
}

// Thresholds returns the constant set in use.
func (e *Engine) Thresholds() Thresholds {
	return e.t
}

// Score is the raw formula probability × impact × weight(category).
func (e *Engine) Score(probability, impact int, category string) float64 {
	return float64(probability*impact) * e.t.Weight(category)
}

// ScoreRisk validates both ratings are in [1,5] and returns Score.
func (e *Engine) ScoreRisk(probability, impact int, category string) (float64, error) {
	if err := checkRating("probability", probability); err != nil {
		return 0, err
	}
	if err := checkRating("impact", impact); err != nil {
		return 0, err
	}
	return e.Score(probability, impact, category), nil
}

func checkRating(name string, v int) error {
	if v < minRating || v > maxRating {
		return fmt.Errorf("%w: %s must be in [%d,%d], got %d",
			validation.ErrInvalidParameter, name, minRating, maxRating, v)
	}
	return nil
}

// Level classifies a probability or impact rating.
func (e *Engine) Level(rating int) Level {
	switch {
	case rating >= e.t.LevelHigh:
		return LevelHigh
	case rating >= e.t.LevelMedium:
		return LevelMedium
	}
	return LevelLow
}

// ScoreLevel classifies a weighted score.
func (e *Engine) ScoreLevel(score float64) Level {
	switch {
	case score >= e.t.HighScore:
		return LevelHigh
	case score >= e.t.MediumScore:
		return LevelMedium
	}
	return LevelLow
}

// ResidualScore applies the formula to post-control ratings. It returns nil
// unless both are supplied.
func (e *Engine) ResidualScore(probability, impact *int, category string) (*float64, error) {
	if probability == nil || impact == nil {
		return nil, nil
	}
	s, err := e.ScoreRisk(*probability, *impact, category)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RiskInput describes one risk to assess.
type RiskInput struct {
	Probability            int
	Impact                 int
	Category               string
	PostControlProbability *int
	PostControlImpact      *int
}

// Assessment is the scored view of a RiskInput.
type Assessment struct {
	Category         string   `json:"category"`
	InherentScore    float64  `json:"inherentScore"`
	ResidualScore    *float64 `json:"residualScore"`
	ProbabilityLevel Level    `json:"probabilityLevel"`
	ImpactLevel      Level    `json:"impactLevel"`
	RiskLevel        Level    `json:"riskLevel"`
	ResidualLevel    *Level   `json:"residualLevel,omitempty"`
	Weight           float64  `json:"weight"`
	Version          string   `json:"thresholdsVersion"`
}

// Assess scores in and classifies each part.
func (e *Engine) Assess(in RiskInput) (*Assessment, error) {
	inherent, err := e.ScoreRisk(in.Probability, in.Impact, in.Category)
	if err != nil {
		return nil, err
	}
	residual, err := e.ResidualScore(in.PostControlProbability, in.PostControlImpact, in.Category)
	if err != nil {
		return nil, err
	}

	a := &Assessment{
		Category:         strings.ToUpper(in.Category),
		InherentScore:    inherent,
		ResidualScore:    residual,
		ProbabilityLevel: e.Level(in.Probability),
		ImpactLevel:      e.Level(in.Impact),
		RiskLevel:        e.ScoreLevel(inherent),
		Weight:           e.t.Weight(in.Category),
		Version:          e.t.Version,
	}
	if residual != nil {
		lvl := e.ScoreLevel(*residual)
		a.ResidualLevel = &lvl
	}
	return a, nil
}
