package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidParameter is wrapped by every parameter and request validation
// failure so callers can classify them with errors.Is.
var ErrInvalidParameter = errors.New("invalid parameter")

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxNodeIDLength = 128
	MaxNameLength   = 256
	MaxStatusLength = 64

	nodeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._:-]*$`)
)

func init() {
	validate = validator.New()
}

// NodeRequest is the body of a node upsert. The node ID comes from the path.
type NodeRequest struct {
	NodeType    string  `json:"nodeType" validate:"required,oneof=Process Asset Risk Plan Objective"`
	Name        string  `json:"name" validate:"omitempty,max=256"`
	Criticality *string `json:"criticality" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Status      *string `json:"status" validate:"omitempty,max=64"`
	RTO         *int    `json:"rto" validate:"omitempty,min=0"`
	RPO         *int    `json:"rpo" validate:"omitempty,min=0"`
}

// EdgeRequest is the body of a relationship creation.
type EdgeRequest struct {
	SourceID string `json:"sourceId" validate:"required,max=128"`
	TargetID string `json:"targetId" validate:"required,max=128"`
	Type     string `json:"type" validate:"required,oneof=dependsOn affects protects supportsProcess ownedBy mitigates"`
}

// ScoreRequest is the body of a risk scoring call. Post-control values are
// optional and only produce a residual score when both are present.
type ScoreRequest struct {
	Probability            int     `json:"probability" validate:"required,min=1,max=5"`
	Impact                 int     `json:"impact" validate:"required,min=1,max=5"`
	Category               string  `json:"category" validate:"omitempty,max=64"`
	PostControlProbability *int    `json:"postControlProbability" validate:"omitempty,min=1,max=5"`
	PostControlImpact      *int    `json:"postControlImpact" validate:"omitempty,min=1,max=5"`
	RTO                    *int    `json:"rto" validate:"omitempty,min=0"`
	FinancialImpact        *int64  `json:"financialImpact" validate:"omitempty,min=0"`
	OperationalImpact      *string `json:"operationalImpact" validate:"omitempty,max=64"`
}

// SimulationRequest is the body of a Monte Carlo run.
type SimulationRequest struct {
	ImpactMin      float64 `json:"impactMin" validate:"gte=0"`
	ImpactMost     float64 `json:"impactMost" validate:"gte=0"`
	ImpactMax      float64 `json:"impactMax" validate:"gtfield=ImpactMin"`
	ProbabilityMin float64 `json:"probabilityMin" validate:"gte=0,lte=1"`
	ProbabilityMax float64 `json:"probabilityMax" validate:"gte=0,lte=1"`
	Iterations     int     `json:"iterations" validate:"omitempty,min=1"`
	Seed           *uint64 `json:"seed"`
	Workers        int     `json:"workers" validate:"omitempty,min=1,max=64"`
}

// ValidateStruct validates req against its struct tags.
func ValidateStruct(req any) error {
	if req == nil {
		return fmt.Errorf("%w: request cannot be nil", ErrInvalidParameter)
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateNodeID validates an identifier handed in by a collaborator.
func ValidateNodeID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: node id cannot be empty", ErrInvalidParameter)
	}
	if len(id) > MaxNodeIDLength {
		return fmt.Errorf("%w: node id exceeds maximum length of %d characters", ErrInvalidParameter, MaxNodeIDLength)
	}
	if !nodeIDPattern.MatchString(id) {
		return fmt.Errorf("%w: node id %q contains invalid characters", ErrInvalidParameter, id)
	}
	return nil
}

// ValidateDepth checks a requested traversal depth against the ceiling.
func ValidateDepth(depth, max int) error {
	if depth < 0 {
		return fmt.Errorf("%w: depth must be non-negative, got %d", ErrInvalidParameter, depth)
	}
	if depth > max {
		return fmt.Errorf("%w: depth must not exceed %d, got %d", ErrInvalidParameter, max, depth)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%w: %s: field is required", ErrInvalidParameter, field)
		case "min", "gte":
			return fmt.Errorf("%w: %s: must be at least %s", ErrInvalidParameter, field, param)
		case "max", "lte":
			return fmt.Errorf("%w: %s: must not exceed %s", ErrInvalidParameter, field, param)
		case "oneof":
			return fmt.Errorf("%w: %s: must be one of [%s]", ErrInvalidParameter, field, param)
		case "gtfield":
			return fmt.Errorf("%w: %s: must be greater than %s", ErrInvalidParameter, field, param)
		default:
			return fmt.Errorf("%w: %s: validation failed (%s)", ErrInvalidParameter, field, e.Tag())
		}
	}

	return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
}
