package validation

import (
	"errors"
	"strings"
	"testing"
)

func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }

// TestValidateNodeRequest tests node upsert validation
func TestValidateNodeRequest(t *testing.T) {
	tests := []struct {
		name        string
		req         NodeRequest
		expectError bool
		errorField  string
	}{
		{
			name:        "Valid process",
			req:         NodeRequest{NodeType: "Process", Name: "Payroll", Criticality: strPtr("HIGH"), RTO: intPtr(4)},
			expectError: false,
		},
		{
			name:        "Missing node type",
			req:         NodeRequest{Name: "Payroll"},
			expectError: true,
			errorField:  "NodeType",
		},
		{
			name:        "Unknown node type",
			req:         NodeRequest{NodeType: "Vendor"},
			expectError: true,
			errorField:  "NodeType",
		},
		{
			name:        "Unknown criticality",
			req:         NodeRequest{NodeType: "Asset", Criticality: strPtr("EXTREME")},
			expectError: true,
			errorField:  "Criticality",
		},
		{
			name:        "Negative RTO",
			req:         NodeRequest{NodeType: "Process", RTO: intPtr(-1)},
			expectError: true,
			errorField:  "RTO",
		},
		{
			name:        "Name too long",
			req:         NodeRequest{NodeType: "Asset", Name: strings.Repeat("a", 257)},
			expectError: true,
			errorField:  "Name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if tt.expectError {
				if err == nil {
					t.Fatalf("Expected error for field %s, got nil", tt.errorField)
				}
				if !errors.Is(err, ErrInvalidParameter) {
					t.Errorf("Expected ErrInvalidParameter, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.errorField) {
					t.Errorf("Expected error to mention %s, got %v", tt.errorField, err)
				}
				return
			}
			if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestValidateEdgeRequest(t *testing.T) {
	valid := EdgeRequest{SourceID: "p1", TargetID: "a1", Type: "dependsOn"}
	if err := ValidateStruct(&valid); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	inverse := EdgeRequest{SourceID: "p1", TargetID: "a1", Type: "requiredBy"}
	if err := ValidateStruct(&inverse); err == nil {
		t.Error("requiredBy is a view and must not be accepted as an edge type")
	}

	missing := EdgeRequest{TargetID: "a1", Type: "affects"}
	if err := ValidateStruct(&missing); err == nil || !strings.Contains(err.Error(), "SourceID") {
		t.Errorf("Expected SourceID error, got %v", err)
	}
}

func TestValidateScoreRequest(t *testing.T) {
	tests := []struct {
		name        string
		req         ScoreRequest
		expectError bool
	}{
		{"Valid", ScoreRequest{Probability: 4, Impact: 5, Category: "TECHNOLOGICAL"}, false},
		{"Probability zero", ScoreRequest{Probability: 0, Impact: 5}, true},
		{"Impact above five", ScoreRequest{Probability: 1, Impact: 6}, true},
		{"Post-control out of range", ScoreRequest{Probability: 3, Impact: 3, PostControlImpact: intPtr(9)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if (err != nil) != tt.expectError {
				t.Errorf("ValidateStruct() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}

func TestValidateSimulationRequest(t *testing.T) {
	valid := SimulationRequest{ImpactMin: 1000, ImpactMost: 5000, ImpactMax: 20000, ProbabilityMin: 0.1, ProbabilityMax: 0.4}
	if err := ValidateStruct(&valid); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	inverted := valid
	inverted.ImpactMax = 500
	if err := ValidateStruct(&inverted); err == nil {
		t.Error("Expected error when impactMax <= impactMin")
	}

	badProb := valid
	badProb.ProbabilityMax = 1.5
	if err := ValidateStruct(&badProb); err == nil {
		t.Error("Expected error for probability above 1")
	}
}

func TestValidateNodeID(t *testing.T) {
	tests := []struct {
		id          string
		expectError bool
	}{
		{"proc-001", false},
		{"3f2b9c1e-8a4d-4f6e-9b1a-2c3d4e5f6a7b", false},
		{"asset:db.primary", false},
		{"", true},
		{"-leading", true},
		{"has space", true},
		{strings.Repeat("x", 129), true},
	}

	for _, tt := range tests {
		err := ValidateNodeID(tt.id)
		if (err != nil) != tt.expectError {
			t.Errorf("ValidateNodeID(%q) error = %v, expectError %v", tt.id, err, tt.expectError)
		}
	}
}

func TestValidateDepth(t *testing.T) {
	if err := ValidateDepth(0, 10); err != nil {
		t.Errorf("depth 0 should be valid, got %v", err)
	}
	if err := ValidateDepth(-1, 10); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for negative depth, got %v", err)
	}
	if err := ValidateDepth(11, 10); err == nil {
		t.Error("Expected error above ceiling")
	}
}

func TestValidateStruct_Nil(t *testing.T) {
	if err := ValidateStruct(nil); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter, got %v", err)
	}
}
