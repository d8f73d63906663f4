package graph

import (
	"errors"
	"testing"
)

func TestParseNodeType(t *testing.T) {
	got, err := ParseNodeType("process")
	if err != nil || got != NodeProcess {
		t.Errorf("ParseNodeType(process) = %v, %v", got, err)
	}
	if _, err := ParseNodeType("Vendor"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestParseEdgeType(t *testing.T) {
	got, err := ParseEdgeType("DEPENDSON")
	if err != nil || got != DependsOn {
		t.Errorf("ParseEdgeType(DEPENDSON) = %v, %v", got, err)
	}
	// requiredBy is a view, not a storable edge type
	if _, err := ParseEdgeType(RequiredBy); err == nil {
		t.Error("requiredBy must not parse as a storable edge type")
	}
}

func TestParseCriticality(t *testing.T) {
	tests := map[string]Criticality{
		"":          CriticalityNone,
		"low":       CriticalityLow,
		" Critical": CriticalityCritical,
	}
	for in, want := range tests {
		got, err := ParseCriticality(in)
		if err != nil || got != want {
			t.Errorf("ParseCriticality(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseCriticality("urgent"); err == nil {
		t.Error("Expected error for unknown criticality")
	}
}

func TestNodeMerge_KeepsUnsetAttributes(t *testing.T) {
	rto := 4
	status := "active"
	n := &Node{ID: "p1", Type: NodeProcess, Name: "Payroll", Criticality: CriticalityHigh, RTO: &rto, Status: &status}

	newRPO := 1
	n.Merge(NodeProcess, NodeAttributes{RPO: &newRPO})

	if n.Name != "Payroll" || n.Criticality != CriticalityHigh {
		t.Errorf("Merge overwrote unset attributes: %+v", n)
	}
	if n.RTO == nil || *n.RTO != 4 {
		t.Errorf("RTO lost: %v", n.RTO)
	}
	if n.RPO == nil || *n.RPO != 1 {
		t.Errorf("RPO not applied: %v", n.RPO)
	}

	n.Merge(NodeProcess, NodeAttributes{Name: "Payroll v2", Criticality: CriticalityCritical})
	if n.Name != "Payroll v2" || n.Criticality != CriticalityCritical {
		t.Errorf("Merge did not overwrite set attributes: %+v", n)
	}
}

func TestNodeClone_IsDeep(t *testing.T) {
	rto := 8
	n := &Node{ID: "a", RTO: &rto}
	c := n.Clone()
	*c.RTO = 99
	if *n.RTO != 8 {
		t.Error("Clone shares RTO pointer with original")
	}
}

func TestErrorClassification(t *testing.T) {
	err := NodeNotFoundError("get_node", "acme", "p1")
	if !IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
	if err.Error() != "get_node node p1 (tenant acme): node not found" {
		t.Errorf("Unexpected message: %s", err.Error())
	}

	unavailable := Unavailable("query", errors.New("connection refused"))
	if !IsUnavailable(unavailable) {
		t.Errorf("Expected unavailable, got %v", unavailable)
	}
	if IsUnavailable(err) {
		t.Error("Not found must not classify as unavailable")
	}
}
