package types

import (
	"testing"

	"github.com/google/uuid"
)

func TestNodeValidate(t *testing.T) {
	node := &Node{
		Name: "fever",
		Kind: SymptomNode,
	}

	if err := node.Validate(); err != nil {
		t.Errorf("expected valid node, got error: %v", err)
	}

	node.Name = ""
	if err := node.Validate(); err != ErrEmptyName {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
}

func TestNodeValidateForCreate(t *testing.T) {
	node := &Node{
		Name: "psoriasis",
		Kind: DiseaseNode,
	}

	if err := node.ValidateForCreate(); err != ErrEmptyUUID {
		t.Errorf("expected ErrEmptyUUID, got %v", err)
	}

	node.Uuid = uuid.New().String()
	if err := node.ValidateForCreate(); err != nil {
		t.Errorf("expected valid node, got error: %v", err)
	}
}

func TestEdgeValidate(t *testing.T) {
	edge := &Edge{
		Uuid:        uuid.New().String(),
		DiseaseUUID: uuid.New().String(),
		SymptomUUID: uuid.New().String(),
		Role:        RolePrimary,
	}

	if err := edge.Validate(); err != nil {
		t.Errorf("expected valid edge, got error: %v", err)
	}

	edge.SymptomUUID = ""
	if err := edge.Validate(); err != ErrEmptyUUID {
		t.Errorf("expected ErrEmptyUUID, got %v", err)
	}
}

func TestSymptomRolesCoverAllRoles(t *testing.T) {
	seen := map[SymptomRole]bool{}
	for _, r := range SymptomRoles {
		seen[r] = true
	}
	for _, r := range []SymptomRole{RolePrimary, RoleSecondary, RoleComplication} {
		if !seen[r] {
			t.Errorf("role %q missing from SymptomRoles", r)
		}
	}
}
