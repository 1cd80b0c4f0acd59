package model

import "testing"

func TestPromptOwnerUnion(t *testing.T) {
	sys := SystemWide()
	if !sys.IsSystem() {
		t.Fatal("SystemWide must be system-scoped")
	}
	if _, ok := sys.TechnicianID(); ok {
		t.Fatal("system owner must not expose a technician id")
	}

	own := OwnedBy(42)
	if own.IsSystem() {
		t.Fatal("OwnedBy must not be system-scoped")
	}
	id, ok := own.TechnicianID()
	if !ok || id != 42 {
		t.Fatal("owner id lost")
	}
}

func TestPromptOwnershipHelpers(t *testing.T) {
	personal := Prompt{ID: 1, Owner: OwnedBy(7)}
	system := Prompt{ID: 2, Owner: SystemWide()}

	if personal.IsSystem() || !system.IsSystem() {
		t.Fatal("IsSystem wrong")
	}
	if !personal.OwnedByTechnician(7) || personal.OwnedByTechnician(8) {
		t.Fatal("OwnedByTechnician wrong for personal prompt")
	}
	if system.OwnedByTechnician(7) {
		t.Fatal("a system prompt is owned by nobody")
	}
}

func TestRoleHelpers(t *testing.T) {
	if !RoleManager.IsManagerOrAdmin() || !RoleAdmin.IsManagerOrAdmin() || RoleTechnician.IsManagerOrAdmin() {
		t.Fatal("IsManagerOrAdmin wrong")
	}
	if !RoleTechnician.Valid() || Role("superuser").Valid() {
		t.Fatal("Valid wrong")
	}
}
