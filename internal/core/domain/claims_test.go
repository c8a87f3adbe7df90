package domain

import (
	"errors"
	"testing"
)

func TestStrictActiveRole(t *testing.T) {
	comp := "comp_1"
	withActive := &AccessClaims{ActiveRole: &RoleRef{Code: RoleCompanyAdmin, CompanyID: &comp}}
	got, err := withActive.StrictActiveRole()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Code != RoleCompanyAdmin {
		t.Fatalf("wrong role: %+v", got)
	}

	// A full grant list is not a selection.
	withoutActive := &AccessClaims{Roles: []RoleRef{{Code: RolePlatformAdmin}}}
	if _, err := withoutActive.StrictActiveRole(); !errors.Is(err, ErrNoActiveRole) {
		t.Fatalf("expected ErrNoActiveRole, got %v", err)
	}
}

func TestActiveRoleOrFallback(t *testing.T) {
	comp := "comp_1"

	selected := &AccessClaims{
		Roles:      []RoleRef{{Code: RoleAgent, CompanyID: &comp}, {Code: RoleUser}},
		ActiveRole: &RoleRef{Code: RoleUser},
	}
	if got := selected.ActiveRoleOrFallback(); got.Code != RoleUser {
		t.Fatalf("selection ignored: %+v", got)
	}

	unselected := &AccessClaims{Roles: []RoleRef{{Code: RoleAgent, CompanyID: &comp}, {Code: RoleUser}}}
	if got := unselected.ActiveRoleOrFallback(); got.Code != RoleAgent {
		t.Fatalf("expected first-grant fallback, got %+v", got)
	}

	empty := &AccessClaims{}
	if got := empty.ActiveRoleOrFallback(); got.Code != RoleUser {
		t.Fatalf("expected USER fallback, got %+v", got)
	}
}
