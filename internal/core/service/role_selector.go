package service

import (
	"github.com/soporteya/auth-service/internal/core/domain"
)

// SelectRole validates a requested (code, company) pair against a user's
// grant set. The match is exact: company-scoped roles need the exact company
// id, global roles reject any company id, and nil equals nil for global
// scopes. Deactivated grants never match.
func SelectRole(grants []domain.Grant, code string, companyID *string) (domain.RoleRef, error) {
	if !domain.IsValidRole(code) {
		return domain.RoleRef{}, domain.ErrRoleNotGranted
	}
	if companyID != nil && *companyID == "" {
		companyID = nil
	}

	requested, err := domain.NewRoleRef(code, companyID)
	if err != nil {
		return domain.RoleRef{}, err
	}

	for _, g := range domain.ActiveGrants(grants) {
		if g.Ref().Matches(requested.Code, requested.CompanyID) {
			return requested, nil
		}
	}

	// Distinguish "you hold this role elsewhere" from "you do not hold it".
	for _, g := range domain.ActiveGrants(grants) {
		if g.Code == code {
			return domain.RoleRef{}, domain.ErrRoleCompanyMismatch
		}
	}
	return domain.RoleRef{}, domain.ErrRoleNotGranted
}

// AutoSelectRole returns the pre-selected active role for users with exactly
// one active grant, nil otherwise.
func AutoSelectRole(grants []domain.Grant) *domain.RoleRef {
	active := domain.ActiveGrants(grants)
	if len(active) != 1 {
		return nil
	}
	ref := active[0].Ref()
	return &ref
}
