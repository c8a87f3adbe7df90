package domain

import "time"

// Role codes. AGENT and COMPANY_ADMIN are always scoped to one company;
// PLATFORM_ADMIN and USER are global and carry no company.
const (
	RolePlatformAdmin = "PLATFORM_ADMIN"
	RoleCompanyAdmin  = "COMPANY_ADMIN"
	RoleAgent         = "AGENT"
	RoleUser          = "USER"
)

var roleRequiresCompany = map[string]bool{
	RolePlatformAdmin: false,
	RoleCompanyAdmin:  true,
	RoleAgent:         true,
	RoleUser:          false,
}

// IsValidRole reports whether code is a known role code.
func IsValidRole(code string) bool {
	_, ok := roleRequiresCompany[code]
	return ok
}

// RoleRef is a (role code, company scope) pair — the shape embedded in
// token claims, both for the full grant list and for the active role.
// CompanyID is nil for global roles.
type RoleRef struct {
	Code      string  `json:"code"`
	CompanyID *string `json:"company_id"`
}

// NewRoleRef validates the code/scope pairing at construction so a RoleRef
// that exists is always well-formed.
func NewRoleRef(code string, companyID *string) (RoleRef, error) {
	requires, ok := roleRequiresCompany[code]
	if !ok {
		return RoleRef{}, ErrRoleNotGranted
	}
	if requires && (companyID == nil || *companyID == "") {
		return RoleRef{}, ErrRoleCompanyMismatch
	}
	if !requires && companyID != nil && *companyID != "" {
		return RoleRef{}, ErrUnexpectedCompanyScope
	}
	if companyID != nil && *companyID == "" {
		companyID = nil
	}
	return RoleRef{Code: code, CompanyID: companyID}, nil
}

// Matches compares code and company scope exactly (nil == nil for global roles).
func (r RoleRef) Matches(code string, companyID *string) bool {
	if r.Code != code {
		return false
	}
	if r.CompanyID == nil && companyID == nil {
		return true
	}
	if r.CompanyID == nil || companyID == nil {
		return false
	}
	return *r.CompanyID == *companyID
}

// Grant is a standing role assignment. Grants are deactivated rather than
// deleted so assignment history survives.
type Grant struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	CompanyID *string   `json:"company_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Ref returns the claim-shaped view of the grant.
func (g Grant) Ref() RoleRef {
	return RoleRef{Code: g.Code, CompanyID: g.CompanyID}
}

// ActiveGrants filters grants down to the active ones. A user with no
// active grants at all holds the implicit global USER role.
func ActiveGrants(grants []Grant) []Grant {
	out := make([]Grant, 0, len(grants))
	for _, g := range grants {
		if g.Active {
			out = append(out, g)
		}
	}
	if len(out) == 0 {
		out = append(out, Grant{Code: RoleUser, Active: true})
	}
	return out
}
