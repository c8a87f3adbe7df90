package domain

// AccessClaims is the verified payload of an access token. Times are
// Unix-epoch seconds, matching the wire format.
type AccessClaims struct {
	UserID     string
	Email      string
	SessionID  string
	Roles      []RoleRef
	ActiveRole *RoleRef
	IssuedAt   int64
	ExpiresAt  int64
}

// StrictActiveRole returns the active-role claim or ErrNoActiveRole when it
// is absent. Privileged (company-scoped admin) paths must use this accessor;
// they never authorize off the fallback.
func (c *AccessClaims) StrictActiveRole() (RoleRef, error) {
	if c.ActiveRole == nil {
		return RoleRef{}, ErrNoActiveRole
	}
	return *c.ActiveRole, nil
}

// ActiveRoleOrFallback returns the active role, falling back to the first
// embedded grant for tokens minted before role selection existed. Advisory
// only — for non-privileged read paths.
func (c *AccessClaims) ActiveRoleOrFallback() RoleRef {
	if c.ActiveRole != nil {
		return *c.ActiveRole
	}
	if len(c.Roles) > 0 {
		return c.Roles[0]
	}
	return RoleRef{Code: RoleUser}
}
