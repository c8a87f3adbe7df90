package domain

import "time"

// Account status values. A suspended account keeps its data but cannot
// authenticate; removal is a status change, never a hard delete.
const (
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
)

// User models an account holder. Role grants are carried on the user so a
// single lookup yields everything token issuance needs.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	FirstName     string     `json:"first_name,omitempty"`
	LastName      string     `json:"last_name,omitempty"`
	Status        string     `json:"status"`
	EmailVerified bool       `json:"email_verified"`
	Grants        []Grant    `json:"grants,omitempty"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP   string     `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

func (u *User) IsSuspended() bool {
	return u.Status == StatusSuspended
}
