package ports

import (
	"context"
	"time"

	"github.com/soporteya/auth-service/internal/core/domain"
)

// RegisterInput carries everything needed to create an account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Device    domain.DeviceInfo
}

// AuthResult is the outcome of any flow that establishes a session:
// login, refresh, registration, and password-reset confirmation.
type AuthResult struct {
	User                 *domain.User
	AccessToken          string
	RefreshToken         string
	SessionID            string
	ExpiresIn            int64
	RequiresVerification bool
}

// TokenResult is the outcome of an explicit role selection.
type TokenResult struct {
	AccessToken string
	ExpiresIn   int64
	ActiveRole  domain.RoleRef
}

// RolesResult lists a user's selectable grants and the currently active one.
type RolesResult struct {
	Grants     []domain.RoleRef
	ActiveRole *domain.RoleRef
}

// SessionView is the client-facing shape of one session row.
type SessionView struct {
	ID         string    `json:"id"`
	DeviceName string    `json:"device_name"`
	IPAddress  string    `json:"ip_address,omitempty"`
	LastUsedAt time.Time `json:"last_used_at"`
	CreatedAt  time.Time `json:"created_at"`
	IsCurrent  bool      `json:"is_current"`
}

// ResetStatus reports the state of an in-flight password reset without
// revealing the full owning identity.
type ResetStatus struct {
	IsValid           bool
	CanReset          bool
	Email             string
	ExpiresAt         *time.Time
	AttemptsRemaining int
}

// AuthService exposes the login/refresh/role/logout flows at the boundary.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string, device domain.DeviceInfo) (*AuthResult, error)
	Refresh(ctx context.Context, rawRefreshToken string, device domain.DeviceInfo) (*AuthResult, error)
	Logout(ctx context.Context, claims *domain.AccessClaims, everywhere bool) error
	SelectRole(ctx context.Context, claims *domain.AccessClaims, code string, companyID *string) (*TokenResult, error)
	AvailableRoles(ctx context.Context, claims *domain.AccessClaims) (*RolesResult, error)
	Me(ctx context.Context, claims *domain.AccessClaims) (*domain.User, error)
	VerifyEmail(ctx context.Context, token string) (*domain.User, error)
	ResendVerification(ctx context.Context, claims *domain.AccessClaims) error
}

// SessionService manages a user's own device sessions.
type SessionService interface {
	List(ctx context.Context, userID, currentSessionID string) ([]SessionView, error)
	RevokeByID(ctx context.Context, userID, sessionID, currentSessionID string) error
}

// ResetService drives the dual-channel password-reset flow.
type ResetService interface {
	Request(ctx context.Context, email string) error
	Status(ctx context.Context, token string) (*ResetStatus, error)
	Confirm(ctx context.Context, credential domain.ResetCredential, newPassword string, device domain.DeviceInfo) (*AuthResult, error)
}

// TokenValidator is what the HTTP middleware needs from the token codec:
// signature/expiry verification plus the session-registry revocation check.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*domain.AccessClaims, error)
}
