package domain

import (
	"errors"
	"fmt"
	"time"
)

// Authentication failures.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountSuspended    = errors.New("account suspended")
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenMalformed      = errors.New("token malformed")
	ErrTokenRevoked        = errors.New("token revoked")
)

// Role selection failures.
var (
	ErrRoleNotGranted         = errors.New("role not granted")
	ErrRoleCompanyMismatch    = errors.New("role requires a matching company scope")
	ErrUnexpectedCompanyScope = errors.New("role does not take a company scope")
	ErrNoActiveRole           = errors.New("no active role selected")
)

// Password reset failures.
var (
	ErrAmbiguousResetCredential = errors.New("supply either token or code, not both")
	ErrMissingResetCredential   = errors.New("token or code is required")
	ErrInvalidCodeFormat        = errors.New("code must be exactly 6 digits")
	ErrInvalidResetCredential   = errors.New("invalid or expired reset credential")
	ErrResetTokenExpired        = errors.New("reset token has expired")
	ErrWeakPassword             = errors.New("password does not meet the strength policy")
	ErrPasswordUnchanged        = errors.New("new password must differ from the current one")
)

// Session management failures.
var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrCurrentSessionRevoked = errors.New("cannot revoke the current session")
	ErrVerificationInvalid   = errors.New("invalid or expired verification token")
	ErrAlreadyVerified       = errors.New("email already verified")
)

// ErrRateLimited is the sentinel every rate-limit breach unwraps to.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitError carries a machine-readable retry-after alongside the
// sentinel so handlers can surface it without string parsing.
type RateLimitError struct {
	Action     string
	Limit      int
	Window     time.Duration
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %d per %s, retry in %s",
		e.Action, e.Limit, e.Window, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}
