package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/soporteya/auth-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error      string `json:"error"`
	RetryAfter int64  `json:"retry_after,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		// Rate limits carry a retry hint the client needs.
		var rl *domain.RateLimitError
		if errors.As(err, &rl) {
			c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", int64(rl.RetryAfter.Seconds())))
			_ = c.JSON(http.StatusTooManyRequests, errorResponse{
				Error:      rl.Error(),
				RetryAfter: int64(rl.RetryAfter.Seconds()),
			})
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	// Authentication failures. Unknown email and wrong password share one
	// message so the endpoint cannot be used to enumerate accounts.
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrAccountSuspended):
		return http.StatusForbidden, "account suspended"
	case errors.Is(err, domain.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, "invalid refresh token"
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, domain.ErrTokenMalformed):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, domain.ErrTokenRevoked):
		return http.StatusUnauthorized, "session revoked"

	// Role selection.
	case errors.Is(err, domain.ErrRoleNotGranted):
		return http.StatusForbidden, "role not granted"
	case errors.Is(err, domain.ErrRoleCompanyMismatch):
		return http.StatusUnprocessableEntity, "role not granted for that company"
	case errors.Is(err, domain.ErrUnexpectedCompanyScope):
		return http.StatusUnprocessableEntity, "role does not take a company scope"
	case errors.Is(err, domain.ErrNoActiveRole):
		return http.StatusForbidden, "no active role selected"

	// Password reset.
	case errors.Is(err, domain.ErrAmbiguousResetCredential):
		return http.StatusUnprocessableEntity, "provide either a token or a code, not both"
	case errors.Is(err, domain.ErrMissingResetCredential):
		return http.StatusUnprocessableEntity, "a token or a code is required"
	case errors.Is(err, domain.ErrInvalidCodeFormat):
		return http.StatusUnprocessableEntity, "code must be six digits"
	case errors.Is(err, domain.ErrInvalidResetCredential):
		return http.StatusUnauthorized, "invalid or expired reset credential"
	case errors.Is(err, domain.ErrResetTokenExpired):
		return http.StatusUnauthorized, "reset credential expired"
	case errors.Is(err, domain.ErrWeakPassword):
		return http.StatusUnprocessableEntity, "password does not meet requirements"
	case errors.Is(err, domain.ErrPasswordUnchanged):
		return http.StatusUnprocessableEntity, "new password must differ from the current one"

	// Accounts and sessions.
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, domain.ErrCurrentSessionRevoked):
		return http.StatusConflict, "cannot revoke the current session; use logout"

	// Email verification.
	case errors.Is(err, domain.ErrVerificationInvalid):
		return http.StatusUnauthorized, "invalid or expired verification token"
	case errors.Is(err, domain.ErrAlreadyVerified):
		return http.StatusConflict, "email already verified"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
