package handler

import (
	"github.com/soporteya/auth-service/internal/core/domain"
	"github.com/soporteya/auth-service/internal/core/ports"
)

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// refreshRequest is the body fallback; clients normally send the refresh
// token via the X-Refresh-Token header or the refresh_token cookie.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	Everywhere bool `json:"everywhere"`
}

type selectRoleRequest struct {
	RoleCode  string  `json:"role_code" validate:"required"`
	CompanyID *string `json:"company_id"`
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// refreshTokenNotice is what the refresh_token body field carries instead of
// the raw token: the token itself travels only in the HttpOnly cookie, so a
// script-readable response never holds a credential worth stealing.
const refreshTokenNotice = "set via HttpOnly refresh_token cookie"

// authResponse is returned by every flow that establishes a session.
type authResponse struct {
	User                 *domain.User `json:"user"`
	AccessToken          string       `json:"access_token"`
	TokenType            string       `json:"token_type"`
	ExpiresIn            int64        `json:"expires_in"`
	RefreshToken         string       `json:"refresh_token,omitempty"`
	SessionID            string       `json:"session_id"`
	RequiresVerification bool         `json:"requires_verification,omitempty"`
}

type tokenResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int64          `json:"expires_in"`
	ActiveRole  domain.RoleRef `json:"active_role"`
}

type rolesResponse struct {
	Roles      []domain.RoleRef `json:"roles"`
	ActiveRole *domain.RoleRef  `json:"active_role"`
}

type userResponse struct {
	User       *domain.User   `json:"user"`
	ActiveRole domain.RoleRef `json:"active_role"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func newAuthResponse(res *ports.AuthResult) authResponse {
	return authResponse{
		User:                 res.User,
		AccessToken:          res.AccessToken,
		TokenType:            "Bearer",
		ExpiresIn:            res.ExpiresIn,
		RefreshToken:         refreshTokenNotice,
		SessionID:            res.SessionID,
		RequiresVerification: res.RequiresVerification,
	}
}
