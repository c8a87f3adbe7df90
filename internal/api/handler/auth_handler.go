package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/soporteya/auth-service/internal/api/metrics"
	"github.com/soporteya/auth-service/internal/core/domain"
	"github.com/soporteya/auth-service/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookies     CookieConfig
}

func NewAuthHandler(authService ports.AuthService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

// Register creates a new account and signs it in.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  authResponse
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Device:    deviceInfo(c),
	})
	if err != nil {
		return err
	}

	setRefreshCookie(c, res.RefreshToken, h.cookies)
	return c.JSON(http.StatusCreated, newAuthResponse(res))
}

// Login authenticates with email and password.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, deviceInfo(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		case errors.Is(err, domain.ErrAccountSuspended):
			metrics.LoginsTotal.WithLabelValues("suspended").Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	setRefreshCookie(c, res.RefreshToken, h.cookies)
	return c.JSON(http.StatusOK, newAuthResponse(res))
}

// Refresh rotates the refresh token and mints a new access token.
//
// @Summary      Refresh the session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        X-Refresh-Token  header    string          false  "Refresh token"
// @Param        body             body      refreshRequest  false  "Refresh token (body fallback)"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := refreshTokenFromRequest(c)
	if raw == "" {
		metrics.RefreshRotationsTotal.WithLabelValues("invalid").Inc()
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	res, err := h.authService.Refresh(c.Request().Context(), raw, deviceInfo(c))
	if err != nil {
		metrics.RefreshRotationsTotal.WithLabelValues("invalid").Inc()
		clearRefreshCookie(c, h.cookies)
		return err
	}

	metrics.RefreshRotationsTotal.WithLabelValues("success").Inc()
	setRefreshCookie(c, res.RefreshToken, h.cookies)
	return c.JSON(http.StatusOK, newAuthResponse(res))
}

// Logout revokes the current session, or all of the user's sessions when
// everywhere is set.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      logoutRequest  false  "Logout options"
// @Success      200   {object}  messageResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req logoutRequest
	_ = c.Bind(&req) // body is optional

	if err := h.authService.Logout(c.Request().Context(), claims, req.Everywhere); err != nil {
		return err
	}

	clearRefreshCookie(c, h.cookies)
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// SelectRole switches the active role and mints a new access token carrying
// it. The session and refresh token are untouched.
//
// @Summary      Select the active role
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      selectRoleRequest  true  "Role to activate"
// @Success      200   {object}  tokenResponse
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/select-role [post]
func (h *AuthHandler) SelectRole(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req selectRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	res, err := h.authService.SelectRole(c.Request().Context(), claims, req.RoleCode, req.CompanyID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoleNotGranted):
			metrics.RoleSelectionsTotal.WithLabelValues("not_granted").Inc()
		case errors.Is(err, domain.ErrRoleCompanyMismatch), errors.Is(err, domain.ErrUnexpectedCompanyScope):
			metrics.RoleSelectionsTotal.WithLabelValues("scope_mismatch").Inc()
		}
		return err
	}

	metrics.RoleSelectionsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   res.ExpiresIn,
		ActiveRole:  res.ActiveRole,
	})
}

// AvailableRoles lists the caller's selectable roles.
//
// @Summary      List available roles
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200   {object}  rolesResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/available-roles [get]
func (h *AuthHandler) AvailableRoles(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	res, err := h.authService.AvailableRoles(c.Request().Context(), claims)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, rolesResponse{
		Roles:      res.Grants,
		ActiveRole: res.ActiveRole,
	})
}

// Me returns the authenticated user's profile.
//
// @Summary      Current user
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200   {object}  userResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Me(c.Request().Context(), claims)
	if err != nil {
		return err
	}

	// The fallback is display-only; privileged routes authorize via the
	// strict accessor in the middleware.
	return c.JSON(http.StatusOK, userResponse{
		User:       user,
		ActiveRole: claims.ActiveRoleOrFallback(),
	})
}

// VerifyEmail consumes a verification token and marks the account verified.
//
// @Summary      Verify email address
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyEmailRequest  true  "Verification token"
// @Success      200   {object}  messageResponse
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if _, err := h.authService.VerifyEmail(c.Request().Context(), req.Token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "email verified"})
}

// ResendVerification issues a fresh verification email for the caller.
//
// @Summary      Resend the verification email
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200   {object}  messageResponse
// @Failure      409   {object}  map[string]string
// @Router       /auth/verify-email/resend [post]
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	if err := h.authService.ResendVerification(c.Request().Context(), claims); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "verification email sent"})
}
