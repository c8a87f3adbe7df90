package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/soporteya/auth-service/internal/api/metrics"
	"github.com/soporteya/auth-service/internal/core/domain"
	"github.com/soporteya/auth-service/internal/core/ports"
)

type ResetHandler struct {
	resets  ports.ResetService
	cookies CookieConfig
}

func NewResetHandler(resets ports.ResetService, cookies CookieConfig) *ResetHandler {
	return &ResetHandler{resets: resets, cookies: cookies}
}

type resetRequestBody struct {
	Email string `json:"email" validate:"required,email"`
}

type resetConfirmRequest struct {
	Token                string `json:"token"`
	Code                 string `json:"code"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type resetStatusResponse struct {
	IsValid           bool       `json:"is_valid"`
	CanReset          bool       `json:"can_reset"`
	Email             string     `json:"email,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	AttemptsRemaining int        `json:"attempts_remaining"`
}

// Request starts a password reset. The response is identical whether or not
// the email belongs to an account, so the endpoint cannot be used to probe
// for registered addresses.
//
// @Summary      Request a password reset
// @Tags         password-reset
// @Accept       json
// @Produce      json
// @Param        body  body      resetRequestBody  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      429   {object}  map[string]string
// @Router       /auth/password-reset [post]
func (h *ResetHandler) Request(c echo.Context) error {
	var req resetRequestBody
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.resets.Request(c.Request().Context(), req.Email); err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			metrics.ResetRequestsTotal.WithLabelValues("rate_limited").Inc()
		}
		return err
	}

	metrics.ResetRequestsTotal.WithLabelValues("accepted").Inc()
	return c.JSON(http.StatusOK, messageResponse{
		Message: "if the address is registered, a reset email is on its way",
	})
}

// Status reports whether a reset token is still usable. A dead token yields
// a negative status, not an error.
//
// @Summary      Check a reset token
// @Tags         password-reset
// @Produce      json
// @Param        token  query     string  true  "Reset token"
// @Success      200    {object}  resetStatusResponse
// @Router       /auth/password-reset/status [get]
func (h *ResetHandler) Status(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing token")
	}

	st, err := h.resets.Status(c.Request().Context(), token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resetStatusResponse{
		IsValid:           st.IsValid,
		CanReset:          st.CanReset,
		Email:             st.Email,
		ExpiresAt:         st.ExpiresAt,
		AttemptsRemaining: st.AttemptsRemaining,
	})
}

// Confirm consumes the reset credential, sets the new password, revokes
// every existing session, and signs the user in on this device.
//
// @Summary      Confirm a password reset
// @Tags         password-reset
// @Accept       json
// @Produce      json
// @Param        body  body      resetConfirmRequest  true  "Credential and new password"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/password-reset/confirm [post]
func (h *ResetHandler) Confirm(c echo.Context) error {
	var req resetConfirmRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.ResetConfirmationsTotal.WithLabelValues("validation").Inc()
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	cred, err := domain.ParseResetCredential(req.Token, req.Code)
	if err != nil {
		metrics.ResetConfirmationsTotal.WithLabelValues("validation").Inc()
		return err
	}

	res, err := h.resets.Confirm(c.Request().Context(), cred, req.Password, deviceInfo(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrResetTokenExpired):
			metrics.ResetConfirmationsTotal.WithLabelValues("expired").Inc()
		case errors.Is(err, domain.ErrInvalidResetCredential):
			metrics.ResetConfirmationsTotal.WithLabelValues("invalid").Inc()
		default:
			metrics.ResetConfirmationsTotal.WithLabelValues("validation").Inc()
		}
		return err
	}

	metrics.ResetConfirmationsTotal.WithLabelValues("success").Inc()
	setRefreshCookie(c, res.RefreshToken, h.cookies)
	return c.JSON(http.StatusOK, newAuthResponse(res))
}
