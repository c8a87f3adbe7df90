package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/soporteya/auth-service/internal/core/ports"
)

type SessionHandler struct {
	sessions ports.SessionService
}

func NewSessionHandler(sessions ports.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type sessionListResponse struct {
	Sessions []ports.SessionView `json:"sessions"`
}

// List returns the caller's live sessions, most recently used first. The
// session behind the presented access token is flagged is_current.
//
// @Summary      List active sessions
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Success      200   {object}  sessionListResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/sessions [get]
func (h *SessionHandler) List(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	views, err := h.sessions.List(c.Request().Context(), claims.UserID, claims.SessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionListResponse{Sessions: views})
}

// Revoke signs out one of the caller's other devices. Revoking the current
// session is rejected; logout is the path for that.
//
// @Summary      Revoke a session
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        id    path      string  true  "Session ID"
// @Success      200   {object}  messageResponse
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/sessions/{id} [delete]
func (h *SessionHandler) Revoke(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing session id")
	}

	if err := h.sessions.RevokeByID(c.Request().Context(), claims.UserID, id, claims.SessionID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "session revoked"})
}
