package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/soporteya/auth-service/internal/api/middleware"
	"github.com/soporteya/auth-service/internal/core/domain"
)

// ctxClaims extracts the access claims injected by the Auth middleware.
// Absence means the route was wired without the middleware; treat it as an
// unauthenticated request rather than panicking.
func ctxClaims(c echo.Context) (*domain.AccessClaims, error) {
	claims, ok := c.Get(middleware.ClaimsKey).(*domain.AccessClaims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}

// deviceInfo captures the requesting device as seen by the edge: resolved
// client IP, raw User-Agent, and the human-readable name derived from it.
func deviceInfo(c echo.Context) domain.DeviceInfo {
	ua := c.Request().UserAgent()
	return domain.DeviceInfo{
		Name:      deviceNameFromUA(ua),
		IP:        c.RealIP(),
		UserAgent: ua,
	}
}
