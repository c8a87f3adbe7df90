package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/soporteya/auth-service/internal/core/domain"
)

// RequireActiveRole guards a route group behind an explicitly selected
// active role. A token without an active_role claim is rejected outright:
// holding a role is not the same as acting under it, and privileged routes
// must never guess.
func RequireActiveRole(allowedCodes ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedCodes))
	for _, code := range allowedCodes {
		allowed[code] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ClaimsKey).(*domain.AccessClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			active, err := claims.StrictActiveRole()
			if err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "no active role selected")
			}
			if _, ok := allowed[active.Code]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
