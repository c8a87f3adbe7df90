package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/soporteya/auth-service/internal/core/domain"
	"github.com/soporteya/auth-service/internal/core/ports"
)

// ClaimsKey is the echo context key under which Auth stores the validated
// access claims.
const ClaimsKey = "auth_claims"

// Auth validates the bearer token and injects the decoded claims into the
// request context. Validation includes the session liveness check, so a
// token whose session was revoked is rejected here even before it expires.
func Auth(validator ports.TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := validator.Validate(c.Request().Context(), parts[1])
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrTokenExpired):
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				case errors.Is(err, domain.ErrTokenRevoked):
					return echo.NewHTTPError(http.StatusUnauthorized, "session revoked")
				default:
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}
