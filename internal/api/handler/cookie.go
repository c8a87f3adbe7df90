package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// refreshCookieName is the HttpOnly cookie that carries the refresh token
// for browser clients.
const refreshCookieName = "refresh_token"

// CookieConfig controls how the refresh cookie is written. Secure is off in
// development so the cookie survives plain-HTTP localhost.
type CookieConfig struct {
	TTL    time.Duration
	Secure bool
}

func setRefreshCookie(c echo.Context, token string, cfg CookieConfig) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearRefreshCookie(c echo.Context, cfg CookieConfig) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// refreshTokenFromRequest resolves the refresh token with a fixed priority:
// the X-Refresh-Token header wins, then the cookie, then the JSON body.
func refreshTokenFromRequest(c echo.Context) string {
	if t := c.Request().Header.Get("X-Refresh-Token"); t != "" {
		return t
	}
	if ck, err := c.Cookie(refreshCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	var req refreshRequest
	if err := c.Bind(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}
