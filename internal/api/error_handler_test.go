package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/soporteya/auth-service/internal/core/domain"
)

func renderError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)
	return rec
}

func TestErrorHandler_DomainErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrInvalidRefreshToken, http.StatusUnauthorized},
		{domain.ErrTokenExpired, http.StatusUnauthorized},
		{domain.ErrTokenMalformed, http.StatusUnauthorized},
		{domain.ErrTokenRevoked, http.StatusUnauthorized},
		{domain.ErrInvalidResetCredential, http.StatusUnauthorized},
		{domain.ErrResetTokenExpired, http.StatusUnauthorized},
		{domain.ErrVerificationInvalid, http.StatusUnauthorized},
		{domain.ErrAccountSuspended, http.StatusForbidden},
		{domain.ErrRoleNotGranted, http.StatusForbidden},
		{domain.ErrNoActiveRole, http.StatusForbidden},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrSessionNotFound, http.StatusNotFound},
		{domain.ErrEmailTaken, http.StatusConflict},
		{domain.ErrCurrentSessionRevoked, http.StatusConflict},
		{domain.ErrAlreadyVerified, http.StatusConflict},
		{domain.ErrRoleCompanyMismatch, http.StatusUnprocessableEntity},
		{domain.ErrUnexpectedCompanyScope, http.StatusUnprocessableEntity},
		{domain.ErrAmbiguousResetCredential, http.StatusUnprocessableEntity},
		{domain.ErrMissingResetCredential, http.StatusUnprocessableEntity},
		{domain.ErrInvalidCodeFormat, http.StatusUnprocessableEntity},
		{domain.ErrWeakPassword, http.StatusUnprocessableEntity},
		{domain.ErrPasswordUnchanged, http.StatusUnprocessableEntity},
		{errors.New("database on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := renderError(t, tc.err)
		if rec.Code != tc.code {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
	}
}

func TestErrorHandler_UnexpectedErrorIsOpaque(t *testing.T) {
	rec := renderError(t, errors.New("pq: connection refused at 10.1.2.3"))

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "internal server error" {
		t.Fatalf("internal details leaked: %q", resp.Error)
	}
}

func TestErrorHandler_RateLimit(t *testing.T) {
	rec := renderError(t, &domain.RateLimitError{
		Action:     "request password reset",
		Limit:      2,
		Window:     3 * time.Hour,
		RetryAfter: 90 * time.Second,
	})

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "90" {
		t.Fatalf("expected Retry-After 90, got %q", got)
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RetryAfter != 90 {
		t.Fatalf("retry_after not in body: %+v", resp)
	}
}

func TestErrorHandler_EchoHTTPError(t *testing.T) {
	rec := renderError(t, echo.NewHTTPError(http.StatusBadRequest, "invalid payload"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
