package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/soporteya/auth-service/internal/core/domain"
	"github.com/soporteya/auth-service/internal/core/ports"
)

type stubResetService struct {
	status *ports.ResetStatus
	result *ports.AuthResult
	err    error

	lastEmail string
	lastCred  domain.ResetCredential
	lastPass  string
}

func (s *stubResetService) Request(_ context.Context, email string) error {
	s.lastEmail = email
	return s.err
}

func (s *stubResetService) Status(_ context.Context, _ string) (*ports.ResetStatus, error) {
	return s.status, s.err
}

func (s *stubResetService) Confirm(_ context.Context, cred domain.ResetCredential, newPassword string, _ domain.DeviceInfo) (*ports.AuthResult, error) {
	s.lastCred = cred
	s.lastPass = newPassword
	return s.result, s.err
}

func TestResetHandler_Request(t *testing.T) {
	svc := &stubResetService{}
	h := NewResetHandler(svc, testCookieConfig())

	c, rec := newHandlerContext(http.MethodPost, "/auth/password-reset", `{"email":"a@b.com"}`)
	if err := h.Request(c); err != nil {
		t.Fatalf("request: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastEmail != "a@b.com" {
		t.Fatalf("email not forwarded: %q", svc.lastEmail)
	}
}

func TestResetHandler_RequestRateLimited(t *testing.T) {
	svc := &stubResetService{err: &domain.RateLimitError{
		Action:     "request password reset",
		Limit:      1,
		Window:     time.Minute,
		RetryAfter: 30 * time.Second,
	}}
	h := NewResetHandler(svc, testCookieConfig())

	c, _ := newHandlerContext(http.MethodPost, "/auth/password-reset", `{"email":"a@b.com"}`)
	err := h.Request(c)
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rate-limit error to propagate, got %v", err)
	}
}

func TestResetHandler_StatusRequiresToken(t *testing.T) {
	h := NewResetHandler(&stubResetService{}, testCookieConfig())

	c, _ := newHandlerContext(http.MethodGet, "/auth/password-reset/status", "")
	err := h.Status(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestResetHandler_Status(t *testing.T) {
	expires := time.Now().Add(time.Hour).UTC()
	svc := &stubResetService{status: &ports.ResetStatus{
		IsValid:           true,
		CanReset:          true,
		Email:             "m***a@empresa.com",
		ExpiresAt:         &expires,
		AttemptsRemaining: 3,
	}}
	h := NewResetHandler(svc, testCookieConfig())

	c, rec := newHandlerContext(http.MethodGet, "/auth/password-reset/status?token=abc", "")
	if err := h.Status(c); err != nil {
		t.Fatalf("status: %v", err)
	}

	var resp resetStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.IsValid || resp.Email != "m***a@empresa.com" || resp.AttemptsRemaining != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestResetHandler_ConfirmRejectsBothCredentials(t *testing.T) {
	h := NewResetHandler(&stubResetService{}, testCookieConfig())

	c, _ := newHandlerContext(http.MethodPost, "/auth/password-reset/confirm",
		`{"token":"abc","code":"123456","password":"newpass123","password_confirmation":"newpass123"}`)
	if err := h.Confirm(c); !errors.Is(err, domain.ErrAmbiguousResetCredential) {
		t.Fatalf("expected ErrAmbiguousResetCredential, got %v", err)
	}
}

func TestResetHandler_ConfirmRejectsMismatchedConfirmation(t *testing.T) {
	h := NewResetHandler(&stubResetService{}, testCookieConfig())

	c, _ := newHandlerContext(http.MethodPost, "/auth/password-reset/confirm",
		`{"token":"abc","password":"newpass123","password_confirmation":"different123"}`)
	err := h.Confirm(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
}

func TestResetHandler_ConfirmSignsIn(t *testing.T) {
	svc := &stubResetService{result: okAuthResult()}
	h := NewResetHandler(svc, testCookieConfig())

	c, rec := newHandlerContext(http.MethodPost, "/auth/password-reset/confirm",
		`{"code":"123456","password":"newpass123","password_confirmation":"newpass123"}`)
	if err := h.Confirm(c); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if code, ok := svc.lastCred.Code(); !ok || code != "123456" {
		t.Fatalf("code credential not forwarded: %+v", svc.lastCred)
	}
	if svc.lastPass != "newpass123" {
		t.Fatalf("password not forwarded: %q", svc.lastPass)
	}

	ck := findCookie(rec, "refresh_token")
	if ck == nil || ck.Value != "refresh-raw" {
		t.Fatalf("auto-login cookie missing: %+v", ck)
	}
}
