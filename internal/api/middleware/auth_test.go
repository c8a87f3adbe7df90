package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/soporteya/auth-service/internal/core/domain"
)

type stubValidator struct {
	claims *domain.AccessClaims
	err    error
	seen   string
}

func (s *stubValidator) Validate(_ context.Context, token string) (*domain.AccessClaims, error) {
	s.seen = token
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	v := &stubValidator{claims: &domain.AccessClaims{UserID: "u1", SessionID: "s1"}}

	called := false
	handler := Auth(v)(func(c echo.Context) error {
		called = true
		claims, ok := c.Get(ClaimsKey).(*domain.AccessClaims)
		if !ok {
			t.Fatalf("claims not set")
		}
		if claims.UserID != "u1" || claims.SessionID != "s1" {
			t.Fatalf("unexpected claims: %+v", claims)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if v.seen != "good-token" {
		t.Fatalf("validator saw %q", v.seen)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Auth(&stubValidator{})(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Auth(&stubValidator{})(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuthMiddleware_ErrorMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"expired", domain.ErrTokenExpired, "token expired"},
		{"revoked", domain.ErrTokenRevoked, "session revoked"},
		{"malformed", domain.ErrTokenMalformed, "invalid token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer whatever")
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := Auth(&stubValidator{err: tc.err})(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})

			err := handler(c)
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %v", err)
			}
			if he.Message != tc.want {
				t.Fatalf("expected message %q, got %v", tc.want, he.Message)
			}
		})
	}
}
