package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/soporteya/auth-service/internal/core/domain"
)

const defaultAccessTTL = time.Hour

// SessionChecker is the slice of the session registry the codec needs for
// the revocation cross-check.
type SessionChecker interface {
	FindByID(ctx context.Context, id string) (*domain.Session, error)
}

// wireClaims is the JWT payload shape. Kept separate from domain.AccessClaims
// so the wire format can carry the registered claim set verbatim.
type wireClaims struct {
	UserID     string           `json:"user_id"`
	Email      string           `json:"email"`
	SessionID  string           `json:"session_id"`
	Roles      []domain.RoleRef `json:"roles"`
	ActiveRole *domain.RoleRef  `json:"active_role,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies access tokens. Tokens are stateless;
// validity is the HS256 signature plus expiry, and revocation is resolved by
// cross-referencing the embedded session id against the session registry —
// the token itself is never re-derived.
type TokenService struct {
	secret    []byte
	issuer    string
	audience  string
	accessTTL time.Duration
	sessions  SessionChecker
	now       func() time.Time
}

func NewTokenService(secret, issuer, audience string, accessTTL time.Duration, sessions SessionChecker) *TokenService {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	return &TokenService{
		secret:    []byte(secret),
		issuer:    issuer,
		audience:  audience,
		accessTTL: accessTTL,
		sessions:  sessions,
		now:       time.Now,
	}
}

// AccessTTL returns the configured access-token lifetime.
func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

// Issue signs an access token embedding the user's full grant list and,
// when the user holds exactly one active grant, that grant pre-selected as
// the active role. With several grants and no explicit selection the claim
// is left absent and the client must select one.
func (s *TokenService) Issue(user *domain.User, grants []domain.Grant, activeRole *domain.RoleRef, sessionID string) (string, int64, error) {
	active := domain.ActiveGrants(grants)
	roles := make([]domain.RoleRef, 0, len(active))
	for _, g := range active {
		roles = append(roles, g.Ref())
	}
	if activeRole == nil && len(active) == 1 {
		ref := active[0].Ref()
		activeRole = &ref
	}

	now := s.now().UTC()
	claims := wireClaims{
		UserID:     user.ID,
		Email:      user.Email,
		SessionID:  sessionID,
		Roles:      roles,
		ActiveRole: activeRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.accessTTL.Seconds()), nil
}

// Validate verifies signature and expiry, then checks that the embedded
// session is still live. A revoked or expired session invalidates every
// access token minted for it, giving logout immediate effect.
func (s *TokenService) Validate(ctx context.Context, token string) (*domain.AccessClaims, error) {
	var claims wireClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenMalformed
	}
	if !parsed.Valid || claims.UserID == "" || claims.SessionID == "" {
		return nil, domain.ErrTokenMalformed
	}

	session, err := s.sessions.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrTokenRevoked
		}
		return nil, err
	}
	if !session.IsLive(s.now()) {
		return nil, domain.ErrTokenRevoked
	}

	out := &domain.AccessClaims{
		UserID:     claims.UserID,
		Email:      claims.Email,
		SessionID:  claims.SessionID,
		Roles:      claims.Roles,
		ActiveRole: claims.ActiveRole,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return out, nil
}
