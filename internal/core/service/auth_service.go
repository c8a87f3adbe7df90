package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/soporteya/auth-service/internal/core/domain"
	"github.com/soporteya/auth-service/internal/core/ports"
)

const (
	minPasswordLength = 8
	verificationTTL   = 24 * time.Hour
)

// AuthService composes the credential verifier, session registry, token
// codec, and role selector into the login/refresh/role/logout flows.
type AuthService struct {
	users        ports.UserRepository
	sessions     *SessionService
	tokens       *TokenService
	verification ports.VerificationStore
	mailer       ports.Mailer
	now          func() time.Time
}

func NewAuthService(users ports.UserRepository, sessions *SessionService, tokens *TokenService, verification ports.VerificationStore, mailer ports.Mailer) *AuthService {
	return &AuthService{
		users:        users,
		sessions:     sessions,
		tokens:       tokens,
		verification: verification,
		mailer:       mailer,
		now:          time.Now,
	}
}

// Register creates an account with the default global USER grant, opens a
// session, and enqueues the verification email. Login is not blocked on
// verification.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || len(in.Password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	// Default-role bootstrap: every fresh account holds the global USER role.
	grant := domain.Grant{
		ID:        uuid.NewString(),
		Code:      domain.RoleUser,
		Active:    true,
		CreatedAt: now,
	}
	if err := s.users.AddGrant(ctx, created.ID, grant); err != nil {
		return nil, err
	}
	created.Grants = append(created.Grants, grant)

	result, err := s.establishSession(ctx, created, in.Device)
	if err != nil {
		return nil, err
	}
	result.RequiresVerification = !created.EmailVerified

	if token, err := s.issueVerificationToken(ctx, created.ID); err == nil {
		s.mailer.EnqueueVerification(created.Email, token)
	}
	return result, nil
}

// Login verifies credentials and account status, records the login, and
// opens a fresh session. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string, device domain.DeviceInfo) (*ports.AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive() {
		if user.IsSuspended() {
			return nil, domain.ErrAccountSuspended
		}
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.users.RecordLogin(ctx, user.ID, device.IP, s.now().UTC()); err != nil {
		return nil, err
	}

	result, err := s.establishSession(ctx, user, device)
	if err != nil {
		return nil, err
	}
	result.RequiresVerification = !user.EmailVerified
	return result, nil
}

// Refresh rotates the refresh token and reissues the access token with the
// user's current grant set.
func (s *AuthService) Refresh(ctx context.Context, rawRefreshToken string, device domain.DeviceInfo) (*ports.AuthResult, error) {
	newRaw, session, user, err := s.sessions.Rotate(ctx, rawRefreshToken, device)
	if err != nil {
		return nil, err
	}

	access, expiresIn, err := s.tokens.Issue(user, user.Grants, nil, session.ID)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: newRaw,
		SessionID:    session.ID,
		ExpiresIn:    expiresIn,
	}, nil
}

// Logout revokes the current session, or every session when everywhere is set.
func (s *AuthService) Logout(ctx context.Context, claims *domain.AccessClaims, everywhere bool) error {
	if everywhere {
		_, err := s.sessions.RevokeAll(ctx, claims.UserID)
		return err
	}
	err := s.sessions.Revoke(ctx, claims.SessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		// Already revoked or expired: logout is idempotent.
		return nil
	}
	return err
}

// SelectRole issues a new access token carrying the requested active role,
// after validating the (code, company) pair against the user's grants.
func (s *AuthService) SelectRole(ctx context.Context, claims *domain.AccessClaims, code string, companyID *string) (*ports.TokenResult, error) {
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	selected, err := SelectRole(user.Grants, code, companyID)
	if err != nil {
		return nil, err
	}

	access, expiresIn, err := s.tokens.Issue(user, user.Grants, &selected, claims.SessionID)
	if err != nil {
		return nil, err
	}
	return &ports.TokenResult{
		AccessToken: access,
		ExpiresIn:   expiresIn,
		ActiveRole:  selected,
	}, nil
}

// AvailableRoles lists the caller's selectable grants and the active role
// currently carried by the presented token.
func (s *AuthService) AvailableRoles(ctx context.Context, claims *domain.AccessClaims) (*ports.RolesResult, error) {
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	active := domain.ActiveGrants(user.Grants)
	refs := make([]domain.RoleRef, 0, len(active))
	for _, g := range active {
		refs = append(refs, g.Ref())
	}
	return &ports.RolesResult{Grants: refs, ActiveRole: claims.ActiveRole}, nil
}

// Me returns the authenticated user.
func (s *AuthService) Me(ctx context.Context, claims *domain.AccessClaims) (*domain.User, error) {
	return s.users.FindByID(ctx, claims.UserID)
}

// VerifyEmail consumes a verification token and marks the account verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.verification.Consume(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.EmailVerified {
		return nil, domain.ErrAlreadyVerified
	}
	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return nil, err
	}
	user.EmailVerified = true
	return user, nil
}

// ResendVerification issues a fresh verification token for the caller.
func (s *AuthService) ResendVerification(ctx context.Context, claims *domain.AccessClaims) error {
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return domain.ErrAlreadyVerified
	}

	token, err := s.issueVerificationToken(ctx, user.ID)
	if err != nil {
		return err
	}
	s.mailer.EnqueueVerification(user.Email, token)
	return nil
}

// establishSession opens a session and mints the access token with
// auto-selection applied when the user holds exactly one grant.
func (s *AuthService) establishSession(ctx context.Context, user *domain.User, device domain.DeviceInfo) (*ports.AuthResult, error) {
	rawRefresh, session, err := s.sessions.Create(ctx, user, device)
	if err != nil {
		return nil, err
	}

	access, expiresIn, err := s.tokens.Issue(user, user.Grants, nil, session.ID)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: rawRefresh,
		SessionID:    session.ID,
		ExpiresIn:    expiresIn,
	}, nil
}

func (s *AuthService) issueVerificationToken(ctx context.Context, userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)
	if err := s.verification.Save(ctx, userID, token, verificationTTL); err != nil {
		return "", err
	}
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
