package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/soporteya/auth-service/internal/core/domain"
	"github.com/soporteya/auth-service/internal/core/ports"
)

// Reset-request rate limits: a per-user resend cooldown and a rolling cap.
// Both windows slide; violating either is a 429 with a retry-after.
const (
	resetCooldownLimit  = 1
	resetCooldownWindow = time.Minute
	resetCapLimit       = 2
	resetCapWindow      = 3 * time.Hour
)

// ResetService generates, validates, and consumes password-reset token+code
// pairs. A reset record is single-use: consumption is atomic in the cache
// store, and a successful confirmation revokes every session before handing
// back a fresh token pair.
type ResetService struct {
	users    ports.UserRepository
	store    ports.ResetStore
	limiter  ports.RateLimiter
	sessions *SessionService
	tokens   *TokenService
	mailer   ports.Mailer
	log      zerolog.Logger
	now      func() time.Time
}

func NewResetService(users ports.UserRepository, store ports.ResetStore, limiter ports.RateLimiter, sessions *SessionService, tokens *TokenService, mailer ports.Mailer, log zerolog.Logger) *ResetService {
	return &ResetService{
		users:    users,
		store:    store,
		limiter:  limiter,
		sessions: sessions,
		tokens:   tokens,
		mailer:   mailer,
		log:      log,
		now:      time.Now,
	}
}

// Request starts a reset for the account behind email. Unknown and inactive
// accounts are silent no-ops — the caller sees the same success either way,
// so the endpoint cannot be used to enumerate accounts. Rate-limit breaches
// do surface: they only occur for addresses already being hammered.
func (s *ResetService) Request(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if !user.IsActive() {
		return nil
	}

	if err := s.checkLimits(ctx, user.ID); err != nil {
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	code, err := newResetCode()
	if err != nil {
		return err
	}

	record := domain.ResetRecord{
		UserID:            user.ID,
		Email:             user.Email,
		Code:              code,
		ExpiresAt:         s.now().Add(domain.ResetTTL).Unix(),
		AttemptsRemaining: domain.ResetMaxAttempts,
	}
	if err := s.store.Save(ctx, token, record, domain.ResetTTL); err != nil {
		return err
	}

	s.mailer.EnqueuePasswordReset(user.Email, token, code)
	s.log.Info().Str("user_id", user.ID).Msg("password reset requested")
	return nil
}

// Status reports whether a token can still be used, with the owning email
// masked. Invalid tokens yield a negative status, never an error.
func (s *ResetService) Status(ctx context.Context, token string) (*ports.ResetStatus, error) {
	record, err := s.store.Find(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidResetCredential) {
			return &ports.ResetStatus{}, nil
		}
		return nil, err
	}
	if record.IsExpired(s.now()) {
		_, _ = s.store.Consume(ctx, token)
		return &ports.ResetStatus{}, nil
	}

	status := &ports.ResetStatus{
		Email:             domain.MaskEmail(record.Email),
		AttemptsRemaining: record.AttemptsRemaining,
	}
	expires := time.Unix(record.ExpiresAt, 0).UTC()
	status.ExpiresAt = &expires
	if record.AttemptsRemaining > 0 {
		status.IsValid = true
		status.CanReset = true
	}
	return status, nil
}

// Confirm consumes the credential, rewrites the password, revokes every
// session, and auto-authenticates: the caller gets a fresh access+refresh
// pair for the device that completed the reset.
func (s *ResetService) Confirm(ctx context.Context, credential domain.ResetCredential, newPassword string, device domain.DeviceInfo) (*ports.AuthResult, error) {
	token, err := s.resolveToken(ctx, credential)
	if err != nil {
		return nil, err
	}

	record, err := s.store.Find(ctx, token)
	if err != nil {
		return nil, err
	}
	if record.IsExpired(s.now()) {
		_, _ = s.store.Consume(ctx, token)
		return nil, domain.ErrResetTokenExpired
	}
	if record.AttemptsRemaining <= 0 {
		return nil, domain.ErrInvalidResetCredential
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		_, _ = s.store.Consume(ctx, token)
		return nil, domain.ErrInvalidResetCredential
	}
	if !user.IsActive() {
		_, _ = s.store.Consume(ctx, token)
		return nil, domain.ErrInvalidResetCredential
	}

	if len(newPassword) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(newPassword)) == nil {
		// Reusing the current password burns one attempt but keeps the
		// record alive for a corrected retry.
		if _, err := s.store.DecrementAttempts(ctx, token); err != nil {
			return nil, err
		}
		return nil, domain.ErrPasswordUnchanged
	}

	// Single-use gate: whoever wins this consume owns the reset; a second
	// confirmation with the same token or code fails closed.
	if _, err := s.store.Consume(ctx, token); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return nil, err
	}
	user.PasswordHash = string(hash)

	if _, err := s.sessions.RevokeAll(ctx, user.ID); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("password reset completed, all sessions revoked")

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

// resolveToken maps either credential variant to the record's token key.
func (s *ResetService) resolveToken(ctx context.Context, credential domain.ResetCredential) (string, error) {
	if token, ok := credential.Token(); ok {
		return token, nil
	}
	code, _ := credential.Code()
	return s.store.TokenByCode(ctx, code)
}

func (s *ResetService) checkLimits(ctx context.Context, userID string) error {
	cooldown, err := s.limiter.Allow(ctx, "reset:resend:"+userID, resetCooldownLimit, resetCooldownWindow)
	if err != nil {
		return err
	}
	if !cooldown.Allowed {
		return &domain.RateLimitError{
			Action:     "request password reset",
			Limit:      resetCooldownLimit,
			Window:     resetCooldownWindow,
			RetryAfter: cooldown.RetryAfter,
		}
	}

	cap3h, err := s.limiter.Allow(ctx, "reset:window:"+userID, resetCapLimit, resetCapWindow)
	if err != nil {
		return err
	}
	if !cap3h.Allowed {
		return &domain.RateLimitError{
			Action:     "request password reset",
			Limit:      resetCapLimit,
			Window:     resetCapWindow,
			RetryAfter: cap3h.RetryAfter,
		}
	}
	return nil
}

func newResetToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reset token entropy: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func newResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("reset code entropy: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
