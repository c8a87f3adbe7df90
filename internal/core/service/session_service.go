package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soporteya/auth-service/internal/core/domain"
	"github.com/soporteya/auth-service/internal/core/ports"
)

const defaultRefreshTTL = 30 * 24 * time.Hour

// SessionService is the session registry: it creates, rotates, and revokes
// the refresh-token rows that back logged-in devices.
type SessionService struct {
	repo       ports.SessionRepository
	users      ports.UserRepository
	refreshTTL time.Duration
	now        func() time.Time
}

func NewSessionService(repo ports.SessionRepository, users ports.UserRepository, refreshTTL time.Duration) *SessionService {
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &SessionService{repo: repo, users: users, refreshTTL: refreshTTL, now: time.Now}
}

// FindByID satisfies the token codec's SessionChecker.
func (s *SessionService) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	return s.repo.FindByID(ctx, id)
}

// Create opens a new session for the user and returns the raw refresh token
// exactly once. Only the SHA-256 hash is stored.
func (s *SessionService) Create(ctx context.Context, user *domain.User, device domain.DeviceInfo) (string, *domain.Session, error) {
	raw, err := newRefreshToken()
	if err != nil {
		return "", nil, err
	}

	now := s.now().UTC()
	session := &domain.Session{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		TokenHash:  HashToken(raw),
		DeviceName: device.Name,
		IPAddress:  device.IP,
		UserAgent:  device.UserAgent,
		IssuedAt:   now,
		LastUsedAt: now,
		ExpiresAt:  now.Add(s.refreshTTL),
	}
	if err := s.repo.Insert(ctx, session); err != nil {
		return "", nil, err
	}
	return raw, session, nil
}

// Rotate exchanges a valid refresh token for a fresh session. Rotation is
// mandatory: the old row is revoked before the new one is inserted, and the
// revoke is conditional on the row still being live, so N concurrent
// rotations of one stale token admit exactly one winner.
func (s *SessionService) Rotate(ctx context.Context, rawToken string, device domain.DeviceInfo) (string, *domain.Session, *domain.User, error) {
	session, err := s.repo.FindByTokenHash(ctx, HashToken(rawToken))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return "", nil, nil, domain.ErrInvalidRefreshToken
		}
		return "", nil, nil, err
	}

	now := s.now().UTC()
	if !session.IsLive(now) {
		return "", nil, nil, domain.ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return "", nil, nil, domain.ErrInvalidRefreshToken
	}
	if !user.IsActive() {
		return "", nil, nil, domain.ErrInvalidRefreshToken
	}

	if err := s.repo.Touch(ctx, session.ID, now); err != nil {
		return "", nil, nil, err
	}

	// The atomic check-then-revoke: losers of a concurrent race land here
	// with ErrSessionNotFound and fail closed.
	if err := s.repo.RevokeIfLive(ctx, session.ID, now); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return "", nil, nil, domain.ErrInvalidRefreshToken
		}
		return "", nil, nil, err
	}

	newRaw, newSession, err := s.Create(ctx, user, device)
	if err != nil {
		return "", nil, nil, err
	}
	return newRaw, newSession, user, nil
}

// Revoke closes a single session.
func (s *SessionService) Revoke(ctx context.Context, sessionID string) error {
	return s.repo.RevokeIfLive(ctx, sessionID, s.now().UTC())
}

// RevokeAll closes every session the user has — "logout everywhere" and the
// post-password-reset invalidation.
func (s *SessionService) RevokeAll(ctx context.Context, userID string) (int64, error) {
	return s.repo.RevokeAllForUser(ctx, userID, s.now().UTC())
}

// List returns the user's live sessions, most recently used first, with the
// caller's own session flagged.
func (s *SessionService) List(ctx context.Context, userID, currentSessionID string) ([]ports.SessionView, error) {
	sessions, err := s.repo.ListActiveForUser(ctx, userID, s.now().UTC())
	if err != nil {
		return nil, err
	}

	views := make([]ports.SessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, ports.SessionView{
			ID:         sess.ID,
			DeviceName: sess.DeviceName,
			IPAddress:  sess.IPAddress,
			LastUsedAt: sess.LastUsedAt,
			CreatedAt:  sess.IssuedAt,
			IsCurrent:  sess.ID == currentSessionID,
		})
	}
	return views, nil
}

// RevokeByID revokes one of the caller's other sessions. Revoking the
// session backing the current request is a conflict; logout exists for that.
func (s *SessionService) RevokeByID(ctx context.Context, userID, sessionID, currentSessionID string) error {
	if sessionID == currentSessionID {
		return domain.ErrCurrentSessionRevoked
	}

	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.UserID != userID || !session.IsLive(s.now()) {
		return domain.ErrSessionNotFound
	}
	return s.repo.RevokeIfLive(ctx, sessionID, s.now().UTC())
}

// HashToken derives the storable lookup key for a raw refresh token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("refresh token entropy: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
