package ports

import (
	"context"
	"time"

	"github.com/soporteya/auth-service/internal/core/domain"
)

// SessionRepository persists refresh-token rows. Sessions are looked up by
// the SHA-256 hash of the raw token; the raw value is never stored.
type SessionRepository interface {
	Insert(ctx context.Context, session *domain.Session) error
	FindByID(ctx context.Context, id string) (*domain.Session, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)

	// RevokeIfLive atomically sets revoked_at on the session only when it is
	// still unrevoked. Returns domain.ErrSessionNotFound when no live row
	// matched — under concurrent rotation of the same stale token exactly one
	// caller succeeds and the rest observe "already revoked".
	RevokeIfLive(ctx context.Context, id string, at time.Time) error

	RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error)
	Touch(ctx context.Context, id string, at time.Time) error
	ListActiveForUser(ctx context.Context, userID string, now time.Time) ([]domain.Session, error)
}
