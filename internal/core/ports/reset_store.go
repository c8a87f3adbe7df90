package ports

import (
	"context"
	"time"

	"github.com/soporteya/auth-service/internal/core/domain"
)

// ResetStore keeps in-flight password-reset records in the cache store.
// Records are keyed by token with a secondary code→token lookup; saving a
// record replaces any previous one for the same user, invalidating the old
// token/code pair.
type ResetStore interface {
	Save(ctx context.Context, token string, record domain.ResetRecord, ttl time.Duration) error
	Find(ctx context.Context, token string) (*domain.ResetRecord, error)
	TokenByCode(ctx context.Context, code string) (string, error)

	// Consume removes the record and its secondary keys and returns it.
	// The removal is atomic: a given token or code is usable at most once,
	// concurrent confirmations see domain.ErrInvalidResetCredential.
	Consume(ctx context.Context, token string) (*domain.ResetRecord, error)

	DecrementAttempts(ctx context.Context, token string) (int, error)
}

// VerificationStore keeps email-verification tokens in the cache store.
type VerificationStore interface {
	Save(ctx context.Context, userID, token string, ttl time.Duration) error

	// Consume resolves the owning user and deletes the token (single use).
	// Returns domain.ErrVerificationInvalid when absent or expired.
	Consume(ctx context.Context, token string) (string, error)
}
