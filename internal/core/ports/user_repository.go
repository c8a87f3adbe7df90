package ports

import (
	"context"
	"time"

	"github.com/soporteya/auth-service/internal/core/domain"
)

// UserRepository defines persistence for users and their role grants.
// The auth core reads users and grants; the only user fields it mutates are
// the password hash, the login/verification markers, and the bootstrap grant
// created at registration.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	AddGrant(ctx context.Context, userID string, grant domain.Grant) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	RecordLogin(ctx context.Context, userID, ip string, at time.Time) error
	MarkEmailVerified(ctx context.Context, userID string) error
}
