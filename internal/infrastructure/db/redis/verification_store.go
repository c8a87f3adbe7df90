package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soporteya/auth-service/internal/core/domain"
)

const (
	verifyTokenPrefix = "verify:token:"
	verifyUserPrefix  = "verify:user:"
)

// VerificationStore keeps email-verification tokens in Redis. One live
// token per user; reissuing replaces the previous one.
type VerificationStore struct {
	client *redis.Client
}

func NewVerificationStore(client *redis.Client) *VerificationStore {
	return &VerificationStore{client: client}
}

func (s *VerificationStore) Save(ctx context.Context, userID, token string, ttl time.Duration) error {
	if prev, err := s.client.Get(ctx, verifyUserPrefix+userID).Result(); err == nil {
		s.client.Del(ctx, verifyTokenPrefix+prev)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, verifyTokenPrefix+token, userID, ttl)
	pipe.Set(ctx, verifyUserPrefix+userID, token, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save verification token: %w", err)
	}
	return nil
}

// Consume resolves the owning user and removes the token in one step.
func (s *VerificationStore) Consume(ctx context.Context, token string) (string, error) {
	userID, err := s.client.GetDel(ctx, verifyTokenPrefix+token).Result()
	if err == redis.Nil {
		return "", domain.ErrVerificationInvalid
	}
	if err != nil {
		return "", fmt.Errorf("consume verification token: %w", err)
	}
	s.client.Del(ctx, verifyUserPrefix+userID)
	return userID, nil
}
