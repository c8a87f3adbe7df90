package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soporteya/auth-service/internal/core/domain"
)

// Key layout: the record lives under its token, with secondary keys mapping
// the 6-digit code and the owning user back to that token. The user key is
// what lets a new request invalidate the previous token/code pair.
const (
	resetTokenPrefix = "pwdreset:token:"
	resetCodePrefix  = "pwdreset:code:"
	resetUserPrefix  = "pwdreset:user:"
)

// ResetStore keeps password-reset records in Redis with TTL-bound keys.
type ResetStore struct {
	client *redis.Client
}

func NewResetStore(client *redis.Client) *ResetStore {
	return &ResetStore{client: client}
}

// Save writes the record and its secondary keys, removing any previous
// record for the same user first so only one token/code pair is ever live.
func (s *ResetStore) Save(ctx context.Context, token string, record domain.ResetRecord, ttl time.Duration) error {
	if prev, err := s.client.Get(ctx, resetUserPrefix+record.UserID).Result(); err == nil {
		if old, err := s.Find(ctx, prev); err == nil {
			s.client.Del(ctx, resetTokenPrefix+prev, resetCodePrefix+old.Code)
		}
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal reset record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, resetTokenPrefix+token, payload, ttl)
	pipe.Set(ctx, resetCodePrefix+record.Code, token, ttl)
	pipe.Set(ctx, resetUserPrefix+record.UserID, token, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save reset record: %w", err)
	}
	return nil
}

func (s *ResetStore) Find(ctx context.Context, token string) (*domain.ResetRecord, error) {
	payload, err := s.client.Get(ctx, resetTokenPrefix+token).Result()
	if err == redis.Nil {
		return nil, domain.ErrInvalidResetCredential
	}
	if err != nil {
		return nil, fmt.Errorf("find reset record: %w", err)
	}

	var record domain.ResetRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("decode reset record: %w", err)
	}
	return &record, nil
}

func (s *ResetStore) TokenByCode(ctx context.Context, code string) (string, error) {
	token, err := s.client.Get(ctx, resetCodePrefix+code).Result()
	if err == redis.Nil {
		return "", domain.ErrInvalidResetCredential
	}
	if err != nil {
		return "", fmt.Errorf("resolve reset code: %w", err)
	}
	return token, nil
}

// Atomic take: returns the record and deletes it together with its
// secondary keys. Only one concurrent consumer gets a non-nil reply.
var consumeScript = redis.NewScript(`
	local payload = redis.call('GET', KEYS[1])
	if not payload then
		return false
	end
	redis.call('DEL', KEYS[1])
	local record = cjson.decode(payload)
	if record.code then
		redis.call('DEL', ARGV[1] .. record.code)
	end
	if record.user_id then
		redis.call('DEL', ARGV[2] .. record.user_id)
	end
	return payload
`)

func (s *ResetStore) Consume(ctx context.Context, token string) (*domain.ResetRecord, error) {
	payload, err := consumeScript.Run(ctx, s.client,
		[]string{resetTokenPrefix + token},
		resetCodePrefix, resetUserPrefix,
	).Text()
	if err == redis.Nil {
		return nil, domain.ErrInvalidResetCredential
	}
	if err != nil {
		return nil, fmt.Errorf("consume reset record: %w", err)
	}

	var record domain.ResetRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("decode reset record: %w", err)
	}
	return &record, nil
}

var decrementScript = redis.NewScript(`
	local payload = redis.call('GET', KEYS[1])
	if not payload then
		return -1
	end
	local record = cjson.decode(payload)
	local remaining = record.attempts_remaining - 1
	if remaining < 0 then
		remaining = 0
	end
	record.attempts_remaining = remaining
	redis.call('SET', KEYS[1], cjson.encode(record), 'KEEPTTL')
	return remaining
`)

func (s *ResetStore) DecrementAttempts(ctx context.Context, token string) (int, error) {
	remaining, err := decrementScript.Run(ctx, s.client, []string{resetTokenPrefix + token}).Int()
	if err != nil {
		return 0, fmt.Errorf("decrement reset attempts: %w", err)
	}
	if remaining < 0 {
		return 0, domain.ErrInvalidResetCredential
	}
	return remaining, nil
}
