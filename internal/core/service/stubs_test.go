package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/soporteya/auth-service/internal/core/domain"
	"github.com/soporteya/auth-service/internal/core/ports"
)

// stubUserRepo is an in-memory ports.UserRepository.
type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User // by id
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Store a detached copy: inserting a row must not alias the caller's
	// struct, or a later AddGrant would double up in the caller's slice.
	cp := *user
	cp.Grants = append([]domain.Grant(nil), user.Grants...)
	r.users[user.ID] = &cp
	return user, nil
}

func (r *stubUserRepo) AddGrant(_ context.Context, userID string, grant domain.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Grants = append(u.Grants, grant)
	return nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *stubUserRepo) RecordLogin(_ context.Context, userID, ip string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LastLoginAt = &at
	u.LastLoginIP = ip
	return nil
}

func (r *stubUserRepo) MarkEmailVerified(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.EmailVerified = true
	return nil
}

// stubSessionRepo is an in-memory ports.SessionRepository. RevokeIfLive is
// atomic under the mutex, matching the conditional-update semantics of the
// real store.
type stubSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (r *stubSessionRepo) Insert(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *stubSessionRepo) FindByID(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (r *stubSessionRepo) FindByTokenHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.TokenHash == tokenHash {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

func (r *stubSessionRepo) RevokeIfLive(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.RevokedAt != nil {
		return domain.ErrSessionNotFound
	}
	s.RevokedAt = &at
	return nil
}

func (r *stubSessionRepo) RevokeAllForUser(_ context.Context, userID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &at
			n++
		}
	}
	return n, nil
}

func (r *stubSessionRepo) Touch(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.LastUsedAt = at
	}
	return nil
}

func (r *stubSessionRepo) ListActiveForUser(_ context.Context, userID string, now time.Time) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Session
	for _, s := range r.sessions {
		if s.UserID == userID && s.IsLive(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

// stubResetStore is an in-memory ports.ResetStore.
type stubResetStore struct {
	mu      sync.Mutex
	records map[string]*domain.ResetRecord // by token
	byCode  map[string]string
}

func newStubResetStore() *stubResetStore {
	return &stubResetStore{
		records: make(map[string]*domain.ResetRecord),
		byCode:  make(map[string]string),
	}
}

func (s *stubResetStore) Save(_ context.Context, token string, record domain.ResetRecord, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Replace any previous record for the same user.
	for t, r := range s.records {
		if r.UserID == record.UserID {
			delete(s.byCode, r.Code)
			delete(s.records, t)
		}
	}
	s.records[token] = &record
	s.byCode[record.Code] = token
	return nil
}

func (s *stubResetStore) Find(_ context.Context, token string) (*domain.ResetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[token]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, domain.ErrInvalidResetCredential
}

func (s *stubResetStore) TokenByCode(_ context.Context, code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.byCode[code]; ok {
		return t, nil
	}
	return "", domain.ErrInvalidResetCredential
}

func (s *stubResetStore) Consume(_ context.Context, token string) (*domain.ResetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[token]
	if !ok {
		return nil, domain.ErrInvalidResetCredential
	}
	delete(s.records, token)
	delete(s.byCode, r.Code)
	return r, nil
}

func (s *stubResetStore) DecrementAttempts(_ context.Context, token string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[token]
	if !ok {
		return 0, domain.ErrInvalidResetCredential
	}
	r.AttemptsRemaining--
	return r.AttemptsRemaining, nil
}

// stubVerificationStore is an in-memory ports.VerificationStore.
type stubVerificationStore struct {
	mu     sync.Mutex
	tokens map[string]string // token -> userID
}

func newStubVerificationStore() *stubVerificationStore {
	return &stubVerificationStore{tokens: make(map[string]string)}
}

func (s *stubVerificationStore) Save(_ context.Context, userID, token string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = userID
	return nil
}

func (s *stubVerificationStore) Consume(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.tokens[token]
	if !ok {
		return "", domain.ErrVerificationInvalid
	}
	delete(s.tokens, token)
	return userID, nil
}

// stubLimiter scripts rate-limit decisions per key prefix.
type stubLimiter struct {
	mu       sync.Mutex
	denyKeys map[string]time.Duration // key -> retry-after
	calls    []string
}

func newStubLimiter() *stubLimiter {
	return &stubLimiter{denyKeys: make(map[string]time.Duration)}
}

func (l *stubLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (ports.RateLimitDecision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, key)
	if retry, ok := l.denyKeys[key]; ok {
		return ports.RateLimitDecision{Allowed: false, RetryAfter: retry}, nil
	}
	return ports.RateLimitDecision{Allowed: true, Remaining: limit - 1}, nil
}

// stubMailer records enqueued mail.
type stubMailer struct {
	mu            sync.Mutex
	resets        []struct{ To, Token, Code string }
	verifications []struct{ To, Token string }
}

func (m *stubMailer) EnqueuePasswordReset(to, token, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, struct{ To, Token, Code string }{to, token, code})
}

func (m *stubMailer) EnqueueVerification(to, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications = append(m.verifications, struct{ To, Token string }{to, token})
}

func mustHash(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}

func strptr(s string) *string { return &s }

func activeUser(id, email, password string, grants ...domain.Grant) *domain.User {
	return &domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: mustHash(password),
		Status:       domain.StatusActive,
		Grants:       grants,
	}
}
