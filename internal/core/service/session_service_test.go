package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/soporteya/auth-service/internal/core/domain"
)

func newTestSessionService(repo *stubSessionRepo, users *stubUserRepo) *SessionService {
	return NewSessionService(repo, users, 30*24*time.Hour)
}

func TestSessionService_CreateStoresHashOnly(t *testing.T) {
	user := activeUser("u1", "a@b.com", "password123")
	repo := newStubSessionRepo()
	svc := newTestSessionService(repo, newStubUserRepo(user))

	raw, session, err := svc.Create(context.Background(), user, domain.DeviceInfo{Name: "Chrome on Windows"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(raw) != 64 {
		t.Fatalf("expected 64-char hex token, got %d chars", len(raw))
	}
	if session.TokenHash == raw {
		t.Fatalf("raw token stored instead of hash")
	}
	if session.TokenHash != HashToken(raw) {
		t.Fatalf("stored hash does not match token")
	}

	found, err := repo.FindByTokenHash(context.Background(), HashToken(raw))
	if err != nil {
		t.Fatalf("lookup by hash: %v", err)
	}
	if found.ID != session.ID || found.DeviceName != "Chrome on Windows" {
		t.Fatalf("unexpected stored session: %+v", found)
	}
}

func TestSessionService_RotateRevokesOldRow(t *testing.T) {
	user := activeUser("u1", "a@b.com", "password123")
	repo := newStubSessionRepo()
	svc := newTestSessionService(repo, newStubUserRepo(user))

	raw, old, err := svc.Create(context.Background(), user, domain.DeviceInfo{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newRaw, newSession, gotUser, err := svc.Rotate(context.Background(), raw, domain.DeviceInfo{})
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if newRaw == raw {
		t.Fatalf("rotation returned the same token")
	}
	if newSession.ID == old.ID {
		t.Fatalf("rotation reused the session row")
	}
	if gotUser.ID != user.ID {
		t.Fatalf("rotation resolved wrong user")
	}

	oldRow, err := repo.FindByID(context.Background(), old.ID)
	if err != nil {
		t.Fatalf("old row gone: %v", err)
	}
	if !oldRow.IsRevoked() {
		t.Fatalf("old session not revoked after rotation")
	}

	// The consumed token is dead.
	if _, _, _, err := svc.Rotate(context.Background(), raw, domain.DeviceInfo{}); !errors.Is(err, domain.ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken for replayed token, got %v", err)
	}
	// The new one works.
	if _, _, _, err := svc.Rotate(context.Background(), newRaw, domain.DeviceInfo{}); err != nil {
		t.Fatalf("rotating the fresh token: %v", err)
	}
}

func TestSessionService_RotateRejectsUnknownToken(t *testing.T) {
	svc := newTestSessionService(newStubSessionRepo(), newStubUserRepo())
	if _, _, _, err := svc.Rotate(context.Background(), "deadbeef", domain.DeviceInfo{}); !errors.Is(err, domain.ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestSessionService_RotateRejectsExpiredSession(t *testing.T) {
	user := activeUser("u1", "a@b.com", "password123")
	repo := newStubSessionRepo()
	svc := newTestSessionService(repo, newStubUserRepo(user))

	raw, _, err := svc.Create(context.Background(), user, domain.DeviceInfo{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	if _, _, _, err := svc.Rotate(context.Background(), raw, domain.DeviceInfo{}); !errors.Is(err, domain.ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken for expired session, got %v", err)
	}
}

func TestSessionService_RotateRejectsSuspendedUser(t *testing.T) {
	user := activeUser("u1", "a@b.com", "password123")
	repo := newStubSessionRepo()
	svc := newTestSessionService(repo, newStubUserRepo(user))

	raw, _, err := svc.Create(context.Background(), user, domain.DeviceInfo{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	user.Status = domain.StatusSuspended
	if _, _, _, err := svc.Rotate(context.Background(), raw, domain.DeviceInfo{}); !errors.Is(err, domain.ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken for suspended user, got %v", err)
	}
}

// N concurrent rotations of one token must admit exactly one winner; the
// conditional revoke is the linearization point.
func TestSessionService_ConcurrentRotationSingleWinner(t *testing.T) {
	user := activeUser("u1", "a@b.com", "password123")
	repo := newStubSessionRepo()
	svc := newTestSessionService(repo, newStubUserRepo(user))

	raw, _, err := svc.Create(context.Background(), user, domain.DeviceInfo{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const n = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	var wins, losses int

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _, err := svc.Rotate(context.Background(), raw, domain.DeviceInfo{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrInvalidRefreshToken):
				losses++
			default:
				t.Errorf("unexpected rotation error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly 1 winner, got %d (losses %d)", wins, losses)
	}
	if losses != n-1 {
		t.Fatalf("expected %d losers, got %d", n-1, losses)
	}
}

func TestSessionService_ListFlagsCurrent(t *testing.T) {
	user := activeUser("u1", "a@b.com", "password123")
	repo := newStubSessionRepo()
	svc := newTestSessionService(repo, newStubUserRepo(user))

	_, first, err := svc.Create(context.Background(), user, domain.DeviceInfo{Name: "Chrome on Windows"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, second, err := svc.Create(context.Background(), user, domain.DeviceInfo{Name: "Safari on iOS"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Revoke(context.Background(), second.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	views, err := svc.List(context.Background(), user.ID, first.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("revoked session still listed: %+v", views)
	}
	if views[0].ID != first.ID || !views[0].IsCurrent {
		t.Fatalf("current session not flagged: %+v", views[0])
	}
}

func TestSessionService_RevokeByID(t *testing.T) {
	user := activeUser("u1", "a@b.com", "password123")
	other := activeUser("u2", "c@d.com", "password123")
	repo := newStubSessionRepo()
	svc := newTestSessionService(repo, newStubUserRepo(user, other))

	_, current, err := svc.Create(context.Background(), user, domain.DeviceInfo{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, target, err := svc.Create(context.Background(), user, domain.DeviceInfo{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, foreign, err := svc.Create(context.Background(), other, domain.DeviceInfo{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.RevokeByID(context.Background(), user.ID, current.ID, current.ID); !errors.Is(err, domain.ErrCurrentSessionRevoked) {
		t.Fatalf("expected ErrCurrentSessionRevoked, got %v", err)
	}
	if err := svc.RevokeByID(context.Background(), user.ID, foreign.ID, current.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for foreign session, got %v", err)
	}
	if err := svc.RevokeByID(context.Background(), user.ID, target.ID, current.ID); err != nil {
		t.Fatalf("revoke own other session: %v", err)
	}

	row, err := repo.FindByID(context.Background(), target.ID)
	if err != nil {
		t.Fatalf("find target: %v", err)
	}
	if !row.IsRevoked() {
		t.Fatalf("target session not revoked")
	}
}

func TestSessionService_RevokeAll(t *testing.T) {
	user := activeUser("u1", "a@b.com", "password123")
	repo := newStubSessionRepo()
	svc := newTestSessionService(repo, newStubUserRepo(user))

	for i := 0; i < 3; i++ {
		if _, _, err := svc.Create(context.Background(), user, domain.DeviceInfo{}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	n, err := svc.RevokeAll(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 revoked, got %d", n)
	}

	views, err := svc.List(context.Background(), user.ID, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("sessions survived revoke-all: %+v", views)
	}
}
