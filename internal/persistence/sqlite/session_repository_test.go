package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/desk-booking/internal/persistence"
)

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "jan", "Jan")
	repo := store.Sessions

	session := persistence.Session{
		ID:          "s1",
		UserID:      "jan",
		Token:       " token-1 ",
		Fingerprint: "agent",
		ExpiresAt:   testNow.Add(24 * time.Hour),
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
	created, err := repo.CreateSession(ctx, session)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if created.Token != "token-1" || created.RevokedAt != nil {
		t.Fatalf("unexpected session: %+v", created)
	}

	if _, err := repo.CreateSession(ctx, persistence.Session{ID: "s2", UserID: "jan", Token: "token-1", ExpiresAt: testNow, CreatedAt: testNow, UpdatedAt: testNow}); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for reused token, got %v", err)
	}

	created.ExpiresAt = testNow.Add(48 * time.Hour)
	created.UpdatedAt = testNow.Add(time.Minute)
	updated, err := repo.UpdateSession(ctx, created)
	if err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}
	if !updated.ExpiresAt.Equal(testNow.Add(48 * time.Hour)) {
		t.Fatalf("expected extended expiry, got %v", updated.ExpiresAt)
	}

	revoked, err := repo.RevokeSession(ctx, "token-1", testNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(testNow.Add(time.Hour)) {
		t.Fatalf("expected revocation timestamp, got %+v", revoked.RevokedAt)
	}
	if _, err := repo.RevokeSession(ctx, "unknown", testNow); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := repo.DeleteExpiredSessions(ctx, testNow.Add(72*time.Hour)); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}
	if _, err := repo.GetSession(ctx, "token-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected expired session removed, got %v", err)
	}
}
