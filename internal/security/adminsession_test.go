package security

import (
	"testing"
	"time"
)

func TestAdminSessionStore_CreateAndGet(t *testing.T) {
	store := NewAdminSessionStore()
	guard := NewCSRFGuard("secret")

	session, err := store.Create("key-1", time.Hour, guard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.CSRFToken == "" {
		t.Fatal("expected a non-empty CSRF token")
	}

	got, ok := store.Get(session.ID)
	if !ok {
		t.Fatal("expected to find the created session")
	}
	if got.APIKeyID != "key-1" {
		t.Fatalf("expected apiKeyID key-1, got %q", got.APIKeyID)
	}
}

func TestAdminSessionStore_GetMissingReturnsFalse(t *testing.T) {
	store := NewAdminSessionStore()
	_, ok := store.Get("nonexistent")
	if ok {
		t.Fatal("expected missing session to report not found")
	}
}

func TestAdminSessionStore_ExpiredSessionIsNotReturned(t *testing.T) {
	store := NewAdminSessionStore()
	guard := NewCSRFGuard("secret")

	session, err := store.Create("key-1", -time.Second, guard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, ok := store.Get(session.ID)
	if ok {
		t.Fatal("expected an already-expired session to be rejected")
	}
}

func TestAdminSessionStore_TouchExtendsExpiry(t *testing.T) {
	store := NewAdminSessionStore()
	guard := NewCSRFGuard("secret")

	session, _ := store.Create("key-1", time.Millisecond, guard)
	time.Sleep(2 * time.Millisecond)

	if store.Touch(session.ID, time.Hour) {
		t.Fatal("expected touch on an already-expired session to fail")
	}

	session2, _ := store.Create("key-2", time.Hour, guard)
	if !store.Touch(session2.ID, 2*time.Hour) {
		t.Fatal("expected touch on a live session to succeed")
	}
}

func TestAdminSessionStore_RevokeRemovesSession(t *testing.T) {
	store := NewAdminSessionStore()
	guard := NewCSRFGuard("secret")

	session, _ := store.Create("key-1", time.Hour, guard)
	store.Revoke(session.ID)

	if _, ok := store.Get(session.ID); ok {
		t.Fatal("expected revoked session to be gone")
	}
}

func TestAdminSessionStore_CleanupExpiredRemovesOnlyExpired(t *testing.T) {
	store := NewAdminSessionStore()
	guard := NewCSRFGuard("secret")

	expired, _ := store.Create("key-1", -time.Second, guard)
	live, _ := store.Create("key-2", time.Hour, guard)

	removed := store.CleanupExpired()
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok := store.Get(live.ID); !ok {
		t.Fatal("expected live session to survive cleanup")
	}
	if _, ok := store.sessions[expired.ID]; ok {
		t.Fatal("expected expired session to be removed from the map")
	}
}
