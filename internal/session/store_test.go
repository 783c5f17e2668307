package session

import (
	"testing"
	"time"

	"github.com/thirdeye/overseer/internal/models"
)

func TestGetOrCreate_IsIdempotentPerConnection(t *testing.T) {
	s := New(time.Hour)

	first := s.GetOrCreate("conn-1", "tenant-a", "", models.LanguageAuto)
	second := s.GetOrCreate("conn-1", "tenant-a", "", models.LanguageAuto)

	if first.ID != second.ID {
		t.Fatalf("expected same session id, got %s and %s", first.ID, second.ID)
	}
}

func TestGetOrCreate_DistinctConnectionsGetDistinctSessions(t *testing.T) {
	s := New(time.Hour)

	a := s.GetOrCreate("conn-1", "tenant-a", "", models.LanguageAuto)
	b := s.GetOrCreate("conn-2", "tenant-a", "", models.LanguageAuto)

	if a.ID == b.ID {
		t.Fatal("expected distinct session ids for distinct connections")
	}
}

func TestGet_ReturnsValueCopy(t *testing.T) {
	s := New(time.Hour)
	s.GetOrCreate("conn-1", "tenant-a", "", models.LanguageAuto)

	sess, ok := s.Get("conn-1")
	if !ok {
		t.Fatal("expected session to be found")
	}

	sess.ContextInfo["mutated"] = true

	again, _ := s.Get("conn-1")
	if _, present := again.ContextInfo["mutated"]; present {
		t.Fatal("mutating a returned copy must not affect the stored session")
	}
}

func TestGet_UnknownConnectionNotFound(t *testing.T) {
	s := New(time.Hour)
	if _, ok := s.Get("missing"); ok {
		t.Fatal("expected not found for unbound connection")
	}
}

func TestUpdate_MergesContextInfoAndStampsActivity(t *testing.T) {
	s := New(time.Hour)
	created := s.GetOrCreate("conn-1", "tenant-a", "", models.LanguageAuto)
	time.Sleep(time.Millisecond)

	updated, err := s.Update("conn-1", models.SessionUpdate{
		ContextInfo: map[string]any{"key": "value"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.ContextInfo["key"] != "value" {
		t.Fatal("expected merged context key")
	}
	if !updated.LastActivityAt.After(created.LastActivityAt) {
		t.Fatal("expected last-activity to advance")
	}
}

func TestUpdate_UnknownConnectionErrors(t *testing.T) {
	s := New(time.Hour)
	if _, err := s.Update("missing", models.SessionUpdate{}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTouch_ExtendsExpiry(t *testing.T) {
	s := New(time.Hour)
	sess := s.GetOrCreate("conn-1", "tenant-a", "", models.LanguageAuto)

	s.mu.Lock()
	s.sessions[sess.ID].ExpiresAt = time.Now().Add(-time.Minute)
	s.mu.Unlock()

	if err := s.Touch(sess.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.mu.RLock()
	expiresAt := s.sessions[sess.ID].ExpiresAt
	s.mu.RUnlock()

	if !expiresAt.After(time.Now()) {
		t.Fatal("expected touch to push expiry into the future")
	}
}

func TestCleanupStale_RemovesExpiredSessionsAndBindings(t *testing.T) {
	s := New(time.Hour)
	sess := s.GetOrCreate("conn-1", "tenant-a", "", models.LanguageAuto)

	s.mu.Lock()
	s.sessions[sess.ID].ExpiresAt = time.Now().Add(-time.Second)
	s.mu.Unlock()

	removed := s.CleanupStale()
	if removed != 1 {
		t.Fatalf("expected 1 removed session, got %d", removed)
	}

	if _, ok := s.Get("conn-1"); ok {
		t.Fatal("expected binding to be gone after cleanup")
	}
	if s.Count() != 0 {
		t.Fatalf("expected zero live sessions, got %d", s.Count())
	}
}

func TestCleanupStale_KeepsFreshSessions(t *testing.T) {
	s := New(time.Hour)
	s.GetOrCreate("conn-1", "tenant-a", "", models.LanguageAuto)

	if removed := s.CleanupStale(); removed != 0 {
		t.Fatalf("expected 0 removed, got %d", removed)
	}
	if s.Count() != 1 {
		t.Fatalf("expected 1 live session, got %d", s.Count())
	}
}

func TestBindExisting_SharesSessionAcrossConnections(t *testing.T) {
	s := New(time.Hour)
	sess := s.GetOrCreate("conn-1", "tenant-a", "", models.LanguageAuto)

	if err := s.BindExisting("conn-2", sess.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, ok := s.Get("conn-2")
	if !ok || second.ID != sess.ID {
		t.Fatal("expected conn-2 to resolve to the same session")
	}
}

func TestBindExisting_UnknownSessionErrors(t *testing.T) {
	s := New(time.Hour)
	if err := s.BindExisting("conn-1", "nonexistent"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
