package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/thirdeye/overseer/internal/models"
)

// AdminSessionCookieName carries the opaque admin session id, set httpOnly
// on login and read back on every admin request.
const AdminSessionCookieName = "third-eye-admin-session"

// AdminSessionStore holds server-side admin sessions created on login,
// keyed by session id. An admin session carries its own CSRF token,
// generated once at login and validated against every state-changing
// admin request for the session's lifetime.
type AdminSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.AdminSession
}

func NewAdminSessionStore() *AdminSessionStore {
	return &AdminSessionStore{sessions: make(map[string]*models.AdminSession)}
}

// Create starts a new admin session for apiKeyID, valid for ttl, and
// mints its bound CSRF token via guard.
func (s *AdminSessionStore) Create(apiKeyID string, ttl time.Duration, guard *CSRFGuard) (*models.AdminSession, error) {
	id, err := randomHex(16)
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	randomToken, err := randomHex(32)
	if err != nil {
		return nil, fmt.Errorf("generate csrf token: %w", err)
	}

	now := time.Now()
	session := &models.AdminSession{
		ID:        id,
		APIKeyID:  apiKeyID,
		CSRFToken: guard.Generate(randomToken),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	return session, nil
}

// Get returns a value copy of the session if it exists and has not
// expired. A caller holding a copy never races the store's own writes.
func (s *AdminSessionStore) Get(id string) (models.AdminSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok || session.IsExpired(time.Now()) {
		return models.AdminSession{}, false
	}
	return *session, true
}

// Touch extends a still-valid session's expiry by ttl, returning false
// if the session is missing or already expired.
func (s *AdminSessionStore) Touch(id string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || session.IsExpired(time.Now()) {
		return false
	}
	session.ExpiresAt = time.Now().Add(ttl)
	return true
}

// Revoke deletes a session immediately, e.g. on admin logout.
func (s *AdminSessionStore) Revoke(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// CleanupExpired removes every session whose TTL has passed, returning
// the count removed. Scheduled by the Reclamation Loop alongside the
// session store's own cleanup, not by a ticker owned by this store.
func (s *AdminSessionStore) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, session := range s.sessions {
		if session.IsExpired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
