// Package session implements per-connection session state: TTL discipline,
// the connection-to-session binding, and background reclamation of stale
// rows, the server-side half of what the original Python service kept in
// Redis key-TTLs.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thirdeye/overseer/internal/models"
)

// ErrNotFound is returned when a connection id has no bound session.
var ErrNotFound = errors.New("session: no session bound to connection")

// Store holds the full set of sessions and connection bindings in memory,
// guarded by one lock. Exactly one binding exists per connection id at any
// instant; a session row exists only as long as some binding references it.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session     // session id -> session
	bindings map[string]string              // connection id -> session id
	refs     map[string]map[string]struct{} // session id -> connection ids referencing it
	ttl      time.Duration
}

func New(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*models.Session),
		bindings: make(map[string]string),
		refs:     make(map[string]map[string]struct{}),
		ttl:      ttl,
	}
}

// GetOrCreate returns the session bound to connectionID, minting a new one
// with a fresh id if no binding exists yet. Idempotent for an existing
// binding. Always returns a value copy.
func (s *Store) GetOrCreate(connectionID, tenantID, userID string, language models.Language) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID, ok := s.bindings[connectionID]; ok {
		if sess, ok := s.sessions[sessionID]; ok {
			return copySession(sess)
		}
	}

	now := time.Now()
	sess := &models.Session{
		ID:              uuid.NewString(),
		TenantID:        tenantID,
		UserID:          userID,
		Language:        language,
		ContextInfo:     make(map[string]any),
		CompletedPhases: nil,
		CreatedAt:       now,
		LastActivityAt:  now,
		ExpiresAt:       now.Add(s.ttl),
	}

	s.sessions[sess.ID] = sess
	s.bindings[connectionID] = sess.ID
	s.refs[sess.ID] = map[string]struct{}{connectionID: {}}

	return copySession(sess)
}

// Get returns the session bound to connectionID without creating one.
func (s *Store) Get(connectionID string) (*models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessionID, ok := s.bindings[connectionID]
	if !ok {
		return nil, false
	}
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return copySession(sess), true
}

// GetByID returns the session with the given session id directly, for
// callers that address a session by id rather than by connection binding
// (the HTTP surface's GET /session/{id} and clarification submission).
func (s *Store) GetByID(sessionID string) (*models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return copySession(sess), true
}

// UpdateByID applies a diff to the session with the given id directly,
// bypassing the connection binding. Used when clarification answers arrive
// addressed to a session id rather than a live connection.
func (s *Store) UpdateByID(sessionID string, diff models.SessionUpdate) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}

	if diff.ContextInfo != nil {
		for k, v := range diff.ContextInfo {
			sess.ContextInfo[k] = v
		}
	}
	if diff.CompletedPhases != nil {
		sess.CompletedPhases = diff.CompletedPhases
	}
	if diff.TokenBudget != nil {
		sess.TokenBudget = *diff.TokenBudget
	}
	sess.LastActivityAt = time.Now()

	return copySession(sess), nil
}

// BindExisting records a binding from connectionID to an already-minted
// session id, used when a second connection attaches to a session created
// out of band (e.g. the session id arrived via a prior HTTP response).
func (s *Store) BindExisting(connectionID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrNotFound
	}

	s.bindings[connectionID] = sessionID
	if s.refs[sessionID] == nil {
		s.refs[sessionID] = make(map[string]struct{})
	}
	s.refs[sessionID][connectionID] = struct{}{}
	return nil
}

// Update applies a single-writer diff under the store's lock and stamps
// last-activity to now.
func (s *Store) Update(connectionID string, diff models.SessionUpdate) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID, ok := s.bindings[connectionID]
	if !ok {
		return nil, ErrNotFound
	}
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}

	if diff.ContextInfo != nil {
		for k, v := range diff.ContextInfo {
			sess.ContextInfo[k] = v
		}
	}
	if diff.CompletedPhases != nil {
		sess.CompletedPhases = diff.CompletedPhases
	}
	if diff.TokenBudget != nil {
		sess.TokenBudget = *diff.TokenBudget
	}
	sess.LastActivityAt = time.Now()

	return copySession(sess), nil
}

// Touch extends a session's TTL deadline by the store's default window
// without touching any other field.
func (s *Store) Touch(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	sess.ExpiresAt = time.Now().Add(s.ttl)
	return nil
}

// CleanupStale removes every session whose TTL deadline has passed, along
// with all connection bindings that referenced it. Returns the count removed.
func (s *Store) CleanupStale() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, sess := range s.sessions {
		if !sess.IsReclaimable(now) {
			continue
		}
		for connID := range s.refs[id] {
			delete(s.bindings, connID)
		}
		delete(s.refs, id)
		delete(s.sessions, id)
		removed++
	}
	return removed
}

// Count returns the number of live sessions, for health/metrics reporting.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func copySession(sess *models.Session) *models.Session {
	out := *sess

	out.ContextInfo = make(map[string]any, len(sess.ContextInfo))
	for k, v := range sess.ContextInfo {
		out.ContextInfo[k] = v
	}

	if sess.CompletedPhases != nil {
		out.CompletedPhases = append([]string(nil), sess.CompletedPhases...)
	}

	return &out
}
