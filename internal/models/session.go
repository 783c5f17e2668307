package models

import "time"

// Language is the session's preferred response language.
type Language string

const (
	LanguageAuto Language = "auto"
	LanguageEN   Language = "en"
	LanguageAR   Language = "ar"
)

// Session represents one logical conversation. The Session Store exclusively
// owns session rows; callers only ever see value copies.
type Session struct {
	ID              string         `json:"id"`
	TenantID        string         `json:"tenantId,omitempty"`
	UserID          string         `json:"userId,omitempty"`
	Language        Language       `json:"language"`
	TokenBudget     int            `json:"tokenBudget"`
	CompletedPhases []string       `json:"completedPhases"`
	ContextInfo     map[string]any `json:"contextInfo"`
	CreatedAt       time.Time      `json:"createdAt"`
	LastActivityAt  time.Time      `json:"lastActivityAt"`
	ExpiresAt       time.Time      `json:"expiresAt"`
}

// IsReclaimable reports whether the session's TTL deadline has passed.
func (s Session) IsReclaimable(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// SessionUpdate is a diff applied to a session under the store's lock.
type SessionUpdate struct {
	ContextInfo     map[string]any
	CompletedPhases []string
	TokenBudget     *int
}
