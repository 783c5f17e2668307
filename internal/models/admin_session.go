package models

import "time"

// AdminSession binds an admin API key to a short-lived, server-side session
// record. Expiry forces re-login; every admin request that touches it
// extends the TTL.
type AdminSession struct {
	ID        string    `json:"id"`
	APIKeyID  string    `json:"apiKeyId"`
	CSRFToken string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsExpired reports whether the admin session's TTL deadline has passed.
func (s AdminSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
